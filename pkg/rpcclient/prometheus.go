package rpcclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring RPC calls.
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of RPC requests made",
			Name:      "requests_total",
			Subsystem: "rpcclient",
			Namespace: "availgo",
		},
		[]string{"method", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Help:      "RPC request duration",
			Name:      "request_duration_seconds",
			Subsystem: "rpcclient",
			Namespace: "availgo",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of retried RPC requests",
			Name:      "retries_total",
			Subsystem: "rpcclient",
			Namespace: "availgo",
		},
		[]string{"method"},
	)
	blockCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of blocks served from the client cache",
			Name:      "block_cache_hits_total",
			Subsystem: "rpcclient",
			Namespace: "availgo",
		},
	)
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		requestDuration,
		retriesTotal,
		blockCacheHits,
	)
}

func observeRequest(method string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	requestsTotal.WithLabelValues(method, status).Inc()
	requestDuration.WithLabelValues(method).Observe(d.Seconds())
}
