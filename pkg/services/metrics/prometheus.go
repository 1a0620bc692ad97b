package metrics

import (
	"net/http"

	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a new service for gathering prometheus
// metrics, they're served at /metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler()) // share metrics between multiple prometheus handlers
		srvs[i] = &http.Server{
			Addr:    addr,
			Handler: mux,
		}
	}
	return NewService("Prometheus", srvs, cfg, log)
}
