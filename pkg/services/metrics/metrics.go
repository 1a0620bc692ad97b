/*
Package metrics implements an HTTP service exposing Prometheus metrics
collected by the RPC client and CLI commands.
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/nspcc-dev/avail-go/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string

	lock      sync.Mutex
	listeners []net.Listener
	started   bool
}

// NewService creates a new Service with the given HTTP servers.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Name returns the service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Start binds all configured addresses and serves requests in separate
// goroutines. Nothing is done for disabled services.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	if ms.started {
		return errors.New("already started")
	}
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range ms.listeners {
				_ = l.Close()
			}
			ms.listeners = nil
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		ms.listeners = append(ms.listeners, ln)
	}
	for i, srv := range ms.http {
		ms.log.Info("starting service", zap.String("endpoint", ms.listeners[i].Addr().String()))
		go func(srv *http.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv, ms.listeners[i])
	}
	ms.started = true
	return nil
}

// Addrs returns the addresses the service listens on, it's empty before
// Start.
func (ms *Service) Addrs() []net.Addr {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	res := make([]net.Addr, 0, len(ms.listeners))
	for _, l := range ms.listeners {
		res = append(res, l.Addr())
	}
	return res
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	if !ms.started {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.listeners = nil
	ms.started = false
}
