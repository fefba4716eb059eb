package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/simon/core"
)

const (
	metricsPath     = "/metrics"
	shutdownTimeout = 2 * time.Second
)

// MetricsServer serves Metrics over HTTP as a Service
type MetricsServer struct {
	addr     string
	metrics  *Metrics
	log      zerolog.Logger
	listener net.Listener
	server   *http.Server
}

// NewMetricsServer creates a server for addr, ":0" picks a free port
func NewMetricsServer(addr string, metrics *Metrics, log zerolog.Logger) *MetricsServer {
	return &MetricsServer{
		addr:    addr,
		metrics: metrics,
		log:     Component(log, "metrics"),
	}
}

// Name implements service.Service
func (s *MetricsServer) Name() string {
	return "metrics"
}

// Dependencies implements service.Service
func (s *MetricsServer) Dependencies() []string {
	return nil
}

// Init binds the listen address so port conflicts surface before the UI starts
func (s *MetricsServer) Init() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.Handle(metricsPath, s.metrics.Handler())
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Start serves until Stop
func (s *MetricsServer) Start(_ context.Context) error {
	if s.server == nil {
		return errors.New("metrics server not initialized")
	}

	server, ln := s.server, s.listener
	core.Go(func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server stopped")
		}
	})
	s.log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return nil
}

// Stop shuts the server down, safe to call repeatedly
func (s *MetricsServer) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	// Shutdown does not close a listener Serve never took
	_ = s.listener.Close()
	s.server = nil
	s.listener = nil
	return err
}

// Addr returns the bound address, empty before Init
func (s *MetricsServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
