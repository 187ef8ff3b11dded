// Package http serves health probes, the platform description and metrics
// beside a booted machine.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/options"
)

// ReadyFunc reports whether the machine is ready, with a reason when not.
type ReadyFunc func() (bool, string)

// PlatformFunc returns the platform handed to the kernel, or nil before it exists.
type PlatformFunc func() *hal.PlatformInfo

type Server struct {
	server  *http.Server
	options *options.HttpOptions

	ready    ReadyFunc
	platform PlatformFunc
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness makes /readyz report fn.
func WithReadiness(fn ReadyFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// WithPlatform enables /platform.
func WithPlatform(fn PlatformFunc) Option {
	return func(s *Server) { s.platform = fn }
}

func NewServer(opts *options.HttpOptions, serverOpts ...Option) *Server {
	s := &Server{options: opts}
	for _, o := range serverOpts {
		o(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	r.HandleFunc("/platform", s.describePlatform).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.ready != nil {
		if ok, reason := s.ready(); !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(reason))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) describePlatform(w http.ResponseWriter, _ *http.Request) {
	var p *hal.PlatformInfo
	if s.platform != nil {
		p = s.platform()
	}
	if p == nil {
		http.Error(w, "platform not assembled", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.Describe()); err != nil {
		log.Error(err, "Failed to encode platform description")
	}
}

// Start serves until ctx ends, then shuts down within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
