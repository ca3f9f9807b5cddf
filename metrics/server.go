package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server exposes the counters over HTTP at /metrics.
type Server struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address. An empty
// address is an error; callers decide whether metrics are enabled.
func New(name, listenAddr string) (*Server, error) {
	if listenAddr == "" {
		return nil, fmt.Errorf("metrics: listen address for %s is empty", name)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		srv: &http.Server{
			Addr:        listenAddr,
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
