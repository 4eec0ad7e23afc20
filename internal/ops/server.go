// Package ops serves the health, readiness, metrics and ledger endpoints.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// ReadinessProbe reports whether the scan loop is healthy.
type ReadinessProbe interface {
	Ready(now time.Time) (bool, string)
}

// LedgerView exposes the completed orders.
type LedgerView interface {
	Path() string
	List() []string
}

// LedgerResponse is the body of GET /ledger.
type LedgerResponse struct {
	Path   string   `json:"path"`
	Count  int      `json:"count"`
	Orders []string `json:"orders"`
}

// NewRouter builds the ops routes.
func NewRouter(ready ReadinessProbe, ledger LedgerView, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeText(req.Context(), w, http.StatusOK, "ok")
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ok, reason := ready.Ready(time.Now())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeText(req.Context(), w, status, reason)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/ledger", func(w http.ResponseWriter, req *http.Request) {
		orders := ledger.List()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(LedgerResponse{
			Path:   ledger.Path(),
			Count:  len(orders),
			Orders: orders,
		}); err != nil {
			logr.FromContextOrDiscard(req.Context()).Error(err, "write error")
		}
	})

	return r
}

func writeText(ctx context.Context, w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := fmt.Fprintln(w, body); err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "write error")
	}
}

// Server runs the ops router until its context is cancelled.
type Server struct {
	addr    string
	handler http.Handler
}

// NewServer creates a server for addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("ops listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := logr.FromContextOrDiscard(ctx)
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	logger.Info("ops server stopped")
	return nil
}
