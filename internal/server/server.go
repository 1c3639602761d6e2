// Package server exposes a store over a JSON HTTP API: the table list, paged
// reads, row mutations, console statements and database reset.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/audit"
)

const (
	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes = 1 << 20
	// MaxPageSize caps the page_size query parameter.
	MaxPageSize = 1000
)

// Config holds configuration for the API server.
type Config struct {
	Store    adapter.Store
	Addr     string
	PageSize int
	// Timeout bounds each storage call.
	Timeout      time.Duration
	MaxBodyBytes int64
	Logger       *slog.Logger
	Audit        *audit.Logger
}

// Server serves the JSON API for one store.
type Server struct {
	store    adapter.Store
	addr     string
	pageSize int
	timeout  time.Duration
	maxBody  int64
	logger   *slog.Logger
	audit    *audit.Logger
	handler  http.Handler

	tables tableCache
}

// New creates a server. Zero config fields take defaults.
func New(cfg Config) *Server {
	s := &Server{
		store:    cfg.Store,
		addr:     cfg.Addr,
		pageSize: cfg.PageSize,
		timeout:  cfg.Timeout,
		maxBody:  cfg.MaxBodyBytes,
		logger:   cfg.Logger,
		audit:    cfg.Audit,
	}
	if s.addr == "" {
		s.addr = ":8080"
	}
	if s.pageSize <= 0 {
		s.pageSize = 25
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.listTables)
		r.Get("/tables/{table}/rows", s.readRows)
		r.Post("/tables/{table}/rows", s.insertRow)
		r.Patch("/tables/{table}/rows", s.updateRow)
		r.Delete("/tables/{table}/rows", s.deleteRow)
		r.Post("/query", s.query)
		r.Post("/reset", s.reset)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", errors.New("no such route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed"))
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled
// or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", "addr", ln.Addr().String(),
		"driver", s.store.DriverName(), "database", s.store.DatabaseName())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
