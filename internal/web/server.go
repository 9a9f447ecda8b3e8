// Package web provides the HTTP server and JSON API for trackmate.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/logging"
	"github.com/evcraddock/trackmate/internal/metrics"
	"github.com/evcraddock/trackmate/internal/visit"
	"github.com/evcraddock/trackmate/internal/visitcode"
)

// DefaultMaxPageSize caps per_page when Options.MaxPageSize is unset.
const DefaultMaxPageSize = 200

// ExpenseStore persists expenses.
type ExpenseStore interface {
	Add(ctx context.Context, list []expense.Expense) ([]expense.Expense, error)
	List(ctx context.Context, c visit.Category) ([]expense.Expense, error)
}

// Options wires the server to its stores.
type Options struct {
	Visits      visit.Store
	Codes       visitcode.Registry
	Expenses    ExpenseStore
	Logger      *zap.Logger
	MaxPageSize int
	// Health, when set, is called by /health to check the backing store.
	Health func(ctx context.Context) error
}

// Server is the trackmate HTTP server.
type Server struct {
	visits      visit.Store
	codes       visitcode.Registry
	expenses    ExpenseStore
	logger      *zap.Logger
	maxPageSize int
	health      func(ctx context.Context) error
	now         func() time.Time
	mux         *http.ServeMux
	handler     http.Handler
}

// NewServer creates a server from opts.
func NewServer(opts Options) (*Server, error) {
	if opts.Visits == nil {
		return nil, errors.New("web: visit store is required")
	}
	if opts.Codes == nil {
		return nil, errors.New("web: code registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Log
	}
	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = DefaultMaxPageSize
	}

	s := &Server{
		visits:      opts.Visits,
		codes:       opts.Codes,
		expenses:    opts.Expenses,
		logger:      opts.Logger,
		maxPageSize: opts.MaxPageSize,
		health:      opts.Health,
		now:         time.Now,
		mux:         http.NewServeMux(),
	}

	s.route("/health", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	s.route("/api/visits", s.handleAPIVisits)
	s.route("/api/visits/", s.handleAPIVisitRoute)
	s.route("/api/codes/next", s.apiNextCode)
	s.route("/api/expenses", s.handleAPIExpenses)

	s.handler = logging.RequestLogger(s.mux)
	return s, nil
}

func (s *Server) route(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, metrics.Instrument(pattern, h))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", "http://localhost"+srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", zap.Error(err))
			apiJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
			return
		}
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
