// Package api serves a record store over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server holds the API server state. Store access is serialized because
// record stores are not safe for concurrent use.
type Server[T any] struct {
	mu      sync.Mutex
	store   Store[T]
	config  ServerConfig
	metrics *Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer[T any](store Store[T], config ServerConfig, metrics *Metrics, logger *zap.Logger) *Server[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server[T]{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Routes returns the router with every endpoint configured
func (s *Server[T]) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	gatherer := s.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	m := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		// Health check
		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Records
		r.Get("/records", m.InstrumentHandler("GET", "/api/v1/records", s.handleGetRange))
		r.Put("/records", m.InstrumentHandler("PUT", "/api/v1/records", s.handleSetRange))
		r.Get("/records/{index}", m.InstrumentHandler("GET", "/api/v1/records/{index}", s.handleGet))
		r.Put("/records/{index}", m.InstrumentHandler("PUT", "/api/v1/records/{index}", s.handleSet))
		r.Delete("/records/{index}", m.InstrumentHandler("DELETE", "/api/v1/records/{index}", s.handleDelete))
	})

	return r
}

// ListenAndServe serves the API until ctx is done, then shuts down gracefully
func (s *Server[T]) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting ArrayDB REST API server",
			zap.String("addr", srv.Addr),
			zap.String("records", s.store.Path()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down ArrayDB REST API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
