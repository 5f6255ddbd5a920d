// Package server receives storage object events over HTTP and hands them to the pipeline.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/config"
	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/internal/pipeline"
	"github.com/hyperjump/docpack/internal/refdata"
	"github.com/hyperjump/docpack/pkg/utils"
)

// Handler processes one object event.
type Handler interface {
	Handle(ctx context.Context, ev models.ObjectEvent) (*pipeline.Outcome, error)
}

// ReferenceStats reports the size of the loaded reference tables.
type ReferenceStats interface {
	Stats() refdata.Stats
}

// Server is the HTTP event receiver.
type Server struct {
	handler   Handler
	reference ReferenceStats
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. reference may be nil.
func NewServer(handler Handler, reference ReferenceStats, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}
	return &Server{
		handler:   handler,
		reference: reference,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Routes returns the router serving the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.handlerTimeout()))

	r.Post("/", s.handleEvent)
	r.Post("/events", s.handleEvent)
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/reference", s.handleReference)
	return r
}

func (s *Server) handlerTimeout() time.Duration {
	if s.config.HandlerTimeout > 0 {
		return s.config.HandlerTimeout
	}
	return config.DefaultHandlerTimeout
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
