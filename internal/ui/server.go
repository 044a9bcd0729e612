package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// Server exposes the portfolio to the rendering layer over HTTP.
type Server struct {
	Logger  log.Logger
	Config  *cfg.Config
	router  *chi.Mux
	server  *http.Server
	port    int
	handler *Handler
}

func NewServer(logger log.Logger, config *cfg.Config, service Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("ui server needs a portfolio service")
	}

	s := &Server{
		Logger:  logger,
		Config:  config,
		router:  chi.NewRouter(),
		port:    config.Ui.Port,
		handler: NewHandler(logger, config, service),
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(RequestLogger(logger))
	s.handler.RegisterRoutes(s.router)
	return s, nil
}

// Handler is the routed handler, usable without a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.Logger.Info(context.Background(), "Starting UI server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.Logger.Info(ctx, "Shutting down UI server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
