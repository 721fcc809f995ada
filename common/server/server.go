package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/logger"
)

// Server wraps an echo app with graceful shutdown
type Server struct {
	echo *echo.Echo
	cfg  *config.Config
	log  *logger.Logger
	name string
}

// NewEcho builds an echo app with the service's standard middleware. CORS
// is driven by the configured allow-lists; empty lists fall back to echo's
// permissive defaults.
func NewEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	return e
}

// New creates a new server
func New(name string, e *echo.Echo, cfg *config.Config, log *logger.Logger) *Server {
	return &Server{
		echo: e,
		cfg:  cfg,
		log:  log,
		name: name,
	}
}

// Start starts the server and blocks until an error or a shutdown signal.
// Outstanding requests get 30 seconds to complete.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Service.Host, s.cfg.Service.Port)

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(fmt.Sprintf("%s starting", s.name), "addr", addr)
		serverErrors <- s.echo.Start(addr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		s.log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.echo.Shutdown(ctx); err != nil {
			s.log.Error("graceful shutdown failed", "error", err)
			if err := s.echo.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}

		s.log.Info("shutdown complete")
	}

	return nil
}
