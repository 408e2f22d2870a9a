package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/contractmanage/internal/contracts"
)

// Options configures the HTTP server.
type Options struct {
	Port int
	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit float64
}

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int
	svc  *contracts.Service
}

// NewServer creates a new API server
func NewServer(svc *contracts.Service, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if opts.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit))))
	}

	server := &Server{
		echo: e,
		port: opts.Port,
		svc:  svc,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	api := s.echo.Group("/api")

	api.POST("/contracts", s.createContract)
	api.POST("/contracts/from-template/:templateId", s.createFromTemplate)
	api.GET("/contracts/:contractId", s.getContract)
	api.DELETE("/contracts/:contractId", s.deleteContract)
	api.GET("/contracts/:contractId/elements", s.listElements)
	api.GET("/contracts/:contractId/clause-elements", s.listClauseElements)

	api.POST("/contract-elements", s.createElement)
	api.GET("/contract-elements/:elementId", s.getElement)
	api.PUT("/contract-elements/:elementId", s.updateElement)
	api.DELETE("/contract-elements/:elementId", s.deleteElement)

	api.GET("/clauses", s.listClauses)
	api.GET("/clauses/categories", s.clauseCategories)
	api.GET("/clauses/:clauseId", s.getClause)

	api.GET("/templates/:templateId/elements", s.templateElements)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Msg("http server listening")
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			} else if v.Status >= http.StatusBadRequest {
				ev = log.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
