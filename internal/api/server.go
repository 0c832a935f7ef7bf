package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/twdrugfinder/drugfinder/internal/api/middleware"
	v2 "github.com/twdrugfinder/drugfinder/internal/api/v2"
	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability"
	"github.com/twdrugfinder/drugfinder/internal/session"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// Server is the drugfinder HTTP server. It owns the Echo instance, the middleware
// stack and the v2 API controller.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	directory v2.DirectoryService
	verifier  v2.Verifier
	sessions  *session.Store
	metrics   *observability.Metrics
	build     *buildinfo.Context

	apiController *v2.Controller
	startTime     time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVerifier sets the email verification service. Without it the verification
// endpoints answer 503.
func WithVerifier(v v2.Verifier) ServerOption {
	return func(s *Server) { s.verifier = v }
}

// WithSessionStore replaces the session store built from the settings.
func WithSessionStore(st *session.Store) ServerOption {
	return func(s *Server) { s.sessions = st }
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithBuildInfo sets the build metadata reported by the health endpoints.
func WithBuildInfo(b *buildinfo.Context) ServerOption {
	return func(s *Server) { s.build = b }
}

// New creates the HTTP server for dir with the given settings and options.
func New(settings *conf.Settings, dir v2.DirectoryService, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		log:       GetLogger(),
		directory: dir,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewStore(config.SessionTTL, gateOptions(settings)...)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("metrics", config.Metrics),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}

	s.echo.Use(echomw.RequestID())
	s.echo.Use(mw.NewRequestLogger(s.log.Module("access")))

	security := mw.DefaultSecurityConfig()
	security.AllowedOrigins = s.config.AllowedOrigins
	security.AllowCredentials = true
	if s.config.BodyLimit != "" {
		security.BodyLimit = s.config.BodyLimit
	}
	s.echo.Use(mw.Security(security)...)
	s.echo.Use(mw.NewCSRF(nil))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	s.echo.GET("/health", s.healthCheck)

	if s.config.Metrics && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	controller, err := v2.New(s.echo, s.directory, s.verifier, s.sessions,
		v2.WithLogger(s.log.Module("v2")),
		v2.WithBuildInfo(s.build),
		v2.WithSecureCookie(s.config.SecureCookie))
	if err != nil {
		return fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = controller

	return nil
}

// healthCheck handles the server liveness endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.build.GetVersion(),
		"build_date":     s.build.GetBuildDate(),
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.startBlocking()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutdown signal received, initiating graceful shutdown")
		return s.Shutdown()
	}
}

// startBlocking serves HTTP requests until the server is shut down.
func (s *Server) startBlocking() error {
	addr := s.config.Address()
	s.log.Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}

// APIController returns the v2 API controller.
func (s *Server) APIController() *v2.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// gateOptions applies the verification settings to every session's gate.
func gateOptions(settings *conf.Settings) []verification.GateOption {
	if settings == nil || settings.Verification.MaxCodeAge <= 0 {
		return nil
	}
	return []verification.GateOption{verification.WithMaxCodeAge(settings.Verification.MaxCodeAge)}
}
