// Package api provides the JSON endpoints of the drugfinder server under /api/v2.
package api

import (
	"context"
	"crypto/rand"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
	"github.com/twdrugfinder/drugfinder/internal/records"
	"github.com/twdrugfinder/drugfinder/internal/session"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// DirectoryService is the query and submission surface the handlers call.
type DirectoryService interface {
	Drugs(ctx context.Context) ([]records.Drug, bool)
	Cities(ctx context.Context) ([]records.City, bool)
	FindSupply(ctx context.Context, q directory.SupplyQuery) ([]records.InventoryRow, bool)
	Ranking(ctx context.Context, opts directory.RankingOptions) ([]directory.RankEntry, bool)
	FeedbackSummaries(ctx context.Context) ([]directory.FeedbackSummary, bool)
	FeedbackSummary(ctx context.Context, institution, drug string) (directory.FeedbackSummary, bool)
	PendingProposals(ctx context.Context) ([]records.NewDrugProposal, bool)

	SubmitWish(ctx context.Context, w records.WishRequest) error
	SubmitProposal(ctx context.Context, p records.NewDrugProposal) error
	SubmitSupply(ctx context.Context, gate *verification.Gate, r records.SupplyReport) error
	SubmitFeedback(ctx context.Context, f records.FeedbackEntry) error

	Refresh(ctx context.Context, key string) error
	RefreshAll(ctx context.Context) error
	CacheStats() []readcache.EntryStats
}

// Verifier sends and checks emailed verification codes.
type Verifier interface {
	SendCode(ctx context.Context, gate *verification.Gate, email string) error
	Confirm(gate *verification.Gate, input string) error
}

// Controller manages the API routes and their dependencies.
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	Directory DirectoryService
	Verifier  Verifier
	Sessions  *session.Store
	Build     *buildinfo.Context

	logger       logger.Logger
	secureCookie bool
	startTime    time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger replaces the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBuildInfo sets the build metadata reported by the health check.
func WithBuildInfo(b *buildinfo.Context) Option {
	return func(c *Controller) { c.Build = b }
}

// WithSecureCookie marks the session cookie Secure even on plain HTTP requests, for
// deployments behind a TLS-terminating proxy.
func WithSecureCookie(secure bool) Option {
	return func(c *Controller) { c.secureCookie = secure }
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, dir DirectoryService, verifier Verifier, sessions *session.Store, opts ...Option) (*Controller, error) {
	if dir == nil {
		return nil, errNilDependency("directory")
	}
	if sessions == nil {
		return nil, errNilDependency("session store")
	}

	c := &Controller{
		Echo:      e,
		Directory: dir,
		Verifier:  verifier,
		Sessions:  sessions,
		logger:    logger.Global().Module("api"),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Group = e.Group("/api/v2")
	c.Group.Use(c.LoggingMiddleware())
	c.Group.Use(sessions.Middleware(c.secureCookie))

	c.initRoutes()
	return c, nil
}

// LoggingMiddleware logs API requests at debug level; failures are logged by HandleError.
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			req := ctx.Request()
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.String("query", req.URL.RawQuery),
				logger.Int("status", ctx.Response().Status),
				logger.String("ip", ctx.RealIP()),
				logger.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				fields = append(fields, logger.Error(err))
			}
			c.logger.Debug("API request", fields...)
			return err
		}
	}
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"catalogue routes", c.initCatalogueRoutes},
		{"supply routes", c.initSupplyRoutes},
		{"ranking routes", c.initRankingRoutes},
		{"feedback routes", c.initFeedbackRoutes},
		{"submission routes", c.initSubmissionRoutes},
		{"verification routes", c.initVerificationRoutes},
		{"session routes", c.initSessionRoutes},
		{"refresh routes", c.initRefreshRoutes},
	}

	for _, initializer := range routeInitializers {
		initializer.fn()
		c.logger.Debug("routes initialized", logger.String("group", initializer.name))
	}
}

// HealthCheck reports the build, uptime and the state of every cached query.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        c.Build.GetVersion(),
		"build_date":     c.Build.GetBuildDate(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
		"cache":          c.Directory.CacheStats(),
		"sessions":       c.Sessions.Len(),
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // matches the server log line
}

// NewErrorResponse creates an API error response. Server-side failures never expose
// the underlying error text.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	switch {
	case code >= http.StatusInternalServerError:
		errorStr = http.StatusText(code)
	case err != nil:
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID returns a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs err under a fresh correlation id and writes the error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.logger.Error("API error", fields...)
	} else {
		c.logger.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}
