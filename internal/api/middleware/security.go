package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// oneYear is the HSTS max-age in seconds.
const oneYear = 365 * 24 * 60 * 60

// SecurityConfig controls the browser-facing hardening applied to every response.
type SecurityConfig struct {
	AllowedOrigins []string
	// Credentials are only allowed for an explicit origin list.
	AllowCredentials bool
	BodyLimit        string
	HSTSMaxAge       int
	CSP              string
}

// DefaultSecurityConfig suits a JSON-only API that is never framed.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins: []string{"*"},
		BodyLimit:      "1M",
		HSTSMaxAge:     oneYear,
		CSP:            "default-src 'none'; frame-ancestors 'none'",
	}
}

// Security returns response header, CORS and body size middleware, in that order.
// Headers come first so that rejected requests carry them too.
func Security(config SecurityConfig) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.SecureWithConfig(middleware.SecureConfig{
			XSSProtection:         "1; mode=block",
			ContentTypeNosniff:    "nosniff",
			XFrameOptions:         "DENY",
			HSTSMaxAge:            config.HSTSMaxAge,
			ContentSecurityPolicy: config.CSP,
		}),
		cors(config),
		middleware.BodyLimit(config.BodyLimit),
	}
}

func cors(config SecurityConfig) echo.MiddlewareFunc {
	wildcard := slices.Contains(config.AllowedOrigins, "*")
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXCSRFToken,
			"X-Requested-With",
		},
		AllowCredentials: config.AllowCredentials && !wildcard,
	})
}
