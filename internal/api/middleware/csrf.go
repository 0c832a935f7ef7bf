package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// CSRFContextKey is where the CSRF middleware leaves the request's token.
const CSRFContextKey = "csrf"

const (
	csrfCookieName  = "drugfinder_csrf"
	csrfTokenLength = 32
)

// csrfCookieAge matches the default session lifetime.
var csrfCookieAge = int((2 * time.Hour).Seconds())

// IsSecureRequest reports whether the request arrived over HTTPS, directly or through
// a proxy setting X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// DefaultCSRFSkipper exempts the probe endpoints.
func DefaultCSRFSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/api/v2/health")
}

// NewCSRF guards the state-changing requests of cookie sessions. Safe methods pass
// and receive the token cookie; writes must echo it in X-CSRF-Token. A nil skipper
// means DefaultCSRFSkipper.
func NewCSRF(skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = DefaultCSRFSkipper
	}
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        skipper,
		TokenLength:    csrfTokenLength,
		TokenLookup:    "header:" + echo.HeaderXCSRFToken,
		ContextKey:     CSRFContextKey,
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: false, // the web client copies it into the header
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   csrfCookieAge,
		ErrorHandler:   csrfFailed,
	})
}

func csrfFailed(err error, c echo.Context) error {
	GetLogger().Warn("CSRF validation failed",
		logger.String("method", c.Request().Method),
		logger.String("path", c.Request().URL.Path),
		logger.String("remote_ip", c.RealIP()),
		logger.Error(err))
	return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
}

// EnsureCSRFToken returns the token to hand to the client: the one the middleware
// stored, else the cookie's, else a fresh one. The cookie is (re)set in the last
// two cases.
func EnsureCSRFToken(ctx echo.Context) (string, error) {
	if token, ok := ctx.Get(CSRFContextKey).(string); ok && token != "" {
		return token, nil
	}

	token := ""
	if cookie, err := ctx.Cookie(csrfCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		b := make([]byte, csrfTokenLength)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		token = base64.RawURLEncoding.EncodeToString(b)
		GetLogger().Debug("CSRF token generated")
	}

	ctx.Set(CSRFContextKey, token)
	ctx.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfCookieAge,
		Secure:   IsSecureRequest(ctx.Request()),
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}
