package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// CookieName carries the session id.
	CookieName = "drugfinder_session"
	contextKey = "drugfinder.session"
)

// Middleware loads the session named by the cookie, or starts a new one, and stores it
// in the echo context. The cookie is refreshed on every request.
func (st *Store) Middleware(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var s *Session
			if cookie, err := c.Cookie(CookieName); err == nil {
				s, _ = st.Get(cookie.Value)
			}
			if s == nil {
				s = st.Create()
			}
			st.setCookie(c, s.ID, secure)
			c.Set(contextKey, s)
			return next(c)
		}
	}
}

func (st *Store) setCookie(c echo.Context, id string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(st.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure || c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

// FromContext returns the session installed by Middleware, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}
