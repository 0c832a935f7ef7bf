package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

// NewMetrics records request counts and latencies by route pattern. Unmatched paths
// share one label so scanners cannot grow the series count.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if err != nil && errors.As(err, &he) {
				status = he.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" || errors.Is(err, echo.ErrNotFound) {
				route = "unmatched"
			}
			m.RecordRequest(c.Request().Method, route, status, time.Since(start).Seconds())
			return err
		}
	}
}
