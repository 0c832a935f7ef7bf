package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/readcache"
)

func (c *Controller) initRefreshRoutes() {
	c.Group.POST("/refresh", c.PostRefresh)
}

// RefreshRequest is the body of POST /refresh. An empty key refreshes every query.
type RefreshRequest struct {
	Key string `json:"key"`
}

// RefreshResponse reports the cache state after a refresh.
type RefreshResponse struct {
	Status string                 `json:"status"`
	Cache  []readcache.EntryStats `json:"cache"`
}

// PostRefresh drops cached rows and reads them again from the remote tables.
func (c *Controller) PostRefresh(ctx echo.Context) error {
	var req RefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	var err error
	if req.Key == "" {
		err = c.Directory.RefreshAll(ctx.Request().Context())
	} else {
		err = c.Directory.Refresh(ctx.Request().Context(), req.Key)
	}
	switch {
	case err == nil:
	case errors.IsNotFound(err):
		return c.HandleError(ctx, err, "Unknown cache key", http.StatusNotFound)
	default:
		return c.HandleError(ctx, err, "資料更新失敗，請稍後再試。", http.StatusBadGateway)
	}

	return ctx.JSON(http.StatusOK, RefreshResponse{Status: "refreshed", Cache: c.Directory.CacheStats()})
}
