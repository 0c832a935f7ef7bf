package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/directory"
)

func (c *Controller) initRankingRoutes() {
	c.Group.GET("/ranking", c.GetRanking)
}

// GetRanking returns the wish leaderboard.
//
// Query parameters: by_city (bool), city, limit (0 or absent for the default top
// entries, negative for all).
func (c *Controller) GetRanking(ctx echo.Context) error {
	opts := directory.RankingOptions{City: ctx.QueryParam("city")}

	if v := ctx.QueryParam("by_city"); v != "" {
		byCity, err := strconv.ParseBool(v)
		if err != nil {
			return c.HandleError(ctx, err, "by_city must be true or false", http.StatusBadRequest)
		}
		opts.ByCity = byCity
	}
	if v := ctx.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return c.HandleError(ctx, err, "limit must be an integer", http.StatusBadRequest)
		}
		opts.Limit = limit
	}

	entries, cached := c.Directory.Ranking(ctx.Request().Context(), opts)
	return ctx.JSON(http.StatusOK, newListResponse(entries, cached, "目前還沒有許願紀錄。"))
}
