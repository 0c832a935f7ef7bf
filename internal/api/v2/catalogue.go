package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initCatalogueRoutes() {
	c.Group.GET("/drugs", c.GetDrugs)
	c.Group.GET("/cities", c.GetCities)
	c.Group.GET("/proposals/pending", c.GetPendingProposals)
}

// GetDrugs lists the drug catalogue with wish and supplier counts.
func (c *Controller) GetDrugs(ctx echo.Context) error {
	drugs, cached := c.Directory.Drugs(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newListResponse(drugs, cached, "目前沒有藥品資料，請稍後再試。"))
}

// GetCities lists the cities in display order.
func (c *Controller) GetCities(ctx echo.Context) error {
	cities, cached := c.Directory.Cities(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newListResponse(cities, cached, "目前沒有縣市資料，請稍後再試。"))
}

// GetPendingProposals lists new-drug proposals still awaiting review.
func (c *Controller) GetPendingProposals(ctx echo.Context) error {
	proposals, cached := c.Directory.PendingProposals(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newListResponse(proposals, cached, "目前沒有待審核的新藥品提案。"))
}
