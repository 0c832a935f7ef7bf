package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

func (c *Controller) initSupplyRoutes() {
	c.Group.GET("/supply", c.SearchSupply)
}

// SearchSupply finds the clinics listing a drug in stock.
//
// Query parameters: drug (required), city (empty or 全台灣 for all) and payment, which
// may repeat or hold a comma-joined list.
func (c *Controller) SearchSupply(ctx echo.Context) error {
	drug := strings.TrimSpace(ctx.QueryParam("drug"))
	if drug == "" {
		return c.HandleError(ctx, nil, "請選擇要查詢的藥品。", http.StatusBadRequest)
	}

	q := directory.SupplyQuery{
		Drug: drug,
		City: ctx.QueryParam("city"),
	}
	for _, tag := range records.NewPaymentConditions(ctx.QueryParams()["payment"]...).Strings() {
		q.Payment = append(q.Payment, records.PaymentCondition(tag))
	}

	rows, cached := c.Directory.FindSupply(ctx.Request().Context(), q)
	return ctx.JSON(http.StatusOK, newListResponse(rows, cached, "目前沒有符合條件的供貨資訊。"))
}
