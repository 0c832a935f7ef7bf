package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/records"
	"github.com/twdrugfinder/drugfinder/internal/session"
)

func (c *Controller) initSubmissionRoutes() {
	c.Group.POST("/wishes", c.PostWish)
	c.Group.POST("/proposals", c.PostProposal)
	c.Group.POST("/supply", c.PostSupply)
}

// WishRequest is the body of POST /wishes.
type WishRequest struct {
	Email string `json:"email"`
	City  string `json:"city"`
	Drug  string `json:"drug"`
}

// ProposalRequest is the body of POST /proposals.
type ProposalRequest struct {
	Email    string `json:"email"`
	City     string `json:"city"`
	DrugName string `json:"drug_name"`
}

// SupplyRequest is the body of POST /supply. The contact email is always the one the
// session verified; an email in the body is ignored.
type SupplyRequest struct {
	InstitutionCode string                    `json:"institution_code"`
	InstitutionName string                    `json:"institution_name"`
	City            string                    `json:"city"`
	Drug            string                    `json:"drug"`
	Payment         records.PaymentConditions `json:"payment"`
}

// PostWish records one vote for a drug.
func (c *Controller) PostWish(ctx echo.Context) error {
	var req WishRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	wish := records.WishRequest{Email: req.Email, City: req.City, Drug: req.Drug}
	if err := c.Directory.SubmitWish(ctx.Request().Context(), wish); err != nil {
		return c.submissionError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{Status: "accepted", Message: "感謝您的許願！"})
}

// PostProposal asks curators to add a drug missing from the catalogue.
func (c *Controller) PostProposal(ctx echo.Context) error {
	var req ProposalRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	proposal := records.NewDrugProposal{
		Email:    req.Email,
		City:     req.City,
		DrugName: req.DrugName,
		Status:   records.ProposalPending,
	}
	if err := c.Directory.SubmitProposal(ctx.Request().Context(), proposal); err != nil {
		return c.submissionError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{
		Status:  "accepted",
		Message: "已送出新藥品提案，審核通過後將加入清單。",
	})
}

// PostSupply files a clinic's supply report. The session must have verified an email.
func (c *Controller) PostSupply(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}

	var req SupplyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	report := records.SupplyReport{
		InstitutionCode: req.InstitutionCode,
		InstitutionName: req.InstitutionName,
		City:            req.City,
		Drug:            req.Drug,
		Payment:         req.Payment,
	}
	if err := c.Directory.SubmitSupply(ctx.Request().Context(), s.Gate, report); err != nil {
		return c.submissionError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{
		Status:  "accepted",
		Message: "感謝您的回報！資料審核後將會更新。",
	})
}
