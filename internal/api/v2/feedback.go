package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/records"
	"github.com/twdrugfinder/drugfinder/internal/session"
)

func (c *Controller) initFeedbackRoutes() {
	c.Group.GET("/feedback/summary", c.GetFeedbackSummary)
	c.Group.POST("/feedback", c.PostFeedback)
}

// FeedbackRequest is the body of POST /feedback. Institution and drug fall back to the
// session's feedback target when omitted.
type FeedbackRequest struct {
	InstitutionCode string `json:"institution_code"`
	Drug            string `json:"drug"`
	Kind            string `json:"kind"` // confirmed-accurate, reported-inaccurate or the display label
	Note            string `json:"note"`
	Email           string `json:"email"`
}

// GetFeedbackSummary tallies feedback. With institution and drug it returns the single
// summary for that row; with neither it lists every row that has feedback.
func (c *Controller) GetFeedbackSummary(ctx echo.Context) error {
	institution := strings.TrimSpace(ctx.QueryParam("institution"))
	drug := strings.TrimSpace(ctx.QueryParam("drug"))
	reqCtx := ctx.Request().Context()

	switch {
	case institution == "" && drug == "":
		sums, cached := c.Directory.FeedbackSummaries(reqCtx)
		return ctx.JSON(http.StatusOK, newListResponse(sums, cached, "目前沒有回報紀錄。"))
	case institution == "" || drug == "":
		return c.HandleError(ctx, nil, "institution and drug must be given together", http.StatusBadRequest)
	}

	sum, _ := c.Directory.FeedbackSummary(reqCtx, institution, drug)
	return ctx.JSON(http.StatusOK, sum)
}

// PostFeedback records a user report about an inventory row.
func (c *Controller) PostFeedback(ctx echo.Context) error {
	var req FeedbackRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if s := session.FromContext(ctx); s != nil && req.InstitutionCode == "" && req.Drug == "" {
		target := s.FeedbackTarget()
		req.InstitutionCode, req.Drug = target.InstitutionCode, target.Drug
	}

	entry := records.FeedbackEntry{
		InstitutionCode: req.InstitutionCode,
		Drug:            req.Drug,
		Kind:            records.ParseFeedbackKind(req.Kind),
		Note:            req.Note,
		Email:           req.Email,
	}
	if err := c.Directory.SubmitFeedback(ctx.Request().Context(), entry); err != nil {
		return c.submissionError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{Status: "accepted", Message: "感謝您的回饋！"})
}
