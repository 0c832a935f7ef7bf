package api

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	mw "github.com/twdrugfinder/drugfinder/internal/api/middleware"
	"github.com/twdrugfinder/drugfinder/internal/records"
	"github.com/twdrugfinder/drugfinder/internal/session"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// Tabs are the interaction tabs of the web client.
var Tabs = []string{"find", "wish", "report", "ranking"}

func (c *Controller) initSessionRoutes() {
	c.Group.GET("/session", c.GetSession)
	c.Group.PUT("/session/tab", c.PutSelectedTab)
	c.Group.PUT("/session/feedback-target", c.PutFeedbackTarget)
}

// SessionResponse is the client-visible session state. The session id itself stays in
// the HttpOnly cookie.
type SessionResponse struct {
	State          verification.State     `json:"state"`
	PendingEmail   string                 `json:"pending_email,omitempty"`
	VerifiedEmail  string                 `json:"verified_email,omitempty"`
	SelectedTab    string                 `json:"selected_tab,omitempty"`
	FeedbackTarget session.FeedbackTarget `json:"feedback_target"`
	CSRFToken      string                 `json:"csrf_token,omitempty"`
}

// TabRequest is the body of PUT /session/tab.
type TabRequest struct {
	Tab string `json:"tab"`
}

func (c *Controller) sessionResponse(ctx echo.Context, s *session.Session) SessionResponse {
	resp := SessionResponse{
		State:          s.Gate.State(),
		VerifiedEmail:  s.VerifiedEmail(),
		SelectedTab:    s.SelectedTab(),
		FeedbackTarget: s.FeedbackTarget(),
	}
	if resp.State == verification.CodeSent {
		resp.PendingEmail = s.Gate.Email()
	}
	if token, err := mw.EnsureCSRFToken(ctx); err == nil {
		resp.CSRFToken = token
	}
	return resp
}

// GetSession returns the session state and the CSRF token for later writes.
func (c *Controller) GetSession(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}
	return ctx.JSON(http.StatusOK, c.sessionResponse(ctx, s))
}

// PutSelectedTab remembers the tab the user is on.
func (c *Controller) PutSelectedTab(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}

	var req TabRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if !slices.Contains(Tabs, req.Tab) {
		return c.HandleError(ctx, nil, "Unknown tab", http.StatusBadRequest)
	}

	s.SetSelectedTab(req.Tab)
	return ctx.JSON(http.StatusOK, c.sessionResponse(ctx, s))
}

// PutFeedbackTarget selects the inventory row later feedback is about.
func (c *Controller) PutFeedbackTarget(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}

	var req session.FeedbackTarget
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	req.InstitutionCode = records.CleanText(req.InstitutionCode)
	req.Drug = records.CleanText(req.Drug)
	if req.InstitutionCode == "" || req.Drug == "" {
		return c.HandleError(ctx, nil, "institution_code and drug are required", http.StatusBadRequest)
	}

	s.SetFeedbackTarget(req)
	return ctx.JSON(http.StatusOK, c.sessionResponse(ctx, s))
}
