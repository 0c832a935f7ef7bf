package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/session"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

func (c *Controller) initVerificationRoutes() {
	c.Group.POST("/verification/send", c.SendVerificationCode)
	c.Group.POST("/verification/confirm", c.ConfirmVerificationCode)
	c.Group.DELETE("/verification", c.ResetVerification)
}

// SendCodeRequest is the body of POST /verification/send.
type SendCodeRequest struct {
	Email string `json:"email"`
}

// ConfirmCodeRequest is the body of POST /verification/confirm.
type ConfirmCodeRequest struct {
	Code string `json:"code"`
}

// VerificationResponse reports the gate state after a verification step.
type VerificationResponse struct {
	State   verification.State `json:"state"`
	Email   string             `json:"email,omitempty"`
	Message string             `json:"message"`
}

// SendVerificationCode issues a fresh code for the session and mails it.
func (c *Controller) SendVerificationCode(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}
	if c.Verifier == nil {
		return c.HandleError(ctx, nil, "Email verification is not configured", http.StatusServiceUnavailable)
	}

	var req SendCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	err := c.Verifier.SendCode(ctx.Request().Context(), s.Gate, req.Email)
	switch {
	case err == nil:
	case errors.IsCategory(err, errors.CategoryValidation):
		return c.HandleError(ctx, err, "請輸入有效的電子郵件地址。", http.StatusBadRequest)
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return c.HandleError(ctx, err, "Email verification is not configured", http.StatusServiceUnavailable)
	default:
		return c.HandleError(ctx, err, "驗證碼寄送失敗，請確認電子郵件地址或稍後再試。", http.StatusBadGateway)
	}

	return ctx.JSON(http.StatusOK, VerificationResponse{
		State:   s.Gate.State(),
		Email:   s.Gate.Email(),
		Message: "驗證碼已寄出，請至信箱收取。",
	})
}

// ConfirmVerificationCode checks the code the user typed.
func (c *Controller) ConfirmVerificationCode(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}
	if c.Verifier == nil {
		return c.HandleError(ctx, nil, "Email verification is not configured", http.StatusServiceUnavailable)
	}

	var req ConfirmCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	err := c.Verifier.Confirm(s.Gate, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, verification.ErrCodeMismatch):
		return c.HandleError(ctx, err, "驗證碼錯誤，請重新輸入。", http.StatusBadRequest)
	case errors.Is(err, verification.ErrNoCodeIssued):
		return c.HandleError(ctx, err, "請先索取驗證碼。", http.StatusConflict)
	case errors.Is(err, verification.ErrCodeExpired):
		return c.HandleError(ctx, err, "驗證碼已過期，請重新索取。", http.StatusConflict)
	default:
		return c.HandleError(ctx, err, "驗證失敗，請稍後再試。", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, VerificationResponse{
		State:   s.Gate.State(),
		Email:   s.Gate.VerifiedEmail(),
		Message: "驗證成功！",
	})
}

// ResetVerification drops the session's code and verified address so the user can
// verify another email.
func (c *Controller) ResetVerification(ctx echo.Context) error {
	s := session.FromContext(ctx)
	if s == nil {
		return c.noSession(ctx)
	}
	s.Gate.Reset()
	return ctx.JSON(http.StatusOK, VerificationResponse{
		State:   s.Gate.State(),
		Message: "已清除驗證狀態，請重新驗證電子郵件。",
	})
}
