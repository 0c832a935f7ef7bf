package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// ListResponse wraps every list read. Message carries a hint for the user when Data is
// empty, whether because nothing matched or because the remote read failed.
type ListResponse[T any] struct {
	Data    []T    `json:"data"`
	Count   int    `json:"count"`
	Cached  bool   `json:"cached"`
	Message string `json:"message,omitempty"`
}

func newListResponse[T any](rows []T, cached bool, emptyHint string) ListResponse[T] {
	if rows == nil {
		rows = []T{}
	}
	resp := ListResponse[T]{Data: rows, Count: len(rows), Cached: cached}
	if len(rows) == 0 {
		resp.Message = emptyHint
	}
	return resp
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errNilDependency(name string) error {
	return errors.Newf("api controller requires a %s", name).
		Category(errors.CategoryConfiguration).
		Component("api").
		Build()
}

// noSession answers a request that reached a handler without the session middleware.
func (c *Controller) noSession(ctx echo.Context) error {
	return c.HandleError(ctx, nil, "Session unavailable", http.StatusInternalServerError)
}

// submissionError maps a submitter failure onto a response. Remote write failures get
// a generic retry message.
func (c *Controller) submissionError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, directory.ErrNotVerified):
		return c.HandleError(ctx, err, "請先完成電子郵件驗證再回報庫存。", http.StatusForbidden)
	case errors.IsCategory(err, errors.CategoryValidation):
		return c.HandleError(ctx, err, "資料不完整或格式錯誤，請檢查後再送出。", http.StatusBadRequest)
	default:
		return c.HandleError(ctx, err, "送出失敗，請稍後再試。", http.StatusBadGateway)
	}
}
