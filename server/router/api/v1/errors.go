package v1

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
)

type errorBody struct {
	Code    deskerrors.ErrorCode `json:"code"`
	Message string               `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError renders err with the status its code maps to. Errors without a code are 500s.
func writeError(c echo.Context, err error) error {
	code := deskerrors.GetCodeFromError(err, deskerrors.ErrCodePersistenceFailure)
	status := deskerrors.HTTPStatus(code)

	message := err.Error()
	var deskErr *deskerrors.DeskError
	if errors.As(err, &deskErr) {
		message = deskErr.Message
	}
	if status >= 500 {
		slog.Error("request failed",
			slog.String("path", c.Path()),
			slog.String("error_code", string(code)),
			slog.String("error", err.Error()))
		message = "internal error"
	}
	return c.JSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
