package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
)

const anonymousUser = "anon"

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Chat routes one message and returns the StructuredResult.
// POST /api/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, deskerrors.InvalidArgument("invalid chat request body"))
	}
	if req.UserID == "" {
		req.UserID = anonymousUser
	}

	if !s.chatLimiter.Allow(req.UserID) {
		return writeError(c, deskerrors.RateLimitExceeded("too many chat requests, please slow down"))
	}

	ctx := c.Request().Context()
	if s.Profile.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Profile.RequestTimeout)
		defer cancel()
	}
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	reqCtx := observability.NewRequestContextWithID(nil, requestID, req.UserID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	result, err := s.Router.Route(ctx, req.UserID, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
