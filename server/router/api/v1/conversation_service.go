package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/store"
)

const maxHistoryLimit = 500

type messageResponse struct {
	ID             int32  `json:"id"`
	ConversationID int32  `json:"conversation_id"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
}

// ListMessages returns the history of the user's current conversation.
// GET /api/conversations/:user_id/messages?limit=50
func (s *APIV1Service) ListMessages(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"), maxHistoryLimit)
	if err != nil {
		return writeError(c, err)
	}
	messages, err := s.Conversations.History(c.Request().Context(), c.Param("user_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]*messageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, convertMessageFromStore(m))
	}
	return c.JSON(http.StatusOK, resp)
}

func convertMessageFromStore(m *store.Message) *messageResponse {
	return &messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         string(m.Sender),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// parseLimit reads an optional positive limit. Zero means the caller's default.
func parseLimit(raw string, ceiling int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, deskerrors.InvalidArgument("limit must be a non-negative integer")
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit, nil
}
