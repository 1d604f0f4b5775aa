package v1

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/erpdesk/store"
)

const defaultAuditLimit = 100

type toolCallResponse struct {
	ID        int32           `json:"id"`
	Agent     string          `json:"agent"`
	ToolName  string          `json:"tool_name"`
	Inputs    json.RawMessage `json:"inputs"`
	Outputs   json.RawMessage `json:"outputs"`
	Status    string          `json:"status"`
	CreatedAt int64           `json:"created_at"`
}

// ListAudit returns recent audit entries, newest first.
// GET /api/audit?agent=finance&status=error&limit=20
func (s *APIV1Service) ListAudit(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"), defaultAuditLimit*5)
	if err != nil {
		return writeError(c, err)
	}
	if limit == 0 {
		limit = defaultAuditLimit
	}
	list, err := s.Audit.List(c.Request().Context(), c.QueryParam("agent"), store.ToolCallStatus(c.QueryParam("status")), limit)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]*toolCallResponse, 0, len(list))
	for _, tc := range list {
		resp = append(resp, &toolCallResponse{
			ID:        tc.ID,
			Agent:     tc.Agent,
			ToolName:  tc.ToolName,
			Inputs:    rawJSON(tc.InputJSON),
			Outputs:   rawJSON(tc.OutputJSON),
			Status:    string(tc.Status),
			CreatedAt: tc.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// rawJSON embeds stored JSON as-is, quoting it when it is not valid JSON.
func rawJSON(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
