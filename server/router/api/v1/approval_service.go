package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/store"
)

type approvalResponse struct {
	ID          int32           `json:"id"`
	Module      string          `json:"module"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	RequestedBy string          `json:"requested_by"`
	DecidedBy   *string         `json:"decided_by"`
	CreatedAt   int64           `json:"created_at"`
	DecidedAt   *int64          `json:"decided_at"`
}

type decisionRequest struct {
	Decision  string `json:"decision"`
	DecidedBy string `json:"decided_by"`
}

// ListApprovals lists approval requests, optionally filtered by status.
// GET /api/approvals?status=pending
func (s *APIV1Service) ListApprovals(c echo.Context) error {
	var status *store.ApprovalStatus
	if raw := c.QueryParam("status"); raw != "" {
		st := store.ApprovalStatus(raw)
		status = &st
	}
	list, err := s.Gate.List(c.Request().Context(), status)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]*approvalResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, convertApprovalFromStore(a))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetApproval returns one approval request.
// GET /api/approvals/:id
func (s *APIV1Service) GetApproval(c echo.Context) error {
	id, err := parseApprovalID(c)
	if err != nil {
		return writeError(c, err)
	}
	a, err := s.Gate.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, convertApprovalFromStore(a))
}

// DecideApproval approves or rejects a pending request.
// POST /api/approvals/:id/decision
func (s *APIV1Service) DecideApproval(c echo.Context) error {
	id, err := parseApprovalID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, deskerrors.InvalidArgument("invalid decision body"))
	}
	// Reject unknown decisions before they reach the gate.
	if !store.ApprovalStatus(req.Decision).IsDecision() {
		return writeError(c, deskerrors.InvalidDecision(req.Decision))
	}

	a, err := s.Gate.Decide(c.Request().Context(), id, req.Decision, req.DecidedBy)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, convertApprovalFromStore(a))
}

// ApprovalFeed renders pending approvals as an Atom feed.
// GET /api/approvals/feed
func (s *APIV1Service) ApprovalFeed(c echo.Context) error {
	pending := store.ApprovalStatusPending
	list, err := s.Gate.List(c.Request().Context(), &pending)
	if err != nil {
		return writeError(c, err)
	}

	baseURL := c.Scheme() + "://" + c.Request().Host
	feed := &feeds.Feed{
		Title:       "erpdesk pending approvals",
		Link:        &feeds.Link{Href: baseURL + "/api/approvals?status=pending"},
		Description: "Write actions waiting for a decision",
		Created:     time.Now(),
		Items:       make([]*feeds.Item, 0, len(list)),
	}
	for _, a := range list {
		link := fmt.Sprintf("%s/api/approvals/%d", baseURL, a.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       fmt.Sprintf("Approval #%d: %s", a.ID, a.Module),
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Name: a.RequestedBy},
			Description: approvalSummary(a),
			Created:     time.Unix(a.CreatedAt, 0),
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return writeError(c, deskerrors.PersistenceFailure("failed to render approval feed", err))
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func approvalSummary(a *store.Approval) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(a.PayloadJSON), &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return a.PayloadJSON
}

func parseApprovalID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, deskerrors.InvalidArgument(fmt.Sprintf("invalid approval id %q", c.Param("id")))
	}
	return int32(id), nil
}

func convertApprovalFromStore(a *store.Approval) *approvalResponse {
	return &approvalResponse{
		ID:          a.ID,
		Module:      a.Module,
		Payload:     rawJSON(a.PayloadJSON),
		Status:      string(a.Status),
		RequestedBy: a.RequestedBy,
		DecidedBy:   a.DecidedBy,
		CreatedAt:   a.CreatedAt,
		DecidedAt:   a.DecidedAt,
	}
}
