package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/store"
)

// ApprovalStore is the persistence the gate needs. *store.Store satisfies it.
type ApprovalStore interface {
	CreateApproval(ctx context.Context, create *store.Approval) (*store.Approval, error)
	ListApprovals(ctx context.Context, find *store.FindApproval) ([]*store.Approval, error)
	GetApproval(ctx context.Context, id int32) (*store.Approval, error)
	DecideApproval(ctx context.Context, decide *store.DecideApproval) (*store.Approval, bool, error)
}

// Gate applies the approval policy and owns the approval request lifecycle.
type Gate struct {
	store   ApprovalStore
	policy  atomic.Pointer[Policy]
	metrics *observability.Metrics
	now     func() time.Time
}

// NewGate creates a gate. A nil policy means DefaultPolicy.
func NewGate(s ApprovalStore, policy *Policy, metrics *observability.Metrics) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	g := &Gate{store: s, metrics: metrics, now: time.Now}
	g.policy.Store(policy)
	return g
}

// SetPolicy swaps the active policy. In-flight evaluations keep the policy they started with.
func (g *Gate) SetPolicy(p *Policy) {
	if p != nil {
		g.policy.Store(p)
	}
}

// Policy returns the active policy.
func (g *Gate) Policy() *Policy {
	return g.policy.Load()
}

// RequiresApproval reports whether the write action needs sign-off, and why.
func (g *Gate) RequiresApproval(module, action string, payload map[string]any) (bool, string) {
	return g.policy.Load().RequiresApproval(module, action, payload)
}

// CreateApprovalRequest stores a new pending request and returns its id.
// Every call creates a distinct request.
func (g *Gate) CreateApprovalRequest(ctx context.Context, module string, payload map[string]any, requestedBy string) (int32, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, deskerrors.InvalidArgument("approval payload is not serializable: " + err.Error())
	}

	approval, err := g.store.CreateApproval(ctx, &store.Approval{
		Module:      module,
		PayloadJSON: string(payloadJSON),
		Status:      store.ApprovalStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   g.now().Unix(),
	})
	if err != nil {
		return 0, deskerrors.PersistenceFailure("failed to create approval request", err)
	}
	g.metrics.RecordApprovalRequested()
	return approval.ID, nil
}

// Decide moves a pending request to approved or rejected. A request that was already
// decided is left untouched and AlreadyDecided is returned.
func (g *Gate) Decide(ctx context.Context, id int32, decision, decidedBy string) (*store.Approval, error) {
	status := store.ApprovalStatus(decision)
	if !status.IsDecision() {
		return nil, deskerrors.InvalidDecision(decision)
	}
	if decidedBy == "" {
		return nil, deskerrors.InvalidArgument("decided_by is required")
	}

	approval, ok, err := g.store.DecideApproval(ctx, &store.DecideApproval{
		ID:        id,
		Status:    status,
		DecidedBy: decidedBy,
		DecidedAt: g.now().Unix(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deskerrors.ApprovalNotFound(id)
		}
		return nil, deskerrors.PersistenceFailure("failed to decide approval request", err)
	}
	if !ok {
		return nil, deskerrors.AlreadyDecided(id, string(approval.Status))
	}

	g.metrics.RecordApprovalDecided()
	slog.Info("approval decided",
		slog.Int(observability.LogFieldApprovalID, int(id)),
		slog.String("status", string(status)),
		slog.String("decided_by", decidedBy))
	return approval, nil
}

// List returns requests ascending by id, optionally filtered by status.
func (g *Gate) List(ctx context.Context, status *store.ApprovalStatus) ([]*store.Approval, error) {
	if status != nil && *status != store.ApprovalStatusPending && !status.IsDecision() {
		return nil, deskerrors.InvalidArgument("unknown approval status: " + string(*status))
	}
	list, err := g.store.ListApprovals(ctx, &store.FindApproval{Status: status})
	if err != nil {
		return nil, deskerrors.PersistenceFailure("failed to list approval requests", err)
	}
	return list, nil
}

// Get returns a single request.
func (g *Gate) Get(ctx context.Context, id int32) (*store.Approval, error) {
	approval, err := g.store.GetApproval(ctx, id)
	if err != nil {
		return nil, deskerrors.PersistenceFailure("failed to load approval request", err)
	}
	if approval == nil {
		return nil, deskerrors.ApprovalNotFound(id)
	}
	return approval, nil
}
