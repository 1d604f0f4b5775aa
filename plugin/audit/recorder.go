// Package audit records every dispatch attempt as an append-only tool call entry.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/store"
)

const (
	writeTimeout = 5 * time.Second
	// maxListLimit caps how many entries a single query may return.
	maxListLimit = 500
)

// ToolCallStore is the persistence the recorder needs. *store.Store satisfies it.
type ToolCallStore interface {
	CreateToolCall(ctx context.Context, create *store.ToolCall) (*store.ToolCall, error)
	ListToolCalls(ctx context.Context, find *store.FindToolCall) ([]*store.ToolCall, error)
}

// Recorder writes audit entries.
type Recorder struct {
	store   ToolCallStore
	metrics *observability.Metrics
	now     func() time.Time
}

func NewRecorder(s ToolCallStore, metrics *observability.Metrics) *Recorder {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &Recorder{store: s, metrics: metrics, now: time.Now}
}

// RecordBestEffort appends one entry. A failed write is logged and counted but never
// returned, so auditing cannot fail the request it describes. The write is not part of
// any transaction of the action itself.
func (r *Recorder) RecordBestEffort(ctx context.Context, agent, toolName string, inputs, outputs any, status store.ToolCallStatus) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	_, err := r.store.CreateToolCall(writeCtx, &store.ToolCall{
		Agent:      agent,
		ToolName:   toolName,
		InputJSON:  encode(inputs),
		OutputJSON: encode(outputs),
		Status:     status,
		CreatedAt:  r.now().Unix(),
	})
	if err != nil {
		r.metrics.RecordAuditWriteFailure()
		slog.Warn("failed to record audit entry",
			slog.String("agent", agent),
			slog.String("tool_name", toolName),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

// List returns recent entries, newest first. limit is clamped to [1, 500].
func (r *Recorder) List(ctx context.Context, agent string, status store.ToolCallStatus, limit int) ([]*store.ToolCall, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	find := &store.FindToolCall{Limit: &limit}
	if agent != "" {
		find.Agent = &agent
	}
	if status != "" {
		switch status {
		case store.ToolCallStatusOK, store.ToolCallStatusPending, store.ToolCallStatusError:
			find.Status = &status
		default:
			return nil, deskerrors.InvalidArgument("unknown audit status: " + string(status))
		}
	}

	list, err := r.store.ListToolCalls(ctx, find)
	if err != nil {
		return nil, deskerrors.PersistenceFailure("failed to list audit entries", err)
	}
	return list, nil
}

// encode serializes v as JSON. Values that cannot be serialized are stored as their string form.
func encode(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"unserializable": fmt.Sprintf("%v", v)})
		return string(fallback)
	}
	return string(data)
}
