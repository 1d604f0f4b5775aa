// Package orchestrator turns a chat message into a routed, gated and audited result.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/plugin/approval"
	"github.com/hrygo/erpdesk/plugin/audit"
	"github.com/hrygo/erpdesk/plugin/conversation"
	"github.com/hrygo/erpdesk/plugin/intent"
	"github.com/hrygo/erpdesk/store"
)

const (
	GreetingText = "Hello! I can help with customers, invoices, stock levels, and reports.\n" +
		"Try:\n" +
		"- List all customers\n" +
		"- Show unpaid invoices\n" +
		"- Check stock levels\n" +
		"- Show analytics report"
	ApologyText = "I couldn't understand that. Try asking about sales, finance, inventory, or analytics."

	toolApprovalRequested = "approval_requested"
	toolRouterError       = "router_error"
)

// Config wires the router to its collaborators. Classifier and Agents are required.
type Config struct {
	Classifier    intent.Classifier
	Gate          *approval.Gate
	Conversations *conversation.Store
	Audit         *audit.Recorder
	Agents        *agent.Registry
	Metrics       *observability.Metrics
}

// Router classifies each message, gates writes behind approvals, dispatches to the
// module's agent and records exactly one audit entry and one reply message per dispatch.
type Router struct {
	classifier    intent.Classifier
	gate          *approval.Gate
	conversations *conversation.Store
	audit         *audit.Recorder
	agents        *agent.Registry
	metrics       *observability.Metrics
	locks         *userLocks
}

func NewRouter(cfg Config) *Router {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &Router{
		classifier:    cfg.Classifier,
		gate:          cfg.Gate,
		conversations: cfg.Conversations,
		audit:         cfg.Audit,
		agents:        cfg.Agents,
		metrics:       metrics,
		locks:         newUserLocks(),
	}
}

// Route handles one chat message from userID.
// The returned error is non-nil only when the conversation or the approval state cannot be
// persisted; agent failures are reported through an error Result.
func (r *Router) Route(ctx context.Context, userID, text string) (agent.Result, error) {
	reqCtx := observability.FromContextOrNew(ctx, userID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	release, err := r.locks.acquire(ctx, userID)
	if err != nil {
		return agent.Result{}, errors.Wrap(err, "failed to wait for user lock")
	}
	defer release()

	conversationID, err := r.conversations.EnsureConversation(ctx, userID)
	if err != nil {
		reqCtx.Error("conversation lookup failed", err)
		return agent.Result{}, err
	}
	r.conversations.AppendMessageBestEffort(ctx, conversationID, store.MessageSenderUser, text)

	classification := r.classifier.Classify(text)
	reqCtx.SetModule(string(classification.Module))
	reqCtx.Debug("message classified",
		slog.String(observability.LogFieldAction, classification.Action),
		slog.String("access", string(classification.Access)),
		slog.Int(observability.LogFieldMessageLen, len(text)),
	)

	switch classification.Module {
	case intent.ModuleGeneral:
		r.conversations.AppendMessageBestEffort(ctx, conversationID, store.MessageSenderRouter, GreetingText)
		return agent.Text(GreetingText), nil
	case intent.ModuleUnknown:
		r.conversations.AppendMessageBestEffort(ctx, conversationID, store.MessageSenderRouter, ApologyText)
		return agent.Text(ApologyText), nil
	}

	module, ok := agent.ParseModule(string(classification.Module))
	if !ok {
		reqCtx.Warn("classifier returned an unroutable module")
		r.conversations.AppendMessageBestEffort(ctx, conversationID, store.MessageSenderRouter, ApologyText)
		return agent.Text(ApologyText), nil
	}

	t := &turn{
		reqCtx:         reqCtx,
		conversationID: conversationID,
		userID:         userID,
		text:           text,
		module:         module,
		action:         classification.Action,
		write:          classification.Access == intent.AccessWrite,
	}

	r.metrics.RecordRequest(string(module))
	defer func() {
		r.metrics.RecordDuration(string(module), reqCtx.Duration())
	}()

	if t.write {
		payload := approval.PayloadFromText(string(module), t.action, text)
		if needed, reason := r.gate.RequiresApproval(string(module), t.action, payload); needed {
			return r.requestApproval(ctx, t, payload, reason)
		}
	}
	return r.dispatch(ctx, t), nil
}

// turn carries the per-request state of a routed message.
type turn struct {
	reqCtx         *observability.RequestContext
	conversationID int32
	userID         string
	text           string
	module         agent.Module
	action         string
	write          bool
}

func (r *Router) requestApproval(ctx context.Context, t *turn, payload map[string]any, reason string) (agent.Result, error) {
	module := string(t.module)
	inputs := map[string]any{"action": t.action, "msg": t.text}

	id, err := r.gate.CreateApprovalRequest(ctx, module, payload, t.userID)
	if err != nil {
		r.metrics.RecordFailure(module)
		t.reqCtx.Error("failed to create approval request", err)
		result := agent.Error("Could not queue the request for approval. Please try again.")
		r.audit.RecordBestEffort(ctx, module, toolRouterError, inputs, map[string]any{"error": err.Error()}, store.ToolCallStatusError)
		r.conversations.AppendMessageBestEffort(ctx, t.conversationID, store.MessageSenderRouter, result.String())
		return agent.Result{}, err
	}

	content := fmt.Sprintf("Approval request #%d is pending. Reason: %s", id, reason)
	r.audit.RecordBestEffort(ctx, module, toolApprovalRequested, inputs, map[string]any{"approval_id": id}, store.ToolCallStatusPending)
	r.conversations.AppendMessageBestEffort(ctx, t.conversationID, store.MessageSenderRouter, content)
	t.reqCtx.Info("write held for approval",
		slog.Int64(observability.LogFieldApprovalID, int64(id)),
		slog.String("reason", reason),
	)
	return agent.Text(content), nil
}

func (r *Router) dispatch(ctx context.Context, t *turn) agent.Result {
	module := string(t.module)
	inputs := map[string]any{"msg": t.text}
	readTool, writeTool := agent.ToolNames(t.module)
	tool := readTool
	if t.write {
		tool = writeTool
	}

	start := time.Now()
	result, err := r.invoke(ctx, t.module, t.write, t.text)
	if err != nil {
		r.metrics.RecordFailure(module)
		t.reqCtx.Error("agent failed", deskerrors.HandlerFailure(module, err), slog.String("tool", tool))

		errTool, prefix := agent.ReadErrorToolName(t.module), "Error during read operation: "
		if t.write {
			errTool, prefix = toolRouterError, "Something went wrong while processing your request: "
		}
		result = agent.Error(prefix + err.Error())
		r.audit.RecordBestEffort(ctx, module, errTool, inputs, map[string]any{"error": err.Error()}, store.ToolCallStatusError)
		r.conversations.AppendMessageBestEffort(ctx, t.conversationID, store.MessageSenderRouter, result.String())
		return result
	}

	r.audit.RecordBestEffort(ctx, module, tool, inputs, result, store.ToolCallStatusOK)
	r.conversations.AppendMessageBestEffort(ctx, t.conversationID, store.MessageSender(module), result.String())
	t.reqCtx.Info("request dispatched",
		slog.String("tool", tool),
		slog.String("result_type", string(result.Type)),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	return result
}

// invoke calls the agent, converting a panic into an error.
func (r *Router) invoke(ctx context.Context, module agent.Module, write bool, text string) (result agent.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("agent panicked: %v", p)
		}
	}()

	a, err := r.agents.Get(module)
	if err != nil {
		return agent.Result{}, err
	}
	if write {
		return a.Write(ctx, text)
	}
	return a.ProcessRequest(ctx, text)
}
