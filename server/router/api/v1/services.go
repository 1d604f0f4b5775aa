package v1

import (
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/plugin/agent/analytics"
	"github.com/hrygo/erpdesk/plugin/agent/finance"
	"github.com/hrygo/erpdesk/plugin/agent/inventory"
	"github.com/hrygo/erpdesk/plugin/agent/sales"
	"github.com/hrygo/erpdesk/plugin/approval"
	"github.com/hrygo/erpdesk/plugin/audit"
	"github.com/hrygo/erpdesk/plugin/cache"
	"github.com/hrygo/erpdesk/plugin/conversation"
	"github.com/hrygo/erpdesk/plugin/intent"
	"github.com/hrygo/erpdesk/server/orchestrator"
	"github.com/hrygo/erpdesk/store"
)

// NewServices wires the reference domain agents and the governance services over st.
// c may be nil; a nil policy selects the built-in thresholds.
func NewServices(st *store.Store, c cache.CacheService, policy *approval.Policy, metrics *observability.Metrics) Services {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	agents := agent.NewRegistry(
		sales.New(st),
		finance.New(st),
		inventory.New(st),
		analytics.New(st),
	)
	gate := approval.NewGate(st, policy, metrics)
	conversations := conversation.NewStore(st, c, metrics)
	recorder := audit.NewRecorder(st, metrics)

	return Services{
		Router: orchestrator.NewRouter(orchestrator.Config{
			Classifier:    intent.NewRuleMatcher(),
			Gate:          gate,
			Conversations: conversations,
			Audit:         recorder,
			Agents:        agents,
			Metrics:       metrics,
		}),
		Gate:          gate,
		Conversations: conversations,
		Audit:         recorder,
		Agents:        agents,
		Metrics:       metrics,
	}
}
