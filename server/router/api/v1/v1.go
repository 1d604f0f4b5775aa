package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/internal/profile"
	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/plugin/approval"
	"github.com/hrygo/erpdesk/plugin/audit"
	"github.com/hrygo/erpdesk/plugin/conversation"
	"github.com/hrygo/erpdesk/server/middleware"
	"github.com/hrygo/erpdesk/server/orchestrator"
	"github.com/hrygo/erpdesk/store"
)

type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	Router        *orchestrator.Router
	Gate          *approval.Gate
	Conversations *conversation.Store
	Audit         *audit.Recorder
	Agents        *agent.Registry
	Metrics       *observability.Metrics

	// chatLimiter throttles chat requests per user id.
	chatLimiter *middleware.RateLimiter
}

// NewAPIV1Service builds the HTTP API over already constructed services.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, services Services) *APIV1Service {
	metrics := services.Metrics
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		Router:        services.Router,
		Gate:          services.Gate,
		Conversations: services.Conversations,
		Audit:         services.Audit,
		Agents:        services.Agents,
		Metrics:       metrics,
		chatLimiter:   middleware.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst),
	}
}

// Services groups the domain services the API exposes.
type Services struct {
	Router        *orchestrator.Router
	Gate          *approval.Gate
	Conversations *conversation.Store
	Audit         *audit.Recorder
	Agents        *agent.Registry
	Metrics       *observability.Metrics
}

// RegisterRoutes mounts every endpoint on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	api := e.Group("/api")
	api.POST("/chat", s.Chat)

	api.GET("/approvals", s.ListApprovals)
	api.GET("/approvals/feed", s.ApprovalFeed)
	api.GET("/approvals/:id", s.GetApproval)
	api.POST("/approvals/:id/decision", s.DecideApproval)

	api.GET("/conversations/:user_id/messages", s.ListMessages)
	api.GET("/audit", s.ListAudit)
	api.GET("/tools", s.ListTools)
	api.GET("/metrics", s.GetMetrics)
}
