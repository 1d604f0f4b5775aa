package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects in-process counters for routed chat requests.
type Metrics struct {
	mu sync.Mutex

	requestTotal              atomic.Int64
	requestFailed             atomic.Int64
	approvalsRequested        atomic.Int64
	approvalsDecided          atomic.Int64
	auditWriteFailures        atomic.Int64
	conversationWriteFailures atomic.Int64

	moduleMetrics map[string]*ModuleMetrics
}

// ModuleMetrics represents metrics for a single module.
type ModuleMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		moduleMetrics: make(map[string]*ModuleMetrics),
	}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a request routed to module.
func (m *Metrics) RecordRequest(module string) {
	m.requestTotal.Add(1)
	m.getModuleMetrics(module).requestCount.Add(1)
}

// RecordFailure records a failed request.
func (m *Metrics) RecordFailure(module string) {
	m.requestFailed.Add(1)
	m.getModuleMetrics(module).errorCount.Add(1)
}

// RecordDuration records a request duration.
func (m *Metrics) RecordDuration(module string, duration time.Duration) {
	m.getModuleMetrics(module).totalDuration.Add(duration.Milliseconds())
}

func (m *Metrics) RecordApprovalRequested() { m.approvalsRequested.Add(1) }

func (m *Metrics) RecordApprovalDecided() { m.approvalsDecided.Add(1) }

// RecordAuditWriteFailure counts an audit entry that could not be persisted.
func (m *Metrics) RecordAuditWriteFailure() { m.auditWriteFailures.Add(1) }

// RecordConversationWriteFailure counts a message that could not be persisted.
func (m *Metrics) RecordConversationWriteFailure() { m.conversationWriteFailures.Add(1) }

func (m *Metrics) getModuleMetrics(module string) *ModuleMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	mm, ok := m.moduleMetrics[module]
	if !ok {
		mm = &ModuleMetrics{}
		m.moduleMetrics[module] = mm
	}
	return mm
}

// Modules returns all modules that have been recorded, sorted.
func (m *Metrics) Modules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	modules := make([]string, 0, len(m.moduleMetrics))
	for module := range m.moduleMetrics {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.approvalsRequested.Store(0)
	m.approvalsDecided.Store(0)
	m.auditWriteFailures.Store(0)
	m.conversationWriteFailures.Store(0)

	m.mu.Lock()
	m.moduleMetrics = make(map[string]*ModuleMetrics)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	modules := make(map[string]*ModuleMetricsSnapshot, len(m.moduleMetrics))
	for module, mm := range m.moduleMetrics {
		count := mm.requestCount.Load()
		snap := &ModuleMetricsSnapshot{
			RequestCount:  count,
			TotalDuration: mm.totalDuration.Load(),
			ErrorCount:    mm.errorCount.Load(),
		}
		if count > 0 {
			snap.AverageDuration = snap.TotalDuration / count
		}
		modules[module] = snap
	}

	return &MetricsSnapshot{
		RequestTotal:              m.requestTotal.Load(),
		RequestFailed:             m.requestFailed.Load(),
		ApprovalsRequested:        m.approvalsRequested.Load(),
		ApprovalsDecided:          m.approvalsDecided.Load(),
		AuditWriteFailures:        m.auditWriteFailures.Load(),
		ConversationWriteFailures: m.conversationWriteFailures.Load(),
		Modules:                   modules,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal              int64                             `json:"request_total"`
	RequestFailed             int64                             `json:"request_failed"`
	ApprovalsRequested        int64                             `json:"approvals_requested"`
	ApprovalsDecided          int64                             `json:"approvals_decided"`
	AuditWriteFailures        int64                             `json:"audit_write_failures"`
	ConversationWriteFailures int64                             `json:"conversation_write_failures"`
	Modules                   map[string]*ModuleMetricsSnapshot `json:"modules"`
}

// ModuleMetricsSnapshot represents metrics for a specific module.
type ModuleMetricsSnapshot struct {
	RequestCount    int64 `json:"request_count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	ErrorCount      int64 `json:"error_count"`
	AverageDuration int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
