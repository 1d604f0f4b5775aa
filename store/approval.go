package store

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsDecision reports whether the status is a terminal decision.
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// Approval is a gate on a write action. Status moves from pending to a decision exactly once.
type Approval struct {
	ID          int32
	Module      string
	PayloadJSON string
	Status      ApprovalStatus
	RequestedBy string
	DecidedBy   *string
	CreatedAt   int64
	DecidedAt   *int64
}

type FindApproval struct {
	ID     *int32
	Status *ApprovalStatus
	Limit  *int
}

// DecideApproval moves a pending approval to Status.
// Drivers apply it as a compare-and-set on status = 'pending'.
type DecideApproval struct {
	ID        int32
	Status    ApprovalStatus
	DecidedBy string
	DecidedAt int64
}
