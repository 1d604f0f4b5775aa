package store

// ToolCallStatus is the outcome of a dispatch attempt.
type ToolCallStatus string

const (
	ToolCallStatusOK      ToolCallStatus = "ok"
	ToolCallStatusPending ToolCallStatus = "pending"
	ToolCallStatusError   ToolCallStatus = "error"
)

// ToolCall is an immutable audit record of one dispatch attempt.
type ToolCall struct {
	ID         int32
	Agent      string
	ToolName   string
	InputJSON  string
	OutputJSON string
	Status     ToolCallStatus
	CreatedAt  int64
}

type FindToolCall struct {
	Agent  *string
	Status *ToolCallStatus
	// Limit caps the result; newest entries are returned first.
	Limit *int
}
