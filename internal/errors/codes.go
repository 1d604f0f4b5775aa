package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure surfaced by the desk services.
type ErrorCode string

const (
	// ErrCodeInvalidDecision indicates a decision other than approved or rejected.
	ErrCodeInvalidDecision ErrorCode = "INVALID_DECISION"
	// ErrCodeApprovalNotFound indicates the approval request does not exist.
	ErrCodeApprovalNotFound ErrorCode = "APPROVAL_NOT_FOUND"
	// ErrCodeAlreadyDecided indicates the approval request has left the pending state.
	ErrCodeAlreadyDecided ErrorCode = "ALREADY_DECIDED"
	// ErrCodeHandlerFailure wraps a failure raised by a domain agent.
	ErrCodeHandlerFailure ErrorCode = "HANDLER_FAILURE"
	// ErrCodePersistenceFailure indicates the store could not be read or written.
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// DeskError represents a structured error carrying a code and optional context.
type DeskError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *DeskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DeskError) Unwrap() error {
	return e.Cause
}

// Is matches any DeskError with the same code, so errors.Is(err, &DeskError{Code: c}) works.
func (e *DeskError) Is(target error) bool {
	t, ok := target.(*DeskError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext adds context to the error.
func (e *DeskError) WithContext(key string, value any) *DeskError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InvalidDecision creates an invalid decision error.
func InvalidDecision(decision string) *DeskError {
	return &DeskError{
		Code:    ErrCodeInvalidDecision,
		Message: fmt.Sprintf("decision must be approved or rejected, got %q", decision),
	}
}

// ApprovalNotFound creates an approval not found error.
func ApprovalNotFound(id int32) *DeskError {
	return (&DeskError{
		Code:    ErrCodeApprovalNotFound,
		Message: fmt.Sprintf("approval request %d not found", id),
	}).WithContext("approval_id", id)
}

// AlreadyDecided creates an already decided error.
func AlreadyDecided(id int32, status string) *DeskError {
	return (&DeskError{
		Code:    ErrCodeAlreadyDecided,
		Message: fmt.Sprintf("approval request %d is already %s", id, status),
	}).WithContext("approval_id", id).WithContext("status", status)
}

// HandlerFailure wraps a domain agent failure.
func HandlerFailure(module string, cause error) *DeskError {
	return (&DeskError{
		Code:    ErrCodeHandlerFailure,
		Message: fmt.Sprintf("%s handler failed", module),
		Cause:   cause,
	}).WithContext("module", module)
}

// PersistenceFailure wraps a store failure.
func PersistenceFailure(msg string, cause error) *DeskError {
	return &DeskError{Code: ErrCodePersistenceFailure, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *DeskError {
	return &DeskError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *DeskError {
	return &DeskError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// IsCode checks if an error, or anything it wraps, carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var deskErr *DeskError
	if errors.As(err, &deskErr) {
		return deskErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a DeskError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var deskErr *DeskError
	if errors.As(err, &deskErr) {
		return deskErr.Code
	}
	return defaultCode
}

// HTTPStatus maps an error code to the status returned by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidDecision, ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeApprovalNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyDecided:
		return http.StatusConflict
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
