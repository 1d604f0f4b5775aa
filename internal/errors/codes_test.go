package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeskErrorMessage(t *testing.T) {
	err := PersistenceFailure("load approval", sql.ErrConnDone)
	assert.Equal(t, "[PERSISTENCE_FAILURE] load approval: sql: connection is already closed", err.Error())
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.Equal(t, "[INVALID_ARGUMENT] message is required", InvalidArgument("message is required").Error())
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("decide: %w", AlreadyDecided(7, "approved"))

	assert.True(t, IsCode(wrapped, ErrCodeAlreadyDecided))
	assert.False(t, IsCode(wrapped, ErrCodeApprovalNotFound))
	assert.False(t, IsCode(sql.ErrNoRows, ErrCodeApprovalNotFound))
	assert.ErrorIs(t, wrapped, &DeskError{Code: ErrCodeAlreadyDecided})
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeApprovalNotFound, GetCodeFromError(ApprovalNotFound(3), ErrCodePersistenceFailure))
	assert.Equal(t, ErrCodePersistenceFailure, GetCodeFromError(sql.ErrNoRows, ErrCodePersistenceFailure))
}

func TestWithContext(t *testing.T) {
	err := AlreadyDecided(7, "rejected")
	assert.Equal(t, int32(7), err.Context["approval_id"])
	assert.Equal(t, "rejected", err.Context["status"])

	err = HandlerFailure("finance", sql.ErrTxDone)
	assert.Equal(t, "finance", err.Context["module"])
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidDecision, http.StatusBadRequest},
		{ErrCodeInvalidArgument, http.StatusBadRequest},
		{ErrCodeApprovalNotFound, http.StatusNotFound},
		{ErrCodeAlreadyDecided, http.StatusConflict},
		{ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeHandlerFailure, http.StatusInternalServerError},
		{ErrCodePersistenceFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}
