package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeScriptNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeValidationError, http.StatusBadRequest},
		{ErrCodeExecutionFailed, http.StatusInternalServerError},
		{ErrCodeConnectionFailed, http.StatusInternalServerError},
		{ErrCodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewAppError(tt.code, "boom", nil)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestMessage(t *testing.T) {
	appErr := NewAppError(ErrCodeExecutionFailed, "Execution failed: bad input", errors.New("cause"))
	assert.Equal(t, "Execution failed: bad input", Message(appErr))

	wrapped := fmt.Errorf("handler: %w", appErr)
	assert.Equal(t, "Execution failed: bad input", Message(wrapped))

	plain := errors.New("plain failure")
	assert.Equal(t, "plain failure", Message(plain))
}

func TestPredicates(t *testing.T) {
	notFound := NewAppError(ErrCodeScriptNotFound, "Script not found", nil)
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsExecutionError(notFound))

	execErr := WrapError(ErrCodeExecutionFailed, "Execution failed: x", errors.New("y"))
	assert.True(t, IsExecutionError(execErr))
	assert.False(t, IsNotFound(execErr))

	assert.False(t, IsNotFound(errors.New("nope")))
	assert.True(t, IsValidationError(NewAppError(ErrCodeInvalidInput, "bad", nil)))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrCodeConnectionFailed, "MongoDB unreachable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CONNECTION_FAILED")
	assert.Contains(t, err.Error(), "connection refused")
}
