package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongopad/mongopad/core/domain"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
)

// Malformed source must fail before any driver call is made, so these run
// without a live deployment.
func TestEngine_ExecuteRejectsMalformedSource(t *testing.T) {
	eng := New(nil, "test")

	tests := []struct {
		name string
		code string
	}{
		{"unbalanced parens", "db.users.find({}"},
		{"bracket indexing", "db['users'].find({})"},
		{"operator expression", "db.users.find({}) && db.users.drop()"},
		{"statement sequence", "db.users.find({}); db.users.drop()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Execute(context.Background(), tt.code, domain.ScriptTypeQuery)
			assert.Error(t, err)
			assert.True(t, apperrors.IsExecutionError(err))
			assert.Contains(t, apperrors.Message(err), "Execution failed: ")
		})
	}
}

// A run whose deadline expires must surface as an execution error naming
// the timeout, not as a bare driver error. This drives the same wrapping
// Execute applies around evaluation and normalization, with an iterator
// that fails once the deadline has passed.
func TestEngine_TimeoutSurfacesAsExecutionError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	it := &fakeIterator{err: ctx.Err()}
	_, normErr := IteratorResult(it).Normalize(ctx)
	require.Error(t, normErr)

	err := execError(timeoutErr(ctx, normErr, DefaultTimeout))
	assert.True(t, apperrors.IsExecutionError(err))
	assert.Equal(t, "Execution failed: script timed out after 10s", apperrors.Message(err))
}

// Without an expired deadline the underlying error passes through untouched
func TestTimeoutErrPassesThroughOtherFailures(t *testing.T) {
	cause := errors.New("write conflict")
	assert.Equal(t, cause, timeoutErr(context.Background(), cause, DefaultTimeout))
}
