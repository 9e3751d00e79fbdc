package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongopad/mongopad/core/domain"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
	"github.com/mongopad/mongopad/core/storage"
)

type stubExecutor struct {
	result any
	err    error

	gotCode string
	gotKind domain.ScriptType
}

func (s *stubExecutor) Execute(_ context.Context, code string, kind domain.ScriptType) (any, error) {
	s.gotCode = code
	s.gotKind = kind
	return s.result, s.err
}

// failingStore wraps a real store but rejects execution writes
type failingStore struct {
	storage.Store
}

func (f *failingStore) LogExecution(context.Context, domain.NewExecution) (*domain.Execution, error) {
	return nil, errors.New("history database unavailable")
}

func TestRunner_SuccessLogsExactlyOneRow(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	exec := &stubExecutor{result: []any{map[string]any{"name": "ada"}}}

	outcome, err := New(exec, store).Run(ctx, "db.users.find({})", domain.ScriptTypeQuery, nil)
	require.NoError(t, err)
	assert.Equal(t, exec.result, outcome.Result)
	assert.GreaterOrEqual(t, outcome.DurationMs, int64(0))
	assert.Equal(t, "db.users.find({})", exec.gotCode)

	rows, err := store.ListExecutions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ExecutionStatusSuccess, rows[0].Status)
	assert.Equal(t, exec.result, rows[0].Result)
	assert.Nil(t, rows[0].ScriptID)
}

func TestRunner_FailureLogsErrorRowAndResurfaces(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	execErr := apperrors.NewAppError(apperrors.ErrCodeExecutionFailed,
		"Execution failed: unknown collection method 'findAll'", nil)
	exec := &stubExecutor{err: execErr}

	_, err := New(exec, store).Run(ctx, "db.users.findAll()", domain.ScriptTypeQuery, nil)
	assert.Same(t, error(execErr), err, "the original error is re-surfaced unchanged")

	rows, listErr := store.ListExecutions(ctx, 10, 0)
	require.NoError(t, listErr)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ExecutionStatusError, rows[0].Status)
	assert.Equal(t, map[string]any{
		"error": "Execution failed: unknown collection method 'findAll'",
	}, rows[0].Result)
}

func TestRunner_RecordsScriptLinkage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	exec := &stubExecutor{result: int64(3)}
	scriptID := 42

	_, err := New(exec, store).Run(ctx, "db.users.countDocuments()", domain.ScriptTypeQuery, &scriptID)
	require.NoError(t, err)

	rows, err := store.ListExecutions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ScriptID)
	assert.Equal(t, scriptID, *rows[0].ScriptID)
}

func TestRunner_LogWriteFailureDoesNotMaskSuccess(t *testing.T) {
	exec := &stubExecutor{result: true}
	store := &failingStore{Store: storage.NewMemoryStore()}

	outcome, err := New(exec, store).Run(context.Background(), "db.users.drop()", domain.ScriptTypeQuery, nil)
	require.NoError(t, err)
	assert.Equal(t, true, outcome.Result)
}

func TestRunner_LogWriteFailureKeepsOriginalError(t *testing.T) {
	execErr := apperrors.NewAppError(apperrors.ErrCodeExecutionFailed, "Execution failed: boom", nil)
	exec := &stubExecutor{err: execErr}
	store := &failingStore{Store: storage.NewMemoryStore()}

	_, err := New(exec, store).Run(context.Background(), "db.x.find()", domain.ScriptTypeQuery, nil)
	assert.Same(t, error(execErr), err)
}
