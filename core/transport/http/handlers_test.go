package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/runtime/runner"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
	"github.com/mongopad/mongopad/core/storage"
)

type stubRunner struct {
	outcome *runner.Outcome
	err     error

	gotCode     string
	gotKind     domain.ScriptType
	gotScriptID *int
}

func (s *stubRunner) Run(_ context.Context, code string, kind domain.ScriptType, scriptID *int) (*runner.Outcome, error) {
	s.gotCode = code
	s.gotKind = kind
	s.gotScriptID = scriptID
	return s.outcome, s.err
}

func newTestAPI(t *testing.T) (*chi.Mux, *storage.MemoryStore, *stubRunner) {
	t.Helper()
	store := storage.NewMemoryStore()
	run := &stubRunner{outcome: &runner.Outcome{Result: []any{}, DurationMs: 1}}
	r := chi.NewRouter()
	RegisterRoutes(r, store, run)
	return r, store, run
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestScripts_CreateGetRoundTrip(t *testing.T) {
	r, _, _ := newTestAPI(t)

	rec := doJSON(t, r, http.MethodPost, "/api/scripts", map[string]any{
		"name": "list users",
		"code": "db.users.find({})",
		"type": "query",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody[domain.Script](t, rec)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.IsReadonly)

	rec = doJSON(t, r, http.MethodGet, "/api/scripts/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[domain.Script](t, rec)
	assert.Equal(t, created, got)
}

func TestScripts_CreateValidation(t *testing.T) {
	r, _, _ := newTestAPI(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"code": "db.users.find({})", "type": "query"}},
		{"missing code", map[string]any{"name": "x", "type": "query"}},
		{"bad type", map[string]any{"name": "x", "code": "y", "type": "mapreduce"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/scripts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody[map[string]string](t, rec)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestScripts_GetUnknown(t *testing.T) {
	r, _, _ := newTestAPI(t)
	rec := doJSON(t, r, http.MethodGet, "/api/scripts/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScripts_UpdateAndDelete(t *testing.T) {
	r, store, _ := newTestAPI(t)
	created, err := store.CreateScript(context.Background(), domain.NewScript{
		Name: "original", Code: "db.users.find({})", Type: domain.ScriptTypeQuery,
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPut, "/api/scripts/1", map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[domain.Script](t, rec)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, created.Code, updated.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/scripts/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/scripts/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecute_AdHoc(t *testing.T) {
	r, _, run := newTestAPI(t)
	run.outcome = &runner.Outcome{Result: []any{map[string]any{"name": "ada"}}, DurationMs: 12}

	rec := doJSON(t, r, http.MethodPost, "/api/execute", map[string]any{
		"code": "users.find({})",
		"type": "query",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(12), body["durationMs"])
	assert.Equal(t, "users.find({})", run.gotCode)
	assert.Equal(t, domain.ScriptTypeQuery, run.gotKind)
	assert.Nil(t, run.gotScriptID)
}

func TestExecute_SavedScript(t *testing.T) {
	r, store, run := newTestAPI(t)
	created, err := store.CreateScript(context.Background(), domain.NewScript{
		Name: "count", Code: "db.users.countDocuments()", Type: domain.ScriptTypeAggregation,
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/api/execute", map[string]any{"scriptId": created.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, created.Code, run.gotCode)
	assert.Equal(t, domain.ScriptTypeAggregation, run.gotKind)
	require.NotNil(t, run.gotScriptID)
	assert.Equal(t, created.ID, *run.gotScriptID)
}

func TestExecute_MissingCodeAndScriptID(t *testing.T) {
	r, _, _ := newTestAPI(t)
	rec := doJSON(t, r, http.MethodPost, "/api/execute", map[string]any{"type": "query"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute_EngineErrorIs500WithMessage(t *testing.T) {
	r, _, run := newTestAPI(t)
	run.outcome = nil
	run.err = apperrors.NewAppError(apperrors.ErrCodeExecutionFailed,
		"Execution failed: unknown collection method 'findAll'", nil)

	rec := doJSON(t, r, http.MethodPost, "/api/execute", map[string]any{"code": "db.users.findAll()"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Execution failed: unknown collection method 'findAll'", body["message"])
}

func TestExecutions_PaginationAndClamping(t *testing.T) {
	r, store, _ := newTestAPI(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.LogExecution(ctx, domain.NewExecution{
			Status: domain.ExecutionStatusSuccess, Result: i, DurationMs: int64(i),
		})
		require.NoError(t, err)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/executions?limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]domain.Execution](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].ID, "newest first")

	// non-numeric limit falls back to the default
	rec = doJSON(t, r, http.MethodGet, "/api/executions?limit=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Execution](t, rec), 3)

	// an offset beyond the total count yields an empty array
	rec = doJSON(t, r, http.MethodGet, "/api/executions?offset=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]domain.Execution](t, rec))
}

func TestExecutions_Summaries(t *testing.T) {
	r, store, _ := newTestAPI(t)
	_, err := store.LogExecution(context.Background(), domain.NewExecution{
		Status: domain.ExecutionStatusSuccess, Result: []any{map[string]any{"n": 1}}, DurationMs: 2,
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/api/executions?summary=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summaries := decodeBody[[]domain.ExecutionSummary](t, rec)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].ResultPreview)
	assert.Contains(t, *summaries[0].ResultPreview, `"n":1`)
}

func TestExecutions_Export(t *testing.T) {
	r, store, _ := newTestAPI(t)
	_, err := store.LogExecution(context.Background(), domain.NewExecution{
		Status:     domain.ExecutionStatusSuccess,
		Result:     []any{map[string]any{"name": "ada"}},
		DurationMs: 2,
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/api/executions/1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "ada")

	rec = doJSON(t, r, http.MethodGet, "/api/executions/1/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/executions/99/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
