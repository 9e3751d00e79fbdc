package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/mongopad/mongopad/core/domain"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
)

// MemoryStore implements Store in process memory. It backs deployments
// without DATABASE_URL and the test suite.
type MemoryStore struct {
	mu         sync.RWMutex
	scripts    map[int]domain.Script
	executions map[int]domain.Execution
	nextScript int
	nextExec   int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scripts:    make(map[int]domain.Script),
		executions: make(map[int]domain.Execution),
		nextScript: 1,
		nextExec:   1,
	}
}

func (m *MemoryStore) ListScripts(context.Context) ([]domain.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scripts := make([]domain.Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(i, j int) bool {
		if !scripts[i].CreatedAt.Equal(scripts[j].CreatedAt) {
			return scripts[i].CreatedAt.After(scripts[j].CreatedAt)
		}
		return scripts[i].ID > scripts[j].ID
	})
	return scripts, nil
}

func (m *MemoryStore) GetScript(_ context.Context, id int) (*domain.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scripts[id]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrCodeScriptNotFound, "Script not found", nil)
	}
	return &s, nil
}

func (m *MemoryStore) CreateScript(_ context.Context, script domain.NewScript) (*domain.Script, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	isReadonly := true
	if script.IsReadonly != nil {
		isReadonly = *script.IsReadonly
	}
	s := domain.Script{
		ID:          m.nextScript,
		Name:        script.Name,
		Description: script.Description,
		Code:        script.Code,
		Type:        script.Type,
		IsReadonly:  isReadonly,
		CreatedAt:   time.Now().UTC(),
	}
	m.nextScript++
	m.scripts[s.ID] = s
	return &s, nil
}

func (m *MemoryStore) UpdateScript(_ context.Context, id int, patch domain.ScriptPatch) (*domain.Script, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scripts[id]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrCodeScriptNotFound, "Script not found", nil)
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		s.Description = patch.Description
	}
	if patch.Code != nil {
		s.Code = *patch.Code
	}
	if patch.Type != nil {
		s.Type = *patch.Type
	}
	if patch.IsReadonly != nil {
		s.IsReadonly = *patch.IsReadonly
	}
	m.scripts[id] = s
	return &s, nil
}

func (m *MemoryStore) DeleteScript(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scripts[id]; !ok {
		return apperrors.NewAppError(apperrors.ErrCodeScriptNotFound, "Script not found", nil)
	}
	delete(m.scripts, id)
	return nil
}

func (m *MemoryStore) LogExecution(_ context.Context, exec domain.NewExecution) (*domain.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := domain.Execution{
		ID:         m.nextExec,
		ScriptID:   exec.ScriptID,
		Status:     exec.Status,
		Result:     exec.Result,
		ExecutedAt: time.Now().UTC(),
		DurationMs: exec.DurationMs,
	}
	m.nextExec++
	m.executions[e.ID] = e
	return &e, nil
}

func (m *MemoryStore) ListExecutions(_ context.Context, limit, offset int) ([]domain.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ordered := m.orderedExecutions()
	return page(ordered, limit, offset), nil
}

func (m *MemoryStore) GetExecution(_ context.Context, id int) (*domain.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.executions[id]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "Execution not found", nil)
	}
	return &e, nil
}

func (m *MemoryStore) ListExecutionSummaries(_ context.Context, limit, offset int) ([]domain.ExecutionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ordered := page(m.orderedExecutions(), limit, offset)
	summaries := make([]domain.ExecutionSummary, 0, len(ordered))
	for _, e := range ordered {
		summaries = append(summaries, domain.ExecutionSummary{
			ID:            e.ID,
			ScriptID:      e.ScriptID,
			Status:        e.Status,
			ExecutedAt:    e.ExecutedAt,
			DurationMs:    e.DurationMs,
			ResultPreview: previewOf(e.Result),
		})
	}
	return summaries, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) orderedExecutions() []domain.Execution {
	ordered := make([]domain.Execution, 0, len(m.executions))
	for _, e := range m.executions {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].ExecutedAt.Equal(ordered[j].ExecutedAt) {
			return ordered[i].ExecutedAt.After(ordered[j].ExecutedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})
	return ordered
}

func page(rows []domain.Execution, limit, offset int) []domain.Execution {
	if offset >= len(rows) {
		return []domain.Execution{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]domain.Execution, end-offset)
	copy(out, rows[offset:end])
	return out
}

func previewOf(result any) *string {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	text := string(raw)
	if len(text) > domain.ResultPreviewLength {
		text = text[:domain.ResultPreviewLength]
	}
	return &text
}
