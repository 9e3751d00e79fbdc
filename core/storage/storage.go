// Package storage persists scripts and execution history. Two backends
// implement the same Store interface: Postgres via pgx for durable
// deployments, and an in-memory store used without DATABASE_URL and in
// tests.
package storage

import (
	"context"

	"github.com/mongopad/mongopad/core/domain"
)

// Store is the persistence repository for Script and Execution records
type Store interface {
	// Scripts, newest first
	ListScripts(ctx context.Context) ([]domain.Script, error)
	GetScript(ctx context.Context, id int) (*domain.Script, error)
	CreateScript(ctx context.Context, script domain.NewScript) (*domain.Script, error)
	// UpdateScript applies a partial update; nil patch fields are untouched
	UpdateScript(ctx context.Context, id int, patch domain.ScriptPatch) (*domain.Script, error)
	// DeleteScript is idempotent: deleting a missing id reports not found
	// so the API can answer 404, but leaves no other trace
	DeleteScript(ctx context.Context, id int) error

	// LogExecution records exactly one row per execution attempt
	LogExecution(ctx context.Context, exec domain.NewExecution) (*domain.Execution, error)
	ListExecutions(ctx context.Context, limit, offset int) ([]domain.Execution, error)
	GetExecution(ctx context.Context, id int) (*domain.Execution, error)
	ListExecutionSummaries(ctx context.Context, limit, offset int) ([]domain.ExecutionSummary, error)

	Close() error
}
