package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/logger"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS scripts (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	code TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'query',
	is_readonly BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS executions (
	id SERIAL PRIMARY KEY,
	script_id INTEGER REFERENCES scripts(id),
	status TEXT NOT NULL,
	result JSONB,
	executed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	duration_ms BIGINT NOT NULL DEFAULT 0
);
`

// PostgresStore implements Store on a pgx/v5 connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool, pings it and bootstraps the
// two tables
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	log := logger.New("storage:postgres")
	log.Debugf("Opening PostgreSQL connection pool (pgx/v5)")

	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration,
			"failed to parse postgres connection string", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed,
			"failed to create postgres connection pool", err)
	}

	log.Debugf("Testing connection with ping")
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed,
			"failed to ping postgres database", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed,
			"failed to bootstrap schema", err)
	}

	log.Debugf("PostgreSQL connection pool opened successfully")
	return &PostgresStore{pool: pool}, nil
}

const scriptColumns = "id, name, description, code, type, is_readonly, created_at"

func scanScript(row pgx.Row) (*domain.Script, error) {
	var s domain.Script
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Code, &s.Type, &s.IsReadonly, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scriptNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scriptNotFound() error {
	return apperrors.NewAppError(apperrors.ErrCodeScriptNotFound, "Script not found", nil)
}

// ListScripts returns all scripts, newest first
func (p *PostgresStore) ListScripts(ctx context.Context) ([]domain.Script, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT "+scriptColumns+" FROM scripts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scripts := make([]domain.Script, 0)
	for rows.Next() {
		var s domain.Script
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Code, &s.Type, &s.IsReadonly, &s.CreatedAt); err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, rows.Err()
}

func (p *PostgresStore) GetScript(ctx context.Context, id int) (*domain.Script, error) {
	return scanScript(p.pool.QueryRow(ctx,
		"SELECT "+scriptColumns+" FROM scripts WHERE id = $1", id))
}

func (p *PostgresStore) CreateScript(ctx context.Context, script domain.NewScript) (*domain.Script, error) {
	isReadonly := true
	if script.IsReadonly != nil {
		isReadonly = *script.IsReadonly
	}
	return scanScript(p.pool.QueryRow(ctx,
		`INSERT INTO scripts (name, description, code, type, is_readonly)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+scriptColumns,
		script.Name, script.Description, script.Code, script.Type, isReadonly))
}

// UpdateScript builds the SET clause from the non-nil patch fields
func (p *PostgresStore) UpdateScript(ctx context.Context, id int, patch domain.ScriptPatch) (*domain.Script, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Code != nil {
		add("code", *patch.Code)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.IsReadonly != nil {
		add("is_readonly", *patch.IsReadonly)
	}

	if len(sets) == 0 {
		return p.GetScript(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE scripts SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), scriptColumns)
	return scanScript(p.pool.QueryRow(ctx, query, args...))
}

func (p *PostgresStore) DeleteScript(ctx context.Context, id int) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM scripts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return scriptNotFound()
	}
	return nil
}

func (p *PostgresStore) LogExecution(ctx context.Context, exec domain.NewExecution) (*domain.Execution, error) {
	payload, err := json.Marshal(exec.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution result: %w", err)
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO executions (script_id, status, result, duration_ms)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, script_id, status, result, executed_at, duration_ms`,
		exec.ScriptID, exec.Status, payload, exec.DurationMs)
	return scanExecution(row)
}

func scanExecution(row pgx.Row) (*domain.Execution, error) {
	var e domain.Execution
	var raw []byte
	err := row.Scan(&e.ID, &e.ScriptID, &e.Status, &raw, &e.ExecutedAt, &e.DurationMs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "Execution not found", nil)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Result); err != nil {
			return nil, fmt.Errorf("failed to decode execution result: %w", err)
		}
	}
	return &e, nil
}

func (p *PostgresStore) ListExecutions(ctx context.Context, limit, offset int) ([]domain.Execution, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, script_id, status, result, executed_at, duration_ms
		 FROM executions ORDER BY executed_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := make([]domain.Execution, 0)
	for rows.Next() {
		var e domain.Execution
		var raw []byte
		if err := rows.Scan(&e.ID, &e.ScriptID, &e.Status, &raw, &e.ExecutedAt, &e.DurationMs); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Result); err != nil {
				return nil, fmt.Errorf("failed to decode execution result: %w", err)
			}
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func (p *PostgresStore) GetExecution(ctx context.Context, id int) (*domain.Execution, error) {
	return scanExecution(p.pool.QueryRow(ctx,
		`SELECT id, script_id, status, result, executed_at, duration_ms
		 FROM executions WHERE id = $1`, id))
}

// ListExecutionSummaries projects history rows with a truncated text
// preview of the result payload
func (p *PostgresStore) ListExecutionSummaries(ctx context.Context, limit, offset int) ([]domain.ExecutionSummary, error) {
	rows, err := p.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, script_id, status, executed_at, duration_ms, left(result::text, %d)
		 FROM executions ORDER BY executed_at DESC, id DESC LIMIT $1 OFFSET $2`,
			domain.ResultPreviewLength),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.ExecutionSummary, 0)
	for rows.Next() {
		var s domain.ExecutionSummary
		if err := rows.Scan(&s.ID, &s.ScriptID, &s.Status, &s.ExecutedAt, &s.DurationMs, &s.ResultPreview); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close releases the connection pool
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
