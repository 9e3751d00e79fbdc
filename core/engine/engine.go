package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/logger"
	apperrors "github.com/mongopad/mongopad/core/shared/errors"
)

// DefaultTimeout bounds a single script evaluation
const DefaultTimeout = 10 * time.Second

// Engine evaluates user-authored scripts against a live MongoDB handle.
// It is an explicit interpreter for a small fixed grammar, not an eval
// facility: scripts are parsed into a chain of member accesses and calls
// with literal arguments, then dispatched to the driver. The handle is
// still live, so scripts can mutate real data within whatever the
// connection's credentials permit.
type Engine struct {
	client  *mongo.Client
	dbName  string
	timeout time.Duration
	log     *logger.Logger
}

// New creates an engine bound to a client and its default logical database
func New(client *mongo.Client, dbName string) *Engine {
	return &Engine{
		client:  client,
		dbName:  dbName,
		timeout: DefaultTimeout,
		log:     logger.New("engine"),
	}
}

// WithTimeout overrides the evaluation deadline
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.timeout = d
	return e
}

// Execute parses and evaluates one script. The returned value is always
// normalized: cursors are drained into ordered lists, plain values pass
// through. Any failure, including a timeout, surfaces as a single
// execution-failed error kind carrying the underlying message.
func (e *Engine) Execute(ctx context.Context, code string, kind domain.ScriptType) (any, error) {
	source := PrepareSource(code)
	e.log.Debugf("Executing %s script: %s", kind, source)

	chain, err := NewParser(source).Parse()
	if err != nil {
		return nil, execError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.eval(ctx, chain)
	if err != nil {
		return nil, execError(timeoutErr(ctx, err, e.timeout))
	}

	value, err := res.Normalize(ctx)
	if err != nil {
		return nil, execError(timeoutErr(ctx, err, e.timeout))
	}
	return value, nil
}

func (e *Engine) eval(ctx context.Context, chain *Chain) (Result, error) {
	var current state = &databaseState{client: e.client, db: e.client.Database(e.dbName)}
	for _, seg := range chain.Segments {
		next, err := current.apply(ctx, seg)
		if err != nil {
			return Result{}, err
		}
		current = next
	}
	return current.finalize(ctx)
}

// PrepareSource trims the script, strips one trailing statement terminator
// and prefixes the db binding so bare shorthand still resolves:
// users.find({}) is treated identically to db.users.find({}).
func PrepareSource(code string) string {
	source := strings.TrimSpace(code)
	source = strings.TrimSuffix(source, ";")
	source = strings.TrimSpace(source)
	if source != "db" && !strings.HasPrefix(source, "db.") {
		source = "db." + source
	}
	return source
}

func execError(err error) error {
	return apperrors.NewAppError(apperrors.ErrCodeExecutionFailed,
		"Execution failed: "+err.Error(), err)
}

func timeoutErr(ctx context.Context, err error, limit time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &timeoutError{limit: limit, cause: err}
	}
	return err
}

type timeoutError struct {
	limit time.Duration
	cause error
}

func (e *timeoutError) Error() string {
	return "script timed out after " + e.limit.String()
}

func (e *timeoutError) Unwrap() error {
	return e.cause
}
