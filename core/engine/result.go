package engine

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// DocumentIterator is the manual pull protocol for result sources that
// cannot be drained in one call. *mongo.Cursor satisfies it.
type DocumentIterator interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

type resultKind int

const (
	kindValue resultKind = iota
	kindCursor
	kindIterator
)

// Result is the closed set of shapes an evaluated chain can produce: a
// driver cursor to be drained, a manual iterator to be pulled until
// exhausted, or a plain scalar value. Normalize has one arm per variant.
type Result struct {
	kind   resultKind
	cursor *mongo.Cursor
	iter   DocumentIterator
	value  any
}

// CursorResult wraps a driver cursor that will be fully materialized
func CursorResult(c *mongo.Cursor) Result {
	return Result{kind: kindCursor, cursor: c}
}

// IteratorResult wraps a pull-protocol source that will be drained manually
func IteratorResult(it DocumentIterator) Result {
	return Result{kind: kindIterator, iter: it}
}

// ValueResult wraps a plain value: documents, counts, booleans, command
// replies. The value is returned as-is, so normalization is idempotent for
// already-plain data.
func ValueResult(v any) Result {
	return Result{kind: kindValue, value: v}
}

// Normalize materializes the result into a JSON-serializable value. Cursors
// and iterators always yield an ordered list, never the handle itself.
func (r Result) Normalize(ctx context.Context) (any, error) {
	switch r.kind {
	case kindCursor:
		defer r.cursor.Close(ctx)
		var docs []bson.M
		if err := r.cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("failed to drain cursor: %w", err)
		}
		out := make([]any, 0, len(docs))
		for _, doc := range docs {
			out = append(out, plainMap(doc))
		}
		return out, nil

	case kindIterator:
		defer r.iter.Close(ctx)
		out := make([]any, 0)
		for r.iter.Next(ctx) {
			var doc bson.M
			if err := r.iter.Decode(&doc); err != nil {
				return nil, fmt.Errorf("failed to decode document: %w", err)
			}
			out = append(out, plainMap(doc))
		}
		if err := r.iter.Err(); err != nil {
			return nil, fmt.Errorf("iteration failed: %w", err)
		}
		return out, nil

	default:
		return r.value, nil
	}
}
