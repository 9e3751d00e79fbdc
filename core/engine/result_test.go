package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeIterator implements the manual pull protocol over a fixed document set
type fakeIterator struct {
	docs   []bson.M
	pos    int
	err    error
	closed bool
}

func (f *fakeIterator) Next(context.Context) bool {
	if f.err != nil || f.pos >= len(f.docs) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeIterator) Decode(val any) error {
	*val.(*bson.M) = f.docs[f.pos-1]
	return nil
}

func (f *fakeIterator) Err() error { return f.err }

func (f *fakeIterator) Close(context.Context) error {
	f.closed = true
	return nil
}

func TestValueResult_NormalizeIsIdentity(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"plain document", map[string]any{"name": "ada"}},
		{"list of documents", []any{map[string]any{"n": int64(1)}, map[string]any{"n": int64(2)}}},
		{"count", int64(42)},
		{"boolean", true},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, err := ValueResult(tt.value).Normalize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.value, once)

			// normalizing an already-normalized value yields the same value
			twice, err := ValueResult(once).Normalize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestIteratorResult_DrainsInOrder(t *testing.T) {
	it := &fakeIterator{docs: []bson.M{
		{"n": int64(1)},
		{"n": int64(2)},
		{"n": int64(3)},
	}}

	out, err := IteratorResult(it).Normalize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"n": int64(1)},
		map[string]any{"n": int64(2)},
		map[string]any{"n": int64(3)},
	}, out)
	assert.True(t, it.closed)
}

func TestIteratorResult_EmptyYieldsEmptyList(t *testing.T) {
	out, err := IteratorResult(&fakeIterator{}).Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{}, out)
}

func TestIteratorResult_SurfacesIterationError(t *testing.T) {
	it := &fakeIterator{err: errors.New("connection reset")}
	_, err := IteratorResult(it).Normalize(context.Background())
	assert.ErrorContains(t, err, "connection reset")
	assert.True(t, it.closed)
}
