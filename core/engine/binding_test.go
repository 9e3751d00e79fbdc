package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Argument type checks run before any driver call, so a zero collection
// state is enough to exercise them. An invalid filter must be rejected,
// never coerced into the match-everything empty document.
func TestCollectionState_RejectsNonDocumentArguments(t *testing.T) {
	coll := &collectionState{}

	tests := []struct {
		name string
		seg  Segment
		want string
	}{
		{
			"find with numeric filter",
			Segment{Name: "find", Call: true, Args: []any{int64(5)}},
			"argument 1 of find must be a document",
		},
		{
			"find with string projection",
			Segment{Name: "find", Call: true, Args: []any{bson.D{}, "name"}},
			"argument 2 of find must be a document",
		},
		{
			"findOne with boolean filter",
			Segment{Name: "findOne", Call: true, Args: []any{true}},
			"argument 1 of findOne must be a document",
		},
		{
			"countDocuments with array filter",
			Segment{Name: "countDocuments", Call: true, Args: []any{bson.A{}}},
			"argument 1 of countDocuments must be a document",
		},
		{
			"deleteMany with string filter",
			Segment{Name: "deleteMany", Call: true, Args: []any{"everything"}},
			"argument 1 of deleteMany must be a document",
		},
		{
			"updateOne with bare object id filter",
			Segment{Name: "updateOne", Call: true, Args: []any{
				bson.D{{Key: "$oid", Value: "507f1f77bcf86cd799439011"}},
				bson.D{{Key: "$set", Value: bson.D{{Key: "n", Value: int64(1)}}}},
			}},
			"argument 1 of updateOne must be a document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.apply(context.Background(), tt.seg)
			require.Error(t, err)
			assert.EqualError(t, err, tt.want)
		})
	}
}

// Absent and null filters still default to the empty document
func TestOptDocArgDefaultsWhenAbsentOrNull(t *testing.T) {
	absent, err := optDocArg(Segment{Name: "find", Call: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, absent)

	null, err := optDocArg(Segment{Name: "find", Call: true, Args: []any{nil}}, 0)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, null)
}
