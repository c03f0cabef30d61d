package vectorstore

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryIn(namespace, question string, vector []float32) Entry {
	return Entry{
		Question:       question,
		QuestionVector: vector,
		Answer:         "answer to " + question,
		AnswerVector:   []float32{0, 0, 1},
		Metadata:       map[string]interface{}{NamespaceKey: namespace},
	}
}

func TestMemoryStoreInsertAssignsIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id1, err := store.Insert(ctx, entryIn("ns", "q1", []float32{1, 0, 0}))
	require.NoError(t, err)
	id2, err := store.Insert(ctx, entryIn("ns", "q1", []float32{1, 0, 0}))
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, store.Count())
}

func TestMemoryStoreRejectsEmptyVectors(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, entryIn("ns", "q", nil))
	assert.Error(t, err)

	_, err = store.SearchNearest(ctx, nil, "", 0.5, 10)
	assert.Error(t, err)
}

func TestMemoryStoreDistanceBound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// distance 0 to the query
	_, err := store.Insert(ctx, entryIn("ns", "same", []float32{1, 0, 0}))
	require.NoError(t, err)
	// orthogonal: distance 1
	_, err = store.Insert(ctx, entryIn("ns", "orthogonal", []float32{0, 1, 0}))
	require.NoError(t, err)

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "ns", 0.5, 10)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "same", candidates[0].Question)
	for _, c := range candidates {
		assert.Less(t, c.Distance, 0.5)
	}
}

func TestMemoryStoreBoundIsStrict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// 45 degrees from the query: distance is exactly 1 - cos(45°)
	_, err := store.Insert(ctx, entryIn("ns", "diag", []float32{1, 1, 0}))
	require.NoError(t, err)

	boundary := 1 - math.Sqrt2/2

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "ns", boundary, 10)
	require.NoError(t, err)
	assert.Empty(t, candidates, "entry at exactly maxDistance must be excluded")

	candidates, err = store.SearchNearest(ctx, []float32{1, 0, 0}, "ns", boundary+0.01, 10)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestMemoryStoreNamespaceFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, entryIn("A", "in A", []float32{1, 0, 0}))
	require.NoError(t, err)
	_, err = store.Insert(ctx, entryIn("B", "in B", []float32{1, 0, 0}))
	require.NoError(t, err)

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "A", 0.5, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "in A", candidates[0].Question)

	// Empty namespace searches everything
	candidates, err = store.SearchNearest(ctx, []float32{1, 0, 0}, "", 0.5, 10)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestMemoryStoreOrderingAndLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, entryIn("ns", "far", []float32{0.7, 0.7, 0}))
	require.NoError(t, err)
	_, err = store.Insert(ctx, entryIn("ns", "near", []float32{1, 0.1, 0}))
	require.NoError(t, err)
	_, err = store.Insert(ctx, entryIn("ns", "nearest", []float32{1, 0, 0}))
	require.NoError(t, err)

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "ns", 0.9, 10)
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	assert.Equal(t, "nearest", candidates[0].Question)
	assert.Equal(t, "near", candidates[1].Question)
	assert.Equal(t, "far", candidates[2].Question)

	limited, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "ns", 0.9, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "nearest", limited[0].Question)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Degenerate inputs fall back to a neutral distance
	assert.Equal(t, float64(1), cosineDistance([]float32{1, 0}, []float32{0, 0}))
	assert.Equal(t, float64(1), cosineDistance([]float32{1}, []float32{1, 0}))
}
