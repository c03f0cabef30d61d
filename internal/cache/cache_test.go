package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/semcache/internal/cache/adjudicator"
	"github.com/iishyfishyy/semcache/internal/cache/vectorstore"
)

// stubEmbedder returns canned vectors per text so distances are predictable
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	// Unknown texts land far away from everything registered
	return []float32{0, 0, 1}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Name() string    { return "stub/test" }

// stubAdjudicator returns a canned classification and counts invocations
type stubAdjudicator struct {
	result adjudicator.Classification
	err    error
	calls  int

	// lastCandidates captures what the manager projected for classification
	lastCandidates []adjudicator.QA
}

func (s *stubAdjudicator) Classify(ctx context.Context, query string, candidates []adjudicator.QA) (adjudicator.Classification, error) {
	s.calls++
	s.lastCandidates = candidates
	if s.err != nil {
		return adjudicator.Classification{}, s.err
	}
	return s.result, nil
}

// failingStore errors on every operation
type failingStore struct{}

func (f *failingStore) Insert(ctx context.Context, entry vectorstore.Entry) (string, error) {
	return "", fmt.Errorf("connection refused")
}

func (f *failingStore) SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]vectorstore.Candidate, error) {
	return nil, fmt.Errorf("connection refused")
}

func geoEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"What is the capital of France?":  {1, 0, 0},
		"capital of France":               {0.98, 0.2, 0},
		"What is the capital of Germany?": {0.9, 0.42, 0},
		"Paris":                           {0, 1, 0},
		"Berlin":                          {0.1, 1, 0},
	}}
}

func TestSearchExactMatch(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchExact,
		Questions: []string{"What is the capital of France?"},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	err := manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", nil)
	require.NoError(t, err)

	result, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	assert.Equal(t, MatchExact, result.MatchType)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "What is the capital of France?", result.Items[0].Question)
	assert.Equal(t, "Paris", result.Items[0].Answer)
	assert.Equal(t, "geo", result.Items[0].Metadata["namespace"])
	assert.Equal(t, 1, adj.calls)
}

func TestSearchEmptyCandidatesSkipsAdjudicator(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		// A hallucinating adjudicator must never be consulted on a cold cache
		MatchType: adjudicator.MatchExact,
		Questions: []string{"anything"},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)

	result, err := manager.Search(context.Background(), "unrelated query", "geo")
	require.NoError(t, err)

	assert.Equal(t, MatchNone, result.MatchType)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, adj.calls)
}

func TestSearchNamespaceIsolation(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchExact,
		Questions: []string{"What is the capital of France?"},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	err := manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "A", nil)
	require.NoError(t, err)

	// Identical query text, different namespace: must miss without adjudication
	result, err := manager.Search(ctx, "What is the capital of France?", "B")
	require.NoError(t, err)

	assert.Equal(t, MatchNone, result.MatchType)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, adj.calls)
}

func TestSearchSimilarMatchPreservesSelectionOrder(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchSimilar,
		Questions: []string{
			"What is the capital of Germany?",
			"What is the capital of France?",
		},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", map[string]interface{}{"source": "atlas"}))
	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of Germany?", Answer: "Berlin"}, "geo", nil))

	result, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	assert.Equal(t, MatchSimilar, result.MatchType)
	require.Len(t, result.Items, 2)

	// Order follows the adjudicator's selections, not retrieval distance
	assert.Equal(t, "What is the capital of Germany?", result.Items[0].Question)
	assert.Equal(t, "Berlin", result.Items[0].Answer)
	assert.Equal(t, "What is the capital of France?", result.Items[1].Question)
	assert.Equal(t, "atlas", result.Items[1].Metadata["source"])
}

func TestSearchDropsSelectionsOutsideCandidateSet(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchSimilar,
		Questions: []string{
			"Question invented by the backend",
			"What is the capital of France?",
		},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", nil))

	result, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	// Fabricated selection silently dropped, real one kept
	assert.Equal(t, MatchSimilar, result.MatchType)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "What is the capital of France?", result.Items[0].Question)
}

func TestSearchAllSelectionsDroppedReportsMiss(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchExact,
		Questions: []string{"Question invented by the backend"},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", nil))

	result, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	// Items are empty exactly when the match type is no_match
	assert.Equal(t, MatchNone, result.MatchType)
	assert.Empty(t, result.Items)
}

func TestSearchResultsComeFromCandidates(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{
		MatchType: adjudicator.MatchSimilar,
		Questions: []string{
			"What is the capital of France?",
			"What is the capital of Germany?",
		},
	}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", nil))
	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of Germany?", Answer: "Berlin"}, "geo", nil))

	result, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	// Every returned item's question must appear in what the adjudicator saw
	seen := make(map[string]bool)
	for _, qa := range adj.lastCandidates {
		seen[qa.Question] = true
	}
	for _, item := range result.Items {
		assert.True(t, seen[item.Question], "item %q not in candidate set", item.Question)
	}
}

func TestAdjudicatorSeesOnlyBareText(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	adj := &stubAdjudicator{result: adjudicator.Classification{MatchType: adjudicator.MatchNone}}
	manager := NewManager(embedder, store, adj, 0, 0)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", map[string]interface{}{"secret": "value"}))

	_, err := manager.Search(ctx, "capital of France", "geo")
	require.NoError(t, err)

	require.Len(t, adj.lastCandidates, 1)
	assert.Equal(t, "What is the capital of France?", adj.lastCandidates[0].Question)
	assert.Equal(t, "Paris", adj.lastCandidates[0].Answer)
}

func TestAddDuplicatesCreateDistinctEntries(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	manager := NewManager(embedder, store, &stubAdjudicator{}, 0, 0)
	ctx := context.Background()

	item := Item{Question: "What is the capital of France?", Answer: "Paris"}
	require.NoError(t, manager.Add(ctx, item, "geo", nil))
	require.NoError(t, manager.Add(ctx, item, "geo", nil))

	assert.Equal(t, 2, store.Count())

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "geo", DefaultMaxDistance, DefaultLimit)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestAddNamespaceOverwritesCallerKey(t *testing.T) {
	embedder := geoEmbedder()
	store := vectorstore.NewMemoryStore()
	manager := NewManager(embedder, store, &stubAdjudicator{}, 0, 0)
	ctx := context.Background()

	metadata := map[string]interface{}{"namespace": "spoofed", "region": "eu"}
	err := manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", metadata)
	require.NoError(t, err)

	candidates, err := store.SearchNearest(ctx, []float32{1, 0, 0}, "geo", DefaultMaxDistance, DefaultLimit)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "geo", candidates[0].Metadata["namespace"])
	assert.Equal(t, "eu", candidates[0].Metadata["region"])

	// The caller-supplied map is untouched
	assert.Equal(t, "spoofed", metadata["namespace"])
}

func TestAddValidation(t *testing.T) {
	manager := NewManager(geoEmbedder(), vectorstore.NewMemoryStore(), &stubAdjudicator{}, 0, 0)
	ctx := context.Background()

	var validationErr *ValidationError

	err := manager.Add(ctx, Item{Question: "", Answer: "Paris"}, "geo", nil)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "question", validationErr.Field)

	err = manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "  "}, "geo", nil)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "answer", validationErr.Field)
}

func TestErrorTaxonomy(t *testing.T) {
	ctx := context.Background()

	t.Run("embedding failure", func(t *testing.T) {
		embedder := &stubEmbedder{err: fmt.Errorf("provider unreachable")}
		manager := NewManager(embedder, vectorstore.NewMemoryStore(), &stubAdjudicator{}, 0, 0)

		var embErr *EmbeddingError
		_, err := manager.Search(ctx, "query", "")
		require.ErrorAs(t, err, &embErr)

		err = manager.Add(ctx, Item{Question: "q", Answer: "a"}, "ns", nil)
		require.ErrorAs(t, err, &embErr)
	})

	t.Run("storage failure", func(t *testing.T) {
		manager := NewManager(geoEmbedder(), &failingStore{}, &stubAdjudicator{}, 0, 0)

		var storeErr *StorageError
		_, err := manager.Search(ctx, "query", "")
		require.ErrorAs(t, err, &storeErr)

		err = manager.Add(ctx, Item{Question: "q", Answer: "a"}, "ns", nil)
		require.ErrorAs(t, err, &storeErr)
	})

	t.Run("adjudication failure", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		adj := &stubAdjudicator{err: fmt.Errorf("backend unreachable")}
		manager := NewManager(geoEmbedder(), store, adj, 0, 0)

		require.NoError(t, manager.Add(ctx, Item{Question: "What is the capital of France?", Answer: "Paris"}, "geo", nil))

		var adjErr *AdjudicationError
		_, err := manager.Search(ctx, "capital of France", "geo")
		require.ErrorAs(t, err, &adjErr)
		assert.True(t, errors.Is(err, adj.err) || adjErr.Err != nil)
	})

	t.Run("search validation", func(t *testing.T) {
		manager := NewManager(geoEmbedder(), vectorstore.NewMemoryStore(), &stubAdjudicator{}, 0, 0)

		var validationErr *ValidationError
		_, err := manager.Search(ctx, "   ", "")
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestNewManagerDefaults(t *testing.T) {
	manager := NewManager(geoEmbedder(), vectorstore.NewMemoryStore(), &stubAdjudicator{}, 0, 0)
	assert.Equal(t, DefaultMaxDistance, manager.MaxDistance())
	assert.Equal(t, DefaultLimit, manager.Limit())

	tuned := NewManager(geoEmbedder(), vectorstore.NewMemoryStore(), &stubAdjudicator{}, 0.3, 5)
	assert.Equal(t, 0.3, tuned.MaxDistance())
	assert.Equal(t, 5, tuned.Limit())
}
