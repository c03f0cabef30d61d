package cache

import (
	"context"
	"strings"

	"github.com/iishyfishyy/semcache/internal/cache/adjudicator"
	"github.com/iishyfishyy/semcache/internal/cache/embeddings"
	"github.com/iishyfishyy/semcache/internal/cache/vectorstore"
)

const (
	// DefaultMaxDistance is the cosine distance bound for candidate retrieval
	DefaultMaxDistance = 0.5

	// DefaultLimit caps the candidate set handed to the adjudicator
	DefaultLimit = 20
)

// Manager orchestrates the embedding provider, the vector store, and the
// match adjudicator behind the Add/Search operations
type Manager struct {
	embedder    embeddings.Embedder
	store       vectorstore.Store
	adjudicator adjudicator.Adjudicator
	maxDistance float64
	limit       int
}

// NewManager creates a cache manager. maxDistance and limit tune retrieval
// recall against adjudicator cost; zero values select the defaults
func NewManager(embedder embeddings.Embedder, store vectorstore.Store, adj adjudicator.Adjudicator, maxDistance float64, limit int) *Manager {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Manager{
		embedder:    embedder,
		store:       store,
		adjudicator: adj,
		maxDistance: maxDistance,
		limit:       limit,
	}
}

// Add embeds the question and answer and persists them as a cache entry
// under the given namespace. The reserved "namespace" metadata key is always
// overwritten with the namespace argument, even if the caller supplied one.
// Duplicate questions are permitted; each Add creates a distinct entry
func (m *Manager) Add(ctx context.Context, item Item, namespace string, metadata map[string]interface{}) error {
	if strings.TrimSpace(item.Question) == "" {
		return &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if strings.TrimSpace(item.Answer) == "" {
		return &ValidationError{Field: "answer", Reason: "must not be empty"}
	}

	vectors, err := m.embedder.EmbedBatch(ctx, []string{item.Question, item.Answer})
	if err != nil {
		return &EmbeddingError{Err: err}
	}

	merged := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		merged[k] = v
	}
	merged[vectorstore.NamespaceKey] = namespace

	entry := vectorstore.Entry{
		Question:       item.Question,
		QuestionVector: vectors[0],
		Answer:         item.Answer,
		AnswerVector:   vectors[1],
		Metadata:       merged,
	}

	if _, err := m.store.Insert(ctx, entry); err != nil {
		return &StorageError{Err: err}
	}

	return nil
}

// Search looks up the query in the cache. When namespace is non-empty the
// lookup is restricted to that partition. A cold cache or an unconvinced
// adjudicator is the normal no_match result, not an error
func (m *Manager) Search(ctx context.Context, query, namespace string) (MatchResult, error) {
	if strings.TrimSpace(query) == "" {
		return MatchResult{}, &ValidationError{Field: "query", Reason: "must not be empty"}
	}

	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return MatchResult{}, &EmbeddingError{Err: err}
	}

	candidates, err := m.store.SearchNearest(ctx, vector, namespace, m.maxDistance, m.limit)
	if err != nil {
		return MatchResult{}, &StorageError{Err: err}
	}

	// Nothing retrieved: skip adjudication entirely. Classifying an empty
	// candidate set wastes a model call and can hallucinate a match
	if len(candidates) == 0 {
		return MatchResult{MatchType: MatchNone, Items: []ResolvedItem{}}, nil
	}

	qas := make([]adjudicator.QA, len(candidates))
	for i, c := range candidates {
		qas[i] = adjudicator.QA{Question: c.Question, Answer: c.Answer}
	}

	verdict, err := m.adjudicator.Classify(ctx, query, qas)
	if err != nil {
		return MatchResult{}, &AdjudicationError{Err: err}
	}

	return m.reconcile(verdict, candidates), nil
}

// reconcile resolves the adjudicator's selected question texts back to the
// retrieved candidates. The adjudicator works on bare text, so this is the
// single place that re-attaches stored metadata and guarantees no result is
// fabricated: selections that match no candidate are silently dropped
func (m *Manager) reconcile(verdict adjudicator.Classification, candidates []vectorstore.Candidate) MatchResult {
	items := []ResolvedItem{}

	if verdict.MatchType != MatchNone {
		for _, question := range verdict.Questions {
			for _, c := range candidates {
				if c.Question == question {
					items = append(items, ResolvedItem{
						Question: c.Question,
						Answer:   c.Answer,
						Metadata: c.Metadata,
					})
					break
				}
			}
		}
	}

	matchType := verdict.MatchType
	if len(items) == 0 {
		// Every selection was dropped (or none were made): report a clean miss
		matchType = MatchNone
	}

	return MatchResult{MatchType: matchType, Items: items}
}

// MaxDistance returns the configured retrieval distance bound
func (m *Manager) MaxDistance() float64 {
	return m.maxDistance
}

// Limit returns the configured retrieval candidate limit
func (m *Manager) Limit() int {
	return m.limit
}
