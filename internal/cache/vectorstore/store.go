package vectorstore

import "context"

// NamespaceKey is the reserved metadata key used to partition entries.
// The cache manager guarantees it is present on every entry it inserts.
const NamespaceKey = "namespace"

// Entry is a stored question/answer pair with its embeddings
type Entry struct {
	ID             string
	Question       string
	QuestionVector []float32
	Answer         string
	AnswerVector   []float32
	Metadata       map[string]interface{}
}

// Candidate is an entry returned by a nearest-neighbor search, with its
// cosine distance to the query vector (smaller is more similar)
type Candidate struct {
	Entry
	Distance float64
}

// Store persists cache entries and retrieves them by vector similarity
type Store interface {
	// Insert persists the entry and returns its store-assigned ID
	Insert(ctx context.Context, entry Entry) (string, error)

	// SearchNearest returns up to limit entries whose cosine distance to the
	// query vector is strictly less than maxDistance, ordered ascending by
	// distance. When namespace is non-empty, only entries whose metadata
	// namespace equals it are considered. An empty result is not an error.
	SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]Candidate, error)
}

// namespaceOf extracts the namespace from entry metadata
func namespaceOf(metadata map[string]interface{}) string {
	ns, _ := metadata[NamespaceKey].(string)
	return ns
}
