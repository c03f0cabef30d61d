package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory vector store using cosine distance
type MemoryStore struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory vector store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Insert stores an entry and returns its assigned ID
func (m *MemoryStore) Insert(ctx context.Context, entry Entry) (string, error) {
	if len(entry.QuestionVector) == 0 {
		return "", fmt.Errorf("empty question vector")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = uuid.NewString()
	m.entries[entry.ID] = entry

	return entry.ID, nil
}

// SearchNearest finds entries within maxDistance of the query vector
func (m *MemoryStore) SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := []Candidate{}

	for _, entry := range m.entries {
		if namespace != "" && namespaceOf(entry.Metadata) != namespace {
			continue
		}

		distance := cosineDistance(query, entry.QuestionVector)
		if distance >= maxDistance {
			continue
		}

		candidates = append(candidates, Candidate{Entry: entry, Distance: distance})
	}

	// Sort by distance (ascending, closest first)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// Count returns the number of stored entries
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// cosineDistance calculates 1 - cosine similarity between two vectors.
// Returns a value between 0 and 2, where 0 means identical direction
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dotProduct, normA, normB float32

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	similarity := float64(dotProduct) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
	return 1 - similarity
}
