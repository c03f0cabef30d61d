package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateConfig holds connection settings for a Weaviate-backed store
type WeaviateConfig struct {
	Host   string `json:"host"`
	Scheme string `json:"scheme"`
	APIKey string `json:"api_key"`

	// Class is the Weaviate class holding cache entries
	Class string `json:"class"`
}

// WeaviateStore is a vector store backed by a Weaviate cluster. The question
// vector is stored as the object vector; the answer vector rides along as a
// JSON property since Weaviate keeps one vector per object
type WeaviateStore struct {
	client *weaviate.Client
	class  string
}

// NewWeaviateStore connects to Weaviate and ensures the cache class exists
func NewWeaviateStore(cfg WeaviateConfig) (*WeaviateStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate host is required")
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Class == "" {
		cfg.Class = "SemanticCacheEntry"
	}

	var authConfig auth.Config
	if cfg.APIKey != "" {
		authConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:       cfg.Host,
		Scheme:     cfg.Scheme,
		AuthConfig: authConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	store := &WeaviateStore{
		client: client,
		class:  cfg.Class,
	}

	if err := store.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the cache entry class with vectorizer disabled, since
// vectors are supplied by the embedding provider
func (w *WeaviateStore) initSchema(ctx context.Context) error {
	class := &models.Class{
		Class:      w.class,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "question", DataType: []string{"text"}},
			{Name: "answer", DataType: []string{"text"}},
			{Name: "namespace", DataType: []string{"text"}},
			{Name: "metadataJson", DataType: []string{"text"}},
			{Name: "answerVectorJson", DataType: []string{"text"}},
		},
	}

	err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create class %s: %w", w.class, err)
	}

	return nil
}

// Insert stores an entry and returns its assigned ID
func (w *WeaviateStore) Insert(ctx context.Context, entry Entry) (string, error) {
	if len(entry.QuestionVector) == 0 {
		return "", fmt.Errorf("empty question vector")
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	answerVectorJSON, err := json.Marshal(entry.AnswerVector)
	if err != nil {
		return "", fmt.Errorf("failed to encode answer vector: %w", err)
	}

	id := uuid.NewString()

	properties := map[string]interface{}{
		"question":         entry.Question,
		"answer":           entry.Answer,
		"namespace":        namespaceOf(entry.Metadata),
		"metadataJson":     string(metadataJSON),
		"answerVectorJson": string(answerVectorJSON),
	}

	_, err = w.client.Data().Creator().
		WithClassName(w.class).
		WithID(id).
		WithProperties(properties).
		WithVector(entry.QuestionVector).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}

	return id, nil
}

// SearchNearest finds entries within maxDistance of the query vector
func (w *WeaviateStore) SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	nearVector := (&graphql.NearVectorArgumentBuilder{}).
		WithVector(query).
		WithDistance(float32(maxDistance))

	fields := []graphql.Field{
		{Name: "question"},
		{Name: "answer"},
		{Name: "metadataJson"},
		{Name: "answerVectorJson"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "distance"},
		}},
	}

	builder := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithNearVector(nearVector).
		WithFields(fields...).
		WithLimit(limit)

	if namespace != "" {
		builder = builder.WithWhere(filters.Where().
			WithPath([]string{"namespace"}).
			WithOperator(filters.Equal).
			WithValueText(namespace))
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search failed: %s", result.Errors[0].Message)
	}

	candidates := []Candidate{}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return candidates, nil
	}
	items, ok := data[w.class].([]interface{})
	if !ok {
		return candidates, nil
	}

	for _, item := range items {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		candidate, ok := w.parseCandidate(itemMap)
		if !ok {
			continue
		}

		// Weaviate's distance bound is inclusive; the contract here is strict
		if candidate.Distance >= maxDistance {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// parseCandidate converts a GraphQL result item to a Candidate
func (w *WeaviateStore) parseCandidate(item map[string]interface{}) (Candidate, bool) {
	candidate := Candidate{}

	if val, ok := item["question"].(string); ok {
		candidate.Question = val
	}
	if val, ok := item["answer"].(string); ok {
		candidate.Answer = val
	}
	if val, ok := item["metadataJson"].(string); ok && val != "" {
		json.Unmarshal([]byte(val), &candidate.Metadata)
	}
	if val, ok := item["answerVectorJson"].(string); ok && val != "" {
		json.Unmarshal([]byte(val), &candidate.AnswerVector)
	}

	additional, ok := item["_additional"].(map[string]interface{})
	if !ok {
		return candidate, false
	}
	if val, ok := additional["id"].(string); ok {
		candidate.ID = val
	}
	if val, ok := additional["distance"].(float64); ok {
		candidate.Distance = val
	} else {
		return candidate, false
	}

	return candidate, true
}
