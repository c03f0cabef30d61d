package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore is a persistent vector store backed by Postgres with the
// pgvector extension. Distance computation and ordering happen in the
// database using the cosine distance operator
type PostgresStore struct {
	db    *sqlx.DB
	table string
	dims  int
}

// NewPostgresStore connects to Postgres and ensures the cache schema exists.
// dims fixes the vector column dimensionality and must match the embedding
// provider in use
func NewPostgresStore(dsn string, dims int) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &PostgresStore{
		db:    db,
		table: "semantic_cache",
		dims:  dims,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the pgvector extension and the cache table
func (s *PostgresStore) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		question TEXT NOT NULL,
		question_vector vector(%d) NOT NULL,
		answer TEXT NOT NULL,
		answer_vector vector(%d) NOT NULL,
		namespace TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb
	);

	CREATE INDEX IF NOT EXISTS idx_%s_namespace ON %s(namespace);
	`, s.table, s.dims, s.dims, s.table, s.table)

	_, err := s.db.Exec(schema)
	return err
}

// Insert stores an entry and returns its assigned ID
func (s *PostgresStore) Insert(ctx context.Context, entry Entry) (string, error) {
	if len(entry.QuestionVector) == 0 {
		return "", fmt.Errorf("empty question vector")
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	id := uuid.NewString()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, question, question_vector, answer, answer_vector, namespace, metadata)
		VALUES ($1, $2, $3::vector, $4, $5::vector, $6, $7)
	`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		id,
		entry.Question,
		formatVectorForPg(entry.QuestionVector),
		entry.Answer,
		formatVectorForPg(entry.AnswerVector),
		namespaceOf(entry.Metadata),
		string(metadataJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}

	return id, nil
}

// SearchNearest finds entries within maxDistance of the query vector
func (s *PostgresStore) SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	sqlQuery := fmt.Sprintf(`
		SELECT
			id, question, question_vector::text, answer, answer_vector::text, metadata,
			(question_vector <=> $1::vector)::float AS distance
		FROM %s
		WHERE
			($2 = '' OR namespace = $2)
			AND (question_vector <=> $1::vector)::float < $3
		ORDER BY distance
		LIMIT $4
	`, s.table)

	rows, err := s.db.QueryContext(ctx, sqlQuery,
		formatVectorForPg(query), namespace, maxDistance, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest entries: %w", err)
	}
	defer rows.Close()

	candidates := []Candidate{}

	for rows.Next() {
		var id, question, questionVec, answer, answerVec string
		var metadataJSON []byte
		var distance float64

		if err := rows.Scan(&id, &question, &questionVec, &answer, &answerVec, &metadataJSON, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		questionVector, err := parseVectorFromPg(questionVec)
		if err != nil {
			return nil, err
		}
		answerVector, err := parseVectorFromPg(answerVec)
		if err != nil {
			return nil, err
		}

		var metadata map[string]interface{}
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}

		candidates = append(candidates, Candidate{
			Entry: Entry{
				ID:             id,
				Question:       question,
				QuestionVector: questionVector,
				Answer:         answer,
				AnswerVector:   answerVector,
				Metadata:       metadata,
			},
			Distance: distance,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// Count returns the number of stored entries
func (s *PostgresStore) Count() int {
	var count int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// formatVectorForPg formats a vector as a pgvector literal: [1,2,3,...]
func formatVectorForPg(vector []float32) string {
	elements := make([]string, len(vector))
	for i, v := range vector {
		elements[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(elements, ",") + "]"
}

// parseVectorFromPg parses a vector from pgvector's text format
func parseVectorFromPg(vectorStr string) ([]float32, error) {
	vectorStr = strings.Trim(vectorStr, "[]")
	if vectorStr == "" {
		return []float32{}, nil
	}
	elements := strings.Split(vectorStr, ",")

	vector := make([]float32, len(elements))
	for i, elem := range elements {
		var val float64
		if _, err := fmt.Sscanf(strings.TrimSpace(elem), "%f", &val); err != nil {
			return nil, fmt.Errorf("failed to parse vector element %d: %w", i, err)
		}
		vector[i] = float32(val)
	}

	return vector, nil
}
