package vectorstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a persistent vector store using SQLite
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	provider string
	model    string
	dims     int
	mu       sync.RWMutex
}

// NewSQLiteStore creates a new SQLite vector store
func NewSQLiteStore(dbPath, provider, model string, dims int) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		dbPath:   dbPath,
		provider: provider,
		model:    model,
		dims:     dims,
	}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Store embedding configuration so a reopened cache can refuse
	// vectors produced by a different model
	if err := store.setMetadata("version", "1"); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.setMetadata("provider", provider); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.setMetadata("model", model); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.setMetadata("dimensions", strconv.Itoa(dims)); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// OpenSQLiteStore opens an existing SQLite vector store
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database does not exist: %s", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	provider, err := store.getMetadata("provider")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read provider metadata: %w", err)
	}

	model, err := store.getMetadata("model")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}

	dimsStr, err := store.getMetadata("dimensions")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read dimensions metadata: %w", err)
	}

	dims, err := strconv.Atoi(dimsStr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid dimensions: %w", err)
	}

	store.provider = provider
	store.model = model
	store.dims = dims

	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache_entries (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		question_vector BLOB NOT NULL,
		answer TEXT NOT NULL,
		answer_vector BLOB NOT NULL,
		namespace TEXT NOT NULL,
		metadata_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_namespace ON cache_entries(namespace);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert stores an entry and returns its assigned ID
func (s *SQLiteStore) Insert(ctx context.Context, entry Entry) (string, error) {
	if len(entry.QuestionVector) == 0 {
		return "", fmt.Errorf("empty question vector")
	}
	if s.dims > 0 && len(entry.QuestionVector) != s.dims {
		return "", fmt.Errorf("vector has %d dimensions, store expects %d", len(entry.QuestionVector), s.dims)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	id := uuid.NewString()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (id, question, question_vector, answer, answer_vector, namespace, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, entry.Question, encodeVector(entry.QuestionVector), entry.Answer,
		encodeVector(entry.AnswerVector), namespaceOf(entry.Metadata), string(metadataJSON))
	if err != nil {
		return "", err
	}

	return id, nil
}

// SearchNearest finds entries within maxDistance of the query vector.
// SQLite has no vector index, so this is a linear scan over the
// (namespace-filtered) rows with cosine distance computed in process
func (s *SQLiteStore) SearchNearest(ctx context.Context, query []float32, namespace string, maxDistance float64, limit int) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sqlQuery := `SELECT id, question, question_vector, answer, answer_vector, metadata_json FROM cache_entries`
	args := []interface{}{}
	if namespace != "" {
		sqlQuery += ` WHERE namespace = ?`
		args = append(args, namespace)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []Candidate{}

	for rows.Next() {
		var id, question, answer, metadataJSON string
		var questionBlob, answerBlob []byte

		if err := rows.Scan(&id, &question, &questionBlob, &answer, &answerBlob, &metadataJSON); err != nil {
			continue
		}

		questionVector := decodeVector(questionBlob)
		distance := cosineDistance(query, questionVector)
		if distance >= maxDistance {
			continue
		}

		var metadata map[string]interface{}
		json.Unmarshal([]byte(metadataJSON), &metadata)

		candidates = append(candidates, Candidate{
			Entry: Entry{
				ID:             id,
				Question:       question,
				QuestionVector: questionVector,
				Answer:         answer,
				AnswerVector:   decodeVector(answerBlob),
				Metadata:       metadata,
			},
			Distance: distance,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// Count returns the number of stored entries
func (s *SQLiteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count)
	if err != nil {
		return 0
	}

	return count
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Provider returns the embedding provider this store was created with
func (s *SQLiteStore) Provider() string {
	return s.provider
}

// Model returns the embedding model this store was created with
func (s *SQLiteStore) Model() string {
	return s.model
}

// Dimensions returns the vector dimensionality this store was created with
func (s *SQLiteStore) Dimensions() int {
	return s.dims
}

// getMetadata retrieves a metadata value
func (s *SQLiteStore) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("metadata key not found: %s", key)
	}
	return value, err
}

// setMetadata stores a metadata value
func (s *SQLiteStore) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO metadata (key, value)
		VALUES (?, ?)
	`, key, value)
	return err
}

// encodeVector encodes a float32 slice to binary
func encodeVector(v []float32) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

// decodeVector decodes binary data to a float32 slice
func decodeVector(b []byte) []float32 {
	buf := bytes.NewReader(b)
	v := make([]float32, len(b)/4)
	binary.Read(buf, binary.LittleEndian, &v)
	return v
}
