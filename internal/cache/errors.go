package cache

import "fmt"

// EmbeddingError indicates the embedding provider failed or rejected input
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StorageError indicates a read or write against the vector store failed
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AdjudicationError indicates the match adjudicator backend was unreachable
// or produced uninterpretable output
type AdjudicationError struct {
	Err error
}

func (e *AdjudicationError) Error() string {
	return fmt.Sprintf("adjudication failed: %v", e.Err)
}

func (e *AdjudicationError) Unwrap() error { return e.Err }

// ValidationError indicates the caller supplied invalid input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
