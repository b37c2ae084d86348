package embedding

import "context"

// Dimension is the fixed embedding size every provider must produce.
// The embeddings table column is declared as vector(768) to match.
const Dimension = 768

// Task types hint the provider how the text will be used.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// ServiceError marks a provider failure. These are treated as
// transient: the ingestion pipeline retries them with backoff.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Provider + " embedding service error: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Provider generates text embeddings.
//
// EmbedBatch preserves input order and length. A batch either succeeds
// as a whole or fails as a whole; partial results are never returned,
// which keeps the caller's retry logic simple.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
