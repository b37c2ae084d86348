package contract

import (
	"context"
	"errors"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrStoreUnavailable wraps infrastructure failures from the vector
// store. Callers must surface it as a service error, never as an empty
// result set.
var ErrStoreUnavailable = errors.New("vector store unavailable")

type EmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	DeleteByDocumentIdUnscoped(ctx context.Context, documentId uuid.UUID) error // Hard delete
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Embedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks with cosine similarity above
	// threshold, scoped to the tenant and to completed documents only.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, tenantId uuid.UUID, threshold float64) ([]*entity.RetrievedChunk, error)
}
