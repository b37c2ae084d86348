package retrieve

import (
	"context"
	"fmt"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/contract"
	"docchat-be/pkg/embedding"

	"github.com/google/uuid"
)

// Retriever embeds the user query and runs tenant-scoped similarity
// search over the vector store.
type Retriever struct {
	provider      embedding.Provider
	embeddingRepo contract.EmbeddingRepository
}

func NewRetriever(provider embedding.Provider, embeddingRepo contract.EmbeddingRepository) *Retriever {
	return &Retriever{
		provider:      provider,
		embeddingRepo: embeddingRepo,
	}
}

// Retrieve returns the topK most similar chunks above threshold for the
// tenant, best first. An empty result means nothing relevant matched;
// store failures surface as errors, never as empty results.
func (r *Retriever) Retrieve(ctx context.Context, tenantId uuid.UUID, query string, topK int, threshold float64) ([]*entity.RetrievedChunk, error) {
	queryVector, err := r.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.embeddingRepo.SearchSimilarWithScore(ctx, queryVector, topK, tenantId, threshold)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}
