package implementation

import (
	"context"
	"fmt"

	"docchat-be/internal/entity"
	"docchat-be/internal/mapper"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmbeddingMapper
}

func NewEmbeddingRepository(db *gorm.DB) contract.EmbeddingRepository {
	return &EmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmbeddingMapper(),
	}
}

func (r *EmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	models := make([]*model.Embedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *EmbeddingRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.Embedding{}).Error
}

func (r *EmbeddingRepositoryImpl) DeleteByDocumentIdUnscoped(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.Embedding{}).Error
}

func (r *EmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Embedding, error) {
	var models []*model.Embedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Embedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *EmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Embedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore runs tenant-scoped cosine similarity search.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) as the similarity score.
// Only chunks of completed documents are searchable. Any database
// failure is wrapped in ErrStoreUnavailable so callers can distinguish
// "nothing matched" from "the store is down".
func (r *EmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, tenantId uuid.UUID, threshold float64) ([]*entity.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 4
	}

	type result struct {
		Id         uuid.UUID
		DocumentId uuid.UUID
		Filename   string
		Content    string
		ChunkIndex int
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("embeddings").
		Select("embeddings.id, embeddings.document_id, documents.filename, embeddings.content, embeddings.chunk_index, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN documents ON documents.id = embeddings.document_id").
		Where("embeddings.tenant_id = ?", tenantId).
		Where("documents.tenant_id = ?", tenantId).
		Where("documents.status = ?", model.DocumentStatusCompleted).
		Where("embeddings.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC, embeddings.chunk_index ASC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrStoreUnavailable, err)
	}

	chunks := make([]*entity.RetrievedChunk, len(results))
	for i, res := range results {
		chunks[i] = &entity.RetrievedChunk{
			Id:         res.Id,
			DocumentId: res.DocumentId,
			Filename:   res.Filename,
			Content:    res.Content,
			ChunkIndex: res.ChunkIndex,
			Similarity: res.Similarity,
		}
	}
	return chunks, nil
}
