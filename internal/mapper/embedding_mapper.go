package mapper

import (
	"docchat-be/internal/entity"
	"docchat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type EmbeddingMapper struct{}

func NewEmbeddingMapper() *EmbeddingMapper {
	return &EmbeddingMapper{}
}

func (m *EmbeddingMapper) ToEntity(e *model.Embedding) *entity.Embedding {
	if e == nil {
		return nil
	}

	return &entity.Embedding{
		Id:         e.Id,
		TenantId:   e.TenantId,
		DocumentId: e.DocumentId,
		Content:    e.Content,
		Values:     e.EmbeddingValue.Slice(),
		ChunkIndex: e.ChunkIndex,
		CharStart:  e.CharStart,
		CharEnd:    e.CharEnd,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *EmbeddingMapper) ToModel(e *entity.Embedding) *model.Embedding {
	if e == nil {
		return nil
	}

	return &model.Embedding{
		Id:             e.Id,
		TenantId:       e.TenantId,
		DocumentId:     e.DocumentId,
		Content:        e.Content,
		EmbeddingValue: pgvector.NewVector(e.Values),
		ChunkIndex:     e.ChunkIndex,
		CharStart:      e.CharStart,
		CharEnd:        e.CharEnd,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *EmbeddingMapper) ToModels(embeddings []entity.Embedding) []model.Embedding {
	result := make([]model.Embedding, 0, len(embeddings))
	for i := range embeddings {
		result = append(result, *m.ToModel(&embeddings[i]))
	}
	return result
}
