package contract

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	// UpdateStatusIf transitions status only when the row currently has
	// fromStatus. Returns true when the transition was applied, which is
	// how concurrent ingestion attempts lose the race cleanly.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status, errorMessage string, chunkCount int) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
