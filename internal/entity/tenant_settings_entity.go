package entity

import (
	"time"

	"github.com/google/uuid"
)

type TenantSettings struct {
	Id                  uuid.UUID
	TenantId            uuid.UUID
	AssistantName       string
	ContactEmail        string
	RateLimitPerHour    int
	MaxDocuments        int
	MaxFileSizeMB       int
	TopK                int
	SimilarityThreshold float64
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}
