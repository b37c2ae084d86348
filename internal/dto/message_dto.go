package dto

import "github.com/google/uuid"

// PublishIngestDocumentMessage is the ingestion queue payload. The
// worker re-reads everything else from the document row, so retries
// always see the latest content.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	TenantId   uuid.UUID `json:"tenant_id"`
}
