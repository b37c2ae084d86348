package entity

import (
	"time"

	"github.com/google/uuid"
)

// Source points at a retrieved chunk that grounded the answer.
type Source struct {
	DocumentId uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Similarity float64   `json:"similarity"`
}

// ContactInfo is contact data extracted from the retrieved context
// chunks that grounded the answer.
type ContactInfo struct {
	Emails    []string `json:"emails,omitempty"`
	Phones    []string `json:"phones,omitempty"`
	URLs      []string `json:"urls,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// Provider is a named service provider extracted from the retrieved
// context chunks.
type Provider struct {
	Name       string `json:"name"`
	Credential string `json:"credential,omitempty"`
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	Sources       []Source
	ContactInfo   *ContactInfo
	Categories    []string
	Providers     []Provider
	CreatedAt     time.Time
}
