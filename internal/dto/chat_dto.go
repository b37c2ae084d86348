package dto

import (
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/entity"
)

type ChatQueryRequest struct {
	// SessionKey groups turns into a conversation. Empty means "start a
	// new session"; the generated key comes back in the response.
	SessionKey string `json:"session_key" validate:"omitempty,max=255"`
	Message    string `json:"message" validate:"required,max=4000"`
}

type ChatQueryResponse struct {
	SessionKey  string              `json:"session_key"`
	Answer      string              `json:"answer"`
	Sources     []entity.Source     `json:"sources,omitempty"`
	ContactInfo *entity.ContactInfo `json:"contact_info,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	Providers   []entity.Provider   `json:"providers,omitempty"`
	RateLimit   *RateLimitInfo      `json:"rate_limit,omitempty"`
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// StreamEvent is one SSE frame. Chunk events carry a delta; the
// complete event repeats the full answer with the structured fields.
type StreamEvent struct {
	Type        string              `json:"type"` // "chunk" | "complete" | "error"
	SessionKey  string              `json:"session_key,omitempty"`
	Content     string              `json:"content,omitempty"`
	Answer      string              `json:"answer,omitempty"`
	Sources     []entity.Source     `json:"sources,omitempty"`
	ContactInfo *entity.ContactInfo `json:"contact_info,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	Providers   []entity.Provider   `json:"providers,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type SessionResponse struct {
	Id         uuid.UUID  `json:"id"`
	SessionKey string     `json:"session_key"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ChatHistoryMessage struct {
	Id          uuid.UUID           `json:"id"`
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Sources     []entity.Source     `json:"sources,omitempty"`
	ContactInfo *entity.ContactInfo `json:"contact_info,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	Providers   []entity.Provider   `json:"providers,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionKey string               `json:"session_key"`
	Messages   []ChatHistoryMessage `json:"messages"`
}
