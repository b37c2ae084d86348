package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Domain event codes published to the bus.
const (
	TypeDocumentCompleted = "DOCUMENT_COMPLETED"
	TypeDocumentFailed    = "DOCUMENT_FAILED"
	TypeChatTurn          = "CHAT_TURN"
)

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocumentCompleted reports a document that finished ingestion.
func NewDocumentCompleted(tenantID, documentID, filename string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentCompleted,
		Data: map[string]interface{}{
			"tenant_id":   tenantID,
			"document_id": documentID,
			"filename":    filename,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentFailed reports a document whose ingestion failed terminally.
func NewDocumentFailed(tenantID, documentID, filename, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"tenant_id":   tenantID,
			"document_id": documentID,
			"filename":    filename,
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatTurn reports a completed chat exchange for analytics consumers.
func NewChatTurn(tenantID, sessionKey string, sourceCount int) Event {
	return BaseEvent{
		Type: TypeChatTurn,
		Data: map[string]interface{}{
			"tenant_id":    tenantID,
			"session_key":  sessionKey,
			"source_count": sourceCount,
		},
		OccurredAt: time.Now(),
	}
}
