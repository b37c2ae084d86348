package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"docchat-be/internal/model"
	"docchat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub fans out real-time updates (document status changes,
// notifications) to every websocket client of a tenant. Redis pub/sub
// relays messages across instances so a client connected to one node
// still sees events produced on another.
type Hub struct {
	// TenantID -> connected clients (a tenant dashboard can have
	// several tabs open)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// nil disables cross-instance relay
	rdb *redis.Client

	logger logger.ILogger
}

type clusterPayload struct {
	TargetTenantID string          `json:"target_tenant_id"`
	Message        json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TenantID] = append(h.clients[client.TenantID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"tenant_id": client.TenantID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TenantID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.TenantID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.TenantID]) == 0 {
					delete(h.clients, client.TenantID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"tenant_id": client.TenantID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendDocumentStatus pushes an ingestion status change to the tenant's
// connected clients.
func (h *Hub) SendDocumentStatus(tenantID, documentID uuid.UUID, status, message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "document_status",
		"data": map[string]interface{}{
			"document_id": documentID,
			"status":      status,
			"message":     message,
		},
	})
	h.deliver(tenantID, data)
}

// SendNotification pushes a stored notification to the tenant.
func (h *Hub) SendNotification(tenantID uuid.UUID, notification model.Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	h.deliver(tenantID, data)
}

func (h *Hub) deliver(tenantID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, localFound := h.clients[tenantID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"tenant_id": tenantID})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	// Relay so other instances can reach this tenant's clients too.
	if h.rdb != nil {
		jsonPayload, _ := json.Marshal(clusterPayload{
			TargetTenantID: tenantID.String(),
			Message:        data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, jsonPayload)
	}
}

func (h *Hub) deliverLocal(tenantID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[tenantID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			close(client.Send)
			h.unregister <- client
		}
	}
}

// subscribeToRedis listens for relayed messages from other instances
// and delivers them to locally connected clients.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		uid, err := uuid.Parse(payload.TargetTenantID)
		if err != nil {
			continue
		}

		h.deliverLocal(uid, payload.Message)
	}
}
