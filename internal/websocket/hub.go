package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"compost-backend/internal/models"
)

// Event types pushed to connected clients
const (
	EventReadingCreated = "reading_created"
	EventUnitFull       = "unit_full"
)

// Hub maintains active WebSocket connections and delivers per-user events
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound messages addressed to a user
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	logger *zap.Logger

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message represents a message to deliver to a specific user
type Message struct {
	UserID string
	Data   interface{}
}

// Event is the envelope written to the socket
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, client := range h.clients {
				close(client.send)
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.clients[client.UserID]; ok {
				close(previous.send)
			}
			h.clients[client.UserID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("✅ [WEBSOCKET] Client CONNECTED",
				zap.String("user_id", client.UserID),
				zap.Int("connected_clients", total),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
				h.logger.Info("🔴 [WEBSOCKET] Client DISCONNECTED",
					zap.String("user_id", client.UserID),
					zap.Int("connected_clients", len(h.clients)),
				)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[message.UserID]
	if !ok {
		return
	}

	data, err := json.Marshal(message.Data)
	if err != nil {
		h.logger.Error("❌ Failed to marshal message", zap.Error(err))
		return
	}

	select {
	case client.send <- data:
	default:
		// Client buffer full, disconnect
		close(client.send)
		delete(h.clients, client.UserID)
		h.logger.Warn("⚠️ Client buffer full, disconnecting", zap.String("user_id", message.UserID))
	}
}

// BroadcastToUser queues a message for a specific user. It is a no-op once the hub stopped.
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	select {
	case h.broadcast <- &Message{UserID: userID, Data: data}:
	case <-h.done:
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishReading pushes a newly stored reading to the unit owner
func (h *Hub) PublishReading(userID string, reading models.SensorReadingResponse) {
	h.BroadcastToUser(userID, Event{Type: EventReadingCreated, Data: reading})
}

// PublishUnitFull tells the owner that a unit crossed the full threshold
func (h *Hub) PublishUnitFull(userID string, unit models.CompostUnitResponse) {
	h.BroadcastToUser(userID, Event{Type: EventUnitFull, Data: unit})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
