package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-docedit-be/internal/pkg/logger"
	"ai-docedit-be/pkg/events"
	pktNats "ai-docedit-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub tracks live editing sessions on this instance and fans user-level
// notifications out across instances through Redis. Request/response traffic
// stays on the session's own bridge; the hub only carries side-channel
// notifications (revision recorded, system notices).
type Hub struct {
	// sessionID -> client
	sessions map[string]*Client

	// userID -> that user's clients (multi-tab/multi-device)
	byUser map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	// instanceID lets the subscriber skip messages this instance published
	// itself, which were already delivered locally.
	instanceID string

	// publisher emits session lifecycle events for external consumers; nil
	// when NATS is unavailable.
	publisher *pktNats.Publisher

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, publisher *pktNats.Publisher, log logger.ILogger) *Hub {
	return &Hub{
		sessions:   make(map[string]*Client),
		byUser:     make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.New().String(),
		publisher:  publisher,
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
			h.sessions[client.Session.ID] = client
			userID := client.Session.UserID
			h.byUser[userID] = append(h.byUser[userID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Session registered", map[string]interface{}{
				"session_id": client.Session.ID, "user_id": userID,
			})
			h.publishLifecycle(events.TypeSessionOpened, client)

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.sessions, client.Session.ID)
			userID := client.Session.UserID
			if clients, ok := h.byUser[userID]; ok {
				for i, c := range clients {
					if c == client {
						h.byUser[userID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.byUser[userID]) == 0 {
					delete(h.byUser, userID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Session unregistered", map[string]interface{}{
				"session_id": client.Session.ID, "user_id": userID,
			})
			h.publishLifecycle(events.TypeSessionClosed, client)
		}
	}
}

func (h *Hub) publishLifecycle(eventType string, client *Client) {
	if h.publisher == nil {
		return
	}
	evt := events.NewSessionLifecycle(eventType, client.Session.ID, client.Session.UserID)
	if err := h.publisher.Publish(context.Background(), evt); err != nil {
		h.logger.Warn("Hub", "Lifecycle event publish failed", map[string]interface{}{
			"session_id": client.Session.ID, "error": err.Error(),
		})
	}
}

// NotifyUser pushes a message to every session the user has open, here and
// on other instances.
func (h *Hub) NotifyUser(userID string, message []byte) {
	h.mu.RLock()
	clients := h.byUser[userID]
	for _, client := range clients {
		if !client.Bridge.Enqueue(message) {
			h.logger.Warn("Hub", "Bridge dropped notification", map[string]interface{}{
				"session_id": client.Session.ID, "user_id": userID,
			})
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"origin":         h.instanceID,
			"target_user_id": userID,
			"message":        json.RawMessage(message),
		})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

// subscribeToRedis delivers notifications published by other instances to
// local sessions of the targeted user.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Origin       string          `json:"origin"`
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}

		h.mu.RLock()
		clients := h.byUser[payload.TargetUserID]
		for _, client := range clients {
			client.Bridge.Enqueue(payload.Message)
		}
		h.mu.RUnlock()
	}
}
