package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Authorizer decides whether a user may listen to a topic with a filter.
type Authorizer func(ctx context.Context, userID uuid.UUID, sub Subscription) error

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Tags our own cluster messages so the echo from Redis is skipped.
	instanceID string

	authorizer Authorizer

	// Dedicated Logger
	logger logger.ILogger
}

type clusterMessage struct {
	Origin string           `json:"origin"`
	Change events.RowChange `json:"change"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// SetAuthorizer installs the subscription policy. Without one every
// subscription is accepted.
func (h *Hub) SetAuthorizer(a Authorizer) {
	h.authorizer = a
}

func (h *Hub) authorize(ctx context.Context, userID uuid.UUID, sub Subscription) error {
	if h.authorizer == nil {
		return nil
	}
	return h.authorizer(ctx, userID, sub)
}

func (h *Hub) Run(ctx context.Context) {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	h.mu.Unlock()
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			client.close()
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// ClientCount is the number of local connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Publish delivers a change to local subscribers and to the other instances.
func (h *Hub) Publish(ctx context.Context, change events.RowChange) {
	h.deliverLocal(change)

	if h.rdb != nil {
		payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, Change: change})
		if err != nil {
			return
		}
		if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Cluster publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(change events.RowChange) int {
	data, err := json.Marshal(events.Frame{Event: events.FrameChange, Topic: change.Table, Data: &change})
	if err != nil {
		return 0
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			if !client.wants(change) {
				continue
			}
			if client.trySend(data) {
				delivered++
			} else {
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": client.UserID})
		h.removeClient(client)
	}
	return delivered
}

// handleCluster applies a message from Redis, ignoring our own echo.
func (h *Hub) handleCluster(raw []byte) {
	var msg clusterMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if msg.Origin == h.instanceID {
		return
	}
	h.deliverLocal(msg.Change)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleCluster([]byte(msg.Payload))
		}
	}
}
