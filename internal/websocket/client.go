package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wizzmo-be/pkg/events"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Subscription is one (table, filter) pair a client listens to.
type Subscription struct {
	Topic  string
	Filter events.Filter
}

func (s Subscription) key() string {
	return s.Topic + "|" + s.Filter.String()
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// UserID associated with this connection
	UserID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	mu   sync.RWMutex
	subs map[string]Subscription

	sendMu sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		subs:   make(map[string]Subscription),
	}
}

func (c *Client) subscribe(sub Subscription) {
	c.mu.Lock()
	c.subs[sub.key()] = sub
	c.mu.Unlock()
}

func (c *Client) unsubscribe(sub Subscription) {
	c.mu.Lock()
	delete(c.subs, sub.key())
	c.mu.Unlock()
}

// wants reports whether any subscription matches the change.
func (c *Client) wants(change events.RowChange) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sub := range c.subs {
		if sub.Topic == change.Table && sub.Filter.MatchesChange(change) {
			return true
		}
	}
	return false
}

// trySend queues data without blocking; false means the buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) reply(frame events.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.trySend(data)
}

// handleFrame applies one client frame; authorization runs before subscribing.
func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var frame events.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.reply(events.Frame{Event: events.FrameError, Message: "malformed frame"})
		return
	}

	filter, err := events.ParseFilter(frame.Filter)
	if err != nil {
		c.reply(events.Frame{Event: events.FrameError, Topic: frame.Topic, Filter: frame.Filter, Message: err.Error()})
		return
	}
	sub := Subscription{Topic: frame.Topic, Filter: filter}

	switch frame.Event {
	case events.FrameSubscribe:
		if err := c.Hub.authorize(ctx, c.UserID, sub); err != nil {
			c.reply(events.Frame{Event: events.FrameError, Topic: frame.Topic, Filter: frame.Filter, Message: err.Error()})
			return
		}
		c.subscribe(sub)
	case events.FrameUnsubscribe:
		c.unsubscribe(sub)
	default:
		c.reply(events.Frame{Event: events.FrameError, Message: "unknown event " + frame.Event})
		return
	}
	c.reply(events.Frame{Event: events.FrameAck, Topic: frame.Topic, Filter: frame.Filter})
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
			}
			break
		}
		c.handleFrame(ctx, message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
// Each message goes out as its own frame so readers can decode them one by one.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
