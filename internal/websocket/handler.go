package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(ctx context.Context, hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := NewClient(hub, c, userID)
	client.Hub.register <- client

	go client.writePump()
	client.readPump(ctx) // blocks until the peer goes away
}
