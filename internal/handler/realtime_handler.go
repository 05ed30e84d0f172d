package handler

import (
	"context"

	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/pkg/serverutils"
	internalWS "wizzmo-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type RealtimeHandler struct {
	ctx    context.Context
	hub    *internalWS.Hub
	logger logger.ILogger
}

// NewRealtimeHandler serves websocket sessions for as long as ctx lives.
func NewRealtimeHandler(ctx context.Context, hub *internalWS.Hub, log logger.ILogger) *RealtimeHandler {
	return &RealtimeHandler{ctx: ctx, hub: hub, logger: log}
}

// ServeWs authenticates the handshake (token via ?token= for browsers or the
// Authorization header for other clients) and then hands the connection to the hub.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := serverutils.ParseToken(tokenStr)
	if err != nil {
		h.logger.Warn("RealtimeHandler", "Invalid token in websocket handshake", map[string]interface{}{"ip": c.IP()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("RealtimeHandler", "Starting websocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.ctx, h.hub, conn, userID)
		h.logger.Info("RealtimeHandler", "Websocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

// Stats reports the local connection count.
func (h *RealtimeHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Realtime stats", fiber.Map{"clients": h.hub.ClientCount()}))
}

func (h *RealtimeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/realtime", h.ServeWs)
	router.Get("/realtime/stats", serverutils.JwtMiddleware, h.Stats)
}
