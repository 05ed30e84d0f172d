package controller

import (
	"context"

	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Inbox(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Accept(ctx *fiber.Ctx) error
	Decline(ctx *fiber.Ctx) error
	Resolve(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.Inbox)
	h.Get("/:id", c.Show)
	h.Post("/:id/accept", c.Accept)
	h.Post("/:id/decline", c.Decline)
	h.Post("/:id/resolve", c.Resolve)
}

func (c *sessionController) Inbox(ctx *fiber.Ctx) error {
	res, err := c.service.Inbox(ctx.UserContext(), serverutils.CurrentUserID(ctx), ctx.Query("mode"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Get(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session", res))
}

func (c *sessionController) Accept(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Session accepted", c.service.Accept)
}

func (c *sessionController) Decline(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Session declined", c.service.Decline)
}

func (c *sessionController) Resolve(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Session resolved", c.service.Resolve)
}

func (c *sessionController) transition(ctx *fiber.Ctx, message string, fn func(context.Context, uuid.UUID, uuid.UUID) (*dto.SessionResponse, error)) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := fn(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
