package controller

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SendMedia(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
	Edit(ctx *fiber.Ctx) error
	Unsend(ctx *fiber.Ctx) error
	ToggleReaction(ctx *fiber.Ctx) error
}

type messageController struct {
	service service.IMessageService
}

func NewMessageController(service service.IMessageService) IMessageController {
	return &messageController{service: service}
}

// RegisterRoutes mounts the chat routes. Session-scoped routes live under the
// session controller's prefix but carry their own auth.
func (c *messageController) RegisterRoutes(r fiber.Router) {
	auth := serverutils.JwtMiddleware

	r.Get("/sessions/:id/messages", auth, c.List)
	r.Post("/sessions/:id/messages", auth, c.Send)
	r.Post("/sessions/:id/messages/media", auth, c.SendMedia)
	r.Post("/sessions/:id/read", auth, c.MarkRead)

	h := r.Group("/messages")
	h.Use(auth)
	h.Patch("/:id", c.Edit)
	h.Delete("/:id", c.Unsend)
	h.Post("/:id/reactions", c.ToggleReaction)
}

func (c *messageController) List(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), serverutils.CurrentUserID(ctx), sessionId, int64(ctx.QueryInt("after_seq", 0)))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages", res))
}

func (c *messageController) Send(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Send(ctx.UserContext(), serverutils.CurrentUserID(ctx), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created("Message sent", res))
}

// SendMedia takes multipart form data: kind, file, and optionally duration,
// caption and reply_to_id.
func (c *messageController) SendMedia(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.SendMediaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("malformed form data")
	}
	if raw := ctx.FormValue("reply_to_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("invalid reply_to_id")
		}
		req.ReplyToId = &id
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("file is required")
	}

	res, err := c.service.SendMedia(ctx.UserContext(), serverutils.CurrentUserID(ctx), sessionId, &req, file)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created("Message sent", res))
}

func (c *messageController) MarkRead(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.MarkRead(ctx.UserContext(), serverutils.CurrentUserID(ctx), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages marked as read", res))
}

func (c *messageController) Edit(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.EditMessageRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Edit(ctx.UserContext(), serverutils.CurrentUserID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message edited", res))
}

func (c *messageController) Unsend(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.service.Unsend(ctx.UserContext(), serverutils.CurrentUserID(ctx), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Message unsent", nil))
}

func (c *messageController) ToggleReaction(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.ReactionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.ToggleReaction(ctx.UserContext(), serverutils.CurrentUserID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Reaction toggled", res))
}
