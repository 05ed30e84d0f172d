package controller

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQuestionController interface {
	RegisterRoutes(r fiber.Router)
	Feed(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Vote(ctx *fiber.Ctx) error
	ListComments(ctx *fiber.Ctx) error
	AddComment(ctx *fiber.Ctx) error
}

type questionController struct {
	service service.IQuestionService
}

func NewQuestionController(service service.IQuestionService) IQuestionController {
	return &questionController{service: service}
}

func (c *questionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questions")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/feed", c.Feed)
	h.Post("", c.Ask)
	h.Get("/:id", c.Show)
	h.Post("/:id/vote", c.Vote)
	h.Get("/:id/comments", c.ListComments)
	h.Post("/:id/comments", c.AddComment)
}

func (c *questionController) Feed(ctx *fiber.Ctx) error {
	category, err := queryID(ctx, "category")
	if err != nil {
		return err
	}

	res, err := c.service.Feed(ctx.UserContext(), serverutils.CurrentUserID(ctx), category,
		ctx.QueryInt("limit", 0), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Question feed", res))
}

func (c *questionController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskQuestionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created("Question posted", res))
}

func (c *questionController) Show(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Question", res))
}

func (c *questionController) Vote(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Vote(ctx.UserContext(), serverutils.CurrentUserID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Vote recorded", res))
}

func (c *questionController) ListComments(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.ListComments(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Comments", res))
}

func (c *questionController) AddComment(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.AddComment(ctx.UserContext(), serverutils.CurrentUserID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created("Comment added", res))
}
