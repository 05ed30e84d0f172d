package controller

import (
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMentorController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Favorites(ctx *fiber.Ctx) error
	AddFavorite(ctx *fiber.Ctx) error
	RemoveFavorite(ctx *fiber.Ctx) error
}

type mentorController struct {
	service service.IMentorService
}

func NewMentorController(service service.IMentorService) IMentorController {
	return &mentorController{service: service}
}

func (c *mentorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/mentors")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get("/favorites", c.Favorites)
	h.Post("/:id/favorite", c.AddFavorite)
	h.Delete("/:id/favorite", c.RemoveFavorite)
}

func (c *mentorController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), serverutils.CurrentUserID(ctx), ctx.Query("category"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Mentors", res))
}

func (c *mentorController) Favorites(ctx *fiber.Ctx) error {
	res, err := c.service.ListFavorites(ctx.UserContext(), serverutils.CurrentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Favorite mentors", res))
}

func (c *mentorController) AddFavorite(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.AddFavorite(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Mentor favorited", res))
}

func (c *mentorController) RemoveFavorite(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.RemoveFavorite(ctx.UserContext(), serverutils.CurrentUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Mentor removed from favorites", res))
}
