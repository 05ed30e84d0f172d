package controller

import (
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICategoryController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type categoryController struct {
	service service.ICategoryService
}

func NewCategoryController(service service.ICategoryService) ICategoryController {
	return &categoryController{service: service}
}

func (c *categoryController) RegisterRoutes(r fiber.Router) {
	r.Get("/categories", c.List)
}

func (c *categoryController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Categories", res))
}
