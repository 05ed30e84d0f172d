// FILE: internal/controller/user_controller.go
package controller

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetProfile(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
	SetMode(ctx *fiber.Ctx) error
	UploadAvatar(ctx *fiber.Ctx) error
	GetUser(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/users")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/me", c.GetProfile)
	h.Put("/me", c.UpdateProfile)
	h.Put("/me/mode", c.SetMode)
	h.Post("/me/avatar", c.UploadAvatar)
	h.Get("/:id", c.GetUser)
}

func (c *userController) GetProfile(ctx *fiber.Ctx) error {
	res, err := c.service.GetProfile(ctx.UserContext(), serverutils.CurrentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}

func (c *userController) SetMode(ctx *fiber.Ctx) error {
	var req dto.SetModeRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetMode(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Mode updated", res))
}

func (c *userController) UploadAvatar(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("avatar")
	if err != nil {
		return apperror.Validation("avatar file is required")
	}

	res, err := c.service.UploadAvatar(ctx.UserContext(), serverutils.CurrentUserID(ctx), file)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Avatar uploaded successfully", res))
}

func (c *userController) GetUser(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.GetUser(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User", res))
}
