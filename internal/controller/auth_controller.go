// FILE: internal/controller/auth_controller.go
package controller

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Post("/refresh", c.Refresh)
	h.Post("/logout", c.Logout)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.UserContext(), &req, ctx.IP(), ctx.Get("User-Agent"))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), &req, ctx.IP(), ctx.Get("User-Agent"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) Refresh(ctx *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Refresh(ctx.UserContext(), &req, ctx.IP(), ctx.Get("User-Agent"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Token refreshed", res))
}

// Logout always succeeds; a missing or unknown refresh token is ignored.
func (c *authController) Logout(ctx *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := ctx.BodyParser(&req); err == nil && req.RefreshToken != "" {
		if err := c.service.Logout(ctx.UserContext(), req.RefreshToken); err != nil {
			return err
		}
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out successfully", nil))
}
