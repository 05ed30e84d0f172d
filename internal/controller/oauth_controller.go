// FILE: internal/controller/oauth_controller.go
package controller

import (
	"net/url"

	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service  service.IOAuthService
	deepLink string
	logger   logger.ILogger
}

// NewOAuthController hands the tokens back to the app through deepLink
// (e.g. wizzmo://auth?access_token=...).
func NewOAuthController(service service.IOAuthService, deepLink string, log logger.ILogger) IOAuthController {
	return &oauthController{service: service, deepLink: deepLink, logger: log}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	loginURL, err := c.service.GetLoginURL(provider)
	if err != nil {
		return err
	}

	c.logger.Info("OAUTH", "Login initiated", map[string]interface{}{"provider": provider})
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")
	if code == "" {
		return apperror.Validation("missing code")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, code)
	if err != nil {
		c.logger.Warn("OAUTH", "Callback failed", map[string]interface{}{"provider": provider, "error": err.Error()})
		return err
	}

	q := url.Values{}
	q.Set("access_token", res.AccessToken)
	q.Set("refresh_token", res.RefreshToken)
	q.Set("user_id", res.User.Id.String())

	c.logger.Info("OAUTH", "User authenticated", map[string]interface{}{"provider": provider, "user_id": res.User.Id})
	return ctx.Redirect(c.deepLink+"?"+q.Encode(), fiber.StatusTemporaryRedirect)
}
