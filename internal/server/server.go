package server

import (
	"log"

	"wizzmo-be/internal/bootstrap"
	"wizzmo-be/internal/config"
	"wizzmo-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// room for a media upload plus multipart overhead
		BodyLimit: int(cfg.Storage.MaxMediaSize) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: cfg.App.CorsAllowedOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Static("/uploads", cfg.Storage.UploadDir)

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{"clients": c.WebSocketHub.ClientCount()}))
	})

	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.OAuthController.RegisterRoutes(api)
	c.UserController.RegisterRoutes(api)
	c.CategoryController.RegisterRoutes(api)

	c.QuestionController.RegisterRoutes(api)
	c.MentorController.RegisterRoutes(api)
	c.SessionController.RegisterRoutes(api)
	c.MessageController.RegisterRoutes(api)
	c.RpcController.RegisterRoutes(api)

	c.RealtimeHandler.RegisterRoutes(api)
}
