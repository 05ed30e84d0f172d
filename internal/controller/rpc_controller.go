package controller

import (
	"wizzmo-be/internal/dto"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IRpcController exposes the named procedures the app calls directly.
type IRpcController interface {
	RegisterRoutes(r fiber.Router)
	UpdateMentorRating(ctx *fiber.Ctx) error
	DeleteAccount(ctx *fiber.Ctx) error
	MentorPass(ctx *fiber.Ctx) error
}

type rpcController struct {
	sessions service.ISessionService
	users    service.IUserService
	mentors  service.IMentorService
}

func NewRpcController(sessions service.ISessionService, users service.IUserService, mentors service.IMentorService) IRpcController {
	return &rpcController{sessions: sessions, users: users, mentors: mentors}
}

func (c *rpcController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/rpc")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/update_mentor_rating", c.UpdateMentorRating)
	h.Post("/delete_account", c.DeleteAccount)
	h.Get("/mentor_pass", c.MentorPass)
}

func (c *rpcController) UpdateMentorRating(ctx *fiber.Ctx) error {
	var req dto.RateSessionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessions.Rate(ctx.UserContext(), serverutils.CurrentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Rating saved", res))
}

func (c *rpcController) DeleteAccount(ctx *fiber.Ctx) error {
	if err := c.users.DeleteAccount(ctx.UserContext(), serverutils.CurrentUserID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Account deleted", nil))
}

// MentorPass defaults to the caller when mentor_id is omitted.
func (c *rpcController) MentorPass(ctx *fiber.Ctx) error {
	mentorId, err := queryID(ctx, "mentor_id")
	if err != nil {
		return err
	}
	id := serverutils.CurrentUserID(ctx)
	if mentorId != nil {
		id = *mentorId
	}

	res, err := c.mentors.Pass(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Mentor pass", res))
}
