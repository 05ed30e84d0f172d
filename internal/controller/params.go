package controller

import (
	"wizzmo-be/internal/pkg/apperror"
	"wizzmo-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parseBody decodes and validates a JSON body.
func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("malformed request body")
	}
	return serverutils.ValidateRequest(out)
}

func paramID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + name)
	}
	return id, nil
}

func queryID(ctx *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid " + name)
	}
	return &id, nil
}

func created[T any](message string, data T) serverutils.Response[T] {
	res := serverutils.SuccessResponse(message, data)
	res.Code = fiber.StatusCreated
	return res
}
