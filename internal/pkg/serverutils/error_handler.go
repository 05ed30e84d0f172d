package serverutils

import (
	"errors"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:   fiber.StatusBadRequest,
	apperror.KindUnauthorized: fiber.StatusUnauthorized,
	apperror.KindForbidden:    fiber.StatusForbidden,
	apperror.KindNotFound:     fiber.StatusNotFound,
	apperror.KindConflict:     fiber.StatusConflict,
	apperror.KindInternal:     fiber.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status and user-facing message.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	kind := apperror.KindOf(err)
	status := kindStatus[kind]
	if kind == apperror.KindInternal {
		return status, "Internal server error"
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return status, appErr.Error()
	}
	return status, err.Error()
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, message := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
