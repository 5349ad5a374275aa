package serverutils

import (
	"errors"

	"ai-docedit-be/pkg/editerr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors escaping a handler into a JSON body
// with a stable shape, mapping the editing taxonomy onto HTTP status codes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		var editErr *editerr.Error
		if errors.As(err, &editErr) {
			return ctx.Status(statusFor(editErr.Kind)).JSON(fiber.Map{
				"kind":    string(editErr.Kind),
				"message": editErr.Message,
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal Server Error",
		})
	}
}

func statusFor(kind editerr.Kind) int {
	switch kind {
	case editerr.KindValidation, editerr.KindInvalidActionParameters, editerr.KindAmbiguousTarget:
		return fiber.StatusBadRequest
	case editerr.KindTargetNotFound:
		return fiber.StatusNotFound
	case editerr.KindTimeout:
		return fiber.StatusGatewayTimeout
	case editerr.KindUpstreamFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
