package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/estatehub/internal/logger"
)

const queryKey = "queryParams"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateQuery parses query parameters into a fresh T per request,
// validates it and stores it for Query.
func ValidateQuery[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := new(T)
		if err := c.QueryParser(params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_field",
				"title":   "Invalid query parameters",
				"message": err.Error(),
			})
		}

		if err := validate.Struct(params); err != nil {
			var verrs validator.ValidationErrors
			fields := make(map[string]string)
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					fields[fe.Field()] = fe.Tag()
				}
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_field",
				"title":   "Invalid query parameters",
				"message": err.Error(),
				"fields":  fields,
			})
		}

		c.Locals(queryKey, params)
		return c.Next()
	}
}

// Query returns the parameters stored by ValidateQuery[T].
func Query[T any](c *fiber.Ctx) *T {
	if params, ok := c.Locals(queryKey).(*T); ok {
		return params
	}
	return new(T)
}

// ErrorHandler renders errors that reached fiber as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong. Please try again."

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	event := logger.WithContext(c.UserContext()).Warn()
	if code >= fiber.StatusInternalServerError {
		event = logger.WithContext(c.UserContext()).Error()
	}
	event.
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(fiber.Map{
		"error":   errorCode(code),
		"title":   "Error",
		"message": message,
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusRequestEntityTooLarge:
		return "media_too_large"
	case fiber.StatusBadRequest:
		return "bad_request"
	default:
		if status >= fiber.StatusInternalServerError {
			return "internal"
		}
		return "error"
	}
}
