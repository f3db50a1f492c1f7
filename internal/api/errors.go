package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/storage"
	"github.com/bilgisen/estatehub/internal/submission"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var validationCodes = map[error]string{
	submission.ErrMediaRequired:   "media_required",
	submission.ErrContentRequired: "content_required",
	submission.ErrInvalidField:    "invalid_field",
	submission.ErrMediaTooLarge:   "media_too_large",
}

func respondSubmitError(c *fiber.Ctx, err error, kind submission.Kind) error {
	var verr *submission.ValidationError
	if errors.As(err, &verr) {
		status := fiber.StatusBadRequest
		if errors.Is(err, submission.ErrMediaTooLarge) {
			status = fiber.StatusRequestEntityTooLarge
		}
		code := "invalid_field"
		for sentinel, name := range validationCodes {
			if errors.Is(err, sentinel) {
				code = name
				break
			}
		}
		return c.Status(status).JSON(ErrorBody{
			Error:   code,
			Title:   verr.Title,
			Message: verr.Description,
			Field:   verr.Field,
		})
	}

	switch {
	case errors.Is(err, submission.ErrOwnerRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorBody{
			Error:   "unauthorized",
			Title:   "Unauthorized",
			Message: "Please sign in to continue.",
		})
	case errors.Is(err, submission.ErrSubmissionInProgress):
		return c.Status(fiber.StatusConflict).JSON(ErrorBody{
			Error:   "submission_in_progress",
			Title:   "Please wait",
			Message: "Your previous submission is still in progress.",
		})
	}

	serr := &submission.SubmitError{Kind: kind}
	errors.As(err, &serr)
	logger.WithContext(c.UserContext()).Error().
		Err(err).
		Str("kind", string(kind)).
		Msg("Submission failed")

	if errors.Is(err, storage.ErrSlugConflict) {
		return c.Status(fiber.StatusConflict).JSON(ErrorBody{
			Error:   "slug_conflict",
			Title:   "Error",
			Message: serr.Message(),
			Field:   "slug",
		})
	}
	return c.Status(fiber.StatusBadGateway).JSON(ErrorBody{
		Error:   "submit_failed",
		Title:   "Error",
		Message: serr.Message(),
	})
}
