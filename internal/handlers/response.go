package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func banner(c *fiber.Ctx, status int, level, message string) error {
	return c.Status(status).JSON(models.Banner{Message: message, Level: level})
}

// respondError renders any error as an error banner. Raw provider output is
// attached for malformed responses so it can be shown for diagnosis.
func respondError(c *fiber.Ctx, err error) error {
	body := models.Banner{Message: apperror.PublicMessage(err), Level: LevelError}
	if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindMalformedResponse {
		body.Raw = appErr.Raw
	}
	return c.Status(apperror.HTTPStatus(err)).JSON(body)
}

// ErrorHandler is the fiber fallback for errors returned by handlers and
// middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return banner(c, fe.Code, LevelError, fe.Message)
	}
	return respondError(c, err)
}

// bind parses the JSON body into dst and validates its tags.
func bind(c *fiber.Ctx, dst any) error {
	const op = "handlers.bind"

	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, op, "invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, op, validationMessage(err), err)
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "eqfield":
			msgs = append(msgs, "the new passwords do not match")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
