package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

func principalFromContext(c *fiber.Ctx) service.Principal {
	role, _ := models.ParseRole(middleware.UserRole(c))
	return service.Principal{
		UserID: middleware.UserID(c),
		Role:   role,
	}
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// validationFailure renders validator errors field by field and business-rule errors as a message.
func validationFailure(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
		}
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", details)
	}

	message := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	return utils.Fail(c, fiber.StatusBadRequest, message, nil)
}

func invalidBody(c *fiber.Ctx) error {
	return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
}
