package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

const assistantFailureMessage = "Failed to get AI assistance. Please try again."

// AIHelpHandler exposes the assistant endpoint.
type AIHelpHandler struct {
	service   service.AIHelpService
	rateLimit int
	logger    zerolog.Logger
}

// NewAIHelpHandler constructs the handler. rateLimit is the number of questions per user per minute.
func NewAIHelpHandler(service service.AIHelpService, rateLimit int, logger zerolog.Logger) *AIHelpHandler {
	return &AIHelpHandler{
		service:   service,
		rateLimit: rateLimit,
		logger:    logger.With().Str("component", "ai_help_handler").Logger(),
	}
}

// Register attaches the assistant endpoint to an authenticated router.
func (h *AIHelpHandler) Register(router fiber.Router) {
	router.Post("/ai-help", middleware.RateLimit("ai-help", h.rateLimit, time.Minute), h.ask)
}

func (h *AIHelpHandler) ask(c *fiber.Ctx) error {
	var payload dto.AIHelpRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	response, err := h.service.Ask(withRequestContext(c), principalFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assistant responded", response)
}

func (h *AIHelpHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsValidationError(err):
		return validationFailure(c, err)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "Unauthorized", nil)
	case errors.Is(err, service.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "assignment not found", nil)
	case errors.Is(err, service.ErrAssistantUnavailable):
		requestLogger(h.logger, c).Warn().Err(err).Msg("assistant unavailable")
		return utils.Fail(c, fiber.StatusInternalServerError, assistantFailureMessage, nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, assistantFailureMessage, nil)
	}
}
