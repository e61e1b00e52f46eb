package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

// AssignmentHandler wires homework authoring and listing routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to an authenticated router.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/assignments", middleware.ByRole(h.listForTeacher, h.listForStudent))
	router.Post("/assignments", middleware.RequireRole(models.RoleTeacher), h.create)
}

func (h *AssignmentHandler) listForTeacher(c *fiber.Ctx) error {
	homework, err := h.service.ListForTeacher(withRequestContext(c), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.OK(c, homework, "assignments retrieved", fiber.Map{"count": len(homework)})
}

func (h *AssignmentHandler) listForStudent(c *fiber.Ctx) error {
	assignments, err := h.service.ListForStudent(withRequestContext(c), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.OK(c, assignments, "assignments retrieved", fiber.Map{"count": len(assignments)})
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.HomeworkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	homework, err := h.service.Create(withRequestContext(c), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Assignment created successfully", homework)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsValidationError(err):
		return validationFailure(c, err)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "Unauthorized", nil)
	default:
		return h.internalError(c, err)
	}
}

func (h *AssignmentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
}
