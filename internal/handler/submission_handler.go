package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

// SubmissionHandler wires submit, review, grading and the student's own view.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to an authenticated router.
func (h *SubmissionHandler) Register(router fiber.Router) {
	teacherOnly := middleware.RequireRole(models.RoleTeacher)

	router.Post("/submit", middleware.RequireRole(models.RoleStudent), h.submit)
	router.Get("/submissions/:homeworkId", teacherOnly, h.review)
	router.Patch("/submissions/:studentHomeworkId/grade", teacherOnly, h.grade)
	router.Get("/student-submission/:homeworkId", h.studentView)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	var file *multipart.FileHeader
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		header, err := c.FormFile("file")
		switch {
		case err == nil:
			file = header
		case !errors.Is(err, fasthttp.ErrMissingFile):
			return utils.Fail(c, fiber.StatusBadRequest, "invalid file upload", nil)
		}
	}

	response, err := h.service.Submit(withRequestContext(c), middleware.UserID(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "Homework submitted successfully", response)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	homeworkID, err := parseUintParam(c, "homeworkId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	review, err := h.service.Review(withRequestContext(c), middleware.UserID(c), homeworkID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", review)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	studentHomeworkID, err := parseUintParam(c, "studentHomeworkId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	graded, err := h.service.Grade(withRequestContext(c), middleware.UserID(c), studentHomeworkID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", graded)
}

func (h *SubmissionHandler) studentView(c *fiber.Ctx) error {
	homeworkID, err := parseUintParam(c, "homeworkId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	view, err := h.service.StudentView(withRequestContext(c), middleware.UserID(c), homeworkID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", view)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsValidationError(err):
		return validationFailure(c, err)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "Unauthorized", nil)
	case errors.Is(err, service.ErrHomeworkNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "homework not found", nil)
	case errors.Is(err, service.ErrStudentHomeworkNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "assignment not found", nil)
	default:
		return h.internalError(c, err)
	}
}

func (h *SubmissionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
}
