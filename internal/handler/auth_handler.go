package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

// AuthHandler exposes registration, login and logout.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the endpoints reachable without a token.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
}

// RegisterProtected attaches the endpoints that need the caller's token.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/logout", h.logout)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.Register(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "User registered successfully", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	response, err := h.service.Login(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "Logged in successfully", response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(withRequestContext(c), middleware.TokenID(c), middleware.TokenExpiry(c)); err != nil {
		return h.internalError(c, err)
	}

	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return utils.Fail(c, fiber.StatusBadRequest, "Email already registered", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	case errors.As(err, &validationErrors) && hasFieldError(validationErrors, "Role"):
		return utils.Fail(c, fiber.StatusBadRequest, `Invalid role. Must be either "teacher" or "student"`, nil)
	case service.IsValidationError(err):
		return validationFailure(c, err)
	default:
		return h.internalError(c, err)
	}
}

func (h *AuthHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
}

func hasFieldError(errs validator.ValidationErrors, field string) bool {
	for _, fieldErr := range errs {
		if fieldErr.StructField() == field {
			return true
		}
	}
	return false
}
