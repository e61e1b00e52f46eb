package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, ok := models.ParseRole(UserRole(c))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// ByRole dispatches a route to the handler for the caller's role.
func ByRole(teacher, student fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch models.Role(strings.ToLower(UserRole(c))) {
		case models.RoleTeacher:
			if teacher != nil {
				return teacher(c)
			}
		case models.RoleStudent:
			if student != nil {
				return student(c)
			}
		default:
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
