package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/homework-assistant-api/internal/config"
	"github.com/noah-isme/homework-assistant-api/internal/handler"
	"github.com/noah-isme/homework-assistant-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	AIHelpHandler     *handler.AIHelpHandler
	HealthHandler     fiber.Handler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	// Unauthenticated routes must be registered before the token guard below.
	if deps.HealthHandler != nil {
		app.Get("/health", deps.HealthHandler)
	}
	app.Get("/metrics", observability.MetricsHandler())
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterPublic(app)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	protected := app.Group("", jwtMiddleware)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProtected(protected)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(protected)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(protected)
	}
	if deps.AIHelpHandler != nil {
		deps.AIHelpHandler.Register(protected)
	}
}
