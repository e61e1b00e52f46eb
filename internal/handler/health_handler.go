package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/config"
	"github.com/noah-isme/homework-assistant-api/internal/database"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that pings the datastore and reports the outcome.
func HealthCheck(cfg config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "healthy",
			Database:    "connected",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		ctx, cancel := context.WithTimeout(withRequestContext(c), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			payload.Status = "unhealthy"
			payload.Database = err.Error()
			return c.Status(fiber.StatusInternalServerError).JSON(utils.APIResponse{
				Success: false,
				Message: "service unhealthy",
				Data:    payload,
			})
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
