package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
)

// InteractionLog records assistant questions and answers per StudentHomework.
type InteractionLog interface {
	Record(ctx context.Context, studentHomeworkID uint, query, response string, metadata map[string]interface{}) (models.AIInteraction, error)
	ListFor(ctx context.Context, studentHomeworkID uint) ([]models.AIInteraction, error)
}

type interactionLog struct {
	repo   repository.AIInteractionRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewInteractionLog constructs the AI interaction log.
func NewInteractionLog(repo repository.AIInteractionRepository, logger zerolog.Logger) InteractionLog {
	return &interactionLog{
		repo:   repo,
		logger: logger.With().Str("component", "interaction_log").Logger(),
		now:    time.Now,
	}
}

func (l *interactionLog) Record(ctx context.Context, studentHomeworkID uint, query, response string, metadata map[string]interface{}) (models.AIInteraction, error) {
	if strings.TrimSpace(response) == "" {
		return models.AIInteraction{}, validationError("response must not be empty")
	}

	interaction := models.AIInteraction{
		StudentHomeworkID: studentHomeworkID,
		Query:             query,
		Response:          response,
		CreatedAt:         l.now().UTC(),
	}
	if len(metadata) > 0 {
		interaction.Metadata = datatypes.JSONMap(metadata)
	}

	if err := l.repo.Create(ctx, &interaction); err != nil {
		return models.AIInteraction{}, err
	}

	l.logger.Debug().Uint("interaction_id", interaction.ID).Uint("studenthomework_id", studentHomeworkID).Msg("interaction recorded")

	return interaction, nil
}

func (l *interactionLog) ListFor(ctx context.Context, studentHomeworkID uint) ([]models.AIInteraction, error) {
	return l.repo.ListFor(ctx, studentHomeworkID)
}
