package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
	"github.com/noah-isme/homework-assistant-api/pkg/ai"
)

// Principal identifies the authenticated caller.
type Principal struct {
	UserID uint
	Role   models.Role
}

// AIHelpService answers questions about a StudentHomework and logs the exchange.
type AIHelpService interface {
	Ask(ctx context.Context, principal Principal, payload dto.AIHelpRequest) (dto.AIHelpResponse, error)
}

// AIHelpOptions tunes ownership handling.
type AIHelpOptions struct {
	EnforceOwnership bool
}

type aiHelpService struct {
	homework     repository.HomeworkRepository
	interactions InteractionLog
	assistant    ai.Assistant
	validator    *validator.Validate
	opts         AIHelpOptions
	logger       zerolog.Logger
}

// NewAIHelpService wires the assistant gateway to the interaction log.
func NewAIHelpService(homework repository.HomeworkRepository, interactions InteractionLog, assistant ai.Assistant, validate *validator.Validate, opts AIHelpOptions, logger zerolog.Logger) AIHelpService {
	return &aiHelpService{
		homework:     homework,
		interactions: interactions,
		assistant:    assistant,
		validator:    validate,
		opts:         opts,
		logger:       logger.With().Str("component", "ai_help_service").Logger(),
	}
}

// SessionKey scopes assistant history to a single StudentHomework.
func SessionKey(studentHomeworkID uint) string {
	return fmt.Sprintf("studenthomework:%d", studentHomeworkID)
}

func (s *aiHelpService) Ask(ctx context.Context, principal Principal, payload dto.AIHelpRequest) (dto.AIHelpResponse, error) {
	payload.Query = strings.TrimSpace(payload.Query)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AIHelpResponse{}, err
	}

	record, err := s.homework.GetStudentHomework(ctx, payload.StudentHomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AIHelpResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.AIHelpResponse{}, err
	}

	if !canAccessRecord(principal, record) {
		if s.opts.EnforceOwnership {
			return dto.AIHelpResponse{}, ErrForbidden
		}
		s.logger.Warn().
			Uint("user_id", principal.UserID).
			Str("role", principal.Role.String()).
			Uint("studenthomework_id", record.ID).
			Msg("assistant used on a record the caller does not own")
	}

	if s.assistant == nil {
		return dto.AIHelpResponse{}, fmt.Errorf("%w: assistant not configured", ErrAssistantUnavailable)
	}

	answer, err := s.assistant.Ask(ctx, SessionKey(record.ID), payload.Query)
	if err != nil {
		s.logger.Error().Err(err).Uint("studenthomework_id", record.ID).Msg("assistant request failed")
		return dto.AIHelpResponse{}, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	if strings.TrimSpace(answer.Text) == "" {
		return dto.AIHelpResponse{}, fmt.Errorf("%w: %v", ErrAssistantUnavailable, ai.ErrEmptyResponse)
	}

	interaction, err := s.interactions.Record(ctx, record.ID, payload.Query, answer.Text, answer.Metadata())
	if err != nil {
		return dto.AIHelpResponse{}, err
	}

	return dto.AIHelpResponse{
		Response:      interaction.Response,
		InteractionID: interaction.ID,
	}, nil
}

func canAccessRecord(principal Principal, record models.StudentHomework) bool {
	switch principal.Role {
	case models.RoleStudent:
		return record.BelongsTo(principal.UserID)
	case models.RoleTeacher:
		return record.Homework.OwnedBy(principal.UserID)
	default:
		return false
	}
}
