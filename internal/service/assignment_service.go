package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
)

// AssignmentService exposes homework authoring and listing use cases.
type AssignmentService interface {
	Create(ctx context.Context, teacherID uint, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]dto.HomeworkResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error)
	GetStudentHomework(ctx context.Context, id uint) (models.StudentHomework, error)
	AssignMissing(ctx context.Context, homeworkID uint) (int, error)
}

type assignmentService struct {
	repo      repository.HomeworkRepository
	validator *validator.Validate
	events    EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.HomeworkRepository, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) AssignmentService {
	if events == nil {
		events = NopPublisher{}
	}

	return &assignmentService{
		repo:      repo,
		validator: validate,
		events:    events,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	if teacherID == 0 {
		return dto.HomeworkResponse{}, ErrForbidden
	}

	dueDate, err := dto.ParseDate(strings.TrimSpace(payload.DueDate))
	if err != nil {
		return dto.HomeworkResponse{}, validationError("duedate must use YYYY-MM-DD")
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return dto.HomeworkResponse{}, validationError("title is required")
	}

	homework := models.Homework{
		TeacherID:   teacherID,
		Title:       title,
		Description: payload.Description,
		DueDate:     dueDate,
	}

	records, err := s.repo.CreateWithAssignments(ctx, &homework)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	assigned := len(records)
	s.logger.Info().
		Uint("homework_id", homework.ID).
		Uint("teacher_id", teacherID).
		Int("assigned", assigned).
		Msg("homework created")

	publishEvent(ctx, s.events, s.logger, EventHomeworkAssigned, HomeworkAssignedEvent{
		HomeworkID:   homework.ID,
		TeacherID:    teacherID,
		Title:        homework.Title,
		DueDate:      dto.FormatDate(homework.DueDate),
		StudentCount: assigned,
	})

	response := dto.NewHomeworkResponse(homework)
	response.AssignedCount = &assigned
	return response, nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID uint) ([]dto.HomeworkResponse, error) {
	homework, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return dto.NewHomeworkResponseSlice(homework), nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error) {
	records, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentAssignmentResponseSlice(records, s.now()), nil
}

func (s *assignmentService) GetStudentHomework(ctx context.Context, id uint) (models.StudentHomework, error) {
	record, err := s.repo.GetStudentHomework(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StudentHomework{}, ErrStudentHomeworkNotFound
		}
		return models.StudentHomework{}, err
	}

	return record, nil
}

// AssignMissing creates Pending records for students registered after the homework was created.
func (s *assignmentService) AssignMissing(ctx context.Context, homeworkID uint) (int, error) {
	if _, err := s.repo.GetByID(ctx, homeworkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrHomeworkNotFound
		}
		return 0, err
	}

	created, err := s.repo.AssignMissing(ctx, homeworkID)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Uint("homework_id", homeworkID).Int("assigned", created).Msg("missing assignments backfilled")
	return created, nil
}
