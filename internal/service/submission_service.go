package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var allowedUploadTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// SubmissionService orchestrates the submission log, review and grading.
type SubmissionService interface {
	Submit(ctx context.Context, studentID uint, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.SubmitResponse, error)
	Latest(ctx context.Context, studentHomeworkID uint) (*models.Submission, error)
	Review(ctx context.Context, teacherID, homeworkID uint) ([]dto.SubmissionReviewResponse, error)
	StudentView(ctx context.Context, studentID, homeworkID uint) (dto.StudentSubmissionResponse, error)
	Grade(ctx context.Context, teacherID, studentHomeworkID uint, payload dto.GradeRequest) (dto.GradeResponse, error)
}

// SubmissionDependencies groups the stores used by the submission service.
type SubmissionDependencies struct {
	Homework     repository.HomeworkRepository
	Submissions  repository.SubmissionRepository
	Interactions repository.AIInteractionRepository
	Uploader     FileUploader
	Events       EventPublisher
}

type submissionService struct {
	homework     repository.HomeworkRepository
	submissions  repository.SubmissionRepository
	interactions repository.AIInteractionRepository
	uploader     FileUploader
	events       EventPublisher
	validator    *validator.Validate
	tracer       trace.Tracer
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	events := deps.Events
	if events == nil {
		events = NopPublisher{}
	}

	return &submissionService{
		homework:     deps.Homework,
		submissions:  deps.Submissions,
		interactions: deps.Interactions,
		uploader:     deps.Uploader,
		events:       events,
		validator:    validate,
		tracer:       otel.Tracer("github.com/noah-isme/homework-assistant-api/internal/service/submission"),
		logger:       logger.With().Str("component", "submission_service").Logger(),
		now:          time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, studentID uint, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.SubmitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitResponse{}, err
	}

	record, err := s.homework.GetStudentHomework(ctx, payload.StudentHomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.SubmitResponse{}, err
	}

	if !record.BelongsTo(studentID) {
		return dto.SubmitResponse{}, ErrForbidden
	}

	filePath := strings.TrimSpace(payload.FilePath)
	if file != nil {
		uploaded, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.SubmitResponse{}, err
		}
		filePath = uploaded
	}

	submission := models.Submission{
		StudentHomeworkID: record.ID,
		Content:           payload.Content,
		FilePath:          filePath,
		SubmittedAt:       s.now().UTC(),
	}

	if err := s.submissions.Submit(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.SubmitResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("studenthomework_id", record.ID).
		Msg("homework submitted")

	publishEvent(ctx, s.events, s.logger, EventHomeworkSubmitted, HomeworkSubmittedEvent{
		StudentHomeworkID: record.ID,
		HomeworkID:        record.HomeworkID,
		StudentID:         record.StudentID,
		SubmissionID:      submission.ID,
		SubmittedAt:       submission.SubmittedAt,
	})

	return dto.SubmitResponse{
		SubmissionID:      submission.ID,
		StudentHomeworkID: record.ID,
		Status:            models.StudentHomeworkStatusSubmitted,
		SubmissionDate:    dto.FormatTimestamp(&submission.SubmittedAt),
		FilePath:          submission.FilePath,
	}, nil
}

func (s *submissionService) Latest(ctx context.Context, studentHomeworkID uint) (*models.Submission, error) {
	submission, err := s.submissions.Latest(ctx, studentHomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

func (s *submissionService) Review(ctx context.Context, teacherID, homeworkID uint) ([]dto.SubmissionReviewResponse, error) {
	homework, err := s.homework.GetByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHomeworkNotFound
		}
		return nil, err
	}

	if !homework.OwnedBy(teacherID) {
		return nil, ErrForbidden
	}

	records, err := s.homework.ListStudentHomework(ctx, homeworkID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	latest, err := s.submissions.LatestFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	interactions, err := s.interactions.ListForMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionReviewResponse, 0, len(records))
	for _, record := range records {
		entry := dto.SubmissionReviewResponse{
			StudentHomeworkID: record.ID,
			StudentID:         record.StudentID,
			StudentName:       record.Student.Name,
			Status:            record.Status,
			SubmissionDate:    dto.FormatTimestamp(record.SubmissionDate),
			Grade:             record.Grade,
			TeacherComments:   record.TeacherComments,
			AIInteractions:    dto.NewAIInteractionResponseSlice(interactions[record.ID]),
		}
		if submission, ok := latest[record.ID]; ok {
			content := submission.Content
			filePath := submission.FilePath
			entry.Content = &content
			entry.FilePath = &filePath
		}
		responses = append(responses, entry)
	}

	return responses, nil
}

func (s *submissionService) StudentView(ctx context.Context, studentID, homeworkID uint) (dto.StudentSubmissionResponse, error) {
	record, err := s.homework.GetStudentHomeworkFor(ctx, homeworkID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentSubmissionResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.StudentSubmissionResponse{}, err
	}

	latest, err := s.Latest(ctx, record.ID)
	if err != nil {
		return dto.StudentSubmissionResponse{}, err
	}

	interactions, err := s.interactions.ListFor(ctx, record.ID)
	if err != nil {
		return dto.StudentSubmissionResponse{}, err
	}

	return dto.StudentSubmissionResponse{
		Submission:      dto.NewSubmissionSnapshot(latest),
		Status:          record.Status,
		Grade:           record.Grade,
		TeacherComments: record.TeacherComments,
		AIInteractions:  dto.NewAIInteractionResponseSlice(interactions),
	}, nil
}

func (s *submissionService) Grade(ctx context.Context, teacherID, studentHomeworkID uint, payload dto.GradeRequest) (dto.GradeResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "submissions.grade", trace.WithAttributes(
		attribute.Int64("studenthomework.id", int64(studentHomeworkID)),
	))
	defer span.End()

	response, err := s.grade(spanCtx, teacherID, studentHomeworkID, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return response, err
}

func (s *submissionService) grade(ctx context.Context, teacherID, studentHomeworkID uint, payload dto.GradeRequest) (dto.GradeResponse, error) {
	payload.Grade = strings.TrimSpace(payload.Grade)
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	record, err := s.homework.GetStudentHomework(ctx, studentHomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.GradeResponse{}, err
	}

	if !record.Homework.OwnedBy(teacherID) {
		return dto.GradeResponse{}, ErrForbidden
	}

	if !record.IsSubmitted() {
		return dto.GradeResponse{}, validationError("only submitted homework can be graded")
	}

	if err := s.homework.UpdateGrade(ctx, record.ID, payload.Grade, payload.Comments); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrStudentHomeworkNotFound
		}
		return dto.GradeResponse{}, err
	}

	grade := payload.Grade
	record.Grade = &grade
	record.TeacherComments = payload.Comments

	s.logger.Info().Uint("studenthomework_id", record.ID).Uint("teacher_id", teacherID).Msg("homework graded")

	publishEvent(ctx, s.events, s.logger, EventHomeworkGraded, HomeworkGradedEvent{
		StudentHomeworkID: record.ID,
		HomeworkID:        record.HomeworkID,
		StudentID:         record.StudentID,
		Grade:             grade,
	})

	return dto.NewGradeResponse(record), nil
}

func (s *submissionService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", validationError("file uploads are not enabled")
	}

	if err := validateFileType(file); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range allowedUploadTypes {
		if detected.Is(allowed) {
			return nil
		}
	}

	return validationError(fmt.Sprintf("unsupported file type: %s", detected.String()))
}
