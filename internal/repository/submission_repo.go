package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/models"
)

// SubmissionRepository is the append-only submission log.
type SubmissionRepository interface {
	Submit(ctx context.Context, submission *models.Submission) error
	Latest(ctx context.Context, studentHomeworkID uint) (models.Submission, error)
	LatestFor(ctx context.Context, studentHomeworkIDs []uint) (map[uint]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Submit appends the submission and marks its StudentHomework as Submitted at
// submission.SubmittedAt. Both writes share one transaction.
func (r *submissionRepository) Submit(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&models.StudentHomework{}).
			Where("id = ?", submission.StudentHomeworkID).
			Updates(map[string]interface{}{
				"status":          models.StudentHomeworkStatusSubmitted,
				"submission_date": submission.SubmittedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(submission).Error
	})
}

func (r *submissionRepository) Latest(ctx context.Context, studentHomeworkID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_homework_id = ?", studentHomeworkID).
		Order("submitted_at DESC").
		Order("id DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) LatestFor(ctx context.Context, studentHomeworkIDs []uint) (map[uint]models.Submission, error) {
	latest := make(map[uint]models.Submission, len(studentHomeworkIDs))
	if len(studentHomeworkIDs) == 0 {
		return latest, nil
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_homework_id IN ?", studentHomeworkIDs).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	for _, submission := range submissions {
		if _, seen := latest[submission.StudentHomeworkID]; !seen {
			latest[submission.StudentHomeworkID] = submission
		}
	}

	return latest, nil
}
