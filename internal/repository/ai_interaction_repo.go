package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/models"
)

// AIInteractionRepository persists assistant questions and answers.
type AIInteractionRepository interface {
	Create(ctx context.Context, interaction *models.AIInteraction) error
	ListFor(ctx context.Context, studentHomeworkID uint) ([]models.AIInteraction, error)
	ListForMany(ctx context.Context, studentHomeworkIDs []uint) (map[uint][]models.AIInteraction, error)
}

type aiInteractionRepository struct {
	db *gorm.DB
}

// NewAIInteractionRepository constructs an interaction repository backed by GORM.
func NewAIInteractionRepository(db *gorm.DB) AIInteractionRepository {
	return &aiInteractionRepository{db: db}
}

func (r *aiInteractionRepository) Create(ctx context.Context, interaction *models.AIInteraction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *aiInteractionRepository) ListFor(ctx context.Context, studentHomeworkID uint) ([]models.AIInteraction, error) {
	var interactions []models.AIInteraction
	if err := r.db.WithContext(ctx).
		Where("student_homework_id = ?", studentHomeworkID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&interactions).Error; err != nil {
		return nil, err
	}

	return interactions, nil
}

func (r *aiInteractionRepository) ListForMany(ctx context.Context, studentHomeworkIDs []uint) (map[uint][]models.AIInteraction, error) {
	grouped := make(map[uint][]models.AIInteraction, len(studentHomeworkIDs))
	if len(studentHomeworkIDs) == 0 {
		return grouped, nil
	}

	var interactions []models.AIInteraction
	if err := r.db.WithContext(ctx).
		Where("student_homework_id IN ?", studentHomeworkIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&interactions).Error; err != nil {
		return nil, err
	}

	for _, interaction := range interactions {
		grouped[interaction.StudentHomeworkID] = append(grouped[interaction.StudentHomeworkID], interaction)
	}

	return grouped, nil
}
