package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/homework-assistant-api/internal/models"
)

const fanOutBatchSize = 200

// HomeworkRepository persists homework definitions and their per-student records.
type HomeworkRepository interface {
	CreateWithAssignments(ctx context.Context, homework *models.Homework) ([]models.StudentHomework, error)
	GetByID(ctx context.Context, id uint) (models.Homework, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Homework, error)
	ListStudentHomework(ctx context.Context, homeworkID uint) ([]models.StudentHomework, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.StudentHomework, error)
	GetStudentHomework(ctx context.Context, id uint) (models.StudentHomework, error)
	GetStudentHomeworkFor(ctx context.Context, homeworkID, studentID uint) (models.StudentHomework, error)
	UpdateGrade(ctx context.Context, id uint, grade, comments string) error
	AssignMissing(ctx context.Context, homeworkID uint) (int, error)
}

type homeworkRepository struct {
	db *gorm.DB
}

// NewHomeworkRepository instantiates a GORM-backed repository.
func NewHomeworkRepository(db *gorm.DB) HomeworkRepository {
	return &homeworkRepository{db: db}
}

// CreateWithAssignments stores the homework and one Pending record per current student in a
// single transaction. Either everything is written or nothing is.
func (r *homeworkRepository) CreateWithAssignments(ctx context.Context, homework *models.Homework) ([]models.StudentHomework, error) {
	var records []models.StudentHomework

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(homework).Error; err != nil {
			return err
		}

		studentIDs, err := studentIDsWithout(tx, 0)
		if err != nil {
			return err
		}

		records = pendingRecords(homework.ID, studentIDs)
		if len(records) == 0 {
			return nil
		}

		return tx.Omit(clause.Associations).CreateInBatches(&records, fanOutBatchSize).Error
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *homeworkRepository) GetByID(ctx context.Context, id uint) (models.Homework, error) {
	var homework models.Homework
	if err := r.db.WithContext(ctx).First(&homework, id).Error; err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Homework, error) {
	var homework []models.Homework
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("due_date ASC").
		Order("id ASC").
		Find(&homework).Error; err != nil {
		return nil, err
	}

	return homework, nil
}

func (r *homeworkRepository) ListStudentHomework(ctx context.Context, homeworkID uint) ([]models.StudentHomework, error) {
	var records []models.StudentHomework
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("homework_id = ?", homeworkID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *homeworkRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.StudentHomework, error) {
	var records []models.StudentHomework
	if err := r.db.WithContext(ctx).
		Preload("Homework").
		Joins("JOIN homeworks ON homeworks.id = student_homeworks.homework_id").
		Where("student_homeworks.student_id = ?", studentID).
		Order("homeworks.due_date ASC").
		Order("student_homeworks.id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *homeworkRepository) GetStudentHomework(ctx context.Context, id uint) (models.StudentHomework, error) {
	var record models.StudentHomework
	if err := r.db.WithContext(ctx).Preload("Homework").First(&record, id).Error; err != nil {
		return models.StudentHomework{}, err
	}

	return record, nil
}

func (r *homeworkRepository) GetStudentHomeworkFor(ctx context.Context, homeworkID, studentID uint) (models.StudentHomework, error) {
	var record models.StudentHomework
	if err := r.db.WithContext(ctx).
		Preload("Homework").
		Where("homework_id = ?", homeworkID).
		Where("student_id = ?", studentID).
		First(&record).Error; err != nil {
		return models.StudentHomework{}, err
	}

	return record, nil
}

func (r *homeworkRepository) UpdateGrade(ctx context.Context, id uint, grade, comments string) error {
	result := r.db.WithContext(ctx).Model(&models.StudentHomework{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":            grade,
			"teacher_comments": comments,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignMissing creates Pending records for students registered after the homework was
// created. It only runs when an operator asks for it.
func (r *homeworkRepository) AssignMissing(ctx context.Context, homeworkID uint) (int, error) {
	created := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var homework models.Homework
		if err := tx.First(&homework, homeworkID).Error; err != nil {
			return err
		}

		studentIDs, err := studentIDsWithout(tx, homeworkID)
		if err != nil {
			return err
		}

		records := pendingRecords(homeworkID, studentIDs)
		if len(records) == 0 {
			return nil
		}

		if err := tx.Omit(clause.Associations).CreateInBatches(&records, fanOutBatchSize).Error; err != nil {
			return err
		}
		created = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// studentIDsWithout lists students, skipping those already assigned to homeworkID when it is set.
func studentIDsWithout(tx *gorm.DB, homeworkID uint) ([]uint, error) {
	query := tx.Model(&models.User{}).Where("role = ?", models.RoleStudent)
	if homeworkID != 0 {
		assigned := tx.Model(&models.StudentHomework{}).Select("student_id").Where("homework_id = ?", homeworkID)
		query = query.Where("id NOT IN (?)", assigned)
	}

	var ids []uint
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func pendingRecords(homeworkID uint, studentIDs []uint) []models.StudentHomework {
	records := make([]models.StudentHomework, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		records = append(records, models.StudentHomework{
			HomeworkID: homeworkID,
			StudentID:  studentID,
			Status:     models.StudentHomeworkStatusPending,
		})
	}
	return records
}
