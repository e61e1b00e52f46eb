package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIInteraction stores a question asked to the assistant together with its answer.
type AIInteraction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	StudentHomeworkID uint              `gorm:"not null;index" json:"student_homework_id"`
	Query             string            `gorm:"type:text;not null" json:"query"`
	Response          string            `gorm:"type:text;not null" json:"response"`
	Metadata          datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
}
