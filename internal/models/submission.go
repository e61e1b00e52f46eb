package models

import "time"

// Submission is one snapshot of work handed in for a StudentHomework.
type Submission struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentHomeworkID uint      `gorm:"not null;index" json:"student_homework_id"`
	Content           string    `gorm:"type:text" json:"content"`
	FilePath          string    `gorm:"size:512" json:"file_path"`
	SubmittedAt       time.Time `gorm:"not null;index" json:"submitted_at"`
}
