package models

import "time"

const (
	// StudentHomeworkStatusPending marks an assignment with no submission yet.
	StudentHomeworkStatusPending = "Pending"
	// StudentHomeworkStatusSubmitted marks an assignment with at least one submission.
	StudentHomeworkStatusSubmitted = "Submitted"
)

// StudentHomework is the per-student instance of a Homework.
type StudentHomework struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	HomeworkID      uint            `gorm:"not null;uniqueIndex:idx_student_homework_pair" json:"homework_id"`
	StudentID       uint            `gorm:"not null;uniqueIndex:idx_student_homework_pair;index" json:"student_id"`
	Status          string          `gorm:"size:10;not null" json:"status"`
	SubmissionDate  *time.Time      `json:"submission_date"`
	Grade           *string         `gorm:"size:10" json:"grade"`
	TeacherComments string          `gorm:"type:text" json:"teacher_comments"`
	Homework        Homework        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student         User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions     []Submission    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	AIInteractions  []AIInteraction `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsSubmitted reports whether any work has been handed in.
func (s StudentHomework) IsSubmitted() bool {
	return s.Status == StudentHomeworkStatusSubmitted
}

// IsGraded reports whether a teacher has recorded a grade. No separate status value exists.
func (s StudentHomework) IsGraded() bool {
	return s.Grade != nil
}

// BelongsTo reports whether the record was assigned to the given student.
func (s StudentHomework) BelongsTo(studentID uint) bool {
	return studentID != 0 && s.StudentID == studentID
}
