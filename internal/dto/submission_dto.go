package dto

import (
	"github.com/noah-isme/homework-assistant-api/internal/models"
)

// SubmitRequest is accepted as JSON or multipart form data.
type SubmitRequest struct {
	StudentHomeworkID uint   `json:"studenthomeworkid" form:"studenthomeworkid" validate:"required,gt=0"`
	Content           string `json:"content" form:"content" validate:"max=100000"`
	FilePath          string `json:"filepath" form:"filepath" validate:"max=512"`
}

// SubmitResponse confirms a submission.
type SubmitResponse struct {
	SubmissionID      uint    `json:"submission_id"`
	StudentHomeworkID uint    `json:"studenthomeworkid"`
	Status            string  `json:"status"`
	SubmissionDate    *string `json:"submission_date"`
	FilePath          string  `json:"filepath,omitempty"`
}

// GradeRequest records a teacher's grade and comments.
type GradeRequest struct {
	Grade    string `json:"grade" validate:"required,max=10"`
	Comments string `json:"comments" validate:"max=10000"`
}

// GradeResponse echoes the graded record.
type GradeResponse struct {
	StudentHomeworkID uint    `json:"studenthomeworkid"`
	Status            string  `json:"status"`
	Grade             *string `json:"grade"`
	TeacherComments   string  `json:"teacher_comments"`
	Graded            bool    `json:"graded"`
}

// SubmissionSnapshot is the authoritative submission shown to a student.
type SubmissionSnapshot struct {
	Content  string `json:"content"`
	FilePath string `json:"filepath,omitempty"`
	Date     string `json:"date"`
}

// StudentSubmissionResponse is a student's own view of one homework.
type StudentSubmissionResponse struct {
	Submission      *SubmissionSnapshot     `json:"submission"`
	Status          string                  `json:"status"`
	Grade           *string                 `json:"grade"`
	TeacherComments string                  `json:"teacher_comments,omitempty"`
	AIInteractions  []AIInteractionResponse `json:"ai_interactions"`
}

// SubmissionReviewResponse is one student's row in a teacher's review of a homework.
type SubmissionReviewResponse struct {
	StudentHomeworkID uint                    `json:"studenthomeworkid"`
	StudentID         uint                    `json:"student_id"`
	StudentName       string                  `json:"student_name"`
	Status            string                  `json:"status"`
	SubmissionDate    *string                 `json:"submission_date"`
	Content           *string                 `json:"content"`
	FilePath          *string                 `json:"filepath"`
	Grade             *string                 `json:"grade"`
	TeacherComments   string                  `json:"teacher_comments,omitempty"`
	AIInteractions    []AIInteractionResponse `json:"ai_interactions"`
}

// NewSubmissionSnapshot converts the latest submission, if any.
func NewSubmissionSnapshot(model *models.Submission) *SubmissionSnapshot {
	if model == nil {
		return nil
	}

	snapshot := SubmissionSnapshot{
		Content:  model.Content,
		FilePath: model.FilePath,
	}
	if formatted := FormatTimestamp(&model.SubmittedAt); formatted != nil {
		snapshot.Date = *formatted
	}

	return &snapshot
}

// NewGradeResponse converts a graded record into a DTO.
func NewGradeResponse(model models.StudentHomework) GradeResponse {
	return GradeResponse{
		StudentHomeworkID: model.ID,
		Status:            model.Status,
		Grade:             model.Grade,
		TeacherComments:   model.TeacherComments,
		Graded:            model.IsGraded(),
	}
}
