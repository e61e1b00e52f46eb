package dto

import (
	"time"

	"github.com/noah-isme/homework-assistant-api/internal/models"
)

// HomeworkCreateRequest describes the payload for creating a new homework.
type HomeworkCreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=20000"`
	DueDate     string `json:"duedate" validate:"required,datetime=2006-01-02"`
}

// HomeworkResponse is the teacher-facing view of a homework.
type HomeworkResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	DueDate       string `json:"duedate"`
	AssignedCount *int   `json:"assigned_count,omitempty"`
}

// StudentAssignmentResponse is the student-facing view of an assigned homework.
type StudentAssignmentResponse struct {
	ID                uint    `json:"id"`
	StudentHomeworkID uint    `json:"studenthomeworkid"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	DueDate           string  `json:"duedate"`
	Status            string  `json:"status"`
	SubmissionDate    *string `json:"submission_date"`
	Grade             *string `json:"grade"`
	TeacherComments   string  `json:"teacher_comments,omitempty"`
	Overdue           bool    `json:"overdue"`
}

// NewHomeworkResponse converts a model into a DTO.
func NewHomeworkResponse(model models.Homework) HomeworkResponse {
	return HomeworkResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     FormatDate(model.DueDate),
	}
}

// NewHomeworkResponseSlice converts a slice of models into DTOs.
func NewHomeworkResponseSlice(homework []models.Homework) []HomeworkResponse {
	responses := make([]HomeworkResponse, 0, len(homework))
	for _, item := range homework {
		responses = append(responses, NewHomeworkResponse(item))
	}

	return responses
}

// NewStudentAssignmentResponse flattens a StudentHomework joined with its Homework.
func NewStudentAssignmentResponse(model models.StudentHomework, now time.Time) StudentAssignmentResponse {
	return StudentAssignmentResponse{
		ID:                model.Homework.ID,
		StudentHomeworkID: model.ID,
		Title:             model.Homework.Title,
		Description:       model.Homework.Description,
		DueDate:           FormatDate(model.Homework.DueDate),
		Status:            model.Status,
		SubmissionDate:    FormatTimestamp(model.SubmissionDate),
		Grade:             model.Grade,
		TeacherComments:   model.TeacherComments,
		Overdue:           !model.IsSubmitted() && model.Homework.IsPastDue(now),
	}
}

// NewStudentAssignmentResponseSlice converts the joined rows into DTOs.
func NewStudentAssignmentResponseSlice(records []models.StudentHomework, now time.Time) []StudentAssignmentResponse {
	responses := make([]StudentAssignmentResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewStudentAssignmentResponse(record, now))
	}

	return responses
}
