package models

import "time"

// Homework is a teacher-authored assignment definition.
type Homework struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	TeacherID       uint              `gorm:"not null;index" json:"teacher_id"`
	Teacher         User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Title           string            `gorm:"size:255;not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	DueDate         time.Time         `gorm:"not null" json:"due_date"`
	CreatedAt       time.Time         `json:"created_at"`
	StudentHomework []StudentHomework `json:"-"`
}

// OwnedBy reports whether the homework was authored by the given teacher.
func (h Homework) OwnedBy(teacherID uint) bool {
	return teacherID != 0 && h.TeacherID == teacherID
}

// IsPastDue returns true once the whole due day has elapsed.
func (h Homework) IsPastDue(reference time.Time) bool {
	y, m, d := h.DueDate.Date()
	endOfDay := time.Date(y, m, d, 0, 0, 0, 0, reference.Location()).AddDate(0, 0, 1)
	return !reference.Before(endOfDay)
}
