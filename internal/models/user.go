package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Role is the immutable capability a user was registered with.
type Role string

// RoleEnumType is the PostgreSQL enum backing users.role.
const RoleEnumType = "userrole"

const (
	// RoleTeacher authors homework and reviews submissions.
	RoleTeacher Role = "teacher"
	// RoleStudent receives homework, submits work and asks the assistant for help.
	RoleStudent Role = "student"
)

// ParseRole normalises raw input into a known role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	return role, role.Valid()
}

// Valid reports whether the role is one of the two supported variants.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

func (r Role) String() string {
	return string(r)
}

// GormDBDataType stores roles in the userrole enum on PostgreSQL, so AutoMigrate
// leaves an enum column alone. Other dialects keep the sized string column.
func (Role) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return RoleEnumType
	}
	return ""
}

// User is an account holder of either role.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;index" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
