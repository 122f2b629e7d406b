package models

import (
	"time"

	"github.com/google/uuid"
)

// Mark is a student's score in a course; one row per (StudentID, CourseID).
type Mark struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StudentID uuid.UUID `json:"studentId" db:"student_id"`
	CourseID  uuid.UUID `json:"courseId" db:"course_id"`
	Marks     float64   `json:"marks" db:"marks"`
	Grade     string    `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joined
	CourseName string      `json:"courseName,omitempty"`
	CourseCode string      `json:"courseCode,omitempty"`
	Student    *StudentRef `json:"student,omitempty"`
}
