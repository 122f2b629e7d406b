package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is one student's status for a course on a date. The triple
// (StudentID, CourseID, Date) is unique.
type Attendance struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	StudentID uuid.UUID        `json:"studentId" db:"student_id"`
	CourseID  uuid.UUID        `json:"courseId" db:"course_id"`
	Date      time.Time        `json:"date" db:"date"`
	Status    AttendanceStatus `json:"status" db:"status"`
	Reason    *string          `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`

	// Joined
	CourseName string      `json:"courseName,omitempty"`
	CourseCode string      `json:"courseCode,omitempty"`
	Student    *StudentRef `json:"student,omitempty"`
}
