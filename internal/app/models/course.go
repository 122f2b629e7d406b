package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a subject offered by a department.
type Course struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Code         string    `json:"code" db:"code"`
	DepartmentID uuid.UUID `json:"departmentId" db:"department_id"`
	Credits      int       `json:"credits" db:"credits"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	// Joined
	DepartmentName *string `json:"departmentName,omitempty"`
}
