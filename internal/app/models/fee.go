package models

import (
	"time"

	"github.com/google/uuid"
)

// Fee is a charge against a student. Amount is what is still outstanding.
type Fee struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StudentID uuid.UUID  `json:"studentId" db:"student_id"`
	FeeType   string     `json:"feeType" db:"fee_type"`
	Amount    float64    `json:"amount" db:"amount"`
	DueDate   time.Time  `json:"dueDate" db:"due_date"`
	Status    FeeStatus  `json:"status" db:"status"`
	PaidAt    *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`

	// Joined
	Student *StudentRef `json:"student,omitempty"`
}
