package models

import (
	"time"

	"github.com/google/uuid"
)

// ODRequest is a student's on-duty leave request.
type ODRequest struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	StudentID             uuid.UUID `json:"studentId" db:"student_id"`
	Reason                string    `json:"reason" db:"reason"`
	RequestDate           time.Time `json:"requestDate" db:"request_date"`
	Status                ODStatus  `json:"status" db:"status"`
	SupportingDocumentURL *string   `json:"supportingDocumentUrl,omitempty" db:"supporting_document_url"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" db:"updated_at"`

	// Joined
	Student *StudentRef `json:"student,omitempty"`
}
