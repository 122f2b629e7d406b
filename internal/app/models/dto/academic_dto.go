package dto

import "github.com/google/uuid"

// AttendanceEntry is one student's attendance in a bulk submission.
type AttendanceEntry struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	Present   bool      `json:"present"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// MarkAttendanceRequest records attendance for a course on a date.
type MarkAttendanceRequest struct {
	CourseID uuid.UUID         `json:"courseId" binding:"required"`
	Date     string            `json:"date" binding:"required,isodate"`
	Entries  []AttendanceEntry `json:"entries" binding:"required,min=1,dive"`
}

// MarkEntry is one student's score in a bulk upload. A nil score skips the
// student.
type MarkEntry struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	Marks     *float64  `json:"marks" binding:"omitempty,gte=0,lte=100"`
}

// UploadMarksRequest records marks for a course.
type UploadMarksRequest struct {
	CourseID uuid.UUID   `json:"courseId" binding:"required"`
	Entries  []MarkEntry `json:"entries" binding:"required,min=1,dive"`
}

// BulkResult reports how many rows a bulk write touched.
type BulkResult struct {
	Count int `json:"count"`
}

// CreateFeeRequest creates a fee record for a student.
type CreateFeeRequest struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	FeeType   string    `json:"feeType" binding:"required,max=100"`
	Amount    float64   `json:"amount" binding:"required,gt=0"`
	DueDate   string    `json:"dueDate" binding:"required,isodate"`
}

// RecordPaymentRequest records a payment against a fee.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// UpdateODStatusRequest approves or rejects an OD request.
type UpdateODStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Approved Rejected"`
}

// CreateChatMessageRequest posts a message to a course chat.
type CreateChatMessageRequest struct {
	MessageText string `json:"messageText" binding:"required,max=4000"`
}
