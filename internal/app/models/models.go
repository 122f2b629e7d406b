package models

// AttendanceStatus is the outcome recorded for one student on one day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
)

// Valid reports whether s is a known attendance status.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// FeeStatus tracks whether a fee still has an outstanding amount.
type FeeStatus string

const (
	FeeOutstanding FeeStatus = "Outstanding"
	FeePaid        FeeStatus = "Paid"
)

func (s FeeStatus) Valid() bool {
	return s == FeeOutstanding || s == FeePaid
}

// ODStatus is the approval state of an on-duty request.
type ODStatus string

const (
	ODPending  ODStatus = "Pending"
	ODApproved ODStatus = "Approved"
	ODRejected ODStatus = "Rejected"
)

func (s ODStatus) Valid() bool {
	return s == ODPending || s == ODApproved || s == ODRejected
}

// StudentRef is the slice of a student profile joined into list rows.
type StudentRef struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	RollNumber *string `json:"rollNumber,omitempty"`
}

// DashboardStats are the counts shown on every dashboard.
type DashboardStats struct {
	Profiles          int64 `json:"profiles"`
	Departments       int64 `json:"departments"`
	Courses           int64 `json:"courses"`
	PendingODRequests int64 `json:"pendingOdRequests"`
}
