package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/app/repositories"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// AttendanceStore persists attendance records.
type AttendanceStore interface {
	Upsert(ctx context.Context, records []*models.Attendance) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Attendance, error)
	List(ctx context.Context, filter repositories.AttendanceFilter) ([]*models.Attendance, error)
}

// AttendanceService records and reports attendance.
type AttendanceService struct {
	attendance AttendanceStore
	changes    changeNotifier
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(attendance AttendanceStore, publisher events.Publisher, logger zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		attendance: attendance,
		changes:    newChangeNotifier(publisher, logger),
	}
}

// MarkAttendance upserts one record per student for the course and date. A
// student listed twice keeps the last entry; the reason is kept only for
// absences.
func (s *AttendanceService) MarkAttendance(ctx context.Context, req *dto.MarkAttendanceRequest) (*dto.BulkResult, error) {
	date, err := time.Parse(helpers.DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("%w: no students to mark attendance for", apperrors.ErrValidationFailed)
	}

	records := buildAttendanceRecords(req.CourseID, date, req.Entries)
	if err := s.attendance.Upsert(ctx, records); err != nil {
		return nil, err
	}

	s.changes.notify(ctx, enums.TableAttendance, enums.ChangeInsert, records)
	return &dto.BulkResult{Count: len(records)}, nil
}

func buildAttendanceRecords(courseID uuid.UUID, date time.Time, entries []dto.AttendanceEntry) []*models.Attendance {
	index := make(map[uuid.UUID]int, len(entries))
	records := make([]*models.Attendance, 0, len(entries))

	for _, e := range entries {
		rec := &models.Attendance{
			StudentID: e.StudentID,
			CourseID:  courseID,
			Date:      date,
			Status:    models.AttendancePresent,
		}
		if !e.Present {
			rec.Status = models.AttendanceAbsent
			rec.Reason = helpers.NullIfEmpty(strings.TrimSpace(e.Reason))
		}

		if i, seen := index[e.StudentID]; seen {
			records[i] = rec
			continue
		}
		index[e.StudentID] = len(records)
		records = append(records, rec)
	}
	return records
}

// ListStudentAttendance returns a student's attendance, newest first.
func (s *AttendanceService) ListStudentAttendance(ctx context.Context, studentID uuid.UUID) ([]*models.Attendance, error) {
	return s.attendance.ListByStudent(ctx, studentID)
}

// ListAttendance returns every record of a date, optionally for one
// department's students.
func (s *AttendanceService) ListAttendance(ctx context.Context, date *time.Time, departmentID *uuid.UUID) ([]*models.Attendance, error) {
	if date == nil {
		return nil, fmt.Errorf("%w: date is required", apperrors.ErrValidationFailed)
	}
	return s.attendance.List(ctx, repositories.AttendanceFilter{Date: *date, DepartmentID: departmentID})
}
