package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

// AttendanceFilter narrows the all-attendance listing. Date is required.
type AttendanceFilter struct {
	Date         time.Time
	DepartmentID *uuid.UUID
}

// AttendanceRepository handles database operations for attendance
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{db: db, sb: psql}
}

// Upsert writes records keyed by (student, course, date); an existing row
// takes the new status and reason. IDs and timestamps are written back.
func (r *AttendanceRepository) Upsert(ctx context.Context, records []*models.Attendance) error {
	if len(records) == 0 {
		return nil
	}

	q := r.sb.Insert("attendance").Columns("student_id", "course_id", "date", "status", "reason")
	for _, rec := range records {
		q = q.Values(rec.StudentID, rec.CourseID, rec.Date, rec.Status, rec.Reason)
	}
	sql, args, err := q.
		Suffix("ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason").
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return r.translateWriteError(err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i < len(records) {
			if err := rows.Scan(&records[i].ID, &records[i].CreatedAt); err != nil {
				return fmt.Errorf("error scanning attendance: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return r.translateWriteError(err)
	}
	return nil
}

func (r *AttendanceRepository) translateWriteError(err error) error {
	if dberrors.IsForeignKeyViolation(err) {
		return apperrors.NewResourceNotFoundError("student or course not found")
	}
	logger.Error().Err(err).Msg("Error upserting attendance")
	return fmt.Errorf("error upserting attendance: %w", err)
}

// ListByStudent returns a student's attendance with course names, newest
// first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Attendance, error) {
	sql, args, err := r.sb.Select("a.id", "a.student_id", "a.course_id", "a.date", "a.status", "a.reason", "a.created_at", "c.name", "c.code").
		From("attendance a").
		Join("courses c ON c.id = a.course_id").
		Where(squirrel.Eq{"a.student_id": studentID}).
		OrderBy("a.date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Status, &a.Reason, &a.CreatedAt, &a.CourseName, &a.CourseCode); err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		records = append(records, &a)
	}
	return records, rows.Err()
}

// List returns every record on a date joined with student and course,
// most recently written first.
func (r *AttendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]*models.Attendance, error) {
	q := r.sb.Select(
		"a.id", "a.student_id", "a.course_id", "a.date", "a.status", "a.reason", "a.created_at",
		"c.name", "c.code", "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.roll_number",
	).
		From("attendance a").
		Join("courses c ON c.id = a.course_id").
		Join("profiles p ON p.id = a.student_id").
		Where(squirrel.Eq{"a.date": filter.Date})
	if filter.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *filter.DepartmentID})
	}
	sql, args, err := q.OrderBy("a.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying attendance")
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		a := models.Attendance{Student: &models.StudentRef{}}
		if err := rows.Scan(
			&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Status, &a.Reason, &a.CreatedAt,
			&a.CourseName, &a.CourseCode, &a.Student.FirstName, &a.Student.LastName, &a.Student.RollNumber,
		); err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		records = append(records, &a)
	}
	return records, rows.Err()
}
