package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

// MarkFilter narrows the all-marks listing.
type MarkFilter struct {
	DepartmentID *uuid.UUID
	Year         *string
	// CourseName matches case-insensitively as a substring.
	CourseName string
}

// MarkRepository handles database operations for marks
type MarkRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMarkRepository creates a new mark repository
func NewMarkRepository(db *pgxpool.Pool) *MarkRepository {
	return &MarkRepository{db: db, sb: psql}
}

// Upsert writes marks keyed by (student, course); an existing row takes the
// new score and grade.
func (r *MarkRepository) Upsert(ctx context.Context, marks []*models.Mark) error {
	if len(marks) == 0 {
		return nil
	}

	q := r.sb.Insert("marks").Columns("student_id", "course_id", "marks", "grade")
	for _, m := range marks {
		q = q.Values(m.StudentID, m.CourseID, m.Marks, m.Grade)
	}
	sql, args, err := q.
		Suffix("ON CONFLICT (student_id, course_id) DO UPDATE SET marks = EXCLUDED.marks, grade = EXCLUDED.grade, updated_at = NOW()").
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert marks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return r.translateWriteError(err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i < len(marks) {
			if err := rows.Scan(&marks[i].ID, &marks[i].CreatedAt, &marks[i].UpdatedAt); err != nil {
				return fmt.Errorf("error scanning mark: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return r.translateWriteError(err)
	}
	return nil
}

func (r *MarkRepository) translateWriteError(err error) error {
	if dberrors.IsForeignKeyViolation(err) {
		return apperrors.NewResourceNotFoundError("student or course not found")
	}
	logger.Error().Err(err).Msg("Error upserting marks")
	return fmt.Errorf("error upserting marks: %w", err)
}

// ListByStudent returns a student's marks with course names, newest first
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Mark, error) {
	sql, args, err := r.sb.Select("m.id", "m.student_id", "m.course_id", "m.marks", "COALESCE(m.grade, '')", "m.created_at", "m.updated_at", "c.name", "c.code").
		From("marks m").
		Join("courses c ON c.id = m.course_id").
		Where(squirrel.Eq{"m.student_id": studentID}).
		OrderBy("m.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student marks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing marks: %w", err)
	}
	defer rows.Close()

	marks := make([]*models.Mark, 0)
	for rows.Next() {
		var m models.Mark
		if err := rows.Scan(&m.ID, &m.StudentID, &m.CourseID, &m.Marks, &m.Grade, &m.CreatedAt, &m.UpdatedAt, &m.CourseName, &m.CourseCode); err != nil {
			return nil, fmt.Errorf("error scanning mark: %w", err)
		}
		marks = append(marks, &m)
	}
	return marks, rows.Err()
}

// List returns marks joined with student and course, ordered by roll number
// then course name.
func (r *MarkRepository) List(ctx context.Context, filter MarkFilter) ([]*models.Mark, error) {
	q := r.sb.Select(
		"m.id", "m.student_id", "m.course_id", "m.marks", "COALESCE(m.grade, '')", "m.created_at", "m.updated_at",
		"c.name", "c.code", "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.roll_number",
	).
		From("marks m").
		Join("courses c ON c.id = m.course_id").
		Join("profiles p ON p.id = m.student_id")
	if filter.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *filter.DepartmentID})
	}
	if filter.Year != nil {
		q = q.Where(squirrel.Eq{"p.year": *filter.Year})
	}
	if filter.CourseName != "" {
		q = q.Where(squirrel.ILike{"c.name": "%" + filter.CourseName + "%"})
	}
	sql, args, err := q.OrderBy("p.roll_number ASC", "c.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build marks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying marks")
		return nil, fmt.Errorf("error listing marks: %w", err)
	}
	defer rows.Close()

	marks := make([]*models.Mark, 0)
	for rows.Next() {
		m := models.Mark{Student: &models.StudentRef{}}
		if err := rows.Scan(
			&m.ID, &m.StudentID, &m.CourseID, &m.Marks, &m.Grade, &m.CreatedAt, &m.UpdatedAt,
			&m.CourseName, &m.CourseCode, &m.Student.FirstName, &m.Student.LastName, &m.Student.RollNumber,
		); err != nil {
			return nil, fmt.Errorf("error scanning mark: %w", err)
		}
		marks = append(marks, &m)
	}
	return marks, rows.Err()
}
