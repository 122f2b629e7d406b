package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

var odColumns = []string{"o.id", "o.student_id", "o.reason", "o.request_date", "o.status", "o.supporting_document_url", "o.created_at", "o.updated_at"}

// ODRequestRepository handles database operations for on-duty requests
type ODRequestRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewODRequestRepository creates a new OD request repository
func NewODRequestRepository(db *pgxpool.Pool) *ODRequestRepository {
	return &ODRequestRepository{db: db, sb: psql}
}

// Create creates a new OD request
func (r *ODRequestRepository) Create(ctx context.Context, req *models.ODRequest) error {
	sql, args, err := r.sb.Insert("od_requests").
		Columns("student_id", "reason", "request_date", "status", "supporting_document_url").
		Values(req.StudentID, req.Reason, req.RequestDate, req.Status, req.SupportingDocumentURL).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create od request query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("studentID", req.StudentID.String()).Msg("Error creating od request")
		return fmt.Errorf("error creating od request: %w", err)
	}
	return nil
}

func (r *ODRequestRepository) list(ctx context.Context, q squirrel.SelectBuilder, withStudent bool) ([]*models.ODRequest, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build od request list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying od requests")
		return nil, fmt.Errorf("error listing od requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ODRequest, 0)
	for rows.Next() {
		var o models.ODRequest
		dest := []any{&o.ID, &o.StudentID, &o.Reason, &o.RequestDate, &o.Status, &o.SupportingDocumentURL, &o.CreatedAt, &o.UpdatedAt}
		if withStudent {
			o.Student = &models.StudentRef{}
			dest = append(dest, &o.Student.FirstName, &o.Student.LastName, &o.Student.RollNumber)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning od request: %w", err)
		}
		requests = append(requests, &o)
	}
	return requests, rows.Err()
}

// List returns requests joined with student names, oldest request date first
func (r *ODRequestRepository) List(ctx context.Context, status *models.ODStatus) ([]*models.ODRequest, error) {
	cols := append(append([]string{}, odColumns...), "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.roll_number")
	q := r.sb.Select(cols...).
		From("od_requests o").
		Join("profiles p ON p.id = o.student_id")
	if status != nil {
		q = q.Where(squirrel.Eq{"o.status": *status})
	}
	return r.list(ctx, q.OrderBy("o.request_date ASC"), true)
}

// ListByStudent returns a student's own requests, newest request date first
func (r *ODRequestRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.ODRequest, error) {
	q := r.sb.Select(odColumns...).
		From("od_requests o").
		Where(squirrel.Eq{"o.student_id": studentID}).
		OrderBy("o.request_date DESC")
	return r.list(ctx, q, false)
}

// UpdateStatus sets the status of a request and returns the updated row
func (r *ODRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ODStatus) (*models.ODRequest, error) {
	sql, args, err := r.sb.Update("od_requests o").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"o.id": id}).
		Suffix("RETURNING " + strings.Join(odColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update od status query: %w", err)
	}

	var o models.ODRequest
	err = r.db.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.StudentID, &o.Reason, &o.RequestDate, &o.Status, &o.SupportingDocumentURL, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrODRequestNotFound
		}
		logger.Error().Err(err).Str("odRequestID", id.String()).Msg("Error updating od request status")
		return nil, fmt.Errorf("error updating od request: %w", err)
	}
	return &o, nil
}
