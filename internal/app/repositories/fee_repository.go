package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/db"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

var feeColumns = []string{"f.id", "f.student_id", "f.fee_type", "f.amount", "f.due_date", "f.status", "f.paid_at", "f.created_at"}

// FeeRepository handles database operations for fees
type FeeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewFeeRepository creates a new fee repository
func NewFeeRepository(db *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{db: db, sb: psql}
}

// Create creates a new fee record
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	sql, args, err := r.sb.Insert("fees").
		Columns("student_id", "fee_type", "amount", "due_date", "status").
		Values(fee.StudentID, fee.FeeType, fee.Amount, fee.DueDate, fee.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create fee query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&fee.ID, &fee.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("studentID", fee.StudentID.String()).Msg("Error creating fee")
		return fmt.Errorf("error creating fee: %w", err)
	}
	return nil
}

func (r *FeeRepository) list(ctx context.Context, q squirrel.SelectBuilder, withStudent bool) ([]*models.Fee, error) {
	sql, args, err := q.OrderBy("f.due_date ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build fee list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying fees")
		return nil, fmt.Errorf("error listing fees: %w", err)
	}
	defer rows.Close()

	fees := make([]*models.Fee, 0)
	for rows.Next() {
		var f models.Fee
		dest := []any{&f.ID, &f.StudentID, &f.FeeType, &f.Amount, &f.DueDate, &f.Status, &f.PaidAt, &f.CreatedAt}
		if withStudent {
			f.Student = &models.StudentRef{}
			dest = append(dest, &f.Student.FirstName, &f.Student.LastName, &f.Student.RollNumber)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning fee: %w", err)
		}
		fees = append(fees, &f)
	}
	return fees, rows.Err()
}

// List returns fees joined with student names, ordered by due date, optionally
// filtered by status.
func (r *FeeRepository) List(ctx context.Context, status *models.FeeStatus) ([]*models.Fee, error) {
	cols := append(append([]string{}, feeColumns...), "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.roll_number")
	q := r.sb.Select(cols...).
		From("fees f").
		Join("profiles p ON p.id = f.student_id")
	if status != nil {
		q = q.Where(squirrel.Eq{"f.status": *status})
	}
	return r.list(ctx, q, true)
}

// ListByStudent returns a student's fees ordered by due date
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Fee, error) {
	q := r.sb.Select(feeColumns...).From("fees f").Where(squirrel.Eq{"f.student_id": studentID})
	return r.list(ctx, q, false)
}

// ApplyPayment locks the fee row, lets apply change it and writes back the
// amount, status and paid_at. An error from apply aborts the transaction.
func (r *FeeRepository) ApplyPayment(ctx context.Context, id uuid.UUID, apply func(fee *models.Fee) error) (*models.Fee, error) {
	var fee models.Fee
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Select(feeColumns...).
			From("fees f").
			Where(squirrel.Eq{"f.id": id}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build fee lock query: %w", err)
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&fee.ID, &fee.StudentID, &fee.FeeType, &fee.Amount, &fee.DueDate, &fee.Status, &fee.PaidAt, &fee.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrFeeNotFound
			}
			return fmt.Errorf("error loading fee: %w", err)
		}

		if err := apply(&fee); err != nil {
			return err
		}

		sql, args, err = r.sb.Update("fees").
			Set("amount", fee.Amount).
			Set("status", fee.Status).
			Set("paid_at", fee.PaidAt).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build fee update query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Str("feeID", id.String()).Msg("Error updating fee")
			return fmt.Errorf("error updating fee: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}
