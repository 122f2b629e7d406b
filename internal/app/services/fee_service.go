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
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// FeeStore persists fees.
type FeeStore interface {
	Create(ctx context.Context, fee *models.Fee) error
	List(ctx context.Context, status *models.FeeStatus) ([]*models.Fee, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Fee, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, apply func(fee *models.Fee) error) (*models.Fee, error)
}

// FeeService manages student fees and payments.
type FeeService struct {
	fees    FeeStore
	now     func() time.Time
	changes changeNotifier
}

// NewFeeService creates a new FeeService
func NewFeeService(fees FeeStore, publisher events.Publisher, logger zerolog.Logger) *FeeService {
	return &FeeService{
		fees:    fees,
		now:     time.Now,
		changes: newChangeNotifier(publisher, logger),
	}
}

// CreateFee records a new outstanding fee.
func (s *FeeService) CreateFee(ctx context.Context, req *dto.CreateFeeRequest) (*models.Fee, error) {
	feeType := strings.TrimSpace(req.FeeType)
	if feeType == "" {
		return nil, fmt.Errorf("%w: fee type is required", apperrors.ErrValidationFailed)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidationFailed)
	}
	due, err := time.Parse(helpers.DateLayout, req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}

	fee := &models.Fee{
		StudentID: req.StudentID,
		FeeType:   feeType,
		Amount:    req.Amount,
		DueDate:   due,
		Status:    models.FeeOutstanding,
	}
	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableFees, enums.ChangeInsert, fee)
	return fee, nil
}

// ListFees returns fees ordered by due date, optionally of one status.
func (s *FeeService) ListFees(ctx context.Context, status string) ([]*models.Fee, error) {
	if status == "" || status == "all" {
		return s.fees.List(ctx, nil)
	}
	st := models.FeeStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: status must be Paid or Outstanding", apperrors.ErrValidationFailed)
	}
	return s.fees.List(ctx, &st)
}

// ListStudentFees returns a student's fees.
func (s *FeeService) ListStudentFees(ctx context.Context, studentID uuid.UUID) ([]*models.Fee, error) {
	return s.fees.ListByStudent(ctx, studentID)
}

// RecordPayment subtracts amount from the outstanding balance of a fee.
func (s *FeeService) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*models.Fee, error) {
	now := s.now().UTC()
	fee, err := s.fees.ApplyPayment(ctx, id, func(fee *models.Fee) error {
		return applyPayment(fee, amount, now)
	})
	if err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableFees, enums.ChangeUpdate, fee)
	return fee, nil
}

// applyPayment requires 0 < amount <= outstanding. A fee whose balance
// reaches zero becomes Paid at now; otherwise it stays Outstanding with no
// paid time.
func applyPayment(fee *models.Fee, amount float64, now time.Time) error {
	if amount <= 0 {
		return apperrors.ErrInvalidPayment
	}
	if amount > fee.Amount {
		return apperrors.ErrPaymentExceedsDue
	}

	fee.Amount -= amount
	if fee.Amount <= 0 {
		fee.Amount = 0
		fee.Status = models.FeePaid
		fee.PaidAt = &now
		return nil
	}
	fee.Status = models.FeeOutstanding
	fee.PaidAt = nil
	return nil
}
