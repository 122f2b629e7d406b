package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/validation"
)

// DepartmentStore persists departments.
type DepartmentStore interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DepartmentService handles department-related operations
type DepartmentService struct {
	departments DepartmentStore
	changes     changeNotifier
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departments DepartmentStore, publisher events.Publisher, logger zerolog.Logger) *DepartmentService {
	return &DepartmentService{
		departments: departments,
		changes:     newChangeNotifier(publisher, logger),
	}
}

// ListDepartments returns every department ordered by name.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departments.GetAll(ctx)
}

// CreateDepartment trims the name, normalizes the code and stores the
// department. Name and code are unique.
func (s *DepartmentService) CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*models.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	code := validation.NormalizeDepartmentCode(req.Code)
	if !validation.ValidDepartmentCode(code) {
		return nil, fmt.Errorf("%w: code must be 2-10 letters or digits", apperrors.ErrValidationFailed)
	}

	department := &models.Department{Name: name, Code: code}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableDepartments, enums.ChangeInsert, department)
	return department, nil
}

// DeleteDepartment removes a department without dependent rows.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		return err
	}
	s.changes.notify(ctx, enums.TableDepartments, enums.ChangeDelete, map[string]string{"id": id.String()})
	return nil
}
