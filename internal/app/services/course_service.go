package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
)

// CourseStore persists courses.
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	List(ctx context.Context, departmentID *uuid.UUID) ([]*models.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileReader loads a single profile.
type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// CourseService handles course-related operations
type CourseService struct {
	courses     CourseStore
	departments DepartmentStore
	profiles    ProfileReader
	changes     changeNotifier
}

// NewCourseService creates a new CourseService
func NewCourseService(courses CourseStore, departments DepartmentStore, profiles ProfileReader, publisher events.Publisher, logger zerolog.Logger) *CourseService {
	return &CourseService{
		courses:     courses,
		departments: departments,
		profiles:    profiles,
		changes:     newChangeNotifier(publisher, logger),
	}
}

// ListCourses returns courses ordered by name, optionally of one department.
func (s *CourseService) ListCourses(ctx context.Context, departmentID *uuid.UUID) ([]*models.Course, error) {
	return s.courses.List(ctx, departmentID)
}

// CreateCourse stores a course with an upper-cased code.
func (s *CourseService) CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", apperrors.ErrValidationFailed)
	}
	if req.Credits <= 0 {
		return nil, fmt.Errorf("%w: credits must be a positive number", apperrors.ErrValidationFailed)
	}

	department, err := s.departments.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:           name,
		Code:           code,
		DepartmentID:   department.ID,
		Credits:        req.Credits,
		DepartmentName: &department.Name,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableCourses, enums.ChangeInsert, course)
	return course, nil
}

// DeleteCourse removes a course.
func (s *CourseService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.changes.notify(ctx, enums.TableCourses, enums.ChangeDelete, map[string]string{"id": id.String()})
	return nil
}

// ListTeacherCourses returns the courses of the teacher's department. A
// teacher without a department has no classes.
func (s *CourseService) ListTeacherCourses(ctx context.Context, teacherID uuid.UUID) ([]*models.Course, error) {
	profile, err := s.profiles.GetProfile(ctx, teacherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return []*models.Course{}, nil
		}
		return nil, err
	}
	if profile.DepartmentID == nil {
		return []*models.Course{}, nil
	}
	return s.courses.List(ctx, profile.DepartmentID)
}
