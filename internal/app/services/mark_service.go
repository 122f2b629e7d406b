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
	"github.com/yigit/collegeerp/internal/app/repositories"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
)

// MarkStore persists marks.
type MarkStore interface {
	Upsert(ctx context.Context, marks []*models.Mark) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Mark, error)
	List(ctx context.Context, filter repositories.MarkFilter) ([]*models.Mark, error)
}

// gradeBands are the lower bounds of each letter grade, best first.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
}

// Grade returns the letter grade of a score out of 100.
func Grade(score float64) string {
	for _, band := range gradeBands {
		if score >= band.min {
			return band.grade
		}
	}
	return "F"
}

// MarkService uploads and reports marks.
type MarkService struct {
	marks   MarkStore
	changes changeNotifier
}

// NewMarkService creates a new MarkService
func NewMarkService(marks MarkStore, publisher events.Publisher, logger zerolog.Logger) *MarkService {
	return &MarkService{
		marks:   marks,
		changes: newChangeNotifier(publisher, logger),
	}
}

// UploadMarks upserts a graded mark for every entry with a score. Entries
// without a score are skipped.
func (s *MarkService) UploadMarks(ctx context.Context, req *dto.UploadMarksRequest) (*dto.BulkResult, error) {
	marks := make([]*models.Mark, 0, len(req.Entries))
	index := make(map[uuid.UUID]int, len(req.Entries))

	for _, e := range req.Entries {
		if e.Marks == nil {
			continue
		}
		score := *e.Marks
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("%w: marks must be between 0 and 100", apperrors.ErrValidationFailed)
		}
		mark := &models.Mark{
			StudentID: e.StudentID,
			CourseID:  req.CourseID,
			Marks:     score,
			Grade:     Grade(score),
		}
		if i, seen := index[e.StudentID]; seen {
			marks[i] = mark
			continue
		}
		index[e.StudentID] = len(marks)
		marks = append(marks, mark)
	}

	if len(marks) == 0 {
		return nil, fmt.Errorf("%w: no marks entered to upload", apperrors.ErrValidationFailed)
	}

	if err := s.marks.Upsert(ctx, marks); err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableMarks, enums.ChangeInsert, marks)
	return &dto.BulkResult{Count: len(marks)}, nil
}

// ListStudentMarks returns a student's marks, newest first.
func (s *MarkService) ListStudentMarks(ctx context.Context, studentID uuid.UUID) ([]*models.Mark, error) {
	return s.marks.ListByStudent(ctx, studentID)
}

// ListMarks returns marks filtered by the student's department and year and
// by course name.
func (s *MarkService) ListMarks(ctx context.Context, departmentID *uuid.UUID, year, course string) ([]*models.Mark, error) {
	filter := repositories.MarkFilter{
		DepartmentID: departmentID,
		CourseName:   strings.TrimSpace(course),
	}
	if y := strings.TrimSpace(year); y != "" {
		filter.Year = &y
	}
	return s.marks.List(ctx, filter)
}
