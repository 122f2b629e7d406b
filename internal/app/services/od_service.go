package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/filestorage"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// ODDocumentsBucket holds supporting documents of OD requests.
const ODDocumentsBucket = "od_documents"

// MaxODDocumentSize caps a supporting document upload.
const MaxODDocumentSize = 10 << 20

var allowedODDocumentExts = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "jpg": true, "jpeg": true, "png": true,
}

// ODRequestStore persists OD requests.
type ODRequestStore interface {
	Create(ctx context.Context, req *models.ODRequest) error
	List(ctx context.Context, status *models.ODStatus) ([]*models.ODRequest, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.ODRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ODStatus) (*models.ODRequest, error)
}

// ODDocument is an uploaded supporting document.
type ODDocument struct {
	Filename string
	Content  io.Reader
}

// SubmitODInput is a student's OD request.
type SubmitODInput struct {
	StudentID   uuid.UUID
	Reason      string
	RequestDate string
	Document    *ODDocument
}

// ODService handles on-duty requests.
type ODService struct {
	requests ODRequestStore
	storage  filestorage.ObjectStorage
	now      func() time.Time
	changes  changeNotifier
	logger   zerolog.Logger
}

// NewODService creates a new ODService
func NewODService(requests ODRequestStore, storage filestorage.ObjectStorage, publisher events.Publisher, logger zerolog.Logger) *ODService {
	return &ODService{
		requests: requests,
		storage:  storage,
		now:      time.Now,
		changes:  newChangeNotifier(publisher, logger),
		logger:   logger,
	}
}

// SubmitRequest stores an optional supporting document under
// <student>/<unix millis>.<ext> and records a Pending request.
func (s *ODService) SubmitRequest(ctx context.Context, in SubmitODInput) (*models.ODRequest, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", apperrors.ErrValidationFailed)
	}
	date, err := time.Parse(helpers.DateLayout, in.RequestDate)
	if err != nil {
		return nil, fmt.Errorf("%w: request date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}

	req := &models.ODRequest{
		StudentID:   in.StudentID,
		Reason:      reason,
		RequestDate: date,
		Status:      models.ODPending,
	}

	var objectPath string
	if in.Document != nil {
		objectPath, err = s.documentPath(in.StudentID, in.Document.Filename)
		if err != nil {
			return nil, err
		}
		info, err := s.storage.Put(ctx, ODDocumentsBucket, objectPath, in.Document.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to store supporting document: %w", err)
		}
		req.SupportingDocumentURL = &info.PublicURL
	}

	if err := s.requests.Create(ctx, req); err != nil {
		if objectPath != "" {
			if delErr := s.storage.Delete(ODDocumentsBucket, objectPath); delErr != nil {
				s.logger.Warn().Err(delErr).Str("object", objectPath).Msg("Failed to remove orphaned OD document")
			}
		}
		return nil, err
	}

	s.changes.notify(ctx, enums.TableODRequests, enums.ChangeInsert, req)
	return req, nil
}

func (s *ODService) documentPath(studentID uuid.UUID, filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedODDocumentExts[ext] {
		return "", fmt.Errorf("%w: document must be a pdf, doc, docx, jpg or png file", apperrors.ErrValidationFailed)
	}
	return fmt.Sprintf("%s/%d.%s", studentID, s.now().UnixMilli(), ext), nil
}

// ListStudentRequests returns a student's requests, latest date first.
func (s *ODService) ListStudentRequests(ctx context.Context, studentID uuid.UUID) ([]*models.ODRequest, error) {
	return s.requests.ListByStudent(ctx, studentID)
}

// ListRequests returns requests ordered by date, optionally of one status.
func (s *ODService) ListRequests(ctx context.Context, status string) ([]*models.ODRequest, error) {
	if status == "" || status == "all" {
		return s.requests.List(ctx, nil)
	}
	st := models.ODStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: status must be Pending, Approved or Rejected", apperrors.ErrValidationFailed)
	}
	return s.requests.List(ctx, &st)
}

// UpdateStatus approves or rejects a request.
func (s *ODService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.ODRequest, error) {
	st := models.ODStatus(status)
	if st != models.ODApproved && st != models.ODRejected {
		return nil, fmt.Errorf("%w: status must be Approved or Rejected", apperrors.ErrValidationFailed)
	}
	req, err := s.requests.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableODRequests, enums.ChangeUpdate, req)
	return req, nil
}
