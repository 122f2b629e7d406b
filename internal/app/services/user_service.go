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
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
	"github.com/yigit/collegeerp/internal/pkg/email"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// ProfileStore manages credentials and the profiles attached to them.
type ProfileStore interface {
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ListProfiles(ctx context.Context, offset, limit uint64) ([]*models.Profile, int64, error)
	ListStudents(ctx context.Context, filter repositories.StudentFilter) ([]*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// RoleInvalidator drops cached roles after a profile changes.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, subjectID uuid.UUID) error
}

// UserService manages teacher and student accounts.
type UserService struct {
	profiles ProfileStore
	roles    RoleInvalidator
	mailer   email.EmailService
	loginURL string
	changes  changeNotifier
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(profiles ProfileStore, roles RoleInvalidator, mailer email.EmailService, loginURL string, publisher events.Publisher, logger zerolog.Logger) *UserService {
	return &UserService{
		profiles: profiles,
		roles:    roles,
		mailer:   mailer,
		loginURL: loginURL,
		changes:  newChangeNotifier(publisher, logger),
		logger:   logger,
	}
}

// CreateTeacher creates a TEACHER credential and profile.
func (s *UserService) CreateTeacher(ctx context.Context, req *dto.CreateTeacherRequest) (*models.Profile, error) {
	if strings.TrimSpace(req.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employee ID is required", apperrors.ErrValidationFailed)
	}
	if req.DepartmentID == nil {
		return nil, fmt.Errorf("%w: department is required", apperrors.ErrValidationFailed)
	}
	return s.create(ctx, req.Email, req.Password, session.RoleTeacher, req.ProfileFields)
}

// CreateStudent creates a STUDENT credential and profile.
func (s *UserService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*models.Profile, error) {
	required := []struct{ name, value string }{
		{"roll number", req.RollNumber},
		{"city", req.CityName},
		{"state", req.StateName},
		{"country", req.CountryName},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", apperrors.ErrValidationFailed, field.name)
		}
	}
	if req.DepartmentID == nil {
		return nil, fmt.Errorf("%w: department is required", apperrors.ErrValidationFailed)
	}
	return s.create(ctx, req.Email, req.Password, session.RoleStudent, req.ProfileFields)
}

func (s *UserService) create(ctx context.Context, emailAddr, password string, role session.Role, fields dto.ProfileFields) (*models.Profile, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Email: emailAddr, Password: hashed, IsActive: true}
	profile := &models.Profile{Role: role, Email: &emailAddr}
	applyProfileFields(profile, fields)

	if err := s.profiles.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", user.ID.String()).Str("role", string(role)).Msg("Account created")

	if err := s.mailer.SendAccountCreated(ctx, email.AccountCreated{
		ToEmail:  emailAddr,
		ToName:   profile.FullName(),
		Role:     string(role),
		LoginURL: s.loginURL,
	}); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.ID.String()).Msg("Account created but notification email failed")
	}

	created, err := s.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableProfiles, enums.ChangeInsert, created)
	return created, nil
}

// ListUsers returns a page of every profile ordered by role, then first name.
func (s *UserService) ListUsers(ctx context.Context, page, size int) (*dto.UserListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	profiles, total, err := s.profiles.ListProfiles(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{
		Users:          profiles,
		PaginationInfo: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetUser returns one profile.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// UpdateUser replaces every editable field of a profile, including its role.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*models.Profile, error) {
	role := session.ParseRole(req.Role)
	if role == session.RoleNone {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, req.Role)
	}

	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	profile.Email = &emailAddr
	profile.Role = role
	applyProfileFields(profile, req.ProfileFields)

	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.invalidateRole(ctx, id)

	updated, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changes.notify(ctx, enums.TableProfiles, enums.ChangeUpdate, updated)
	return updated, nil
}

// DeleteUser removes an account. Callers cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperrors.NewBadRequestError("you cannot delete your own account")
	}
	if err := s.profiles.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.invalidateRole(ctx, id)
	s.changes.notify(ctx, enums.TableProfiles, enums.ChangeDelete, map[string]string{"id": id.String()})
	return nil
}

// GetOwnProfile returns the caller's profile joined with its department.
func (s *UserService) GetOwnProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// ListStudents returns student profiles ordered by roll number.
func (s *UserService) ListStudents(ctx context.Context, filter dto.StudentFilterRequest) ([]*models.Profile, error) {
	return s.profiles.ListStudents(ctx, repositories.StudentFilter{
		DepartmentID: filter.DepartmentID,
		Year:         helpers.NullIfEmpty(filter.Year),
	})
}

func (s *UserService) invalidateRole(ctx context.Context, id uuid.UUID) {
	if s.roles == nil {
		return
	}
	if err := s.roles.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("userID", id.String()).Msg("Failed to invalidate cached role")
	}
}

// applyProfileFields copies request fields onto p; empty strings become NULL.
func applyProfileFields(p *models.Profile, f dto.ProfileFields) {
	p.FirstName = strings.TrimSpace(f.FirstName)
	p.LastName = strings.TrimSpace(f.LastName)
	p.Username = helpers.NullIfEmpty(f.Username)
	p.EmployeeID = helpers.NullIfEmpty(f.EmployeeID)
	p.RollNumber = helpers.NullIfEmpty(f.RollNumber)
	p.DepartmentID = f.DepartmentID
	p.Year = helpers.NullIfEmpty(f.Year)
	p.Designation = helpers.NullIfEmpty(f.Designation)
	p.HouseNo = helpers.NullIfEmpty(f.HouseNo)
	p.StreetName = helpers.NullIfEmpty(f.StreetName)
	p.CityName = helpers.NullIfEmpty(f.CityName)
	p.DistrictName = helpers.NullIfEmpty(f.DistrictName)
	p.StateName = helpers.NullIfEmpty(f.StateName)
	p.CountryName = helpers.NullIfEmpty(f.CountryName)
	p.TenthSchoolName = helpers.NullIfEmpty(f.TenthSchoolName)
	p.TenthMarkScore = f.TenthMarkScore
	p.TwelfthSchoolName = helpers.NullIfEmpty(f.TwelfthSchoolName)
	p.TwelfthMarkScore = f.TwelfthMarkScore
	p.PhoneNumber = helpers.NullIfEmpty(f.PhoneNumber)
	p.ParentPhoneNumber = helpers.NullIfEmpty(f.ParentPhoneNumber)
	p.HighestDegree = helpers.NullIfEmpty(f.HighestDegree)
	p.YearsOfExperience = f.YearsOfExperience
	p.Specialization = helpers.NullIfEmpty(f.Specialization)
}
