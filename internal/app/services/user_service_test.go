package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
)

type userFixture struct {
	svc         *UserService
	users       *fakeUsers
	mailer      *recordingMailer
	invalidator *recordingInvalidator
	publisher   *recordingPublisher
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:       newFakeUsers(),
		mailer:      &recordingMailer{},
		invalidator: &recordingInvalidator{},
		publisher:   &recordingPublisher{},
	}
	f.svc = NewUserService(f.users, f.invalidator, f.mailer, "http://localhost:5173/auth/student", f.publisher, zerolog.Nop())
	return f
}

func studentRequest(deptID uuid.UUID) *dto.CreateStudentRequest {
	return &dto.CreateStudentRequest{
		Email:    " Student2@Example.com ",
		Password: "password123",
		ProfileFields: dto.ProfileFields{
			FirstName:    "Asha",
			LastName:     "Rao",
			RollNumber:   "CS2024-01",
			DepartmentID: &deptID,
			Year:         "1",
			CityName:     "Chennai",
			StateName:    "Tamil Nadu",
			CountryName:  "India",
		},
	}
}

func TestCreateStudent(t *testing.T) {
	f := newUserFixture()
	deptID := uuid.New()

	profile, err := f.svc.CreateStudent(context.Background(), studentRequest(deptID))
	require.NoError(t, err)

	assert.Equal(t, session.RoleStudent, profile.Role)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "student2@example.com", *profile.Email)
	require.NotNil(t, profile.RollNumber)
	assert.Equal(t, "CS2024-01", *profile.RollNumber)
	assert.Nil(t, profile.Designation)

	user, err := f.users.GetUserByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(user.Password, "password123"))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "student2@example.com", f.mailer.sent[0].ToEmail)
	assert.Equal(t, "Asha Rao", f.mailer.sent[0].ToName)
	assert.Equal(t, "STUDENT", f.mailer.sent[0].Role)

	changes := f.publisher.published()
	require.Len(t, changes, 1)
	assert.Equal(t, enums.TableProfiles, changes[0].Table)
	assert.Equal(t, string(enums.ChangeInsert), changes[0].Type)
}

func TestCreateStudent_RequiresFields(t *testing.T) {
	f := newUserFixture()

	req := studentRequest(uuid.New())
	req.CityName = "  "
	_, err := f.svc.CreateStudent(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	req = studentRequest(uuid.New())
	req.DepartmentID = nil
	_, err = f.svc.CreateStudent(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Empty(t, f.mailer.sent)
}

func TestCreateTeacher(t *testing.T) {
	f := newUserFixture()
	deptID := uuid.New()

	_, err := f.svc.CreateTeacher(context.Background(), &dto.CreateTeacherRequest{
		Email:         "t@example.com",
		Password:      "password123",
		ProfileFields: dto.ProfileFields{FirstName: "Ravi", LastName: "K", DepartmentID: &deptID},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	profile, err := f.svc.CreateTeacher(context.Background(), &dto.CreateTeacherRequest{
		Email:         "t@example.com",
		Password:      "password123",
		ProfileFields: dto.ProfileFields{FirstName: "Ravi", LastName: "K", EmployeeID: "EMP-7", DepartmentID: &deptID},
	})
	require.NoError(t, err)
	assert.Equal(t, session.RoleTeacher, profile.Role)
}

func TestCreate_EmailFailureDoesNotFail(t *testing.T) {
	f := newUserFixture()
	f.mailer.err = errors.New("sendgrid down")

	_, err := f.svc.CreateStudent(context.Background(), studentRequest(uuid.New()))
	assert.NoError(t, err)
}

func TestUpdateUser_ChangesRoleAndInvalidatesCache(t *testing.T) {
	f := newUserFixture()
	profile, err := f.svc.CreateStudent(context.Background(), studentRequest(uuid.New()))
	require.NoError(t, err)

	updated, err := f.svc.UpdateUser(context.Background(), profile.ID, &dto.UpdateUserRequest{
		Email:         "renamed@example.com",
		Role:          "TEACHER",
		ProfileFields: dto.ProfileFields{FirstName: "Asha", LastName: "Rao", EmployeeID: "EMP-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, session.RoleTeacher, updated.Role)
	assert.Equal(t, "renamed@example.com", *updated.Email)
	assert.Nil(t, updated.RollNumber)
	assert.Equal(t, []uuid.UUID{profile.ID}, f.invalidator.ids)

	_, err = f.svc.UpdateUser(context.Background(), profile.ID, &dto.UpdateUserRequest{Email: "x@example.com", Role: "DEAN"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.UpdateUser(context.Background(), uuid.New(), &dto.UpdateUserRequest{Email: "x@example.com", Role: "ADMIN"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newUserFixture()
	profile, err := f.svc.CreateStudent(context.Background(), studentRequest(uuid.New()))
	require.NoError(t, err)

	err = f.svc.DeleteUser(context.Background(), profile.ID, profile.ID)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	require.NoError(t, f.svc.DeleteUser(context.Background(), uuid.New(), profile.ID))
	assert.Equal(t, []uuid.UUID{profile.ID}, f.invalidator.ids)

	_, err = f.svc.GetUser(context.Background(), profile.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestListUsersAndStudents(t *testing.T) {
	f := newUserFixture()
	deptID := uuid.New()
	_, err := f.svc.CreateStudent(context.Background(), studentRequest(deptID))
	require.NoError(t, err)
	f.users.add(&models.User{Email: "admin@example.com"}, &models.Profile{Role: session.RoleAdmin})

	page, err := f.svc.ListUsers(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, int64(2), page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)

	students, err := f.svc.ListStudents(context.Background(), dto.StudentFilterRequest{DepartmentID: &deptID, Year: "1"})
	require.NoError(t, err)
	assert.Len(t, students, 1)

	students, err = f.svc.ListStudents(context.Background(), dto.StudentFilterRequest{Year: "3"})
	require.NoError(t, err)
	assert.Empty(t, students)
}
