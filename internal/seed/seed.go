package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/collegeerp/internal/app/models"
	appRepos "github.com/yigit/collegeerp/internal/app/repositories"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
)

// Options controls what CreateDefaultData creates.
type Options struct {
	SuperAdminEmail    string
	SuperAdminPassword string
}

var defaultDepartments = []appModels.Department{
	{Name: "Computer Science and Engineering", Code: "CSE"},
	{Name: "Electronics and Communication Engineering", Code: "ECE"},
	{Name: "Mechanical Engineering", Code: "MECH"},
	{Name: "Civil Engineering", Code: "CIVIL"},
}

// CreateDefaultData creates the default departments and, when configured, the
// first super admin. Existing rows are left untouched.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, opts Options, lgr zerolog.Logger) error {
	departmentRepo := appRepos.NewDepartmentRepository(dbPool)
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (Departments/Super admin)...")
	var finalErr error // To collect potential errors without stopping the process

	for _, d := range defaultDepartments {
		department := d
		err := departmentRepo.Create(ctx, &department)
		if err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
			lgr.Error().Err(err).Str("code", department.Code).Msg("Error creating default department")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if err := createSuperAdmin(ctx, userRepo, opts, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data check/creation complete.")
	}
	return finalErr
}

func createSuperAdmin(ctx context.Context, userRepo *appRepos.UserRepository, opts Options, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(opts.SuperAdminEmail))
	if email == "" || opts.SuperAdminPassword == "" {
		lgr.Debug().Msg("No super admin configured for seeding")
		return nil
	}

	_, err := userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		lgr.Error().Err(err).Msg("Error checking for existing super admin")
		return err
	}

	hashed, err := auth.HashPassword(opts.SuperAdminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to hash super admin password")
		return err
	}

	user := &appModels.User{Email: email, Password: hashed, IsActive: true}
	profile := &appModels.Profile{
		FirstName: "Super",
		LastName:  "Admin",
		Email:     &email,
		Role:      session.RoleSuperAdmin,
	}
	if err := userRepo.CreateUserWithProfile(ctx, user, profile); err != nil {
		lgr.Error().Err(err).Str("email", email).Msg("Error creating super admin")
		return err
	}
	lgr.Info().Str("email", email).Msg("Super admin created")
	return nil
}
