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
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/db"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

// profileColumns is the select list for a profile joined with its department.
var profileColumns = []string{
	"p.id", "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.username", "p.email", "p.role",
	"p.employee_id", "p.roll_number", "p.department_id", "p.year", "p.designation", "p.avatar_url",
	"p.house_no", "p.street_name", "p.city_name", "p.district_name", "p.state_name", "p.country_name",
	"p.tenth_school_name", "p.tenth_mark_score", "p.twelfth_school_name", "p.twelfth_mark_score",
	"p.phone_number", "p.parent_phone_number", "p.highest_degree", "p.years_of_experience", "p.specialization",
	"p.created_at", "p.updated_at", "d.name",
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Username, &p.Email, &p.Role,
		&p.EmployeeID, &p.RollNumber, &p.DepartmentID, &p.Year, &p.Designation, &p.AvatarURL,
		&p.HouseNo, &p.StreetName, &p.CityName, &p.DistrictName, &p.StateName, &p.CountryName,
		&p.TenthSchoolName, &p.TenthMarkScore, &p.TwelfthSchoolName, &p.TwelfthMarkScore,
		&p.PhoneNumber, &p.ParentPhoneNumber, &p.HighestDegree, &p.YearsOfExperience, &p.Specialization,
		&p.CreatedAt, &p.UpdatedAt, &p.DepartmentName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// profileValues maps the writable profile columns to their values.
func profileValues(p *models.Profile) map[string]interface{} {
	return map[string]interface{}{
		"first_name":          p.FirstName,
		"last_name":           p.LastName,
		"username":            p.Username,
		"email":               p.Email,
		"role":                p.Role,
		"employee_id":         p.EmployeeID,
		"roll_number":         p.RollNumber,
		"department_id":       p.DepartmentID,
		"year":                p.Year,
		"designation":         p.Designation,
		"avatar_url":          p.AvatarURL,
		"house_no":            p.HouseNo,
		"street_name":         p.StreetName,
		"city_name":           p.CityName,
		"district_name":       p.DistrictName,
		"state_name":          p.StateName,
		"country_name":        p.CountryName,
		"tenth_school_name":   p.TenthSchoolName,
		"tenth_mark_score":    p.TenthMarkScore,
		"twelfth_school_name": p.TwelfthSchoolName,
		"twelfth_mark_score":  p.TwelfthMarkScore,
		"phone_number":        p.PhoneNumber,
		"parent_phone_number": p.ParentPhoneNumber,
		"highest_degree":      p.HighestDegree,
		"years_of_experience": p.YearsOfExperience,
		"specialization":      p.Specialization,
	}
}

// translateProfileWriteError maps constraint violations on users/profiles to
// domain errors.
func translateProfileWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, "profiles_username_key"):
		return apperrors.ErrUsernameExists
	case dberrors.IsDuplicateConstraintError(err, "profiles_roll_number_key"):
		return apperrors.ErrRollNumberExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}

// StudentFilter narrows the student listing.
type StudentFilter struct {
	DepartmentID *uuid.UUID
	Year         *string
}

// UserRepository handles credentials and profiles. A profile shares its
// user's id.
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, sb: psql}
}

func (r *UserRepository) getUser(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select("id", "email", "COALESCE(password, '')", "is_active", "last_login_at", "created_at", "updated_at").
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	var u models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.Password, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, squirrel.Expr("lower(email) = lower(?)", email))
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": id})
}

// CreateUserWithProfile inserts the credential and its profile in one
// transaction. The generated id is written back to both.
func (r *UserRepository) CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("users").
			Columns("email", "password", "is_active").
			Values(user.Email, helpers.NullIfEmpty(user.Password), true).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create user query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			if mapped := translateProfileWriteError(err); mapped != nil {
				return mapped
			}
			logger.Error().Err(err).Str("email", user.Email).Msg("Error inserting user")
			return fmt.Errorf("error creating user: %w", err)
		}

		profile.ID = user.ID
		values := profileValues(profile)
		values["id"] = profile.ID
		sql, args, err = r.sb.Insert("profiles").
			SetMap(values).
			Suffix("RETURNING created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create profile query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
			if mapped := translateProfileWriteError(err); mapped != nil {
				return mapped
			}
			logger.Error().Err(err).Str("userID", user.ID.String()).Msg("Error inserting profile")
			return fmt.Errorf("error creating profile: %w", err)
		}
		return nil
	})
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// RoleBySubject returns the raw role stored on the subject's profile. found
// is false when no profile row exists.
func (r *UserRepository) RoleBySubject(ctx context.Context, subjectID uuid.UUID) (string, bool, error) {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, subjectID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error loading role: %w", err)
	}
	return role, true, nil
}

func (r *UserRepository) profileQuery() squirrel.SelectBuilder {
	return r.sb.Select(profileColumns...).
		From("profiles p").
		LeftJoin("departments d ON d.id = p.department_id")
}

// GetProfile retrieves a profile joined with its department name
func (r *UserRepository) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	sql, args, err := r.profileQuery().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("userID", id.String()).Msg("Error scanning profile row")
		return nil, fmt.Errorf("error retrieving profile: %w", err)
	}
	return profile, nil
}

func (r *UserRepository) queryProfiles(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Profile, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying profiles")
		return nil, fmt.Errorf("error listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ListProfiles returns a page of profiles ordered by role, then first name,
// and the total count.
func (r *UserRepository) ListProfiles(ctx context.Context, offset, limit uint64) ([]*models.Profile, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting profiles: %w", err)
	}

	profiles, err := r.queryProfiles(ctx, r.profileQuery().
		OrderBy("p.role ASC", "p.first_name ASC").
		Offset(offset).
		Limit(limit))
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListStudents returns student profiles ordered by roll number
func (r *UserRepository) ListStudents(ctx context.Context, filter StudentFilter) ([]*models.Profile, error) {
	q := r.profileQuery().Where(squirrel.Eq{"p.role": session.RoleStudent})
	if filter.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *filter.DepartmentID})
	}
	if filter.Year != nil {
		q = q.Where(squirrel.Eq{"p.year": *filter.Year})
	}
	return r.queryProfiles(ctx, q.OrderBy("p.roll_number ASC"))
}

// UpdateProfile overwrites every writable profile column and keeps the
// credential email in step with the profile email.
func (r *UserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Update("profiles").
			SetMap(profileValues(profile)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": profile.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update profile query: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			if mapped := translateProfileWriteError(err); mapped != nil {
				return mapped
			}
			logger.Error().Err(err).Str("userID", profile.ID.String()).Msg("Error updating profile")
			return fmt.Errorf("error updating profile: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrUserNotFound
		}

		if profile.Email != nil && *profile.Email != "" {
			_, err = tx.Exec(ctx, `UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2`, *profile.Email, profile.ID)
			if err != nil {
				if mapped := translateProfileWriteError(err); mapped != nil {
					return mapped
				}
				return fmt.Errorf("error updating user email: %w", err)
			}
		}
		return nil
	})
}

// DeleteUser removes the credential; the profile and everything owned by it
// cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.Error().Err(err).Str("userID", id.String()).Msg("Error deleting user")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
