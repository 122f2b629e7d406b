package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

const (
	refreshTokensTable = "refresh_tokens"

	// revokedTokenRetention is how long revoked tokens are kept for audit.
	revokedTokenRetention = 30 * 24 * time.Hour
)

// TokenRepository stores opaque refresh tokens.
type TokenRepository struct {
	db  *pgxpool.Pool
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db, sb: psql, now: time.Now}
}

// CreateToken stores a refresh token issued to userID.
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID uuid.UUID, expiryDate time.Time) error {
	query, args, err := r.sb.Insert(refreshTokensTable).
		Columns("token", "user_id", "expiry_date").
		Values(token, userID, expiryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token: %w", err)
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_key") {
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Str("userID", userID.String()).Msg("Error storing refresh token")
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetUserIDByToken returns the owner of a usable refresh token.
func (r *TokenRepository) GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	query, args, err := r.sb.Select("user_id", "expiry_date", "is_revoked").
		From(refreshTokensTable).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build select refresh token: %w", err)
	}

	var (
		owner   uuid.UUID
		expiry  time.Time
		revoked bool
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&owner, &expiry, &revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperrors.ErrTokenInvalid
		}
		return uuid.Nil, fmt.Errorf("select refresh token: %w", err)
	}

	switch {
	case revoked:
		return uuid.Nil, apperrors.ErrTokenRevoked
	case !expiry.After(r.now()):
		return uuid.Nil, apperrors.ErrTokenExpired
	}
	return owner, nil
}

// RevokeToken marks a live token revoked. Only the first of several
// concurrent callers succeeds; the rest get ErrTokenInvalid, so a refresh
// token can be rotated at most once.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	query, args, err := r.sb.Update(refreshTokensTable).
		Set("is_revoked", true).
		Where(squirrel.Eq{"token": token, "is_revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke refresh token: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTokenInvalid
	}
	return nil
}

// CleanupExpiredTokens deletes expired tokens and revoked tokens past their
// retention, returning how many rows went.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	now := r.now()
	query, args, err := r.sb.Delete(refreshTokensTable).
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"created_at": now.Add(-revokedTokenRetention)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete refresh tokens: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
