package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/auth"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/helpers"
)

// CredentialStore reads and creates sign-in credentials.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStore persists opaque refresh tokens.
type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID uuid.UUID, expiryDate time.Time) error
	GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error)
	RevokeToken(ctx context.Context, token string) error
}

// AccessTokenRevoker denies access tokens before they expire.
type AccessTokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

// IdentityProvider runs an external sign-in flow.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthService signs principals in and out and reports the resulting session
// transition.
type AuthService struct {
	users    CredentialStore
	tokens   RefreshTokenStore
	denyList AccessTokenRevoker
	jwt      *auth.JWTService
	resolver *session.Resolver
	google   IdentityProvider
	changes  changeNotifier
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService. google may be nil when Google
// sign-in is not configured.
func NewAuthService(
	users CredentialStore,
	tokens RefreshTokenStore,
	denyList AccessTokenRevoker,
	jwtService *auth.JWTService,
	resolver *session.Resolver,
	google IdentityProvider,
	publisher events.Publisher,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		denyList: denyList,
		jwt:      jwtService,
		resolver: resolver,
		google:   google,
		changes:  newChangeNotifier(publisher, logger),
		logger:   logger,
	}
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !user.IsActive || user.Password == "" || !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

// RefreshToken rotates a refresh token and issues a new pair.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokens.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrTokenRevoked
	}

	// The old token must be unusable before the new one is handed out.
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	resp := s.tokenResponse(pair)
	return &resp, nil
}

// Logout revokes the refresh token (when given) and denies the access token
// identified by jti until it expires.
func (s *AuthService) Logout(ctx context.Context, jti string, accessExpiry time.Time, refreshToken string) (*dto.SignOutResponse, error) {
	if refreshToken != "" {
		if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil && !errors.Is(err, apperrors.ErrTokenInvalid) {
			return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	if err := s.denyList.Revoke(ctx, jti, accessExpiry); err != nil {
		s.logger.Warn().Err(err).Str("jti", jti).Msg("Failed to deny access token on sign-out")
	}

	sc := session.NewContext(s.resolver)
	out := sc.Handle(ctx, session.Event{Kind: session.EventSignedOut})
	return &dto.SignOutResponse{Outcome: out}, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

// GoogleAuthURL returns the consent URL carrying state.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", fmt.Errorf("%w: google sign-in is not configured", apperrors.ErrOAuthFailed)
	}
	return s.google.AuthURL(state), nil
}

// GoogleCallback completes Google sign-in. A verified email without an
// account gets a new STUDENT profile.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	if s.google == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", apperrors.ErrOAuthFailed)
	}

	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Msg("Google code exchange failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOAuthFailed, err)
	}
	if identity.Email == "" || !identity.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", apperrors.ErrOAuthFailed)
	}

	user, err := s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		user, err = s.registerGoogleStudent(ctx, identity)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.signIn(ctx, user)
}

func (s *AuthService) registerGoogleStudent(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	firstName := identity.GivenName
	if firstName == "" {
		firstName, _, _ = strings.Cut(identity.Email, "@")
	}
	email := identity.Email

	user := &models.User{Email: email, IsActive: true}
	profile := &models.Profile{
		FirstName: firstName,
		LastName:  identity.FamilyName,
		Email:     &email,
		Role:      session.RoleStudent,
		AvatarURL: helpers.NullIfEmpty(identity.Picture),
	}
	if err := s.users.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("error creating google user: %w", err)
	}

	s.logger.Info().Str("userID", user.ID.String()).Str("email", email).Msg("Created student from Google sign-in")
	s.changes.notify(ctx, enums.TableProfiles, enums.ChangeInsert, profile)
	return user, nil
}

func (s *AuthService) signIn(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.ID.String()).Msg("Failed to update last login")
	}

	sc := session.NewContext(s.resolver)
	out := sc.Handle(ctx, session.Event{
		Kind:    session.EventSignedIn,
		Session: &session.Session{SubjectID: user.ID, ExpiresAt: pair.AccessExpiresAt},
	})

	return &dto.AuthResponse{Token: s.tokenResponse(pair), Outcome: out}, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (auth.TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("token generation error: %w", err)
	}
	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return auth.TokenPair{}, fmt.Errorf("token saving error: %w", err)
	}
	return pair, nil
}

func (s *AuthService) tokenResponse(pair auth.TokenPair) dto.TokenResponse {
	now := time.Now()
	return dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn(now),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int(pair.RefreshExpiresAt.Sub(now).Seconds()),
	}
}
