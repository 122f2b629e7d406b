package services

import (
	"context"
	"errors"
	"testing"
	"time"

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
	"github.com/yigit/collegeerp/internal/pkg/cache"
)

type fakeIdentityProvider struct {
	identity *auth.Identity
	err      error
}

func (p *fakeIdentityProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeIdentityProvider) Exchange(context.Context, string) (*auth.Identity, error) {
	return p.identity, p.err
}

type authFixture struct {
	svc       *AuthService
	users     *fakeUsers
	tokens    *fakeTokens
	denyList  *TokenDenyList
	publisher *recordingPublisher
}

func newAuthFixture(t *testing.T, google IdentityProvider) *authFixture {
	t.Helper()
	users := newFakeUsers()
	tokens := newFakeTokens()
	denyList := NewTokenDenyList(cache.NewMemoryStore())
	publisher := &recordingPublisher{}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "collegeerp-test",
	})
	resolver := session.NewResolver(users, session.ResolverConfig{}, zerolog.Nop())
	svc := NewAuthService(users, tokens, denyList, jwtService, resolver, google, publisher, zerolog.Nop())
	return &authFixture{svc: svc, users: users, tokens: tokens, denyList: denyList, publisher: publisher}
}

func (f *authFixture) addUser(t *testing.T, addr, password string, role session.Role) *models.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Email: addr, Password: hashed, IsActive: true}
	var profile *models.Profile
	if role != session.RoleNone {
		profile = &models.Profile{FirstName: "Test", LastName: "User", Role: role}
	}
	f.users.add(user, profile)
	return user
}

func TestLogin_NavigatesToRoleDashboard(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.addUser(t, "student1@example.com", "password123", session.RoleStudent)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "student1@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "/dashboard/student", resp.Outcome.Navigate)
	assert.Equal(t, session.RoleStudent, resp.Outcome.State.Role)
	assert.False(t, resp.Outcome.State.Loading)
	require.NotNil(t, resp.Outcome.State.Session)
	assert.Equal(t, user.ID, resp.Outcome.State.Session.SubjectID)
	assert.Contains(t, resp.Outcome.Notices, session.Notice{Level: session.NoticeSuccess, Message: "Logged in successfully!"})

	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, []uuid.UUID{user.ID}, f.users.lastLogin)
}

func TestLogin_AdminDashboard(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "admin@example.com", "password123", session.RoleSuperAdmin)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "ADMIN@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/super-admin", resp.Outcome.Navigate)
}

func TestLogin_WithoutProfileHasNoRole(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "orphan@example.com", "password123", session.RoleNone)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "orphan@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, session.RoleNone, resp.Outcome.State.Role)
	assert.Equal(t, session.KindUnauthorized, resp.Outcome.Result.Kind)
	assert.Equal(t, session.FallbackSignInPath, resp.Outcome.Navigate)

	verdict := session.Decide(resp.Outcome.State, []session.Role{session.RoleStudent})
	assert.Equal(t, session.Verdict{Decision: session.DecisionRedirect, Location: "/"}, verdict)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "teacher@example.com", "password123", session.RoleTeacher)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "teacher@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "student1@example.com", "password123", session.RoleStudent)

	login, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "student1@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Token.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.svc.RefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestLogout_NavigatesToLandingAndDeniesToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "student1@example.com", "password123", session.RoleStudent)

	login, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "student1@example.com", Password: "password123"})
	require.NoError(t, err)

	out, err := f.svc.Logout(context.Background(), "jti-1", time.Now().Add(10*time.Minute), login.Token.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, "/", out.Outcome.Navigate)
	assert.Equal(t, session.RoleNone, out.Outcome.State.Role)
	assert.Nil(t, out.Outcome.State.Session)
	assert.Contains(t, out.Outcome.Notices, session.Notice{Level: session.NoticeSuccess, Message: "Logged out successfully!"})

	revoked, err := f.denyList.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestLogout_WithoutProfileStillSignsOut(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.addUser(t, "orphan@example.com", "password123", session.RoleNone)

	login, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: "orphan@example.com", Password: "password123"})
	require.NoError(t, err)

	out, err := f.svc.Logout(context.Background(), "jti-orphan", time.Now().Add(10*time.Minute), login.Token.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "/", out.Outcome.Navigate)
	assert.Equal(t, session.RoleNone, out.Outcome.State.Role)

	revoked, err := f.denyList.IsRevoked(context.Background(), "jti-orphan")
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.RefreshToken(context.Background(), login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestGoogleCallback_CreatesStudentForUnknownEmail(t *testing.T) {
	provider := &fakeIdentityProvider{identity: &auth.Identity{
		Subject:       "google-1",
		Email:         "new.student@example.com",
		EmailVerified: true,
		GivenName:     "New",
		FamilyName:    "Student",
	}}
	f := newAuthFixture(t, provider)

	resp, err := f.svc.GoogleCallback(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, "/dashboard/student", resp.Outcome.Navigate)
	assert.Equal(t, session.RoleStudent, resp.Outcome.State.Role)

	user, err := f.users.GetUserByEmail(context.Background(), "new.student@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	changes := f.publisher.published()
	require.Len(t, changes, 1)
	assert.Equal(t, enums.TableProfiles, changes[0].Table)
}

func TestGoogleCallback_UsesExistingAccount(t *testing.T) {
	provider := &fakeIdentityProvider{identity: &auth.Identity{Email: "teacher@example.com", EmailVerified: true}}
	f := newAuthFixture(t, provider)
	f.addUser(t, "teacher@example.com", "password123", session.RoleTeacher)

	resp, err := f.svc.GoogleCallback(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/teacher", resp.Outcome.Navigate)
	assert.Empty(t, f.publisher.published())
}

func TestGoogleCallback_Failures(t *testing.T) {
	t.Run("unverified email", func(t *testing.T) {
		f := newAuthFixture(t, &fakeIdentityProvider{identity: &auth.Identity{Email: "x@example.com"}})
		_, err := f.svc.GoogleCallback(context.Background(), "code")
		assert.ErrorIs(t, err, apperrors.ErrOAuthFailed)
	})

	t.Run("exchange error", func(t *testing.T) {
		f := newAuthFixture(t, &fakeIdentityProvider{err: errors.New("bad code")})
		_, err := f.svc.GoogleCallback(context.Background(), "code")
		assert.ErrorIs(t, err, apperrors.ErrOAuthFailed)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		assert.False(t, f.svc.GoogleEnabled())
		_, err := f.svc.GoogleAuthURL("state")
		assert.ErrorIs(t, err, apperrors.ErrOAuthFailed)
	})
}
