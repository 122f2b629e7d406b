package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu    sync.Mutex
	roles map[uuid.UUID]string
	err   error
	calls int
}

func (f *fakeLookup) RoleBySubject(ctx context.Context, subjectID uuid.UUID) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	role, ok := f.roles[subjectID]
	return role, ok, nil
}

func newTestResolver(lookup ProfileLookup) *Resolver {
	return NewResolver(lookup, ResolverConfig{}, zerolog.New(io.Discard))
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"SUPER_ADMIN": RoleSuperAdmin,
		"ADMIN":       RoleAdmin,
		" TEACHER ":   RoleTeacher,
		"STUDENT":     RoleStudent,
		"student":     RoleNone,
		"PRINCIPAL":   RoleNone,
		"":            RoleNone,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseRole(raw), "raw=%q", raw)
	}
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/dashboard/super-admin", DashboardPath(RoleSuperAdmin))
	assert.Equal(t, "/dashboard/admin", DashboardPath(RoleAdmin))
	assert.Equal(t, "/dashboard/teacher", DashboardPath(RoleTeacher))
	assert.Equal(t, "/dashboard/student", DashboardPath(RoleStudent))
	assert.Equal(t, "/", DashboardPath(RoleNone))
	assert.Equal(t, "/", DashboardPath(Role("JANITOR")))
}

func TestResolveSession(t *testing.T) {
	known := uuid.New()
	orphan := uuid.New()
	corrupt := uuid.New()
	lookup := &fakeLookup{roles: map[uuid.UUID]string{known: "ADMIN", corrupt: "DEAN"}}
	r := newTestResolver(lookup)
	ctx := context.Background()

	t.Run("nil session is anonymous", func(t *testing.T) {
		assert.Equal(t, KindAnonymous, r.ResolveSession(ctx, nil).Kind)
	})

	t.Run("expired session is anonymous", func(t *testing.T) {
		s := &Session{SubjectID: known, ExpiresAt: time.Now().Add(-time.Minute)}
		assert.Equal(t, KindAnonymous, r.ResolveSession(ctx, s).Kind)
	})

	t.Run("known profile is authorized", func(t *testing.T) {
		res := r.ResolveSession(ctx, &Session{SubjectID: known})
		assert.Equal(t, KindAuthorized, res.Kind)
		assert.Equal(t, RoleAdmin, res.Role)
	})

	t.Run("missing profile is unauthorized", func(t *testing.T) {
		res := r.ResolveSession(ctx, &Session{SubjectID: orphan})
		assert.Equal(t, KindUnauthorized, res.Kind)
		assert.NoError(t, res.Err)
	})

	t.Run("unknown role fails closed", func(t *testing.T) {
		res := r.ResolveSession(ctx, &Session{SubjectID: corrupt})
		assert.Equal(t, KindUnauthorized, res.Kind)
		assert.Equal(t, RoleNone, res.Role)
	})

	t.Run("idempotent", func(t *testing.T) {
		s := &Session{SubjectID: known}
		assert.Equal(t, r.ResolveSession(ctx, s), r.ResolveSession(ctx, s))
	})
}

func TestResolveSession_LookupFailure(t *testing.T) {
	boom := errors.New("connection refused")
	r := newTestResolver(&fakeLookup{err: boom})

	res := r.ResolveSession(context.Background(), &Session{SubjectID: uuid.New()})
	assert.Equal(t, KindUnauthorized, res.Kind)
	assert.ErrorIs(t, res.Err, boom)
}

func TestContext_SignInNavigatesToRoleDashboard(t *testing.T) {
	subject := uuid.New()
	c := NewContext(newTestResolver(&fakeLookup{roles: map[uuid.UUID]string{subject: "STUDENT"}}))
	require.True(t, c.State().Loading)

	out := c.Handle(context.Background(), Event{Kind: EventSignedIn, Session: &Session{SubjectID: subject}})

	assert.False(t, out.State.Loading)
	assert.Equal(t, RoleStudent, out.State.Role)
	assert.Equal(t, "/dashboard/student", out.Navigate)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, Notice{Level: NoticeSuccess, Message: "Logged in successfully!"}, out.Notices[0])
}

func TestContext_SignInWithoutProfileFallsBack(t *testing.T) {
	c := NewContext(newTestResolver(&fakeLookup{roles: map[uuid.UUID]string{}}))

	out := c.Handle(context.Background(), Event{Kind: EventSignedIn, Session: &Session{SubjectID: uuid.New()}})

	assert.Equal(t, RoleNone, out.State.Role)
	assert.NotNil(t, out.State.Session)
	assert.Equal(t, FallbackSignInPath, out.Navigate)
}

func TestContext_SignInLookupErrorReportsNotice(t *testing.T) {
	c := NewContext(newTestResolver(&fakeLookup{err: errors.New("timeout")}))

	out := c.Handle(context.Background(), Event{Kind: EventSignedIn, Session: &Session{SubjectID: uuid.New()}})

	assert.Equal(t, RoleNone, out.State.Role)
	assert.Equal(t, FallbackSignInPath, out.Navigate)
	require.Len(t, out.Notices, 2)
	assert.Equal(t, NoticeError, out.Notices[0].Level)
	assert.Equal(t, "Failed to load user role.", out.Notices[0].Message)
}

func TestContext_SignOutResetsRole(t *testing.T) {
	subject := uuid.New()
	c := NewContext(newTestResolver(&fakeLookup{roles: map[uuid.UUID]string{subject: "TEACHER"}}))
	ctx := context.Background()

	c.Bootstrap(ctx, &Session{SubjectID: subject})
	require.Equal(t, RoleTeacher, c.State().Role)

	out := c.Handle(ctx, Event{Kind: EventSignedOut})

	assert.Nil(t, out.State.Session)
	assert.Equal(t, RoleNone, out.State.Role)
	assert.Equal(t, "/", out.Navigate)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, "Logged out successfully!", out.Notices[0].Message)
}

func TestContext_BootstrapNeverNavigates(t *testing.T) {
	subject := uuid.New()
	c := NewContext(newTestResolver(&fakeLookup{roles: map[uuid.UUID]string{subject: "ADMIN"}}))

	out := c.Bootstrap(context.Background(), &Session{SubjectID: subject})

	assert.Empty(t, out.Navigate)
	assert.Empty(t, out.Notices)
	assert.Equal(t, RoleAdmin, out.State.Role)
	assert.False(t, out.State.Loading)
}

func TestContext_OtherEventRefreshesRole(t *testing.T) {
	subject := uuid.New()
	lookup := &fakeLookup{roles: map[uuid.UUID]string{subject: "STUDENT"}}
	c := NewContext(newTestResolver(lookup))
	ctx := context.Background()
	s := &Session{SubjectID: subject}

	c.Bootstrap(ctx, s)
	lookup.mu.Lock()
	lookup.roles[subject] = "TEACHER"
	lookup.mu.Unlock()

	out := c.Handle(ctx, Event{Kind: EventOther, Session: s})
	assert.Equal(t, RoleTeacher, out.State.Role)
	assert.Empty(t, out.Navigate)
}

// blockingLookup never answers until released, ignoring its context.
type blockingLookup struct {
	release chan struct{}
}

func (b *blockingLookup) RoleBySubject(context.Context, uuid.UUID) (string, bool, error) {
	<-b.release
	return "ADMIN", true, nil
}

func TestContext_HangingLookupResolvesAfterTimeout(t *testing.T) {
	lookup := &blockingLookup{release: make(chan struct{})}
	defer close(lookup.release)

	r := NewResolver(lookup, ResolverConfig{LookupTimeout: 50 * time.Millisecond}, zerolog.New(io.Discard))
	c := NewContext(r)

	start := time.Now()
	out := c.Handle(context.Background(), Event{Kind: EventSignedIn, Session: &Session{SubjectID: uuid.New()}})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second)
	assert.False(t, out.State.Loading)
	assert.False(t, c.State().Loading)
	assert.Equal(t, RoleNone, out.State.Role)
	assert.Equal(t, KindUnauthorized, out.Result.Kind)
	assert.ErrorIs(t, out.Result.Err, context.DeadlineExceeded)
	assert.Equal(t, FallbackSignInPath, out.Navigate)
	require.NotEmpty(t, out.Notices)
	assert.Equal(t, Notice{Level: NoticeError, Message: "Failed to load user role."}, out.Notices[0])

	boot := NewContext(r).Bootstrap(context.Background(), &Session{SubjectID: uuid.New()})
	assert.False(t, boot.State.Loading)
	assert.Empty(t, boot.Navigate)
}
