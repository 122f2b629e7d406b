package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProfileLookup fetches the raw role of the profile keyed by a subject id.
// found is false when no profile row exists.
type ProfileLookup interface {
	RoleBySubject(ctx context.Context, subjectID uuid.UUID) (role string, found bool, err error)
}

// ResultKind discriminates the outcome of ResolveSession.
type ResultKind int

const (
	KindAnonymous ResultKind = iota
	KindAuthorized
	KindUnauthorized
)

func (k ResultKind) String() string {
	switch k {
	case KindAuthorized:
		return "authorized"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "anonymous"
	}
}

// MarshalText encodes the kind by name.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the discriminated resolution of a session.
// Role is only meaningful for KindAuthorized. Err records a lookup failure;
// it is informational and never escapes as a returned error.
type Result struct {
	Kind ResultKind `json:"kind"`
	Role Role       `json:"role,omitempty"`
	Err  error      `json:"-"`
}

// Anonymous, Authorized and Unauthorized build the three result shapes.
func Anonymous() Result { return Result{Kind: KindAnonymous} }

func Authorized(role Role) Result { return Result{Kind: KindAuthorized, Role: role} }

func Unauthorized(err error) Result { return Result{Kind: KindUnauthorized, Err: err} }

// ResolverConfig tunes a Resolver.
type ResolverConfig struct {
	// LookupTimeout bounds the profile lookup. Zero means 5s.
	LookupTimeout time.Duration
}

// Resolver derives a Result from a Session by looking up the profile role.
type Resolver struct {
	lookup  ProfileLookup
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup ProfileLookup, cfg ResolverConfig, logger zerolog.Logger) *Resolver {
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		lookup:  lookup,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// ResolveSession resolves s into anonymous, authorized(role) or unauthorized.
// It has no side effects besides the lookup and is safe to call repeatedly.
func (r *Resolver) ResolveSession(ctx context.Context, s *Session) Result {
	if s == nil || s.SubjectID == uuid.Nil || s.Expired(r.now()) {
		return Anonymous()
	}

	raw, found, err := r.lookupRole(ctx, s.SubjectID)
	if err != nil {
		r.logger.Error().Err(err).Str("subjectID", s.SubjectID.String()).Msg("Error fetching user profile role")
		return Unauthorized(err)
	}
	if !found {
		return Unauthorized(nil)
	}

	role := ParseRole(raw)
	if role == RoleNone {
		r.logger.Warn().Str("subjectID", s.SubjectID.String()).Str("role", raw).Msg("Profile carries an unknown role, treating as none")
		return Unauthorized(nil)
	}
	return Authorized(role)
}

type roleLookup struct {
	raw   string
	found bool
	err   error
}

// lookupRole runs the profile lookup bounded by the resolver timeout. It
// returns on expiry even when the lookup ignores its context.
func (r *Resolver) lookupRole(ctx context.Context, subjectID uuid.UUID) (string, bool, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan roleLookup, 1)
	go func() {
		raw, found, err := r.lookup.RoleBySubject(lookupCtx, subjectID)
		done <- roleLookup{raw: raw, found: found, err: err}
	}()

	select {
	case res := <-done:
		return res.raw, res.found, res.err
	case <-lookupCtx.Done():
		return "", false, lookupCtx.Err()
	}
}
