package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/yigit/collegeerp/internal/pkg/breaker"
	"github.com/yigit/collegeerp/internal/pkg/cache"
)

const (
	roleCachePrefix = "role:"
	// noProfileMarker caches the absence of a profile row.
	noProfileMarker = "-"
)

// RoleSource is the authoritative store of profile roles.
type RoleSource interface {
	RoleBySubject(ctx context.Context, subjectID uuid.UUID) (string, bool, error)
}

// LookupRecorder observes role lookups.
type LookupRecorder interface {
	RoleLookup(source, result string)
}

// CachedProfileLookup answers role lookups from a cache and falls back to the
// database through a circuit breaker. It satisfies session.ProfileLookup.
type CachedProfileLookup struct {
	source   RoleSource
	store    cache.Store
	ttl      time.Duration
	cb       *gobreaker.CircuitBreaker
	recorder LookupRecorder
	logger   zerolog.Logger
}

// NewCachedProfileLookup creates a lookup caching results for ttl. recorder may
// be nil.
func NewCachedProfileLookup(source RoleSource, store cache.Store, ttl time.Duration, cb *gobreaker.CircuitBreaker, recorder LookupRecorder, logger zerolog.Logger) *CachedProfileLookup {
	return &CachedProfileLookup{
		source:   source,
		store:    store,
		ttl:      ttl,
		cb:       cb,
		recorder: recorder,
		logger:   logger,
	}
}

type roleLookup struct {
	role  string
	found bool
}

// RoleBySubject returns the raw role stored on the subject's profile.
func (l *CachedProfileLookup) RoleBySubject(ctx context.Context, subjectID uuid.UUID) (string, bool, error) {
	key := roleCachePrefix + subjectID.String()

	cached, err := l.store.Get(ctx, key)
	switch {
	case err == nil:
		l.record("cache", "hit")
		if cached == noProfileMarker {
			return "", false, nil
		}
		return cached, true, nil
	case !errors.Is(err, cache.ErrMiss):
		l.logger.Warn().Err(err).Str("subjectID", subjectID.String()).Msg("Role cache read failed, falling back to database")
	}

	res, err := breaker.Run(l.cb, func() (roleLookup, error) {
		role, found, err := l.source.RoleBySubject(ctx, subjectID)
		return roleLookup{role: role, found: found}, err
	})
	if err != nil {
		l.record("db", "error")
		return "", false, err
	}

	value := res.role
	if !res.found {
		value = noProfileMarker
		l.record("db", "not_found")
	} else {
		l.record("db", "found")
	}
	if err := l.store.Set(ctx, key, value, l.ttl); err != nil {
		l.logger.Warn().Err(err).Str("subjectID", subjectID.String()).Msg("Failed to cache profile role")
	}
	return res.role, res.found, nil
}

// Invalidate drops the cached role of subjectID.
func (l *CachedProfileLookup) Invalidate(ctx context.Context, subjectID uuid.UUID) error {
	return l.store.Delete(ctx, roleCachePrefix+subjectID.String())
}

func (l *CachedProfileLookup) record(source, result string) {
	if l.recorder != nil {
		l.recorder.RoleLookup(source, result)
	}
}
