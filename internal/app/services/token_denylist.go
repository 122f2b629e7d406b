package services

import (
	"context"
	"errors"
	"time"

	"github.com/yigit/collegeerp/internal/pkg/cache"
)

const revokedTokenPrefix = "revoked:"

// TokenDenyList remembers signed-out access tokens by their jti until they
// would have expired anyway.
type TokenDenyList struct {
	store cache.Store
	now   func() time.Time
}

// NewTokenDenyList creates a deny list on store.
func NewTokenDenyList(store cache.Store) *TokenDenyList {
	return &TokenDenyList{store: store, now: time.Now}
}

// Revoke denies jti until the given time.
func (d *TokenDenyList) Revoke(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.store.Set(ctx, revokedTokenPrefix+jti, "1", ttl)
}

// IsRevoked reports whether jti was signed out.
func (d *TokenDenyList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := d.store.Get(ctx, revokedTokenPrefix+jti)
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
