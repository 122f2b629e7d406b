package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Get(ctx, "role:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "role:1", "ADMIN", time.Minute))
	v, err := s.Get(ctx, "role:1")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", v)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "role:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, s.Ping(ctx))
}
