package breaker

import (
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPassesThroughResults(t *testing.T) {
	cb := New("test", Config{}, zerolog.New(io.Discard))

	v, err := Run(cb, func() (string, error) { return "ADMIN", nil })
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", v)

	boom := errors.New("boom")
	_, err = Run(cb, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", Config{ConsecutiveFailures: 2}, zerolog.New(io.Discard))
	boom := errors.New("db down")

	for i := 0; i < 2; i++ {
		_, err := Run(cb, func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := Run(cb, func() (int, error) { called = true; return 1, nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}
