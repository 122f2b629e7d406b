package viewstate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCommitsValue(t *testing.T) {
	var n atomic.Int64
	v := New(context.Background(), func(ctx context.Context) (int64, error) {
		return n.Add(1), nil
	})
	defer v.Close()

	snap, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, int64(1), snap.Value)

	snap, err = v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, int64(2), snap.Value)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	v := New(context.Background(), func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			// the first fetch ignores cancellation and answers late
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})

	first, err := v.Refresh()
	require.NoError(t, err)
	<-started
	second, err := v.Refresh()
	require.NoError(t, err)
	require.Greater(t, second, first)

	snap, err := v.Wait(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "fresh", snap.Value)

	close(release)
	// give the stale fetch a chance to try to commit
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "fresh", v.Current().Value)
	assert.Equal(t, second, v.Current().Generation)
	v.Close()
}

func TestRefreshCancelsPreviousFetch(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	v := New(context.Background(), func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return 0, ctx.Err()
		}
		return 7, nil
	})
	defer v.Close()

	_, err := v.Refresh()
	require.NoError(t, err)
	<-started
	snap, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Value)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}
}

func TestCloseCancelsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool

	v := New(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return 0, ctx.Err()
	})

	_, err := v.Refresh()
	require.NoError(t, err)
	<-started

	v.Close()
	assert.True(t, sawCancel.Load())
	assert.Equal(t, uint64(0), v.Current().Generation)

	_, err = v.Refresh()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParentCancellationEndsLifetime(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	v := New(parent, func(ctx context.Context) (int, error) { return 1, nil })
	cancel()

	_, err := v.Refresh()
	assert.ErrorIs(t, err, ErrClosed)
	v.Close()
}

func TestOnCommitHook(t *testing.T) {
	got := make(chan Snapshot[string], 1)
	v := New(context.Background(),
		func(ctx context.Context) (string, error) { return "stats", nil },
		WithOnCommit(func(s Snapshot[string]) { got <- s }),
	)
	defer v.Close()

	_, err := v.Refresh()
	require.NoError(t, err)

	select {
	case s := <-got:
		assert.Equal(t, "stats", s.Value)
		assert.Equal(t, uint64(1), s.Generation)
	case <-time.After(time.Second):
		t.Fatal("commit hook not called")
	}
}

type generationLog struct {
	mu   sync.Mutex
	gens []uint64
}

func (l *generationLog) record(s Snapshot[int]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gens = append(l.gens, s.Generation)
}

func (l *generationLog) snapshot() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint64(nil), l.gens...)
}

func TestOnCommitHookNeverDeliversOlderGeneration(t *testing.T) {
	for i := 0; i < 50; i++ {
		var log generationLog
		var n atomic.Int64
		v := New(context.Background(),
			func(ctx context.Context) (int, error) { return int(n.Add(1)), nil },
			WithOnCommit(log.record),
		)

		// Both commits finish while delivery is held, so their hooks race.
		v.hookMu.Lock()
		_, err := v.Load(context.Background())
		require.NoError(t, err)
		_, err = v.Load(context.Background())
		require.NoError(t, err)
		v.hookMu.Unlock()
		v.Close()

		gens := log.snapshot()
		require.NotEmpty(t, gens)
		assert.Equal(t, uint64(2), gens[len(gens)-1])
		for j := 1; j < len(gens); j++ {
			assert.Less(t, gens[j-1], gens[j])
		}
	}
}

func TestOnCommitHookCallsAreSerialized(t *testing.T) {
	entered := make(chan uint64, 2)
	release := make(chan struct{})
	var log generationLog
	v := New(context.Background(),
		func(ctx context.Context) (int, error) { return 0, nil },
		WithOnCommit(func(s Snapshot[int]) {
			entered <- s.Generation
			if s.Generation == 1 {
				<-release
			}
			log.record(s)
		}),
	)

	_, err := v.Refresh()
	require.NoError(t, err)
	require.Equal(t, uint64(1), <-entered)

	_, err = v.Load(context.Background())
	require.NoError(t, err)

	select {
	case gen := <-entered:
		t.Fatalf("hook for generation %d ran while generation 1 was still delivering", gen)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	v.Close()
	assert.Equal(t, []uint64{1, 2}, log.snapshot())
}
