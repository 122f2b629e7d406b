// Package viewstate keeps a data view fresh under concurrent refreshes.
//
// Every refresh takes a generation from a monotonic counter and cancels the
// fetch it supersedes. A result is committed only while its generation is the
// latest one, so a slow response can never overwrite a newer one.
package viewstate

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is reported by Refresh once the view has been closed.
var ErrClosed = errors.New("view closed")

// FetchFunc loads the view's data. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the last committed state of a view.
type Snapshot[T any] struct {
	Generation uint64
	Value      T
	Err        error
}

// View holds the latest committed snapshot of a fetch.
type View[T any] struct {
	fetch    FetchFunc[T]
	onCommit func(Snapshot[T])

	mu         sync.Mutex
	lifetime   context.Context
	stop       context.CancelFunc
	generation uint64
	inflight   context.CancelFunc
	current    Snapshot[T]
	notify     chan struct{}
	wg         sync.WaitGroup

	// hookMu serializes onCommit calls; delivered is the newest generation
	// handed to the hook, so hooks never see generations out of order.
	hookMu    sync.Mutex
	delivered uint64
}

// Option configures a View.
type Option[T any] func(*View[T])

// WithOnCommit registers a callback run after committed snapshots. Calls are
// serialized and see increasing generations; a snapshot overtaken by a newer
// delivery is skipped.
func WithOnCommit[T any](fn func(Snapshot[T])) Option[T] {
	return func(v *View[T]) { v.onCommit = fn }
}

// New creates a view whose lifetime is bound to parent.
func New[T any](parent context.Context, fetch FetchFunc[T], opts ...Option[T]) *View[T] {
	lifetime, stop := context.WithCancel(parent)
	v := &View[T]{
		fetch:    fetch,
		lifetime: lifetime,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Refresh starts a new fetch and returns its generation. The previous
// in-flight fetch, if any, is cancelled.
func (v *View[T]) Refresh() (uint64, error) {
	v.mu.Lock()
	if v.lifetime.Err() != nil {
		v.mu.Unlock()
		return 0, ErrClosed
	}
	if v.inflight != nil {
		v.inflight()
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(v.lifetime)
	v.inflight = cancel
	v.wg.Add(1)
	v.mu.Unlock()

	go v.run(ctx, cancel, gen)
	return gen, nil
}

// Load runs a fetch synchronously and returns the snapshot it produced, or the
// current snapshot when a newer refresh overtook it.
func (v *View[T]) Load(ctx context.Context) (Snapshot[T], error) {
	gen, err := v.Refresh()
	if err != nil {
		return Snapshot[T]{}, err
	}
	return v.Wait(ctx, gen)
}

// Wait blocks until a snapshot of at least gen has been committed.
func (v *View[T]) Wait(ctx context.Context, gen uint64) (Snapshot[T], error) {
	for {
		v.mu.Lock()
		snap := v.current
		if snap.Generation >= gen {
			v.mu.Unlock()
			return snap, nil
		}
		if v.notify == nil {
			v.notify = make(chan struct{})
		}
		changed := v.notify
		v.mu.Unlock()

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-v.lifetime.Done():
			return snap, ErrClosed
		case <-changed:
		}
	}
}

// Current returns the latest committed snapshot.
func (v *View[T]) Current() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Generation returns the latest generation handed out by Refresh.
func (v *View[T]) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// Close cancels any in-flight fetch and waits for it to return. Later
// refreshes fail with ErrClosed.
func (v *View[T]) Close() {
	v.stop()
	v.wg.Wait()
}

func (v *View[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer v.wg.Done()
	defer cancel()

	value, err := v.fetch(ctx)

	v.mu.Lock()
	if gen != v.generation || v.lifetime.Err() != nil {
		v.mu.Unlock()
		return
	}
	if ctx.Err() != nil && err == nil {
		err = ctx.Err()
	}
	v.current = Snapshot[T]{Generation: gen, Value: value, Err: err}
	v.inflight = nil
	snap := v.current
	hook := v.onCommit
	if v.notify != nil {
		close(v.notify)
		v.notify = nil
	}
	v.mu.Unlock()

	if hook != nil {
		v.deliver(hook, snap)
	}
}

func (v *View[T]) deliver(hook func(Snapshot[T]), snap Snapshot[T]) {
	v.hookMu.Lock()
	defer v.hookMu.Unlock()
	if snap.Generation <= v.delivered {
		return
	}
	v.delivered = snap.Generation
	hook(snap)
}
