// Package lock provides a context-aware single-slot lock.
package lock

import (
	"context"
	"sync"
)

// Lock admits one holder at a time. Waiters block on the current holder's
// done channel and, once it closes, retry acquisition from the start; no
// ordering between waiters is promised.
type Lock struct {
	name string

	mu     sync.Mutex
	locked bool
	done   chan struct{}
}

func New(name string) *Lock {
	return &Lock{name: name}
}

func (l *Lock) Name() string { return l.name }

// TryAcquire takes the lock if it is free right now.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return false
	}
	l.locked = true
	l.done = make(chan struct{})
	return true
}

// Acquire blocks until the lock is taken or ctx ends, in which case the
// context's cause is returned.
func (l *Lock) Acquire(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		l.mu.Lock()
		if !l.locked {
			l.locked = true
			l.done = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		done := l.done
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// Release frees the lock and wakes every waiter. Releasing a free lock
// panics.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		panic("lock: release of unlocked lock " + l.name)
	}
	l.locked = false
	close(l.done)
	l.done = nil
}

// Run holds the lock for the duration of fn. If ctx is cancelled while fn
// runs, the cancellation cause is returned once fn has finished.
func (l *Lock) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()

	return finish(ctx, fn(ctx))
}

// RunIfAvailable runs fn only when the lock is free, reporting whether it ran.
func (l *Lock) RunIfAvailable(ctx context.Context, fn func(context.Context) error) (bool, error) {
	if ctx.Err() != nil {
		return false, context.Cause(ctx)
	}
	if !l.TryAcquire() {
		return false, nil
	}
	defer l.Release()

	return true, finish(ctx, fn(ctx))
}

func finish(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}
