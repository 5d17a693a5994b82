// Package pool shares one lazily opened resource between concurrent users
// and closes it once nobody has used it for a while.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("pool: closed")

type Pool[T any] struct {
	open  func(ctx context.Context) (T, error)
	close func(T) error
	idle  time.Duration
	log   *zap.SugaredLogger

	mu     sync.Mutex
	value  T
	opened bool
	refs   int
	gen    uint64
	timer  *time.Timer
	closed bool
}

type Option func(*options)

type options struct {
	log *zap.SugaredLogger
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// New returns a pool that opens its resource on first Acquire. Once the last
// handle is released the resource is closed after idle; an idle of zero
// closes it immediately.
func New[T any](open func(ctx context.Context) (T, error), close func(T) error, idle time.Duration, opts ...Option) *Pool[T] {
	o := options{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool[T]{open: open, close: close, idle: idle, log: o.log}
}

// Handle is one user's reference to the shared resource.
type Handle[T any] struct {
	pool  *Pool[T]
	value T
	once  sync.Once
}

func (h *Handle[T]) Value() T { return h.value }

// Release gives the reference back. Calls after the first are no-ops.
func (h *Handle[T]) Release() {
	h.once.Do(h.pool.release)
}

func (p *Pool[T]) Acquire(ctx context.Context) (*Handle[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	if !p.opened {
		v, err := p.open(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "pool: open")
		}
		p.value = v
		p.opened = true
		p.log.Debugw("resource opened")
	}

	p.refs++
	p.gen++
	return &Handle[T]{pool: p, value: p.value}, nil
}

func (p *Pool[T]) release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.refs--
	if p.refs > 0 {
		return
	}

	if p.closed || p.idle <= 0 {
		p.teardown()
		return
	}

	gen := p.gen
	p.timer = time.AfterFunc(p.idle, func() { p.expire(gen) })
}

func (p *Pool[T]) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// a newer Acquire since the timer was armed owns the resource now
	if gen != p.gen || p.refs > 0 {
		return
	}
	p.timer = nil
	p.teardown()
}

// teardown closes the resource. The caller holds mu.
func (p *Pool[T]) teardown() error {
	if !p.opened {
		return nil
	}
	var zero T
	err := p.close(p.value)
	p.value = zero
	p.opened = false
	if err != nil {
		p.log.Warnw("closing resource failed", "error", err)
	} else {
		p.log.Debugw("resource closed")
	}
	return err
}

// Open reports whether the resource is currently open.
func (p *Pool[T]) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

// Close stops new acquires. The resource is closed now if unused, otherwise
// when the last handle is released.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.refs > 0 {
		return nil
	}
	return errors.Wrap(p.teardown(), "pool: close")
}
