// File: internal/browser/pool.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed set of Managers, one per parallel worker. Each worker owns
// its own browser process; workers share nothing.
type Pool struct {
	managers []*Manager
	free     chan *Manager

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewPool builds size managers with factory, which receives the worker index.
func NewPool(size int, factory func(worker int) *Manager) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	p := &Pool{
		managers: make([]*Manager, 0, size),
		free:     make(chan *Manager, size),
		done:     make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		m := factory(i)
		p.managers = append(p.managers, m)
		p.free <- m
	}
	return p, nil
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.managers) }

// Lease is one checkout of a worker. Release returns the worker exactly
// once no matter how often it is called.
type Lease struct {
	pool *Pool
	m    *Manager
	once sync.Once
}

// Manager is the leased worker.
func (l *Lease) Manager() *Manager { return l.m }

// Release returns the worker to the pool. Call it only after the worker's
// session has been closed.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() { l.pool.free <- l.m })
}

// Acquire blocks until a worker is free, ctx is done, or the pool shuts down.
// A done ctx wins over a free worker.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("waiting for a free worker: %w", err)
	}
	select {
	case m := <-p.free:
		return &Lease{pool: p, m: m}, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a free worker: %w", ctx.Err())
	}
}

// Shutdown closes every worker concurrently and returns their errors joined.
// It is safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, m := range p.managers {
		g.Go(func() error {
			if err := m.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("worker %s: %w", m.ID(), err))
				mu.Unlock()
			}
			// Returning nil keeps every worker's shutdown running.
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
