package brochure

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// SessionPool hands out renderer sessions to concurrent workers.
// Each session owns its own browser, so sessions render in parallel.
// Sessions are opened lazily on first acquire: a run where every artifact
// already exists never starts a browser.
type SessionPool struct {
	launcher Launcher
	size     int
	sessions []Session
	sem      chan Session
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewSessionPool creates a pool with capacity for n sessions.
func NewSessionPool(launcher Launcher, n int) *SessionPool {
	if n < 1 {
		n = 1
	}

	return &SessionPool{
		launcher: launcher,
		size:     n,
		sessions: make([]Session, 0, n),
		sem:      make(chan Session, n),
	}
}

// Acquire gets a session from the pool, opening one if capacity remains.
// Blocks until a session is released or ctx is done.
func (p *SessionPool) Acquire(ctx context.Context) (Session, error) {
	// Try to get an idle session (non-blocking)
	select {
	case s, ok := <-p.sem:
		if !ok {
			return nil, ErrSessionClosed
		}
		return s, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Launch outside the lock: starting a browser takes seconds.
		s, err := p.launcher.Open(ctx)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = s.Close()
			return nil, ErrSessionClosed
		}
		p.sessions = append(p.sessions, s)
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	select {
	case s, ok := <-p.sem:
		if !ok {
			return nil, ErrSessionClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool.
// The channel holds every session the pool ever opened, so the send never
// blocks and is safe under the lock.
func (p *SessionPool) Release(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- s
}

// Close closes every session the pool opened.
// Returns an aggregated error if several sessions fail to close.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	sessions := p.sessions
	p.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *SessionPool) Size() int {
	return p.size
}

// Opened returns how many sessions the pool has opened so far.
func (p *SessionPool) Opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// ResolvePoolSize determines the worker count.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
