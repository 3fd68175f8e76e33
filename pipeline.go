package brochure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Marker applies a mark to every page of a document.
type Marker interface {
	Stamp(doc []byte) ([]byte, error)
}

var _ Marker = (*Stamper)(nil)

// Option configures a Pipeline.
type Option func(*pipelineConfig)

type pipelineConfig struct {
	force    bool
	timeout  time.Duration
	workers  int
	reporter func(Outcome)
	syncer   *Syncer
}

// WithForce re-renders entries whose artifact already exists.
func WithForce(force bool) Option {
	return func(c *pipelineConfig) {
		c.force = force
	}
}

// WithTimeout sets the per-entry navigation timeout.
// Panics if d <= 0.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("brochure: WithTimeout duration must be positive")
	}
	return func(c *pipelineConfig) {
		c.timeout = d
	}
}

// WithWorkers sets how many entries are processed concurrently, each
// worker with its own renderer session. Panics if n < 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic("brochure: WithWorkers count must be at least 1")
	}
	return func(c *pipelineConfig) {
		c.workers = n
	}
}

// WithReporter registers a callback invoked once per finished entry.
// Calls are serialized but arrive in completion order.
func WithReporter(fn func(Outcome)) Option {
	return func(c *pipelineConfig) {
		c.reporter = fn
	}
}

// WithSyncer enables remote sync. Without it every entry reports SyncSkipped.
func WithSyncer(s *Syncer) Option {
	return func(c *pipelineConfig) {
		c.syncer = s
	}
}

// Pipeline captures, stamps, stores, and syncs a list of entries.
type Pipeline struct {
	cfg      pipelineConfig
	launcher Launcher
	marker   Marker
	store    ArtifactStore

	reportMu sync.Mutex
}

// NewPipeline creates a Pipeline. Sessions are opened through launcher only
// when an entry actually needs rendering.
func NewPipeline(launcher Launcher, marker Marker, store ArtifactStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      pipelineConfig{timeout: DefaultRenderTimeout, workers: 1},
		launcher: launcher,
		marker:   marker,
		store:    store,
	}
	for _, opt := range opts {
		opt(&p.cfg)
	}
	if p.cfg.syncer == nil {
		p.cfg.syncer = NewSyncer(nil, "")
	}
	return p
}

// Run processes entries and returns one Outcome per entry, in input order.
// Per-entry failures are recorded in the outcomes and never stop the run.
// The returned error is non-nil only when no renderer session could be
// opened or ctx was canceled; entries not reached by then are reported as
// render failures carrying that error.
func (p *Pipeline) Run(ctx context.Context, entries []Entry) ([]Outcome, error) {
	outcomes := make([]Outcome, len(entries))
	if len(entries) == 0 {
		return outcomes, nil
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	workers := min(p.cfg.workers, len(entries))
	pool := NewSessionPool(p.launcher, workers)

	var (
		fatalOnce sync.Once
		fatal     error
		done      = make([]bool, len(entries))
		wg        sync.WaitGroup
		jobs      = make(chan int)
	)
	abort := func(err error) {
		fatalOnce.Do(func() {
			fatal = err
			cancel(err)
		})
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &worker{pool: pool, abort: abort}
			defer w.release()
			for i := range jobs {
				outcomes[i] = p.process(runCtx, entries[i], w)
				done[i] = true
				p.report(outcomes[i])
			}
		}()
	}

feed:
	for i := range entries {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	closeErr := pool.Close()

	runErr := fatal
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		for i, entry := range entries {
			if done[i] {
				continue
			}
			outcomes[i] = Outcome{
				Entry:   entry,
				Capture: CaptureRenderFailed,
				Sync:    SyncNotAttempted,
				Err:     &RenderFailure{Address: entry.Address, Cause: runErr},
			}
			p.report(outcomes[i])
		}
	}

	if closeErr != nil {
		runErr = errors.Join(runErr, fmt.Errorf("closing renderer: %w", closeErr))
	}
	return outcomes, runErr
}

// worker holds at most one session, acquired on first use.
type worker struct {
	pool    *SessionPool
	abort   func(error)
	session Session
}

func (w *worker) acquire(ctx context.Context) (Session, error) {
	if w.session != nil {
		return w.session, nil
	}
	s, err := w.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.abort(err)
		}
		return nil, err
	}
	w.session = s
	return s, nil
}

func (w *worker) release() {
	if w.session != nil {
		w.pool.Release(w.session)
		w.session = nil
	}
}

// process runs one entry through decide, render, stamp, write, and sync.
func (p *Pipeline) process(ctx context.Context, entry Entry, w *worker) (out Outcome) {
	start := time.Now()
	out = Outcome{Entry: entry, Sync: SyncNotAttempted}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error: %v", r)
			if out.Capture == "" {
				out.Capture = CaptureRenderFailed
				out.Err = &RenderFailure{Address: entry.Address, Cause: err}
			} else {
				out.Sync = SyncFailed
				out.SyncErr = &SyncFailure{Key: entry.Filename(), Cause: err}
			}
		}
		out.Duration = time.Since(start)
	}()

	if p.cfg.force || !p.store.Exists(entry.Key) {
		out.Capture, out.Err = p.capture(ctx, entry, w)
	} else {
		out.Capture = CaptureSkipped
	}

	if ctx.Err() != nil || !p.store.Exists(entry.Key) {
		return out
	}
	out.Sync, out.RemoteURL, out.SyncErr = p.syncArtifact(ctx, entry)
	return out
}

func (p *Pipeline) capture(ctx context.Context, entry Entry, w *worker) (CaptureStatus, error) {
	if err := ctx.Err(); err != nil {
		return CaptureRenderFailed, &RenderFailure{Address: entry.Address, Cause: context.Cause(ctx)}
	}

	session, err := w.acquire(ctx)
	if err != nil {
		return CaptureRenderFailed, &RenderFailure{Address: entry.Address, Cause: err}
	}

	doc, err := session.Render(ctx, entry.Address, p.cfg.timeout)
	if err != nil {
		var rf *RenderFailure
		if !errors.As(err, &rf) {
			err = &RenderFailure{Address: entry.Address, Cause: err}
		}
		return CaptureRenderFailed, err
	}

	stamped, err := p.marker.Stamp(doc)
	if err != nil {
		var sf *StampFailure
		if !errors.As(err, &sf) {
			err = &StampFailure{Cause: err}
		}
		return CaptureStampFailed, err
	}

	if err := p.store.Write(entry.Key, stamped); err != nil {
		return CaptureWriteFailed, err
	}
	return CaptureRendered, nil
}

func (p *Pipeline) syncArtifact(ctx context.Context, entry Entry) (SyncStatus, string, error) {
	syncer := p.cfg.syncer
	if !syncer.Enabled() {
		return SyncSkipped, "", nil
	}

	name := entry.Filename()
	data, err := p.store.Read(entry.Key)
	if err != nil {
		return SyncFailed, "", &SyncFailure{Key: name, Cause: err}
	}

	status, err := syncer.Sync(ctx, name, data, ContentTypePDF)
	if err != nil {
		return status, "", err
	}
	return status, syncer.PublicURL(name), nil
}

func (p *Pipeline) report(o Outcome) {
	if p.cfg.reporter == nil {
		return
	}
	p.reportMu.Lock()
	defer p.reportMu.Unlock()
	p.cfg.reporter(o)
}
