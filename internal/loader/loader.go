// Package loader runs item queries off the caller's goroutine and keeps
// watched results fresh. A Manager owns a fixed pool of workers; Submit
// returns a future, Watch reloads whenever the watched address changes.
package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// DefaultWorkers is the pool size used when no WithWorkers option is given.
const DefaultWorkers = 2

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("loader: manager closed")

// Result is the outcome of one load.
type Result struct {
	Items []types.Item
	Err   error
}

// job is one query waiting for a worker.
type job struct {
	ctx  context.Context
	addr types.Address
	q    types.Query
	out  chan<- Result
}

// watch is a live Watch registration.
type watch struct {
	id      string
	cancel  context.CancelFunc
	stop    func()
	changes chan struct{}
}

// Manager schedules loads on a worker pool.
type Manager struct {
	repo    types.Repository
	log     *zap.Logger
	workers int

	jobs chan job
	stop chan struct{}

	mu      sync.Mutex
	closed  bool
	watches map[string]*watch

	workerWG sync.WaitGroup
	watchWG  sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkers sets the number of worker goroutines. Values below 1 are
// ignored.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager starts the worker pool over repo.
func NewManager(repo types.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:    repo,
		log:     zap.NewNop(),
		workers: DefaultWorkers,
		jobs:    make(chan job),
		stop:    make(chan struct{}),
		watches: make(map[string]*watch),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.workerWG.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.work()
	}
	return m
}

func (m *Manager) work() {
	defer m.workerWG.Done()
	for {
		select {
		case <-m.stop:
			return
		case j := <-m.jobs:
			j.out <- m.load(j.ctx, j.addr, j.q)
		}
	}
}

// load runs the query and drains the cursor.
func (m *Manager) load(ctx context.Context, addr types.Address, q types.Query) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	c, err := m.repo.Query(ctx, addr, q)
	if err != nil {
		m.log.Debug("load failed", zap.String("address", addr.String()), zap.Error(err))
		return Result{Err: err}
	}
	items, err := types.Collect(c)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Items: items}
}

// Submit queues a query. The returned channel receives exactly one Result.
func (m *Manager) Submit(ctx context.Context, addr types.Address, q types.Query) <-chan Result {
	out := make(chan Result, 1)
	select {
	case m.jobs <- job{ctx: ctx, addr: addr, q: q, out: out}:
	case <-ctx.Done():
		out <- Result{Err: ctx.Err()}
	case <-m.stop:
		out <- Result{Err: ErrClosed}
	}
	return out
}

// Watch loads addr once, then reloads after every change at addr or one of
// its records, calling fn with each result. fn runs on a goroutine owned by
// the watch, never concurrently with itself. The watch ends on Cancel,
// Close, or when ctx is done.
func (m *Manager) Watch(ctx context.Context, addr types.Address, q types.Query, fn func(Result)) (string, error) {
	if fn == nil {
		return "", errors.New("loader: watch callback is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &watch{
		id:      id.String(),
		cancel:  cancel,
		changes: make(chan struct{}, 1),
	}

	// Observe before the first load so no change falls between them.
	stop, err := m.repo.Observe(addr, true, func(types.Address) {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		cancel()
		return "", err
	}
	w.stop = stop

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		stop()
		cancel()
		return "", ErrClosed
	}
	m.watches[w.id] = w
	m.watchWG.Add(1)
	m.mu.Unlock()

	m.log.Debug("watch started", zap.String("watch", w.id), zap.String("address", addr.String()))
	go m.run(wctx, w, addr, q, fn)
	return w.id, nil
}

func (m *Manager) run(ctx context.Context, w *watch, addr types.Address, q types.Query, fn func(Result)) {
	defer m.watchWG.Done()
	defer m.remove(w.id)

	for {
		res := <-m.Submit(ctx, addr, q)
		if ctx.Err() != nil || errors.Is(res.Err, ErrClosed) {
			return
		}
		fn(res)

		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-w.changes:
		}
	}
}

// Cancel stops the watch with the given id. It reports whether the watch
// was still running.
func (m *Manager) Cancel(id string) bool {
	w := m.remove(id)
	if w == nil {
		return false
	}
	m.log.Debug("watch canceled", zap.String("watch", id))
	return true
}

// remove unregisters a watch and cancels its context.
func (m *Manager) remove(id string) *watch {
	m.mu.Lock()
	w, ok := m.watches[id]
	delete(m.watches, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	w.stop()
	w.cancel()
	return w
}

// Watches returns the number of running watches.
func (m *Manager) Watches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// Close cancels every watch, stops the workers and waits for them to exit.
// Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ids := make([]string, 0, len(m.watches))
	for id := range m.watches {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.remove(id)
	}
	close(m.stop)
	m.watchWG.Wait()
	m.workerWG.Wait()
}
