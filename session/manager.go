package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/cep21/circuit/v3"
	"github.com/oklog/ulid/v2"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/seq-view/circuitbreaker"
	"github.com/ozontech/seq-view/logger"
	"github.com/ozontech/seq-view/metric/stopwatch"
	"github.com/ozontech/seq-view/sparse"
	"github.com/ozontech/seq-view/tracing"
	"github.com/ozontech/seq-view/util"
	"github.com/ozontech/seq-view/view"
)

var (
	// ErrStopped is returned by operations on a stopped manager.
	ErrStopped = errors.New("session manager is stopped")
	// ErrNotFound is returned when the session id is not registered.
	ErrNotFound = errors.New("session not found")
)

type task[T any] struct {
	sess *Session[T]
	r    view.Range

	sw   *stopwatch.Stopwatch
	wait stopwatch.Metric
}

// Manager owns the session registry, the fetch worker pool and the
// maintenance loop. One manager serves sessions of one record type against
// any number of sources.
type Manager[T any] struct {
	config  Config
	breaker *circuitbreaker.CircuitBreaker

	mu       sync.RWMutex
	sessions map[string]*Session[T]
	stopped  bool

	// ulidEntropy is the source for session ids, guarded by mu
	ulidEntropy io.Reader

	fetchCh chan *task[T]

	ctx    context.Context
	stopFn context.CancelFunc

	workersWG sync.WaitGroup
	mntcWG    sync.WaitGroup
}

func NewManager[T any](config Config) *Manager[T] {
	FillConfigWithDefault(&config)

	m := &Manager[T]{
		config:      config,
		breaker:     circuitbreaker.New(config.Name, config.Breaker),
		sessions:    make(map[string]*Session[T]),
		ulidEntropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		fetchCh:     make(chan *task[T], config.FetchWorkers*2),
	}
	m.ctx, m.stopFn = context.WithCancel(context.Background())

	m.workersWG.Add(config.FetchWorkers)
	for i := 0; i < config.FetchWorkers; i++ {
		go m.runWorker()
	}
	m.runMaintenanceLoop()

	logger.Info("session manager started",
		zap.String("name", config.Name),
		zap.Int("fetch_workers", config.FetchWorkers),
		zap.Int("max_fetch_batch", config.MaxFetchBatch),
		zap.Duration("idle_ttl", config.IdleTTL))
	return m
}

// Open registers a session over a dataset of the given logical length with
// no resident records.
func (m *Manager[T]) Open(source Source[T], length int) (*Session[T], error) {
	return m.open(source, sparse.WithLength[T](length))
}

// OpenPrefilled registers a session whose container already holds every
// record of the dataset. Useful for datasets small enough to load in one
// shot: the planner has nothing to propose for them.
func (m *Manager[T]) OpenPrefilled(source Source[T], records []T) (*Session[T], error) {
	return m.open(source, sparse.FromSlice(records))
}

func (m *Manager[T]) open(source Source[T], data *sparse.Slice[T]) (*Session[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, ErrStopped
	}

	ctx, cancel := context.WithCancel(m.ctx)
	s := &Session[T]{
		id:     m.nextSessionID(),
		source: source,
		mgr:    m,
		ctx:    ctx,
		cancel: cancel,
		data:   data,
	}
	s.touch()
	m.sessions[s.id] = s

	sessionsOpenedTotal.Inc()
	sessionsActive.Set(float64(len(m.sessions)))
	logger.Info("session opened",
		zap.String("session", s.id),
		zap.Int("length", data.Len()),
		zap.Int("resident", data.Resident()))
	return s, nil
}

// nextSessionID generates the next ULID.
// This method is not thread safe. Use consciously to avoid race.
func (m *Manager[T]) nextSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.ulidEntropy).String()
}

func (m *Manager[T]) Get(id string) (*Session[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close unregisters the session and cancels its in-flight loads.
func (m *Manager[T]) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		sessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	logger.Info("session closed", zap.String("session", id))
	return s.close()
}

// Stop shuts down the workers and the maintenance loop, then closes every
// registered session.
func (m *Manager[T]) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	sessions := make([]*Session[T], 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session[T])
	m.mu.Unlock()

	m.stopFn()
	m.workersWG.Wait()
	m.mntcWG.Wait()

	closeErrs := make([]error, 0, len(sessions))
	for _, s := range sessions {
		closeErrs = append(closeErrs, s.close())
	}

	sessionsActive.Set(0)
	logger.Info("session manager stopped", zap.Int("sessions", len(sessions)))
	return multierr.Combine(closeErrs...)
}

// dispatch queues a reserved range for loading. The reservation is rolled
// back if the caller gives up or the manager goes down before a worker
// takes the task.
func (m *Manager[T]) dispatch(ctx context.Context, s *Session[T], r view.Range) {
	t := newTask(s, r)

	select {
	case m.fetchCh <- t:
	case <-ctx.Done():
		s.abandon(r)
	case <-s.ctx.Done():
		s.abandon(r)
	case <-m.ctx.Done():
		s.abandon(r)
	}
}

// dispatchAsync queues without blocking. Worker goroutines replan through
// here: a worker stuck sending while every other worker sends too would
// deadlock the pool. On a full queue the reservation is dropped, the next
// view change replans.
func (m *Manager[T]) dispatchAsync(s *Session[T], r view.Range) {
	select {
	case m.fetchCh <- newTask(s, r):
	default:
		s.abandon(r)
		logger.Warn("fetch queue is full, dropping prefetch",
			zap.String("session", s.id),
			zap.Stringer("range", r))
	}
}

func newTask[T any](s *Session[T], r view.Range) *task[T] {
	t := &task[T]{sess: s, r: r, sw: stopwatch.New()}
	t.wait = t.sw.Start("wait")
	return t
}

func (m *Manager[T]) runWorker() {
	defer m.workersWG.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case t := <-m.fetchCh:
			m.process(t)
		}
	}
}

func (m *Manager[T]) process(t *task[T]) {
	t.wait.Stop()
	fetchesTotal.Inc()

	s := t.sess

	var (
		records []T
		err     error
	)
	if util.IsCancelled(s.ctx) {
		err = s.ctx.Err()
	} else {
		w := t.sw.Start("load")
		records, err = m.load(s, t.r)
		w.Stop()
	}

	w := t.sw.Start("deliver")
	s.deliver(t.r, records, err)
	w.Stop()

	t.sw.Export(fetchStagesSeconds)
}

// load runs one Source.Load behind the circuit breaker, bounded by
// LoadTimeout and traced as one span. A panic inside the source surfaces
// as an error and counts towards the breaker failure rate.
func (m *Manager[T]) load(s *Session[T], r view.Range) ([]T, error) {
	ctx, cancel := context.WithTimeout(s.ctx, m.config.LoadTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "session-manager/Load")
	defer span.End()
	if span.IsRecordingEvents() {
		span.AddAttributes(
			trace.StringAttribute("session", s.id),
			trace.StringAttribute("range", r.String()),
			trace.Int64Attribute("count", int64(r.Len())),
		)
	}

	var records []T
	err := m.breaker.Execute(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if recovered := util.RecoverToError(recover(), loadPanicsTotal); recovered != nil {
				err = recovered
			}
		}()
		records, err = s.source.Load(ctx, r)
		return err
	})
	if err != nil {
		span.SetStatus(trace.Status{Code: 1, Message: err.Error()})
		return nil, err
	}
	return records, nil
}

func isOpenCircuitBreakerError(err error) bool {
	var circuitBreakerErr circuit.Error
	return errors.As(err, &circuitBreakerErr) && circuitBreakerErr.CircuitOpen()
}

func (m *Manager[T]) runMaintenanceLoop() {
	m.mntcWG.Add(1)
	go func() {
		defer m.mntcWG.Done()
		util.RunEvery(m.ctx.Done(), m.config.MaintenanceDelay, func() {
			m.maintenance()
		})
	}()
}

// maintenance expires sessions idle longer than IdleTTL and refreshes the
// residency gauges. Expired sessions are closed before they leave the
// registry, a session Get cannot find is already unusable.
func (m *Manager[T]) maintenance() {
	deadline := time.Now().Add(-m.config.IdleTTL).UnixNano()

	var expired []string
	var alive []*Session[T]
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.lastSeen.Load() < deadline {
			delete(m.sessions, id)
			_ = s.close()
			expired = append(expired, id)
			continue
		}
		alive = append(alive, s)
	}
	m.mu.Unlock()

	for _, id := range expired {
		sessionsExpiredTotal.Inc()
		logger.Info("session expired",
			zap.String("session", id),
			zap.Duration("idle_ttl", m.config.IdleTTL))
	}

	resident := 0
	for _, s := range alive {
		resident += s.snapshotStats().Resident
	}
	sessionsActive.Set(float64(len(alive)))
	docsResident.Set(float64(resident))
}
