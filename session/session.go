// Package session owns sparse containers for the lifetime of a scrolling
// view: it validates visible ranges, plans prefetches, runs loads on a
// worker pool behind a circuit breaker and merges the results back in.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ozontech/seq-view/logger"
	"github.com/ozontech/seq-view/prefetch"
	"github.com/ozontech/seq-view/sparse"
	"github.com/ozontech/seq-view/view"
)

var (
	// ErrBadView is returned when a requested range does not fit the container.
	ErrBadView = errors.New("view is out of bounds")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session is closed")
)

// Source loads records of a dataset by position range.
//
// Load runs on manager worker goroutines, implementations must be safe for
// concurrent use. A result shorter than r.Len() is accepted and inserted as
// the leading part of the range; a longer one is truncated.
type Source[T any] interface {
	Load(ctx context.Context, r view.Range) ([]T, error)
}

// Stats is a point-in-time snapshot of session state.
type Stats struct {
	Length   int
	Resident int
	Blocks   int
	Pending  int

	ViewsSet    uint64
	Fetches     uint64
	FetchErrors uint64
}

// Session is one scrollable view over one dataset. It owns the sparse
// container, the current visible range and the set of in-flight fetches,
// and serializes access to them with a single mutex.
//
// Sessions are created by a Manager and stay registered there until closed
// explicitly or expired by the maintenance loop.
type Session[T any] struct {
	id     string
	source Source[T]
	mgr    *Manager[T]

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	data    *sparse.Slice[T]
	current view.Range
	pending prefetch.Pending
	closed  bool

	viewsSet    uint64
	fetches     uint64
	fetchErrors uint64

	lastSeen atomic.Int64 // unixnano of the last caller interaction
}

func (s *Session[T]) ID() string {
	return s.id
}

// SetView records r as the visible range and dispatches at most one fetch,
// for the longest run of absent records around it. An empty range is legal
// and plans nothing.
func (s *Session[T]) SetView(ctx context.Context, r view.Range) error {
	s.touch()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", s.id, ErrClosed)
	}
	if err := s.checkBoundsLocked(r); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = r
	s.viewsSet++
	req, ok := s.planLocked()
	s.mu.Unlock()

	if ok {
		s.mgr.dispatch(ctx, s, req)
	}
	return nil
}

// Rows returns exactly r.Len() entries, nil at positions not resident yet.
// The returned pointers stay valid for the session lifetime: block contents
// are never moved or overwritten once inserted.
func (s *Session[T]) Rows(r view.Range) ([]*T, error) {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session %s: %w", s.id, ErrClosed)
	}
	if err := s.checkBoundsLocked(r); err != nil {
		return nil, err
	}

	rows := make([]*T, 0, r.Len())
	it := s.data.IterRange(r)
	for record, ok := it.Next(); ok; record, ok = it.Next() {
		rows = append(rows, record)
	}
	return rows, nil
}

func (s *Session[T]) Stats() Stats {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session[T]) statsLocked() Stats {
	return Stats{
		Length:      s.data.Len(),
		Resident:    s.data.Resident(),
		Blocks:      s.data.Blocks(),
		Pending:     s.pending.Len(),
		ViewsSet:    s.viewsSet,
		Fetches:     s.fetches,
		FetchErrors: s.fetchErrors,
	}
}

// snapshotStats is statsLocked for the maintenance loop: unlike Stats it
// does not refresh the idle timestamp.
func (s *Session[T]) snapshotStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session[T]) checkBoundsLocked(r view.Range) error {
	if r.Start < 0 || r.Start > r.End || r.End > s.data.Len() {
		return fmt.Errorf("range %s of container [0, %d): %w", r, s.data.Len(), ErrBadView)
	}
	return nil
}

// planLocked picks the next range to fetch and reserves it. The planner
// proposal is trimmed to its leading MaxFetchBatch records; a proposal
// overlapping an in-flight fetch is dropped, delivery of that fetch
// replans anyway.
func (s *Session[T]) planLocked() (view.Range, bool) {
	req, ok := prefetch.NextRequest(s.data, s.current)
	if !ok {
		return view.Range{}, false
	}
	if batch := s.mgr.config.MaxFetchBatch; req.Len() > batch {
		req.End = req.Start + batch
	}
	if s.pending.Blocked(req) {
		plansBlockedTotal.Inc()
		return view.Range{}, false
	}
	s.pending.Add(req)
	return req, true
}

// deliver hands a finished load back to the session: releases the pending
// entry, merges the records in and plans the next fetch. Runs on manager
// worker goroutines.
func (s *Session[T]) deliver(r view.Range, records []T, err error) {
	s.mu.Lock()
	s.pending.Complete(r)

	if s.closed {
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.fetchErrors++
		s.mu.Unlock()

		fetchErrorsTotal.Inc()
		if isOpenCircuitBreakerError(err) {
			logger.Warn("load shed by open circuit breaker",
				zap.String("session", s.id),
				zap.Stringer("range", r))
		} else {
			logger.Error("load failed",
				zap.String("session", s.id),
				zap.Stringer("range", r),
				zap.Error(err))
		}
		return
	}

	if got := len(records); got > r.Len() {
		records = records[:r.Len()]
		oversizedLoadsTotal.Inc()
		logger.Warn("load returned more records than requested, truncating",
			zap.String("session", s.id),
			zap.Stringer("range", r),
			zap.Int("got", got))
	} else if got < r.Len() {
		shortLoadsTotal.Inc()
		logger.Warn("load returned fewer records than requested",
			zap.String("session", s.id),
			zap.Stringer("range", r),
			zap.Int("got", got))
	}

	if len(records) == 0 {
		// a load with no records must not replan the same range, that
		// would spin against a source with nothing to give
		s.mu.Unlock()
		return
	}

	if insErr := s.data.Insert(r.Start, records); insErr != nil {
		s.fetchErrors++
		s.mu.Unlock()
		fetchErrorsTotal.Inc()
		logger.Error("dropping loaded records",
			zap.String("session", s.id),
			zap.Error(insErr))
		return
	}
	s.fetches++

	req, ok := s.planLocked()
	s.mu.Unlock()

	if ok {
		s.mgr.dispatchAsync(s, req)
	}
}

// abandon releases a reserved range whose task never reached a worker.
func (s *Session[T]) abandon(r view.Range) {
	s.mu.Lock()
	s.pending.Complete(r)
	s.mu.Unlock()
}

func (s *Session[T]) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", s.id, ErrClosed)
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return nil
}

func (s *Session[T]) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}
