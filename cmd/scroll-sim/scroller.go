package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	insaneJSON "github.com/ozontech/insane-json"
	"go.uber.org/atomic"

	"github.com/ozontech/seq-view/session"
	"github.com/ozontech/seq-view/view"
)

// scrollerStats is shared by all scrollers and dumped by the ticker.
type scrollerStats struct {
	viewsSet     atomic.Uint64
	rowsRendered atomic.Uint64
	docsSeen     atomic.Uint64
	gaps         atomic.Uint64
	verifyErrors atomic.Uint64
}

// scroller drives one session through a scenario, verifying every doc it
// renders against the position it was rendered at.
type scroller struct {
	sess      *session.Session[[]byte]
	scenario  *Scenario
	stats     *scrollerStats
	rng       *rand.Rand
	root      *insaneJSON.Root
	viewSize  int
	docsTotal int
}

func newScroller(sess *session.Session[[]byte], sc *Scenario, stats *scrollerStats, seed int64, viewSize, docsTotal int) *scroller {
	return &scroller{
		sess:      sess,
		scenario:  sc,
		stats:     stats,
		rng:       rand.New(rand.NewSource(seed)),
		root:      insaneJSON.Spawn(),
		viewSize:  viewSize,
		docsTotal: docsTotal,
	}
}

// run scrolls until ctx is done. A non-nil error means the dataset came
// back wrong, not that the run was interrupted.
func (s *scroller) run(ctx context.Context) error {
	pos := s.rng.Intn(s.maxStart() + 1)

	for {
		if ctx.Err() != nil {
			return nil
		}

		r := view.Range{Start: pos, End: min(pos+s.viewSize, s.docsTotal)}
		if err := s.sess.SetView(ctx, r); err != nil {
			return fmt.Errorf("session %s: %w", s.sess.ID(), err)
		}
		s.stats.viewsSet.Inc()

		s.think(ctx)

		rows, err := s.sess.Rows(r)
		if err != nil {
			return fmt.Errorf("session %s: %w", s.sess.ID(), err)
		}
		if err := s.render(r, rows); err != nil {
			s.stats.verifyErrors.Inc()
			return fmt.Errorf("session %s: %w", s.sess.ID(), err)
		}

		pos = s.next(pos)
	}
}

func (s *scroller) render(r view.Range, rows []*[]byte) error {
	for i, row := range rows {
		s.stats.rowsRendered.Inc()
		if row == nil {
			s.stats.gaps.Inc()
			continue
		}
		s.stats.docsSeen.Inc()
		if err := s.verify(r.Start+i, *row); err != nil {
			return err
		}
	}
	return nil
}

func (s *scroller) verify(pos int, doc []byte) error {
	if err := s.root.DecodeBytes(doc); err != nil {
		return fmt.Errorf("doc at %d is not valid JSON: %w", pos, err)
	}
	if got := s.root.Dig("pos").AsInt(); got != pos {
		return fmt.Errorf("doc at %d carries pos %d", pos, got)
	}
	return nil
}

func (s *scroller) think(ctx context.Context) {
	d := s.scenario.think(s.rng)
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *scroller) next(pos int) int {
	m := s.scenario.pick(s.rng)
	switch m.Kind {
	case movePage:
		if s.rng.Intn(2) == 0 {
			pos += s.viewSize
		} else {
			pos -= s.viewSize
		}
	case moveJump:
		pos = s.rng.Intn(s.maxStart() + 1)
	default: // drift
		delta := m.Min
		if m.Max > m.Min {
			delta += s.rng.Intn(m.Max - m.Min + 1)
		}
		if s.rng.Intn(2) == 0 {
			delta = -delta
		}
		pos += delta
	}

	return min(max(pos, 0), s.maxStart())
}

func (s *scroller) maxStart() int {
	return max(s.docsTotal-s.viewSize, 0)
}
