package prefetch

import (
	"slices"

	"github.com/ozontech/seq-view/view"
)

// Pending tracks ranges with a fetch in flight. NextRequest keeps proposing
// a gap until it is filled, so the owner records every dispatched range here
// and drops proposals that overlap one, keeping at most one outstanding
// fetch per range. Single-owner like the container, not synchronized.
type Pending struct {
	ranges []view.Range
}

// Add records a dispatched range.
func (p *Pending) Add(r view.Range) {
	p.ranges = append(p.ranges, r)
}

// Complete forgets a previously added range once its fetch finished,
// successfully or not. Unknown ranges are ignored.
func (p *Pending) Complete(r view.Range) {
	if i := slices.Index(p.ranges, r); i >= 0 {
		p.ranges = slices.Delete(p.ranges, i, i+1)
	}
}

// Blocked reports whether r overlaps any range still in flight.
func (p *Pending) Blocked(r view.Range) bool {
	for _, pending := range p.ranges {
		if pending.Overlaps(r) {
			return true
		}
	}
	return false
}

// Len returns the number of ranges in flight.
func (p *Pending) Len() int {
	return len(p.ranges)
}
