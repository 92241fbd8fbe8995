// Package prefetch decides which range of a sparse container should be
// fetched next to keep a scrolling view populated ahead of the user.
package prefetch

import (
	"github.com/ozontech/seq-view/sparse"
	"github.com/ozontech/seq-view/view"
)

// NextRequest picks the next range of records to fetch for the given
// visible range. The view is widened by half its length in both directions,
// clamped to the container bounds, and the widened window is scanned for
// the longest run of absent records. Of equal-length runs the leftmost
// wins. The second result is false when there is nothing to fetch: the
// view is empty or the whole window is already resident.
//
// Call it again on every view change and after every completed insert.
// The planner keeps proposing the same gap until records for it are
// inserted; callers track in-flight requests themselves (see Pending).
func NextRequest[T any](data *sparse.Slice[T], inView view.Range) (view.Range, bool) {
	if inView.IsEmpty() {
		return view.Range{}, false
	}

	extra := inView.Len() / 2
	shouldLoad := view.Range{End: data.Len()}
	if inView.Start > extra {
		shouldLoad.Start = inView.Start - extra
	}
	if inView.End < data.Len()-extra {
		shouldLoad.End = inView.End + extra
	}

	longest := view.Range{}
	found := false
	closeRun := func(run view.Range) {
		if !found || longest.Len() < run.Len() {
			longest = run
			found = true
		}
	}

	runStart := -1
	pos := shouldLoad.Start
	it := data.IterRange(shouldLoad)
	for record, ok := it.Next(); ok; record, ok = it.Next() {
		if record != nil {
			if runStart >= 0 {
				closeRun(view.Range{Start: runStart, End: pos})
				runStart = -1
			}
		} else if runStart < 0 {
			runStart = pos
		}
		pos++
	}
	// a run still open at the scan end is bounded by the window end
	if runStart >= 0 {
		closeRun(view.Range{Start: runStart, End: shouldLoad.End})
	}

	return longest, found
}
