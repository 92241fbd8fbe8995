package sparse

import (
	"sort"

	"github.com/ozontech/seq-view/view"
)

// Iter walks a range of the container one index at a time. Next yields a
// pointer to the resident record, or nil for a gap, and reports false once
// the range is exhausted. Every Iter is independent and restartable by
// creating a new one; the container must not be mutated while an Iter is
// consumed.
type Iter[T any] struct {
	blocks []block[T]
	pos    int // next absolute index to yield
	end    int // exclusive end of iteration
	block  int // current block index
	taken  int // records consumed from the current block
}

// Iter iterates the whole container, yielding exactly Len() items.
func (s *Slice[T]) Iter() *Iter[T] {
	return s.IterRange(view.Range{End: s.length})
}

// IterRange iterates records with indices in r, yielding exactly r.Len()
// items once r is clamped to the container bounds. The sequence matches
// Iter() restricted to r; blocks fully before r.Start are skipped without
// walking them record by record.
func (s *Slice[T]) IterRange(r view.Range) *Iter[T] {
	start := max(r.Start, 0)
	end := min(r.End, s.length)
	end = max(end, start)

	// first block with records at or after start
	b := sort.Search(len(s.blocks), func(i int) bool { return start < s.blocks[i].end() })
	taken := 0
	if b < len(s.blocks) && start > s.blocks[b].offset {
		taken = start - s.blocks[b].offset
	}

	return &Iter[T]{blocks: s.blocks, pos: start, end: end, block: b, taken: taken}
}

func (it *Iter[T]) Next() (*T, bool) {
	if it.pos >= it.end {
		return nil, false
	}

	for it.block < len(it.blocks) && it.taken == len(it.blocks[it.block].data) {
		it.block++
		it.taken = 0
	}

	if it.block == len(it.blocks) || it.pos < it.blocks[it.block].offset {
		it.pos++
		return nil, true
	}

	record := &it.blocks[it.block].data[it.taken]
	it.taken++
	it.pos++
	return record, true
}
