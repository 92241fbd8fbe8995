// Package sparse implements a fixed-length sequence of records where only
// some contiguous runs are resident. Records live in ordered non-overlapping
// blocks; indices not covered by any block are gaps, inferred at iteration
// time and never materialized.
package sparse

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrOutOfBounds = errors.New("block out of bounds")
	ErrOverlap     = errors.New("block overlaps existing block")
)

// block is a contiguous run of resident records starting at offset.
type block[T any] struct {
	offset int
	data   []T
}

func (b *block[T]) end() int {
	return b.offset + len(b.data)
}

// Slice is a sparse container of fixed logical length. Blocks are kept
// ordered by offset and are never merged, split or reordered; two adjacent
// blocks stay separate. Not safe for concurrent use, a single owner must
// serialize Insert against iteration.
type Slice[T any] struct {
	length int
	blocks []block[T]
}

// WithLength creates an empty container of logical length n. No per-record
// storage is allocated, n may be as large as math.MaxInt.
func WithLength[T any](n int) *Slice[T] {
	return &Slice[T]{length: max(n, 0)}
}

// FromSlice creates a fully populated container of length len(data) backed
// by a single block at offset 0. The slice is retained, not copied.
func FromSlice[T any](data []T) *Slice[T] {
	s := &Slice[T]{length: len(data)}
	if len(data) > 0 {
		s.blocks = []block[T]{{data: data}}
	}
	return s
}

// Len returns the logical length fixed at construction.
func (s *Slice[T]) Len() int {
	return s.length
}

// Insert adds a block of records starting at index start. The container
// retains data; callers must not mutate it afterwards.
//
// Returns ErrOutOfBounds when the block does not fit into [0, Len()) and
// ErrOverlap when it intersects an existing block. State is unchanged on
// error. Inserting an empty block is legal and stores nothing.
func (s *Slice[T]) Insert(start int, data []T) error {
	if start < 0 || start > s.length || len(data) > s.length-start {
		return fmt.Errorf("%d records at %d do not fit length %d: %w", len(data), start, s.length, ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}

	pos := sort.Search(len(s.blocks), func(i int) bool { return s.blocks[i].offset >= start })
	if pos > 0 {
		if prev := &s.blocks[pos-1]; start < prev.end() {
			return fmt.Errorf("%d records at %d intersect block [%d, %d): %w", len(data), start, prev.offset, prev.end(), ErrOverlap)
		}
	}
	if pos < len(s.blocks) {
		if next := &s.blocks[pos]; next.offset < start+len(data) {
			return fmt.Errorf("%d records at %d intersect block [%d, %d): %w", len(data), start, next.offset, next.end(), ErrOverlap)
		}
	}

	s.blocks = slices.Insert(s.blocks, pos, block[T]{offset: start, data: data})
	return nil
}

// Get returns a pointer to the record at index i, or false when the index
// is out of bounds or falls into a gap. The pointer stays valid for the
// container lifetime since block contents are immutable once inserted.
func (s *Slice[T]) Get(i int) (*T, bool) {
	if i < 0 || i >= s.length {
		return nil, false
	}
	pos := sort.Search(len(s.blocks), func(j int) bool { return i < s.blocks[j].end() })
	if pos == len(s.blocks) || i < s.blocks[pos].offset {
		return nil, false
	}
	b := &s.blocks[pos]
	return &b.data[i-b.offset], true
}

// Resident returns the total number of resident records.
func (s *Slice[T]) Resident() int {
	total := 0
	for i := range s.blocks {
		total += len(s.blocks[i].data)
	}
	return total
}

// Blocks returns the number of resident blocks.
func (s *Slice[T]) Blocks() int {
	return len(s.blocks)
}
