// Package view defines the half-open index range a virtualized view
// reports as visible.
package view

import "fmt"

// Range is a half-open index interval [Start, End).
// The zero value is the empty range.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Contains reports whether index i falls inside the range.
func (r Range) Contains(i int) bool {
	return r.Start <= i && i < r.End
}

// Overlaps reports whether both ranges share at least one index.
// Empty ranges overlap nothing.
func (r Range) Overlaps(o Range) bool {
	return !r.IsEmpty() && !o.IsEmpty() && r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
