package util

import (
	"strconv"

	"github.com/ozontech/seq-view/bytespool"
)

type unwrapper interface {
	// Unwrap returns slice of errors, it uses in the errors.Is and errors.As stdlib functions.
	Unwrap() []error
}

var _ unwrapper = (*errsCollapser)(nil)

// errsCollapser is the same as errors.Join, but deduplicates errors.
// Duplicates are grouped in the order errors were first seen.
type errsCollapser struct {
	errs        []error
	withRepeats bool
}

// CollapseErrors combines errors and writes repeats of each.
func CollapseErrors(errs []error) error {
	return collapseErrors(errs, true)
}

// DeduplicateErrors combines errors dropping repeats.
func DeduplicateErrors(errs []error) error {
	return collapseErrors(errs, false)
}

func collapseErrors(errs []error, withRepeats bool) error {
	// shift not nil
	i := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		errs[i] = err
		i++
	}
	errs = errs[:i]

	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	return &errsCollapser{errs: errs, withRepeats: withRepeats}
}

func (e *errsCollapser) Error() string {
	type group struct {
		msg     string
		repeats int
	}

	seen := make(map[string]int, len(e.errs))
	groups := make([]group, 0, len(e.errs))
	size := 0
	for _, err := range e.errs {
		msg := err.Error()
		if idx, ok := seen[msg]; ok {
			groups[idx].repeats++
			continue
		}
		seen[msg] = len(groups)
		groups = append(groups, group{msg: msg, repeats: 1})
		size += len(msg) + len("; ")
	}
	if e.withRepeats {
		size += len(groups) * len(" (got 42 times)")
	}

	buf := bytespool.AcquireReset(size)
	defer bytespool.Release(buf)

	for i, g := range groups {
		if i > 0 {
			buf.B = append(buf.B, "; "...)
		}
		buf.B = append(buf.B, g.msg...)
		if e.withRepeats && g.repeats > 1 {
			buf.B = append(buf.B, " (got "...)
			buf.B = strconv.AppendInt(buf.B, int64(g.repeats), 10)
			buf.B = append(buf.B, " times)"...)
		}
	}

	return string(buf.B)
}

func (e *errsCollapser) Unwrap() []error {
	return e.errs
}
