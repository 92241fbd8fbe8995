package util

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsCollapser(t *testing.T) {
	r := require.New(t)

	// 2 same errors
	err := CollapseErrors([]error{nil, io.EOF, nil, io.EOF})
	r.NotNil(err)
	r.Equal("EOF (got 2 times)", err.Error())
	r.True(errors.Is(err, io.EOF))

	// deduplicate 2 errors, first seen goes first
	err = DeduplicateErrors([]error{nil, io.EOF, nil, io.EOF, context.Canceled})
	r.NotNil(err)
	r.Equal("EOF; context canceled", err.Error())
	r.True(errors.Is(err, io.EOF))
	r.True(errors.Is(err, context.Canceled))

	// 1 error
	err = CollapseErrors([]error{nil, io.EOF, nil, nil, nil})
	r.NotNil(err)
	// check did not write "(got N times)" if there is only 1 error
	r.Equal("EOF", err.Error())

	// nils
	r.Nil(CollapseErrors([]error{nil, nil, nil, nil}))
	r.Nil(CollapseErrors(nil))
	r.Nil(CollapseErrors([]error{}))

	// mixed errors
	err = CollapseErrors([]error{io.EOF, io.EOF, nil, context.Canceled, context.Canceled, context.DeadlineExceeded})
	r.NotNil(err)
	r.Equal("EOF (got 2 times); context canceled (got 2 times); context deadline exceeded", err.Error())
	r.NotContains(err.Error(), "(got 1 times)")
	r.ErrorIs(err, io.EOF)
	r.ErrorIs(err, context.Canceled)
	r.ErrorIs(err, context.DeadlineExceeded)
}
