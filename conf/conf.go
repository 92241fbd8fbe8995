package conf

import (
	"github.com/ozontech/seq-view/consts"
	"github.com/ozontech/seq-view/limits"
)

func init() {
	FetchWorkers = limits.NumCPU
}

var (
	FetchWorkers int

	MaxFetchBatch = consts.DefaultMaxFetchBatch // maximum number of records requested from a source in one load
)
