package util

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"

	"github.com/ozontech/seq-view/logger"
)

func SizeStr(bytes uint64) string {
	return datasize.ByteSize(bytes).HR()
}

// Float64ToPrec formats float64 by removing numberics after prec digit.
func Float64ToPrec(val float64, prec uint32) float64 {
	precDigit := math.Pow10(int(prec))
	return float64(int64(val*precDigit)) / precDigit
}

// DurationToUnit converts duration to unit and returns as float64.
func DurationToUnit(durationVal time.Duration, unit string) float64 {
	switch strings.ToLower(unit) {
	case "us":
		return float64(durationVal) / float64(time.Microsecond)
	case "ms":
		return float64(durationVal) / float64(time.Millisecond)
	case "s":
		return durationVal.Seconds()
	case "m":
		return durationVal.Minutes()
	case "h":
		return durationVal.Hours()
	default:
		logger.Panic("unsupported unit", zap.String("unit", unit))
		panic("_")
	}
}

func RunEvery(done <-chan struct{}, runInterval time.Duration, actionFn func()) {
	runTicker := time.NewTicker(runInterval)
	defer runTicker.Stop()

	actionFn() // first launch without delay

	for {
		select {
		case <-done:
			return
		case <-runTicker.C:
			actionFn()
		}
	}
}

// IsCancelled is a faster way to check if the context has been canceled, compared to ctx.Err() != nil
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func EnsureSliceSize[T any](src []T, size int) []T {
	if cap(src) < size {
		return make([]T, size, max(2*cap(src), size))
	}
	return src[:size]
}
