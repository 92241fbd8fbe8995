package limits

import (
	"fmt"
	"runtime"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ozontech/seq-view/logger"
)

var (
	NumCPU      int
	TotalMemory uint64
)

func init() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(tpl string, args ...any) { logger.Info(fmt.Sprintf(tpl, args...)) }))

	NumCPU = runtime.GOMAXPROCS(0)
	TotalMemory = totalMemory()
}

func totalMemory() uint64 {
	if mem, err := memlimit.FromCgroup(); err == nil {
		return mem
	}
	mem, _ := memlimit.FromSystem()
	return mem
}

// MemoryShare returns the given share of the detected memory limit,
// e.g. MemoryShare(0.5) on a 2GiB cgroup returns 1GiB.
func MemoryShare(ratio float64) uint64 {
	return uint64(float64(TotalMemory) * ratio)
}
