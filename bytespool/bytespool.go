package bytespool

import (
	"math/bits"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var defaultPool = New()

// Acquire gets a byte buffer with the given length from the global pool.
func Acquire(length int) *Buffer {
	return defaultPool.Acquire(length)
}

// AcquireReset gets a zero-length byte buffer with the given capacity from the global pool.
func AcquireReset(capacity int) *Buffer {
	b := defaultPool.Acquire(capacity)
	b.Reset()
	return b
}

// Release puts the byte buffer back to the global pool.
func Release(buf *Buffer) {
	defaultPool.Release(buf)
}

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "common",
		Name:      "bytes_pool_get_hits_total",
		Help:      "",
	}, []string{"capacity"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "common",
		Name:      "bytes_pool_get_misses_total",
		Help:      "",
	}, []string{"capacity"})
	putsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "common",
		Name:      "bytes_pool_puts_total",
		Help:      "",
	}, []string{"capacity"})
	putOversizesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "common",
		Name:      "bytes_pool_put_oversizes_total",
		Help:      "",
	})
)

type Buffer struct {
	B []byte
}

func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

const (
	buckets     = 32
	maxCapacity = 1 << (buckets - 1)
)

// Pool keeps reusable byte buffers grouped by capacity.
// Bucket n holds buffers with capacity in [2^n, 2^n+1).
type Pool struct {
	buckets [buckets]sync.Pool
	metrics [buckets]bucketMetrics
}

type bucketMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	puts   prometheus.Counter
}

func New() *Pool {
	p := &Pool{}
	for idx := range p.metrics {
		capacity := datasize.ByteSize(1 << idx).String()
		p.metrics[idx] = bucketMetrics{
			hits:   hitsTotal.WithLabelValues(capacity),
			misses: missesTotal.WithLabelValues(capacity),
			puts:   putsTotal.WithLabelValues(capacity),
		}
	}
	return p
}

// Acquire retrieves a Buffer with the given length and capacity rounded up
// to a power of two. Lengths outside the bucket range are allocated directly.
func (p *Pool) Acquire(length int) *Buffer {
	if length <= 0 || length > maxCapacity {
		return &Buffer{B: make([]byte, length)}
	}

	idx, bucketCap := bucketOf(length)
	if anyBuf := p.buckets[idx].Get(); anyBuf != nil {
		p.metrics[idx].hits.Inc()
		buf := anyBuf.(*Buffer)
		buf.B = buf.B[:length]
		return buf
	}

	p.metrics[idx].misses.Inc()
	return &Buffer{B: make([]byte, length, bucketCap)}
}

// Release returns the Buffer to the pool. Buffers larger than the last
// bucket are dropped for the GC to collect.
func (p *Pool) Release(buf *Buffer) {
	capacity := cap(buf.B)
	if capacity == 0 {
		return
	}
	if capacity > maxCapacity {
		putOversizesTotal.Inc()
		return
	}

	idx, bucketCap := bucketOf(capacity)
	if capacity != bucketCap {
		// Capacity is below the left border of its bucket, put one bucket lower
		// so Acquire never returns a buffer with less capacity than requested.
		idx--
	}
	p.metrics[idx].puts.Inc()
	p.buckets[idx].Put(buf)
}

// bucketOf returns the bucket index for size and the left border of its range.
func bucketOf(size int) (idx, leftBorder int) {
	idx = bits.Len(uint(size - 1))
	return idx, 1 << idx
}
