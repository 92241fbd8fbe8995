//go:build !race

package bytespool

import (
	"runtime/debug"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolAcquireRoundsUpCapacity(t *testing.T) {
	buf := Acquire(235)
	defer Release(buf)
	require.Equal(t, 256, cap(buf.B))
	require.Equal(t, 235, len(buf.B))
}

func TestPoolAcquireReset(t *testing.T) {
	buf := AcquireReset(100)
	defer Release(buf)
	require.Equal(t, 0, len(buf.B))
	require.Equal(t, 128, cap(buf.B))
}

func TestBucketOf(t *testing.T) {
	test := func(size, wantIdx, wantBorder int) {
		t.Helper()
		idx, border := bucketOf(size)
		require.Equal(t, wantIdx, idx)
		require.Equal(t, wantBorder, border)
	}

	test(1, 0, 1)
	test(2, 1, 2)
	test(3, 2, 4)
	test(16, 4, 16)
	test(17, 5, 32)
	test(31, 5, 32)
	test(32, 5, 32)
	test(1<<20, 20, 1<<20)
	test(1<<20+1, 21, 1<<21)
}

func TestPoolReleaseBucket(t *testing.T) {
	type testCase struct {
		length        int
		wantCapacity  int
		wantPutBucket int // -1 means the buffer must not be pooled
	}

	tcs := []testCase{
		{length: 0, wantCapacity: 0, wantPutBucket: -1},
		{length: 1, wantCapacity: 1, wantPutBucket: 0},
		{length: 16, wantCapacity: 16, wantPutBucket: 4},
		{length: 17, wantCapacity: 32, wantPutBucket: 5},
		{length: 31, wantCapacity: 32, wantPutBucket: 5},
		{length: 32, wantCapacity: 32, wantPutBucket: 5},
		{length: 1<<16 - 42, wantCapacity: 1 << 16, wantPutBucket: 16},
		{length: 1<<16 + 42, wantCapacity: 1 << 17, wantPutBucket: 17},
	}

	for i, tc := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			t.Parallel()

			pool := New()

			// Disable GC to avoid sync.Pool cleanup
			debug.SetGCPercent(-1)
			defer debug.SetGCPercent(100)

			buf := pool.Acquire(tc.length)
			require.NotNil(t, buf)
			require.Equal(t, tc.length, len(buf.B))
			require.Equal(t, tc.wantCapacity, cap(buf.B))

			if tc.wantPutBucket == -1 {
				pool.Release(buf)
				for i := range pool.buckets {
					require.Nil(t, pool.buckets[i].Get())
				}
				return
			}

			mark := byte(i) + 42
			buf.B[0] = mark
			pool.Release(buf)

			pooled := pool.buckets[tc.wantPutBucket].Get()
			require.NotNil(t, pooled)
			require.Equal(t, mark, pooled.(*Buffer).B[0])
		})
	}
}

func TestPoolReleaseShrunkBuffer(t *testing.T) {
	pool := New()

	debug.SetGCPercent(-1)
	defer debug.SetGCPercent(100)

	buf := pool.Acquire(64)
	buf.B = buf.B[:0:48] // three-index reslice drops capacity below the bucket border
	pool.Release(buf)

	// cap 48 is inside bucket 5 range [32, 64)
	pooled := pool.buckets[5].Get()
	require.NotNil(t, pooled)
	require.Equal(t, 48, cap(pooled.(*Buffer).B))
}
