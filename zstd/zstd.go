package zstd

// Thin wrapper around github.com/klauspost/compress keeping one shared
// decoder and one encoder per compression level for the whole process.

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
)

var (
	decoder *zstd.Decoder

	encodersMu sync.Mutex
	// encoders stores map[int]*zstd.Encoder keyed by compression level.
	encoders atomic.Value
)

func init() {
	encoders.Store(map[int]*zstd.Encoder{})

	var err error
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("create zstd reader: %s", err))
	}
}

// Decompress appends decompressed src to dst and returns the result.
func Decompress(src, dst []byte) ([]byte, error) {
	return decoder.DecodeAll(src, dst)
}

// CompressLevel appends src compressed with the given level to dst and
// returns the result.
func CompressLevel(src, dst []byte, level int) []byte {
	return getEncoder(level).EncodeAll(src, dst)
}

func getEncoder(level int) *zstd.Encoder {
	m := encoders.Load().(map[int]*zstd.Encoder)
	if e := m[level]; e != nil {
		return e
	}

	encodersMu.Lock()
	defer encodersMu.Unlock()

	// Reload under the lock, another goroutine may have published the
	// encoder for this level already.
	m = encoders.Load().(map[int]*zstd.Encoder)
	e := m[level]
	if e == nil {
		e = newEncoder(level)
		next := make(map[int]*zstd.Encoder, len(m)+1)
		for k, v := range m {
			next[k] = v
		}
		next[level] = e
		encoders.Store(next)
	}
	return e
}

func newEncoder(level int) *zstd.Encoder {
	e, err := zstd.NewWriter(nil,
		zstd.WithEncoderCRC(false),
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		panic(fmt.Errorf("create zstd writer: %s", err))
	}
	return e
}
