package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fastrand"
	"lukechampine.com/frand"

	"github.com/ozontech/seq-view/bytespool"
	"github.com/ozontech/seq-view/cache"
	"github.com/ozontech/seq-view/chunk"
	"github.com/ozontech/seq-view/limits"
	"github.com/ozontech/seq-view/packer"
	"github.com/ozontech/seq-view/view"
)

// corpusEpochMs anchors synthetic timestamps so runs with the same seed
// produce byte-identical docs.
const corpusEpochMs = 1700000000000

var (
	corpusServices = []string{"checkout", "billing", "catalog", "delivery", "auth", "emailer", "gateway", "search"}
	corpusLevels   = []string{"debug", "info", "warn", "error"}
	corpusWords    = []string{
		"request", "processed", "retrying", "connection", "timeout", "upstream",
		"cache", "miss", "hit", "flushed", "queue", "drained", "commit",
		"applied", "replica", "lagging", "shard", "rebalanced", "token",
		"expired", "payload", "accepted", "rejected", "throttled",
	}
)

// corpus is an immutable in-memory dataset: JSON docs packed into
// fixed-size compressed chunks, the way doc blocks sit in a store.
type corpus struct {
	codec     chunk.Codec
	chunkDocs int
	docsTotal int
	chunks    []chunk.Block
	cache     *cache.Cache[[]byte]
}

func buildCorpus(codec chunk.Codec, zstdLevel, docsTotal, chunkDocs int, seed int64) *corpus {
	numChunks := (docsTotal + chunkDocs - 1) / chunkDocs
	c := &corpus{
		codec:     codec,
		chunkDocs: chunkDocs,
		docsTotal: docsTotal,
		chunks:    make([]chunk.Block, numChunks),
	}

	workers := min(limits.NumCPU, numChunks)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			buf := bytespool.AcquireReset(chunkDocs * avgDocSize)
			defer bytespool.Release(buf)
			for ci := w; ci < numChunks; ci += workers {
				c.chunks[ci], buf.B = c.buildChunk(ci, zstdLevel, seed, buf.B)
			}
		}(w)
	}
	wg.Wait()

	return c
}

// attachCache keeps decompressed chunk payloads around between reads.
// A raw corpus is served straight from the blocks, caching it would only
// duplicate memory.
func (c *corpus) attachCache(cleaner *cache.Cleaner, metrics *cache.Metrics) {
	if c.codec == chunk.CodecNone {
		return
	}
	c.cache = cache.NewCache[[]byte](cleaner, metrics)
}

// buildChunk derives the chunk content from (seed, chunk index) only, so
// the same seed rebuilds the same corpus regardless of the worker count.
func (c *corpus) buildChunk(ci, zstdLevel int, seed int64, raw []byte) (chunk.Block, []byte) {
	firstDoc := ci * c.chunkDocs
	docs := min(c.chunkDocs, c.docsTotal-firstDoc)
	rng := chunkRNG(seed, ci)

	p := packer.NewBytesPacker(raw[:0])
	doc := make([]byte, 0, 2*avgDocSize)
	for i := 0; i < docs; i++ {
		doc = appendDoc(doc[:0], rng, firstDoc+i)
		p.PutBytesWithSize(doc)
	}

	b := chunk.Compress(c.codec, p.Data, nil, zstdLevel)
	b.SetFirstDoc(uint64(firstDoc))
	b.SetDocs(uint64(docs))

	return b, p.Data
}

func chunkRNG(seed int64, ci int) *frand.RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:], uint64(seed))
	binary.LittleEndian.PutUint64(key[8:], uint64(ci))
	return frand.NewCustom(key[:], 1024, 12)
}

func appendDoc(dst []byte, rng *frand.RNG, pos int) []byte {
	dst = append(dst, `{"pos":`...)
	dst = strconv.AppendInt(dst, int64(pos), 10)
	dst = append(dst, `,"ts":`...)
	dst = strconv.AppendInt(dst, corpusEpochMs+int64(pos)*10, 10)
	dst = append(dst, `,"service":"`...)
	dst = append(dst, corpusServices[rng.Intn(len(corpusServices))]...)
	dst = append(dst, `","level":"`...)
	dst = append(dst, corpusLevels[rng.Intn(len(corpusLevels))]...)
	dst = append(dst, `","message":"`...)
	for i, n := 0, 4+rng.Intn(8); i < n; i++ {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, corpusWords[rng.Intn(len(corpusWords))]...)
	}
	dst = append(dst, `","token":"`...)
	dst = hex.AppendEncode(dst, rng.Bytes(8))
	dst = append(dst, `"}`...)
	return dst
}

func (c *corpus) sizeBytes() uint64 {
	var total uint64
	for _, b := range c.chunks {
		total += b.FullLen()
	}
	return total
}

// Read copies out the docs of r, decompressing every covering chunk.
func (c *corpus) Read(r view.Range) ([][]byte, error) {
	docs := make([][]byte, 0, r.Len())

	for ci := r.Start / c.chunkDocs; ci < len(c.chunks) && ci*c.chunkDocs < r.End; ci++ {
		b := c.chunks[ci]
		if uint64(len(b)) != b.FullLen() {
			return nil, fmt.Errorf("chunk %d is corrupted: len %d, header says %d", ci, len(b), b.FullLen())
		}

		data, err := c.chunkPayload(ci, b)
		if err != nil {
			return nil, fmt.Errorf("decompressing chunk %d: %w", ci, err)
		}

		first := int(b.FirstDoc())
		u := packer.NewBytesUnpacker(data)
		pos := first
		for u.Len() > 0 {
			doc := u.GetBinary()
			if r.Contains(pos) {
				docs = append(docs, append([]byte(nil), doc...))
			}
			pos++
		}
		if pos-first != int(b.Docs()) {
			return nil, fmt.Errorf("chunk %d is corrupted: unpacked %d docs, header says %d", ci, pos-first, b.Docs())
		}
	}

	return docs, nil
}

// chunkPayload returns the packed docs of chunk ci. Chunks that stayed
// raw alias the block even when a cache is attached, there is nothing to
// decompress and nothing worth keeping twice.
func (c *corpus) chunkPayload(ci int, b chunk.Block) ([]byte, error) {
	if c.cache == nil || b.Codec() == chunk.CodecNone {
		_, data, err := chunk.Decompress(b, nil)
		return data, err
	}
	return c.cache.GetWithError(uint32(ci), func() ([]byte, int, error) {
		_, data, err := chunk.Decompress(b, nil)
		return data, cap(data), err
	})
}

var errInjected = errors.New("injected source error")

// simSource serves corpus reads with configurable latency and an error
// injection rate, standing in for a remote doc store.
type simSource struct {
	corpus  *corpus
	latency time.Duration
	errPct  uint32
}

func (s *simSource) Load(ctx context.Context, r view.Range) ([][]byte, error) {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	if s.errPct > 0 && fastrand.Uint32n(100) < s.errPct {
		return nil, fmt.Errorf("loading %s: %w", r, errInjected)
	}

	return s.corpus.Read(r)
}
