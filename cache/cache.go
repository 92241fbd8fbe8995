package cache

import (
	"sync"
	"time"
	"unsafe"

	"go.uber.org/atomic"
)

const (
	recreateThreshold   = 200
	excessiveSizeFactor = 10
)

// Generation groups entries by the period they were last touched in. The
// cleaner retires whole generations instead of tracking a per-entry LRU.
type Generation struct {
	size         atomic.Uint64
	creationTime int64
	// stale is written and read only from the cleaner's goroutine
	stale bool
}

func NewGeneration() *Generation {
	return &Generation{creationTime: time.Now().UnixNano()}
}

type entry[V any] struct {
	// value is written under Cache.mu
	// readable without the lock once wg is nil or was waited on
	value V
	// wg is written under Cache.mu
	// non-nil means the value is still being computed, wait on it;
	// if it is still non-nil after the wait, the computation failed
	// and the entry was abandoned, retry from the map
	wg *sync.WaitGroup
	// gen is written and read only under Cache.mu
	gen *Generation
	// size is written under Cache.mu
	// readable without the lock once wg is nil or was waited on
	size uint64
	// set when the entry is removed between getOrCreate and save
	deleted bool
}

func (e *entry[V]) updateGeneration(ng *Generation) {
	if ng != e.gen {
		e.gen.size.Sub(e.size)
		ng.size.Add(e.size)
		e.gen = ng
	}
}

// Cache memoizes expensive loads keyed by a small integer and collapses
// concurrent loads of the same key into one. Eviction is delegated to a
// Cleaner shared by several caches.
type Cache[V any] struct {
	mu                sync.Mutex // covers all Cache operations
	entries           map[uint32]*entry[V]
	peakEntries       int // high-water mark of len(entries)
	currentGeneration *Generation
	entrySize         uint64
	metrics           *Metrics
	released          bool
}

func NewCache[V any](cleaner *Cleaner, metrics *Metrics) *Cache[V] {
	keySize := unsafe.Sizeof(uint32(0))
	entrySize := unsafe.Sizeof(entry[V]{}) + unsafe.Sizeof(&entry[V]{})

	c := &Cache[V]{
		entries:   make(map[uint32]*entry[V]),
		metrics:   metrics,
		entrySize: uint64(keySize + entrySize),
	}
	if cleaner != nil {
		cleaner.AddBucket(c)
	} else {
		c.SetGeneration(NewGeneration())
	}

	return c
}

func (c *Cache[V]) SetGeneration(generation *Generation) {
	c.mu.Lock()
	c.currentGeneration = generation
	c.mu.Unlock()
}

// Cleanup drops every entry left in a stale generation and returns the
// bytes it freed. Entries touched since the generation went stale have
// migrated to a newer one and survive.
func (c *Cache[V]) Cleanup() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > c.peakEntries {
		c.peakEntries = len(c.entries)
	}

	var freed uint64
	for k, e := range c.entries {
		if e.gen == nil || !e.gen.stale {
			continue
		}
		delete(c.entries, k)
		e.deleted = true
		freed += e.size
	}

	c.recreateEntriesMap()
	c.metrics.reportReleased(freed)

	return freed
}

// recreateEntriesMap rebuilds the map once it shrank far below its peak,
// Go maps never return bucket memory on delete.
func (c *Cache[V]) recreateEntriesMap() {
	if c.peakEntries < recreateThreshold {
		return
	}
	if len(c.entries)*excessiveSizeFactor > c.peakEntries {
		return
	}

	entries := make(map[uint32]*entry[V], len(c.entries)*2)
	for k, v := range c.entries {
		entries[k] = v
	}
	c.entries = entries
	c.peakEntries = len(c.entries)

	c.metrics.reportMapsRecreated()
}

// getOrCreate returns the entry for key, or registers a fresh in-flight
// one. The returned bool tells whether the value is already usable.
func (c *Cache[V]) getOrCreate(key uint32) (*entry[V], *sync.WaitGroup, bool) {
	if !c.mu.TryLock() {
		// we only need this for metrics
		c.metrics.reportLockWait()
		c.mu.Lock()
	}
	e, ok := c.entries[key]
	for ok {
		wg := e.wg
		e.updateGeneration(c.currentGeneration)
		c.mu.Unlock()
		if wg != nil {
			// someone else is computing the value, wait for it
			c.metrics.reportWait()
			wg.Wait()
		}
		// once wg is done or nil, wg, size and value no longer change
		// and can be read without the lock
		if e.wg == nil {
			c.metrics.reportHits(e.size)
			return e, nil, true
		}
		// the computation was abandoned, usually by a panic, retry
		c.metrics.reportReattempt()
		c.mu.Lock()
		e, ok = c.entries[key]
	}

	e = &entry[V]{gen: c.currentGeneration}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	e.wg = wg
	c.entries[key] = e
	c.mu.Unlock()

	return e, wg, false
}

// save publishes a computed value. refMemSize is the memory the value
// refers to, it is what eviction accounts for.
func (c *Cache[V]) save(e *entry[V], wg *sync.WaitGroup, value V, refMemSize int, latency float64) {
	size := c.entrySize + uint64(refMemSize)

	c.mu.Lock()
	if e.deleted {
		// the entry was evicted while the value was being computed,
		// keep the stats straight but still hand the value to waiters
		size = 0
	}

	e.value = value
	e.size = size
	gen := e.gen

	e.wg = nil // from now on the entry is valid
	c.mu.Unlock()

	wg.Done() // inform all waiters that the value is ready

	gen.size.Add(size)
	c.metrics.reportMiss(size, latency)
}

// recover removes an entry whose computation failed and releases waiters.
func (c *Cache[V]) recover(key uint32, wg *sync.WaitGroup) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	wg.Done()
}

// handlePanic should be called directly with the defer keyword.
func (c *Cache[V]) handlePanic(key uint32, wg *sync.WaitGroup) {
	err := recover()
	if err == nil {
		return
	}
	c.recover(key, wg)
	c.metrics.reportPanic()
	panic(err)
}

func (c *Cache[V]) Get(key uint32, fn func() (V, int)) V {
	e, wg, ok := c.getOrCreate(key)
	if ok {
		return e.value
	}

	defer c.handlePanic(key, wg)
	t := time.Now()
	value, refMemSize := fn()
	latency := time.Since(t).Seconds()

	c.save(e, wg, value, refMemSize, latency)

	return value
}

func (c *Cache[V]) GetWithError(key uint32, fn func() (V, int, error)) (V, error) {
	e, wg, ok := c.getOrCreate(key)
	if ok {
		return e.value, nil
	}

	defer c.handlePanic(key, wg)
	t := time.Now()
	value, refMemSize, err := fn()
	latency := time.Since(t).Seconds()

	if err != nil {
		c.recover(key, wg)
		return value, err
	}

	c.save(e, wg, value, refMemSize, latency)

	return value, nil
}

// Release empties the cache for good, the cleaner drops released caches
// on its next pass.
func (c *Cache[V]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var freed uint64
	for _, e := range c.entries {
		freed += e.size
		e.gen.size.Sub(e.size)
	}

	c.metrics.reportReleased(freed)

	c.entries = nil
	c.released = true
}

func (c *Cache[V]) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.released
}
