package cache

import (
	"sync"
)

const (
	// a generation is rotated out once it holds this share of the budget
	newGenerationShare = 0.1
	// never clean less than this share of the total, cleaning has a cost
	minShareToClean = 0.05
)

type bucket interface {
	SetGeneration(*Generation)
	Cleanup() uint64
	Released() bool
}

// Cleaner keeps the combined size of its caches under a budget by
// retiring the oldest generations. Cleanup is meant to run from a single
// maintenance goroutine.
type Cleaner struct {
	toSize  uint64
	metrics *CleanerMetrics

	mu          sync.Mutex
	buckets     []bucket
	generations []*Generation // oldest first, the last one is current
}

type CleanStat struct {
	BytesReleased    uint64
	BucketsCleaned   uint64
	GenerationsFreed int
}

func NewCleaner(toSize uint64, metrics *CleanerMetrics) *Cleaner {
	return &Cleaner{
		toSize:      toSize,
		metrics:     metrics,
		generations: []*Generation{NewGeneration()},
	}
}

func (c *Cleaner) AddBucket(b bucket) {
	c.mu.Lock()
	c.buckets = append(c.buckets, b)
	b.SetGeneration(c.generations[len(c.generations)-1])
	c.mu.Unlock()

	c.metrics.BucketsInc()
}

func (c *Cleaner) getBuckets() []bucket {
	c.mu.Lock()
	buckets := c.buckets
	c.mu.Unlock()
	return buckets
}

func (c *Cleaner) getSize() uint64 {
	c.mu.Lock()
	generations := c.generations
	c.mu.Unlock()

	var total uint64
	for _, g := range generations {
		total += g.size.Load()
	}
	return total
}

func (c *Cleaner) currentGeneration() *Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[len(c.generations)-1]
}

func (c *Cleaner) oldestCreationTime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[0].creationTime
}

func (c *Cleaner) generationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.generations)
}

// Rotate opens a fresh generation, new and recently touched entries land
// there while the old ones become evictable.
func (c *Cleaner) Rotate() {
	g := NewGeneration()

	c.mu.Lock()
	c.generations = append(c.generations, g)
	for _, b := range c.buckets {
		b.SetGeneration(g)
	}
	c.mu.Unlock()

	c.metrics.GenerationsInc()
}

// markStale marks the oldest generations stale until they cover at least
// sizeToClean bytes. The current generation is never marked.
func (c *Cleaner) markStale(sizeToClean uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	marked := 0
	var covered uint64
	for _, g := range c.generations[:len(c.generations)-1] {
		if covered >= sizeToClean {
			break
		}
		covered += g.size.Load()
		if !g.stale {
			g.stale = true
			marked++
		}
	}
	return marked
}

func (c *Cleaner) dropStale() {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.generations[:0]
	for _, g := range c.generations {
		if !g.stale {
			kept = append(kept, g)
		}
	}
	c.generations = kept
}

func (c *Cleaner) dropReleasedBuckets() {
	c.mu.Lock()
	kept := c.buckets[:0]
	for _, b := range c.buckets {
		if !b.Released() {
			kept = append(kept, b)
		}
	}
	dropped := len(c.buckets) - len(kept)
	c.buckets = kept
	c.mu.Unlock()

	c.metrics.BucketsSub(dropped)
}

// Cleanup is one maintenance pass: rotate the generation if the current
// one grew notably, then evict the oldest generations until the total
// size fits the budget. Reports whether anything was evicted.
func (c *Cleaner) Cleanup(stat *CleanStat) bool {
	c.dropReleasedBuckets()

	total := c.getSize()

	overBudget := total > c.toSize
	grewEnough := float64(c.currentGeneration().size.Load()) > float64(c.toSize)*newGenerationShare
	if grewEnough || (overBudget && c.generationCount() == 1) {
		c.Rotate()
	}

	c.metrics.OldestSet(c.oldestCreationTime())

	if !overBudget {
		return false
	}

	sizeToClean := total - c.toSize
	if minClean := uint64(float64(total) * minShareToClean); sizeToClean < minClean {
		sizeToClean = minClean
	}

	marked := c.markStale(sizeToClean)
	stat.GenerationsFreed += marked
	c.metrics.GenerationsSub(marked)

	for _, b := range c.getBuckets() {
		freed := b.Cleanup()
		if freed == 0 {
			continue
		}
		stat.BucketsCleaned++
		stat.BytesReleased += freed
	}
	c.dropStale()

	return true
}
