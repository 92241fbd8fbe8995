package main

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ozontech/seq-view/cache"
	"github.com/ozontech/seq-view/logger"
	"github.com/ozontech/seq-view/metric"
	"github.com/ozontech/seq-view/util"
)

const (
	chunkCacheLabel      = "chunks"
	cacheCleanupInterval = 5 * time.Second
)

// startChunkCache attaches a budgeted cache of decompressed chunk payloads
// to the corpus and keeps it under the budget until done is closed.
func startChunkCache(done <-chan struct{}, corp *corpus, budget uint64) *sync.WaitGroup {
	cleaner := cache.NewCleaner(budget, chunkCleanerMetrics())
	corp.attachCache(cleaner, chunkCacheMetrics())

	logger.Info("chunk cache attached", util.ZapUint64AsSizeStr("budget", budget))

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		util.RunEvery(done, cacheCleanupInterval, func() {
			start := time.Now()
			stat := cache.CleanStat{}
			if cleaner.Cleanup(&stat) {
				logger.Info("chunk cache cleaned",
					util.ZapUint64AsSizeStr("released", stat.BytesReleased),
					zap.Uint64("buckets_cleaned", stat.BucketsCleaned),
					zap.Int("generations_freed", stat.GenerationsFreed),
					util.ZapDurationWithPrec("took_ms", time.Since(start), "ms", 2),
				)
			}
		})
	}()
	return wg
}

func chunkCacheMetrics() *cache.Metrics {
	return &cache.Metrics{
		HitsTotal:          metric.CacheHitsTotal.WithLabelValues(chunkCacheLabel),
		MissTotal:          metric.CacheMissTotal.WithLabelValues(chunkCacheLabel),
		PanicsTotal:        metric.CachePanicsTotal.WithLabelValues(chunkCacheLabel),
		LockWaitsTotal:     metric.CacheLockWaitsTotal.WithLabelValues(chunkCacheLabel),
		WaitsTotal:         metric.CacheWaitsTotal.WithLabelValues(chunkCacheLabel),
		ReattemptsTotal:    metric.CacheReattemptsTotal.WithLabelValues(chunkCacheLabel),
		HitsSizeTotal:      metric.CacheHitsSizeTotal.WithLabelValues(chunkCacheLabel),
		MissSizeTotal:      metric.CacheMissSizeTotal.WithLabelValues(chunkCacheLabel),
		SizeReleasedTotal:  metric.CacheSizeReleased.WithLabelValues(chunkCacheLabel),
		MapsRecreatedTotal: metric.CacheMapsRecreated.WithLabelValues(chunkCacheLabel),
		MissLatencySeconds: metric.CacheMissLatencySeconds.WithLabelValues(chunkCacheLabel),
	}
}

func chunkCleanerMetrics() *cache.CleanerMetrics {
	return &cache.CleanerMetrics{
		Oldest:            metric.CacheOldest.WithLabelValues(chunkCacheLabel),
		AddBuckets:        metric.CacheAddBuckets.WithLabelValues(chunkCacheLabel),
		DelBuckets:        metric.CacheDelBuckets.WithLabelValues(chunkCacheLabel),
		CleanGenerations:  metric.CacheCleanGenerations.WithLabelValues(chunkCacheLabel),
		ChangeGenerations: metric.CacheChangeGenerations.WithLabelValues(chunkCacheLabel),
	}
}
