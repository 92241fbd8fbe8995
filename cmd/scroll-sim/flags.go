package main

import (
	"strconv"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ozontech/seq-view/conf"
	"github.com/ozontech/seq-view/limits"
)

const (
	// avgDocSize is what a generated doc weighs on average, used to size
	// the default corpus and decompression scratch buffers.
	avgDocSize = 256

	defaultCorpusMemRatio = 0.05
	defaultCacheMemRatio  = 0.1
	minCorpusDocs         = 10_000
)

var (
	numCPUStr = strconv.Itoa(limits.NumCPU)

	defaultCorpusDocs    = max(int(limits.MemoryShare(defaultCorpusMemRatio)/avgDocSize), minCorpusDocs)
	defaultCorpusDocsStr = strconv.Itoa(defaultCorpusDocs)

	defaultCacheSizeStr = strconv.Itoa(int(limits.MemoryShare(defaultCacheMemRatio))/1024/1024) + "MB"

	// workload
	flagSessions = kingpin.Flag("sessions", `number of concurrent scrolling sessions`).Default("4").Int()
	flagDocs     = kingpin.Flag("docs", `corpus size in docs`).Default(defaultCorpusDocsStr).Int()
	flagViewSize = kingpin.Flag("view-size", `rows visible at once`).Default("50").Int()
	flagDuration = kingpin.Flag("duration", `how long to run, 0 means until a signal`).Default("0").Duration()
	flagSeed     = kingpin.Flag("seed", `corpus and scroll seed, 0 picks one from the clock`).Default("0").Int64()
	flagScenario = kingpin.Flag("scenario", `path to a scroll scenario YAML, empty uses the built-in mix`).Default("").String()

	// session manager
	flagFetchWorkers  = kingpin.Flag("fetch-workers", `size of the prefetch worker pool`).Default(numCPUStr).Int()
	flagMaxFetchBatch = kingpin.Flag("max-fetch-batch", `maximum number of docs requested from the source in one load`).Default(strconv.Itoa(conf.MaxFetchBatch)).Int()

	// source behavior
	flagSourceLatency       = kingpin.Flag("source-latency", `simulated latency of one load`).Default("2ms").Duration()
	flagSourceErrPercentage = kingpin.Flag("source-err-percentage", `percentage of loads that fail`).Default("0").Int()

	// corpus
	flagChunkDocs         = kingpin.Flag("chunk-docs", `docs per corpus chunk`).Default("512").Int()
	flagCodec             = kingpin.Flag("codec", `corpus chunk codec`).Default("zstd").HintOptions("none", "lz4", "zstd").String()
	flagZstdCompressLevel = kingpin.Flag("zstd-compress-level", `ZSTD compress level for corpus chunks, check the doc for more details: https://facebook.github.io/zstd/zstd_manual.html`).Default("1").Int()
	flagCacheSize         = kingpin.Flag("cache-size", `max size of the decompressed chunk cache`).Default(defaultCacheSizeStr).Bytes()

	// others
	flagDebugAddr          = kingpin.Flag("debug-addr", `debug listen addr e.g. ":9200"`).Default(":9200").String()
	flagTracingProbability = kingpin.Flag("tracing-probability", ``).Default("0.01").Float64()
)
