package consts

import "time"

const (
	KB = 1024
	MB = 1024 * 1024
	GB = 1024 * 1024 * 1024

	DefaultMaintenanceDelay = time.Second
	DefaultSessionIdleTTL   = 5 * time.Minute

	// DefaultMaxFetchBatch is the maximum number of records requested
	// from a source in one load
	DefaultMaxFetchBatch = 1000

	DefaultLoadTimeout = 30 * time.Second

	// source circuit breaker defaults
	DefaultBreakerBucketWidth     = time.Second
	DefaultBreakerNumBuckets      = 10
	DefaultBreakerErrPercentage   = 50
	DefaultBreakerSleepWindow     = 5 * time.Second
	DefaultBreakerVolumeThreshold = 5

	DebugServerShutdownTimeout = 200 * time.Millisecond
)

const (
	JaegerDebugKey = "jaeger-debug-id"
)
