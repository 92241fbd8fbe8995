package session

import (
	"time"

	"github.com/ozontech/seq-view/circuitbreaker"
	"github.com/ozontech/seq-view/conf"
	"github.com/ozontech/seq-view/consts"
)

type Config struct {
	// Name labels the manager in logs and names its circuit breaker.
	// Managers sharing a name share breaker state.
	Name string

	// FetchWorkers is the number of goroutines draining the fetch queue.
	FetchWorkers int

	// MaxFetchBatch caps the number of records requested in one load.
	// Planned ranges longer than that are trimmed to their leading part.
	MaxFetchBatch int

	// LoadTimeout bounds a single Source.Load call.
	LoadTimeout time.Duration

	// IdleTTL is how long a session survives without caller interactions
	// before the maintenance loop expires it.
	IdleTTL time.Duration

	// MaintenanceDelay is the period of the expiry and stats loop.
	MaintenanceDelay time.Duration

	// Breaker configures the circuit breaker around Source.Load calls.
	Breaker circuitbreaker.Config
}

func FillConfigWithDefault(config *Config) *Config {
	if config.Name == "" {
		config.Name = "session-manager"
	}
	if config.FetchWorkers == 0 {
		config.FetchWorkers = conf.FetchWorkers
	}
	if config.MaxFetchBatch == 0 {
		config.MaxFetchBatch = conf.MaxFetchBatch
	}
	if config.LoadTimeout == 0 {
		config.LoadTimeout = consts.DefaultLoadTimeout
	}
	if config.IdleTTL == 0 {
		config.IdleTTL = consts.DefaultSessionIdleTTL
	}
	if config.MaintenanceDelay == 0 {
		config.MaintenanceDelay = consts.DefaultMaintenanceDelay
	}

	if config.Breaker.Timeout == 0 {
		config.Breaker.Timeout = config.LoadTimeout
	}
	if config.Breaker.BucketWidth == 0 {
		config.Breaker.BucketWidth = consts.DefaultBreakerBucketWidth
	}
	if config.Breaker.NumBuckets == 0 {
		config.Breaker.NumBuckets = consts.DefaultBreakerNumBuckets
	}
	if config.Breaker.ErrorThresholdPercentage == 0 {
		config.Breaker.ErrorThresholdPercentage = consts.DefaultBreakerErrPercentage
	}
	if config.Breaker.SleepWindow == 0 {
		config.Breaker.SleepWindow = consts.DefaultBreakerSleepWindow
	}
	if config.Breaker.RequestVolumeThreshold == 0 {
		config.Breaker.RequestVolumeThreshold = consts.DefaultBreakerVolumeThreshold
	}
	return config
}
