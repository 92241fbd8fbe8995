package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cep21/circuit/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Timeout:                  time.Second,
		NumBuckets:               10,
		BucketWidth:              time.Second,
		RequestVolumeThreshold:   1,
		ErrorThresholdPercentage: 50,
		SleepWindow:              time.Minute,
	}
}

func TestBreakerTripsOpen(t *testing.T) {
	cb := New("test-trips-open", testConfig())
	ctx := context.Background()

	backendDown := errors.New("backend down")
	for i := 0; i < 10; i++ {
		err := cb.Execute(ctx, func(context.Context) error { return backendDown })
		require.Error(t, err)
	}

	// the breaker sheds the call without running the callback
	ran := false
	err := cb.Execute(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)

	var cbErr circuit.Error
	require.True(t, errors.As(err, &cbErr))
	assert.True(t, cbErr.CircuitOpen())
}

func TestBreakerPassesSuccess(t *testing.T) {
	cb := New("test-passes-success", testConfig())

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestNewReusesCircuitByName(t *testing.T) {
	first := New("test-reused", testConfig())
	second := New("test-reused", testConfig())
	assert.Same(t, first.Circuit, second.Circuit)
}
