package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/seq-view/circuitbreaker"
	"github.com/ozontech/seq-view/util"
	"github.com/ozontech/seq-view/view"
)

func TestManagerOpenPrefilled(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))
	defer func() { require.NoError(t, m.Stop()) }()

	source := identitySource()
	s, err := m.OpenPrefilled(source, identity(view.Range{End: 10}))
	require.NoError(t, err)

	require.NoError(t, s.SetView(context.Background(), view.Range{Start: 2, End: 8}))
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, source.loads.Load())

	rows, err := s.Rows(view.Range{End: 10})
	require.NoError(t, err)
	for i, row := range rows {
		require.NotNil(t, row)
		assert.Equal(t, i, *row)
	}

	stats := s.Stats()
	assert.Equal(t, 10, stats.Resident)
	assert.Equal(t, 1, stats.Blocks)
}

func TestManagerOpenEmptyDataset(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))
	defer func() { require.NoError(t, m.Stop()) }()

	source := identitySource()
	s, err := m.Open(source, 0)
	require.NoError(t, err)

	require.NoError(t, s.SetView(context.Background(), view.Range{}))
	rows, err := s.Rows(view.Range{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, source.loads.Load())

	prefilled, err := m.OpenPrefilled(source, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, prefilled.Stats().Length)
	assert.Equal(t, 0, prefilled.Stats().Blocks)
}

func TestManagerSessionIDs(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))
	defer func() { require.NoError(t, m.Stop()) }()

	s1, err := m.Open(identitySource(), 10)
	require.NoError(t, err)
	s2, err := m.Open(identitySource(), 10)
	require.NoError(t, err)

	assert.NotEqual(t, s1.ID(), s2.ID())
	_, err = ulid.Parse(s1.ID())
	assert.NoError(t, err)

	got, ok := m.Get(s1.ID())
	require.True(t, ok)
	assert.Same(t, s1, got)
	_, ok = m.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.False(t, ok)
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	config := testConfig(t.Name())
	config.IdleTTL = 50 * time.Millisecond
	config.MaintenanceDelay = 5 * time.Millisecond
	m := NewManager[int](config)
	defer func() { require.NoError(t, m.Stop()) }()

	idle, err := m.Open(identitySource(), 10)
	require.NoError(t, err)
	busy, err := m.Open(identitySource(), 10)
	require.NoError(t, err)

	// keep one session busy well past the TTL
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := busy.Rows(view.Range{End: 1})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	_, ok := m.Get(idle.ID())
	assert.False(t, ok)
	assert.ErrorIs(t, idle.SetView(context.Background(), view.Range{}), ErrClosed)

	_, ok = m.Get(busy.ID())
	assert.True(t, ok)
}

func TestManagerStop(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))

	source := identitySource()
	s, err := m.Open(source, 100)
	require.NoError(t, err)
	require.NoError(t, s.SetView(context.Background(), view.Range{Start: 0, End: 10}))
	waitResident(t, s, view.Range{Start: 0, End: 15})

	require.NoError(t, m.Stop())

	_, err = m.Open(source, 10)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, s.SetView(context.Background(), view.Range{End: 5}), ErrClosed)
	_, ok := m.Get(s.ID())
	assert.False(t, ok)

	// Stop is idempotent
	require.NoError(t, m.Stop())
}

func TestManagerStopCancelsInflightLoads(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))

	source := &funcSource{fn: func(ctx context.Context, _ view.Range) ([]int, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	s, err := m.Open(source, 100)
	require.NoError(t, err)
	require.NoError(t, s.SetView(context.Background(), view.Range{Start: 0, End: 10}))
	waitFor(t, func() bool { return source.loads.Load() == 1 })

	require.NoError(t, m.Stop())
}

func TestManagerBreakerShedsAfterFailures(t *testing.T) {
	config := testConfig(t.Name())
	config.Breaker = circuitbreaker.Config{
		RequestVolumeThreshold:   1,
		ErrorThresholdPercentage: 1,
		SleepWindow:              time.Minute,
	}
	m := NewManager[int](config)
	defer func() { require.NoError(t, m.Stop()) }()

	source := &funcSource{fn: func(context.Context, view.Range) ([]int, error) {
		return nil, errors.New("backend is down")
	}}

	s, err := m.Open(source, 1000)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.SetView(ctx, view.Range{Start: 0, End: 10}))
	waitFor(t, func() bool { return s.Stats().FetchErrors == 1 })

	// the breaker is open now, loads are shed without reaching the source
	require.NoError(t, s.SetView(ctx, view.Range{Start: 500, End: 510}))
	waitFor(t, func() bool { return s.Stats().FetchErrors == 2 })
	assert.EqualValues(t, 1, source.loads.Load())
}

func TestManagerLoadPanicIsRecovered(t *testing.T) {
	m := NewManager[int](testConfig(t.Name()))
	defer func() { require.NoError(t, m.Stop()) }()

	source := &funcSource{fn: func(context.Context, view.Range) ([]int, error) {
		panic("source exploded")
	}}

	s, err := m.Open(source, 100)
	require.NoError(t, err)

	records, loadErr := m.load(s, view.Range{Start: 0, End: 10})
	assert.Nil(t, records)
	require.Error(t, loadErr)
	assert.True(t, util.IsRecoveredPanicError(loadErr))
	assert.Contains(t, loadErr.Error(), "source exploded")

	// the pool survives a panicking source
	require.NoError(t, s.SetView(context.Background(), view.Range{Start: 0, End: 10}))
	waitFor(t, func() bool { return s.Stats().FetchErrors >= 1 })
}
