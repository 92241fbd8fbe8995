package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioValidate(t *testing.T) {
	require.NoError(t, defaultScenario().validate())

	bad := []*Scenario{
		{},
		{Moves: []MoveSpec{{Kind: "warp", Weight: 1}}},
		{Moves: []MoveSpec{{Kind: moveDrift, Weight: 0}}},
		{Moves: []MoveSpec{{Kind: moveDrift, Weight: 1, Min: 5, Max: 2}}},
		{ThinkMinMs: 20, ThinkMaxMs: 10, Moves: []MoveSpec{{Kind: moveDrift, Weight: 1}}},
	}
	for i, s := range bad {
		assert.Error(t, s.validate(), "scenario %d", i)
	}
}

func TestScenarioPickAndThink(t *testing.T) {
	s := defaultScenario()
	rng := rand.New(rand.NewSource(1))

	seen := map[string]int{}
	for i := 0; i < 1000; i++ {
		m := s.pick(rng)
		seen[m.Kind]++

		d := s.think(rng)
		require.GreaterOrEqual(t, d, time.Duration(s.ThinkMinMs)*time.Millisecond)
		require.LessOrEqual(t, d, time.Duration(s.ThinkMaxMs)*time.Millisecond)
	}

	// 6:3:1 weights, a thousand draws must hit every kind.
	assert.Greater(t, seen[moveDrift], seen[moveJump])
	assert.NotZero(t, seen[movePage])
}

func TestLoadScenarioFile(t *testing.T) {
	data := `
think_min_ms: 10
think_max_ms: 20
moves:
  - kind: drift
    weight: 2
    min: 1
    max: 5
  - kind: jump
    weight: 1
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := loadScenario(path)
	require.NoError(t, err)
	require.Len(t, s.Moves, 2)
	assert.Equal(t, 10, s.ThinkMinMs)
	assert.Equal(t, moveJump, s.Moves[1].Kind)

	_, err = loadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
