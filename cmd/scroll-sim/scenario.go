package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	moveDrift = "drift"
	movePage  = "page"
	moveJump  = "jump"
)

// Scenario describes the scroll behavior mix of a simulated reader.
type Scenario struct {
	ThinkMinMs int        `yaml:"think_min_ms"`
	ThinkMaxMs int        `yaml:"think_max_ms"`
	Moves      []MoveSpec `yaml:"moves"`
}

// MoveSpec is one weighted move kind. Drift scrolls by a few rows, page
// moves by a whole view, jump teleports anywhere in the dataset.
type MoveSpec struct {
	Kind   string `yaml:"kind"`
	Weight int    `yaml:"weight"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
}

func defaultScenario() *Scenario {
	return &Scenario{
		ThinkMinMs: 50,
		ThinkMaxMs: 300,
		Moves: []MoveSpec{
			{Kind: moveDrift, Weight: 6, Min: 1, Max: 30},
			{Kind: movePage, Weight: 3},
			{Kind: moveJump, Weight: 1},
		},
	}
}

func loadScenario(path string) (*Scenario, error) {
	if path == "" {
		return defaultScenario(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return s, nil
}

func (s *Scenario) validate() error {
	if len(s.Moves) == 0 {
		return fmt.Errorf("no moves")
	}
	if s.ThinkMinMs < 0 || s.ThinkMaxMs < s.ThinkMinMs {
		return fmt.Errorf("think time range [%d, %d] is inverted", s.ThinkMinMs, s.ThinkMaxMs)
	}

	for i, m := range s.Moves {
		switch m.Kind {
		case moveDrift, movePage, moveJump:
		default:
			return fmt.Errorf("move %d: unknown kind %q", i, m.Kind)
		}
		if m.Weight <= 0 {
			return fmt.Errorf("move %d: weight must be positive", i)
		}
		if m.Min < 0 || m.Max < m.Min {
			return fmt.Errorf("move %d: rows range [%d, %d] is inverted", i, m.Min, m.Max)
		}
	}

	return nil
}

// pick draws a move by weight.
func (s *Scenario) pick(rng *rand.Rand) MoveSpec {
	total := 0
	for _, m := range s.Moves {
		total += m.Weight
	}

	n := rng.Intn(total)
	for _, m := range s.Moves {
		if n < m.Weight {
			return m
		}
		n -= m.Weight
	}

	return s.Moves[len(s.Moves)-1]
}

func (s *Scenario) think(rng *rand.Rand) time.Duration {
	ms := s.ThinkMinMs
	if spread := s.ThinkMaxMs - s.ThinkMinMs; spread > 0 {
		ms += rng.Intn(spread + 1)
	}
	return time.Duration(ms) * time.Millisecond
}
