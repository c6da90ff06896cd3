package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/wricardo/multiplayer-chess/game/engine"
)

// Strategy picks one move from the legal moves of a position.
type Strategy interface {
	NextMove(pos engine.Position, legal []string) string
}

// FirstStrategy always plays the first legal move.
type FirstStrategy struct{}

func (FirstStrategy) NextMove(_ engine.Position, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	return legal[0]
}

// RandomStrategy plays a uniformly random legal move.
type RandomStrategy struct {
	rng *rand.Rand
}

func NewRandomStrategy(seed uint64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomStrategy) NextMove(_ engine.Position, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	return legal[s.rng.IntN(len(legal))]
}

// MateStrategy plays a mating move when one exists and otherwise defers
// to its fallback.
type MateStrategy struct {
	oracle   engine.Oracle
	fallback Strategy
}

func NewMateStrategy(oracle engine.Oracle, fallback Strategy) *MateStrategy {
	return &MateStrategy{oracle: oracle, fallback: fallback}
}

func (s *MateStrategy) NextMove(pos engine.Position, legal []string) string {
	for _, move := range legal {
		next, err := s.oracle.Apply(pos, move)
		if err != nil {
			continue
		}
		if status, err := s.oracle.Status(next); err == nil && status == engine.Checkmate {
			return move
		}
	}
	return s.fallback.NextMove(pos, legal)
}

// newStrategy resolves a strategy by name.
func newStrategy(name string, seed uint64) (Strategy, error) {
	switch name {
	case "first":
		return FirstStrategy{}, nil
	case "random":
		return NewRandomStrategy(seed), nil
	case "mate", "":
		return NewMateStrategy(engine.NewChessOracle(), NewRandomStrategy(seed)), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want first, random or mate)", name)
	}
}
