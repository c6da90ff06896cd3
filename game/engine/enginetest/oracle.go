// Package enginetest provides a scripted engine.Oracle for deterministic
// tests of code that sits above the rules engine.
package enginetest

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/wricardo/multiplayer-chess/game/engine"
)

// Oracle answers from fixed tables instead of real rules.
type Oracle struct {
	Start    engine.Position
	Moves    map[engine.Position]map[string]engine.Position
	Statuses map[engine.Position]engine.Status
	Turns    map[engine.Position]engine.Color

	mu    sync.Mutex
	calls atomic.Int64
}

// Line builds an oracle for a single forced sequence: position "0" allows
// only moves[0] leading to "1", and so on. White moves from even positions.
func Line(moves ...string) *Oracle {
	o := &Oracle{
		Start:    "0",
		Moves:    map[engine.Position]map[string]engine.Position{},
		Statuses: map[engine.Position]engine.Status{},
		Turns:    map[engine.Position]engine.Color{},
	}
	for i := 0; i <= len(moves); i++ {
		pos := engine.Position(strconv.Itoa(i))
		color := engine.White
		if i%2 == 1 {
			color = engine.Black
		}
		o.Turns[pos] = color
		o.Moves[pos] = map[string]engine.Position{}
		if i < len(moves) {
			o.Moves[pos][moves[i]] = engine.Position(strconv.Itoa(i + 1))
		}
	}
	return o
}

// EndWith marks the position reached after n moves as terminal.
func (o *Oracle) EndWith(n int, status engine.Status) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Statuses[engine.Position(strconv.Itoa(n))] = status
	return o
}

// Calls returns how many times legal moves were enumerated.
func (o *Oracle) Calls() int64 {
	return o.calls.Load()
}

func (o *Oracle) StartPosition() engine.Position {
	return o.Start
}

func (o *Oracle) Validate(pos engine.Position) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.Moves[pos]; !ok {
		return fmt.Errorf("%w: %q", engine.ErrInvalidPosition, string(pos))
	}
	return nil
}

func (o *Oracle) LegalMoves(pos engine.Position) ([]string, error) {
	o.calls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	next, ok := o.Moves[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidPosition, string(pos))
	}
	moves := make([]string, 0, len(next))
	for mv := range next {
		moves = append(moves, mv)
	}
	return moves, nil
}

func (o *Oracle) Apply(pos engine.Position, move string) (engine.Position, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, ok := o.Moves[pos][move]
	if !ok {
		return "", fmt.Errorf("%w: %q", engine.ErrIllegalMove, move)
	}
	return next, nil
}

func (o *Oracle) Status(pos engine.Position) (engine.Status, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Statuses[pos], nil
}

func (o *Oracle) Turn(pos engine.Position) (engine.Color, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.Turns[pos]; ok {
		return c, nil
	}
	return engine.White, nil
}
