package engine

import (
	"errors"
	"fmt"
)

// StartFEN is the regular chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrGameOver        = errors.New("game is over")
	ErrInvalidPosition = errors.New("invalid position")
	ErrNothingToUndo   = errors.New("nothing to undo")
)

// Position is a full board snapshot in FEN notation. Two positions are
// equal when their strings are equal.
type Position string

// String returns the FEN text of the position.
func (p Position) String() string {
	return string(p)
}

// Color identifies the side to move.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Status reports whether a game can continue.
type Status int

const (
	Continuing Status = iota
	Checkmate
	Stalemate
)

// Terminal reports whether no further moves are possible.
func (s Status) Terminal() bool {
	return s == Checkmate || s == Stalemate
}

func (s Status) String() string {
	switch s {
	case Continuing:
		return "continuing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "continuing", "":
		*s = Continuing
	case "checkmate":
		*s = Checkmate
	case "stalemate":
		*s = Stalemate
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}
