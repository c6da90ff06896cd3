package engine

import (
	"fmt"
	"slices"
)

// Board holds one position. It is a value: a successful move returns a new
// Board and leaves the receiver untouched, so positions kept in a history
// never change underneath their owner.
type Board struct {
	oracle   Oracle
	position Position
}

// NewBoard returns a board at pos after checking pos with the oracle.
func NewBoard(oracle Oracle, pos Position) (Board, error) {
	if oracle == nil {
		return Board{}, fmt.Errorf("oracle is required")
	}
	if err := oracle.Validate(pos); err != nil {
		return Board{}, err
	}
	return Board{oracle: oracle, position: pos}, nil
}

// Position returns the current position.
func (b Board) Position() Position {
	return b.position
}

// LegalMoves lists the moves available from the current position.
func (b Board) LegalMoves() ([]string, error) {
	return b.oracle.LegalMoves(b.position)
}

// IsLegal reports whether move would be accepted by AttemptMove.
func (b Board) IsLegal(move string) bool {
	ok, err := b.matches(move)
	return err == nil && ok
}

// AttemptMove validates move against the oracle's legal move list and
// returns the board after it. On failure the error wraps ErrIllegalMove or
// ErrInvalidPosition.
func (b Board) AttemptMove(move string) (Board, error) {
	ok, err := b.matches(move)
	if err != nil {
		return b, err
	}
	if !ok {
		return b, fmt.Errorf("%w: %q", ErrIllegalMove, move)
	}
	next, err := b.oracle.Apply(b.position, move)
	if err != nil {
		return b, err
	}
	return Board{oracle: b.oracle, position: next}, nil
}

// matches is shared by IsLegal and AttemptMove so the query and the
// mutation can never disagree.
func (b Board) matches(move string) (bool, error) {
	legal, err := b.oracle.LegalMoves(b.position)
	if err != nil {
		return false, err
	}
	return slices.Contains(legal, move), nil
}
