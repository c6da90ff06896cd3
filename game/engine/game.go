package engine

import (
	"fmt"
	"slices"
)

// Game is a board plus the ordered list of positions reached by each
// successful move, oldest first.
type Game struct {
	start   Board
	board   Board
	history []Position
	moves   []string
	status  Status
}

// NewGame starts a game from the oracle's start position.
func NewGame(oracle Oracle) (*Game, error) {
	if oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	return NewGameFromPosition(oracle, oracle.StartPosition())
}

// NewGameFromPosition starts a game from an arbitrary valid position.
func NewGameFromPosition(oracle Oracle, pos Position) (*Game, error) {
	board, err := NewBoard(oracle, pos)
	if err != nil {
		return nil, err
	}
	status, err := oracle.Status(pos)
	if err != nil {
		return nil, err
	}
	return &Game{
		start:  board,
		board:  board,
		status: status,
	}, nil
}

// RestoreGame rebuilds a game by replaying moves from start.
func RestoreGame(oracle Oracle, start Position, moves []string) (*Game, error) {
	g, err := NewGameFromPosition(oracle, start)
	if err != nil {
		return nil, err
	}
	for i, mv := range moves {
		if err := g.Move(mv); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, mv, err)
		}
	}
	return g, nil
}

// Move applies move. History and board change together or not at all.
// Once the game reached checkmate or stalemate every move fails with
// ErrGameOver without consulting the oracle.
func (g *Game) Move(move string) error {
	if g.status.Terminal() {
		return ErrGameOver
	}
	next, err := g.board.AttemptMove(move)
	if err != nil {
		return err
	}
	status, err := next.oracle.Status(next.Position())
	if err != nil {
		return err
	}

	g.board = next
	g.history = append(g.history, next.Position())
	g.moves = append(g.moves, move)
	g.status = status
	return nil
}

// MakeMove is Move reduced to success or failure.
func (g *Game) MakeMove(move string) bool {
	return g.Move(move) == nil
}

// Undo takes back the last move, restoring the previous position or the
// start position when the history becomes empty.
func (g *Game) Undo() error {
	if len(g.history) == 0 {
		return ErrNothingToUndo
	}

	prev := g.start
	if n := len(g.history); n > 1 {
		prev = Board{oracle: g.board.oracle, position: g.history[n-2]}
	}
	status, err := prev.oracle.Status(prev.Position())
	if err != nil {
		return err
	}

	g.history = g.history[:len(g.history)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.board = prev
	g.status = status
	return nil
}

// Status returns the status of the current position.
func (g *Game) Status() Status {
	return g.status
}

// Board returns the current board value.
func (g *Game) Board() Board {
	return g.board
}

// Position returns the current position.
func (g *Game) Position() Position {
	return g.board.Position()
}

// StartPosition returns the position the game began from.
func (g *Game) StartPosition() Position {
	return g.start.Position()
}

// Turn returns the side to move.
func (g *Game) Turn() (Color, error) {
	return g.board.oracle.Turn(g.board.Position())
}

// LegalMoves lists the moves available now; none once the game is over.
func (g *Game) LegalMoves() ([]string, error) {
	if g.status.Terminal() {
		return []string{}, nil
	}
	return g.board.LegalMoves()
}

// History returns a copy of the positions reached so far.
func (g *Game) History() []Position {
	return slices.Clone(g.history)
}

// Moves returns a copy of the applied move texts, parallel to History.
func (g *Game) Moves() []string {
	return slices.Clone(g.moves)
}

// Len returns the number of successful moves.
func (g *Game) Len() int {
	return len(g.history)
}

// Clone returns an independent copy.
func (g *Game) Clone() *Game {
	c := *g
	c.history = slices.Clone(g.history)
	c.moves = slices.Clone(g.moves)
	return &c
}
