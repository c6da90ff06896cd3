package engine

import (
	"fmt"

	"github.com/notnil/chess"
)

// Oracle is the move-legality collaborator. It knows the rules of the game;
// nothing else in this module does.
type Oracle interface {
	// StartPosition returns the position a new game begins from.
	StartPosition() Position

	// Validate reports ErrInvalidPosition when pos cannot be decoded or
	// could not arise in a game.
	Validate(pos Position) error

	// LegalMoves lists the legal moves from pos in canonical text form.
	LegalMoves(pos Position) ([]string, error)

	// Apply plays a legal move and returns the resulting position.
	Apply(pos Position, move string) (Position, error)

	// Status reports checkmate or stalemate for pos.
	Status(pos Position) (Status, error)

	// Turn reports the side to move in pos.
	Turn(pos Position) (Color, error)
}

// ChessOracle implements Oracle for standard chess using UCI move text
// (e2e4, e7e8q).
type ChessOracle struct{}

// NewChessOracle returns the standard chess oracle.
func NewChessOracle() *ChessOracle {
	return &ChessOracle{}
}

// StartPosition returns the standard initial position.
func (o *ChessOracle) StartPosition() Position {
	return Position(chess.StartingPosition().String())
}

// Validate decodes pos and requires exactly one king per side, with the
// side that just moved not left in check.
func (o *ChessOracle) Validate(pos Position) error {
	p, err := o.decode(pos)
	if err != nil {
		return err
	}
	board := p.Board()
	kings := map[chess.Color][]chess.Square{}
	for sq, piece := range board.SquareMap() {
		if piece.Type() == chess.King {
			kings[piece.Color()] = append(kings[piece.Color()], sq)
		}
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if len(kings[c]) != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, colorName(c), len(kings[c]))
		}
	}
	idle := p.Turn().Other()
	if attacked(board, kings[idle][0], p.Turn()) {
		return fmt.Errorf("%w: %s is in check but not to move", ErrInvalidPosition, colorName(idle))
	}
	return nil
}

// LegalMoves returns every legal move in UCI notation.
func (o *ChessOracle) LegalMoves(pos Position) ([]string, error) {
	p, err := o.decode(pos)
	if err != nil {
		return nil, err
	}
	valid := p.ValidMoves()
	moves := make([]string, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, chess.UCINotation{}.Encode(p, m))
	}
	return moves, nil
}

// Apply plays move on pos. The move must match a legal move exactly.
func (o *ChessOracle) Apply(pos Position, move string) (Position, error) {
	p, err := o.decode(pos)
	if err != nil {
		return "", err
	}
	m := o.find(p, move)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrIllegalMove, move)
	}
	return Position(p.Update(m).String()), nil
}

// Status maps the library's terminal methods onto Status.
func (o *ChessOracle) Status(pos Position) (Status, error) {
	p, err := o.decode(pos)
	if err != nil {
		return Continuing, err
	}
	switch p.Status() {
	case chess.Checkmate:
		return Checkmate, nil
	case chess.Stalemate:
		return Stalemate, nil
	default:
		return Continuing, nil
	}
}

// Turn returns the side to move.
func (o *ChessOracle) Turn(pos Position) (Color, error) {
	p, err := o.decode(pos)
	if err != nil {
		return "", err
	}
	if p.Turn() == chess.Black {
		return Black, nil
	}
	return White, nil
}

// Diagram draws pos as a text board, rank 8 at the top.
func (o *ChessOracle) Diagram(pos Position) (string, error) {
	p, err := o.decode(pos)
	if err != nil {
		return "", err
	}
	return p.Board().Draw(), nil
}

func (o *ChessOracle) find(p *chess.Position, move string) *chess.Move {
	for _, m := range p.ValidMoves() {
		if (chess.UCINotation{}).Encode(p, m) == move {
			return m
		}
	}
	return nil
}

func (o *ChessOracle) decode(pos Position) (*chess.Position, error) {
	opt, err := chess.FEN(string(pos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func colorName(c chess.Color) Color {
	if c == chess.Black {
		return Black
	}
	return White
}

var (
	knightSteps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// pieceAt returns the piece on file f, rank r, or NoPiece off the board.
func pieceAt(board *chess.Board, f, r int) chess.Piece {
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return chess.NoPiece
	}
	return board.Piece(chess.Square(r*8 + f))
}

// attacked reports whether any piece of color by attacks sq.
func attacked(board *chess.Board, sq chess.Square, by chess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())
	is := func(p chess.Piece, types ...chess.PieceType) bool {
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// White pawns attack upward, so they sit one rank below.
	dir := -1
	if by == chess.Black {
		dir = 1
	}
	if is(pieceAt(board, f-1, r+dir), chess.Pawn) || is(pieceAt(board, f+1, r+dir), chess.Pawn) {
		return true
	}
	for _, s := range knightSteps {
		if is(pieceAt(board, f+s[0], r+s[1]), chess.Knight) {
			return true
		}
	}
	for _, s := range kingSteps {
		if is(pieceAt(board, f+s[0], r+s[1]), chess.King) {
			return true
		}
	}
	slide := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for i := 1; i < 8; i++ {
				x, y := f+d[0]*i, r+d[1]*i
				if x < 0 || x > 7 || y < 0 || y > 7 {
					break
				}
				p := pieceAt(board, x, y)
				if p == chess.NoPiece {
					continue
				}
				if is(p, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(rookRays, chess.Rook, chess.Queen) || slide(bishopRays, chess.Bishop, chess.Queen)
}
