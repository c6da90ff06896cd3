package engine

import (
	"errors"
	"slices"
	"testing"
)

func newStartBoard(t *testing.T) Board {
	t.Helper()
	oracle := NewChessOracle()
	board, err := NewBoard(oracle, oracle.StartPosition())
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return board
}

func TestChessOracle_StartPosition(t *testing.T) {
	oracle := NewChessOracle()
	if got := oracle.StartPosition(); got != StartFEN {
		t.Errorf("Expected start position %q, got %q", StartFEN, got)
	}

	moves, err := oracle.LegalMoves(oracle.StartPosition())
	if err != nil {
		t.Fatalf("Failed to list legal moves: %v", err)
	}
	if len(moves) != 20 {
		t.Errorf("Expected 20 legal opening moves, got %d", len(moves))
	}
	if !slices.Contains(moves, "e2e4") || !slices.Contains(moves, "g1f3") {
		t.Errorf("Expected e2e4 and g1f3 among %v", moves)
	}

	turn, err := oracle.Turn(oracle.StartPosition())
	if err != nil {
		t.Fatalf("Failed to read turn: %v", err)
	}
	if turn != White {
		t.Errorf("Expected white to move, got %s", turn)
	}
}

func TestChessOracle_InvalidPosition(t *testing.T) {
	oracle := NewChessOracle()

	if err := oracle.Validate("not a fen"); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition, got %v", err)
	}
	if _, err := oracle.LegalMoves("not a fen"); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition from LegalMoves, got %v", err)
	}
	if _, err := NewBoard(oracle, "not a fen"); err == nil {
		t.Error("Expected NewBoard to reject an invalid position")
	}
}

func TestChessOracle_ValidateImpossiblePositions(t *testing.T) {
	oracle := NewChessOracle()

	tests := []struct {
		name string
		fen  Position
		ok   bool
	}{
		{"start", StartFEN, true},
		{"black to move in check", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true},
		{"two white kings", "4k3/8/8/8/8/8/8/4K2K w - - 0 1", false},
		{"no black king", "8/8/8/8/8/8/8/4K3 w - - 0 1", false},
		{"idle side in check by queen", "4k3/4Q3/8/8/8/8/8/4K3 w - - 0 1", false},
		{"idle side in check by knight", "4k3/8/3N4/8/8/8/8/4K3 w - - 0 1", false},
		{"idle side in check by pawn", "4k3/3P4/8/8/8/8/8/4K3 w - - 0 1", false},
		{"idle side in check by pawn from above", "4k3/8/8/8/8/8/5p2/4K3 b - - 0 1", false},
		{"blocked rook", "4k3/4p3/8/8/8/8/8/4RK2 w - - 0 1", true},
		{"kings adjacent", "8/8/8/8/8/8/4k3/4K3 w - - 0 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := oracle.Validate(tt.fen)
			if tt.ok && err != nil {
				t.Errorf("Expected %s to be valid, got %v", tt.fen, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("Expected ErrInvalidPosition for %s, got %v", tt.fen, err)
			}
		})
	}

	if _, err := NewBoard(oracle, "4k3/4Q3/8/8/8/8/8/4K3 w - - 0 1"); err == nil {
		t.Error("Expected NewBoard to reject a position with the idle side in check")
	}
}

func TestChessOracle_ApplyMatchesUCIText(t *testing.T) {
	oracle := NewChessOracle()

	next, err := oracle.Apply(oracle.StartPosition(), "g1f3")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if turn, _ := oracle.Turn(next); turn != Black {
		t.Errorf("Expected black to move, got %s", turn)
	}
	for _, move := range []string{"e2e5", "E2E4", "e4", ""} {
		if _, err := oracle.Apply(oracle.StartPosition(), move); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("Expected ErrIllegalMove for %q, got %v", move, err)
		}
	}
}

func TestBoard_AttemptMove(t *testing.T) {
	board := newStartBoard(t)

	t.Run("legal move returns a new board", func(t *testing.T) {
		next, err := board.AttemptMove("e2e4")
		if err != nil {
			t.Fatalf("Expected e2e4 to be accepted: %v", err)
		}
		if next.Position() == board.Position() {
			t.Error("Expected a different position after the move")
		}
		if board.Position() != StartFEN {
			t.Errorf("Original board changed: %q", board.Position())
		}
		turn, _ := NewChessOracle().Turn(next.Position())
		if turn != Black {
			t.Errorf("Expected black to move after e2e4, got %s", turn)
		}
	})

	t.Run("illegal move is rejected", func(t *testing.T) {
		next, err := board.AttemptMove("e2e5")
		if !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("Expected ErrIllegalMove, got %v", err)
		}
		if next.Position() != board.Position() {
			t.Error("Expected position unchanged after rejection")
		}
	})

	t.Run("non canonical text is rejected", func(t *testing.T) {
		for _, mv := range []string{"E2E4", "e4", " e2e4", "e2-e4", ""} {
			if _, err := board.AttemptMove(mv); !errors.Is(err, ErrIllegalMove) {
				t.Errorf("Expected %q to be rejected, got %v", mv, err)
			}
		}
	})
}

func TestBoard_IsLegalAgreesWithAttemptMove(t *testing.T) {
	board := newStartBoard(t)
	candidates := []string{"e2e4", "e2e5", "g1f3", "g1g3", "a7a6", "e1g1", "xx", "b1c3"}

	for _, mv := range candidates {
		_, err := board.AttemptMove(mv)
		if board.IsLegal(mv) != (err == nil) {
			t.Errorf("IsLegal(%q)=%v disagrees with AttemptMove err=%v", mv, board.IsLegal(mv), err)
		}
	}
}

func TestBoard_Promotion(t *testing.T) {
	oracle := NewChessOracle()
	board, err := NewBoard(oracle, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}

	if board.IsLegal("e7e8") {
		t.Error("Expected promotion without a piece to be rejected")
	}
	for _, mv := range []string{"e7e8q", "e7e8r", "e7e8b", "e7e8n"} {
		if !board.IsLegal(mv) {
			t.Errorf("Expected %s to be legal", mv)
		}
	}
}

func TestChessOracle_Diagram(t *testing.T) {
	oracle := NewChessOracle()

	diagram, err := oracle.Diagram(oracle.StartPosition())
	if err != nil {
		t.Fatalf("Diagram failed: %v", err)
	}
	if len(diagram) == 0 {
		t.Error("Expected a non-empty diagram")
	}
	if _, err := oracle.Diagram("not a fen"); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition, got %v", err)
	}
}
