// Package engine provides the single-game rules layer: boards, move history
// and terminal-state tracking.
//
// The engine does not know the rules of chess. Legal-move generation, move
// application and checkmate detection come from an Oracle; ChessOracle is
// the production implementation and enginetest.Oracle a scripted one for
// tests.
//
// Core Types:
//
// Position is an opaque serialized board (FEN for ChessOracle). Board is an
// immutable value pairing a position with its oracle; AttemptMove returns a
// new Board and never touches the receiver. Game records every position
// reached so earlier history entries stay valid after later moves.
//
// Usage:
//
//	g, err := engine.NewGame(engine.NewChessOracle())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := g.Move("e2e4"); err != nil {
//		// errors.Is(err, engine.ErrIllegalMove)
//	}
//	fmt.Println(g.Position(), g.Status())
//
// Moves use UCI text: source square, destination square and an optional
// promotion piece (e7e8q). Any other spelling is rejected.
package engine
