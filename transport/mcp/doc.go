// Package mcp exposes multiplayer chess to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes one request to the
// REST API, so agents play on the same server as everyone else and their
// moves reach spectators like any other.
//
// MCP Tools:
//   - create_game, accept_game, list_games, forfeit
//   - game_state, board_state, legal_moves, move_history
//   - make_move, undo_move
//   - send_chat, read_chat
//   - list_presets
//
// Rejections come back as tool errors whose text starts with the error
// code, for example "NOT_YOUR_TURN: not your turn".
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
