// Package api provides the HTTP REST API for multiplayer chess.
//
// The api package implements:
//   - Game lifecycle endpoints (create, accept, forfeit)
//   - Move, undo and legal-move endpoints
//   - Board, game and paginated move-history queries
//   - Chat endpoints
//   - Preset listing and creation
//   - WebSocket upgrade for spectators
//
// Endpoints:
//
// Games:
//   - POST /api/games - Create a game {"host": "alice", "preset": "queen-endgame"}
//   - GET /api/games - List game summaries (?state=awaiting_opponent&limit=10)
//   - GET /api/games/{id} - Full game state
//   - POST /api/games/{id}/accept - Join as guest {"player": "bob"}
//   - POST /api/games/{id}/forfeit - Resign {"player": "bob"}
//
// Play:
//   - POST /api/games/{id}/moves - Make a move {"player": "alice", "move": "e2e4"}
//   - GET /api/games/{id}/moves - Move history (?page=1&limit=20&order=asc)
//   - POST /api/games/{id}/undo - Take back your last move {"player": "alice"}
//   - GET /api/games/{id}/board - Current position and player to move
//   - GET /api/games/{id}/legal-moves - Moves available to the player to move
//
// Chat:
//   - POST /api/games/{id}/chat - Send {"sender": "alice", "text": "good luck"}
//   - GET /api/games/{id}/chat - Read the chat log
//
// Presets:
//   - GET /api/presets - List start positions
//   - POST /api/presets - Save {"id": "drill", "name": "Drill", "fen": "..."}
//   - GET /api/presets/{name} - Load one preset
//
// Other:
//   - GET /ws?game={id} - Spectate a game over WebSocket
//   - GET /health - Liveness check
//
// Error Handling:
//
// Rejected operations return JSON with the machine-readable code and an
// HTTP status derived from it:
//
//	{
//	  "error": "not your turn",
//	  "code": "NOT_YOUR_TURN"
//	}
//
// NOT_FOUND maps to 404, INVALID_ARGUMENT to 400, UNAUTHORIZED to 403,
// ILLEGAL_MOVE to 422, and the remaining state conflicts to 409.
//
// Usage:
//
//	server := api.NewServer(svc, presets, hub)
//	http.ListenAndServe(":8080", server)
package api
