// Package service provides the business logic layer for multiplayer chess.
//
// The service package implements:
//   - Game creation with fresh ids and optional start-position presets
//   - Join, move, undo, forfeit and chat operations
//   - Board, game state, move history and chat queries
//   - Change notification for spectators
//
// Core Interfaces:
//
// SessionService is the main service interface, shared by every transport.
// GameStore owns the games and serializes changes to each one.
// PresetManager supplies named start positions.
// Notifier receives an Event after each stored change.
//
// Architecture:
//
// The service holds no game state. Each request becomes one GameStore call,
// and every mutation runs inside GameStore.Update so two requests against
// the same game are applied in a strict order. Rejections come back as
// *multiplayer.Error values; transports map their codes to HTTP statuses,
// gRPC codes or tool errors.
//
// Usage:
//
//	store := session.NewMemoryStore()
//	presets := config.NewManager("presets", oracle)
//	svc := service.NewSessionService(store, presets, oracle,
//		service.WithNotifier(hub))
//
//	game, err := svc.CreateGame(ctx, "alice", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = svc.AcceptGame(ctx, game.ID, "bob")
//	result, err := svc.PushMove(ctx, game.ID, "alice", "e2e4")
package service
