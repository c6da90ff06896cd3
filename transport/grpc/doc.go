// Package grpc serves the chess session protocol over gRPC.
//
// The chess.Chess service has one unary method per session operation:
//
//	PushGameCreate  PushGameAccept  PushMove   PushUndo  PushGameGg
//	PullBoardState  PullGameState   PullGamesList  PullMoves
//	PullLegalMoves  PushMsg  PullMsgs  PullPresets
//
// Messages are plain Go structs carried by a JSON codec registered under
// the "json" content subtype, and the service descriptor is written by
// hand. NewGRPCServer also registers the standard health service and an
// OpenTelemetry stats handler.
//
// Errors:
//
// Every rejection becomes a status whose code follows GRPCCode and whose
// details hold an errdetails.ErrorInfo with the exact reason
// (NOT_YOUR_TURN, GAME_OVER, ...), since several reasons share a gRPC code.
// Client converts them back into *multiplayer.Error values.
//
// Usage:
//
//	grpcServer, _ := grpc.NewGRPCServer(svc)
//	go grpcServer.Serve(lis)
//
//	client, err := grpc.Dial("localhost:9090")
//	game, err := client.CreateGame(ctx, "alice", "")
package grpc
