// Command chessctl plays and inspects multiplayer chess games over the gRPC
// service.
//
// Examples:
//
//	chessctl create alice
//	chessctl accept <game> bob
//	chessctl move <game> alice e2e4
//	chessctl board <game>
//	chessctl watch --nats-url nats://localhost:4222 <game>
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chessctl: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand(os.Stdout, dialGRPC)
	if err := cmd.Run(ctx, os.Args); err != nil {
		if code := multiplayer.CodeOf(err); code != multiplayer.CodeUnknown {
			log.Fatalf("%s: %v", code, err)
		}
		log.Fatal(err)
	}
}
