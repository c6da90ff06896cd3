// Command chessbot plays chess against humans or other bots through the
// REST API. It either hosts a new game and waits for an opponent, or joins
// an open game by id.
//
//	chessbot -name botty                    # host a game
//	chessbot -name rival -join <game id>    # join one
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	name := flag.String("name", "chessbot", "Player name used by the bot")
	join := flag.String("join", "", "Join an existing game by ID instead of hosting one")
	preset := flag.String("preset", "", "Start-position preset when hosting")
	strategyName := flag.String("strategy", "mate", "Move choice: first, random or mate")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	maxMoves := flag.Int("max-moves", 0, "Stop after this many moves (0 = play to the end)")
	resign := flag.Bool("resign", false, "Forfeit when stopping before the game is over")
	pollMs := flag.Int("poll", 500, "Polling interval in milliseconds")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	strategy, err := newStrategy(*strategyName, *seed)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	gameID := *join
	if gameID == "" {
		game, err := client.CreateGame(ctx, *name, *preset)
		if err != nil {
			log.Fatalf("Failed to create game: %v", err)
		}
		gameID = game.ID
		log.Printf("Game created: %s (waiting for an opponent)", gameID)
	} else {
		if _, err := client.AcceptGame(ctx, gameID, *name); err != nil {
			log.Fatalf("Failed to join game %s: %v", gameID, err)
		}
		log.Printf("Joined game %s as %s", gameID, *name)
	}

	bot := &Bot{
		client:   client,
		player:   *name,
		strategy: strategy,
		poll:     time.Duration(*pollMs) * time.Millisecond,
		maxMoves: *maxMoves,
		verbose:  *verbose,
	}

	game, err := bot.Play(ctx, gameID)
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Bot stopped: %v", err)
	}

	if game != nil && game.Winner == "" && game.EndReason == "" && *resign {
		// ctx may be cancelled already.
		forfeitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if game, err = client.Forfeit(forfeitCtx, gameID, *name); err != nil {
			log.Fatalf("Failed to forfeit: %v", err)
		}
	}

	switch {
	case game == nil:
		log.Printf("Game %s: no result", gameID)
	case game.Winner != "":
		log.Printf("Game %s over (%s), winner: %s after %d moves", gameID, game.EndReason, game.Winner, len(game.Moves))
	case game.EndReason != "":
		log.Printf("Game %s over (%s), no winner after %d moves", gameID, game.EndReason, len(game.Moves))
	default:
		log.Printf("Game %s still running after %d moves", gameID, len(game.Moves))
	}
}
