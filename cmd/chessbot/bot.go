package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

// Bot plays one side of a game by polling the server and moving whenever
// it is the bot's turn.
type Bot struct {
	client   *Client
	player   string
	strategy Strategy
	poll     time.Duration
	maxMoves int
	verbose  bool
}

// Play runs until the game finishes, maxMoves moves have been made
// (0 means no limit) or ctx ends. It returns the last game state seen.
func (b *Bot) Play(ctx context.Context, gameID string) (*service.GameInfo, error) {
	var last *service.GameInfo
	moves := 0
	for {
		game, err := b.client.GetGame(ctx, gameID)
		if err != nil {
			return last, fmt.Errorf("get game: %w", err)
		}
		last = game
		if game.State == multiplayer.Finished {
			return game, nil
		}
		if b.maxMoves > 0 && moves >= b.maxMoves {
			return game, nil
		}
		if game.State != multiplayer.InProgress || game.Turn != b.player {
			if err := b.wait(ctx); err != nil {
				return game, err
			}
			continue
		}

		legal, err := b.client.LegalMoves(ctx, gameID)
		if err != nil {
			return game, fmt.Errorf("legal moves: %w", err)
		}
		move := b.strategy.NextMove(game.Position, legal)
		if move == "" {
			return game, errors.New("no legal move to play")
		}

		result, err := b.client.Move(ctx, gameID, b.player, move)
		if errors.Is(err, multiplayer.ErrNotYourTurn) {
			continue
		}
		if err != nil {
			return game, fmt.Errorf("move %s: %w", move, err)
		}
		moves++
		if b.verbose {
			log.Printf("%s played %s (%d)", b.player, move, moves)
		}
		if result.GameOver {
			return result.Game, nil
		}
	}
}

func (b *Bot) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.poll):
		return nil
	}
}
