package multiplayer

import (
	"fmt"
	"slices"
	"time"

	"github.com/wricardo/multiplayer-chess/game/engine"
)

// Snapshot is the serializable form of a Game. Positions are not stored;
// Restore replays Moves from StartPosition through the oracle.
type Snapshot struct {
	ID            string          `json:"id"`
	Host          string          `json:"host"`
	Guest         string          `json:"guest,omitempty"`
	State         State           `json:"state"`
	Winner        string          `json:"winner,omitempty"`
	ForfeitedBy   string          `json:"forfeited_by,omitempty"`
	EndReason     string          `json:"end_reason,omitempty"`
	StartPosition engine.Position `json:"start_position"`
	Moves         []string        `json:"moves"`
	Chat          []ChatMessage   `json:"chat"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Snapshot captures the game for persistence.
func (g *Game) Snapshot() Snapshot {
	moves := g.game.Moves()
	if moves == nil {
		moves = []string{}
	}
	chat := slices.Clone(g.chat)
	if chat == nil {
		chat = []ChatMessage{}
	}
	return Snapshot{
		ID:            g.id,
		Host:          g.host,
		Guest:         g.guest,
		State:         g.state,
		Winner:        g.winner,
		ForfeitedBy:   g.forfeitedBy,
		EndReason:     g.endReason,
		StartPosition: g.game.StartPosition(),
		Moves:         moves,
		Chat:          chat,
		CreatedAt:     g.createdAt,
		UpdatedAt:     g.updatedAt,
	}
}

// Restore rebuilds a game from a snapshot.
func Restore(s Snapshot, oracle engine.Oracle) (*Game, error) {
	if s.ID == "" || s.Host == "" {
		return nil, fmt.Errorf("snapshot is missing id or host")
	}
	switch s.State {
	case AwaitingOpponent, InProgress, Finished:
	default:
		return nil, fmt.Errorf("snapshot %s has unknown state %q", s.ID, s.State)
	}

	game, err := engine.RestoreGame(oracle, s.StartPosition, s.Moves)
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", s.ID, err)
	}
	return &Game{
		id:          s.ID,
		host:        s.Host,
		guest:       s.Guest,
		game:        game,
		chat:        slices.Clone(s.Chat),
		state:       s.State,
		winner:      s.Winner,
		forfeitedBy: s.ForfeitedBy,
		endReason:   s.EndReason,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}, nil
}
