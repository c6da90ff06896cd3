package service

import (
	"context"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

// SessionService defines all game-related operations
type SessionService interface {
	// Lifecycle
	CreateGame(ctx context.Context, host, preset string) (*GameInfo, error)
	AcceptGame(ctx context.Context, gameID, player string) (*GameInfo, error)
	Forfeit(ctx context.Context, gameID, player string) (*GameInfo, error)

	// Play
	PushMove(ctx context.Context, gameID, player, move string) (*MoveResult, error)
	PushUndo(ctx context.Context, gameID, player string) (*GameInfo, error)
	LegalMoves(ctx context.Context, gameID string) ([]string, error)

	// Game State
	PullBoardState(ctx context.Context, gameID string) (*BoardState, error)
	PullGameState(ctx context.Context, gameID string) (*GameInfo, error)
	PullMoves(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error)
	ListGames(ctx context.Context) ([]string, error)
	ListGameSummaries(ctx context.Context) ([]*GameSummary, error)

	// Chat
	SendChat(ctx context.Context, gameID, sender, text string) (*multiplayer.ChatMessage, error)
	PullChat(ctx context.Context, gameID string) ([]multiplayer.ChatMessage, error)

	// Presets
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
}

// GameStore holds every game. Implementations must serialize Update calls
// per game id and hand out copies, never the stored instance.
type GameStore interface {
	// Add inserts g. It fails with multiplayer.ErrDuplicateID when the id
	// is taken.
	Add(ctx context.Context, g *multiplayer.Game) error

	// Get returns a copy of the game or multiplayer.ErrNotFound.
	Get(ctx context.Context, id string) (*multiplayer.Game, error)

	// List returns copies of all games in insertion order.
	List(ctx context.Context) ([]*multiplayer.Game, error)

	// Update runs fn against the game under exclusive access. The change
	// is kept only if fn returns nil. The returned game is a copy of the
	// stored result.
	Update(ctx context.Context, id string, fn func(*multiplayer.Game) error) (*multiplayer.Game, error)
}

// PresetManager handles start-position presets
type PresetManager interface {
	LoadPreset(name string) (*Preset, error)
	ListPresets() ([]*PresetInfo, error)
	SavePreset(name string, preset *Preset) error
}

// Notifier receives events after a mutation has been stored. Notify must
// not block on slow subscribers.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Notifiers fans an event out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}
