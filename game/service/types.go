package service

import (
	"time"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

// StandardPreset names the regular chess start position. It is always
// available, with or without a preset directory.
const StandardPreset = "standard"

// GameInfo is the full public view of one game.
type GameInfo struct {
	ID            string            `json:"id"`
	Host          string            `json:"host"`
	Guest         string            `json:"guest,omitempty"`
	State         multiplayer.State `json:"state"`
	Status        engine.Status     `json:"status"`
	Position      engine.Position   `json:"position"`
	StartPosition engine.Position   `json:"start_position"`
	History       []engine.Position `json:"history"`
	Moves         []string          `json:"moves"`
	Turn          string            `json:"turn,omitempty"` // player to move; empty once finished
	Winner        string            `json:"winner,omitempty"`
	ForfeitedBy   string            `json:"forfeited_by,omitempty"`
	EndReason     string            `json:"end_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// BoardState is the current position without history.
type BoardState struct {
	GameID   string          `json:"game_id"`
	Position engine.Position `json:"position"`
	Status   engine.Status   `json:"status"`
	Turn     string          `json:"turn,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success  bool      `json:"success"`
	Move     string    `json:"move"`
	Game     *GameInfo `json:"game"`
	GameOver bool      `json:"game_over"`
	Message  string    `json:"message,omitempty"`
}

// GameSummary is the lightweight listing form of a game.
type GameSummary struct {
	ID        string            `json:"id"`
	Host      string            `json:"host"`
	Guest     string            `json:"guest,omitempty"`
	State     multiplayer.State `json:"state"`
	MoveCount int               `json:"move_count"`
	Winner    string            `json:"winner,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MoveEntry is one applied move with the player who made it.
type MoveEntry struct {
	Number   int             `json:"number"`
	Player   string          `json:"player"`
	Color    engine.Color    `json:"color"`
	Move     string          `json:"move"`
	Position engine.Position `json:"position"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	GameID      string      `json:"game_id"`
	Moves       []MoveEntry `json:"moves"`
	TotalMoves  int         `json:"total_moves"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	TotalPages  int         `json:"total_pages"`
	HasNext     bool        `json:"has_next"`
	HasPrevious bool        `json:"has_previous"`
}

// Preset is a named start position.
type Preset struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FEN         engine.Position `json:"fen"`
}

// PresetInfo provides information about a preset
type PresetInfo struct {
	Filename    string          `json:"filename,omitempty"`
	PresetID    string          `json:"preset_id"` // The identifier to use for game creation
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FEN         engine.Position `json:"fen"`
}

// Event types published to a Notifier.
const (
	EventGameCreated  = "game_created"
	EventGameAccepted = "game_accepted"
	EventMove         = "move"
	EventUndo         = "undo"
	EventForfeit      = "forfeit"
	EventGameOver     = "game_over"
	EventChat         = "chat"
)

// Event is a change to one game, published after the store accepted it.
type Event struct {
	Type      string                   `json:"type"`
	GameID    string                   `json:"game_id"`
	Player    string                   `json:"player,omitempty"`
	Move      string                   `json:"move,omitempty"`
	Game      *GameInfo                `json:"game,omitempty"`
	Chat      *multiplayer.ChatMessage `json:"chat,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

func newGameInfo(g *multiplayer.Game) *GameInfo {
	info := &GameInfo{
		ID:            g.ID(),
		Host:          g.Host(),
		Guest:         g.Guest(),
		State:         g.State(),
		Status:        g.Status(),
		Position:      g.Position(),
		StartPosition: g.StartPosition(),
		History:       g.History(),
		Moves:         g.Moves(),
		Winner:        g.Winner(),
		ForfeitedBy:   g.ForfeitedBy(),
		EndReason:     g.EndReason(),
		CreatedAt:     g.CreatedAt(),
		UpdatedAt:     g.UpdatedAt(),
	}
	if info.History == nil {
		info.History = []engine.Position{}
	}
	if info.Moves == nil {
		info.Moves = []string{}
	}
	if g.State() != multiplayer.Finished {
		info.Turn, _ = g.PlayerToMove()
	}
	return info
}

func newGameSummary(g *multiplayer.Game) *GameSummary {
	return &GameSummary{
		ID:        g.ID(),
		Host:      g.Host(),
		Guest:     g.Guest(),
		State:     g.State(),
		MoveCount: len(g.Moves()),
		Winner:    g.Winner(),
		UpdatedAt: g.UpdatedAt(),
	}
}
