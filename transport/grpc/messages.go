package grpc

import (
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

// PushGameCreateRequest hosts a new game.
type PushGameCreateRequest struct {
	Host   string `json:"host"`
	Preset string `json:"preset,omitempty"`
}

// PlayerRequest names a game and the player acting on it. It carries
// PushGameAccept, PushUndo and PushGameGg.
type PlayerRequest struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
}

// PushMoveRequest plays one move.
type PushMoveRequest struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
	Move   string `json:"move"`
}

// GameRequest names a game for read-only calls.
type GameRequest struct {
	GameID string `json:"game_id"`
}

// PullMovesRequest pages through a game's move list.
type PullMovesRequest struct {
	GameID string `json:"game_id"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Order  string `json:"order,omitempty"`
}

// PushMsgRequest sends a chat line.
type PushMsgRequest struct {
	GameID string `json:"game_id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type PullGamesListRequest struct{}

// PullGamesListResponse lists games in creation order.
type PullGamesListResponse struct {
	GameIDs []string               `json:"game_ids"`
	Games   []*service.GameSummary `json:"games"`
}

type LegalMovesResponse struct {
	GameID string   `json:"game_id"`
	Moves  []string `json:"moves"`
}

type PullMsgsResponse struct {
	GameID   string                    `json:"game_id"`
	Messages []multiplayer.ChatMessage `json:"messages"`
}

type PullPresetsRequest struct{}

type PullPresetsResponse struct {
	Presets []*service.PresetInfo `json:"presets"`
}
