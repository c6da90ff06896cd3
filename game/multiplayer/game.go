package multiplayer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/wricardo/multiplayer-chess/game/engine"
)

// State is the lifecycle stage of a game.
type State string

const (
	AwaitingOpponent State = "awaiting_opponent"
	InProgress       State = "in_progress"
	Finished         State = "finished"
)

const (
	EndCheckmate = "checkmate"
	EndStalemate = "stalemate"
	EndForfeit   = "forfeit"
)

// ChatMessage is one line of a game's chat log.
type ChatMessage struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Game is a two-player session around an engine.Game. The host plays
// white, the guest black. Every rejected operation returns an *Error and
// leaves the game unchanged.
type Game struct {
	id          string
	host        string
	guest       string
	game        *engine.Game
	chat        []ChatMessage
	state       State
	winner      string
	forfeitedBy string
	endReason   string
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates a game waiting for an opponent.
func New(id, host string, game *engine.Game) (*Game, error) {
	if id == "" {
		return nil, WrapError(CodeInvalidArgument, "game id is required", nil)
	}
	if host == "" {
		return nil, WrapError(CodeInvalidArgument, "host is required", nil)
	}
	if game == nil {
		return nil, WrapError(CodeInvalidArgument, "game is required", nil)
	}
	if game.Status().Terminal() {
		return nil, WrapError(CodeInvalidArgument, "start position is already decided", nil)
	}
	now := time.Now()
	return &Game{
		id:        id,
		host:      host,
		game:      game,
		state:     AwaitingOpponent,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Join seats player as the guest and starts the game.
func (g *Game) Join(player string) error {
	if player == "" {
		return WrapError(CodeInvalidArgument, "player is required", nil)
	}
	if g.state == Finished {
		return ErrGameOver
	}
	if g.guest != "" || player == g.host {
		return ErrAlreadyJoined
	}
	g.guest = player
	g.state = InProgress
	g.touch()
	return nil
}

// Move plays move for player. Turn order is checked before legality.
func (g *Game) Move(player, move string) error {
	if player == "" {
		return WrapError(CodeInvalidArgument, "player is required", nil)
	}
	if g.state == Finished {
		return ErrGameOver
	}
	if !g.IsParticipant(player) {
		return ErrUnauthorized
	}
	if g.state == AwaitingOpponent {
		return ErrNotStarted
	}
	toMove, err := g.PlayerToMove()
	if err != nil {
		return err
	}
	if toMove != player {
		return ErrNotYourTurn
	}

	if err := g.game.Move(move); err != nil {
		if errors.Is(err, engine.ErrGameOver) {
			return ErrGameOver
		}
		return WrapError(CodeIllegalMove, "illegal move", err)
	}
	g.touch()

	switch g.game.Status() {
	case engine.Checkmate:
		g.finish(EndCheckmate, player)
	case engine.Stalemate:
		g.finish(EndStalemate, "")
	}
	return nil
}

// Undo takes back the last move. Only the player who made it may do so,
// and only before the opponent has replied.
func (g *Game) Undo(player string) error {
	if player == "" {
		return WrapError(CodeInvalidArgument, "player is required", nil)
	}
	if g.state == Finished {
		return ErrGameOver
	}
	if !g.IsParticipant(player) {
		return ErrUnauthorized
	}
	if g.state == AwaitingOpponent {
		return ErrNotStarted
	}
	if g.game.Len() == 0 {
		return WrapError(CodeIllegalMove, "nothing to undo", engine.ErrNothingToUndo)
	}
	toMove, err := g.PlayerToMove()
	if err != nil {
		return err
	}
	if toMove == player {
		return ErrNotYourTurn
	}
	if err := g.game.Undo(); err != nil {
		return WrapError(CodeIllegalMove, "undo failed", err)
	}
	g.touch()
	return nil
}

// Forfeit ends the game. The other side wins if there is one.
func (g *Game) Forfeit(player string) error {
	if player == "" {
		return WrapError(CodeInvalidArgument, "player is required", nil)
	}
	if g.state == Finished {
		return ErrGameOver
	}
	if !g.IsParticipant(player) {
		return ErrUnauthorized
	}
	winner := ""
	if g.guest != "" {
		winner = g.opponentOf(player)
	}
	g.forfeitedBy = player
	g.finish(EndForfeit, winner)
	return nil
}

// SendChat appends a message to the chat log. Any named sender may chat in
// any state.
func (g *Game) SendChat(sender, text string) (ChatMessage, error) {
	if sender == "" {
		return ChatMessage{}, WrapError(CodeInvalidArgument, "sender is required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, WrapError(CodeInvalidArgument, "message text is required", nil)
	}
	msg := ChatMessage{Sender: sender, Text: text, SentAt: time.Now()}
	g.chat = append(g.chat, msg)
	g.touch()
	return msg, nil
}

// PlayerToMove returns the participant whose turn it is. It is empty while
// the guest seat is open and black is to move.
func (g *Game) PlayerToMove() (string, error) {
	color, err := g.game.Turn()
	if err != nil {
		return "", fmt.Errorf("read turn: %w", err)
	}
	if color == engine.Black {
		return g.guest, nil
	}
	return g.host, nil
}

// IsParticipant reports whether player is the host or the guest.
func (g *Game) IsParticipant(player string) bool {
	return player != "" && (player == g.host || player == g.guest)
}

func (g *Game) ID() string { return g.id }

func (g *Game) Host() string { return g.host }

// Guest is empty until someone joins.
func (g *Game) Guest() string { return g.guest }

func (g *Game) State() State { return g.state }

// Winner is empty for draws and for games forfeited before a guest joined.
func (g *Game) Winner() string { return g.winner }

func (g *Game) ForfeitedBy() string { return g.forfeitedBy }

func (g *Game) EndReason() string { return g.endReason }

func (g *Game) CreatedAt() time.Time { return g.createdAt }

func (g *Game) UpdatedAt() time.Time { return g.updatedAt }

func (g *Game) Status() engine.Status { return g.game.Status() }

func (g *Game) Position() engine.Position { return g.game.Position() }

func (g *Game) StartPosition() engine.Position { return g.game.StartPosition() }

// History returns every position reached, oldest first.
func (g *Game) History() []engine.Position { return g.game.History() }

func (g *Game) Moves() []string { return g.game.Moves() }

// LegalMoves lists the moves available to the player to move. A finished
// game has none.
func (g *Game) LegalMoves() ([]string, error) {
	if g.state == Finished {
		return []string{}, nil
	}
	return g.game.LegalMoves()
}

// Chat returns a copy of the chat log.
func (g *Game) Chat() []ChatMessage {
	return slices.Clone(g.chat)
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	c := *g
	c.game = g.game.Clone()
	c.chat = slices.Clone(g.chat)
	return &c
}

func (g *Game) opponentOf(player string) string {
	if player == g.host {
		return g.guest
	}
	return g.host
}

func (g *Game) finish(reason, winner string) {
	g.state = Finished
	g.endReason = reason
	g.winner = winner
	g.touch()
}

func (g *Game) touch() {
	g.updatedAt = time.Now()
}
