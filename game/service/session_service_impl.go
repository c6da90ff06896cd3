package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

// maxCreateAttempts bounds id regeneration when the store reports a
// collision.
const maxCreateAttempts = 3

// sessionServiceImpl implements the SessionService interface. It owns no
// game state; everything lives in the store.
type sessionServiceImpl struct {
	store    GameStore
	presets  PresetManager
	oracle   engine.Oracle
	notifier Notifier
	newID    func() string
}

// Option configures the session service.
type Option func(*sessionServiceImpl)

// WithNotifier publishes every stored change to n.
func WithNotifier(n Notifier) Option {
	return func(s *sessionServiceImpl) {
		s.notifier = n
	}
}

// WithIDGenerator replaces the random game id source.
func WithIDGenerator(f func() string) Option {
	return func(s *sessionServiceImpl) {
		s.newID = f
	}
}

// NewSessionService creates a new session service. presets may be nil, in
// which case only the standard start position is offered.
func NewSessionService(store GameStore, presets PresetManager, oracle engine.Oracle, opts ...Option) SessionService {
	s := &sessionServiceImpl{
		store:   store,
		presets: presets,
		oracle:  oracle,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame creates a game hosted by host, starting from the named preset
// or the standard position when preset is empty.
func (s *sessionServiceImpl) CreateGame(ctx context.Context, host, preset string) (*GameInfo, error) {
	if host == "" {
		return nil, multiplayer.WrapError(multiplayer.CodeInvalidArgument, "host is required", nil)
	}
	start, err := s.startPosition(preset)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		eg, err := engine.NewGameFromPosition(s.oracle, start)
		if err != nil {
			return nil, multiplayer.WrapError(multiplayer.CodeInvalidArgument, "invalid start position", err)
		}
		g, err := multiplayer.New(s.newID(), host, eg)
		if err != nil {
			return nil, err
		}

		err = s.store.Add(ctx, g)
		if errors.Is(err, multiplayer.ErrDuplicateID) {
			log.Printf("Game id %s already taken (attempt %d/%d)", g.ID(), attempt, maxCreateAttempts)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store game: %w", err)
		}

		info := newGameInfo(g)
		log.Printf("Game %s created by %s", info.ID, host)
		s.notify(ctx, Event{Type: EventGameCreated, GameID: info.ID, Player: host, Game: info})
		return info, nil
	}
	return nil, multiplayer.WrapError(multiplayer.CodeDuplicateID, "could not allocate a unique game id", lastErr)
}

// AcceptGame seats player as the guest.
func (s *sessionServiceImpl) AcceptGame(ctx context.Context, gameID, player string) (*GameInfo, error) {
	g, err := s.store.Update(ctx, gameID, func(g *multiplayer.Game) error {
		return g.Join(player)
	})
	if err != nil {
		return nil, err
	}
	info := newGameInfo(g)
	s.notify(ctx, Event{Type: EventGameAccepted, GameID: gameID, Player: player, Game: info})
	return info, nil
}

// PushMove applies a move for player.
func (s *sessionServiceImpl) PushMove(ctx context.Context, gameID, player, move string) (*MoveResult, error) {
	g, err := s.store.Update(ctx, gameID, func(g *multiplayer.Game) error {
		return g.Move(player, move)
	})
	if err != nil {
		log.Printf("[MOVE] game=%s player=%s move=%s status=%s", gameID, player, move, multiplayer.CodeOf(err))
		return nil, err
	}
	log.Printf("[MOVE] game=%s player=%s move=%s status=ok", gameID, player, move)

	info := newGameInfo(g)
	result := &MoveResult{
		Success:  true,
		Move:     move,
		Game:     info,
		GameOver: info.State == multiplayer.Finished,
	}
	s.notify(ctx, Event{Type: EventMove, GameID: gameID, Player: player, Move: move, Game: info})
	if result.GameOver {
		result.Message = fmt.Sprintf("Game over by %s", info.EndReason)
		if info.Winner != "" {
			result.Message += fmt.Sprintf(", %s wins", info.Winner)
		}
		s.notify(ctx, Event{Type: EventGameOver, GameID: gameID, Player: info.Winner, Game: info})
	}
	return result, nil
}

// PushUndo takes back player's last move.
func (s *sessionServiceImpl) PushUndo(ctx context.Context, gameID, player string) (*GameInfo, error) {
	g, err := s.store.Update(ctx, gameID, func(g *multiplayer.Game) error {
		return g.Undo(player)
	})
	if err != nil {
		return nil, err
	}
	info := newGameInfo(g)
	s.notify(ctx, Event{Type: EventUndo, GameID: gameID, Player: player, Game: info})
	return info, nil
}

// LegalMoves lists the moves available to the player to move.
func (s *sessionServiceImpl) LegalMoves(ctx context.Context, gameID string) ([]string, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	moves, err := g.LegalMoves()
	if err != nil {
		return nil, fmt.Errorf("failed to list legal moves: %w", err)
	}
	return moves, nil
}

// PullBoardState returns the current position only.
func (s *sessionServiceImpl) PullBoardState(ctx context.Context, gameID string) (*BoardState, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	state := &BoardState{
		GameID:   g.ID(),
		Position: g.Position(),
		Status:   g.Status(),
	}
	if g.State() != multiplayer.Finished {
		state.Turn, _ = g.PlayerToMove()
	}
	return state, nil
}

// PullGameState returns the full view including history.
func (s *sessionServiceImpl) PullGameState(ctx context.Context, gameID string) (*GameInfo, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return newGameInfo(g), nil
}

// PullMoves returns a page of the move list.
func (s *sessionServiceImpl) PullMoves(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	history, err := s.moveEntries(g)
	if err != nil {
		return nil, err
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "desc" {
		opts.Order = "asc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []MoveEntry{}
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		GameID:      gameID,
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListGames returns every game id in creation order.
func (s *sessionServiceImpl) ListGames(ctx context.Context) ([]string, error) {
	games, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID())
	}
	return ids, nil
}

// ListGameSummaries returns one summary per game in creation order.
func (s *sessionServiceImpl) ListGameSummaries(ctx context.Context) ([]*GameSummary, error) {
	games, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	result := make([]*GameSummary, 0, len(games))
	for _, g := range games {
		result = append(result, newGameSummary(g))
	}
	return result, nil
}

// Forfeit ends the game in favor of player's opponent.
func (s *sessionServiceImpl) Forfeit(ctx context.Context, gameID, player string) (*GameInfo, error) {
	g, err := s.store.Update(ctx, gameID, func(g *multiplayer.Game) error {
		return g.Forfeit(player)
	})
	if err != nil {
		return nil, err
	}
	info := newGameInfo(g)
	log.Printf("Game %s forfeited by %s", gameID, player)
	s.notify(ctx, Event{Type: EventForfeit, GameID: gameID, Player: player, Game: info})
	s.notify(ctx, Event{Type: EventGameOver, GameID: gameID, Player: info.Winner, Game: info})
	return info, nil
}

// SendChat appends a chat message.
func (s *sessionServiceImpl) SendChat(ctx context.Context, gameID, sender, text string) (*multiplayer.ChatMessage, error) {
	var msg multiplayer.ChatMessage
	_, err := s.store.Update(ctx, gameID, func(g *multiplayer.Game) error {
		var err error
		msg, err = g.SendChat(sender, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Event{Type: EventChat, GameID: gameID, Player: sender, Chat: &msg})
	return &msg, nil
}

// PullChat returns the chat log oldest first.
func (s *sessionServiceImpl) PullChat(ctx context.Context, gameID string) ([]multiplayer.ChatMessage, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	chat := g.Chat()
	if chat == nil {
		chat = []multiplayer.ChatMessage{}
	}
	return chat, nil
}

// ListPresets returns the available start positions.
func (s *sessionServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	if s.presets == nil {
		return []*PresetInfo{{
			PresetID:    StandardPreset,
			Name:        "Standard",
			Description: "Regular chess start position",
			FEN:         s.oracle.StartPosition(),
		}}, nil
	}
	return s.presets.ListPresets()
}

func (s *sessionServiceImpl) startPosition(preset string) (engine.Position, error) {
	if preset == "" || (preset == StandardPreset && s.presets == nil) {
		return s.oracle.StartPosition(), nil
	}
	if s.presets == nil {
		return "", multiplayer.WrapError(multiplayer.CodeInvalidArgument, fmt.Sprintf("preset %q not found", preset), nil)
	}
	p, err := s.presets.LoadPreset(preset)
	if err != nil {
		return "", multiplayer.WrapError(multiplayer.CodeInvalidArgument, fmt.Sprintf("preset %q not available", preset), err)
	}
	return p.FEN, nil
}

// moveEntries pairs each move with the player who made it, taken from the
// side to move in the position before it.
func (s *sessionServiceImpl) moveEntries(g *multiplayer.Game) ([]MoveEntry, error) {
	moves := g.Moves()
	history := g.History()
	entries := make([]MoveEntry, 0, len(moves))

	prev := g.StartPosition()
	for i, mv := range moves {
		color, err := s.oracle.Turn(prev)
		if err != nil {
			return nil, fmt.Errorf("failed to read turn at move %d: %w", i+1, err)
		}
		player := g.Host()
		if color == engine.Black {
			player = g.Guest()
		}
		entries = append(entries, MoveEntry{
			Number:   i + 1,
			Player:   player,
			Color:    color,
			Move:     mv,
			Position: history[i],
		})
		prev = history[i]
	}
	return entries, nil
}

func (s *sessionServiceImpl) notify(ctx context.Context, ev Event) {
	if s.notifier == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.notifier.Notify(ctx, ev)
}
