package service_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"github.com/wricardo/multiplayer-chess/game/session"
)

// MockGameStore implements service.GameStore for testing
type MockGameStore struct {
	mu      sync.Mutex
	games   map[string]*multiplayer.Game
	order   []string
	addErrs []error
}

func NewMockGameStore() *MockGameStore {
	return &MockGameStore{games: make(map[string]*multiplayer.Game)}
}

func (m *MockGameStore) Add(ctx context.Context, g *multiplayer.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.addErrs) > 0 {
		err := m.addErrs[0]
		m.addErrs = m.addErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := m.games[g.ID()]; exists {
		return multiplayer.ErrDuplicateID
	}
	m.games[g.ID()] = g.Clone()
	m.order = append(m.order, g.ID())
	return nil
}

func (m *MockGameStore) Get(ctx context.Context, id string) (*multiplayer.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, exists := m.games[id]
	if !exists {
		return nil, multiplayer.ErrNotFound
	}
	return g.Clone(), nil
}

func (m *MockGameStore) List(ctx context.Context) ([]*multiplayer.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*multiplayer.Game, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.games[id].Clone())
	}
	return result, nil
}

func (m *MockGameStore) Update(ctx context.Context, id string, fn func(*multiplayer.Game) error) (*multiplayer.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, exists := m.games[id]
	if !exists {
		return nil, multiplayer.ErrNotFound
	}
	work := g.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	m.games[id] = work
	return work.Clone(), nil
}

// MockNotifier records events
type MockNotifier struct {
	mu     sync.Mutex
	events []service.Event
}

func (n *MockNotifier) Notify(ctx context.Context, ev service.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *MockNotifier) Types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var types []string
	for _, ev := range n.events {
		types = append(types, ev.Type)
	}
	return types
}

// MockPresetManager serves a fixed set of presets
type MockPresetManager struct {
	presets map[string]*service.Preset
}

func (m *MockPresetManager) LoadPreset(name string) (*service.Preset, error) {
	p, ok := m.presets[name]
	if !ok {
		return nil, fmt.Errorf("preset %s not found", name)
	}
	return p, nil
}

func (m *MockPresetManager) ListPresets() ([]*service.PresetInfo, error) {
	var out []*service.PresetInfo
	for id, p := range m.presets {
		out = append(out, &service.PresetInfo{PresetID: id, Name: p.Name, FEN: p.FEN})
	}
	return out, nil
}

func (m *MockPresetManager) SavePreset(name string, p *service.Preset) error {
	m.presets[name] = p
	return nil
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("G%d", n.Add(1))
	}
}

func setupTestService(t *testing.T, opts ...service.Option) (service.SessionService, *MockGameStore, *MockNotifier) {
	t.Helper()
	store := NewMockGameStore()
	notifier := &MockNotifier{}
	opts = append([]service.Option{service.WithNotifier(notifier), service.WithIDGenerator(sequentialIDs())}, opts...)
	svc := service.NewSessionService(store, nil, engine.NewChessOracle(), opts...)
	return svc, store, notifier
}

func assertCode(t *testing.T, err error, want multiplayer.Code) {
	t.Helper()
	if got := multiplayer.CodeOf(err); got != want {
		t.Fatalf("Expected %s, got %s (%v)", want, got, err)
	}
}

func TestSessionService_Scenarios(t *testing.T) {
	svc, _, notifier := setupTestService(t)
	ctx := context.Background()

	info, err := svc.CreateGame(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if info.ID != "G1" || info.State != multiplayer.AwaitingOpponent {
		t.Fatalf("Expected G1 awaiting opponent, got %s %s", info.ID, info.State)
	}

	info, err = svc.AcceptGame(ctx, "G1", "bob")
	if err != nil {
		t.Fatalf("AcceptGame failed: %v", err)
	}
	if info.State != multiplayer.InProgress || info.Turn != "alice" {
		t.Fatalf("Expected in progress with alice to move, got %s/%s", info.State, info.Turn)
	}

	t.Run("scenario 1", func(t *testing.T) {
		res, err := svc.PushMove(ctx, "G1", "alice", "e2e4")
		if err != nil {
			t.Fatalf("PushMove failed: %v", err)
		}
		if !res.Success || len(res.Game.History) != 1 {
			t.Fatalf("Expected one move in history, got %+v", res.Game)
		}
		_, err = svc.PushMove(ctx, "G1", "bob", "e2e4")
		assertCode(t, err, multiplayer.CodeIllegalMove)

		state, _ := svc.PullGameState(ctx, "G1")
		if len(state.History) != 1 {
			t.Errorf("Expected history length 1, got %d", len(state.History))
		}
	})

	t.Run("scenario 2", func(t *testing.T) {
		res, err := svc.PushMove(ctx, "G1", "bob", "e7e5")
		if err != nil {
			t.Fatalf("PushMove failed: %v", err)
		}
		if len(res.Game.History) != 2 || res.Game.Turn != "alice" {
			t.Errorf("Expected 2 moves with alice to move, got %d/%s", len(res.Game.History), res.Game.Turn)
		}
		_, err = svc.PushMove(ctx, "G1", "bob", "d7d5")
		assertCode(t, err, multiplayer.CodeNotYourTurn)
	})

	t.Run("scenario 4", func(t *testing.T) {
		_, err := svc.AcceptGame(ctx, "G1", "carol")
		assertCode(t, err, multiplayer.CodeAlreadyJoined)
		state, _ := svc.PullGameState(ctx, "G1")
		if state.Guest != "bob" {
			t.Errorf("Expected guest bob, got %q", state.Guest)
		}
	})

	t.Run("scenario 3", func(t *testing.T) {
		info, err := svc.Forfeit(ctx, "G1", "alice")
		if err != nil {
			t.Fatalf("Forfeit failed: %v", err)
		}
		if info.State != multiplayer.Finished || info.Winner != "bob" {
			t.Errorf("Expected bob to win, got %s/%q", info.State, info.Winner)
		}
		_, err = svc.PushMove(ctx, "G1", "bob", "d7d5")
		assertCode(t, err, multiplayer.CodeGameOver)
	})

	want := []string{
		service.EventGameCreated, service.EventGameAccepted,
		service.EventMove, service.EventMove,
		service.EventForfeit, service.EventGameOver,
	}
	if got := notifier.Types(); !slices.Equal(got, want) {
		t.Errorf("Expected events %v, got %v", want, got)
	}
}

func TestSessionService_NotFound(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"AcceptGame": func() error { _, err := svc.AcceptGame(ctx, "nope", "bob"); return err },
		"PushMove":   func() error { _, err := svc.PushMove(ctx, "nope", "bob", "e2e4"); return err },
		"PushUndo":   func() error { _, err := svc.PushUndo(ctx, "nope", "bob"); return err },
		"Board":      func() error { _, err := svc.PullBoardState(ctx, "nope"); return err },
		"GameState":  func() error { _, err := svc.PullGameState(ctx, "nope"); return err },
		"Moves":      func() error { _, err := svc.PullMoves(ctx, "nope", service.HistoryOptions{}); return err },
		"LegalMoves": func() error { _, err := svc.LegalMoves(ctx, "nope"); return err },
		"Forfeit":    func() error { _, err := svc.Forfeit(ctx, "nope", "bob"); return err },
		"SendChat":   func() error { _, err := svc.SendChat(ctx, "nope", "bob", "hi"); return err },
		"PullChat":   func() error { _, err := svc.PullChat(ctx, "nope"); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assertCode(t, call(), multiplayer.CodeNotFound)
		})
	}
}

func TestSessionService_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("empty host", func(t *testing.T) {
		svc, _, _ := setupTestService(t)
		_, err := svc.CreateGame(ctx, "", "")
		assertCode(t, err, multiplayer.CodeInvalidArgument)
	})

	t.Run("retries on duplicate id", func(t *testing.T) {
		svc, store, _ := setupTestService(t)
		store.addErrs = []error{multiplayer.ErrDuplicateID, multiplayer.ErrDuplicateID}

		info, err := svc.CreateGame(ctx, "alice", "")
		if err != nil {
			t.Fatalf("Expected retry to succeed, got %v", err)
		}
		if info.ID != "G3" {
			t.Errorf("Expected third generated id, got %s", info.ID)
		}
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		svc, _, _ := setupTestService(t, service.WithIDGenerator(func() string { return "same" }))
		if _, err := svc.CreateGame(ctx, "alice", ""); err != nil {
			t.Fatalf("First create failed: %v", err)
		}
		_, err := svc.CreateGame(ctx, "bob", "")
		assertCode(t, err, multiplayer.CodeDuplicateID)
		if ids, _ := svc.ListGames(ctx); len(ids) != 1 {
			t.Errorf("Expected one stored game, got %v", ids)
		}
	})

	t.Run("unique ids by default", func(t *testing.T) {
		svc := service.NewSessionService(NewMockGameStore(), nil, engine.NewChessOracle())
		a, _ := svc.CreateGame(ctx, "alice", "")
		b, _ := svc.CreateGame(ctx, "alice", "")
		if a.ID == "" || a.ID == b.ID {
			t.Errorf("Expected distinct ids, got %q and %q", a.ID, b.ID)
		}
	})

	t.Run("presets", func(t *testing.T) {
		presets := &MockPresetManager{presets: map[string]*service.Preset{
			"endgame": {Name: "Endgame", FEN: "7k/8/5K2/8/8/8/8/3Q4 w - - 0 1"},
		}}
		svc := service.NewSessionService(NewMockGameStore(), presets, engine.NewChessOracle(), service.WithIDGenerator(sequentialIDs()))

		info, err := svc.CreateGame(ctx, "alice", "endgame")
		if err != nil {
			t.Fatalf("CreateGame with preset failed: %v", err)
		}
		if info.Position != "7k/8/5K2/8/8/8/8/3Q4 w - - 0 1" {
			t.Errorf("Expected preset position, got %s", info.Position)
		}
		_, err = svc.CreateGame(ctx, "alice", "unknown")
		assertCode(t, err, multiplayer.CodeInvalidArgument)
	})

	t.Run("standard without preset manager", func(t *testing.T) {
		svc, _, _ := setupTestService(t)
		info, err := svc.CreateGame(ctx, "alice", service.StandardPreset)
		if err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
		if info.Position != engine.StartFEN {
			t.Errorf("Expected start position, got %s", info.Position)
		}
		presets, _ := svc.ListPresets(ctx)
		if len(presets) != 1 || presets[0].PresetID != service.StandardPreset {
			t.Errorf("Expected only the standard preset, got %+v", presets)
		}
	})
}

func TestSessionService_ListGames(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	var created []string
	for _, host := range []string{"a", "b", "c"} {
		info, _ := svc.CreateGame(ctx, host, "")
		created = append(created, info.ID)
	}

	first, _ := svc.ListGames(ctx)
	second, _ := svc.ListGames(ctx)
	if !slices.Equal(first, created) || !slices.Equal(first, second) {
		t.Errorf("Expected stable listing %v, got %v then %v", created, first, second)
	}

	summaries, err := svc.ListGameSummaries(ctx)
	if err != nil {
		t.Fatalf("ListGameSummaries failed: %v", err)
	}
	if len(summaries) != 3 || summaries[1].Host != "b" || summaries[1].State != multiplayer.AwaitingOpponent {
		t.Errorf("Unexpected summaries %+v", summaries)
	}
}

func TestSessionService_BoardAndMoves(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	svc.CreateGame(ctx, "alice", "")
	svc.AcceptGame(ctx, "G1", "bob")

	for i, mv := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if _, err := svc.PushMove(ctx, "G1", player, mv); err != nil {
			t.Fatalf("Move %s failed: %v", mv, err)
		}
	}

	board, err := svc.PullBoardState(ctx, "G1")
	if err != nil {
		t.Fatalf("PullBoardState failed: %v", err)
	}
	state, _ := svc.PullGameState(ctx, "G1")
	if board.Position != state.Position || board.Turn != "bob" {
		t.Errorf("Unexpected board state %+v", board)
	}

	t.Run("ascending page", func(t *testing.T) {
		page, err := svc.PullMoves(ctx, "G1", service.HistoryOptions{Page: 1, Limit: 2})
		if err != nil {
			t.Fatalf("PullMoves failed: %v", err)
		}
		if page.TotalMoves != 5 || page.TotalPages != 3 || !page.HasNext || page.HasPrevious {
			t.Errorf("Unexpected pagination %+v", page)
		}
		if len(page.Moves) != 2 || page.Moves[0].Move != "e2e4" || page.Moves[1].Player != "bob" {
			t.Errorf("Unexpected moves %+v", page.Moves)
		}
		if page.Moves[1].Color != engine.Black || page.Moves[1].Position != state.History[1] {
			t.Errorf("Unexpected entry %+v", page.Moves[1])
		}
	})

	t.Run("descending last page", func(t *testing.T) {
		page, _ := svc.PullMoves(ctx, "G1", service.HistoryOptions{Page: 3, Limit: 2, Order: "desc"})
		if len(page.Moves) != 1 || page.Moves[0].Number != 1 {
			t.Errorf("Expected only the first move, got %+v", page.Moves)
		}
	})

	t.Run("legal moves", func(t *testing.T) {
		moves, err := svc.LegalMoves(ctx, "G1")
		if err != nil {
			t.Fatalf("LegalMoves failed: %v", err)
		}
		if !slices.Contains(moves, "a7a6") {
			t.Errorf("Expected a7a6 for black, got %v", moves)
		}
	})
}

func TestSessionService_Checkmate(t *testing.T) {
	svc, _, notifier := setupTestService(t)
	ctx := context.Background()
	svc.CreateGame(ctx, "alice", "")
	svc.AcceptGame(ctx, "G1", "bob")

	var last *service.MoveResult
	for i, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		res, err := svc.PushMove(ctx, "G1", player, mv)
		if err != nil {
			t.Fatalf("Move %s failed: %v", mv, err)
		}
		last = res
	}

	if !last.GameOver || last.Game.Winner != "bob" || last.Game.Status != engine.Checkmate {
		t.Errorf("Expected checkmate win for bob, got %+v", last.Game)
	}
	if last.Game.Turn != "" {
		t.Errorf("Expected no player to move, got %q", last.Game.Turn)
	}
	types := notifier.Types()
	if types[len(types)-1] != service.EventGameOver {
		t.Errorf("Expected a game_over event, got %v", types)
	}
	if moves, _ := svc.LegalMoves(ctx, "G1"); len(moves) != 0 {
		t.Errorf("Expected no legal moves, got %v", moves)
	}
}

func TestSessionService_Undo(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	svc.CreateGame(ctx, "alice", "")
	svc.AcceptGame(ctx, "G1", "bob")
	svc.PushMove(ctx, "G1", "alice", "e2e4")

	_, err := svc.PushUndo(ctx, "G1", "bob")
	assertCode(t, err, multiplayer.CodeNotYourTurn)

	info, err := svc.PushUndo(ctx, "G1", "alice")
	if err != nil {
		t.Fatalf("PushUndo failed: %v", err)
	}
	if len(info.History) != 0 || info.Position != engine.StartFEN {
		t.Errorf("Expected start position after undo, got %+v", info)
	}
}

func TestSessionService_Chat(t *testing.T) {
	svc, _, notifier := setupTestService(t)
	ctx := context.Background()
	svc.CreateGame(ctx, "alice", "")

	if _, err := svc.SendChat(ctx, "G1", "alice", "anyone?"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	svc.AcceptGame(ctx, "G1", "bob")
	msg, err := svc.SendChat(ctx, "G1", "bob", "here")
	if err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if msg.Sender != "bob" || msg.SentAt.IsZero() {
		t.Errorf("Unexpected message %+v", msg)
	}
	_, err = svc.SendChat(ctx, "G1", "bob", "")
	assertCode(t, err, multiplayer.CodeInvalidArgument)

	chat, err := svc.PullChat(ctx, "G1")
	if err != nil {
		t.Fatalf("PullChat failed: %v", err)
	}
	if len(chat) != 2 || chat[0].Text != "anyone?" || chat[1].Text != "here" {
		t.Errorf("Unexpected chat %+v", chat)
	}
	if !slices.Contains(notifier.Types(), service.EventChat) {
		t.Error("Expected a chat event")
	}
}

func TestSessionService_ConcurrentMoves(t *testing.T) {
	store := session.NewMemoryStore()
	svc := service.NewSessionService(store, nil, engine.NewChessOracle(), service.WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	svc.CreateGame(ctx, "alice", "")
	svc.AcceptGame(ctx, "G1", "bob")

	const k = 16
	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.PushMove(ctx, "G1", "alice", "e2e4"); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("Expected exactly one concurrent move to succeed, got %d", succeeded.Load())
	}
	state, _ := svc.PullGameState(ctx, "G1")
	if len(state.History) != 1 {
		t.Errorf("Expected history length 1, got %d", len(state.History))
	}
}

func TestNotifiers(t *testing.T) {
	a, b := &MockNotifier{}, &MockNotifier{}
	service.Notifiers{a, nil, b}.Notify(context.Background(), service.Event{Type: service.EventChat})
	if len(a.Types()) != 1 || len(b.Types()) != 1 {
		t.Error("Expected every notifier to receive the event")
	}
}
