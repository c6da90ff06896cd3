package session

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

var _ service.GameStore = (*MemoryStore)(nil)

// MemoryStore keeps games in process behind one mutex. Every read and
// every read-modify-write takes the same lock, so operations on a game are
// observed in a single serial order.
type MemoryStore struct {
	games       map[string]*multiplayer.Game
	order       []string
	persistence SnapshotPersistence
	mu          sync.Mutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*multiplayer.Game),
	}
}

// NewMemoryStoreWithPersistence creates a store that writes a snapshot
// after every change.
func NewMemoryStoreWithPersistence(persistence SnapshotPersistence) *MemoryStore {
	s := NewMemoryStore()
	s.persistence = persistence
	return s
}

// Add inserts g, failing with ErrDuplicateID if the id is taken.
func (s *MemoryStore) Add(ctx context.Context, g *multiplayer.Game) error {
	if g == nil || g.ID() == "" {
		return multiplayer.WrapError(multiplayer.CodeInvalidArgument, "game with an id is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[g.ID()]; exists {
		return multiplayer.WrapError(multiplayer.CodeDuplicateID, fmt.Sprintf("game %s already exists", g.ID()), nil)
	}
	stored := g.Clone()
	s.games[g.ID()] = stored
	s.order = append(s.order, g.ID())
	s.persist(stored)
	return nil
}

// Get returns a copy of the game.
func (s *MemoryStore) Get(ctx context.Context, id string) (*multiplayer.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.games[id]
	if !exists {
		return nil, notFound(id)
	}
	return g.Clone(), nil
}

// List returns copies of all games in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]*multiplayer.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*multiplayer.Game, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.games[id].Clone())
	}
	return result, nil
}

// Update applies fn to a copy and swaps it in only on success.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*multiplayer.Game) error) (*multiplayer.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.games[id]
	if !exists {
		return nil, notFound(id)
	}
	work := g.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	s.games[id] = work
	s.persist(work)
	return work.Clone(), nil
}

// Count returns the number of stored games
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// LoadPersisted restores every persisted game not already in memory,
// oldest first.
func (s *MemoryStore) LoadPersisted(oracle engine.Oracle) error {
	if s.persistence == nil {
		return nil
	}

	ids, err := s.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted games: %w", err)
	}

	var loaded []*multiplayer.Game
	for _, id := range ids {
		snapshot, err := s.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: failed to load persisted game %s: %v", id, err)
			continue
		}
		g, err := multiplayer.Restore(snapshot, oracle)
		if err != nil {
			log.Printf("Warning: failed to restore persisted game %s: %v", id, err)
			continue
		}
		loaded = append(loaded, g)
	}
	slices.SortStableFunc(loaded, func(a, b *multiplayer.Game) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, g := range loaded {
		if _, exists := s.games[g.ID()]; exists {
			continue
		}
		s.games[g.ID()] = g
		s.order = append(s.order, g.ID())
		count++
	}
	if count > 0 {
		log.Printf("Loaded %d persisted games from storage", count)
	}
	return nil
}

// SaveAll writes a snapshot of every game.
func (s *MemoryStore) SaveAll() error {
	if s.persistence == nil {
		return nil
	}

	s.mu.Lock()
	snapshots := make([]multiplayer.Snapshot, 0, len(s.order))
	for _, id := range s.order {
		snapshots = append(snapshots, s.games[id].Snapshot())
	}
	s.mu.Unlock()

	errorCount := 0
	for _, snapshot := range snapshots {
		if err := s.persistence.Save(snapshot); err != nil {
			log.Printf("Warning: failed to save game %s: %v", snapshot.ID, err)
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("failed to save %d games", errorCount)
	}
	return nil
}

// persist must be called with s.mu held.
func (s *MemoryStore) persist(g *multiplayer.Game) {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(g.Snapshot()); err != nil {
		log.Printf("Warning: failed to persist game %s: %v", g.ID(), err)
	}
}

func notFound(id string) error {
	return multiplayer.WrapError(multiplayer.CodeNotFound, fmt.Sprintf("game %s not found", id), nil)
}
