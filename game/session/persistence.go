package session

import (
	"errors"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotPersistence defines the interface for persisting games
type SnapshotPersistence interface {
	// Save persists a game snapshot
	Save(snapshot multiplayer.Snapshot) error

	// Load retrieves a snapshot by game ID
	Load(id string) (multiplayer.Snapshot, error)

	// Delete removes a snapshot from storage
	Delete(id string) error

	// ListAll returns all persisted game IDs
	ListAll() ([]string, error)

	// Exists checks if a snapshot exists in storage
	Exists(id string) bool
}
