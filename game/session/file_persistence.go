package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

// FilePersistence implements SnapshotPersistence with one JSON file per
// game.
type FilePersistence struct {
	dir string
}

// NewFilePersistence creates a new file-based snapshot store
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FilePersistence{dir: dir}, nil
}

// Save writes the snapshot through a temporary file so readers never see
// a partial write.
func (fp *FilePersistence) Save(snapshot multiplayer.Snapshot) error {
	if !validID(snapshot.ID) {
		return fmt.Errorf("invalid game id %q", snapshot.ID)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := fp.getFilePath(snapshot.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// Load reads the snapshot for id.
func (fp *FilePersistence) Load(id string) (multiplayer.Snapshot, error) {
	var snapshot multiplayer.Snapshot
	if !validID(id) {
		return snapshot, ErrSnapshotNotFound
	}

	data, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot, ErrSnapshotNotFound
		}
		return snapshot, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

// Delete removes a snapshot file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSnapshotNotFound
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}
	return nil
}

// ListAll returns all persisted game IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// Exists checks if a snapshot file exists
func (fp *FilePersistence) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.dir, id+".json")
}

// validID keeps ids from escaping the snapshot directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
