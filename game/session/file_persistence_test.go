package session

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
)

func TestFilePersistence(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	g := newTestGame(t, "test1")
	g.Join("bob")
	g.Move("alice", "e2e4")
	g.SendChat("bob", "good luck")

	t.Run("Save and Load Snapshot", func(t *testing.T) {
		if err := persistence.Save(g.Snapshot()); err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "test1.json")); err != nil {
			t.Fatalf("Expected snapshot file: %v", err)
		}

		snapshot, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load snapshot: %v", err)
		}
		if snapshot.ID != "test1" || snapshot.Guest != "bob" {
			t.Errorf("Unexpected snapshot %+v", snapshot)
		}
		if !slices.Equal(snapshot.Moves, []string{"e2e4"}) || len(snapshot.Chat) != 1 {
			t.Errorf("Snapshot lost moves or chat: %+v", snapshot)
		}

		restored, err := multiplayer.Restore(snapshot, engine.NewChessOracle())
		if err != nil {
			t.Fatalf("Failed to restore: %v", err)
		}
		if restored.Position() != g.Position() {
			t.Error("Restored position differs")
		}
	})

	t.Run("List and Exists", func(t *testing.T) {
		persistence.Save(newTestGame(t, "test2").Snapshot())

		all, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		slices.Sort(all)
		if !slices.Equal(all, []string{"test1", "test2"}) {
			t.Errorf("Expected [test1 test2], got %v", all)
		}
		if !persistence.Exists("test2") || persistence.Exists("nope") {
			t.Error("Exists disagrees with stored files")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := persistence.Delete("test2"); !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("Missing and unsafe ids", func(t *testing.T) {
		if _, err := persistence.Load("missing"); !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
		}
		if _, err := persistence.Load("../etc/passwd"); !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("Expected path traversal to be refused, got %v", err)
		}
		bad := g.Snapshot()
		bad.ID = "../escape"
		if err := persistence.Save(bad); err == nil {
			t.Error("Expected save with an unsafe id to fail")
		}
	})
}
