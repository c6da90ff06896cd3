package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/multiplayer-chess/game/engine"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_preset.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	return path
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidatePreset_Valid(t *testing.T) {
	path := writePreset(t, `{
		"name": "Queen endgame",
		"description": "King and queen against a lone king",
		"fen": "7k/8/5K2/8/8/8/8/3Q4 w - - 0 1"
	}`)

	result := validatePreset(path, engine.NewChessOracle())
	if !result.Valid {
		t.Fatalf("Expected valid preset, but got errors: %v", result.Messages)
	}
	if result.File != "test_preset.json" {
		t.Errorf("Expected file name test_preset.json, got %s", result.File)
	}

	for _, want := range []string{"Name: Queen endgame", "To move: white", "Material: white K1Q1, black K1"} {
		if !hasMessage(result, want) {
			t.Errorf("Expected %q in messages, got %v", want, result.Messages)
		}
	}
}

func TestValidatePreset_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid json", `{"name": "test", invalid json}`, "Invalid JSON"},
		{"unknown field", `{"name": "x", "fen": "8/8/8/8/8/8/8/8 w - - 0 1", "layout": []}`, "Invalid JSON"},
		{"missing name", `{"fen": "7k/8/5K2/8/8/8/8/3Q4 w - - 0 1"}`, "name is required"},
		{"missing fen", `{"name": "Empty"}`, "fen is required"},
		{"bad fen", `{"name": "Broken", "fen": "not a position"}`, "Invalid FEN"},
		{"checkmate", `{"name": "Mated", "fen": "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"}`, "already checkmate"},
		{"stalemate", `{"name": "Stuck", "fen": "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}`, "already stalemate"},
	}

	oracle := engine.NewChessOracle()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validatePreset(writePreset(t, tt.content), oracle)
			if result.Valid {
				t.Fatal("Expected invalid preset")
			}
			if !hasMessage(result, tt.want) {
				t.Errorf("Expected %q in messages, got %v", tt.want, result.Messages)
			}
		})
	}
}

func TestValidatePreset_MissingFile(t *testing.T) {
	result := validatePreset("/non/existent/preset.json", engine.NewChessOracle())
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Messages)
	}
}

func TestMaterial(t *testing.T) {
	white, black := material(engine.StartFEN)
	if white != "K1Q1R2B2N2P8" {
		t.Errorf("Unexpected white material %s", white)
	}
	if black != "K1Q1R2B2N2P8" {
		t.Errorf("Unexpected black material %s", black)
	}
}

func TestShippedPresets(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "presets", "*.json"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - presets directory not found")
	}

	oracle := engine.NewChessOracle()
	for _, file := range files {
		if result := validatePreset(file, oracle); !result.Valid {
			t.Errorf("Shipped preset %s is invalid: %v", result.File, result.Messages)
		}
	}
}
