// Command validate checks the start-position presets in a preset directory.
// It checks:
//   - JSON structure, with no unknown fields
//   - A non-empty name
//   - A FEN the chess engine accepts
//   - That the position is not already checkmate or stalemate
//
// For valid presets it also reports the side to move, the number of legal
// moves and the material on each side.
//
// Usage:
//
//	go run ./validate -dir presets
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/service"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages contains informational lines; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Messages = append(r.Messages, "✓ "+fmt.Sprintf(format, args...))
}

// validatePreset loads and validates a single preset JSON file.
func validatePreset(filePath string, oracle engine.Oracle) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var preset service.Preset
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&preset); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if strings.TrimSpace(preset.Name) == "" {
		result.fail("name is required")
	}
	if preset.FEN == "" {
		result.fail("fen is required")
		return result
	}
	if err := oracle.Validate(preset.FEN); err != nil {
		result.fail("Invalid FEN: %v", err)
		return result
	}

	status, err := oracle.Status(preset.FEN)
	if err != nil {
		result.fail("Cannot evaluate position: %v", err)
		return result
	}
	if status.Terminal() {
		result.fail("Position is already %s", status)
	}

	if !result.Valid {
		return result
	}

	turn, err := oracle.Turn(preset.FEN)
	if err != nil {
		result.fail("Cannot read side to move: %v", err)
		return result
	}
	moves, err := oracle.LegalMoves(preset.FEN)
	if err != nil {
		result.fail("Cannot list legal moves: %v", err)
		return result
	}
	white, black := material(preset.FEN)

	result.info("Name: %s", preset.Name)
	result.info("To move: %s", turn)
	result.info("Legal moves: %d", len(moves))
	result.info("Material: white %s, black %s", white, black)
	return result
}

// material lists the pieces of each side from the placement field of a
// FEN, kings first.
func material(pos engine.Position) (white, black string) {
	placement, _, _ := strings.Cut(string(pos), " ")
	var w, b strings.Builder
	for _, piece := range "KQRBNPkqrbnp" {
		n := strings.Count(placement, string(piece))
		if n == 0 {
			continue
		}
		target := &w
		if piece >= 'a' {
			target = &b
		}
		fmt.Fprintf(target, "%s%d", strings.ToUpper(string(piece)), n)
	}
	return w.String(), b.String()
}

// main scans the preset directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	presetDir := flag.String("dir", "presets", "Directory containing preset JSON files")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*presetDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", *presetDir)
		return
	}

	oracle := engine.NewChessOracle()
	allValid := true
	for _, file := range files {
		result := validatePreset(file, oracle)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Messages {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				if !strings.HasPrefix(msg, "✓") {
					fmt.Println("  ❌ " + msg)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
