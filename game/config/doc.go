// Package config provides start-position presets for new games.
//
// The config package handles:
//   - Loading presets from JSON files
//   - Validating preset positions through the rules oracle
//   - Listing available presets
//   - Saving new presets
//
// Preset Format:
//
// Presets are stored as <id>.json in the preset directory:
//
//	{
//	  "name": "Endgame drill",
//	  "description": "King and queen against king",
//	  "fen": "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1"
//	}
//
// The standard preset is built in and always listed first. Positions that
// are already checkmate or stalemate are rejected.
//
// Usage:
//
//	manager := config.NewManager("presets", engine.NewChessOracle())
//
//	preset, err := manager.LoadPreset("endgame")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	presets, err := manager.ListPresets()
package config
