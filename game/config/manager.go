package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/service"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

var _ service.PresetManager = (*Manager)(nil)

// Manager handles preset loading and caching
type Manager struct {
	presetDir string
	oracle    engine.Oracle
	presets   map[string]*service.Preset
	mu        sync.RWMutex
}

// NewManager creates a preset manager reading <name>.json files from
// presetDir. A missing directory is not an error; only the standard preset
// is offered until one is saved.
func NewManager(presetDir string, oracle engine.Oracle) *Manager {
	return &Manager{
		presetDir: presetDir,
		oracle:    oracle,
		presets:   make(map[string]*service.Preset),
	}
}

// LoadPreset loads a preset by name
func (m *Manager) LoadPreset(name string) (*service.Preset, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == service.StandardPreset {
		return m.standard(), nil
	}
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}

	m.mu.RLock()
	if preset, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return preset, nil
	}
	m.mu.RUnlock()

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset service.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if err := m.validate(&preset); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.presets[name] = &preset
	m.mu.Unlock()
	return &preset, nil
}

// ListPresets returns the standard preset followed by every valid preset
// file, sorted by id.
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	std := m.standard()
	presets := []*service.PresetInfo{{
		PresetID:    service.StandardPreset,
		Name:        std.Name,
		Description: std.Description,
		FEN:         std.FEN,
	}}

	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return presets, nil
		}
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var found []*service.PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		if id == service.StandardPreset {
			continue
		}

		preset, err := m.LoadPreset(id)
		if err != nil {
			// Skip invalid presets
			continue
		}
		found = append(found, &service.PresetInfo{
			Filename:    entry.Name(),
			PresetID:    id,
			Name:        preset.Name,
			Description: preset.Description,
			FEN:         preset.FEN,
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].PresetID < found[j].PresetID })

	return append(presets, found...), nil
}

// SavePreset validates and writes a preset, creating the directory if
// needed.
func (m *Manager) SavePreset(name string, preset *service.Preset) error {
	name = strings.TrimSuffix(name, ".json")
	if name == service.StandardPreset || !validName(name) {
		return fmt.Errorf("%w: name %q is reserved or invalid", ErrInvalidPreset, name)
	}
	if preset == nil {
		return fmt.Errorf("%w: preset is required", ErrInvalidPreset)
	}
	if err := m.validate(preset); err != nil {
		return err
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := os.MkdirAll(m.presetDir, 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	cached := *preset
	m.mu.Lock()
	m.presets[name] = &cached
	m.mu.Unlock()
	return nil
}

// RefreshCache drops cached presets so the next load rereads disk.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = make(map[string]*service.Preset)
}

// validate rejects presets the oracle cannot decode and positions that are
// already decided.
func (m *Manager) validate(preset *service.Preset) error {
	if strings.TrimSpace(preset.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if err := m.oracle.Validate(preset.FEN); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	status, err := m.oracle.Status(preset.FEN)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if status.Terminal() {
		return fmt.Errorf("%w: position is already %s", ErrInvalidPreset, status)
	}
	return nil
}

func (m *Manager) standard() *service.Preset {
	return &service.Preset{
		Name:        "Standard",
		Description: "Regular chess start position",
		FEN:         m.oracle.StartPosition(),
	}
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.presetDir, name+".json")
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}
