package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the preset used when a session names none
const DefaultConfigName = "classic"

const presetExt = ".json"

// Manager serves presets from a directory, caching each one after the first read
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a manager over configDir and picks the default preset
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}
	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	return m, nil
}

// LoadConfig returns the preset with the given ID. A trailing ".json" is ignored.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := presetID(name)

	if config, ok := m.cached(id); ok {
		return config, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if config, ok := m.configs[id]; ok {
		return config, nil
	}

	config, err := m.readPreset(id)
	if err != nil {
		return nil, err
	}
	m.configs[id] = config
	return config, nil
}

// ListConfigs describes every valid preset in the directory
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var infos []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != presetExt {
			continue
		}
		id := presetID(entry.Name())
		config, err := m.LoadConfig(id)
		if err != nil {
			continue
		}
		infos = append(infos, describe(entry.Name(), id, config))
	}
	return infos, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault makes the named preset the default
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// RefreshCache drops every cached preset and picks the default again
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// SaveConfig validates config and writes it as <name>.json
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	path, err := m.configPath(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[presetID(name)] = config
	m.mu.Unlock()

	log.Printf("[CONFIG] Saved %s to %s", name, path)
	return nil
}

func (m *Manager) cached(id string) (*engine.GameConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	config, ok := m.configs[id]
	return config, ok
}

// readPreset reads and validates one file. Caller holds mu.
func (m *Manager) readPreset(id string) (*engine.GameConfig, error) {
	path, err := m.configPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := new(engine.GameConfig)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, id, err)
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// loadDefaultConfig prefers classic, then the first valid preset, then the built-in board
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		config = m.firstValid()
	}
	if config == nil {
		log.Printf("[CONFIG] No usable configs in %s, using built-in default", m.configDir)
		config = builtinConfig()
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

func (m *Manager) firstValid() *engine.GameConfig {
	infos, err := m.ListConfigs()
	if err != nil || len(infos) == 0 {
		return nil
	}
	config, err := m.LoadConfig(infos[0].ConfigID)
	if err != nil {
		return nil
	}
	return config
}

// configPath maps a preset ID to its file, rejecting IDs that leave the directory
func (m *Manager) configPath(name string) (string, error) {
	id := presetID(name)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: invalid name %q", ErrConfigNotFound, id)
	}
	return filepath.Join(m.configDir, id+presetExt), nil
}

func presetID(name string) string {
	return strings.TrimSuffix(name, presetExt)
}

func describe(filename, id string, config *engine.GameConfig) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:     filename,
		ConfigID:     id,
		Name:         config.Name,
		Description:  config.Description,
		Width:        config.Width,
		Height:       config.Height,
		TickPeriodMs: config.TickPeriodMs,
	}
}

func builtinConfig() *engine.GameConfig {
	config := engine.DefaultConfig()
	config.Name = "default"
	config.Description = "Built-in 20x20 board"
	return config
}
