package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// DefaultConfigName is tried first when choosing the default configuration.
const DefaultConfigName = "classic"

// extensions lists the supported file formats in lookup order.
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles game configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
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

// configID strips a known extension from a name or filename.
func configID(name string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// findConfigFile returns the path of the first existing file for id.
func (m *Manager) findConfigFile(id string) (string, error) {
	for _, ext := range extensions {
		path := filepath.Join(m.configDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// decode parses data by file extension.
func decode(path string, data []byte) (*engine.GameConfig, error) {
	var config engine.GameConfig
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return &config, nil
}

// LoadConfig loads a configuration by name
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	return m.loadLocked(id)
}

func (m *Manager) loadLocked(id string) (*engine.GameConfig, error) {
	path, err := m.findConfigFile(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[id] = config
	return config, nil
}

// ListConfigs returns information about all available configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := configID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}
		seen[id] = true

		config, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:          entry.Name(),
			ConfigID:          id,
			Name:              config.Name,
			Description:       config.Description,
			Rows:              config.Rows,
			Cols:              config.Cols,
			DeliveryLocations: config.DeliveryLocations,
			Vehicles:          len(config.Vehicles),
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache reloads all cached configurations from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, then the first loadable config, then
// the built-in city.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultGameConfig()
		} else if config, err = m.LoadConfig(configs[0].ConfigID); err != nil {
			config = engine.DefaultGameConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig saves a configuration to disk. A name ending in .yaml or .yml
// is written as YAML, anything else as indented JSON.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	filename := name
	if id == name {
		filename = name + ".json"
	}

	var (
		data []byte
		err  error
	)
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	return nil
}
