package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	config.Rows = 8
	config.Cols = 8
	config.DeliveryLocations = 4
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	filename := name
	if filepath.Ext(filename) == "" {
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
		t.Fatalf("Failed to marshal config: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		writeConfigFile(t, dir, "classic", createValidConfig())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager == nil {
			t.Error("Expected manager to be non-nil")
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in city", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default config to be available")
		}
		if defaultConfig.Name != engine.DefaultGameConfig().Name {
			t.Errorf("Expected built-in default, got %q", defaultConfig.Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "classic", createValidConfig())

	tiny := createValidConfig()
	tiny.Name = "Tiny"
	tiny.Rows, tiny.Cols = 4, 4
	writeConfigFile(t, dir, "tiny", tiny)

	sprawl := createValidConfig()
	sprawl.Name = "Sprawl"
	sprawl.Rows = 30
	writeConfigFile(t, dir, "sprawl.yaml", sprawl)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("tiny")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Tiny" || config.Rows != 4 {
			t.Errorf("Expected Tiny 4x4, got %s %dx%d", config.Name, config.Rows, config.Cols)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("tiny.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Tiny" {
			t.Errorf("Expected config name 'Tiny', got '%s'", config.Name)
		}
	})

	t.Run("load yaml config", func(t *testing.T) {
		config, err := manager.LoadConfig("sprawl")
		if err != nil {
			t.Fatalf("Failed to load yaml config: %v", err)
		}
		if config.Name != "Sprawl" || config.Rows != 30 {
			t.Errorf("Expected Sprawl with 30 rows, got %s %d", config.Name, config.Rows)
		}
		if len(config.RoadTypes) != len(engine.DefaultGameConfig().RoadTypes) {
			t.Errorf("Expected road types decoded from yaml, got %v", config.RoadTypes)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("tiny")
		config2, err := manager.LoadConfig("tiny")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		invalidData := []byte(`{"name": ""}`)
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), invalidData, 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		malformedData := []byte(`{"name": "Malformed", invalid json}`)
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), malformedData, 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})

	t.Run("load malformed YAML", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("rows: [1, 2\n"), 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		if _, err := manager.LoadConfig("broken"); err == nil {
			t.Error("Expected error for malformed YAML")
		}
	})
}

func TestManager_GetDefault(t *testing.T) {
	t.Run("classic wins", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		other := createValidConfig()
		other.Name = "Alpha"
		writeConfigFile(t, dir, "alpha", other)

		classic := createValidConfig()
		classic.Name = "Classic Config"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic Config" {
			t.Errorf("Expected classic as default, got '%s'", got)
		}
	})

	t.Run("first available otherwise", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		b := createValidConfig()
		b.Name = "Bravo"
		writeConfigFile(t, dir, "bravo", b)
		a := createValidConfig()
		a.Name = "Alpha"
		writeConfigFile(t, dir, "alpha.yaml", a)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Alpha" {
			t.Errorf("Expected Alpha as default, got '%s'", got)
		}
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "classic", createValidConfig())
	other := createValidConfig()
	other.Name = "Other"
	writeConfigFile(t, dir, "other", other)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("other"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Other" {
		t.Errorf("Expected Other as default, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	configs := []struct {
		filename string
		name     string
	}{
		{"classic", "Classic"},
		{"compact.yaml", "Compact"},
		{"medium.yml", "Medium"},
		{"sprawl", "Sprawl"},
	}

	for _, cfg := range configs {
		config := createValidConfig()
		config.Name = cfg.name
		writeConfigFile(t, dir, cfg.filename, config)
	}

	// Files without a config extension are ignored
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	// Invalid configs are skipped
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": ""}`), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configList, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configList) != 4 {
		t.Fatalf("Expected 4 configs, got %d", len(configList))
	}

	wantIDs := []string{"classic", "compact", "medium", "sprawl"}
	for i, info := range configList {
		if info.ConfigID != wantIDs[i] {
			t.Errorf("Position %d: expected %s, got %s", i, wantIDs[i], info.ConfigID)
		}
		if info.Rows != 8 || info.Cols != 8 || info.DeliveryLocations != 4 || info.Vehicles != 6 {
			t.Errorf("Unexpected info %+v", info)
		}
	}
	if configList[1].Filename != "compact.yaml" {
		t.Errorf("Expected the yaml filename, got %s", configList[1].Filename)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved"
		if err := manager.SaveConfig("saved", config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json on disk: %v", err)
		}
		manager.ReloadConfig("saved")
		loaded, err := manager.LoadConfig("saved")
		if err != nil || loaded.Name != "Saved" {
			t.Errorf("Expected saved config to load back, got %v %v", loaded, err)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved YAML"
		if err := manager.SaveConfig("saved_yaml.yaml", config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		manager.ReloadConfig("saved_yaml")
		loaded, err := manager.LoadConfig("saved_yaml")
		if err != nil || loaded.Name != "Saved YAML" {
			t.Errorf("Expected yaml config to load back, got %v %v", loaded, err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		config := createValidConfig()
		config.Rows = 0
		if err := manager.SaveConfig("bad", config); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("path escape", func(t *testing.T) {
		if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	config := createValidConfig()
	config.Name = "Changeable"
	writeConfigFile(t, dir, "classic", config)
	writeConfigFile(t, dir, "changeable", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.Rows != 8 {
		t.Errorf("Expected initial rows 8, got %d", loaded.Rows)
	}

	config.Rows = 12
	writeConfigFile(t, dir, "changeable", config)

	if err := manager.ReloadConfig("changeable"); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.Rows != 12 {
		t.Errorf("Expected reloaded rows 12, got %d", reloaded.Rows)
	}

	// RefreshCache drops everything but the default
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected only the default cached after refresh, got %d", manager.Count())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeConfigFile(t, dir, "classic", createValidConfig())

	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = "Config" + string(rune('0'+i))
		writeConfigFile(t, dir, "config"+string(rune('0'+i)), config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			configName := "config" + string(rune('0'+((id%5)+1)))
			if _, err := manager.LoadConfig(configName); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.Count())
	}
}

// Test-only helpers

func (m *Manager) ReloadConfig(name string) error {
	id := configID(name)
	m.mu.Lock()
	delete(m.configs, id)
	m.mu.Unlock()

	_, err := m.LoadConfig(id)
	return err
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
