package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

const sessionExt = ".json"

// FilePersistence stores one JSON document per session in a directory.
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}, nil
}

// Save writes the session through a temporary file so a crash never
// leaves a half-written document behind.
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     fp.configID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Config:         session.Config,
		GameState:      session.Engine.GetState(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	path := fp.getFilePath(session.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load rebuilds a session: the rules come from the config manager (or the
// stored copy), the city from the state's map snapshot.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}

	gameConfig, err := fp.resolveConfig(&data)
	if err != nil {
		return nil, err
	}

	gameEngine, err := restoreEngine(gameConfig, data.GameState)
	if err != nil {
		return nil, err
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

func (fp *FilePersistence) resolveConfig(data *PersistedSessionData) (*engine.GameConfig, error) {
	gameConfig, err := fp.configManager.LoadConfig(data.ConfigName)
	if err == nil {
		return gameConfig, nil
	}
	if data.Config != nil {
		fmt.Printf("Warning: config '%s' unavailable for session %s, using stored copy: %v\n", data.ConfigName, data.ID, err)
		return data.Config, nil
	}
	return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
}

// restoreEngine builds an engine on the persisted city, then applies the
// rest of the state.
func restoreEngine(config *engine.GameConfig, state *engine.GameState) (*engine.GameEngine, error) {
	var (
		gameEngine *engine.GameEngine
		err        error
	)
	if len(state.Map.Buildings) > 0 {
		city, cityErr := citymap.FromSnapshot(state.Map)
		if cityErr != nil {
			return nil, fmt.Errorf("failed to restore city: %w", cityErr)
		}
		gameEngine, err = engine.NewEngineWithMap(config, city, config.Seed)
	} else {
		gameEngine, err = engine.NewEngine(config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if err := gameEngine.SetState(state); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}
	return gameEngine, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(entry.Name(), sessionExt); ok {
			sessionIDs = append(sessionIDs, id)
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, strings.ToLower(id)+sessionExt)
}

// configID maps a display name back to the config file it came from. An
// unknown name is stored as-is.
func (fp *FilePersistence) configID(displayName string) string {
	configs, err := fp.configManager.ListConfigs()
	if err != nil {
		return displayName
	}
	for _, config := range configs {
		if config.Name == displayName {
			return config.ConfigID
		}
	}
	return displayName
}
