package session

import (
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the on-disk form of a session. Config is a copy
// of the rules the session was created with, used when ConfigName no
// longer resolves.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Config         *engine.GameConfig `json:"config,omitempty"`
	GameState      *engine.GameState  `json:"game_state"`
}
