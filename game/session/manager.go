package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

const (
	maxSessionIDLength = 64
	idAttempts         = 8
)

// Manager keeps sessions in memory, keyed by lower-cased ID, and writes
// through to an optional persistence layer.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	mu          sync.RWMutex
	now         func() time.Time
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		now:         time.Now,
	}
}

func key(id string) string {
	return strings.ToLower(id)
}

// validateID accepts letters, digits, dash and underscore.
func validateID(id string) error {
	if len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSessionID, maxSessionIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
		}
	}
	return nil
}

// Create creates a new session with the given ID and configuration. An
// empty ID gets a random 4-character one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	if id == "" {
		if id, err = m.freshIDLocked(); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	} else if _, exists := m.sessions[key(id)]; exists {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}

	now := m.now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = session
	m.mu.Unlock()

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			fmt.Printf("Warning: Failed to persist session %s: %v\n", id, err)
		}
	}

	return session, nil
}

// freshIDLocked draws random IDs until one is unused in memory and on disk.
func (m *Manager) freshIDLocked() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := generateSessionID()
		if _, exists := m.sessions[id]; exists {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("failed to generate a unique session ID after %d attempts", idAttempts)
}

// Get retrieves a session by ID (case-insensitive), falling back to
// persistence for sessions not yet in memory.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[key(id)]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}

	if m.persistence == nil || validateID(id) != nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have loaded it meanwhile.
	if session, exists := m.sessions[key(id)]; exists {
		return session, nil
	}
	m.sessions[key(id)] = loaded
	return loaded, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}
	return nil, err
}

// List returns all in-memory sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, inMemory := m.sessions[key(id)]
	delete(m.sessions, key(id))
	m.mu.Unlock()

	if m.persistence != nil && validateID(id) == nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory drops a session from memory only; a persisted copy
// stays loadable.
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[key(id)]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session. The new
// time reaches storage with the next Save.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[key(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = m.now()
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.sessions[key(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge from
// memory and returns how many were removed. Persisted copies are kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// generateSessionID returns 4 lower-case hex characters.
func generateSessionID() string {
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loadedCount := 0
	for _, id := range sessionIDs {
		m.mu.RLock()
		_, exists := m.sessions[key(id)]
		m.mu.RUnlock()
		if exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			fmt.Printf("Warning: Failed to load persisted session %s: %v\n", id, err)
			continue
		}

		m.mu.Lock()
		m.sessions[key(id)] = session
		m.mu.Unlock()
		loadedCount++
	}

	if loadedCount > 0 {
		fmt.Printf("Loaded %d persisted sessions from storage\n", loadedCount)
	}
	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessions := m.List()
	errorCount := 0
	for _, session := range sessions {
		if err := m.persistence.Save(session); err != nil {
			fmt.Printf("Warning: Failed to save session %s: %v\n", session.ID, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	return nil
}
