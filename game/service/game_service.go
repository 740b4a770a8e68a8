package service

import (
	"context"
	"errors"
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Tick(ctx context.Context, sessionID string, input engine.TickInput) (*ActionResult, error)
	Act(ctx context.Context, sessionID string, action engine.Action, args engine.ActionArgs) (*ActionResult, error)

	// Game State
	GetDashboard(ctx context.Context, sessionID string) (*engine.Dashboard, error)
	GetMap(ctx context.Context, sessionID string) (*MapView, error)
	Route(ctx context.Context, sessionID string, from, to citymap.Cell) (*RouteResult, error)
	GetRunHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
