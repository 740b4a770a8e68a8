package service

import (
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Dashboard      *engine.Dashboard  `json:"dashboard"`
	GameConfig     *engine.GameConfig `json:"game_config,omitempty"`
}

// ActionResult is what a tick or a dispatched action returns
type ActionResult struct {
	SessionID string            `json:"session_id"`
	Dashboard *engine.Dashboard `json:"dashboard"`
	Events    []GameEvent       `json:"events"`
	Effects   []engine.Effect   `json:"effects,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      engine.EventType `json:"type"`
	Message   string           `json:"message,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Position  citymap.Cell     `json:"position"`
}

// MapView is the city as served to clients
type MapView struct {
	Rows          int                   `json:"rows"`
	Cols          int                   `json:"cols"`
	Buildings     []string              `json:"buildings"`
	Intersections []string              `json:"intersections"`
	RoadTypes     citymap.RoadTypeTable `json:"road_types"`
	Streets       int                   `json:"streets"`
	FuelStops     []citymap.Cell        `json:"fuel_stops"`
	Locations     []LocationInfo        `json:"locations"`
	Rendered      string                `json:"rendered"`
}

// LocationInfo names one delivery building
type LocationInfo struct {
	Label string       `json:"label"`
	Cell  citymap.Cell `json:"cell"`
}

// RouteResult is a fastest route between two intersections
type RouteResult struct {
	From     citymap.Cell   `json:"from"`
	To       citymap.Cell   `json:"to"`
	Found    bool           `json:"found"`
	Path     []citymap.Cell `json:"path"`
	Headings []string       `json:"headings"`
	Cost     float64        `json:"cost"`
}

// HistoryOptions configures run history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated run history
type HistoryResponse struct {
	Runs        []engine.RunSummary `json:"runs"`
	TotalRuns   int                 `json:"total_runs"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename          string `json:"filename"`
	ConfigID          string `json:"config_id"` // The identifier to use for session creation
	Name              string `json:"name"`      // Display name
	Description       string `json:"description"`
	Rows              int    `json:"rows"`
	Cols              int    `json:"cols"`
	DeliveryLocations int    `json:"delivery_locations"`
	Vehicles          int    `json:"vehicles"`
}
