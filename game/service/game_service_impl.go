package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
	now      func() time.Time
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Dashboard:      sess.Engine.Dashboard(),
		GameConfig:     sess.Config,
	}
}

// getSession looks a session up and marks it accessed.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// persist saves a session after a state change. Failures are logged only.
func (s *gameServiceImpl) persist(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to save session %s: %v\n", sessionID, err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: config '%s' not found. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: config '%s' not found. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info := s.sessionInfo(sess, s.getConfigID(sess.Config.Name))
		info.GameConfig = nil
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return err
	}
	return nil
}

// Tick feeds one frame of vehicle state to the session's engine
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, input engine.TickInput) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.Tick(input)
	if err != nil {
		return nil, err
	}

	s.persist(sessionID)
	return s.actionResult(sess, res), nil
}

// Act dispatches a discrete action such as begin, launch or refuel
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, action engine.Action, args engine.ActionArgs) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.Dispatch(action, args)
	if err != nil {
		return nil, err
	}

	s.persist(sessionID)
	return s.actionResult(sess, res), nil
}

func (s *gameServiceImpl) actionResult(sess *Session, res *engine.TickResult) *ActionResult {
	now := s.now()
	pos := res.Dashboard.Position
	events := make([]GameEvent, 0, len(res.Events))
	for _, ev := range res.Events {
		events = append(events, GameEvent{
			Type:      ev.Type,
			Message:   ev.Message,
			Amount:    ev.Amount,
			Timestamp: now,
			Position:  pos,
		})
	}
	return &ActionResult{
		SessionID: sess.ID,
		Dashboard: res.Dashboard,
		Events:    events,
		Effects:   res.Effects,
	}
}

// GetDashboard returns the current dashboard of a session
func (s *gameServiceImpl) GetDashboard(ctx context.Context, sessionID string) (*engine.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Dashboard(), nil
}

// GetMap returns the session's city
func (s *gameServiceImpl) GetMap(ctx context.Context, sessionID string) (*MapView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	city := sess.Engine.Map()
	snap := city.Snapshot()

	locations := []LocationInfo{}
	for _, cell := range city.DeliveryLocations() {
		label, _ := city.LabelAt(cell.Row, cell.Col)
		locations = append(locations, LocationInfo{Label: string(label), Cell: cell})
	}

	return &MapView{
		Rows:          city.Rows(),
		Cols:          city.Cols(),
		Buildings:     snap.Buildings,
		Intersections: snap.Intersections,
		RoadTypes:     snap.RoadTypes,
		Streets:       city.StreetCount(),
		FuelStops:     city.FuelStops(),
		Locations:     locations,
		Rendered:      city.Render(),
	}, nil
}

// Route returns the fastest route between two intersections of the session's city
func (s *gameServiceImpl) Route(ctx context.Context, sessionID string, from, to citymap.Cell) (*RouteResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	route := sess.Engine.Route(from, to)
	result := &RouteResult{
		From:     from,
		To:       to,
		Found:    route.Found(),
		Path:     route.Path,
		Headings: []string{},
		Cost:     route.Cost,
	}
	if result.Path == nil {
		result.Path = []citymap.Cell{}
	}

	headings, err := route.Headings()
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	for _, h := range headings {
		result.Headings = append(result.Headings, string(h))
	}
	return result, nil
}

// GetRunHistory returns paginated run history
func (s *gameServiceImpl) GetRunHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.Runs()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var runs []engine.RunSummary
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			runs = append(runs, history[i])
		}
	} else if start < total {
		runs = history[start:end]
	}

	if runs == nil {
		runs = []engine.RunSummary{}
	}

	return &HistoryResponse{
		Runs:        runs,
		TotalRuns:   total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns all available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
