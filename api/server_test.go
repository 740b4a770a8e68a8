package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
	"github.com/amolgorithm/delivery-deluxe/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	TickFunc func(ctx context.Context, sessionID string, input engine.TickInput) (*service.ActionResult, error)
	ActFunc  func(ctx context.Context, sessionID string, action engine.Action, args engine.ActionArgs) (*service.ActionResult, error)

	// Game State
	GetDashboardFunc  func(ctx context.Context, sessionID string) (*engine.Dashboard, error)
	GetMapFunc        func(ctx context.Context, sessionID string) (*service.MapView, error)
	RouteFunc         func(ctx context.Context, sessionID string, from, to citymap.Cell) (*service.RouteResult, error)
	GetRunHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
		Dashboard:  &engine.Dashboard{Flow: engine.FlowStart},
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
		Dashboard:  &engine.Dashboard{Flow: engine.FlowStart},
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Tick(ctx context.Context, sessionID string, input engine.TickInput) (*service.ActionResult, error) {
	if m.TickFunc != nil {
		return m.TickFunc(ctx, sessionID, input)
	}
	return &service.ActionResult{
		SessionID: sessionID,
		Dashboard: &engine.Dashboard{Flow: engine.FlowGame, Position: input.Position},
		Events:    []service.GameEvent{},
	}, nil
}

func (m *MockGameService) Act(ctx context.Context, sessionID string, action engine.Action, args engine.ActionArgs) (*service.ActionResult, error) {
	if m.ActFunc != nil {
		return m.ActFunc(ctx, sessionID, action, args)
	}
	return &service.ActionResult{
		SessionID: sessionID,
		Dashboard: &engine.Dashboard{Flow: engine.FlowGarage},
		Events:    []service.GameEvent{{Type: engine.EventFlow, Message: "garage"}},
	}, nil
}

func (m *MockGameService) GetDashboard(ctx context.Context, sessionID string) (*engine.Dashboard, error) {
	if m.GetDashboardFunc != nil {
		return m.GetDashboardFunc(ctx, sessionID)
	}
	return &engine.Dashboard{Flow: engine.FlowStart}, nil
}

func (m *MockGameService) GetMap(ctx context.Context, sessionID string) (*service.MapView, error) {
	if m.GetMapFunc != nil {
		return m.GetMapFunc(ctx, sessionID)
	}
	return &service.MapView{Rows: 2, Cols: 2, Rendered: "A#\n#+\n"}, nil
}

func (m *MockGameService) Route(ctx context.Context, sessionID string, from, to citymap.Cell) (*service.RouteResult, error) {
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, sessionID, from, to)
	}
	return &service.RouteResult{From: from, To: to, Path: []citymap.Cell{}, Headings: []string{}}, nil
}

func (m *MockGameService) GetRunHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetRunHistoryFunc != nil {
		return m.GetRunHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Runs:       []engine.RunSummary{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(t *testing.T, mock *MockGameService, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	server := setupTestServer(t, mock)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session ab12: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: nope", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: launch", engine.ErrActionNotAllowed), http.StatusConflict},
		{fmt.Errorf("%w: fly", engine.ErrUnknownAction), http.StatusBadRequest},
		{fmt.Errorf("%w: 9", engine.ErrVehicleIndex), http.StatusBadRequest},
		{fmt.Errorf("%w: rows", service.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %q", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" || resp.ConfigName != "classic" {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "compact"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "compact" {
					t.Errorf("Expected config compact, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: config 'nope' not found. Available configs: [classic]", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if !strings.Contains(resp["error"], "Available configs") {
					t.Errorf("Expected helpful error, got %q", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			w := serve(t, mock, makeRequest("POST", "/api/sessions", tt.requestBody))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
				{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
				{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
			}, nil
		},
	}

	tests := []struct {
		name      string
		query     string
		wantOrder []string
	}{
		{"default accessed desc", "", []string{"old", "new", "mid"}},
		{"created asc", "?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"created desc limited", "?sort=created&limit=2", []string{"new", "mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, mock, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Total != 3 || resp.Count != len(tt.wantOrder) {
				t.Errorf("Expected count %d of 3, got %d of %d", len(tt.wantOrder), resp.Count, resp.Total)
			}
			for i, id := range tt.wantOrder {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	notFound := func(ctx context.Context, id string) error {
		return fmt.Errorf("session %s: %w", id, service.ErrSessionNotFound)
	}

	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return nil, notFound(ctx, id)
		},
		DeleteSessionFunc: notFound,
	}

	if w := serve(t, mock, makeRequest("GET", "/api/sessions/zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on get, got %d", w.Code)
	}
	if w := serve(t, mock, makeRequest("DELETE", "/api/sessions/zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on delete, got %d", w.Code)
	}

	w := serve(t, &MockGameService{}, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["message"] != "Session ab12 deleted" {
		t.Errorf("Unexpected message %q", resp["message"])
	}
}

// Game Operation Tests

func TestTick(t *testing.T) {
	var got engine.TickInput
	mock := &MockGameService{
		TickFunc: func(ctx context.Context, sessionID string, input engine.TickInput) (*service.ActionResult, error) {
			got = input
			if len(input.Actions) > 0 && input.Actions[0] == engine.ActionRestart {
				return nil, fmt.Errorf("%w: restart must be dispatched", engine.ErrActionNotAllowed)
			}
			return &service.ActionResult{
				SessionID: sessionID,
				Dashboard: &engine.Dashboard{Flow: engine.FlowGame, Money: 10},
				Events:    []service.GameEvent{{Type: engine.EventCollisionFine, Amount: 20}},
			}, nil
		},
	}

	body := map[string]any{
		"dt":                   0.016,
		"position":             map[string]int{"row": 3, "col": 4},
		"speed":                42.5,
		"heading":              90,
		"pedestrian_collision": true,
		"actions":              []string{"refuel"},
	}
	w := serve(t, mock, makeRequest("POST", "/api/sessions/ab12/tick", body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Position != (citymap.Cell{Row: 3, Col: 4}) || got.Speed != 42.5 || !got.PedestrianCollision {
		t.Errorf("Tick input not decoded: %+v", got)
	}
	if len(got.Actions) != 1 || got.Actions[0] != engine.ActionRefuel {
		t.Errorf("Expected refuel action, got %v", got.Actions)
	}

	var resp service.ActionResult
	parseResponse(t, w, &resp)
	if resp.Dashboard.Money != 10 || len(resp.Events) != 1 {
		t.Errorf("Unexpected result %+v", resp)
	}

	tests := []struct {
		name string
		body any
		want int
	}{
		{"negative dt", map[string]any{"dt": -1}, http.StatusBadRequest},
		{"flow action in tick", map[string]any{"dt": 0.1, "actions": []string{"restart"}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(t, mock, makeRequest("POST", "/api/sessions/ab12/tick", tt.body)); w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	req := httptest.NewRequest("POST", "/api/sessions/ab12/tick", strings.NewReader("{not json"))
	if w := serve(t, mock, req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", w.Code)
	}
}

func TestAction(t *testing.T) {
	mock := &MockGameService{
		ActFunc: func(ctx context.Context, sessionID string, action engine.Action, args engine.ActionArgs) (*service.ActionResult, error) {
			switch action {
			case engine.ActionSelectVehicle:
				if args.VehicleIndex != 3 {
					return nil, fmt.Errorf("%w: %d", engine.ErrVehicleIndex, args.VehicleIndex)
				}
				return &service.ActionResult{SessionID: sessionID, Dashboard: &engine.Dashboard{Flow: engine.FlowGarage}}, nil
			case engine.ActionLaunch:
				return nil, fmt.Errorf("%w: launch from start", engine.ErrActionNotAllowed)
			default:
				return nil, fmt.Errorf("%w: %s", engine.ErrUnknownAction, action)
			}
		},
	}

	tests := []struct {
		name string
		body any
		want int
	}{
		{"select vehicle", map[string]any{"action": "select_vehicle", "vehicle_index": 3}, http.StatusOK},
		{"bad vehicle", map[string]any{"action": "select_vehicle", "vehicle_index": 9}, http.StatusBadRequest},
		{"wrong state", map[string]any{"action": "launch"}, http.StatusConflict},
		{"unknown", map[string]any{"action": "fly"}, http.StatusBadRequest},
		{"missing action", map[string]any{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, mock, makeRequest("POST", "/api/sessions/ab12/actions", tt.body))
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetDashboard(t *testing.T) {
	mock := &MockGameService{
		GetDashboardFunc: func(ctx context.Context, sessionID string) (*engine.Dashboard, error) {
			return &engine.Dashboard{Flow: engine.FlowGame, StreetName: "3rd St", SpeedLimitText: "Speed Limit: 50 kmph"}, nil
		},
	}
	w := serve(t, mock, makeRequest("GET", "/api/sessions/ab12/dashboard", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var d engine.Dashboard
	parseResponse(t, w, &d)
	if d.StreetName != "3rd St" || d.SpeedLimitText != "Speed Limit: 50 kmph" {
		t.Errorf("Unexpected dashboard %+v", d)
	}
}

func TestGetMap(t *testing.T) {
	mock := &MockGameService{}

	w := serve(t, mock, makeRequest("GET", "/api/sessions/ab12/map", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var view service.MapView
	parseResponse(t, w, &view)
	if view.Rows != 2 {
		t.Errorf("Expected 2 rows, got %d", view.Rows)
	}

	w = serve(t, mock, makeRequest("GET", "/api/sessions/ab12/map?format=text", nil))
	if got := w.Body.String(); got != "A#\n#+\n" {
		t.Errorf("Expected the rendered map, got %q", got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
}

func TestRoute(t *testing.T) {
	var gotFrom, gotTo citymap.Cell
	mock := &MockGameService{
		RouteFunc: func(ctx context.Context, sessionID string, from, to citymap.Cell) (*service.RouteResult, error) {
			gotFrom, gotTo = from, to
			return &service.RouteResult{From: from, To: to, Found: true,
				Path: []citymap.Cell{from, {Row: 0, Col: 1}}, Headings: []string{"east"}, Cost: 0.02}, nil
		},
	}

	w := serve(t, mock, makeRequest("GET", "/api/sessions/ab12/route?from=0,0&to=0,%201", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotFrom != (citymap.Cell{}) || gotTo != (citymap.Cell{Row: 0, Col: 1}) {
		t.Errorf("Cells not parsed: %+v -> %+v", gotFrom, gotTo)
	}
	var resp service.RouteResult
	parseResponse(t, w, &resp)
	if !resp.Found || resp.Headings[0] != "east" {
		t.Errorf("Unexpected route %+v", resp)
	}

	for _, q := range []string{"?to=1,1", "?from=1&to=1,1", "?from=a,1&to=1,1", "?from=1,1&to=1,b"} {
		if w := serve(t, mock, makeRequest("GET", "/api/sessions/ab12/route"+q, nil)); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetRuns(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetRunHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{
				Runs:      []engine.RunSummary{{ID: "r1", Outcome: engine.FlowWin}},
				TotalRuns: 1,
			}, nil
		},
	}

	w := serve(t, mock, makeRequest("GET", "/api/sessions/ab12/runs?page=2&limit=5&order=asc", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got.Page != 2 || got.Limit != 5 || got.Order != "asc" {
		t.Errorf("Options not passed through: %+v", got)
	}

	serve(t, mock, makeRequest("GET", "/api/sessions/ab12/runs?page=x&order=sideways", nil))
	if got.Page != 0 || got.Order != "" {
		t.Errorf("Expected invalid options left for the service to default, got %+v", got)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var savedID string
	var saved *engine.GameConfig
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Rows: 20, Cols: 20}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.GameConfig, error) {
			if name != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, name string, config *engine.GameConfig) error {
			if config.Rows < 2 {
				return fmt.Errorf("%w: rows", service.ErrInvalidConfig)
			}
			savedID, saved = name, config
			return nil
		},
	}

	w := serve(t, mock, makeRequest("GET", "/api/configs", nil))
	var list []service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 1 || list[0].ConfigID != "classic" {
		t.Errorf("Unexpected config list %+v", list)
	}

	if w := serve(t, mock, makeRequest("GET", "/api/configs/classic", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := serve(t, mock, makeRequest("GET", "/api/configs/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	custom := engine.DefaultGameConfig()
	custom.Name = "Night Shift 2"
	w = serve(t, mock, makeRequest("POST", "/api/configs", custom))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "night-shift-2" || saved.Rows != 20 {
		t.Errorf("Expected night-shift-2 saved, got %q", savedID)
	}

	w = serve(t, mock, makeRequest("POST", "/api/configs?id=nights", custom))
	if w.Code != http.StatusCreated || savedID != "nights" {
		t.Errorf("Expected explicit id to win, got %q (%d)", savedID, w.Code)
	}

	custom.Rows = 1
	if w := serve(t, mock, makeRequest("POST", "/api/configs", custom)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid config, got %d", w.Code)
	}
	if w := serve(t, mock, makeRequest("POST", "/api/configs", map[string]any{"rows": 5})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a name, got %d", w.Code)
	}
}

func TestUnifiedSessions(t *testing.T) {
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a1", ConfigName: "classic", Dashboard: &engine.Dashboard{Flow: engine.FlowGame}},
				{ID: "b2", ConfigName: "compact", Dashboard: &engine.Dashboard{Flow: engine.FlowGarage}},
				{ID: "c3", ConfigName: "classic", Dashboard: &engine.Dashboard{Flow: engine.FlowLoss}},
			}, nil
		},
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			if id == "gone" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: id, Dashboard: &engine.Dashboard{Flow: engine.FlowGame}}, nil
		},
	}

	tests := []struct {
		name        string
		query       string
		wantCount   int
		wantPlaying int
	}{
		{"all", "", 3, 1},
		{"by config", "?configName=classic", 2, 1},
		{"by ids skipping missing", "?sessionIds=x1,gone,%20y2", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, mock, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			var resp struct {
				Count   int `json:"count"`
				Playing int `json:"playing"`
			}
			parseResponse(t, w, &resp)
			if resp.Count != tt.wantCount || resp.Playing != tt.wantPlaying {
				t.Errorf("Expected %d/%d, got %d/%d", tt.wantCount, tt.wantPlaying, resp.Count, resp.Playing)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	w := serve(t, &MockGameService{}, makeRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestWebSocket(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}

	if w := serve(t, mock, makeRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a session, got %d", w.Code)
	}
	if w := serve(t, mock, makeRequest("GET", "/ws?session=zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown session, got %d", w.Code)
	}

	server := NewServer(mock, nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/ws?session=ab12", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a hub, got %d", w.Code)
	}
}
