package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
	"github.com/amolgorithm/delivery-deluxe/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Multi-session view (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/dashboard", s.handleGetDashboard).Methods("GET")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/actions", s.handleAction).Methods("POST")
	api.HandleFunc("/sessions/{id}/map", s.handleGetMap).Methods("GET")
	api.HandleFunc("/sessions/{id}/route", s.handleRoute).Methods("GET")
	api.HandleFunc("/sessions/{id}/runs", s.handleGetRuns).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the mux so callers can mount extra endpoints.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrActionNotAllowed):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrVehicleIndex),
		errors.Is(err, service.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := s.service.CreateSession(r.Context(), req.ConfigID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "session_deleted", map[string]string{"session_id": sessionID})
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.service.GetDashboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var input engine.TickInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.DT < 0 {
		respondError(w, http.StatusBadRequest, "dt cannot be negative")
		return
	}

	result, err := s.service.Tick(r.Context(), sessionID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result)

	// Ticks arrive every frame; only log the ones that did something.
	if len(result.Events) > 0 {
		d := result.Dashboard
		fmt.Printf("[TICK] session=%s flow=%s pos=(%d,%d) money=%.2f fuel=%.1f events=%s\n",
			sessionID, d.Flow, d.Position.Row, d.Position.Col, d.Money, d.Fuel, eventList(result.Events))
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Action       engine.Action `json:"action"`
		VehicleIndex int           `json:"vehicle_index,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" {
		respondError(w, http.StatusBadRequest, "action is required")
		return
	}

	result, err := s.service.Act(r.Context(), sessionID, req.Action, engine.ActionArgs{VehicleIndex: req.VehicleIndex})
	if err != nil {
		fmt.Printf("[ACT] session=%s action=%s rejected: %v\n", sessionID, req.Action, err)
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result)

	d := result.Dashboard
	fmt.Printf("[ACT] session=%s action=%s flow=%s money=%.2f fuel=%.1f events=%s\n",
		sessionID, req.Action, d.Flow, d.Money, d.Fuel, eventList(result.Events))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) broadcast(sessionID string, result *service.ActionResult) {
	if s.hub != nil {
		s.hub.BroadcastDashboard(sessionID, result.Dashboard)
	}
}

func eventList(events []service.GameEvent) string {
	if len(events) == 0 {
		return "-"
	}
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = string(ev.Type)
	}
	return strings.Join(names, ",")
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetMap(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, view.Rendered)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// parseCell reads "row,col".
func parseCell(s string) (citymap.Cell, error) {
	rowStr, colStr, ok := strings.Cut(s, ",")
	if !ok {
		return citymap.Cell{}, fmt.Errorf("expected row,col but got %q", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return citymap.Cell{}, fmt.Errorf("bad row in %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return citymap.Cell{}, fmt.Errorf("bad col in %q", s)
	}
	return citymap.Cell{Row: row, Col: col}, nil
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseCell(query.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseCell(query.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	route, err := s.service.Route(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, route)
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	var opts service.HistoryOptions

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetRunHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if configs == nil {
		configs = []*service.ConfigInfo{}
	}
	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := s.service.LoadConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, config)
}

// configIDFromName turns a display name into a file-safe identifier.
func configIDFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if gameConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = configIDFromName(gameConfig.Name)
	}
	if configID == "" {
		respondError(w, http.StatusBadRequest, "Config name has no usable characters")
		return
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Unified Sessions Handler

// handleUnifiedSessions returns the dashboards of several sessions at once,
// selected by ?sessionIds=a,b or ?configName=classic.
func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo
	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		for _, id := range strings.Split(sessionIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, session)
			}
		}
	} else {
		all, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		configName := query.Get("configName")
		for _, session := range all {
			if configName == "" || session.ConfigName == configName {
				sessions = append(sessions, session)
			}
		}
	}

	entries := make([]map[string]any, 0, len(sessions))
	playing := 0
	for _, session := range sessions {
		if session.Dashboard != nil && session.Dashboard.Flow == engine.FlowGame {
			playing++
		}
		entries = append(entries, map[string]any{
			"session_id":    session.ID,
			"config_name":   session.ConfigName,
			"dashboard":     session.Dashboard,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(entries),
		"playing":  playing,
		"sessions": entries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
