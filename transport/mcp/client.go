package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Delivery Deluxe",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Delivery Deluxe - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive a delivery car around a generated city. Complete 5 deliveries before
running out of fuel, reaching 4 unsuccessful deliveries (the one in
progress counts) or going bankrupt.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- dashboard: Current money, fuel, mission and warnings
- act: Flow actions (begin, select_vehicle, launch, restart)
- tick: Advance one frame with the car's position, speed and per-frame actions
- city_map: The city grid with delivery locations and fuel stops
- route: Fastest route between two intersections
- run_history: Finished runs
- list_configs: Available cities
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "dashboard",
		Description: "Get the current dashboard: flow state, money, fuel, mission, street and warnings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleDashboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "act",
		Description: "Dispatch a flow action: begin, select_vehicle, launch or restart",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"action": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"begin", "select_vehicle", "launch", "restart"},
					"description": "Flow action",
				},
				"vehicle_index": map[string]interface{}{
					"type":        "integer",
					"description": "Garage slot for select_vehicle",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleAct)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance the game by one frame while driving",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"dt": map[string]interface{}{
					"type":        "number",
					"description": "Seconds elapsed since the last frame",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Current row of the car",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Current column of the car",
				},
				"speed": map[string]interface{}{
					"type":        "number",
					"description": "Current speed in km/h",
				},
				"heading": map[string]interface{}{
					"type":        "number",
					"description": "Yaw in degrees",
				},
				"pedestrian_collision": map[string]interface{}{
					"type":        "boolean",
					"description": "The car touched a pedestrian this frame",
				},
				"actions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "complete_delivery, refuel, activate_autopilot, cancel_autopilot",
				},
			},
			Required: []string{"session_id", "dt", "row", "col"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "city_map",
		Description: "Show the city grid with delivery locations (letters) and fuel stops (+)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleCityMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "route",
		Description: "Fastest route between two intersections, weighted by speed limits",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"from_row":   map[string]interface{}{"type": "integer"},
				"from_col":   map[string]interface{}{"type": "integer"},
				"to_row":     map[string]interface{}{"type": "integer"},
				"to_col":     map[string]interface{}{"type": "integer"},
			},
			Required: []string{"session_id", "from_row", "from_col", "to_row", "to_col"},
		},
	}, c.handleRoute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_history",
		Description: "List finished runs with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Runs per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument.
func intArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key].(float64)
	return int(v), ok
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		flow := "?"
		if s.Dashboard != nil {
			flow = string(s.Dashboard.Flow)
		}
		fmt.Fprintf(&result, "- %s (Config: %s, State: %s, Created: %s)\n",
			s.ID, s.ConfigName, flow, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var dashboard engine.Dashboard
	if err := c.apiCall("GET", sessionPath(sessionID, "/dashboard"), nil, &dashboard); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDashboard(&dashboard)), nil
}

func (c *Client) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	action, _ := args["action"].(string)

	body := map[string]interface{}{"action": action}
	if idx, ok := intArg(args, "vehicle_index"); ok {
		body["vehicle_index"] = idx
	}

	var result service.ActionResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/actions"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	dt, _ := args["dt"].(float64)
	row, _ := intArg(args, "row")
	col, _ := intArg(args, "col")
	speed, _ := args["speed"].(float64)
	heading, _ := args["heading"].(float64)
	collision, _ := args["pedestrian_collision"].(bool)

	actions := []string{}
	if raw, ok := args["actions"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				actions = append(actions, s)
			}
		}
	}

	body := map[string]interface{}{
		"dt":                   dt,
		"position":             map[string]int{"row": row, "col": col},
		"speed":                speed,
		"heading":              heading,
		"pedestrian_collision": collision,
		"actions":              actions,
	}

	var result service.ActionResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/tick"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleCityMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var view service.MapView
	if err := c.apiCall("GET", sessionPath(sessionID, "/map"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMapView(&view)), nil
}

func (c *Client) handleRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	fromRow, _ := intArg(args, "from_row")
	fromCol, _ := intArg(args, "from_col")
	toRow, _ := intArg(args, "to_row")
	toCol, _ := intArg(args, "to_col")

	query := url.Values{}
	query.Set("from", fmt.Sprintf("%d,%d", fromRow, fromCol))
	query.Set("to", fmt.Sprintf("%d,%d", toRow, toCol))

	var route service.RouteResult
	if err := c.apiCall("GET", sessionPath(sessionID, "/route?"+query.Encode()), nil, &route); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoute(&route)), nil
}

func (c *Client) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/runs")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Locations: %d, Vehicles: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Rows, config.Cols, config.DeliveryLocations, config.Vehicles)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Delivery Deluxe - Complete Instructions

GAME OBJECTIVE:
Complete 5 deliveries across the city. You lose when fuel hits zero, when
total deliveries minus successful ones reaches 4 (three timed-out missions
plus the one in progress), or when your money drops below zero.

FLOW:
• start  -> act "begin"           -> garage
• garage -> act "select_vehicle"  (optional, vehicle_index 0..N-1)
• garage -> act "launch"          -> game (first mission is assigned)
• win/loss -> act "restart"       -> start

CITY LEGEND (city_map):
• Letters A, B, C... are delivery locations
• + is a fuel stop
• # is a plain building
• Road labels between buildings set the speed limit:
  . 15  : 25  ; 35  , 50  * 70  % 100 (km/h)

DRIVING:
Send one tick per frame with your position, speed and heading. Per-frame
actions go in the tick's actions list:
• complete_delivery: at the mission's location, earns the reward
• refuel: at a fuel stop, fills as much as your money allows
• activate_autopilot / cancel_autopilot: one paid autopilot per run that
  steers you to the current target along the fastest route

MONEY AND FINES:
• Speeding for a few seconds above the street's limit costs a fine
• Hitting a pedestrian costs a fine (once per cooldown)
• Rewards scale with the mission's distance
• Finishing early earns a better customer rating

MISSIONS:
Each mission has a time budget based on distance. When it runs out the
delivery fails and a new one is assigned.

STRATEGY:
• Use route to plan the fastest path; wide roads are faster
• Refuel before the gauge gets low, refuelling costs money
• Save the autopilot for a long mission

VICTORY CONDITIONS:
Five successful deliveries end the run with a win. The end screen summary
is kept in run_history.

Good luck with your deliveries!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatDashboard(session.Dashboard))
}

func formatDashboard(d *engine.Dashboard) string {
	if d == nil {
		return "No dashboard available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "State: %s | Money: $%.2f | Fuel: %.1f%% | Deliveries: %d/%d | Failed: %d\n",
		d.Flow, d.Money, d.Fuel, d.Successful, d.Total, d.Failed)

	if d.Flow == engine.FlowGarage || d.Flow == engine.FlowGame {
		fmt.Fprintf(&result, "Vehicle: %s (tier %s)\n", d.Vehicle.Name, d.Vehicle.Tier)
	}

	if d.Flow == engine.FlowGame {
		fmt.Fprintf(&result, "Position: (%d,%d)", d.Position.Row, d.Position.Col)
		if d.StreetName != "" {
			fmt.Fprintf(&result, " on %s, %s", d.StreetName, d.SpeedLimitText)
		}
		result.WriteString("\n")

		if m := d.Mission; m != nil {
			fmt.Fprintf(&result, "Mission: deliver to %s at (%d,%d) for $%.0f, %.1fs of %.1fs left\n",
				m.Address, m.Target.Row, m.Target.Col, m.Reward, m.TimeRemaining, m.TimeBudget)
		}

		ap := d.Autopilot
		switch {
		case ap.Active && ap.Guidance != nil:
			g := ap.Guidance
			fmt.Fprintf(&result, "Autopilot: steering %s to (%d,%d) at %.0f km/h, %d waypoints left\n",
				g.Heading, g.Waypoint.Row, g.Waypoint.Col, g.TargetSpeed, g.Remaining)
		case ap.Active:
			result.WriteString("Autopilot: active\n")
		case ap.Available:
			fmt.Fprintf(&result, "Autopilot: available for $%.0f\n", ap.Cost)
		}

		if d.MovementLocked {
			result.WriteString("Movement locked\n")
		}
	}

	if d.Warning != nil {
		fmt.Fprintf(&result, "Warning (%s): %s\n", d.Warning.Severity, d.Warning.Message)
	}

	switch d.Flow {
	case engine.FlowWin:
		result.WriteString("\nVICTORY!")
	case engine.FlowLoss:
		fmt.Fprintf(&result, "\nGAME OVER: %s", d.LossMessage)
	}
	if d.Summary != nil {
		fmt.Fprintf(&result, "\nRun: %d/%d delivered, $%.2f, average rating %.1f, %.0fs",
			d.Summary.Completed, d.Summary.Total, d.Summary.Money, d.Summary.AverageRating, d.Summary.Duration)
	}

	return result.String()
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder
	for _, ev := range result.Events {
		if ev.Message != "" {
			fmt.Fprintf(&out, "• %s: %s\n", ev.Type, ev.Message)
		} else {
			fmt.Fprintf(&out, "• %s\n", ev.Type)
		}
	}
	if len(result.Effects) > 0 {
		names := make([]string, len(result.Effects))
		for i, e := range result.Effects {
			names[i] = string(e)
		}
		fmt.Fprintf(&out, "Effects: %s\n", strings.Join(names, ", "))
	}
	if out.Len() > 0 {
		out.WriteString("\n")
	}
	out.WriteString(formatDashboard(result.Dashboard))
	return out.String()
}

func formatMapView(view *service.MapView) string {
	var result strings.Builder
	fmt.Fprintf(&result, "City %dx%d, %d streets\n\n", view.Rows, view.Cols, view.Streets)
	result.WriteString(view.Rendered)
	if !strings.HasSuffix(view.Rendered, "\n") {
		result.WriteString("\n")
	}

	if len(view.Locations) > 0 {
		result.WriteString("\nDelivery locations:\n")
		for _, loc := range view.Locations {
			fmt.Fprintf(&result, "  %s at (%d,%d)\n", loc.Label, loc.Cell.Row, loc.Cell.Col)
		}
	}
	if len(view.FuelStops) > 0 {
		result.WriteString("Fuel stops:")
		for _, stop := range view.FuelStops {
			fmt.Fprintf(&result, " (%d,%d)", stop.Row, stop.Col)
		}
		result.WriteString("\n")
	}
	return result.String()
}

func formatRoute(route *service.RouteResult) string {
	if !route.Found {
		return fmt.Sprintf("No route from (%d,%d) to (%d,%d)",
			route.From.Row, route.From.Col, route.To.Row, route.To.Col)
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Route (%d,%d) -> (%d,%d): %d cells, cost %.4f\n",
		route.From.Row, route.From.Col, route.To.Row, route.To.Col, len(route.Path), route.Cost)

	// Collapse repeated headings into legs.
	for i := 0; i < len(route.Headings); {
		j := i
		for j < len(route.Headings) && route.Headings[j] == route.Headings[i] {
			j++
		}
		fmt.Fprintf(&result, "  %s x%d\n", route.Headings[i], j-i)
		i = j
	}
	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Run History (Page %d/%d, Total: %d runs):\n\n",
		history.Page, history.TotalPages, history.TotalRuns)

	for _, run := range history.Runs {
		fmt.Fprintf(&result, "- %s %s: %d/%d delivered, %d failed, $%.2f, rating %.1f, %s\n",
			run.FinishedAt.Format("2006-01-02 15:04"), run.Outcome,
			run.Completed, run.Total, run.Failed, run.Money, run.AverageRating, run.Vehicle)
	}

	if history.HasNext {
		result.WriteString("\n(More runs available on next page)")
	}
	return result.String()
}
