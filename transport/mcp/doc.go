// Package mcp exposes the delivery game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes one REST request
// against the api package's endpoints and the JSON reply is rendered as
// text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - dashboard: flow state, money, fuel, mission and warnings
//   - act: begin, select_vehicle, launch, restart
//   - tick: one driving frame with per-frame actions
//   - city_map, route: the grid and the fastest path between intersections
//   - run_history, list_configs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP, mounted next to the REST API
//	resp := client.GetMCPServer().HandleMessage(r.Context(), body)
//
// Tool failures come back as error results rather than Go errors so the
// agent sees the server's message.
package mcp
