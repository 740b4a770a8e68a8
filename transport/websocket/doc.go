// Package websocket pushes live dashboards to browsers watching a session.
//
// A single Hub goroutine owns the client registry. Clients connect with
// /ws?session=<id> and receive one JSON Message per tick or action on that
// session:
//
//	{"session_id": "ab12", "event": "dashboard", "dashboard": {...}}
//
// Other events (for example a deleted session) carry a free-form data field
// instead of a dashboard. Client input is read only to service pings and
// close frames.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastDashboard(sessionID, result.Dashboard)
//
// A client whose queue fills up is disconnected rather than slowing down
// the broadcaster. Cancelling the Run context disconnects everyone, and
// later broadcasts are dropped.
package websocket
