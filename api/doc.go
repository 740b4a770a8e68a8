// Package api exposes the delivery game over HTTP.
//
// Session management:
//   - POST   /api/sessions                 create a session ({"config_id": "compact"})
//   - GET    /api/sessions                 list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         dashboards of several sessions (?sessionIds=a,b or ?configName=classic)
//   - GET    /api/sessions/{id}            session info with its current dashboard
//   - DELETE /api/sessions/{id}            delete a session
//
// Game operations:
//   - GET  /api/sessions/{id}/dashboard    current dashboard
//   - POST /api/sessions/{id}/tick         advance one frame (engine.TickInput)
//   - POST /api/sessions/{id}/actions      dispatch a flow action ({"action": "launch"})
//   - GET  /api/sessions/{id}/map          city map (?format=text for the ASCII rendering)
//   - GET  /api/sessions/{id}/route        fastest route (?from=r,c&to=r,c)
//   - GET  /api/sessions/{id}/runs         finished runs (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET  /api/configs                    available configurations
//   - GET  /api/configs/{name}             one configuration
//   - POST /api/configs                    save a configuration (?id= overrides the derived ID)
//
// GET /ws?session={id} upgrades to a WebSocket that receives a dashboard
// after every tick or action on that session. GET /healthz reports liveness.
//
// Errors are returned as {"error": "..."}. Unknown sessions and configs map
// to 404, actions the current flow state rejects to 409, and malformed
// input to 400.
package api
