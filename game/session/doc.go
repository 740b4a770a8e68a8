// Package session keeps Delivery Deluxe game sessions.
//
// Each session owns one engine, and with it one generated city. The Manager
// holds sessions in memory under case-insensitive IDs; when created with a
// SessionPersistence it writes every new session through and lazily loads
// sessions that are only on disk.
//
// FilePersistence stores one JSON document per session. The document holds
// the complete engine state, including the city snapshot and the random
// generator position, so a reloaded session continues exactly where it was
// saved: same map, same upcoming missions.
//
// Usage:
//
//	configs, _ := config.NewManager("configs")
//	store, _ := session.NewFilePersistence("sessions", configs)
//	manager := session.NewManagerWithPersistence(store)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", configs.GetDefault())
//
// Idle sessions are dropped from memory by CleanupExpiredSessions; their
// files stay loadable.
package session
