// Package service provides the business logic layer for Delivery Deluxe.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration lookup and saving
//   - Tick and action dispatch against a session's engine
//   - City map, routing and run history queries
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns one engine, and therefore one generated
// city, and every call that changes the engine is followed by a save.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.Act(ctx, info.ID, engine.ActionBegin, engine.ActionArgs{})
//	gameService.Act(ctx, info.ID, engine.ActionLaunch, engine.ActionArgs{})
//	result, err := gameService.Tick(ctx, info.ID, engine.TickInput{DT: 1.0 / 60})
//
// Errors:
//
// ErrSessionNotFound, ErrConfigNotFound and ErrInvalidConfig are wrapped by
// every method that can produce them, so callers map them with errors.Is.
package service
