// Package engine provides the core game logic for Delivery Deluxe.
//
// The engine package implements the game mechanics including:
//   - Delivery missions with time budgets and customer ratings
//   - Money, fuel, speeding and collision fines
//   - The start, garage, game, win and loss flow
//   - A one-shot autopilot that follows the fastest route
//   - Game state snapshots for persistence
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. A collaborator (a physics front end, a bot or
// the HTTP API) feeds it one TickInput per frame and dispatches discrete
// actions such as begin, launch and select_vehicle. Every call returns the
// Dashboard for the frame along with the events raised.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.Dispatch(engine.ActionBegin, engine.ActionArgs{})
//	eng.Dispatch(engine.ActionLaunch, engine.ActionArgs{})
//
//	res, err := eng.Tick(engine.TickInput{DT: 0.1, Position: pos, Speed: 40})
//
// Game Rules:
//
// The player delivers to lettered buildings against the clock. Five
// successful deliveries win the run. Running dry, failing four deliveries
// or going into debt loses it.
package engine
