// Package config provides configuration management for Delivery Deluxe.
//
// The config package handles:
//   - Loading game configurations from JSON and YAML files
//   - Configuration validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations live in the configs directory as <name>.json,
// <name>.yaml or <name>.yml. Each configuration defines:
//   - City size and the number of delivery locations
//   - The road-type table (label and speed limit per road kind)
//   - Economy rules: starting money and fuel, fines, refuel and autopilot prices
//   - Delivery rules: rewards, time budget, rating window, win and loss counts
//   - The garage of vehicle models
//   - Warning texts and how long each is shown
//
// Fields left empty in the warnings and messages sections fall back to the
// built-in defaults. A missing seed picks a random city per session.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("compact")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When no usable file exists the manager serves engine.DefaultGameConfig.
package config
