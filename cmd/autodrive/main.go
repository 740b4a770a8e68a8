// Command autodrive plays Delivery Deluxe through the REST API. It rebuilds
// the session's city locally, routes the car with the same fastest-path
// search the server uses and drives one cell per tick until the run is won
// or lost.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configID := flag.String("config", "", "Game configuration ID (default: server default)")
	continueSession := flag.String("continue", "", "Play an existing session by ID")
	vehicle := flag.Int("vehicle", -1, "Garage slot to pick (-1 keeps the default)")
	runs := flag.Int("runs", 1, "Number of runs to play")
	defaults := DefaultDriverOptions()
	dt := flag.Float64("dt", defaults.DT, "Seconds per tick")
	maxTicks := flag.Int("max-ticks", defaults.MaxTicks, "Maximum ticks per run")
	reserve := flag.Float64("fuel-reserve", defaults.FuelReserve, "Refuel when fuel drops below this level")
	autopilot := flag.Bool("autopilot", false, "Buy the autopilot when affordable")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := defaults
	opts.DT = *dt
	opts.MaxTicks = *maxTicks
	opts.FuelReserve = *reserve
	opts.UseAutopilot = *autopilot
	opts.Verbose = *verbose

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	if *continueSession != "" {
		if _, err := client.Resume(*continueSession); err != nil {
			log.Fatalf("Failed to resume session: %v", err)
		}
		log.Printf("Resuming session: %s", client.sessionID)
	} else {
		session, err := client.CreateSession(*configID)
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		log.Printf("Session created: %s (config %s)", session.ID, session.ConfigName)
	}

	city, err := client.City()
	if err != nil {
		log.Fatalf("Failed to load city: %v", err)
	}
	log.Printf("City %dx%d, %d delivery locations, %d fuel stops",
		city.Rows(), city.Cols(), len(city.DeliveryLocations()), len(city.FuelStops()))

	driver := NewDriver(client, city, opts)
	wins := 0
	for run := 1; run <= *runs; run++ {
		final, err := PlayRun(ctx, client, driver, *vehicle)
		if err != nil && !errors.Is(err, ErrTickBudget) {
			log.Fatalf("Run %d failed: %v", run, err)
		}
		if err != nil {
			log.Printf("Run %d: %v", run, err)
			continue
		}
		if final.Flow == engine.FlowWin {
			wins++
		}
		logSummary(run, final, driver.Ticks())
	}
	log.Printf("Won %d of %d runs", wins, *runs)
}

// PlayRun walks the flow from wherever the session is into a fresh run and
// drives it to the end.
func PlayRun(ctx context.Context, client *Client, driver *Driver, vehicle int) (*engine.Dashboard, error) {
	session, err := client.Resume(client.sessionID)
	if err != nil {
		return nil, err
	}
	dash := session.Dashboard

	if dash.Flow.Terminal() {
		result, err := client.Act(engine.ActionRestart, 0)
		if err != nil {
			return nil, err
		}
		dash = result.Dashboard
	}
	if dash.Flow == engine.FlowStart {
		result, err := client.Act(engine.ActionBegin, 0)
		if err != nil {
			return nil, err
		}
		dash = result.Dashboard
	}
	if dash.Flow == engine.FlowGarage {
		if vehicle >= 0 {
			if _, err := client.Act(engine.ActionSelectVehicle, vehicle); err != nil {
				return nil, err
			}
		}
		result, err := client.Act(engine.ActionLaunch, 0)
		if err != nil {
			return nil, err
		}
		dash = result.Dashboard
	}

	return driver.Drive(ctx, dash)
}

func logSummary(run int, d *engine.Dashboard, ticks int) {
	if d.Flow == engine.FlowWin {
		log.Printf("Run %d: VICTORY in %d ticks", run, ticks)
	} else {
		log.Printf("Run %d: lost (%s) after %d ticks", run, d.LossMessage, ticks)
	}
	if s := d.Summary; s != nil {
		log.Printf("  %s: %d/%d delivered, %d failed, $%.2f, average rating %.1f",
			s.Vehicle, s.Completed, s.Total, s.Failed, s.Money, s.AverageRating)
	}
}
