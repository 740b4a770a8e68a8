package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
	"github.com/amolgorithm/delivery-deluxe/game/router"
)

// Speed used on building cells, which have no speed limit.
const crawlSpeed = 10

// ErrTickBudget is returned when a run does not finish within MaxTicks.
var ErrTickBudget = errors.New("tick budget exhausted")

// DriverOptions tunes the bot.
type DriverOptions struct {
	DT           float64 // seconds per tick
	MaxTicks     int     // per run
	FuelReserve  float64 // refuel below this level
	SpeedFactor  float64 // fraction of the speed limit to drive at
	UseAutopilot bool    // buy the autopilot once it is affordable
	Verbose      bool
}

func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		DT:          0.25,
		MaxTicks:    5000,
		FuelReserve: 25,
		SpeedFactor: 0.9,
	}
}

// Driver plays a session one cell per tick. It moves the car along the
// fastest route to the current goal and sends the matching action on
// arrival.
type Driver struct {
	api    *Client
	city   *citymap.GridMap
	router *router.Router
	opts   DriverOptions

	pos     citymap.Cell
	heading float64
	dash    *engine.Dashboard
	ticks   int

	// fuel level right after the last refuel; a stop that did not raise it
	// is not retried until the level changes
	refuelledAt float64
}

func NewDriver(api *Client, city *citymap.GridMap, opts DriverOptions) *Driver {
	return &Driver{
		api:         api,
		city:        city,
		router:      router.New(city),
		opts:        opts,
		refuelledAt: -1,
	}
}

// Ticks returns the number of ticks sent in the current run.
func (d *Driver) Ticks() int {
	return d.ticks
}

// clampToRoads mirrors the engine's mapping of a building cell onto the
// intersection grid.
func (d *Driver) clampToRoads(c citymap.Cell) citymap.Cell {
	rows, cols := d.city.IntersectionSize()
	c.Row = max(0, min(c.Row, rows-1))
	c.Col = max(0, min(c.Col, cols-1))
	return c
}

// stepToward moves one cell from a toward b, rows first.
func stepToward(a, b citymap.Cell) citymap.Cell {
	switch {
	case a.Row < b.Row:
		return a.Add(1, 0)
	case a.Row > b.Row:
		return a.Add(-1, 0)
	case a.Col < b.Col:
		return a.Add(0, 1)
	case a.Col > b.Col:
		return a.Add(0, -1)
	}
	return a
}

// nextCell picks the next cell on the way to goal: onto the road grid,
// along the fastest route, then off the grid to the goal itself.
func (d *Driver) nextCell(goal citymap.Cell) citymap.Cell {
	start, end := d.clampToRoads(d.pos), d.clampToRoads(goal)
	if start == end {
		return stepToward(d.pos, goal)
	}
	if d.pos != start {
		return stepToward(d.pos, start)
	}
	route := d.router.ShortestTimePath(start, end)
	if len(route.Path) < 2 {
		return stepToward(d.pos, goal)
	}
	return route.Path[1]
}

// speedFor is the cruising speed on cell.
func (d *Driver) speedFor(cell citymap.Cell) float64 {
	if limit, ok := d.city.SpeedLimitAt(cell.Row, cell.Col); ok {
		return limit * d.opts.SpeedFactor
	}
	return crawlSpeed
}

// wantsFuel reports whether the next goal should be a fuel stop.
func (d *Driver) wantsFuel() bool {
	return d.dash.Fuel < d.opts.FuelReserve &&
		d.dash.Money > 0 &&
		d.dash.Fuel != d.refuelledAt &&
		len(d.city.FuelStops()) > 0
}

// nearestFuelStop returns the stop with the cheapest route from the car.
func (d *Driver) nearestFuelStop() citymap.Cell {
	stops := d.city.FuelStops()
	best, bestCost := stops[0], -1.0
	from := d.clampToRoads(d.pos)
	for _, stop := range stops {
		route := d.router.ShortestTimePath(from, d.clampToRoads(stop))
		if !route.Found() {
			continue
		}
		if bestCost < 0 || route.Cost < bestCost {
			best, bestCost = stop, route.Cost
		}
	}
	return best
}

// goal returns where to drive next and what to do there.
func (d *Driver) goal() (citymap.Cell, engine.Action, bool) {
	if d.wantsFuel() {
		return d.nearestFuelStop(), engine.ActionRefuel, true
	}
	if m := d.dash.Mission; m != nil {
		return m.Target, engine.ActionCompleteDelivery, true
	}
	return citymap.Cell{}, "", false
}

func (d *Driver) tick(to citymap.Cell, speed float64, actions ...engine.Action) error {
	if h, err := router.HeadingForStep(d.pos, to); err == nil {
		d.heading = h.Degrees()
	}
	result, err := d.api.Tick(engine.TickInput{
		DT:       d.opts.DT,
		Position: to,
		Speed:    speed,
		Heading:  d.heading,
		Actions:  actions,
	})
	if err != nil {
		return err
	}
	d.ticks++
	d.pos = to
	d.dash = result.Dashboard

	for _, ev := range result.Events {
		if d.opts.Verbose || ev.Type != engine.EventFlow {
			log.Printf("[%4d] (%d,%d) %s %s", d.ticks, to.Row, to.Col, ev.Type, ev.Message)
		}
	}
	return nil
}

// Drive plays the current run until it ends.
func (d *Driver) Drive(ctx context.Context, dash *engine.Dashboard) (*engine.Dashboard, error) {
	d.dash = dash
	d.pos = dash.Position
	d.ticks = 0

	for d.dash.Flow == engine.FlowGame {
		if err := ctx.Err(); err != nil {
			return d.dash, err
		}
		if d.ticks >= d.opts.MaxTicks {
			return d.dash, fmt.Errorf("%w after %d ticks", ErrTickBudget, d.ticks)
		}

		goal, action, ok := d.goal()
		if !ok {
			// No mission yet; idle one frame.
			if err := d.tick(d.pos, 0); err != nil {
				return d.dash, err
			}
			continue
		}

		if d.pos == goal {
			if err := d.tick(d.pos, 0, action); err != nil {
				return d.dash, err
			}
			if action == engine.ActionRefuel {
				d.refuelledAt = d.dash.Fuel
			}
			continue
		}

		ap := d.dash.Autopilot
		if ap.Active && ap.Guidance != nil {
			next := ap.Guidance.Waypoint
			limit := ap.Guidance.TargetSpeed
			if l, ok := d.city.SpeedLimitAt(next.Row, next.Col); ok && l < limit {
				limit = l
			}
			if err := d.tick(next, limit*d.opts.SpeedFactor); err != nil {
				return d.dash, err
			}
			continue
		}

		if d.opts.UseAutopilot && ap.Available && action == engine.ActionCompleteDelivery {
			if err := d.tick(d.pos, 0, engine.ActionActivateAutopilot); err != nil {
				return d.dash, err
			}
			continue
		}

		next := d.nextCell(goal)
		if err := d.tick(next, d.speedFor(next)); err != nil {
			return d.dash, err
		}
	}

	return d.dash, nil
}
