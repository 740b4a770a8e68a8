package engine

import (
	"errors"
	"math"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/router"
)

var (
	ErrAutopilotUsed     = errors.New("autopilot already used this run")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoRoute           = errors.New("no route to the delivery target")
	ErrNoMission         = errors.New("no active delivery")
)

// Autopilot drives the vehicle along a precomputed fastest route to the
// delivery target. It can be bought once per run.
type Autopilot struct {
	Used   bool           `json:"used"`
	Active bool           `json:"active"`
	Path   []citymap.Cell `json:"path,omitempty"`
	Goal   citymap.Cell   `json:"goal"`
}

func (a *Autopilot) reset() {
	*a = Autopilot{}
}

// clampToRoads moves a building cell onto the nearest intersection.
func clampToRoads(city *citymap.GridMap, c citymap.Cell) citymap.Cell {
	rows, cols := city.IntersectionSize()
	c.Row = max(0, min(c.Row, rows-1))
	c.Col = max(0, min(c.Col, cols-1))
	return c
}

// Activate plans a route from pos to goal and charges cost. Nothing is
// charged when no route exists.
func (a *Autopilot) Activate(pos, goal citymap.Cell, city *citymap.GridMap, r *router.Router, econ *Economy, cost float64) (router.Route, error) {
	if a.Used {
		return router.Route{}, ErrAutopilotUsed
	}
	if econ.Money < cost {
		return router.Route{}, ErrInsufficientFunds
	}

	start := clampToRoads(city, pos)
	end := clampToRoads(city, goal)
	route := r.ShortestTimePath(start, end)
	if !route.Found() {
		return route, ErrNoRoute
	}
	if !econ.Charge(cost) {
		return router.Route{}, ErrInsufficientFunds
	}

	a.Used = true
	a.Active = true
	a.Goal = end
	a.Path = append([]citymap.Cell(nil), route.Path...)
	return route, nil
}

// Cancel hands control back to the driver. It reports whether the
// autopilot was driving.
func (a *Autopilot) Cancel() bool {
	was := a.Active
	a.Active = false
	a.Path = nil
	return was
}

// Guide drops the waypoints the vehicle has reached and returns directions
// to the next one. arrived is true on the tick the path runs out.
func (a *Autopilot) Guide(pos citymap.Cell, yaw float64, city *citymap.GridMap) (g *Guidance, arrived bool) {
	if !a.Active {
		return nil, false
	}

	cur := clampToRoads(city, pos)
	for i, wp := range a.Path {
		if wp == cur {
			a.Path = a.Path[i+1:]
			break
		}
	}
	if len(a.Path) == 0 {
		a.Active = false
		a.Path = nil
		return nil, true
	}

	next := a.Path[0]
	heading, err := router.HeadingForStep(cur, next)
	if err != nil {
		heading = towards(cur, next)
	}
	limit, _ := city.SpeedLimitAt(cur.Row, cur.Col)

	desired := heading.Degrees()
	return &Guidance{
		Waypoint:    next,
		Heading:     heading,
		Yaw:         desired,
		Turn:        turnAngle(desired, yaw),
		TargetSpeed: limit,
		Remaining:   len(a.Path),
	}, false
}

// turnAngle returns the signed rotation in [-180, 180) from yaw to desired.
func turnAngle(desired, yaw float64) float64 {
	d := math.Mod(desired-yaw+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// towards picks the dominant axis when the vehicle has strayed off the path.
func towards(from, to citymap.Cell) router.Heading {
	dr := to.Row - from.Row
	dc := to.Col - from.Col
	if abs(dc) >= abs(dr) {
		if dc >= 0 {
			return router.East
		}
		return router.West
	}
	if dr > 0 {
		return router.North
	}
	return router.South
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
