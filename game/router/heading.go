package router

import (
	"errors"
	"fmt"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
)

// ErrNotAdjacent is returned for steps that are not a single orthogonal move.
var ErrNotAdjacent = errors.New("cells are not orthogonally adjacent")

// Heading is a compass direction on the grid. Increasing row is north,
// increasing column is east.
type Heading string

const (
	North Heading = "north"
	East  Heading = "east"
	South Heading = "south"
	West  Heading = "west"
)

// Degrees returns the vehicle yaw for the heading.
func (h Heading) Degrees() float64 {
	switch h {
	case North:
		return 0
	case West:
		return 90
	case South:
		return 180
	case East:
		return 270
	}
	return 0
}

// HeadingForStep returns the heading that moves a vehicle from one cell to
// an orthogonal neighbour.
func HeadingForStep(from, to citymap.Cell) (Heading, error) {
	switch d := (citymap.Cell{Row: to.Row - from.Row, Col: to.Col - from.Col}); d {
	case citymap.Cell{Row: 0, Col: 1}:
		return East, nil
	case citymap.Cell{Row: 0, Col: -1}:
		return West, nil
	case citymap.Cell{Row: 1, Col: 0}:
		return North, nil
	case citymap.Cell{Row: -1, Col: 0}:
		return South, nil
	default:
		return "", fmt.Errorf("%w: step %+v", ErrNotAdjacent, d)
	}
}

// Headings converts the route into one heading per step.
func (r Route) Headings() ([]Heading, error) {
	if len(r.Path) < 2 {
		return nil, nil
	}
	out := make([]Heading, 0, len(r.Path)-1)
	for i := 1; i < len(r.Path); i++ {
		h, err := HeadingForStep(r.Path[i-1], r.Path[i])
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
