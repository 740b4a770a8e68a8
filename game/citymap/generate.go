package citymap

import (
	"fmt"
)

// Rand is the random source used by Generate. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
}

// Generate builds a new city map. Four fuel stops and numLocations
// delivery locations (A, B, ...) are scattered over empty building cells,
// one street is laid per intersection row, and every street receives a
// uniformly random road type.
func Generate(rows, cols, numLocations int, roads RoadTypeTable, rng Rand) (*GridMap, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: grid must be at least 2x2, got %dx%d", ErrConfiguration, rows, cols)
	}
	if err := roads.Validate(); err != nil {
		return nil, err
	}
	if numLocations < 1 || numLocations > MaxDeliveryLocations {
		return nil, fmt.Errorf("%w: delivery location count must be between 1 and %d, got %d",
			ErrConfiguration, MaxDeliveryLocations, numLocations)
	}
	if free := rows*cols - FuelStopCount; numLocations > free {
		return nil, fmt.Errorf("%w: %d delivery locations do not fit in %d free cells",
			ErrConfiguration, numLocations, free)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrConfiguration)
	}

	m := newGridMap(rows, cols, roads)

	for i := 0; i < FuelStopCount; i++ {
		m.placeRandom(LabelFuelStop, rng)
	}
	for i := 0; i < numLocations; i++ {
		m.placeRandom(byte('A'+i), rng)
	}

	m.buildRowStreets()

	icols := cols - 1
	for _, street := range m.streets {
		label := roads[rng.IntN(len(roads))].Label[0]
		for _, c := range street {
			m.intersections[c.Row*icols+c.Col] = label
		}
	}

	return m, nil
}

// placeRandom writes label into a uniformly random empty building cell
// using rejection sampling.
func (m *GridMap) placeRandom(label byte, rng Rand) {
	for {
		col := rng.IntN(m.cols)
		row := rng.IntN(m.rows)
		idx := row*m.cols + col
		if m.buildings[idx] == LabelEmpty {
			m.buildings[idx] = label
			return
		}
	}
}
