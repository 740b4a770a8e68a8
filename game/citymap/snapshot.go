package citymap

import (
	"fmt"
)

// Snapshot is the serializable form of a GridMap. Each string holds one
// grid row, one byte per cell.
type Snapshot struct {
	Buildings     []string      `json:"buildings" yaml:"buildings"`
	Intersections []string      `json:"intersections" yaml:"intersections"`
	RoadTypes     RoadTypeTable `json:"road_types" yaml:"road_types"`
}

// Snapshot captures the map's grids and road table.
func (m *GridMap) Snapshot() Snapshot {
	s := Snapshot{
		Buildings:     make([]string, m.rows),
		Intersections: make([]string, m.rows-1),
		RoadTypes:     m.roads.clone(),
	}
	for r := 0; r < m.rows; r++ {
		s.Buildings[r] = string(m.buildings[r*m.cols : (r+1)*m.cols])
	}
	icols := m.cols - 1
	for r := 0; r < m.rows-1; r++ {
		s.Intersections[r] = string(m.intersections[r*icols : (r+1)*icols])
	}
	return s
}

// FromSnapshot rebuilds a GridMap, validating dimensions and labels.
func FromSnapshot(s Snapshot) (*GridMap, error) {
	if err := s.RoadTypes.Validate(); err != nil {
		return nil, err
	}

	rows := len(s.Buildings)
	if rows < 2 {
		return nil, fmt.Errorf("%w: snapshot needs at least 2 building rows, got %d", ErrConfiguration, rows)
	}
	cols := len(s.Buildings[0])
	if cols < 2 {
		return nil, fmt.Errorf("%w: snapshot needs at least 2 building columns, got %d", ErrConfiguration, cols)
	}
	if len(s.Intersections) != rows-1 {
		return nil, fmt.Errorf("%w: expected %d intersection rows, got %d", ErrConfiguration, rows-1, len(s.Intersections))
	}

	m := newGridMap(rows, cols, s.RoadTypes)

	for r, line := range s.Buildings {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: building row %d has %d cells, expected %d", ErrConfiguration, r, len(line), cols)
		}
		for c := 0; c < cols; c++ {
			if !isBuildingLabel(line[c]) {
				return nil, fmt.Errorf("%w: unknown building label %q at (%d, %d)", ErrConfiguration, line[c], r, c)
			}
			m.buildings[r*cols+c] = line[c]
		}
	}

	icols := cols - 1
	for r, line := range s.Intersections {
		if len(line) != icols {
			return nil, fmt.Errorf("%w: intersection row %d has %d cells, expected %d", ErrConfiguration, r, len(line), icols)
		}
		for c := 0; c < icols; c++ {
			if _, ok := m.speeds[line[c]]; !ok {
				return nil, fmt.Errorf("%w: unknown road label %q at (%d, %d)", ErrConfiguration, line[c], r, c)
			}
			m.intersections[r*icols+c] = line[c]
		}
	}

	m.buildRowStreets()
	return m, nil
}
