package citymap

import (
	"errors"
	"strconv"
	"strings"
)

// Building labels. Uppercase letters A-Z mark delivery locations.
const (
	LabelEmpty    byte = '#'
	LabelFuelStop byte = '+'
	LabelStart    byte = '$'
	LabelEnd      byte = '@'
	LabelMystery  byte = '?'
)

const (
	// FuelStopCount is the number of fuel stops placed by Generate.
	FuelStopCount = 4
	// MaxDeliveryLocations is bounded by the alphabet.
	MaxDeliveryLocations = 26
)

// ErrConfiguration reports generation or restore parameters that cannot
// produce a valid map.
var ErrConfiguration = errors.New("invalid map configuration")

// Cell addresses either a building cell or an intersection cell depending
// on which grid it is used with.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Add returns the cell offset by the given deltas.
func (c Cell) Add(dRow, dCol int) Cell {
	return Cell{Row: c.Row + dRow, Col: c.Col + dCol}
}

// GridMap is the generated city: a rows x cols building grid and the
// (rows-1) x (cols-1) grid of road intersections between buildings.
// It is immutable once built.
type GridMap struct {
	rows, cols    int
	buildings     []byte
	intersections []byte
	streets       [][]Cell
	streetIndex   []int
	roads         RoadTypeTable
	speeds        map[byte]float64
}

func newGridMap(rows, cols int, roads RoadTypeTable) *GridMap {
	m := &GridMap{
		rows:          rows,
		cols:          cols,
		buildings:     make([]byte, rows*cols),
		intersections: make([]byte, (rows-1)*(cols-1)),
		streetIndex:   make([]int, (rows-1)*(cols-1)),
		roads:         roads.clone(),
		speeds:        make(map[byte]float64, len(roads)),
	}
	for _, rt := range roads {
		m.speeds[rt.Label[0]] = rt.SpeedLimit
	}
	for i := range m.buildings {
		m.buildings[i] = LabelEmpty
	}
	filler := roads.Filler()
	for i := range m.intersections {
		m.intersections[i] = filler
		m.streetIndex[i] = -1
	}
	return m
}

// buildRowStreets partitions the intersections into one street per
// intersection row, in column order.
func (m *GridMap) buildRowStreets() {
	irows, icols := m.IntersectionSize()
	m.streets = make([][]Cell, 0, irows)
	for r := 0; r < irows; r++ {
		street := make([]Cell, 0, icols)
		for c := 0; c < icols; c++ {
			street = append(street, Cell{Row: r, Col: c})
			m.streetIndex[r*icols+c] = len(m.streets)
		}
		m.streets = append(m.streets, street)
	}
}

// Rows returns the number of building rows.
func (m *GridMap) Rows() int { return m.rows }

// Cols returns the number of building columns.
func (m *GridMap) Cols() int { return m.cols }

// IntersectionSize returns the dimensions of the intersection grid.
func (m *GridMap) IntersectionSize() (int, int) {
	return m.rows - 1, m.cols - 1
}

// InBuildingGrid reports whether the cell lies on the building grid.
func (m *GridMap) InBuildingGrid(c Cell) bool {
	return c.Row >= 0 && c.Row < m.rows && c.Col >= 0 && c.Col < m.cols
}

// InIntersectionGrid reports whether the cell lies on the intersection grid.
func (m *GridMap) InIntersectionGrid(c Cell) bool {
	return c.Row >= 0 && c.Row < m.rows-1 && c.Col >= 0 && c.Col < m.cols-1
}

// LabelAt returns the building label at (row, col).
func (m *GridMap) LabelAt(row, col int) (byte, bool) {
	if !m.InBuildingGrid(Cell{Row: row, Col: col}) {
		return 0, false
	}
	return m.buildings[row*m.cols+col], true
}

// IntersectionLabelAt returns the road-type label of the intersection at (row, col).
func (m *GridMap) IntersectionLabelAt(row, col int) (byte, bool) {
	if !m.InIntersectionGrid(Cell{Row: row, Col: col}) {
		return 0, false
	}
	return m.intersections[row*(m.cols-1)+col], true
}

// StreetIndexOf returns the index of the street owning the intersection.
func (m *GridMap) StreetIndexOf(row, col int) (int, bool) {
	if !m.InIntersectionGrid(Cell{Row: row, Col: col}) {
		return 0, false
	}
	idx := m.streetIndex[row*(m.cols-1)+col]
	return idx, idx >= 0
}

// Streets returns a copy of the ordered street partition.
func (m *GridMap) Streets() [][]Cell {
	out := make([][]Cell, len(m.streets))
	for i, s := range m.streets {
		out[i] = append([]Cell(nil), s...)
	}
	return out
}

// StreetCount returns the number of streets.
func (m *GridMap) StreetCount() int {
	return len(m.streets)
}

// SpeedLimitAt returns the speed limit of the intersection at (row, col).
func (m *GridMap) SpeedLimitAt(row, col int) (float64, bool) {
	label, ok := m.IntersectionLabelAt(row, col)
	if !ok {
		return 0, false
	}
	limit, ok := m.speeds[label]
	return limit, ok
}

// RoadTypes returns the road-type table the map was built with.
func (m *GridMap) RoadTypes() RoadTypeTable {
	return m.roads.clone()
}

// DeliveryLocations returns every building cell labelled with a letter, in
// row-major order.
func (m *GridMap) DeliveryLocations() []Cell {
	var out []Cell
	for i, label := range m.buildings {
		if isDeliveryLabel(label) {
			out = append(out, Cell{Row: i / m.cols, Col: i % m.cols})
		}
	}
	return out
}

// FuelStops returns every fuel stop cell in row-major order.
func (m *GridMap) FuelStops() []Cell {
	var out []Cell
	for i, label := range m.buildings {
		if label == LabelFuelStop {
			out = append(out, Cell{Row: i / m.cols, Col: i % m.cols})
		}
	}
	return out
}

// Find returns the first building cell carrying label.
func (m *GridMap) Find(label byte) (Cell, bool) {
	for i, l := range m.buildings {
		if l == label {
			return Cell{Row: i / m.cols, Col: i % m.cols}, true
		}
	}
	return Cell{}, false
}

// fuelCatchment lists the building offsets from which a fuel stop can be
// used: the vehicle's cell, its left and right neighbours, and the three
// cells of the row above.
var fuelCatchment = [6][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 0}, {0, 1},
}

// NearFuelStop reports whether a fuel stop lies within the refuel
// catchment of pos.
func (m *GridMap) NearFuelStop(pos Cell) bool {
	for _, d := range fuelCatchment {
		if label, ok := m.LabelAt(pos.Row+d[0], pos.Col+d[1]); ok && label == LabelFuelStop {
			return true
		}
	}
	return false
}

// Render draws building rows interleaved with intersection rows. Each
// intersection prints as its road label followed by its street index.
func (m *GridMap) Render() string {
	var b strings.Builder
	for r := 0; r < m.rows; r++ {
		row := m.buildings[r*m.cols : (r+1)*m.cols]
		for c, label := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(label)
		}
		b.WriteByte('\n')

		if r == m.rows-1 {
			break
		}
		for c := 0; c < m.cols-1; c++ {
			b.WriteByte(' ')
			label, _ := m.IntersectionLabelAt(r, c)
			b.WriteByte(label)
			if idx, ok := m.StreetIndexOf(r, c); ok {
				b.WriteString(strconv.Itoa(idx))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func isDeliveryLabel(label byte) bool {
	return label >= 'A' && label <= 'Z'
}

func isBuildingLabel(label byte) bool {
	switch label {
	case LabelEmpty, LabelFuelStop, LabelStart, LabelEnd, LabelMystery:
		return true
	}
	return isDeliveryLabel(label)
}
