package citymap

import (
	"fmt"
)

// RoadType pairs an intersection label with the speed limit of every
// intersection carrying it, in km/h.
type RoadType struct {
	Label      string  `json:"label" yaml:"label"`
	SpeedLimit float64 `json:"speed_limit" yaml:"speed_limit"`
}

// RoadTypeTable is the ordered set of road types a map may use. The first
// entry is the filler label written to every intersection before streets
// are assigned.
type RoadTypeTable []RoadType

// DefaultRoadTypes returns the stock table, slowest road first.
func DefaultRoadTypes() RoadTypeTable {
	return RoadTypeTable{
		{Label: ".", SpeedLimit: 15},
		{Label: ":", SpeedLimit: 25},
		{Label: ";", SpeedLimit: 35},
		{Label: ",", SpeedLimit: 50},
		{Label: "*", SpeedLimit: 70},
		{Label: "%", SpeedLimit: 100},
	}
}

// Validate checks that the table is usable for generation and routing.
func (t RoadTypeTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: road type table is empty", ErrConfiguration)
	}

	seen := make(map[byte]bool, len(t))
	for i, rt := range t {
		if len(rt.Label) != 1 {
			return fmt.Errorf("%w: road type %d label %q must be a single character", ErrConfiguration, i, rt.Label)
		}
		label := rt.Label[0]
		if isBuildingLabel(label) {
			return fmt.Errorf("%w: road type label %q collides with a building label", ErrConfiguration, rt.Label)
		}
		if seen[label] {
			return fmt.Errorf("%w: duplicate road type label %q", ErrConfiguration, rt.Label)
		}
		if rt.SpeedLimit <= 0 {
			return fmt.Errorf("%w: road type %q speed limit must be positive, got %v", ErrConfiguration, rt.Label, rt.SpeedLimit)
		}
		seen[label] = true
	}

	return nil
}

// Filler returns the label of the first road type.
func (t RoadTypeTable) Filler() byte {
	return t[0].Label[0]
}

// SpeedLimit returns the speed limit for an intersection label.
func (t RoadTypeTable) SpeedLimit(label byte) (float64, bool) {
	for _, rt := range t {
		if rt.Label[0] == label {
			return rt.SpeedLimit, true
		}
	}
	return 0, false
}

func (t RoadTypeTable) clone() RoadTypeTable {
	out := make(RoadTypeTable, len(t))
	copy(out, t)
	return out
}
