// Package citymap generates and queries the Manhattan-style city used by
// Delivery Deluxe.
//
// A map is two grids. The building grid holds one label per block:
//   - '#' an empty building
//   - 'A'..'Z' a delivery location
//   - '+' a fuel stop
//   - '$', '@', '?' reserved start, end and mystery markers
//
// Between every 2x2 block of buildings sits a road intersection, so the
// intersection grid is one row and one column smaller. Each intersection
// carries a road-type label whose speed limit comes from the RoadTypeTable,
// and belongs to exactly one street. Streets run along intersection rows.
//
// Usage:
//
//	rng := rand.New(rand.NewPCG(seed, seed))
//	m, err := citymap.Generate(20, 20, 10, citymap.DefaultRoadTypes(), rng)
//	if err != nil {
//		log.Fatal(err)
//	}
//	limit, ok := m.SpeedLimitAt(3, 4)
package citymap
