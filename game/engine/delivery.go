package engine

import (
	"math"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
)

// Mission is the single active delivery.
type Mission struct {
	Target        citymap.Cell `json:"target"`
	Label         string       `json:"label"`
	TimeBudget    float64      `json:"time_budget"`
	TimeRemaining float64      `json:"time_remaining"`
	Reward        float64      `json:"reward"`
}

// Completion describes a successful drop-off.
type Completion struct {
	Reward  float64 `json:"reward"`
	Rating  float64 `json:"rating"`
	Victory bool    `json:"victory"`
}

// DeliverySystem runs the mission lifecycle and keeps the run tallies.
type DeliverySystem struct {
	Mission    *Mission  `json:"mission,omitempty"`
	Successful int       `json:"successful"`
	Total      int       `json:"total"`
	Failed     int       `json:"failed"`
	Ratings    []float64 `json:"ratings"`
	Victory    bool      `json:"victory"`

	rules DeliveryRules
	city  *citymap.GridMap
	rng   citymap.Rand
}

type wallet interface {
	Credit(amount float64)
}

// NewDeliverySystem returns an idle delivery system over city.
func NewDeliverySystem(city *citymap.GridMap, rules DeliveryRules, rng citymap.Rand) *DeliverySystem {
	d := &DeliverySystem{}
	d.attach(city, rules, rng)
	d.reset()
	return d
}

func (d *DeliverySystem) attach(city *citymap.GridMap, rules DeliveryRules, rng citymap.Rand) {
	d.city = city
	d.rules = rules
	d.rng = rng
}

func (d *DeliverySystem) reset() {
	d.Mission = nil
	d.Successful = 0
	d.Total = 0
	d.Failed = 0
	d.Ratings = []float64{}
	d.Victory = false
}

// StartNewDelivery picks a random delivery location and sizes the time
// budget by its distance from pos. It returns nil when the city has no
// delivery locations.
func (d *DeliverySystem) StartNewDelivery(pos citymap.Cell) *Mission {
	locations := d.city.DeliveryLocations()
	if len(locations) == 0 {
		d.Mission = nil
		return nil
	}

	target := locations[d.rng.IntN(len(locations))]
	label, _ := d.city.LabelAt(target.Row, target.Col)

	dist := math.Hypot(float64(target.Row-pos.Row), float64(target.Col-pos.Col))
	maxDist := math.Hypot(float64(d.city.Rows()), float64(d.city.Cols()))
	budget := d.rules.BaseTime + d.rules.DistanceTime*dist/maxDist

	d.Mission = &Mission{
		Target:        target,
		Label:         string(label),
		TimeBudget:    budget,
		TimeRemaining: budget,
		Reward:        d.rules.Rewards[d.rng.IntN(len(d.rules.Rewards))],
	}
	d.Total++
	return d.Mission
}

// AtTarget reports whether pos is the target cell or one of its four
// orthogonal neighbours.
func (m *Mission) AtTarget(pos citymap.Cell) bool {
	dr := pos.Row - m.Target.Row
	dc := pos.Col - m.Target.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc <= 1
}

// AttemptComplete delivers the active mission if pos is within reach of the
// target. The reward goes to w. Reaching the winning delivery count sets
// Victory instead of starting another mission.
func (d *DeliverySystem) AttemptComplete(pos citymap.Cell, w wallet) (Completion, bool) {
	if d.Mission == nil || d.Victory || !d.Mission.AtTarget(pos) {
		return Completion{}, false
	}

	m := d.Mission
	rating := d.rating(m)
	won := d.Successful >= d.rules.DeliveriesToWin-1

	w.Credit(m.Reward)
	d.Successful++
	d.Ratings = append(d.Ratings, rating)

	if won {
		d.Victory = true
		d.Mission = nil
	} else {
		d.StartNewDelivery(pos)
	}

	return Completion{Reward: m.Reward, Rating: rating, Victory: won}, true
}

func (d *DeliverySystem) rating(m *Mission) float64 {
	r := m.TimeRemaining / (d.rules.RatingWindow * m.TimeBudget) * d.rules.MaxRating
	if r > d.rules.MaxRating {
		r = d.rules.MaxRating
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Tick counts the mission down. When time runs out the mission fails with
// a zero rating and a new one starts from pos. It reports whether the
// mission failed.
func (d *DeliverySystem) Tick(dt float64, pos citymap.Cell) bool {
	if d.Mission == nil || d.Victory {
		return false
	}
	if dt > 0 {
		d.Mission.TimeRemaining -= dt
	}
	if d.Mission.TimeRemaining > 0 {
		return false
	}

	d.Failed++
	d.Ratings = append(d.Ratings, 0)
	d.StartNewDelivery(pos)
	return true
}

// AverageRating is the mean of all ratings so far, or 0 with none.
func (d *DeliverySystem) AverageRating() float64 {
	if len(d.Ratings) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range d.Ratings {
		sum += r
	}
	return sum / float64(len(d.Ratings))
}
