package engine

import (
	"fmt"
	"strconv"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
)

const (
	offGridStreet    = "1755 Merivale Rd"
	offGridSpeedText = "INF SPEED"
	offGridAddress   = "E Merivale Rd."
)

var ordinalSuffixes = [5]string{"th", "st", "nd", "rd", "th"}

// Ordinal renders n as an English ordinal: 1st, 2nd, 11th, 23rd.
func Ordinal(n int) string {
	if m := n % 100; m >= 11 && m <= 13 {
		return strconv.Itoa(n) + "th"
	}
	return strconv.Itoa(n) + ordinalSuffixes[min(n%10, 4)]
}

// StreetName returns the display name of street idx.
func StreetName(idx int) string {
	return Ordinal(idx+1) + " Avenue"
}

// SpeedLimitText formats a speed limit for the dashboard.
func SpeedLimitText(limit float64) string {
	return fmt.Sprintf("Speed Limit: %.0f kmph", limit)
}

// Address formats the street address of a delivery target. Targets on the
// intersection grid are numbered on their avenue; the rest sit on the ring
// road.
func Address(city *citymap.GridMap, target citymap.Cell, label string) string {
	number := target.Row + target.Col + target.Row*target.Col + 1
	if idx, ok := city.StreetIndexOf(target.Row, target.Col); ok {
		return fmt.Sprintf("%d%s %s", number, label, StreetName(idx))
	}
	return fmt.Sprintf("%d%s", number, offGridAddress)
}

func newWarning(message string, seconds float64, severity Severity) *Warning {
	return &Warning{Message: message, Remaining: seconds, Severity: severity}
}

// decayWarning counts the warning down and clears it once expired.
func decayWarning(w *Warning, dt float64) *Warning {
	if w == nil {
		return nil
	}
	if dt > 0 {
		w.Remaining -= dt
	}
	if w.Remaining <= 0 {
		return nil
	}
	return w
}

func (e *GameEngine) buildDashboard() *Dashboard {
	s := &e.state
	d := &Dashboard{
		Flow:           s.Flow,
		Clock:          s.Clock,
		Position:       s.Vehicle.Position,
		StreetIndex:    -1,
		StreetName:     offGridStreet,
		SpeedLimitText: offGridSpeedText,
		Successful:     s.Delivery.Successful,
		Failed:         s.Delivery.Failed,
		Total:          s.Delivery.Total,
		Money:          s.Economy.Money,
		Fuel:           s.Economy.Fuel,
		MovementLocked: s.Economy.MovementLocked(),
		LossReason:     s.LossReason,
		Vehicle:        e.vehicle(),
		Autopilot: AutopilotView{
			Used:   s.Autopilot.Used,
			Active: s.Autopilot.Active,
			Cost:   e.config.Economy.AutopilotCost,
		},
	}

	pos := s.Vehicle.Position
	if idx, ok := e.city.StreetIndexOf(pos.Row, pos.Col); ok {
		limit, _ := e.city.SpeedLimitAt(pos.Row, pos.Col)
		d.OnRoadGrid = true
		d.StreetIndex = idx
		d.StreetName = StreetName(idx)
		d.SpeedLimit = limit
		d.SpeedLimitText = SpeedLimitText(limit)
	}

	if m := s.Delivery.Mission; m != nil {
		d.Mission = &MissionView{
			Target:        m.Target,
			Label:         m.Label,
			Address:       Address(e.city, m.Target, m.Label),
			Reward:        m.Reward,
			TimeRemaining: m.TimeRemaining,
			TimeBudget:    m.TimeBudget,
		}
	}

	if s.Warning != nil {
		w := *s.Warning
		d.Warning = &w
	}

	d.Autopilot.Available = s.Flow == FlowGame && !s.Autopilot.Used &&
		s.Delivery.Mission != nil && s.Economy.Money >= e.config.Economy.AutopilotCost
	if e.guidance != nil {
		g := *e.guidance
		d.Autopilot.Guidance = &g
	}

	if s.LossReason != LossNone {
		d.LossMessage = e.lossMessage(s.LossReason)
	}
	if s.Flow.Terminal() && s.LastRun != nil {
		sum := *s.LastRun
		d.Summary = &sum
	}
	return d
}
