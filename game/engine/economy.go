package engine

// Economy tracks money and fuel and applies fines. None of its operations
// fail; out-of-range values are clamped.
type Economy struct {
	Money float64 `json:"money"`
	Fuel  float64 `json:"fuel"`
	// SpeedingTimer accumulates seconds spent over the limit.
	SpeedingTimer float64 `json:"speeding_timer"`
	// CollisionCooldown counts down to the next allowed collision fine.
	CollisionCooldown float64 `json:"collision_cooldown"`

	rules EconomyRules
}

// NewEconomy returns a fresh economy with the starting balances.
func NewEconomy(rules EconomyRules) *Economy {
	e := &Economy{rules: rules}
	e.reset()
	return e
}

func (e *Economy) reset() {
	e.Money = e.rules.StartingMoney
	e.Fuel = e.rules.StartingFuel
	e.SpeedingTimer = 0
	e.CollisionCooldown = 0
	e.clampFuel()
}

// Advance moves the economy's internal timers forward by dt seconds.
func (e *Economy) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	e.CollisionCooldown -= dt
	if e.CollisionCooldown < 0 {
		e.CollisionCooldown = 0
	}
}

// ApplySpeedCheck accumulates time over the limit and issues a fine once the
// grace period is used up. It reports whether a fine was issued.
func (e *Economy) ApplySpeedCheck(speed, limit, dt float64) bool {
	if speed <= limit {
		e.SpeedingTimer = 0
		return false
	}
	if dt > 0 {
		e.SpeedingTimer += dt
	}
	if e.SpeedingTimer < e.rules.SpeedingGrace {
		return false
	}
	e.Money -= e.rules.SpeedingFine
	e.SpeedingTimer = 0
	return true
}

// ApplyCollisionFine charges the pedestrian fine unless one was charged
// within the cooldown window. It reports whether a fine was issued.
func (e *Economy) ApplyCollisionFine() bool {
	if e.CollisionCooldown > 0 {
		return false
	}
	e.Money -= e.rules.CollisionFine
	e.CollisionCooldown = e.rules.CollisionCooldown
	return true
}

// RefuelCost returns the price of filling the tank from the current level.
func (e *Economy) RefuelCost() float64 {
	return e.rules.FullTankCost * (e.rules.MaxFuel - e.Fuel) / e.rules.MaxFuel
}

// Refuel fills the tank when at a fuel stop. Short of money, it spends
// everything left and adds the fuel that buys. It returns the amount spent
// and whether any refuelling took place; an empty wallet buys nothing.
func (e *Economy) Refuel(atFuelStop bool) (float64, bool) {
	if !atFuelStop {
		return 0, false
	}

	cost := e.RefuelCost()
	if e.Money >= cost {
		e.Money -= cost
		e.Fuel = e.rules.MaxFuel
		return cost, true
	}

	spent := e.Money
	if spent <= 0 {
		return 0, false
	}
	e.Fuel += spent / e.rules.FullTankCost * e.rules.MaxFuel
	e.Money -= spent
	e.clampFuel()
	return spent, true
}

// ConsumeFuel burns speed*rate plus the idle term for one tick. Ticks with
// no elapsed time burn nothing.
func (e *Economy) ConsumeFuel(speed, dt, rate float64) {
	if dt <= 0 {
		return
	}
	if speed < 0 {
		speed = -speed
	}
	e.Fuel -= speed*rate + e.rules.IdleFuelFactor*rate
	e.clampFuel()
}

// Charge deducts amount if the balance covers it.
func (e *Economy) Charge(amount float64) bool {
	if e.Money < amount {
		return false
	}
	e.Money -= amount
	return true
}

// Credit adds amount to the balance.
func (e *Economy) Credit(amount float64) {
	e.Money += amount
}

// MovementLocked reports whether the tank is empty.
func (e *Economy) MovementLocked() bool {
	return e.Fuel <= 0
}

// Loss evaluates the defeat conditions in priority order. unsuccessful is
// total deliveries minus successful ones, so the mission in progress counts.
func (e *Economy) Loss(unsuccessful, maxFailures int) LossReason {
	switch {
	case e.Fuel <= 0:
		return LossOutOfFuel
	case unsuccessful >= maxFailures:
		return LossTooManyFailures
	case e.Money < 0:
		return LossBankrupt
	}
	return LossNone
}

func (e *Economy) clampFuel() {
	if e.Fuel < 0 {
		e.Fuel = 0
	}
	if e.Fuel > e.rules.MaxFuel {
		e.Fuel = e.rules.MaxFuel
	}
}
