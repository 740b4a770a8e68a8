package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/router"
)

var (
	ErrActionNotAllowed = errors.New("action not allowed in current state")
	ErrUnknownAction    = errors.New("unknown action")
	ErrVehicleIndex     = errors.New("vehicle index out of range")
	ErrInvalidState     = errors.New("invalid game state")
)

// Engine provides the main interface for game operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Flow() FlowState

	// Per-frame input and discrete actions
	Tick(in TickInput) (*TickResult, error)
	Dispatch(action Action, args ActionArgs) (*TickResult, error)
	Dashboard() *Dashboard

	// City
	Map() *citymap.GridMap
	Route(from, to citymap.Cell) router.Route

	// Configuration and history
	GetConfig() *GameConfig
	Runs() []RunSummary
}

// GameEngine implements the Engine interface. It is not safe for
// concurrent use; callers serialize access per session.
type GameEngine struct {
	config *GameConfig
	city   *citymap.GridMap
	router *router.Router
	pcg    *rand.PCG
	rng    *rand.Rand
	state  GameState

	guidance *Guidance
	now      func() time.Time
}

// NewEngine validates config, generates its city and returns an engine on
// the start screen.
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	pcg := rand.NewPCG(seed, seed)
	rng := rand.New(pcg)

	city, err := citymap.Generate(config.Rows, config.Cols, config.DeliveryLocations, config.RoadTypes, rng)
	if err != nil {
		return nil, fmt.Errorf("generate city: %w", err)
	}

	return newEngine(config, city, pcg), nil
}

// NewEngineWithMap returns an engine playing on an existing city. The
// config's grid dimensions are ignored in favour of the city's.
func NewEngineWithMap(config *GameConfig, city *citymap.GridMap, seed uint64) (*GameEngine, error) {
	if city == nil {
		return nil, fmt.Errorf("city cannot be nil")
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return newEngine(config, city, rand.NewPCG(seed, seed)), nil
}

func newEngine(config *GameConfig, city *citymap.GridMap, pcg *rand.PCG) *GameEngine {
	e := &GameEngine{
		config: config.withDefaults(),
		city:   city,
		router: router.New(city),
		pcg:    pcg,
		rng:    rand.New(pcg),
		now:    time.Now,
	}
	e.state = GameState{
		ConfigName: e.config.Name,
		Flow:       FlowStart,
		Runs:       []RunSummary{},
	}
	e.attach()
	e.resetRun()
	return e
}

// attach wires the rule sets and collaborators into the state's
// subsystems after construction or restore.
func (e *GameEngine) attach() {
	e.state.Economy.rules = e.config.Economy
	e.state.Delivery.attach(e.city, e.config.Delivery, e.rng)
}

func (e *GameEngine) resetRun() {
	s := &e.state
	s.Clock = 0
	s.Vehicle.Position = citymap.Cell{}
	s.Vehicle.Speed = 0
	s.Vehicle.Heading = 0
	s.Economy.reset()
	s.Delivery.reset()
	s.Autopilot.reset()
	s.Warning = nil
	s.LossReason = LossNone
	e.guidance = nil
}

// GetConfig returns the configuration the engine plays with.
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Map returns the engine's city.
func (e *GameEngine) Map() *citymap.GridMap {
	return e.city
}

// Flow returns the current flow state.
func (e *GameEngine) Flow() FlowState {
	return e.state.Flow
}

// Route returns the fastest route between two intersections.
func (e *GameEngine) Route(from, to citymap.Cell) router.Route {
	return e.router.ShortestTimePath(from, to)
}

// Runs returns the finished runs, oldest first.
func (e *GameEngine) Runs() []RunSummary {
	out := make([]RunSummary, len(e.state.Runs))
	copy(out, e.state.Runs)
	return out
}

// Dashboard returns the current frame's display values.
func (e *GameEngine) Dashboard() *Dashboard {
	return e.buildDashboard()
}

// GetState returns a deep copy of the game state, including the city and
// the random generator position.
func (e *GameEngine) GetState() *GameState {
	s := e.state
	s.Delivery.Ratings = append([]float64{}, e.state.Delivery.Ratings...)
	if m := e.state.Delivery.Mission; m != nil {
		mc := *m
		s.Delivery.Mission = &mc
	}
	s.Autopilot.Path = append([]citymap.Cell(nil), e.state.Autopilot.Path...)
	if w := e.state.Warning; w != nil {
		wc := *w
		s.Warning = &wc
	}
	if r := e.state.LastRun; r != nil {
		rc := *r
		s.LastRun = &rc
	}
	s.Runs = e.Runs()
	s.Map = e.city.Snapshot()
	if b, err := e.pcg.MarshalBinary(); err == nil {
		s.RNG = b
	}
	return &s
}

// SetState replaces the game state (used for persistence loading). A state
// carrying a map snapshot replaces the city as well.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	switch state.Flow {
	case FlowStart, FlowGarage, FlowGame, FlowWin, FlowLoss:
	default:
		return fmt.Errorf("%w: unknown flow state %q", ErrInvalidState, state.Flow)
	}
	if idx := state.Vehicle.ModelIndex; idx < 0 || idx >= len(e.config.Vehicles) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidState, ErrVehicleIndex, idx)
	}

	city := e.city
	if len(state.Map.Buildings) > 0 {
		restored, err := citymap.FromSnapshot(state.Map)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
		city = restored
	}
	if len(state.RNG) > 0 {
		if err := e.pcg.UnmarshalBinary(state.RNG); err != nil {
			return fmt.Errorf("%w: rng: %w", ErrInvalidState, err)
		}
	}

	e.city = city
	e.router = router.New(city)
	e.state = *state
	e.state.Map = citymap.Snapshot{}
	e.state.RNG = nil
	if e.state.Runs == nil {
		e.state.Runs = []RunSummary{}
	}
	if e.state.Delivery.Ratings == nil {
		e.state.Delivery.Ratings = []float64{}
	}
	e.guidance = nil
	e.attach()
	return nil
}

func (e *GameEngine) vehicle() VehicleModel {
	idx := e.state.Vehicle.ModelIndex
	if idx < 0 || idx >= len(e.config.Vehicles) {
		return VehicleModel{}
	}
	return e.config.Vehicles[idx]
}

func (e *GameEngine) lossMessage(reason LossReason) string {
	switch reason {
	case LossOutOfFuel:
		return e.config.Messages.OutOfFuel
	case LossTooManyFailures:
		return e.config.Messages.TooManyFailures
	case LossBankrupt:
		return e.config.Messages.Bankrupt
	}
	return ""
}

func gameplayAction(a Action) bool {
	switch a {
	case ActionCompleteDelivery, ActionRefuel, ActionActivateAutopilot, ActionCancelAutopilot:
		return true
	}
	return false
}

// Tick advances the game by one frame. Outside gameplay it only reports
// the dashboard.
func (e *GameEngine) Tick(in TickInput) (*TickResult, error) {
	for _, a := range in.Actions {
		if !gameplayAction(a) {
			if flowAction(a) || a == ActionSelectVehicle {
				return nil, fmt.Errorf("%w: %s must be dispatched", ErrActionNotAllowed, a)
			}
			return nil, fmt.Errorf("%w: %s", ErrUnknownAction, a)
		}
	}

	t := &tick{}
	if e.state.Flow == FlowGame {
		e.step(in, t)
	}
	return &TickResult{Dashboard: e.buildDashboard(), Events: t.events, Effects: t.effects}, nil
}

// Dispatch applies a discrete action outside the tick stream.
func (e *GameEngine) Dispatch(action Action, args ActionArgs) (*TickResult, error) {
	t := &tick{}

	switch {
	case flowAction(action):
		next, effects, err := Transition(e.state.Flow, action)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrActionNotAllowed, err)
		}
		e.enter(next, effects, t)

	case action == ActionSelectVehicle:
		if e.state.Flow != FlowGarage {
			return nil, fmt.Errorf("%w: %s outside the garage", ErrActionNotAllowed, action)
		}
		if args.VehicleIndex < 0 || args.VehicleIndex >= len(e.config.Vehicles) {
			return nil, fmt.Errorf("%w: %d", ErrVehicleIndex, args.VehicleIndex)
		}
		e.state.Vehicle.ModelIndex = args.VehicleIndex
		t.event(EventVehicleSelected, e.config.Vehicles[args.VehicleIndex].Name, 0)

	case gameplayAction(action):
		if e.state.Flow != FlowGame {
			return nil, fmt.Errorf("%w: %s outside gameplay", ErrActionNotAllowed, action)
		}
		v := e.state.Vehicle
		e.step(TickInput{Position: v.Position, Speed: v.Speed, Heading: v.Heading, Actions: []Action{action}}, t)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	return &TickResult{Dashboard: e.buildDashboard(), Events: t.events, Effects: t.effects}, nil
}

// tick collects what one step produced.
type tick struct {
	events  []Event
	effects []Effect
}

func (t *tick) event(typ EventType, msg string, amount float64) {
	t.events = append(t.events, Event{Type: typ, Message: msg, Amount: amount})
}

func (e *GameEngine) warn(msg string, seconds float64, sev Severity) {
	e.state.Warning = newWarning(msg, seconds, sev)
}

// step runs one gameplay frame.
func (e *GameEngine) step(in TickInput, t *tick) {
	s := &e.state
	dt := in.DT
	msgs := e.config.Messages
	durations := e.config.Warnings

	s.Warning = decayWarning(s.Warning, dt)

	s.Vehicle.Position = in.Position
	s.Vehicle.Speed = in.Speed
	s.Vehicle.Heading = in.Heading
	pos := in.Position

	if dt > 0 {
		s.Clock += dt
	}
	s.Economy.Advance(dt)

	if s.Delivery.Tick(dt, pos) {
		t.event(EventDeliveryFailed, msgs.DeliveryFailed, 0)
		e.warn(msgs.DeliveryFailed, durations.DeliveryFailed, SeverityAlert)
		e.stopAutopilot(t)
		e.announceMission(t)
	}

	for _, a := range in.Actions {
		if s.Delivery.Victory {
			break
		}
		e.apply(a, pos, t)
	}

	if in.PedestrianCollision && s.Economy.ApplyCollisionFine() {
		fine := e.config.Economy.CollisionFine
		msg := fmt.Sprintf(msgs.PedestrianHit, fine)
		t.event(EventCollisionFine, msg, fine)
		e.warn(msg, durations.PedestrianHit, SeverityAlert)
	}

	if limit, ok := e.city.SpeedLimitAt(pos.Row, pos.Col); ok {
		if s.Economy.ApplySpeedCheck(in.Speed, limit, dt) {
			fine := e.config.Economy.SpeedingFine
			msg := fmt.Sprintf(msgs.Overspeeding, fine)
			t.event(EventSpeedingFine, msg, fine)
			e.warn(msg, durations.Overspeeding, SeverityAlert)
		}
	}

	s.Economy.ConsumeFuel(in.Speed, dt, e.vehicle().FuelConsumption)

	guidance, arrived := s.Autopilot.Guide(pos, in.Heading, e.city)
	e.guidance = guidance
	if arrived {
		t.event(EventAutopilotArrived, "", 0)
	}

	switch {
	case s.Delivery.Victory:
		t.event(EventVictory, msgs.Victory, 0)
		e.finish(actionVictory, t)
	default:
		unsuccessful := s.Delivery.Total - s.Delivery.Successful
		if reason := s.Economy.Loss(unsuccessful, e.config.Delivery.MaxFailures); reason != LossNone {
			s.LossReason = reason
			t.event(EventDefeat, e.lossMessage(reason), 0)
			e.finish(actionDefeat, t)
		}
	}
}

func (e *GameEngine) apply(a Action, pos citymap.Cell, t *tick) {
	s := &e.state
	msgs := e.config.Messages
	durations := e.config.Warnings

	switch a {
	case ActionCompleteDelivery:
		if s.Delivery.Mission == nil {
			return
		}
		done, ok := s.Delivery.AttemptComplete(pos, &s.Economy)
		if !ok {
			t.event(EventWrongLocation, msgs.WrongLocation, 0)
			e.warn(msgs.WrongLocation, durations.WrongLocation, SeverityAlert)
			return
		}
		msg := fmt.Sprintf(msgs.DeliverySuccess, done.Reward, done.Rating)
		t.event(EventDeliverySuccess, msg, done.Reward)
		e.warn(msg, durations.DeliverySuccess, SeverityInfo)
		e.stopAutopilot(t)
		if !done.Victory {
			e.announceMission(t)
		}

	case ActionRefuel:
		spent, ok := s.Economy.Refuel(e.city.NearFuelStop(pos))
		if !ok {
			return
		}
		msg := fmt.Sprintf(msgs.Refueled, spent)
		t.event(EventRefuel, msg, spent)
		e.warn(msg, durations.Refueled, SeverityInfo)

	case ActionActivateAutopilot:
		if s.Delivery.Mission == nil {
			t.event(EventAutopilotDenied, ErrNoMission.Error(), 0)
			return
		}
		cost := e.config.Economy.AutopilotCost
		if _, err := s.Autopilot.Activate(pos, s.Delivery.Mission.Target, e.city, e.router, &s.Economy, cost); err != nil {
			t.event(EventAutopilotDenied, err.Error(), 0)
			return
		}
		msg := fmt.Sprintf(msgs.AutopilotOn, cost)
		t.event(EventAutopilotOn, msg, cost)
		e.warn(msg, durations.Autopilot, SeverityInfo)

	case ActionCancelAutopilot:
		e.stopAutopilot(t)
	}
}

func (e *GameEngine) stopAutopilot(t *tick) {
	if !e.state.Autopilot.Cancel() {
		return
	}
	e.guidance = nil
	t.event(EventAutopilotOff, e.config.Messages.AutopilotOff, 0)
}

func (e *GameEngine) announceMission(t *tick) {
	m := e.state.Delivery.Mission
	if m == nil {
		return
	}
	t.event(EventNewDelivery, Address(e.city, m.Target, m.Label), m.Reward)
}

func (e *GameEngine) finish(action Action, t *tick) {
	next, effects, err := Transition(e.state.Flow, action)
	if err != nil {
		return
	}
	e.enter(next, effects, t)
}

// enter moves to next and applies effects in order.
func (e *GameEngine) enter(next FlowState, effects []Effect, t *tick) {
	s := &e.state
	s.Flow = next
	t.event(EventFlow, string(next), 0)
	t.effects = append(t.effects, effects...)

	for _, eff := range effects {
		switch eff {
		case EffectResetSession:
			e.resetRun()
			s.LastRun = nil
		case EffectSetupGarage:
			e.warn(e.config.Messages.Welcome, e.config.Warnings.DeliverySuccess, SeverityInfo)
		case EffectStartGameplay:
			e.resetRun()
		case EffectStartDelivery:
			s.Delivery.StartNewDelivery(s.Vehicle.Position)
			e.announceMission(t)
		case EffectTeardownGameplay:
			s.Autopilot.Cancel()
			e.guidance = nil
		case EffectRecordRun:
			e.recordRun()
		case EffectShowStartScreen, EffectShowEndScreen:
			// presentation only
		}
	}
}

func (e *GameEngine) recordRun() {
	s := &e.state
	msg := e.config.Messages.Victory
	if s.Flow == FlowLoss {
		msg = e.lossMessage(s.LossReason)
	}
	run := RunSummary{
		ID:            uuid.NewString(),
		Outcome:       s.Flow,
		LossReason:    s.LossReason,
		Message:       msg,
		Vehicle:       e.vehicle().Name,
		Completed:     s.Delivery.Successful,
		Total:         s.Delivery.Total,
		Failed:        s.Delivery.Failed,
		Money:         s.Economy.Money,
		AverageRating: s.Delivery.AverageRating(),
		Duration:      s.Clock,
		FinishedAt:    e.now().UTC(),
	}
	s.Runs = append(s.Runs, run)
	s.LastRun = &run
}
