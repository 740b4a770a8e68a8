package engine

import (
	"time"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/router"
)

const (
	// Validation constants
	MinGridSize = 2
	MaxGridSize = 100
)

// Action is a discrete input from the collaborator.
type Action string

const (
	ActionBegin             Action = "begin"
	ActionLaunch            Action = "launch"
	ActionRestart           Action = "restart"
	ActionSelectVehicle     Action = "select_vehicle"
	ActionCompleteDelivery  Action = "complete_delivery"
	ActionRefuel            Action = "refuel"
	ActionActivateAutopilot Action = "activate_autopilot"
	ActionCancelAutopilot   Action = "cancel_autopilot"

	// raised by terminal checks only
	actionVictory Action = "victory"
	actionDefeat  Action = "defeat"
)

// LossReason identifies why a run ended in defeat.
type LossReason string

const (
	LossNone            LossReason = ""
	LossOutOfFuel       LossReason = "out_of_fuel"
	LossTooManyFailures LossReason = "too_many_failures"
	LossBankrupt        LossReason = "bankrupt"
)

// EventType classifies something that happened during a tick.
type EventType string

const (
	EventSpeedingFine     EventType = "speeding_fine"
	EventCollisionFine    EventType = "collision_fine"
	EventRefuel           EventType = "refuel"
	EventDeliverySuccess  EventType = "delivery_success"
	EventWrongLocation    EventType = "wrong_location"
	EventDeliveryFailed   EventType = "delivery_failed"
	EventNewDelivery      EventType = "new_delivery"
	EventAutopilotOn      EventType = "autopilot_on"
	EventAutopilotOff     EventType = "autopilot_off"
	EventAutopilotArrived EventType = "autopilot_arrived"
	EventAutopilotDenied  EventType = "autopilot_denied"
	EventVehicleSelected  EventType = "vehicle_selected"
	EventFlow             EventType = "flow"
	EventVictory          EventType = "victory"
	EventDefeat           EventType = "defeat"
)

// Event is reported in a TickResult.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Amount  float64   `json:"amount,omitempty"`
}

// Severity controls how a warning is drawn: alerts flash, info does not.
type Severity string

const (
	SeverityAlert Severity = "alert"
	SeverityInfo  Severity = "info"
)

// Warning is the transient message box.
type Warning struct {
	Message   string   `json:"message"`
	Remaining float64  `json:"remaining"`
	Severity  Severity `json:"severity"`
}

// VehicleState is the last kinematics sample plus the garage choice.
type VehicleState struct {
	Position   citymap.Cell `json:"position"`
	Speed      float64      `json:"speed"`
	Heading    float64      `json:"heading"`
	ModelIndex int          `json:"model_index"`
}

// TickInput is one sample from the collaborator. Position is the vehicle's
// building-grid cell, already rounded from world space.
type TickInput struct {
	DT                  float64      `json:"dt"`
	Position            citymap.Cell `json:"position"`
	Speed               float64      `json:"speed"`
	Heading             float64      `json:"heading"`
	PedestrianCollision bool         `json:"pedestrian_collision"`
	Actions             []Action     `json:"actions,omitempty"`
}

// ActionArgs carries parameters for Dispatch.
type ActionArgs struct {
	VehicleIndex int `json:"vehicle_index,omitempty"`
}

// TickResult is what a tick or dispatched action produced.
type TickResult struct {
	Dashboard *Dashboard `json:"dashboard"`
	Events    []Event    `json:"events"`
	Effects   []Effect   `json:"effects,omitempty"`
}

// MissionView is the display form of the active mission.
type MissionView struct {
	Target        citymap.Cell `json:"target"`
	Label         string       `json:"label"`
	Address       string       `json:"address"`
	Reward        float64      `json:"reward"`
	TimeRemaining float64      `json:"time_remaining"`
	TimeBudget    float64      `json:"time_budget"`
}

// Guidance tells a driver where the autopilot is heading next.
type Guidance struct {
	Waypoint    citymap.Cell   `json:"waypoint"`
	Heading     router.Heading `json:"heading"`
	Yaw         float64        `json:"yaw"`
	Turn        float64        `json:"turn"`
	TargetSpeed float64        `json:"target_speed"`
	Remaining   int            `json:"remaining"`
}

// AutopilotView is the display form of the autopilot.
type AutopilotView struct {
	Available bool      `json:"available"`
	Used      bool      `json:"used"`
	Active    bool      `json:"active"`
	Cost      float64   `json:"cost"`
	Guidance  *Guidance `json:"guidance,omitempty"`
}

// Dashboard is everything a presentation layer shows for one frame.
type Dashboard struct {
	Flow           FlowState     `json:"flow"`
	Clock          float64       `json:"clock"`
	Position       citymap.Cell  `json:"position"`
	OnRoadGrid     bool          `json:"on_road_grid"`
	StreetIndex    int           `json:"street_index"`
	StreetName     string        `json:"street_name"`
	SpeedLimit     float64       `json:"speed_limit"`
	SpeedLimitText string        `json:"speed_limit_text"`
	Mission        *MissionView  `json:"mission,omitempty"`
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	Total          int           `json:"total"`
	Money          float64       `json:"money"`
	Fuel           float64       `json:"fuel"`
	MovementLocked bool          `json:"movement_locked"`
	Warning        *Warning      `json:"warning,omitempty"`
	Autopilot      AutopilotView `json:"autopilot"`
	Vehicle        VehicleModel  `json:"vehicle"`
	LossReason     LossReason    `json:"loss_reason,omitempty"`
	LossMessage    string        `json:"loss_message,omitempty"`
	Summary        *RunSummary   `json:"summary,omitempty"`
}

// RunSummary is the end-screen record of one run.
type RunSummary struct {
	ID            string     `json:"id"`
	Outcome       FlowState  `json:"outcome"`
	LossReason    LossReason `json:"loss_reason,omitempty"`
	Message       string     `json:"message"`
	Vehicle       string     `json:"vehicle"`
	Completed     int        `json:"completed"`
	Total         int        `json:"total"`
	Failed        int        `json:"failed"`
	Money         float64    `json:"money"`
	AverageRating float64    `json:"average_rating"`
	Duration      float64    `json:"duration"`
	FinishedAt    time.Time  `json:"finished_at"`
}

// GameState is the complete serializable state of one engine, map included.
type GameState struct {
	ConfigName string           `json:"config_name"`
	Flow       FlowState        `json:"flow"`
	Clock      float64          `json:"clock"`
	Vehicle    VehicleState     `json:"vehicle"`
	Economy    Economy          `json:"economy"`
	Delivery   DeliverySystem   `json:"delivery"`
	Autopilot  Autopilot        `json:"autopilot"`
	Warning    *Warning         `json:"warning,omitempty"`
	LossReason LossReason       `json:"loss_reason,omitempty"`
	LastRun    *RunSummary      `json:"last_run,omitempty"`
	Runs       []RunSummary     `json:"runs"`
	Map        citymap.Snapshot `json:"map"`
	RNG        []byte           `json:"rng"`
}
