package engine

import (
	"errors"
	"fmt"
)

// FlowState is the top-level screen the game is on.
type FlowState string

const (
	FlowStart  FlowState = "start"
	FlowGarage FlowState = "garage"
	FlowGame   FlowState = "game"
	FlowWin    FlowState = "win"
	FlowLoss   FlowState = "loss"
)

// Terminal reports whether the run is over.
func (s FlowState) Terminal() bool {
	return s == FlowWin || s == FlowLoss
}

// Effect is a side effect the engine performs after a transition.
type Effect string

const (
	EffectResetSession     Effect = "reset_session"
	EffectShowStartScreen  Effect = "show_start_screen"
	EffectSetupGarage      Effect = "setup_garage"
	EffectStartGameplay    Effect = "start_gameplay"
	EffectStartDelivery    Effect = "start_delivery"
	EffectTeardownGameplay Effect = "teardown_gameplay"
	EffectRecordRun        Effect = "record_run"
	EffectShowEndScreen    Effect = "show_end_screen"
)

var ErrInvalidTransition = errors.New("invalid flow transition")

type transitionKey struct {
	from   FlowState
	action Action
}

type transition struct {
	to      FlowState
	effects []Effect
}

var endOfRun = []Effect{EffectTeardownGameplay, EffectRecordRun, EffectShowEndScreen}

var transitions = map[transitionKey]transition{
	{FlowStart, ActionBegin}:   {FlowGarage, []Effect{EffectSetupGarage}},
	{FlowGarage, ActionLaunch}: {FlowGame, []Effect{EffectStartGameplay, EffectStartDelivery}},
	{FlowGame, actionVictory}:  {FlowWin, endOfRun},
	{FlowGame, actionDefeat}:   {FlowLoss, endOfRun},
	{FlowWin, ActionRestart}:   {FlowStart, []Effect{EffectResetSession, EffectShowStartScreen}},
	{FlowLoss, ActionRestart}:  {FlowStart, []Effect{EffectResetSession, EffectShowStartScreen}},
}

// Transition returns the state reached from `from` on action and the effects
// to apply, in order.
func Transition(from FlowState, action Action) (FlowState, []Effect, error) {
	t, ok := transitions[transitionKey{from, action}]
	if !ok {
		return from, nil, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, action, from)
	}
	effects := make([]Effect, len(t.effects))
	copy(effects, t.effects)
	return t.to, effects, nil
}

// flowAction reports whether a drives the flow state machine directly.
func flowAction(a Action) bool {
	switch a {
	case ActionBegin, ActionLaunch, ActionRestart:
		return true
	}
	return false
}
