package engine

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    FlowState
		action  Action
		want    FlowState
		effects []Effect
	}{
		{"begin", FlowStart, ActionBegin, FlowGarage, []Effect{EffectSetupGarage}},
		{"launch", FlowGarage, ActionLaunch, FlowGame, []Effect{EffectStartGameplay, EffectStartDelivery}},
		{"victory", FlowGame, actionVictory, FlowWin, []Effect{EffectTeardownGameplay, EffectRecordRun, EffectShowEndScreen}},
		{"defeat", FlowGame, actionDefeat, FlowLoss, []Effect{EffectTeardownGameplay, EffectRecordRun, EffectShowEndScreen}},
		{"restart after win", FlowWin, ActionRestart, FlowStart, []Effect{EffectResetSession, EffectShowStartScreen}},
		{"restart after loss", FlowLoss, ActionRestart, FlowStart, []Effect{EffectResetSession, EffectShowStartScreen}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effects, err := Transition(tt.from, tt.action)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if len(effects) != len(tt.effects) {
				t.Fatalf("Expected effects %v, got %v", tt.effects, effects)
			}
			for i := range effects {
				if effects[i] != tt.effects[i] {
					t.Errorf("Effect %d: expected %q, got %q", i, tt.effects[i], effects[i])
				}
			}
		})
	}
}

func TestTransition_Invalid(t *testing.T) {
	tests := []struct {
		from   FlowState
		action Action
	}{
		{FlowStart, ActionLaunch},
		{FlowStart, ActionRestart},
		{FlowGarage, ActionBegin},
		{FlowGame, ActionRestart},
		{FlowGame, ActionLaunch},
		{FlowStart, actionVictory},
		{FlowGarage, actionDefeat},
		{FlowWin, actionDefeat},
		{FlowLoss, ActionBegin},
	}

	for _, tt := range tests {
		got, effects, err := Transition(tt.from, tt.action)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s on %s: expected ErrInvalidTransition, got %v", tt.action, tt.from, err)
		}
		if got != tt.from || effects != nil {
			t.Errorf("%s on %s: expected state unchanged and no effects", tt.action, tt.from)
		}
	}
}

func TestTransition_EffectsAreCopies(t *testing.T) {
	_, effects, _ := Transition(FlowGame, actionVictory)
	effects[0] = EffectResetSession

	_, again, _ := Transition(FlowGame, actionVictory)
	if again[0] != EffectTeardownGameplay {
		t.Error("Transition must not expose its table")
	}
}

func TestFlowState_Terminal(t *testing.T) {
	for _, s := range []FlowState{FlowStart, FlowGarage, FlowGame} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
	for _, s := range []FlowState{FlowWin, FlowLoss} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
}
