package gatefsm

import (
	"github.com/gatelab/gate-controller/internal/gatecmd"
	"github.com/gatelab/gate-controller/internal/gateconsts"
)

type Transition struct {
	From gateconsts.State
	To   gateconsts.State
}

var transitionTable = map[Transition]bool{
	{From: gateconsts.Closed, To: gateconsts.Opening}:    true,
	{From: gateconsts.Opening, To: gateconsts.Open}:      true,
	{From: gateconsts.Opening, To: gateconsts.Emergency}: true,
	{From: gateconsts.Open, To: gateconsts.Closing}:      true,
	{From: gateconsts.Closing, To: gateconsts.Closed}:    true,
	{From: gateconsts.Closing, To: gateconsts.Emergency}: true,
	{From: gateconsts.Emergency, To: gateconsts.Opening}: true,
}

// Transitions returns every state change the controller may perform.
func Transitions() []Transition {
	transitions := make([]Transition, 0, len(transitionTable))
	for _, from := range gateconsts.States() {
		for _, to := range gateconsts.States() {
			if transitionTable[Transition{From: from, To: to}] {
				transitions = append(transitions, Transition{From: from, To: to})
			}
		}
	}
	return transitions
}

func CanTransition(from, to gateconsts.State) bool {
	return transitionTable[Transition{From: from, To: to}]
}

// OnCommand handles a command read while idle. The toggle command opens a
// closed gate and closes an open one; everything else leaves state alone.
func OnCommand(state gateconsts.State, command gatecmd.GateCommand) gateconsts.State {
	if command != gatecmd.Toggle {
		return state
	}
	switch state {
	case gateconsts.Closed:
		return gateconsts.Opening
	case gateconsts.Open:
		return gateconsts.Closing
	default:
		return state
	}
}

func OnOpeningComplete(state gateconsts.State) gateconsts.State {
	if state == gateconsts.Opening {
		return gateconsts.Open
	}
	return state
}

func OnCloseProgress(state gateconsts.State, completed bool) gateconsts.State {
	if state == gateconsts.Closing && completed {
		return gateconsts.Closed
	}
	return state
}

// OnEmergencyRaised returns the emergency state and the state it interrupted.
// A repeated raise while already in Emergency keeps the first captured state.
func OnEmergencyRaised(state, preEmergency gateconsts.State) (gateconsts.State, gateconsts.State) {
	if state == gateconsts.Emergency {
		return gateconsts.Emergency, preEmergency
	}
	return gateconsts.Emergency, state
}

// OnEmergencyResolved always reopens, whatever was interrupted.
func OnEmergencyResolved(state gateconsts.State) gateconsts.State {
	if state == gateconsts.Emergency {
		return gateconsts.Opening
	}
	return state
}
