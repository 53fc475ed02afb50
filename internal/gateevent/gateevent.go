package gateevent

import (
	"github.com/gatelab/gate-controller/internal/gateconsts"
)

type GateEvent struct {
	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

// Published whenever the controller changes state.
type StateChangeEvent struct {
	From         gateconsts.State
	To           gateconsts.State
	PreEmergency gateconsts.State
}

func (sce StateChangeEvent) Wrap() GateEvent {
	return GateEvent{Value: sce}
}

// Published once the entry action of a state has run. Idle states are
// ready for commands from this point on.
type StateEnteredEvent struct {
	State gateconsts.State
}

type CommandEvent struct {
	Symbol rune
	State  gateconsts.State
}

type EmergencyRaisedEvent struct {
	Interrupted gateconsts.State
	Elapsed     int //units waited before the flag was seen
}

type EmergencyClearedEvent struct {
	Episode int
}

type CloseProgressEvent struct {
	Step      int
	Completed bool
}

func (e *GateEvent) EventType() string {
	switch e.Value.(type) {
	case StateChangeEvent:
		return "StateChangeEvent"
	case StateEnteredEvent:
		return "StateEnteredEvent"
	case CommandEvent:
		return "CommandEvent"
	case EmergencyRaisedEvent:
		return "EmergencyRaisedEvent"
	case EmergencyClearedEvent:
		return "EmergencyClearedEvent"
	case CloseProgressEvent:
		return "CloseProgressEvent"
	default:
		return "UnknownEvent"
	}
}
