package gateconsts

import "time"

const (
	DEFAULT_TIME_UNIT             = time.Second
	DEFAULT_OPENING_UNITS         = 2
	DEFAULT_CLOSING_STEP_UNITS    = 1
	DEFAULT_EMERGENCY_UNITS       = 5
	DEFAULT_CLOSE_COMPLETION_ODDS = 3 // one in three closing steps completes
	DEFAULT_IDLE_POLL_RATE        = 20 * time.Millisecond
	DEFAULT_TOGGLE_KEY            = 'A'
	DEFAULT_EMERGENCY_KEY         = 'E'
)

type State int

const (
	Closed State = iota // 0
	Opening
	Open
	Closing
	Emergency
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Opening:
		return "OPENING"
	case Open:
		return "OPEN"
	case Closing:
		return "CLOSING"
	case Emergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// IsMotion reports whether the gate is physically moving in this state.
func (s State) IsMotion() bool {
	return s == Opening || s == Closing
}

// IsIdle reports whether the gate is stationary and accepts commands.
func (s State) IsIdle() bool {
	return s == Closed || s == Open
}

func (s State) IsValid() bool {
	return s >= Closed && s <= Emergency
}

// States lists every valid state in declaration order.
func States() []State {
	return []State{Closed, Opening, Open, Closing, Emergency}
}
