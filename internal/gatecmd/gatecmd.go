package gatecmd

import (
	"github.com/gatelab/gate-controller/internal/gateconsts"
)

type GateCommand int

const (
	Unknown GateCommand = iota
	Toggle              // opens when closed, closes when open
	Emergency
)

func (c GateCommand) String() string {
	switch c {
	case Toggle:
		return "ToggleCommand"
	case Emergency:
		return "EmergencyCommand"
	default:
		return "UnknownCommand"
	}
}

// Keymap maps the single-character input symbols onto commands.
type Keymap struct {
	Toggle    rune
	Emergency rune
}

func DefaultKeymap() Keymap {
	return Keymap{
		Toggle:    gateconsts.DEFAULT_TOGGLE_KEY,
		Emergency: gateconsts.DEFAULT_EMERGENCY_KEY,
	}
}

// Decode matches symbols exactly. Anything else, including the lower case
// variant of a key, is Unknown.
func (k Keymap) Decode(symbol rune) GateCommand {
	switch symbol {
	case k.Toggle:
		return Toggle
	case k.Emergency:
		return Emergency
	default:
		return Unknown
	}
}
