package gatealarm

import "sync/atomic"

// Flag is the emergency signal shared by the monitor and the controller.
// The monitor raises it, the controller clears it once an episode is over.
type Flag struct {
	raised atomic.Bool
	raises atomic.Int64
	clears atomic.Int64
}

func NewFlag() *Flag {
	return &Flag{}
}

// Raise sets the flag and reports whether it was previously clear.
func (f *Flag) Raise() bool {
	if f.raised.CompareAndSwap(false, true) {
		f.raises.Add(1)
		return true
	}
	return false
}

func (f *Flag) Raised() bool {
	return f.raised.Load()
}

// Clear resets the flag and reports whether it was set.
func (f *Flag) Clear() bool {
	if f.raised.CompareAndSwap(true, false) {
		f.clears.Add(1)
		return true
	}
	return false
}

// Raises counts clear-to-raised changes.
func (f *Flag) Raises() int64 {
	return f.raises.Load()
}

// Clears counts raised-to-clear changes, one per finished emergency episode.
func (f *Flag) Clears() int64 {
	return f.clears.Load()
}
