package gatetimer

import (
	"context"
	"time"

	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/gatefsm"
)

// Sleeper blocks for a duration or until the context is done.
type Sleeper interface {
	Sleep(ctx context.Context, duration time.Duration) error
}

// EmergencySignal is the read side of the emergency flag.
type EmergencySignal interface {
	Raised() bool
}

type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Result struct {
	State        gateconsts.State
	PreEmergency gateconsts.State
	Interrupted  bool
	Elapsed      int //whole units slept
}

// Wait sleeps for units time units, one unit at a time, and checks the
// emergency signal after every unit. A raised signal ends the wait at once
// and moves the result into Emergency, capturing the interrupted state unless
// the gate already was in Emergency. Otherwise the state is returned as is.
func Wait(ctx context.Context, sleeper Sleeper, unit time.Duration, units int, state, preEmergency gateconsts.State, signal EmergencySignal) (Result, error) {
	result := Result{State: state, PreEmergency: preEmergency}

	for i := 0; i < units; i++ {
		if err := sleeper.Sleep(ctx, unit); err != nil {
			return result, err
		}
		result.Elapsed++

		if signal.Raised() {
			result.State, result.PreEmergency = gatefsm.OnEmergencyRaised(result.State, result.PreEmergency)
			result.Interrupted = true
			return result, nil
		}
	}
	return result, nil
}

// Sleep waits units time units without looking at any input or signal.
func Sleep(ctx context.Context, sleeper Sleeper, unit time.Duration, units int) error {
	for i := 0; i < units; i++ {
		if err := sleeper.Sleep(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}
