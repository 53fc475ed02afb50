package gatetimer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatelab/gate-controller/internal/gateconsts"
)

type fakeSignal struct {
	raised bool
}

func (f *fakeSignal) Raised() bool {
	return f.raised
}

// countingSleeper does not sleep; it runs hook after each call.
type countingSleeper struct {
	calls     int
	durations []time.Duration
	hook      func(call int)
}

func (s *countingSleeper) Sleep(ctx context.Context, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.calls++
	s.durations = append(s.durations, duration)
	if s.hook != nil {
		s.hook(s.calls)
	}
	return nil
}

func TestWaitCompletes(t *testing.T) {
	signal := &fakeSignal{}
	sleeper := &countingSleeper{}

	result, err := Wait(context.Background(), sleeper, time.Second, 2, gateconsts.Opening, gateconsts.Closed, signal)
	if err != nil {
		t.Fatalf("Wait() returned error %v", err)
	}
	if result.Interrupted {
		t.Errorf("Wait() interrupted without emergency")
	}
	if result.State != gateconsts.Opening {
		t.Errorf("Wait() state = %v, expected unchanged OPENING", result.State)
	}
	if result.Elapsed != 2 || sleeper.calls != 2 {
		t.Errorf("Wait() elapsed %d units over %d sleeps, expected 2", result.Elapsed, sleeper.calls)
	}
	for _, d := range sleeper.durations {
		if d != time.Second {
			t.Errorf("Sleep called with %v, expected one unit", d)
		}
	}
}

// The signal is checked after every unit, so the wait stops within one unit.
func TestWaitInterruptedWithinOneUnit(t *testing.T) {
	for raiseAt := 1; raiseAt <= 5; raiseAt++ {
		signal := &fakeSignal{}
		sleeper := &countingSleeper{hook: func(call int) {
			if call == raiseAt {
				signal.raised = true
			}
		}}

		result, err := Wait(context.Background(), sleeper, time.Second, 5, gateconsts.Closing, gateconsts.Closed, signal)
		if err != nil {
			t.Fatalf("Wait() returned error %v", err)
		}
		if !result.Interrupted {
			t.Errorf("raise at unit %d: Wait() was not interrupted", raiseAt)
		}
		if result.Elapsed != raiseAt {
			t.Errorf("raise at unit %d: Wait() slept %d units, expected %d", raiseAt, result.Elapsed, raiseAt)
		}
		if result.State != gateconsts.Emergency || result.PreEmergency != gateconsts.Closing {
			t.Errorf("raise at unit %d: Wait() = (%v, %v), expected (EMERGENCY, CLOSING)", raiseAt, result.State, result.PreEmergency)
		}
	}
}

func TestWaitKeepsCapturedStateInEmergency(t *testing.T) {
	signal := &fakeSignal{raised: true}

	result, err := Wait(context.Background(), &countingSleeper{}, time.Second, 3, gateconsts.Emergency, gateconsts.Opening, signal)
	if err != nil {
		t.Fatalf("Wait() returned error %v", err)
	}
	if result.PreEmergency != gateconsts.Opening {
		t.Errorf("Wait() overwrote pre-emergency state with %v", result.PreEmergency)
	}
	if result.Elapsed != 1 {
		t.Errorf("Wait() slept %d units, expected 1", result.Elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Wait(ctx, RealSleeper{}, time.Hour, 2, gateconsts.Opening, gateconsts.Closed, &fakeSignal{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, expected context.Canceled", err)
	}
}

func TestSleepIgnoresSignal(t *testing.T) {
	sleeper := &countingSleeper{}
	if err := Sleep(context.Background(), sleeper, time.Second, 5); err != nil {
		t.Fatalf("Sleep() returned error %v", err)
	}
	if sleeper.calls != 5 {
		t.Errorf("Sleep() slept %d units, expected 5", sleeper.calls)
	}
}

func TestRealSleeper(t *testing.T) {
	start := time.Now()
	if err := (RealSleeper{}).Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() returned error %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Errorf("Sleep() returned after %v, expected at least 10ms", time.Since(start))
	}
}
