package gate

import (
	"context"
	"testing"
	"time"

	"github.com/gatelab/gate-controller/internal/gatecfg"
	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/gateio"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/rs/zerolog"
)

func testConfig() gatecfg.Config {
	config := gatecfg.Default()
	config.Identifier = "test-gate"
	config.TimeUnit = 2 * time.Millisecond
	config.IdlePollRate = time.Millisecond
	config.Seed = 1
	config.EventBuffer = 64
	return config
}

func TestNewGateRejectsInvalidConfig(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	config := testConfig()
	config.OpeningUnits = 0

	if _, err := NewGate(config, gateio.NewChanSource(make(chan rune)), gateio.NewMemoryDisplay()); err == nil {
		t.Errorf("NewGate() with invalid config expected an error, got nil")
	}
}

func TestStartStop(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	gate, err := NewGate(testConfig(), gateio.NewChanSource(make(chan rune)), gateio.NewMemoryDisplay())
	if err != nil {
		t.Fatalf("NewGate() returned error %v", err)
	}
	if gate.MetaData.Identifier != "test-gate" {
		t.Errorf("Identifier = %q, expected \"test-gate\"", gate.MetaData.Identifier)
	}

	if err := gate.Start(); err != nil {
		t.Fatalf("Start() returned error %v", err)
	}
	if err := gate.Start(); err == nil {
		t.Errorf("second Start() expected an error, got nil")
	}

	gate.Stop()
	select {
	case <-gate.Done():
	case <-time.After(time.Second):
		t.Fatalf("controller still running after Stop()")
	}
	if gate.Err() != nil {
		t.Errorf("Err() = %v after Stop(), expected nil", gate.Err())
	}
}

// A -> Open -> A -> E mid-close: the gate passes through Emergency and
// reopens, clearing the flag once.
func TestEmergencyScenario(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	config := testConfig()
	config.CloseCompletionOdds = 1 << 30 //closing never finishes on its own

	keys := make(chan rune)
	display := gateio.NewMemoryDisplay()
	gate, err := NewGate(config, gateio.NewChanSource(keys), display)
	if err != nil {
		t.Fatalf("NewGate() returned error %v", err)
	}
	if err := gate.Start(); err != nil {
		t.Fatalf("Start() returned error %v", err)
	}
	defer gate.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := RunScript(ctx, gate, keys, EmergencyScript('A', 'E'))
	if err != nil {
		t.Fatalf("RunScript() returned error %v, sequence %v", err, result.Sequence)
	}

	expected := []gateconsts.State{
		gateconsts.Closed,
		gateconsts.Opening,
		gateconsts.Open,
		gateconsts.Closing,
		gateconsts.Emergency,
		gateconsts.Opening,
	}
	if len(result.Sequence) != len(expected) {
		t.Fatalf("sequence = %v, expected %v", result.Sequence, expected)
	}
	for i := range expected {
		if result.Sequence[i] != expected[i] {
			t.Fatalf("sequence = %v, expected %v", result.Sequence, expected)
		}
	}

	if result.EmergencyClears != 1 {
		t.Errorf("EmergencyClears = %d, expected 1", result.EmergencyClears)
	}
	if gate.Flag.Raised() {
		t.Errorf("emergency flag still raised after the episode")
	}
	if gate.Flag.Raises() != 1 || gate.Flag.Clears() != 1 {
		t.Errorf("flag raised %d and cleared %d times, expected 1 and 1", gate.Flag.Raises(), gate.Flag.Clears())
	}
	if display.Count("Gate in EMERGENCY! Stopping the gate.") != 1 {
		t.Errorf("emergency notice shown %d times, expected once", display.Count("Gate in EMERGENCY! Stopping the gate."))
	}
}

func TestRunScriptWithoutEvents(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	config := testConfig()
	config.EventBuffer = 0

	gate, err := NewGate(config, gateio.NewChanSource(make(chan rune)), gateio.NewMemoryDisplay())
	if err != nil {
		t.Fatalf("NewGate() returned error %v", err)
	}
	if _, err := RunScript(context.Background(), gate, make(chan rune), EmergencyScript('A', 'E')); err == nil {
		t.Errorf("RunScript() without events expected an error, got nil")
	}
}
