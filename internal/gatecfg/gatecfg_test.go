package gatecfg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gatelab/gate-controller/internal/gatecmd"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default().Validate() returned %v", err)
	}
	if config.TimeUnit != time.Second || config.OpeningUnits != 2 || config.ClosingStepUnits != 1 || config.EmergencyUnits != 5 || config.CloseCompletionOdds != 3 {
		t.Errorf("Default() timings = %+v, expected 1s/2/1/5/3", config)
	}
	if config.Keymap() != gatecmd.DefaultKeymap() {
		t.Errorf("Default().Keymap() = %+v, expected %+v", config.Keymap(), gatecmd.DefaultKeymap())
	}
}

func TestLoadFile(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	path := writeFile(t, "gate_config.yaml", "time_unit: 250ms\nemergency_units: 3\ntoggle_key: O\nseed: 42\n")

	config := Default()
	if err := config.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() returned %v", err)
	}

	if config.TimeUnit != 250*time.Millisecond {
		t.Errorf("TimeUnit = %v, expected 250ms", config.TimeUnit)
	}
	if config.EmergencyUnits != 3 {
		t.Errorf("EmergencyUnits = %d, expected 3", config.EmergencyUnits)
	}
	if config.ToggleKey != "O" || config.Seed != 42 {
		t.Errorf("ToggleKey = %q, Seed = %d, expected \"O\" and 42", config.ToggleKey, config.Seed)
	}
	// Untouched fields keep their defaults.
	if config.OpeningUnits != 2 || config.EmergencyKey != "E" {
		t.Errorf("LoadFile() overwrote defaults: %+v", config)
	}
}

func TestLoadFileErrors(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	config := Default()

	if err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("LoadFile() on a missing file expected an error, got nil")
	}

	path := writeFile(t, "broken.yaml", "opening_units: [1, 2\n")
	if err := config.LoadFile(path); err == nil {
		t.Errorf("LoadFile() on broken YAML expected an error, got nil")
	}
}

func TestLoadEnv(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	path := writeFile(t, ".env", "GATE_OPENING_UNITS=4\nGATE_EMERGENCY_KEY=X\nGATE_TIME_UNIT=10ms\n")
	t.Setenv("GATE_TIME_UNIT", "20ms")
	t.Setenv("GATE_IDENTIFIER", "north-gate")

	config := Default()
	if err := config.LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv() returned %v", err)
	}

	if config.OpeningUnits != 4 || config.EmergencyKey != "X" {
		t.Errorf("env file values not applied: %+v", config)
	}
	if config.TimeUnit != 20*time.Millisecond {
		t.Errorf("TimeUnit = %v, expected the process environment to win with 20ms", config.TimeUnit)
	}
	if config.Identifier != "north-gate" {
		t.Errorf("Identifier = %q, expected \"north-gate\"", config.Identifier)
	}
}

func TestLoadEnvInvalidValue(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	t.Setenv("GATE_SEED", "not-a-number")

	config := Default()
	err := config.LoadEnv("")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadEnv() error = %v, expected ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	mutations := []func(c *Config){
		func(c *Config) { c.TimeUnit = 0 },
		func(c *Config) { c.OpeningUnits = 0 },
		func(c *Config) { c.ClosingStepUnits = -1 },
		func(c *Config) { c.EmergencyUnits = 0 },
		func(c *Config) { c.CloseCompletionOdds = 0 },
		func(c *Config) { c.IdlePollRate = 0 },
		func(c *Config) { c.EventBuffer = -1 },
		func(c *Config) { c.ToggleKey = "AB" },
		func(c *Config) { c.EmergencyKey = "" },
		func(c *Config) { c.EmergencyKey = c.ToggleKey },
		func(c *Config) { c.LogLevel = "loud" },
	}

	for index, mutate := range mutations {
		config := Default()
		mutate(&config)
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("mutation %d: Validate() = %v, expected ErrInvalidConfig", index, err)
		}
	}
}
