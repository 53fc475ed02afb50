package gatecfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gatelab/gate-controller/internal/gatecmd"
	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var Log = logger.GetLogger()

var ErrInvalidConfig = errors.New("invalid gate configuration")

const ENV_PREFIX = "GATE_"

type Config struct {
	Identifier          string        `yaml:"identifier"`
	TimeUnit            time.Duration `yaml:"time_unit"`
	OpeningUnits        int           `yaml:"opening_units"`
	ClosingStepUnits    int           `yaml:"closing_step_units"`
	EmergencyUnits      int           `yaml:"emergency_units"`
	CloseCompletionOdds int           `yaml:"close_completion_odds"`
	IdlePollRate        time.Duration `yaml:"idle_poll_rate"`
	ToggleKey           string        `yaml:"toggle_key"`
	EmergencyKey        string        `yaml:"emergency_key"`
	Seed                uint64        `yaml:"seed"` //0 picks a seed from the clock
	EventBuffer         int           `yaml:"event_buffer"`
	LogLevel            string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		TimeUnit:            gateconsts.DEFAULT_TIME_UNIT,
		OpeningUnits:        gateconsts.DEFAULT_OPENING_UNITS,
		ClosingStepUnits:    gateconsts.DEFAULT_CLOSING_STEP_UNITS,
		EmergencyUnits:      gateconsts.DEFAULT_EMERGENCY_UNITS,
		CloseCompletionOdds: gateconsts.DEFAULT_CLOSE_COMPLETION_ODDS,
		IdlePollRate:        gateconsts.DEFAULT_IDLE_POLL_RATE,
		ToggleKey:           string(gateconsts.DEFAULT_TOGGLE_KEY),
		EmergencyKey:        string(gateconsts.DEFAULT_EMERGENCY_KEY),
		EventBuffer:         16,
		LogLevel:            "info",
	}
}

// LoadFile overlays the YAML file at path onto c. Fields missing from the
// file keep their current value.
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		Log.Error().Msgf("Error reading config file %s", path)
		return err
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(c)
	if err != nil {
		Log.Error().Msgf("Error decoding config file %s", path)
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays GATE_* variables, first from envFile (if not empty) and
// then from the process environment, which wins.
func (c *Config) LoadEnv(envFile string) error {
	values := map[string]string{}
	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil {
			Log.Error().Msgf("Error loading env file %s", envFile)
			return err
		}
		values = fileValues
	}

	for _, key := range envKeys() {
		if value, ok := os.LookupEnv(key); ok {
			values[key] = value
		}
	}
	return c.applyEnv(values)
}

func envKeys() []string {
	names := []string{
		"IDENTIFIER", "TIME_UNIT", "OPENING_UNITS", "CLOSING_STEP_UNITS",
		"EMERGENCY_UNITS", "CLOSE_COMPLETION_ODDS", "IDLE_POLL_RATE",
		"TOGGLE_KEY", "EMERGENCY_KEY", "SEED", "EVENT_BUFFER", "LOG_LEVEL",
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = ENV_PREFIX + name
	}
	return keys
}

func (c *Config) applyEnv(values map[string]string) error {
	var err error
	for key, value := range values {
		switch key {
		case ENV_PREFIX + "IDENTIFIER":
			c.Identifier = value
		case ENV_PREFIX + "TIME_UNIT":
			c.TimeUnit, err = time.ParseDuration(value)
		case ENV_PREFIX + "OPENING_UNITS":
			c.OpeningUnits, err = strconv.Atoi(value)
		case ENV_PREFIX + "CLOSING_STEP_UNITS":
			c.ClosingStepUnits, err = strconv.Atoi(value)
		case ENV_PREFIX + "EMERGENCY_UNITS":
			c.EmergencyUnits, err = strconv.Atoi(value)
		case ENV_PREFIX + "CLOSE_COMPLETION_ODDS":
			c.CloseCompletionOdds, err = strconv.Atoi(value)
		case ENV_PREFIX + "IDLE_POLL_RATE":
			c.IdlePollRate, err = time.ParseDuration(value)
		case ENV_PREFIX + "TOGGLE_KEY":
			c.ToggleKey = value
		case ENV_PREFIX + "EMERGENCY_KEY":
			c.EmergencyKey = value
		case ENV_PREFIX + "SEED":
			c.Seed, err = strconv.ParseUint(value, 10, 64)
		case ENV_PREFIX + "EVENT_BUFFER":
			c.EventBuffer, err = strconv.Atoi(value)
		case ENV_PREFIX + "LOG_LEVEL":
			c.LogLevel = value
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.TimeUnit <= 0:
		return fmt.Errorf("%w: time_unit must be positive, got %v", ErrInvalidConfig, c.TimeUnit)
	case c.OpeningUnits <= 0:
		return fmt.Errorf("%w: opening_units must be positive, got %d", ErrInvalidConfig, c.OpeningUnits)
	case c.ClosingStepUnits <= 0:
		return fmt.Errorf("%w: closing_step_units must be positive, got %d", ErrInvalidConfig, c.ClosingStepUnits)
	case c.EmergencyUnits <= 0:
		return fmt.Errorf("%w: emergency_units must be positive, got %d", ErrInvalidConfig, c.EmergencyUnits)
	case c.CloseCompletionOdds <= 0:
		return fmt.Errorf("%w: close_completion_odds must be positive, got %d", ErrInvalidConfig, c.CloseCompletionOdds)
	case c.IdlePollRate <= 0:
		return fmt.Errorf("%w: idle_poll_rate must be positive, got %v", ErrInvalidConfig, c.IdlePollRate)
	case c.EventBuffer < 0:
		return fmt.Errorf("%w: event_buffer must not be negative, got %d", ErrInvalidConfig, c.EventBuffer)
	}

	if utf8.RuneCountInString(c.ToggleKey) != 1 {
		return fmt.Errorf("%w: toggle_key must be a single character, got %q", ErrInvalidConfig, c.ToggleKey)
	}
	if utf8.RuneCountInString(c.EmergencyKey) != 1 {
		return fmt.Errorf("%w: emergency_key must be a single character, got %q", ErrInvalidConfig, c.EmergencyKey)
	}
	if c.ToggleKey == c.EmergencyKey {
		return fmt.Errorf("%w: toggle_key and emergency_key are both %q", ErrInvalidConfig, c.ToggleKey)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q: %v", ErrInvalidConfig, c.LogLevel, err)
	}
	return nil
}

// Keymap must only be called on a validated config.
func (c *Config) Keymap() gatecmd.Keymap {
	toggle, _ := utf8.DecodeRuneInString(c.ToggleKey)
	emergency, _ := utf8.DecodeRuneInString(c.EmergencyKey)
	return gatecmd.Keymap{Toggle: toggle, Emergency: emergency}
}
