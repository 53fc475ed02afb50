package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gatelab/gate-controller/internal/gate"
	"github.com/gatelab/gate-controller/internal/gatecfg"
	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/gateio"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLoggerConfigured(zerolog.InfoLevel)

var expectedSequence = []gateconsts.State{
	gateconsts.Closed,
	gateconsts.Opening,
	gateconsts.Open,
	gateconsts.Closing,
	gateconsts.Emergency,
	gateconsts.Opening,
}

func main() {
	var timeUnit time.Duration
	var seed uint64
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:          "gatetester",
		Short:        "Runs the open, close and emergency scenario against a simulated gate",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(timeUnit, seed, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeUnit, "time-unit", 100*time.Millisecond, "Length of one simulated time unit")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for the closing simulation")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(timeUnit time.Duration, seed uint64, timeout time.Duration) error {
	config := gatecfg.Default()
	config.Identifier = "gatetester"
	config.TimeUnit = timeUnit
	config.Seed = seed
	config.CloseCompletionOdds = 1 << 30 //the emergency must land mid-close
	config.EventBuffer = 64

	keys := make(chan rune)
	g, err := gate.NewGate(config, gateio.NewChanSource(keys), gateio.NewConsoleDisplay(os.Stdout))
	if err != nil {
		return err
	}
	if err := g.Start(); err != nil {
		return err
	}
	defer g.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := gate.RunScript(ctx, g, keys, gate.EmergencyScript(config.Keymap().Toggle, config.Keymap().Emergency))
	if err != nil {
		Logger.Error().Msgf("Scenario failed: %v", err)
		return err
	}

	Logger.Info().Msgf("State sequence %v, emergency clears %d", result.Sequence, result.EmergencyClears)
	if fmt.Sprint(result.Sequence) != fmt.Sprint(expectedSequence) {
		return fmt.Errorf("state sequence %v, expected %v", result.Sequence, expectedSequence)
	}
	if result.EmergencyClears != 1 || g.Flag.Raised() {
		return fmt.Errorf("emergency flag cleared %d times, still raised %v", result.EmergencyClears, g.Flag.Raised())
	}

	Logger.Info().Msg("Scenario passed")
	return nil
}
