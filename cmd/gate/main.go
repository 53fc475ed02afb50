package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatelab/gate-controller/internal/gate"
	"github.com/gatelab/gate-controller/internal/gatecfg"
	"github.com/gatelab/gate-controller/internal/gateevent"
	"github.com/gatelab/gate-controller/internal/gateio"
	"github.com/gatelab/gate-controller/internal/gateutils"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLoggerConfigured(zerolog.InfoLevel)

type options struct {
	configPath string
	envFile    string
	identifier string
	logLevel   string
	timeUnit   time.Duration
	seed       uint64
	useStdin   bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Interactive gate controller",
		Long: "Simulates a gate driven from the keyboard.\n" +
			"Press the toggle key (default A) to open or close the gate and the\n" +
			"emergency key (default E) to stop it. Ctrl-C quits.",
		Version:      gateutils.GetGitHash(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with GATE_* variables")
	flags.StringVar(&opts.identifier, "id", "", "Set the identifier of the gate. Defaults to random string")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	flags.DurationVar(&opts.timeUnit, "time-unit", 0, "Length of one simulated time unit")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for the closing simulation, 0 seeds from the clock")
	flags.BoolVar(&opts.useStdin, "stdin", false, "Read commands from stdin instead of raw keypresses")

	return cmd
}

// loadConfig layers defaults, the YAML file, the environment and flags.
func loadConfig(cmd *cobra.Command, opts *options) (gatecfg.Config, error) {
	config := gatecfg.Default()

	if opts.configPath != "" {
		if err := config.LoadFile(opts.configPath); err != nil {
			return config, err
		}
	}
	if err := config.LoadEnv(opts.envFile); err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("id") {
		config.Identifier = opts.identifier
	}
	if flags.Changed("log-level") {
		config.LogLevel = opts.logLevel
	}
	if flags.Changed("time-unit") {
		config.TimeUnit = opts.timeUnit
	}
	if flags.Changed("seed") {
		config.Seed = opts.seed
	}

	return config, config.Validate()
}

func run(cmd *cobra.Command, opts *options) error {
	config, err := loadConfig(cmd, opts)
	if err != nil {
		Logger.Error().Msgf("Configuration error: %v", err)
		return err
	}
	if _, err := logger.SetLevel(config.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source gateio.KeySource
	var interrupted <-chan struct{}
	if !opts.useStdin && isatty.IsTerminal(os.Stdin.Fd()) {
		keyboardSource := gateio.NewKeyboardSource()
		source = keyboardSource
		interrupted = keyboardSource.Interrupted()
	} else {
		Logger.Info().Msg("Reading commands from stdin")
		source = gateio.NewReaderSource(os.Stdin)
	}

	display := gateio.NewConsoleDisplay(os.Stdout)
	g, err := gate.NewGate(config, source, display)
	if err != nil {
		return err
	}

	// Starting Programme
	Logger.Info().Msg("Starting Gate Programme")
	display.Display(fmt.Sprintf("The gate starts closed. Press '%s' to open, '%s' for emergency.", config.ToggleKey, config.EmergencyKey))

	if err := g.Start(); err != nil {
		return err
	}
	Logger.Info().Msgf("Gate: %v", g.MetaData.String())

	go logEvents(ctx, g.Events)

	select {
	case <-ctx.Done():
		Logger.Info().Msg("Signal received, stopping")
	case <-interrupted:
		Logger.Info().Msg("Interrupted from keyboard, stopping")
	case <-g.Done():
	}

	g.Stop()
	return g.Err()
}

func logEvents(ctx context.Context, events <-chan gateevent.GateEvent) {
	if events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			Logger.Debug().Msgf("Gate event %s %+v", event.EventType(), event.Value)
		}
	}
}
