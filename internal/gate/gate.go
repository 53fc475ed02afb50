package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/gatelab/gate-controller/internal/gatealarm"
	"github.com/gatelab/gate-controller/internal/gatecfg"
	"github.com/gatelab/gate-controller/internal/gateevent"
	"github.com/gatelab/gate-controller/internal/gateio"
	"github.com/gatelab/gate-controller/internal/gatemetadata"
	"github.com/gatelab/gate-controller/internal/gatestate"
	"github.com/gatelab/gate-controller/internal/logger"
)

var Logger = logger.GetLogger()

const SUBSCRIPTION_SIZE = 16

type Gate struct {
	MetaData *gatemetadata.GateMetaData //this contains all gate constant metadata
	Config   gatecfg.Config
	Flag     *gatealarm.Flag
	Input    *gateio.Input
	State    *gatestate.GateState
	Monitor  *gatealarm.Monitor

	// Nil when the config disables events.
	Events <-chan gateevent.GateEvent

	initialised bool //set to true if initialised via NewGate Function
	running     bool

	//used for graceful shutdown
	waitGroupArray []*sync.WaitGroup
	cancelArray    []context.CancelFunc
}

func NewGate(config gatecfg.Config, source gateio.KeySource, display gateio.Display) (*Gate, error) {
	if err := config.Validate(); err != nil {
		Logger.Error().Msgf("Error Creating Gate: %v", err)
		return nil, err
	}

	keymap := config.Keymap()
	flag := gatealarm.NewFlag()

	input := gateio.NewInput(source)
	controllerInput := input.Subscribe("controller", SUBSCRIPTION_SIZE)
	monitorInput := input.Subscribe("monitor", SUBSCRIPTION_SIZE)

	var eventChannel chan gateevent.GateEvent
	if config.EventBuffer > 0 {
		eventChannel = make(chan gateevent.GateEvent, config.EventBuffer)
	}

	options := gatestate.Options{
		Timing: gatestate.Timing{
			TimeUnit:            config.TimeUnit,
			OpeningUnits:        config.OpeningUnits,
			ClosingStepUnits:    config.ClosingStepUnits,
			EmergencyUnits:      config.EmergencyUnits,
			CloseCompletionOdds: config.CloseCompletionOdds,
			IdlePollRate:        config.IdlePollRate,
		},
		Keymap:  keymap,
		Input:   controllerInput,
		Display: display,
		Flag:    flag,
		Random:  gatestate.NewRandomSource(config.Seed),
	}
	gate := &Gate{
		MetaData:    gatemetadata.NewGateMetaData(config.Identifier),
		Config:      config,
		Flag:        flag,
		Input:       input,
		Monitor:     gatealarm.NewMonitor(flag, monitorInput, keymap),
		initialised: true,
	}
	if eventChannel != nil {
		options.EventChannel = eventChannel
		gate.Events = eventChannel
	}
	gate.State = gatestate.NewGateState(options)

	return gate, nil
}

func (g *Gate) Start() error {
	if !g.initialised {
		Logger.Error().Msg("Gate not initialised")
		return errors.New("gate not initialised")
	}
	if g.running {
		Logger.Error().Msg("Gate already running")
		return errors.New("gate already running")
	}

	//Launch Threads One By One, input last so both consumers are up
	starters := []func(context.Context, *sync.WaitGroup) error{
		g.Monitor.Start,
		g.State.Start,
		g.Input.Start,
	}
	for _, start := range starters {
		ctx, cancel := context.WithCancel(context.Background())
		wg := &sync.WaitGroup{}
		g.waitGroupArray = append(g.waitGroupArray, wg)
		g.cancelArray = append(g.cancelArray, cancel)

		if err := start(ctx, wg); err != nil {
			Logger.Error().Msgf("Error starting gate: %v", err)
			g.running = true
			g.Stop()
			return err
		}
	}

	g.running = true
	return nil
}

// Done is closed when the controller loop exits on its own or after Stop.
func (g *Gate) Done() <-chan struct{} {
	return g.State.Done()
}

// Err reports why the controller loop exited. Valid after Done.
func (g *Gate) Err() error {
	return g.State.Err()
}

func (g *Gate) Stop() {
	if !g.initialised {
		Logger.Error().Msg("Gate not initialised")
		return
	}
	if !g.running {
		Logger.Error().Msg("Gate not running, so cannot stop gate")
		return
	}

	Logger.Debug().Msg("Stopping Gate")

	//Gracefully shutdown all threads one by one
	for i := len(g.cancelArray) - 1; i >= 0; i-- {
		g.cancelArray[i]()
		g.waitGroupArray[i].Wait()
	}
	g.cancelArray = nil
	g.waitGroupArray = nil

	Logger.Debug().Msg("Stopped Gate")
	g.running = false
}
