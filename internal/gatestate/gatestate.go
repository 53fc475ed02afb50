package gatestate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gatelab/gate-controller/internal/gatealarm"
	"github.com/gatelab/gate-controller/internal/gatecmd"
	"github.com/gatelab/gate-controller/internal/gateconsts"
	"github.com/gatelab/gate-controller/internal/gateevent"
	"github.com/gatelab/gate-controller/internal/gatefsm"
	"github.com/gatelab/gate-controller/internal/gateio"
	"github.com/gatelab/gate-controller/internal/gatetimer"
	"github.com/gatelab/gate-controller/internal/logger"
)

var Log = logger.GetLogger()

var (
	ErrUnknownState      = errors.New("unknown gate state")
	ErrInvalidTransition = errors.New("invalid gate state transition")
	ErrAlreadyRunning    = errors.New("gate controller already running")
)

const noState gateconsts.State = -1

// CommandInput is the controller's own queue of input symbols.
type CommandInput interface {
	CommandAvailable() bool
	ReadCommand() rune
	Flush() int
}

// RandomSource decides whether a closing step finishes. *rand.Rand from
// math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1))
}

type Timing struct {
	TimeUnit            time.Duration
	OpeningUnits        int
	ClosingStepUnits    int
	EmergencyUnits      int
	CloseCompletionOdds int
	IdlePollRate        time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		TimeUnit:            gateconsts.DEFAULT_TIME_UNIT,
		OpeningUnits:        gateconsts.DEFAULT_OPENING_UNITS,
		ClosingStepUnits:    gateconsts.DEFAULT_CLOSING_STEP_UNITS,
		EmergencyUnits:      gateconsts.DEFAULT_EMERGENCY_UNITS,
		CloseCompletionOdds: gateconsts.DEFAULT_CLOSE_COMPLETION_ODDS,
		IdlePollRate:        gateconsts.DEFAULT_IDLE_POLL_RATE,
	}
}

type Options struct {
	Timing  Timing
	Keymap  gatecmd.Keymap
	Input   CommandInput
	Display gateio.Display
	Flag    *gatealarm.Flag

	// Optional. Nil picks the real clock and a clock seeded random source.
	Sleeper      gatetimer.Sleeper
	Random       RandomSource
	EventChannel chan<- gateevent.GateEvent
}

// GateState is the controller loop. current and preEmergency are owned by
// the loop goroutine; read them only from tests or after Done is closed.
type GateState struct {
	current      gateconsts.State
	preEmergency gateconsts.State
	announced    gateconsts.State //state whose entry text was last shown
	episodes     int
	closeSteps   int

	timing       Timing
	keymap       gatecmd.Keymap
	input        CommandInput
	display      gateio.Display
	flag         *gatealarm.Flag
	sleeper      gatetimer.Sleeper
	random       RandomSource
	eventChannel chan<- gateevent.GateEvent

	mtx     sync.Mutex
	running bool
	done    chan struct{}
	err     error
}

func NewGateState(options Options) *GateState {
	sleeper := options.Sleeper
	if sleeper == nil {
		sleeper = gatetimer.RealSleeper{}
	}
	random := options.Random
	if random == nil {
		random = NewRandomSource(0)
	}

	return &GateState{
		current:      gateconsts.Closed,
		preEmergency: gateconsts.Closed,
		announced:    noState,
		timing:       options.Timing,
		keymap:       options.Keymap,
		input:        options.Input,
		display:      options.Display,
		flag:         options.Flag,
		sleeper:      sleeper,
		random:       random,
		eventChannel: options.EventChannel,
		done:         make(chan struct{}),
	}
}

func (gs *GateState) Start(ctx context.Context, waitGroup *sync.WaitGroup) error {
	gs.mtx.Lock()
	defer gs.mtx.Unlock()
	if gs.running {
		return ErrAlreadyRunning
	}
	gs.running = true

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		defer close(gs.done)
		gs.err = gs.run(ctx)
	}()
	return nil
}

func (gs *GateState) run(ctx context.Context) error {
	Log.Info().Msgf("Gate controller starting in state %v", gs.current)
	for {
		if err := gs.step(ctx); err != nil {
			if ctx.Err() != nil {
				Log.Warn().Msgf("Gate controller Go routine has been signaled to stop")
				return nil
			}
			Log.Error().Msgf("Gate controller stopped: %v", err)
			return err
		}
	}
}

// Done is closed when the loop exits.
func (gs *GateState) Done() <-chan struct{} {
	return gs.done
}

// Err is the reason the loop exited, nil on cancellation. Valid after Done.
func (gs *GateState) Err() error {
	return gs.err
}

func (gs *GateState) State() gateconsts.State {
	return gs.current
}

func (gs *GateState) PreEmergency() gateconsts.State {
	return gs.preEmergency
}

// Episodes counts finished emergency episodes.
func (gs *GateState) Episodes() int {
	return gs.episodes
}

// step runs one iteration of the state machine.
func (gs *GateState) step(ctx context.Context) error {
	switch gs.current {
	case gateconsts.Closed:
		gs.enter("Gate is CLOSED.", fmt.Sprintf("Press '%c' to open.", gs.keymap.Toggle))
		return gs.pollCommand(ctx, "Starting to open the gate...")

	case gateconsts.Opening:
		gs.enter("Gate is OPENING...")
		return gs.handleOpening(ctx)

	case gateconsts.Open:
		gs.enter("Gate is OPEN.", fmt.Sprintf("Press '%c' to close.", gs.keymap.Toggle))
		return gs.pollCommand(ctx, "Starting to close the gate...")

	case gateconsts.Closing:
		gs.enter("Gate is CLOSING...")
		return gs.handleClosing(ctx)

	case gateconsts.Emergency:
		gs.enter("Gate in EMERGENCY! Stopping the gate.")
		return gs.handleEmergency(ctx)

	default:
		Log.Error().Msgf("Unknown gate state %d", int(gs.current))
		gs.display.Display("Unknown gate state!")
		return fmt.Errorf("%w: %d", ErrUnknownState, int(gs.current))
	}
}

// enter shows the entry text once per state change. Entering an idle state
// also throws away anything typed while the gate was moving.
func (gs *GateState) enter(lines ...string) {
	if gs.announced == gs.current {
		return
	}
	gs.announced = gs.current

	if gs.current.IsIdle() {
		if flushed := gs.input.Flush(); flushed > 0 {
			Log.Debug().Msgf("Discarded %d symbols typed while the gate was busy", flushed)
		}
	}

	for _, line := range lines {
		gs.display.Display(line)
	}
	gs.publish(gateevent.GateEvent{Value: gateevent.StateEnteredEvent{State: gs.current}})
}

func (gs *GateState) pollCommand(ctx context.Context, actionText string) error {
	if !gs.input.CommandAvailable() {
		return gatetimer.RealSleeper{}.Sleep(ctx, gs.timing.IdlePollRate)
	}

	symbol := gs.input.ReadCommand()
	gs.publish(gateevent.GateEvent{Value: gateevent.CommandEvent{Symbol: symbol, State: gs.current}})

	next := gatefsm.OnCommand(gs.current, gs.keymap.Decode(symbol))
	if next == gs.current {
		Log.Debug().Msgf("Ignoring symbol %q in state %v", symbol, gs.current)
		return nil
	}

	gs.display.Display(actionText)
	return gs.setState(next)
}

func (gs *GateState) handleOpening(ctx context.Context) error {
	result, err := gatetimer.Wait(ctx, gs.sleeper, gs.timing.TimeUnit, gs.timing.OpeningUnits, gs.current, gs.preEmergency, gs.flag)
	if err != nil {
		return err
	}
	if result.Interrupted {
		return gs.enterEmergency(result)
	}

	if err := gs.setState(gatefsm.OnOpeningComplete(gs.current)); err != nil {
		return err
	}
	gs.display.Display("Gate is fully OPEN.")
	return nil
}

func (gs *GateState) handleClosing(ctx context.Context) error {
	for gs.current == gateconsts.Closing {
		result, err := gatetimer.Wait(ctx, gs.sleeper, gs.timing.TimeUnit, gs.timing.ClosingStepUnits, gs.current, gs.preEmergency, gs.flag)
		if err != nil {
			return err
		}
		if result.Interrupted {
			return gs.enterEmergency(result)
		}

		gs.closeSteps++
		gs.display.Display("Continuing to close...")

		completed := gs.random.IntN(gs.timing.CloseCompletionOdds) == 0
		gs.publish(gateevent.GateEvent{Value: gateevent.CloseProgressEvent{Step: gs.closeSteps, Completed: completed}})
		if !completed {
			continue
		}

		gs.closeSteps = 0
		if err := gs.setState(gatefsm.OnCloseProgress(gs.current, completed)); err != nil {
			return err
		}
		gs.display.Display("Gate is fully CLOSED.")
	}
	return nil
}

func (gs *GateState) enterEmergency(result gatetimer.Result) error {
	Log.Warn().Msgf("Emergency observed after %d units while %v", result.Elapsed, result.PreEmergency)
	gs.closeSteps = 0
	gs.preEmergency = result.PreEmergency
	gs.publish(gateevent.GateEvent{Value: gateevent.EmergencyRaisedEvent{Interrupted: result.PreEmergency, Elapsed: result.Elapsed}})
	return gs.setState(result.State)
}

// handleEmergency waits out the resolution delay, ignoring all input, then
// reopens the gate and clears the flag.
func (gs *GateState) handleEmergency(ctx context.Context) error {
	gs.display.Display("Please resolve the emergency...")
	if err := gatetimer.Sleep(ctx, gs.sleeper, gs.timing.TimeUnit, gs.timing.EmergencyUnits); err != nil {
		return err
	}
	gs.display.Display("Emergency time finished.")
	gs.display.Display("Emergency resolved. Starting to open the gate.")

	if err := gs.setState(gatefsm.OnEmergencyResolved(gs.current)); err != nil {
		return err
	}

	if !gs.flag.Clear() {
		Log.Warn().Msgf("Emergency flag was already clear when the episode ended")
	}
	gs.episodes++
	gs.publish(gateevent.GateEvent{Value: gateevent.EmergencyClearedEvent{Episode: gs.episodes}})
	return nil
}

func (gs *GateState) setState(next gateconsts.State) error {
	if !gatefsm.CanTransition(gs.current, next) {
		Log.Error().Msgf("Refusing transition %v -> %v", gs.current, next)
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, gs.current, next)
	}

	Log.Info().Msgf("Gate state %v -> %v", gs.current, next)
	change := gateevent.StateChangeEvent{From: gs.current, To: next, PreEmergency: gs.preEmergency}
	gs.current = next
	gs.publish(change.Wrap())
	return nil
}

// publish never blocks the loop; events are dropped if nobody keeps up.
func (gs *GateState) publish(event gateevent.GateEvent) {
	if gs.eventChannel == nil {
		return
	}
	select {
	case gs.eventChannel <- event:
	default:
		Log.Debug().Msgf("Event channel full, dropping %v", event.EventType())
	}
}
