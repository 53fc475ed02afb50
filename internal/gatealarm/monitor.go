package gatealarm

import (
	"context"
	"errors"
	"sync"

	"github.com/gatelab/gate-controller/internal/gatecmd"
	"github.com/gatelab/gate-controller/internal/logger"
)

var Log = logger.GetLogger()

// SymbolStream is a private feed of input symbols. The channel is closed
// when input ends.
type SymbolStream interface {
	C() <-chan rune
}

// Monitor watches input for the emergency key and raises the flag. It never
// clears the flag and knows nothing about the gate state.
type Monitor struct {
	flag    *Flag
	input   SymbolStream
	keymap  gatecmd.Keymap
	running bool
}

func NewMonitor(flag *Flag, input SymbolStream, keymap gatecmd.Keymap) *Monitor {
	return &Monitor{
		flag:   flag,
		input:  input,
		keymap: keymap,
	}
}

func (m *Monitor) Start(ctx context.Context, waitGroup *sync.WaitGroup) error {
	if m.running {
		return errors.New("emergency monitor already running")
	}
	m.running = true

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		m.run(ctx)
	}()
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	symbols := m.input.C()
	for {
		select {
		case <-ctx.Done():
			Log.Debug().Msgf("Emergency monitor has been signaled to stop")
			return
		case symbol, ok := <-symbols:
			if !ok {
				Log.Warn().Msgf("Input ended, emergency monitor stopping")
				return
			}
			m.handleSymbol(symbol)
		}
	}
}

func (m *Monitor) handleSymbol(symbol rune) {
	if m.keymap.Decode(symbol) != gatecmd.Emergency {
		return
	}
	if m.flag.Raise() {
		Log.Warn().Msgf("Emergency key %q pressed, emergency flag raised", symbol)
	} else {
		Log.Debug().Msgf("Emergency key %q pressed, flag already raised", symbol)
	}
}
