package gateio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gatelab/gate-controller/internal/logger"
)

var Log = logger.GetLogger()

const DEFAULT_SUBSCRIPTION_SIZE = 16

// Input reads one KeySource and hands every symbol to every subscription, so
// the controller and the emergency monitor both see all keypresses.
type Input struct {
	source        KeySource
	mtx           sync.Mutex
	subscriptions []*Subscription
	running       bool
}

func NewInput(source KeySource) *Input {
	return &Input{source: source}
}

// Subscribe must be called before Start.
func (in *Input) Subscribe(name string, size int) *Subscription {
	if size <= 0 {
		size = DEFAULT_SUBSCRIPTION_SIZE
	}
	subscription := &Subscription{
		name:    name,
		symbols: make(chan rune, size),
	}

	in.mtx.Lock()
	defer in.mtx.Unlock()
	in.subscriptions = append(in.subscriptions, subscription)
	return subscription
}

func (in *Input) Start(ctx context.Context, waitGroup *sync.WaitGroup) error {
	in.mtx.Lock()
	if in.running {
		in.mtx.Unlock()
		return errors.New("input already running")
	}
	in.running = true
	subscriptions := append([]*Subscription(nil), in.subscriptions...)
	in.mtx.Unlock()

	symbols, err := in.source.Open()
	if err != nil {
		Log.Error().Msgf("Error opening input source %v", err)
		return err
	}

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		defer func() {
			if err := in.source.Close(); err != nil {
				Log.Warn().Msgf("Error closing input source %v", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				Log.Debug().Msgf("Input Go routine has been signaled to stop")
				return
			case symbol, ok := <-symbols:
				if !ok {
					Log.Info().Msgf("Input ended, no further commands will be read")
					for _, subscription := range subscriptions {
						close(subscription.symbols)
					}
					return
				}
				Log.Debug().Msgf("Received symbol %q", symbol)
				for _, subscription := range subscriptions {
					subscription.offer(symbol)
				}
			}
		}
	}()
	return nil
}

// Subscription is one consumer's queue of input symbols. It must have a
// single reader.
type Subscription struct {
	name    string
	symbols chan rune
	dropped atomic.Int64
}

func (s *Subscription) offer(symbol rune) {
	select {
	case s.symbols <- symbol:
	default:
		s.dropped.Add(1)
		Log.Debug().Msgf("Subscription %s full, dropping symbol %q", s.name, symbol)
	}
}

// C exposes the queue for blocking consumers. It is closed when input ends.
func (s *Subscription) C() <-chan rune {
	return s.symbols
}

// CommandAvailable reports whether a symbol is queued. It never blocks and
// consumes nothing.
func (s *Subscription) CommandAvailable() bool {
	return len(s.symbols) > 0
}

// ReadCommand consumes one symbol. Call it only after CommandAvailable
// returned true.
func (s *Subscription) ReadCommand() rune {
	return <-s.symbols
}

// Flush discards everything queued and returns how many symbols were dropped.
func (s *Subscription) Flush() int {
	flushed := 0
	for {
		select {
		case _, ok := <-s.symbols:
			if !ok {
				return flushed
			}
			flushed++
		default:
			return flushed
		}
	}
}

func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}
