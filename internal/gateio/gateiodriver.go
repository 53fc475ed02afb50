package gateio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/eiannone/keyboard"
)

const KEY_BUFFER_SIZE = 10

var ErrNoTerminal = errors.New("keyboard input unavailable")

// KeySource produces raw input symbols. The returned channel is closed when
// input ends; the consumer treats that as "no command available".
type KeySource interface {
	Open() (<-chan rune, error)
	Close() error
}

// KeyboardSource reads single keypresses from the terminal without waiting
// for a newline. Ctrl-C is not a symbol: it ends input and closes Interrupted.
type KeyboardSource struct {
	interrupted chan struct{}
	stop        chan struct{}
	interruptOnce sync.Once
	stopOnce    sync.Once
}

func NewKeyboardSource() *KeyboardSource {
	return &KeyboardSource{
		interrupted: make(chan struct{}),
		stop:        make(chan struct{}),
	}
}

func (ks *KeyboardSource) Open() (<-chan rune, error) {
	keysEvents, err := keyboard.GetKeys(KEY_BUFFER_SIZE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}

	symbols := make(chan rune, KEY_BUFFER_SIZE)
	go func() {
		defer close(symbols)
		for {
			select {
			case <-ks.stop:
				return
			case event, ok := <-keysEvents:
				if !ok {
					return
				}
				if event.Err != nil {
					Log.Warn().Msgf("Keyboard read failed: %v", event.Err)
					continue
				}
				if event.Key == keyboard.KeyCtrlC {
					Log.Info().Msgf("Ctrl-C pressed")
					ks.interruptOnce.Do(func() { close(ks.interrupted) })
					return
				}

				symbol := event.Rune
				if symbol == 0 && event.Key == keyboard.KeySpace {
					symbol = ' '
				}
				if symbol == 0 {
					Log.Debug().Msgf("Ignoring special key %v", event.Key)
					continue
				}

				select {
				case symbols <- symbol:
				case <-ks.stop:
					return
				}
			}
		}
	}()
	return symbols, nil
}

// Interrupted is closed when the user presses Ctrl-C.
func (ks *KeyboardSource) Interrupted() <-chan struct{} {
	return ks.interrupted
}

func (ks *KeyboardSource) Close() error {
	var err error
	ks.stopOnce.Do(func() {
		close(ks.stop)
		err = keyboard.Close()
	})
	return err
}

// ReaderSource reads runes from a reader such as piped stdin. End of input
// and read errors both end the stream.
type ReaderSource struct {
	reader   io.Reader
	stop     chan struct{}
	stopOnce sync.Once
}

func NewReaderSource(reader io.Reader) *ReaderSource {
	return &ReaderSource{
		reader: reader,
		stop:   make(chan struct{}),
	}
}

func (rs *ReaderSource) Open() (<-chan rune, error) {
	symbols := make(chan rune, KEY_BUFFER_SIZE)
	bufferedReader := bufio.NewReader(rs.reader)

	go func() {
		defer close(symbols)
		for {
			symbol, _, err := bufferedReader.ReadRune()
			if err != nil {
				if errors.Is(err, io.EOF) {
					Log.Debug().Msgf("End of input reached")
				} else {
					Log.Warn().Msgf("Input read failed: %v", err)
				}
				return
			}

			select {
			case symbols <- symbol:
			case <-rs.stop:
				return
			}
		}
	}()
	return symbols, nil
}

// Close stops delivery. A read already blocked on the reader is left to
// return on its own.
func (rs *ReaderSource) Close() error {
	rs.stopOnce.Do(func() {
		close(rs.stop)
	})
	return nil
}

// ChanSource forwards symbols written to a channel.
type ChanSource struct {
	symbols <-chan rune
}

func NewChanSource(symbols <-chan rune) *ChanSource {
	return &ChanSource{symbols: symbols}
}

func (cs *ChanSource) Open() (<-chan rune, error) {
	return cs.symbols, nil
}

func (cs *ChanSource) Close() error {
	return nil
}
