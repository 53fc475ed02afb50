package gateio

import (
	"fmt"
	"io"
	"sync"
)

// Display shows one human readable status line. Failures are not reported.
type Display interface {
	Display(text string)
}

type ConsoleDisplay struct {
	mtx    sync.Mutex
	writer io.Writer
}

func NewConsoleDisplay(writer io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{writer: writer}
}

func (cd *ConsoleDisplay) Display(text string) {
	cd.mtx.Lock()
	defer cd.mtx.Unlock()

	if _, err := fmt.Fprintln(cd.writer, text); err != nil {
		Log.Debug().Msgf("Display write failed: %v", err)
	}
}

// MemoryDisplay keeps every line it is given.
type MemoryDisplay struct {
	mtx   sync.Mutex
	lines []string
}

func NewMemoryDisplay() *MemoryDisplay {
	return &MemoryDisplay{}
}

func (md *MemoryDisplay) Display(text string) {
	md.mtx.Lock()
	defer md.mtx.Unlock()
	md.lines = append(md.lines, text)
}

func (md *MemoryDisplay) Lines() []string {
	md.mtx.Lock()
	defer md.mtx.Unlock()
	return append([]string(nil), md.lines...)
}

// Count returns how many lines equal text.
func (md *MemoryDisplay) Count(text string) int {
	md.mtx.Lock()
	defer md.mtx.Unlock()

	count := 0
	for _, line := range md.lines {
		if line == text {
			count++
		}
	}
	return count
}
