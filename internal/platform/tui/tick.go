// Package tui is the Bubble Tea front end of codequest: the level picker,
// the play screen and the SSH server that hosts them.
package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg drives the simulation of one play screen.
type TickMsg struct {
	// Clock identifies the play screen that scheduled the tick. Ticks of a
	// screen that was closed are ignored.
	Clock uint64
	At    time.Time
}

var clocks atomic.Uint64

func newClock() uint64 {
	return clocks.Add(1)
}

// tickCmd schedules the next tick of clock after interval.
func tickCmd(clock uint64, interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Clock: clock, At: t}
	})
}
