// Package sequencer executes an ordered list of commands against an actor,
// strictly one at a time.
//
// Every run ends with exactly one Finished signal, delivered through
// Options.OnFinished, whether the run completes naturally, is cancelled or
// is superseded by a new Start.
package sequencer

import (
	"time"

	"github.com/vovakirdan/codequest/internal/actor"
	"github.com/vovakirdan/codequest/internal/command"
)

// RunID identifies one Start call.
type RunID uint64

// Finished is the terminal signal of a run.
type Finished struct {
	Run       RunID
	Executed  int
	Total     int
	Blocked   int
	Cancelled bool
	// Halted is set when the actor's HaltWhen check ended the run early.
	Halted bool
}

// Options configures timing and callbacks.
type Options struct {
	// Gap is the pause after each command.
	Gap time.Duration
	// WaitUnit is the duration of one wait unit.
	WaitUnit time.Duration

	OnFinished func(Finished)
	OnCommand  func(run RunID, index int, cmd command.Command)
}

// DefaultOptions returns the classic timing: 200ms between commands and
// 100ms per wait unit.
func DefaultOptions() Options {
	return Options{
		Gap:      200 * time.Millisecond,
		WaitUnit: 100 * time.Millisecond,
	}
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseMove
	phaseWait
	phaseGap
)

// Sequencer owns at most one command sequence at a time.
type Sequencer struct {
	actor *actor.Actor
	opts  Options

	run      RunID
	running  bool
	cmds     []command.Command
	idx      int
	executed int
	blocked  int
	halted   bool
	phase    phase
	timer    time.Duration
}

// New creates a sequencer driving a.
func New(a *actor.Actor, opts Options) *Sequencer {
	return &Sequencer{actor: a, opts: opts}
}

// Start begins executing cmds. A run still in flight is cancelled first and
// receives its own Finished signal. An empty list finishes immediately.
func (s *Sequencer) Start(cmds []command.Command) RunID {
	s.Cancel()

	s.run++
	s.cmds = append([]command.Command(nil), cmds...)
	s.idx = 0
	s.executed = 0
	s.blocked = 0
	s.halted = false
	s.running = true
	s.begin()
	return s.run
}

// Running reports whether a run is in flight.
func (s *Sequencer) Running() bool {
	return s.running
}

// Current returns the id of the latest run.
func (s *Sequencer) Current() RunID {
	return s.run
}

// Progress returns the index of the command being executed and the total.
func (s *Sequencer) Progress() (int, int) {
	return s.idx, len(s.cmds)
}

// Step advances the running sequence by dt of simulated time.
func (s *Sequencer) Step(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	for s.running {
		switch s.phase {
		case phaseMove:
			res, done := s.actor.Step(dt)
			if !done {
				return
			}
			if res.Blocked {
				s.blocked++
			}
			if res.Halted {
				s.executed++
				s.halted = true
				s.finish(false)
				return
			}
			dt = 0
			s.commandDone()

		case phaseWait, phaseGap:
			if s.timer > dt {
				s.timer -= dt
				return
			}
			dt -= s.timer
			s.timer = 0
			if s.phase == phaseWait {
				s.commandDone()
			} else {
				s.idx++
				s.begin()
			}

		default:
			return
		}
	}
}

// Cancel stops the running sequence, settles the actor and emits the
// cancelled run's Finished signal. It returns false when idle.
func (s *Sequencer) Cancel() bool {
	if !s.running {
		return false
	}
	if s.phase == phaseMove {
		s.actor.Cancel()
	}
	s.finish(true)
	return true
}

func (s *Sequencer) begin() {
	if s.idx >= len(s.cmds) {
		s.finish(false)
		return
	}

	cmd := s.cmds[s.idx]
	if s.opts.OnCommand != nil {
		s.opts.OnCommand(s.run, s.idx, cmd)
	}

	switch cmd.Kind {
	case command.KindMove:
		if s.actor.Moving() {
			s.actor.Cancel()
		}
		_ = s.actor.MoveBy(cmd.Dir(), cmd.Cells)
		s.phase = phaseMove
	case command.KindWait:
		units := cmd.Units
		if units < 0 {
			units = 0
		}
		s.timer = time.Duration(units) * s.opts.WaitUnit
		s.phase = phaseWait
	default:
		s.commandDone()
	}
}

func (s *Sequencer) commandDone() {
	s.executed++
	if s.opts.Gap > 0 {
		s.phase = phaseGap
		s.timer = s.opts.Gap
		return
	}
	s.idx++
	s.begin()
}

func (s *Sequencer) finish(cancelled bool) {
	s.running = false
	s.phase = phaseIdle
	s.timer = 0

	f := Finished{
		Run:       s.run,
		Executed:  s.executed,
		Total:     len(s.cmds),
		Blocked:   s.blocked,
		Cancelled: cancelled,
		Halted:    s.halted,
	}
	if s.opts.OnFinished != nil {
		s.opts.OnFinished(f)
	}
}
