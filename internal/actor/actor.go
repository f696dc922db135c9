// Package actor moves a single character across a grid one cell at a time.
//
// Movement is tick driven: MoveBy starts a move, Step advances it by a
// fixed amount of simulated time and Cancel halts it. Between cells the
// world position is interpolated linearly; at rest the actor always sits
// on the centre of its cell.
package actor

import (
	"errors"
	"time"

	"github.com/vovakirdan/codequest/internal/grid"
)

// ErrBusy is returned by MoveBy while another move is in flight.
var ErrBusy = errors.New("actor: move already in progress")

// MoveResult describes how a move resolved.
type MoveResult struct {
	Dir       grid.Dir
	Requested int
	Moved     int
	// Blocked is set when the move stopped early at an unwalkable cell.
	// It is an expected outcome, not an error.
	Blocked   bool
	Cancelled bool
	// Halted is set when the HaltWhen check stopped the move on a cell.
	Halted bool
}

// Complete reports whether every requested cell was travelled.
func (r MoveResult) Complete() bool {
	return r.Moved == r.Requested && !r.Blocked && !r.Cancelled && !r.Halted
}

// Actor is a grid-bound character.
type Actor struct {
	g            *grid.Grid
	cell         grid.Pos
	pos          grid.Vec
	cellDuration time.Duration

	moving  bool
	segment bool
	target  grid.Pos
	elapsed time.Duration
	result  MoveResult

	halt func(grid.Pos) bool
}

// New creates an actor standing on start. cellDuration is the time it
// takes to travel one cell; zero or negative means instantaneous moves.
func New(g *grid.Grid, start grid.Pos, cellDuration time.Duration) *Actor {
	a := &Actor{
		g:            g,
		cellDuration: cellDuration,
	}
	a.ResetTo(start)
	return a
}

// Cell returns the last settled cell.
func (a *Actor) Cell() grid.Pos {
	return a.cell
}

// World returns the current, possibly interpolated, world position.
func (a *Actor) World() grid.Vec {
	return a.pos
}

// Moving reports whether a move is in flight.
func (a *Actor) Moving() bool {
	return a.moving
}

// HaltWhen installs a check run every time Step settles the actor on a
// new cell. Returning true ends the move on that cell, even when several
// cells are crossed in a single Step.
func (a *Actor) HaltWhen(fn func(cell grid.Pos) bool) {
	a.halt = fn
}

// Settled reports whether the actor rests exactly on its cell centre.
func (a *Actor) Settled() bool {
	return !a.moving && a.pos == a.g.GridToWorld(a.cell)
}

// MoveBy starts moving up to cells cells in direction d.
// The result is delivered by a later Step (or Cancel) call.
func (a *Actor) MoveBy(d grid.Dir, cells int) error {
	if a.moving {
		return ErrBusy
	}
	if cells < 0 {
		cells = 0
	}
	a.moving = true
	a.result = MoveResult{Dir: d, Requested: cells}
	a.nextSegment()
	return nil
}

// Step advances the current move by dt. It returns the move result and
// true once the move has resolved; leftover time is discarded.
func (a *Actor) Step(dt time.Duration) (MoveResult, bool) {
	if !a.moving {
		return MoveResult{}, false
	}
	if dt < 0 {
		dt = 0
	}

	for a.segment && (dt > 0 || a.cellDuration <= 0) {
		need := a.cellDuration - a.elapsed
		if dt < need {
			a.elapsed += dt
			from := a.g.GridToWorld(a.cell)
			to := a.g.GridToWorld(a.target)
			a.pos = from.Lerp(to, float64(a.elapsed)/float64(a.cellDuration))
			return MoveResult{}, false
		}
		dt -= need
		a.settle(a.target)
		a.result.Moved++
		if a.halt != nil && a.halt(a.cell) {
			a.moving = false
			a.result.Halted = true
			return a.result, true
		}
		a.nextSegment()
	}

	if a.segment {
		return MoveResult{}, false
	}
	a.moving = false
	return a.result, true
}

// Cancel halts the move immediately and snaps the actor back to the last
// cell it fully reached. It returns the partial result, or the zero value
// when nothing was moving.
func (a *Actor) Cancel() MoveResult {
	if !a.moving {
		return MoveResult{}
	}
	a.settle(a.cell)
	a.moving = false
	a.result.Cancelled = true
	return a.result
}

// ResetTo cancels any move and teleports the actor to p.
func (a *Actor) ResetTo(p grid.Pos) {
	a.moving = false
	a.result = MoveResult{}
	a.settle(p)
}

func (a *Actor) settle(p grid.Pos) {
	a.cell = p
	a.pos = a.g.GridToWorld(p)
	a.segment = false
	a.elapsed = 0
}

// nextSegment prepares the next cell transition, or leaves segment false
// when the move is finished or blocked.
func (a *Actor) nextSegment() {
	a.segment = false
	a.elapsed = 0
	if a.result.Moved >= a.result.Requested || a.result.Dir == grid.DirNone {
		return
	}
	next := a.cell.Step(a.result.Dir)
	if !a.g.IsWalkable(next) {
		a.result.Blocked = true
		return
	}
	a.target = next
	a.segment = true
}
