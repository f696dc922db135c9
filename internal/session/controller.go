// Package session orchestrates one level at a time: it submits source to a
// judge gateway, plays the returned commands on the board, watches for the
// goal and keeps the attempt and hint state.
//
// A Controller is owned by a single goroutine that calls Tick. Judge calls
// and progress saves run through Deps.Dispatch; their results are queued and
// applied on the next Tick, so no state is mutated concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/codequest/internal/actor"
	"github.com/vovakirdan/codequest/internal/command"
	"github.com/vovakirdan/codequest/internal/grid"
	"github.com/vovakirdan/codequest/internal/hints"
	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/sequencer"
)

var (
	// ErrNoLevel is returned before the first Load.
	ErrNoLevel = errors.New("session: no level loaded")
	// ErrNotReady is returned by Run outside the Ready state.
	ErrNotReady = errors.New("session: not ready")
)

// SubmissionID identifies one Run call. Ids grow across levels.
type SubmissionID uint64

// State of the level session.
type State uint8

const (
	StateLoading State = iota
	StateReady
	StateExecuting
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Gateway judge.Gateway
	// Savers receive every completion. Failures are reported as SaveFailed.
	Savers []ProgressSaver
	Logger *log.Logger
	Sink   Sink
	// Dispatch runs blocking work. Defaults to starting a goroutine.
	Dispatch func(func())
	Now      func() time.Time
}

// Options tune the simulation.
type Options struct {
	CellSize float64
	// GoalTolerance is the distance to the goal centre, in cells, below
	// which the goal counts as reached.
	GoalTolerance float64
	CellDuration  time.Duration
	CommandGap    time.Duration
	WaitUnit      time.Duration

	StarTimeThreshold time.Duration
	// ScaleAttempts adjusts a level's attempts per hint tier.
	ScaleAttempts func(k int) int

	Language      string
	TimeLimit     time.Duration
	MemoryLimitMB int
	SaveTimeout   time.Duration
}

// DefaultOptions returns the standard timing: six cells per second, a
// 200ms command gap and 100ms wait units.
func DefaultOptions() Options {
	return Options{
		CellSize:          1,
		GoalTolerance:     0.5,
		CellDuration:      time.Second / 6,
		CommandGap:        200 * time.Millisecond,
		WaitUnit:          100 * time.Millisecond,
		StarTimeThreshold: hints.DefaultTimeThreshold,
		SaveTimeout:       10 * time.Second,
	}
}

type pending struct {
	id      SubmissionID
	outcome judge.Outcome
	// saver results
	saver   string
	receipt Receipt
	err     error
	isSave  bool
}

// Controller is the level session state machine.
type Controller struct {
	deps Deps
	opts Options
	log  *log.Logger

	lvl     level.Level
	loaded  bool
	state   State
	grid    *grid.Grid
	actor   *actor.Actor
	seq     *sequencer.Sequencer
	tracker *hints.Tracker
	run     sequencer.RunID

	submission SubmissionID
	source     string
	elapsed    time.Duration
	stats      hints.Stats

	mu       sync.Mutex
	queue    []pending
	inFlight int
}

// New creates a controller. Gateway is required.
func New(deps Deps, opts Options) *Controller {
	def := DefaultOptions()
	if opts.CellSize <= 0 {
		opts.CellSize = def.CellSize
	}
	if opts.GoalTolerance <= 0 {
		opts.GoalTolerance = def.GoalTolerance
	}
	if opts.StarTimeThreshold <= 0 {
		opts.StarTimeThreshold = def.StarTimeThreshold
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = def.SaveTimeout
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Sink == nil {
		deps.Sink = discardSink{}
	}
	if deps.Dispatch == nil {
		deps.Dispatch = func(f func()) { go f() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps, opts: opts, log: deps.Logger}
}

// Load applies a level definition and resets the attempt state. Any run
// of the previous level is cancelled and its late results are ignored.
func (c *Controller) Load(l level.Level) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("session: cannot load level %q: %w", l.ID, err)
	}

	c.state = StateLoading
	if c.seq != nil {
		c.seq.Cancel()
	}

	k := l.AttemptsBeforeFirstHint
	if c.opts.ScaleAttempts != nil {
		k = c.opts.ScaleAttempts(k)
	}

	c.lvl = l
	c.loaded = true
	c.grid = l.Grid(c.opts.CellSize)
	c.actor = actor.New(c.grid, l.Start, c.opts.CellDuration)
	// a long tick or instant moves can carry the actor across the goal
	c.actor.HaltWhen(func(grid.Pos) bool {
		return c.state == StateExecuting && c.atGoal()
	})
	c.seq = sequencer.New(c.actor, sequencer.Options{
		Gap:        c.opts.CommandGap,
		WaitUnit:   c.opts.WaitUnit,
		OnFinished: c.onFinished,
		OnCommand:  c.onCommand,
	})
	if c.tracker == nil {
		c.tracker = hints.NewTracker(k, l.Hints, l.SolutionCode)
	} else {
		c.tracker.Reset(k, l.Hints, l.SolutionCode)
	}
	c.tracker.SetTimeThreshold(c.opts.StarTimeThreshold)
	c.run = 0
	c.source = ""
	c.elapsed = 0
	c.stats = hints.Stats{}

	c.state = StateReady
	c.log.Info("level loaded", "level", l.ID, "k", c.tracker.Snapshot().K)
	c.emit(LevelLoaded{
		LevelID: l.ID,
		Title:   l.Title(),
		Start:   l.Start,
		Goal:    l.Goal,
		K:       c.tracker.Snapshot().K,
	})
	return nil
}

// Run submits source. The outcome is applied on a later Tick. Runs are
// only accepted in the Ready state; the actor restarts from the level
// start.
func (c *Controller) Run(ctx context.Context, source string) (SubmissionID, error) {
	if !c.loaded {
		return 0, ErrNoLevel
	}
	if c.state != StateReady {
		return 0, fmt.Errorf("%w: %s", ErrNotReady, c.state)
	}

	c.submission++
	id := c.submission
	c.source = source
	c.state = StateExecuting
	c.actor.ResetTo(c.lvl.Start)

	c.log.Info("run started", "level", c.lvl.ID, "submission", id)
	c.emit(RunStarted{Submission: id})
	for _, issue := range c.lvl.Check(source) {
		c.emit(ValidationHint{Submission: id, Issue: issue})
	}

	if judge.IsBlank(source) {
		c.enqueue(pending{id: id, outcome: judge.RuntimeError(judge.MsgEmptySource)})
		return id, nil
	}

	sub := judge.Submission{
		Source:        source,
		LevelID:       c.lvl.ID,
		Language:      c.opts.Language,
		TimeLimit:     c.opts.TimeLimit,
		MemoryLimitMB: c.opts.MemoryLimitMB,
	}
	gw := c.deps.Gateway
	c.deps.Dispatch(func() {
		out := gw.Submit(ctx, sub)
		c.enqueue(pending{id: id, outcome: out})
	})
	return id, nil
}

// Tick advances the session by dt: queued results are applied, the
// sequence is stepped and the goal is checked.
func (c *Controller) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	for _, p := range c.drain() {
		if p.isSave {
			c.applySave(p)
			continue
		}
		c.applyOutcome(p)
	}

	if !c.loaded || c.state == StateSucceeded {
		return
	}
	c.elapsed += dt

	if c.state != StateExecuting {
		return
	}
	c.seq.Step(dt)
	if c.state == StateExecuting && c.atGoal() {
		c.succeed()
	}
}

// Reset cancels any execution and returns the actor to the level start.
// Attempt and hint counters are kept. A completed level stays Succeeded
// rather than returning to Ready, so Run stays closed until the next Load.
func (c *Controller) Reset() {
	if !c.loaded {
		return
	}
	if c.state == StateExecuting {
		// late judge results are dropped by the state check
		c.state = StateReady
	}
	c.seq.Cancel()
	c.actor.ResetTo(c.lvl.Start)
	c.log.Debug("level reset", "level", c.lvl.ID)
	c.emit(ResetDone{Cell: c.lvl.Start})
}

// UseSolution returns the reference solution once it is unlocked.
func (c *Controller) UseSolution() (string, error) {
	if !c.loaded {
		return "", ErrNoLevel
	}
	sol, err := c.tracker.UseSolution()
	if err != nil {
		return "", err
	}
	c.log.Info("solution used", "level", c.lvl.ID)
	return sol, nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Level returns the loaded level.
func (c *Controller) Level() (level.Level, bool) { return c.lvl, c.loaded }

// Grid returns the board of the loaded level.
func (c *Controller) Grid() *grid.Grid { return c.grid }

// ActorCell returns the actor's settled cell.
func (c *Controller) ActorCell() grid.Pos {
	if c.actor == nil {
		return grid.Pos{}
	}
	return c.actor.Cell()
}

// ActorWorld returns the interpolated actor position.
func (c *Controller) ActorWorld() grid.Vec {
	if c.actor == nil {
		return grid.Vec{}
	}
	return c.actor.World()
}

// Attempts returns the attempt and hint state.
func (c *Controller) Attempts() hints.State {
	if c.tracker == nil {
		return hints.State{}
	}
	return c.tracker.Snapshot()
}

// Hints returns the hint texts unlocked so far.
func (c *Controller) Hints() []string {
	if c.tracker == nil {
		return nil
	}
	return c.tracker.UnlockedHints()
}

// Progress returns the executing command index and the command count.
func (c *Controller) Progress() (int, int) {
	if c.seq == nil || !c.seq.Running() {
		return 0, 0
	}
	return c.seq.Progress()
}

// Elapsed is the simulated time spent on the level.
func (c *Controller) Elapsed() time.Duration { return c.elapsed }

// Stats returns the frozen completion statistics.
func (c *Controller) Stats() (hints.Stats, bool) {
	return c.stats, c.state == StateSucceeded
}

// SavesInFlight counts saver calls that have not returned yet.
func (c *Controller) SavesInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Idle reports whether nothing is executing or waiting to be applied.
func (c *Controller) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateExecuting && c.inFlight == 0 && len(c.queue) == 0
}

func (c *Controller) applyOutcome(p pending) {
	if p.id != c.submission || c.state != StateExecuting {
		c.log.Debug("stale outcome dropped", "submission", p.id, "current", c.submission)
		return
	}

	out := p.outcome
	if !out.OK() {
		c.log.Info("run rejected", "level", c.lvl.ID, "submission", p.id, "kind", out.Kind, "message", out.Message)
		c.fail(reasonFor(out.Kind), out.Message)
		return
	}

	c.emit(CommandsReceived{Submission: p.id, Commands: out.Commands, Output: out.Output})
	// Start reports the first command, or an empty run's Finished, before
	// it returns.
	c.run = c.seq.Current() + 1
	c.run = c.seq.Start(out.Commands)
}

func (c *Controller) onCommand(run sequencer.RunID, index int, cmd command.Command) {
	if run != c.run || c.state != StateExecuting {
		return
	}
	_, total := c.seq.Progress()
	c.emit(CommandStarted{Submission: c.submission, Index: index, Total: total, Command: cmd})
}

func (c *Controller) onFinished(f sequencer.Finished) {
	if f.Run != c.run || c.state != StateExecuting {
		return
	}
	if c.atGoal() {
		c.succeed()
		return
	}
	msg := fmt.Sprintf("finished at %s after %d of %d commands", c.actor.Cell(), f.Executed, f.Total)
	if f.Blocked > 0 {
		msg += fmt.Sprintf(", %d blocked", f.Blocked)
	}
	c.fail(FailMissedGoal, msg)
}

func (c *Controller) atGoal() bool {
	goal := c.grid.GridToWorld(c.lvl.Goal)
	return c.actor.World().Dist(goal) < c.opts.GoalTolerance*c.opts.CellSize
}

func (c *Controller) fail(reason FailReason, msg string) {
	id := c.submission
	c.state = StateReady

	u, err := c.tracker.RecordFailure()
	if err != nil {
		c.log.Warn("failure not recorded", "level", c.lvl.ID, "error", err)
		return
	}
	c.recordAttempt(id, reason.String(), msg)

	c.emit(RunFailed{
		Submission:        id,
		Reason:            reason,
		Message:           msg,
		Failed:            u.Failed,
		Tier:              u.Tier,
		AttemptsUntilNext: u.AttemptsUntilNext,
	})
	if u.NewlyUnlocked && u.Hint != "" {
		c.emit(HintUnlocked{Tier: u.Tier, Hint: u.Hint})
	}
	if u.RevealSolution {
		c.emit(SolutionAvailable{Failed: u.Failed})
	}
}

func (c *Controller) succeed() {
	c.state = StateSucceeded
	c.seq.Cancel()
	c.actor.ResetTo(c.lvl.Goal)

	stats, _ := c.tracker.Complete(c.elapsed)
	c.stats = stats
	lines := CountCodeLines(c.source)

	c.log.Info("level completed", "level", c.lvl.ID, "stars", stats.Stars, "failed", stats.Failed, "elapsed", stats.Elapsed)
	c.recordAttempt(c.submission, "success", "")
	c.emit(LevelCompleted{
		LevelID:    c.lvl.ID,
		Submission: c.submission,
		Stats:      stats,
		CodeLines:  lines,
	})

	comp := Completion{
		LevelID:        c.lvl.ID,
		Stars:          stats.Stars,
		Elapsed:        stats.Elapsed,
		FailedAttempts: stats.Failed,
		HintsUsed:      stats.HintsUsed,
		CodeLines:      lines,
		Source:         c.source,
		SolvedAt:       c.deps.Now(),
	}
	for _, s := range c.deps.Savers {
		c.save(s, comp)
	}
}

func (c *Controller) save(s ProgressSaver, comp Completion) {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()

	timeout := c.opts.SaveTimeout
	c.deps.Dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r, err := s.SaveProgress(ctx, comp)
		c.mu.Lock()
		c.inFlight--
		c.queue = append(c.queue, pending{isSave: true, saver: s.Name(), receipt: r, err: err})
		c.mu.Unlock()
	})
}

func (c *Controller) applySave(p pending) {
	if p.err != nil {
		c.log.Warn("progress not saved", "saver", p.saver, "error", p.err)
		c.emit(SaveFailed{Saver: p.saver, Err: p.err})
		return
	}
	c.log.Debug("progress saved", "saver", p.saver, "xp", p.receipt.XPGained)
	c.emit(ProgressSaved{Saver: p.saver, Receipt: p.receipt})
}

func (c *Controller) recordAttempt(id SubmissionID, outcome, msg string) {
	a := Attempt{
		LevelID:    c.lvl.ID,
		Submission: id,
		Outcome:    outcome,
		Message:    msg,
		At:         c.deps.Now(),
	}
	timeout := c.opts.SaveTimeout
	for _, s := range c.deps.Savers {
		rec, ok := s.(AttemptRecorder)
		if !ok {
			continue
		}
		name := s.Name()
		c.mu.Lock()
		c.inFlight++
		c.mu.Unlock()
		c.deps.Dispatch(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := rec.RecordAttempt(ctx, a); err != nil {
				c.log.Warn("attempt not recorded", "saver", name, "error", err)
			}
			c.mu.Lock()
			c.inFlight--
			c.mu.Unlock()
		})
	}
}

func (c *Controller) enqueue(p pending) {
	c.mu.Lock()
	c.queue = append(c.queue, p)
	c.mu.Unlock()
}

func (c *Controller) drain() []pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func (c *Controller) emit(evt Event) {
	c.deps.Sink.Send(evt)
}
