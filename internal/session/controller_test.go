package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/codequest/internal/command"
	"github.com/vovakirdan/codequest/internal/grid"
	"github.com/vovakirdan/codequest/internal/hints"
	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
)

const tick = 10 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Send(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) count(match func(Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isFailed(e Event) bool    { _, ok := e.(RunFailed); return ok }
func isCompleted(e Event) bool { _, ok := e.(LevelCompleted); return ok }

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) failures() []RunFailed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RunFailed
	for _, e := range r.events {
		if f, ok := e.(RunFailed); ok {
			out = append(out, f)
		}
	}
	return out
}

func syncDispatch(f func()) { f() }

func lineLevel() level.Level {
	return level.Level{
		ID:                      "t-1",
		Name:                    "line",
		Width:                   8,
		Height:                  1,
		Start:                   grid.P(0, 0),
		Goal:                    grid.P(3, 0),
		AttemptsBeforeFirstHint: 1,
		Hints:                   []string{"one", "two", "three"},
		SolutionCode:            "Player.moveRight(3);",
	}
}

func commands(cmds ...command.Command) judge.Gateway {
	return judge.GatewayFunc(func(context.Context, judge.Submission) judge.Outcome {
		return judge.Success(cmds, "")
	})
}

func newController(t *testing.T, gw judge.Gateway, rec *recorder, savers ...ProgressSaver) *Controller {
	t.Helper()
	c := New(Deps{
		Gateway:  gw,
		Savers:   savers,
		Sink:     rec,
		Dispatch: syncDispatch,
	}, DefaultOptions())
	if err := c.Load(lineLevel()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return c
}

func runUntilIdle(c *Controller, limit int) {
	for i := 0; i < limit && c.State() == StateExecuting; i++ {
		c.Tick(tick)
	}
}

func TestRunReachesGoal(t *testing.T) {
	rec := &recorder{}
	c := newController(t, judge.NewLocal(), rec)

	if _, err := c.Run(context.Background(), "Player.moveRight(3);"); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	runUntilIdle(c, 1000)

	if c.State() != StateSucceeded {
		t.Fatalf("state = %s, want succeeded", c.State())
	}
	if n := rec.count(isCompleted); n != 1 {
		t.Errorf("LevelCompleted sent %d times, want 1", n)
	}
	if n := rec.count(isFailed); n != 0 {
		t.Errorf("RunFailed sent %d times, want 0", n)
	}
	stats, ok := c.Stats()
	if !ok || stats.Stars != 3 {
		t.Errorf("Stats() = %+v, %v; want 3 stars", stats, ok)
	}
	if c.ActorCell() != grid.P(3, 0) {
		t.Errorf("actor at %v, want goal", c.ActorCell())
	}
}

func TestBlankSourceFailsWithoutGatewayCall(t *testing.T) {
	calls := 0
	gw := judge.GatewayFunc(func(context.Context, judge.Submission) judge.Outcome {
		calls++
		return judge.Success(nil, "")
	})
	rec := &recorder{}
	c := newController(t, gw, rec)

	if _, err := c.Run(context.Background(), "  \n\t "); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	c.Tick(0)

	if calls != 0 {
		t.Errorf("gateway called %d times for blank source", calls)
	}
	fails := rec.failures()
	if len(fails) != 1 {
		t.Fatalf("got %d failures, want 1", len(fails))
	}
	if fails[0].Reason != FailRuntime || fails[0].Message != judge.MsgEmptySource {
		t.Errorf("failure = %+v, want runtime error %q", fails[0], judge.MsgEmptySource)
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
}

func TestGoalMidSequenceCancelsRest(t *testing.T) {
	rec := &recorder{}
	started := 0
	sink := SinkFunc(func(e Event) {
		if _, ok := e.(CommandStarted); ok {
			started++
		}
		rec.Send(e)
	})
	c := New(Deps{
		Gateway:  commands(command.Move(grid.DirRight, 5), command.Move(grid.DirLeft, 5)),
		Sink:     sink,
		Dispatch: syncDispatch,
	}, DefaultOptions())
	if err := c.Load(lineLevel()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Run(context.Background(), "moveRight(5); moveLeft(5);"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)
	for i := 0; i < 200; i++ {
		c.Tick(tick)
	}

	if c.State() != StateSucceeded {
		t.Fatalf("state = %s, want succeeded", c.State())
	}
	if started != 1 {
		t.Errorf("%d commands started, want 1", started)
	}
	if n := rec.count(isFailed); n != 0 {
		t.Errorf("RunFailed sent %d times after success", n)
	}
	if n := rec.count(isCompleted); n != 1 {
		t.Errorf("LevelCompleted sent %d times, want 1", n)
	}
	if c.ActorCell() != grid.P(3, 0) {
		t.Errorf("actor at %v, want goal", c.ActorCell())
	}
}

func TestGoalCrossedWithinOneTick(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		dt       time.Duration
	}{
		{"instant moves", 0, tick},
		{"long tick", time.Second / 6, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			opts := DefaultOptions()
			opts.CellDuration = tt.duration
			c := New(Deps{
				Gateway:  commands(command.Move(grid.DirRight, 5)),
				Sink:     rec,
				Dispatch: syncDispatch,
			}, opts)
			if err := c.Load(lineLevel()); err != nil {
				t.Fatal(err)
			}

			if _, err := c.Run(context.Background(), "moveRight(5);"); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 100 && c.State() == StateExecuting; i++ {
				c.Tick(tt.dt)
			}

			if c.State() != StateSucceeded {
				t.Fatalf("state = %s at %v, want succeeded", c.State(), c.ActorCell())
			}
			if c.ActorCell() != grid.P(3, 0) {
				t.Errorf("actor at %v, want goal", c.ActorCell())
			}
			if got := c.Attempts().Failed; got != 0 {
				t.Errorf("Failed = %d, want 0", got)
			}
			if n := rec.count(isCompleted); n != 1 {
				t.Errorf("LevelCompleted sent %d times, want 1", n)
			}
		})
	}
}

func TestMissedGoalCountsFailure(t *testing.T) {
	rec := &recorder{}
	c := newController(t, commands(command.Move(grid.DirRight, 1)), rec)

	if _, err := c.Run(context.Background(), "moveRight(1);"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)

	fails := rec.failures()
	if len(fails) != 1 {
		t.Fatalf("got %d failures, want 1", len(fails))
	}
	if fails[0].Reason != FailMissedGoal || fails[0].Failed != 1 {
		t.Errorf("failure = %+v", fails[0])
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
}

func TestEmptyCommandListFails(t *testing.T) {
	rec := &recorder{}
	c := newController(t, commands(), rec)

	if _, err := c.Run(context.Background(), "int x = 1;"); err != nil {
		t.Fatal(err)
	}
	c.Tick(tick)

	if n := rec.count(isFailed); n != 1 {
		t.Errorf("RunFailed sent %d times, want 1", n)
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
}

func TestFailuresUnlockHintsAndSolution(t *testing.T) {
	gw := judge.GatewayFunc(func(context.Context, judge.Submission) judge.Outcome {
		return judge.CompileError("line 1: nope")
	})
	rec := &recorder{}
	c := newController(t, gw, rec)

	var unlocked []string
	reveal := 0
	for i := 1; i <= 4; i++ {
		if _, err := c.UseSolution(); !errors.Is(err, hints.ErrSolutionLocked) {
			t.Fatalf("attempt %d: UseSolution() error = %v, want locked", i, err)
		}
		if _, err := c.Run(context.Background(), "bad"); err != nil {
			t.Fatal(err)
		}
		c.Tick(tick)
		switch e := rec.last().(type) {
		case HintUnlocked:
			unlocked = append(unlocked, e.Hint)
		case SolutionAvailable:
			reveal++
		}
	}

	want := []string{"one", "two", "three"}
	if len(unlocked) != len(want) {
		t.Fatalf("unlocked = %v, want %v", unlocked, want)
	}
	for i := range want {
		if unlocked[i] != want[i] {
			t.Errorf("hint %d = %q, want %q", i+1, unlocked[i], want[i])
		}
	}
	if reveal != 1 {
		t.Errorf("SolutionAvailable sent %d times, want 1", reveal)
	}

	sol, err := c.UseSolution()
	if err != nil || sol != "Player.moveRight(3);" {
		t.Errorf("UseSolution() = %q, %v", sol, err)
	}
	if got := c.Attempts().HintsUsed; got != 1 {
		t.Errorf("HintsUsed = %d, want 1", got)
	}
	if got := rec.failures()[3].Reason; got != FailCompile {
		t.Errorf("reason = %s, want compile error", got)
	}
}

func TestStaleOutcomeIsDropped(t *testing.T) {
	var queued []func()
	rec := &recorder{}
	c := New(Deps{
		Gateway: judge.GatewayFunc(func(_ context.Context, sub judge.Submission) judge.Outcome {
			if sub.Source == "first" {
				return judge.Success([]command.Command{command.Move(grid.DirRight, 3)}, "")
			}
			return judge.RuntimeError("second failed")
		}),
		Sink:     rec,
		Dispatch: func(f func()) { queued = append(queued, f) },
	}, DefaultOptions())
	if err := c.Load(lineLevel()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Run(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	c.Reset()
	second, err := c.Run(context.Background(), "second")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range queued {
		f()
	}
	c.Tick(tick)

	if n := rec.count(func(e Event) bool { _, ok := e.(CommandsReceived); return ok }); n != 0 {
		t.Errorf("stale success applied %d times", n)
	}
	fails := rec.failures()
	if len(fails) != 1 || fails[0].Submission != second {
		t.Errorf("failures = %+v, want only submission %d", fails, second)
	}
}

func TestRunRejectedUnlessReady(t *testing.T) {
	c := New(Deps{Gateway: commands(command.Move(grid.DirRight, 1)), Dispatch: syncDispatch}, DefaultOptions())
	if _, err := c.Run(context.Background(), "x"); !errors.Is(err, ErrNoLevel) {
		t.Errorf("Run() before Load error = %v, want ErrNoLevel", err)
	}
	if err := c.Load(lineLevel()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), "x"); !errors.Is(err, ErrNotReady) {
		t.Errorf("second Run() error = %v, want ErrNotReady", err)
	}
}

func TestResetKeepsCounters(t *testing.T) {
	rec := &recorder{}
	c := newController(t, commands(command.Move(grid.DirRight, 1)), rec)

	if _, err := c.Run(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)
	if _, err := c.Run(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	c.Tick(tick)
	c.Reset()

	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
	if c.ActorCell() != grid.P(0, 0) {
		t.Errorf("actor at %v, want start", c.ActorCell())
	}
	if got := c.Attempts().Failed; got != 1 {
		t.Errorf("Failed = %d after reset, want 1", got)
	}
	for i := 0; i < 100; i++ {
		c.Tick(tick)
	}
	if n := rec.count(isFailed); n != 1 {
		t.Errorf("RunFailed sent %d times, want 1 (reset is not a failure)", n)
	}
}

type fakeSaver struct {
	name     string
	err      error
	mu       sync.Mutex
	saved    []Completion
	attempts []Attempt
}

func (f *fakeSaver) Name() string { return f.name }

func (f *fakeSaver) SaveProgress(_ context.Context, c Completion) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Receipt{}, f.err
	}
	f.saved = append(f.saved, c)
	return Receipt{XPGained: 10}, nil
}

func (f *fakeSaver) RecordAttempt(_ context.Context, a Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	return nil
}

func TestCompletionFansOutToSavers(t *testing.T) {
	good := &fakeSaver{name: "local"}
	bad := &fakeSaver{name: "remote", err: errors.New("offline")}
	rec := &recorder{}
	c := newController(t, judge.NewLocal(), rec, good, bad)

	if _, err := c.Run(context.Background(), "Player.moveRight(1);"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)
	src := "// walk\nPlayer.moveRight(3);\n"
	if _, err := c.Run(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)
	c.Tick(tick)

	if c.State() != StateSucceeded {
		t.Fatalf("state = %s, want succeeded", c.State())
	}
	if len(good.saved) != 1 {
		t.Fatalf("saved %d completions, want 1", len(good.saved))
	}
	got := good.saved[0]
	if got.LevelID != "t-1" || got.FailedAttempts != 1 || got.Stars != 3 || got.CodeLines != 1 {
		t.Errorf("completion = %+v", got)
	}
	if len(good.attempts) != 2 || good.attempts[1].Outcome != "success" {
		t.Errorf("attempts = %+v", good.attempts)
	}
	if n := rec.count(func(e Event) bool { _, ok := e.(SaveFailed); return ok }); n != 1 {
		t.Errorf("SaveFailed sent %d times, want 1", n)
	}
	if n := rec.count(func(e Event) bool { _, ok := e.(ProgressSaved); return ok }); n != 1 {
		t.Errorf("ProgressSaved sent %d times, want 1", n)
	}
	if c.SavesInFlight() != 0 || !c.Idle() {
		t.Error("controller should be idle after saves")
	}
}

func TestLoadStartsFreshAttempts(t *testing.T) {
	rec := &recorder{}
	c := newController(t, judge.NewLocal(), rec)

	for _, src := range []string{"Player.moveLeft(1);", "Player.moveRight(3);"} {
		if _, err := c.Run(context.Background(), src); err != nil {
			t.Fatal(err)
		}
		runUntilIdle(c, 1000)
	}
	stats, ok := c.Stats()
	if !ok || stats.Failed != 1 {
		t.Fatalf("Stats() = %+v, %v", stats, ok)
	}

	next := lineLevel()
	next.ID = "t-2"
	if err := c.Load(next); err != nil {
		t.Fatal(err)
	}
	if got := c.Attempts(); got.Failed != 0 || got.Tier != 0 || got.Completed {
		t.Errorf("attempts after Load = %+v, want fresh", got)
	}
	if stats.Failed != 1 {
		t.Errorf("earlier stats changed: %+v", stats)
	}
}

func TestValidationHintsAreAdvisory(t *testing.T) {
	l := lineLevel()
	l.Validations = []level.Validation{{Pattern: `for\s*\(`, Hint: "use a loop"}}
	rec := &recorder{}
	c := New(Deps{Gateway: judge.NewLocal(), Sink: rec, Dispatch: syncDispatch}, DefaultOptions())
	if err := c.Load(l); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Run(context.Background(), "Player.moveRight(3);"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(c, 1000)

	if n := rec.count(func(e Event) bool { _, ok := e.(ValidationHint); return ok }); n != 1 {
		t.Errorf("ValidationHint sent %d times, want 1", n)
	}
	if c.State() != StateSucceeded {
		t.Errorf("state = %s, want succeeded", c.State())
	}
}

func TestBuiltinSolutionsSolveTheirLevels(t *testing.T) {
	levels, err := level.NewCatalog().LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(levels) == 0 {
		t.Fatal("no built-in levels")
	}
	for _, l := range levels {
		t.Run(l.ID, func(t *testing.T) {
			c := New(Deps{Gateway: judge.NewLocal(), Dispatch: syncDispatch}, DefaultOptions())
			if err := c.Load(l); err != nil {
				t.Fatal(err)
			}
			if _, err := c.Run(context.Background(), l.SolutionCode); err != nil {
				t.Fatal(err)
			}
			runUntilIdle(c, 20000)
			if c.State() != StateSucceeded {
				t.Errorf("solution left actor at %v, goal %v", c.ActorCell(), l.Goal)
			}
		})
	}
}

func TestCountCodeLines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"empty", "", 0},
		{"blank lines", "\n  \n", 0},
		{"comments only", "// a\n/* b\n c */\n", 0},
		{"code", "int x = 1;\nPlayer.moveRight(x);\n", 2},
		{"mixed", "// walk\nPlayer.moveRight(2); // go\n/* skip */ wait(1);\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountCodeLines(tt.src); got != tt.want {
				t.Errorf("CountCodeLines() = %d, want %d", got, tt.want)
			}
		})
	}
}
