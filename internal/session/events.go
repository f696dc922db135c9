package session

import (
	"github.com/vovakirdan/codequest/internal/command"
	"github.com/vovakirdan/codequest/internal/grid"
	"github.com/vovakirdan/codequest/internal/hints"
	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
)

// Event is something the controller reports to the UI.
type Event interface {
	sessionEvent()
}

// LevelLoaded is sent when a level becomes Ready.
type LevelLoaded struct {
	LevelID string
	Title   string
	Start   grid.Pos
	Goal    grid.Pos
	// K is the scaled number of failures per hint tier.
	K int
}

func (LevelLoaded) sessionEvent() {}

// RunStarted is sent when a submission is accepted.
type RunStarted struct {
	Submission SubmissionID
}

func (RunStarted) sessionEvent() {}

// ValidationHint reports a level validation the source does not satisfy.
// It is advisory and never fails the run.
type ValidationHint struct {
	Submission SubmissionID
	Issue      level.Issue
}

func (ValidationHint) sessionEvent() {}

// CommandsReceived is sent when the judge accepted the source.
type CommandsReceived struct {
	Submission SubmissionID
	Commands   []command.Command
	Output     string
}

func (CommandsReceived) sessionEvent() {}

// CommandStarted is sent as each command begins executing.
type CommandStarted struct {
	Submission SubmissionID
	Index      int
	Total      int
	Command    command.Command
}

func (CommandStarted) sessionEvent() {}

// FailReason classifies a failed run.
type FailReason uint8

const (
	FailCompile FailReason = iota + 1
	FailRuntime
	FailTransport
	FailMissedGoal // commands ran out before the goal was reached
)

func (r FailReason) String() string {
	switch r {
	case FailCompile:
		return "compile error"
	case FailRuntime:
		return "runtime error"
	case FailTransport:
		return "transport error"
	case FailMissedGoal:
		return "goal not reached"
	default:
		return "unknown"
	}
}

func reasonFor(k judge.Kind) FailReason {
	switch k {
	case judge.KindCompileError:
		return FailCompile
	case judge.KindRuntimeError:
		return FailRuntime
	default:
		return FailTransport
	}
}

// RunFailed is sent once per failed submission.
type RunFailed struct {
	Submission        SubmissionID
	Reason            FailReason
	Message           string
	Failed            int
	Tier              int
	AttemptsUntilNext int
}

func (RunFailed) sessionEvent() {}

// HintUnlocked is sent when a tier 1-3 hint becomes visible.
type HintUnlocked struct {
	Tier int
	Hint string
}

func (HintUnlocked) sessionEvent() {}

// SolutionAvailable is sent when the reference solution can be requested.
type SolutionAvailable struct {
	Failed int
}

func (SolutionAvailable) sessionEvent() {}

// LevelCompleted is sent exactly once, when the actor reaches the goal.
type LevelCompleted struct {
	LevelID    string
	Submission SubmissionID
	Stats      hints.Stats
	CodeLines  int
}

func (LevelCompleted) sessionEvent() {}

// ProgressSaved is sent for every saver that stored the completion.
type ProgressSaved struct {
	Saver   string
	Receipt Receipt
}

func (ProgressSaved) sessionEvent() {}

// SaveFailed is a non-fatal notice; the level stays completed.
type SaveFailed struct {
	Saver string
	Err   error
}

func (SaveFailed) sessionEvent() {}

// ResetDone is sent after Reset returned the actor to its start.
type ResetDone struct {
	Cell grid.Pos
}

func (ResetDone) sessionEvent() {}

// Sink receives controller events. Send must not block.
type Sink interface {
	Send(evt Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Send calls f.
func (f SinkFunc) Send(evt Event) { f(evt) }

type discardSink struct{}

func (discardSink) Send(Event) {}
