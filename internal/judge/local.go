package judge

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// MsgNoCommands is the runtime error for programs that never move or wait.
const MsgNoCommands = "program produced no commands"

// Local interprets a Java-like subset in process: Player.moveRight(n),
// moveLeft, moveUp, moveDown, wait(n), int variables with arithmetic, if,
// for and while, and System.out.println. An optional class and main
// method wrapper is accepted.
type Local struct {
	limits Limits
	logger *log.Logger
}

// LocalOption configures a Local judge.
type LocalOption func(*Local)

// WithLocalLimits overrides the interpreter limits.
func WithLocalLimits(l Limits) LocalOption {
	return func(j *Local) {
		j.limits = l
	}
}

// WithLocalLogger sets the logger.
func WithLocalLogger(l *log.Logger) LocalOption {
	return func(j *Local) {
		if l != nil {
			j.logger = l
		}
	}
}

// NewLocal creates an in-process judge.
func NewLocal(opts ...LocalOption) *Local {
	j := &Local{
		limits: DefaultLimits(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Submit compiles and runs the source.
func (j *Local) Submit(ctx context.Context, sub Submission) Outcome {
	if IsBlank(sub.Source) {
		return RuntimeError(MsgEmptySource)
	}
	if err := ctx.Err(); err != nil {
		return TransportError("submission cancelled")
	}

	cmds, output, err := interpret(sub.Source, j.limits)

	var (
		ce *compileError
		re *runtimeError
	)
	switch {
	case errors.As(err, &ce):
		j.logger.Debug("compile error", "level", sub.LevelID, "error", ce)
		return CompileError(ce.Error())
	case errors.As(err, &re):
		j.logger.Debug("runtime error", "level", sub.LevelID, "error", re)
		o := RuntimeError(re.Error())
		o.Output = output
		return o
	case err != nil:
		return RuntimeError(err.Error())
	}

	if len(cmds) == 0 {
		o := RuntimeError(MsgNoCommands)
		o.Output = output
		return o
	}
	j.logger.Debug("program ran", "level", sub.LevelID, "commands", len(cmds))
	return Success(cmds, output)
}
