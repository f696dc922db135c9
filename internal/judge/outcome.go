// Package judge turns submitted source text into an execution outcome.
//
// A Gateway always resolves a submission to exactly one Outcome; failures
// are outcomes, not Go errors. Client talks to a remote judge over HTTP,
// Local interprets the source in process and Server exposes any Gateway
// over the judge wire format.
package judge

import (
	"context"
	"strings"
	"time"

	"github.com/vovakirdan/codequest/internal/command"
)

// Kind tags the outcome variant.
type Kind uint8

const (
	KindSuccess Kind = iota + 1
	KindCompileError
	KindRuntimeError
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCompileError:
		return "compile error"
	case KindRuntimeError:
		return "runtime error"
	case KindTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// Outcome is the single result of one submission.
type Outcome struct {
	Kind     Kind
	Commands []command.Command
	Message  string
	// Output is whatever the program printed, when the judge reports it.
	Output  string
	Details string
}

// OK reports whether the submission produced a command list.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// Success builds a successful outcome.
func Success(cmds []command.Command, output string) Outcome {
	return Outcome{Kind: KindSuccess, Commands: cmds, Output: output}
}

// CompileError builds a compile error outcome.
func CompileError(msg string) Outcome {
	return Outcome{Kind: KindCompileError, Message: msg}
}

// RuntimeError builds a runtime error outcome.
func RuntimeError(msg string) Outcome {
	return Outcome{Kind: KindRuntimeError, Message: msg}
}

// TransportError builds a transport error outcome.
func TransportError(msg string) Outcome {
	return Outcome{Kind: KindTransportError, Message: msg}
}

// Submission is one request to run source text for a level.
type Submission struct {
	Source        string
	LevelID       string
	Language      string
	TimeLimit     time.Duration
	MemoryLimitMB int
}

// Gateway executes submissions.
type Gateway interface {
	Submit(ctx context.Context, sub Submission) Outcome
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, sub Submission) Outcome

// Submit calls f(ctx, sub).
func (f GatewayFunc) Submit(ctx context.Context, sub Submission) Outcome {
	return f(ctx, sub)
}

// MsgEmptySource is the runtime error reported for blank submissions.
const MsgEmptySource = "source is empty"

// IsBlank reports whether source contains only whitespace.
func IsBlank(source string) bool {
	return strings.TrimSpace(source) == ""
}
