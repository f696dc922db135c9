package judge

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/codequest/internal/command"
)

// Judge wire statuses.
const (
	StatusSuccess          = "success"
	StatusCompilationError = "compilation_error"
	StatusRuntimeError     = "runtime_error"
)

// Request is the judge request body.
type Request struct {
	Code        string `json:"code"`
	Language    string `json:"language"`
	TimeLimit   int    `json:"timeLimit"`
	MemoryLimit int    `json:"memoryLimit"`
	LevelID     string `json:"levelId,omitempty"`
}

// Response is the judge response body.
type Response struct {
	Success          bool             `json:"success"`
	Status           string           `json:"status"`
	Error            string           `json:"error,omitempty"`
	CompilationError string           `json:"compilationError,omitempty"`
	Details          string           `json:"details,omitempty"`
	Output           string           `json:"output,omitempty"`
	Commands         []command.Action `json:"commands,omitempty"`
}

// ErrorResponse is the body some judges return with non-2xx statuses.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Outcome maps a decoded response to an outcome. Responses with neither a
// status nor success, or that claim success but carry unknown actions or
// an unknown status, are treated as malformed.
func (r Response) Outcome() Outcome {
	status := strings.ToLower(strings.TrimSpace(r.Status))

	switch {
	case r.Success && (status == StatusSuccess || status == ""):
		cmds, err := command.Decode(r.Commands)
		if err != nil {
			return TransportError(fmt.Sprintf("malformed judge response: %v", err))
		}
		o := Success(cmds, r.Output)
		o.Details = r.Details
		return o

	case status == StatusCompilationError:
		msg := r.Error
		if msg == "" {
			msg = r.CompilationError
		}
		o := CompileError(orDefault(msg, "compilation failed"))
		o.Details = r.Details
		o.Output = r.Output
		return o

	case status == "" && !r.Success:
		return TransportError("malformed judge response: missing status")

	case status == StatusRuntimeError || !r.Success:
		o := RuntimeError(orDefault(r.Error, "execution failed"))
		o.Details = r.Details
		o.Output = r.Output
		return o

	default:
		return TransportError(fmt.Sprintf("malformed judge response: unknown status %q", r.Status))
	}
}

// ResponseFor encodes an outcome in the judge wire format.
func ResponseFor(o Outcome) Response {
	switch o.Kind {
	case KindSuccess:
		return Response{
			Success:  true,
			Status:   StatusSuccess,
			Output:   o.Output,
			Details:  o.Details,
			Commands: command.Encode(o.Commands),
		}
	case KindCompileError:
		return Response{Status: StatusCompilationError, Error: o.Message, Details: o.Details}
	default:
		return Response{Status: StatusRuntimeError, Error: o.Message, Details: o.Details, Output: o.Output}
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
