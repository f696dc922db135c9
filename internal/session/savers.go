package session

import (
	"bufio"
	"context"
	"strings"
	"time"
)

// Completion is the record handed to every ProgressSaver.
type Completion struct {
	LevelID        string
	Stars          int
	Elapsed        time.Duration
	FailedAttempts int
	HintsUsed      int
	CodeLines      int
	Source         string
	SolvedAt       time.Time
}

// CompletionSeconds is the elapsed time rounded down to whole seconds.
func (c Completion) CompletionSeconds() int {
	return int(c.Elapsed / time.Second)
}

// Receipt is what a saver reports back.
type Receipt struct {
	XPGained     int
	TotalXP      int
	Achievements []string
	// Note is a short human summary, e.g. "new best: 3 stars".
	Note string
}

// ProgressSaver stores completions. This keeps the controller free of
// storage and network dependencies.
type ProgressSaver interface {
	Name() string
	SaveProgress(ctx context.Context, c Completion) (Receipt, error)
}

// Attempt describes one finished submission.
type Attempt struct {
	LevelID    string
	Submission SubmissionID
	// Outcome is "success" or a FailReason string.
	Outcome string
	Message string
	At      time.Time
}

// AttemptRecorder is optionally implemented by savers that keep a history
// of every submission.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

// CountCodeLines counts non-blank lines that are not pure // comments and
// not inside /* */ blocks.
func CountCodeLines(source string) int {
	n := 0
	inBlock := false
	sc := bufio.NewScanner(strings.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if inBlock {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			inBlock = false
			line = strings.TrimSpace(line[end+2:])
		}
		if strings.HasPrefix(line, "/*") {
			end := strings.Index(line[2:], "*/")
			if end < 0 {
				inBlock = true
				continue
			}
			line = strings.TrimSpace(line[2+end+2:])
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		n++
	}
	return n
}
