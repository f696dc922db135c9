package session

import (
	"fmt"
	"strings"
	"time"
)

// Level of an event line, used by front ends for colouring.
type Level uint8

const (
	LevelInfo Level = iota
	LevelProgress
	LevelWarn
	LevelError
	LevelSuccess
)

// Line is a human-readable rendering of an event.
type Line struct {
	Level Level
	Text  string
}

// Describe renders evt as console lines. Command progress is reported
// at LevelProgress so front ends can choose to hide it.
func Describe(evt Event) []Line {
	switch e := evt.(type) {
	case LevelLoaded:
		return []Line{{LevelInfo, fmt.Sprintf("Level %s: %s. Reach %s from %s.", e.LevelID, e.Title, e.Goal, e.Start)}}
	case RunStarted:
		return []Line{{LevelInfo, fmt.Sprintf("Run #%d submitted.", e.Submission)}}
	case ValidationHint:
		text := "Note: " + e.Issue.Hint
		if e.Issue.ValidExample != "" {
			text += fmt.Sprintf(" (e.g. %s)", e.Issue.ValidExample)
		}
		return []Line{{LevelWarn, text}}
	case CommandsReceived:
		lines := []Line{{LevelInfo, fmt.Sprintf("Program accepted: %d command(s).", len(e.Commands))}}
		for _, out := range strings.Split(strings.TrimRight(e.Output, "\n"), "\n") {
			if out != "" {
				lines = append(lines, Line{LevelInfo, "> " + out})
			}
		}
		return lines
	case CommandStarted:
		return []Line{{LevelProgress, fmt.Sprintf("[%d/%d] %s", e.Index+1, e.Total, e.Command)}}
	case RunFailed:
		text := fmt.Sprintf("Run #%d failed, %s: %s", e.Submission, e.Reason, e.Message)
		lines := []Line{{LevelError, text}}
		if e.AttemptsUntilNext > 0 {
			lines = append(lines, Line{LevelInfo, fmt.Sprintf("%d more failed attempt(s) until the next hint.", e.AttemptsUntilNext)})
		}
		return lines
	case HintUnlocked:
		return []Line{{LevelWarn, fmt.Sprintf("Hint %d: %s", e.Tier, e.Hint)}}
	case SolutionAvailable:
		return []Line{{LevelWarn, fmt.Sprintf("The reference solution is available after %d failed attempts. Using it costs a star.", e.Failed)}}
	case LevelCompleted:
		return []Line{{LevelSuccess, fmt.Sprintf("Level %s complete %s in %s, %d failed, %d hint(s) used, %d line(s).",
			e.LevelID, StarString(e.Stats.Stars), FormatElapsed(e.Stats.Elapsed), e.Stats.Failed, e.Stats.HintsUsed, e.CodeLines)}}
	case ProgressSaved:
		text := fmt.Sprintf("Saved (%s)", e.Saver)
		if e.Receipt.Note != "" {
			text += ": " + e.Receipt.Note
		}
		lines := []Line{{LevelInfo, text}}
		for _, a := range e.Receipt.Achievements {
			lines = append(lines, Line{LevelSuccess, "Achievement unlocked: " + a})
		}
		return lines
	case SaveFailed:
		return []Line{{LevelWarn, fmt.Sprintf("Could not save (%s): %v", e.Saver, e.Err)}}
	case ResetDone:
		return []Line{{LevelInfo, fmt.Sprintf("Reset to %s.", e.Cell)}}
	default:
		return nil
	}
}

// StarString renders a 0-3 star rating.
func StarString(stars int) string {
	stars = min(max(stars, 0), 3)
	return strings.Repeat("★", stars) + strings.Repeat("☆", 3-stars)
}

// FormatElapsed renders d as m:ss.
func FormatElapsed(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
