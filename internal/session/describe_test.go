package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/codequest/internal/command"
	"github.com/vovakirdan/codequest/internal/grid"
	"github.com/vovakirdan/codequest/internal/hints"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		evt       Event
		wantLevel Level
		contains  string
	}{
		{"command", CommandStarted{Index: 1, Total: 3, Command: command.Move(grid.DirRight, 2)}, LevelProgress, "[2/3] moveRight(2)"},
		{"failed", RunFailed{Submission: 2, Reason: FailMissedGoal, Message: "finished at (1,0)"}, LevelError, "goal not reached"},
		{"hint", HintUnlocked{Tier: 1, Hint: "go right"}, LevelWarn, "Hint 1: go right"},
		{"completed", LevelCompleted{LevelID: "1-1", Stats: hints.Stats{Stars: 2, Elapsed: 75 * time.Second}}, LevelSuccess, "★★☆ in 1:15"},
		{"save failed", SaveFailed{Saver: "remote", Err: errors.New("offline")}, LevelWarn, "offline"},
		{"reset", ResetDone{Cell: grid.P(0, 0)}, LevelInfo, "(0,0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Describe(tt.evt)
			if len(lines) == 0 {
				t.Fatal("no lines")
			}
			if lines[0].Level != tt.wantLevel {
				t.Errorf("level = %d, want %d", lines[0].Level, tt.wantLevel)
			}
			if !strings.Contains(lines[0].Text, tt.contains) {
				t.Errorf("text = %q, want it to contain %q", lines[0].Text, tt.contains)
			}
		})
	}
}

func TestDescribeMultiLine(t *testing.T) {
	lines := Describe(CommandsReceived{Commands: []command.Command{command.Wait(1)}, Output: "hi\nthere\n"})
	if len(lines) != 3 || lines[1].Text != "> hi" || lines[2].Text != "> there" {
		t.Errorf("lines = %+v", lines)
	}

	lines = Describe(ProgressSaved{Saver: "remote", Receipt: Receipt{Note: "+10 XP", Achievements: []string{"First Steps"}}})
	if len(lines) != 2 || lines[1].Level != LevelSuccess {
		t.Errorf("lines = %+v", lines)
	}
}

func TestStarString(t *testing.T) {
	for stars, want := range map[int]string{-1: "☆☆☆", 0: "☆☆☆", 1: "★☆☆", 3: "★★★", 5: "★★★"} {
		if got := StarString(stars); got != want {
			t.Errorf("StarString(%d) = %q, want %q", stars, got, want)
		}
	}
}
