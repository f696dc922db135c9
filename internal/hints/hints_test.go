package hints

import (
	"errors"
	"testing"
	"time"
)

func TestTierThresholds(t *testing.T) {
	tests := []struct {
		failed, k, expected int
	}{
		{0, 3, 0},
		{2, 3, 0},
		{3, 3, 1},
		{5, 3, 1},
		{6, 3, 2},
		{9, 3, 3},
		{12, 3, 4},
		{40, 3, 4},
		{1, 1, 1},
		{4, 1, 4},
		{3, 0, 3},
	}

	for _, tc := range tests {
		if got := Tier(tc.failed, tc.k); got != tc.expected {
			t.Errorf("Tier(%d, %d) = %d, expected %d", tc.failed, tc.k, got, tc.expected)
		}
	}
}

func TestTierMonotonic(t *testing.T) {
	for k := 1; k <= 6; k++ {
		prev := 0
		for failed := 0; failed <= 40; failed++ {
			tier := Tier(failed, k)
			if tier < prev {
				t.Fatalf("k=%d: tier regressed at failed=%d (%d < %d)", k, failed, tier, prev)
			}
			prev = tier
		}
	}
}

func TestAttemptsUntilNextTier(t *testing.T) {
	tests := []struct {
		failed, k, expected int
	}{
		{0, 3, 3},
		{1, 3, 2},
		{3, 3, 3},
		{11, 3, 1},
		{12, 3, 0},
	}

	for _, tc := range tests {
		if got := AttemptsUntilNextTier(tc.failed, tc.k); got != tc.expected {
			t.Errorf("AttemptsUntilNextTier(%d, %d) = %d, expected %d", tc.failed, tc.k, got, tc.expected)
		}
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		name     string
		failed   int
		hints    int
		elapsed  time.Duration
		expected int
	}{
		{"clean", 0, 0, 10 * time.Second, 3},
		{"many failures", 6, 0, 10 * time.Second, 1},
		{"hint used", 1, 1, 10 * time.Second, 2},
		{"slow", 0, 0, 400 * time.Second, 2},
		{"some failures", 3, 0, 10 * time.Second, 2},
		{"floor", 6, 2, 400 * time.Second, 1},
		{"threshold exact", 0, 0, 300 * time.Second, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Stars(tc.failed, tc.hints, tc.elapsed)
			if got != tc.expected {
				t.Errorf("Stars() = %d, expected %d", got, tc.expected)
			}
			if again := Stars(tc.failed, tc.hints, tc.elapsed); again != got {
				t.Errorf("Stars() not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestTrackerUnlocksHints(t *testing.T) {
	tr := NewTracker(2, []string{"h1", "h2", "h3"}, "solution")

	var unlocks []Unlock
	for i := 0; i < 8; i++ {
		u, err := tr.RecordFailure()
		if err != nil {
			t.Fatalf("RecordFailure() error: %v", err)
		}
		unlocks = append(unlocks, u)
	}

	expected := []struct {
		tier   int
		newly  bool
		hint   string
		reveal bool
	}{
		{0, false, "", false},
		{1, true, "h1", false},
		{1, false, "", false},
		{2, true, "h2", false},
		{2, false, "", false},
		{3, true, "h3", false},
		{3, false, "", false},
		{4, true, "", true},
	}

	for i, e := range expected {
		u := unlocks[i]
		if u.Tier != e.tier || u.NewlyUnlocked != e.newly || u.Hint != e.hint || u.RevealSolution != e.reveal {
			t.Errorf("failure %d: got %+v", i+1, u)
		}
	}

	if got := len(tr.UnlockedHints()); got != 3 {
		t.Errorf("UnlockedHints() returned %d hints", got)
	}
}

func TestTrackerUseSolution(t *testing.T) {
	tr := NewTracker(1, nil, "Player.moveRight(1);")

	if _, err := tr.UseSolution(); !errors.Is(err, ErrSolutionLocked) {
		t.Fatalf("expected ErrSolutionLocked, got %v", err)
	}

	for i := 0; i < 4; i++ {
		_, _ = tr.RecordFailure()
	}
	sol, err := tr.UseSolution()
	if err != nil || sol != "Player.moveRight(1);" {
		t.Fatalf("UseSolution() = %q, %v", sol, err)
	}
	if tr.Snapshot().HintsUsed != 1 {
		t.Errorf("HintsUsed = %d, expected 1", tr.Snapshot().HintsUsed)
	}
}

func TestTrackerCompleteFreezesStats(t *testing.T) {
	tr := NewTracker(3, nil, "")
	for i := 0; i < 4; i++ {
		_, _ = tr.RecordFailure()
	}

	stats, ok := tr.Complete(20 * time.Second)
	if !ok {
		t.Fatal("first Complete() should succeed")
	}
	if stats.Failed != 4 || stats.Stars != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := tr.RecordFailure(); !errors.Is(err, ErrCompleted) {
		t.Errorf("expected ErrCompleted after completion, got %v", err)
	}
	if again, ok := tr.Complete(time.Hour); ok || again != stats {
		t.Errorf("second Complete() changed stats: %+v ok=%v", again, ok)
	}

	tr.Reset(3, nil, "")
	s := tr.Snapshot()
	if s.Failed != 0 || s.Tier != 0 || s.Completed {
		t.Errorf("Reset() did not clear state: %+v", s)
	}
	if stats.Failed != 4 {
		t.Error("Reset() altered completed stats")
	}
}
