package hints

import (
	"errors"
	"time"
)

var (
	// ErrSolutionLocked is returned by UseSolution before the final tier.
	ErrSolutionLocked = errors.New("hints: solution not unlocked yet")
	// ErrCompleted is returned when the level was already completed.
	ErrCompleted = errors.New("hints: level already completed")
)

// Unlock is the result of recording a failure.
type Unlock struct {
	Failed        int
	Tier          int
	NewlyUnlocked bool
	// Hint is the text of a newly unlocked tier 1-3 hint.
	Hint string
	// RevealSolution is set when the solution tier was just reached.
	RevealSolution bool
	// AttemptsUntilNext counts failures left before the next tier.
	AttemptsUntilNext int
}

// Stats are the completion statistics frozen at success time.
type Stats struct {
	Failed    int
	HintsUsed int
	Elapsed   time.Duration
	Stars     int
}

// State is a read-only view of the tracker.
type State struct {
	K         int
	Failed    int
	HintsUsed int
	Tier      int
	Completed bool
}

// Tracker holds the attempt state of one level session.
type Tracker struct {
	k             int
	hints         []string
	solution      string
	timeThreshold time.Duration

	failed    int
	hintsUsed int
	tier      int
	completed bool
	stats     Stats
}

// NewTracker creates a tracker for a level with k attempts per tier, up to
// three tier hints and the reference solution.
func NewTracker(k int, hints []string, solution string) *Tracker {
	t := &Tracker{timeThreshold: DefaultTimeThreshold}
	t.Reset(k, hints, solution)
	return t
}

// SetTimeThreshold overrides the star time threshold.
func (t *Tracker) SetTimeThreshold(d time.Duration) {
	t.timeThreshold = d
}

// Reset starts a fresh level: counters go back to zero. Statistics
// returned by an earlier Complete call are not affected.
func (t *Tracker) Reset(k int, hints []string, solution string) {
	if k < 1 {
		k = 1
	}
	t.k = k
	t.hints = append([]string(nil), hints...)
	t.solution = solution
	t.failed = 0
	t.hintsUsed = 0
	t.tier = 0
	t.completed = false
	t.stats = Stats{}
}

// RecordFailure counts one failed attempt and recomputes the tier.
func (t *Tracker) RecordFailure() (Unlock, error) {
	if t.completed {
		return Unlock{}, ErrCompleted
	}

	t.failed++
	prev := t.tier
	t.tier = Tier(t.failed, t.k)

	u := Unlock{
		Failed:            t.failed,
		Tier:              t.tier,
		NewlyUnlocked:     t.tier > prev,
		AttemptsUntilNext: AttemptsUntilNextTier(t.failed, t.k),
	}
	if u.NewlyUnlocked {
		if t.tier >= MaxTier {
			u.RevealSolution = true
		} else {
			u.Hint = t.hintFor(t.tier)
		}
	}
	return u, nil
}

// UseSolution returns the reference solution once the final tier is
// unlocked and counts it as a used hint.
func (t *Tracker) UseSolution() (string, error) {
	if t.completed {
		return "", ErrCompleted
	}
	if t.tier < MaxTier {
		return "", ErrSolutionLocked
	}
	t.hintsUsed++
	return t.solution, nil
}

// Complete marks the level completed and freezes its statistics. Only the
// first call has an effect; later calls return the frozen stats and false.
func (t *Tracker) Complete(elapsed time.Duration) (Stats, bool) {
	if t.completed {
		return t.stats, false
	}
	t.completed = true
	t.stats = Stats{
		Failed:    t.failed,
		HintsUsed: t.hintsUsed,
		Elapsed:   elapsed,
		Stars:     StarsWithThreshold(t.failed, t.hintsUsed, elapsed, t.timeThreshold),
	}
	return t.stats, true
}

// UnlockedHints returns the hint texts of every unlocked tier.
func (t *Tracker) UnlockedHints() []string {
	var out []string
	for i := 1; i <= t.tier && i < MaxTier; i++ {
		if h := t.hintFor(i); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	return State{
		K:         t.k,
		Failed:    t.failed,
		HintsUsed: t.hintsUsed,
		Tier:      t.tier,
		Completed: t.completed,
	}
}

func (t *Tracker) hintFor(tier int) string {
	if tier < 1 || tier > len(t.hints) {
		return ""
	}
	return t.hints[tier-1]
}
