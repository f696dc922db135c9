// Package hints implements the attempt and hint disclosure state machine
// and the star rating given on completion.
package hints

import "time"

const (
	// MaxTier is the tier that unlocks the reference solution.
	MaxTier = 4

	// DefaultTimeThreshold is the completion time after which a star is lost.
	DefaultTimeThreshold = 300 * time.Second
)

// Tier returns the hint tier for a number of failed attempts with k
// attempts per tier: min(failed/k, 4). k below 1 is treated as 1.
func Tier(failed, k int) int {
	if k < 1 {
		k = 1
	}
	if failed < 0 {
		failed = 0
	}
	t := failed / k
	if t > MaxTier {
		t = MaxTier
	}
	return t
}

// AttemptsUntilNextTier returns how many more failures unlock the next
// tier, or 0 once the solution tier is reached.
func AttemptsUntilNextTier(failed, k int) int {
	if k < 1 {
		k = 1
	}
	t := Tier(failed, k)
	if t >= MaxTier {
		return 0
	}
	return (t+1)*k - failed
}

// Stars rates a completion using DefaultTimeThreshold.
func Stars(failed, hintsUsed int, elapsed time.Duration) int {
	return StarsWithThreshold(failed, hintsUsed, elapsed, DefaultTimeThreshold)
}

// StarsWithThreshold rates a completion from 1 to 3 stars.
//
// Start at 3; more than 5 failures caps at 1, more than 2 caps at 2. Using
// a hint costs one star and exceeding the time threshold costs another,
// never dropping below 1.
func StarsWithThreshold(failed, hintsUsed int, elapsed, threshold time.Duration) int {
	stars := 3
	switch {
	case failed > 5:
		stars = 1
	case failed > 2:
		stars = 2
	}
	if hintsUsed > 0 {
		stars = max(1, stars-1)
	}
	if threshold > 0 && elapsed > threshold {
		stars = max(1, stars-1)
	}
	return stars
}
