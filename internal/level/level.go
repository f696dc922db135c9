// Package level provides level definitions and the catalog they are
// selected from. A level is read-only once loaded.
package level

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/vovakirdan/codequest/internal/grid"
)

// ErrNotFound is returned when a level id is unknown.
var ErrNotFound = errors.New("level: not found")

// Validation is an advisory pattern the source is expected to match.
type Validation struct {
	Pattern        string
	Hint           string
	ValidExample   string
	InvalidExample string

	re *regexp.Regexp
}

// Matches reports whether source satisfies the pattern.
func (v Validation) Matches(source string) bool {
	if v.re != nil {
		return v.re.MatchString(source)
	}
	if v.Pattern == "" {
		return true
	}
	ok, err := regexp.MatchString(v.Pattern, source)
	return err != nil || ok
}

// Level is a complete level definition.
type Level struct {
	ID          string
	Group       string
	Name        string
	Description string
	Width       int
	Height      int
	Start       grid.Pos
	Goal        grid.Pos
	Walls       []grid.Pos

	StarterCode  string
	SolutionCode string

	AttemptsBeforeFirstHint int
	// Hints holds up to three tier hints, mildest first.
	Hints       []string
	Validations []Validation

	// FilePath is empty for built-in levels.
	FilePath string
}

// Title returns "group: name", or the id when both are empty.
func (l Level) Title() string {
	switch {
	case l.Group != "" && l.Name != "":
		return l.Group + ": " + l.Name
	case l.Name != "":
		return l.Name
	default:
		return l.ID
	}
}

// Grid builds the board for this level.
func (l Level) Grid(cellSize float64) *grid.Grid {
	g := grid.New(l.Width, l.Height, cellSize)
	for _, w := range l.Walls {
		g.SetWall(w)
	}
	return g
}

// Validate checks that the level is playable.
func (l Level) Validate() error {
	if l.ID == "" {
		return errors.New("level: missing id")
	}
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("level %s: invalid size %dx%d", l.ID, l.Width, l.Height)
	}
	if l.AttemptsBeforeFirstHint < 1 {
		return fmt.Errorf("level %s: attempts before first hint must be at least 1", l.ID)
	}
	if len(l.Hints) > 3 {
		return fmt.Errorf("level %s: at most 3 hints, got %d", l.ID, len(l.Hints))
	}

	g := l.Grid(1)
	if !g.IsWalkable(l.Start) {
		return fmt.Errorf("level %s: start %v is not walkable", l.ID, l.Start)
	}
	if !g.IsWalkable(l.Goal) {
		return fmt.Errorf("level %s: goal %v is not walkable", l.ID, l.Goal)
	}
	if l.Start == l.Goal {
		return fmt.Errorf("level %s: start and goal are the same cell", l.ID)
	}
	for i, v := range l.Validations {
		if v.re == nil && v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				return fmt.Errorf("level %s: validation %d: %w", l.ID, i+1, err)
			}
		}
	}
	return nil
}

// Issue is a validation the source did not satisfy.
type Issue struct {
	Hint           string
	ValidExample   string
	InvalidExample string
}

// Check returns one issue per validation pattern the source misses.
func (l Level) Check(source string) []Issue {
	var issues []Issue
	for _, v := range l.Validations {
		if !v.Matches(source) {
			issues = append(issues, Issue{
				Hint:           v.Hint,
				ValidExample:   v.ValidExample,
				InvalidExample: v.InvalidExample,
			})
		}
	}
	return issues
}
