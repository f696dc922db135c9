// Package formats provides level file format parsers.
package formats

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/codequest/internal/grid"
)

// YAMLLevel represents the YAML structure for a level file.
type YAMLLevel struct {
	ID          string `yaml:"id"`
	Group       string `yaml:"group"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Size  YAMLSize  `yaml:"size"`
	Start *YAMLPos  `yaml:"start"`
	Goal  *YAMLPos  `yaml:"goal"`
	Walls []YAMLPos `yaml:"walls,omitempty"`
	Map   []string  `yaml:"map,omitempty"`

	StarterCode  string `yaml:"starter_code"`
	SolutionCode string `yaml:"solution_code"`

	AttemptsBeforeFirstHint int              `yaml:"attempts_before_first_hint,omitempty"`
	Hints                   []string         `yaml:"hints,omitempty"`
	Validations             []YAMLValidation `yaml:"validations,omitempty"`
}

// YAMLSize represents grid dimensions.
type YAMLSize struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// YAMLPos is a cell position.
type YAMLPos struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// YAMLValidation is an advisory source pattern.
type YAMLValidation struct {
	Pattern        string `yaml:"pattern"`
	Hint           string `yaml:"hint"`
	ValidExample   string `yaml:"valid_example,omitempty"`
	InvalidExample string `yaml:"invalid_example,omitempty"`
}

// Level represents a parsed level ready for validation.
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
	Hints                   []string
	Validations             []YAMLValidation
}

// Map legend. The first map row is the top of the board.
const (
	MapWall  = '#'
	MapStart = 'S'
	MapGoal  = 'G'
	MapFloor = '.'
)

// ParseYAML parses a YAML level file.
func ParseYAML(data []byte) (Level, error) {
	var yl YAMLLevel
	if err := yaml.Unmarshal(data, &yl); err != nil {
		return Level{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	lvl := Level{
		ID:                      strings.TrimSpace(yl.ID),
		Group:                   yl.Group,
		Name:                    yl.Name,
		Description:             strings.TrimSpace(yl.Description),
		Width:                   yl.Size.W,
		Height:                  yl.Size.H,
		StarterCode:             yl.StarterCode,
		SolutionCode:            yl.SolutionCode,
		AttemptsBeforeFirstHint: yl.AttemptsBeforeFirstHint,
		Hints:                   yl.Hints,
		Validations:             yl.Validations,
	}
	if lvl.AttemptsBeforeFirstHint <= 0 {
		lvl.AttemptsBeforeFirstHint = 3
	}

	var haveStart, haveGoal bool
	if len(yl.Map) > 0 {
		var err error
		if haveStart, haveGoal, err = parseMap(yl.Map, &lvl); err != nil {
			return Level{}, err
		}
	}

	for _, w := range yl.Walls {
		lvl.Walls = append(lvl.Walls, grid.P(w.X, w.Y))
	}
	if yl.Start != nil {
		lvl.Start, haveStart = grid.P(yl.Start.X, yl.Start.Y), true
	}
	if yl.Goal != nil {
		lvl.Goal, haveGoal = grid.P(yl.Goal.X, yl.Goal.Y), true
	}
	if !haveStart {
		return Level{}, fmt.Errorf("level %q: missing start", lvl.ID)
	}
	if !haveGoal {
		return Level{}, fmt.Errorf("level %q: missing goal", lvl.ID)
	}
	return lvl, nil
}

// parseMap reads an ASCII board. Rows are listed top to bottom, so the
// last row is y = 0.
func parseMap(rows []string, lvl *Level) (haveStart, haveGoal bool, err error) {
	h := len(rows)
	w := 0
	for _, r := range rows {
		if n := len([]rune(r)); n > w {
			w = n
		}
	}
	if lvl.Width == 0 {
		lvl.Width = w
	}
	if lvl.Height == 0 {
		lvl.Height = h
	}

	for i, row := range rows {
		y := h - 1 - i
		for x, ch := range []rune(row) {
			p := grid.P(x, y)
			switch ch {
			case MapWall:
				lvl.Walls = append(lvl.Walls, p)
			case MapStart:
				lvl.Start, haveStart = p, true
			case MapGoal:
				lvl.Goal, haveGoal = p, true
			case MapFloor, ' ':
			default:
				return false, false, fmt.Errorf("level %q: unknown map symbol %q at row %d", lvl.ID, ch, i+1)
			}
		}
	}
	return haveStart, haveGoal, nil
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}
