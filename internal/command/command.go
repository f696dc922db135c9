// Package command defines the normalized instructions executed by the
// sequencer and their decoding from judge wire actions.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/codequest/internal/grid"
)

// ErrUnknownAction is returned when a wire action has no command mapping.
var ErrUnknownAction = errors.New("command: unknown action")

// Kind tags the command variant.
type Kind uint8

const (
	KindMove Kind = iota + 1
	KindWait
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Command is one executable instruction.
//
// For KindMove, DX/DY hold a unit direction and Cells the number of cells
// to travel. For KindWait, Units holds the wait duration in wait units.
type Command struct {
	Kind  Kind
	DX    int
	DY    int
	Cells int
	Units int
}

// Move builds a move command in the given direction.
func Move(d grid.Dir, cells int) Command {
	dx, dy := d.Delta()
	return Command{Kind: KindMove, DX: dx, DY: dy, Cells: cells}
}

// Wait builds a wait command.
func Wait(units int) Command {
	return Command{Kind: KindWait, Units: units}
}

// Dir returns the movement direction of a move command.
func (c Command) Dir() grid.Dir {
	return grid.DirFromDelta(c.DX, c.DY)
}

// String renders the command the way the judge names it.
func (c Command) String() string {
	switch c.Kind {
	case KindMove:
		return fmt.Sprintf("move%s(%d)", c.Dir(), c.Cells)
	case KindWait:
		return fmt.Sprintf("wait(%d)", c.Units)
	default:
		return "unknown"
	}
}

// Action is the judge wire representation: {"action":"moveRight","value":2}.
type Action struct {
	Action string `json:"action"`
	Value  int    `json:"value"`
}

var actionDirs = map[string]grid.Dir{
	"moveright": grid.DirRight,
	"moveleft":  grid.DirLeft,
	"moveup":    grid.DirUp,
	"movedown":  grid.DirDown,
}

// FromAction converts one wire action into a command.
// Action names are matched case-insensitively.
func FromAction(a Action) (Command, error) {
	name := strings.ToLower(strings.TrimSpace(a.Action))
	if d, ok := actionDirs[name]; ok {
		return Move(d, a.Value), nil
	}
	if name == "wait" {
		return Wait(a.Value), nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Action)
}

// Decode converts an ordered list of wire actions, preserving order.
func Decode(actions []Action) ([]Command, error) {
	cmds := make([]Command, 0, len(actions))
	for i, a := range actions {
		c, err := FromAction(a)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// ToAction converts a command back into its wire form.
func ToAction(c Command) Action {
	switch c.Kind {
	case KindMove:
		return Action{Action: "move" + c.Dir().String(), Value: c.Cells}
	case KindWait:
		return Action{Action: "wait", Value: c.Units}
	default:
		return Action{}
	}
}

// Encode converts commands into wire actions.
func Encode(cmds []Command) []Action {
	out := make([]Action, len(cmds))
	for i, c := range cmds {
		out[i] = ToAction(c)
	}
	return out
}
