// Package grid provides the discrete board model: integer cell positions,
// directions, world-space conversion and walkability.
// It has no dependencies on the simulation or the UI.
package grid

import "fmt"

// Pos is a cell position on the grid.
// X increases to the right, Y increases upward (world coordinates).
type Pos struct {
	X int
	Y int
}

// P is a convenience constructor for Pos.
func P(x, y int) Pos {
	return Pos{X: x, Y: y}
}

// String returns a string representation of the position.
func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns a new Pos offset by (dx, dy).
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Step returns the neighbouring cell in the given direction.
func (p Pos) Step(d Dir) Pos {
	dx, dy := d.Delta()
	return p.Add(dx, dy)
}

// Dir is one of the four movement directions.
type Dir uint8

const (
	DirNone Dir = iota
	DirRight
	DirLeft
	DirUp
	DirDown
)

// String returns the string representation of a direction.
func (d Dir) String() string {
	switch d {
	case DirRight:
		return "Right"
	case DirLeft:
		return "Left"
	case DirUp:
		return "Up"
	case DirDown:
		return "Down"
	default:
		return "None"
	}
}

// Delta returns the (dx, dy) offset for one step in this direction.
// Up increases Y.
func (d Dir) Delta() (dx, dy int) {
	switch d {
	case DirRight:
		return 1, 0
	case DirLeft:
		return -1, 0
	case DirUp:
		return 0, 1
	case DirDown:
		return 0, -1
	default:
		return 0, 0
	}
}

// DirFromDelta maps a unit or scaled offset to a direction.
// Diagonal and zero offsets map to DirNone.
func DirFromDelta(dx, dy int) Dir {
	switch {
	case dx > 0 && dy == 0:
		return DirRight
	case dx < 0 && dy == 0:
		return DirLeft
	case dy > 0 && dx == 0:
		return DirUp
	case dy < 0 && dx == 0:
		return DirDown
	default:
		return DirNone
	}
}

// Opposite returns the opposite direction.
func (d Dir) Opposite() Dir {
	switch d {
	case DirRight:
		return DirLeft
	case DirLeft:
		return DirRight
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	default:
		return d
	}
}
