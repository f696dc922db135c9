package core

import (
	"math"

	"github.com/vovakirdan/codequest/internal/grid"
)

// CellWidth is the number of screen columns used per grid cell, which keeps
// cells roughly square in a terminal.
const CellWidth = 2

// Board is everything needed to draw a level.
type Board struct {
	Grid  *grid.Grid
	Start grid.Pos
	Goal  grid.Pos
	// Actor is the interpolated world position of the player.
	Actor grid.Vec
}

// BoardSize returns the screen size of a framed board.
func BoardSize(g *grid.Grid) (w, h int) {
	return g.W*CellWidth + 2, g.H + 2
}

// DrawBoard draws b with its frame's top-left corner at (x, y). Grid row 0
// is the bottom row on screen.
func DrawBoard(s *Screen, x, y int, b Board) {
	g := b.Grid
	w, h := BoardSize(g)
	s.DrawBox(NewRect(x, y, w, h), ColorFrame)

	cell := func(p grid.Pos) (int, int) {
		return x + 1 + p.X*CellWidth, y + 1 + (g.H - 1 - p.Y)
	}

	for cy := 0; cy < g.H; cy++ {
		for cx := 0; cx < g.W; cx++ {
			p := grid.P(cx, cy)
			sx, sy := cell(p)
			switch {
			case g.IsWall(p):
				s.Set(sx, sy, '█', ColorWall)
				s.Set(sx+1, sy, '█', ColorWall)
			case p == b.Goal:
				s.Set(sx, sy, 'G', ColorGoal)
			case p == b.Start:
				s.Set(sx, sy, 'o', ColorStart)
			default:
				s.Set(sx, sy, '·', ColorFloor)
			}
		}
	}

	// Fractional cell coordinates of the actor, so movement shows between cells.
	fx := (b.Actor.X-g.Origin.X)/g.CellSize - 0.5
	fy := (b.Actor.Y-g.Origin.Y)/g.CellSize - 0.5
	col := int(math.Round(fx * CellWidth))
	row := int(math.Round(fy))
	col = Clamp(col, 0, g.W*CellWidth-1)
	row = Clamp(row, 0, g.H-1)
	s.Set(x+1+col, y+1+(g.H-1-row), '@', ColorActor)
}
