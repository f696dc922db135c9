package actor

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/vovakirdan/codequest/internal/grid"
)

const cellTime = 100 * time.Millisecond

func newTestActor(start grid.Pos) (*grid.Grid, *Actor) {
	g := grid.NewCentered(8, 8, 1)
	return g, New(g, start, cellTime)
}

func runToEnd(t *testing.T, a *Actor, dt time.Duration) MoveResult {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if res, done := a.Step(dt); done {
			return res
		}
	}
	t.Fatal("move never resolved")
	return MoveResult{}
}

func TestMoveByFullDistance(t *testing.T) {
	_, a := newTestActor(grid.P(1, 1))

	if err := a.MoveBy(grid.DirRight, 3); err != nil {
		t.Fatalf("MoveBy() error: %v", err)
	}
	res := runToEnd(t, a, 16*time.Millisecond)

	if !res.Complete() {
		t.Errorf("expected complete move, got %+v", res)
	}
	if a.Cell() != grid.P(4, 1) {
		t.Errorf("Cell() = %v, expected (4,1)", a.Cell())
	}
	if !a.Settled() {
		t.Error("actor should be settled after move")
	}
}

func TestMoveByStopsAtBlockedCell(t *testing.T) {
	g, a := newTestActor(grid.P(0, 0))
	g.SetWall(grid.P(0, 3))

	_ = a.MoveBy(grid.DirUp, 5)
	res := runToEnd(t, a, cellTime)

	if !res.Blocked || res.Moved != 2 {
		t.Errorf("expected blocked after 2 cells, got %+v", res)
	}
	if a.Cell() != grid.P(0, 2) {
		t.Errorf("Cell() = %v, expected (0,2)", a.Cell())
	}
}

func TestMoveByOutOfBounds(t *testing.T) {
	_, a := newTestActor(grid.P(0, 0))

	_ = a.MoveBy(grid.DirLeft, 2)
	res, done := a.Step(0)

	if !done || !res.Blocked || res.Moved != 0 {
		t.Errorf("expected immediate blocked result, got %+v done=%v", res, done)
	}
	if a.Cell() != grid.P(0, 0) {
		t.Errorf("actor moved off grid to %v", a.Cell())
	}
}

func TestMoveByBusy(t *testing.T) {
	_, a := newTestActor(grid.P(1, 1))

	_ = a.MoveBy(grid.DirRight, 2)
	if err := a.MoveBy(grid.DirUp, 1); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestInterpolationBetweenCells(t *testing.T) {
	g, a := newTestActor(grid.P(1, 1))

	_ = a.MoveBy(grid.DirRight, 1)
	if _, done := a.Step(cellTime / 2); done {
		t.Fatal("move resolved too early")
	}

	from := g.GridToWorld(grid.P(1, 1))
	to := g.GridToWorld(grid.P(2, 1))
	mid := from.Lerp(to, 0.5)
	if a.World().Dist(mid) > 1e-9 {
		t.Errorf("World() = %v, expected %v", a.World(), mid)
	}
	if a.Cell() != grid.P(1, 1) {
		t.Errorf("Cell() should stay at last settled cell, got %v", a.Cell())
	}
}

func TestCancelSnapsToSettledCell(t *testing.T) {
	_, a := newTestActor(grid.P(1, 1))

	_ = a.MoveBy(grid.DirRight, 4)
	a.Step(cellTime + cellTime/3)

	res := a.Cancel()
	if !res.Cancelled || res.Moved != 1 {
		t.Errorf("Cancel() = %+v, expected 1 cell moved", res)
	}
	if a.Cell() != grid.P(2, 1) || !a.Settled() {
		t.Errorf("expected settled at (2,1), got %v settled=%v", a.Cell(), a.Settled())
	}
	if _, done := a.Step(cellTime); done {
		t.Error("Step after Cancel should not resolve again")
	}
}

func TestCancelIdle(t *testing.T) {
	_, a := newTestActor(grid.P(1, 1))
	if res := a.Cancel(); res != (MoveResult{}) {
		t.Errorf("Cancel() on idle actor = %+v", res)
	}
}

func TestResetTo(t *testing.T) {
	_, a := newTestActor(grid.P(1, 1))

	_ = a.MoveBy(grid.DirUp, 3)
	a.Step(cellTime / 2)
	a.ResetTo(grid.P(5, 5))

	if a.Moving() || a.Cell() != grid.P(5, 5) || !a.Settled() {
		t.Errorf("ResetTo did not settle actor: cell=%v moving=%v", a.Cell(), a.Moving())
	}
}

func TestInstantMoves(t *testing.T) {
	g := grid.New(4, 4, 1)
	a := New(g, grid.P(0, 0), 0)

	_ = a.MoveBy(grid.DirRight, 3)
	res, done := a.Step(0)
	if !done || res.Moved != 3 {
		t.Errorf("instant move = %+v done=%v", res, done)
	}
}

func TestRandomCancellationAlwaysAligned(t *testing.T) {
	g, a := newTestActor(grid.P(4, 4))
	g.SetWall(grid.P(6, 4))
	rng := rand.New(rand.NewSource(42))
	dirs := []grid.Dir{grid.DirRight, grid.DirLeft, grid.DirUp, grid.DirDown}

	for i := 0; i < 500; i++ {
		if !a.Moving() {
			_ = a.MoveBy(dirs[rng.Intn(len(dirs))], 1+rng.Intn(4))
		}
		a.Step(time.Duration(rng.Intn(80)) * time.Millisecond)

		if rng.Intn(4) == 0 {
			a.Cancel()
			if !a.Settled() {
				t.Fatalf("iteration %d: actor not aligned after cancel at %v", i, a.World())
			}
		}
		if !g.IsWalkable(a.Cell()) {
			t.Fatalf("iteration %d: actor settled on unwalkable cell %v", i, a.Cell())
		}
	}
}

func TestHaltWhenStopsOnCell(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		dt       time.Duration
	}{
		{"ticked", cellTime, 16 * time.Millisecond},
		{"one long step", cellTime, time.Second},
		{"instant", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grid.NewCentered(8, 8, 1)
			a := New(g, grid.P(0, 0), tt.duration)
			var seen []grid.Pos
			a.HaltWhen(func(p grid.Pos) bool {
				seen = append(seen, p)
				return p == grid.P(3, 0)
			})

			_ = a.MoveBy(grid.DirRight, 5)
			res := runToEnd(t, a, tt.dt)

			if !res.Halted || res.Moved != 3 || res.Complete() {
				t.Errorf("expected halt after 3 cells, got %+v", res)
			}
			if a.Cell() != grid.P(3, 0) || !a.Settled() {
				t.Errorf("Cell() = %v, settled %v; expected (3,0)", a.Cell(), a.Settled())
			}
			if len(seen) != 3 {
				t.Errorf("check ran on %v, expected 3 cells", seen)
			}
		})
	}
}
