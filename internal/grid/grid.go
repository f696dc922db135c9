package grid

// Grid is a rectangular board of W x H cells anchored in world space.
//
// Origin is the world position of the lower-left corner of cell (0,0) and
// CellSize is the side length of a cell. Cells outside the bounds and cells
// marked as walls are not walkable.
type Grid struct {
	W        int
	H        int
	CellSize float64
	Origin   Vec

	walls map[Pos]bool
}

// New creates a grid whose cell (0,0) starts at the world origin.
func New(w, h int, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		W:        w,
		H:        h,
		CellSize: cellSize,
		walls:    make(map[Pos]bool),
	}
}

// NewCentered creates a grid whose centre sits on the world origin.
func NewCentered(w, h int, cellSize float64) *Grid {
	g := New(w, h, cellSize)
	g.Origin = Vec{
		X: -float64(w) * g.CellSize / 2,
		Y: -float64(h) * g.CellSize / 2,
	}
	return g
}

// InBounds returns true if the position is within the grid boundaries.
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.W && p.Y >= 0 && p.Y < g.H
}

// IsWalkable reports whether an actor may occupy the cell.
// Out-of-bounds cells are simply not walkable.
func (g *Grid) IsWalkable(p Pos) bool {
	if !g.InBounds(p) {
		return false
	}
	return !g.walls[p]
}

// SetWall marks a cell as blocked. Out-of-bounds positions are ignored.
func (g *Grid) SetWall(p Pos) {
	if g.InBounds(p) {
		g.walls[p] = true
	}
}

// IsWall reports whether the cell carries a wall.
func (g *Grid) IsWall(p Pos) bool {
	return g.walls[p]
}

// GridToWorld returns the world-space centre of the cell.
func (g *Grid) GridToWorld(p Pos) Vec {
	return Vec{
		X: g.Origin.X + (float64(p.X)+0.5)*g.CellSize,
		Y: g.Origin.Y + (float64(p.Y)+0.5)*g.CellSize,
	}
}

// WorldToGrid returns the cell containing the world position.
// It is the exact inverse of GridToWorld for cell centres.
func (g *Grid) WorldToGrid(v Vec) Pos {
	return Pos{
		X: floorDiv(v.X-g.Origin.X, g.CellSize),
		Y: floorDiv(v.Y-g.Origin.Y, g.CellSize),
	}
}

func floorDiv(v, size float64) int {
	q := v / size
	i := int(q)
	if float64(i) > q {
		i--
	}
	return i
}
