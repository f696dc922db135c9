package grid

import (
	"fmt"
	"math"
)

// Vec is a point in continuous world space.
type Vec struct {
	X float64
	Y float64
}

// V is a convenience constructor for Vec.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

func (v Vec) String() string {
	return fmt.Sprintf("(%.3f,%.3f)", v.X, v.Y)
}

// Lerp interpolates between v and to. t is clamped to [0, 1].
func (v Vec) Lerp(to Vec, t float64) Vec {
	t = math.Max(0, math.Min(1, t))
	return Vec{
		X: v.X + (to.X-v.X)*t,
		Y: v.Y + (to.Y-v.Y)*t,
	}
}

// Dist returns the Euclidean distance between two points.
func (v Vec) Dist(other Vec) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}
