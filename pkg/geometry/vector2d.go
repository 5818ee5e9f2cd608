package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the precision used by the Eq comparisons and the Normalize zero checks.
const Epsilon = 1e-9

// Vector2D is a point or direction on a screen surface.
// Renderers get one from a Vector3D with XZ or XY and then scale it to pixels or cells.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar builds the vector of length radius at angle theta, in radians.
// Components closer to zero than Epsilon are snapped to zero.
func NewVectorPolar(radius, theta float64) Vector2D {
	v := Vector2D{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	if math.Abs(v.X) < Epsilon {
		v.X = 0
	}
	if math.Abs(v.Y) < Epsilon {
		v.Y = 0
	}
	return v
}

func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Scale multiplies each axis by its own factor, e.g. world units to pixels
// with a negative sy to flip the vertical axis.
func (v Vector2D) Scale(sx, sy float64) Vector2D {
	return Vector2D{v.X * sx, v.Y * sy}
}

// Angle returns the angle of the vector from the X axis, in [-Pi, Pi].
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Eq reports whether both components are within Epsilon.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
