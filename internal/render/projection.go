// Package render flattens the 3D flock onto a 2D surface, shared by the window
// viewer and the terminal renderer.
package render

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// View selects the plane the flock is projected onto.
type View int

const (
	// TopView looks down the Y axis: X to the right, Z up the screen.
	TopView View = iota
	// SideView looks along the Z axis: X to the right, Y up the screen.
	SideView
)

func (v View) String() string {
	if v == SideView {
		return "side"
	}
	return "top"
}

// Toggle switches between the two views.
func (v View) Toggle() View {
	if v == SideView {
		return TopView
	}
	return SideView
}

// Projection maps world coordinates into a screen rectangle, keeping the whole
// bounds volume visible and the world aspect ratio intact.
type Projection struct {
	View   View
	Bounds geometry.Vector3D

	Left, Top     float64
	Width, Height float64
	// CellAspect is the height of a screen unit divided by its width:
	// 1 for pixels, about 2 for terminal cells.
	CellAspect float64
}

// NewProjection fits bounds into a width x height surface with square units.
func NewProjection(bounds geometry.Vector3D, width, height float64) Projection {
	return Projection{
		View:       TopView,
		Bounds:     bounds,
		Width:      width,
		Height:     height,
		CellAspect: 1,
	}
}

// plane returns the horizontal and vertical world components shown by the view.
func (p Projection) plane(v geometry.Vector3D) geometry.Vector2D {
	if p.View == SideView {
		return v.XY()
	}
	return v.XZ()
}

func (p Projection) aspect() float64 {
	if p.CellAspect <= 0 {
		return 1
	}
	return p.CellAspect
}

func (p Projection) center() geometry.Vector2D {
	return geometry.NewVector(p.Left+p.Width/2, p.Top+p.Height/2)
}

// Scale is the number of horizontal screen units per world unit.
func (p Projection) Scale() float64 {
	b := p.plane(p.Bounds)
	if b.X <= 0 || b.Y <= 0 {
		return 1
	}
	return math.Min(p.Width/(2*b.X), p.Height*p.aspect()/(2*b.Y))
}

// ToScreen projects a world position. The world origin lands on the rectangle center.
func (p Projection) ToScreen(v geometry.Vector3D) geometry.Vector2D {
	s := p.Scale()
	return p.plane(v).Scale(s, -s/p.aspect()).Add(p.center())
}

// Heading is the screen angle of a world direction, in radians, with the screen Y axis
// pointing down as ebiten does.
func (p Projection) Heading(dir geometry.Vector3D) float64 {
	return p.plane(dir).Scale(1, -1/p.aspect()).Angle()
}

// Depth is the hidden coordinate of v mapped to [0, 1], 0 being the far side of the bounds.
func (p Projection) Depth(v geometry.Vector3D) float64 {
	d, b := v.Y, p.Bounds.Y
	if p.View == SideView {
		d, b = v.Z, p.Bounds.Z
	}
	if b <= 0 {
		return 0.5
	}
	return math.Min(math.Max((d+b)/(2*b), 0), 1)
}

// BoundsRect returns the top left and bottom right corners of the projected bounds.
func (p Projection) BoundsRect() (topLeft, bottomRight geometry.Vector2D) {
	a := p.ToScreen(p.Bounds.Neg())
	b := p.ToScreen(p.Bounds)
	return geometry.NewVector(math.Min(a.X, b.X), math.Min(a.Y, b.Y)),
		geometry.NewVector(math.Max(a.X, b.X), math.Max(a.Y, b.Y))
}
