package render

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProjection_ToScreen(t *testing.T) {
	bounds := geometry.NewVector3D(50, 30, 25)
	tests := []struct {
		name string
		view View
		in   geometry.Vector3D
		want geometry.Vector2D
	}{
		{"origin at center", TopView, geometry.Zero3D, geometry.NewVector(200, 100)},
		{"top view uses Z", TopView, geometry.NewVector3D(50, 99, 25), geometry.NewVector(400, 0)},
		{"top view ignores Y", TopView, geometry.NewVector3D(0, -30, 0), geometry.NewVector(200, 100)},
		{"side view uses Y", SideView, geometry.NewVector3D(-50, 30, 7), geometry.NewVector(200-500.0/3, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProjection(bounds, 400, 200)
			p.View = tt.view
			got := p.ToScreen(tt.in)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("ToScreen(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProjection_ScaleKeepsAspect(t *testing.T) {
	p := NewProjection(geometry.NewVector3D(10, 10, 10), 400, 200)
	if !near(p.Scale(), 10) {
		t.Errorf("Scale() = %v, want 10", p.Scale())
	}

	p.CellAspect = 2
	// terminal cells: 80 columns, 40 rows, a square volume fills both
	p.Width, p.Height = 80, 40
	if !near(p.Scale(), 4) {
		t.Errorf("Scale() with cell aspect = %v, want 4", p.Scale())
	}
	tl, br := p.BoundsRect()
	if !near(tl.X, 0) || !near(tl.Y, 0) || !near(br.X, 80) || !near(br.Y, 40) {
		t.Errorf("BoundsRect() = %v %v", tl, br)
	}
}

func TestProjection_Heading(t *testing.T) {
	p := NewProjection(geometry.NewVector3D(10, 10, 10), 100, 100)
	if h := p.Heading(geometry.NewVector3D(1, 0, 0)); !near(h, 0) {
		t.Errorf("+X heading = %v", h)
	}
	// +Z is up the screen in the top view, so a negative screen angle
	if h := p.Heading(geometry.NewVector3D(0, 0, 1)); !near(h, -math.Pi/2) {
		t.Errorf("+Z heading = %v", h)
	}
	// terminal cells are twice as tall, the vertical part shrinks on screen
	p.CellAspect = 2
	if h := p.Heading(geometry.NewVector3D(1, 0, 1)); !near(h, math.Atan2(-0.5, 1)) {
		t.Errorf("diagonal heading with cell aspect = %v", h)
	}
	p.CellAspect = 1
	p.View = p.View.Toggle()
	if h := p.Heading(geometry.NewVector3D(0, -1, 0)); !near(h, math.Pi/2) {
		t.Errorf("-Y side heading = %v", h)
	}
}

func TestProjection_Depth(t *testing.T) {
	p := NewProjection(geometry.NewVector3D(10, 20, 40), 100, 100)
	if d := p.Depth(geometry.NewVector3D(0, 20, -40)); !near(d, 1) {
		t.Errorf("top view depth = %v, want 1", d)
	}
	p.View = SideView
	if d := p.Depth(geometry.NewVector3D(0, 20, -40)); !near(d, 0) {
		t.Errorf("side view depth = %v, want 0", d)
	}
	if d := p.Depth(geometry.NewVector3D(0, 0, 400)); !near(d, 1) {
		t.Errorf("depth outside bounds = %v, want clamped 1", d)
	}
}

func TestView_Toggle(t *testing.T) {
	if TopView.Toggle() != SideView || SideView.Toggle() != TopView {
		t.Error("Toggle does not alternate")
	}
	if SideView.String() != "side" || TopView.String() != "top" {
		t.Error("unexpected names")
	}
}
