// Package term draws a running flock in a terminal with tcell.
package term

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/render"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Terminal cells are about twice as tall as wide.
const cellAspect = 2

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	// From far to near
	depthStyles = []tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorNavy),
		tcell.StyleDefault.Foreground(tcell.ColorBlue),
		tcell.StyleDefault.Foreground(tcell.ColorTeal),
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorWhite),
	}
	arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}
)

// Arrow picks the arrow glyph closest to a screen angle, Y pointing down.
func Arrow(angle float64) rune {
	sector := int(math.Round(angle / (math.Pi / 4)))
	return arrows[((sector%8)+8)%8]
}

// Renderer draws frames on a tcell screen. The last row holds a status line.
type Renderer struct {
	screen     tcell.Screen
	bounds     geometry.Vector3D
	view       render.View
	showBounds bool
}

func NewRenderer(screen tcell.Screen, bounds geometry.Vector3D) *Renderer {
	return &Renderer{
		screen:     screen,
		bounds:     bounds,
		showBounds: true,
	}
}

func (r *Renderer) View() render.View { return r.view }

func (r *Renderer) ToggleView() { r.view = r.view.Toggle() }

func (r *Renderer) ToggleBounds() { r.showBounds = !r.showBounds }

// Projection fits the bounds into the screen, minus the border and the status line.
func (r *Renderer) Projection() render.Projection {
	w, h := r.screen.Size()
	p := render.NewProjection(r.bounds, float64(w-2), float64(h-3))
	p.Left, p.Top = 1, 1
	p.View = r.view
	p.CellAspect = cellAspect
	return p
}

// Draw renders one frame followed by status.
func (r *Renderer) Draw(f flock.Frame, status string) {
	r.screen.Clear()
	w, h := r.screen.Size()
	proj := r.Projection()

	if r.showBounds {
		tl, br := proj.BoundsRect()
		r.box(int(math.Floor(tl.X))-1, int(math.Floor(tl.Y))-1, int(math.Ceil(br.X)), int(math.Ceil(br.Y)))
	}

	for _, a := range f.Agents {
		p := proj.ToScreen(a.Position)
		x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
		if x < 0 || y < 0 || x >= w || y >= h-1 {
			continue
		}
		level := int(proj.Depth(a.Position) * float64(len(depthStyles)))
		level = min(level, len(depthStyles)-1)
		r.screen.SetContent(x, y, Arrow(proj.Heading(a.Velocity)), nil, depthStyles[level])
	}

	line := []rune(fmt.Sprintf(" tick %d | agents %d | %s view | %s", f.Tick, len(f.Agents), r.view, status))
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(line) {
			ch = line[x]
		}
		r.screen.SetContent(x, h-1, ch, nil, statusStyle)
	}
	r.screen.Show()
}

func (r *Renderer) box(x0, y0, x1, y1 int) {
	for x := x0 + 1; x < x1; x++ {
		r.screen.SetContent(x, y0, '─', nil, borderStyle)
		r.screen.SetContent(x, y1, '─', nil, borderStyle)
	}
	for y := y0 + 1; y < y1; y++ {
		r.screen.SetContent(x0, y, '│', nil, borderStyle)
		r.screen.SetContent(x1, y, '│', nil, borderStyle)
	}
	r.screen.SetContent(x0, y0, '┌', nil, borderStyle)
	r.screen.SetContent(x1, y0, '┐', nil, borderStyle)
	r.screen.SetContent(x0, y1, '└', nil, borderStyle)
	r.screen.SetContent(x1, y1, '┘', nil, borderStyle)
}
