// Package viewer draws a running flock in an ebiten window.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/render"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
)

const (
	panelWidth = 240.0
	margin     = 10.0
	// DrawTriangles takes uint16 indices
	maxVertices = math.MaxUint16 - 3
)

var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	boundsColor     = color.RGBA{R: 90, G: 90, B: 120, A: 255}
	spawnColor      = color.RGBA{R: 50, G: 200, B: 100, A: 120}
)

// Game implements ebiten.Game. Every Update asks the host for one tick scaled by
// the time scale slider and Draw renders the last frame the host pushed.
type Game struct {
	ctx       context.Context
	host      *simulation.Host
	cfg       *simulation.Config
	lastFrame flock.Frame
	paused    bool

	// UI Controls
	panel            *ui.Panel
	widgetTimeScale  *ui.Slider
	widgetSideView   *ui.Checkbox
	widgetShowBounds *ui.Checkbox
	widgetShowSpawn  *ui.Checkbox
	pauseButton      *ui.Button

	whitePixel *ebiten.Image
	vertices   []ebiten.Vertex
	indices    []uint16

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame builds the window controller of the flock behind host.
func NewGame(ctx context.Context, host *simulation.Host) *Game {
	cfg := host.Config()
	g := &Game{
		ctx:  ctx,
		host: host,
		cfg:  cfg,
	}

	panel := ui.NewPanel("Flock", margin, margin, panelWidth, float64(cfg.WindowHeight)-2*margin)
	panel.AddSection("Run")
	g.pauseButton = panel.AddButton("Pause / Resume [space]", g.togglePause)
	g.widgetTimeScale = panel.AddSlider("Time Scale", 0, 4, 1)
	panel.EndSection()

	panel.AddSection("Visualization")
	g.widgetSideView = panel.AddCheckbox("Side View [v]", false)
	g.widgetShowBounds = panel.AddCheckbox("Show Bounds", true)
	g.widgetShowSpawn = panel.AddCheckbox("Show Spawn Sphere", false)
	panel.EndSection()
	g.panel = panel

	g.whitePixel = ebiten.NewImage(3, 3)
	g.whitePixel.Fill(color.White)
	return g
}

func (g *Game) togglePause() { g.paused = !g.paused }

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	// 1. Input
	g.panel.Update(ui.ReadPointer())
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.widgetSideView.Value = !g.widgetSideView.Value
	}

	// 2. Keep the latest pushed frame
Loop:
	for {
		select {
		case f := <-g.host.Frames:
			g.lastFrame = f
		default:
			break Loop
		}
	}

	// 3. Trigger Simulation Step
	if g.paused {
		return nil
	}
	dt := time.Duration(g.cfg.TickSeconds() * g.widgetTimeScale.Value * float64(time.Second))
	return g.host.Tick(g.ctx, dt)
}

func (g *Game) projection() render.Projection {
	left := 2*margin + panelWidth
	p := render.NewProjection(g.cfg.Bounds,
		float64(g.cfg.WindowWidth)-left-margin,
		float64(g.cfg.WindowHeight)-2*margin)
	p.Left, p.Top = left, margin
	if g.widgetSideView.Value {
		p.View = render.SideView
	}
	return p
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	proj := g.projection()

	if g.widgetShowBounds.Value {
		tl, br := proj.BoundsRect()
		vector.StrokeRect(screen, float32(tl.X), float32(tl.Y), float32(br.X-tl.X), float32(br.Y-tl.Y), 1, boundsColor, true)
	}
	if g.widgetShowSpawn.Value {
		c := proj.ToScreen(g.cfg.SpawnOrigin)
		r := g.cfg.SpawnRadius * proj.Scale()
		vector.StrokeCircle(screen, float32(c.X), float32(c.Y), float32(r), 1, spawnColor, true)
	}

	g.drawFlock(screen, proj)
	g.panel.Draw(screen)
	g.drawStats(screen)
}

// drawFlock batches every agent as one triangle pointing along its velocity.
// Agents nearer to the camera are drawn brighter.
func (g *Game) drawFlock(screen *ebiten.Image, proj render.Projection) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	flush := func() {
		if len(g.indices) > 0 {
			screen.DrawTriangles(g.vertices, g.indices, g.whitePixel, &ebiten.DrawTrianglesOptions{})
		}
		g.vertices = g.vertices[:0]
		g.indices = g.indices[:0]
	}

	for _, a := range g.lastFrame.Agents {
		if len(g.vertices)+3 > maxVertices {
			flush()
		}
		pos := proj.ToScreen(a.Position)
		angle := proj.Heading(a.Orientation.Forward())
		shade := float32(0.4 + 0.6*proj.Depth(a.Position))
		r, gr, b := 0.4*shade, 0.8*shade, shade

		base := uint16(len(g.vertices))
		for _, corner := range [3]struct{ da, size float64 }{{0, 6}, {2.5, 5}, {-2.5, 5}} {
			v := pos.Add(geometry.NewVectorPolar(corner.size, angle+corner.da))
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX:   float32(v.X),
				DstY:   float32(v.Y),
				SrcX:   1,
				SrcY:   1,
				ColorR: r,
				ColorG: gr,
				ColorB: b,
				ColorA: 1,
			})
		}
		g.indices = append(g.indices, base, base+1, base+2)
	}
	flush()
}

func (g *Game) drawStats(screen *ebiten.Image) {
	status := "running"
	if g.paused {
		status = "PAUSED"
	}
	view := render.TopView
	if g.widgetSideView.Value {
		view = render.SideView
	}
	msg := fmt.Sprintf("Tick: %d (%s)\nAgents: %d / %d\nView: %s\nTime scale: x%.2f\n\nFPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		g.lastFrame.Tick, status,
		len(g.lastFrame.Agents), g.cfg.TargetCount,
		view,
		g.widgetTimeScale.Value,
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg)
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, g.cfg.WindowWidth-170, int(margin))
}

func (g *Game) Layout(w, h int) (int, int) { return g.cfg.WindowWidth, g.cfg.WindowHeight }
