package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
)

var timeScales = []float64{0, 0.25, 0.5, 1, 2, 4}

// App ticks the flock of a Host at the configured rate and renders the pushed frames.
//
// Keys: q or Esc quits, space pauses, v switches view, b toggles the bounds box,
// + and - change the time scale.
type App struct {
	host     *simulation.Host
	renderer *Renderer
	screen   tcell.Screen

	paused    bool
	scale     int // index in timeScales
	lastFrame flock.Frame
}

// NewApp binds an initialized screen to host.
func NewApp(host *simulation.Host, screen tcell.Screen) *App {
	return &App{
		host:     host,
		renderer: NewRenderer(screen, host.Config().Bounds),
		screen:   screen,
		scale:    3,
	}
}

// TimeScale is the factor applied to the tick duration.
func (a *App) TimeScale() float64 { return timeScales[a.scale] }

// Paused reports whether ticking is suspended.
func (a *App) Paused() bool { return a.paused }

// HandleEvent applies one input event and reports whether the app should keep running.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			a.paused = !a.paused
		case 'v':
			a.renderer.ToggleView()
		case 'b':
			a.renderer.ToggleBounds()
		case '+':
			a.scale = min(a.scale+1, len(timeScales)-1)
		case '-':
			a.scale = max(a.scale-1, 0)
		}

	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *App) status() string {
	if a.paused {
		return "PAUSED"
	}
	return fmt.Sprintf("x%.2f", a.TimeScale())
}

// pollEvents forwards screen events until the screen is finalized or done is closed.
func pollEvents(screen tcell.Screen, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// Run loops until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	cfg := a.host.Config()
	tick := time.Duration(cfg.TickSeconds() * float64(time.Second))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(a.screen, eventChan, done)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-eventChan:
			if !a.HandleEvent(ev) {
				return nil
			}

		case f := <-a.host.Frames:
			a.lastFrame = f

		case <-ticker.C:
			if !a.paused {
				dt := time.Duration(float64(tick) * a.TimeScale())
				if err := a.host.Tick(ctx, dt); err != nil {
					return err
				}
			}
			a.renderer.Draw(a.lastFrame, a.status())
		}
	}
}
