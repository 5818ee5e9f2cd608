package flock

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets how many goroutines share the per-agent work of a tick.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithEngineLogger sets the logger, log.DiscardLogger by default.
func WithEngineLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine advances flocks by one tick of the three rule steering model.
//
// Every agent reads the same snapshot of positions and velocities, taken when the tick
// starts, and writes into a second buffer. The buffers are swapped once all agents are
// done, so the result does not depend on the agent order nor on the number of workers.
// Neighbours are found with an all pairs scan, O(n²) per tick.
type Engine struct {
	registry *Registry
	workers  int
	logger   log.Logger
}

// NewEngine creates an engine working on reg.
func NewEngine(reg *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: reg,
		logger:   log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Step advances every agent of the flock by dt seconds.
func (e *Engine) Step(h FlockHandle, dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDeltaTime, dt)
	}
	f, err := e.registry.Flock(h)
	if err != nil {
		return err
	}

	start := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.front.pos)
	f.back.resize(n)

	workers := min(e.workers, n)
	if workers > 0 {
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					f.back.pos[i], f.back.vel[i], f.back.rot[i] = steer(i, &f.front, f.params, dt)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("step flock %s: %w", h, err)
		}
	}

	// commit
	f.front, f.back = f.back, f.front
	f.ticks++

	e.logger.Debugf("flock %s: tick %d, %d agents, %d workers in %s", h, f.ticks, n, workers, time.Since(start))
	return nil
}
