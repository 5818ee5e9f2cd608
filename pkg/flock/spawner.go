package flock

import (
	"fmt"

	"github.com/tochemey/goakt/v3/log"
)

// SpawnerOption configures a Spawner.
type SpawnerOption func(*Spawner)

// WithSpawnerLogger sets the logger, log.DiscardLogger by default.
func WithSpawnerLogger(logger log.Logger) SpawnerOption {
	return func(s *Spawner) {
		s.logger = logger
	}
}

// Spawner grows flocks up to their target population. It only ever adds agents.
type Spawner struct {
	registry *Registry
	logger   log.Logger
}

// NewSpawner creates a spawner working on reg.
func NewSpawner(reg *Registry, opts ...SpawnerOption) *Spawner {
	s := &Spawner{
		registry: reg,
		logger:   log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpawnStep adds the whole remaining deficit of the flock in one burst and returns how
// many agents it created. Once the target is reached it is a no-op.
//
// Each agent is placed at Origin + direction*Radius*u, with a direction uniform on the
// unit sphere and u uniform in [0, 1). Its velocity is a random non zero point of the
// unit ball.
func (s *Spawner) SpawnStep(h FlockHandle, rng Rand) (int, error) {
	f, err := s.registry.Flock(h)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	spawned := 0
	for f.state.Spawned < f.state.Target {
		offset := RandomDirection(rng).Mul(f.spawn.Radius * rng.Float64())
		position := f.spawn.Origin.Add(offset)
		velocity := RandomInsideUnitSphere(rng)

		id, err := f.addLocked(position, velocity)
		if err != nil {
			return spawned, fmt.Errorf("spawn agent %d/%d: %w", f.state.Spawned+1, f.state.Target, err)
		}
		f.state.Spawned++
		spawned++
		s.logger.Debugf("flock %s: born agent %d at %s", h, id, position)
	}

	if spawned > 0 {
		s.logger.Infof("flock %s: spawned %d agents (%d/%d)", h, spawned, f.state.Spawned, f.state.Target)
	}
	return spawned, nil
}
