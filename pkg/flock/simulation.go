package flock

import (
	"errors"
	"fmt"

	"github.com/tochemey/goakt/v3/log"
)

// Frame is what a renderer needs from one tick: the pose and velocity of every agent.
type Frame struct {
	Tick   uint64      `json:"tick"`
	Flock  FlockHandle `json:"flock"`
	Agents []Agent     `json:"agents"`
}

// SimulationOption configures a Simulation.
type SimulationOption func(*simulationOptions)

type simulationOptions struct {
	workers int
	logger  log.Logger
}

// WithSimulationWorkers is WithWorkers for the engine of the simulation.
func WithSimulationWorkers(n int) SimulationOption {
	return func(o *simulationOptions) {
		o.workers = n
	}
}

// WithSimulationLogger sets the logger of the spawner and the engine.
func WithSimulationLogger(logger log.Logger) SimulationOption {
	return func(o *simulationOptions) {
		o.logger = logger
	}
}

// Simulation drives one flock: every Tick runs the spawn step and then the flocking step.
// Agents spawned during a tick already take part in that tick's flocking pass.
type Simulation struct {
	registry *Registry
	handle   FlockHandle
	spawner  *Spawner
	engine   *Engine
	rng      Rand
	logger   log.Logger

	capacityWarned bool
}

// NewSimulation wires a spawner and an engine to the flock h of reg.
func NewSimulation(reg *Registry, h FlockHandle, rng Rand, opts ...SimulationOption) (*Simulation, error) {
	if _, err := reg.Flock(h); err != nil {
		return nil, err
	}
	o := simulationOptions{logger: log.DiscardLogger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Simulation{
		registry: reg,
		handle:   h,
		spawner:  NewSpawner(reg, WithSpawnerLogger(o.logger)),
		engine:   NewEngine(reg, WithWorkers(o.workers), WithEngineLogger(o.logger)),
		rng:      rng,
		logger:   o.logger,
	}, nil
}

// Handle returns the simulated flock.
func (s *Simulation) Handle() FlockHandle { return s.handle }

// Tick spawns missing agents, advances the flock by dt and returns the resulting frame.
// A full flock is not an error here: the agents already alive keep flocking.
func (s *Simulation) Tick(dt float64) (Frame, error) {
	if _, err := s.spawner.SpawnStep(s.handle, s.rng); err != nil {
		if !errors.Is(err, ErrCapacity) {
			return Frame{}, fmt.Errorf("tick: %w", err)
		}
		if !s.capacityWarned {
			s.logger.Warnf("flock %s: %v, spawning stops", s.handle, err)
			s.capacityWarned = true
		}
	}
	if err := s.engine.Step(s.handle, dt); err != nil {
		return Frame{}, fmt.Errorf("tick: %w", err)
	}
	return s.Snapshot()
}

// Snapshot returns the current frame without advancing the flock.
func (s *Simulation) Snapshot() (Frame, error) {
	f, err := s.registry.Flock(s.handle)
	if err != nil {
		return Frame{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	frame := Frame{
		Tick:   f.ticks,
		Flock:  s.handle,
		Agents: make([]Agent, len(f.front.pos)),
	}
	for i := range frame.Agents {
		frame.Agents[i] = f.agentLocked(i)
	}
	return frame, nil
}
