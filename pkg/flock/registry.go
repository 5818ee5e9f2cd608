package flock

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// FlockHandle identifies one flock of a Registry. It is obtained once from CreateFlock and
// passed explicitly afterwards.
type FlockHandle uuid.UUID

// String returns the canonical uuid text.
func (h FlockHandle) String() string {
	return uuid.UUID(h).String()
}

// MarshalText implements encoding.TextMarshaler.
func (h FlockHandle) MarshalText() ([]byte, error) {
	return uuid.UUID(h).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *FlockHandle) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(h).UnmarshalText(data)
}

// ParseFlockHandle parses the text form produced by String.
func ParseFlockHandle(s string) (FlockHandle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return FlockHandle{}, fmt.Errorf("parse flock handle %q: %w", s, err)
	}
	return FlockHandle(id), nil
}

// AgentHandle identifies an agent inside its flock. Agents are never removed, so the
// handle is the stable insertion index of the agent.
type AgentHandle uint32

// Agent is the observable state of one boid.
type Agent struct {
	ID          AgentHandle         `json:"id"`
	Position    geometry.Vector3D   `json:"position"`
	Velocity    geometry.Vector3D   `json:"velocity"`
	Orientation geometry.Quaternion `json:"orientation"`
}

// FlockState tracks the spawner progress. Spawned never decreases and never exceeds Target.
type FlockState struct {
	Spawned int `json:"spawned"`
	Target  int `json:"target"`
}

// Done reports whether the spawner has nothing left to do.
func (s FlockState) Done() bool {
	return s.Spawned >= s.Target
}

// buffers holds the per-agent arrays, indexed by AgentHandle.
type buffers struct {
	pos []geometry.Vector3D
	vel []geometry.Vector3D
	rot []geometry.Quaternion
}

func (b *buffers) resize(n int) {
	if cap(b.pos) < n {
		b.pos = make([]geometry.Vector3D, n, cap(b.pos)*2+n)
		b.vel = make([]geometry.Vector3D, n, cap(b.vel)*2+n)
		b.rot = make([]geometry.Quaternion, n, cap(b.rot)*2+n)
		return
	}
	b.pos = b.pos[:n]
	b.vel = b.vel[:n]
	b.rot = b.rot[:n]
}

// Flock is one group of agents sharing a set of Parameters.
// front is the committed state, back receives the next tick before the swap.
type Flock struct {
	mu       sync.RWMutex
	handle   FlockHandle
	params   Parameters
	spawn    SpawnSettings
	state    FlockState
	capacity int
	ticks    uint64

	front buffers
	back  buffers
}

// Handle returns the flock identity.
func (f *Flock) Handle() FlockHandle { return f.handle }

// Parameters returns the flock parameters.
func (f *Flock) Parameters() Parameters { return f.params }

// SpawnSettings returns the spawn target and placement of the flock.
func (f *Flock) SpawnSettings() SpawnSettings { return f.spawn }

// State returns the spawner progress.
func (f *Flock) State() FlockState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Len returns the number of live agents.
func (f *Flock) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.front.pos)
}

// Agents copies the current state of every agent, in insertion order.
func (f *Flock) Agents() []Agent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	agents := make([]Agent, len(f.front.pos))
	for i := range agents {
		agents[i] = f.agentLocked(i)
	}
	return agents
}

func (f *Flock) agentLocked(i int) Agent {
	return Agent{
		ID:          AgentHandle(i),
		Position:    f.front.pos[i],
		Velocity:    f.front.vel[i],
		Orientation: f.front.rot[i],
	}
}

// addLocked appends an agent. The caller holds f.mu for writing.
func (f *Flock) addLocked(position, velocity geometry.Vector3D) (AgentHandle, error) {
	n := len(f.front.pos)
	if f.capacity > 0 && n >= f.capacity {
		return 0, fmt.Errorf("%w: flock %s holds %d agents", ErrCapacity, f.handle, n)
	}
	rot, ok := geometry.LookRotation(velocity, geometry.Up3D)
	if !ok {
		rot = geometry.Identity
	}
	f.front.pos = append(f.front.pos, position)
	f.front.vel = append(f.front.vel, velocity)
	f.front.rot = append(f.front.rot, rot)
	return AgentHandle(n), nil
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity caps the number of agents per flock. Zero, the default, means no cap.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		r.capacity = n
	}
}

// Registry owns every flock and is the single source of truth for their agents.
type Registry struct {
	mu       sync.RWMutex
	flocks   map[FlockHandle]*Flock
	order    []FlockHandle
	capacity int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		flocks: make(map[FlockHandle]*Flock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateFlock validates the settings and registers a new empty flock. A target above the
// registry capacity is rejected with ErrCapacity.
func (r *Registry) CreateFlock(params Parameters, spawn SpawnSettings) (FlockHandle, error) {
	if err := params.Validate(); err != nil {
		return FlockHandle{}, err
	}
	if err := spawn.Validate(); err != nil {
		return FlockHandle{}, err
	}
	if r.capacity > 0 && spawn.TargetCount > r.capacity {
		return FlockHandle{}, fmt.Errorf("%w: target %d exceeds %d agents per flock", ErrCapacity, spawn.TargetCount, r.capacity)
	}

	h := FlockHandle(uuid.New())
	f := &Flock{
		handle:   h,
		params:   params,
		spawn:    spawn,
		state:    FlockState{Target: spawn.TargetCount},
		capacity: r.capacity,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.flocks[h] = f
	r.order = append(r.order, h)
	return h, nil
}

// Flock returns the flock behind h.
func (r *Registry) Flock(h FlockHandle) (*Flock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flocks[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlock, h)
	}
	return f, nil
}

// Flocks lists the handles in creation order.
func (r *Registry) Flocks() []FlockHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FlockHandle(nil), r.order...)
}

// AddAgent appends an agent to the flock. Its orientation looks along velocity.
// Agents added here do not count towards the spawner target.
func (r *Registry) AddAgent(h FlockHandle, position, velocity geometry.Vector3D) (AgentHandle, error) {
	f, err := r.Flock(h)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(position, velocity)
}

// ForEachAgent calls visitor for every agent in insertion order.
// The flock is read locked during the walk, visitor must not call back into the registry
// for the same flock with a writing operation.
func (r *Registry) ForEachAgent(h FlockHandle, visitor func(Agent)) error {
	f, err := r.Flock(h)
	if err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := range f.front.pos {
		visitor(f.agentLocked(i))
	}
	return nil
}

// Len returns the number of agents of a flock.
func (r *Registry) Len(h FlockHandle) (int, error) {
	f, err := r.Flock(h)
	if err != nil {
		return 0, err
	}
	return f.Len(), nil
}
