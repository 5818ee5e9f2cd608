package flock

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func nan() float64 { return math.NaN() }

func floatNear(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

type seed struct {
	pos, vel geometry.Vector3D
}

// newTestFlock registers the agents in the given order on a fresh registry.
func newTestFlock(t testing.TB, p Parameters, agents []seed) (*Registry, FlockHandle) {
	t.Helper()
	reg := NewRegistry()
	h, err := reg.CreateFlock(p, SpawnSettings{})
	if err != nil {
		t.Fatalf("CreateFlock() error: %v", err)
	}
	for i, a := range agents {
		if _, err := reg.AddAgent(h, a.pos, a.vel); err != nil {
			t.Fatalf("AddAgent(%d) error: %v", i, err)
		}
	}
	return reg, h
}

func randomSeeds(n int, spread float64, rng *rand.Rand) []seed {
	seeds := make([]seed, n)
	for i := range seeds {
		seeds[i] = seed{
			pos: geometry.Vector3D{
				X: (rng.Float64()*2 - 1) * spread,
				Y: (rng.Float64()*2 - 1) * spread,
				Z: (rng.Float64()*2 - 1) * spread,
			},
			vel: RandomInsideUnitSphere(rng),
		}
	}
	return seeds
}

func agentsOf(t testing.TB, reg *Registry, h FlockHandle) []Agent {
	t.Helper()
	f, err := reg.Flock(h)
	if err != nil {
		t.Fatalf("Flock() error: %v", err)
	}
	return f.Agents()
}

func TestEngine_SpeedInvariant(t *testing.T) {
	p := DefaultParameters()
	p.MaxSpeed = 7
	reg, h := newTestFlock(t, p, randomSeeds(60, 20, NewRand(1)))
	e := NewEngine(reg, WithWorkers(4))

	for tick := 0; tick < 10; tick++ {
		if err := e.Step(h, 0.05); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		for _, a := range agentsOf(t, reg, h) {
			if !floatNear(a.Velocity.Len(), p.MaxSpeed, 1e-9) {
				t.Fatalf("tick %d agent %d speed %v; want %v", tick, a.ID, a.Velocity.Len(), p.MaxSpeed)
			}
			if !a.Position.IsFinite() {
				t.Fatalf("tick %d agent %d position %v is not finite", tick, a.ID, a.Position)
			}
		}
	}
}

func TestEngine_BoundsInvariant(t *testing.T) {
	p := DefaultParameters()
	p.Bounds = geometry.Vector3D{X: 10, Y: 5, Z: 8}
	p.Padding = 1
	p.MaxSpeed = 20
	const dt = 0.1
	// start some agents outside of the volume on purpose
	reg, h := newTestFlock(t, p, randomSeeds(40, 15, NewRand(2)))
	e := NewEngine(reg)

	overshoot := p.MaxSpeed * dt
	for tick := 0; tick < 50; tick++ {
		if err := e.Step(h, dt); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		for _, a := range agentsOf(t, reg, h) {
			for axis := 0; axis < 3; axis++ {
				limit := p.Bounds.Axis(axis) + p.Padding + overshoot
				if c := a.Position.Axis(axis); math.Abs(c) > limit+1e-9 {
					t.Fatalf("tick %d agent %d axis %d at %v; limit %v", tick, a.ID, axis, c, limit)
				}
			}
		}
	}
}

func TestEngine_BoundaryTeleport(t *testing.T) {
	p := DefaultParameters()
	p.Bounds = geometry.Vector3D{X: 10, Y: 10, Z: 10}
	p.Padding = 1
	p.MaxSpeed = 1
	reg, h := newTestFlock(t, p, []seed{
		{pos: geometry.Vector3D{X: 11, Y: -12, Z: 3}, vel: geometry.Vector3D{X: 1}},
	})

	if err := NewEngine(reg).Step(h, 0.5); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	got := agentsOf(t, reg, h)[0].Position
	// x > 10 lands on -10+1, y < -10 lands on 10-1, then the tick travel is added on X
	want := geometry.Vector3D{X: -9 + 0.5, Y: 9, Z: 3}
	if !got.Eq(want) {
		t.Errorf("position after teleport = %v; want %v", got, want)
	}
}

func TestEngine_NoNeighbourStability(t *testing.T) {
	p := DefaultParameters()
	p.MaxSpeed = 6
	pos := geometry.Vector3D{X: 1, Y: 2, Z: 3}
	reg, h := newTestFlock(t, p, []seed{{pos: pos, vel: geometry.Vector3D{X: 1, Y: 2, Z: 2}}})

	if err := NewEngine(reg).Step(h, 0.1); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	a := agentsOf(t, reg, h)[0]
	wantVel := geometry.Vector3D{X: 2, Y: 4, Z: 4}
	if !a.Velocity.Eq(wantVel) {
		t.Errorf("velocity = %v; want %v", a.Velocity, wantVel)
	}
	if want := pos.Add(wantVel.Mul(0.1)); !a.Position.Eq(want) {
		t.Errorf("position = %v; want %v", a.Position, want)
	}
	if fwd := a.Orientation.Forward(); !fwd.Eq(wantVel.Normalize()) {
		t.Errorf("forward = %v; want %v", fwd, wantVel.Normalize())
	}
}

func TestEngine_SeparationRepulsion(t *testing.T) {
	p := Parameters{
		Bounds:     geometry.Vector3D{X: 50, Y: 50, Z: 50},
		MaxSpeed:   2,
		Separation: Rule{Range: 5, Factor: 1},
	}
	a0 := geometry.Vector3D{X: 0, Y: 0, Z: 0}
	a1 := geometry.Vector3D{X: 1, Y: 0, Z: 0}
	reg, h := newTestFlock(t, p, []seed{{pos: a0}, {pos: a1}})

	if err := NewEngine(reg).Step(h, 0.1); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	agents := agentsOf(t, reg, h)

	moved0 := agents[0].Position.Sub(a0)
	if d := moved0.Dot(a0.Sub(a1)); d <= 0 {
		t.Errorf("agent 0 moved %v, towards agent 1 (dot %v)", moved0, d)
	}
	moved1 := agents[1].Position.Sub(a1)
	if d := moved1.Dot(a1.Sub(a0)); d <= 0 {
		t.Errorf("agent 1 moved %v, towards agent 0 (dot %v)", moved1, d)
	}
}

func TestEngine_CohesionAttraction(t *testing.T) {
	p := Parameters{
		Bounds:   geometry.Vector3D{X: 50, Y: 50, Z: 50},
		MaxSpeed: 1,
		Cohesion: Rule{Range: 100, Factor: 1},
	}
	reg, h := newTestFlock(t, p, []seed{
		{pos: geometry.Vector3D{X: 0, Y: 0, Z: 0}},
		{pos: geometry.Vector3D{X: 10, Y: 0, Z: 0}},
		{pos: geometry.Vector3D{X: 5, Y: 0, Z: 8}},
	})
	e := NewEngine(reg)

	spread := func() float64 {
		agents := agentsOf(t, reg, h)
		maxDist := 0.0
		for i := range agents {
			for j := i + 1; j < len(agents); j++ {
				maxDist = math.Max(maxDist, agents[i].Position.DistanceTo(agents[j].Position))
			}
		}
		return maxDist
	}

	before := spread()
	for tick := 0; tick < 5; tick++ {
		if err := e.Step(h, 0.1); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
	}
	if after := spread(); after >= before {
		t.Errorf("max pairwise distance went from %v to %v; want a decrease", before, after)
	}
}

func TestEngine_AlignmentFollowsNeighbours(t *testing.T) {
	p := Parameters{
		Bounds:    geometry.Vector3D{X: 50, Y: 50, Z: 50},
		MaxSpeed:  1,
		Alignment: Rule{Range: 10, Factor: 5},
	}
	reg, h := newTestFlock(t, p, []seed{
		{pos: geometry.Vector3D{}, vel: geometry.Vector3D{Z: 1}},
		{pos: geometry.Vector3D{X: 2}, vel: geometry.Vector3D{X: 1}},
		{pos: geometry.Vector3D{X: -2}, vel: geometry.Vector3D{X: 1}},
	})

	if err := NewEngine(reg).Step(h, 0.1); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	v := agentsOf(t, reg, h)[0].Velocity
	// (0,0,1) + 5*(1,0,0), normalised
	want := geometry.Vector3D{X: 5, Z: 1}.Normalize()
	if !v.Eq(want) {
		t.Errorf("velocity = %v; want %v", v, want)
	}
}

func TestEngine_DegenerateCases(t *testing.T) {
	t.Run("CoincidentAgents", func(t *testing.T) {
		p := DefaultParameters()
		p.MaxSpeed = 2
		p.Alignment.Range = 0
		reg, h := newTestFlock(t, p, []seed{
			{pos: geometry.Vector3D{X: 3}, vel: geometry.Vector3D{X: 1}},
			{pos: geometry.Vector3D{X: 3}, vel: geometry.Vector3D{X: 1}},
		})
		if err := NewEngine(reg).Step(h, 0.1); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		for _, a := range agentsOf(t, reg, h) {
			// zero distance gives no separation and no cohesion pull
			if !a.Velocity.Eq(geometry.Vector3D{X: 2}) {
				t.Errorf("agent %d velocity = %v; want (2, 0, 0)", a.ID, a.Velocity)
			}
		}
	})

	t.Run("ZeroVelocityKeepsHeading", func(t *testing.T) {
		p := DefaultParameters()
		p.MaxSpeed = 3
		reg, h := newTestFlock(t, p, []seed{{pos: geometry.Vector3D{}}})
		if err := NewEngine(reg).Step(h, 1); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		a := agentsOf(t, reg, h)[0]
		// no velocity and identity orientation: fall back on +Z
		if !a.Velocity.Eq(geometry.Vector3D{Z: 3}) {
			t.Errorf("velocity = %v; want (0, 0, 3)", a.Velocity)
		}
	})

	t.Run("CancellingSteerKeepsPreviousDirection", func(t *testing.T) {
		p := Parameters{
			Bounds:    geometry.Vector3D{X: 50, Y: 50, Z: 50},
			MaxSpeed:  4,
			Alignment: Rule{Range: 10, Factor: 1},
		}
		// the neighbour velocity exactly cancels the own one
		reg, h := newTestFlock(t, p, []seed{
			{pos: geometry.Vector3D{}, vel: geometry.Vector3D{X: 1}},
			{pos: geometry.Vector3D{Y: 1}, vel: geometry.Vector3D{X: -1}},
		})
		if err := NewEngine(reg).Step(h, 0.1); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		agents := agentsOf(t, reg, h)
		if !agents[0].Velocity.Eq(geometry.Vector3D{X: 4}) {
			t.Errorf("agent 0 velocity = %v; want (4, 0, 0)", agents[0].Velocity)
		}
		if !agents[1].Velocity.Eq(geometry.Vector3D{X: -4}) {
			t.Errorf("agent 1 velocity = %v; want (-4, 0, 0)", agents[1].Velocity)
		}
	})

	t.Run("VerticalVelocityKeepsOrientation", func(t *testing.T) {
		p := DefaultParameters()
		reg, h := newTestFlock(t, p, []seed{{pos: geometry.Vector3D{}, vel: geometry.Vector3D{Y: 1}}})
		before := agentsOf(t, reg, h)[0].Orientation
		if err := NewEngine(reg).Step(h, 0.1); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		if got := agentsOf(t, reg, h)[0].Orientation; got != before {
			t.Errorf("orientation = %v; want previous %v", got, before)
		}
	})
}

func TestEngine_OrderIndependence(t *testing.T) {
	p := DefaultParameters()
	p.Bounds = geometry.Vector3D{X: 15, Y: 15, Z: 15}
	seeds := randomSeeds(80, 15, NewRand(3))

	perm := rand.New(rand.NewPCG(9, 9)).Perm(len(seeds))
	permuted := make([]seed, len(seeds))
	for newIdx, oldIdx := range perm {
		permuted[newIdx] = seeds[oldIdx]
	}

	regA, hA := newTestFlock(t, p, seeds)
	regB, hB := newTestFlock(t, p, permuted)
	for tick := 0; tick < 3; tick++ {
		if err := NewEngine(regA, WithWorkers(1)).Step(hA, 0.05); err != nil {
			t.Fatalf("Step(A) error: %v", err)
		}
		if err := NewEngine(regB, WithWorkers(7)).Step(hB, 0.05); err != nil {
			t.Fatalf("Step(B) error: %v", err)
		}
	}

	a, b := agentsOf(t, regA, hA), agentsOf(t, regB, hB)
	// only the neighbour summation order differs, hence the tolerance
	const tol = 1e-8
	for newIdx, oldIdx := range perm {
		if !a[oldIdx].Position.EqTol(b[newIdx].Position, tol) || !a[oldIdx].Velocity.EqTol(b[newIdx].Velocity, tol) {
			t.Fatalf("agent %d differs after permutation: %+v vs %+v", oldIdx, a[oldIdx], b[newIdx])
		}
	}
}

func TestEngine_WorkerCountDoesNotChangeResult(t *testing.T) {
	p := DefaultParameters()
	seeds := randomSeeds(100, 20, NewRand(4))

	run := func(workers int) []Agent {
		reg, h := newTestFlock(t, p, seeds)
		e := NewEngine(reg, WithWorkers(workers))
		for tick := 0; tick < 5; tick++ {
			if err := e.Step(h, 0.02); err != nil {
				t.Fatalf("Step() error: %v", err)
			}
		}
		return agentsOf(t, reg, h)
	}

	single := run(1)
	for _, workers := range []int{2, 3, 16, 200} {
		got := run(workers)
		for i := range single {
			if got[i] != single[i] {
				t.Fatalf("%d workers: agent %d = %+v; single worker gave %+v", workers, i, got[i], single[i])
			}
		}
	}
}

func TestEngine_Errors(t *testing.T) {
	reg, h := newTestFlock(t, DefaultParameters(), nil)
	e := NewEngine(reg)

	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := e.Step(h, dt); !errors.Is(err, ErrInvalidDeltaTime) {
			t.Errorf("Step(dt=%v) = %v; want ErrInvalidDeltaTime", dt, err)
		}
	}
	if err := e.Step(FlockHandle{}, 0.1); !errors.Is(err, ErrUnknownFlock) {
		t.Errorf("Step(unknown) = %v; want ErrUnknownFlock", err)
	}
	// empty flock and zero dt are fine
	if err := e.Step(h, 0); err != nil {
		t.Errorf("Step(empty, 0) = %v; want nil", err)
	}
	if e.workers < 1 {
		t.Errorf("workers = %d; want at least 1", e.workers)
	}
}

func BenchmarkEngine_Step(b *testing.B) {
	for _, n := range []int{250, 1000} {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			reg, h := newTestFlock(b, DefaultParameters(), randomSeeds(n, 50, NewRand(5)))
			e := NewEngine(reg)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := e.Step(h, 0.016); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
