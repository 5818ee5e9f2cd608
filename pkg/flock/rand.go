package flock

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Rand is the random source used by the spawner. *rand.Rand satisfies it.
// Every call draws a fresh sample, no sample is ever shared between agents.
type Rand interface {
	Float64() float64
}

// NewRand returns a source that replays the same sequence for the same seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewUnseededRand returns a source seeded from the runtime generator.
func NewUnseededRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// RandomDirection returns a unit vector uniformly distributed on the sphere.
func RandomDirection(rng Rand) geometry.Vector3D {
	y := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - y*y)
	return geometry.Vector3D{X: r * math.Cos(phi), Y: y, Z: r * math.Sin(phi)}
}

// minInitialSpeedSq rejects velocities too short to give a heading.
const minInitialSpeedSq = 1e-6

// RandomInsideUnitSphere returns a point of the unit ball, never (almost) the origin.
func RandomInsideUnitSphere(rng Rand) geometry.Vector3D {
	for {
		v := geometry.Vector3D{
			X: 2*rng.Float64() - 1,
			Y: 2*rng.Float64() - 1,
			Z: 2*rng.Float64() - 1,
		}
		if l := v.LenSqr(); l > minInitialSpeedSq && l <= 1 {
			return v
		}
	}
}
