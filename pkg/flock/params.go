// Package flock implements a boids flock: a registry of agents, a spawner that grows a
// flock to its target population and an engine that advances every agent one tick with
// the separation, alignment and cohesion rules.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986, which
// simulates the flocking behaviour of birds. https://en.wikipedia.org/wiki/Boids
package flock

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"go.uber.org/multierr"
)

var (
	// ErrUnknownFlock is returned for a FlockHandle the registry never issued.
	ErrUnknownFlock = errors.New("unknown flock")
	// ErrCapacity is returned by AddAgent when a registry capacity is set and reached,
	// and by CreateFlock for a spawn target above that capacity.
	ErrCapacity = errors.New("flock capacity reached")
	// ErrInvalidParameters wraps every parameter or spawn settings validation failure.
	ErrInvalidParameters = errors.New("invalid flock parameters")
	// ErrInvalidDeltaTime is returned by Step for a negative or non finite elapsed time.
	ErrInvalidDeltaTime = errors.New("invalid delta time")
)

// Rule is the (range, factor) pair of one steering rule.
// A neighbour contributes when its distance is strictly below Range.
type Rule struct {
	Range  float64 `json:"range"`
	Factor float64 `json:"factor"`
}

// Parameters are the simulation wide settings shared by every agent of a flock.
// They are fixed once the flock is created.
type Parameters struct {
	// Bounds are the half extents of the simulation volume, centred on the origin.
	Bounds geometry.Vector3D `json:"bounds"`
	// Padding insets the position an agent is teleported to when it leaves the volume.
	Padding  float64 `json:"padding"`
	MaxSpeed float64 `json:"maxSpeed"`

	Separation Rule `json:"separation"`
	Alignment  Rule `json:"alignment"`
	Cohesion   Rule `json:"cohesion"`
}

// DefaultParameters mirrors the stock boid settings: every range 10, every factor 1.
func DefaultParameters() Parameters {
	return Parameters{
		Bounds:     geometry.Vector3D{X: 50, Y: 50, Z: 50},
		Padding:    1,
		MaxSpeed:   10,
		Separation: Rule{Range: 10, Factor: 1},
		Alignment:  Rule{Range: 10, Factor: 1},
		Cohesion:   Rule{Range: 10, Factor: 1},
	}
}

// Validate checks that every value is finite. Negative ranges and factors are accepted,
// a rule with a negative range simply never matches a neighbour.
func (p Parameters) Validate() error {
	var err error
	if !p.Bounds.IsFinite() {
		err = multierr.Append(err, fmt.Errorf("bounds %v is not finite", p.Bounds))
	}
	err = multierr.Append(err, checkFinite("padding", p.Padding))
	err = multierr.Append(err, checkFinite("maxSpeed", p.MaxSpeed))
	err = multierr.Append(err, p.Separation.validate("separation"))
	err = multierr.Append(err, p.Alignment.validate("alignment"))
	err = multierr.Append(err, p.Cohesion.validate("cohesion"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}

func (r Rule) validate(name string) error {
	return multierr.Combine(
		checkFinite(name+".range", r.Range),
		checkFinite(name+".factor", r.Factor),
	)
}

// SpawnSettings tell the spawner how many agents a flock should hold and where they appear.
type SpawnSettings struct {
	TargetCount int               `json:"targetCount"`
	Radius      float64           `json:"radius"`
	Origin      geometry.Vector3D `json:"origin"`
}

// Validate rejects a negative target and non finite placement values.
func (s SpawnSettings) Validate() error {
	var err error
	if s.TargetCount < 0 {
		err = multierr.Append(err, fmt.Errorf("targetCount %d is negative", s.TargetCount))
	}
	err = multierr.Append(err, checkFinite("radius", s.Radius))
	if !s.Origin.IsFinite() {
		err = multierr.Append(err, fmt.Errorf("origin %v is not finite", s.Origin))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s %v is not finite", name, v)
	}
	return nil
}
