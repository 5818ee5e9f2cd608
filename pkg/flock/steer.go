package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// separationEpsilon guards the 1/dist weighting of the separation rule.
const separationEpsilon = 0.001

// steer computes the next state of agent i from the frozen snapshot snap.
// It reads nothing but snap, p and dt, so agents can be steered in any order or in parallel.
func steer(i int, snap *buffers, p Parameters, dt float64) (geometry.Vector3D, geometry.Vector3D, geometry.Quaternion) {
	me := snap.pos[i]

	var (
		separation, alignment, center geometry.Vector3D
		nSep, nAlign, nCoh            int
	)

	for j, other := range snap.pos {
		if j == i {
			continue // skip itself
		}
		offset := me.Sub(other)
		dist := offset.Len()

		// 1. Separation, weighted by 1/dist
		if dist < p.Separation.Range {
			if dist > separationEpsilon {
				separation = separation.Add(offset.Normalize().Mul(1 / dist))
			}
			nSep++
		}

		// 2. Alignment
		if dist < p.Alignment.Range {
			alignment = alignment.Add(snap.vel[j])
			nAlign++
		}

		// 3. Cohesion
		if dist < p.Cohesion.Range {
			center = center.Add(other)
			nCoh++
		}
	}

	if nSep > 0 {
		separation = separation.Mul(p.Separation.Factor / float64(nSep))
	}
	if nAlign > 0 {
		alignment = alignment.Mul(p.Alignment.Factor / float64(nAlign))
	}
	var cohesion geometry.Vector3D
	if nCoh > 0 {
		center = center.Div(float64(nCoh))
		cohesion = center.Sub(me).Normalize().Mul(p.Cohesion.Factor)
	}

	velocity := clampSpeed(snap.vel[i].Add(separation).Add(alignment).Add(cohesion), snap.vel[i], snap.rot[i], p.MaxSpeed)

	position := wrap(me, p.Bounds, p.Padding).Add(velocity.Mul(dt))

	orientation, ok := geometry.LookRotation(velocity, geometry.Up3D)
	if !ok {
		orientation = snap.rot[i]
	}
	return position, velocity, orientation
}

// clampSpeed rescales v to maxSpeed. A zero v keeps the previous heading, taken from the
// previous velocity or, when that is zero too, from the previous orientation.
func clampSpeed(v, previous geometry.Vector3D, rot geometry.Quaternion, maxSpeed float64) geometry.Vector3D {
	dir := v.Normalize()
	if dir.IsZero() {
		dir = previous.Normalize()
	}
	if dir.IsZero() {
		dir = rot.Forward().Normalize()
	}
	return dir.Mul(maxSpeed)
}

// wrap teleports every out of bounds coordinate to the opposite side, inset by padding.
func wrap(pos, bounds geometry.Vector3D, padding float64) geometry.Vector3D {
	for axis := 0; axis < 3; axis++ {
		b := bounds.Axis(axis)
		switch c := pos.Axis(axis); {
		case c < -b:
			pos = pos.WithAxis(axis, b-padding)
		case c > b:
			pos = pos.WithAxis(axis, -b+padding)
		}
	}
	return pos
}
