package geometry

import (
	"fmt"
	"math"
)

// Quaternion is a unit rotation. The zero value is not a rotation, use Identity.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the rotation that leaves every vector unchanged.
var Identity = Quaternion{W: 1}

// String implements the fmt.Stringer interface.
func (q Quaternion) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", q.X, q.Y, q.Z, q.W)
}

// NewQuaternionAxisAngle builds the rotation of angle radians around axis.
func NewQuaternionAxisAngle(axis Vector3D, angle float64) Quaternion {
	a := axis.Normalize()
	if a.IsZero() {
		return Identity
	}
	s := math.Sin(angle / 2)
	return Quaternion{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(angle / 2)}
}

// LookRotation returns the rotation that turns +Z onto forward while keeping +Y as close
// to up as possible. ok is false when forward is zero or parallel to up, there is no
// unique answer then and callers keep their previous orientation.
func LookRotation(forward, up Vector3D) (q Quaternion, ok bool) {
	f := forward.Normalize()
	if f.IsZero() {
		return Identity, false
	}
	r := up.Cross(f)
	if r.Len() < 1e-6 {
		return Identity, false
	}
	r = r.Normalize()
	u := f.Cross(r)

	// Columns of the rotation matrix are r, u, f.
	m00, m01, m02 := r.X, u.X, f.X
	m10, m11, m12 := r.Y, u.Y, f.Y
	m20, m21, m22 := r.Z, u.Z, f.Z

	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quaternion{W: s / 4, X: (m21 - m12) / s, Y: (m02 - m20) / s, Z: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quaternion{W: (m21 - m12) / s, X: s / 4, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quaternion{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: s / 4, Z: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quaternion{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: s / 4}
	}
	return q.Normalize(), true
}

// Mul composes two rotations, the result applies other first and then q.
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
	}
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vector3D) Vector3D {
	qv := Vector3D{q.X, q.Y, q.Z}
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(qv.Cross(t))
}

// Forward is the direction +Z points to after the rotation.
func (q Quaternion) Forward() Vector3D {
	return q.Rotate(Forward3D)
}

// Len returns the norm of the quaternion.
func (q Quaternion) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns the unit quaternion, or Identity when q is degenerate.
func (q Quaternion) Normalize() Quaternion {
	l := q.Len()
	if l < Epsilon {
		return Identity
	}
	return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Eq reports whether q and other describe the same rotation within Epsilon.
// q and -q are the same rotation.
func (q Quaternion) Eq(other Quaternion) bool {
	d := q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
	return math.Abs(math.Abs(d)-1) <= 1e-9
}
