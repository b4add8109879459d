package geom

import "math"

// Quat is a rotation quaternion. The zero value is not a valid rotation; use
// IdentityQuat.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func IdentityQuat() Quat { return Quat{W: 1} }

func (q Quat) Length() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns q scaled to unit length, or the identity if q is zero.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l == 0 {
		return IdentityQuat()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quat{a.X * s, a.Y * s, a.Z * s, c}
}
