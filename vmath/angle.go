package vmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// V3Rotate rotates v about axis by deg degrees, right-handed
// Axis need not be unit length; a zero axis leaves v unchanged
func V3Rotate(v Vec3, deg float64, axis Vec3) Vec3 {
	if V3IsZero(axis) {
		return v
	}
	rot := r3.NewRotation(DegToRad(deg), r3.Vec(axis))
	return Vec3(rot.Rotate(r3.Vec(v)))
}

// V3Angle returns the unsigned angle between a and b in degrees, in [0, 180]
// Zero-length inputs yield 0
func V3Angle(a, b Vec3) float64 {
	ma, mb := V3Mag(a), V3Mag(b)
	if ma <= Epsilon || mb <= Epsilon {
		return 0
	}
	c := V3Dot(a, b) / (ma * mb)
	return RadToDeg(math.Acos(Clamp(c, -1, 1)))
}

// V3SignedAngle returns the angle from ref to v in degrees, positive when the
// rotation is anticlockwise looking down normal, in (-180, 180]
func V3SignedAngle(ref, v, normal Vec3) float64 {
	angle := V3Angle(ref, v)
	if V3Dot(V3Cross(ref, v), normal) < 0 {
		return -angle
	}
	return angle
}

// V3LimitAngle clamps dir to a cone of halfAngle degrees around ref
// Both inputs are unit; halfAngle >= 180 is unconstrained
func V3LimitAngle(dir, ref Vec3, halfAngle float64) Vec3 {
	if halfAngle >= 180 {
		return dir
	}
	if V3Angle(dir, ref) <= halfAngle {
		return dir
	}

	axis := V3Cross(ref, dir)
	if V3IsZero(axis) {
		// Antiparallel: any perpendicular is a shortest path
		axis = V3Perpendicular(ref)
	}
	return V3UnitOr(V3Rotate(ref, halfAngle, axis), ref)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
