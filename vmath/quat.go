package vmath

import "github.com/go-gl/mathgl/mgl64"

// RestAxis is the bone-local axis that points at the next bone once oriented
var RestAxis = Vec3{0, 0, -1}

// Orientation returns the shortest-arc rotation taking RestAxis onto dir as [x, y, z, w]
// Roll about dir is left to the presentation layer
func Orientation(dir Vec3) [4]float64 {
	d := V3UnitOr(dir, RestAxis)
	q := mgl64.QuatBetweenVectors(toMgl(RestAxis), toMgl(d)).Normalize()
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}

// RotateByOrientation applies an [x, y, z, w] rotation to v
func RotateByOrientation(q [4]float64, v Vec3) Vec3 {
	mq := mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
	r := mq.Rotate(toMgl(v))
	return Vec3{r[0], r[1], r[2]}
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
