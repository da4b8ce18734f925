package vmath

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the length below which a vector is treated as zero
const Epsilon = 1e-9

// Vec3 is a float64 3D vector with value semantics
// Layout matches r3.Vec so conversions are free
type Vec3 struct {
	X, Y, Z float64
}

var (
	Zero  = Vec3{}
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

func V3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// V3FromArray converts a config triple
func V3FromArray(a [3]float64) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func V3Add(a, b Vec3) Vec3 {
	return Vec3(r3.Add(r3.Vec(a), r3.Vec(b)))
}

func V3Sub(a, b Vec3) Vec3 {
	return Vec3(r3.Sub(r3.Vec(a), r3.Vec(b)))
}

func V3Scale(v Vec3, s float64) Vec3 {
	return Vec3(r3.Scale(s, r3.Vec(v)))
}

func V3Negate(v Vec3) Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func V3Dot(a, b Vec3) float64 {
	return r3.Dot(r3.Vec(a), r3.Vec(b))
}

func V3Cross(a, b Vec3) Vec3 {
	return Vec3(r3.Cross(r3.Vec(a), r3.Vec(b)))
}

func V3MagSq(v Vec3) float64 {
	return r3.Norm2(r3.Vec(v))
}

func V3Mag(v Vec3) float64 {
	return r3.Norm(r3.Vec(v))
}

func V3Dist(a, b Vec3) float64 {
	return V3Mag(V3Sub(a, b))
}

// V3AddScaled returns a + dir*s, the point-placement step of both solver passes
func V3AddScaled(a, dir Vec3, s float64) Vec3 {
	return Vec3{a.X + dir.X*s, a.Y + dir.Y*s, a.Z + dir.Z*s}
}

// V3Normalize returns the unit vector, or zero for a zero-length input
// Hot paths should use V3UnitOr with a known-good fallback instead
func V3Normalize(v Vec3) Vec3 {
	if V3Mag(v) <= Epsilon {
		return Vec3{}
	}
	return Vec3(r3.Unit(r3.Vec(v)))
}

// V3UnitOr normalizes v, returning fallback when v is too short to carry a direction
func V3UnitOr(v, fallback Vec3) Vec3 {
	if V3Mag(v) <= Epsilon {
		return fallback
	}
	return Vec3(r3.Unit(r3.Vec(v)))
}

// V3IsZero reports whether v is shorter than Epsilon
func V3IsZero(v Vec3) bool {
	return V3Mag(v) <= Epsilon
}

func V3ApproxEqual(a, b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func V3IsFinite(v Vec3) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func V3Lerp(a, b Vec3, t float64) Vec3 {
	return V3Add(a, V3Scale(V3Sub(b, a), t))
}

// V3ProjectOnPlane removes the component of v along the plane normal n
// n must be unit length
func V3ProjectOnPlane(v, n Vec3) Vec3 {
	return V3Sub(v, V3Scale(n, V3Dot(v, n)))
}

// V3Perpendicular returns a unit vector perpendicular to v
// Picks the world axis least aligned with v so the cross product is well conditioned
func V3Perpendicular(v Vec3) Vec3 {
	ref := UnitX
	if math.Abs(V3Normalize(v).X) > 0.9 {
		ref = UnitY
	}
	return V3Normalize(V3Cross(v, ref))
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// MarshalJSON encodes as [x, y, z] for renderer consumption
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Array())
}

func (v *Vec3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("vec3 must be a 3-element array: %w", err)
	}
	*v = V3FromArray(a)
	return nil
}
