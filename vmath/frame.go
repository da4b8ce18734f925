package vmath

import "math"

// Frame is an orthonormal basis; local vectors map to X*x + Y*y + Z*z
type Frame struct {
	X, Y, Z Vec3
}

// Identity maps local vectors to themselves
var Identity = Frame{X: UnitX, Y: UnitY, Z: UnitZ}

// FrameAlong builds a basis whose Z axis is dir
// Near-vertical directions take world X as the X axis to avoid the cross-product singularity
func FrameAlong(dir Vec3) Frame {
	z := V3UnitOr(dir, UnitZ)

	var x Vec3
	if math.Abs(z.Y) > 0.9999 {
		x = UnitX
	} else {
		x = V3Normalize(V3Cross(z, UnitY))
	}
	y := V3Normalize(V3Cross(x, z))

	return Frame{X: x, Y: y, Z: z}
}

// Apply maps a frame-local vector to the parent space
func (f Frame) Apply(local Vec3) Vec3 {
	return Vec3{
		X: f.X.X*local.X + f.Y.X*local.Y + f.Z.X*local.Z,
		Y: f.X.Y*local.X + f.Y.Y*local.Y + f.Z.Y*local.Z,
		Z: f.X.Z*local.X + f.Y.Z*local.Y + f.Z.Z*local.Z,
	}
}
