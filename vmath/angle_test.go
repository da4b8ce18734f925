package vmath

import (
	"math"
	"testing"
)

func TestV3Rotate(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		deg  float64
		axis Vec3
		want Vec3
	}{
		{"y about x by 90", UnitY, 90, UnitX, UnitZ},
		{"x about z by 90", UnitX, 90, UnitZ, UnitY},
		{"x about z by -90", UnitX, -90, UnitZ, Vec3{0, -1, 0}},
		{"non-unit axis", UnitY, 90, Vec3{5, 0, 0}, UnitZ},
		{"zero axis", UnitY, 90, Vec3{}, UnitY},
		{"zero angle", Vec3{1, 2, 3}, 0, UnitX, Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		got := V3Rotate(tt.v, tt.deg, tt.axis)
		if !V3ApproxEqual(got, tt.want, 1e-9) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestV3Angle(t *testing.T) {
	if a := V3Angle(UnitX, UnitY); math.Abs(a-90) > 1e-9 {
		t.Errorf("Expected 90, got %f", a)
	}
	if a := V3Angle(UnitX, Vec3{-2, 0, 0}); math.Abs(a-180) > 1e-9 {
		t.Errorf("Expected 180, got %f", a)
	}
	if a := V3Angle(UnitX, Vec3{}); a != 0 {
		t.Errorf("Expected 0 for zero input, got %f", a)
	}
}

func TestV3SignedAngle(t *testing.T) {
	if a := V3SignedAngle(UnitY, UnitZ, UnitX); math.Abs(a-90) > 1e-9 {
		t.Errorf("Expected +90, got %f", a)
	}
	if a := V3SignedAngle(UnitY, Vec3{0, 0, -1}, UnitX); math.Abs(a+90) > 1e-9 {
		t.Errorf("Expected -90, got %f", a)
	}
}

func TestV3LimitAngle(t *testing.T) {
	ref := UnitY

	// Inside the cone: untouched
	inside := V3Normalize(Vec3{0.1, 1, 0})
	if got := V3LimitAngle(inside, ref, 30); got != inside {
		t.Errorf("Expected unchanged direction, got %v", got)
	}

	// Outside: clamped onto the cone boundary, in the same half-plane
	outside := UnitX
	got := V3LimitAngle(outside, ref, 30)
	if a := V3Angle(got, ref); math.Abs(a-30) > 1e-9 {
		t.Errorf("Expected 30 degrees from ref, got %f", a)
	}
	if got.X <= 0 || math.Abs(got.Z) > 1e-9 {
		t.Errorf("Expected clamp toward +X in XY plane, got %v", got)
	}

	// Antiparallel: still lands on the boundary
	got = V3LimitAngle(Vec3{0, -1, 0}, ref, 45)
	if a := V3Angle(got, ref); math.Abs(a-45) > 1e-9 {
		t.Errorf("Expected 45 degrees for antiparallel input, got %f", a)
	}

	// Free cone
	if got := V3LimitAngle(outside, ref, 180); got != outside {
		t.Errorf("Expected unconstrained passthrough, got %v", got)
	}
}

func TestFrameAlong(t *testing.T) {
	for _, dir := range []Vec3{UnitY, {0, -1, 0}, UnitX, UnitZ, V3Normalize(Vec3{1, 2, -3})} {
		f := FrameAlong(dir)
		if !V3ApproxEqual(f.Z, dir, 1e-9) {
			t.Errorf("Frame Z %v does not match dir %v", f.Z, dir)
		}
		if math.Abs(V3Dot(f.X, f.Y)) > 1e-9 || math.Abs(V3Dot(f.X, f.Z)) > 1e-9 || math.Abs(V3Dot(f.Y, f.Z)) > 1e-9 {
			t.Errorf("Frame along %v not orthogonal: %+v", dir, f)
		}
		if !V3ApproxEqual(f.Apply(UnitZ), f.Z, 1e-12) {
			t.Errorf("Apply(UnitZ) should yield Z axis")
		}
	}

	// Vertical reference: local X stays world X, local Z becomes +Y
	f := FrameAlong(UnitY)
	if !V3ApproxEqual(f.Apply(UnitX), UnitX, 1e-12) {
		t.Errorf("Expected local X -> world X, got %v", f.Apply(UnitX))
	}
	if !V3ApproxEqual(f.Apply(UnitY), UnitZ, 1e-12) {
		t.Errorf("Expected local Y -> world Z, got %v", f.Apply(UnitY))
	}
}

func TestIdentityFrame(t *testing.T) {
	v := Vec3{1, -2, 3}
	if got := Identity.Apply(v); got != v {
		t.Errorf("Identity changed vector: %v", got)
	}
}

func TestOrientation(t *testing.T) {
	dirs := []Vec3{UnitX, UnitY, {0, 0, -1}, UnitZ, V3Normalize(Vec3{1, 1, 1}), V3Normalize(Vec3{-0.3, 0.2, 0.9})}
	for _, dir := range dirs {
		q := Orientation(dir)
		got := RotateByOrientation(q, RestAxis)
		if !V3ApproxEqual(got, dir, 1e-9) {
			t.Errorf("Orientation for %v maps rest axis to %v", dir, got)
		}
	}
}
