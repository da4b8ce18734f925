package ik

import (
	"errors"
	"math"
	"testing"

	"github.com/lixenwraith/fabrik/vmath"
)

func TestJointValidate(t *testing.T) {
	tests := []struct {
		name    string
		joint   Joint
		wantErr bool
	}{
		{"ball", Ball(), false},
		{"global hinge", GlobalHinge(vmath.UnitX, vmath.UnitY, 45, 90), false},
		{"local hinge", LocalHinge(vmath.UnitX, vmath.UnitZ, 0, 90), false},
		{"zero axis", GlobalHinge(vmath.Vec3{}, vmath.UnitY, 45, 45), true},
		{"zero reference", GlobalHinge(vmath.UnitX, vmath.Vec3{}, 45, 45), true},
		{"reference parallel to axis", LocalHinge(vmath.UnitX, vmath.V3(2, 0, 0), 45, 45), true},
		{"reference nearly parallel", GlobalHinge(vmath.UnitX, vmath.V3(1, 0.01, 0), 45, 45), true},
		{"negative limit", GlobalHinge(vmath.UnitX, vmath.UnitY, -1, 45), true},
		{"limit over 180", GlobalHinge(vmath.UnitX, vmath.UnitY, 45, 181), true},
		{"NaN limit", GlobalHinge(vmath.UnitX, vmath.UnitY, math.NaN(), 45), true},
		{"unknown kind", Joint{Kind: JointKind(9)}, true},
	}

	for _, tt := range tests {
		err := tt.joint.Validate()
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, ErrJoint) {
				t.Errorf("%s: expected ErrJoint, got %v", tt.name, err)
			}
		} else if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestParseJointKind(t *testing.T) {
	for _, k := range []JointKind{JointBall, JointGlobalHinge, JointLocalHinge} {
		got, err := ParseJointKind(k.String())
		if err != nil || got != k {
			t.Errorf("Round trip of %v failed: %v, %v", k, got, err)
		}
	}
	if _, err := ParseJointKind("hinge"); !errors.Is(err, ErrJoint) {
		t.Errorf("Expected ErrJoint for unknown type, got %v", err)
	}
}

func TestJointConstrain_Ball(t *testing.T) {
	dir := vmath.V3Normalize(vmath.V3(1, 2, 3))
	if got := Ball().Constrain(dir, vmath.Identity); got != dir {
		t.Errorf("Ball joint changed direction: %v", got)
	}
}

func TestJointConstrain_GlobalHinge(t *testing.T) {
	// Rotation about +X, angles measured from +Y; anticlockwise swings toward +Z
	j := GlobalHinge(vmath.UnitX, vmath.UnitY, 30, 60).normalized()

	tests := []struct {
		name string
		dir  vmath.Vec3
		want float64 // signed angle after constraint
	}{
		{"inside range", vmath.V3Normalize(vmath.V3(0, 1, 0.5)), vmath.RadToDeg(math.Atan2(0.5, 1))},
		{"out of plane is projected", vmath.V3Normalize(vmath.V3(5, 1, 0.5)), vmath.RadToDeg(math.Atan2(0.5, 1))},
		{"beyond anticlockwise", vmath.UnitZ, 60},
		{"beyond clockwise", vmath.V3(0, 0, -1), -30},
		// 170 from ref: 110 past the anticlockwise limit, 160 around to the clockwise one
		{"far side nearer anticlockwise", vmath.V3Normalize(vmath.V3(0, -math.Cos(vmath.DegToRad(10)), math.Sin(vmath.DegToRad(10)))), 60},
		// -170: 140 past clockwise, 130 around to anticlockwise
		{"far side nearer anticlockwise from below", vmath.V3Normalize(vmath.V3(0, -math.Cos(vmath.DegToRad(10)), -math.Sin(vmath.DegToRad(10)))), 60},
	}

	for _, tt := range tests {
		got := j.Constrain(tt.dir, vmath.Identity)
		if math.Abs(vmath.V3Mag(got)-1) > 1e-9 {
			t.Errorf("%s: result not unit: %v", tt.name, got)
		}
		if math.Abs(got.X) > 1e-9 {
			t.Errorf("%s: result left hinge plane: %v", tt.name, got)
		}
		if a := vmath.V3SignedAngle(vmath.UnitY, got, vmath.UnitX); math.Abs(a-tt.want) > 1e-6 {
			t.Errorf("%s: expected signed angle %f, got %f", tt.name, tt.want, a)
		}
	}
}

func TestJointConstrain_ParallelToAxisFallsBack(t *testing.T) {
	j := GlobalHinge(vmath.UnitX, vmath.UnitY, 45, 45).normalized()
	got := j.Constrain(vmath.UnitX, vmath.Identity)
	if !vmath.V3ApproxEqual(got, vmath.UnitY, 1e-12) {
		t.Errorf("Expected reference axis fallback, got %v", got)
	}
	got = j.ProjectPlane(vmath.V3(-1, 0, 0), vmath.Identity)
	if !vmath.V3ApproxEqual(got, vmath.UnitY, 1e-12) {
		t.Errorf("Expected reference axis fallback from projection, got %v", got)
	}
}

func TestJointConstrain_LocalHingeFollowsFrame(t *testing.T) {
	// Local X axis, local Z reference: in a frame along +X the axis maps off world X
	j := LocalHinge(vmath.UnitX, vmath.UnitZ, 0, 90).normalized()
	frame := vmath.FrameAlong(vmath.UnitX)
	axis := frame.Apply(vmath.UnitX)
	ref := frame.Apply(vmath.UnitZ)

	dir := vmath.V3Normalize(vmath.V3(1, 1, 1))
	got := j.Constrain(dir, frame)
	if math.Abs(vmath.V3Dot(got, axis)) > 1e-9 {
		t.Errorf("Result not in local hinge plane: %v (axis %v)", got, axis)
	}
	a := vmath.V3SignedAngle(ref, got, axis)
	if a < -1e-6 || a > 90+1e-6 {
		t.Errorf("Signed angle %f outside [0, 90]", a)
	}
}

func TestJointConstrain_FreeHingeOnlyProjects(t *testing.T) {
	j := GlobalHinge(vmath.UnitX, vmath.UnitY, 180, 180).normalized()
	got := j.Constrain(vmath.V3Normalize(vmath.V3(1, -1, 0.2)), vmath.Identity)
	want := vmath.V3Normalize(vmath.V3(0, -1, 0.2))
	if !vmath.V3ApproxEqual(got, want, 1e-12) {
		t.Errorf("Expected projection only, got %v", got)
	}
}

func TestBaseConstraintValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       BaseConstraint
		wantErr bool
	}{
		{"none", BaseConstraint{}, false},
		{"global rotor", BaseConstraint{Kind: BaseGlobalRotor, Axis: vmath.UnitY, Angle: 30}, false},
		{"rotor zero angle", BaseConstraint{Kind: BaseLocalRotor, Axis: vmath.UnitY}, true},
		{"rotor zero axis", BaseConstraint{Kind: BaseGlobalRotor, Angle: 30}, true},
		{"hinge", BaseConstraint{Kind: BaseLocalHinge, Axis: vmath.UnitX, Reference: vmath.UnitY, Clockwise: 10, Anticlockwise: 20}, false},
		{"hinge bad reference", BaseConstraint{Kind: BaseGlobalHinge, Axis: vmath.UnitX, Reference: vmath.UnitX, Clockwise: 10}, true},
		{"unknown", BaseConstraint{Kind: BaseKind(42)}, true},
	}
	for _, tt := range tests {
		err := tt.c.Validate()
		if tt.wantErr && !errors.Is(err, ErrConstraint) {
			t.Errorf("%s: expected ErrConstraint, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestBaseConstraint_LocalRotorUsesFrame(t *testing.T) {
	c := BaseConstraint{Kind: BaseLocalRotor, Axis: vmath.UnitZ, Angle: 10}.normalized()
	frame := vmath.FrameAlong(vmath.UnitX)

	got := c.Constrain(vmath.UnitY, frame)
	if a := vmath.V3Angle(got, vmath.UnitX); a > 10+1e-9 {
		t.Errorf("Expected within 10 degrees of frame Z (+X), got %f", a)
	}
}

func TestObservers(t *testing.T) {
	var calls []string
	a := ObserverFunc(func(chain string, r SolveResult) { calls = append(calls, "a:"+chain) })
	b := ObserverFunc(func(chain string, r SolveResult) { calls = append(calls, "b:"+chain) })

	if Observers() != nil || Observers(nil, nil) != nil {
		t.Error("Expected nil observer for empty fan-out")
	}

	o := Observers(a, nil, Observers(b))
	o.ChainSolved("arm", SolveResult{})
	if len(calls) != 2 || calls[0] != "a:arm" || calls[1] != "b:arm" {
		t.Errorf("Unexpected fan-out calls: %v", calls)
	}
}
