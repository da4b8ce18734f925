package ik

import (
	"fmt"
	"math"

	"github.com/lixenwraith/fabrik/vmath"
)

// JointKind selects the projection rule applied to a bone direction
type JointKind uint8

const (
	// JointBall leaves direction unconstrained; the chain rotor still applies
	JointBall JointKind = iota
	// JointGlobalHinge confines direction to a plane fixed in world space
	JointGlobalHinge
	// JointLocalHinge confines direction to a plane fixed in the previous bone's frame
	JointLocalHinge
)

var jointKindNames = [...]string{"ball", "global_hinge", "local_hinge"}

func (k JointKind) String() string {
	if int(k) < len(jointKindNames) {
		return jointKindNames[k]
	}
	return fmt.Sprintf("JointKind(%d)", k)
}

// ParseJointKind maps a config string to its JointKind
func ParseJointKind(s string) (JointKind, error) {
	for i, name := range jointKindNames {
		if s == name {
			return JointKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown joint type %q", ErrJoint, s)
}

// hingeAxisTolerance bounds |cos| between hinge axis and reference axis
const hingeAxisTolerance = 1e-3

// Joint is a per-bone constraint descriptor
// Hinge angles are degrees in [0, 180]; Clockwise is measured as a negative signed angle
// about Axis from Reference, Anticlockwise as positive
type Joint struct {
	Kind          JointKind
	Axis          vmath.Vec3
	Reference     vmath.Vec3
	Clockwise     float64
	Anticlockwise float64
}

// Ball returns an unconstrained joint
func Ball() Joint {
	return Joint{Kind: JointBall}
}

// GlobalHinge returns a hinge whose plane normal is fixed in world space
func GlobalHinge(axis, reference vmath.Vec3, clockwise, anticlockwise float64) Joint {
	return Joint{Kind: JointGlobalHinge, Axis: axis, Reference: reference, Clockwise: clockwise, Anticlockwise: anticlockwise}
}

// LocalHinge returns a hinge whose plane normal rotates with the previous bone
func LocalHinge(axis, reference vmath.Vec3, clockwise, anticlockwise float64) Joint {
	return Joint{Kind: JointLocalHinge, Axis: axis, Reference: reference, Clockwise: clockwise, Anticlockwise: anticlockwise}
}

// Validate rejects unknown kinds and unusable hinge parameter combinations
func (j Joint) Validate() error {
	switch j.Kind {
	case JointBall:
		return nil
	case JointGlobalHinge, JointLocalHinge:
		return validateHinge(ErrJoint, j.Axis, j.Reference, j.Clockwise, j.Anticlockwise)
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrJoint, j.Kind)
	}
}

func validateHinge(kind error, axis, ref vmath.Vec3, cw, acw float64) error {
	if !vmath.V3IsFinite(axis) || vmath.V3IsZero(axis) {
		return fmt.Errorf("%w: hinge axis %v is not a usable direction", kind, axis)
	}
	if !vmath.V3IsFinite(ref) || vmath.V3IsZero(ref) {
		return fmt.Errorf("%w: reference axis %v is not a usable direction", kind, ref)
	}
	if c := vmath.V3Dot(vmath.V3Normalize(axis), vmath.V3Normalize(ref)); math.Abs(c) > hingeAxisTolerance {
		return fmt.Errorf("%w: reference axis %v is not perpendicular to hinge axis %v", kind, ref, axis)
	}
	if !validLimit(cw) || !validLimit(acw) {
		return fmt.Errorf("%w: hinge limits (%g, %g) outside [0, 180]", kind, cw, acw)
	}
	return nil
}

func validLimit(deg float64) bool {
	return deg >= 0 && deg <= 180 && !math.IsNaN(deg)
}

// normalized returns a copy with unit axes and the reference re-orthogonalised
func (j Joint) normalized() Joint {
	if j.Kind == JointBall {
		return j
	}
	j.Axis = vmath.V3Normalize(j.Axis)
	j.Reference = vmath.V3UnitOr(vmath.V3ProjectOnPlane(j.Reference, j.Axis), vmath.V3Normalize(j.Reference))
	return j
}

// axes returns hinge axis and reference in world space
func (j Joint) axes(frame vmath.Frame) (axis, ref vmath.Vec3) {
	if j.Kind == JointLocalHinge {
		axis = vmath.V3UnitOr(frame.Apply(j.Axis), j.Axis)
		ref = vmath.V3UnitOr(frame.Apply(j.Reference), j.Reference)
		return axis, ref
	}
	return j.Axis, j.Reference
}

// ProjectPlane projects dir onto the hinge plane without clamping
// Ball joints return dir unchanged
func (j Joint) ProjectPlane(dir vmath.Vec3, frame vmath.Frame) vmath.Vec3 {
	if j.Kind == JointBall {
		return dir
	}
	axis, ref := j.axes(frame)
	return projectHinge(dir, axis, ref)
}

// Constrain returns the nearest legal direction to dir
// frame is the previous bone's frame for local hinges and is ignored otherwise
func (j Joint) Constrain(dir vmath.Vec3, frame vmath.Frame) vmath.Vec3 {
	switch j.Kind {
	case JointBall:
		return dir
	case JointGlobalHinge, JointLocalHinge:
		axis, ref := j.axes(frame)
		return clampHinge(projectHinge(dir, axis, ref), axis, ref, j.Clockwise, j.Anticlockwise)
	default:
		return dir
	}
}

func projectHinge(dir, axis, ref vmath.Vec3) vmath.Vec3 {
	// Parallel to the axis: no in-plane component survives
	return vmath.V3UnitOr(vmath.V3ProjectOnPlane(dir, axis), ref)
}

// clampHinge clamps an in-plane unit direction to [-cw, +acw] about axis from ref
// Out-of-range angles snap to whichever boundary is angularly closer
func clampHinge(dir, axis, ref vmath.Vec3, cw, acw float64) vmath.Vec3 {
	if cw >= 180 && acw >= 180 {
		return dir
	}

	a := vmath.V3SignedAngle(ref, dir, axis)
	switch {
	case a > acw:
		if a-acw <= (180-a)+(180-cw) {
			return vmath.V3UnitOr(vmath.V3Rotate(ref, acw, axis), ref)
		}
		return vmath.V3UnitOr(vmath.V3Rotate(ref, -cw, axis), ref)
	case a < -cw:
		if -cw-a <= (180+a)+(180-acw) {
			return vmath.V3UnitOr(vmath.V3Rotate(ref, -cw, axis), ref)
		}
		return vmath.V3UnitOr(vmath.V3Rotate(ref, acw, axis), ref)
	}
	return dir
}
