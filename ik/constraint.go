package ik

import (
	"fmt"
	"math"

	"github.com/lixenwraith/fabrik/vmath"
)

// BaseKind selects how the first bone of a chain may move
type BaseKind uint8

const (
	BaseNone BaseKind = iota
	// BaseGlobalRotor limits bone 0 to a cone about a world axis
	BaseGlobalRotor
	// BaseLocalRotor limits bone 0 to a cone about an axis in the chain frame
	BaseLocalRotor
	BaseGlobalHinge
	BaseLocalHinge
)

var baseKindNames = [...]string{"none", "global_rotor", "local_rotor", "global_hinge", "local_hinge"}

func (k BaseKind) String() string {
	if int(k) < len(baseKindNames) {
		return baseKindNames[k]
	}
	return fmt.Sprintf("BaseKind(%d)", k)
}

// ParseBaseKind maps a config string to its BaseKind
func ParseBaseKind(s string) (BaseKind, error) {
	for i, name := range baseKindNames {
		if s == name {
			return BaseKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown base constraint %q", ErrConstraint, s)
}

// BaseConstraint restricts the base bone of a chain
// Rotor kinds use Axis and Angle (cone half-angle, degrees)
// Hinge kinds use Axis, Reference, Clockwise and Anticlockwise like Joint
// Local kinds are expressed in the chain frame: world for a free chain, the host bone
// frame for a connected one
type BaseConstraint struct {
	Kind          BaseKind
	Axis          vmath.Vec3
	Reference     vmath.Vec3
	Angle         float64
	Clockwise     float64
	Anticlockwise float64
}

func (c BaseConstraint) Validate() error {
	switch c.Kind {
	case BaseNone:
		return nil
	case BaseGlobalRotor, BaseLocalRotor:
		if !vmath.V3IsFinite(c.Axis) || vmath.V3IsZero(c.Axis) {
			return fmt.Errorf("%w: rotor axis %v is not a usable direction", ErrConstraint, c.Axis)
		}
		if math.IsNaN(c.Angle) || c.Angle <= 0 || c.Angle > 180 {
			return fmt.Errorf("%w: rotor angle %g outside (0, 180]", ErrConstraint, c.Angle)
		}
		return nil
	case BaseGlobalHinge, BaseLocalHinge:
		return validateHinge(ErrConstraint, c.Axis, c.Reference, c.Clockwise, c.Anticlockwise)
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrConstraint, c.Kind)
	}
}

func (c BaseConstraint) normalized() BaseConstraint {
	switch c.Kind {
	case BaseGlobalRotor, BaseLocalRotor:
		c.Axis = vmath.V3Normalize(c.Axis)
	case BaseGlobalHinge, BaseLocalHinge:
		h := c.hinge().normalized()
		c.Axis, c.Reference = h.Axis, h.Reference
	}
	return c
}

// hinge expresses a hinge base constraint as the equivalent joint
func (c BaseConstraint) hinge() Joint {
	kind := JointGlobalHinge
	if c.Kind == BaseLocalHinge {
		kind = JointLocalHinge
	}
	return Joint{Kind: kind, Axis: c.Axis, Reference: c.Reference, Clockwise: c.Clockwise, Anticlockwise: c.Anticlockwise}
}

// Constrain applies the base rule to a candidate bone-0 direction
func (c BaseConstraint) Constrain(dir vmath.Vec3, frame vmath.Frame) vmath.Vec3 {
	switch c.Kind {
	case BaseGlobalRotor:
		return vmath.V3LimitAngle(dir, c.Axis, c.Angle)
	case BaseLocalRotor:
		axis := vmath.V3UnitOr(frame.Apply(c.Axis), c.Axis)
		return vmath.V3LimitAngle(dir, axis, c.Angle)
	case BaseGlobalHinge, BaseLocalHinge:
		return c.hinge().Constrain(dir, frame)
	default:
		return dir
	}
}

// ProjectPlane is the backward-pass form: hinge kinds project, rotors pass through
func (c BaseConstraint) ProjectPlane(dir vmath.Vec3, frame vmath.Frame) vmath.Vec3 {
	switch c.Kind {
	case BaseGlobalHinge, BaseLocalHinge:
		return c.hinge().ProjectPlane(dir, frame)
	default:
		return dir
	}
}

// constrains reports whether the constraint restricts direction at all
func (c BaseConstraint) constrains() bool {
	switch c.Kind {
	case BaseGlobalRotor, BaseLocalRotor:
		return c.Angle < 180
	case BaseGlobalHinge, BaseLocalHinge:
		return true
	}
	return false
}
