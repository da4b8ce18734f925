// Package rig describes skeletons as data and turns them into ik structures.
//
// A Definition is what rig files hold: chains of bones with joint and base
// constraints, optional connections between chains, solver settings and default
// targets. Definitions load from TOML, YAML or JSON and validate before Build.
package rig

import (
	"github.com/tiendc/go-deepcopy"

	"github.com/lixenwraith/fabrik/vmath"
)

// Definition is a complete skeleton description
type Definition struct {
	Name    string                `toml:"name" yaml:"name" json:"name"`
	Solver  SolverDef             `toml:"solver,omitempty" yaml:"solver,omitempty" json:"solver,omitempty"`
	Chains  []ChainDef            `toml:"chains" yaml:"chains" json:"chains"`
	Targets map[string][3]float64 `toml:"targets,omitempty" yaml:"targets,omitempty" json:"targets,omitempty"`
}

// SolverDef overrides solver tuning; zero fields inherit
type SolverDef struct {
	Tolerance      float64 `toml:"tolerance,omitempty" yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MaxIterations  int     `toml:"max_iterations,omitempty" yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	MinImprovement float64 `toml:"min_improvement,omitempty" yaml:"min_improvement,omitempty" json:"min_improvement,omitempty"`
}

type ChainDef struct {
	Name           string         `toml:"name" yaml:"name" json:"name"`
	Base           [3]float64     `toml:"base" yaml:"base" json:"base"`
	FreeBase       bool           `toml:"free_base,omitempty" yaml:"free_base,omitempty" json:"free_base,omitempty"`
	Solver         *SolverDef     `toml:"solver,omitempty" yaml:"solver,omitempty" json:"solver,omitempty"`
	BaseConstraint *ConstraintDef `toml:"base_constraint,omitempty" yaml:"base_constraint,omitempty" json:"base_constraint,omitempty"`
	Connect        *ConnectDef    `toml:"connect,omitempty" yaml:"connect,omitempty" json:"connect,omitempty"`
	Bones          []BoneDef      `toml:"bones" yaml:"bones" json:"bones"`
}

type BoneDef struct {
	Name      string     `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Color     string     `toml:"color,omitempty" yaml:"color,omitempty" json:"color,omitempty"`
	Direction [3]float64 `toml:"direction" yaml:"direction" json:"direction"`
	Length    float64    `toml:"length" yaml:"length" json:"length"`
	// Rotor is the cone half-angle to the previous bone in degrees; 0 or 180 is free
	Rotor float64   `toml:"rotor,omitempty" yaml:"rotor,omitempty" json:"rotor,omitempty"`
	Joint *JointDef `toml:"joint,omitempty" yaml:"joint,omitempty" json:"joint,omitempty"`
}

// JointDef type is ball, global_hinge or local_hinge
type JointDef struct {
	Type          string     `toml:"type" yaml:"type" json:"type"`
	Axis          [3]float64 `toml:"axis,omitempty" yaml:"axis,omitempty" json:"axis,omitempty"`
	Reference     [3]float64 `toml:"reference,omitempty" yaml:"reference,omitempty" json:"reference,omitempty"`
	Clockwise     float64    `toml:"clockwise,omitempty" yaml:"clockwise,omitempty" json:"clockwise,omitempty"`
	Anticlockwise float64    `toml:"anticlockwise,omitempty" yaml:"anticlockwise,omitempty" json:"anticlockwise,omitempty"`
}

// ConstraintDef type is none, global_rotor, local_rotor, global_hinge or local_hinge
type ConstraintDef struct {
	Type          string     `toml:"type" yaml:"type" json:"type"`
	Axis          [3]float64 `toml:"axis,omitempty" yaml:"axis,omitempty" json:"axis,omitempty"`
	Reference     [3]float64 `toml:"reference,omitempty" yaml:"reference,omitempty" json:"reference,omitempty"`
	Angle         float64    `toml:"angle,omitempty" yaml:"angle,omitempty" json:"angle,omitempty"`
	Clockwise     float64    `toml:"clockwise,omitempty" yaml:"clockwise,omitempty" json:"clockwise,omitempty"`
	Anticlockwise float64    `toml:"anticlockwise,omitempty" yaml:"anticlockwise,omitempty" json:"anticlockwise,omitempty"`
}

// ConnectDef point is start or end, default end
type ConnectDef struct {
	Host  string `toml:"host" yaml:"host" json:"host"`
	Bone  int    `toml:"bone" yaml:"bone" json:"bone"`
	Point string `toml:"point,omitempty" yaml:"point,omitempty" json:"point,omitempty"`
}

// Clone returns a deep copy sharing no slices, maps or pointers with d
func (d *Definition) Clone() (*Definition, error) {
	var out Definition
	if err := deepcopy.Copy(&out, d); err != nil {
		return nil, err
	}
	return &out, nil
}

// TargetMap converts the default targets for Structure.Solve
func (d *Definition) TargetMap() map[string]vmath.Vec3 {
	out := make(map[string]vmath.Vec3, len(d.Targets))
	for name, t := range d.Targets {
		out[name] = vmath.V3FromArray(t)
	}
	return out
}

// ChainNames lists chain names in definition order
func (d *Definition) ChainNames() []string {
	names := make([]string, len(d.Chains))
	for i, c := range d.Chains {
		names[i] = c.Name
	}
	return names
}

// Reach is the sum of bone lengths of the named chain, 0 when absent
func (d *Definition) Reach(chain string) float64 {
	for _, c := range d.Chains {
		if c.Name != chain {
			continue
		}
		var sum float64
		for _, b := range c.Bones {
			sum += b.Length
		}
		return sum
	}
	return 0
}
