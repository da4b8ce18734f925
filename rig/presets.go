package rig

import (
	"fmt"
	"sort"

	"github.com/lixenwraith/fabrik/ik"
)

var (
	up    = [3]float64{0, 1, 0}
	down  = [3]float64{0, -1, 0}
	right = [3]float64{1, 0, 0}
	left  = [3]float64{-1, 0, 0}
)

// Spine is a single pinned chain: a near-zero base bone then four 0.5 bones up +Y
func Spine() *Definition {
	bones := []BoneDef{{Name: "root", Color: "#808080", Direction: up, Length: 0.001}}
	for _, name := range []string{"lumbar", "thoracic", "cervical", "skull"} {
		bones = append(bones, BoneDef{Name: name, Color: "#e0c080", Direction: up, Length: 0.5})
	}
	return &Definition{
		Name:    "spine",
		Chains:  []ChainDef{{Name: "spine", Bones: bones}},
		Targets: map[string][3]float64{"spine": {0, 1.8, 0}},
	}
}

// Humanoid is a six-chain figure standing on +Y and facing +Z
// Arms hang off the chest, legs off the pelvis start, the head off the spine tip.
// Elbows are local hinges so they turn with the upper arm; knees are world hinges about X.
func Humanoid() *Definition {
	spine := ChainDef{
		Name: "spine",
		Base: [3]float64{0, 1, 0},
		BaseConstraint: &ConstraintDef{
			Type: "global_rotor", Axis: up, Angle: 30,
		},
		Bones: []BoneDef{
			{Name: "pelvis", Color: "#808080", Direction: up, Length: 0.001},
			{Name: "lumbar", Color: "#e0c080", Direction: up, Length: 0.15, Rotor: 25},
			{Name: "thoracic", Color: "#e0c080", Direction: up, Length: 0.15, Rotor: 25},
			{Name: "chest", Color: "#e0c080", Direction: up, Length: 0.15, Rotor: 25},
			{Name: "upper_chest", Color: "#e0c080", Direction: up, Length: 0.15, Rotor: 25},
		},
	}

	// Local axes on a +Y host: X stays X, Y maps to world Z, Z to the host direction
	head := ChainDef{
		Name:    "head",
		Connect: &ConnectDef{Host: "spine", Bone: 4, Point: "end"},
		BaseConstraint: &ConstraintDef{
			Type: "local_rotor", Axis: [3]float64{0, 0, 1}, Angle: 45,
		},
		Bones: []BoneDef{
			{Name: "neck", Color: "#f0d0a0", Direction: up, Length: 0.12},
			{Name: "skull", Color: "#f0d0a0", Direction: up, Length: 0.18, Rotor: 40},
		},
	}

	return &Definition{
		Name:   "humanoid",
		Solver: SolverDef{Tolerance: 0.005, MaxIterations: 30},
		Chains: []ChainDef{
			spine,
			head,
			arm("left_arm", right, "#4090ff", 150, 0),
			arm("right_arm", left, "#ff6040", 0, 150),
			leg("left_leg", right, "#40c060"),
			leg("right_leg", left, "#c0c040"),
		},
		Targets: map[string][3]float64{
			"spine":     {0.05, 1.58, 0.05},
			"head":      {0, 1.9, 0.15},
			"left_arm":  {0.45, 1.3, 0.35},
			"right_arm": {-0.5, 1.6, 0.3},
			"left_leg":  {0.15, 0.15, 0.1},
			"right_leg": {-0.1, 0.1, -0.05},
		},
	}
}

// arm hangs from the chest tip sideways along side
// The elbow hinge turns about the upper arm frame's Y, which stays near world up
// while the upper arm is roughly horizontal; cw and acw pick which way is forward.
func arm(name string, side [3]float64, color string, cw, acw float64) ChainDef {
	return ChainDef{
		Name:    name,
		Connect: &ConnectDef{Host: "spine", Bone: 3, Point: "end"},
		BaseConstraint: &ConstraintDef{
			Type: "local_rotor", Axis: side, Angle: 20,
		},
		Bones: []BoneDef{
			{Name: "clavicle", Color: color, Direction: side, Length: 0.18},
			{Name: "upper_arm", Color: color, Direction: side, Length: 0.3, Rotor: 100},
			{
				Name: "forearm", Color: color, Direction: side, Length: 0.27,
				Joint: &JointDef{
					Type: "local_hinge", Axis: [3]float64{0, 1, 0}, Reference: [3]float64{0, 0, 1},
					Clockwise: cw, Anticlockwise: acw,
				},
			},
		},
	}
}

// leg hangs from the pelvis start; the knee folds the shin toward -Z
func leg(name string, side [3]float64, color string) ChainDef {
	return ChainDef{
		Name:    name,
		Connect: &ConnectDef{Host: "spine", Bone: 0, Point: "start"},
		BaseConstraint: &ConstraintDef{
			Type: "local_rotor", Axis: side, Angle: 10,
		},
		Bones: []BoneDef{
			{Name: "hip", Color: color, Direction: side, Length: 0.1},
			{Name: "thigh", Color: color, Direction: down, Length: 0.45, Rotor: 80},
			{
				Name: "shin", Color: color, Direction: down, Length: 0.45,
				Joint: &JointDef{
					Type: "global_hinge", Axis: right, Reference: down,
					Clockwise: 0, Anticlockwise: 140,
				},
			},
		},
	}
}

var presets = map[string]func() *Definition{
	"spine":    Spine,
	"humanoid": Humanoid,
}

// PresetNames lists the built-in rigs in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of a built-in rig
func Preset(name string) (*Definition, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q%s", name, ik.Suggest(name, PresetNames()))
	}
	return fn(), nil
}
