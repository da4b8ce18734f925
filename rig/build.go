package rig

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/vmath"
)

// WithDefaults returns a deep copy with every optional field made explicit:
// chain solver settings merged over the rig's and the package defaults, ball joints,
// rotor 180, base constraint none, connection point end
func (d *Definition) WithDefaults() (*Definition, error) {
	out, err := d.Clone()
	if err != nil {
		return nil, err
	}
	global := mergeSolver(SolverDef{}, &out.Solver)
	out.Solver = global
	for i := range out.Chains {
		c := &out.Chains[i]
		merged := mergeSolver(global, c.Solver)
		c.Solver = &merged
		if c.BaseConstraint == nil {
			c.BaseConstraint = &ConstraintDef{}
		}
		if c.BaseConstraint.Type == "" {
			c.BaseConstraint.Type = ik.BaseNone.String()
		}
		if c.Connect != nil && c.Connect.Point == "" {
			c.Connect.Point = ik.PointEnd.String()
		}
		for j := range c.Bones {
			b := &c.Bones[j]
			if b.Rotor == 0 {
				b.Rotor = 180
			}
			if b.Joint == nil {
				b.Joint = &JointDef{}
			}
			if b.Joint.Type == "" {
				b.Joint.Type = ik.JointBall.String()
			}
		}
	}
	return out, nil
}

// mergeSolver overlays the non-zero fields of local on base, then fills package defaults
func mergeSolver(base SolverDef, local *SolverDef) SolverDef {
	if local != nil {
		if local.Tolerance != 0 {
			base.Tolerance = local.Tolerance
		}
		if local.MaxIterations != 0 {
			base.MaxIterations = local.MaxIterations
		}
		if local.MinImprovement != 0 {
			base.MinImprovement = local.MinImprovement
		}
	}
	cfg := ik.SolverConfig{
		Tolerance:      base.Tolerance,
		MaxIterations:  base.MaxIterations,
		MinImprovement: base.MinImprovement,
	}.WithDefaults()
	return SolverDef{Tolerance: cfg.Tolerance, MaxIterations: cfg.MaxIterations, MinImprovement: cfg.MinImprovement}
}

// Validate reports every problem in the definition at once, joined with errors.Join
// Individual errors wrap the ik sentinel errors so errors.Is works on the result
func (d *Definition) Validate() error {
	b, err := d.compile()
	if err != nil {
		return err
	}
	// Cycles only show once the whole graph is assembled
	if _, err := b.Build(); err != nil {
		return err
	}
	return nil
}

// Build validates d and returns a fresh Structure; d is not modified
func (d *Definition) Build(opts ...ik.Option) (*ik.Structure, error) {
	b, err := d.compile()
	if err != nil {
		return nil, err
	}
	return b.Build(opts...)
}

// MustBuild is Build for presets and tests; it panics on error
func (d *Definition) MustBuild(opts ...ik.Option) *ik.Structure {
	s, err := d.Build(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// compile converts a defaulted copy of d into a Builder, collecting every static problem
func (d *Definition) compile() (*ik.Builder, error) {
	n, err := d.WithDefaults()
	if err != nil {
		return nil, fmt.Errorf("copying rig: %w", err)
	}
	if len(n.Chains) == 0 {
		return nil, ik.ErrNoChains
	}

	var errs []error
	names := n.ChainNames()
	bones := make(map[string]int, len(n.Chains))
	for i, c := range n.Chains {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("chains[%d]: chain name is empty", i))
			continue
		}
		if _, dup := bones[c.Name]; dup {
			errs = append(errs, fmt.Errorf("chains[%d]: %w: %q", i, ik.ErrDuplicateChain, c.Name))
			continue
		}
		bones[c.Name] = len(c.Bones)
	}

	b := ik.NewBuilder()
	for i, c := range n.Chains {
		cfg, cerrs := chainConfig(c)
		for _, e := range cerrs {
			errs = append(errs, fmt.Errorf("chains[%d] %q: %w", i, c.Name, e))
		}
		if c.Connect == nil {
			b.AddChain(cfg)
			continue
		}
		conn, err := connection(c.Connect, bones, names)
		if err != nil {
			errs = append(errs, fmt.Errorf("chains[%d] %q: %w", i, c.Name, err))
			continue
		}
		b.AddConnectedChain(cfg, conn)
	}

	for _, name := range sortedKeys(n.Targets) {
		if _, ok := bones[name]; !ok {
			errs = append(errs, fmt.Errorf("targets: %w %q%s", ik.ErrUnknownChain, name, ik.Suggest(name, names)))
			continue
		}
		if !vmath.V3IsFinite(vmath.V3FromArray(n.Targets[name])) {
			errs = append(errs, fmt.Errorf("targets: %q is not finite", name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// chainConfig converts one defaulted chain, reporting every bad field
func chainConfig(c ChainDef) (ik.ChainConfig, []error) {
	var errs []error
	cfg := ik.ChainConfig{
		Name:     c.Name,
		Base:     vmath.V3FromArray(c.Base),
		FreeBase: c.FreeBase,
		Solver: ik.SolverConfig{
			Tolerance:      c.Solver.Tolerance,
			MaxIterations:  c.Solver.MaxIterations,
			MinImprovement: c.Solver.MinImprovement,
		},
		Bones: make([]ik.BoneConfig, len(c.Bones)),
	}

	if len(c.Bones) == 0 {
		errs = append(errs, ik.ErrNoBones)
	}
	if !vmath.V3IsFinite(cfg.Base) {
		errs = append(errs, fmt.Errorf("%w: base %v is not finite", ik.ErrBone, cfg.Base))
	}
	if err := cfg.Solver.Validate(); err != nil {
		errs = append(errs, err)
	}

	base, err := baseConstraint(c.BaseConstraint)
	if err != nil {
		errs = append(errs, fmt.Errorf("base constraint: %w", err))
	}
	cfg.BaseConstraint = base

	for j, bd := range c.Bones {
		bc, err := boneConfig(bd)
		if err != nil {
			errs = append(errs, fmt.Errorf("bone %d%s: %w", j, boneLabel(bd), err))
		}
		cfg.Bones[j] = bc
	}
	return cfg, errs
}

func boneLabel(b BoneDef) string {
	if b.Name == "" {
		return ""
	}
	return fmt.Sprintf(" %q", b.Name)
}

func boneConfig(b BoneDef) (ik.BoneConfig, error) {
	cfg := ik.BoneConfig{
		Name:      b.Name,
		Color:     b.Color,
		Direction: vmath.V3FromArray(b.Direction),
		Length:    b.Length,
		Rotor:     b.Rotor,
	}
	if b.Color != "" {
		if _, err := colorful.Hex(b.Color); err != nil {
			return cfg, fmt.Errorf("%w: color %q is not #rrggbb", ik.ErrBone, b.Color)
		}
	}
	kind, err := ik.ParseJointKind(b.Joint.Type)
	if err != nil {
		return cfg, fmt.Errorf("%w%s", err, ik.Suggest(b.Joint.Type, jointKinds()))
	}
	cfg.Joint = ik.Joint{
		Kind:          kind,
		Axis:          vmath.V3FromArray(b.Joint.Axis),
		Reference:     vmath.V3FromArray(b.Joint.Reference),
		Clockwise:     b.Joint.Clockwise,
		Anticlockwise: b.Joint.Anticlockwise,
	}
	return cfg, cfg.Validate()
}

func baseConstraint(c *ConstraintDef) (ik.BaseConstraint, error) {
	kind, err := ik.ParseBaseKind(c.Type)
	if err != nil {
		return ik.BaseConstraint{}, fmt.Errorf("%w%s", err, ik.Suggest(c.Type, baseKinds()))
	}
	bc := ik.BaseConstraint{
		Kind:          kind,
		Axis:          vmath.V3FromArray(c.Axis),
		Reference:     vmath.V3FromArray(c.Reference),
		Angle:         c.Angle,
		Clockwise:     c.Clockwise,
		Anticlockwise: c.Anticlockwise,
	}
	return bc, bc.Validate()
}

// connection resolves a ConnectDef against the chain names seen in the definition
// Self connections pass through so the builder reports them as cycles
func connection(c *ConnectDef, bones map[string]int, names []string) (ik.Connection, error) {
	point, err := ik.ParsePoint(c.Point)
	if err != nil {
		return ik.Connection{}, fmt.Errorf("connect: %w%s", err, ik.Suggest(c.Point, []string{"start", "end"}))
	}
	n, ok := bones[c.Host]
	if !ok {
		return ik.Connection{}, fmt.Errorf("connect: %w %q%s", ik.ErrUnknownChain, c.Host, ik.Suggest(c.Host, names))
	}
	if c.Bone < 0 || (n > 0 && c.Bone >= n) {
		return ik.Connection{}, fmt.Errorf("connect: %w: host %q has %d bones, got %d", ik.ErrBoneIndex, c.Host, n, c.Bone)
	}
	return ik.Connection{Host: c.Host, Bone: c.Bone, Point: point}, nil
}

func jointKinds() []string {
	return []string{ik.JointBall.String(), ik.JointGlobalHinge.String(), ik.JointLocalHinge.String()}
}

func baseKinds() []string {
	kinds := make([]string, 0, 5)
	for k := ik.BaseNone; k <= ik.BaseLocalHinge; k++ {
		kinds = append(kinds, k.String())
	}
	return kinds
}

func sortedKeys(m map[string][3]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
