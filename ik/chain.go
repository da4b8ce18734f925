package ik

import (
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/fabrik/vmath"
)

const (
	DefaultTolerance      = 0.01
	DefaultMaxIterations  = 20
	DefaultMinImprovement = 1e-4
)

// collinearTolerance is how far |cos| may sit from 1 for two directions to count as parallel
const collinearTolerance = 1e-4

// unfoldFraction scales the perpendicular nudge applied to interior joints of a straight chain
const unfoldFraction = 0.05

// SolverConfig tunes the iteration loop; zero fields take the defaults
type SolverConfig struct {
	Tolerance      float64
	MaxIterations  int
	MinImprovement float64
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Tolerance:      DefaultTolerance,
		MaxIterations:  DefaultMaxIterations,
		MinImprovement: DefaultMinImprovement,
	}
}

// WithDefaults fills zero fields from DefaultSolverConfig
func (c SolverConfig) WithDefaults() SolverConfig {
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MinImprovement == 0 {
		c.MinImprovement = DefaultMinImprovement
	}
	return c
}

func (c SolverConfig) Validate() error {
	if math.IsNaN(c.Tolerance) || c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g", ErrSolver, c.Tolerance)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations %d", ErrSolver, c.MaxIterations)
	}
	if math.IsNaN(c.MinImprovement) || c.MinImprovement < 0 {
		return fmt.Errorf("%w: min improvement %g", ErrSolver, c.MinImprovement)
	}
	return nil
}

// ChainConfig describes a chain at build time
// Bones are laid out end to end from Base along their configured directions
type ChainConfig struct {
	Name           string
	Base           vmath.Vec3
	Bones          []BoneConfig
	BaseConstraint BaseConstraint
	Solver         SolverConfig
	// FreeBase lets an unconnected chain translate instead of pinning bone 0 to its origin
	FreeBase bool
}

// SolveResult reports the outcome of one chain solve
type SolveResult struct {
	Residual    float64
	Iterations  int
	Converged   bool
	Unreachable bool
	// Cached is set when anchor and target matched the previous solve
	Cached bool
	// Followed is set when the chain had no target and only tracked its anchor
	Followed bool
	Elapsed  time.Duration
}

// Solver is the capability shared by chains: move toward target from anchor
type Solver interface {
	Solve(anchor, target vmath.Vec3) SolveResult
}

var _ Solver = (*Chain)(nil)

type boneState struct {
	start, end, dir vmath.Vec3
}

type solveCache struct {
	anchor, target vmath.Vec3
	result         SolveResult
	valid          bool
}

// Chain is an open kinematic chain solved with FABRIK
// Bone i start equals bone i-1 end whenever no solve is in progress
type Chain struct {
	name        string
	bones       []*Bone
	base        BaseConstraint
	cfg         SolverConfig
	freeBase    bool
	hosted      bool
	constrained bool
	origin      vmath.Vec3
	reach       float64
	frame       vmath.Frame

	target    vmath.Vec3
	hasTarget bool
	cache     solveCache
	best      []boneState
}

// NewChain validates cfg and lays out the bones
func NewChain(cfg ChainConfig) (*Chain, error) {
	if len(cfg.Bones) == 0 {
		return nil, fmt.Errorf("chain %q: %w", cfg.Name, ErrNoBones)
	}
	if !vmath.V3IsFinite(cfg.Base) {
		return nil, fmt.Errorf("chain %q: %w: base %v is not finite", cfg.Name, ErrBone, cfg.Base)
	}
	for i, bc := range cfg.Bones {
		if err := bc.Validate(); err != nil {
			return nil, fmt.Errorf("chain %q bone %d: %w", cfg.Name, i, err)
		}
	}
	if err := cfg.BaseConstraint.Validate(); err != nil {
		return nil, fmt.Errorf("chain %q: %w", cfg.Name, err)
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, fmt.Errorf("chain %q: %w", cfg.Name, err)
	}

	c := &Chain{
		name:     cfg.Name,
		bones:    make([]*Bone, len(cfg.Bones)),
		base:     cfg.BaseConstraint.normalized(),
		cfg:      cfg.Solver.WithDefaults(),
		freeBase: cfg.FreeBase,
		origin:   cfg.Base,
		frame:    vmath.Identity,
		best:     make([]boneState, len(cfg.Bones)),
	}

	start := cfg.Base
	for i, bc := range cfg.Bones {
		b := newBone(bc, start)
		c.bones[i] = b
		c.reach += b.length
		start = b.end

		if b.joint.Kind != JointBall || (i > 0 && b.rotor < 180) {
			c.constrained = true
		}
	}
	if c.base.constrains() {
		c.constrained = true
	}

	return c, nil
}

func (c *Chain) Name() string { return c.name }

// Origin is the configured base position, the anchor of an unconnected chain
func (c *Chain) Origin() vmath.Vec3 { return c.origin }

// Reach is the sum of bone lengths
func (c *Chain) Reach() float64 { return c.reach }

func (c *Chain) Len() int { return len(c.bones) }

func (c *Chain) Settings() SolverConfig { return c.cfg }

func (c *Chain) EndEffector() vmath.Vec3 {
	return c.bones[len(c.bones)-1].end
}

// Bones returns the bones root first; the slice is a copy, the bones are live
func (c *Chain) Bones() []*Bone {
	out := make([]*Bone, len(c.bones))
	copy(out, c.bones)
	return out
}

// Bone returns bone i, or nil when i is out of range
func (c *Chain) Bone(i int) *Bone {
	if i < 0 || i >= len(c.bones) {
		return nil
	}
	return c.bones[i]
}

// Target returns the last target passed to Solve
func (c *Chain) Target() (vmath.Vec3, bool) {
	return c.target, c.hasTarget
}

// Residual is the end-effector distance to the last target, 0 before any target
func (c *Chain) Residual() float64 {
	if !c.hasTarget {
		return 0
	}
	return vmath.V3Dist(c.EndEffector(), c.target)
}

// SetFrame sets the basis for local base constraints and the base bone's local hinge
func (c *Chain) SetFrame(f vmath.Frame) {
	if f != c.frame {
		c.frame = f
		c.cache.valid = false
	}
}

func (c *Chain) Frame() vmath.Frame { return c.frame }

// pinned reports whether forward passes force bone 0 onto the anchor
func (c *Chain) pinned() bool {
	return !c.freeBase || c.hosted
}

// Solve moves the end effector toward target with bone 0 anchored at anchor
// Non-convergence is not an error; Residual is the best distance reached
func (c *Chain) Solve(anchor, target vmath.Vec3) SolveResult {
	began := time.Now()
	c.target, c.hasTarget = target, true

	// Already there
	d := c.distance(target)
	if d <= c.cfg.Tolerance && (!c.pinned() || c.bones[0].start == anchor) {
		res := SolveResult{Residual: d, Converged: true, Elapsed: time.Since(began)}
		c.remember(anchor, target, res)
		return res
	}

	if c.cache.valid && c.cache.anchor == anchor && c.cache.target == target {
		res := c.cache.result
		res.Cached = true
		res.Elapsed = time.Since(began)
		return res
	}

	res := c.iterate(anchor, target)
	res.Elapsed = time.Since(began)
	c.remember(anchor, target, res)
	return res
}

func (c *Chain) remember(anchor, target vmath.Vec3, res SolveResult) {
	c.cache = solveCache{anchor: anchor, target: target, result: res, valid: true}
}

func (c *Chain) iterate(anchor, target vmath.Vec3) SolveResult {
	var res SolveResult
	pinned := c.pinned()
	best := math.Inf(1)

	if pinned && vmath.V3Dist(anchor, target) >= c.reach {
		res.Unreachable = true
		c.reachToward(anchor, target)
		best = c.distance(target)
		c.save()
		res.Iterations = 1

		// Straight line is optimal without limits
		if !c.constrained {
			res.Residual = best
			res.Converged = best <= c.cfg.Tolerance
			return res
		}
	} else if pinned {
		c.unfold(anchor, target)
	}

	passes := res.Iterations
	prev := math.Inf(1)
	restarted := false
	for it := 1; it <= c.cfg.MaxIterations; it++ {
		c.backward(target)
		c.forward(anchor, pinned)

		d := c.distance(target)
		res.Iterations = passes + it
		if d < best {
			best = d
			c.save()
		}
		if d <= c.cfg.Tolerance {
			break
		}
		if math.Abs(prev-d) < c.cfg.MinImprovement {
			// One fresh start per solve; the best pose is kept either way
			if !restarted && pinned && c.restart(anchor, target) {
				restarted = true
				prev = math.Inf(1)
				continue
			}
			break
		}
		prev = d
	}

	c.restore()
	res.Residual = best
	res.Converged = best <= c.cfg.Tolerance
	return res
}

// backward runs the target-to-root pass; bone 0 is left wherever the sweep puts it
func (c *Chain) backward(target vmath.Vec3) {
	n := len(c.bones)
	end := target
	for i := n - 1; i >= 0; i-- {
		b := c.bones[i]
		dir := vmath.V3UnitOr(vmath.V3Sub(end, b.start), b.dir)

		if i < n-1 {
			next := c.bones[i+1]
			dir = vmath.V3LimitAngle(dir, next.dir, next.rotor)
		}

		if i == 0 {
			dir = b.joint.ProjectPlane(dir, c.frame)
			dir = c.base.ProjectPlane(dir, c.frame)
		} else {
			dir = b.joint.ProjectPlane(dir, vmath.FrameAlong(c.bones[i-1].dir))
		}

		b.placeBack(end, dir)
		end = b.start
	}
}

// forward runs the root-to-target pass, restoring contiguity
func (c *Chain) forward(anchor vmath.Vec3, pinned bool) {
	start := c.bones[0].start
	if pinned {
		start = anchor
	}
	for i, b := range c.bones {
		dir := vmath.V3UnitOr(vmath.V3Sub(b.end, start), b.dir)
		b.place(start, c.constrainForward(i, dir))
		start = b.end
	}
}

// reachToward aims every bone at target in turn, the overreach pose
func (c *Chain) reachToward(anchor, target vmath.Vec3) {
	start := anchor
	for i, b := range c.bones {
		dir := vmath.V3UnitOr(vmath.V3Sub(target, start), b.dir)
		b.place(start, c.constrainForward(i, dir))
		start = b.end
	}
}

// constrainForward applies the full constraint set for bone i
func (c *Chain) constrainForward(i int, dir vmath.Vec3) vmath.Vec3 {
	b := c.bones[i]
	if i == 0 {
		dir = b.joint.Constrain(dir, c.frame)
		return c.base.Constrain(dir, c.frame)
	}
	prev := c.bones[i-1]
	dir = vmath.V3LimitAngle(dir, prev.dir, b.rotor)
	return b.joint.Constrain(dir, vmath.FrameAlong(prev.dir))
}

// unfold bends a chain whose bones all lie on one line, folded or straight,
// when the target sits inside reach. FABRIK cannot leave that line on its own.
func (c *Chain) unfold(anchor, target vmath.Vec3) {
	if len(c.bones) < 2 {
		return
	}
	line := vmath.V3Sub(target, anchor)
	dist := vmath.V3Mag(line)
	if dist <= vmath.Epsilon || dist >= c.reach {
		return
	}

	axis := c.bones[0].dir
	for _, b := range c.bones[1:] {
		if math.Abs(math.Abs(vmath.V3Dot(b.dir, axis))-1) > collinearTolerance {
			return
		}
	}

	// Bend toward the target side of the chain line when there is one
	offset := vmath.V3ProjectOnPlane(vmath.V3Scale(line, 1/dist), axis)
	if vmath.V3Mag(offset) > collinearTolerance {
		offset = vmath.V3Normalize(offset)
	} else {
		offset = vmath.V3Perpendicular(axis)
	}
	for i := 1; i < len(c.bones); i++ {
		nudge := unfoldFraction * math.Min(c.bones[i-1].length, c.bones[i].length)
		p := vmath.V3AddScaled(c.bones[i].start, offset, nudge)
		c.bones[i-1].setEnd(p)
		c.bones[i].setStart(p)
	}
}

// restart lays the chain out straight from anchor, perpendicular to the
// anchor-target line, on the side bone 0 already leans toward.
// Used once per solve when passes stop improving short of tolerance,
// typically a chain folded back on itself toward a target near the anchor.
func (c *Chain) restart(anchor, target vmath.Vec3) bool {
	if len(c.bones) < 2 {
		return false
	}
	line := vmath.V3Sub(target, anchor)
	if vmath.V3IsZero(line) {
		return false
	}
	line = vmath.V3Normalize(line)

	dir := vmath.V3ProjectOnPlane(c.bones[0].dir, line)
	if vmath.V3Mag(dir) > collinearTolerance {
		dir = vmath.V3Normalize(dir)
	} else {
		dir = vmath.V3Perpendicular(line)
	}

	start := anchor
	for i, b := range c.bones {
		b.place(start, c.constrainForward(i, dir))
		start = b.end
	}
	return true
}

// Follow translates the chain rigidly so bone 0 starts exactly at anchor
// A free-base chain without a host holds its pose
func (c *Chain) Follow(anchor vmath.Vec3) SolveResult {
	res := SolveResult{Followed: true}
	if c.pinned() && c.bones[0].start != anchor {
		offset := vmath.V3Sub(anchor, c.bones[0].start)
		for _, b := range c.bones {
			b.translate(offset)
		}
		c.bones[0].start = anchor
		c.cache.valid = false
	}
	res.Residual = c.Residual()
	res.Converged = c.hasTarget && res.Residual <= c.cfg.Tolerance
	return res
}

func (c *Chain) distance(target vmath.Vec3) float64 {
	return vmath.V3Dist(c.EndEffector(), target)
}

func (c *Chain) save() {
	for i, b := range c.bones {
		c.best[i] = boneState{start: b.start, end: b.end, dir: b.dir}
	}
}

func (c *Chain) restore() {
	for i, b := range c.bones {
		s := c.best[i]
		b.start, b.end, b.dir = s.start, s.end, s.dir
	}
}
