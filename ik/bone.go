package ik

import (
	"fmt"
	"math"

	"github.com/lixenwraith/fabrik/vmath"
)

// BoneConfig describes one bone at build time
// Rotor is the cone half-angle in degrees relative to the previous bone; 0 means unset and
// is treated as 180 (free). It has no effect on bone 0.
type BoneConfig struct {
	Name      string
	Color     string
	Direction vmath.Vec3
	Length    float64
	Joint     Joint
	Rotor     float64
}

// Validate checks geometry, rotor and joint parameters
func (c BoneConfig) Validate() error {
	if math.IsNaN(c.Length) || math.IsInf(c.Length, 0) || c.Length <= 0 {
		return fmt.Errorf("%w: length %g must be positive and finite", ErrBone, c.Length)
	}
	if !vmath.V3IsFinite(c.Direction) || vmath.V3IsZero(c.Direction) {
		return fmt.Errorf("%w: direction %v is not a usable direction", ErrBone, c.Direction)
	}
	if math.IsNaN(c.Rotor) || c.Rotor < 0 || c.Rotor > 180 {
		return fmt.Errorf("%w: rotor %g outside [0, 180]", ErrBone, c.Rotor)
	}
	if err := c.Joint.Validate(); err != nil {
		return err
	}
	return nil
}

// Bone is a rigid segment; its length never changes after construction
type Bone struct {
	name   string
	color  string
	start  vmath.Vec3
	end    vmath.Vec3
	dir    vmath.Vec3
	length float64
	joint  Joint
	rotor  float64
}

func newBone(cfg BoneConfig, start vmath.Vec3) *Bone {
	rotor := cfg.Rotor
	if rotor == 0 {
		rotor = 180
	}
	dir := vmath.V3Normalize(cfg.Direction)
	return &Bone{
		name:   cfg.Name,
		color:  cfg.Color,
		start:  start,
		end:    vmath.V3AddScaled(start, dir, cfg.Length),
		dir:    dir,
		length: cfg.Length,
		joint:  cfg.Joint.normalized(),
		rotor:  rotor,
	}
}

func (b *Bone) Name() string { return b.name }
func (b *Bone) Color() string { return b.color }
func (b *Bone) Start() vmath.Vec3 { return b.start }
func (b *Bone) End() vmath.Vec3 { return b.end }
func (b *Bone) Direction() vmath.Vec3 { return b.dir }
func (b *Bone) Length() float64 { return b.length }
func (b *Bone) Joint() Joint { return b.joint }
func (b *Bone) Rotor() float64 { return b.rotor }
func (b *Bone) Orientation() [4]float64 { return vmath.Orientation(b.dir) }

// setStart moves the start point and refreshes the cached direction
// Coincident points keep the previous direction
func (b *Bone) setStart(p vmath.Vec3) {
	b.start = p
	b.dir = vmath.V3UnitOr(vmath.V3Sub(b.end, b.start), b.dir)
}

func (b *Bone) setEnd(p vmath.Vec3) {
	b.end = p
	b.dir = vmath.V3UnitOr(vmath.V3Sub(b.end, b.start), b.dir)
}

// place positions the bone from start along dir at its fixed length
func (b *Bone) place(start, dir vmath.Vec3) {
	b.start = start
	b.dir = dir
	b.end = vmath.V3AddScaled(start, dir, b.length)
}

// placeBack positions the bone so it ends at end
func (b *Bone) placeBack(end, dir vmath.Vec3) {
	b.end = end
	b.dir = dir
	b.start = vmath.V3AddScaled(end, dir, -b.length)
}

func (b *Bone) translate(offset vmath.Vec3) {
	b.start = vmath.V3Add(b.start, offset)
	b.end = vmath.V3Add(b.end, offset)
}
