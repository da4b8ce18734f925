package ik

import "github.com/lixenwraith/fabrik/vmath"

// BonePose is the read-back of one bone
// Rotation takes the rest axis (0,0,-1) onto Direction, as [x, y, z, w]
type BonePose struct {
	Name      string     `json:"name,omitempty"`
	Color     string     `json:"color,omitempty"`
	Start     vmath.Vec3 `json:"start"`
	End       vmath.Vec3 `json:"end"`
	Direction vmath.Vec3 `json:"direction"`
	Length    float64    `json:"length"`
	Rotation  [4]float64 `json:"rotation"`
}

type ChainPose struct {
	Name     string      `json:"name"`
	Residual float64     `json:"residual"`
	Target   *vmath.Vec3 `json:"target,omitempty"`
	Bones    []BonePose  `json:"bones"`
}

// Pose is a snapshot of every chain in registration order
type Pose struct {
	Chains []ChainPose `json:"chains"`
}

// Chain finds a chain pose by name
func (p Pose) Chain(name string) (ChainPose, bool) {
	for _, c := range p.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return ChainPose{}, false
}

// Pose snapshots the chain
func (c *Chain) Pose() ChainPose {
	cp := ChainPose{
		Name:     c.name,
		Residual: c.Residual(),
		Bones:    make([]BonePose, len(c.bones)),
	}
	if c.hasTarget {
		t := c.target
		cp.Target = &t
	}
	for i, b := range c.bones {
		cp.Bones[i] = BonePose{
			Name:      b.name,
			Color:     b.color,
			Start:     b.start,
			End:       b.end,
			Direction: b.dir,
			Length:    b.length,
			Rotation:  b.Orientation(),
		}
	}
	return cp
}

// Pose snapshots every chain
func (s *Structure) Pose() Pose {
	p := Pose{Chains: make([]ChainPose, len(s.chains))}
	for i, c := range s.chains {
		p.Chains[i] = c.Pose()
	}
	return p
}
