// Package render projects solved poses for display: a perspective camera, a
// depth-sorted scene shared by the terminal sandbox, and PNG snapshots drawn with gg.
package render

import (
	"sort"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/vmath"
)

// Segment is a projected bone
type Segment struct {
	Chain  string
	Bone   int
	X0, Y0 float64
	X1, Y1 float64
	// Depth is the mean view depth of both ends
	Depth float64
	Color RGB
}

// MarkerKind distinguishes point primitives
type MarkerKind uint8

const (
	MarkerJoint MarkerKind = iota
	MarkerEffector
	MarkerTarget
)

// Marker is a projected point
type Marker struct {
	Kind  MarkerKind
	Chain string
	X, Y  float64
	Depth float64
	Color RGB
}

// Scene holds everything visible, farthest first
type Scene struct {
	Segments []Segment
	Markers  []Marker
	// Near and Far bound the depths present, for fading
	Near, Far float64
}

// Points lists every bone end and target in the pose, for Camera.Fit
func Points(pose ik.Pose, targets map[string]vmath.Vec3) []vmath.Vec3 {
	var pts []vmath.Vec3
	for _, c := range pose.Chains {
		for _, b := range c.Bones {
			pts = append(pts, b.Start, b.End)
		}
		if c.Target != nil {
			pts = append(pts, *c.Target)
		}
	}
	for _, t := range targets {
		pts = append(pts, t)
	}
	return pts
}

// NewScene projects pose into a w by h viewport
// Targets in the map override the pose's own; a chain whose end effector is within
// tolerance of its target gets a reached-colored marker.
func NewScene(pose ik.Pose, targets map[string]vmath.Vec3, cam Camera, w, h float64, tolerance float64) Scene {
	var s Scene
	first := true
	track := func(d float64) {
		if first {
			s.Near, s.Far, first = d, d, false
			return
		}
		s.Near = min(s.Near, d)
		s.Far = max(s.Far, d)
	}

	for ci, c := range pose.Chains {
		for bi, b := range c.Bones {
			x0, y0, d0, ok0 := cam.Project(b.Start, w, h)
			x1, y1, d1, ok1 := cam.Project(b.End, w, h)
			if !ok0 || !ok1 {
				continue
			}
			depth := (d0 + d1) / 2
			track(depth)
			s.Segments = append(s.Segments, Segment{
				Chain: c.Name, Bone: bi,
				X0: x0, Y0: y0, X1: x1, Y1: y1,
				Depth: depth,
				Color: BoneColor(b.Color, ci),
			})
			if bi > 0 {
				s.Markers = append(s.Markers, Marker{Kind: MarkerJoint, Chain: c.Name, X: x0, Y: y0, Depth: d0, Color: RGBJoint})
			}
		}

		target, hasTarget := targets[c.Name]
		if !hasTarget && c.Target != nil {
			target, hasTarget = *c.Target, true
		}
		if len(c.Bones) > 0 {
			end := c.Bones[len(c.Bones)-1].End
			if x, y, d, ok := cam.Project(end, w, h); ok {
				s.Markers = append(s.Markers, Marker{Kind: MarkerEffector, Chain: c.Name, X: x, Y: y, Depth: d, Color: ChainColor(ci)})
			}
			if hasTarget {
				col := RGBTarget
				if vmath.V3Dist(end, target) <= tolerance {
					col = RGBReached
				}
				if x, y, d, ok := cam.Project(target, w, h); ok {
					track(d)
					s.Markers = append(s.Markers, Marker{Kind: MarkerTarget, Chain: c.Name, X: x, Y: y, Depth: d, Color: col})
				}
			}
		}
	}

	sort.SliceStable(s.Segments, func(i, j int) bool { return s.Segments[i].Depth > s.Segments[j].Depth })
	sort.SliceStable(s.Markers, func(i, j int) bool { return s.Markers[i].Depth > s.Markers[j].Depth })
	return s
}

// Fade returns how far toward the background an item at depth should be pushed
func (s Scene) Fade(depth, maxFade float64) float64 {
	return DepthFade(depth, s.Near, s.Far, maxFade)
}
