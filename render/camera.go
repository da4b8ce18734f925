package render

import (
	"math"

	"github.com/lixenwraith/fabrik/vmath"
)

// nearPlane is the smallest view depth that still projects
const nearPlane = 1e-3

// Camera orbits Center at Distance, looking at it
// Yaw turns about world Y, Pitch tilts toward looking down; both in degrees.
// At zero yaw and pitch the camera sits on +Z seeing X right and Y up.
type Camera struct {
	Yaw      float64
	Pitch    float64
	Distance float64
	// Focal scales the image: at depth d one unit spans Focal*min(w,h)/d pixels
	Focal  float64
	Center vmath.Vec3
}

func DefaultCamera() Camera {
	return Camera{Yaw: 30, Pitch: 15, Distance: 5, Focal: 1}
}

// View transforms a world point to view space: X right, Y up, Z toward the camera
func (c Camera) View(v vmath.Vec3) vmath.Vec3 {
	p := vmath.V3Sub(v, c.Center)
	yaw, pitch := vmath.DegToRad(c.Yaw), vmath.DegToRad(c.Pitch)
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cp, sp := math.Cos(pitch), math.Sin(pitch)

	x := cy*p.X - sy*p.Z
	z := sy*p.X + cy*p.Z
	y := cp*p.Y - sp*z
	z = sp*p.Y + cp*z
	return vmath.V3(x, y, z)
}

// Project maps a world point to pixel coordinates in a w by h image
// depth is the distance along the view axis; ok is false behind the near plane
func (c Camera) Project(v vmath.Vec3, w, h float64) (x, y, depth float64, ok bool) {
	p := c.View(v)
	depth = c.Distance - p.Z
	if depth < nearPlane {
		return 0, 0, depth, false
	}
	scale := c.Focal * math.Min(w, h) / depth
	return w/2 + p.X*scale, h/2 - p.Y*scale, depth, true
}

// Orbit returns c turned by the given degrees; pitch stays within ±89
func (c Camera) Orbit(dyaw, dpitch float64) Camera {
	c.Yaw = math.Mod(c.Yaw+dyaw, 360)
	c.Pitch = vmath.Clamp(c.Pitch+dpitch, -89, 89)
	return c
}

// Zoom scales the distance, keeping it positive
func (c Camera) Zoom(factor float64) Camera {
	c.Distance = math.Max(c.Distance*factor, 0.1)
	return c
}

// Fit centers c on the points and backs off until they fit the view
func (c Camera) Fit(points []vmath.Vec3) Camera {
	if len(points) == 0 {
		return c
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = vmath.V3(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z))
		hi = vmath.V3(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z))
	}
	c.Center = vmath.V3Lerp(lo, hi, 0.5)

	var radius float64
	for _, p := range points {
		radius = math.Max(radius, vmath.V3Dist(p, c.Center))
	}
	if c.Focal <= 0 {
		c.Focal = 1
	}
	c.Distance = math.Max(3.5*radius*c.Focal, 1)
	return c
}
