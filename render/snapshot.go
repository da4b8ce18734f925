package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/vmath"
)

// Options controls PNG snapshots
type Options struct {
	Width, Height int
	// Camera is used as given when set, otherwise DefaultCamera fitted to the pose
	Camera     *Camera
	Background RGB
	LineWidth  float64
	JointSize  float64
	// Grid draws a floor grid on the y=0 plane
	Grid bool
	// Tolerance decides when a target marker shows as reached
	Tolerance float64
}

func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		Background: RGBBackground,
		LineWidth:  6,
		JointSize:  4,
		Grid:       true,
		Tolerance:  ik.DefaultTolerance,
	}
}

// gridHalf is the grid extent in world units either side of the origin
const gridHalf = 3

// Snapshot draws pose into a new image
func Snapshot(pose ik.Pose, targets map[string]vmath.Vec3, opts Options) image.Image {
	w, h := float64(opts.Width), float64(opts.Height)
	cam := DefaultCamera().Fit(Points(pose, targets))
	if opts.Camera != nil {
		cam = *opts.Camera
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(opts.Background.Color())
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	if opts.Grid {
		drawGrid(dc, cam, w, h, opts.Background)
	}

	scene := NewScene(pose, targets, cam, w, h, opts.Tolerance)
	for _, seg := range scene.Segments {
		dc.SetColor(seg.Color.Fade(opts.Background, scene.Fade(seg.Depth, 0.45)).Color())
		dc.SetLineWidth(perspectiveWidth(opts.LineWidth, seg.Depth, cam.Distance))
		dc.DrawLine(seg.X0, seg.Y0, seg.X1, seg.Y1)
		dc.Stroke()
	}

	for _, m := range scene.Markers {
		r := perspectiveWidth(opts.JointSize, m.Depth, cam.Distance)
		dc.SetColor(m.Color.Color())
		switch m.Kind {
		case MarkerJoint:
			dc.DrawCircle(m.X, m.Y, r)
			dc.Fill()
		case MarkerEffector:
			dc.DrawRectangle(m.X-r, m.Y-r, 2*r, 2*r)
			dc.Fill()
		case MarkerTarget:
			dc.SetLineWidth(2)
			dc.DrawCircle(m.X, m.Y, 2*r)
			dc.Stroke()
			dc.DrawLine(m.X-3*r, m.Y, m.X+3*r, m.Y)
			dc.DrawLine(m.X, m.Y-3*r, m.X, m.Y+3*r)
			dc.Stroke()
		}
	}

	return dc.Image()
}

// SavePNG writes Snapshot output to path
func SavePNG(path string, pose ik.Pose, targets map[string]vmath.Vec3, opts Options) error {
	return gg.SavePNG(path, Snapshot(pose, targets, opts))
}

// perspectiveWidth shrinks size with depth relative to the orbit distance
func perspectiveWidth(size, depth, distance float64) float64 {
	if depth <= 0 || distance <= 0 {
		return size
	}
	return math.Max(size*distance/depth, 1)
}

func drawGrid(dc *gg.Context, cam Camera, w, h float64, bg RGB) {
	dc.SetColor(RGBGrid.Fade(bg, 0.3).Color())
	dc.SetLineWidth(1)
	for i := -gridHalf; i <= gridHalf; i++ {
		f := float64(i)
		lines := [2][2]vmath.Vec3{
			{vmath.V3(f, 0, -gridHalf), vmath.V3(f, 0, gridHalf)},
			{vmath.V3(-gridHalf, 0, f), vmath.V3(gridHalf, 0, f)},
		}
		for _, l := range lines {
			x0, y0, _, ok0 := cam.Project(l[0], w, h)
			x1, y1, _, ok1 := cam.Project(l[1], w, h)
			if ok0 && ok1 {
				dc.DrawLine(x0, y0, x1, y1)
				dc.Stroke()
			}
		}
	}
}
