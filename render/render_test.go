package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/vmath"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCamera_Project(t *testing.T) {
	cam := Camera{Distance: 4, Focal: 1}

	x, y, d, ok := cam.Project(vmath.V3(0, 0, 0), 100, 80)
	if !ok || !approx(x, 50) || !approx(y, 40) || !approx(d, 4) {
		t.Errorf("Center projected to (%g, %g) depth %g ok=%v", x, y, d, ok)
	}

	// One unit right and up at depth 4 with min(w,h)=80 is 20 pixels
	x, y, _, _ = cam.Project(vmath.V3(1, 1, 0), 100, 80)
	if !approx(x, 70) || !approx(y, 20) {
		t.Errorf("Expected (70, 20), got (%g, %g)", x, y)
	}

	if _, _, _, ok := cam.Project(vmath.V3(0, 0, 5), 100, 80); ok {
		t.Error("Point behind the camera should not project")
	}
}

func TestCamera_View(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float64
		in, want   vmath.Vec3
	}{
		{"identity", 0, 0, vmath.V3(1, 2, 3), vmath.V3(1, 2, 3)},
		{"yaw 90 brings +X toward camera", 90, 0, vmath.V3(1, 0, 0), vmath.V3(0, 0, 1)},
		{"pitch 90 brings +Y toward camera", 0, 90, vmath.V3(0, 1, 0), vmath.V3(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Camera{Yaw: tt.yaw, Pitch: tt.pitch}.View(tt.in)
			if !vmath.V3ApproxEqual(got, tt.want, 1e-9) {
				t.Errorf("View(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCamera_OrbitZoomFit(t *testing.T) {
	cam := DefaultCamera().Orbit(10, 100)
	if cam.Pitch != 89 || cam.Yaw != 40 {
		t.Errorf("Unexpected orbit %+v", cam)
	}
	if z := cam.Zoom(0); z.Distance != 0.1 {
		t.Errorf("Zoom should keep distance positive, got %g", z.Distance)
	}

	pts := []vmath.Vec3{vmath.V3(-1, 0, 0), vmath.V3(1, 2, 0)}
	fit := DefaultCamera().Fit(pts)
	if !vmath.V3ApproxEqual(fit.Center, vmath.V3(0, 1, 0), 1e-12) {
		t.Errorf("Expected center (0,1,0), got %v", fit.Center)
	}
	for _, p := range pts {
		x, y, _, ok := fit.Project(p, 200, 200)
		if !ok || x < 0 || x > 200 || y < 0 || y > 200 {
			t.Errorf("Fitted point %v projected outside: (%g, %g) %v", p, x, y, ok)
		}
	}
	if same := DefaultCamera().Fit(nil); same != DefaultCamera() {
		t.Error("Fit with no points should not change the camera")
	}
}

func TestTraverse(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           [][2]int
	}{
		{"single cell", 0.2, 0.2, 0.8, 0.9, [][2]int{{0, 0}}},
		{"horizontal", 0.5, 0.5, 3.5, 0.5, [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"backwards", 2.5, 1.5, 0.5, 1.5, [][2]int{{2, 1}, {1, 1}, {0, 1}}},
		{"diagonal corner", 0.5, 0.5, 2.5, 2.5, [][2]int{{0, 0}, {1, 1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			Traverse(tt.x0, tt.y0, tt.x1, tt.y1, func(x, y int) bool {
				got = append(got, [2]int{x, y})
				return true
			})
			if len(got) != len(tt.want) {
				t.Fatalf("Got cells %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Cell %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTraverse_Connected(t *testing.T) {
	var cells [][2]int
	Traverse(0.3, 0.7, 7.9, 3.2, func(x, y int) bool {
		cells = append(cells, [2]int{x, y})
		return true
	})
	if cells[0] != [2]int{0, 0} || cells[len(cells)-1] != [2]int{7, 3} {
		t.Fatalf("Unexpected endpoints %v", cells)
	}
	for i := 1; i < len(cells); i++ {
		dx, dy := cells[i][0]-cells[i-1][0], cells[i][1]-cells[i-1][1]
		if dx < 0 || dy < 0 || dx+dy == 0 || dx > 1 || dy > 1 {
			t.Errorf("Step %d from %v to %v is not a unit move", i, cells[i-1], cells[i])
		}
	}

	n := 0
	Traverse(0, 0, 10, 0, func(int, int) bool { n++; return n < 3 })
	if n != 3 {
		t.Errorf("Expected early stop after 3 cells, got %d", n)
	}
}

func TestColors(t *testing.T) {
	c, err := ParseHex("#ff8000")
	if err != nil || c != (RGB{255, 128, 0}) {
		t.Errorf("ParseHex = %v, %v", c, err)
	}
	if c.Hex() != "#ff8000" {
		t.Errorf("Hex = %q", c.Hex())
	}
	if _, err := ParseHex("orange"); err == nil {
		t.Error("Expected error for non-hex color")
	}
	if BoneColor("bad", 2) != ChainColor(2) || BoneColor("#ff8000", 2) != c {
		t.Error("BoneColor fallback wrong")
	}
	if ChainColor(1) == ChainColor(2) || ChainColor(3) != ChainColor(3+paletteSize) {
		t.Error("Palette should be distinct and cyclic")
	}
	if c.Fade(RGBBlack, 0) != c || c.Fade(RGBBlack, 1) != RGBBlack {
		t.Error("Fade endpoints wrong")
	}
	if got := DepthFade(5, 0, 10, 0.4); !approx(got, 0.2) {
		t.Errorf("DepthFade = %g", got)
	}
	if RGBBlack.Blend(RGB{200, 100, 0}, 0.5) != (RGB{100, 50, 0}) {
		t.Error("Blend wrong")
	}
}

func stickPose() ik.Pose {
	target := vmath.V3(1, 1, 0)
	return ik.Pose{Chains: []ik.ChainPose{{
		Name:   "arm",
		Target: &target,
		Bones: []ik.BonePose{
			{Start: vmath.V3(0, 0, 0), End: vmath.V3(0, 1, 0), Color: "#00ff00", Length: 1},
			{Start: vmath.V3(0, 1, 0), End: vmath.V3(1, 1, 0), Length: 1},
		},
	}}}
}

func TestNewScene(t *testing.T) {
	cam := Camera{Distance: 4, Focal: 1}
	s := NewScene(stickPose(), nil, cam, 100, 100, 0.01)

	if len(s.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(s.Segments))
	}
	if s.Segments[0].Color == s.Segments[1].Color {
		t.Error("Explicit bone color should differ from the chain default")
	}

	kinds := map[MarkerKind]int{}
	for _, m := range s.Markers {
		kinds[m.Kind]++
		if m.Kind == MarkerTarget && m.Color != RGBReached {
			t.Errorf("Target at the end effector should be reached-colored, got %v", m.Color)
		}
	}
	if kinds[MarkerJoint] != 1 || kinds[MarkerEffector] != 1 || kinds[MarkerTarget] != 1 {
		t.Errorf("Unexpected markers %v", kinds)
	}

	override := map[string]vmath.Vec3{"arm": vmath.V3(-1, 0, 0)}
	s = NewScene(stickPose(), override, cam, 100, 100, 0.01)
	for _, m := range s.Markers {
		if m.Kind == MarkerTarget && m.Color != RGBTarget {
			t.Error("Overridden distant target should be unreached")
		}
	}
}

func TestNewScene_DepthOrder(t *testing.T) {
	pose := ik.Pose{Chains: []ik.ChainPose{{
		Name: "z",
		Bones: []ik.BonePose{
			{Start: vmath.V3(0, 0, 1), End: vmath.V3(0, 1, 1)},
			{Start: vmath.V3(0, 0, -1), End: vmath.V3(0, 1, -1)},
		},
	}}}
	s := NewScene(pose, nil, Camera{Distance: 5, Focal: 1}, 100, 100, 0.01)
	if s.Segments[0].Bone != 1 || s.Segments[0].Depth <= s.Segments[1].Depth {
		t.Errorf("Expected the far bone first, got %+v", s.Segments)
	}
	if !approx(s.Near, 4) || !approx(s.Far, 6) {
		t.Errorf("Unexpected depth range %g..%g", s.Near, s.Far)
	}
}

func TestSnapshot(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 120, 90
	opts.Grid = false
	cam := Camera{Distance: 4, Focal: 1}
	opts.Camera = &cam

	img := Snapshot(stickPose(), nil, opts)
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Fatalf("Unexpected bounds %v", b)
	}

	bg := RGBBackground.Color()
	br, bgG, bb, _ := bg.RGBA()
	r, g, b, _ := img.At(2, 2).RGBA()
	if r != br || g != bgG || b != bb {
		t.Error("Corner should be background")
	}

	// Midpoint of the first bone: (0, 0.5, 0) projects to (60, 45 - 0.5*90/4)
	x, y, _, _ := cam.Project(vmath.V3(0, 0.5, 0), 120, 90)
	r, g, b, _ = img.At(int(x), int(y)).RGBA()
	if r == br && g == bgG && b == bb {
		t.Errorf("Expected bone pixel at (%g, %g)", x, y)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pose.png")
	opts := DefaultOptions()
	opts.Width, opts.Height = 64, 48
	if err := SavePNG(path, stickPose(), nil, opts); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Unexpected width %d", img.Bounds().Dx())
	}
}
