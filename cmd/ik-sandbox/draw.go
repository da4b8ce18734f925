package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/render"
	"github.com/lixenwraith/fabrik/status"
	"github.com/lixenwraith/fabrik/vmath"
)

const (
	gridHalf = 3
	maxFade  = 0.65
)

// cellWriter is the part of tcell.Screen drawing needs
type cellWriter interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

var (
	bgStyle   = tcell.StyleDefault.Background(tcellColor(render.RGBBackground))
	hudStyle  = bgStyle.Foreground(tcell.ColorWhite)
	dimStyle  = bgStyle.Foreground(tcellColor(render.RGBGrid))
	helpStyle = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
)

func tcellColor(c render.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// lineGlyph picks a box-drawing rune for a segment direction in square canvas units
func lineGlyph(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ay > 2*ax:
		return '│'
	case ax > 2*ay:
		return '─'
	case dx*dy > 0:
		return '╲'
	}
	return '╱'
}

// drawScene rasterizes the pose into a w by h cell area
// Projection uses a w by 2h canvas so a cell, twice as tall as wide, covers square units
func drawScene(cw cellWriter, pose ik.Pose, targets map[string]vmath.Vec3, cam render.Camera, w, h int, tolerance float64, selected string) {
	if w <= 0 || h <= 0 {
		return
	}
	fw, fh := float64(w), float64(2*h)
	inside := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }

	for i := -gridHalf; i <= gridHalf; i++ {
		for j := -gridHalf; j <= gridHalf; j++ {
			x, y, _, ok := cam.Project(vmath.Vec3{X: float64(i), Z: float64(j)}, fw, fh)
			cx, cy := int(math.Floor(x)), int(math.Floor(y/2))
			if ok && inside(cx, cy) {
				cw.SetContent(cx, cy, '·', nil, dimStyle)
			}
		}
	}

	scene := render.NewScene(pose, targets, cam, fw, fh, tolerance)

	for _, seg := range scene.Segments {
		col := seg.Color.Fade(render.RGBBackground, scene.Fade(seg.Depth, maxFade))
		style := bgStyle.Foreground(tcellColor(col))
		if seg.Chain == selected {
			style = style.Bold(true)
		}
		glyph := lineGlyph(seg.X1-seg.X0, seg.Y1-seg.Y0)
		render.Traverse(seg.X0, seg.Y0/2, seg.X1, seg.Y1/2, func(x, y int) bool {
			if inside(x, y) {
				cw.SetContent(x, y, glyph, nil, style)
			}
			return true
		})
	}

	for _, m := range scene.Markers {
		cx, cy := int(math.Floor(m.X)), int(math.Floor(m.Y/2))
		if !inside(cx, cy) {
			continue
		}
		col := m.Color.Fade(render.RGBBackground, scene.Fade(m.Depth, maxFade))
		style := bgStyle.Foreground(tcellColor(col))
		var glyph rune
		switch m.Kind {
		case render.MarkerJoint:
			glyph = '•'
		case render.MarkerEffector:
			glyph = '●'
		case render.MarkerTarget:
			glyph = '◇'
			if m.Chain == selected {
				glyph = '◆'
				style = style.Bold(true)
			}
		}
		cw.SetContent(cx, cy, glyph, nil, style)
	}
}

// drawText writes s from x and returns the column after it, clipped at w
func drawText(cw cellWriter, x, y, w int, s string, style tcell.Style) int {
	for _, r := range s {
		if x >= w {
			break
		}
		cw.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func stateColor(state status.State) tcell.Color {
	switch {
	case state.Settled():
		return tcellColor(render.RGBReached)
	case state == status.StateUnreachable, state == status.StateHolding:
		return tcellColor(render.RGBTarget)
	}
	return tcell.ColorRed
}

func drawHUD(cw cellWriter, sb *sandbox, w, h int) {
	if h < hudRows {
		return
	}
	row := h - hudRows
	x := 0
	for i, name := range sb.names {
		style := hudStyle
		if i == sb.selected {
			style = style.Reverse(true)
		}
		x = drawText(cw, x, row, w, fmt.Sprintf("%d %s", i+1, name), style)
		state, residual := status.StateHolding, 0.0
		if cs, ok := sb.stats.Chains.Lookup(name); ok {
			if _, targeted := sb.targets[name]; targeted {
				state, residual = cs.State.Load(), cs.Residual.Load()
			}
		}
		x = drawText(cw, x, row, w, fmt.Sprintf(" %s %.4f  ", state, residual), bgStyle.Foreground(stateColor(state)))
	}

	name := sb.selectedName()
	line := fmt.Sprintf("tick %d  %s", sb.stats.Ticks.Load(), name)
	if t, ok := sb.targets[name]; ok {
		line += fmt.Sprintf(" target (%.2f, %.2f, %.2f)", t.X, t.Y, t.Z)
	} else {
		line += " no target"
	}
	line += fmt.Sprintf("  yaw %.0f pitch %.0f", sb.cam.Yaw, sb.cam.Pitch)
	if sb.paused {
		line += "  PAUSED"
	}
	line += "  ? help"
	drawText(cw, 0, row+1, w, line, hudStyle)
}

var helpLines = []string{
	"Tab, 1-9    select chain",
	"arrows      move target in x and y",
	"w s PgUp Dn move target in z",
	"t           clear or restore target",
	"h j k l     orbit camera",
	"+ -         zoom",
	"f           fit camera",
	"r           reset targets",
	"space       pause solving",
	"q Esc       quit",
}

func drawHelp(cw cellWriter, w, h int) {
	width := 0
	for _, l := range helpLines {
		width = max(width, len([]rune(l)))
	}
	x0 := max((w-width-4)/2, 0)
	y0 := max((h-len(helpLines)-2)/2, 0)
	for y := y0; y < y0+len(helpLines)+2 && y < h; y++ {
		for x := x0; x < x0+width+4 && x < w; x++ {
			cw.SetContent(x, y, ' ', nil, helpStyle)
		}
	}
	for i, l := range helpLines {
		drawText(cw, x0+2, y0+1+i, w, l, helpStyle)
	}
}
