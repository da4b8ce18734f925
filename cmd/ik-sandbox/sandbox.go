package main

import (
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/render"
	"github.com/lixenwraith/fabrik/rig"
	"github.com/lixenwraith/fabrik/status"
	"github.com/lixenwraith/fabrik/vmath"
)

const (
	targetStep = 0.05
	orbitStep  = 5.0
	zoomStep   = 1.1
	hudRows    = 2
)

// sandbox owns the structure and all interactive state; it runs on one goroutine
type sandbox struct {
	screen tcell.Screen
	def    *rig.Definition
	s      *ik.Structure
	stats  *status.Registry
	snd    *chime

	names     []string
	targets   map[string]vmath.Vec3
	reaches   map[string]int64
	selected  int
	cam       render.Camera
	tolerance float64
	paused    bool
	help      bool
}

func newSandbox(screen tcell.Screen, def *rig.Definition, snd *chime) (*sandbox, error) {
	full, err := def.WithDefaults()
	if err != nil {
		return nil, err
	}
	sb := &sandbox{
		screen:    screen,
		def:       def,
		stats:     status.NewRegistry(),
		snd:       snd,
		names:     def.ChainNames(),
		reaches:   make(map[string]int64),
		tolerance: full.Solver.Tolerance,
	}
	if sb.s, err = def.Build(ik.WithObserver(sb.stats)); err != nil {
		return nil, err
	}
	sb.reset()
	return sb, nil
}

// reset restores the rig's own targets and refits the camera
func (sb *sandbox) reset() {
	sb.targets = sb.def.TargetMap()
	sb.step()
	sb.cam = render.DefaultCamera().Fit(render.Points(sb.s.Pose(), sb.targets))
}

func (sb *sandbox) selectedName() string {
	if len(sb.names) == 0 {
		return ""
	}
	return sb.names[sb.selected]
}

// step runs one structure solve and chimes for chains that just reached their target
func (sb *sandbox) step() {
	sb.s.Solve(sb.targets)
	sb.stats.Tick()
	for i, name := range sb.names {
		cs, ok := sb.stats.Chains.Lookup(name)
		if !ok {
			continue
		}
		n := cs.Reaches.Load()
		if n > sb.reaches[name] {
			log.Printf("chain %s reached target (residual %.5f)", name, cs.Residual.Load())
			sb.snd.play(i)
		}
		sb.reaches[name] = n
	}
}

// moveTarget nudges the selected chain's target, creating it at the end effector if absent
func (sb *sandbox) moveTarget(d vmath.Vec3) {
	name := sb.selectedName()
	t, ok := sb.targets[name]
	if !ok {
		t = sb.effector(name)
	}
	sb.targets[name] = vmath.V3Add(t, d)
}

// toggleTarget clears the selected target so the chain follows its anchor, or restores one
func (sb *sandbox) toggleTarget() {
	name := sb.selectedName()
	if _, ok := sb.targets[name]; ok {
		delete(sb.targets, name)
		return
	}
	sb.targets[name] = sb.effector(name)
}

func (sb *sandbox) effector(name string) vmath.Vec3 {
	cp, ok := sb.s.Pose().Chain(name)
	if !ok || len(cp.Bones) == 0 {
		return vmath.Vec3{}
	}
	return cp.Bones[len(cp.Bones)-1].End
}

// handleKey applies one key press and reports whether the sandbox should keep running
func (sb *sandbox) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		sb.selected = (sb.selected + 1) % max(len(sb.names), 1)
	case tcell.KeyBacktab:
		sb.selected = (sb.selected + len(sb.names) - 1) % max(len(sb.names), 1)
	case tcell.KeyLeft:
		sb.moveTarget(vmath.Vec3{X: -targetStep})
	case tcell.KeyRight:
		sb.moveTarget(vmath.Vec3{X: targetStep})
	case tcell.KeyUp:
		sb.moveTarget(vmath.Vec3{Y: targetStep})
	case tcell.KeyDown:
		sb.moveTarget(vmath.Vec3{Y: -targetStep})
	case tcell.KeyPgUp:
		sb.moveTarget(vmath.Vec3{Z: -targetStep})
	case tcell.KeyPgDn:
		sb.moveTarget(vmath.Vec3{Z: targetStep})
	case tcell.KeyRune:
		return sb.handleRune(ev.Rune())
	}
	return true
}

func (sb *sandbox) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case 'h':
		sb.cam = sb.cam.Orbit(-orbitStep, 0)
	case 'l':
		sb.cam = sb.cam.Orbit(orbitStep, 0)
	case 'k':
		sb.cam = sb.cam.Orbit(0, orbitStep)
	case 'j':
		sb.cam = sb.cam.Orbit(0, -orbitStep)
	case '+', '=':
		sb.cam = sb.cam.Zoom(1 / zoomStep)
	case '-':
		sb.cam = sb.cam.Zoom(zoomStep)
	case 'w':
		sb.moveTarget(vmath.Vec3{Z: -targetStep})
	case 's':
		sb.moveTarget(vmath.Vec3{Z: targetStep})
	case 'f':
		sb.cam = sb.cam.Fit(render.Points(sb.s.Pose(), sb.targets))
	case 't':
		sb.toggleTarget()
	case 'r':
		sb.reset()
	case ' ':
		sb.paused = !sb.paused
	case '?':
		sb.help = !sb.help
	default:
		if r >= '1' && r <= '9' && int(r-'1') < len(sb.names) {
			sb.selected = int(r - '1')
		}
	}
	return true
}

func (sb *sandbox) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := sb.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	sb.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !sb.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				sb.screen.Sync()
			}

		case <-ticker.C:
			if !sb.paused {
				sb.step()
			}
			sb.draw()
		}
	}
}

func (sb *sandbox) draw() {
	sb.screen.Fill(' ', bgStyle)
	w, h := sb.screen.Size()
	drawScene(sb.screen, sb.s.Pose(), sb.targets, sb.cam, w, h-hudRows, sb.tolerance, sb.selectedName())
	drawHUD(sb.screen, sb, w, h)
	if sb.help {
		drawHelp(sb.screen, w, h)
	}
	sb.screen.Show()
}
