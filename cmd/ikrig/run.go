package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/render"
	"github.com/lixenwraith/fabrik/rig"
	"github.com/lixenwraith/fabrik/server"
	"github.com/lixenwraith/fabrik/status"
	"github.com/lixenwraith/fabrik/vmath"
)

type solveOptions struct {
	targets []string
	format  string
	ticks   int
}

type snapshotOptions struct {
	targets       []string
	ticks         int
	output        string
	width, height int
	yaw, pitch    float64
	grid          bool
}

type serveOptions struct {
	port       int
	tickRate   int
	targetRate float64
}

// loadRig reads a rig file, or a preset when arg has no extension and names one
func loadRig(arg string) (*rig.Definition, error) {
	if filepath.Ext(arg) != "" {
		return rig.Load(arg)
	}
	if _, err := os.Stat(arg); err == nil {
		return nil, fmt.Errorf("%s: rig files need a .toml, .yaml or .json extension", arg)
	}
	def, err := rig.Preset(arg)
	if err != nil {
		return nil, fmt.Errorf("no rig file or preset named %q%s", arg, ik.Suggest(arg, rig.PresetNames()))
	}
	return def, nil
}

// parseTarget reads chain=x,y,z
func parseTarget(s string) (string, vmath.Vec3, error) {
	name, coords, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", vmath.Vec3{}, fmt.Errorf("target %q: want chain=x,y,z", s)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return "", vmath.Vec3{}, fmt.Errorf("target %q: want three coordinates, got %d", s, len(parts))
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", vmath.Vec3{}, fmt.Errorf("target %q: %w", s, err)
		}
		v[i] = f
	}
	return name, vmath.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// mergeTargets overlays flag targets on the rig's own
func mergeTargets(def *rig.Definition, flags []string) (map[string]vmath.Vec3, error) {
	targets := def.TargetMap()
	for _, s := range flags {
		name, v, err := parseTarget(s)
		if err != nil {
			return nil, err
		}
		targets[name] = v
	}
	return targets, nil
}

// solveRun is a built rig after its solves
type solveRun struct {
	def     *rig.Definition
	s       *ik.Structure
	stats   *status.Registry
	targets map[string]vmath.Vec3
}

// solve builds the rig and runs ticks solves toward the merged targets
func solve(arg string, flags []string, ticks int) (*solveRun, error) {
	def, err := loadRig(arg)
	if err != nil {
		return nil, err
	}
	run := &solveRun{def: def, stats: status.NewRegistry()}
	if run.s, err = def.Build(ik.WithObserver(run.stats)); err != nil {
		return nil, err
	}
	if run.targets, err = mergeTargets(def, flags); err != nil {
		return nil, err
	}
	if err := run.s.CheckTargets(run.targets); err != nil {
		return nil, err
	}
	for range max(ticks, 1) {
		run.s.Solve(run.targets)
		run.stats.Tick()
	}
	return run, nil
}

func runValidate(w io.Writer, arg string) error {
	def, err := loadRig(arg)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		printProblems(w, def.Name, err)
		return errInvalid
	}
	printValid(w, def)
	return nil
}

func runSolve(w io.Writer, arg string, opts solveOptions) error {
	run, err := solve(arg, opts.targets, opts.ticks)
	if err != nil {
		return err
	}
	pose := run.s.Pose()
	if opts.format == "" || strings.EqualFold(opts.format, "text") {
		printPose(w, pose, run.stats)
		return nil
	}
	format, err := rig.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	data, err := encodePose(pose, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func runSnapshot(w io.Writer, arg string, opts snapshotOptions) error {
	run, err := solve(arg, opts.targets, opts.ticks)
	if err != nil {
		return err
	}
	pose := run.s.Pose()

	ro := render.DefaultOptions()
	ro.Width, ro.Height = opts.width, opts.height
	ro.Grid = opts.grid
	if full, err := run.def.WithDefaults(); err == nil {
		ro.Tolerance = full.Solver.Tolerance
	}
	cam := render.DefaultCamera()
	cam.Yaw, cam.Pitch = opts.yaw, opts.pitch
	cam = cam.Fit(render.Points(pose, run.targets))
	ro.Camera = &cam

	if err := render.SavePNG(opts.output, pose, run.targets, ro); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	fmt.Fprintf(w, "%s %s (%dx%d)\n", okStyle.Render("wrote"), opts.output, opts.width, opts.height)
	return nil
}

func runServe(ctx context.Context, arg string, opts serveOptions) error {
	def, err := loadRig(arg)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(def, server.Config{
		Addr:       fmt.Sprintf(":%d", opts.port),
		TickRate:   opts.tickRate,
		TargetRate: rate.Limit(opts.targetRate),
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func runPresetList(w io.Writer) error {
	for _, name := range rig.PresetNames() {
		def, err := rig.Preset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-10s", name)),
			dimStyle.Render(strings.Join(def.ChainNames(), ", ")))
	}
	return nil
}

func runPreset(w io.Writer, name, output, format string) error {
	def, err := rig.Preset(name)
	if err != nil {
		return err
	}
	if output != "" {
		if err := def.Save(output); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", okStyle.Render("wrote"), output)
		return nil
	}
	f, err := rig.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := def.Encode(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
