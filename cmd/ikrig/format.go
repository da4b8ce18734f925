package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/rig"
	"github.com/lixenwraith/fabrik/status"
	"github.com/lixenwraith/fabrik/toml"
	"github.com/lixenwraith/fabrik/vmath"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printProblems(w io.Writer, name string, err error) {
	lines := strings.Split(err.Error(), "\n")
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s: %d problem(s)", displayName(name), len(lines))))
	for _, l := range lines {
		fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("x"), l)
	}
	fmt.Fprintln(w, errorStyle.Render("Result: INVALID"))
}

func printValid(w io.Writer, def *rig.Definition) {
	fmt.Fprintln(w, headerStyle.Render(displayName(def.Name)))
	for _, c := range def.Chains {
		anchor := fmt.Sprintf("base %s", formatVec(c.Base))
		if c.Connect != nil {
			point := c.Connect.Point
			if point == "" {
				point = "end"
			}
			anchor = fmt.Sprintf("on %s[%d] %s", c.Connect.Host, c.Connect.Bone, point)
		}
		fmt.Fprintf(w, "  %-12s %d bones, reach %.3f, %s\n", c.Name, len(c.Bones), def.Reach(c.Name), dimStyle.Render(anchor))
	}
	fmt.Fprintln(w, okStyle.Render("Result: VALID"))
}

func displayName(name string) string {
	if name == "" {
		return "rig"
	}
	return name
}

// stateStyle colours a chain state from status
func stateStyle(state status.State) lipgloss.Style {
	switch {
	case state.Settled():
		return okStyle
	case state == status.StateUnreachable, state == status.StateHolding:
		return warnStyle
	}
	return errorStyle
}

func printPose(w io.Writer, pose ik.Pose, stats *status.Registry) {
	for _, c := range pose.Chains {
		state := status.StateHolding
		var iterations int64
		if cs, ok := stats.Chains.Lookup(c.Name); ok {
			state = cs.State.Load()
			iterations = cs.Iterations.Load()
		}
		fmt.Fprintf(w, "%s %s residual %s, %d iterations\n",
			headerStyle.Render(c.Name),
			stateStyle(state).Render(state.String()),
			stateStyle(state).Render(fmt.Sprintf("%.5f", c.Residual)),
			iterations)
		if c.Target != nil {
			fmt.Fprintf(w, "  target %s\n", formatVec(vec(*c.Target)))
		}
		for _, b := range c.Bones {
			fmt.Fprintf(w, "  %-12s %s -> %s\n", b.Name, formatVec(vec(b.Start)), formatVec(vec(b.End)))
		}
	}
}

func formatVec(v [3]float64) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v[0], v[1], v[2])
}

func vec(v vmath.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// poseDoc mirrors ik.Pose with plain arrays so every format writes [x, y, z]
type poseDoc struct {
	Chains []chainDoc `toml:"chains" yaml:"chains" json:"chains"`
}

type chainDoc struct {
	Name     string      `toml:"name" yaml:"name" json:"name"`
	Residual float64     `toml:"residual" yaml:"residual" json:"residual"`
	Target   *[3]float64 `toml:"target,omitempty" yaml:"target,omitempty" json:"target,omitempty"`
	Bones    []boneDoc   `toml:"bones" yaml:"bones" json:"bones"`
}

type boneDoc struct {
	Name     string     `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Start    [3]float64 `toml:"start" yaml:"start,flow" json:"start"`
	End      [3]float64 `toml:"end" yaml:"end,flow" json:"end"`
	Rotation [4]float64 `toml:"rotation" yaml:"rotation,flow" json:"rotation"`
}

func newPoseDoc(pose ik.Pose) poseDoc {
	doc := poseDoc{Chains: make([]chainDoc, len(pose.Chains))}
	for i, c := range pose.Chains {
		cd := chainDoc{Name: c.Name, Residual: c.Residual, Bones: make([]boneDoc, len(c.Bones))}
		if c.Target != nil {
			t := vec(*c.Target)
			cd.Target = &t
		}
		for j, b := range c.Bones {
			cd.Bones[j] = boneDoc{Name: b.Name, Start: vec(b.Start), End: vec(b.End), Rotation: b.Rotation}
		}
		doc.Chains[i] = cd
	}
	return doc
}

func encodePose(pose ik.Pose, format rig.Format) ([]byte, error) {
	doc := newPoseDoc(pose)
	switch format {
	case rig.FormatTOML:
		return toml.Marshal(doc)
	case rig.FormatYAML:
		return yaml.Marshal(doc)
	case rig.FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
