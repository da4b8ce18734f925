package ik

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// solveOrder returns chain indices with every host ahead of the chains attached to it
// hosts[i] is the host index of chain i, or -1 for a free chain
func solveOrder(names []string, hosts []int) ([]int, error) {
	g := simple.NewDirectedGraph()
	for i := range names {
		g.AddNode(simple.Node(i))
	}
	for i, h := range hosts {
		if h < 0 {
			continue
		}
		if h == i {
			return nil, fmt.Errorf("%w: chain %q connects to itself", ErrCycle, names[i])
		}
		g.SetEdge(g.NewEdge(simple.Node(h), simple.Node(i)))
	}

	sorted, err := topo.SortStabilized(g, byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, fmt.Errorf("%w: %s", ErrCycle, describeCycles(names, cycles))
		}
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	order := make([]int, len(sorted))
	for i, n := range sorted {
		order[i] = int(n.ID())
	}
	return order, nil
}

// byID keeps traversal tied to registration order
func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

func describeCycles(names []string, cycles topo.Unorderable) string {
	parts := make([]string, 0, len(cycles))
	for _, scc := range cycles {
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, names[n.ID()])
		}
		parts = append(parts, "["+strings.Join(members, ", ")+"]")
	}
	return strings.Join(parts, " ")
}

// Suggest returns a "did you mean" hint for the closest known name, or ""
func Suggest(name string, known []string) string {
	best, bestDist := "", -1
	for _, k := range known {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(k))
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
