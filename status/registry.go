// Package status keeps lock-free per-chain solve statistics for displays
package status

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/fabrik/ik"
)

// ChainStats accumulates results for one chain
// Writers are the solving goroutine; readers load atomics from any goroutine
type ChainStats struct {
	Solves      atomic.Int64
	Converged   atomic.Int64
	Unreachable atomic.Int64
	Iterations  atomic.Int64
	// Reaches counts transitions from not converged to converged
	Reaches  atomic.Int64
	Reached  atomic.Bool
	Residual AtomicFloat
	// WorstResidual is the largest residual of a converged solve
	WorstResidual AtomicFloat
	Elapsed       atomic.Int64
	State         AtomicState
}

// Snapshot is a plain copy of ChainStats
type Snapshot struct {
	Chain         string        `json:"chain"`
	Solves        int64         `json:"solves"`
	Converged     int64         `json:"converged"`
	Unreachable   int64         `json:"unreachable"`
	Iterations    int64         `json:"iterations"`
	Reaches       int64         `json:"reaches"`
	Reached       bool          `json:"reached"`
	Residual      float64       `json:"residual"`
	WorstResidual float64       `json:"worst_residual"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	State         State         `json:"state"`
}

// Registry is an ik.Observer collecting ChainStats per chain
// Pass it to ik.WithObserver; displays cache Chain pointers and read atomics directly
type Registry struct {
	Chains *MetricMap[ChainStats]
	Ticks  atomic.Int64
}

var _ ik.Observer = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		Chains: NewMetricMap[ChainStats](),
	}
}

// Chain returns the stats for name, creating them if absent
func (r *Registry) Chain(name string) *ChainStats {
	return r.Chains.Get(name)
}

// ChainSolved implements ik.Observer
func (r *Registry) ChainSolved(chain string, res ik.SolveResult) {
	s := r.Chains.Get(chain)
	s.Solves.Add(1)
	s.Iterations.Add(int64(res.Iterations))
	s.Residual.Store(res.Residual)
	s.Elapsed.Store(int64(res.Elapsed))

	if res.Converged {
		s.Converged.Add(1)
		s.WorstResidual.Max(res.Residual)
	}
	if res.Unreachable {
		s.Unreachable.Add(1)
	}
	if !s.Reached.Swap(res.Converged) && res.Converged {
		s.Reaches.Add(1)
	}
	s.State.Store(StateOf(res))
}

// Tick marks the end of one Structure.Solve
func (r *Registry) Tick() int64 {
	return r.Ticks.Add(1)
}

// Snapshot copies every chain's stats in the order chains first reported, which is solve order
func (r *Registry) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, r.Chains.Len())
	r.Chains.Range(func(name string, s *ChainStats) {
		out = append(out, Snapshot{
			Chain:         name,
			Solves:        s.Solves.Load(),
			Converged:     s.Converged.Load(),
			Unreachable:   s.Unreachable.Load(),
			Iterations:    s.Iterations.Load(),
			Reaches:       s.Reaches.Load(),
			Reached:       s.Reached.Load(),
			Residual:      s.Residual.Load(),
			WorstResidual: s.WorstResidual.Load(),
			Elapsed:       time.Duration(s.Elapsed.Load()),
			State:         s.State.Load(),
		})
	})
	return out
}
