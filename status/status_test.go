package status

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/vmath"
)

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	if f.Load() != 0 {
		t.Fatalf("Zero value should read 0, got %g", f.Load())
	}
	f.Store(1.75)
	if got := f.Max(1); got != 1.75 {
		t.Errorf("Max with smaller value returned %g", got)
	}
	if got := f.Max(math.NaN()); got != 1.75 {
		t.Errorf("Max with NaN returned %g", got)
	}
	if got := f.Max(3); got != 3 || f.Load() != 3 {
		t.Errorf("Max with larger value returned %g, stored %g", got, f.Load())
	}
}

func TestAtomicFloat_ConcurrentMax(t *testing.T) {
	var f AtomicFloat
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				f.Max(float64(base*1000 + j))
			}
		}(i)
	}
	wg.Wait()
	if f.Load() != 7999 {
		t.Errorf("Expected 7999, got %g", f.Load())
	}
}

func TestState(t *testing.T) {
	var a AtomicState
	if a.Load() != StateIdle {
		t.Fatalf("Zero value should be idle, got %v", a.Load())
	}

	tests := []struct {
		res     ik.SolveResult
		want    State
		name    string
		settled bool
	}{
		{ik.SolveResult{Iterations: 20}, StateSearching, "searching", false},
		{ik.SolveResult{Converged: true}, StateConverged, "converged", true},
		{ik.SolveResult{Unreachable: true}, StateUnreachable, "unreachable", false},
		{ik.SolveResult{Converged: true, Cached: true}, StateCached, "cached", true},
		{ik.SolveResult{Followed: true, Converged: true}, StateHolding, "holding", false},
	}
	for _, tt := range tests {
		got := StateOf(tt.res)
		if got != tt.want || got.String() != tt.name || got.Settled() != tt.settled {
			t.Errorf("StateOf(%+v) = %v settled=%v, want %s settled=%v", tt.res, got, got.Settled(), tt.name, tt.settled)
		}
		a.Store(got)
		if a.Load() != got {
			t.Errorf("AtomicState round trip lost %v", got)
		}

		text, _ := got.MarshalText()
		var back State
		if err := back.UnmarshalText(text); err != nil || back != got {
			t.Errorf("Text round trip of %v gave %v, %v", got, back, err)
		}
	}

	var bad State
	if err := bad.UnmarshalText([]byte("flying")); err == nil {
		t.Error("Expected error for unknown state")
	}
	if State(99).String() != "state(99)" {
		t.Errorf("Unexpected label %q", State(99).String())
	}
}

func TestMetricMap(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	b := m.Get("b")
	b.Store(2)
	if m.Get("b") != b {
		t.Error("Get should return the cached pointer")
	}
	if _, ok := m.Lookup("a"); ok {
		t.Error("Lookup should not create")
	}
	m.Get("a")

	var keys []string
	m.Range(func(k string, _ *AtomicFloat) { keys = append(keys, k) })
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" || m.Len() != 2 {
		t.Errorf("Expected registration order [b a], got %v", keys)
	}
}

func TestMetricMap_ConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Get("shared").Add(1)
			}
		}()
	}
	wg.Wait()
	if m.Len() != 1 || m.Get("shared").Load() != 800 {
		t.Errorf("Expected one key counting 800, got %d keys, %d", m.Len(), m.Get("shared").Load())
	}
}

func TestRegistry_ChainSolved(t *testing.T) {
	r := NewRegistry()
	steps := []struct {
		res   ik.SolveResult
		state State
	}{
		{ik.SolveResult{Residual: 0.5, Iterations: 20}, StateSearching},
		{ik.SolveResult{Residual: 0.004, Iterations: 3, Converged: true}, StateConverged},
		{ik.SolveResult{Residual: 0.004, Converged: true, Cached: true}, StateCached},
		{ik.SolveResult{Residual: 2, Iterations: 1, Unreachable: true}, StateUnreachable},
		{ik.SolveResult{Residual: 0.008, Iterations: 4, Converged: true}, StateConverged},
	}
	for i, st := range steps {
		r.ChainSolved("arm", st.res)
		if got := r.Chain("arm").State.Load(); got != st.state {
			t.Errorf("Step %d: state %v, want %v", i, got, st.state)
		}
	}

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Expected one chain, got %d", len(snap))
	}
	s := snap[0]
	if s.Chain != "arm" || s.Solves != 5 || s.Converged != 3 || s.Unreachable != 1 || s.Iterations != 28 {
		t.Errorf("Unexpected counters %+v", s)
	}
	// Converged twice from a non-converged state; the cached solve continues a reach
	if s.Reaches != 2 || !s.Reached {
		t.Errorf("Expected 2 reaches and reached, got %d %v", s.Reaches, s.Reached)
	}
	if s.Residual != 0.008 || s.WorstResidual != 0.008 {
		t.Errorf("Unexpected residuals %g %g", s.Residual, s.WorstResidual)
	}
}

func TestRegistry_AsObserver(t *testing.T) {
	r := NewRegistry()
	s, err := ik.NewBuilder().
		AddChain(ik.ChainConfig{Name: "arm", Bones: []ik.BoneConfig{
			{Direction: vmath.UnitY, Length: 1},
			{Direction: vmath.UnitY, Length: 1},
		}}).
		Build(ik.WithObserver(r))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	s.Solve(map[string]vmath.Vec3{"arm": {X: 1, Y: 1, Z: 0}})
	r.Tick()
	s.Solve(map[string]vmath.Vec3{"arm": {X: 5, Y: 5, Z: 0}})
	r.Tick()

	st := r.Chain("arm")
	if st.Solves.Load() != 2 || st.Unreachable.Load() != 1 || r.Ticks.Load() != 2 {
		t.Errorf("Unexpected stats solves=%d unreachable=%d ticks=%d", st.Solves.Load(), st.Unreachable.Load(), r.Ticks.Load())
	}
	if st.Reaches.Load() != 1 || st.Reached.Load() {
		t.Errorf("Expected one reach then a miss, got %d %v", st.Reaches.Load(), st.Reached.Load())
	}
}
