package ik

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lixenwraith/fabrik/vmath"
)

// Point selects which end of a host bone a connected chain attaches to
type Point uint8

const (
	PointStart Point = iota
	PointEnd
)

func (p Point) String() string {
	if p == PointStart {
		return "start"
	}
	return "end"
}

// ParsePoint maps "start" or "end" to a Point
func ParsePoint(s string) (Point, error) {
	switch s {
	case "start":
		return PointStart, nil
	case "end":
		return PointEnd, nil
	}
	return 0, fmt.Errorf("unknown connection point %q", s)
}

// Connection anchors a chain to a bone of another chain
type Connection struct {
	Host  string
	Bone  int
	Point Point
}

// link is a Connection resolved to chain indices
type link struct {
	host  int
	bone  int
	point Point
}

// Builder collects chain definitions; Build validates topology and fixes the solve order
type Builder struct {
	configs []ChainConfig
	conns   []*Connection
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddChain registers a chain anchored at its own Base
func (b *Builder) AddChain(cfg ChainConfig) *Builder {
	b.configs = append(b.configs, cfg)
	b.conns = append(b.conns, nil)
	return b
}

// AddConnectedChain registers a chain whose base tracks a point on a host chain
// The host may be registered before or after the chain
func (b *Builder) AddConnectedChain(cfg ChainConfig, conn Connection) *Builder {
	b.configs = append(b.configs, cfg)
	b.conns = append(b.conns, &conn)
	return b
}

// Option configures a Structure at build time
type Option func(*Structure)

// WithObserver adds an observer; repeated options fan out to all of them
func WithObserver(o Observer) Option {
	return func(s *Structure) {
		s.observer = Observers(s.observer, o)
	}
}

// Build constructs every chain and rejects invalid topology
func (b *Builder) Build(opts ...Option) (*Structure, error) {
	if len(b.configs) == 0 {
		return nil, ErrNoChains
	}

	s := &Structure{
		chains:  make([]*Chain, len(b.configs)),
		names:   make([]string, len(b.configs)),
		index:   make(map[string]int, len(b.configs)),
		links:   make([]*link, len(b.configs)),
		conns:   make([]*Connection, len(b.configs)),
		results: make([]SolveResult, len(b.configs)),
	}

	for i, cfg := range b.configs {
		if _, dup := s.index[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateChain, cfg.Name)
		}
		c, err := NewChain(cfg)
		if err != nil {
			return nil, err
		}
		s.chains[i] = c
		s.names[i] = cfg.Name
		s.index[cfg.Name] = i
	}

	hosts := make([]int, len(b.configs))
	for i, conn := range b.conns {
		hosts[i] = -1
		if conn == nil {
			continue
		}
		h, ok := s.index[conn.Host]
		if !ok {
			return nil, fmt.Errorf("chain %q: %w %q%s", s.names[i], ErrUnknownChain, conn.Host, Suggest(conn.Host, s.names))
		}
		if h != i && (conn.Bone < 0 || conn.Bone >= s.chains[h].Len()) {
			return nil, fmt.Errorf("chain %q: %w: host %q has %d bones, got %d",
				s.names[i], ErrBoneIndex, conn.Host, s.chains[h].Len(), conn.Bone)
		}
		if conn.Point != PointStart && conn.Point != PointEnd {
			return nil, fmt.Errorf("chain %q: unknown connection point %d", s.names[i], conn.Point)
		}
		hosts[i] = h
		c := *conn
		s.conns[i] = &c
		s.links[i] = &link{host: h, bone: conn.Bone, point: conn.Point}
		s.chains[i].hosted = true
	}

	order, err := solveOrder(s.names, hosts)
	if err != nil {
		return nil, err
	}
	s.order = order

	for _, opt := range opts {
		opt(s)
	}

	// Connected chains start on their host so the first tick does not jump
	for _, i := range s.order {
		if l := s.links[i]; l != nil {
			s.chains[i].SetFrame(s.hostFrame(l))
			s.chains[i].Follow(s.anchor(i))
		}
	}

	return s, nil
}

// Structure is a set of chains solved in dependency order
// It is not safe for concurrent use
type Structure struct {
	chains   []*Chain
	names    []string
	index    map[string]int
	links    []*link
	conns    []*Connection
	order    []int
	results  []SolveResult
	observer Observer
}

// Solve runs one tick: every chain with a target is solved, the rest follow their anchors
// Missing targets are not errors; unknown names are ignored, see CheckTargets
func (s *Structure) Solve(targets map[string]vmath.Vec3) {
	for _, i := range s.order {
		c := s.chains[i]
		if l := s.links[i]; l != nil {
			c.SetFrame(s.hostFrame(l))
		}
		anchor := s.anchor(i)

		target, ok := targets[c.name]
		if !ok {
			s.results[i] = c.Follow(anchor)
			continue
		}

		r := c.Solve(anchor, target)
		s.results[i] = r
		if s.observer != nil {
			s.observer.ChainSolved(c.name, r)
		}
	}
}

// anchor is the origin of a free chain or the live host point of a connected one
func (s *Structure) anchor(i int) vmath.Vec3 {
	l := s.links[i]
	if l == nil {
		return s.chains[i].origin
	}
	hb := s.chains[l.host].bones[l.bone]
	if l.point == PointStart {
		return hb.start
	}
	return hb.end
}

func (s *Structure) hostFrame(l *link) vmath.Frame {
	return vmath.FrameAlong(s.chains[l.host].bones[l.bone].dir)
}

// CheckTargets reports target names that match no chain
// It reads only build-time state and may run alongside Solve
func (s *Structure) CheckTargets(targets map[string]vmath.Vec3) error {
	names := make([]string, 0, len(targets))
	for name := range targets {
		if _, ok := s.index[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		errs = append(errs, fmt.Errorf("target %q: %w%s", name, ErrUnknownChain, Suggest(name, s.names)))
	}
	return errors.Join(errs...)
}

// Chain returns the named chain, or nil
func (s *Structure) Chain(name string) *Chain {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return s.chains[i]
}

// Chains returns chains in registration order
func (s *Structure) Chains() []*Chain {
	out := make([]*Chain, len(s.chains))
	copy(out, s.chains)
	return out
}

// Names returns chain names in registration order
func (s *Structure) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Order returns chain names in solve order
func (s *Structure) Order() []string {
	out := make([]string, len(s.order))
	for k, i := range s.order {
		out[k] = s.names[i]
	}
	return out
}

// Connection returns the connection of a chain, if it has one
func (s *Structure) Connection(name string) (Connection, bool) {
	i, ok := s.index[name]
	if !ok || s.conns[i] == nil {
		return Connection{}, false
	}
	return *s.conns[i], true
}

// Results returns the latest result per chain name
func (s *Structure) Results() map[string]SolveResult {
	out := make(map[string]SolveResult, len(s.chains))
	for i, r := range s.results {
		out[s.names[i]] = r
	}
	return out
}

// Residual returns the named chain's end-effector distance to its last target
func (s *Structure) Residual(name string) (float64, error) {
	c := s.Chain(name)
	if c == nil {
		return 0, fmt.Errorf("%w %q%s", ErrUnknownChain, name, Suggest(name, s.names))
	}
	return c.Residual(), nil
}
