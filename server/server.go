// Package server streams solved poses to external renderers over websockets
//
// One tick goroutine owns the ik.Structure. Clients post targets, which are merged
// into a pending map and applied on the next tick; every tick broadcasts a Frame.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/metrics"
	"github.com/lixenwraith/fabrik/rig"
	"github.com/lixenwraith/fabrik/status"
	"github.com/lixenwraith/fabrik/vmath"
)

const (
	DefaultAddr       = ":8080"
	DefaultTickRate   = 30
	DefaultTargetRate = 60
	DefaultBurst      = 10
	DefaultSendBuffer = 16

	shutdownTimeout = 5 * time.Second
)

// Config tunes the server; zero fields take the defaults
type Config struct {
	Addr string
	// TickRate is solves per second
	TickRate int
	// TargetRate and Burst limit inbound target messages per connection
	TargetRate rate.Limit
	Burst      int
	// SendBuffer is the per-client frame queue; a full queue drops the client
	SendBuffer int
	Logger     *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.TargetRate <= 0 {
		c.TargetRate = DefaultTargetRate
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Frame is broadcast after every tick
type Frame struct {
	Tick uint64  `json:"tick"`
	Pose ik.Pose `json:"pose"`
}

// wireFrame carries a Frame whose pose is already encoded
type wireFrame struct {
	Tick uint64          `json:"tick"`
	Pose json.RawMessage `json:"pose"`
}

// TargetMessage is what clients send, over the websocket or POST /api/targets
// Clear drops targets so those chains hold their pose
type TargetMessage struct {
	Targets map[string][3]float64 `json:"targets"`
	Clear   []string              `json:"clear,omitempty"`
}

// ErrorMessage is sent back to a websocket client whose message was rejected
type ErrorMessage struct {
	Error string `json:"error"`
}

type Server struct {
	cfg       Config
	def       *rig.Definition
	rigJSON   []byte
	registry  *prometheus.Registry
	stats     *status.Registry
	upgrader  websocket.Upgrader
	structure *ik.Structure

	// stepMu serializes Step; structure and targets belong to its holder
	stepMu  sync.Mutex
	targets map[string]vmath.Vec3
	tick    uint64

	pendingMu sync.Mutex
	pending   map[string]vmath.Vec3
	cleared   map[string]bool

	frameMu sync.RWMutex
	frame   []byte
	pose    []byte

	clientsMu sync.Mutex
	clients   map[*client]struct{}
	closed    bool

	dropped atomic.Int64
}

// New builds the rig and solves its default targets once
func New(def *rig.Definition, cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	stats := status.NewRegistry()

	structure, err := def.Build(ik.WithObserver(ik.Observers(collector, stats)))
	if err != nil {
		return nil, fmt.Errorf("building rig: %w", err)
	}
	rigJSON, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encoding rig: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		def:       def,
		rigJSON:   rigJSON,
		registry:  reg,
		stats:     stats,
		structure: structure,
		targets:   def.TargetMap(),
		pending:   make(map[string]vmath.Vec3),
		cleared:   make(map[string]bool),
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.Step()
	return s, nil
}

// Handler routes the HTTP API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/pose", s.handlePose)
	mux.HandleFunc("GET /api/rig", s.handleRig)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/targets", s.handleTargets)
	mux.Handle("GET /metrics", metrics.Handler(s.registry))
	return mux
}

// Run listens on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the tick loop and serves HTTP on ln until ctx is done or serving fails
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Printf("fabrik server listening on %s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.cfg.Logger.Printf("HTTP server shutdown error: %v", err)
	}
	s.closeClients()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

func (s *Server) loop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step applies pending targets, solves once and broadcasts the frame
func (s *Server) Step() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	s.pendingMu.Lock()
	for name := range s.cleared {
		delete(s.targets, name)
	}
	for name, t := range s.pending {
		s.targets[name] = t
	}
	clear(s.pending)
	clear(s.cleared)
	s.pendingMu.Unlock()

	s.structure.Solve(s.targets)
	s.stats.Tick()
	s.tick++

	pose, err := json.Marshal(s.structure.Pose())
	if err != nil {
		s.cfg.Logger.Printf("encoding pose for frame %d: %v", s.tick, err)
		return
	}
	data, err := json.Marshal(wireFrame{Tick: s.tick, Pose: pose})
	if err != nil {
		s.cfg.Logger.Printf("encoding frame %d: %v", s.tick, err)
		return
	}

	s.frameMu.Lock()
	s.frame, s.pose = data, pose
	s.frameMu.Unlock()

	s.broadcast(data)
}

// Submit validates a message and queues it for the next tick
func (s *Server) Submit(msg TargetMessage) error {
	targets := make(map[string]vmath.Vec3, len(msg.Targets))
	for name, t := range msg.Targets {
		v := vmath.V3FromArray(t)
		if !vmath.V3IsFinite(v) {
			return fmt.Errorf("target for %q is not finite", name)
		}
		targets[name] = v
	}
	check := make(map[string]vmath.Vec3, len(targets)+len(msg.Clear))
	for name, v := range targets {
		check[name] = v
	}
	for _, name := range msg.Clear {
		check[name] = vmath.Vec3{}
	}
	if err := s.structure.CheckTargets(check); err != nil {
		return err
	}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	for _, name := range msg.Clear {
		delete(s.pending, name)
		s.cleared[name] = true
	}
	for name, v := range targets {
		delete(s.cleared, name)
		s.pending[name] = v
	}
	return nil
}

// Frame returns the latest encoded frame
func (s *Server) Frame() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.frame
}

// Stats exposes per-chain solve statistics
func (s *Server) Stats() *status.Registry {
	return s.stats
}

// Dropped counts inbound messages discarded by rate limiting
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Server) handlePose(w http.ResponseWriter, _ *http.Request) {
	s.frameMu.RLock()
	pose := s.pose
	s.frameMu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	w.Write(pose)
}

func (s *Server) handleRig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.rigJSON)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats.Snapshot())
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	var msg TargetMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&msg); err != nil {
		http.Error(w, "invalid target message: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Submit(msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
