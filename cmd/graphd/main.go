// Command graphd is the process entrypoint: it wires the simulation
// loop, the broadcast hub, and the websocket transport together and
// serves them over HTTP, in the style of the teacher's cmd/authn
// (flag parsing, signal handling, fatal startup logging via
// cos.ExitLogf) and transport/collect.go's StreamCollector Run/Stop
// convention, which sim.Loop follows through cos.Runner.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaneholloman/logseq-spring-thing/cmn/cos"
	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/control"
	"github.com/shaneholloman/logseq-spring-thing/diag"
	"github.com/shaneholloman/logseq-spring-thing/graph"
	"github.com/shaneholloman/logseq-spring-thing/graphserr"
	"github.com/shaneholloman/logseq-spring-thing/hub"
	"github.com/shaneholloman/logseq-spring-thing/physics"
	"github.com/shaneholloman/logseq-spring-thing/session"
	"github.com/shaneholloman/logseq-spring-thing/sim"
	"github.com/shaneholloman/logseq-spring-thing/wire"
	"github.com/shaneholloman/logseq-spring-thing/wsconn"
)

// liveConfig holds the physics/sim parameters currently driving the
// simulation loop, mutated in place by settings_update (spec §6.3)
// under a mutex since concurrent sessions may each send one.
type liveConfig struct {
	mu      sync.Mutex
	physics config.Physics
	sim     config.Sim
}

var (
	configPath string
	listenAddr string
	seedNodes  int
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to JSON config file (defaults used if empty or missing)")
	flag.StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	flag.IntVar(&seedNodes, "seed-nodes", 64, "number of demo nodes to seed at startup (ingestion proper is a separate collaborator)")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		cos.ExitLogf("failed to load configuration from %q: %v", configPath, err)
	}

	set := graph.NewSet()
	identity := graph.NewIdentityTable()
	seedDemoGraph(set, identity, seedNodes)

	metrics := diag.New(prometheus.DefaultRegisterer)
	kernel := physics.New(cfg.Physics)
	h := hub.New()
	live := &liveConfig{physics: cfg.Physics, sim: cfg.Sim}

	loop := sim.NewLoop(cfg.Sim, kernel, set, func(nodes []wire.Node) {
		h.Broadcast(nodes)
	})
	loop.OnInvalidSlot(func(uint32) { metrics.InvalidSlotDrops.Inc() })

	h.OnDrop(func(string) { metrics.QueueSaturatedDrop.Inc() })

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWS(w, r, upgrader, cfg.Session, loop, h, metrics, live)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		handleHealthz(w, r, loop, h)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: listenAddr, Handler: mux}

	nlog.Infof("graphd: listening on %s (%d demo nodes seeded)", listenAddr, set.Len())

	errs := make(chan error, 2)
	go func() { errs <- loop.Run() }()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http: %w", err)
			return
		}
		errs <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		nlog.Infof("graphd: received %v, shutting down", sig)
	case err := <-errs:
		if err != nil {
			nlog.Errorln("graphd: fatal:", err)
		}
	}

	shutdown(srv, loop, h)
}

// shutdown stops the HTTP listener, then the sim task, then closes
// every joined session, per spec §5 ("shutting down the simulation
// task drains and closes all sessions").
func shutdown(srv *http.Server, loop *sim.Loop, h *hub.Hub) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)

	loop.Stop(nil)
	h.CloseAll()

	nlog.Infof("graphd: shutdown complete")
}

func handleWS(w http.ResponseWriter, r *http.Request, upgrader websocket.Upgrader, sessCfg config.Session, loop *sim.Loop, h *hub.Hub, metrics *diag.Metrics, live *liveConfig) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nlog.Warningln("graphd: websocket upgrade failed:", err)
		return
	}
	conn := wsconn.Wrap(ws)

	var s *session.Session
	var connected bool
	s = session.New(conn, sessCfg, session.Hooks{
		OnNudge: func(slot uint32, pos, vel wire.Vec3) {
			loop.Nudge(sim.Nudge{Slot: slot, Pos: pos, Vel: vel})
		},
		OnRequestInitialData: func(s *session.Session) {
			s.EnqueueControl(control.Loading("sending initial graph"))
			s.EnqueuePosition(wire.Encode(nil, loop.Snapshot()))
			s.EnqueueControl(control.UpdatesStarted(time.Now().UnixMilli()))
		},
		OnEnableRandomization: func(enabled bool) {
			if enabled {
				loop.Randomize()
			}
		},
		OnPauseSimulation: func(paused bool) {
			if paused {
				loop.Pause()
			} else {
				loop.Resume()
			}
		},
		OnApplyForces: loop.ApplyForcesNow,
		OnSettingsUpdate: func(category, setting string, value any) {
			applySettingsUpdate(s, loop, live, category, setting, value)
		},
		OnClamped: func(count int) { metrics.OutOfRangeClamps.Add(float64(count)) },
		OnMalformedFrame: func() {
			metrics.MalformedFrames.Inc()
		},
		OnClosed: func(s *session.Session) {
			h.Leave(s.ID)
			if connected {
				metrics.SessionsClosed.Inc()
				metrics.SessionsConnected.Dec()
			}
			nlog.Infof("session %s: closed", s.ID)
		},
	})

	if err := s.Open(time.Now().UnixMilli()); err != nil {
		nlog.Warningln("graphd: session open failed:", err)
		s.Close()
		return
	}
	connected = true
	metrics.SessionsConnected.Inc()
	h.Join(s)

	nlog.Infof("session %s: connected from %s", s.ID, r.RemoteAddr)

	go s.Writer()
	s.Reader()
}

func handleHealthz(w http.ResponseWriter, r *http.Request, loop *sim.Loop, h *hub.Hub) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sessions":%d,"state":%q}`+"\n", h.Len(), loop.State())
}

// applySettingsUpdate implements the §6.3 settings_update round-trip:
// map category/setting onto the matching config.Physics or config.Sim
// field, validate against the §4.4 ranges, and on success push the new
// value into the live simulation loop and echo it back as the
// authoritative settings message; on failure leave live unchanged and
// surface validation_failed instead. No dynamic/partial config object
// is used: every recognised setting is named explicitly below.
func applySettingsUpdate(s *session.Session, loop *sim.Loop, live *liveConfig, category, setting string, value any) {
	live.mu.Lock()
	defer live.mu.Unlock()

	switch category {
	case "physics":
		p := live.physics
		if !applyPhysicsSetting(&p, setting, value) {
			nlog.Warningf("session %s: settings_update unknown physics setting %q", s.ID, setting)
			return
		}
		if err := p.Validate(); err != nil {
			rejectSettingsUpdate(s, category, setting, err)
			return
		}
		live.physics = p
		loop.SetPhysics(p)
		s.EnqueueControl(control.Settings(category, setting, value))
	case "sim":
		simCfg := live.sim
		if !applySimSetting(&simCfg, setting, value) {
			nlog.Warningf("session %s: settings_update unknown sim setting %q", s.ID, setting)
			return
		}
		if err := simCfg.Validate(); err != nil {
			rejectSettingsUpdate(s, category, setting, err)
			return
		}
		live.sim = simCfg
		loop.SetSim(simCfg)
		s.EnqueueControl(control.Settings(category, setting, value))
	default:
		nlog.Warningf("session %s: settings_update unknown category %q", s.ID, category)
	}
}

func rejectSettingsUpdate(s *session.Session, category, setting string, err error) {
	nlog.Warningln("session", s.ID, graphserr.Wrap(err, "settings_update rejected"))
	ve, ok := err.(*graphserr.ErrValidationFailed)
	if !ok || !graphserr.IsValidationFailed(err) {
		return
	}
	s.EnqueueControl(control.ValidationFailed(category, setting, ve.Value, ve.Min, ve.Max))
}

func applyPhysicsSetting(p *config.Physics, setting string, value any) bool {
	f, ok := asFloat(value)
	if !ok {
		return false
	}
	switch setting {
	case "attraction":
		p.Attraction = f
	case "repulsion":
		p.Repulsion = f
	case "spring":
		p.Spring = f
	case "damping":
		p.Damping = f
	case "max_velocity":
		p.MaxVelocity = f
	case "collision_radius":
		p.CollisionRadius = f
	case "bounds_size":
		p.BoundsSize = f
	case "iterations":
		p.Iterations = int(f)
	default:
		return false
	}
	return true
}

func applySimSetting(s *config.Sim, setting string, value any) bool {
	f, ok := asFloat(value)
	if !ok {
		return false
	}
	switch setting {
	case "update_rate":
		s.UpdateRateHz = f
	case "bounds_size":
		s.BoundsSize = f
	case "collision_radius":
		s.CollisionRadius = f
	case "randomize_radius":
		s.RandomizeRadius = f
	case "randomize_ack_seconds":
		s.RandomizeAckSecs = f
	default:
		return false
	}
	return true
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// seedDemoGraph populates a small connected random graph so the
// service is exercisable standalone; real ingestion/content loading
// is a separate collaborator per spec §6.5 and is out of scope here.
func seedDemoGraph(set *graph.Set, identity *graph.IdentityTable, n int) {
	if n <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		slot := identity.Intern(fmt.Sprintf("demo-node-%d", i))
		node := graph.NewNode(slot)
		node.Pos = wire.Vec3{
			X: float32(rng.Float64()*4 - 2),
			Y: float32(rng.Float64()*4 - 2),
			Z: float32(rng.Float64()*4 - 2),
		}
		set.AddNode(node)
	}
	for i := 1; i < n; i++ {
		set.AddEdge(graph.Edge{Source: uint32(i - 1), Target: uint32(i), Weight: 1})
	}
	set.MarkConnected()
}
