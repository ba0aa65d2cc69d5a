// Package sim implements the fixed-step simulation loop of spec §4.5:
// a single goroutine that owns the graph state exclusively, consuming
// commands and nudges off channels and applying them at tick
// boundaries. Modeled on the teacher's transport.collector.run select
// loop (ticker + control channel + stop channel, cos.Runner
// interface).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package sim

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/shaneholloman/logseq-spring-thing/cmn/cos"
	"github.com/shaneholloman/logseq-spring-thing/cmn/debug"
	"github.com/shaneholloman/logseq-spring-thing/cmn/mono"
	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/graph"
	"github.com/shaneholloman/logseq-spring-thing/graphserr"
	"github.com/shaneholloman/logseq-spring-thing/physics"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

type State int

const (
	Paused State = iota
	Running
	Randomizing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Randomizing:
		return "randomizing"
	default:
		return "unknown"
	}
}

// Nudge is a single user-originated position/velocity update, decoded
// per §4.1 and handed to the simulation for the next tick (§4.7).
type Nudge struct {
	Slot uint32
	Pos  wire.Vec3
	Vel  wire.Vec3
}

type command struct {
	kind    cmdKind
	physics *config.Physics
	simCfg  *config.Sim
}

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdRandomize
	cmdSetPhysics
	cmdSetSim
)

// Loop is the single authoritative owner of the graph's node set; no
// other goroutine may touch it. Every field below is read and written
// exclusively from the Run goroutine.
type Loop struct {
	cfg    config.Sim
	kernel *physics.Kernel
	set    *graph.Set

	// state is read from the /healthz HTTP goroutine and written only
	// from Run, so unlike every other field here it is not confined to
	// the owning goroutine and must stay atomic rather than plain.
	state atomic.Int32

	nudgeCh    chan Nudge
	cmdCh      chan command
	forceCh    chan struct{}
	snapshotCh chan chan []wire.Node
	stopCh     *cos.StopCh

	// ignoreUntil holds, per slot, the mono.NanoTime() deadline before
	// which inbound nudges for a freshly-randomized slot are dropped
	// (spec §4.5 randomization acknowledgement window, scenario S6).
	ignoreUntil map[uint32]int64

	onSnapshot    func([]wire.Node)
	onInvalidSlot func(slot uint32)
	rng           *rand.Rand
}

// interface guard
var _ cos.Runner = (*Loop)(nil)

func NewLoop(cfg config.Sim, kernel *physics.Kernel, set *graph.Set, onSnapshot func([]wire.Node)) *Loop {
	l := &Loop{
		cfg:         cfg,
		kernel:      kernel,
		set:         set,
		nudgeCh:     make(chan Nudge, 256),
		cmdCh:       make(chan command, 16),
		forceCh:     make(chan struct{}, 1),
		snapshotCh:  make(chan chan []wire.Node),
		stopCh:      cos.NewStopCh(),
		ignoreUntil: make(map[uint32]int64),
		onSnapshot:  onSnapshot,
		rng:         rand.New(rand.NewSource(1)),
	}
	l.state.Store(int32(Running))
	return l
}

func (l *Loop) Name() string { return "sim" }

// OnInvalidSlot wires the §7 InvalidSlot diagnostic counter; nil is a
// no-op.
func (l *Loop) OnInvalidSlot(fn func(slot uint32)) { l.onInvalidSlot = fn }

// Nudge enqueues a user-originated update; it never blocks the caller
// for long (the channel is generously buffered) but applies backpressure
// rather than silently drop, since loss here is a protocol-visible
// nudge, not a best-effort snapshot.
func (l *Loop) Nudge(n Nudge) { l.nudgeCh <- n }

func (l *Loop) Pause()                      { l.cmdCh <- command{kind: cmdPause} }
func (l *Loop) Resume()                     { l.cmdCh <- command{kind: cmdResume} }
func (l *Loop) Randomize()                  { l.cmdCh <- command{kind: cmdRandomize} }
func (l *Loop) SetPhysics(p config.Physics) { l.cmdCh <- command{kind: cmdSetPhysics, physics: &p} }
func (l *Loop) SetSim(s config.Sim)         { l.cmdCh <- command{kind: cmdSetSim, simCfg: &s} }

// ApplyForcesNow requests one extra tick ahead of the regular ticker
// schedule (spec §9 second open question: applyForces schedules one
// extra tick rather than changing the steady-state rate). The request
// channel is buffered to exactly one slot so repeated calls before the
// loop catches up coalesce into a single extra tick instead of
// queueing one per call.
func (l *Loop) ApplyForcesNow() {
	select {
	case l.forceCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current node positions/velocities. It round-trips
// through the owning goroutine via snapshotCh rather than touching
// l.set directly, preserving the single-owner invariant of spec §5
// ("no other goroutine may touch the graph").
func (l *Loop) Snapshot() []wire.Node {
	reply := make(chan []wire.Node, 1)
	l.snapshotCh <- reply
	return <-reply
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) Run() error {
	nlog.Infof("sim: starting at %.1f Hz", l.cfg.UpdateRateHz)
	period := time.Duration(float64(time.Second) / l.cfg.UpdateRateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case n := <-l.nudgeCh:
			l.applyNudge(n)

		case c := <-l.cmdCh:
			l.applyCommand(c, &ticker, &period)

		case <-l.forceCh:
			l.tick()

		case reply := <-l.snapshotCh:
			reply <- l.set.Snapshot()

		case <-ticker.C:
			l.tick()

		case <-l.stopCh.Listen():
			nlog.Infof("sim: stopping")
			return nil
		}
	}
}

func (l *Loop) Stop(err error) {
	nlog.Infof("sim: stop requested, err: %v", err)
	l.stopCh.Close()
}

func (l *Loop) applyCommand(c command, ticker **time.Ticker, period *time.Duration) {
	switch c.kind {
	case cmdPause:
		l.state.Store(int32(Paused))
	case cmdResume:
		l.state.Store(int32(Running))
	case cmdRandomize:
		l.randomize()
	case cmdSetPhysics:
		debug.Assert(c.physics != nil)
		l.kernel = physics.New(*c.physics)
	case cmdSetSim:
		debug.Assert(c.simCfg != nil)
		l.cfg = *c.simCfg
		(*ticker).Stop()
		*period = time.Duration(float64(time.Second) / l.cfg.UpdateRateHz)
		*ticker = time.NewTicker(*period)
	}
}

// randomize reseeds every active node to a uniformly distributed point
// inside a sphere of the configured radius, per spec §4.5, and opens an
// acknowledgement window during which nudges to those slots are dropped
// and physics is held; tick moves the loop back to Running once the
// window has passed.
func (l *Loop) randomize() {
	deadline := mono.NanoTime() + int64(l.cfg.RandomizeAckSecs*float64(time.Second))
	for _, n := range l.set.Nodes() {
		if !n.Active() {
			continue
		}
		n.Pos = l.randomPointInSphere(l.cfg.RandomizeRadius)
		n.Vel = wire.Vec3{}
		l.ignoreUntil[n.Slot] = deadline
	}
	l.state.Store(int32(Randomizing))
}

// randomPointInSphere draws a uniform point in a solid sphere of the
// given radius via rejection-free inverse-cube-root radial scaling.
func (l *Loop) randomPointInSphere(radius float64) wire.Vec3 {
	u := l.rng.Float64()
	r := radius * math.Cbrt(u)
	theta := l.rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*l.rng.Float64() - 1)
	x := r * math.Sin(phi) * math.Cos(theta)
	y := r * math.Sin(phi) * math.Sin(theta)
	z := r * math.Cos(phi)
	return wire.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
}

func (l *Loop) applyNudge(n Nudge) {
	if until, ok := l.ignoreUntil[n.Slot]; ok {
		if mono.NanoTime() < until {
			nlog.Warningln("sim: dropping nudge for slot", n.Slot, "inside randomization window")
			return
		}
		delete(l.ignoreUntil, n.Slot)
	}
	node, ok := l.set.Node(n.Slot)
	if !ok {
		nlog.Warningln("sim:", graphserr.NewErrInvalidSlot(n.Slot))
		if l.onInvalidSlot != nil {
			l.onInvalidSlot(n.Slot)
		}
		return
	}
	node.Pos = n.Pos
	node.Vel = n.Vel
}

func (l *Loop) tick() {
	switch State(l.state.Load()) {
	case Paused:
		return
	case Randomizing:
		now := mono.NanoTime()
		for _, until := range l.ignoreUntil {
			if now < until {
				return
			}
		}
		l.state.Store(int32(Running))
	}
	nodes := l.set.Nodes()
	l.kernel.Step(nodes)
	if l.onSnapshot != nil {
		l.onSnapshot(l.set.Snapshot())
	}
}
