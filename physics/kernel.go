// Package physics implements the force-directed kernel of spec §4.4:
// a parallel force accumulator over the node set with bounded velocity
// and position. Parallelism is sharded over the outer node index with
// golang.org/x/sync/errgroup, modeled on the teacher's
// transport/bundle.Streams.apply fan-out-and-join (one goroutine per
// shard, WaitGroup-style join — here an errgroup join; the workers
// themselves never return an error).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package physics

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/graph"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

// Kernel holds the validated, immutable-for-this-tick parameter set.
// A new Kernel is cheap to build, so callers swap it wholesale on a
// settings_update rather than mutating one in place.
type Kernel struct {
	p config.Physics
}

func New(p config.Physics) *Kernel { return &Kernel{p: p} }

func (k *Kernel) Params() config.Physics { return k.p }

// vec3 is the kernel's internal float64 working vector; wire records
// are float32, but force accumulation over hundreds of nodes benefits
// from the extra precision and costs nothing we can observe at 28
// bytes/record on the wire.
type vec3 struct{ x, y, z float64 }

func (a vec3) sub(b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) add(b vec3) vec3 { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) scale(s float64) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) len() float64 { return math.Sqrt(a.x*a.x + a.y*a.y + a.z*a.z) }

func (a vec3) normalized(length float64) vec3 {
	if length == 0 {
		return vec3{}
	}
	return a.scale(1 / length)
}

func fromWire(v wire.Vec3) vec3  { return vec3{float64(v.X), float64(v.Y), float64(v.Z)} }
func toWire(v vec3) wire.Vec3    { return wire.Vec3{X: float32(v.x), Y: float32(v.y), Z: float32(v.z)} }

// clampComp clamps each axis independently to ±limit, per spec §4.4
// step 4/5 "clamp component-wise."
func clampComp(v vec3, limit float64) vec3 {
	return vec3{clamp1(v.x, limit), clamp1(v.y, limit), clamp1(v.z, limit)}
}

func clamp1(v, limit float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// shard is a snapshot view the kernel reads; it never mutates nodes in
// place (spec §5: "reads a frozen snapshot...writes a new snapshot").
type shard struct {
	pos   []vec3
	vel   []vec3
	mass  []float64
	flags []uint8
}

func snapshotOf(nodes []*graph.Node) shard {
	s := shard{
		pos:   make([]vec3, len(nodes)),
		vel:   make([]vec3, len(nodes)),
		mass:  make([]float64, len(nodes)),
		flags: make([]uint8, len(nodes)),
	}
	for i, n := range nodes {
		s.pos[i] = fromWire(n.Pos)
		s.vel[i] = fromWire(n.Vel)
		s.mass[i] = float64(n.Mass)
		s.flags[i] = n.Flags
	}
	return s
}

func (s shard) active(i int) bool { return s.flags[i]&graph.FlagActive != 0 }
func (s shard) connected(i int) bool { return s.flags[i]&graph.FlagConnected != 0 }

// Step advances nodes by one tick in place: it reads a frozen
// snapshot of their current pos/vel, computes the next pos/vel in
// parallel, then writes the result back — the "swap is atomic at the
// tick boundary" of spec §5 is realized by the caller holding
// exclusive access to nodes for the duration of Step (the simulation
// task, per spec §5, never lets two ticks overlap).
func (k *Kernel) Step(nodes []*graph.Node) {
	if len(nodes) == 0 {
		return
	}
	before := snapshotOf(nodes)
	after := k.step(before)
	for i, n := range nodes {
		n.Pos = toWire(after.pos[i])
		n.Vel = toWire(after.vel[i])
	}
}

// StepScalar is the single-threaded reference implementation spec
// §4.4 requires tests to compare the parallel path against.
func (k *Kernel) StepScalar(nodes []*graph.Node) {
	if len(nodes) == 0 {
		return
	}
	before := snapshotOf(nodes)
	after := before.cloneShape()
	for i := range before.pos {
		k.integrate(before, after, i)
	}
	for i, n := range nodes {
		n.Pos = toWire(after.pos[i])
		n.Vel = toWire(after.vel[i])
	}
}

func (s shard) cloneShape() shard {
	return shard{
		pos:   make([]vec3, len(s.pos)),
		vel:   make([]vec3, len(s.vel)),
		mass:  s.mass,
		flags: s.flags,
	}
}

// step runs the parallel path: the node range is sharded across
// min(GOMAXPROCS, len(nodes)) workers, each owning a disjoint slice of
// output indices, so there is no shared mutable state between workers
// and visitation order within a shard cannot affect another shard's
// result (spec §4.4 "ordering...must not affect results beyond
// floating-point rounding").
func (k *Kernel) step(before shard) shard {
	after := before.cloneShape()
	n := len(before.pos)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		lo, hi := lo, hi
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				k.integrate(before, after, i)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return an error; kept for the errgroup idiom
	return after
}

// integrate computes node i's next position/velocity from the frozen
// `before` snapshot and writes it into `after`, implementing spec
// §4.4 steps 1-5 verbatim, including the literal "if both are flagged
// connected, add spring contribution" pairwise rule (not gated on an
// actual edge between i and j — spec §4.4 step 2 applies it to any
// pair of connected-flagged nodes).
func (k *Kernel) integrate(before, after shard, i int) {
	if !before.active(i) {
		after.pos[i] = before.pos[i]
		after.vel[i] = before.vel[i]
		return
	}

	var force vec3
	iConnected := before.connected(i)
	for j := range before.pos {
		if j == i || !before.active(j) {
			continue
		}
		d := before.pos[i].sub(before.pos[j])
		r := d.len()
		if r < k.p.CollisionRadius {
			r = k.p.CollisionRadius
		}
		dir := d.normalized(d.len())
		if d.len() == 0 {
			continue // coincident nodes exert no net directional force
		}
		repel := dir.scale(k.p.Repulsion * before.mass[i] * before.mass[j] / (r * r))
		force = force.add(repel)

		if iConnected && before.connected(j) {
			spring := dir.scale(-1).scale(k.p.Spring * (r - 1.0))
			force = force.add(spring)
		}
	}
	if iConnected {
		force = force.add(before.pos[i].scale(-k.p.Attraction))
	}

	vel := before.vel[i].add(force).scale(k.p.Damping)
	vel = clampComp(vel, k.p.MaxVelocity)
	pos := before.pos[i].add(vel)
	pos = clampComp(pos, k.p.BoundsSize*1000)

	after.vel[i] = sanitize(vel)
	after.pos[i] = sanitize(pos)
}

// sanitize replaces any residual non-finite component with zero, the
// "kernel never emits NaN" guarantee of spec §4.4/§8 invariant 6.
func sanitize(v vec3) vec3 {
	return vec3{zeroIfNonFinite(v.x), zeroIfNonFinite(v.y), zeroIfNonFinite(v.z)}
}

func zeroIfNonFinite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
