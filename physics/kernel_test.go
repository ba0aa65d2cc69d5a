/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/graph"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

func connectedNode(slot uint32, x, y, z float32) *graph.Node {
	n := graph.NewNode(slot)
	n.SetConnected(true)
	n.Pos = wire.Vec3{X: x, Y: y, Z: z}
	return &n
}

// S5 — two connected nodes, zero velocity, default parameters: after
// one tick they move closer together and their velocities have
// opposite signs with magnitude at most max_velocity.
func TestTwoConnectedNodesConverge(t *testing.T) {
	p := config.DefaultPhysics()
	k := New(p)

	a := connectedNode(1, 1, 0, 0)
	b := connectedNode(2, -1, 0, 0)
	nodes := []*graph.Node{a, b}

	before := math.Abs(float64(a.Pos.X) - float64(b.Pos.X))
	k.Step(nodes)
	after := math.Abs(float64(a.Pos.X) - float64(b.Pos.X))

	if after >= before {
		t.Fatalf("expected nodes to move closer: before=%v after=%v", before, after)
	}
	if math.Signbit(float64(a.Vel.X)) == math.Signbit(float64(b.Vel.X)) && a.Vel.X != 0 {
		t.Fatalf("expected opposite-sign velocities, got %v and %v", a.Vel.X, b.Vel.X)
	}
	if math.Abs(float64(a.Vel.X)) > p.MaxVelocity+1e-9 || math.Abs(float64(b.Vel.X)) > p.MaxVelocity+1e-9 {
		t.Fatalf("velocity exceeds max_velocity: %v %v (max %v)", a.Vel.X, b.Vel.X, p.MaxVelocity)
	}
}

// Invariant 6: the kernel never emits a non-finite value, even when
// fed pathological (coincident, extreme) input.
func TestKernelNeverEmitsNonFinite(t *testing.T) {
	p := config.DefaultPhysics()
	k := New(p)

	rng := rand.New(rand.NewSource(1))
	nodes := make([]*graph.Node, 64)
	for i := range nodes {
		n := graph.NewNode(uint32(i))
		n.SetConnected(i%2 == 0)
		// one node in eight starts coincident at the origin to exercise
		// the zero-distance branch.
		if i%8 == 0 {
			n.Pos = wire.Vec3{}
		} else {
			n.Pos = wire.Vec3{
				X: float32(rng.NormFloat64() * 500),
				Y: float32(rng.NormFloat64() * 500),
				Z: float32(rng.NormFloat64() * 500),
			}
		}
		nodes[i] = &n
	}

	for tick := 0; tick < 20; tick++ {
		k.Step(nodes)
		for _, n := range nodes {
			if !finite3(n.Pos) || !finite3(n.Vel) {
				t.Fatalf("tick %d: non-finite output on slot %d: pos=%+v vel=%+v", tick, n.Slot, n.Pos, n.Vel)
			}
		}
	}
}

func finite3(v wire.Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// The parallel path and the scalar reference implementation must
// agree within floating-point rounding, per spec §4.4.
func TestParallelAgreesWithScalar(t *testing.T) {
	p := config.DefaultPhysics()

	build := func() []*graph.Node {
		rng := rand.New(rand.NewSource(7))
		nodes := make([]*graph.Node, 40)
		for i := range nodes {
			n := graph.NewNode(uint32(i))
			n.SetConnected(i%3 == 0)
			n.Pos = wire.Vec3{
				X: float32(rng.NormFloat64() * 50),
				Y: float32(rng.NormFloat64() * 50),
				Z: float32(rng.NormFloat64() * 50),
			}
			nodes[i] = &n
		}
		return nodes
	}

	parallelNodes := build()
	scalarNodes := build()

	New(p).Step(parallelNodes)
	New(p).StepScalar(scalarNodes)

	const eps = 1e-5
	for i := range parallelNodes {
		if !closeVec(parallelNodes[i].Pos, scalarNodes[i].Pos, eps) {
			t.Fatalf("slot %d pos mismatch: parallel=%+v scalar=%+v", i, parallelNodes[i].Pos, scalarNodes[i].Pos)
		}
		if !closeVec(parallelNodes[i].Vel, scalarNodes[i].Vel, eps) {
			t.Fatalf("slot %d vel mismatch: parallel=%+v scalar=%+v", i, parallelNodes[i].Vel, scalarNodes[i].Vel)
		}
	}
}

func closeVec(a, b wire.Vec3, eps float64) bool {
	return math.Abs(float64(a.X-b.X)) < eps &&
		math.Abs(float64(a.Y-b.Y)) < eps &&
		math.Abs(float64(a.Z-b.Z)) < eps
}

// Inactive nodes are frozen: neither position nor velocity changes.
func TestInactiveNodeIsFrozen(t *testing.T) {
	k := New(config.DefaultPhysics())
	n := graph.NewNode(1)
	n.SetActive(false)
	n.Pos = wire.Vec3{X: 3, Y: 4, Z: 5}
	n.Vel = wire.Vec3{X: 0.01, Y: 0, Z: 0}
	orig := n
	k.Step([]*graph.Node{&n})
	if n.Pos != orig.Pos || n.Vel != orig.Vel {
		t.Fatalf("expected inactive node unchanged, got pos=%+v vel=%+v", n.Pos, n.Vel)
	}
}
