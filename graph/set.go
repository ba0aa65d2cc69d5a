// Node/edge set and snapshot extraction, modeled loosely on the
// teacher's object-set bookkeeping in transport/bundle (a map keyed by
// stable ID, iterated in insertion order via a parallel slice).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graph

import (
	"github.com/shaneholloman/logseq-spring-thing/cmn/cos"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

// Set owns the current generation's nodes and edges. It has no
// built-in concurrency control of its own: spec §5 makes the
// simulation task the sole mutator, so Set is deliberately a plain
// value type the simulation loop owns exclusively between ticks.
type Set struct {
	order []uint32          // insertion order, for snapshot ordering
	nodes map[uint32]*Node
	edges map[uint64]Edge // keyed by HashEdgeKey(sorted pair)
}

func NewSet() *Set {
	return &Set{
		nodes: make(map[uint32]*Node),
		edges: make(map[uint64]Edge),
	}
}

// AddNode inserts a node if its slot is new, preserving insertion
// order; re-adding an existing slot is a no-op (ingestion is
// append-only for the current generation per spec §4.3).
func (s *Set) AddNode(n Node) {
	if _, ok := s.nodes[n.Slot]; ok {
		return
	}
	cp := n
	s.nodes[n.Slot] = &cp
	s.order = append(s.order, n.Slot)
}

func (s *Set) Node(slot uint32) (*Node, bool) {
	n, ok := s.nodes[slot]
	return n, ok
}

func (s *Set) Len() int { return len(s.order) }

// Nodes returns the live node pointers in insertion order; callers
// must not retain pointers past the next Reset.
func (s *Set) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, slot := range s.order {
		if n, ok := s.nodes[slot]; ok {
			out = append(out, n)
		}
	}
	return out
}

// AddEdge dedups by the unordered (source, target) pair (spec §3).
func (s *Set) AddEdge(e Edge) {
	lo, hi := SortedPair(e.Source, e.Target)
	key := cos.HashEdgeKey(lo, hi)
	s.edges[key] = Edge{Source: lo, Target: hi, Weight: e.Weight}
}

func (s *Set) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out
}

// MarkConnected flags every node that participates in at least one
// edge, per spec §3's flags bit 1 ("connected-to-edges"), and §4.4's
// use of that flag for spring/centering forces.
func (s *Set) MarkConnected() {
	for _, e := range s.edges {
		if n, ok := s.nodes[e.Source]; ok {
			n.SetConnected(true)
		}
		if n, ok := s.nodes[e.Target]; ok {
			n.SetConnected(true)
		}
	}
}

// Reset destroys all nodes and edges (spec §3 lifecycle: "destroyed
// on graph reset").
func (s *Set) Reset() {
	s.order = nil
	s.nodes = make(map[uint32]*Node)
	s.edges = make(map[uint64]Edge)
}

// Snapshot extracts the ordered (slot, position, velocity) sequence
// of spec §3's "Graph snapshot".
func (s *Set) Snapshot() []wire.Node {
	out := make([]wire.Node, 0, len(s.order))
	for _, slot := range s.order {
		n, ok := s.nodes[slot]
		if !ok {
			continue
		}
		out = append(out, wire.Node{Slot: n.Slot, Pos: n.Pos, Vel: n.Vel})
	}
	return out
}
