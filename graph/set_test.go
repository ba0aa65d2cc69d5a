/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graph

import "testing"

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	s := NewSet()
	s.AddNode(NewNode(5))
	s.AddNode(NewNode(2))
	s.AddNode(NewNode(9))
	snap := s.Snapshot()
	if len(snap) != 3 || snap[0].Slot != 5 || snap[1].Slot != 2 || snap[2].Slot != 9 {
		t.Fatalf("unexpected snapshot order: %+v", snap)
	}
}

func TestEdgeDedupUnorderedPair(t *testing.T) {
	s := NewSet()
	s.AddEdge(Edge{Source: 3, Target: 7, Weight: 1})
	s.AddEdge(Edge{Source: 7, Target: 3, Weight: 2}) // same unordered pair, overwrites
	edges := s.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected dedup to 1 edge, got %d", len(edges))
	}
	if edges[0].Source != 3 || edges[0].Target != 7 {
		t.Fatalf("expected sorted pair (3,7), got (%d,%d)", edges[0].Source, edges[0].Target)
	}
}

func TestMarkConnectedFlagsEndpoints(t *testing.T) {
	s := NewSet()
	s.AddNode(NewNode(1))
	s.AddNode(NewNode(2))
	s.AddNode(NewNode(3)) // isolated
	s.AddEdge(Edge{Source: 1, Target: 2, Weight: 1})
	s.MarkConnected()
	n1, _ := s.Node(1)
	n2, _ := s.Node(2)
	n3, _ := s.Node(3)
	if !n1.Connected() || !n2.Connected() {
		t.Fatalf("expected edge endpoints to be flagged connected")
	}
	if n3.Connected() {
		t.Fatalf("expected isolated node to remain unconnected")
	}
}

func TestResetDestroysGraph(t *testing.T) {
	s := NewSet()
	s.AddNode(NewNode(1))
	s.AddEdge(Edge{Source: 1, Target: 1})
	s.Reset()
	if s.Len() != 0 || len(s.Edges()) != 0 {
		t.Fatalf("expected empty graph after reset")
	}
}
