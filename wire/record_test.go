/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"math"
	"testing"

	"github.com/shaneholloman/logseq-spring-thing/graphserr"
)

// S1 — round-trip of a two-node frame.
func TestRoundTripTwoNodes(t *testing.T) {
	nodes := []Node{
		{Slot: 7, Pos: Vec3{1, 2, 3}, Vel: Vec3{0, 0, 0}},
		{Slot: 9, Pos: Vec3{-1, -2, -3}, Vel: Vec3{0.01, 0, 0}},
	}
	buf := Encode(nil, nodes)
	if len(buf) != 56 {
		t.Fatalf("expected 56 bytes, got %d", len(buf))
	}
	got, rpt, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rpt.Clamped {
		t.Fatalf("unexpected clamping report on well-formed input")
	}
	if len(got) != 2 || got[0] != nodes[0] || got[1] != nodes[1] {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, nodes)
	}
}

// S2 — malformed length.
func TestMalformedLength(t *testing.T) {
	_, _, err := Decode(make([]byte, 29))
	if err == nil || !graphserr.IsMalformedFrame(err) {
		t.Fatalf("expected MalformedFrame, got %v", err)
	}
}

func TestEmptyFrameIsLegalNoop(t *testing.T) {
	nodes, rpt, err := Decode(nil)
	if err != nil {
		t.Fatalf("empty frame should decode cleanly: %v", err)
	}
	if len(nodes) != 0 || rpt.Clamped {
		t.Fatalf("expected zero nodes, no clamping; got %+v %+v", nodes, rpt)
	}
}

// S3 — clamping.
func TestClamping(t *testing.T) {
	nodes := []Node{{
		Slot: 1,
		Pos:  Vec3{2000, float32(math.NaN()), float32(math.Inf(-1))},
		Vel:  Vec3{0.5, 0, 0},
	}}
	buf := Encode(nil, nodes)
	got, rpt, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rpt.Clamped {
		t.Fatalf("expected decoder to report clamping")
	}
	want := Node{Slot: 1, Pos: Vec3{1000, 0, -1000}, Vel: Vec3{0.05, 0, 0}}
	if got[0] != want {
		t.Fatalf("got %+v, want %+v", got[0], want)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	nodes := []Node{{Slot: 42, Pos: Vec3{1, 1, 1}, Vel: Vec3{0.01, 0.01, 0.01}}}
	a := Encode(nil, nodes)
	b := Encode(nil, nodes)
	if string(a) != string(b) {
		t.Fatalf("encoding is not canonical")
	}
}
