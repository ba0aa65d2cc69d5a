// Package graph holds the server-side node/edge data model (spec §3)
// and the identity table bridging string external IDs and compact
// numeric slots (spec §4.3).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graph

import "github.com/shaneholloman/logseq-spring-thing/wire"

const (
	FlagActive    uint8 = 1 << 0
	FlagConnected uint8 = 1 << 1
)

// Node is the server-side representation: everything in wire.Node
// plus mass/flags, which never cross the wire (spec §4.1's record
// layout carries only slot/position/velocity).
type Node struct {
	Slot  uint32
	Pos   wire.Vec3
	Vel   wire.Vec3
	Mass  uint8
	Flags uint8
}

func NewNode(slot uint32) Node {
	return Node{Slot: slot, Mass: 1, Flags: FlagActive}
}

func (n *Node) Active() bool    { return n.Flags&FlagActive != 0 }
func (n *Node) Connected() bool { return n.Flags&FlagConnected != 0 }

func (n *Node) SetActive(v bool)    { n.setFlag(FlagActive, v) }
func (n *Node) SetConnected(v bool) { n.setFlag(FlagConnected, v) }

func (n *Node) setFlag(f uint8, v bool) {
	if v {
		n.Flags |= f
	} else {
		n.Flags &^= f
	}
}

// Edge references slots only; external identifiers never appear on
// the wire or in the edge itself (spec §3).
type Edge struct {
	Source uint32
	Target uint32
	Weight float64
}

// SortedPair returns (lo, hi) for edge identity/dedup purposes: edge
// identity is the unordered pair.
func SortedPair(a, b uint32) (lo, hi uint32) {
	if a <= b {
		return a, b
	}
	return b, a
}
