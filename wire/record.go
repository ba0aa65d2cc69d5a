// Package wire implements the 28-byte node record codec: the compact
// binary position/velocity protocol of spec §4.1. Layout and offsets
// are modeled on the teacher's fixed binary header in
// transport/pdu.go and transport/api.go (ObjHdr/Obj sizeof-based
// framing), generalized from an HTTP PDU header to a wire record.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"encoding/binary"
	"math"

	"github.com/shaneholloman/logseq-spring-thing/graphserr"
)

// RecordSize is the fixed on-wire size of a single node record.
const RecordSize = 28

// Invariant bounds from spec §3.
const (
	PosLimit = 1000.0
	VelLimit = 0.05
)

// Vec3 is a 3-component float32 vector (position or velocity).
type Vec3 struct {
	X, Y, Z float32
}

// Node is the decoded form of a single 28-byte record: slot identity,
// position, and velocity. It carries no mass/flags — those live only
// in the server-side graph.Node; the wire record is position/velocity
// only, per spec §4.1's field table.
type Node struct {
	Slot uint32
	Pos  Vec3
	Vel  Vec3
}

// ClampReport tells the caller whether decoding had to coerce a
// non-finite value to zero or clamp an out-of-range value, per spec
// §4.1 "Decoder must report whether any clamping occurred so callers
// may log."
type ClampReport struct {
	Clamped bool
	Count   int
}

func (c *ClampReport) mark() {
	c.Clamped = true
	c.Count++
}

// Encode appends the canonical 28-byte encoding of nodes to dst and
// returns the result. Encoding is canonical: the same Node slice
// always yields the same bytes (field order and endianness are fixed),
// satisfying the "no two different byte strings decode to the same
// node sequence" invariant jointly with Decode's clamping being
// idempotent on already-clamped input.
func Encode(dst []byte, nodes []Node) []byte {
	out := dst
	if cap(out)-len(out) < len(nodes)*RecordSize {
		grown := make([]byte, len(out), len(out)+len(nodes)*RecordSize)
		copy(grown, out)
		out = grown
	}
	var rec [RecordSize]byte
	for i := range nodes {
		encodeOne(&rec, &nodes[i])
		out = append(out, rec[:]...)
	}
	return out
}

func encodeOne(rec *[RecordSize]byte, n *Node) {
	binary.LittleEndian.PutUint32(rec[0:4], n.Slot)
	binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(n.Pos.X))
	binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(n.Pos.Y))
	binary.LittleEndian.PutUint32(rec[12:16], math.Float32bits(n.Pos.Z))
	binary.LittleEndian.PutUint32(rec[16:20], math.Float32bits(n.Vel.X))
	binary.LittleEndian.PutUint32(rec[20:24], math.Float32bits(n.Vel.Y))
	binary.LittleEndian.PutUint32(rec[24:28], math.Float32bits(n.Vel.Z))
}

// Decode parses a binary frame into node records. length mod 28 != 0
// is a MalformedFrame per spec §4.1; there is no partial decode on
// failure (S2).
func Decode(frame []byte) ([]Node, ClampReport, error) {
	if len(frame)%RecordSize != 0 {
		return nil, ClampReport{}, graphserr.NewErrMalformedFrame(len(frame))
	}
	n := len(frame) / RecordSize
	nodes := make([]Node, n)
	var rpt ClampReport
	for i := 0; i < n; i++ {
		off := i * RecordSize
		decodeOne(frame[off:off+RecordSize], &nodes[i], &rpt)
	}
	return nodes, rpt, nil
}

func decodeOne(rec []byte, n *Node, rpt *ClampReport) {
	n.Slot = binary.LittleEndian.Uint32(rec[0:4])
	n.Pos.X = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])), PosLimit, rpt)
	n.Pos.Y = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12])), PosLimit, rpt)
	n.Pos.Z = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[12:16])), PosLimit, rpt)
	n.Vel.X = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[16:20])), VelLimit, rpt)
	n.Vel.Y = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[20:24])), VelLimit, rpt)
	n.Vel.Z = coerce(math.Float32frombits(binary.LittleEndian.Uint32(rec[24:28])), VelLimit, rpt)
}

// coerce replaces non-finite values with 0 and clamps finite values to
// ±limit, recording whether either adjustment fired.
func coerce(v float32, limit float64, rpt *ClampReport) float32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		rpt.mark()
		return 0
	}
	if f > limit {
		rpt.mark()
		return float32(limit)
	}
	if f < -limit {
		rpt.mark()
		return float32(-limit)
	}
	return v
}

func clampPos(v float32) float32 { return clampFinite(v, PosLimit) }
func clampVel(v float32) float32 { return clampFinite(v, VelLimit) }

func clampFinite(v float32, limit float64) float32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > limit {
		return float32(limit)
	}
	if f < -limit {
		return float32(-limit)
	}
	return v
}
