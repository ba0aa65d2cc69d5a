// Package xframe implements the compression gate of spec §4.2:
// small frames travel raw, larger ones are deflate-compressed, and the
// receiver disambiguates by attempting decompression and validating
// the result rather than relying on an explicit flag. Modeled on the
// teacher's transport/sendmsg.go framing, whose compressed path is
// swapped from LZ4 to deflate per spec §4.2's "zlib-family deflate."
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package xframe

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/shaneholloman/logseq-spring-thing/wire"
)

// DefaultThreshold is the compressionThreshold default (bytes) of §6.4.
const DefaultThreshold = 1024

// Gate applies the threshold policy on encode and the
// decompress-then-validate-else-raw policy on decode.
type Gate struct {
	Threshold int
}

func NewGate(threshold int) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{Threshold: threshold}
}

// EncodeFrame returns body unchanged when len(body) <= Threshold
// (invariant 4: "byte-identical to the raw body"); otherwise it
// returns the deflate-compressed form. There is no explicit
// compression flag on the wire: the receiver figures it out in
// DecodeFrame.
func (g *Gate) EncodeFrame(body []byte) []byte {
	if len(body) <= g.Threshold {
		return body
	}
	var buf bytes.Buffer
	zw, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = zw.Write(body)
	_ = zw.Close()
	// Compression can lose to raw on already-dense small deltas; never
	// ship something larger than the input would have been.
	if buf.Len() >= len(body) {
		return body
	}
	return buf.Bytes()
}

// DecodeFrame tries to inflate raw; if that fails, or the inflated
// length isn't a multiple of the 28-byte record size, the input is
// assumed to already be an uncompressed (or malformed) frame and is
// returned untouched — the caller's wire.Decode will surface
// MalformedFrame for genuinely bad input.
func (g *Gate) DecodeFrame(raw []byte) []byte {
	zr := flate.NewReader(bytes.NewReader(raw))
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return raw
	}
	if len(out)%wire.RecordSize != 0 {
		return raw
	}
	return out
}
