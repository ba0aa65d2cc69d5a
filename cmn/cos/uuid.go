// Package cos - session/node identifier generation.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// alphabet for generated IDs; mirrors the teacher's own uuidABC but
// this service has no k8s-proxy-ID length constraint to respect, so
// the alphabet is unconstrained ASCII-safe base62-ish.
const idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenShortID = 9

var (
	sid     *shortid.Shortid
	tie     atomic.Uint32
	sidOnce sync.Once
)

func initSID() {
	s, err := shortid.New(1, idABC, 1)
	if err != nil {
		panic(err)
	}
	sid = s
}

// GenSessionID returns a short, URL-safe, probabilistically unique
// session identifier. Generated once per websocket connection accept.
func GenSessionID() string {
	sidOnce.Do(initSID)
	id, err := sid.Generate()
	if err != nil {
		// pool exhaustion is effectively impossible at this QPS; fall
		// back to a tie-broken counter rather than ever erroring out.
		n := tie.Add(1)
		return "sess-" + strconv.FormatUint(uint64(n), 36)
	}
	return id
}

// HashEdgeKey hashes a sorted (lo, hi) slot pair into a single uint64
// used as graph.Set's edge de-duplication key (spec: "dedup
// keys sort the two slots").
func HashEdgeKey(lo, hi uint32) uint64 {
	var b [8]byte
	b[0] = byte(lo)
	b[1] = byte(lo >> 8)
	b[2] = byte(lo >> 16)
	b[3] = byte(lo >> 24)
	b[4] = byte(hi)
	b[5] = byte(hi >> 8)
	b[6] = byte(hi >> 16)
	b[7] = byte(hi >> 24)
	return xxhash.Checksum64(b[:])
}
