// Package hub implements the broadcast fan-out of spec §4.8: maintain
// the READY session set, attempt a non-blocking enqueue to every
// session on each emitted snapshot, and isolate a slow session's
// backpressure to that session alone. Modeled on the teacher's
// transport/bundle.Streams.Send, which iterates a per-destination map
// and lets one destination's failure/backpressure not affect another's.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package hub

import (
	"sync"

	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
	"github.com/shaneholloman/logseq-spring-thing/session"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

// Hub owns the fleet of READY sessions and fans binary snapshots out
// to them. It never blocks on a slow client (spec §5).
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	onDrop func(sessionID string)
}

func New() *Hub { return &Hub{sessions: make(map[string]*session.Session)} }

// OnDrop lets the caller wire diagnostics (§7 QueueSaturated counter)
// without this package importing the metrics package directly. It
// fires once per session, when Broadcast finds that session has just
// reached its consecutive-drop threshold, not for each dropped snapshot.
// Session closure itself is reported once, regardless of cause,
// through session.Hooks.OnClosed rather than a second hub-level hook.
func (h *Hub) OnDrop(fn func(sessionID string)) { h.onDrop = fn }

// Join admits a session into the broadcast fleet; the caller is
// expected to have already driven it to READY.
func (h *Hub) Join(s *session.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Leave removes a session from the fleet without closing it — used
// when the session's own reader/writer loop has already torn it down.
func (h *Hub) Leave(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast encodes the snapshot once and enqueues it to every READY
// session independently; a saturated session only drops its own copy
// and, past the consecutive-drop threshold, is closed and evicted —
// it never slows or blocks delivery to anyone else (spec §4.8,
// invariant 7: broadcast fairness).
func (h *Hub) Broadcast(nodes []wire.Node) {
	frame := wire.Encode(nil, nodes)

	h.mu.RLock()
	targets := make([]*session.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var toEvict []string
	for _, s := range targets {
		before := s.Saturated()
		s.EnqueuePosition(frame)
		if !before && s.Saturated() {
			if h.onDrop != nil {
				h.onDrop(s.ID)
			}
			toEvict = append(toEvict, s.ID)
		}
	}
	for _, id := range toEvict {
		h.evict(id)
	}
}

// CloseAll drains and closes every joined session, for graceful
// process shutdown (spec §5).
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session.Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (h *Hub) evict(sessionID string) {
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	nlog.Infof("hub: closing session %s after sustained queue saturation", sessionID)
	s.Close()
}
