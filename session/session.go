// Session implements the per-connection client session of spec §4.7:
// outbound framing/compression through a bounded, policy-driven queue,
// inbound nudge debounce/coalesce, inbound rate limiting, and
// control-message dispatch. Outbound writes are not rate-limited. Reader and writer run as independent goroutines connected
// only by the outbound queue and the state cell, per spec §5 ("no
// shared mutable state other than the queue and the connection-state
// cell"), modeled on the teacher's reader/writer split in
// transport/sendmsg.go.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaneholloman/logseq-spring-thing/cmn/cos"
	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/control"
	"github.com/shaneholloman/logseq-spring-thing/graphserr"
	"github.com/shaneholloman/logseq-spring-thing/wire"
	"github.com/shaneholloman/logseq-spring-thing/xframe"
)

const (
	debounceWindow    = 50 * time.Millisecond
	maxNudgesPerFrame = 2
	// dropCloseThreshold is the consecutive-saturated-enqueue count
	// after which a session is marked for graceful close (spec §4.8
	// names the concept without a number; 5 mirrors the session
	// reconnect attempt budget in §4.6).
	dropCloseThreshold = 5
)

type pendingNudge struct {
	pos, vel wire.Vec3
}

// Hooks wires a Session into the rest of the server: the simulation
// loop for nudges, and whatever owns randomize/pause/settings state
// for control messages. Any nil hook is a no-op.
type Hooks struct {
	OnNudge               func(slot uint32, pos, vel wire.Vec3)
	OnRequestInitialData  func(s *Session)
	OnEnableRandomization func(enabled bool)
	OnPauseSimulation     func(enabled bool)
	OnApplyForces         func()
	OnSettingsUpdate      func(category, setting string, value any)
	OnClamped             func(count int)
	OnMalformedFrame      func()
	// OnClosed fires exactly once, regardless of which path triggered
	// Close (remote disconnect, write failure, or hub eviction), so
	// callers can keep fleet-size bookkeeping exact without having to
	// reason about which caller won the race to close.
	OnClosed func(s *Session)
}

type Session struct {
	ID   string
	conn Conn
	sm   *StateMachine
	cfg  config.Session
	gate *xframe.Gate
	hook Hooks

	queue   *outboundQueue
	limiter *rate.Limiter
	stopCh  *cos.StopCh
	ctx     context.Context
	cancel  context.CancelFunc

	pendingMu sync.Mutex
	pending   map[uint32]pendingNudge

	consecutiveDrops atomic.Int64
	closeOnce        sync.Once
}

func New(conn Conn, cfg config.Session, hooks Hooks) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      cos.GenSessionID(),
		conn:    conn,
		sm:      NewStateMachine(),
		cfg:     cfg,
		gate:    xframe.NewGate(cfg.CompressionThreshold),
		hook:    hooks,
		queue:   newOutboundQueue(cfg.MaxQueueSize),
		limiter: rate.NewLimiter(rate.Every(time.Duration(cfg.MessageTimeWindowMS)*time.Millisecond/time.Duration(cfg.MessageRateLimit)), cfg.MessageRateLimit),
		stopCh:  cos.NewStopCh(),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint32]pendingNudge),
	}
	return s
}

func (s *Session) State() ConnState { return s.sm.State() }

// Open drives a freshly accepted transport through
// DISCONNECTED -> CONNECTING -> CONNECTED -> READY and enqueues the
// connection_established control message that permits binary traffic
// to begin (spec §4.6/§6.3). By the time a Session exists, the
// transport handshake has already succeeded, so the first two
// transitions are immediate.
func (s *Session) Open(tsUnixMilli int64) error {
	if err := s.sm.Connect(); err != nil {
		return err
	}
	if err := s.sm.Established(); err != nil {
		return err
	}
	if err := s.sm.Ready(); err != nil {
		return err
	}
	s.EnqueueControl(control.ConnectionEstablished(tsUnixMilli))
	return nil
}

// EnqueuePosition frames and (conditionally) compresses a binary
// snapshot for this session, applying the bounded-queue drop/replace
// policy of spec §4.7.
func (s *Session) EnqueuePosition(frame []byte) {
	encoded := s.gate.EncodeFrame(frame)
	dropped := s.queue.push(outboundItem{kind: kindPosition, msgType: BinaryMessage, payload: encoded})
	s.recordDrop(dropped)
}

// EnqueueControl queues a text control frame; control messages are
// never dropped in favor of newer ones, only in favor of capacity per
// the oldest-non-position-first policy.
func (s *Session) EnqueueControl(payload []byte) {
	dropped := s.queue.push(outboundItem{kind: kindControl, msgType: TextMessage, payload: payload})
	s.recordDrop(dropped)
}

func (s *Session) recordDrop(dropped bool) {
	if !dropped {
		s.consecutiveDrops.Store(0)
		return
	}
	n := s.consecutiveDrops.Add(1)
	nlog.Warningln("session", s.ID, graphserr.NewErrQueueSaturated(s.ID), "consecutive drops:", n)
}

// Saturated reports whether this session has exceeded the consecutive
// drop threshold and should be closed gracefully (spec §4.8).
func (s *Session) Saturated() bool {
	return s.consecutiveDrops.Load() >= dropCloseThreshold
}

// Close cancels the reader/writer tasks exactly once; pending outbound
// items are discarded (spec §5).
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.sm.Close()
		s.stopCh.Close()
		s.cancel()
		_ = s.conn.Close()
		if s.hook.OnClosed != nil {
			s.hook.OnClosed(s)
		}
	})
}

// Writer drains the outbound queue to the transport in order; it is
// the only goroutine that calls conn.WriteMessage.
func (s *Session) Writer() {
	for {
		for {
			item, ok := s.queue.pop()
			if !ok {
				break
			}
			if err := s.conn.WriteMessage(item.msgType, item.payload); err != nil {
				nlog.Warningln("session", s.ID, "write failed:", err)
				s.Close()
				return
			}
		}
		select {
		case <-s.queue.Listen():
		case <-s.stopCh.Listen():
			return
		}
	}
}

// Reader pumps inbound frames, decoding binary nudges and dispatching
// text control messages, until the transport fails or the session is
// closed. It also owns the 50ms debounce ticker for coalesced nudges.
func (s *Session) Reader() {
	ticker := time.NewTicker(debounceWindow)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readLoop()
	}()

	for {
		select {
		case <-ticker.C:
			s.flushPending()
		case <-s.stopCh.Listen():
			return
		case <-done:
			s.flushPending()
			s.Close()
			return
		}
	}
}

func (s *Session) readLoop() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			nlog.Infof("session %s: %v", s.ID, graphserr.NewErrTransportClosed(err.Error()))
			return
		}
		if !s.limiter.Allow() {
			// Over-budget inbound frames are delayed, not dropped. The
			// Wait blocks this goroutine; it is bound to the session's
			// context, which Close cancels, so it cannot stall forever.
			_ = s.limiter.Wait(s.ctx)
		}
		switch msgType {
		case BinaryMessage:
			s.handleBinary(data)
		case TextMessage:
			s.handleText(data)
		}
	}
}

func (s *Session) handleBinary(data []byte) {
	if s.sm.State() != Ready {
		return // binary traffic before READY is discarded, spec §4.6
	}
	frame := s.gate.DecodeFrame(data)
	nodes, rpt, err := wire.Decode(frame)
	if err != nil {
		werr := graphserr.Wrap(err, "session "+s.ID+": decoding binary frame")
		nlog.Warningln(werr)
		if graphserr.IsMalformedFrame(werr) && s.hook.OnMalformedFrame != nil {
			s.hook.OnMalformedFrame()
		}
		return
	}
	if rpt.Clamped {
		nlog.Warningln("session", s.ID, graphserr.NewErrOutOfRange("nudge", float64(rpt.Count)))
		if s.hook.OnClamped != nil {
			s.hook.OnClamped(rpt.Count)
		}
	}
	if len(nodes) > maxNudgesPerFrame {
		nlog.Warningf("session %s: nudge batch has %d records, keeping first %d", s.ID, len(nodes), maxNudgesPerFrame)
		nodes = nodes[:maxNudgesPerFrame]
	}
	s.pendingMu.Lock()
	for _, n := range nodes {
		s.pending[n.Slot] = pendingNudge{pos: n.Pos, vel: n.Vel}
	}
	s.pendingMu.Unlock()
}

func (s *Session) flushPending() {
	s.pendingMu.Lock()
	if len(s.pending) == 0 {
		s.pendingMu.Unlock()
		return
	}
	batch := s.pending
	s.pending = make(map[uint32]pendingNudge)
	s.pendingMu.Unlock()

	if s.hook.OnNudge == nil {
		return
	}
	for slot, n := range batch {
		s.hook.OnNudge(slot, n.pos, n.vel)
	}
}

func (s *Session) handleText(data []byte) {
	err := control.Dispatch(data, control.Handlers{
		OnRequestInitialData: func() {
			if s.hook.OnRequestInitialData != nil {
				s.hook.OnRequestInitialData(s)
			}
		},
		OnEnableRandomization: s.hook.OnEnableRandomization,
		OnPauseSimulation:     s.hook.OnPauseSimulation,
		OnApplyForces:         s.hook.OnApplyForces,
		OnSettingsUpdate:      s.hook.OnSettingsUpdate,
	})
	if err != nil {
		nlog.Warningln("session", s.ID, "malformed control message:", err)
	}
}
