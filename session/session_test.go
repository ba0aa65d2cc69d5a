/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaneholloman/logseq-spring-thing/config"
	"github.com/shaneholloman/logseq-spring-thing/wire"
)

// fakeConn is an in-memory stand-in for a *websocket.Conn: inbound is
// a scripted queue of messages, outbound is recorded for assertions.
type fakeConn struct {
	mu       sync.Mutex
	inbound  []inboundMsg
	outbound []outboundItem
	closed   bool
	readErr  error
}

type inboundMsg struct {
	msgType int
	data    []byte
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbound) == 0 {
		if f.readErr != nil {
			return 0, nil, f.readErr
		}
		return 0, nil, errors.New("fakeConn: no more messages")
	}
	m := f.inbound[0]
	f.inbound = f.inbound[1:]
	return m.msgType, m.data, nil
}

func (f *fakeConn) WriteMessage(msgType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.outbound = append(f.outbound, outboundItem{msgType: msgType, payload: cp})
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) outboundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outbound)
}

func TestOpenEnqueuesConnectionEstablished(t *testing.T) {
	conn := &fakeConn{}
	s := New(conn, config.DefaultSession(), Hooks{})
	if err := s.Open(1234); err != nil {
		t.Fatal(err)
	}
	if s.State() != Ready {
		t.Fatalf("expected ready, got %s", s.State())
	}
	go s.Writer()
	defer s.Close()

	deadline := time.After(time.Second)
	for conn.outboundCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for writer to flush connection_established")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestBinaryDiscardedBeforeReady(t *testing.T) {
	conn := &fakeConn{}
	var gotNudge bool
	s := New(conn, config.DefaultSession(), Hooks{OnNudge: func(uint32, wire.Vec3, wire.Vec3) { gotNudge = true }})
	// not opened: still DISCONNECTED
	s.handleBinary(encodeOneNode(t, 1, wire.Vec3{X: 1}))
	s.flushPending()
	if gotNudge {
		t.Fatalf("expected binary traffic before READY to be discarded")
	}
}

func TestNudgeCoalescesLatestWinsPerSlot(t *testing.T) {
	conn := &fakeConn{}
	var got []wire.Vec3
	s := New(conn, config.DefaultSession(), Hooks{OnNudge: func(slot uint32, pos, vel wire.Vec3) {
		got = append(got, pos)
	}})
	if err := s.Open(0); err != nil {
		t.Fatal(err)
	}

	s.handleBinary(encodeOneNode(t, 1, wire.Vec3{X: 1}))
	s.handleBinary(encodeOneNode(t, 1, wire.Vec3{X: 2})) // same slot, should win
	s.flushPending()

	if len(got) != 1 || got[0].X != 2 {
		t.Fatalf("expected single coalesced nudge with x=2, got %+v", got)
	}
}

func TestExcessNudgesPerFrameAreTrimmed(t *testing.T) {
	conn := &fakeConn{}
	nudges := 0
	s := New(conn, config.DefaultSession(), Hooks{OnNudge: func(uint32, wire.Vec3, wire.Vec3) { nudges++ }})
	if err := s.Open(0); err != nil {
		t.Fatal(err)
	}

	frame := wire.Encode(nil, []wire.Node{
		{Slot: 1, Pos: wire.Vec3{X: 1}},
		{Slot: 2, Pos: wire.Vec3{X: 2}},
		{Slot: 3, Pos: wire.Vec3{X: 3}},
	})
	s.handleBinary(frame)
	s.flushPending()

	if nudges != maxNudgesPerFrame {
		t.Fatalf("expected at most %d nudges applied, got %d", maxNudgesPerFrame, nudges)
	}
}

func TestQueueSaturationMarksSessionForClose(t *testing.T) {
	conn := &fakeConn{}
	cfg := config.DefaultSession()
	cfg.MaxQueueSize = 1
	s := New(conn, cfg, Hooks{})
	if err := s.Open(0); err != nil {
		t.Fatal(err)
	}
	// the queue already holds the connection_established control item
	// at capacity 1; force repeated control drops (control messages
	// aren't deduped like position updates).
	for i := 0; i < dropCloseThreshold+1; i++ {
		s.EnqueueControl([]byte(`{"type":"loading","message":"x"}`))
	}
	if !s.Saturated() {
		t.Fatalf("expected session to be marked saturated after repeated drops")
	}
}

func TestCloseFiresOnClosedExactlyOnce(t *testing.T) {
	conn := &fakeConn{}
	calls := 0
	s := New(conn, config.DefaultSession(), Hooks{OnClosed: func(*Session) { calls++ }})

	s.Close()
	s.Close()
	s.Close()

	if calls != 1 {
		t.Fatalf("expected OnClosed to fire exactly once across repeated Close calls, got %d", calls)
	}
}

func encodeOneNode(t *testing.T, slot uint32, pos wire.Vec3) []byte {
	t.Helper()
	return wire.Encode(nil, []wire.Node{{Slot: slot, Pos: pos}})
}
