// Package session implements the per-connection state machine of spec
// §4.6 and the client session (debounce, outbound queue, rate limit)
// of spec §4.7. The state cell itself is a small explicit enum guarded
// by a mutex, in the spirit of the teacher's streamBase.sessST atomic
// active/inactive cell in transport/collect.go, generalized here to
// the richer lifecycle this protocol needs.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Ready
	Reconnecting
	Failed
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Ready:
		return "ready"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	initialBackoff = time.Second
	maxBackoff     = 60 * time.Second
	maxJitter      = time.Second
	maxAttempts    = 5
)

// StateMachine tracks one connection's lifecycle per spec §4.6:
//
//	DISCONNECTED -> CONNECTING -> CONNECTED -> READY <-> (messages) -> CLOSED
//	                   ^                                      |
//	                   |                                      v
//	              RECONNECTING <--------------------------- (failure)
//	                   |
//	                   v
//	                FAILED
//
// It is safe for concurrent use: a session's reader and writer tasks
// may both query or advance it.
type StateMachine struct {
	mu       sync.Mutex
	state    ConnState
	attempts int
}

func NewStateMachine() *StateMachine { return &StateMachine{state: Disconnected} }

func (m *StateMachine) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect starts or retries the transport handshake; legal from
// DISCONNECTED or RECONNECTING.
func (m *StateMachine) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Disconnected && m.state != Reconnecting {
		return m.invalid("connect")
	}
	m.state = Connecting
	return nil
}

// Established marks a successful transport handshake (spec §4.6:
// "CONNECTED is entered on successful transport handshake").
func (m *StateMachine) Established() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connecting {
		return m.invalid("established")
	}
	m.state = Connected
	return nil
}

// Ready marks that the server's connection_established control
// message has been sent/received; binary traffic before this point
// must be discarded by the caller (spec §4.6).
func (m *StateMachine) Ready() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected {
		return m.invalid("ready")
	}
	m.state = Ready
	m.attempts = 0 // reset reconnect counter on reaching READY
	return nil
}

// Fail records a transport failure. If the previous state was READY,
// or the attempt budget remains, the machine moves to RECONNECTING;
// otherwise it moves to the terminal FAILED state.
func (m *StateMachine) Fail(wasReady bool) ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Closed || m.state == Failed {
		return m.state
	}
	if wasReady {
		m.attempts = 0
	}
	m.attempts++
	if m.attempts > maxAttempts {
		m.state = Failed
	} else {
		m.state = Reconnecting
	}
	return m.state
}

// Close transitions to the terminal CLOSED state from any non-closed
// state (spec §4.6 diagram: CLOSED reachable from READY; in practice
// any live state can be torn down).
func (m *StateMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Closed
}

// Reset clears a FAILED machine back to DISCONNECTED, the only way out
// of the terminal state (spec §4.6: "FAILED is terminal until an
// external reset").
func (m *StateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Failed {
		m.state = Disconnected
		m.attempts = 0
	}
}

func (m *StateMachine) invalid(op string) error {
	return fmt.Errorf("session: invalid transition %q from state %s", op, m.state)
}

// Backoff returns the delay before the next reconnect attempt:
// exponential starting at 1s, doubling, capped at 60s, plus up to 1s
// of jitter (spec §4.6).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := initialBackoff << uint(attempt-1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return d + jitter
}
