/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

// Conn is the minimal transport surface a session needs; wsconn.Wrap
// adapts a *websocket.Conn to this interface (it already satisfies it
// structurally — the wrapper's job is serializing concurrent writes
// and applying deadlines, not bridging method shapes). Keeping this
// interface local means session carries no direct websocket import
// and is trivially testable with an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Frame kinds mirror gorilla/websocket's TextMessage/BinaryMessage
// constants (1 and 2) so a Conn backed by an actual websocket needs no
// translation.
const (
	TextMessage   = 1
	BinaryMessage = 2
)
