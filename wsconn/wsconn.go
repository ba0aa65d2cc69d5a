// Package wsconn adapts *websocket.Conn to session.Conn. The method
// shapes already line up structurally; what this wrapper actually
// contributes is what the gorilla/websocket docs call out explicitly
// and the teacher's transport/api.go Client abstraction models with an
// interface boundary: a websocket connection supports at most one
// concurrent writer, so every write goes through a mutex, and every
// write carries a deadline so one slow session can't wedge its writer
// goroutine forever.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shaneholloman/logseq-spring-thing/session"
)

const writeTimeout = 10 * time.Second

// Conn wraps a *websocket.Conn with a write mutex and deadline,
// satisfying session.Conn.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func Wrap(ws *websocket.Conn) *Conn { return &Conn{ws: ws} }

var _ session.Conn = (*Conn)(nil)

func (c *Conn) ReadMessage() (int, []byte, error) { return c.ws.ReadMessage() }

func (c *Conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
