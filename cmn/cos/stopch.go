// Package cos - stop-channel and runner conventions shared by the
// simulation loop, broadcast hub, and session reader/writer pairs.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "sync"

// StopCh is a close-once broadcast channel: any number of goroutines
// can Listen(), and Close() wakes all of them exactly once. Mirrors
// the teacher's `transport/collect.go` stopCh usage in the stream
// collector's run loop.
type StopCh struct {
	ch   chan struct{}
	once sync.Once
}

func NewStopCh() *StopCh { return &StopCh{ch: make(chan struct{})} }

func (s *StopCh) Listen() <-chan struct{} { return s.ch }

func (s *StopCh) Close() { s.once.Do(func() { close(s.ch) }) }

// Runner is the small supervised-task interface implemented by the
// simulation loop (sim.Loop); the broadcast hub and the HTTP listener
// do not implement it. Mirrors the teacher's `cos.Runner` /
// `StreamCollector` Run/Stop convention in transport/collect.go.
type Runner interface {
	Run() error
	Stop(error)
}
