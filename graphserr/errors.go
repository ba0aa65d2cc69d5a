// Package graphserr defines the typed error kinds of §7: MalformedFrame,
// OutOfRange, QueueSaturated, InvalidSlot, TransportClosed, and
// ValidationFailed. Each is a small struct with an Is-style predicate,
// mirroring the teacher's cmn/cos/err.go (ErrNotFound / IsErrNotFound).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graphserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedFrame: binary frame length isn't a multiple of 28, or a
// decompressed frame still fails that check.
type ErrMalformedFrame struct {
	Len int
}

func NewErrMalformedFrame(l int) *ErrMalformedFrame { return &ErrMalformedFrame{Len: l} }
func (e *ErrMalformedFrame) Error() string {
	return fmt.Sprintf("malformed frame: length %d is not a multiple of 28", e.Len)
}
func IsMalformedFrame(err error) bool {
	_, ok := errors.Cause(err).(*ErrMalformedFrame)
	return ok
}

// ErrOutOfRange: a numeric field was clamped to its invariant range.
// Not surfaced to the caller as a hard failure; counted in diagnostics.
type ErrOutOfRange struct {
	Field string
	Value float64
}

func NewErrOutOfRange(field string, v float64) *ErrOutOfRange {
	return &ErrOutOfRange{Field: field, Value: v}
}
func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("value %g out of range for %s, clamped", e.Value, e.Field)
}
func IsOutOfRange(err error) bool {
	_, ok := errors.Cause(err).(*ErrOutOfRange)
	return ok
}

// ErrQueueSaturated: an outbound enqueue failed because the session's
// bounded queue was full.
type ErrQueueSaturated struct {
	SessionID string
}

func NewErrQueueSaturated(sid string) *ErrQueueSaturated { return &ErrQueueSaturated{SessionID: sid} }
func (e *ErrQueueSaturated) Error() string {
	return fmt.Sprintf("session %s: outbound queue saturated", e.SessionID)
}
func IsQueueSaturated(err error) bool {
	_, ok := errors.Cause(err).(*ErrQueueSaturated)
	return ok
}

// ErrInvalidSlot: an inbound nudge referenced a slot the identity table
// doesn't know about.
type ErrInvalidSlot struct {
	Slot uint32
}

func NewErrInvalidSlot(slot uint32) *ErrInvalidSlot { return &ErrInvalidSlot{Slot: slot} }
func (e *ErrInvalidSlot) Error() string             { return fmt.Sprintf("invalid slot %d", e.Slot) }
func IsInvalidSlot(err error) bool {
	_, ok := errors.Cause(err).(*ErrInvalidSlot)
	return ok
}

// ErrTransportClosed: terminal for a session; triggers the client's
// reconnect policy.
type ErrTransportClosed struct {
	Reason string
}

func NewErrTransportClosed(reason string) *ErrTransportClosed {
	return &ErrTransportClosed{Reason: reason}
}
func (e *ErrTransportClosed) Error() string { return "transport closed: " + e.Reason }
func IsTransportClosed(err error) bool {
	_, ok := errors.Cause(err).(*ErrTransportClosed)
	return ok
}

// ErrValidationFailed: a configuration update violated the §4.4 ranges;
// the previous value is retained and this is surfaced on the control
// channel.
type ErrValidationFailed struct {
	Param string
	Value float64
	Min   float64
	Max   float64
}

func NewErrValidationFailed(param string, v, lo, hi float64) *ErrValidationFailed {
	return &ErrValidationFailed{Param: param, Value: v, Min: lo, Max: hi}
}
func (e *ErrValidationFailed) Error() string {
	return fmt.Sprintf("%s=%g out of range [%g, %g]", e.Param, e.Value, e.Min, e.Max)
}
func IsValidationFailed(err error) bool {
	_, ok := errors.Cause(err).(*ErrValidationFailed)
	return ok
}

// Wrap adds call-site context the way ext/dsort wraps errors crossing
// package boundaries.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }
