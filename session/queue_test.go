/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package session

import "testing"

func TestPositionReplacesWithoutDroppingUnderCapacity(t *testing.T) {
	q := newOutboundQueue(4)
	if dropped := q.push(outboundItem{kind: kindPosition, payload: []byte("a")}); dropped {
		t.Fatalf("unexpected drop on first position push")
	}
	if dropped := q.push(outboundItem{kind: kindPosition, payload: []byte("b")}); dropped {
		t.Fatalf("replacing a position update under capacity should not count as a drop")
	}
	if q.len() != 1 {
		t.Fatalf("expected exactly one queued position item, got %d", q.len())
	}
	item, ok := q.pop()
	if !ok || string(item.payload) != "b" {
		t.Fatalf("expected latest position value %q, got %q (ok=%v)", "b", item.payload, ok)
	}
}

func TestPositionReplaceCountsAsDropWhenFull(t *testing.T) {
	q := newOutboundQueue(1)
	q.push(outboundItem{kind: kindPosition, payload: []byte("a")})
	if dropped := q.push(outboundItem{kind: kindPosition, payload: []byte("b")}); !dropped {
		t.Fatalf("expected replace at capacity to count as a drop")
	}
}

func TestControlEvictsOldestNonPositionFirst(t *testing.T) {
	q := newOutboundQueue(2)
	q.push(outboundItem{kind: kindControl, payload: []byte("c1")})
	q.push(outboundItem{kind: kindPosition, payload: []byte("p1")})
	// queue full: [c1, p1]; a new control should evict c1, not p1.
	dropped := q.push(outboundItem{kind: kindControl, payload: []byte("c2")})
	if !dropped {
		t.Fatalf("expected drop when evicting to make room")
	}
	first, _ := q.pop()
	second, _ := q.pop()
	if string(first.payload) != "p1" || string(second.payload) != "c2" {
		t.Fatalf("expected [p1, c2] after eviction, got [%s, %s]", first.payload, second.payload)
	}
}
