/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graph

import "testing"

// S4 — identity promotion.
func TestIdentityPromotion(t *testing.T) {
	tbl := NewIdentityTable()
	if got := tbl.Intern("file-a"); got != 0 {
		t.Fatalf("intern(file-a) = %d, want 0", got)
	}
	if got := tbl.Intern("42"); got != 42 {
		t.Fatalf("intern(42) = %d, want 42", got)
	}
	if got := tbl.Intern("file-a"); got != 0 {
		t.Fatalf("repeated intern(file-a) = %d, want 0", got)
	}
	tbl.Reset()
	if got := tbl.Intern("file-a"); got != 0 {
		t.Fatalf("post-reset intern(file-a) = %d, want 0", got)
	}
}

func TestIdentityLookupAndReverse(t *testing.T) {
	tbl := NewIdentityTable()
	slot := tbl.Intern("alpha.md")
	ext, ok := tbl.Lookup(slot)
	if !ok || ext != "alpha.md" {
		t.Fatalf("lookup(%d) = %q, %v", slot, ext, ok)
	}
	got, ok := tbl.Reverse("alpha.md")
	if !ok || got != slot {
		t.Fatalf("reverse(alpha.md) = %d, %v, want %d", got, ok, slot)
	}
	if _, ok := tbl.Reverse("missing"); ok {
		t.Fatalf("expected miss for unknown external id")
	}
}

func TestCounterNeverDecreasesWithoutReset(t *testing.T) {
	tbl := NewIdentityTable()
	a := tbl.Intern("x")
	b := tbl.Intern("y")
	if b <= a {
		t.Fatalf("counter did not advance: a=%d b=%d", a, b)
	}
	tbl.Intern("x") // repeat, must not advance counter
	c := tbl.Intern("z")
	if c <= b {
		t.Fatalf("counter regressed after repeat intern: b=%d c=%d", b, c)
	}
}
