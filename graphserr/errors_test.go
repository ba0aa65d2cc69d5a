/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package graphserr

import "testing"

func TestPredicatesMatchOwnKindOnly(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"malformed", NewErrMalformedFrame(13), IsMalformedFrame},
		{"outofrange", NewErrOutOfRange("x", 9), IsOutOfRange},
		{"queuesaturated", NewErrQueueSaturated("sess-1"), IsQueueSaturated},
		{"invalidslot", NewErrInvalidSlot(7), IsInvalidSlot},
		{"transportclosed", NewErrTransportClosed("eof"), IsTransportClosed},
		{"validationfailed", NewErrValidationFailed("attraction", 5, 0, 1), IsValidationFailed},
	}
	for _, c := range cases {
		if !c.is(c.err) {
			t.Errorf("%s: predicate rejected its own error", c.name)
		}
		for _, other := range cases {
			if other.name == c.name {
				continue
			}
			if c.is(other.err) {
				t.Errorf("%s: predicate accepted a %s error", c.name, other.name)
			}
		}
	}
}

func TestPredicateSurvivesWrap(t *testing.T) {
	err := Wrap(NewErrInvalidSlot(42), "handling nudge")
	if !IsInvalidSlot(err) {
		t.Fatalf("expected IsInvalidSlot to see through Wrap, got %v", err)
	}
}

func TestPredicateRejectsNil(t *testing.T) {
	if IsMalformedFrame(nil) {
		t.Fatalf("expected nil error to not match any predicate")
	}
}
