// Package debug provides lightweight runtime assertions. They are
// compiled in and cheap; unlike the teacher's build-tag-gated debug
// package, these stay on in production because the simulation task
// must never let a violated invariant slip through-correctness here
// matters more than the assert overhead.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import "fmt"

// Assert panics with msg (if any) when cond is false.
func Assert(cond bool, msg ...any) {
	if !cond {
		panic(fmt.Sprint("assertion failed", fmt.Sprint(msg...)))
	}
}

// Assertf panics with a formatted message when cond is false.
func Assertf(cond bool, format string, a ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, a...))
	}
}

// AssertNoErr panics when err is non-nil.
func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Func runs fn only when debug assertions are compiled in. Kept as a
// no-op passthrough here (assertions are always on) so call sites can
// still read `debug.Func(func() { ... })` the way the teacher does.
func Func(fn func()) { fn() }
