// Package mono provides a monotonic nanosecond clock; the simulation
// loop uses it to time the randomization acknowledgement window.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start. It is
// monotonic (backed by time.Since, which uses the runtime's monotonic
// clock reading) and cheap enough to call on every log line.
func NanoTime() int64 { return int64(time.Since(start)) }
