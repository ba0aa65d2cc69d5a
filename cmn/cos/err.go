// Package cos provides common low-level types and utilities shared
// across the graph state engine's packages.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"os"

	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
)

const fatalPrefix = "FATAL ERROR: "

// ExitLogf logs a fatal startup error and terminates the process with
// a non-zero status, for cmd/graphd startup failures (a bad config)
// that have no sensible retry.
func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	nlog.Errorln(msg)
	os.Exit(1)
}
