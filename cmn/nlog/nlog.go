// Package nlog is the process-wide logger: severity-leveled and
// timestamped, writing each line straight through. Unlike the teacher's
// nlog (which rotates local log files), this service runs under an
// external supervisor and logs to stdout/stderr, so rotation/mmap
// pooling is dropped; the severity model, the depth-aware caller tag,
// and the Infof/Warningf/Errorf surface are kept as-is.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{'I', 'W', 'E'}

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
	minSev           = sevInfo
)

// SetOutput/SetErrOutput redirect the info/warn and error streams
// respectively; tests point these at a bytes.Buffer.
func SetOutput(w io.Writer)    { mu.Lock(); out = w; mu.Unlock() }
func SetErrOutput(w io.Writer) { mu.Lock(); errOut = w; mu.Unlock() }

// SetQuiet suppresses Infof/Infoln, keeping Warningf/Errorf only.
func SetQuiet(quiet bool) {
	mu.Lock()
	if quiet {
		minSev = sevWarn
	} else {
		minSev = sevInfo
	}
	mu.Unlock()
}

func Infof(format string, args ...any)    { write(sevInfo, 1, fmt.Sprintf(format, args...)) }
func Infoln(args ...any)                  { write(sevInfo, 1, fmt.Sprintln(args...)) }
func Warningf(format string, args ...any) { write(sevWarn, 1, fmt.Sprintf(format, args...)) }
func Warningln(args ...any)               { write(sevWarn, 1, fmt.Sprintln(args...)) }
func Errorf(format string, args ...any)   { write(sevErr, 1, fmt.Sprintf(format, args...)) }
func Errorln(args ...any)                 { write(sevErr, 1, fmt.Sprintln(args...)) }

func InfoDepth(depth int, args ...any)  { write(sevInfo, depth+1, fmt.Sprintln(args...)) }
func ErrorDepth(depth int, args ...any) { write(sevErr, depth+1, fmt.Sprintln(args...)) }

func write(sev severity, depth int, msg string) {
	if sev < minSev {
		return
	}
	line := formatHdr(sev, depth+1) + msg
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	mu.Lock()
	defer mu.Unlock()
	if sev >= sevWarn {
		io.WriteString(errOut, line)
		return
	}
	io.WriteString(out, line)
}

func formatHdr(sev severity, depth int) string {
	_, fn, ln, ok := runtime.Caller(depth + 1)
	now := time.Now().Format("15:04:05.000000")
	if !ok {
		return fmt.Sprintf("%c %s ", sevChar[sev], now)
	}
	fn = filepath.Base(fn)
	return fmt.Sprintf("%c %s %s:%d ", sevChar[sev], now, fn, ln)
}

// Flush is a no-op: stdout/stderr are unbuffered here. Kept so call
// sites that mirror the teacher's shutdown sequence read naturally.
func Flush(...bool) {}
