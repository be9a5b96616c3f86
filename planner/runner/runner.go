// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package runner executes solver invocations as child processes.

# Overview

Three interchangeable strategies implement the same Runner contract:

  - Buffered: start, block until exit or timeout, return captured output.
  - Stream: one pump goroutine per pipe forwards chunks to a sink as they
    arrive (the default on Unix).
  - Task: a single coordinator goroutine multiplexes chunk channels, the
    timer, and process exit in one select loop; the sink is only ever
    called from that goroutine.

All strategies guarantee: if the timeout elapses or the context is
cancelled before the process exits, the process group is terminated and the
outcome reports TimedOut with whatever output was captured so far; if the
process exits, its exit code is populated. Non-zero solver exit codes are
data, not errors — classification happens downstream.

# Thread Safety

Runner implementations are stateless and safe for concurrent use. Sink
implementations passed to Stream must tolerate serialized calls from
internal goroutines; Task calls the sink from a single goroutine.

# Examples

	r := runner.Default()
	outcome, err := r.Run(ctx, inv, runner.Options{Timeout: 30 * time.Second})
	if err != nil {
	    return fmt.Errorf("solver execution failed: %w", err)
	}
	if outcome.TimedOut {
	    // partial output is still in outcome.Stdout / outcome.Stderr
	}
*/
package runner

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/AleutianAI/symkgo/planner"
)

// readChunkSize is the buffer size for streaming reads. Solver output is
// line-oriented and modest; 4 KiB keeps latency low without churn.
const readChunkSize = 4096

// reapGrace is how long Buffered waits for the OS to reap a process after
// a timeout kill before giving up and leaving the exit code absent.
const reapGrace = 2 * time.Second

// =============================================================================
// Contract
// =============================================================================

// Outcome is the captured result of one subprocess execution.
//
// ExitCode is nil only when the process could not be reaped (legacy path);
// consumers must treat nil as "unknown, assume success if a plan exists".
type Outcome struct {
	TimedOut bool
	Stdout   string
	Stderr   string
	ExitCode *int
}

// Sink receives output chunks while the process is still running.
type Sink interface {
	// Stdout is called with each chunk read from the child's stdout.
	Stdout(p []byte)

	// Stderr is called with each chunk read from the child's stderr.
	Stderr(p []byte)
}

// Options configures one execution.
type Options struct {
	// Timeout bounds the subprocess wall clock; zero means unbounded.
	Timeout time.Duration

	// Sink, when non-nil, receives output incrementally. Buffered ignores
	// it (output is only available after exit).
	Sink Sink
}

// Runner executes an invocation as a child process.
type Runner interface {
	Run(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error)
}

// =============================================================================
// Writer Sink
// =============================================================================

// WriterSink adapts two io.Writers into a Sink. Write errors are dropped:
// a broken caller-side stream must not abort the solve.
type WriterSink struct {
	Out io.Writer
	Err io.Writer
}

// NewWriterSink builds a sink forwarding stdout and stderr to the given
// writers; either may be nil to discard that stream.
func NewWriterSink(out, errW io.Writer) *WriterSink {
	return &WriterSink{Out: out, Err: errW}
}

// Stdout forwards a stdout chunk.
func (s *WriterSink) Stdout(p []byte) {
	if s.Out != nil {
		_, _ = s.Out.Write(p)
	}
}

// Stderr forwards a stderr chunk.
func (s *WriterSink) Stderr(p []byte) {
	if s.Err != nil {
		_, _ = s.Err.Write(p)
	}
}

// =============================================================================
// Shared Helpers
// =============================================================================

// newCommand builds the exec.Cmd for an invocation, placing the child in
// its own process group so a timeout kill reaps descendants too (the
// solver entry script forks translate and search stages).
func newCommand(inv planner.Invocation) *exec.Cmd {
	cmd := exec.Command(inv.Program(), inv.Args()...)
	setProcAttr(cmd)
	return cmd
}

// waitCode converts a Wait error into an exit code. A non-zero exit is not
// an execution error; anything else is.
func waitCode(err error) (*int, error) {
	if err == nil {
		code := 0
		return &code, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return &code, nil
	}
	return nil, err
}

var (
	_ Sink = (*WriterSink)(nil)
)
