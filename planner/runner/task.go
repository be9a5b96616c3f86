// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AleutianAI/symkgo/planner"
)

// Task multiplexes both pipes, the timer, and cancellation in a single
// coordinator loop running on the caller's goroutine. Accumulation and sink
// delivery happen only there, so the sink needs no synchronization. Use it
// where the readiness-pump model is unavailable or the caller already
// coordinates its own concurrency.
type Task struct{}

// NewTask returns the cooperative strategy.
func NewTask() *Task {
	return &Task{}
}

// Run implements Runner.
func (t *Task) Run(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error) {
	cmd := newCommand(inv)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{}, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("start %s: %w", inv.Program(), err)
	}

	// Feeders only read and hand chunks over; all processing stays in this
	// goroutine.
	outCh := feed(stdoutPipe)
	errCh := feed(stderrPipe)

	var timer <-chan time.Time
	if opts.Timeout > 0 {
		tm := time.NewTimer(opts.Timeout)
		defer tm.Stop()
		timer = tm.C
	}

	var (
		stdoutBuf strings.Builder
		stderrBuf strings.Builder
		outcome   Outcome
		ctxErr    error
		ctxDone   = ctx.Done()
	)

	for outCh != nil || errCh != nil {
		select {
		case chunk, ok := <-outCh:
			if !ok {
				outCh = nil
				continue
			}
			stdoutBuf.Write(chunk)
			if opts.Sink != nil {
				opts.Sink.Stdout(chunk)
			}

		case chunk, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			stderrBuf.Write(chunk)
			if opts.Sink != nil {
				opts.Sink.Stderr(chunk)
			}

		case <-timer:
			outcome.TimedOut = true
			terminate(cmd)
			timer = nil

		case <-ctxDone:
			outcome.TimedOut = true
			terminate(cmd)
			ctxErr = ctx.Err()
			ctxDone = nil
		}
	}

	// Both pipes have hit EOF (normal exit or post-kill closure); the
	// child can now be reaped.
	code, werr := waitCode(cmd.Wait())
	if werr != nil && ctxErr == nil {
		outcome.Stdout = stdoutBuf.String()
		outcome.Stderr = stderrBuf.String()
		return outcome, fmt.Errorf("wait %s: %w", inv.Program(), werr)
	}
	outcome.ExitCode = code
	outcome.Stdout = stdoutBuf.String()
	outcome.Stderr = stderrBuf.String()
	return outcome, ctxErr
}

// feed reads chunks from a pipe into a channel, closing it at EOF. Chunks
// are freshly allocated because the receiver outlives each read.
func feed(r io.Reader) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		for {
			buf := make([]byte, readChunkSize)
			n, err := r.Read(buf)
			if n > 0 {
				ch <- buf[:n]
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

var _ Runner = (*Task)(nil)
