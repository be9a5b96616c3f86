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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/symkgo/planner"
)

// Stream forwards output to the sink as it arrives, one pump goroutine per
// pipe. This is the default strategy on Unix and the one anytime sessions
// use.
//
// After a timeout kill the pumps are still joined before returning, so
// fragments already read when the timer fired are never dropped.
type Stream struct{}

// NewStream returns the streaming strategy.
func NewStream() *Stream {
	return &Stream{}
}

// Run implements Runner. Sink calls are serialized across the two pumps.
func (s *Stream) Run(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error) {
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

	var (
		stdoutBuf strings.Builder
		stderrBuf strings.Builder
		sinkMu    sync.Mutex
	)

	forward := func(call func(Sink, []byte), p []byte) {
		if opts.Sink == nil {
			return
		}
		sinkMu.Lock()
		defer sinkMu.Unlock()
		call(opts.Sink, p)
	}

	var pumps errgroup.Group
	pumps.Go(func() error {
		return pump(stdoutPipe, &stdoutBuf, func(p []byte) {
			forward(Sink.Stdout, p)
		})
	})
	pumps.Go(func() error {
		return pump(stderrPipe, &stderrBuf, func(p []byte) {
			forward(Sink.Stderr, p)
		})
	})

	// Pipes must be fully drained before Wait; the goroutine owns both.
	waitCh := make(chan error, 1)
	go func() {
		pumpErr := pumps.Wait()
		waitErr := cmd.Wait()
		if waitErr == nil && pumpErr != nil {
			waitErr = pumpErr
		}
		waitCh <- waitErr
	}()

	var timer <-chan time.Time
	if opts.Timeout > 0 {
		t := time.NewTimer(opts.Timeout)
		defer t.Stop()
		timer = t.C
	}

	outcome := Outcome{}
	var ctxErr error

	select {
	case err := <-waitCh:
		code, werr := waitCode(err)
		if werr != nil {
			outcome.Stdout = stdoutBuf.String()
			outcome.Stderr = stderrBuf.String()
			return outcome, fmt.Errorf("wait %s: %w", inv.Program(), werr)
		}
		outcome.ExitCode = code

	case <-timer:
		outcome.TimedOut = true
		terminate(cmd)
		outcome.ExitCode = drainAfterKill(waitCh)

	case <-ctx.Done():
		outcome.TimedOut = true
		terminate(cmd)
		outcome.ExitCode = drainAfterKill(waitCh)
		ctxErr = ctx.Err()
	}

	outcome.Stdout = stdoutBuf.String()
	outcome.Stderr = stderrBuf.String()
	return outcome, ctxErr
}

// drainAfterKill blocks until the pumps and Wait finish. The kill closes
// the pipes, so this terminates promptly while still flushing late
// fragments.
func drainAfterKill(waitCh <-chan error) *int {
	err := <-waitCh
	code, werr := waitCode(err)
	if werr != nil {
		return nil
	}
	return code
}

// pump copies chunks from a pipe into the accumulator and the forwarder
// until EOF or pipe closure.
func pump(r io.Reader, acc *strings.Builder, forward func([]byte)) error {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			forward(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			// The pipe is closed when the process is killed; that is the
			// normal end of streaming, not a failure.
			return nil
		}
	}
}

var _ Runner = (*Stream)(nil)
