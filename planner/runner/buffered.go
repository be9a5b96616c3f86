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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/symkgo/planner"
)

// Buffered runs the child to completion and returns its full output. It is
// the strategy for one-shot solves without a live output consumer.
//
// On timeout the process group is killed and Buffered waits a short grace
// period for the child to be reaped; if reaping also times out, the exit
// code stays absent.
type Buffered struct{}

// NewBuffered returns the buffered strategy.
func NewBuffered() *Buffered {
	return &Buffered{}
}

// Run implements Runner. The Sink option is ignored: output is only
// available after the process exits.
func (b *Buffered) Run(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error) {
	cmd := newCommand(inv)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("start %s: %w", inv.Program(), err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

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
			return outcome, fmt.Errorf("wait %s: %w", inv.Program(), werr)
		}
		outcome.ExitCode = code

	case <-timer:
		outcome.TimedOut = true
		terminate(cmd)
		outcome.ExitCode = reapWithGrace(waitCh)

	case <-ctx.Done():
		outcome.TimedOut = true
		terminate(cmd)
		outcome.ExitCode = reapWithGrace(waitCh)
		ctxErr = ctx.Err()
	}

	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()
	return outcome, ctxErr
}

// reapWithGrace waits briefly for the killed child to be reaped. Nil means
// the exit code could not be recovered.
func reapWithGrace(waitCh <-chan error) *int {
	select {
	case err := <-waitCh:
		code, werr := waitCode(err)
		if werr != nil {
			return nil
		}
		return code
	case <-time.After(reapGrace):
		return nil
	}
}

var _ Runner = (*Buffered)(nil)
