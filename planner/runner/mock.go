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
	"sync"

	"github.com/AleutianAI/symkgo/planner"
)

// MockRunner is a test double for Runner.
//
// Configure it by setting RunFunc before use; calling Run with a nil
// RunFunc panics. Invocations are recorded for verification.
//
// # Examples
//
//	mock := &runner.MockRunner{
//	    RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
//	        code := 0
//	        return runner.Outcome{ExitCode: &code, Stdout: "solver output"}, nil
//	    },
//	}
type MockRunner struct {
	// RunFunc is called when Run is invoked.
	RunFunc func(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error)

	// Calls records all invocations for verification.
	Calls []MockCall

	mu sync.Mutex
}

// MockCall records a single Run invocation.
type MockCall struct {
	Invocation planner.Invocation
	Options    Options
}

// Run delegates to RunFunc and records the call.
func (m *MockRunner) Run(ctx context.Context, inv planner.Invocation, opts Options) (Outcome, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Invocation: inv, Options: opts})
	m.mu.Unlock()
	if m.RunFunc == nil {
		panic("MockRunner.RunFunc not set")
	}
	return m.RunFunc(ctx, inv, opts)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockRunner) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

var _ Runner = (*MockRunner)(nil)
