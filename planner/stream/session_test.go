// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/symkgo/planner"
	"github.com/AleutianAI/symkgo/planner/runner"
)

// defaultClassify is the classify function the session tests use: plan
// means satisficing, no plan means unsolvable proven.
func defaultClassify(planFound bool, exitCode *int) planner.ResultStatus {
	if planFound {
		return planner.StatusSolvedSatisficing
	}
	return planner.StatusUnsolvableProven
}

func collectResults(t *testing.T, s *Session) []planner.Result {
	t.Helper()
	var results []planner.Result
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res, ok := <-s.Results():
			if !ok {
				return results
			}
			results = append(results, res)
		case <-deadline:
			t.Fatal("timed out waiting for session results")
		}
	}
}

func TestSessionStreamsPlansThenTerminal(t *testing.T) {
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			opts.Sink.Stdout([]byte(solverOutput))
			code := 0
			return runner.Outcome{ExitCode: &code, Stdout: solverOutput}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify:   defaultClassify,
		EngineName: "test-engine",
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 3)

	assert.Equal(t, planner.StatusIntermediate, results[0].Status)
	assert.Equal(t, []string{"(move a b)", "(move b c)"}, results[0].Steps)

	assert.Equal(t, planner.StatusIntermediate, results[1].Status)
	assert.Equal(t, []string{"(move a c)"}, results[1].Steps)

	assert.Equal(t, planner.StatusSolvedSatisficing, results[2].Status)
	assert.Equal(t, []string{"(move a c)"}, results[2].Steps)
	assert.Equal(t, "test-engine", results[2].EngineName)
	assert.True(t, results[2].Status.IsTerminal())
}

func TestSessionTerminalFromOutcomeWhenNoSearchExitSeen(t *testing.T) {
	output := "[t=0.05s, 10884 KB] New plan 1: cost = 8\nmove a b (1)\n[t=0.05s, 10884 KB] Plan length: 1 step(s).\n"
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			opts.Sink.Stdout([]byte(output))
			code := 0
			return runner.Outcome{ExitCode: &code, Stdout: output, Stderr: "warnings"}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify:   defaultClassify,
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 2)
	assert.Equal(t, planner.StatusIntermediate, results[0].Status)

	terminal := results[1]
	assert.Equal(t, planner.StatusSolvedSatisficing, terminal.Status)
	assert.Equal(t, []string{"(move a b)"}, terminal.Steps)
	require.Len(t, terminal.Logs, 2)
	assert.Equal(t, output, terminal.Logs[0].Message)
	assert.Equal(t, "warnings", terminal.Logs[1].Message)
}

func TestSessionNoPlanTerminal(t *testing.T) {
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			code := 11
			return runner.Outcome{ExitCode: &code}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify: func(planFound bool, exitCode *int) planner.ResultStatus {
			assert.False(t, planFound)
			require.NotNil(t, exitCode)
			assert.Equal(t, 11, *exitCode)
			return planner.StatusUnsolvableProven
		},
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 1)
	assert.Equal(t, planner.StatusUnsolvableProven, results[0].Status)
	assert.False(t, results[0].HasPlan())
}

func TestSessionTimeoutWithoutPlan(t *testing.T) {
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			return runner.Outcome{TimedOut: true}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify:   defaultClassify,
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 1)
	assert.Equal(t, planner.StatusTimeout, results[0].Status)
}

func TestSessionTimeoutAfterPlanKeepsPlan(t *testing.T) {
	output := "[t=0.05s, 10884 KB] New plan 1: cost = 8\nmove a b (1)\n[t=0.05s, 10884 KB] Plan length: 1 step(s).\n"
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			opts.Sink.Stdout([]byte(output))
			return runner.Outcome{TimedOut: true, Stdout: output}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify: func(planFound bool, exitCode *int) planner.ResultStatus {
			assert.True(t, planFound)
			assert.Nil(t, exitCode)
			return planner.StatusSolvedSatisficing
		},
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 2)
	assert.Equal(t, planner.StatusSolvedSatisficing, results[1].Status)
	assert.Equal(t, []string{"(move a b)"}, results[1].Steps)
}

func TestSessionCloseAbandonsSolver(t *testing.T) {
	var cleanedUp atomic.Bool
	runnerDone := make(chan struct{})
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			defer close(runnerDone)
			opts.Sink.Stdout([]byte(solverOutput))
			// A real solver would keep producing plans; block until the
			// session cancels us the way a killed process would stop.
			<-ctx.Done()
			return runner.Outcome{TimedOut: true}, ctx.Err()
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify:   defaultClassify,
		Cleanup:    func() { cleanedUp.Store(true) },
	})
	require.NoError(t, err)

	// Take one result, then walk away.
	select {
	case res := <-s.Results():
		assert.Equal(t, planner.StatusIntermediate, res.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("no first result")
	}

	require.NoError(t, s.Close())

	select {
	case <-runnerDone:
	default:
		t.Fatal("Close returned before the runner was joined")
	}
	assert.True(t, cleanedUp.Load())

	// The results channel is closed; no terminal result is fabricated.
	_, open := <-s.Results()
	assert.False(t, open)

	// Close is idempotent.
	require.NoError(t, s.Close())
}

func TestSessionReconstructionFailureIsTerminal(t *testing.T) {
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			opts.Sink.Stdout([]byte(solverOutput))
			code := 0
			return runner.Outcome{ExitCode: &code}, nil
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"solver"},
		Runner:     mock,
		Classify:   defaultClassify,
		Lookup:     emptyLookup{},
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.NotEmpty(t, results)
	assert.Equal(t, planner.StatusInternalError, results[0].Status)
	assert.Empty(t, results[0].Steps)
	// Nothing follows a terminal result.
	assert.Len(t, results, 1)
}

func TestSessionRunnerFailureIsInternalError(t *testing.T) {
	mock := &runner.MockRunner{
		RunFunc: func(ctx context.Context, inv planner.Invocation, opts runner.Options) (runner.Outcome, error) {
			return runner.Outcome{}, errors.New("start solver: no such file or directory")
		},
	}

	s, err := NewSession(context.Background(), SessionConfig{
		Invocation: planner.Invocation{"/missing/solver"},
		Runner:     mock,
		Classify:   defaultClassify,
	})
	require.NoError(t, err)
	defer s.Close()

	results := collectResults(t, s)
	require.Len(t, results, 1)
	assert.Equal(t, planner.StatusInternalError, results[0].Status)
	require.Len(t, results[0].Logs, 1)
	assert.Contains(t, results[0].Logs[0].Message, "no such file")
}

// emptyLookup resolves nothing, forcing reconstruction failures.
type emptyLookup struct{}

func (emptyLookup) ActionNamed(string) (string, bool) { return "", false }
func (emptyLookup) ObjectNamed(string) (string, bool) { return "", false }
