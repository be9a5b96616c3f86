// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/symkgo/planner"
	"github.com/AleutianAI/symkgo/planner/runner"
	"github.com/AleutianAI/symkgo/symk"
)

func runSolveCommand(cmd *cobra.Command, args []string) {
	engine, err := buildEngine()
	if err != nil {
		fatal("engine setup failed", "error", err)
	}
	domainPath, problemPath := args[0], args[1]

	ctx, cancel := signalContext()
	defer cancel()

	opts := symk.SolveOptions{Timeout: solveTimeout}
	if showOutput {
		opts.Sink = runner.NewWriterSink(os.Stderr, os.Stderr)
	}

	result, err := engine.SolveFiles(ctx, domainPath, problemPath, hasMetrics, opts)
	if err != nil {
		fatal("solve failed", "error", err)
	}

	printResult(result)
	if !result.Status.Solved() {
		os.Exit(1)
	}
}

// printResult renders one result for human consumption.
func printResult(result planner.Result) {
	fmt.Printf("Status: %s\n", result.Status)
	if len(result.Steps) == 0 {
		return
	}
	fmt.Printf("Plan (%d steps):\n", len(result.Steps))
	for i, step := range result.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so an
// interrupted solve terminates the solver process group cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
