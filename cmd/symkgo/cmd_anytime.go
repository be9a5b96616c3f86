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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/symkgo/planner"
	"github.com/AleutianAI/symkgo/planner/runner"
	"github.com/AleutianAI/symkgo/symk"
)

func runAnytimeCommand(cmd *cobra.Command, args []string) {
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

	session, err := engine.SolveFilesAnytime(ctx, domainPath, problemPath, hasMetrics, opts)
	if err != nil {
		fatal("anytime solve failed", "error", err)
	}
	defer session.Close()

	planCount := 0
	var terminal *planner.Result
	for result := range session.Results() {
		if result.Status == planner.StatusIntermediate {
			planCount++
			fmt.Printf("--- Plan %d (%d steps) ---\n", planCount, len(result.Steps))
			for _, step := range result.Steps {
				fmt.Printf("  %s\n", step)
			}
			continue
		}
		terminal = &result
		break
	}

	// os.Exit skips deferred calls; close before the exit paths below so
	// the solver process group is always reaped.
	session.Close()

	switch {
	case terminal != nil:
		printResult(*terminal)
		if !terminal.Status.Solved() {
			os.Exit(1)
		}
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "interrupted")
		if planCount == 0 {
			os.Exit(130)
		}
	default:
		fatal("result stream ended without a terminal status")
	}
}
