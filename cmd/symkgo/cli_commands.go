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
	"time"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "symkgo.yaml"

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "symkgo",
		Short: "A CLI for the SymK optimal and top-k classical planner",
		Long: `symkgo runs the SymK planner on PDDL tasks, either as a single
optimal solve or as an anytime stream of improving plans.`,
	}
	configPath     string
	cliLogLevel    string
	cliLogDir      string
	quietLogs      bool
	cliEntryScript string
	cliInterpreter string
	cliVariant     string

	solveCmd = &cobra.Command{
		Use:   "solve [domain.pddl] [problem.pddl]",
		Short: "Run a one-shot optimal solve on a PDDL task",
		Long: `Runs the solver to completion on the given domain and problem files
and prints the resulting plan with its status classification.`,
		Args: cobra.ExactArgs(2),
		Run:  runSolveCommand,
	}
	solveTimeout time.Duration
	showOutput   bool
	hasMetrics   bool

	anytimeCmd = &cobra.Command{
		Use:   "anytime [domain.pddl] [problem.pddl]",
		Short: "Stream improving plans from an anytime solve",
		Long: `Starts the solver in anytime mode and prints each plan as it is
found. Interrupt with Ctrl-C to stop early; the solver process is
terminated cleanly.`,
		Args: cobra.ExactArgs(2),
		Run:  runAnytimeCommand,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the symkgo version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("symkgo", Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&cliLogLevel, "log-level", "info", "CLI log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cliLogDir, "log-dir", "", "Directory for JSON log files")
	rootCmd.PersistentFlags().BoolVar(&quietLogs, "quiet", false, "Suppress stderr logging")
	rootCmd.PersistentFlags().StringVar(&cliEntryScript, "entry-script", "", "Path to the SymK fast-downward driver script")
	rootCmd.PersistentFlags().StringVar(&cliInterpreter, "interpreter", "", "Interpreter for the entry script (e.g. python3)")
	rootCmd.PersistentFlags().StringVar(&cliVariant, "variant", "", "Engine variant: optimal or topk")

	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "Wall-clock limit for the solver process (0 = none)")
	solveCmd.Flags().BoolVar(&showOutput, "show-output", false, "Stream raw solver output to stderr")
	solveCmd.Flags().BoolVar(&hasMetrics, "quality-metrics", false, "Problem declares quality metrics (affects the optimality claim)")

	anytimeCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "Wall-clock limit for the solver process (0 = none)")
	anytimeCmd.Flags().BoolVar(&showOutput, "show-output", false, "Stream raw solver output to stderr")
	anytimeCmd.Flags().BoolVar(&hasMetrics, "quality-metrics", false, "Problem declares quality metrics (affects the optimality claim)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(anytimeCmd)
	rootCmd.AddCommand(versionCmd)
}
