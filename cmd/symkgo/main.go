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
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/symkgo/pkg/logging"
)

var (
	config Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		config = cfg

		// CLI flags beat the config file.
		if cmd.Flags().Changed("log-level") {
			config.Logging.Level = cliLogLevel
		}
		if cmd.Flags().Changed("log-dir") {
			config.Logging.Dir = cliLogDir
		}
		if cliEntryScript != "" {
			config.EntryScript = cliEntryScript
		}
		if cliInterpreter != "" {
			config.Interpreter = cliInterpreter
		}
		if cliVariant != "" {
			config.Variant = cliVariant
		}

		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(config.Logging.Level),
			LogDir:  config.Logging.Dir,
			Service: "symkgo",
			JSON:    config.Logging.JSON,
			Quiet:   quietLogs,
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	}
}

// fatal logs the error and exits without running deferred cleanup in the
// caller; use only at the top of command handlers.
func fatal(msg string, args ...any) {
	if logger != nil {
		logger.Error(msg, args...)
		logger.Close()
	} else {
		log.Printf("%s %v", msg, args)
	}
	os.Exit(1)
}
