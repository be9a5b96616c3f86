// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symk

import (
	"strings"

	"github.com/AleutianAI/symkgo/planner"
)

// Mode selects which search configuration a command uses.
type Mode int

const (
	// ModeOneShot runs a single search producing one (optimal) plan.
	ModeOneShot Mode = iota

	// ModeAnytime runs the anytime search reporting improving plans.
	ModeAnytime
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeAnytime {
		return "anytime"
	}
	return "oneshot"
}

// BuildCommand derives the solver argument vector from a configuration and
// the three file paths. It is a pure function: identical inputs yield
// identical token sequences, absent optional fields contribute zero
// tokens, and the filesystem is never touched.
//
// Token order is the driver script's contract:
//
//	<interpreter> <entry-script> --plan-file <plan>
//	  [<driver-flags>...] [--search-time-limit <t>] --log-level <level>
//	  [--alias <name>] <domain> <problem>
//	  [--translate-options ...] [--preprocess-options ...]
//	  [--search-options --search <config tokens>]
func BuildCommand(mode Mode, cfg Config, domainPath, problemPath, planPath string) planner.Invocation {
	inv := make(planner.Invocation, 0, 16)

	if cfg.Interpreter != "" {
		inv = append(inv, cfg.Interpreter)
	}
	inv = append(inv, cfg.EntryScript, "--plan-file", planPath)
	inv = append(inv, cfg.DriverOptions...)
	if cfg.SearchTimeLimit != "" {
		inv = append(inv, "--search-time-limit", cfg.SearchTimeLimit)
	}
	inv = append(inv, "--log-level", cfg.LogLevel)
	if cfg.Alias != "" {
		inv = append(inv, "--alias", cfg.Alias)
	}
	inv = append(inv, domainPath, problemPath)
	if len(cfg.TranslateOptions) > 0 {
		inv = append(inv, "--translate-options")
		inv = append(inv, cfg.TranslateOptions...)
	}
	if len(cfg.PreprocessOptions) > 0 {
		inv = append(inv, "--preprocess-options")
		inv = append(inv, cfg.PreprocessOptions...)
	}

	search := cfg.SearchConfig
	if mode == ModeAnytime {
		search = cfg.AnytimeSearchConfig
	}
	if search != "" {
		inv = append(inv, "--search-options", "--search")
		inv = append(inv, strings.Fields(search)...)
	}
	return inv
}
