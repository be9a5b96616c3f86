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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	t.Run("minimal config", func(t *testing.T) {
		cfg := Config{
			EntryScript:  "/opt/symk/fast-downward.py",
			LogLevel:     "info",
			SearchConfig: "sym-bd(bound=infinity)",
		}
		inv := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "plan.txt")
		assert.Equal(t, []string{
			"/opt/symk/fast-downward.py", "--plan-file", "plan.txt",
			"--log-level", "info",
			"d.pddl", "p.pddl",
			"--search-options", "--search", "sym-bd(bound=infinity)",
		}, []string(inv))
	})

	t.Run("all fields populated", func(t *testing.T) {
		cfg := Config{
			EntryScript:       "fd.py",
			Interpreter:       "python3",
			DriverOptions:     []string{"--translate", "--search"},
			SearchTimeLimit:   "5m",
			LogLevel:          "debug",
			Alias:             "",
			TranslateOptions:  []string{"--keep-unimportant-variables"},
			PreprocessOptions: []string{"--h2-time-limit", "60"},
			SearchConfig:      "sym-bd(bound=10)",
		}
		inv := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "out.txt")
		assert.Equal(t, []string{
			"python3", "fd.py", "--plan-file", "out.txt",
			"--translate", "--search",
			"--search-time-limit", "5m",
			"--log-level", "debug",
			"d.pddl", "p.pddl",
			"--translate-options", "--keep-unimportant-variables",
			"--preprocess-options", "--h2-time-limit", "60",
			"--search-options", "--search", "sym-bd(bound=10)",
		}, []string(inv))
	})

	t.Run("alias replaces search options", func(t *testing.T) {
		cfg := Config{
			EntryScript: "fd.py",
			LogLevel:    "info",
			Alias:       "lama-first",
		}
		inv := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "plan.txt")
		assert.Contains(t, []string(inv), "--alias")
		assert.Contains(t, []string(inv), "lama-first")
		assert.NotContains(t, []string(inv), "--search-options")
	})

	t.Run("anytime mode selects anytime search config", func(t *testing.T) {
		cfg := Config{
			EntryScript:         "fd.py",
			LogLevel:            "info",
			SearchConfig:        "sym-bd(bound=infinity)",
			AnytimeSearchConfig: "symk-bd(plan_selection=top_k(num_plans=infinity,dump_plans=true),bound=infinity)",
		}
		inv := BuildCommand(ModeAnytime, cfg, "d.pddl", "p.pddl", "plan.txt")
		assert.Contains(t, []string(inv), cfg.AnytimeSearchConfig)
		assert.NotContains(t, []string(inv), cfg.SearchConfig)
	})

	t.Run("search config with spaces splits into tokens", func(t *testing.T) {
		cfg := Config{
			EntryScript:  "fd.py",
			LogLevel:     "info",
			SearchConfig: "astar( blind() )",
		}
		inv := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "plan.txt")
		n := len(inv)
		require.GreaterOrEqual(t, n, 3)
		assert.Equal(t, []string{"astar(", "blind()", ")"}, []string(inv[n-3:]))
	})

	t.Run("deterministic", func(t *testing.T) {
		cfg := Config{
			EntryScript:  "fd.py",
			LogLevel:     "info",
			SearchConfig: "sym-bd(bound=infinity)",
		}
		a := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "plan.txt")
		b := BuildCommand(ModeOneShot, cfg, "d.pddl", "p.pddl", "plan.txt")
		assert.Equal(t, a, b)
	})
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "oneshot", ModeOneShot.String())
	assert.Equal(t, "anytime", ModeAnytime.String())
}
