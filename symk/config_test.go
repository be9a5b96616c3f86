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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults for top-k variant", func(t *testing.T) {
		cfg, err := NewConfig(VariantTopK, "fd.py")
		require.NoError(t, err)
		assert.Equal(t, "fd.py", cfg.EntryScript)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "sym-bd(bound=infinity)", cfg.SearchConfig)
		assert.Equal(t,
			"symk-bd(plan_selection=top_k(num_plans=infinity,dump_plans=true),bound=infinity)",
			cfg.AnytimeSearchConfig)
	})

	t.Run("defaults for optimal variant", func(t *testing.T) {
		cfg, err := NewConfig(VariantOptimal, "fd.py")
		require.NoError(t, err)
		assert.Equal(t, "sym-bd(bound=infinity)", cfg.SearchConfig)
		assert.Equal(t,
			"symq-bd(plan_selection=top_k(num_plans=infinity,dump_plans=true),bound=infinity,quality=1.0)",
			cfg.AnytimeSearchConfig)
	})

	t.Run("plan limits interpolated", func(t *testing.T) {
		cfg, err := NewConfig(VariantTopK, "fd.py",
			WithNumberOfPlans(5),
			WithPlanCostBound(20),
		)
		require.NoError(t, err)
		assert.Equal(t, "sym-bd(bound=20)", cfg.SearchConfig)
		assert.Equal(t,
			"symk-bd(plan_selection=top_k(num_plans=5,dump_plans=true),bound=20)",
			cfg.AnytimeSearchConfig)
	})

	t.Run("explicit search config preserved", func(t *testing.T) {
		cfg, err := NewConfig(VariantTopK, "fd.py",
			WithSearchConfig("astar(blind())"),
		)
		require.NoError(t, err)
		assert.Equal(t, "astar(blind())", cfg.SearchConfig)
		// The anytime default is still filled in.
		assert.NotEmpty(t, cfg.AnytimeSearchConfig)
	})

	t.Run("alias suppresses search defaults", func(t *testing.T) {
		cfg, err := NewConfig(VariantTopK, "fd.py", WithAlias("seq-opt-symk"))
		require.NoError(t, err)
		assert.Empty(t, cfg.SearchConfig)
		assert.Empty(t, cfg.AnytimeSearchConfig)
	})

	t.Run("alias with explicit search is rejected", func(t *testing.T) {
		_, err := NewConfig(VariantTopK, "fd.py",
			WithAlias("seq-opt-symk"),
			WithSearchConfig("astar(blind())"),
		)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "Alias", cfgErr.Field)
	})

	t.Run("missing entry script is rejected", func(t *testing.T) {
		_, err := NewConfig(VariantTopK, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("bad log level is rejected", func(t *testing.T) {
		_, err := NewConfig(VariantTopK, "fd.py", WithLogLevel("trace"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("zero plan count is rejected", func(t *testing.T) {
		_, err := NewConfig(VariantTopK, "fd.py", WithNumberOfPlans(0))
		require.Error(t, err)
	})

	t.Run("negative cost bound is rejected", func(t *testing.T) {
		_, err := NewConfig(VariantTopK, "fd.py", WithPlanCostBound(-1))
		require.Error(t, err)
	})

	t.Run("remaining options pass through", func(t *testing.T) {
		cfg, err := NewConfig(VariantTopK, "fd.py",
			WithInterpreter("python3"),
			WithDriverOptions("--build", "release"),
			WithTranslateOptions("--keep-unimportant-variables"),
			WithPreprocessOptions("--h2-time-limit", "60"),
			WithSearchTimeLimit("30s"),
			WithLogLevel("debug"),
		)
		require.NoError(t, err)
		assert.Equal(t, "python3", cfg.Interpreter)
		assert.Equal(t, []string{"--build", "release"}, cfg.DriverOptions)
		assert.Equal(t, []string{"--keep-unimportant-variables"}, cfg.TranslateOptions)
		assert.Equal(t, []string{"--h2-time-limit", "60"}, cfg.PreprocessOptions)
		assert.Equal(t, "30s", cfg.SearchTimeLimit)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestReplaceSearchEngine(t *testing.T) {
	t.Run("swaps engine keeping parameters", func(t *testing.T) {
		got, err := replaceSearchEngine("sym-bd(bound=10)", "sym-osp-fw")
		require.NoError(t, err)
		assert.Equal(t, "sym-osp-fw(bound=10)", got)
	})

	t.Run("nested parameters untouched", func(t *testing.T) {
		got, err := replaceSearchEngine(
			"symk-bd(plan_selection=top_k(num_plans=3,dump_plans=true),bound=infinity)",
			"symk-osp-fw")
		require.NoError(t, err)
		assert.Equal(t,
			"symk-osp-fw(plan_selection=top_k(num_plans=3,dump_plans=true),bound=infinity)",
			got)
	})

	t.Run("no parenthesis is an error", func(t *testing.T) {
		_, err := replaceSearchEngine("sym-bd", "sym-osp-fw")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestFormatInputValue(t *testing.T) {
	assert.Equal(t, "infinity", formatInputValue(nil))
	n := 7
	assert.Equal(t, "7", formatInputValue(&n))
}
