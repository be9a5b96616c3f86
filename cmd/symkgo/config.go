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

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/symkgo/symk"
)

// Config is the CLI configuration, loaded from a YAML file and overridden
// by flags. All fields are optional except the solver entry script, which
// may also come from --entry-script.
type Config struct {
	// EntryScript is the path to the SymK fast-downward driver script.
	EntryScript string `yaml:"entry_script"`

	// Interpreter runs the entry script, e.g. "python3". Empty executes
	// the script directly.
	Interpreter string `yaml:"interpreter"`

	// Variant selects the engine flavor: "optimal" or "topk".
	Variant string `yaml:"variant"`

	// SearchConfig and AnytimeSearchConfig override the variant defaults.
	SearchConfig        string `yaml:"search_config"`
	AnytimeSearchConfig string `yaml:"anytime_search_config"`

	// Alias names a predefined driver configuration.
	Alias string `yaml:"alias"`

	DriverOptions     []string `yaml:"driver_options"`
	TranslateOptions  []string `yaml:"translate_options"`
	PreprocessOptions []string `yaml:"preprocess_options"`

	// SearchTimeLimit is the solver-side search limit, e.g. "5m".
	SearchTimeLimit string `yaml:"search_time_limit"`

	// SolverLogLevel is the driver's own verbosity (debug/info/warning/error).
	SolverLogLevel string `yaml:"solver_log_level"`

	// NumberOfPlans caps the anytime plan count; omit for unbounded.
	NumberOfPlans *int `yaml:"number_of_plans"`

	// PlanCostBound bounds plan cost; omit for unbounded.
	PlanCostBound *int `yaml:"plan_cost_bound"`

	// Logging configures the CLI's own logging.
	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`
}

// loadConfig reads the YAML config. A missing file at the default path is
// fine (flags can supply everything); an explicitly given path must exist.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == defaultConfigPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// buildEngine assembles a solver engine from the loaded config plus any
// flag overrides already applied to it.
func buildEngine() (*symk.Engine, error) {
	variant := symk.VariantTopK
	switch config.Variant {
	case "", "topk":
	case "optimal":
		variant = symk.VariantOptimal
	default:
		return nil, fmt.Errorf("unknown variant %q (want \"optimal\" or \"topk\")", config.Variant)
	}

	if config.EntryScript == "" {
		return nil, fmt.Errorf("no solver entry script (set entry_script in %s or pass --entry-script)", configPath)
	}

	var opts []symk.Option
	if config.Interpreter != "" {
		opts = append(opts, symk.WithInterpreter(config.Interpreter))
	}
	if config.SearchConfig != "" {
		opts = append(opts, symk.WithSearchConfig(config.SearchConfig))
	}
	if config.AnytimeSearchConfig != "" {
		opts = append(opts, symk.WithAnytimeSearchConfig(config.AnytimeSearchConfig))
	}
	if config.Alias != "" {
		opts = append(opts, symk.WithAlias(config.Alias))
	}
	if len(config.DriverOptions) > 0 {
		opts = append(opts, symk.WithDriverOptions(config.DriverOptions...))
	}
	if len(config.TranslateOptions) > 0 {
		opts = append(opts, symk.WithTranslateOptions(config.TranslateOptions...))
	}
	if len(config.PreprocessOptions) > 0 {
		opts = append(opts, symk.WithPreprocessOptions(config.PreprocessOptions...))
	}
	if config.SearchTimeLimit != "" {
		opts = append(opts, symk.WithSearchTimeLimit(config.SearchTimeLimit))
	}
	if config.SolverLogLevel != "" {
		opts = append(opts, symk.WithLogLevel(config.SolverLogLevel))
	}
	if config.NumberOfPlans != nil {
		opts = append(opts, symk.WithNumberOfPlans(*config.NumberOfPlans))
	}
	if config.PlanCostBound != nil {
		opts = append(opts, symk.WithPlanCostBound(*config.PlanCostBound))
	}

	cfg, err := symk.NewConfig(variant, config.EntryScript, opts...)
	if err != nil {
		return nil, err
	}
	return symk.New(variant, cfg, symk.WithLogger(logger.Slog())), nil
}
