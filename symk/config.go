// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package symk adapts the SymK optimal/top-k classical planner into the
generic planning-engine interface.

# Overview

SymK is an external, separately compiled solver invoked as a subprocess
through its fast-downward driver script. This package builds the command
line for one-shot and anytime modes, classifies the solver's documented
exit codes into result statuses, and orchestrates the solve: write PDDL,
run, parse, classify. The search algorithms themselves are opaque.

# Usage

	cfg, err := symk.NewConfig(symk.VariantTopK, "/opt/symk/fast-downward.py",
	    symk.WithInterpreter("python3"),
	    symk.WithNumberOfPlans(5),
	)
	if err != nil {
	    return err
	}
	engine := symk.New(symk.VariantTopK, cfg)
	result, err := engine.Solve(ctx, problem, symk.SolveOptions{Timeout: time.Minute})
*/
package symk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/symkgo/planner"
)

// =============================================================================
// Engine Variants
// =============================================================================

// Variant is the data table describing one solver flavor: its display
// name, its declared guarantees, and the engine names used when switching
// into oversubscription mode. Variants replace per-subclass guarantee
// predicates with inspectable data.
type Variant struct {
	// Name is the engine's display name.
	Name string

	// Guarantees are the variant's declared result guarantees.
	Guarantees planner.Guarantees

	// OneshotMetricsGuarantee is the status claimed for a one-shot solve
	// of a problem with quality metrics.
	OneshotMetricsGuarantee planner.ResultStatus

	// AnytimeMetricsGuarantee is the status claimed for the terminal
	// result of an anytime solve of a problem with quality metrics.
	AnytimeMetricsGuarantee planner.ResultStatus

	// AnytimeFamily is the search-engine family the variant's anytime
	// configuration must belong to ("symq" or "symk"); the OSP switch
	// checks it before substituting.
	AnytimeFamily string

	// OSPSearchEngine and OSPAnytimeEngine are the engine names
	// substituted into the search configurations in oversubscription mode.
	OSPSearchEngine  string
	OSPAnytimeEngine string
}

// VariantOptimal is SymK with the optimality guarantee: the anytime stream
// reports only optimal plans (top-q search).
var VariantOptimal = Variant{
	Name: "SymK (with optimality guarantee)",
	Guarantees: planner.Guarantees{
		OptimalOneshot: true,
		AnytimeOptimal: true,
		NoPlanFound:    planner.StatusUnsolvableProven,
	},
	OneshotMetricsGuarantee: planner.StatusSolvedOptimally,
	AnytimeMetricsGuarantee: planner.StatusSolvedOptimally,
	AnytimeFamily:           "symq",
	OSPSearchEngine:         "sym-osp-fw",
	OSPAnytimeEngine:        "symq-osp-fw",
}

// VariantTopK is plain SymK: one-shot solves are optimal, while the
// anytime stream reports plans with increasing costs, so intermediate and
// terminal plans carry no optimality claim.
var VariantTopK = Variant{
	Name: "SymK",
	Guarantees: planner.Guarantees{
		OptimalOneshot:  true,
		IncreasingCosts: true,
		NoPlanFound:     planner.StatusUnsolvableProven,
	},
	OneshotMetricsGuarantee: planner.StatusSolvedOptimally,
	AnytimeMetricsGuarantee: planner.StatusSolvedSatisficing,
	AnytimeFamily:           "symk",
	OSPSearchEngine:         "sym-osp-fw",
	OSPAnytimeEngine:        "symk-osp-fw",
}

// =============================================================================
// Configuration
// =============================================================================

// Config is the immutable solver configuration, built once per engine.
// After construction it is only ever copied, never mutated; the
// oversubscription mode switch substitutes engine names on a per-solve
// copy.
type Config struct {
	// EntryScript is the path to the solver's fast-downward driver script.
	EntryScript string `validate:"required"`

	// Interpreter runs EntryScript (e.g. "python3"). Empty executes the
	// script directly.
	Interpreter string

	// SearchConfig is the one-shot search configuration string.
	SearchConfig string

	// AnytimeSearchConfig is the anytime search configuration string.
	AnytimeSearchConfig string

	// Alias names a predefined driver configuration. Mutually exclusive
	// with an explicit SearchConfig.
	Alias string

	// DriverOptions are passed verbatim after --plan-file.
	DriverOptions []string

	// TranslateOptions follow --translate-options.
	TranslateOptions []string

	// PreprocessOptions follow --preprocess-options.
	PreprocessOptions []string

	// SearchTimeLimit is the solver-side wall-clock search limit, passed
	// verbatim (e.g. "30s", "5m").
	SearchTimeLimit string

	// LogLevel is the driver log verbosity.
	LogLevel string `validate:"oneof=debug info warning error"`

	// NumberOfPlans caps the anytime plan count; nil means unbounded.
	NumberOfPlans *int `validate:"omitempty,min=1"`

	// PlanCostBound bounds plan cost; nil means unbounded.
	PlanCostBound *int `validate:"omitempty,min=0"`
}

// Option configures NewConfig.
type Option func(*Config)

// WithInterpreter sets the interpreter running the entry script.
func WithInterpreter(path string) Option {
	return func(c *Config) { c.Interpreter = path }
}

// WithSearchConfig overrides the one-shot search configuration.
func WithSearchConfig(cfg string) Option {
	return func(c *Config) { c.SearchConfig = cfg }
}

// WithAnytimeSearchConfig overrides the anytime search configuration.
func WithAnytimeSearchConfig(cfg string) Option {
	return func(c *Config) { c.AnytimeSearchConfig = cfg }
}

// WithAlias selects a predefined driver configuration.
func WithAlias(alias string) Option {
	return func(c *Config) { c.Alias = alias }
}

// WithDriverOptions sets driver-level flags.
func WithDriverOptions(opts ...string) Option {
	return func(c *Config) { c.DriverOptions = opts }
}

// WithTranslateOptions sets translator options.
func WithTranslateOptions(opts ...string) Option {
	return func(c *Config) { c.TranslateOptions = opts }
}

// WithPreprocessOptions sets preprocessor options.
func WithPreprocessOptions(opts ...string) Option {
	return func(c *Config) { c.PreprocessOptions = opts }
}

// WithSearchTimeLimit sets the solver-side search time limit.
func WithSearchTimeLimit(limit string) Option {
	return func(c *Config) { c.SearchTimeLimit = limit }
}

// WithLogLevel sets driver log verbosity.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// WithNumberOfPlans caps how many plans the anytime search reports.
func WithNumberOfPlans(n int) Option {
	return func(c *Config) { c.NumberOfPlans = &n }
}

// WithPlanCostBound bounds the cost of acceptable plans.
func WithPlanCostBound(bound int) Option {
	return func(c *Config) { c.PlanCostBound = &bound }
}

var validate = validator.New()

// NewConfig builds and validates a solver configuration for a variant,
// filling in the variant's default search configurations where none are
// given. An alias combined with an explicit search configuration is a
// ConfigError: the two select the search engine through different
// channels.
func NewConfig(variant Variant, entryScript string, opts ...Option) (Config, error) {
	cfg := Config{
		EntryScript: entryScript,
		LogLevel:    "info",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	explicitSearch := cfg.SearchConfig != "" || cfg.AnytimeSearchConfig != ""
	if cfg.Alias != "" && explicitSearch {
		return Config{}, &ConfigError{
			Field:  "Alias",
			Reason: "an alias and an explicit search configuration are mutually exclusive",
		}
	}

	bound := formatInputValue(cfg.PlanCostBound)
	numPlans := formatInputValue(cfg.NumberOfPlans)

	if cfg.SearchConfig == "" && cfg.Alias == "" {
		cfg.SearchConfig = fmt.Sprintf("sym-bd(bound=%s)", bound)
	}
	if cfg.AnytimeSearchConfig == "" && cfg.Alias == "" {
		switch variant.AnytimeFamily {
		case "symq":
			cfg.AnytimeSearchConfig = fmt.Sprintf(
				"symq-bd(plan_selection=top_k(num_plans=%s,dump_plans=true),bound=%s,quality=1.0)",
				numPlans, bound)
		default:
			cfg.AnytimeSearchConfig = fmt.Sprintf(
				"symk-bd(plan_selection=top_k(num_plans=%s,dump_plans=true),bound=%s)",
				numPlans, bound)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, &ConfigError{Field: "Config", Reason: err.Error()}
	}
	return cfg, nil
}

// formatInputValue renders an optional numeric limit the way the solver
// expects: absent values become "infinity".
func formatInputValue(v *int) string {
	if v == nil {
		return "infinity"
	}
	return strconv.Itoa(*v)
}

// replaceSearchEngine substitutes the engine name in a search
// configuration while preserving its parameter list, e.g.
// replaceSearchEngine("sym-bd(bound=10)", "sym-osp-fw") yields
// "sym-osp-fw(bound=10)". This is the only sanctioned config mutation and
// always operates on a per-solve copy.
func replaceSearchEngine(searchConfig, engine string) (string, error) {
	idx := strings.Index(searchConfig, "(")
	if idx < 0 {
		return "", &ConfigError{
			Field:  "SearchConfig",
			Reason: fmt.Sprintf("no opening parenthesis in search configuration %q", searchConfig),
		}
	}
	return engine + searchConfig[idx:], nil
}
