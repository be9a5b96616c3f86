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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/symkgo/planner"
	"github.com/AleutianAI/symkgo/planner/pddl"
	"github.com/AleutianAI/symkgo/planner/runner"
	"github.com/AleutianAI/symkgo/planner/stream"
)

var (
	tracer = otel.Tracer("symkgo.symk")
	meter  = otel.Meter("symkgo.symk")
)

var (
	metricsOnce   sync.Once
	solveDuration metric.Float64Histogram
	solveFailures metric.Int64Counter
)

func initMetrics(logger *slog.Logger) {
	metricsOnce.Do(func() {
		var err error
		solveDuration, err = meter.Float64Histogram("symk_solve_duration_seconds",
			metric.WithDescription("One-shot solve wall-clock duration"),
			metric.WithUnit("s"))
		if err != nil {
			logger.Warn("metric init failed", "metric", "symk_solve_duration_seconds", "error", err)
		}
		solveFailures, err = meter.Int64Counter("symk_solve_failures_total",
			metric.WithDescription("Solves classified as internal errors"))
		if err != nil {
			logger.Warn("metric init failed", "metric", "symk_solve_failures_total", "error", err)
		}
	})
}

// =============================================================================
// Engine
// =============================================================================

// Engine runs the SymK solver for one variant. It is safe for concurrent
// use: the configuration is read-only after construction, and all per-call
// state (including the oversubscription mode switch) lives on copies.
type Engine struct {
	variant  Variant
	cfg      Config
	buffered runner.Runner
	stream   runner.Runner
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRunner replaces both execution strategies, primarily for tests.
func WithRunner(r runner.Runner) EngineOption {
	return func(e *Engine) {
		e.buffered = r
		e.stream = r
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// New builds an engine for a variant with a validated configuration.
func New(variant Variant, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		variant:  variant,
		cfg:      cfg,
		buffered: runner.NewBuffered(),
		stream:   runner.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("engine", variant.Name)
	initMetrics(e.logger)
	return e
}

// Name returns the engine's display name.
func (e *Engine) Name() string {
	return e.variant.Name
}

// Guarantees returns the variant's declared guarantees.
func (e *Engine) Guarantees() planner.Guarantees {
	return e.variant.Guarantees
}

// SolveOptions configures a single solve call.
type SolveOptions struct {
	// Timeout bounds the subprocess wall clock; zero means unbounded.
	Timeout time.Duration

	// Sink, when non-nil, receives raw solver output live. A one-shot
	// solve with a sink uses the streaming execution strategy.
	Sink runner.Sink
}

// =============================================================================
// Problem Preparation
// =============================================================================

// problemWriter is the slice of the PDDL writer surface a solve needs.
type problemWriter interface {
	planner.ItemLookup
	WriteDomainFile(path string) error
	WriteProblemFile(path string) error
}

// prepared carries the per-call state of one solve.
type prepared struct {
	cfg        Config
	writer     problemWriter
	hasMetrics bool
}

// prepare resolves the per-call configuration and writer. Oversubscription
// problems switch the search engines to the OSP variants on a copy of the
// configuration, force the driver to the translate and search stages, and
// use the OSP writer; everything else passes through unchanged.
func (e *Engine) prepare(problem *pddl.Problem) (prepared, error) {
	p := prepared{cfg: e.cfg, hasMetrics: problem.HasQualityMetrics()}

	if _, osp := problem.OversubscriptionMetric(); !osp {
		w, err := pddl.NewWriter(problem)
		if err != nil {
			return prepared{}, err
		}
		p.writer = w
		return p, nil
	}

	w, err := pddl.NewOSPWriter(problem)
	if err != nil {
		return prepared{}, err
	}
	p.writer = w

	p.cfg.DriverOptions = []string{"--translate", "--search"}
	if p.cfg.SearchConfig != "" {
		p.cfg.SearchConfig, err = replaceSearchEngine(p.cfg.SearchConfig, e.variant.OSPSearchEngine)
		if err != nil {
			return prepared{}, err
		}
	}
	if p.cfg.AnytimeSearchConfig != "" {
		if !strings.Contains(p.cfg.AnytimeSearchConfig, e.variant.AnytimeFamily) {
			return prepared{}, &ConfigError{
				Field: "AnytimeSearchConfig",
				Reason: fmt.Sprintf("oversubscription mode requires a %q search engine, got %q",
					e.variant.AnytimeFamily, p.cfg.AnytimeSearchConfig),
			}
		}
		p.cfg.AnytimeSearchConfig, err = replaceSearchEngine(p.cfg.AnytimeSearchConfig, e.variant.OSPAnytimeEngine)
		if err != nil {
			return prepared{}, err
		}
	}
	return p, nil
}

// writeTask writes domain and problem files into dir and returns their
// paths plus the plan output path.
func writeTask(w problemWriter, dir string) (domain, problem, plan string, err error) {
	domain = filepath.Join(dir, "domain.pddl")
	problem = filepath.Join(dir, "problem.pddl")
	plan = filepath.Join(dir, "plan.txt")
	if err = w.WriteDomainFile(domain); err != nil {
		return "", "", "", err
	}
	if err = w.WriteProblemFile(problem); err != nil {
		return "", "", "", err
	}
	return domain, problem, plan, nil
}

// =============================================================================
// One-Shot Solve
// =============================================================================

// Solve runs a one-shot solve: write the problem, execute the solver to
// completion, read the plan file back, classify. Process-level failures
// come back as a classified Result, not an error; only structural problems
// (unsupported shape, invalid configuration, I/O) error out.
func (e *Engine) Solve(ctx context.Context, problem *pddl.Problem, opts SolveOptions) (planner.Result, error) {
	p, err := e.prepare(problem)
	if err != nil {
		return planner.Result{}, err
	}

	dir, err := os.MkdirTemp("", "symkgo-*")
	if err != nil {
		return planner.Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	domainPath, problemPath, planPath, err := writeTask(p.writer, dir)
	if err != nil {
		return planner.Result{}, err
	}

	inv := BuildCommand(ModeOneShot, p.cfg, domainPath, problemPath, planPath)
	return e.execute(ctx, inv, planPath, p.writer, p.hasMetrics, opts)
}

// SolveFiles runs a one-shot solve on pre-written PDDL files. Results
// carry raw steps only: without the writer's lookup table there is nothing
// to ground against. hasQualityMetrics states whether the problem declares
// quality metrics, which decides the optimality claim of a solved result.
func (e *Engine) SolveFiles(ctx context.Context, domainPath, problemPath string, hasQualityMetrics bool, opts SolveOptions) (planner.Result, error) {
	dir, err := os.MkdirTemp("", "symkgo-*")
	if err != nil {
		return planner.Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	planPath := filepath.Join(dir, "plan.txt")
	inv := BuildCommand(ModeOneShot, e.cfg, domainPath, problemPath, planPath)
	return e.execute(ctx, inv, planPath, nil, hasQualityMetrics, opts)
}

// execute runs the invocation and classifies the outcome.
func (e *Engine) execute(ctx context.Context, inv planner.Invocation, planPath string, lookup planner.ItemLookup, hasMetrics bool, opts SolveOptions) (planner.Result, error) {
	ctx, span := tracer.Start(ctx, "symk.Solve",
		trace.WithAttributes(
			attribute.String("engine", e.variant.Name),
			attribute.String("mode", ModeOneShot.String()),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		if solveDuration != nil {
			solveDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	e.logger.Info("solver started", "invocation", inv.String())

	run := e.buffered
	if opts.Sink != nil {
		run = e.stream
	}
	outcome, err := run.Run(ctx, inv, runner.Options{Timeout: opts.Timeout, Sink: opts.Sink})
	if err != nil {
		return planner.Result{}, fmt.Errorf("solver execution: %w", err)
	}

	result := planner.Result{
		ID:         uuid.New(),
		EngineName: e.variant.Name,
		Logs: []planner.LogMessage{
			{Level: slog.LevelInfo, Message: outcome.Stdout},
			{Level: slog.LevelError, Message: outcome.Stderr},
		},
	}

	if steps, rerr := e.readPlan(planPath, lookup, &result); rerr != nil {
		return planner.Result{}, rerr
	} else {
		result.Steps = steps
	}
	planFound := len(result.Steps) > 0

	switch {
	case outcome.TimedOut && !planFound:
		result.Status = planner.StatusTimeout
	case outcome.TimedOut:
		// Plan in hand when the deadline hit: success with partial
		// output; the exit code of a killed process proves nothing.
		result.Status = Classify(true, nil, hasMetrics, e.variant.Guarantees.NoPlanFound, e.variant.OneshotMetricsGuarantee)
	default:
		result.Status = Classify(planFound, outcome.ExitCode, hasMetrics, e.variant.Guarantees.NoPlanFound, e.variant.OneshotMetricsGuarantee)
	}

	if result.Status == planner.StatusInternalError && solveFailures != nil {
		solveFailures.Add(ctx, 1)
	}
	e.logger.Info("solver finished",
		"status", result.Status.String(),
		"exit_code", exitCodeAttr(outcome.ExitCode),
		"timed_out", outcome.TimedOut,
	)
	return result, nil
}

// readPlan loads the plan file if the solver produced one. A missing file
// simply means no plan.
func (e *Engine) readPlan(planPath string, lookup planner.ItemLookup, result *planner.Result) ([]string, error) {
	if _, err := os.Stat(planPath); err != nil {
		return nil, nil
	}
	steps, err := pddl.ReadPlanSteps(planPath)
	if err != nil {
		return nil, err
	}
	if lookup != nil && len(steps) > 0 {
		plan, err := planner.PlanFromSteps(steps, lookup)
		if err != nil {
			return nil, err
		}
		result.Plan = plan
	}
	return steps, nil
}

func exitCodeAttr(code *int) any {
	if code == nil {
		return "absent"
	}
	return *code
}

// =============================================================================
// Anytime Solve
// =============================================================================

// SolveAnytime starts an anytime solve and returns its session. The caller
// iterates session.Results() until a terminal status and must Close the
// session; abandoning the stream early kills the solver.
func (e *Engine) SolveAnytime(ctx context.Context, problem *pddl.Problem, opts SolveOptions) (*stream.Session, error) {
	p, err := e.prepare(problem)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "symkgo-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	domainPath, problemPath, planPath, err := writeTask(p.writer, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	inv := BuildCommand(ModeAnytime, p.cfg, domainPath, problemPath, planPath)
	return e.newSession(ctx, inv, p.writer, p.hasMetrics, dir, opts)
}

// SolveFilesAnytime starts an anytime solve on pre-written PDDL files.
func (e *Engine) SolveFilesAnytime(ctx context.Context, domainPath, problemPath string, hasQualityMetrics bool, opts SolveOptions) (*stream.Session, error) {
	dir, err := os.MkdirTemp("", "symkgo-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	planPath := filepath.Join(dir, "plan.txt")
	inv := BuildCommand(ModeAnytime, e.cfg, domainPath, problemPath, planPath)
	return e.newSession(ctx, inv, nil, hasQualityMetrics, dir, opts)
}

func (e *Engine) newSession(ctx context.Context, inv planner.Invocation, lookup planner.ItemLookup, hasMetrics bool, tempDir string, opts SolveOptions) (*stream.Session, error) {
	classify := func(planFound bool, exitCode *int) planner.ResultStatus {
		return Classify(planFound, exitCode, hasMetrics, e.variant.Guarantees.NoPlanFound, e.variant.AnytimeMetricsGuarantee)
	}

	// Observe the plan files the solver dumps alongside --plan-file; they
	// stay on disk for the session's lifetime so callers can read the raw
	// artifacts behind each streamed result.
	watcher, err := stream.NewPlanWatcher(tempDir, "plan.txt", e.logger)
	if err != nil {
		e.logger.Warn("plan file watcher unavailable", "dir", tempDir, "error", err)
		watcher = nil
	} else {
		go func() {
			for path := range watcher.Plans() {
				e.logger.Debug("plan file written", "path", path)
			}
		}()
	}

	cleanup := func() {
		if watcher != nil {
			watcher.Close()
		}
		os.RemoveAll(tempDir)
	}
	return stream.NewSession(ctx, stream.SessionConfig{
		Invocation: inv,
		Runner:     e.stream,
		Timeout:    opts.Timeout,
		Classify:   classify,
		Lookup:     lookup,
		Sink:       opts.Sink,
		EngineName: e.variant.Name,
		Cleanup:    cleanup,
		Logger:     e.logger,
	})
}
