// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/symkgo/planner"
	"github.com/AleutianAI/symkgo/planner/runner"
)

var (
	tracer = otel.Tracer("symkgo.stream")
	meter  = otel.Meter("symkgo.stream")
)

// Session metrics, initialized lazily with graceful degradation.
var (
	metricsOnce     sync.Once
	plansFound      metric.Int64Counter
	sessionDuration metric.Float64Histogram
	activeSessions  metric.Int64UpDownCounter
)

func initMetrics(logger *slog.Logger) {
	metricsOnce.Do(func() {
		var err error
		plansFound, err = meter.Int64Counter("planner_plans_found_total",
			metric.WithDescription("Plans reported by anytime sessions"))
		if err != nil {
			logger.Warn("metric init failed", "metric", "planner_plans_found_total", "error", err)
		}
		sessionDuration, err = meter.Float64Histogram("planner_session_duration_seconds",
			metric.WithDescription("Anytime session wall-clock duration"),
			metric.WithUnit("s"))
		if err != nil {
			logger.Warn("metric init failed", "metric", "planner_session_duration_seconds", "error", err)
		}
		activeSessions, err = meter.Int64UpDownCounter("planner_active_sessions",
			metric.WithDescription("Currently running anytime sessions"))
		if err != nil {
			logger.Warn("metric init failed", "metric", "planner_active_sessions", "error", err)
		}
	})
}

// =============================================================================
// Session Configuration
// =============================================================================

// ClassifyFunc maps the subprocess outcome to a terminal status once the
// process has exited. The engine supplies it with its guarantees already
// bound; a nil exit code means "unknown, assume success if a plan exists".
type ClassifyFunc func(planFound bool, exitCode *int) planner.ResultStatus

// SessionConfig wires one anytime solve.
type SessionConfig struct {
	// Invocation is the anytime-mode solver command. Required.
	Invocation planner.Invocation

	// Runner executes the invocation; nil uses the platform default
	// streaming strategy.
	Runner runner.Runner

	// Timeout bounds the subprocess wall clock; zero means unbounded.
	// Queue operations are never subject to it.
	Timeout time.Duration

	// Classify resolves the terminal status after process exit. Required.
	Classify ClassifyFunc

	// Lookup grounds plan candidates into the caller's problem. Optional;
	// without it results carry raw steps only.
	Lookup planner.ItemLookup

	// Sink, when non-nil, receives the raw solver output in addition to
	// the parser.
	Sink runner.Sink

	// EngineName is stamped on every result.
	EngineName string

	// Cleanup runs after the session finishes or is closed, e.g. removing
	// the temporary PDDL directory. Optional.
	Cleanup func()

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// =============================================================================
// Session
// =============================================================================

// Session is one anytime solve: a background goroutine runs the subprocess
// and parser, publishing results in emission order through a channel. The
// sequence is finite and not restartable; intermediate results strictly
// precede the single terminal result.
//
// Consumers iterate Results until a terminal status and must call Close
// when done. Abandoning iteration early is safe: Close terminates the
// still-running child process (ignoring already-exited errors) and joins
// the background goroutine before returning.
type Session struct {
	id      uuid.UUID
	cfg     SessionConfig
	logger  *slog.Logger
	results chan planner.Result

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	parser       *PlanParser
	terminalSent bool
}

// NewSession starts the background solve and returns immediately.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Runner == nil {
		cfg.Runner = runner.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	initMetrics(cfg.Logger)

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.New(),
		cfg:     cfg,
		results: make(chan planner.Result),
		cancel:  cancel,
		done:    make(chan struct{}),
		parser:  NewPlanParser(),
	}
	s.logger = cfg.Logger.With("session_id", s.id.String(), "engine", cfg.EngineName)

	go s.run(ctx)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Results is the session's result stream. It is closed after the terminal
// result has been delivered or the session is closed.
func (s *Session) Results() <-chan planner.Result {
	return s.results
}

// Close cancels the subprocess if it is still running, waits for the
// background goroutine to exit, and releases resources. It is idempotent
// and safe to call from any goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// run executes the subprocess and publishes results. It owns all parser
// state: the runner serializes sink callbacks, and the terminal resolution
// below happens only after the runner has returned.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.results)
	if s.cfg.Cleanup != nil {
		defer s.cfg.Cleanup()
	}

	ctx, span := tracer.Start(ctx, "stream.Session",
		trace.WithAttributes(attribute.String("engine", s.cfg.EngineName)))
	defer span.End()

	if activeSessions != nil {
		activeSessions.Add(ctx, 1)
		defer activeSessions.Add(ctx, -1)
	}
	start := time.Now()
	defer func() {
		if sessionDuration != nil {
			sessionDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	s.logger.Info("anytime session started", "invocation", s.cfg.Invocation.String())

	sink := &sessionSink{session: s, ctx: ctx}
	outcome, err := s.cfg.Runner.Run(ctx, s.cfg.Invocation, runner.Options{
		Timeout: s.cfg.Timeout,
		Sink:    sink,
	})
	for _, ev := range s.parser.Flush() {
		s.publishEvent(ctx, ev)
	}
	if s.terminalSent || ctx.Err() != nil {
		return
	}
	if err != nil {
		// The runner itself failed (start, pipe setup); there is no exit
		// code to trust, so the run degrades to an internal error.
		s.logger.Error("solver execution failed", "error", err)
		res := s.newResult(planner.StatusInternalError, nil)
		res.Logs = []planner.LogMessage{
			{Level: slog.LevelError, Message: err.Error()},
		}
		s.publish(ctx, res)
		return
	}
	s.publish(ctx, s.terminalResult(outcome))
}

// terminalResult resolves the final status from the real process outcome;
// the solver's exit-code contract lives in the Classify closure.
func (s *Session) terminalResult(outcome runner.Outcome) planner.Result {
	steps, planFound := s.parser.LastPlan()

	var status planner.ResultStatus
	switch {
	case outcome.TimedOut && !planFound:
		status = planner.StatusTimeout
	case outcome.TimedOut:
		// The deadline hit after a plan was already found: success with
		// partial output, exit code unknowable.
		status = s.cfg.Classify(true, nil)
	default:
		status = s.cfg.Classify(planFound, outcome.ExitCode)
	}

	res := s.newResult(status, steps)
	res.Logs = []planner.LogMessage{
		{Level: slog.LevelInfo, Message: outcome.Stdout},
		{Level: slog.LevelError, Message: outcome.Stderr},
	}
	return res
}

// publishEvent converts a parser event into a result and publishes it.
// Nothing may follow a terminal result.
func (s *Session) publishEvent(ctx context.Context, ev Event) {
	if s.terminalSent {
		return
	}
	switch ev.Kind {
	case EventPlanFound:
		if plansFound != nil {
			plansFound.Add(ctx, 1)
		}
		s.logger.Debug("plan found", "index", ev.Index, "steps", len(ev.Steps))
		s.publish(ctx, s.newResult(planner.StatusIntermediate, ev.Steps))
	case EventSearchDone:
		// The exit code is not observable yet; the plan in hand decides.
		s.publish(ctx, s.newResult(s.cfg.Classify(true, nil), ev.Steps))
	}
}

// newResult builds a result, grounding the candidate when a lookup is
// available. A candidate the problem cannot account for degrades the
// session to an internal error rather than surfacing a bogus plan.
func (s *Session) newResult(status planner.ResultStatus, steps []string) planner.Result {
	res := planner.Result{
		ID:         uuid.New(),
		Status:     status,
		Steps:      steps,
		EngineName: s.cfg.EngineName,
	}
	if s.cfg.Lookup != nil && len(steps) > 0 {
		plan, err := planner.PlanFromSteps(steps, s.cfg.Lookup)
		if err != nil {
			s.logger.Error("plan reconstruction failed", "error", err)
			res.Status = planner.StatusInternalError
			res.Steps = nil
			return res
		}
		res.Plan = plan
	}
	return res
}

// publish delivers a result, giving up when the session is cancelled so an
// abandoned consumer never wedges the producer.
func (s *Session) publish(ctx context.Context, res planner.Result) {
	if res.Status.IsTerminal() {
		s.terminalSent = true
	}
	select {
	case s.results <- res:
	case <-ctx.Done():
	}
}

// =============================================================================
// Sink
// =============================================================================

// sessionSink feeds solver output to the parser and tees it to the
// caller's sink. The runner serializes calls.
type sessionSink struct {
	session *Session
	ctx     context.Context
}

func (k *sessionSink) Stdout(p []byte) {
	if k.session.cfg.Sink != nil {
		k.session.cfg.Sink.Stdout(p)
	}
	for _, ev := range k.session.parser.Feed(p) {
		k.session.publishEvent(k.ctx, ev)
	}
}

func (k *sessionSink) Stderr(p []byte) {
	if k.session.cfg.Sink != nil {
		k.session.cfg.Sink.Stderr(p)
	}
}

var _ runner.Sink = (*sessionSink)(nil)
