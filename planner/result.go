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
Package planner defines the shared vocabulary between planning engines and
their callers: result statuses, plan generation results, declared engine
guarantees, and subprocess invocations.

# Overview

An engine produces a sequence of Result values (one for a one-shot solve,
several for an anytime solve). The Status field carries the engine's claim
about the result: whether the plan is optimal, merely valid, an intermediate
improvement, or whether the problem was proven unsolvable. Statuses are a
closed set; downstream code may exhaustively switch on them.

# Thread Safety

All types in this package are immutable value types once constructed and
are safe to share across goroutines.
*/
package planner

import (
	"log/slog"

	"github.com/google/uuid"
)

// =============================================================================
// Result Status
// =============================================================================

// ResultStatus classifies the outcome of a plan generation attempt.
//
// The set is closed. StatusIntermediate is only ever produced mid-stream by
// an anytime session and never as a terminal classification.
type ResultStatus int

const (
	// StatusSolvedOptimally means a plan was found and the engine
	// guarantees it is optimal with respect to the problem's metrics.
	StatusSolvedOptimally ResultStatus = iota

	// StatusSolvedSatisficing means a valid plan was found with no
	// optimality claim attached.
	StatusSolvedSatisficing

	// StatusIntermediate marks a non-final plan reported by an anytime
	// search; a later result supersedes it.
	StatusIntermediate

	// StatusTimeout means the wall-clock budget elapsed before the solver
	// produced any plan.
	StatusTimeout

	// StatusUnsolvableProven means the solver exhausted the search space
	// and proved no plan exists.
	StatusUnsolvableProven

	// StatusUnsolvableIncompletely means the solver found no plan but its
	// search was incomplete, so unsolvability is not proven.
	StatusUnsolvableIncompletely

	// StatusInternalError means the solver failed in a way not covered by
	// its documented exit-code contract.
	StatusInternalError
)

// String returns the canonical name of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusSolvedOptimally:
		return "SOLVED_OPTIMALLY"
	case StatusSolvedSatisficing:
		return "SOLVED_SATISFICING"
	case StatusIntermediate:
		return "INTERMEDIATE"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusUnsolvableProven:
		return "UNSOLVABLE_PROVEN"
	case StatusUnsolvableIncompletely:
		return "UNSOLVABLE_INCOMPLETELY"
	case StatusInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the status ends a result stream. Every status
// except StatusIntermediate is terminal.
func (s ResultStatus) IsTerminal() bool {
	return s != StatusIntermediate
}

// Solved reports whether the status carries a usable plan.
func (s ResultStatus) Solved() bool {
	switch s {
	case StatusSolvedOptimally, StatusSolvedSatisficing, StatusIntermediate:
		return true
	default:
		return false
	}
}

// =============================================================================
// Log Messages
// =============================================================================

// LogMessage is a captured chunk of solver output attached to a Result.
type LogMessage struct {
	Level   slog.Level
	Message string
}

// =============================================================================
// Result
// =============================================================================

// Result is one outcome of a plan generation attempt.
//
// Steps always holds the raw action steps as extracted from solver output
// (the plan candidate). Plan is non-nil only when an item-lookup table was
// available to ground the candidate back into the problem's actions and
// objects; callers that only need the textual plan can ignore it.
type Result struct {
	// ID identifies this result within a session.
	ID uuid.UUID

	// Status is the engine's claim about this result.
	Status ResultStatus

	// Steps is the plan candidate: one "(action arg1 arg2)" string per
	// step, in execution order. Empty when no plan was found.
	Steps []string

	// Plan is the grounded plan, when reconstruction was possible.
	Plan *Plan

	// Logs carries the solver's captured stdout/stderr.
	Logs []LogMessage

	// EngineName names the engine variant that produced this result.
	EngineName string
}

// HasPlan reports whether this result carries a plan in either form.
func (r Result) HasPlan() bool {
	return len(r.Steps) > 0 || (r.Plan != nil && len(r.Plan.Steps) > 0)
}
