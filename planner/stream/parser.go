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
Package stream turns live solver output into discrete plan events and feeds
them to a consumer through an anytime session.

# Overview

The solver's anytime mode prints plans incrementally with no structured
delimiter beyond textual markers:

	[t=0.05s, 10884 KB] New plan 1: cost = 8
	move a b (1)
	move b c (1)
	[t=0.05s, 10884 KB] Plan length: 2 step(s).
	...
	search exit code: 0

PlanParser is a line-oriented state machine over these markers, independent
of how the text stream is produced. Session composes a runner, the parser
and a channel into the producer/consumer protocol anytime callers iterate.

# Thread Safety

PlanParser is not safe for concurrent use; a Session serializes all parser
access internally. Session itself is safe to Close from any goroutine.
*/
package stream

import (
	"regexp"
	"strings"
)

// =============================================================================
// Events
// =============================================================================

// EventKind discriminates parser events.
type EventKind int

const (
	// EventPlanFound reports one complete plan extracted from the stream.
	EventPlanFound EventKind = iota

	// EventSearchDone reports imminent solver termination with the last
	// complete plan as the stream's final answer. Emitted at most once,
	// and only if a complete plan was captured.
	EventSearchDone
)

// Event is one parser emission.
type Event struct {
	Kind EventKind

	// Index is the one-based plan index from the plan header; zero for
	// EventSearchDone.
	Index int

	// Steps is the plan candidate, one "(action args)" string per step.
	Steps []string
}

// =============================================================================
// Parser
// =============================================================================

// Parser markers, per the solver's output contract.
const (
	timestampTag       = "[t="
	planEndMarker      = "step(s)."
	searchExitedMarker = "search exit code"
)

// planHeaderRe matches the anytime plan header: a timestamp/memory tag
// followed by a one-based plan index.
var planHeaderRe = regexp.MustCompile(`New plan (\d+)`)

type parserState int

const (
	stateIdle parserState = iota
	stateCollecting
)

// PlanParser consumes solver output line by line and emits plan events.
//
// States are Idle and Collecting. A plan header switches to Collecting and
// clears the step buffer; the "N step(s)." report emits the buffered plan
// and returns to Idle. Timestamp-only lines inside a plan are skipped. A
// header with no matching terminator before end of stream emits nothing:
// an incomplete capture cannot be trusted.
type PlanParser struct {
	state   parserState
	index   int
	steps   []string
	pending string

	lastPlan  []string
	finalized bool
}

// NewPlanParser returns a parser in the Idle state.
func NewPlanParser() *PlanParser {
	return &PlanParser{}
}

// Feed appends a raw output chunk and returns the events produced by every
// line completed so far. Partial trailing lines are buffered until the
// newline arrives or Flush is called.
func (p *PlanParser) Feed(data []byte) []Event {
	p.pending += string(data)
	var events []Event
	for {
		nl := strings.IndexByte(p.pending, '\n')
		if nl < 0 {
			return events
		}
		line := p.pending[:nl]
		p.pending = p.pending[nl+1:]
		if ev, ok := p.ParseLine(line); ok {
			events = append(events, ev)
		}
	}
}

// Flush processes any buffered partial line at end of stream.
func (p *PlanParser) Flush() []Event {
	if p.pending == "" {
		return nil
	}
	line := p.pending
	p.pending = ""
	if ev, ok := p.ParseLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// ParseLine advances the state machine by one line and returns the event
// it produced, if any.
func (p *PlanParser) ParseLine(line string) (Event, bool) {
	trimmed := strings.TrimSpace(line)

	// Termination signal is state-independent: finalize the last complete
	// plan exactly once.
	if strings.HasPrefix(trimmed, searchExitedMarker) {
		if len(p.lastPlan) > 0 && !p.finalized {
			p.finalized = true
			return Event{Kind: EventSearchDone, Steps: p.lastPlan}, true
		}
		return Event{}, false
	}

	switch p.state {
	case stateIdle:
		if m := planHeaderRe.FindStringSubmatch(trimmed); m != nil && strings.HasPrefix(trimmed, timestampTag) {
			p.state = stateCollecting
			p.index = atoiSafe(m[1])
			p.steps = nil
		}
		return Event{}, false

	case stateCollecting:
		// The length report also carries the timestamp tag, so it must be
		// checked before the tag skip.
		if strings.HasSuffix(trimmed, planEndMarker) {
			steps := p.steps
			p.steps = nil
			p.state = stateIdle
			p.lastPlan = steps
			p.finalized = false
			return Event{Kind: EventPlanFound, Index: p.index, Steps: steps}, true
		}
		if strings.HasPrefix(trimmed, timestampTag) {
			return Event{}, false
		}
		p.steps = append(p.steps, stepFromLine(trimmed))
		return Event{}, false
	}
	return Event{}, false
}

// LastPlan returns the most recent complete plan, if any.
func (p *PlanParser) LastPlan() ([]string, bool) {
	return p.lastPlan, len(p.lastPlan) > 0
}

// stepFromLine extracts one action step. Solver step lines carry the action
// and its arguments followed by a parenthesized cost, e.g. "move a b (1)";
// everything before the first parenthesis is the step.
func stepFromLine(line string) string {
	if idx := strings.IndexByte(line, '('); idx >= 0 {
		line = line[:idx]
	}
	return "(" + strings.TrimSpace(line) + ")"
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
