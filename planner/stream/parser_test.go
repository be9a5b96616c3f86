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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const solverOutput = `[t=0.01s, 10000 KB] Building symbolic structures...
[t=0.05s, 10884 KB] New plan 1: cost = 8
move a b (1)
move b c (1)
[t=0.05s, 10884 KB] Plan length: 2 step(s).
[t=0.09s, 11000 KB] New plan 2: cost = 6
move a c (1)
[t=0.09s, 11000 KB] Plan length: 1 step(s).
search exit code: 0
`

func TestPlanParserFullStream(t *testing.T) {
	p := NewPlanParser()
	events := p.Feed([]byte(solverOutput))
	events = append(events, p.Flush()...)

	require.Len(t, events, 3)

	assert.Equal(t, EventPlanFound, events[0].Kind)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, []string{"(move a b)", "(move b c)"}, events[0].Steps)

	assert.Equal(t, EventPlanFound, events[1].Kind)
	assert.Equal(t, 2, events[1].Index)
	assert.Equal(t, []string{"(move a c)"}, events[1].Steps)

	assert.Equal(t, EventSearchDone, events[2].Kind)
	assert.Equal(t, []string{"(move a c)"}, events[2].Steps)
}

func TestPlanParserChunkedFeed(t *testing.T) {
	p := NewPlanParser()
	var events []Event
	// One byte at a time: line reassembly must not depend on chunk size.
	for i := 0; i < len(solverOutput); i++ {
		events = append(events, p.Feed([]byte{solverOutput[i]})...)
	}
	events = append(events, p.Flush()...)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"(move a b)", "(move b c)"}, events[0].Steps)
}

func TestPlanParserStepExtraction(t *testing.T) {
	p := NewPlanParser()
	p.ParseLine("[t=0.05s, 10884 KB] New plan 1: cost = 8")

	// Everything before the cost parenthesis is the step.
	_, ok := p.ParseLine("move a b (1)")
	assert.False(t, ok)
	ev, ok := p.ParseLine("[t=0.06s, 10884 KB] Plan length: 1 step(s).")
	require.True(t, ok)
	assert.Equal(t, []string{"(move a b)"}, ev.Steps)
}

func TestPlanParserSkipsTimestampLinesInsidePlan(t *testing.T) {
	p := NewPlanParser()
	p.ParseLine("[t=0.05s, 10884 KB] New plan 1: cost = 8")
	p.ParseLine("move a b (1)")
	_, ok := p.ParseLine("[t=0.06s, 10900 KB] some progress note")
	assert.False(t, ok)
	ev, ok := p.ParseLine("[t=0.07s, 10900 KB] Plan length: 1 step(s).")
	require.True(t, ok)
	assert.Equal(t, []string{"(move a b)"}, ev.Steps)
}

func TestPlanParserHeaderRequiresTimestampTag(t *testing.T) {
	p := NewPlanParser()
	// A bare mention of the header text outside a tagged line is noise.
	_, ok := p.ParseLine("reading New plan 1 documentation")
	assert.False(t, ok)
	_, ok = p.ParseLine("move a b (1)")
	assert.False(t, ok)
	_, planFound := p.LastPlan()
	assert.False(t, planFound)
}

func TestPlanParserUnterminatedPlanEmitsNothing(t *testing.T) {
	p := NewPlanParser()
	var events []Event
	events = append(events, p.Feed([]byte("[t=0.05s, 10884 KB] New plan 1: cost = 8\nmove a b (1)\n"))...)
	events = append(events, p.Flush()...)
	assert.Empty(t, events)

	_, planFound := p.LastPlan()
	assert.False(t, planFound)
}

func TestPlanParserSearchDoneWithoutPlan(t *testing.T) {
	p := NewPlanParser()
	_, ok := p.ParseLine("search exit code: 12")
	assert.False(t, ok)
}

func TestPlanParserSearchDoneEmittedOnce(t *testing.T) {
	p := NewPlanParser()
	p.Feed([]byte(solverOutput))
	_, ok := p.ParseLine("search exit code: 0")
	assert.False(t, ok)
}

func TestPlanParserLastPlan(t *testing.T) {
	p := NewPlanParser()
	p.Feed([]byte(solverOutput))
	steps, ok := p.LastPlan()
	require.True(t, ok)
	assert.Equal(t, []string{"(move a c)"}, steps)
}
