// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pddl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOSPProblem builds the test problem reshaped as an oversubscription
// task: no hard goals, two weighted soft goals.
func newOSPProblem() *Problem {
	p := newTestProblem()
	p.Goals = nil
	p.Metrics = []QualityMetric{Oversubscription{Goals: []UtilityGoal{
		{Fact: Atom{Predicate: "at", Args: []string{"l2"}}, Utility: 10},
		{Fact: Atom{Predicate: "at", Args: []string{"l1"}}, Utility: 3},
	}}}
	return p
}

func TestOSPWriterProblemText(t *testing.T) {
	w, err := NewOSPWriter(newOSPProblem())
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, w.WriteProblem(&b))
	text := b.String()

	assert.NotContains(t, text, "(:goal")
	assert.Contains(t, text, "(:utility (= (at l2) 10) (= (at l1) 3))")
	assert.Contains(t, text, "(:bound 2147483646)")

	// Soft goals come out in declaration order.
	assert.Less(t,
		strings.Index(text, "(= (at l2) 10)"),
		strings.Index(text, "(= (at l1) 3)"))
}

func TestOSPWriterDomainUnaffected(t *testing.T) {
	w, err := NewOSPWriter(newOSPProblem())
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, w.WriteDomain(&b))
	assert.Contains(t, b.String(), "(:action move")
	assert.NotContains(t, b.String(), "total-cost")
}

func TestOSPWriterAllowsOneCompanionMetric(t *testing.T) {
	p := newOSPProblem()
	p.Metrics = append(p.Metrics, MinimizeActionCosts{})

	w, err := NewOSPWriter(p)
	require.NoError(t, err)

	// The companion cost metric survives the strip.
	var d strings.Builder
	require.NoError(t, w.WriteDomain(&d))
	assert.Contains(t, d.String(), "(:functions (total-cost))")
}

func TestOSPWriterValidation(t *testing.T) {
	t.Run("no oversubscription metric", func(t *testing.T) {
		p := newTestProblem()
		_, err := NewOSPWriter(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedProblem))
	})

	t.Run("too many metrics", func(t *testing.T) {
		p := newOSPProblem()
		p.Metrics = append(p.Metrics, MinimizeActionCosts{}, MinimizeSequentialPlanLength{})
		_, err := NewOSPWriter(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedProblem))
	})

	t.Run("hard goals rejected", func(t *testing.T) {
		p := newOSPProblem()
		p.Goals = []Condition{Atom{Predicate: "at", Args: []string{"l2"}}}
		_, err := NewOSPWriter(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedProblem))
	})

	t.Run("non-flat soft goal rejected", func(t *testing.T) {
		p := newOSPProblem()
		p.Metrics = []QualityMetric{Oversubscription{Goals: []UtilityGoal{
			{Fact: Not{Cond: Atom{Predicate: "at", Args: []string{"l1"}}}, Utility: 5},
		}}}
		_, err := NewOSPWriter(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedProblem))
	})
}

func TestRewriteGoalSection(t *testing.T) {
	w, err := NewOSPWriter(newOSPProblem())
	require.NoError(t, err)

	t.Run("missing anchor", func(t *testing.T) {
		_, err := w.rewriteGoalSection("(define (problem p)\n (:init)\n)\n")
		assert.True(t, errors.Is(err, ErrGoalAnchorNotFound))
	})

	t.Run("ambiguous anchor", func(t *testing.T) {
		_, err := w.rewriteGoalSection(" (:goal (and))\n (:goal (and))\n")
		assert.True(t, errors.Is(err, ErrGoalAnchorAmbiguous))
	})
}
