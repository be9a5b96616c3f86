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
	"fmt"
	"io"
	"strings"
)

// maxPlanCostBound is the dummy cost bound emitted in the (:bound ...)
// clause: max int32 minus one. The effective bound is enforced through the
// search engine configuration, not here.
const maxPlanCostBound = 2147483646

// =============================================================================
// OSP Writer
// =============================================================================

// OSPWriter serializes an oversubscription problem into the PDDL dialect
// accepted by the solver's OSP engines.
//
// The domain text is the ordinary serialization with the oversubscription
// metric stripped out (at most one other metric passes through). The
// problem text is post-processed: the goal declaration line is replaced by
// a (:utility ...) block with one (= (fact) weight) term per soft goal, in
// declaration order, followed by a (:bound N) line.
type OSPWriter struct {
	*Writer

	goals []UtilityGoal
}

// NewOSPWriter validates the oversubscription preconditions and prepares
// the writer. It fails, before any file is written, when:
//
//   - the problem carries no oversubscription metric,
//   - the problem carries more than two quality metrics in total,
//   - the problem declares hard goals, or
//   - a soft-goal fact is not a flat predicate application.
func NewOSPWriter(p *Problem) (*OSPWriter, error) {
	osp, ok := p.OversubscriptionMetric()
	if !ok {
		return nil, &UnsupportedProblemError{
			Reason: "problem carries no oversubscription metric",
		}
	}
	if len(p.Metrics) > 2 {
		return nil, &UnsupportedProblemError{
			Reason: fmt.Sprintf("at most one metric may accompany oversubscription, got %d", len(p.Metrics)-1),
		}
	}
	if len(p.Goals) > 0 {
		return nil, &UnsupportedProblemError{
			Reason: "oversubscription problems must not declare hard goals; model them as soft goals with a utility exceeding the cost bound",
		}
	}
	for _, g := range osp.Goals {
		if _, flat := g.Fact.(Atom); !flat {
			return nil, &UnsupportedProblemError{
				Reason: "soft goals must be flat predicate applications; wrap complex conditions in a derived predicate",
			}
		}
	}

	stripped := p.Clone()
	stripped.Metrics = stripped.Metrics[:0]
	for _, m := range p.Metrics {
		if _, isOSP := m.(Oversubscription); !isOSP {
			stripped.Metrics = append(stripped.Metrics, m)
		}
	}

	base, err := newWriter(stripped)
	if err != nil {
		return nil, err
	}
	return &OSPWriter{Writer: base, goals: osp.Goals}, nil
}

// WriteProblem writes the rewritten problem text.
func (w *OSPWriter) WriteProblem(out io.Writer) error {
	text, err := w.rewriteGoalSection(w.problemText())
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

// WriteProblemFile writes the rewritten problem text to path.
func (w *OSPWriter) WriteProblemFile(path string) error {
	return writeFile(path, w.WriteProblem)
}

// rewriteGoalSection replaces the single line containing the goal
// declaration with the utility block and cost bound. Exactly one anchor
// line must exist; zero or several is a hard error rather than a silent
// partial rewrite.
func (w *OSPWriter) rewriteGoalSection(text string) (string, error) {
	lines := strings.Split(text, "\n")
	anchor := -1
	for i, line := range lines {
		if strings.Contains(line, "(:goal") {
			if anchor != -1 {
				return "", ErrGoalAnchorAmbiguous
			}
			anchor = i
		}
	}
	if anchor == -1 {
		return "", ErrGoalAnchorNotFound
	}

	lines[anchor] = w.utilityBlock() + fmt.Sprintf(" (:bound %d)", maxPlanCostBound)
	return strings.Join(lines, "\n"), nil
}

// utilityBlock renders "(:utility (= (fact) weight) ...)" with the soft
// goals in declaration order.
func (w *OSPWriter) utilityBlock() string {
	var b strings.Builder
	b.WriteString(" (:utility")
	for _, g := range w.goals {
		// NewOSPWriter guarantees flatness.
		atom := g.Fact.(Atom)
		b.WriteString(" (= ")
		writeAtom(&b, atom)
		fmt.Fprintf(&b, " %d)", g.Utility)
	}
	b.WriteString(")\n")
	return b.String()
}
