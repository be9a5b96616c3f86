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
	"os"
	"strings"
)

// =============================================================================
// Writer
// =============================================================================

// Writer serializes a Problem to PDDL domain and problem text.
//
// PDDL identifiers are case-insensitive and restricted in their character
// set, so the writer mangles names (lowercase, invalid characters replaced)
// and keeps the reverse mapping. The mapping implements planner.ItemLookup
// so plans read back from the solver can be grounded in the original
// problem.
//
// The (:goal ...) declaration is always emitted on a single line. OSPWriter
// relies on this as its rewrite anchor.
type Writer struct {
	problem *Problem

	// mangled name -> original name
	actions map[string]string
	objects map[string]string
}

// NewWriter prepares a writer for a problem without an oversubscription
// metric. Problems carrying one must go through NewOSPWriter, which owns
// the goal-section rewrite.
func NewWriter(p *Problem) (*Writer, error) {
	if _, ok := p.OversubscriptionMetric(); ok {
		return nil, &UnsupportedProblemError{
			Reason: "oversubscription metric requires the OSP writer",
		}
	}
	return newWriter(p)
}

func newWriter(p *Problem) (*Writer, error) {
	w := &Writer{
		problem: p,
		actions: make(map[string]string, len(p.Actions)),
		objects: make(map[string]string, len(p.Objects)),
	}
	for _, a := range p.Actions {
		m := mangle(a.Name)
		if prev, dup := w.actions[m]; dup && prev != a.Name {
			return nil, &UnsupportedProblemError{
				Reason: fmt.Sprintf("actions %q and %q collide after PDDL name mangling", prev, a.Name),
			}
		}
		w.actions[m] = a.Name
	}
	for _, o := range p.Objects {
		m := mangle(o.Name)
		if prev, dup := w.objects[m]; dup && prev != o.Name {
			return nil, &UnsupportedProblemError{
				Reason: fmt.Sprintf("objects %q and %q collide after PDDL name mangling", prev, o.Name),
			}
		}
		w.objects[m] = o.Name
	}
	return w, nil
}

// Problem returns the problem being serialized.
func (w *Writer) Problem() *Problem {
	return w.problem
}

// ActionNamed resolves a solver-side action identifier to its original name.
func (w *Writer) ActionNamed(name string) (string, bool) {
	orig, ok := w.actions[strings.ToLower(name)]
	return orig, ok
}

// ObjectNamed resolves a solver-side object identifier to its original name.
func (w *Writer) ObjectNamed(name string) (string, bool) {
	orig, ok := w.objects[strings.ToLower(name)]
	return orig, ok
}

// mangle lowers a name into the PDDL identifier character set.
func mangle(name string) string {
	var b strings.Builder
	for i, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9' && i > 0, r == '-' && i > 0, r == '_' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// =============================================================================
// Domain Serialization
// =============================================================================

// WriteDomain writes the PDDL domain text.
func (w *Writer) WriteDomain(out io.Writer) error {
	p := w.problem
	var b strings.Builder

	fmt.Fprintf(&b, "(define (domain %s-domain)\n", mangle(p.DomainName))

	reqs := p.Requirements
	if len(reqs) == 0 {
		reqs = defaultRequirements(p)
	}
	fmt.Fprintf(&b, " (:requirements %s)\n", strings.Join(reqs, " "))

	if len(p.Types) > 0 {
		mangled := make([]string, len(p.Types))
		for i, t := range p.Types {
			mangled[i] = mangle(t)
		}
		fmt.Fprintf(&b, " (:types %s)\n", strings.Join(mangled, " "))
	}

	b.WriteString(" (:predicates")
	for _, f := range p.Predicates {
		b.WriteByte(' ')
		writeFluentDecl(&b, f)
	}
	b.WriteString(")\n")

	if p.hasCostMetric() {
		b.WriteString(" (:functions (total-cost))\n")
	}

	for _, a := range p.Actions {
		w.writeAction(&b, a)
	}
	b.WriteString(")\n")

	_, err := io.WriteString(out, b.String())
	return err
}

func defaultRequirements(p *Problem) []string {
	reqs := []string{":strips", ":negative-preconditions", ":disjunctive-preconditions", ":equality", ":conditional-effects"}
	if len(p.Types) > 0 {
		reqs = append(reqs, ":typing")
	}
	if p.hasCostMetric() {
		reqs = append(reqs, ":action-costs")
	}
	return reqs
}

func writeFluentDecl(b *strings.Builder, f Fluent) {
	b.WriteByte('(')
	b.WriteString(mangle(f.Name))
	for _, param := range f.Parameters {
		fmt.Fprintf(b, " ?%s", mangle(param.Name))
		if param.Type != "" {
			fmt.Fprintf(b, " - %s", mangle(param.Type))
		}
	}
	b.WriteByte(')')
}

func (w *Writer) writeAction(b *strings.Builder, a Action) {
	fmt.Fprintf(b, " (:action %s\n", mangle(a.Name))
	b.WriteString("  :parameters (")
	for i, param := range a.Parameters {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "?%s", mangle(param.Name))
		if param.Type != "" {
			fmt.Fprintf(b, " - %s", mangle(param.Type))
		}
	}
	b.WriteString(")\n")

	if a.Precondition != nil {
		b.WriteString("  :precondition ")
		writeCondition(b, a.Precondition)
		b.WriteByte('\n')
	}

	b.WriteString("  :effect (and")
	for _, eff := range a.Effects {
		b.WriteByte(' ')
		writeEffect(b, eff)
	}
	if w.problem.hasCostMetric() {
		cost := int64(1)
		if a.Cost != nil {
			cost = *a.Cost
		}
		fmt.Fprintf(b, " (increase (total-cost) %d)", cost)
	}
	b.WriteString(")\n")
	b.WriteString(" )\n")
}

func writeEffect(b *strings.Builder, eff Effect) {
	if eff.When != nil {
		b.WriteString("(when ")
		writeCondition(b, eff.When)
		b.WriteByte(' ')
	}
	if eff.Negated {
		b.WriteString("(not ")
		writeAtom(b, eff.Atom)
		b.WriteByte(')')
	} else {
		writeAtom(b, eff.Atom)
	}
	if eff.When != nil {
		b.WriteByte(')')
	}
}

func writeCondition(b *strings.Builder, c Condition) {
	switch cond := c.(type) {
	case Atom:
		writeAtom(b, cond)
	case Not:
		b.WriteString("(not ")
		writeCondition(b, cond.Cond)
		b.WriteByte(')')
	case And:
		b.WriteString("(and")
		for _, inner := range cond.Conds {
			b.WriteByte(' ')
			writeCondition(b, inner)
		}
		b.WriteByte(')')
	case Or:
		b.WriteString("(or")
		for _, inner := range cond.Conds {
			b.WriteByte(' ')
			writeCondition(b, inner)
		}
		b.WriteByte(')')
	}
}

func writeAtom(b *strings.Builder, a Atom) {
	b.WriteByte('(')
	b.WriteString(mangle(a.Predicate))
	for _, arg := range a.Args {
		b.WriteByte(' ')
		if strings.HasPrefix(arg, "?") {
			b.WriteString("?" + mangle(strings.TrimPrefix(arg, "?")))
		} else {
			b.WriteString(mangle(arg))
		}
	}
	b.WriteByte(')')
}

// =============================================================================
// Problem Serialization
// =============================================================================

// WriteProblem writes the PDDL problem text. The goal declaration occupies
// exactly one line.
func (w *Writer) WriteProblem(out io.Writer) error {
	_, err := io.WriteString(out, w.problemText())
	return err
}

func (w *Writer) problemText() string {
	p := w.problem
	var b strings.Builder

	fmt.Fprintf(&b, "(define (problem %s-problem)\n", mangle(p.Name))
	fmt.Fprintf(&b, " (:domain %s-domain)\n", mangle(p.DomainName))

	if len(p.Objects) > 0 {
		b.WriteString(" (:objects")
		for _, o := range p.Objects {
			fmt.Fprintf(&b, " %s", mangle(o.Name))
			if o.Type != "" {
				fmt.Fprintf(&b, " - %s", mangle(o.Type))
			}
		}
		b.WriteString(")\n")
	}

	b.WriteString(" (:init")
	for _, atom := range p.Init {
		b.WriteByte(' ')
		writeAtom(&b, atom)
	}
	if p.hasCostMetric() {
		b.WriteString(" (= (total-cost) 0)")
	}
	b.WriteString(")\n")

	// Single line: the OSP rewrite anchors on this.
	b.WriteString(" (:goal (and")
	for _, g := range p.Goals {
		b.WriteByte(' ')
		writeCondition(&b, g)
	}
	b.WriteString("))\n")

	if p.hasCostMetric() {
		b.WriteString(" (:metric minimize (total-cost))\n")
	}
	b.WriteString(")\n")
	return b.String()
}

// =============================================================================
// File Helpers
// =============================================================================

// WriteDomainFile writes the domain text to path.
func (w *Writer) WriteDomainFile(path string) error {
	return writeFile(path, w.WriteDomain)
}

// WriteProblemFile writes the problem text to path.
func (w *Writer) WriteProblemFile(path string) error {
	return writeFile(path, w.WriteProblem)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
