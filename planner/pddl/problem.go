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
Package pddl provides a minimal planning-problem object model, a PDDL
serializer, and the oversubscription problem transformation consumed by the
SymK solver build.

# Overview

The model covers what the adapter needs to round-trip problems through an
external classical planner: typed objects, boolean fluents, ground initial
state, action schemas with optional costs, hard goals, and quality metrics
(action cost, plan length, oversubscription).

Writer serializes a Problem to standard PDDL text and keeps the item-lookup
table needed to ground plans read back from the solver. OSPWriter extends it
for oversubscription problems, rewriting the goal declaration into the
solver-specific (:utility ...) / (:bound N) clauses.

# Thread Safety

Problems and writers are not safe for concurrent mutation. A fully
constructed Writer is safe for concurrent reads (lookups).
*/
package pddl

// =============================================================================
// Model
// =============================================================================

// Parameter is a typed formal parameter of a fluent or action.
type Parameter struct {
	Name string
	Type string
}

// Fluent declares a boolean predicate or numeric function symbol.
type Fluent struct {
	Name       string
	Parameters []Parameter
}

// Object is a typed domain object.
type Object struct {
	Name string
	Type string
}

// Condition is a goal or precondition expression. The concrete types are
// Atom, Not, And and Or.
type Condition interface {
	condition()
}

// Atom is a flat predicate application: a predicate name applied to object
// or parameter names. It is the only Condition shape the oversubscription
// transformation accepts for soft goals.
type Atom struct {
	Predicate string
	Args      []string
}

// Not negates a condition.
type Not struct {
	Cond Condition
}

// And conjoins conditions.
type And struct {
	Conds []Condition
}

// Or disjoins conditions.
type Or struct {
	Conds []Condition
}

func (Atom) condition() {}
func (Not) condition()  {}
func (And) condition()  {}
func (Or) condition()   {}

// Effect is one effect literal of an action, optionally conditional.
type Effect struct {
	// When guards the effect; nil means unconditional.
	When Condition

	// Negated marks a delete effect.
	Negated bool

	// Atom is the affected fact.
	Atom Atom
}

// Action is an action schema.
type Action struct {
	Name         string
	Parameters   []Parameter
	Precondition Condition
	Effects      []Effect

	// Cost is the action's contribution to total-cost. Nil means unit cost
	// when a cost metric is present.
	Cost *int64
}

// =============================================================================
// Quality Metrics
// =============================================================================

// QualityMetric is a problem quality metric. The concrete types are
// MinimizeActionCosts, MinimizeSequentialPlanLength and Oversubscription.
type QualityMetric interface {
	metric()
}

// MinimizeActionCosts asks for a plan minimizing summed action costs.
type MinimizeActionCosts struct{}

// MinimizeSequentialPlanLength asks for a plan minimizing step count.
type MinimizeSequentialPlanLength struct{}

// UtilityGoal is one soft goal of an oversubscription problem: a fact worth
// a utility when satisfied at the end of the plan.
type UtilityGoal struct {
	Fact    Condition
	Utility int64
}

// Oversubscription asks for a plan maximizing the total utility of
// satisfied soft goals within a cost bound. Goals preserve declaration
// order; the transformation emits them in this order.
type Oversubscription struct {
	Goals []UtilityGoal
}

func (MinimizeActionCosts) metric()          {}
func (MinimizeSequentialPlanLength) metric() {}
func (Oversubscription) metric()             {}

// =============================================================================
// Problem
// =============================================================================

// Problem is a complete planning problem: domain declarations plus one
// problem instance.
type Problem struct {
	Name         string
	DomainName   string
	Requirements []string
	Types        []string
	Predicates   []Fluent
	Objects      []Object
	Actions      []Action
	Init         []Atom
	Goals        []Condition
	Metrics      []QualityMetric
}

// OversubscriptionMetric returns the problem's oversubscription metric, if
// any.
func (p *Problem) OversubscriptionMetric() (*Oversubscription, bool) {
	for _, m := range p.Metrics {
		if osp, ok := m.(Oversubscription); ok {
			return &osp, true
		}
	}
	return nil, false
}

// HasQualityMetrics reports whether any quality metric is declared.
func (p *Problem) HasQualityMetrics() bool {
	return len(p.Metrics) > 0
}

// hasCostMetric reports whether total-cost machinery must be emitted.
func (p *Problem) hasCostMetric() bool {
	for _, m := range p.Metrics {
		switch m.(type) {
		case MinimizeActionCosts, MinimizeSequentialPlanLength:
			return true
		}
	}
	return false
}

// Clone returns a copy of the problem that shares no mutable slices with
// the original. Conditions and effects are immutable by convention and are
// shared.
func (p *Problem) Clone() *Problem {
	clone := *p
	clone.Requirements = append([]string(nil), p.Requirements...)
	clone.Types = append([]string(nil), p.Types...)
	clone.Predicates = append([]Fluent(nil), p.Predicates...)
	clone.Objects = append([]Object(nil), p.Objects...)
	clone.Actions = append([]Action(nil), p.Actions...)
	clone.Init = append([]Atom(nil), p.Init...)
	clone.Goals = append([]Condition(nil), p.Goals...)
	clone.Metrics = append([]QualityMetric(nil), p.Metrics...)
	return &clone
}
