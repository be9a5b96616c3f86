// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package planner

import (
	"fmt"
	"strings"
)

// =============================================================================
// Grounded Plans
// =============================================================================

// ActionInstance is one grounded step of a plan: an action name applied to
// concrete objects. Names are in the problem's original spelling when the
// plan was reconstructed through an ItemLookup.
type ActionInstance struct {
	Name   string
	Params []string
}

// String renders the instance in PDDL plan-file form, "(name arg1 arg2)".
func (a ActionInstance) String() string {
	if len(a.Params) == 0 {
		return "(" + a.Name + ")"
	}
	return "(" + a.Name + " " + strings.Join(a.Params, " ") + ")"
}

// Plan is an ordered sequence of grounded action instances.
type Plan struct {
	Steps []ActionInstance
}

// String renders the plan one action per line, matching the solver's
// plan-file format.
func (p *Plan) String() string {
	var b strings.Builder
	for _, s := range p.Steps {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// =============================================================================
// Item Lookup
// =============================================================================

// ItemLookup resolves solver-side (name-mangled) identifiers back to the
// problem's original action and object names. A PDDL writer that mangles
// names during serialization implements this so plans read back from the
// solver can be grounded in the caller's problem.
type ItemLookup interface {
	// ActionNamed returns the original action name for a solver-side
	// identifier, or false if the problem declares no such action.
	ActionNamed(name string) (string, bool)

	// ObjectNamed returns the original object name for a solver-side
	// identifier, or false if the problem declares no such object.
	ObjectNamed(name string) (string, bool)
}

// PlanFromSteps grounds a plan candidate against a lookup table.
//
// Each step must be a "(action arg1 arg2)" string as produced by the solver.
// Unknown action or object identifiers are errors: a plan the problem cannot
// account for must not be silently passed through.
func PlanFromSteps(steps []string, lookup ItemLookup) (*Plan, error) {
	plan := &Plan{Steps: make([]ActionInstance, 0, len(steps))}
	for _, step := range steps {
		inst, err := groundStep(step, lookup)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, inst)
	}
	return plan, nil
}

func groundStep(step string, lookup ItemLookup) (ActionInstance, error) {
	trimmed := strings.TrimSpace(step)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ActionInstance{}, fmt.Errorf("%w: empty plan step", ErrMalformedPlanStep)
	}

	name, ok := lookup.ActionNamed(fields[0])
	if !ok {
		return ActionInstance{}, fmt.Errorf("%w: unknown action %q", ErrMalformedPlanStep, fields[0])
	}
	inst := ActionInstance{Name: name}
	for _, arg := range fields[1:] {
		obj, ok := lookup.ObjectNamed(arg)
		if !ok {
			return ActionInstance{}, fmt.Errorf("%w: unknown object %q in action %q", ErrMalformedPlanStep, arg, fields[0])
		}
		inst.Params = append(inst.Params, obj)
	}
	return inst, nil
}
