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

// Guarantees states, per engine variant, what its results may be trusted
// for. It is a plain data table: variant behavior differences are looked up
// here rather than dispatched through methods, so the declared guarantees
// are inspectable and testable in isolation.
type Guarantees struct {
	// OptimalOneshot is true when a one-shot solve with quality metrics
	// yields a provably optimal plan.
	OptimalOneshot bool

	// AnytimeOptimal is true when the anytime stream eventually reports
	// only optimal plans (top-q behavior).
	AnytimeOptimal bool

	// IncreasingCosts is true when anytime plans arrive ordered by
	// non-decreasing cost, which implies intermediate plans may be
	// non-optimal (top-k behavior).
	IncreasingCosts bool

	// NoPlanFound is the status claimed when search terminates normally
	// without producing a plan.
	NoPlanFound ResultStatus
}
