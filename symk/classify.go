// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symk

import "github.com/AleutianAI/symkgo/planner"

// Classify maps a finished solver run onto a result status. The table is
// the solver's documented exit-code contract (fast-downward exit codes)
// and must not drift: its fidelity is what lets callers trust the
// optimality and completeness claims attached to results.
//
//	nil       legacy path: no exit code observed — plan presence decides
//	0..3      search terminated normally — plan presence decides
//	10, 11    unsolvability proven, regardless of any plan artifact
//	12        search exhausted incompletely, unsolvability not proven
//	other     solver-internal failure
//
// When a plan exists, hasQualityMetrics selects between the engine's
// metrics guarantee and a plain satisficing claim.
func Classify(planFound bool, exitCode *int, hasQualityMetrics bool, noPlanGuarantee, metricsGuarantee planner.ResultStatus) planner.ResultStatus {
	solved := func() planner.ResultStatus {
		if hasQualityMetrics {
			return metricsGuarantee
		}
		return planner.StatusSolvedSatisficing
	}

	if exitCode == nil {
		if planFound {
			return solved()
		}
		return noPlanGuarantee
	}

	switch code := *exitCode; {
	case code >= 0 && code <= 3:
		if planFound {
			return solved()
		}
		return noPlanGuarantee
	case code == 10 || code == 11:
		return planner.StatusUnsolvableProven
	case code == 12:
		return planner.StatusUnsolvableIncompletely
	default:
		return planner.StatusInternalError
	}
}
