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
	"fmt"
)

// Sentinel errors for problem serialization.
var (
	// ErrUnsupportedProblem is the class of every UnsupportedProblemError;
	// match with errors.Is.
	ErrUnsupportedProblem = errors.New("unsupported problem shape")

	// ErrGoalAnchorNotFound is returned when the serialized problem text
	// contains no (:goal ...) line to rewrite.
	ErrGoalAnchorNotFound = errors.New("goal declaration not found in problem text")

	// ErrGoalAnchorAmbiguous is returned when more than one line of the
	// serialized problem text matches the goal anchor.
	ErrGoalAnchorAmbiguous = errors.New("multiple goal declarations in problem text")

	// ErrMalformedPlanFile is returned when a plan file read back from the
	// solver cannot be parsed.
	ErrMalformedPlanFile = errors.New("malformed plan file")
)

// UnsupportedProblemError reports a problem the solver's dialect cannot
// express. It is raised before any file is written.
type UnsupportedProblemError struct {
	Reason string
}

func (e *UnsupportedProblemError) Error() string {
	return fmt.Sprintf("unsupported problem shape: %s", e.Reason)
}

// Unwrap lets errors.Is(err, ErrUnsupportedProblem) match.
func (e *UnsupportedProblemError) Unwrap() error {
	return ErrUnsupportedProblem
}
