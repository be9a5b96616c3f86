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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/symkgo/planner"
)

// ReadPlanSteps reads a solver plan file into raw step strings, one
// "(action arg1 arg2)" per step. Comment lines (";" prefix, e.g. the
// trailing "; cost = N" annotation) and blank lines are skipped.
func ReadPlanSteps(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan file: %w", err)
	}
	defer f.Close()

	var steps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
			return nil, fmt.Errorf("%w: unexpected line %q", ErrMalformedPlanFile, line)
		}
		steps = append(steps, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return steps, nil
}

// ReadPlanFile reads a solver plan file and grounds it against the lookup
// table of the writer that produced the problem.
func ReadPlanFile(path string, lookup planner.ItemLookup) (*planner.Plan, error) {
	steps, err := ReadPlanSteps(path)
	if err != nil {
		return nil, err
	}
	return planner.PlanFromSteps(steps, lookup)
}
