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

import "strings"

// Invocation is an ordered argument vector for an external solver binary.
// The first token is the program; the rest are its arguments. Invocations
// are derived deterministically from configuration plus file paths and
// carry no hidden state.
type Invocation []string

// Program returns the executable token, or "" for an empty invocation.
func (inv Invocation) Program() string {
	if len(inv) == 0 {
		return ""
	}
	return inv[0]
}

// Args returns the argument tokens after the program.
func (inv Invocation) Args() []string {
	if len(inv) <= 1 {
		return nil
	}
	return inv[1:]
}

// String joins the tokens with single spaces, for logging.
func (inv Invocation) String() string {
	return strings.Join(inv, " ")
}
