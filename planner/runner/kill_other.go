// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !unix

package runner

import "os/exec"

func setProcAttr(cmd *exec.Cmd) {}

// terminate kills the child; already-dead errors are swallowed.
func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

// defaultRunner falls back to the cooperative multiplexer where process
// groups and pipe readiness are unavailable.
func defaultRunner() Runner {
	return NewTask()
}
