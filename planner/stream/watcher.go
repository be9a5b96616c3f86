// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// PlanWatcher observes the plan-output directory during a dump_plans run.
// The solver writes each discovered plan as "<base>.N" (plus "<base>" for
// single-plan runs); the watcher delivers those paths in creation order so
// callers can pick up plan files while the search is still running.
type PlanWatcher struct {
	watcher *fsnotify.Watcher
	base    string
	paths   chan string
	logger  *slog.Logger
	done    chan struct{}
}

// NewPlanWatcher watches dir for plan files named after base (e.g. "plan.txt"
// matches "plan.txt" and "plan.txt.3").
func NewPlanWatcher(dir, base string, logger *slog.Logger) (*PlanWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &PlanWatcher{
		watcher: fsw,
		base:    base,
		paths:   make(chan string, 16),
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Plans delivers plan file paths as they appear. The channel is closed
// when the watcher is closed.
func (w *PlanWatcher) Plans() <-chan string {
	return w.paths
}

// Close stops watching and releases the underlying watcher.
func (w *PlanWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *PlanWatcher) loop() {
	defer close(w.done)
	defer close(w.paths)
	seen := make(map[string]struct{})
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.isPlanFile(filepath.Base(ev.Name)) {
				continue
			}
			if _, dup := seen[ev.Name]; dup {
				continue
			}
			seen[ev.Name] = struct{}{}
			select {
			case w.paths <- ev.Name:
			default:
				// A slow consumer must not stall event draining; plan
				// files remain on disk and can be listed afterwards.
				w.logger.Warn("plan watcher queue full, dropping notification", "path", ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plan watcher error", "error", err)
		}
	}
}

// isPlanFile matches "<base>" and "<base>.N".
func (w *PlanWatcher) isPlanFile(name string) bool {
	if name == w.base {
		return true
	}
	rest, ok := strings.CutPrefix(name, w.base+".")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}
