// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend defines the outputs a compositor renders to.
//
// A Backend owns a set of Outputs. Each Output has a swapchain, an
// optional dedicated rendering Context, and an atomic commit protocol:
//
//	state := &backend.State{Target: target, Damage: rects}
//	if err := out.Commit(state); err != nil {
//	    out.Rollback(state)
//	}
//
// Configuration changes (mode, scale, transform, enable) travel in the same
// State and are reported to subscribers as Events once applied.
//
// Backends register by name with Register and are created with Open or
// OpenBest. The headless subpackage provides virtual outputs.
package backend
