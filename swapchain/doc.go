// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package swapchain provides the presentable buffer sets of compositor
// outputs.
//
// Two implementations are provided:
//
//   - PixmapSwapchain: a ring of CPU buffers for the software path and
//     headless outputs
//   - HALSwapchain: a wgpu hal surface
//
// Both follow the same frame protocol:
//
//	if err := sc.Test(cfg); err == nil {
//	    sc.Configure(cfg)
//	}
//	target, err := sc.Acquire()
//	// draw into target
//	err = sc.Present(target, damage) // or sc.Discard(target)
package swapchain
