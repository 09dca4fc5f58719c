// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render holds the per-frame vocabulary shared by the compositor,
// its swapchains and the scene-graph renderer.
//
// # Core Types
//
//   - DeviceHandle: GPU device access handed out by output contexts
//   - RenderTarget: the buffer one output's frame is drawn into
//   - FrameParams: scale, rects and projections for one output's frame
//   - Damage: the changed regions of an output since its last commit
//   - Mat4: column-major projection matrices
//
// # RenderTarget Implementations
//
//   - PixmapTarget: CPU-backed *image.RGBA target
//   - SurfaceTarget: texture acquired from a hal surface
//
// # Projections
//
// One scene is shared by every output. Each output sees it through its own
// projection, built from an orthographic matrix over the output's device
// rect and the inverse of the output viewport's placement in the scene:
//
//	projection := render.Ortho(0, w, h, 0).Mul(inverseViewport)
//
// Ortho(0, w, h, 0) maps scene row 0 to clip +1; Ortho(0, w, 0, h) maps it
// to clip -1. NDCToDevice turns clip space back into device pixels for CPU
// rasterization.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. Targets and frame
// parameters belong to the compositor loop goroutine.
package render
