// Package multiout composites one shared scene graph onto many display
// outputs.
//
// # Overview
//
// A compositor has one retained scene but several outputs, each with its
// own size, scale, orientation, swapchain and commit protocol. A
// RenderWindow owns the shared render control and the ordered set of
// attached outputs. Every attached output gets a scenegraph.Viewport that
// places it in scene coordinates, and an OutputHelper that acquires its
// buffers, binds its context, tracks its damage and commits its frames.
//
// # Render Cycle
//
// Render requests are coalesced: any number of RequestRender or Update
// calls before the loop runs produce exactly one cycle. A cycle visits the
// outputs in attach order and, for each output that is renderable, visible
// and dirty:
//
//  1. acquires a render target from the output's swapchain
//  2. binds the output's context, or the window's shared fallback
//  3. builds the output's render.FrameParams
//  4. runs BeginFrame, Sync, Render and EndFrame on the render control
//  5. commits the target with the output's damage
//  6. releases the context and emits FrameDone
//
// The scene is polished once per cycle, before the first eligible output.
// Failures are contained to one output, which stays dirty and is retried
// on the next cycle.
//
// # Projections
//
// One matrix per output maps scene coordinates straight to that output's
// device pixels: an orthographic projection over the output's pixel rect,
// composed with the inverse of the viewport's item-to-window transform.
// The display projection honours target mirroring and the backend
// clip-space convention (WithClipSpaceYDown); the native projection is
// always the unflipped form.
//
// The scene is rendered at a shared device pixel ratio, the largest scale
// among attached enabled outputs. Outputs with smaller scales get the
// same content density.
//
// # Quick Start
//
//	scene := scenegraph.NewScene()
//	scene.Add(scenegraph.NewRectItem(1920, 1080, color.White))
//
//	w, err := multiout.NewRenderWindow(scene)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	hb := headless.New(headless.DefaultConfig())
//	w.Watch(hb)
//	for _, o := range hb.Outputs() {
//	    w.Attach(o)
//	}
//	w.Loop().RunPending() // runs one cycle
//
// # Threading
//
// A RenderWindow, its scene and its outputs belong to the loop goroutine.
// RequestRender and Loop.Post may be called from any goroutine.
//
// # Logging
//
// multiout is silent by default. Call SetLogger to route diagnostics from
// multiout, scenegraph and swapchain to a *slog.Logger.
package multiout
