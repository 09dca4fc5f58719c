package multiout

import (
	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/scenegraph"
)

// WindowOption configures a RenderWindow during creation.
//
// Example:
//
//	// Software rendering on a private loop
//	w, err := multiout.NewRenderWindow(scene)
//
//	// GPU device with Vulkan-style clip space
//	w, err := multiout.NewRenderWindow(scene,
//	    multiout.WithDevice(handle),
//	    multiout.WithClipSpaceYDown(true))
type WindowOption func(*windowOptions)

// windowOptions holds optional configuration for RenderWindow creation.
type windowOptions struct {
	loop           *Loop
	fallback       backend.Context
	control        scenegraph.RenderControl
	device         *render.HALDeviceHandle
	clipSpaceYDown bool
}

// WithLoop sets the loop render cycles are scheduled on. By default the
// window creates its own; drive it with Loop().RunPending or Loop().Run.
func WithLoop(l *Loop) WindowOption {
	return func(o *windowOptions) {
		o.loop = l
	}
}

// WithFallbackContext sets the shared context used by outputs without a
// dedicated one. The default is a software context, or a GPU context
// when WithDevice is given.
func WithFallbackContext(c backend.Context) WindowOption {
	return func(o *windowOptions) {
		o.fallback = c
	}
}

// WithRenderControl replaces the default render control: a
// scenegraph.SoftwareControl, or a scenegraph.GPUControl when WithDevice is
// given.
func WithRenderControl(c scenegraph.RenderControl) WindowOption {
	return func(o *windowOptions) {
		o.control = c
	}
}

// WithDevice renders through a GPU device. The compositor shaders are
// built on the device when the window is created, and the window draws
// with a scenegraph.GPUControl unless WithRenderControl is also given.
func WithDevice(h *render.HALDeviceHandle) WindowOption {
	return func(o *windowOptions) {
		o.device = h
	}
}

// WithClipSpaceYDown selects the backend clip-space convention: true when
// clip-space y grows downwards (Vulkan), false when it grows upwards
// (WebGPU, OpenGL). The default is false.
func WithClipSpaceYDown(yDown bool) WindowOption {
	return func(o *windowOptions) {
		o.clipSpaceYDown = yDown
	}
}
