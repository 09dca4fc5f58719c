package multiout

import "errors"

// Bootstrap errors. A render window that fails to start is not retried.
var (
	// ErrBootstrap is returned by NewRenderWindow when no render control or
	// fallback context can be set up, or the GPU shaders fail to build.
	ErrBootstrap = errors.New("multiout: bootstrap failed")

	// ErrClosed is returned by operations on a closed render window.
	ErrClosed = errors.New("multiout: render window closed")
)

// Per-output errors. The output is skipped for the current cycle and
// retried on the next one.
var (
	// ErrAcquire wraps failures to get a render target from a swapchain.
	ErrAcquire = errors.New("multiout: acquire render target")

	// ErrMakeCurrent wraps failures to bind a rendering context.
	ErrMakeCurrent = errors.New("multiout: make context current")

	// ErrRender wraps scene-graph rendering failures.
	ErrRender = errors.New("multiout: render")

	// ErrCommit wraps rejected output commits.
	ErrCommit = errors.New("multiout: commit")
)

// Usage errors.
var (
	// ErrAlreadyAttached is returned when attaching an attached output.
	ErrAlreadyAttached = errors.New("multiout: output already attached")

	// ErrNotAttached is returned for outputs that are not attached.
	ErrNotAttached = errors.New("multiout: output not attached")

	// ErrInCycle is returned by RunFrame when called from inside a cycle.
	ErrInCycle = errors.New("multiout: render cycle in progress")
)
