package scenegraph

import (
	"errors"

	"github.com/gogpu/multiout/render"
)

// Errors returned by render controls.
var (
	// ErrInFrame is returned by BeginFrame while a frame is in progress.
	ErrInFrame = errors.New("scenegraph: frame already in progress")

	// ErrNotInFrame is returned by Sync, Render and EndFrame outside of
	// BeginFrame/EndFrame.
	ErrNotInFrame = errors.New("scenegraph: no frame in progress")

	// ErrNoPixels is returned when a software control is given a target
	// without CPU pixels.
	ErrNoPixels = errors.New("scenegraph: target has no CPU pixels")

	// ErrUnsupportedFormat is returned for target formats the control
	// cannot write.
	ErrUnsupportedFormat = errors.New("scenegraph: unsupported target format")
)

// RenderControl renders a scene into one target at a time.
//
// A compositor cycle calls PolishItems once, then for every output
// BeginFrame, Sync, Render and EndFrame in that order. The FrameParams
// given to BeginFrame are only valid until the matching EndFrame.
type RenderControl interface {
	// PolishItems runs pending layout work for the whole scene.
	PolishItems()

	// BeginFrame starts a frame into target using params.
	BeginFrame(target render.RenderTarget, params render.FrameParams) error

	// Sync captures the scene state the frame will draw.
	Sync() error

	// Render draws the synced scene.
	Render() error

	// EndFrame finishes the frame and forgets its parameters.
	EndFrame() error

	// SetDevicePixelRatio sets the shared scale content is prepared for.
	SetDevicePixelRatio(ratio float64)
}
