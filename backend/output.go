// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/swapchain"
)

// Errors returned by outputs.
var (
	// ErrOutputDisabled is returned when committing a frame to a disabled
	// output.
	ErrOutputDisabled = errors.New("backend: output disabled")

	// ErrTestFailed is returned when an output rejects a state.
	ErrTestFailed = errors.New("backend: state rejected")

	// ErrNoCPUAccess is returned when a software context is asked to bind
	// a target without CPU pixels.
	ErrNoCPUAccess = errors.New("backend: target has no CPU pixels")

	// ErrNoGPUAccess is returned when a GPU context is asked to bind a
	// target without a texture.
	ErrNoGPUAccess = errors.New("backend: target has no GPU texture")

	// ErrNotFound is returned for unknown backend names.
	ErrNotFound = errors.New("backend: not found")
)

// Output is a display sink owned by a backend.
//
// Size reports the current mode in buffer pixels and ScaleFactor the
// output scale; RequestRedraw asks the compositor for a new frame.
type Output interface {
	gpucontext.WindowProvider

	// Name is the backend-native identity of the output, e.g. "HDMI-A-1".
	Name() string

	// Position is the output's top-left corner in the global layout, in
	// logical pixels.
	Position() image.Point

	// Transform is the content orientation.
	Transform() Transform

	// Enabled reports whether the output is switched on.
	Enabled() bool

	// SoftwareCursorForced reports whether the cursor must be drawn into
	// the frame because no hardware cursor plane is usable.
	SoftwareCursorForced() bool

	// Renderable reports whether the backend can accept a frame now.
	Renderable() bool

	// Format is the preferred buffer format.
	Format() gputypes.TextureFormat

	// Swapchain returns the output's buffers.
	Swapchain() swapchain.Swapchain

	// Context returns the dedicated rendering context of the output, or
	// nil when it renders through the compositor's shared context.
	Context() Context

	// Test reports whether state could be committed, without applying it.
	Test(state *State) error

	// Commit atomically applies state and presents its target.
	Commit(state *State) error

	// Rollback hands an uncommitted state's target back to the swapchain.
	Rollback(state *State)
}

// Mode is a display mode.
type Mode struct {
	Width   int
	Height  int
	Refresh int // mHz
}

// State is a pending output configuration plus, optionally, a frame.
// Nil fields leave the current value unchanged.
type State struct {
	Target render.RenderTarget
	Damage []image.Rectangle

	Mode      *Mode
	Scale     float64
	Transform *Transform
	Enabled   *bool
	Position  *image.Point

	// CustomMode sets a mode the output does not advertise. It cannot be
	// combined with Mode.
	CustomMode *Mode

	// GammaLUT replaces the gamma ramp. An empty LUT restores the
	// identity ramp.
	GammaLUT *GammaLUT

	// AdaptiveSync switches variable refresh rate on or off.
	AdaptiveSync *bool
}

// GammaLUT is a per-channel gamma ramp. All channels have the same length.
type GammaLUT struct {
	Red   []uint16
	Green []uint16
	Blue  []uint16
}

// Size returns the ramp length, or -1 when the channels disagree.
func (g *GammaLUT) Size() int {
	if len(g.Red) != len(g.Green) || len(g.Red) != len(g.Blue) {
		return -1
	}
	return len(g.Red)
}

// HasFrame reports whether the state carries a rendered target.
func (s *State) HasFrame() bool {
	return s.Target != nil
}

// HasChanges reports whether the state changes output configuration.
func (s *State) HasChanges() bool {
	return s.Mode != nil || s.Scale > 0 || s.Transform != nil || s.Enabled != nil || s.Position != nil ||
		s.CustomMode != nil || s.GammaLUT != nil || s.AdaptiveSync != nil
}

// RequestedMode returns the mode the state switches to, from Mode or
// CustomMode, and false when it keeps the current one.
func (s *State) RequestedMode() (Mode, bool) {
	switch {
	case s.Mode != nil:
		return *s.Mode, true
	case s.CustomMode != nil:
		return *s.CustomMode, true
	}
	return Mode{}, false
}

// TransformedSizeOf returns the output size after its transform.
func TransformedSizeOf(o Output) (int, int) {
	w, h := o.Size()
	return TransformedSize(w, h, o.Transform())
}

// EffectiveSizeOf returns the logical size of the output.
func EffectiveSizeOf(o Output) (int, int) {
	w, h := o.Size()
	return EffectiveSize(w, h, o.Transform(), o.ScaleFactor())
}

// LayoutRect returns the area of the output in the global layout.
func LayoutRect(o Output) image.Rectangle {
	w, h := EffectiveSizeOf(o)
	return image.Rectangle{Min: o.Position(), Max: o.Position().Add(image.Pt(w, h))}
}
