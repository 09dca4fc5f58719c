// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package headless

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/swapchain"
)

// ErrInjected is the default error of injected failures.
var ErrInjected = errors.New("headless: injected failure")

const defaultRefresh = 60000

// Output is a virtual display.
type Output struct {
	b *Backend

	name       string
	mode       backend.Mode
	modes      []backend.Mode
	custom     bool
	scale      float64
	position   image.Point
	transform  backend.Transform
	enabled    bool
	swCursor   bool
	renderable bool

	gammaSize    int
	gamma        *backend.GammaLUT
	vrrCapable   bool
	adaptiveSync bool

	swapchain swapchain.Swapchain
	pixmap    *swapchain.PixmapSwapchain // nil for GPU outputs
	surface   hal.Surface
	format    gputypes.TextureFormat
	context   backend.Context

	commits    int
	frames     uint64
	lastDamage []image.Rectangle
	redraws    int

	failCommits int
	failTests   int
	failErr     error
}

func newOutput(b *Backend, cfg OutputConfig) *Output {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = defaultRefresh
	}
	o := &Output{
		b:          b,
		name:       cfg.Name,
		mode:       backend.Mode{Width: cfg.Width, Height: cfg.Height, Refresh: cfg.Refresh},
		modes:      slices.Clone(cfg.Modes),
		scale:      cfg.Scale,
		position:   cfg.Position,
		transform:  cfg.Transform,
		enabled:    !cfg.Disabled,
		swCursor:   cfg.SoftwareCursor,
		renderable: true,
		gammaSize:  cfg.GammaSize,
		vrrCapable: cfg.AdaptiveSync,
		format:     gputypes.TextureFormatRGBA8Unorm,
	}
	if len(o.modes) > 0 && !slices.Contains(o.modes, o.mode) {
		o.custom = true
	}

	if gpu := b.gpu; gpu != nil && gpu.Instance != nil && gpu.Device != nil {
		surface, err := gpu.Instance.CreateSurface(0, 0)
		if err == nil {
			o.surface = surface
			o.swapchain = swapchain.NewHALSwapchain(gpu.Device, surface)
			o.format = gpu.Device.SurfaceFormat()
			if cfg.DedicatedContext {
				o.context = backend.NewGPUContext(gpu.Device)
			}
		}
	}
	if o.swapchain == nil {
		o.pixmap = swapchain.NewPixmapSwapchain(b.bufferCount)
		o.swapchain = o.pixmap
		if cfg.DedicatedContext {
			o.context = backend.NewSoftwareContext()
		}
	}

	// A zero-sized mode leaves the swapchain unconfigured until the first
	// valid mode; acquisition fails until then.
	_ = o.swapchain.Configure(swapchain.Config{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   o.format,
		Mirrored: cfg.Mirrored,
	})
	return o
}

// Name returns the output name.
func (o *Output) Name() string { return o.name }

// Size returns the mode size in buffer pixels.
func (o *Output) Size() (int, int) { return o.mode.Width, o.mode.Height }

// ScaleFactor returns the output scale.
func (o *Output) ScaleFactor() float64 { return o.scale }

// RequestRedraw reports EventRedraw.
func (o *Output) RequestRedraw() {
	o.redraws++
	o.b.Emit(backend.Event{Kind: backend.EventRedraw, Output: o})
}

// Position returns the layout position.
func (o *Output) Position() image.Point { return o.position }

// Transform returns the output transform.
func (o *Output) Transform() backend.Transform { return o.transform }

// Enabled reports whether the output is on.
func (o *Output) Enabled() bool { return o.enabled }

// SoftwareCursorForced reports whether the cursor is drawn into frames.
func (o *Output) SoftwareCursorForced() bool { return o.swCursor }

// Renderable reports whether the output accepts frames.
func (o *Output) Renderable() bool { return o.renderable }

// Format returns RGBA8 for CPU swapchains and the device surface format
// for GPU outputs.
func (o *Output) Format() gputypes.TextureFormat { return o.format }

// Swapchain returns the output swapchain.
func (o *Output) Swapchain() swapchain.Swapchain { return o.swapchain }

// Context returns the dedicated context, or nil.
func (o *Output) Context() backend.Context { return o.context }

// Mode returns the current mode.
func (o *Output) Mode() backend.Mode { return o.mode }

// Test validates state without applying it.
func (o *Output) Test(state *backend.State) error {
	if o.failTests > 0 {
		o.failTests--
		return fmt.Errorf("%w: %w", backend.ErrTestFailed, o.injected())
	}

	mode := o.mode
	if state.Mode != nil && state.CustomMode != nil {
		return fmt.Errorf("%w: both a mode and a custom mode", backend.ErrTestFailed)
	}
	if state.Mode != nil && len(o.modes) > 0 && !slices.Contains(o.modes, *state.Mode) {
		return fmt.Errorf("%w: mode %dx%d@%d not advertised", backend.ErrTestFailed,
			state.Mode.Width, state.Mode.Height, state.Mode.Refresh)
	}
	if m, ok := state.RequestedMode(); ok {
		if m.Refresh < 0 {
			return fmt.Errorf("%w: refresh %d", backend.ErrTestFailed, m.Refresh)
		}
		mode = m
		cfg := o.swapchain.Config()
		cfg.Width, cfg.Height, cfg.Format = mode.Width, mode.Height, o.format
		if err := o.swapchain.Test(cfg); err != nil {
			return fmt.Errorf("%w: mode %dx%d: %w", backend.ErrTestFailed, mode.Width, mode.Height, err)
		}
	}
	if state.Scale < 0 {
		return fmt.Errorf("%w: scale %v", backend.ErrTestFailed, state.Scale)
	}
	if lut := state.GammaLUT; lut != nil {
		n := lut.Size()
		switch {
		case o.gammaSize == 0:
			return fmt.Errorf("%w: gamma LUT not supported", backend.ErrTestFailed)
		case n != 0 && n != o.gammaSize:
			return fmt.Errorf("%w: gamma LUT size %d, want %d", backend.ErrTestFailed, n, o.gammaSize)
		}
	}
	if state.AdaptiveSync != nil && *state.AdaptiveSync && !o.vrrCapable {
		return fmt.Errorf("%w: adaptive sync not supported", backend.ErrTestFailed)
	}

	enabled := o.enabled
	if state.Enabled != nil {
		enabled = *state.Enabled
	}
	if state.Target != nil {
		if !enabled {
			return backend.ErrOutputDisabled
		}
		if state.Target.Width() != mode.Width || state.Target.Height() != mode.Height {
			return fmt.Errorf("%w: buffer %dx%d does not match mode %dx%d", backend.ErrTestFailed,
				state.Target.Width(), state.Target.Height(), mode.Width, mode.Height)
		}
	}
	return nil
}

// Commit applies state atomically: either the frame is presented and every
// change applied, or nothing changes.
func (o *Output) Commit(state *backend.State) error {
	if err := o.Test(state); err != nil {
		return err
	}
	if o.failCommits > 0 {
		o.failCommits--
		return o.injected()
	}
	if state.Target != nil {
		if err := o.swapchain.Present(state.Target, state.Damage); err != nil {
			return err
		}
		o.frames++
		o.lastDamage = slices.Clone(state.Damage)
	}
	o.commits++
	o.apply(state)
	return nil
}

// Rollback hands the state's target back to the swapchain.
func (o *Output) Rollback(state *backend.State) {
	if state.Target != nil {
		o.swapchain.Discard(state.Target)
	}
}

func (o *Output) apply(state *backend.State) {
	var events []backend.EventKind
	if m, ok := state.RequestedMode(); ok {
		o.custom = state.CustomMode != nil
		if m != o.mode {
			o.mode = m
			events = append(events, backend.EventMode)
		}
	}
	if lut := state.GammaLUT; lut != nil {
		if lut.Size() == 0 {
			o.gamma = nil
		} else {
			o.gamma = &backend.GammaLUT{
				Red:   slices.Clone(lut.Red),
				Green: slices.Clone(lut.Green),
				Blue:  slices.Clone(lut.Blue),
			}
		}
	}
	if state.AdaptiveSync != nil {
		o.adaptiveSync = *state.AdaptiveSync
	}
	if state.Scale > 0 && state.Scale != o.scale {
		o.scale = state.Scale
		events = append(events, backend.EventScale)
	}
	if state.Transform != nil && *state.Transform != o.transform {
		o.transform = *state.Transform
		events = append(events, backend.EventTransform)
	}
	if state.Position != nil && *state.Position != o.position {
		o.position = *state.Position
		events = append(events, backend.EventPosition)
	}
	if state.Enabled != nil && *state.Enabled != o.enabled {
		o.enabled = *state.Enabled
		events = append(events, backend.EventEnabled)
	}
	for _, kind := range events {
		o.b.Emit(backend.Event{Kind: kind, Output: o})
	}
}

// SetMode changes the mode outside of a frame, as a hotplug or a user
// configuration change would.
func (o *Output) SetMode(width, height int) error {
	mode := backend.Mode{Width: width, Height: height, Refresh: o.mode.Refresh}
	return o.Commit(&backend.State{Mode: &mode})
}

// SetCustomMode switches to a mode outside the advertised list.
func (o *Output) SetCustomMode(width, height, refresh int) error {
	mode := backend.Mode{Width: width, Height: height, Refresh: refresh}
	return o.Commit(&backend.State{CustomMode: &mode})
}

// SetGammaLUT replaces the gamma ramp; nil restores the identity ramp.
func (o *Output) SetGammaLUT(lut *backend.GammaLUT) error {
	if lut == nil {
		lut = &backend.GammaLUT{}
	}
	return o.Commit(&backend.State{GammaLUT: lut})
}

// SetAdaptiveSync switches variable refresh rate on or off.
func (o *Output) SetAdaptiveSync(enabled bool) error {
	return o.Commit(&backend.State{AdaptiveSync: &enabled})
}

// SetScale changes the output scale.
func (o *Output) SetScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: scale %v", backend.ErrTestFailed, scale)
	}
	return o.Commit(&backend.State{Scale: scale})
}

// SetTransform changes the output transform.
func (o *Output) SetTransform(t backend.Transform) error {
	return o.Commit(&backend.State{Transform: &t})
}

// SetPosition moves the output in the layout.
func (o *Output) SetPosition(p image.Point) error {
	return o.Commit(&backend.State{Position: &p})
}

// SetEnabled switches the output on or off.
func (o *Output) SetEnabled(enabled bool) error {
	return o.Commit(&backend.State{Enabled: &enabled})
}

// SetRenderable simulates the output becoming busy (false), e.g. while a
// page flip is pending, or ready again (true).
func (o *Output) SetRenderable(renderable bool) {
	if o.renderable == renderable {
		return
	}
	o.renderable = renderable
	o.b.Emit(backend.Event{Kind: backend.EventRenderable, Output: o})
}

// FailCommits makes the next n commits fail with err, or ErrInjected
// when err is nil.
func (o *Output) FailCommits(n int, err error) {
	o.failCommits = n
	o.failErr = err
}

// FailTests makes the next n tests fail.
func (o *Output) FailTests(n int, err error) {
	o.failTests = n
	o.failErr = err
}

func (o *Output) injected() error {
	if o.failErr != nil {
		return o.failErr
	}
	return ErrInjected
}

// Commits returns the number of successful commits, frames and
// configuration changes alike.
func (o *Output) Commits() int { return o.commits }

// Frames returns the number of presented frames.
func (o *Output) Frames() uint64 { return o.frames }

// Redraws returns the number of redraw requests.
func (o *Output) Redraws() int { return o.redraws }

// LastDamage returns the damage of the last presented frame.
func (o *Output) LastDamage() []image.Rectangle { return o.lastDamage }

// Modes returns the advertised modes.
func (o *Output) Modes() []backend.Mode { return slices.Clone(o.modes) }

// CustomMode reports whether the current mode is not an advertised one.
func (o *Output) CustomMode() bool { return o.custom }

// GammaLUT returns the active gamma ramp, or nil for the identity ramp.
func (o *Output) GammaLUT() *backend.GammaLUT { return o.gamma }

// AdaptiveSync reports whether variable refresh rate is on.
func (o *Output) AdaptiveSync() bool { return o.adaptiveSync }

// GPU reports whether the output presents through a hal surface.
func (o *Output) GPU() bool { return o.surface != nil }

// Front returns the image on display, or nil before the first frame and
// for GPU outputs.
func (o *Output) Front() *image.RGBA {
	if t := o.FrontTarget(); t != nil {
		return t.Image()
	}
	return nil
}

// FrontTarget returns the buffer on display, or nil.
func (o *Output) FrontTarget() *render.PixmapTarget {
	if o.pixmap == nil {
		return nil
	}
	return o.pixmap.Front()
}

func (o *Output) destroy() {
	o.swapchain.Destroy()
	if o.surface != nil {
		o.surface.Destroy()
		o.surface = nil
	}
	o.renderable = false
}

var _ backend.Output = (*Output)(nil)
