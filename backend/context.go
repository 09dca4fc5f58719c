// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/multiout/render"
)

// Context is a rendering context that can be bound to one target at a
// time.
type Context interface {
	// MakeCurrent binds target for rendering.
	MakeCurrent(target render.RenderTarget) error

	// DoneCurrent unbinds the current target.
	DoneCurrent()

	// Provider returns the device the context renders with.
	Provider() gpucontext.DeviceProvider
}

// SoftwareContext renders into CPU targets. It is the compositor's shared
// fallback context when outputs bring none.
type SoftwareContext struct {
	current render.RenderTarget
	binds   int
}

// NewSoftwareContext creates an unbound software context.
func NewSoftwareContext() *SoftwareContext {
	return &SoftwareContext{}
}

// MakeCurrent binds a target with CPU pixels.
func (c *SoftwareContext) MakeCurrent(target render.RenderTarget) error {
	if target == nil || target.Pixels() == nil {
		return ErrNoCPUAccess
	}
	c.current = target
	c.binds++
	return nil
}

// DoneCurrent unbinds the current target.
func (c *SoftwareContext) DoneCurrent() {
	c.current = nil
}

// Provider returns a null device.
func (c *SoftwareContext) Provider() gpucontext.DeviceProvider {
	return render.NullDeviceHandle{}
}

// Current returns the bound target, or nil.
func (c *SoftwareContext) Current() render.RenderTarget {
	return c.current
}

// Binds returns how many times a target was bound.
func (c *SoftwareContext) Binds() int {
	return c.binds
}

// GPUContext renders into hal textures with a shared device.
type GPUContext struct {
	handle  *render.HALDeviceHandle
	current render.RenderTarget
}

// NewGPUContext creates a context on the device behind handle.
func NewGPUContext(handle *render.HALDeviceHandle) *GPUContext {
	return &GPUContext{handle: handle}
}

// MakeCurrent binds a target backed by a texture.
func (c *GPUContext) MakeCurrent(target render.RenderTarget) error {
	if target == nil || target.Texture() == nil {
		return ErrNoGPUAccess
	}
	c.current = target
	return nil
}

// DoneCurrent unbinds the current target.
func (c *GPUContext) DoneCurrent() {
	c.current = nil
}

// Provider returns the hal device handle.
func (c *GPUContext) Provider() gpucontext.DeviceProvider {
	return c.handle
}

// Current returns the bound target, or nil.
func (c *GPUContext) Current() render.RenderTarget {
	return c.current
}

var (
	_ Context = (*SoftwareContext)(nil)
	_ Context = (*GPUContext)(nil)
)
