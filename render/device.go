// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host compositor.
//
// The compositor RECEIVES the device from its backend, it does NOT create
// one. Output contexts hand out a DeviceHandle so the scene graph can
// share GPU resources across every output.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for the software path where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns RGBA8 for the null device, the format of
// PixmapTarget.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// AdapterInfo describes the CPU rasterizer.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "software", Type: gpucontext.AdapterTypeSoftware}
}

var _ DeviceHandle = NullDeviceHandle{}

// HALDeviceHandle exposes an opened hal device as a DeviceHandle.
type HALDeviceHandle struct {
	adapter hal.Adapter
	device  hal.Device
	queue   hal.Queue
	format  gputypes.TextureFormat
	info    gpucontext.AdapterInfo
}

// NewHALDeviceHandle wraps an opened hal device.
func NewHALDeviceHandle(exposed hal.ExposedAdapter, open hal.OpenDevice, format gputypes.TextureFormat) *HALDeviceHandle {
	return &HALDeviceHandle{
		adapter: exposed.Adapter,
		device:  open.Device,
		queue:   open.Queue,
		format:  format,
		info: gpucontext.AdapterInfo{
			Name: exposed.Info.Name,
			Type: adapterType(exposed.Info.DeviceType),
		},
	}
}

// Device returns the hal device.
func (h *HALDeviceHandle) Device() gpucontext.Device { return h.device }

// Queue returns the hal queue.
func (h *HALDeviceHandle) Queue() gpucontext.Queue { return h.queue }

// Adapter returns the hal adapter.
func (h *HALDeviceHandle) Adapter() gpucontext.Adapter { return h.adapter }

// SurfaceFormat returns the preferred surface format.
func (h *HALDeviceHandle) SurfaceFormat() gputypes.TextureFormat { return h.format }

// AdapterInfo returns the adapter name and type.
func (h *HALDeviceHandle) AdapterInfo() gpucontext.AdapterInfo { return h.info }

// HALDevice returns the device with its hal type.
func (h *HALDeviceHandle) HALDevice() hal.Device { return h.device }

// HALQueue returns the queue with its hal type.
func (h *HALDeviceHandle) HALQueue() hal.Queue { return h.queue }

// HALAdapter returns the adapter with its hal type.
func (h *HALDeviceHandle) HALAdapter() hal.Adapter { return h.adapter }

var _ DeviceHandle = (*HALDeviceHandle)(nil)

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
