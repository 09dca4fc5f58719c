// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

func TestNullDeviceHandle(t *testing.T) {
	var handle DeviceHandle = NullDeviceHandle{}

	if handle.Device() != nil {
		t.Error("NullDeviceHandle.Device() should return nil")
	}
	if handle.Queue() != nil {
		t.Error("NullDeviceHandle.Queue() should return nil")
	}
	if handle.Adapter() != nil {
		t.Error("NullDeviceHandle.Adapter() should return nil")
	}
	if handle.SurfaceFormat() != gputypes.TextureFormatRGBA8Unorm {
		t.Error("NullDeviceHandle.SurfaceFormat() should return RGBA8Unorm")
	}
	if info := handle.AdapterInfo(); info.Type != gpucontext.AdapterTypeSoftware {
		t.Errorf("AdapterInfo().Type = %v, want Software", info.Type)
	}
}

func TestHALDeviceHandle(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop instance exposed no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	handle := NewHALDeviceHandle(adapters[0], open, gputypes.TextureFormatBGRA8Unorm)

	var provider gpucontext.DeviceProvider = handle
	if provider.Device() == nil || provider.Queue() == nil || provider.Adapter() == nil {
		t.Error("HAL handle should expose device, queue and adapter")
	}
	if handle.HALDevice() != open.Device {
		t.Error("HALDevice() should return the opened device")
	}
	if handle.SurfaceFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat() = %v, want BGRA8Unorm", handle.SurfaceFormat())
	}
	info := handle.AdapterInfo()
	if info.Name != "Noop Adapter" {
		t.Errorf("AdapterInfo().Name = %q, want %q", info.Name, "Noop Adapter")
	}
	if info.Type != gpucontext.AdapterTypeUnknown {
		t.Errorf("AdapterInfo().Type = %v, want Unknown", info.Type)
	}
}

func TestAdapterType(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucontext.AdapterType
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucontext.AdapterTypeDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucontext.AdapterTypeIntegrated},
		{gputypes.DeviceTypeCPU, gpucontext.AdapterTypeSoftware},
		{gputypes.DeviceTypeVirtualGPU, gpucontext.AdapterTypeUnknown},
		{gputypes.DeviceTypeOther, gpucontext.AdapterTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := adapterType(tt.in); got != tt.want {
				t.Errorf("adapterType(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
