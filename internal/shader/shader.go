// Package shader compiles the compositor's WGSL shaders and creates hal
// shader modules from them.
package shader

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed blit.wgsl
var blitSource string

// Entry points of the blit shader.
const (
	BlitVertexEntry   = "vs_main"
	BlitFragmentEntry = "fs_main"
)

// BlitUniformSize is the size in bytes of the blit uniform block.
const BlitUniformSize = 32

// ErrNoDevice is returned when creating a module without a device.
var ErrNoDevice = errors.New("shader: nil device")

var (
	blitOnce  sync.Once
	blitSPIRV []uint32
	blitErr   error
)

// BlitSource returns the WGSL source of the blit shader.
func BlitSource() string { return blitSource }

// Compile compiles WGSL source to SPIR-V words.
func Compile(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// CompileBlit compiles the blit shader once and returns the cached words.
func CompileBlit() ([]uint32, error) {
	blitOnce.Do(func() {
		blitSPIRV, blitErr = Compile(blitSource)
	})
	return blitSPIRV, blitErr
}

// CreateModule creates a hal shader module from SPIR-V words.
func CreateModule(device hal.Device, label string, spirv []uint32) (hal.ShaderModule, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
}

// Blit owns the blit shader module of one device.
type Blit struct {
	device hal.Device
	module hal.ShaderModule
}

// NewBlit compiles the blit shader and creates its module on device.
func NewBlit(device hal.Device) (*Blit, error) {
	spirv, err := CompileBlit()
	if err != nil {
		return nil, err
	}
	module, err := CreateModule(device, "multiout-blit", spirv)
	if err != nil {
		return nil, fmt.Errorf("shader: create blit module: %w", err)
	}
	return &Blit{device: device, module: module}, nil
}

// Module returns the shader module, or nil after Destroy.
func (b *Blit) Module() hal.ShaderModule { return b.module }

// Destroy releases the module. It is safe to call more than once.
func (b *Blit) Destroy() {
	if b.module == nil {
		return
	}
	b.device.DestroyShaderModule(b.module)
	b.module = nil
}

// BlitUniforms packs the uniform block for drawing a quad. m maps unit quad
// coordinates to clip space.
func BlitUniforms(m gg.Matrix, opacity float32) [8]float32 {
	return [8]float32{
		float32(m.A), float32(m.B), float32(m.C), opacity,
		float32(m.D), float32(m.E), float32(m.F), 0,
	}
}
