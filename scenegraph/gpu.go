package scenegraph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/multiout/internal/shader"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/texture"
)

// ErrNoTexture is returned when a GPU control is given a target without a
// GPU texture.
var ErrNoTexture = errors.New("scenegraph: target has no GPU texture")

// uploadFormat is the format image buffers and solid colors are uploaded in.
const uploadFormat = gputypes.TextureFormatRGBA8Unorm

// gpuImage is a sampled texture owned or borrowed by the control.
type gpuImage struct {
	texture hal.Texture // nil when borrowed from a GPU buffer
	view    hal.TextureView
	version uint64
	bridge  *texture.Bridge
}

// gpuFrame holds the transient resources of one submitted frame.
type gpuFrame struct {
	submission uint64
	cmd        hal.CommandBuffer
	view       hal.TextureView
	buffers    []hal.Buffer
	groups     []hal.BindGroup
	retired    []*gpuImage
}

// GPUControl renders a scene into GPU targets with hal.
//
// Every frame is one render pass over the target texture: a clear to the
// background color, then one blit draw per item in paint order. Rect items
// are drawn from 1x1 textures of their color; texture items sample the
// bridged buffer, uploading image buffers when their bridge version
// changes. Transient per-frame resources are released once the queue
// reports the frame's submission complete.
//
// GPUControl is NOT safe for concurrent use.
type GPUControl struct {
	scene  *Scene
	device hal.Device
	queue  hal.Queue
	blit   *shader.Blit

	background gg.RGBA
	dpr        float64

	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipelines   map[gputypes.TextureFormat]hal.RenderPipeline
	sampler     hal.Sampler

	solids map[gg.RGBA]*gpuImage
	images map[*TextureItem]*gpuImage

	target render.RenderTarget
	params *render.FrameParams
	frame  *gpuFrame

	ops           []drawOp
	synced        bool
	syncedVersion uint64

	inFlight []*gpuFrame
	frames   uint64
	draws    int
}

// NewGPUControl creates a control drawing scene with the device behind
// handle and the blit shader module of that device. The control does not
// own blit.
func NewGPUControl(scene *Scene, handle *render.HALDeviceHandle, blit *shader.Blit) *GPUControl {
	return &GPUControl{
		scene:      scene,
		device:     handle.HALDevice(),
		queue:      handle.HALQueue(),
		blit:       blit,
		background: gg.Transparent,
		dpr:        1,
		pipelines:  make(map[gputypes.TextureFormat]hal.RenderPipeline),
		solids:     make(map[gg.RGBA]*gpuImage),
		images:     make(map[*TextureItem]*gpuImage),
	}
}

// Scene returns the rendered scene.
func (c *GPUControl) Scene() *Scene { return c.scene }

// SetBackground sets the color every frame is cleared to.
func (c *GPUControl) SetBackground(col color.Color) {
	c.background = gg.FromColor(col)
}

// PolishItems polishes the scene.
func (c *GPUControl) PolishItems() {
	if n := c.scene.PolishItems(); n > 0 {
		slogger().Debug("scenegraph: polished items", "count", n)
	}
}

// SetDevicePixelRatio records the shared device pixel ratio.
func (c *GPUControl) SetDevicePixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	c.dpr = ratio
}

// DevicePixelRatio returns the ratio set by SetDevicePixelRatio.
func (c *GPUControl) DevicePixelRatio() float64 { return c.dpr }

// BeginFrame binds a texture-backed target and params for one frame.
func (c *GPUControl) BeginFrame(target render.RenderTarget, params render.FrameParams) error {
	if c.params != nil {
		return ErrInFrame
	}
	if target == nil || target.Texture() == nil {
		return ErrNoTexture
	}
	if c.blit == nil || c.blit.Module() == nil {
		return fmt.Errorf("scenegraph: %w", shader.ErrNoDevice)
	}
	c.reclaim()

	if _, err := c.pipeline(target.Format()); err != nil {
		return err
	}
	view, err := c.device.CreateTextureView(target.Texture(), &hal.TextureViewDescriptor{
		Label:           "multiout-target",
		Format:          target.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("scenegraph: target view: %w", err)
	}

	c.target = target
	c.params = &params
	c.frame = &gpuFrame{view: view}
	return nil
}

// FrameParams returns the parameters of the frame in progress. ok is false
// outside of BeginFrame/EndFrame.
func (c *GPUControl) FrameParams() (params render.FrameParams, ok bool) {
	if c.params == nil {
		return render.FrameParams{}, false
	}
	return *c.params, true
}

// Sync rebuilds the draw list when the scene changed and uploads image
// buffers whose content changed.
func (c *GPUControl) Sync() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	if !c.synced || c.syncedVersion != c.scene.Version() {
		c.ops = collectDrawOps(c.scene, c.ops[:0])
		c.synced = true
		c.syncedVersion = c.scene.Version()
		c.dropStaleImages()
	}
	for _, op := range c.ops {
		if n, ok := op.node.(*TextureItem); ok {
			if err := c.syncImage(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render records the frame's render pass.
func (c *GPUControl) Render() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	pipeline, err := c.pipeline(c.target.Format())
	if err != nil {
		return err
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "multiout-frame"})
	if err != nil {
		return fmt.Errorf("scenegraph: command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(c.params.Output); err != nil {
		return fmt.Errorf("scenegraph: begin encoding: %w", err)
	}

	bg := c.background
	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "multiout-scene",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.frame.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: bg.R * bg.A, G: bg.G * bg.A, B: bg.B * bg.A, A: bg.A},
		}},
	})
	pass.SetPipeline(pipeline)

	proj := c.params.Projection.Affine()
	for _, op := range c.ops {
		img, size, ok, err := c.source(op.node)
		if err != nil {
			pass.End()
			encoder.DiscardEncoding()
			return err
		}
		if !ok {
			continue
		}
		quad := proj.Multiply(op.itemToWindow).Multiply(gg.Scale(size.X, size.Y))
		group, err := c.bindQuad(img.view, quad)
		if err != nil {
			pass.End()
			encoder.DiscardEncoding()
			return err
		}
		pass.SetBindGroup(0, group, nil)
		pass.Draw(4, 1, 0, 0)
		c.draws++
	}
	pass.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("scenegraph: end encoding: %w", err)
	}
	c.frame.cmd = cmd
	return nil
}

// EndFrame submits the recorded frame and drops the frame state.
func (c *GPUControl) EndFrame() error {
	if c.params == nil {
		return ErrNotInFrame
	}
	frame := c.frame
	c.params, c.target, c.frame = nil, nil, nil

	if frame.cmd == nil {
		c.release(frame)
		return nil
	}
	idx, err := c.queue.Submit([]hal.CommandBuffer{frame.cmd})
	if err != nil {
		c.release(frame)
		return fmt.Errorf("scenegraph: submit: %w", err)
	}
	frame.submission = idx
	c.inFlight = append(c.inFlight, frame)
	c.frames++
	return nil
}

// Frames returns the number of submitted frames.
func (c *GPUControl) Frames() uint64 { return c.frames }

// Draws returns the number of quads recorded so far.
func (c *GPUControl) Draws() int { return c.draws }

// InFlight returns the number of submitted frames whose resources are not
// released yet.
func (c *GPUControl) InFlight() int { return len(c.inFlight) }

// Destroy waits for the device and releases every GPU resource.
func (c *GPUControl) Destroy() {
	if len(c.inFlight) > 0 {
		if err := c.device.WaitIdle(); err != nil {
			slogger().Warn("scenegraph: wait idle", "err", err)
		}
	}
	for _, f := range c.inFlight {
		c.release(f)
	}
	c.inFlight = nil

	for k, img := range c.solids {
		c.destroyImage(img)
		delete(c.solids, k)
	}
	for k, img := range c.images {
		c.destroyImage(img)
		delete(c.images, k)
	}
	for f, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, f)
	}
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.groupLayout != nil {
		c.device.DestroyBindGroupLayout(c.groupLayout)
		c.groupLayout = nil
	}
}

// pipeline returns the blit pipeline for a target format, creating the
// shared layouts on first use.
func (c *GPUControl) pipeline(format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[format]; ok {
		return p, nil
	}
	if c.groupLayout == nil {
		layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: "multiout-blit-group",
			Entries: []gputypes.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
					Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
				},
				{
					Binding:    1,
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				{
					Binding:    2,
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("scenegraph: bind group layout: %w", err)
		}
		c.groupLayout = layout
	}
	if c.pipeLayout == nil {
		layout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            "multiout-blit-layout",
			BindGroupLayouts: []hal.BindGroupLayout{c.groupLayout},
		})
		if err != nil {
			return nil, fmt.Errorf("scenegraph: pipeline layout: %w", err)
		}
		c.pipeLayout = layout
	}
	if c.sampler == nil {
		sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "multiout-blit-sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			LodMaxClamp:  32,
		})
		if err != nil {
			return nil, fmt.Errorf("scenegraph: sampler: %w", err)
		}
		c.sampler = sampler
	}

	blend := gputypes.BlendStatePremultiplied()
	p, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "multiout-blit",
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.blit.Module(),
			EntryPoint: shader.BlitVertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     c.blit.Module(),
			EntryPoint: shader.BlitFragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("scenegraph: blit pipeline %s: %w", format, err)
	}
	c.pipelines[format] = p
	slogger().Debug("scenegraph: blit pipeline created", "format", format.String())
	return p, nil
}

// source returns the texture and item size a node is drawn with. ok is
// false for nodes with nothing to draw.
func (c *GPUControl) source(n Node) (img *gpuImage, size gg.Point, ok bool, err error) {
	switch n := n.(type) {
	case *RectItem:
		if n.width <= 0 || n.height <= 0 || n.color.A == 0 {
			return nil, gg.Point{}, false, nil
		}
		img, err = c.solid(n.color)
		return img, gg.Pt(n.width, n.height), err == nil, err
	case *TextureItem:
		if _, drawable := n.textureMatrix(); !drawable {
			return nil, gg.Point{}, false, nil
		}
		img = c.images[n]
		return img, gg.Pt(n.width, n.height), img != nil, nil
	}
	return nil, gg.Point{}, false, nil
}

// solid returns a 1x1 texture of a color, premultiplied.
func (c *GPUControl) solid(col gg.RGBA) (*gpuImage, error) {
	if img, ok := c.solids[col]; ok {
		return img, nil
	}
	px := [4]byte{unitByte(col.R * col.A), unitByte(col.G * col.A), unitByte(col.B * col.A), unitByte(col.A)}
	img, err := c.upload(px[:], 4, 1, 1)
	if err != nil {
		return nil, err
	}
	c.solids[col] = img
	return img, nil
}

// syncImage makes the texture of a texture item current.
func (c *GPUControl) syncImage(n *TextureItem) error {
	b := n.bridge
	if b == nil || !b.Bound() {
		return nil
	}
	if img, ok := c.images[n]; ok && img.bridge == b && img.version == b.Version() {
		return nil
	}
	if img, ok := c.images[n]; ok {
		c.retire(img)
		delete(c.images, n)
	}

	var img *gpuImage
	switch b.Kind() {
	case texture.KindGPU:
		view, err := c.device.CreateTextureView(b.Texture(), &hal.TextureViewDescriptor{
			Label:           "multiout-client",
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		})
		if err != nil {
			return fmt.Errorf("scenegraph: client texture view: %w", err)
		}
		img = &gpuImage{view: view}
	case texture.KindImage:
		src := b.Image()
		var err error
		img, err = c.upload(src.Pix, src.Stride, src.Bounds().Dx(), src.Bounds().Dy())
		if err != nil {
			return err
		}
	default:
		return nil
	}
	img.bridge = b
	img.version = b.Version()
	c.images[n] = img
	return nil
}

// upload creates a sampled texture from RGBA8 rows.
func (c *GPUControl) upload(pix []byte, stride, width, height int) (*gpuImage, error) {
	//nolint:gosec // G115: image sizes are positive
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "multiout-upload",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        uploadFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("scenegraph: upload texture: %w", err)
	}
	//nolint:gosec // G115: stride and height are positive
	err = c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(height)},
		&size,
	)
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("scenegraph: write texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "multiout-upload",
		Format:          uploadFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("scenegraph: upload view: %w", err)
	}
	return &gpuImage{texture: tex, view: view}, nil
}

// bindQuad creates the uniform buffer and bind group of one draw. quad
// maps the unit square to clip space.
func (c *GPUControl) bindQuad(view hal.TextureView, quad gg.Matrix) (hal.BindGroup, error) {
	u := shader.BlitUniforms(quad, 1)
	data := make([]byte, 0, shader.BlitUniformSize)
	for _, f := range u {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
	}

	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "multiout-blit-uniform",
		Size:  shader.BlitUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("scenegraph: uniform buffer: %w", err)
	}
	c.frame.buffers = append(c.frame.buffers, buf)
	if err := c.queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("scenegraph: write uniforms: %w", err)
	}

	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "multiout-blit-group",
		Layout: c.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: shader.BlitUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scenegraph: bind group: %w", err)
	}
	c.frame.groups = append(c.frame.groups, group)
	return group, nil
}

// reclaim releases the resources of frames the queue has completed.
func (c *GPUControl) reclaim() {
	if len(c.inFlight) == 0 {
		return
	}
	done := c.queue.PollCompleted()
	kept := c.inFlight[:0]
	for _, f := range c.inFlight {
		if f.submission <= done {
			c.release(f)
			continue
		}
		kept = append(kept, f)
	}
	clear(c.inFlight[len(kept):])
	c.inFlight = kept
}

func (c *GPUControl) release(f *gpuFrame) {
	for _, g := range f.groups {
		c.device.DestroyBindGroup(g)
	}
	for _, b := range f.buffers {
		c.device.DestroyBuffer(b)
	}
	if f.cmd != nil {
		c.device.FreeCommandBuffer(f.cmd)
	}
	if f.view != nil {
		c.device.DestroyTextureView(f.view)
	}
	for _, img := range f.retired {
		c.destroyImage(img)
	}
}

// retire releases img once the last submitted frame, which may sample
// it, completes.
func (c *GPUControl) retire(img *gpuImage) {
	if n := len(c.inFlight); n > 0 {
		c.inFlight[n-1].retired = append(c.inFlight[n-1].retired, img)
		return
	}
	c.destroyImage(img)
}

// dropStaleImages releases textures of items no longer in the scene.
func (c *GPUControl) dropStaleImages() {
	live := make(map[*TextureItem]bool, len(c.images))
	for _, op := range c.ops {
		if n, ok := op.node.(*TextureItem); ok {
			live[n] = true
		}
	}
	for n, img := range c.images {
		if !live[n] {
			c.retire(img)
			delete(c.images, n)
		}
	}
}

func (c *GPUControl) destroyImage(img *gpuImage) {
	if img.view != nil {
		c.device.DestroyTextureView(img.view)
	}
	if img.texture != nil {
		c.device.DestroyTexture(img.texture)
	}
}

func unitByte(v float64) byte {
	return byte(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

var _ RenderControl = (*GPUControl)(nil)
