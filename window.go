package multiout

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/internal/shader"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/scenegraph"
)

// FrameStats summarizes one render cycle.
type FrameStats struct {
	// Sequence is the cycle number, starting at 1.
	Sequence uint64

	// Rendered counts outputs whose scene was drawn.
	Rendered int

	// Committed counts outputs whose frame was presented.
	Committed int

	// Skipped counts outputs that were not ready, hidden or clean.
	Skipped int

	// Failed counts outputs that hit an error and stay dirty.
	Failed int
}

// RenderWindow composites one shared scene onto any number of outputs.
//
// Each attached output gets a viewport in the scene and an OutputHelper.
// Render requests are coalesced into a single task on the window's loop;
// every run of that task is one cycle in which each renderable, visible
// and dirty output is drawn and committed in attach order.
//
// RenderWindow is NOT safe for concurrent use. Except for RequestRender,
// all methods must be called on the loop goroutine.
type RenderWindow struct {
	// FrameDone is emitted after every commit attempt, once the output's
	// context is released.
	FrameDone Signal[FrameInfo]

	scene          *scenegraph.Scene
	control        scenegraph.RenderControl
	fallback       backend.Context
	loop           *Loop
	blit           *shader.Blit
	gpu            *scenegraph.GPUControl
	clipSpaceYDown bool

	helpers   []*OutputHelper
	graveyard []*OutputHelper

	sched       scheduler
	epoch       uint64
	sequence    uint64
	inCycle     bool
	dpr         float64
	lastStats   FrameStats
	cancelScene func()
	watches     []func()
	closed      bool
}

// NewRenderWindow creates a window rendering scene.
//
// Without options the window renders on the CPU through a
// scenegraph.SoftwareControl and a backend.SoftwareContext, and schedules
// cycles on a private Loop. WithDevice switches both to their GPU
// counterparts.
func NewRenderWindow(scene *scenegraph.Scene, opts ...WindowOption) (*RenderWindow, error) {
	if scene == nil {
		return nil, fmt.Errorf("%w: nil scene", ErrBootstrap)
	}
	var o windowOptions
	for _, opt := range opts {
		opt(&o)
	}

	w := &RenderWindow{
		scene:          scene,
		control:        o.control,
		fallback:       o.fallback,
		loop:           o.loop,
		clipSpaceYDown: o.clipSpaceYDown,
		dpr:            1,
	}
	if w.loop == nil {
		w.loop = NewLoop()
	}
	if o.device != nil {
		if o.device.HALDevice() == nil {
			return nil, fmt.Errorf("%w: device handle has no device", ErrBootstrap)
		}
		blit, err := shader.NewBlit(o.device.HALDevice())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
		}
		w.blit = blit
		if w.control == nil {
			w.gpu = scenegraph.NewGPUControl(scene, o.device, blit)
			w.control = w.gpu
		}
		if w.fallback == nil {
			w.fallback = backend.NewGPUContext(o.device)
		}
		Logger().Info("multiout: GPU device selected",
			"adapter", o.device.AdapterInfo().Name, "format", o.device.SurfaceFormat().String())
	}
	if w.control == nil {
		w.control = scenegraph.NewSoftwareControl(scene)
	}
	if w.fallback == nil {
		w.fallback = backend.NewSoftwareContext()
	}

	w.control.SetDevicePixelRatio(w.dpr)
	w.sched = scheduler{loop: w.loop, run: w.runScheduled}
	w.cancelScene = scene.OnChange(w.Update)
	return w, nil
}

// Scene returns the rendered scene.
func (w *RenderWindow) Scene() *scenegraph.Scene { return w.scene }

// Control returns the render control.
func (w *RenderWindow) Control() scenegraph.RenderControl { return w.control }

// Loop returns the loop render cycles run on.
func (w *RenderWindow) Loop() *Loop { return w.loop }

// Sequence returns the number of the last cycle.
func (w *RenderWindow) Sequence() uint64 { return w.sequence }

// LastStats returns the statistics of the last scheduled cycle.
func (w *RenderWindow) LastStats() FrameStats { return w.lastStats }

// SharedScale returns the device pixel ratio the scene is rendered at: the
// largest scale among attached, enabled outputs, or 1.
func (w *RenderWindow) SharedScale() float64 { return w.dpr }

// Outputs returns the attached outputs in attach order.
func (w *RenderWindow) Outputs() []backend.Output {
	out := make([]backend.Output, len(w.helpers))
	for i, h := range w.helpers {
		out[i] = h.output
	}
	return out
}

// Helper returns the helper of an attached output, or nil.
func (w *RenderWindow) Helper(o backend.Output) *OutputHelper {
	if i := w.indexOf(o); i >= 0 {
		return w.helpers[i]
	}
	return nil
}

func (w *RenderWindow) indexOf(o backend.Output) int {
	return slices.IndexFunc(w.helpers, func(h *OutputHelper) bool { return h.output == o })
}

// Attach starts compositing onto o. The output gets a viewport in the
// scene and is fully damaged.
func (w *RenderWindow) Attach(o backend.Output) error {
	if w.closed {
		return ErrClosed
	}
	if w.indexOf(o) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, o.Name())
	}

	v := scenegraph.NewViewport()
	v.SyncOutput(o)
	h := newOutputHelper(o, v)
	w.helpers = append(w.helpers, h)
	w.scene.Add(v)

	w.updateSharedScale()
	width, height := o.Size()
	Logger().Info("multiout: output attached",
		"output", o.Name(), "width", width, "height", height, "scale", o.ScaleFactor())
	w.RequestRender()
	return nil
}

// Detach stops compositing onto o. The helper leaves the attached set at
// once; it is freed, and its viewport removed from the scene, when no
// cycle can reference it anymore.
func (w *RenderWindow) Detach(o backend.Output) error {
	i := w.indexOf(o)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotAttached, o.Name())
	}
	h := w.helpers[i]
	w.helpers = slices.Delete(w.helpers, i, i+1)
	h.detached = true
	h.detachEpoch = w.epoch

	if w.inCycle {
		w.graveyard = append(w.graveyard, h)
	} else {
		w.free(h)
	}

	w.updateSharedScale()
	Logger().Info("multiout: output detached", "output", o.Name(), "deferred", w.inCycle)
	return nil
}

func (w *RenderWindow) free(h *OutputHelper) {
	h.Release()
	w.scene.Root().RemoveChild(h.viewport)
}

// reap frees helpers detached in earlier epochs.
func (w *RenderWindow) reap() {
	w.graveyard = slices.DeleteFunc(w.graveyard, func(h *OutputHelper) bool {
		if h.detachEpoch >= w.epoch {
			return false
		}
		w.free(h)
		return true
	})
}

// Watch subscribes to output changes reported by n: removed outputs are
// detached, geometry and scale changes are applied to viewports, and
// redraw requests damage the output.
func (w *RenderWindow) Watch(n backend.Notifier) {
	w.watches = append(w.watches, n.Subscribe(w.handleEvent))
}

func (w *RenderWindow) handleEvent(ev backend.Event) {
	if w.closed {
		return
	}
	h := w.Helper(ev.Output)
	if h == nil {
		return
	}

	switch ev.Kind {
	case backend.EventRemoved:
		_ = w.Detach(ev.Output)
		return
	case backend.EventMode, backend.EventTransform, backend.EventPosition:
		h.viewport.SyncOutput(ev.Output)
		h.DamageAll()
	case backend.EventScale:
		h.viewport.SyncOutput(ev.Output)
		w.updateSharedScale()
		h.DamageAll()
	case backend.EventEnabled:
		w.updateSharedScale()
		h.DamageAll()
	case backend.EventRedraw:
		h.DamageAll()
	case backend.EventRenderable:
		if !h.Dirty() {
			return
		}
	default:
		return
	}
	w.RequestRender()
}

// RequestRender schedules a cycle. Any number of calls before the loop
// runs the cycle result in one cycle. RequestRender is safe to call from
// any goroutine.
func (w *RenderWindow) RequestRender() {
	if w.sched.request() {
		Logger().Debug("multiout: render scheduled")
	}
}

// Pending reports whether a cycle is scheduled.
func (w *RenderWindow) Pending() bool { return w.sched.pending.Load() }

// Update fully damages every attached output and schedules a cycle. It
// never renders synchronously, which makes it safe to call from scene
// change handlers.
func (w *RenderWindow) Update() {
	for _, h := range w.helpers {
		h.DamageAll()
	}
	w.RequestRender()
}

// Damage marks r, in scene coordinates, for redraw on every output it
// overlaps.
func (w *RenderWindow) Damage(r image.Rectangle) {
	if r.Empty() {
		return
	}
	damaged := false
	for _, h := range w.helpers {
		rr := sceneRectToOutput(h, r).Intersect(h.bounds())
		if rr.Empty() {
			continue
		}
		h.Damage(rr)
		damaged = true
	}
	if damaged {
		w.RequestRender()
	}
}

// DamageOutput marks r, in o's buffer pixels, for redraw.
func (w *RenderWindow) DamageOutput(o backend.Output, r image.Rectangle) error {
	h := w.Helper(o)
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNotAttached, o.Name())
	}
	h.Damage(r)
	if h.Dirty() {
		w.RequestRender()
	}
	return nil
}

// CursorMoved damages r, in scene coordinates, on outputs that draw the
// cursor into their frames. Outputs with a hardware cursor plane are left
// alone.
func (w *RenderWindow) CursorMoved(r image.Rectangle) {
	for _, h := range w.helpers {
		if h.output.SoftwareCursorForced() {
			h.Damage(sceneRectToOutput(h, r))
		}
	}
	w.RequestRender()
}

// SetOutputVisible shows or hides o's viewport. Hidden outputs are
// skipped by render cycles and keep their last frame.
func (w *RenderWindow) SetOutputVisible(o backend.Output, visible bool) error {
	h := w.Helper(o)
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNotAttached, o.Name())
	}
	h.viewport.SetVisible(visible)
	return nil
}

func (w *RenderWindow) runScheduled() {
	stats, err := w.RunFrame()
	if err != nil && !errors.Is(err, ErrClosed) {
		Logger().Warn("multiout: render cycle finished with errors",
			"sequence", stats.Sequence, "failed", stats.Failed, "err", err)
	}
}

// RunFrame runs one render cycle now.
//
// Outputs are visited in attach order. Outputs that are not renderable or
// whose viewport is hidden are skipped. The scene is polished once, before
// the first eligible output. Clean outputs are skipped; dirty ones are
// acquired, bound, drawn, committed and released. A failing output stays
// dirty for the next cycle and does not affect the others: its error is
// part of the joined error RunFrame returns.
func (w *RenderWindow) RunFrame() (FrameStats, error) {
	if w.closed {
		return FrameStats{}, ErrClosed
	}
	if w.inCycle {
		return FrameStats{}, ErrInCycle
	}
	w.sched.clear()

	w.inCycle = true
	w.sequence++
	stats := FrameStats{Sequence: w.sequence}
	defer func() {
		w.inCycle = false
		w.epoch++
		w.reap()
		w.lastStats = stats
	}()

	var errs []error
	polished := false
	for _, h := range slices.Clone(w.helpers) {
		if h.detached || !h.Renderable() || !h.viewport.Visible() {
			stats.Skipped++
			continue
		}
		if !polished {
			w.control.PolishItems()
			polished = true
		}
		if !h.Dirty() {
			stats.Skipped++
			continue
		}

		rendered, err := w.renderOutput(h, stats.Sequence)
		if rendered {
			stats.Rendered++
		}
		if err != nil {
			stats.Failed++
			errs = append(errs, err)
			Logger().Warn("multiout: output skipped", "output", h.output.Name(), "err", err)
			continue
		}
		stats.Committed++
	}

	Logger().Debug("multiout: render cycle done",
		"sequence", stats.Sequence, "rendered", stats.Rendered,
		"committed", stats.Committed, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, errors.Join(errs...)
}

// renderOutput draws and commits one output. rendered reports whether the
// scene was drawn, even if the commit then failed. FrameDone is emitted
// after the context is released for every frame that reached the commit.
func (w *RenderWindow) renderOutput(h *OutputHelper, seq uint64) (rendered bool, err error) {
	name := h.output.Name()

	_, target, err := h.AcquireRenderTarget()
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrAcquire, name, err)
	}
	if err := h.MakeCurrent(target, w.fallback); err != nil {
		h.Rollback(target)
		return false, fmt.Errorf("%w: %s: %w", ErrMakeCurrent, name, err)
	}

	params := w.frameParams(h, target, seq)
	if err := w.drawScene(target, params); err != nil {
		h.Rollback(target)
		h.DoneCurrent()
		return false, fmt.Errorf("%w: %s: %w", ErrRender, name, err)
	}

	damage := h.DamageRects()
	if err = h.Commit(target); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrCommit, name, err)
	} else {
		h.ResetState()
	}
	h.DoneCurrent()

	w.FrameDone.Emit(FrameInfo{Output: h.output, Sequence: seq, Damage: damage, Err: err})
	return true, err
}

// drawScene runs one frame on the render control. EndFrame always runs
// once BeginFrame succeeded so no frame parameters outlive the output.
func (w *RenderWindow) drawScene(target render.RenderTarget, params render.FrameParams) error {
	if err := w.control.BeginFrame(target, params); err != nil {
		return err
	}
	err := w.control.Sync()
	if err == nil {
		err = w.control.Render()
	}
	if endErr := w.control.EndFrame(); err == nil {
		err = endErr
	}
	return err
}

// Close detaches every output and releases the window's resources.
func (w *RenderWindow) Close() error {
	if w.closed {
		return nil
	}
	if w.inCycle {
		return ErrInCycle
	}
	for _, cancel := range w.watches {
		cancel()
	}
	w.watches = nil
	w.cancelScene()

	for _, h := range w.helpers {
		h.detached = true
		w.free(h)
	}
	for _, h := range w.graveyard {
		w.free(h)
	}
	w.helpers, w.graveyard = nil, nil

	if w.gpu != nil {
		w.gpu.Destroy()
	}
	if w.blit != nil {
		w.blit.Destroy()
	}
	w.sched.clear()
	w.closed = true
	return nil
}
