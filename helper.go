package multiout

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/multiout/backend"
	"github.com/gogpu/multiout/render"
	"github.com/gogpu/multiout/scenegraph"
)

// errNoContext is returned by MakeCurrent when neither the output nor the
// window provides a context.
var errNoContext = errors.New("no rendering context")

// OutputHelper pairs one attached output with its viewport in the scene.
//
// The helper owns the output's transient render target, its damage and
// the context bound for the current frame. It is created by Attach and
// freed after the cycle that detached it.
type OutputHelper struct {
	output   backend.Output
	viewport *scenegraph.Viewport

	target  render.RenderTarget
	current backend.Context

	damage render.Damage
	dirty  bool

	detached    bool
	detachEpoch uint64
}

func newOutputHelper(o backend.Output, v *scenegraph.Viewport) *OutputHelper {
	h := &OutputHelper{output: o, viewport: v}
	h.DamageAll()
	return h
}

// Output returns the helper's output.
func (h *OutputHelper) Output() backend.Output { return h.output }

// Viewport returns the output's viewport item.
func (h *OutputHelper) Viewport() *scenegraph.Viewport { return h.viewport }

// AcquireRenderTarget returns the output's dedicated context (nil when it
// has none) and the next buffer of its swapchain. The swapchain is
// reconfigured first when its size or format no longer match the output.
func (h *OutputHelper) AcquireRenderTarget() (backend.Context, render.RenderTarget, error) {
	sc := h.output.Swapchain()
	w, ht := h.output.Size()
	format := h.output.Format()

	if cfg := sc.Config(); !cfg.Matches(w, ht, format) {
		cfg.Width, cfg.Height, cfg.Format = w, ht, format
		if err := sc.Test(cfg); err != nil {
			return nil, nil, fmt.Errorf("reconfigure %dx%d %s: %w", w, ht, format, err)
		}
		if err := sc.Configure(cfg); err != nil {
			return nil, nil, err
		}
		Logger().Debug("multiout: swapchain reconfigured",
			"output", h.output.Name(), "width", w, "height", ht, "format", format.String())
	}

	target, err := sc.Acquire()
	if err != nil {
		return nil, nil, err
	}
	h.target = target
	return h.output.Context(), target, nil
}

// MakeCurrent binds target on the output's dedicated context, or on
// fallback when the output has none.
func (h *OutputHelper) MakeCurrent(target render.RenderTarget, fallback backend.Context) error {
	ctx := h.output.Context()
	if ctx == nil {
		ctx = fallback
	}
	if ctx == nil {
		return errNoContext
	}
	if err := ctx.MakeCurrent(target); err != nil {
		return err
	}
	h.current = ctx
	return nil
}

// DoneCurrent releases the context bound by MakeCurrent.
func (h *OutputHelper) DoneCurrent() {
	if h.current == nil {
		return
	}
	h.current.DoneCurrent()
	h.current = nil
}

// Current returns the bound context, or nil.
func (h *OutputHelper) Current() backend.Context { return h.current }

// Commit presents target with the accumulated damage. A rejected commit
// hands the target back to the swapchain and leaves the damage in place.
func (h *OutputHelper) Commit(target render.RenderTarget) error {
	state := &backend.State{Target: target, Damage: h.DamageRects()}
	if err := h.output.Commit(state); err != nil {
		h.output.Rollback(state)
		h.target = nil
		return err
	}
	h.target = nil
	return nil
}

// Rollback hands an uncommitted target back to the swapchain.
func (h *OutputHelper) Rollback(target render.RenderTarget) {
	if target == nil {
		return
	}
	h.output.Rollback(&backend.State{Target: target})
	if h.target == target {
		h.target = nil
	}
}

// ResetState clears the damage. Call it only after a confirmed commit.
func (h *OutputHelper) ResetState() {
	h.damage.Clear()
	h.dirty = false
	h.target = nil
}

// Renderable reports whether the output is enabled and ready for a frame.
// It is independent of Dirty.
func (h *OutputHelper) Renderable() bool {
	return h.output.Enabled() && h.output.Renderable()
}

// Dirty reports whether the output has damage waiting for a frame.
func (h *OutputHelper) Dirty() bool { return h.dirty }

// Damage marks r, in output buffer pixels, for redraw.
func (h *OutputHelper) Damage(r image.Rectangle) {
	r = r.Intersect(h.bounds())
	if r.Empty() {
		return
	}
	h.damage.Add(r)
	h.dirty = true
}

// DamageAll marks the whole output for redraw.
func (h *OutputHelper) DamageAll() {
	h.damage.AddAll()
	h.dirty = true
}

// DamageRects returns the pending damage in output buffer pixels.
func (h *OutputHelper) DamageRects() []image.Rectangle {
	return h.damage.Rects(h.bounds())
}

func (h *OutputHelper) bounds() image.Rectangle {
	w, ht := h.output.Size()
	return image.Rect(0, 0, w, ht)
}

// Release hands back any held target and unbinds the context.
func (h *OutputHelper) Release() {
	if h.target != nil {
		h.Rollback(h.target)
	}
	h.DoneCurrent()
}
