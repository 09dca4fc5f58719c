package multiout

// sharedScale returns the largest scale among the enabled outputs, or 1
// when there are none. Every output is then rendered at a density at
// least as high as it needs.
func sharedScale(helpers []*OutputHelper) float64 {
	scale := 0.0
	for _, h := range helpers {
		if !h.output.Enabled() {
			continue
		}
		scale = max(scale, h.output.ScaleFactor())
	}
	if scale <= 0 {
		return 1
	}
	return scale
}

// updateSharedScale recomputes the shared device pixel ratio and pushes
// it to the render control when it changed.
func (w *RenderWindow) updateSharedScale() {
	scale := sharedScale(w.helpers)
	if scale == w.dpr {
		return
	}
	Logger().Info("multiout: shared scale changed", "from", w.dpr, "to", scale)
	w.dpr = scale
	w.control.SetDevicePixelRatio(scale)
}
