package client

// Rect is a width/height extent in presentation units. The transform
// math never needs an origin; bounds are symmetric about the center.
type Rect struct {
	Width  float64
	Height float64
}

// ZoomDirection selects which way a zoom step moves the scale.
type ZoomDirection int

const (
	ZoomIn  ZoomDirection = 1
	ZoomOut ZoomDirection = -1
)

// Viewport converts pointer and gesture deltas into a bounded pan/zoom
// transform for a single focused media item. Scale is clamped to the
// configured zoom bounds; translation is clamped so the content can
// never be dragged fully off-screen, and content smaller than the
// viewer stays centered.
//
// One Viewport is created when a media item is activated and discarded
// when the viewer closes; nothing persists across activations.
type Viewport struct {
	cfg ZoomConfig

	Scale      float64
	TranslateX float64
	TranslateY float64
	Panning    bool

	viewer  Rect
	content Rect
	maxX    float64
	maxY    float64
}

func NewViewport(cfg ZoomConfig, viewer, content Rect) *Viewport {
	v := &Viewport{cfg: cfg, Scale: 1}
	v.SetGeometry(viewer, content)
	return v
}

// SetGeometry records the viewer and content extents and recomputes
// the translation bounds at the current scale. Call it again on window
// resize.
func (v *Viewport) SetGeometry(viewer, content Rect) {
	v.viewer = viewer
	v.content = content
	v.recomputeBounds()
	v.clamp()
}

// recomputeBounds derives the symmetric translation limits from the
// scaled content overhang. When the scaled content fits inside the
// viewer the bound collapses to zero, pinning it centered.
func (v *Viewport) recomputeBounds() {
	v.maxX = (v.content.Width*v.Scale - v.viewer.Width) / 2
	if v.maxX < 0 {
		v.maxX = 0
	}
	v.maxY = (v.content.Height*v.Scale - v.viewer.Height) / 2
	if v.maxY < 0 {
		v.maxY = 0
	}
}

func (v *Viewport) clamp() {
	v.TranslateX = clampf(v.TranslateX, -v.maxX, v.maxX)
	v.TranslateY = clampf(v.TranslateY, -v.maxY, v.maxY)
}

// Bounds returns the current translation limits (minX, maxX, minY,
// maxY).
func (v *Viewport) Bounds() (float64, float64, float64, float64) {
	return -v.maxX, v.maxX, -v.maxY, v.maxY
}

// Zoom steps the scale in the given direction and adjusts translation
// so the content point under (anchorX, anchorY) stays visually fixed.
// For a scale change ratio r the new translation is a - (a-t)*r.
// Translation is re-clamped against the bounds at the new scale.
func (v *Viewport) Zoom(dir ZoomDirection, anchorX, anchorY float64) {
	oldScale := v.Scale
	v.Scale = clampf(v.Scale+float64(dir)*v.cfg.Step, v.cfg.Min, v.cfg.Max)
	if v.Scale == oldScale {
		return
	}

	r := v.Scale / oldScale
	v.TranslateX = anchorX - (anchorX-v.TranslateX)*r
	v.TranslateY = anchorY - (anchorY-v.TranslateY)*r

	v.recomputeBounds()
	v.clamp()
}

// Pan shifts the translation by the given delta and clamps it.
func (v *Viewport) Pan(deltaX, deltaY float64) {
	v.TranslateX += deltaX
	v.TranslateY += deltaY
	v.clamp()
}

// StartPan and EndPan track the pressed/released drag state. Panning
// is orthogonal to the continuous scale value.
func (v *Viewport) StartPan() { v.Panning = true }
func (v *Viewport) EndPan()   { v.Panning = false }

// Reset restores the identity transform. Reachable from any state via
// the double-activation gesture.
func (v *Viewport) Reset() {
	v.Scale = 1
	v.TranslateX = 0
	v.TranslateY = 0
	v.recomputeBounds()
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
