package client

import "math"

// Gestures normalizes pointer and multi-touch input into the
// Viewport's pan/zoom contract, so the transform engine never needs to
// know which input source drove it. Pointer drags and single-touch
// drags feed Pan; wheel steps and pinch distance deltas feed Zoom.
type Gestures struct {
	viewport *Viewport

	lastX float64
	lastY float64

	pinchDist float64
}

func NewGestures(v *Viewport) *Gestures { return &Gestures{viewport: v} }

// PointerDown begins a drag at the given position. Dragging only pans
// once the content is actually zoomed in.
func (g *Gestures) PointerDown(x, y float64) {
	g.lastX, g.lastY = x, y
	if g.viewport.Scale > 1 {
		g.viewport.StartPan()
	}
}

// PointerMove feeds a drag sample. Samples arriving while not panning
// are position updates only.
func (g *Gestures) PointerMove(x, y float64) {
	if g.viewport.Panning {
		g.viewport.Pan(x-g.lastX, y-g.lastY)
	}
	g.lastX, g.lastY = x, y
}

func (g *Gestures) PointerUp() { g.viewport.EndPan() }

// Wheel maps a scroll delta to one zoom step anchored at the cursor.
// Scrolling up zooms in.
func (g *Gestures) Wheel(deltaY, anchorX, anchorY float64) {
	if deltaY < 0 {
		g.viewport.Zoom(ZoomIn, anchorX, anchorY)
	} else {
		g.viewport.Zoom(ZoomOut, anchorX, anchorY)
	}
}

// PinchStart records the initial inter-finger distance of a two-touch
// gesture.
func (g *Gestures) PinchStart(x1, y1, x2, y2 float64) {
	g.pinchDist = math.Hypot(x2-x1, y2-y1)
}

// PinchMove converts the change in inter-finger distance between
// successive samples into zoom steps anchored at the gesture midpoint.
func (g *Gestures) PinchMove(x1, y1, x2, y2 float64) {
	dist := math.Hypot(x2-x1, y2-y1)
	if g.pinchDist == 0 {
		g.pinchDist = dist
		return
	}

	midX, midY := (x1+x2)/2, (y1+y2)/2
	if dist > g.pinchDist {
		g.viewport.Zoom(ZoomIn, midX, midY)
	} else if dist < g.pinchDist {
		g.viewport.Zoom(ZoomOut, midX, midY)
	}
	g.pinchDist = dist
}

func (g *Gestures) PinchEnd() { g.pinchDist = 0 }

// DoubleActivate is the reset gesture (double-click or double-tap).
func (g *Gestures) DoubleActivate() { g.viewport.Reset() }
