// internal/dial/wheel.go
//
// Click-wheel input mapper.
// Converts angular drag gestures around a circular control into a bounded
// rating value quantized to one decimal.
//
// Rules:
//   - Angles come from atan2 relative to the control's center, in degrees.
//   - Each move is measured against the immediately preceding angle, and the
//     delta is wrapped into (-180, 180] so crossing the ±180° seam is a small step.
//   - Sensitivity is degrees of rotation per 0.1 units of value.
//   - Gestures that begin on the center button never start a drag; the center
//     button is a separate discrete activation.

package dial

import (
	"context"
	"math"
)

const (
	// DefaultSensitivity is degrees of rotation per Step.
	DefaultSensitivity = 3.0
	// Step is the value quantum.
	Step = 0.1
)

// Geometry locates the control on screen.
type Geometry struct {
	CenterX      float64 `json:"centerX"`
	CenterY      float64 `json:"centerY"`
	CenterRadius float64 `json:"centerRadius"` // radius of the embedded confirm button
}

// Angle returns the angle of (x, y) around the center, in degrees (-180, 180].
func (g Geometry) Angle(x, y float64) float64 {
	return math.Atan2(y-g.CenterY, x-g.CenterX) * (180 / math.Pi)
}

// InCenter reports whether (x, y) falls on the center button.
func (g Geometry) InCenter(x, y float64) bool {
	return math.Hypot(x-g.CenterX, y-g.CenterY) <= g.CenterRadius
}

// NormalizeDelta wraps an angular difference into (-180, 180].
func NormalizeDelta(d float64) float64 {
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

// ValueChange converts a rotation in degrees into a value change.
func ValueChange(delta, sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	return (delta / sensitivity) * Step
}

// Quantize clamps v into [min, max] and rounds it to the nearest Step.
func Quantize(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	v = math.Max(min, math.Min(max, v))
	return math.Round(v*10) / 10
}

// Options configures a Wheel.
type Options struct {
	Geometry    Geometry
	Min         float64
	Max         float64
	Value       float64
	Sensitivity float64
	Source      Source                // pointer events while dragging
	OnChange    func(float64)         // emitted on every tracked move
	OnActivate  func(context.Context) // center button
}

// Wheel tracks one drag gesture at a time.
type Wheel struct {
	geo         Geometry
	min, max    float64
	sensitivity float64
	value       float64

	disabled  bool
	dragging  bool
	kind      Kind
	hasAngle  bool
	lastAngle float64
	rotation  float64

	source      Source
	unsubscribe func()
	onChange    func(float64)
	onActivate  func(context.Context)
}

// New constructs a Wheel. A zero Max defaults the range to [0, 10].
func New(opts Options) *Wheel {
	if opts.Max <= opts.Min {
		opts.Min, opts.Max = 0, 10
	}
	if opts.Sensitivity <= 0 {
		opts.Sensitivity = DefaultSensitivity
	}
	return &Wheel{
		geo:         opts.Geometry,
		min:         opts.Min,
		max:         opts.Max,
		sensitivity: opts.Sensitivity,
		value:       Quantize(opts.Value, opts.Min, opts.Max),
		source:      opts.Source,
		onChange:    opts.OnChange,
		onActivate:  opts.OnActivate,
	}
}

// Value returns the current value.
func (w *Wheel) Value() float64 { return w.value }

// SetValue replaces the value without emitting a change.
func (w *Wheel) SetValue(v float64) { w.value = Quantize(v, w.min, w.max) }

// Sensitivity returns degrees per Step.
func (w *Wheel) Sensitivity() float64 { return w.sensitivity }

// Geometry returns the control placement.
func (w *Wheel) Geometry() Geometry { return w.geo }

// SetDisabled toggles input. A disabled wheel ignores new gestures and moves.
func (w *Wheel) SetDisabled(d bool) { w.disabled = d }

// Disabled reports whether input is ignored.
func (w *Wheel) Disabled() bool { return w.disabled }

// Dragging reports whether a gesture is being tracked.
func (w *Wheel) Dragging() bool { return w.dragging }

// PreventDefault reports whether the client should suppress native
// scroll/zoom for the current gesture (touch drags only).
func (w *Wheel) PreventDefault() bool { return w.dragging && w.kind == KindTouch }

// AccumulatedRotation is the signed rotation of the current gesture in degrees.
func (w *Wheel) AccumulatedRotation() float64 { return w.rotation }

// Progress is the fraction of the range covered by the value, for the arc.
func (w *Wheel) Progress() float64 {
	return (w.value - w.min) / (w.max - w.min)
}

// Down begins tracking at p. It returns false when the gesture is ignored:
// disabled, already dragging, on the center button, or not a finite point.
func (w *Wheel) Down(p Pointer) bool {
	if w.disabled || w.dragging || !finite(p) {
		return false
	}
	if w.geo.InCenter(p.X, p.Y) {
		return false
	}
	w.dragging = true
	w.kind = p.Kind
	w.lastAngle = w.geo.Angle(p.X, p.Y)
	w.hasAngle = true
	w.rotation = 0
	if w.source != nil {
		w.unsubscribe = w.source.Subscribe(w.handle)
	}
	return true
}

// Move updates the value from the rotation since the previous pointer position.
func (w *Wheel) Move(p Pointer) (float64, bool) {
	if !w.dragging || w.disabled || !finite(p) {
		return w.value, false
	}
	angle := w.geo.Angle(p.X, p.Y)
	if !w.hasAngle {
		w.lastAngle, w.hasAngle = angle, true
		return w.value, false
	}
	delta := NormalizeDelta(angle - w.lastAngle)
	w.rotation += delta
	w.value = Quantize(w.value+ValueChange(delta, w.sensitivity), w.min, w.max)
	w.lastAngle = angle
	if w.onChange != nil {
		w.onChange(w.value)
	}
	return w.value, true
}

// Up ends the gesture.
func (w *Wheel) Up() { w.end() }

// Cancel aborts the gesture; the value keeps whatever was already emitted.
func (w *Wheel) Cancel() { w.end() }

// Close releases any live subscription. Call on teardown.
func (w *Wheel) Close() { w.end() }

// Center fires the center-button activation. It never touches drag state.
func (w *Wheel) Center(ctx context.Context) {
	if w.onActivate != nil {
		w.onActivate(ctx)
	}
}

func (w *Wheel) end() {
	w.dragging = false
	w.hasAngle = false
	w.lastAngle = 0
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}

// handle is the subscription callback while dragging.
func (w *Wheel) handle(e Event) {
	switch e.Type {
	case EventMove:
		w.Move(e.Pointer)
	case EventUp:
		w.Up()
	case EventCancel:
		w.Cancel()
	}
}

func finite(p Pointer) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
