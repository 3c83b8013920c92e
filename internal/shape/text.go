package shape

import (
	"strings"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// Text is a label anchored at its top-left corner. Its bounding box comes
// from font metrics, and erasing it is all or nothing.
type Text struct {
	base
	text     string
	size     float64
	location geom.Point
	metrics  TextMetrics
	erased   bool
}

func NewText(text string, size float64, location geom.Point, c Color, strokeWidth float64) *Text {
	t := &Text{base: base{color: c, strokeWidth: strokeWidth}}
	t.set(text, size, location)
	return t
}

func (t *Text) set(text string, size float64, location geom.Point) {
	t.text, t.size, t.location = text, size, location
	t.metrics = MeasureText(text, size)
	t.bounds = geom.RectFromBounds(location.X, location.X+t.metrics.Width, location.Y, location.Y+t.metrics.Height())
	t.invalidate()
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Text() string         { return t.text }
func (t *Text) FontSize() float64    { return t.size }
func (t *Text) Location() geom.Point { return t.location }
func (t *Text) Metrics() TextMetrics { return t.metrics }
func (t *Text) Lines() []string      { return strings.Split(t.text, "\n") }

// WithText returns a copy of t with new contents and size at the same place.
func (t *Text) WithText(text string, size float64) *Text {
	return NewText(text, size, t.location, t.color, t.strokeWidth)
}

// AddPoint is a no-op: text is placed, not drawn.
func (t *Text) AddPoint(geom.Point) {}

func (t *Text) IsValid() bool {
	return strings.TrimSpace(t.text) != "" && t.size > 0
}

func (t *Text) ShouldSerialize() bool { return t.IsValid() }

func (t *Text) Erase(center geom.Point, radius float64) {
	if t.IsValid() && t.bounds.IntersectsWithCircle(center, radius) {
		t.erased = true
	}
}

func (t *Text) NeedsOptimization() bool { return t.erased }

func (t *Text) RemoveErasedPoints() []Shape {
	if t.erased {
		return nil
	}
	return []Shape{t}
}

func (t *Text) ResetErasure() { t.erased = false }

func (t *Text) Contains(p geom.Point) bool {
	return t.IsValid() && t.bounds.Contains(p)
}

// Path is empty: renderers set text from Lines and Metrics instead.
func (t *Text) Path() *geom.Path {
	return t.cachedPath(func() *geom.Path { return &geom.Path{} })
}

func (t *Text) Translated(offset geom.Point) Shape {
	return NewText(t.text, t.size, t.location.Add(offset), t.color, t.strokeWidth)
}

func (t *Text) writePayload(w *codec.Writer) error {
	if err := w.WriteString(t.text); err != nil {
		return err
	}
	if err := w.WriteFloat(t.size); err != nil {
		return err
	}
	return writePoint(w, t.location)
}

func (t *Text) readPayload(r *codec.Reader) error {
	text, err := r.ReadString()
	if err != nil {
		return err
	}
	size, err := r.ReadFloat()
	if err != nil {
		return err
	}
	loc, err := readPoint(r)
	if err != nil {
		return err
	}
	t.set(text, size, loc)
	return nil
}
