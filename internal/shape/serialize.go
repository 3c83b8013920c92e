package shape

import (
	"fmt"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

const (
	tagFreehand  = "fh"
	tagStraight  = "sl"
	tagCircle    = "cr"
	tagRectangle = "rct"
	tagText      = "txt"
)

// ErrUnknownShape is returned when a stream names a shape type this package
// does not know.
var ErrUnknownShape = fmt.Errorf("%w: unknown shape type", codec.ErrFormat)

func tagOf(s Shape) string {
	switch s.Kind() {
	case KindFreehand:
		return tagFreehand
	case KindStraight:
		return tagStraight
	case KindCircle:
		return tagCircle
	case KindRectangle:
		return tagRectangle
	default:
		return tagText
	}
}

func newForTag(tag string, c Color, strokeWidth float64) Shape {
	switch tag {
	case tagFreehand:
		return NewFreehandLine(c, strokeWidth)
	case tagStraight:
		return NewStraightLine(c, strokeWidth)
	case tagCircle:
		return NewCircle(c, strokeWidth)
	case tagRectangle:
		return NewRectangle(c, strokeWidth)
	case tagText:
		return &Text{base: base{color: c, strokeWidth: strokeWidth}}
	default:
		return nil
	}
}

// Serialize writes s as one framed object: the type tag, the common header
// (color, stroke width, bounding rectangle) and the type's own payload.
// Callers decide whether to skip shapes that fail ShouldSerialize.
func Serialize(w *codec.Writer, s Shape) error {
	if err := w.StartObject(); err != nil {
		return err
	}
	if err := w.WriteString(tagOf(s)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(s.Color())); err != nil {
		return err
	}
	b := s.BoundingRectangle()
	for _, v := range []float64{s.StrokeWidth(), b.XMin, b.XMax, b.YMin, b.YMax} {
		if err := w.WriteFloat(v); err != nil {
			return err
		}
	}
	if err := s.writePayload(w); err != nil {
		return err
	}
	return w.EndObject()
}

// Deserialize reads one shape written by Serialize.
func Deserialize(r *codec.Reader) (Shape, error) {
	if err := r.ExpectObjectStart(); err != nil {
		return nil, err
	}
	tag, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	c, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	width, err := r.ReadFloat()
	if err != nil {
		return nil, err
	}
	s := newForTag(tag, Color(c), width)
	if s == nil {
		return nil, r.Fail(tag, ErrUnknownShape)
	}

	var ext [4]float64
	for i := range ext {
		if ext[i], err = r.ReadFloat(); err != nil {
			return nil, err
		}
	}
	if err := s.readPayload(r); err != nil {
		return nil, err
	}
	if err := r.ExpectObjectEnd(); err != nil {
		return nil, err
	}
	if s.IsValid() {
		mergeStoredBounds(s, geom.RectFromBounds(ext[0], ext[1], ext[2], ext[3]))
	}
	return s, nil
}

// mergeStoredBounds applies the bounds read from a stream. Text keeps the
// extent it was saved with even if font metrics differ. Every other shape
// only grows by the stored box, so its bounds always cover its points.
func mergeStoredBounds(s Shape, stored geom.BoundingRectangle) {
	switch v := s.(type) {
	case *Text:
		v.bounds = stored
	case *FreehandLine:
		v.bounds.UpdateBoundsRect(stored)
	case *StraightLine:
		v.bounds.UpdateBoundsRect(stored)
	case *Circle:
		v.bounds.UpdateBoundsRect(stored)
	case *Rectangle:
		v.bounds.UpdateBoundsRect(stored)
	}
}

func writePoint(w *codec.Writer, p geom.Point) error {
	if err := w.WriteFloat(p.X); err != nil {
		return err
	}
	return w.WriteFloat(p.Y)
}

func readPoint(r *codec.Reader) (geom.Point, error) {
	x, err := r.ReadFloat()
	if err != nil {
		return geom.Point{}, err
	}
	y, err := r.ReadFloat()
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(x, y), nil
}
