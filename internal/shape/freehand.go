package shape

import (
	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// FreehandLine is a polyline drawn point by point.
//
// drawn[i] records whether the segment from points[i] to points[i+1] is still
// drawn. When an erase clips a segment, the whole segment is switched off and
// an exact StraightLine fragment over it remembers the parts that survive, so
// erasing keeps sub-segment precision.
type FreehandLine struct {
	base
	points    []geom.Point
	drawn     []bool
	fragments []*StraightLine
}

func NewFreehandLine(c Color, strokeWidth float64) *FreehandLine {
	return &FreehandLine{base: base{color: c, strokeWidth: strokeWidth}}
}

// NewFreehandLineFrom builds a line through the given points.
func NewFreehandLineFrom(c Color, strokeWidth float64, points ...geom.Point) *FreehandLine {
	l := NewFreehandLine(c, strokeWidth)
	for _, p := range points {
		l.AddPoint(p)
	}
	return l
}

func (l *FreehandLine) Kind() Kind { return KindFreehand }

// Points returns the line's vertices. The slice must not be modified.
func (l *FreehandLine) Points() []geom.Point { return l.points }

func (l *FreehandLine) AddPoint(p geom.Point) {
	l.points = append(l.points, p)
	l.drawn = append(l.drawn, true)
	l.bounds.UpdateBounds(p)
	l.invalidate()
}

func (l *FreehandLine) IsValid() bool { return len(l.points) >= 2 }

func (l *FreehandLine) ShouldSerialize() bool { return l.IsValid() }

func (l *FreehandLine) Erase(center geom.Point, radius float64) {
	if !l.IsValid() || !l.bounds.IntersectsWithCircle(center, radius) {
		return
	}
	for i := 0; i+1 < len(l.points); i++ {
		if !l.drawn[i] || !geom.SegmentIntersectsCircle(l.points[i], l.points[i+1], center, radius) {
			continue
		}
		l.drawn[i] = false
		frag := NewStraightLineBetween(l.color, l.strokeWidth, l.points[i], l.points[i+1])
		l.fragments = append(l.fragments, frag)
	}
	for _, f := range l.fragments {
		f.Erase(center, radius)
	}
	l.invalidate()
}

func (l *FreehandLine) NeedsOptimization() bool {
	for i := 0; i+1 < len(l.points); i++ {
		if !l.drawn[i] {
			return true
		}
	}
	return false
}

func (l *FreehandLine) RemoveErasedPoints() []Shape {
	if !l.NeedsOptimization() {
		return []Shape{l}
	}
	var out []Shape
	cur := NewFreehandLine(l.color, l.strokeWidth)
	for i, p := range l.points {
		cur.AddPoint(p)
		if i == len(l.points)-1 || !l.drawn[i] {
			// Runs of a single point have nothing left to draw.
			if len(cur.points) >= 2 {
				out = append(out, cur)
			}
			cur = NewFreehandLine(l.color, l.strokeWidth)
		}
	}
	for _, f := range l.fragments {
		for _, s := range f.RemoveErasedPoints() {
			if s.IsValid() {
				out = append(out, s)
			}
		}
	}
	return out
}

func (l *FreehandLine) ResetErasure() {
	for i := range l.drawn {
		l.drawn[i] = true
	}
	l.fragments = nil
	l.invalidate()
}

// Contains runs an odd-even test against the line's vertices, closed back to
// the first point, so a freehand outline can be used as a region. The parity
// of the winding number is the parity of the ray crossings.
func (l *FreehandLine) Contains(p geom.Point) bool {
	if len(l.points) < 3 || !l.bounds.Contains(p) {
		return false
	}
	var outline geom.Path
	outline.MoveTo(l.points[0])
	for _, v := range l.points[1:] {
		outline.LineTo(v)
	}
	outline.Close()
	return outline.Winding(p)%2 != 0
}

func (l *FreehandLine) Path() *geom.Path {
	return l.cachedPath(l.buildPath)
}

func (l *FreehandLine) buildPath() *geom.Path {
	path := &geom.Path{}
	if !l.IsValid() {
		return path
	}
	pen := false
	for i := 0; i+1 < len(l.points); i++ {
		if !l.drawn[i] {
			pen = false
			continue
		}
		if !pen {
			path.MoveTo(l.points[i])
			pen = true
		}
		path.LineTo(l.points[i+1])
	}
	if l.IsFilled() && !l.NeedsOptimization() {
		path.Close()
	}
	for _, f := range l.fragments {
		path.Append(f.Path())
	}
	return path
}

func (l *FreehandLine) Translated(offset geom.Point) Shape {
	out := NewFreehandLine(l.color, l.strokeWidth)
	for _, p := range l.points {
		out.AddPoint(p.Add(offset))
	}
	return out
}

func (l *FreehandLine) writePayload(w *codec.Writer) error {
	if err := w.StartArray(); err != nil {
		return err
	}
	for _, p := range l.points {
		if err := writePoint(w, p); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (l *FreehandLine) readPayload(r *codec.Reader) error {
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	for {
		more, err := r.HasMoreArrayItems()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		p, err := readPoint(r)
		if err != nil {
			return err
		}
		l.AddPoint(p)
	}
	return r.ExpectArrayEnd()
}
