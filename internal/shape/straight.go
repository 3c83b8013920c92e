package shape

import (
	"sort"

	"honnef.co/go/curve"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// StraightLine is a segment between two points.
//
// toggles is a sorted list of normalized parameters along the segment; the
// ranges [toggles[0], toggles[1]], [toggles[2], toggles[3]], ... are drawn
// and everything between them is erased. A fresh line is [0, 1].
type StraightLine struct {
	base
	start, end       geom.Point
	hasStart, hasEnd bool
	toggles          []float64
}

func NewStraightLine(c Color, strokeWidth float64) *StraightLine {
	return &StraightLine{
		base:    base{color: c, strokeWidth: strokeWidth},
		toggles: []float64{0, 1},
	}
}

// NewStraightLineBetween builds a complete line from a to b.
func NewStraightLineBetween(c Color, strokeWidth float64, a, b geom.Point) *StraightLine {
	l := NewStraightLine(c, strokeWidth)
	l.AddPoint(a)
	l.AddPoint(b)
	return l
}

func (l *StraightLine) Kind() Kind { return KindStraight }

// Endpoints returns the start and end of the segment.
func (l *StraightLine) Endpoints() (geom.Point, geom.Point) { return l.start, l.end }

// AddPoint sets the start on the first call and moves the end afterwards.
func (l *StraightLine) AddPoint(p geom.Point) {
	if !l.hasStart {
		l.start, l.hasStart = p, true
	} else {
		l.end, l.hasEnd = p, true
	}
	l.bounds = geom.NewBoundingRectangle(l.start)
	if l.hasEnd {
		l.bounds.UpdateBounds(l.end)
	}
	l.invalidate()
}

// IsValid reports whether both endpoints are set and distinct.
func (l *StraightLine) IsValid() bool {
	return l.hasStart && l.hasEnd && l.start != l.end
}

func (l *StraightLine) ShouldSerialize() bool { return l.IsValid() }

func (l *StraightLine) Erase(center geom.Point, radius float64) {
	if !l.IsValid() || !l.bounds.IntersectsWithCircle(center, radius) {
		return
	}
	t0, t1, ok := geom.SegmentCircleInterval(l.start, l.end, center, radius)
	if !ok || t0 >= t1 {
		return
	}
	l.eraseInterval(t0, t1)
	l.invalidate()
}

// eraseInterval removes [a, b] from the drawn ranges. An insertion point
// with an odd index falls inside a drawn run, so the run has to be cut there.
func (l *StraightLine) eraseInterval(a, b float64) {
	t := l.toggles
	ia := sort.Search(len(t), func(i int) bool { return t[i] > a })
	ib := sort.Search(len(t), func(i int) bool { return t[i] > b })

	merged := make([]float64, 0, len(t)+2)
	merged = append(merged, t[:ia]...)
	if ia%2 == 1 {
		merged = append(merged, a)
	}
	if ib%2 == 1 {
		merged = append(merged, b)
	}
	merged = append(merged, t[ib:]...)

	// Drop drawn runs that collapsed to nothing.
	out := merged[:0]
	for i := 0; i+1 < len(merged); i += 2 {
		if merged[i] < merged[i+1] {
			out = append(out, merged[i], merged[i+1])
		}
	}
	l.toggles = out
}

// drawnSegments returns the surviving pieces of the line.
func (l *StraightLine) drawnSegments() []curve.Line {
	seg := geom.Segment(l.start, l.end)
	out := make([]curve.Line, 0, len(l.toggles)/2)
	for _, iv := range l.DrawnIntervals() {
		out = append(out, seg.Subsegment(iv[0], iv[1]))
	}
	return out
}

// DrawnIntervals returns the drawn parameter ranges as [start, end] pairs.
func (l *StraightLine) DrawnIntervals() [][2]float64 {
	out := make([][2]float64, 0, len(l.toggles)/2)
	for i := 0; i+1 < len(l.toggles); i += 2 {
		out = append(out, [2]float64{l.toggles[i], l.toggles[i+1]})
	}
	return out
}

func (l *StraightLine) NeedsOptimization() bool {
	return !(len(l.toggles) == 2 && l.toggles[0] == 0 && l.toggles[1] == 1)
}

func (l *StraightLine) RemoveErasedPoints() []Shape {
	if !l.NeedsOptimization() {
		return []Shape{l}
	}
	var out []Shape
	for _, seg := range l.drawnSegments() {
		s := NewStraightLineBetween(l.color, l.strokeWidth, geom.Point(seg.P0), geom.Point(seg.P1))
		if s.IsValid() {
			out = append(out, s)
		}
	}
	return out
}

func (l *StraightLine) ResetErasure() {
	l.toggles = []float64{0, 1}
	l.invalidate()
}

// Contains reports whether p lies on a drawn part of the line, widened by
// half the stroke width.
func (l *StraightLine) Contains(p geom.Point) bool {
	if !l.IsValid() {
		return false
	}
	half := l.strokeWidth / 2
	if !l.bounds.Expanded(half).Contains(p) {
		return false
	}
	for _, seg := range l.drawnSegments() {
		if d2, _ := seg.Nearest(curve.Point(p), 0); d2 <= half*half {
			return true
		}
	}
	return false
}

func (l *StraightLine) Path() *geom.Path {
	return l.cachedPath(func() *geom.Path {
		path := &geom.Path{}
		if !l.IsValid() {
			return path
		}
		for _, seg := range l.drawnSegments() {
			path.MoveTo(geom.Point(seg.P0))
			path.LineTo(geom.Point(seg.P1))
		}
		return path
	})
}

func (l *StraightLine) Translated(offset geom.Point) Shape {
	return NewStraightLineBetween(l.color, l.strokeWidth, l.start.Add(offset), l.end.Add(offset))
}

func (l *StraightLine) writePayload(w *codec.Writer) error {
	if err := writePoint(w, l.start); err != nil {
		return err
	}
	return writePoint(w, l.end)
}

func (l *StraightLine) readPayload(r *codec.Reader) error {
	for range 2 {
		p, err := readPoint(r)
		if err != nil {
			return err
		}
		l.AddPoint(p)
	}
	return nil
}
