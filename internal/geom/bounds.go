package geom

import (
	"math"

	"honnef.co/go/curve"
)

// BoundingRectangle is an axis-aligned bound that only grows.
//
// The zero value is empty: it contains nothing and intersects nothing until
// the first call to UpdateBounds. Emptiness is tracked explicitly instead of
// through sentinel extremes, so an empty rectangle never leaks infinities into
// unions or serialized files.
type BoundingRectangle struct {
	XMin, XMax float64
	YMin, YMax float64
	set        bool
}

// NewBoundingRectangle returns the smallest rectangle holding the given points.
func NewBoundingRectangle(points ...Point) BoundingRectangle {
	var r BoundingRectangle
	for _, p := range points {
		r.UpdateBounds(p)
	}
	return r
}

// RectFromBounds builds a non-empty rectangle from explicit extents.
func RectFromBounds(xmin, xmax, ymin, ymax float64) BoundingRectangle {
	return BoundingRectangle{
		XMin: math.Min(xmin, xmax), XMax: math.Max(xmin, xmax),
		YMin: math.Min(ymin, ymax), YMax: math.Max(ymin, ymax),
		set: true,
	}
}

// IsEmpty reports whether no point has been added yet.
func (r BoundingRectangle) IsEmpty() bool { return !r.set }

// UpdateBounds grows r to include p.
func (r *BoundingRectangle) UpdateBounds(p Point) {
	if !r.set {
		r.XMin, r.XMax, r.YMin, r.YMax = p.X, p.X, p.Y, p.Y
		r.set = true
		return
	}
	*r = FromRect(r.Rect().UnionPoint(curve.Point(p)))
}

// FromRect converts a curve.Rect into a non-empty BoundingRectangle.
func FromRect(c curve.Rect) BoundingRectangle {
	return RectFromBounds(c.X0, c.X1, c.Y0, c.Y1)
}

// Rect returns r as a curve.Rect. An empty r maps to the zero Rect.
func (r BoundingRectangle) Rect() curve.Rect {
	return curve.Rect{X0: r.XMin, Y0: r.YMin, X1: r.XMax, Y1: r.YMax}
}

// UpdateBoundsRect grows r to include all of o.
func (r *BoundingRectangle) UpdateBoundsRect(o BoundingRectangle) {
	if o.IsEmpty() {
		return
	}
	r.UpdateBounds(Point{o.XMin, o.YMin})
	r.UpdateBounds(Point{o.XMax, o.YMax})
}

// Union returns the smallest rectangle containing both r and o.
func (r BoundingRectangle) Union(o BoundingRectangle) BoundingRectangle {
	r.UpdateBoundsRect(o)
	return r
}

func (r BoundingRectangle) Width() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.XMax - r.XMin
}

func (r BoundingRectangle) Height() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.YMax - r.YMin
}

func (r BoundingRectangle) Center() Point {
	return Point(r.Rect().Center())
}

// Contains reports whether p lies inside r, edges included.
func (r BoundingRectangle) Contains(p Point) bool {
	return r.set && p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// IntersectsWithCircle reports whether the disk at center with the given
// radius touches r. It is exact for the rectangle, so it serves both as the
// quick reject before segment math and as the all-or-nothing test for text.
func (r BoundingRectangle) IntersectsWithCircle(center Point, radius float64) bool {
	if !r.set {
		return false
	}
	cx := math.Max(r.XMin, math.Min(center.X, r.XMax))
	cy := math.Max(r.YMin, math.Min(center.Y, r.YMax))
	dx, dy := center.X-cx, center.Y-cy
	return dx*dx+dy*dy <= radius*radius
}

// Translated returns r moved by offset.
func (r BoundingRectangle) Translated(offset Point) BoundingRectangle {
	if !r.set {
		return r
	}
	return FromRect(r.Rect().Translate(curve.Vec2(offset)))
}

// Expanded returns r grown by margin on every side.
func (r BoundingRectangle) Expanded(margin float64) BoundingRectangle {
	if !r.set {
		return r
	}
	return FromRect(r.Rect().Inflate(margin, margin))
}
