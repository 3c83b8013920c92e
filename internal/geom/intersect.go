package geom

import (
	"math"

	"honnef.co/go/curve"
)

// LineCircleIntersection intersects the infinite line through p1 and p2 with
// the circle at center. It returns the two crossing points and true, or false
// when the line misses the circle. A tangent line returns the same point twice.
//
// The points come back ordered along the line direction from p1 to p2 only
// when dy >= 0; callers that care about order should project them with
// ParameterOnLine.
func LineCircleIntersection(p1, p2, center Point, radius float64) (Point, Point, bool) {
	// Work with the circle at the origin.
	x1, y1 := p1.X-center.X, p1.Y-center.Y
	x2, y2 := p2.X-center.X, p2.Y-center.Y

	dx, dy := x2-x1, y2-y1
	dr2 := dx*dx + dy*dy
	if dr2 == 0 {
		return Point{}, Point{}, false
	}
	det := x1*y2 - x2*y1
	disc := radius*radius*dr2 - det*det
	if disc < 0 {
		return Point{}, Point{}, false
	}

	sq := math.Sqrt(disc)
	sgn := 1.0
	if dy < 0 {
		sgn = -1
	}
	ax := (det*dy + sgn*dx*sq) / dr2
	bx := (det*dy - sgn*dx*sq) / dr2
	ay := (-det*dx + math.Abs(dy)*sq) / dr2
	by := (-det*dx - math.Abs(dy)*sq) / dr2

	return Point{ax + center.X, ay + center.Y}, Point{bx + center.X, by + center.Y}, true
}

// ParameterOnLine returns t such that p = p1 + t*(p2-p1) for a point p known
// to lie on the line through p1 and p2.
func ParameterOnLine(p1, p2, p Point) float64 {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return 0
	}
	return ((p.X-p1.X)*dx + (p.Y-p1.Y)*dy) / d2
}

// SegmentCircleInterval returns the sub-range [t0, t1] of the segment p1→p2,
// in normalized parameters clamped to [0, 1], that lies inside the circle.
// ok is false when the segment does not touch the disk.
func SegmentCircleInterval(p1, p2, center Point, radius float64) (t0, t1 float64, ok bool) {
	a, b, hit := LineCircleIntersection(p1, p2, center, radius)
	if !hit {
		return 0, 0, false
	}
	t0 = ParameterOnLine(p1, p2, a)
	t1 = ParameterOnLine(p1, p2, b)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t1 < 0 || t0 > 1 {
		return 0, 0, false
	}
	return math.Max(t0, 0), math.Min(t1, 1), true
}

// SegmentIntersectsCircle reports whether any part of the segment p1→p2 lies
// within radius of center.
func SegmentIntersectsCircle(p1, p2, center Point, radius float64) bool {
	d2, _ := Segment(p1, p2).Nearest(curve.Point(center), 0)
	return d2 <= radius*radius
}
