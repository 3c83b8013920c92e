// Package geom holds the plane geometry shared by the sketch engine: points,
// bounding rectangles, the world/screen transform and the closed-form
// intersection tests used by erasing and hit-testing. Paths, lines and
// winding numbers come from honnef.co/go/curve.
package geom

import "honnef.co/go/curve"

// Point is an (X, Y) pair in whatever space the caller is working in.
// Shapes always store their points in layer world space. It converts freely
// to and from curve.Point.
type Point curve.Point

func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) Add(o Point) Point { return Point(curve.Point(p).Translate(curve.Vec2(o))) }
func (p Point) Sub(o Point) Point { return Point(curve.Point(p).Sub(curve.Point(o))) }
func (p Point) Scale(s float64) Point {
	return Point(curve.Vec2(p).Mul(s))
}

// Distance returns the euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return curve.Point(p).Distance(curve.Point(o))
}

// Lerp returns the point a fraction t of the way from p to o.
func (p Point) Lerp(o Point, t float64) Point {
	return Point(curve.Point(p).Lerp(curve.Point(o), t))
}

// Midpoint returns the point halfway between p and o.
func (p Point) Midpoint(o Point) Point {
	return Point(curve.Point(p).Midpoint(curve.Point(o)))
}

func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Segment returns the straight segment from a to b.
func Segment(a, b Point) curve.Line {
	return curve.Line{P0: curve.Point(a), P1: curve.Point(b)}
}
