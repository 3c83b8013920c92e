package geom

import "honnef.co/go/curve"

// CircleTolerance is the maximum distance, in world units, between a circle
// and the cubic Béziers that approximate it in a Path.
const CircleTolerance = 0.01

// Path is a renderer-neutral Bézier path in world space. Renderers walk the
// elements in order and switch on their curve.PathElementKind; a nil *Path
// draws nothing.
type Path curve.BezPath

func (p *Path) bez() *curve.BezPath { return (*curve.BezPath)(p) }

func (p *Path) MoveTo(pt Point) { p.bez().MoveTo(curve.Point(pt)) }
func (p *Path) LineTo(pt Point) { p.bez().LineTo(curve.Point(pt)) }
func (p *Path) Close()          { p.bez().ClosePath() }

// Circle appends a closed subpath approximating the circle with cubic arcs.
func (p *Path) Circle(center Point, radius float64) {
	c := curve.Circle{Center: curve.Point(center), Radius: radius}
	for el := range c.PathElements(CircleTolerance) {
		p.bez().Push(el)
	}
}

// Append adds every element of o to p.
func (p *Path) Append(o *Path) {
	if o == nil {
		return
	}
	*p = append(*p, *o...)
}

// Translated returns a copy of p moved by offset.
func (p *Path) Translated(offset Point) *Path {
	if p == nil {
		return nil
	}
	out := Path(curve.BezPath(*p).Transform(curve.Translate(curve.Vec2(offset))))
	return &out
}

// Elements returns the path as a curve.BezPath for iteration.
func (p *Path) Elements() curve.BezPath {
	if p == nil {
		return nil
	}
	return curve.BezPath(*p)
}

// Winding returns the winding number of pt against the path. Open subpaths
// must be closed by the caller for the result to be meaningful.
func (p *Path) Winding(pt Point) int {
	if p.IsEmpty() {
		return 0
	}
	return curve.BezPath(*p).Winding(curve.Point(pt))
}

// BoundingBox returns the smallest rectangle enclosing the path.
func (p *Path) BoundingBox() BoundingRectangle {
	if p.IsEmpty() {
		return BoundingRectangle{}
	}
	return FromRect(curve.BezPath(*p).BoundingBox())
}

func (p *Path) IsEmpty() bool { return p == nil || len(*p) == 0 }
