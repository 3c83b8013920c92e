package shape

import (
	"math"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// circleSegments is the vertex count of the polygon a circle turns into once
// it is erased.
const circleSegments = 64

// Circle is defined by two points on a diameter: the anchor placed by the
// first AddPoint and the point of the latest one.
//
// The first erase that reaches the circle materializes an equivalent
// FreehandLine polygon; erasing and optimizing then delegate to it.
type Circle struct {
	base
	anchor    geom.Point
	hasAnchor bool
	center    geom.Point
	radius    float64
	erased    *FreehandLine
}

func NewCircle(c Color, strokeWidth float64) *Circle {
	return &Circle{base: base{color: c, strokeWidth: strokeWidth}, radius: math.NaN()}
}

// NewCircleAt builds a complete circle.
func NewCircleAt(c Color, strokeWidth float64, center geom.Point, radius float64) *Circle {
	ci := NewCircle(c, strokeWidth)
	ci.AddPoint(geom.Pt(center.X-radius, center.Y))
	ci.AddPoint(geom.Pt(center.X+radius, center.Y))
	return ci
}

func (c *Circle) Kind() Kind { return KindCircle }

// Center returns the center and radius. The radius is NaN until a second
// point has been added.
func (c *Circle) Center() (geom.Point, float64) { return c.center, c.radius }

func (c *Circle) AddPoint(p geom.Point) {
	if !c.hasAnchor {
		c.anchor, c.hasAnchor = p, true
		c.center = p
		c.bounds = geom.NewBoundingRectangle(p)
		c.invalidate()
		return
	}
	c.center = c.anchor.Midpoint(p)
	c.radius = c.anchor.Distance(p) / 2
	c.bounds = geom.RectFromBounds(c.center.X-c.radius, c.center.X+c.radius, c.center.Y-c.radius, c.center.Y+c.radius)
	c.invalidate()
}

func (c *Circle) IsValid() bool {
	return !math.IsNaN(c.radius) && c.radius > 0
}

func (c *Circle) ShouldSerialize() bool { return c.IsValid() }

func (c *Circle) polygon() *FreehandLine {
	l := NewFreehandLine(c.color, c.strokeWidth)
	for i := 0; i <= circleSegments; i++ {
		// The last vertex repeats the first to close the outline.
		a := 2 * math.Pi * float64(i%circleSegments) / circleSegments
		l.AddPoint(geom.Pt(c.center.X+c.radius*math.Cos(a), c.center.Y+c.radius*math.Sin(a)))
	}
	return l
}

func (c *Circle) Erase(center geom.Point, radius float64) {
	if !c.IsValid() || !c.bounds.IntersectsWithCircle(center, radius) {
		return
	}
	if c.erased == nil {
		c.erased = c.polygon()
	}
	c.erased.Erase(center, radius)
	c.invalidate()
}

func (c *Circle) NeedsOptimization() bool {
	return c.erased != nil && c.erased.NeedsOptimization()
}

func (c *Circle) RemoveErasedPoints() []Shape {
	if !c.NeedsOptimization() {
		return []Shape{c}
	}
	return c.erased.RemoveErasedPoints()
}

func (c *Circle) ResetErasure() {
	c.erased = nil
	c.invalidate()
}

func (c *Circle) Contains(p geom.Point) bool {
	return c.IsValid() && c.center.Distance(p) <= c.radius
}

func (c *Circle) Path() *geom.Path {
	return c.cachedPath(func() *geom.Path {
		if c.NeedsOptimization() {
			return c.erased.Path()
		}
		path := &geom.Path{}
		if c.IsValid() {
			path.Circle(c.center, c.radius)
		}
		return path
	})
}

func (c *Circle) Translated(offset geom.Point) Shape {
	return NewCircleAt(c.color, c.strokeWidth, c.center.Add(offset), c.radius)
}

func (c *Circle) writePayload(w *codec.Writer) error {
	if err := writePoint(w, c.center); err != nil {
		return err
	}
	return w.WriteFloat(c.radius)
}

func (c *Circle) readPayload(r *codec.Reader) error {
	center, err := readPoint(r)
	if err != nil {
		return err
	}
	radius, err := r.ReadFloat()
	if err != nil {
		return err
	}
	c.AddPoint(geom.Pt(center.X-radius, center.Y))
	c.AddPoint(geom.Pt(center.X+radius, center.Y))
	return nil
}
