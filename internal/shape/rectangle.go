package shape

import (
	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// Rectangle is an axis-aligned rectangle spanned by two opposite corners.
// Like Circle, it turns into a FreehandLine through its corners on the
// first erase that reaches it.
type Rectangle struct {
	base
	corner1, corner2 geom.Point
	hasFirst         bool
	hasSecond        bool
	erased           *FreehandLine
}

func NewRectangle(c Color, strokeWidth float64) *Rectangle {
	return &Rectangle{base: base{color: c, strokeWidth: strokeWidth}}
}

// NewRectangleBetween builds a complete rectangle.
func NewRectangleBetween(c Color, strokeWidth float64, corner1, corner2 geom.Point) *Rectangle {
	r := NewRectangle(c, strokeWidth)
	r.AddPoint(corner1)
	r.AddPoint(corner2)
	return r
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Corners() (geom.Point, geom.Point) { return r.corner1, r.corner2 }

func (r *Rectangle) AddPoint(p geom.Point) {
	if !r.hasFirst {
		r.corner1, r.hasFirst = p, true
	} else {
		r.corner2, r.hasSecond = p, true
	}
	r.bounds = geom.NewBoundingRectangle(r.corner1)
	if r.hasSecond {
		r.bounds.UpdateBounds(r.corner2)
	}
	r.invalidate()
}

func (r *Rectangle) IsValid() bool {
	return r.hasSecond && r.corner1 != r.corner2
}

func (r *Rectangle) ShouldSerialize() bool { return r.IsValid() }

func (r *Rectangle) vertices() []geom.Point {
	return []geom.Point{
		r.corner1,
		geom.Pt(r.corner2.X, r.corner1.Y),
		r.corner2,
		geom.Pt(r.corner1.X, r.corner2.Y),
	}
}

func (r *Rectangle) Erase(center geom.Point, radius float64) {
	if !r.IsValid() || !r.bounds.IntersectsWithCircle(center, radius) {
		return
	}
	if r.erased == nil {
		v := r.vertices()
		r.erased = NewFreehandLineFrom(r.color, r.strokeWidth, append(v, v[0])...)
	}
	r.erased.Erase(center, radius)
	r.invalidate()
}

func (r *Rectangle) NeedsOptimization() bool {
	return r.erased != nil && r.erased.NeedsOptimization()
}

func (r *Rectangle) RemoveErasedPoints() []Shape {
	if !r.NeedsOptimization() {
		return []Shape{r}
	}
	return r.erased.RemoveErasedPoints()
}

func (r *Rectangle) ResetErasure() {
	r.erased = nil
	r.invalidate()
}

func (r *Rectangle) Contains(p geom.Point) bool {
	return r.IsValid() && r.bounds.Contains(p)
}

func (r *Rectangle) Path() *geom.Path {
	return r.cachedPath(func() *geom.Path {
		if r.NeedsOptimization() {
			return r.erased.Path()
		}
		path := &geom.Path{}
		if !r.IsValid() {
			return path
		}
		for i, v := range r.vertices() {
			if i == 0 {
				path.MoveTo(v)
			} else {
				path.LineTo(v)
			}
		}
		path.Close()
		return path
	})
}

func (r *Rectangle) Translated(offset geom.Point) Shape {
	return NewRectangleBetween(r.color, r.strokeWidth, r.corner1.Add(offset), r.corner2.Add(offset))
}

func (r *Rectangle) writePayload(w *codec.Writer) error {
	if err := writePoint(w, r.corner1); err != nil {
		return err
	}
	return writePoint(w, r.corner2)
}

func (r *Rectangle) readPayload(rd *codec.Reader) error {
	for range 2 {
		p, err := readPoint(rd)
		if err != nil {
			return err
		}
		r.AddPoint(p)
	}
	return nil
}
