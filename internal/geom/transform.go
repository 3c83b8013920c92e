package geom

import "honnef.co/go/curve"

// CoordinateTransformer maps world space to screen space with a uniform zoom
// and a translation:
//
//	screen = world*zoom + origin
//
// Transforms nest: a grid space can be mapped to world space and then to the
// screen by composing two transformers.
type CoordinateTransformer struct {
	Origin Point
	Zoom   float64
}

// NewCoordinateTransformer returns a transformer with the given origin (in
// screen coordinates) and zoom level.
func NewCoordinateTransformer(originX, originY, zoom float64) CoordinateTransformer {
	return CoordinateTransformer{Origin: Point{originX, originY}, Zoom: zoom}
}

// Identity returns the transformer that leaves points unchanged.
func Identity() CoordinateTransformer {
	return CoordinateTransformer{Zoom: 1}
}

// Affine returns t as a curve.Affine.
func (t CoordinateTransformer) Affine() curve.Affine {
	return curve.Scale(t.Zoom, t.Zoom).ThenTranslate(curve.Vec2(t.Origin))
}

func (t CoordinateTransformer) WorldSpaceToScreenSpace(p Point) Point {
	return Point(curve.Point(p).Transform(t.Affine()))
}

func (t CoordinateTransformer) ScreenSpaceToWorldSpace(p Point) Point {
	return Point{(p.X - t.Origin.X) / t.Zoom, (p.Y - t.Origin.Y) / t.Zoom}
}

// TransformPath maps every element of a world space path to screen space.
func (t CoordinateTransformer) TransformPath(p *Path) *Path {
	if p == nil {
		return nil
	}
	out := Path(curve.BezPath(*p).Transform(t.Affine()))
	return &out
}

// WorldSpaceToScreenSpaceScalar converts a length, such as a stroke width.
func (t CoordinateTransformer) WorldSpaceToScreenSpaceScalar(d float64) float64 {
	return d * t.Zoom
}

// ScreenSpaceToWorldSpaceScalar converts a length, such as an eraser radius
// given in pixels.
func (t CoordinateTransformer) ScreenSpaceToWorldSpaceScalar(d float64) float64 {
	return d / t.Zoom
}

// Zoomed rescales by factor while keeping the world location under the
// invariant screen point fixed.
func (t CoordinateTransformer) Zoomed(factor float64, invariant Point) CoordinateTransformer {
	newZoom := t.Zoom * factor
	// origin' = invariant - (invariant - origin) * zoom'/zoom
	t.Origin = invariant.Sub(invariant.Sub(t.Origin).Scale(newZoom / t.Zoom))
	t.Zoom = newZoom
	return t
}

// Panned moves the origin by a screen space delta.
func (t CoordinateTransformer) Panned(delta Point) CoordinateTransformer {
	t.Origin = t.Origin.Add(delta)
	return t
}

// Compose returns the transform that applies t first and then outer.
// For a grid-to-world transform g and a world-to-screen transform w,
// g.Compose(w) maps grid space straight to the screen.
func (t CoordinateTransformer) Compose(outer CoordinateTransformer) CoordinateTransformer {
	return CoordinateTransformer{
		Origin: outer.WorldSpaceToScreenSpace(t.Origin),
		Zoom:   t.Zoom * outer.Zoom,
	}
}

// Inverse returns the screen-to-world mapping as a transformer.
func (t CoordinateTransformer) Inverse() CoordinateTransformer {
	return CoordinateTransformer{
		Origin: Point{-t.Origin.X / t.Zoom, -t.Origin.Y / t.Zoom},
		Zoom:   1 / t.Zoom,
	}
}

// WorldToScreenRect converts a world space rectangle to screen space.
func (t CoordinateTransformer) WorldToScreenRect(r BoundingRectangle) BoundingRectangle {
	if r.IsEmpty() {
		return r
	}
	return NewBoundingRectangle(
		t.WorldSpaceToScreenSpace(Point{r.XMin, r.YMin}),
		t.WorldSpaceToScreenSpace(Point{r.XMax, r.YMax}),
	)
}
