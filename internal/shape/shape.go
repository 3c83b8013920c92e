// Package shape implements the drawable vector primitives of a map layer and
// the partial-erase algorithm that splits them.
//
// The set of shapes is closed: FreehandLine, StraightLine, Circle, Rectangle
// and Text. Shapes are mutated in place while they are being drawn (AddPoint)
// and while they are being erased (Erase); erasing only records which parts
// are gone. RemoveErasedPoints turns that record into the surviving shapes
// without touching the receiver, so a superseded shape can be put back by
// undo exactly as it was.
package shape

import (
	"image/color"
	"math"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// Kind identifies a shape variant.
type Kind int

const (
	KindFreehand Kind = iota
	KindStraight
	KindCircle
	KindRectangle
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFreehand:
		return "freehand"
	case KindStraight:
		return "straight"
	case KindCircle:
		return "circle"
	case KindRectangle:
		return "rectangle"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Filled is the stroke width of shapes that are filled instead of outlined.
var Filled = math.Inf(1)

// Shape is one drawable primitive. Only the types in this package implement it.
type Shape interface {
	Kind() Kind
	Color() Color
	StrokeWidth() float64
	IsFilled() bool
	BoundingRectangle() geom.BoundingRectangle

	// IsValid reports whether the shape has enough geometry to render.
	// Invalid shapes are skipped by drawing, hit-testing and serialization.
	IsValid() bool

	// AddPoint extends the shape while it is being drawn.
	AddPoint(p geom.Point)

	// Erase marks everything within radius of center as erased. It is
	// idempotent and cheap enough to call for every pointer move.
	Erase(center geom.Point, radius float64)
	NeedsOptimization() bool
	// RemoveErasedPoints returns the shapes that survive the pending erasure:
	// the receiver itself when nothing was erased, nothing when everything was.
	RemoveErasedPoints() []Shape
	// ResetErasure forgets pending erasure, restoring the drawn state.
	ResetErasure()

	Contains(p geom.Point) bool

	// Path returns the render path in world space, without the draw offset.
	// The result is cached until the shape changes and must not be modified.
	Path() *geom.Path

	DrawOffset() (geom.Point, bool)
	SetDrawOffset(offset geom.Point)
	ClearDrawOffset()
	// Translated returns a new shape moved by offset, with no pending erasure.
	Translated(offset geom.Point) Shape

	ShouldSerialize() bool

	writePayload(w *codec.Writer) error
	readPayload(r *codec.Reader) error
}

// Color is a packed 0xAARRGGBB color, the representation stored in map files.
type Color uint32

const (
	ColorBlack Color = 0xff000000
	ColorWhite Color = 0xffffffff
	ColorRed   Color = 0xffff0000
	ColorGreen Color = 0xff00ff00
	ColorBlue  Color = 0xff0000ff
)

// ColorOf converts any color.Color to its packed form.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B))
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }

// WithAlpha returns c with its alpha channel replaced.
func (c Color) WithAlpha(a uint8) Color {
	return c&0x00ffffff | Color(a)<<24
}

// base carries the fields every variant shares.
type base struct {
	color       Color
	strokeWidth float64
	bounds      geom.BoundingRectangle
	offset      *geom.Point
	path        *geom.Path
}

func (b *base) Color() Color                              { return b.color }
func (b *base) StrokeWidth() float64                      { return b.strokeWidth }
func (b *base) IsFilled() bool                            { return math.IsInf(b.strokeWidth, 1) }
func (b *base) BoundingRectangle() geom.BoundingRectangle { return b.bounds }

func (b *base) DrawOffset() (geom.Point, bool) {
	if b.offset == nil {
		return geom.Point{}, false
	}
	return *b.offset, true
}

func (b *base) SetDrawOffset(offset geom.Point) { b.offset = &offset }
func (b *base) ClearDrawOffset()                { b.offset = nil }

func (b *base) invalidate() { b.path = nil }

// cachedPath returns the cached path, building it with build on a miss.
func (b *base) cachedPath(build func() *geom.Path) *geom.Path {
	if b.path == nil {
		b.path = build()
	}
	return b.path
}
