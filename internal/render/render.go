// Package render rasterizes map layers, the grid and tokens onto a
// fogleman/gg context.
package render

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"honnef.co/go/curve"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
	"inkmap/internal/shape"
)

// FogOverlayColor tints the revealed parts of the map in the GM view.
var FogOverlayColor = color.NRGBA{R: 0x40, G: 0x40, B: 0x80, A: 0x60}

// ImageLoader supplies token images by file name.
type ImageLoader interface {
	LoadImage(name string) (image.Image, error)
}

// DirImageLoader loads token images relative to a directory.
type DirImageLoader struct {
	Dir string
}

func (l DirImageLoader) LoadImage(name string) (image.Image, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(l.Dir, name)
	}
	return gg.LoadImage(name)
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithImageLoader(l ImageLoader) Option {
	return func(r *Renderer) { r.images = l }
}

// Renderer draws world space geometry through a world-to-screen transform.
type Renderer struct {
	dc        *gg.Context
	transform geom.CoordinateTransformer
	logger    *slog.Logger
	images    ImageLoader

	imageCache map[string]image.Image
	faces      map[float64]font.Face
}

func NewRenderer(dc *gg.Context, transform geom.CoordinateTransformer, opts ...Option) *Renderer {
	r := &Renderer{
		dc:         dc,
		transform:  transform,
		logger:     slog.New(slog.DiscardHandler),
		imageCache: make(map[string]image.Image),
		faces:      make(map[float64]font.Face),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Context() *gg.Context { return r.dc }

func (r *Renderer) Transform() geom.CoordinateTransformer { return r.transform }

func (r *Renderer) SetTransform(t geom.CoordinateTransformer) { r.transform = t }

// DrawLinesBelowGrid draws the shapes of lc that sit underneath the grid.
func (r *Renderer) DrawLinesBelowGrid(lc *mapdata.LineCollection) {
	r.DrawShapes(lc.BelowGrid())
}

// DrawLinesAboveGrid draws the shapes of lc that sit on top of the grid.
func (r *Renderer) DrawLinesAboveGrid(lc *mapdata.LineCollection) {
	r.DrawShapes(lc.AboveGrid())
}

// DrawShapes draws shapes in order, honoring pending draw offsets.
func (r *Renderer) DrawShapes(shapes []shape.Shape) {
	for _, s := range shapes {
		r.drawShape(s)
	}
}

func (r *Renderer) drawShape(s shape.Shape) {
	if !s.IsValid() {
		return
	}
	offset, _ := s.DrawOffset()
	r.dc.SetColor(s.Color())

	if t, ok := s.(*shape.Text); ok {
		r.drawText(t, offset)
		return
	}
	r.tracePath(s.Path(), offset)
	if s.IsFilled() {
		r.dc.Fill()
		return
	}
	r.dc.SetLineWidth(math.Max(r.transform.WorldSpaceToScreenSpaceScalar(s.StrokeWidth()), 1))
	r.dc.SetLineCapRound()
	r.dc.SetLineJoinRound()
	r.dc.Stroke()
}

// tracePath appends p, moved by offset, to the current gg path.
func (r *Renderer) tracePath(p *geom.Path, offset geom.Point) {
	screen := geom.Identity().Panned(offset).Compose(r.transform).TransformPath(p)
	for _, e := range screen.Elements() {
		switch e.Kind {
		case curve.MoveToKind:
			r.dc.MoveTo(e.P0.X, e.P0.Y)
		case curve.LineToKind:
			r.dc.LineTo(e.P0.X, e.P0.Y)
		case curve.QuadToKind:
			r.dc.QuadraticTo(e.P0.X, e.P0.Y, e.P1.X, e.P1.Y)
		case curve.CubicToKind:
			r.dc.CubicTo(e.P0.X, e.P0.Y, e.P1.X, e.P1.Y, e.P2.X, e.P2.Y)
		case curve.ClosePathKind:
			r.dc.ClosePath()
		}
	}
}

func (r *Renderer) drawText(t *shape.Text, offset geom.Point) {
	size := r.transform.WorldSpaceToScreenSpaceScalar(t.FontSize())
	face := r.face(size)
	if face == nil {
		return
	}
	r.dc.SetFontFace(face)

	m := t.Metrics()
	top := r.transform.WorldSpaceToScreenSpace(t.Location().Add(offset))
	lineHeight := r.transform.WorldSpaceToScreenSpaceScalar(m.LineHeight)
	ascent := r.transform.WorldSpaceToScreenSpaceScalar(m.Ascent)
	for i, line := range t.Lines() {
		r.dc.DrawString(line, top.X, top.Y+ascent+float64(i)*lineHeight)
	}
}

func (r *Renderer) face(size float64) font.Face {
	if size < 1 {
		return nil
	}
	size = math.Round(size*4) / 4
	if f, ok := r.faces[size]; ok {
		return f
	}
	f, err := shape.NewFontFace(size)
	if err != nil {
		r.logger.Warn("font face", slog.Any("error", err))
		return nil
	}
	r.faces[size] = f
	return f
}

// Close releases the font faces cached for text. The renderer stays usable
// and creates faces again on demand.
func (r *Renderer) Close() error {
	var errs []error
	for size, f := range r.faces {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.faces, size)
	}
	return errors.Join(errs...)
}

// ClipFogOfWar restricts further drawing to the union of the shapes of the
// fog-of-war layer fog. An empty layer hides everything. Call ResetClip
// when done.
func (r *Renderer) ClipFogOfWar(fog *mapdata.LineCollection) {
	if err := r.dc.SetMask(r.fogMask(fog)); err != nil {
		r.logger.Warn("fog of war clip", slog.Any("error", err))
	}
}

func (r *Renderer) ResetClip() { r.dc.ResetClip() }

// DrawFogOfWar shades the union of the shapes of fog with a translucent
// overlay, so the GM sees both the map and what has been revealed.
func (r *Renderer) DrawFogOfWar(fog *mapdata.LineCollection) {
	if fog.IsEmpty() {
		return
	}
	if err := r.dc.SetMask(r.fogMask(fog)); err != nil {
		r.logger.Warn("fog of war overlay", slog.Any("error", err))
		return
	}
	r.dc.DrawRectangle(0, 0, float64(r.dc.Width()), float64(r.dc.Height()))
	r.dc.SetColor(FogOverlayColor)
	r.dc.Fill()
	r.dc.ResetClip()
}

// fogMask rasterizes every shape of fog opaquely into an alpha mask the
// size of the context. Shapes are drawn one at a time so overlapping
// regions union regardless of their winding.
func (r *Renderer) fogMask(fog *mapdata.LineCollection) *image.Alpha {
	mc := gg.NewContext(r.dc.Width(), r.dc.Height())
	mr := NewRenderer(mc, r.transform)
	defer mr.Close()
	mc.SetColor(color.Black)
	for _, s := range fog.Shapes() {
		if !s.IsValid() {
			continue
		}
		offset, _ := s.DrawOffset()
		mr.tracePath(s.Path(), offset)
		if s.IsFilled() {
			mc.Fill()
			continue
		}
		mc.SetLineWidth(math.Max(r.transform.WorldSpaceToScreenSpaceScalar(s.StrokeWidth()), 1))
		mc.SetLineCapRound()
		mc.SetLineJoinRound()
		mc.Stroke()
	}
	return mc.AsMask()
}
