package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
)

// View selects whose point of view a map is rendered from.
type View int

const (
	// ViewGM shows everything; fog of war is drawn as a shaded overlay.
	ViewGM View = iota
	// ViewPlayer hides what the fog of war covers, along with unrevealed
	// GM notes.
	ViewPlayer
)

// MapOptions controls RenderMap.
type MapOptions struct {
	View       View
	FogOfWar   bool
	Background color.Color
}

// RenderMap draws m in layer order: background below the grid, the grid,
// background above it, fog of war, tokens, GM notes and annotations.
func (r *Renderer) RenderMap(m *mapdata.MapData, opts MapOptions) {
	dc := r.dc
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	dc.SetColor(bg)
	dc.Clear()

	clipped := opts.FogOfWar && opts.View == ViewPlayer
	if clipped {
		r.ClipFogOfWar(m.BackgroundFogOfWar())
	}
	r.DrawLinesBelowGrid(m.Background())
	r.DrawGrid(m.Grid)
	r.DrawLinesAboveGrid(m.Background())
	if clipped {
		r.ResetClip()
	}
	if opts.FogOfWar && opts.View == ViewGM {
		r.DrawFogOfWar(m.BackgroundFogOfWar())
	}

	r.DrawTokens(m.Tokens, m.Grid)

	switch opts.View {
	case ViewGM:
		r.DrawLinesBelowGrid(m.GMNotes())
		r.DrawLinesAboveGrid(m.GMNotes())
		if opts.FogOfWar {
			r.DrawFogOfWar(m.GMNotesFogOfWar())
		}
	case ViewPlayer:
		if !m.GMNotesFogOfWar().IsEmpty() {
			r.ClipFogOfWar(m.GMNotesFogOfWar())
			r.DrawLinesBelowGrid(m.GMNotes())
			r.DrawLinesAboveGrid(m.GMNotes())
			r.ResetClip()
		}
	}

	r.DrawLinesBelowGrid(m.Annotations())
	r.DrawLinesAboveGrid(m.Annotations())
}

// FitTransform returns the world-to-screen transform that centers bounds in
// a width x height image with padding pixels on each side. An empty or
// degenerate rectangle maps one world unit to one pixel.
func FitTransform(bounds geom.BoundingRectangle, width, height int, padding float64) geom.CoordinateTransformer {
	if bounds.IsEmpty() {
		return geom.Identity()
	}
	availW := float64(width) - 2*padding
	availH := float64(height) - 2*padding
	zoom := 1.0
	if bounds.Width() > 0 && bounds.Height() > 0 && availW > 0 && availH > 0 {
		zoom = math.Min(availW/bounds.Width(), availH/bounds.Height())
	} else if bounds.Width() > 0 && availW > 0 {
		zoom = availW / bounds.Width()
	} else if bounds.Height() > 0 && availH > 0 {
		zoom = availH / bounds.Height()
	}
	c := bounds.Center()
	return geom.NewCoordinateTransformer(
		float64(width)/2-c.X*zoom,
		float64(height)/2-c.Y*zoom,
		zoom,
	)
}

// Image renders m into a new width x height context framed around the
// map's contents.
func Image(m *mapdata.MapData, width, height int, opts MapOptions, ropts ...Option) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid image size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	t := FitTransform(m.BoundingRectangle(), width, height, float64(min(width, height))/20)
	r := NewRenderer(dc, t, ropts...)
	defer r.Close()
	r.RenderMap(m, opts)
	return dc, nil
}

// SavePNG renders m and writes it to path.
func SavePNG(path string, m *mapdata.MapData, width, height int, opts MapOptions, ropts ...Option) error {
	dc, err := Image(m, width, height, opts, ropts...)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// EncodePNG renders m and writes the PNG to w.
func EncodePNG(w io.Writer, m *mapdata.MapData, width, height int, opts MapOptions, ropts ...Option) error {
	dc, err := Image(m, width, height, opts, ropts...)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}
