package render

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
	"inkmap/internal/shape"
)

var (
	tokenPlaceholder = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	bloodiedTint     = color.NRGBA{R: 0xc0, A: 0x60}
)

// DrawTokens draws every token as a round image, scaled to its diameter in
// grid cells. Tokens whose image cannot be loaded get a lettered disc.
func (r *Renderer) DrawTokens(tokens *mapdata.TokenCollection, grid *mapdata.Grid) {
	cell := grid.CellSize()
	for _, t := range tokens.Tokens() {
		r.drawToken(t, cell)
	}
}

func (r *Renderer) drawToken(t *mapdata.Token, cell float64) {
	center := r.transform.WorldSpaceToScreenSpace(t.Location)
	radius := r.transform.WorldSpaceToScreenSpaceScalar(t.Diameter * cell / 2)
	if radius < 0.5 {
		return
	}
	dc := r.dc

	if img := r.tokenImage(t.ImageFile); img != nil {
		b := img.Bounds()
		scale := 2 * radius / float64(max(b.Dx(), b.Dy()))
		dc.Push()
		dc.DrawCircle(center.X, center.Y, radius)
		dc.Clip()
		dc.Translate(center.X, center.Y)
		dc.Scale(scale, scale)
		dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
		dc.Pop()
		dc.ResetClip()
	} else {
		dc.DrawCircle(center.X, center.Y, radius)
		dc.SetColor(tokenPlaceholder)
		dc.Fill()
		r.drawTokenLabel(initial(t.Name), center, radius, color.White)
	}

	if t.Bloodied {
		dc.DrawCircle(center.X, center.Y, radius)
		dc.SetColor(bloodiedTint)
		dc.Fill()
	}
	if t.HasBorderColor {
		dc.SetLineWidth(math.Max(radius/10, 1))
		dc.DrawCircle(center.X, center.Y, radius)
		dc.SetColor(t.BorderColor)
		dc.Stroke()
	}
	if t.Label != "" {
		r.drawTokenLabel(t.Label, geom.Pt(center.X+radius*0.6, center.Y+radius*0.6), radius/2, shape.ColorBlack)
	}
}

func (r *Renderer) drawTokenLabel(label string, center geom.Point, radius float64, c color.Color) {
	if label == "" {
		return
	}
	face := r.face(radius)
	if face == nil {
		return
	}
	r.dc.SetFontFace(face)
	r.dc.SetColor(c)
	r.dc.DrawStringAnchored(label, center.X, center.Y, 0.5, 0.35)
}

func (r *Renderer) tokenImage(name string) image.Image {
	if name == "" || r.images == nil {
		return nil
	}
	if img, ok := r.imageCache[name]; ok {
		return img
	}
	img, err := r.images.LoadImage(name)
	if err != nil {
		r.logger.Debug("token image unavailable", slog.String("file", name), slog.Any("error", err))
		img = nil
	}
	r.imageCache[name] = img
	return img
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	ch, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(ch))
}
