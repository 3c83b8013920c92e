// Package export writes maps to vector document formats.
package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jung-kurt/gofpdf"
	"honnef.co/go/curve"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
	"inkmap/internal/render"
	"inkmap/internal/shape"
)

const mmPerPoint = 25.4 / 72

// PDFOptions controls PDF export. The zero value exports the GM view on an
// A4 page with 10mm margins.
type PDFOptions struct {
	View     render.View
	PageSize string
	// Margin in millimetres.
	Margin float64
	Grid   bool
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.PageSize == "" {
		o.PageSize = "A4"
	}
	if o.Margin <= 0 {
		o.Margin = 10
	}
	return o
}

// PDF writes the map's vector layers, and its tokens as labelled circles,
// to a single page scaled to fit. Fog of war is not applied; the player
// view leaves GM notes out.
func PDF(w io.Writer, m *mapdata.MapData, opts PDFOptions) error {
	opts = opts.withDefaults()

	bounds := m.BoundingRectangle()
	orientation := "P"
	if !bounds.IsEmpty() && bounds.Width() > bounds.Height() {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", opts.PageSize, "")
	pdf.SetTitle("inkmap", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	pw, ph := pdf.GetPageSize()
	t := render.FitTransform(bounds, int(pw), int(ph), opts.Margin)
	e := &pdfWriter{pdf: pdf, t: t}

	if opts.Grid && m.Grid.Visible {
		e.grid(m.Grid, bounds)
	}
	e.shapes(m.Background().Shapes())
	e.tokens(m.Tokens, m.Grid.CellSize())
	if opts.View == render.ViewGM {
		e.shapes(m.GMNotes().Shapes())
	}
	e.shapes(m.Annotations().Shapes())

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	t   geom.CoordinateTransformer
}

func (e *pdfWriter) setColor(c shape.Color) {
	n := c.NRGBA()
	e.pdf.SetDrawColor(int(n.R), int(n.G), int(n.B))
	e.pdf.SetFillColor(int(n.R), int(n.G), int(n.B))
	e.pdf.SetTextColor(int(n.R), int(n.G), int(n.B))
	e.pdf.SetAlpha(float64(n.A)/255, "Normal")
}

func (e *pdfWriter) shapes(shapes []shape.Shape) {
	for _, s := range shapes {
		if !s.IsValid() {
			continue
		}
		offset, _ := s.DrawOffset()
		e.setColor(s.Color())
		if t, ok := s.(*shape.Text); ok {
			e.text(t, offset)
			continue
		}
		style := "D"
		if s.IsFilled() {
			style = "F"
		} else {
			e.pdf.SetLineWidth(e.t.WorldSpaceToScreenSpaceScalar(s.StrokeWidth()))
		}
		e.path(s.Path(), offset, style)
	}
	e.pdf.SetAlpha(1, "Normal")
}

func (e *pdfWriter) path(p *geom.Path, offset geom.Point, style string) {
	screen := geom.Identity().Panned(offset).Compose(e.t).TransformPath(p)
	open := false
	for _, el := range screen.Elements() {
		switch el.Kind {
		case curve.MoveToKind:
			e.pdf.MoveTo(el.P0.X, el.P0.Y)
			open = true
		case curve.LineToKind:
			e.pdf.LineTo(el.P0.X, el.P0.Y)
		case curve.QuadToKind:
			e.pdf.CurveTo(el.P0.X, el.P0.Y, el.P1.X, el.P1.Y)
		case curve.CubicToKind:
			e.pdf.CurveBezierCubicTo(el.P0.X, el.P0.Y, el.P1.X, el.P1.Y, el.P2.X, el.P2.Y)
		case curve.ClosePathKind:
			e.pdf.ClosePath()
		}
	}
	if open {
		e.pdf.DrawPath(style)
	}
}

func (e *pdfWriter) text(t *shape.Text, offset geom.Point) {
	m := t.Metrics()
	size := e.t.WorldSpaceToScreenSpaceScalar(t.FontSize())
	e.pdf.SetFont("Courier", "", size/mmPerPoint)
	top := e.t.WorldSpaceToScreenSpace(t.Location().Add(offset))
	ascent := e.t.WorldSpaceToScreenSpaceScalar(m.Ascent)
	lineHeight := e.t.WorldSpaceToScreenSpaceScalar(m.LineHeight)
	for i, line := range t.Lines() {
		e.pdf.Text(top.X, top.Y+ascent+float64(i)*lineHeight, line)
	}
}

func (e *pdfWriter) tokens(tc *mapdata.TokenCollection, cell float64) {
	for _, tok := range tc.Tokens() {
		c := e.t.WorldSpaceToScreenSpace(tok.Location)
		r := e.t.WorldSpaceToScreenSpaceScalar(tok.Diameter * cell / 2)
		border := shape.ColorBlack
		if tok.HasBorderColor {
			border = tok.BorderColor
		}
		e.setColor(border)
		e.pdf.SetFillColor(0xdd, 0xdd, 0xdd)
		if tok.Bloodied {
			e.pdf.SetFillColor(0xe0, 0x80, 0x80)
		}
		e.pdf.SetLineWidth(math.Max(r/15, 0.1))
		e.pdf.Circle(c.X, c.Y, r, "FD")

		label := tok.Name
		if tok.Label != "" {
			label += " " + tok.Label
		}
		size := math.Max(r/2/mmPerPoint, 4)
		e.pdf.SetFont("Helvetica", "", size)
		e.pdf.SetTextColor(0, 0, 0)
		width := e.pdf.GetStringWidth(label)
		e.pdf.Text(c.X-width/2, c.Y+r+size*mmPerPoint, label)
	}
	e.pdf.SetAlpha(1, "Normal")
}

func (e *pdfWriter) grid(g *mapdata.Grid, bounds geom.BoundingRectangle) {
	if bounds.IsEmpty() || g.Type != mapdata.GridSquare {
		return
	}
	toPage := g.Transform.Compose(e.t)
	lo := g.WorldToGrid(geom.Pt(bounds.XMin, bounds.YMin))
	hi := g.WorldToGrid(geom.Pt(bounds.XMax, bounds.YMax))
	if (hi.X-lo.X)+(hi.Y-lo.Y) > 2000 {
		return
	}
	e.setColor(g.Color)
	e.pdf.SetLineWidth(0.1)
	for x := math.Floor(lo.X); x <= math.Ceil(hi.X); x++ {
		a := toPage.WorldSpaceToScreenSpace(geom.Pt(x, math.Floor(lo.Y)))
		b := toPage.WorldSpaceToScreenSpace(geom.Pt(x, math.Ceil(hi.Y)))
		e.pdf.Line(a.X, a.Y, b.X, b.Y)
	}
	for y := math.Floor(lo.Y); y <= math.Ceil(hi.Y); y++ {
		a := toPage.WorldSpaceToScreenSpace(geom.Pt(math.Floor(lo.X), y))
		b := toPage.WorldSpaceToScreenSpace(geom.Pt(math.Ceil(hi.X), y))
		e.pdf.Line(a.X, a.Y, b.X, b.Y)
	}
	e.pdf.SetAlpha(1, "Normal")
}

// PDFFile writes the PDF export of m to path.
func PDFFile(path string, m *mapdata.MapData, opts PDFOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := PDF(f, m, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
