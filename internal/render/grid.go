package render

import (
	"math"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
)

// maxGridLines bounds the work for a grid zoomed far out.
const maxGridLines = 4000

// DrawGrid strokes the cells of g that are visible in the context.
func (r *Renderer) DrawGrid(g *mapdata.Grid) {
	if g == nil || !g.Visible {
		return
	}
	toScreen := g.Transform.Compose(r.transform)
	if toScreen.Zoom <= 0 {
		return
	}
	w, h := float64(r.dc.Width()), float64(r.dc.Height())
	view := geom.NewBoundingRectangle(
		toScreen.ScreenSpaceToWorldSpace(geom.Pt(0, 0)),
		toScreen.ScreenSpaceToWorldSpace(geom.Pt(w, h)),
	)

	r.dc.SetColor(g.Color)
	r.dc.SetLineWidth(1)
	switch g.Type {
	case mapdata.GridHex:
		r.hexGrid(toScreen, view)
	default:
		r.squareGrid(toScreen, view, w, h)
	}
	r.dc.Stroke()
}

func (r *Renderer) squareGrid(toScreen geom.CoordinateTransformer, view geom.BoundingRectangle, w, h float64) {
	x0, x1 := math.Floor(view.XMin), math.Ceil(view.XMax)
	y0, y1 := math.Floor(view.YMin), math.Ceil(view.YMax)
	if (x1-x0)+(y1-y0) > maxGridLines {
		return
	}
	for x := x0; x <= x1; x++ {
		sx := toScreen.WorldSpaceToScreenSpace(geom.Pt(x, 0)).X
		r.dc.MoveTo(sx, 0)
		r.dc.LineTo(sx, h)
	}
	for y := y0; y <= y1; y++ {
		sy := toScreen.WorldSpaceToScreenSpace(geom.Pt(0, y)).Y
		r.dc.MoveTo(0, sy)
		r.dc.LineTo(w, sy)
	}
}

func (r *Renderer) hexGrid(toScreen geom.CoordinateTransformer, view geom.BoundingRectangle) {
	rowHeight := mapdata.HexCenter(0, 1).Y
	row0 := int(math.Floor(view.YMin/rowHeight)) - 1
	row1 := int(math.Ceil(view.YMax/rowHeight)) + 1
	col0 := int(math.Floor(view.XMin)) - 1
	col1 := int(math.Ceil(view.XMax)) + 1
	if (row1-row0)*(col1-col0) > maxGridLines*4 {
		return
	}
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			c := mapdata.HexCenter(col, row)
			for i := 0; i <= 6; i++ {
				// Pointy-top: the first vertex is straight up.
				a := math.Pi/2 + float64(i)*math.Pi/3
				p := toScreen.WorldSpaceToScreenSpace(geom.Pt(
					c.X+mapdata.HexRadius*math.Cos(a),
					c.Y-mapdata.HexRadius*math.Sin(a),
				))
				if i == 0 {
					r.dc.MoveTo(p.X, p.Y)
				} else {
					r.dc.LineTo(p.X, p.Y)
				}
			}
		}
	}
}
