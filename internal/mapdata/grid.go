package mapdata

import (
	"fmt"
	"math"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
	"inkmap/internal/shape"
)

// GridType selects the cell shape.
type GridType int

const (
	GridSquare GridType = iota
	GridHex
)

func (g GridType) String() string {
	switch g {
	case GridSquare:
		return "square"
	case GridHex:
		return "hex"
	default:
		return fmt.Sprintf("GridType(%d)", int(g))
	}
}

// hexRowHeight is the vertical distance between rows of unit-width,
// pointy-top hexes.
var hexRowHeight = math.Sqrt(3) / 2

// HexRadius is the circumradius of a unit-width hex cell in grid space.
var HexRadius = 1 / math.Sqrt(3)

// Grid is the map's cell grid. Grid space has cells of size one; Transform
// maps grid space to world space, so Transform.Zoom is the cell size in
// world units.
type Grid struct {
	Type      GridType
	Color     shape.Color
	Visible   bool
	Transform geom.CoordinateTransformer
}

// NewGrid returns a visible square grid aligned with world space.
func NewGrid() *Grid {
	return &Grid{
		Type:      GridSquare,
		Color:     shape.ColorBlack.WithAlpha(0x60),
		Visible:   true,
		Transform: geom.Identity(),
	}
}

// CellSize is the width of one cell in world units.
func (g *Grid) CellSize() float64 { return g.Transform.Zoom }

// GridToWorld maps a grid space point to world space.
func (g *Grid) GridToWorld(p geom.Point) geom.Point {
	return g.Transform.WorldSpaceToScreenSpace(p)
}

// WorldToGrid maps a world space point to grid space.
func (g *Grid) WorldToGrid(p geom.Point) geom.Point {
	return g.Transform.ScreenSpaceToWorldSpace(p)
}

// NearestSnapPoint returns the world position a token of the given diameter
// (in cells) dropped at world should snap to. On square grids, tokens of odd
// or fractional size snap to cell centers and even sized tokens to cell
// corners. On hex grids every token snaps to a cell center.
func (g *Grid) NearestSnapPoint(world geom.Point, tokenDiameter float64) geom.Point {
	p := g.WorldToGrid(world)
	var snapped geom.Point
	switch g.Type {
	case GridHex:
		snapped = nearestHexCenter(p)
	default:
		d := math.Round(tokenDiameter)
		if d >= 2 && math.Mod(d, 2) == 0 {
			snapped = geom.Pt(math.Round(p.X), math.Round(p.Y))
		} else {
			snapped = geom.Pt(math.Floor(p.X)+0.5, math.Floor(p.Y)+0.5)
		}
	}
	return g.GridToWorld(snapped)
}

// HexCenter returns the grid space center of the hex at column col, row row.
// Odd rows are shifted half a cell to the right.
func HexCenter(col, row int) geom.Point {
	x := float64(col)
	if row%2 != 0 {
		x += 0.5
	}
	return geom.Pt(x, float64(row)*hexRowHeight)
}

func nearestHexCenter(p geom.Point) geom.Point {
	row := int(math.Floor(p.Y / hexRowHeight))
	best := HexCenter(0, row)
	bestDist := math.Inf(1)
	for r := row - 1; r <= row+2; r++ {
		shift := 0.0
		if r%2 != 0 {
			shift = 0.5
		}
		c := int(math.Round(p.X - shift))
		for _, col := range [...]int{c - 1, c, c + 1} {
			center := HexCenter(col, r)
			if d := center.Distance(p); d < bestDist {
				best, bestDist = center, d
			}
		}
	}
	return best
}

func (g *Grid) Serialize(w *codec.Writer) error {
	if err := w.StartObject(); err != nil {
		return err
	}
	if err := w.WriteInt(int(g.Type)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(g.Color)); err != nil {
		return err
	}
	if err := w.WriteBool(g.Visible); err != nil {
		return err
	}
	if err := writeTransform(w, g.Transform); err != nil {
		return err
	}
	return w.EndObject()
}

func deserializeGrid(r *codec.Reader) (*Grid, error) {
	if err := r.ExpectObjectStart(); err != nil {
		return nil, err
	}
	kind, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	if kind != int(GridSquare) && kind != int(GridHex) {
		return nil, r.Fail(fmt.Sprint(kind), fmt.Errorf("%w: unknown grid type", codec.ErrFormat))
	}
	c, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	visible, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	t, err := readTransform(r)
	if err != nil {
		return nil, err
	}
	if err := r.ExpectObjectEnd(); err != nil {
		return nil, err
	}
	return &Grid{Type: GridType(kind), Color: shape.Color(c), Visible: visible, Transform: t}, nil
}

func writeTransform(w *codec.Writer, t geom.CoordinateTransformer) error {
	if err := w.StartObject(); err != nil {
		return err
	}
	if err := writePoint(w, t.Origin); err != nil {
		return err
	}
	if err := w.WriteFloat(t.Zoom); err != nil {
		return err
	}
	return w.EndObject()
}

func readTransform(r *codec.Reader) (geom.CoordinateTransformer, error) {
	var t geom.CoordinateTransformer
	if err := r.ExpectObjectStart(); err != nil {
		return t, err
	}
	origin, err := readPoint(r)
	if err != nil {
		return t, err
	}
	zoom, err := r.ReadFloat()
	if err != nil {
		return t, err
	}
	if zoom <= 0 || math.IsInf(zoom, 0) || math.IsNaN(zoom) {
		return t, r.Fail(fmt.Sprint(zoom), fmt.Errorf("%w: zoom must be positive", codec.ErrFormat))
	}
	if err := r.ExpectObjectEnd(); err != nil {
		return t, err
	}
	return geom.CoordinateTransformer{Origin: origin, Zoom: zoom}, nil
}
