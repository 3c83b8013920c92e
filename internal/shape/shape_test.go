package shape

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"honnef.co/go/curve"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

// geometry is a comparable summary of a shape.
type geometry struct {
	Kind   Kind
	Color  Color
	Width  float64
	Bounds [4]float64
	Points []geom.Point
	Radius float64
	Text   string
	Size   float64
}

func geometryOf(s Shape) geometry {
	b := s.BoundingRectangle()
	g := geometry{
		Kind:   s.Kind(),
		Color:  s.Color(),
		Width:  s.StrokeWidth(),
		Bounds: [4]float64{b.XMin, b.XMax, b.YMin, b.YMax},
	}
	switch v := s.(type) {
	case *FreehandLine:
		g.Points = v.Points()
	case *StraightLine:
		a, b := v.Endpoints()
		g.Points = []geom.Point{a, b}
	case *Circle:
		c, r := v.Center()
		g.Points, g.Radius = []geom.Point{c}, r
	case *Rectangle:
		a, b := v.Corners()
		g.Points = []geom.Point{a, b}
	case *Text:
		g.Points, g.Text, g.Size = []geom.Point{v.Location()}, v.Text(), v.FontSize()
	}
	return g
}

func geometries(shapes []Shape) []geometry {
	out := make([]geometry, len(shapes))
	for i, s := range shapes {
		out[i] = geometryOf(s)
	}
	return out
}

func straightSegments(t *testing.T, shapes []Shape) [][2]geom.Point {
	t.Helper()
	var out [][2]geom.Point
	for _, s := range shapes {
		l, ok := s.(*StraightLine)
		if !ok {
			t.Fatalf("got %T, want *StraightLine", s)
		}
		a, b := l.Endpoints()
		out = append(out, [2]geom.Point{a, b})
	}
	return out
}

func TestFreehandBoundsHoldEveryPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewFreehandLine(ColorBlack, 0.1)
	for range 500 {
		p := geom.Pt(rng.NormFloat64()*50, rng.NormFloat64()*50)
		l.AddPoint(p)
		for _, q := range l.Points() {
			if !l.BoundingRectangle().Contains(q) {
				t.Fatalf("%v outside bounds %+v", q, l.BoundingRectangle())
			}
		}
	}
}

func TestStraightLineEraseMiddle(t *testing.T) {
	l := NewStraightLineBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(10, 0))
	l.Erase(geom.Pt(5, 0), 2)
	if !l.NeedsOptimization() {
		t.Fatal("line should need optimization")
	}
	diff(t, [][2]float64{{0, 0.3}, {0.7, 1}}, l.DrawnIntervals(), approx)

	got := straightSegments(t, l.RemoveErasedPoints())
	want := [][2]geom.Point{
		{geom.Pt(0, 0), geom.Pt(3, 0)},
		{geom.Pt(7, 0), geom.Pt(10, 0)},
	}
	diff(t, want, got, approx)
}

func TestStraightLineEraseIntervals(t *testing.T) {
	tests := []struct {
		name    string
		erasers []geom.Point
		radius  float64
		want    [][2]float64
	}{
		{"untouched", []geom.Point{geom.Pt(5, 5)}, 1, [][2]float64{{0, 1}}},
		{"start", []geom.Point{geom.Pt(0, 0)}, 1, [][2]float64{{0.1, 1}}},
		{"end", []geom.Point{geom.Pt(10, 0)}, 1, [][2]float64{{0, 0.9}}},
		{"everything", []geom.Point{geom.Pt(5, 0)}, 6, [][2]float64{}},
		{"two holes", []geom.Point{geom.Pt(3, 0), geom.Pt(7, 0)}, 1, [][2]float64{{0, 0.2}, {0.4, 0.6}, {0.8, 1}}},
		{"overlapping holes merge", []geom.Point{geom.Pt(4, 0), geom.Pt(5, 0)}, 1, [][2]float64{{0, 0.3}, {0.6, 1}}},
		{"hole inside hole", []geom.Point{geom.Pt(5, 0), geom.Pt(5, 0.5)}, 2, [][2]float64{{0, 0.3}, {0.7, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewStraightLineBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(10, 0))
			for _, c := range tt.erasers {
				l.Erase(c, tt.radius)
			}
			diff(t, tt.want, l.DrawnIntervals(), approx)
		})
	}
}

func TestStraightLineEverythingErased(t *testing.T) {
	l := NewStraightLineBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(1, 1))
	l.Erase(geom.Pt(0.5, 0.5), 5)
	if got := l.RemoveErasedPoints(); len(got) != 0 {
		t.Errorf("got %d shapes, want none", len(got))
	}
}

func TestFreehandEraseSplitsWithoutRemainders(t *testing.T) {
	l := NewFreehandLineFrom(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(2, 0), geom.Pt(3, 0))
	l.Erase(geom.Pt(1.5, 0), 0.6)

	out := l.RemoveErasedPoints()
	if len(out) != 2 {
		t.Fatalf("got %d shapes, want 2: %+v", len(out), geometries(out))
	}
	for _, s := range out {
		if !s.IsValid() {
			t.Errorf("invalid remainder %+v", geometryOf(s))
		}
		b := s.BoundingRectangle()
		if b.XMax > 0.9+1e-9 && b.XMin < 2.1-1e-9 {
			t.Errorf("remainder %+v reaches into the erased span", geometryOf(s))
		}
	}
	diff(t, [][2]geom.Point{
		{geom.Pt(0, 0), geom.Pt(0.9, 0)},
		{geom.Pt(2.1, 0), geom.Pt(3, 0)},
	}, straightSegments(t, out), approx)
}

func TestFreehandEraseKeepsUntouchedRuns(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(2, 0), geom.Pt(3, 0), geom.Pt(4, 0), geom.Pt(5, 0)}
	l := NewFreehandLineFrom(ColorRed, 0.2, pts...)
	l.Erase(geom.Pt(2.5, 0), 0.1)

	out := l.RemoveErasedPoints()
	var freehand []geometry
	var straight int
	for _, s := range out {
		switch s.Kind() {
		case KindFreehand:
			freehand = append(freehand, geometryOf(s))
		case KindStraight:
			straight++
		}
	}
	if len(freehand) != 2 {
		t.Fatalf("got %d freehand runs, want 2", len(freehand))
	}
	diff(t, pts[:3], freehand[0].Points)
	diff(t, pts[3:], freehand[1].Points)
	if straight != 2 {
		t.Errorf("got %d straight fragments, want 2", straight)
	}
	for _, s := range out {
		if s.Color() != ColorRed || s.StrokeWidth() != 0.2 {
			t.Errorf("replacement lost its style: %+v", geometryOf(s))
		}
	}
}

func TestFreehandOptimizeUntouchedReturnsItself(t *testing.T) {
	l := NewFreehandLineFrom(ColorBlue, 0.5, geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 0))
	l.Erase(geom.Pt(100, 100), 1)
	if l.NeedsOptimization() {
		t.Fatal("distant erase should not need optimization")
	}
	out := l.RemoveErasedPoints()
	if len(out) != 1 || out[0] != Shape(l) {
		t.Fatalf("got %+v, want the line itself", geometries(out))
	}
}

func TestEraseIsIdempotent(t *testing.T) {
	makers := map[string]func() Shape{
		"freehand": func() Shape {
			return NewFreehandLineFrom(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(1, 0.5), geom.Pt(2, 0), geom.Pt(3, 1))
		},
		"straight": func() Shape { return NewStraightLineBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(3, 1)) },
		"circle":   func() Shape { return NewCircleAt(ColorBlack, 0.1, geom.Pt(1.5, 0.5), 1) },
		"rectangle": func() Shape {
			return NewRectangleBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(3, 1))
		},
		"text": func() Shape { return NewText("label", 0.5, geom.Pt(1, 0), ColorBlack, 0.1) },
	}
	center, radius := geom.Pt(1.2, 0.3), 0.4
	for name, mk := range makers {
		t.Run(name, func(t *testing.T) {
			once, twice := mk(), mk()
			once.Erase(center, radius)
			twice.Erase(center, radius)
			twice.Erase(center, radius)
			if once.NeedsOptimization() != twice.NeedsOptimization() {
				t.Fatalf("NeedsOptimization differs: %v vs %v", once.NeedsOptimization(), twice.NeedsOptimization())
			}
			diff(t, geometries(once.RemoveErasedPoints()), geometries(twice.RemoveErasedPoints()), approx)
		})
	}
}

func TestCircleEraseMaterializesPolygon(t *testing.T) {
	c := NewCircleAt(ColorBlack, 0.1, geom.Pt(0, 0), 5)

	// Inside the disk but away from the outline.
	c.Erase(geom.Pt(0, 0), 1)
	if c.NeedsOptimization() {
		t.Fatal("erasing the interior should leave the outline intact")
	}
	if out := c.RemoveErasedPoints(); len(out) != 1 || out[0] != Shape(c) {
		t.Fatal("untouched circle should survive as itself")
	}

	c.Erase(geom.Pt(5, 0), 0.5)
	if !c.NeedsOptimization() {
		t.Fatal("erasing the outline should need optimization")
	}
	out := c.RemoveErasedPoints()
	if len(out) == 0 {
		t.Fatal("most of the outline should survive")
	}
	for _, s := range out {
		if s.Kind() == KindCircle {
			t.Fatal("an erased circle must be replaced by lines")
		}
		for _, p := range geometryOf(s).Points {
			if p.Distance(geom.Pt(5, 0)) < 0.5-1e-9 {
				t.Errorf("point %v survived inside the eraser", p)
			}
		}
	}

	c.ResetErasure()
	if c.NeedsOptimization() {
		t.Error("ResetErasure should restore the circle")
	}
	p := c.Path()
	if p.Elements()[1].Kind != curve.CubicToKind || p.Winding(geom.Pt(0, 0)) == 0 {
		t.Errorf("restored circle should render as a circle, got %v", p.Elements())
	}
}

func TestCircleIncomplete(t *testing.T) {
	c := NewCircle(ColorBlack, 0.1)
	c.AddPoint(geom.Pt(1, 1))
	if c.IsValid() || c.ShouldSerialize() {
		t.Fatal("single point circle must not be valid")
	}
	if _, r := c.Center(); !math.IsNaN(r) {
		t.Errorf("radius = %v before the second point, want NaN", r)
	}
	c.Erase(geom.Pt(1, 1), 10)
	if c.NeedsOptimization() {
		t.Error("erasing an incomplete circle should do nothing")
	}
	c.AddPoint(geom.Pt(3, 1))
	if ctr, r := c.Center(); ctr != geom.Pt(2, 1) || r != 1 {
		t.Errorf("Center() = %v, %v", ctr, r)
	}
}

func TestRectangleEraseCorner(t *testing.T) {
	r := NewRectangleBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(4, 2))
	r.Erase(geom.Pt(0, 0), 0.5)
	out := r.RemoveErasedPoints()
	var total int
	for _, s := range out {
		if s.Kind() == KindRectangle {
			t.Fatal("erased rectangle must be replaced by lines")
		}
		total++
	}
	// One polyline through the three untouched corners plus two fragments.
	if total != 3 {
		t.Errorf("got %d shapes, want 3: %+v", total, geometries(out))
	}
}

func TestTextEraseAllOrNothing(t *testing.T) {
	txt := NewText("Goblin camp", 1, geom.Pt(0, 0), ColorBlack, 0.1)
	b := txt.BoundingRectangle()
	if b.Width() <= 0 || b.Height() <= 0 {
		t.Fatalf("text bounds %+v should have area", b)
	}
	txt.Erase(geom.Pt(b.XMax+2, b.YMax+2), 1)
	if out := txt.RemoveErasedPoints(); len(out) != 1 {
		t.Fatal("distant eraser should keep the text")
	}
	txt.Erase(geom.Pt(b.XMax+0.5, b.YMin), 0.6)
	if out := txt.RemoveErasedPoints(); len(out) != 0 {
		t.Fatal("touching the box should delete the text")
	}
}

func TestTextMetricsScale(t *testing.T) {
	small := MeasureText("abc", 1)
	big := MeasureText("abc", 2)
	diff(t, small.Width*2, big.Width, cmpopts.EquateApprox(1e-9, 0))
	two := MeasureText("abc\nde", 1)
	if two.Lines != 2 || two.Height() <= small.Height() {
		t.Errorf("multi-line metrics %+v vs %+v", two, small)
	}
}

func TestContains(t *testing.T) {
	triangle := NewFreehandLineFrom(ColorBlack, Filled, geom.Pt(0, 0), geom.Pt(4, 0), geom.Pt(0, 4), geom.Pt(0, 0))
	tests := []struct {
		name  string
		shape Shape
		in    geom.Point
		out   geom.Point
	}{
		{"freehand polygon", triangle, geom.Pt(1, 1), geom.Pt(3, 3)},
		{"concave freehand", NewFreehandLineFrom(ColorBlack, Filled,
			geom.Pt(0, 0), geom.Pt(3, 0), geom.Pt(3, 3), geom.Pt(2, 3), geom.Pt(2, 1), geom.Pt(1, 1), geom.Pt(1, 3), geom.Pt(0, 3)),
			geom.Pt(0.5, 2), geom.Pt(1.5, 2)},
		{"straight line", NewStraightLineBetween(ColorBlack, 1, geom.Pt(0, 0), geom.Pt(10, 0)), geom.Pt(5, 0.4), geom.Pt(5, 0.6)},
		{"rectangle", NewRectangleBetween(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(2, 2)), geom.Pt(1, 1), geom.Pt(3, 1)},
		{"circle", NewCircleAt(ColorBlack, 0.1, geom.Pt(0, 0), 1), geom.Pt(0.5, 0.5), geom.Pt(0.8, 0.8)},
		{"text", NewText("x", 1, geom.Pt(0, 0), ColorBlack, 0.1), geom.Pt(0.1, 0.1), geom.Pt(-1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.shape.Contains(tt.in) {
				t.Errorf("should contain %v", tt.in)
			}
			if tt.shape.Contains(tt.out) {
				t.Errorf("should not contain %v", tt.out)
			}
		})
	}
}

func TestStraightLineContainsSkipsErasedGap(t *testing.T) {
	l := NewStraightLineBetween(ColorBlack, 0.5, geom.Pt(0, 0), geom.Pt(10, 0))
	l.Erase(geom.Pt(5, 0), 1)
	if l.Contains(geom.Pt(5, 0)) {
		t.Error("erased gap should not be hit")
	}
	if !l.Contains(geom.Pt(3.9, 0.2)) || !l.Contains(geom.Pt(6.1, -0.2)) {
		t.Error("surviving pieces should still be hit")
	}
	var pieces [][2]geom.Point
	for _, s := range l.RemoveErasedPoints() {
		a, b := s.(*StraightLine).Endpoints()
		pieces = append(pieces, [2]geom.Point{a, b})
	}
	diff(t, [][2]geom.Point{{geom.Pt(0, 0), geom.Pt(4, 0)}, {geom.Pt(6, 0), geom.Pt(10, 0)}}, pieces, approx)
}

func TestPathInvalidatedByErase(t *testing.T) {
	l := NewFreehandLineFrom(ColorBlack, 0.1, geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(2, 0))
	before := len(l.Path().Elements())
	l.Erase(geom.Pt(1.5, 0), 0.1)
	after := l.Path()
	if len(after.Elements()) == before {
		t.Fatalf("path was not rebuilt after erase: %+v", after.Elements())
	}
	l.AddPoint(geom.Pt(3, 0))
	if l.Path() == after {
		t.Error("AddPoint should invalidate the cached path")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	in := []Shape{
		NewFreehandLineFrom(0x80112233, 0.25, geom.Pt(0, 0), geom.Pt(1.5, -2), geom.Pt(3.25, 4)),
		NewStraightLineBetween(ColorRed, 0.1, geom.Pt(-1, -1), geom.Pt(2, 3)),
		NewCircleAt(ColorGreen, Filled, geom.Pt(0.3, 0.7), 1.1),
		NewRectangleBetween(ColorBlue, 2, geom.Pt(5, 5), geom.Pt(1, 2)),
		NewText("two\nlines \"quoted\"", 0.75, geom.Pt(2, 2), ColorBlack, 0.1),
	}
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	for _, s := range in {
		if err := Serialize(w, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := codec.NewReader(&buf)
	var out []Shape
	for range in {
		s, err := Deserialize(r)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, s)
	}
	diff(t, geometries(in), geometries(out), approx)
}

func TestDeserializeUnknownTag(t *testing.T) {
	input := strings.Join([]string{"{", `"blob"`, "4278190080", "1", "0", "1", "0", "1", "}"}, "\n")
	_, err := Deserialize(codec.NewReader(strings.NewReader(input)))
	if !errors.Is(err, ErrUnknownShape) || !errors.Is(err, codec.ErrFormat) {
		t.Fatalf("got %v, want ErrUnknownShape", err)
	}
}

func TestDeserializeTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	Serialize(w, NewStraightLineBetween(ColorBlack, 1, geom.Pt(0, 0), geom.Pt(1, 1)))
	w.Flush()
	truncated := buf.String()[:buf.Len()/2]
	_, err := Deserialize(codec.NewReader(strings.NewReader(truncated)))
	if !errors.Is(err, codec.ErrFormat) {
		t.Fatalf("got %v, want a format error", err)
	}
}

func TestDeserializeStaleBounds(t *testing.T) {
	// Stored bounds of 0,0,0,0 do not cover the point at (10, 0).
	input := strings.Join([]string{
		"{", `"fh"`, "4278190080", "0.1",
		"0", "0", "0", "0",
		"[", "0", "0", "10", "0", "]",
		"}",
	}, "\n")
	s, err := Deserialize(codec.NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}
	if !s.BoundingRectangle().Contains(geom.Pt(10, 0)) {
		t.Fatalf("bounds %+v do not hold the line's points", s.BoundingRectangle())
	}
	s.Erase(geom.Pt(5, 0), 1)
	if !s.NeedsOptimization() {
		t.Error("erasing the middle of a restored line should split it")
	}
}

func TestDeserializeTextKeepsStoredBounds(t *testing.T) {
	input := strings.Join([]string{
		"{", `"txt"`, "4278190080", "0.1",
		"1", "9", "2", "4",
		`"hi"`, "0.5", "1", "2",
		"}",
	}, "\n")
	s, err := Deserialize(codec.NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}
	diff(t, geom.RectFromBounds(1, 9, 2, 4), s.BoundingRectangle(), cmp.AllowUnexported(geom.BoundingRectangle{}))
}

func TestTranslated(t *testing.T) {
	r := NewRectangleBetween(ColorBlack, 1, geom.Pt(0, 0), geom.Pt(2, 2))
	moved := r.Translated(geom.Pt(1, -1))
	diff(t, []geom.Point{geom.Pt(1, -1), geom.Pt(3, 1)}, geometryOf(moved).Points)
	if moved == Shape(r) {
		t.Error("Translated must return a new shape")
	}
}

func TestColor(t *testing.T) {
	c := Color(0x80ff0000)
	n := c.NRGBA()
	if n.R != 0xff || n.A != 0x80 || n.G != 0 {
		t.Errorf("NRGBA() = %+v", n)
	}
	if got := ColorOf(n); got != c {
		t.Errorf("ColorOf round trip = %x, want %x", got, c)
	}
	if got := c.WithAlpha(0xff); got != ColorRed {
		t.Errorf("WithAlpha = %x", got)
	}
}
