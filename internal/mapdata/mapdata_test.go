package mapdata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
	"inkmap/internal/shape"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func freehand(lc *LineCollection, width float64, points ...geom.Point) *shape.FreehandLine {
	l := lc.CreateFreehandLine(shape.ColorBlack, width)
	for _, p := range points {
		l.AddPoint(p)
	}
	return l
}

func sameShapes(t *testing.T, want, got []shape.Shape) {
	t.Helper()
	if !slices.Equal(want, got) {
		t.Errorf("layer holds %d shapes %v, want %d %v", len(got), kinds(got), len(want), kinds(want))
	}
}

func kinds(shapes []shape.Shape) []string {
	var out []string
	for _, s := range shapes {
		out = append(out, s.Kind().String())
	}
	return out
}

func TestUndoRedoRestoresEveryState(t *testing.T) {
	lc := NewLineCollection(nil)
	states := [][]shape.Shape{slices.Clone(lc.Shapes())}
	record := func() { states = append(states, slices.Clone(lc.Shapes())) }

	a := freehand(lc, 0.1, geom.Pt(0, 0), geom.Pt(4, 0))
	record()
	lc.CreateCircle(shape.ColorRed, 2).AddPoint(geom.Pt(1, 1))
	record()
	lc.DeleteShape(a)
	record()
	b := freehand(lc, 0.5, geom.Pt(0, 2), geom.Pt(4, 2))
	record()
	lc.Erase(geom.Pt(2, 2), 0.5)
	lc.Optimize()
	record()
	if slices.Contains(lc.Shapes(), shape.Shape(b)) {
		t.Fatal("erase should have replaced b")
	}
	piece := lc.Shapes()[1]
	piece.SetDrawOffset(geom.Pt(1, 1))
	lc.CommitDrawOffset(piece)
	record()

	for i := len(states) - 2; i >= 0; i-- {
		if !lc.Undo() {
			t.Fatalf("undo %d failed", i)
		}
		sameShapes(t, states[i], lc.Shapes())
	}
	if lc.Undo() {
		t.Error("undo past the start should report false")
	}
	for i := 1; i < len(states); i++ {
		if !lc.Redo() {
			t.Fatalf("redo %d failed", i)
		}
		sameShapes(t, states[i], lc.Shapes())
	}
	if lc.History().CanRedo() {
		t.Error("redo stack should be exhausted")
	}
}

func TestNewCommandClearsRedo(t *testing.T) {
	lc := NewLineCollection(nil)
	a := lc.CreateStraightLine(shape.ColorBlack, 0.1)
	b := lc.CreateRectangle(shape.ColorBlack, 0.1)
	lc.Undo()
	sameShapes(t, []shape.Shape{a}, lc.Shapes())
	if !lc.History().CanRedo() {
		t.Fatal("expected a redo entry after undo")
	}
	c := lc.CreateCircle(shape.ColorBlack, 0.1)
	if lc.History().CanRedo() {
		t.Error("executing a command should clear redo")
	}
	sameShapes(t, []shape.Shape{a, c}, lc.Shapes())
	if slices.Contains(lc.Shapes(), shape.Shape(b)) {
		t.Error("undone shape came back")
	}
}

func TestNoopCommandsAreNotRecorded(t *testing.T) {
	lc := NewLineCollection(nil)
	lc.DeleteShape(shape.NewStraightLine(shape.ColorBlack, 1))
	lc.Optimize()
	if lc.History().CanUndo() {
		t.Error("no-op commands should not be recorded")
	}
}

func TestEraseThenOptimizeUndoesToPristineShape(t *testing.T) {
	lc := NewLineCollection(nil)
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(2, 0), geom.Pt(3, 0), geom.Pt(4, 0)}
	l := freehand(lc, 0.1, pts...)
	pristine := len(l.Path().Elements())

	for _, x := range []float64{1.8, 2, 2.2} {
		lc.Erase(geom.Pt(x, 0), 0.25)
	}
	if !lc.NeedsOptimization() {
		t.Fatal("erase should leave work for Optimize")
	}
	lc.Optimize()
	if slices.Contains(lc.Shapes(), shape.Shape(l)) {
		t.Fatal("erased line should have been replaced")
	}
	for _, s := range lc.Shapes() {
		if s.Contains(geom.Pt(2, 0)) {
			t.Errorf("%v still covers the erased point", s.Kind())
		}
	}

	lc.Undo()
	sameShapes(t, []shape.Shape{l}, lc.Shapes())
	if l.NeedsOptimization() {
		t.Error("restored line still carries erasure")
	}
	diff(t, pts, l.Points())
	diff(t, pristine, len(l.Path().Elements()))

	lc.Redo()
	if slices.Contains(lc.Shapes(), shape.Shape(l)) {
		t.Error("redo should replace the line again")
	}
}

func TestOptimizeIsOneCommandPerGesture(t *testing.T) {
	lc := NewLineCollection(nil)
	freehand(lc, 0.1, geom.Pt(0, 0), geom.Pt(4, 0))
	freehand(lc, 0.1, geom.Pt(0, 1), geom.Pt(4, 1))
	lc.Erase(geom.Pt(2, 0.5), 0.75)
	lc.Optimize()
	if got := lc.Len(); got != 4 {
		t.Fatalf("got %d shapes after erasing across two lines, want 4", got)
	}
	lc.Undo()
	if got := lc.Len(); got != 2 {
		t.Errorf("one undo should restore both lines, have %d shapes", got)
	}
}

func TestInsertKeepsDescendingWidth(t *testing.T) {
	lc := NewLineCollection(nil)
	thin := lc.CreateStraightLine(shape.ColorBlack, 0.1)
	fill := lc.CreateRectangle(shape.ColorBlack, shape.Filled)
	wide := lc.CreateFreehandLine(shape.ColorBlack, 3)
	thin2 := lc.CreateCircle(shape.ColorBlack, 0.1)
	sameShapes(t, []shape.Shape{fill, wide, thin, thin2}, lc.Shapes())
}

func TestBelowAndAboveGrid(t *testing.T) {
	lc := NewLineCollection(nil)
	wide := freehand(lc, 3, geom.Pt(0, 0), geom.Pt(1, 1))
	thin := freehand(lc, 0.1, geom.Pt(0, 0), geom.Pt(1, 1))
	freehand(lc, 0.1, geom.Pt(5, 5)) // still being drawn
	sameShapes(t, []shape.Shape{wide}, lc.BelowGrid())
	sameShapes(t, []shape.Shape{thin}, lc.AboveGrid())
}

func TestFindShape(t *testing.T) {
	lc := NewLineCollection(nil)
	rect := lc.CreateRectangle(shape.ColorBlack, 0.1)
	rect.AddPoint(geom.Pt(0, 0))
	rect.AddPoint(geom.Pt(4, 4))
	circle := lc.CreateCircle(shape.ColorBlack, 0.1)
	circle.AddPoint(geom.Pt(1, 1))
	circle.AddPoint(geom.Pt(3, 3))

	if got := lc.FindShape(geom.Pt(2, 2)); got != shape.Shape(circle) {
		t.Errorf("got %v, want the topmost circle", got)
	}
	if got := lc.FindShape(geom.Pt(2, 2), shape.KindRectangle); got != shape.Shape(rect) {
		t.Errorf("got %v, want the rectangle", got)
	}
	if got := lc.FindShape(geom.Pt(10, 10)); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestCommitDrawOffset(t *testing.T) {
	lc := NewLineCollection(nil)
	l := freehand(lc, 0.1, geom.Pt(0, 0), geom.Pt(1, 0))
	l.SetDrawOffset(geom.Pt(2, 3))
	diff(t, geom.RectFromBounds(2, 3, 3, 3), lc.BoundingRectangle(), cmp.AllowUnexported(geom.BoundingRectangle{}))

	moved := lc.CommitDrawOffset(l)
	if _, ok := l.DrawOffset(); ok {
		t.Error("offset should be cleared")
	}
	diff(t, []geom.Point{geom.Pt(2, 3), geom.Pt(3, 3)}, moved.(*shape.FreehandLine).Points())
	sameShapes(t, []shape.Shape{moved}, lc.Shapes())

	lc.Undo()
	sameShapes(t, []shape.Shape{l}, lc.Shapes())
}

func TestEditText(t *testing.T) {
	lc := NewLineCollection(nil)
	label := lc.CreateText("Cave", 1, geom.Pt(0, 0), shape.ColorBlack, 0.1)

	edited := lc.EditText(label, "Dragon cave", 2)
	sameShapes(t, []shape.Shape{edited}, lc.Shapes())
	diff(t, "Dragon cave", edited.Text())

	if got := lc.EditText(edited, "  ", 2); got != nil {
		t.Errorf("blank text should delete the label, got %v", got)
	}
	if !lc.IsEmpty() {
		t.Error("layer should be empty")
	}
	lc.Undo()
	lc.Undo()
	sameShapes(t, []shape.Shape{label}, lc.Shapes())
}

func TestTokenCheckpointCommit(t *testing.T) {
	tc := NewTokenCollection(nil)
	orc := NewToken("Orc", "orc.png", geom.Pt(0.5, 0.5))
	tc.AddToken(orc)

	tc.Checkpoint(orc)
	orc.Location = geom.Pt(3.5, 2.5)
	orc.Bloodied = true
	tc.Commit()

	tc.Undo()
	diff(t, geom.Pt(0.5, 0.5), orc.Location)
	diff(t, false, orc.Bloodied)
	tc.Redo()
	diff(t, geom.Pt(3.5, 2.5), orc.Location)
	diff(t, true, orc.Bloodied)

	tc.Undo()
	tc.Undo()
	if !tc.IsEmpty() {
		t.Error("undoing the add should remove the token")
	}
}

func TestTokenCommitWithoutChangesIsNotRecorded(t *testing.T) {
	tc := NewTokenCollection(nil)
	tc.AddToken(NewToken("Orc", "", geom.Pt(0, 0)))
	tc.History().Clear()
	tc.Checkpoint(tc.Tokens()...)
	tc.Commit()
	if tc.History().CanUndo() {
		t.Error("unchanged tokens should not produce a command")
	}
}

func TestTokenCommitWithoutCheckpointPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	NewTokenCollection(nil).Commit()
}

func TestFindToken(t *testing.T) {
	tc := NewTokenCollection(nil)
	small := NewToken("Goblin", "", geom.Pt(1, 1))
	big := NewToken("Ogre", "", geom.Pt(1.5, 1.5))
	big.Diameter = 2
	tc.AddToken(small)
	tc.AddToken(big)

	if got := tc.FindToken(geom.Pt(1, 1), 1); got != big {
		t.Errorf("got %v, want the topmost token", got)
	}
	tc.RemoveTokens(big)
	if got := tc.FindToken(geom.Pt(1, 1), 1); got != small {
		t.Errorf("got %v, want the goblin", got)
	}
	if got := tc.FindToken(geom.Pt(5, 5), 1); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestBackgroundAndFogShareHistory(t *testing.T) {
	m := New()
	freehand(m.Background(), 0.1, geom.Pt(0, 0), geom.Pt(1, 1))
	freehand(m.BackgroundFogOfWar(), shape.Filled, geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(1, 1))
	freehand(m.GMNotes(), 0.1, geom.Pt(0, 0), geom.Pt(1, 1))

	m.Background().Undo()
	if !m.BackgroundFogOfWar().IsEmpty() {
		t.Error("first undo on the background should revert the fog stroke")
	}
	m.Background().Undo()
	if !m.Background().IsEmpty() {
		t.Error("second undo should revert the background stroke")
	}
	if m.GMNotes().IsEmpty() {
		t.Error("gm notes have their own history")
	}
}

func TestHasData(t *testing.T) {
	m := New()
	if m.HasData() {
		t.Error("new map should have no data")
	}
	m.Tokens.AddToken(NewToken("Orc", "", geom.Pt(0, 0)))
	if !m.HasData() {
		t.Error("tokens alone count as data")
	}

	m = New()
	m.Annotations().CreateText("note", 1, geom.Pt(0, 0), shape.ColorBlack, 0.1)
	if !m.HasData() {
		t.Error("annotations alone count as data")
	}
}

func sampleMap() *MapData {
	m := New()
	m.Grid.Type = GridHex
	m.Grid.Transform = geom.NewCoordinateTransformer(0.25, -0.5, 2)
	m.WorldSpaceTransformer = geom.NewCoordinateTransformer(100, 50, 32)

	orc := NewToken("Orc \"chief\"", "tokens/orc.png", geom.Pt(1.5, 2.5))
	orc.HasBorderColor = true
	orc.BorderColor = shape.ColorRed
	orc.Label = "A"
	m.Tokens.AddToken(orc)

	freehand(m.Background(), 3, geom.Pt(0, 0), geom.Pt(2, 1), geom.Pt(4, 0))
	freehand(m.Background(), 0.1, geom.Pt(9, 9)) // in progress, never saved
	freehand(m.BackgroundFogOfWar(), shape.Filled, geom.Pt(0, 0), geom.Pt(8, 0), geom.Pt(8, 8), geom.Pt(0, 0))
	c := m.GMNotes().CreateCircle(shape.ColorBlue, 0.125)
	c.AddPoint(geom.Pt(1, 1))
	c.AddPoint(geom.Pt(3, 1))
	r := m.GMNotesFogOfWar().CreateRectangle(shape.ColorBlack, shape.Filled)
	r.AddPoint(geom.Pt(-1, -1))
	r.AddPoint(geom.Pt(1, 1))
	sl := m.Annotations().CreateStraightLine(shape.ColorGreen, 0.25)
	sl.AddPoint(geom.Pt(0, 5))
	sl.AddPoint(geom.Pt(5, 5))
	m.Annotations().CreateText("Here\nbe dragons", 0.5, geom.Pt(2, 6), shape.ColorBlack, 0.1)
	return m
}

func TestMapRoundTrip(t *testing.T) {
	m := sampleMap()
	var first bytes.Buffer
	if err := m.Serialize(&first); err != nil {
		t.Fatal(err)
	}

	got, err := Deserialize(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	diff(t, *m.Grid, *got.Grid)
	diff(t, m.WorldSpaceTransformer, got.WorldSpaceTransformer)
	diff(t, []Token{*m.Tokens.Tokens()[0]}, []Token{*got.Tokens.Tokens()[0]})
	diff(t, 1, got.Background().Len())
	for _, l := range Layers {
		if got.Layer(l).History().CanUndo() {
			t.Errorf("%s: loaded map should have no history", l)
		}
	}
	diff(t, m.BoundingRectangle(), got.BoundingRectangle(), approx, cmp.AllowUnexported(geom.BoundingRectangle{}))

	var second bytes.Buffer
	if err := got.Serialize(&second); err != nil {
		t.Fatal(err)
	}
	diff(t, first.String(), second.String())
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestSerializeReportsNestedWriteErrors(t *testing.T) {
	errBroken := errors.New("disk on fire")
	m := New()
	// Larger than the codec's write buffer, so the write fails while the
	// token is being written rather than at the final flush.
	m.Tokens.AddToken(NewToken(strings.Repeat("x", 8<<10), "", geom.Pt(0, 0)))

	err := m.Serialize(failingWriter{errBroken})
	if !errors.Is(err, errBroken) {
		t.Fatalf("got %v, want %v", err, errBroken)
	}
	if !strings.Contains(err.Error(), "serialize tokens") {
		t.Errorf("error %q should name the tokens as the failing part", err)
	}
}

func TestGridSerializeStopsAtUnbalancedWriter(t *testing.T) {
	w := codec.NewWriter(io.Discard)
	w.EndObject()
	if err := NewGrid().Serialize(w); !errors.Is(err, codec.ErrUnbalanced) {
		t.Errorf("Grid.Serialize() = %v, want ErrUnbalanced", err)
	}
	if err := New().Tokens.Serialize(w); !errors.Is(err, codec.ErrUnbalanced) {
		t.Errorf("TokenCollection.Serialize() = %v, want ErrUnbalanced", err)
	}
}

func TestDefaultLoggerDiscards(t *testing.T) {
	o := buildOptions([]Option{WithLogger(nil)})
	if o.logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should discard every record")
	}
}

func TestDeserializeErrors(t *testing.T) {
	var good bytes.Buffer
	if err := sampleMap().Serialize(&good); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(good.String(), "\n")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", codec.ErrUnexpectedEOF},
		{"future version", "2\n" + strings.Join(lines[1:], "\n"), ErrUnsupportedVersion},
		{"truncated", strings.Join(lines[:len(lines)/2], "\n"), codec.ErrUnexpectedEOF},
		{"garbage", "1\n{\nnot a number\n", codec.ErrUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if !IsFormatError(err) {
				t.Errorf("%v should be a format error", err)
			}
		})
	}
}

func TestSessionFailedLoadKeepsLiveMap(t *testing.T) {
	s := NewSession()
	freehand(s.Data().Background(), 0.1, geom.Pt(0, 0), geom.Pt(1, 1))
	live := s.Data()

	if err := s.Load(strings.NewReader("1\n{\n0\n")); err == nil {
		t.Fatal("expected an error")
	}
	if s.Data() != live || live.Background().Len() != 1 {
		t.Error("failed load replaced the live map")
	}

	var buf bytes.Buffer
	if err := sampleMap().Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(&buf); err != nil {
		t.Fatal(err)
	}
	if s.Data() == live {
		t.Error("successful load should swap the map")
	}
	diff(t, GridHex, s.Data().Grid.Type)
}

func TestNearestSnapPoint(t *testing.T) {
	square := NewGrid()
	square.Transform = geom.NewCoordinateTransformer(0, 0, 2)
	hex := NewGrid()
	hex.Type = GridHex

	tests := []struct {
		name     string
		grid     *Grid
		at       geom.Point
		diameter float64
		want     geom.Point
	}{
		{"square one cell", square, geom.Pt(2.9, 0.2), 1, geom.Pt(3, 1)},
		{"square half cell", square, geom.Pt(-0.5, 0.5), 0.5, geom.Pt(-1, 1)},
		{"square two cells", square, geom.Pt(2.9, 1.2), 2, geom.Pt(2, 2)},
		{"square three cells", square, geom.Pt(2.9, 1.2), 3, geom.Pt(3, 1)},
		{"hex origin", hex, geom.Pt(0.1, 0.1), 1, geom.Pt(0, 0)},
		{"hex odd row", hex, geom.Pt(0.45, 0.8), 1, HexCenter(0, 1)},
		{"hex negative", hex, geom.Pt(-1.1, -0.05), 1, geom.Pt(-1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff(t, tt.want, tt.grid.NearestSnapPoint(tt.at, tt.diameter), approx)
		})
	}
}
