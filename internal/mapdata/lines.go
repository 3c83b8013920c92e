package mapdata

import (
	"log/slog"
	"slices"
	"strings"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
	"inkmap/internal/shape"
)

// gridLayerWidth splits a layer around the grid: shapes wider than this are
// drawn below it, the rest above.
const gridLayerWidth = 1.0

// LineCollection is one layer of shapes, ordered by descending stroke width
// so that wide strokes and fills sit underneath thin ones. Every change goes
// through the layer's CommandHistory.
type LineCollection struct {
	shapes  []shape.Shape
	history *CommandHistory
	logger  *slog.Logger

	// erasing holds the shapes touched since the last Optimize.
	erasing []shape.Shape
}

// NewLineCollection returns an empty layer recording into history. Several
// layers may share a history, in which case they undo together.
func NewLineCollection(history *CommandHistory) *LineCollection {
	if history == nil {
		history = NewCommandHistory()
	}
	return &LineCollection{history: history, logger: slog.New(slog.DiscardHandler)}
}

func (lc *LineCollection) History() *CommandHistory { return lc.history }

// Shapes returns the layer contents in draw order. The slice must not be
// modified.
func (lc *LineCollection) Shapes() []shape.Shape { return lc.shapes }

func (lc *LineCollection) Len() int { return len(lc.shapes) }

func (lc *LineCollection) IsEmpty() bool { return len(lc.shapes) == 0 }

func (lc *LineCollection) Undo() bool { return lc.history.Undo() }
func (lc *LineCollection) Redo() bool { return lc.history.Redo() }

// insert places s before the first shape with a smaller stroke width, after
// any of equal width.
func (lc *LineCollection) insert(s shape.Shape) {
	i := len(lc.shapes)
	for j, o := range lc.shapes {
		if o.StrokeWidth() < s.StrokeWidth() {
			i = j
			break
		}
	}
	lc.shapes = slices.Insert(lc.shapes, i, s)
}

// insertAt puts s back at index i, or by width when i is out of range.
func (lc *LineCollection) insertAt(s shape.Shape, i int) {
	if i < 0 || i > len(lc.shapes) {
		lc.insert(s)
		return
	}
	lc.shapes = slices.Insert(lc.shapes, i, s)
}

// remove deletes s and returns the index it had, or -1.
func (lc *LineCollection) remove(s shape.Shape) int {
	i := slices.Index(lc.shapes, s)
	if i >= 0 {
		lc.shapes = slices.Delete(lc.shapes, i, i+1)
	}
	return i
}

func (lc *LineCollection) add(s shape.Shape) {
	lc.history.Execute(replaceShapesCommand(lc, nil, []shape.Shape{s}))
}

// CreateFreehandLine adds an empty freehand line to the layer and returns it
// so the caller can AddPoint as the pointer moves. The line is not drawn or
// saved until it has two points.
func (lc *LineCollection) CreateFreehandLine(c shape.Color, strokeWidth float64) *shape.FreehandLine {
	l := shape.NewFreehandLine(c, strokeWidth)
	lc.add(l)
	return l
}

func (lc *LineCollection) CreateStraightLine(c shape.Color, strokeWidth float64) *shape.StraightLine {
	l := shape.NewStraightLine(c, strokeWidth)
	lc.add(l)
	return l
}

func (lc *LineCollection) CreateCircle(c shape.Color, strokeWidth float64) *shape.Circle {
	s := shape.NewCircle(c, strokeWidth)
	lc.add(s)
	return s
}

func (lc *LineCollection) CreateRectangle(c shape.Color, strokeWidth float64) *shape.Rectangle {
	s := shape.NewRectangle(c, strokeWidth)
	lc.add(s)
	return s
}

// CreateText adds a text label with its top-left corner at location.
func (lc *LineCollection) CreateText(text string, size float64, location geom.Point, c shape.Color, strokeWidth float64) *shape.Text {
	t := shape.NewText(text, size, location, c, strokeWidth)
	lc.add(t)
	return t
}

// FindShape returns the topmost valid shape containing p, restricted to the
// given kinds when any are passed.
func (lc *LineCollection) FindShape(p geom.Point, kinds ...shape.Kind) shape.Shape {
	for i := len(lc.shapes) - 1; i >= 0; i-- {
		s := lc.shapes[i]
		if len(kinds) > 0 && !slices.Contains(kinds, s.Kind()) {
			continue
		}
		if s.IsValid() && s.Contains(p) {
			return s
		}
	}
	return nil
}

// DeleteShape removes s from the layer as one undoable step.
func (lc *LineCollection) DeleteShape(s shape.Shape) {
	if !slices.Contains(lc.shapes, s) {
		return
	}
	lc.history.Execute(replaceShapesCommand(lc, []shape.Shape{s}, nil))
}

// Erase marks everything within radius of center as erased. Nothing is
// removed until Optimize, so it can run on every pointer move.
func (lc *LineCollection) Erase(center geom.Point, radius float64) {
	for _, s := range lc.shapes {
		if !s.IsValid() || !s.BoundingRectangle().IntersectsWithCircle(center, radius) {
			continue
		}
		s.Erase(center, radius)
		if !slices.Contains(lc.erasing, s) {
			lc.erasing = append(lc.erasing, s)
		}
	}
}

// NeedsOptimization reports whether an erase gesture is waiting for Optimize.
func (lc *LineCollection) NeedsOptimization() bool {
	for _, s := range lc.erasing {
		if s.NeedsOptimization() {
			return true
		}
	}
	return false
}

// Optimize replaces every partially erased shape by what survives of it, as
// a single undoable command. The replaced shapes are restored to their drawn
// state so that undo brings them back whole.
func (lc *LineCollection) Optimize() {
	var deleted, created []shape.Shape
	for _, s := range lc.erasing {
		if !s.NeedsOptimization() || !slices.Contains(lc.shapes, s) {
			s.ResetErasure()
			continue
		}
		created = append(created, s.RemoveErasedPoints()...)
		deleted = append(deleted, s)
		s.ResetErasure()
	}
	lc.erasing = lc.erasing[:0]
	if len(deleted) == 0 {
		return
	}
	lc.logger.Debug("optimized erased shapes",
		slog.Int("replaced", len(deleted)),
		slog.Int("created", len(created)))
	lc.history.Execute(replaceShapesCommand(lc, deleted, created))
}

// CommitDrawOffset turns the pending draw offset of s into a real move and
// returns the moved shape. Without an offset it returns s unchanged.
func (lc *LineCollection) CommitDrawOffset(s shape.Shape) shape.Shape {
	offset, ok := s.DrawOffset()
	s.ClearDrawOffset()
	if !ok || offset.IsZero() || !slices.Contains(lc.shapes, s) {
		return s
	}
	moved := s.Translated(offset)
	lc.history.Execute(replaceShapesCommand(lc, []shape.Shape{s}, []shape.Shape{moved}))
	return moved
}

// EditText replaces t with a copy carrying new text and size. Blank text
// deletes the label; the result is then nil.
func (lc *LineCollection) EditText(t *shape.Text, text string, size float64) *shape.Text {
	if !slices.Contains(lc.shapes, shape.Shape(t)) {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		lc.DeleteShape(t)
		return nil
	}
	if text == t.Text() && size == t.FontSize() {
		return t
	}
	edited := t.WithText(text, size)
	lc.history.Execute(replaceShapesCommand(lc, []shape.Shape{t}, []shape.Shape{edited}))
	return edited
}

// BelowGrid returns the valid shapes drawn underneath the grid, in order.
func (lc *LineCollection) BelowGrid() []shape.Shape {
	return lc.filter(func(s shape.Shape) bool { return s.StrokeWidth() > gridLayerWidth })
}

// AboveGrid returns the valid shapes drawn over the grid, in order.
func (lc *LineCollection) AboveGrid() []shape.Shape {
	return lc.filter(func(s shape.Shape) bool { return s.StrokeWidth() <= gridLayerWidth })
}

func (lc *LineCollection) filter(keep func(shape.Shape) bool) []shape.Shape {
	var out []shape.Shape
	for _, s := range lc.shapes {
		if s.IsValid() && keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// BoundingRectangle is the union of the bounds of every valid shape, offset
// by any pending draw offset. It is empty for an empty layer.
func (lc *LineCollection) BoundingRectangle() geom.BoundingRectangle {
	var r geom.BoundingRectangle
	for _, s := range lc.shapes {
		if !s.IsValid() {
			continue
		}
		b := s.BoundingRectangle()
		if off, ok := s.DrawOffset(); ok {
			b = b.Translated(off)
		}
		r.UpdateBoundsRect(b)
	}
	return r
}

// Serialize writes the layer as an array of shapes. Shapes that are still
// being drawn are skipped.
func (lc *LineCollection) Serialize(w *codec.Writer) error {
	if err := w.StartArray(); err != nil {
		return err
	}
	for _, s := range lc.shapes {
		if !s.ShouldSerialize() {
			lc.logger.Debug("skipping shape", slog.String("kind", s.Kind().String()))
			continue
		}
		if err := shape.Serialize(w, s); err != nil {
			return err
		}
	}
	return w.EndArray()
}

// Deserialize appends the shapes of one serialized layer without recording
// history.
func (lc *LineCollection) Deserialize(r *codec.Reader) error {
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	for {
		more, err := r.HasMoreArrayItems()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		s, err := shape.Deserialize(r)
		if err != nil {
			return err
		}
		if !s.IsValid() {
			lc.logger.Debug("dropping invalid shape", slog.String("kind", s.Kind().String()))
			continue
		}
		lc.insert(s)
	}
	return r.ExpectArrayEnd()
}
