// Package mapdata holds a map's layers, tokens and grid, their undo
// histories and the map file format.
package mapdata

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
)

// FormatVersion is the version written at the head of every map file.
const FormatVersion = 1

// ErrUnsupportedVersion is returned for map files written by a newer version.
var ErrUnsupportedVersion = fmt.Errorf("%w: unsupported map format version", codec.ErrFormat)

// Layer identifies one of a map's shape layers.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBackgroundFogOfWar
	LayerGMNotes
	LayerGMNotesFogOfWar
	LayerAnnotations
)

// Layers lists every layer in file order.
var Layers = [...]Layer{
	LayerBackground,
	LayerBackgroundFogOfWar,
	LayerGMNotes,
	LayerGMNotesFogOfWar,
	LayerAnnotations,
}

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBackgroundFogOfWar:
		return "background fog of war"
	case LayerGMNotes:
		return "gm notes"
	case LayerGMNotesFogOfWar:
		return "gm notes fog of war"
	case LayerAnnotations:
		return "annotations"
	default:
		return "Layer(" + strconv.Itoa(int(l)) + ")"
	}
}

// IsFogOfWar reports whether the layer is a fog-of-war mask.
func (l Layer) IsFogOfWar() bool {
	return l == LayerBackgroundFogOfWar || l == LayerGMNotesFogOfWar
}

// MapData is everything saved in a map file.
//
// The background and its fog of war share one history so that revealing the
// map undoes in step with drawing it. The other layers and the tokens each
// have their own.
type MapData struct {
	Grid *Grid
	// WorldSpaceTransformer maps world space to the screen.
	WorldSpaceTransformer geom.CoordinateTransformer
	Tokens                *TokenCollection

	layers [len(Layers)]*LineCollection
	logger *slog.Logger
}

// New returns an empty map with a default grid.
func New(opts ...Option) *MapData {
	o := buildOptions(opts)
	m := &MapData{
		Grid:                  NewGrid(),
		WorldSpaceTransformer: geom.Identity(),
		Tokens:                NewTokenCollection(nil),
		logger:                o.logger,
	}
	background := NewCommandHistory()
	gmNotes := NewCommandHistory()
	for _, l := range Layers {
		var h *CommandHistory
		switch l {
		case LayerBackground, LayerBackgroundFogOfWar:
			h = background
		case LayerGMNotes:
			h = gmNotes
		default:
			h = NewCommandHistory()
		}
		lc := NewLineCollection(h)
		lc.logger = o.logger.With(slog.String("layer", l.String()))
		m.layers[l] = lc
	}
	return m
}

// Layer returns the shapes of l.
func (m *MapData) Layer(l Layer) *LineCollection { return m.layers[l] }

func (m *MapData) Background() *LineCollection         { return m.layers[LayerBackground] }
func (m *MapData) BackgroundFogOfWar() *LineCollection { return m.layers[LayerBackgroundFogOfWar] }
func (m *MapData) GMNotes() *LineCollection            { return m.layers[LayerGMNotes] }
func (m *MapData) GMNotesFogOfWar() *LineCollection    { return m.layers[LayerGMNotesFogOfWar] }
func (m *MapData) Annotations() *LineCollection        { return m.layers[LayerAnnotations] }

// HasData reports whether any layer or the token collection holds anything.
func (m *MapData) HasData() bool {
	if !m.Tokens.IsEmpty() {
		return true
	}
	for _, lc := range m.layers {
		if !lc.IsEmpty() {
			return true
		}
	}
	return false
}

// BoundingRectangle covers every visible shape and token, ignoring the fog
// of war masks.
func (m *MapData) BoundingRectangle() geom.BoundingRectangle {
	var r geom.BoundingRectangle
	for _, l := range Layers {
		if l.IsFogOfWar() {
			continue
		}
		r.UpdateBoundsRect(m.layers[l].BoundingRectangle())
	}
	r.UpdateBoundsRect(m.Tokens.BoundingRectangle(m.Grid.CellSize()))
	return r
}

// Serialize writes the map: version, grid, world transform, tokens and the
// layers in Layers order.
func (m *MapData) Serialize(out io.Writer) error {
	w := codec.NewWriter(out)
	if err := w.WriteInt(FormatVersion); err != nil {
		return fmt.Errorf("serialize version: %w", err)
	}
	if err := m.Grid.Serialize(w); err != nil {
		return fmt.Errorf("serialize grid: %w", err)
	}
	if err := writeTransform(w, m.WorldSpaceTransformer); err != nil {
		return fmt.Errorf("serialize world transform: %w", err)
	}
	if err := m.Tokens.Serialize(w); err != nil {
		return fmt.Errorf("serialize tokens: %w", err)
	}
	for _, l := range Layers {
		if err := m.layers[l].Serialize(w); err != nil {
			return fmt.Errorf("serialize %s: %w", l, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("serialize map: %w", err)
	}
	return nil
}

// Deserialize reads a map written by Serialize into a new MapData. The
// returned map has empty histories.
func Deserialize(in io.Reader, opts ...Option) (*MapData, error) {
	m := New(opts...)
	r := codec.NewReader(in)

	version, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version < 1 || version > FormatVersion {
		return nil, r.Fail(strconv.Itoa(version), ErrUnsupportedVersion)
	}
	if m.Grid, err = deserializeGrid(r); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	if m.WorldSpaceTransformer, err = readTransform(r); err != nil {
		return nil, fmt.Errorf("read world transform: %w", err)
	}
	if err := m.Tokens.Deserialize(r); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	for _, l := range Layers {
		if err := m.layers[l].Deserialize(r); err != nil {
			return nil, fmt.Errorf("read %s: %w", l, err)
		}
	}
	if r.Depth() != 0 {
		return nil, r.Fail("", codec.ErrUnexpectedEOF)
	}

	m.logger.Debug("map loaded",
		slog.Int("tokens", m.Tokens.Len()),
		slog.Int("background", m.Background().Len()),
		slog.Int("gm_notes", m.GMNotes().Len()),
		slog.Int("annotations", m.Annotations().Len()))
	return m, nil
}

// IsFormatError reports whether err means the data was malformed, as
// opposed to an I/O failure.
func IsFormatError(err error) bool { return errors.Is(err, codec.ErrFormat) }
