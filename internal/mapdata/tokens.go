package mapdata

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"inkmap/internal/codec"
	"inkmap/internal/geom"
	"inkmap/internal/shape"
)

// Token is a creature or object placed on the map, drawn as a round image.
type Token struct {
	ID        string
	Name      string
	ImageFile string
	// Location is the token's center in world space.
	Location geom.Point
	// Diameter is in grid cells.
	Diameter float64
	Bloodied bool
	// BorderColor is drawn around the token when HasBorderColor is set.
	BorderColor    shape.Color
	HasBorderColor bool
	// Label is a short overlay that tells identical tokens apart.
	Label string
}

// NewToken returns a one-cell token with a fresh id.
func NewToken(name, imageFile string, location geom.Point) *Token {
	return &Token{
		ID:        uuid.NewString(),
		Name:      name,
		ImageFile: imageFile,
		Location:  location,
		Diameter:  1,
	}
}

// Contains reports whether p lies on the token, given the grid's cell size
// in world units.
func (t *Token) Contains(p geom.Point, cellSize float64) bool {
	return t.Location.Distance(p) <= t.Diameter*cellSize/2
}

// TokenCollection holds the tokens of a map in draw order.
//
// Token moves and attribute changes are made directly on the *Token between
// Checkpoint and Commit; Commit records the difference as one command.
type TokenCollection struct {
	tokens  []*Token
	history *CommandHistory

	checkpoint []tokenEdit
	inProgress bool
}

func NewTokenCollection(history *CommandHistory) *TokenCollection {
	if history == nil {
		history = NewCommandHistory()
	}
	return &TokenCollection{history: history}
}

func (tc *TokenCollection) History() *CommandHistory { return tc.history }

// Tokens returns the tokens bottom to top. The slice must not be modified.
func (tc *TokenCollection) Tokens() []*Token { return tc.tokens }

func (tc *TokenCollection) Len() int { return len(tc.tokens) }

func (tc *TokenCollection) IsEmpty() bool { return len(tc.tokens) == 0 }

func (tc *TokenCollection) Undo() bool { return tc.history.Undo() }
func (tc *TokenCollection) Redo() bool { return tc.history.Redo() }

func (tc *TokenCollection) insert(t *Token) { tc.tokens = append(tc.tokens, t) }

func (tc *TokenCollection) insertAt(t *Token, i int) {
	if i < 0 || i > len(tc.tokens) {
		tc.insert(t)
		return
	}
	tc.tokens = slices.Insert(tc.tokens, i, t)
}

func (tc *TokenCollection) remove(t *Token) int {
	i := slices.Index(tc.tokens, t)
	if i >= 0 {
		tc.tokens = slices.Delete(tc.tokens, i, i+1)
	}
	return i
}

// AddToken places t on top of the others.
func (tc *TokenCollection) AddToken(t *Token) {
	if slices.Contains(tc.tokens, t) {
		return
	}
	tc.history.Execute(replaceTokensCommand(tc, nil, []*Token{t}))
}

// RemoveTokens removes the given tokens as one step.
func (tc *TokenCollection) RemoveTokens(tokens ...*Token) {
	var present []*Token
	for _, t := range tokens {
		if slices.Contains(tc.tokens, t) {
			present = append(present, t)
		}
	}
	tc.history.Execute(replaceTokensCommand(tc, present, nil))
}

// FindToken returns the topmost token under p, or nil.
func (tc *TokenCollection) FindToken(p geom.Point, cellSize float64) *Token {
	for i := len(tc.tokens) - 1; i >= 0; i-- {
		if tc.tokens[i].Contains(p, cellSize) {
			return tc.tokens[i]
		}
	}
	return nil
}

// FindByID returns the token with the given id, or nil.
func (tc *TokenCollection) FindByID(id string) *Token {
	for _, t := range tc.tokens {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Checkpoint snapshots tokens before the caller starts changing them.
// A second Checkpoint replaces the first.
func (tc *TokenCollection) Checkpoint(tokens ...*Token) {
	tc.checkpoint = tc.checkpoint[:0]
	for _, t := range tokens {
		tc.checkpoint = append(tc.checkpoint, tokenEdit{token: t, before: *t})
	}
	tc.inProgress = true
}

// Commit records every change made since Checkpoint as one undoable command.
// Calling Commit without a pending Checkpoint is a programming error.
func (tc *TokenCollection) Commit() {
	if !tc.inProgress {
		panic("mapdata: TokenCollection.Commit called without Checkpoint")
	}
	edits := make([]tokenEdit, len(tc.checkpoint))
	for i, e := range tc.checkpoint {
		e.after = *e.token
		edits[i] = e
	}
	tc.checkpoint = tc.checkpoint[:0]
	tc.inProgress = false
	tc.history.AddToCommandHistory(&Command{Type: CommandTokenAttributes, tokens: tc, edits: edits})
}

// HasCheckpoint reports whether a Checkpoint is waiting for Commit.
func (tc *TokenCollection) HasCheckpoint() bool { return tc.inProgress }

// BoundingRectangle covers every token's disc.
func (tc *TokenCollection) BoundingRectangle(cellSize float64) geom.BoundingRectangle {
	var r geom.BoundingRectangle
	for _, t := range tc.tokens {
		half := t.Diameter * cellSize / 2
		r.UpdateBoundsRect(geom.NewBoundingRectangle(t.Location).Expanded(half))
	}
	return r
}

func (tc *TokenCollection) Serialize(w *codec.Writer) error {
	if err := w.StartArray(); err != nil {
		return err
	}
	for _, t := range tc.tokens {
		if err := writeToken(w, t); err != nil {
			return fmt.Errorf("token %s: %w", t.ID, err)
		}
	}
	return w.EndArray()
}

func writeToken(w *codec.Writer, t *Token) error {
	if err := w.StartObject(); err != nil {
		return err
	}
	for _, s := range []string{t.ID, t.Name, t.ImageFile} {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	if err := writePoint(w, t.Location); err != nil {
		return err
	}
	if err := w.WriteFloat(t.Diameter); err != nil {
		return err
	}
	if err := w.WriteBool(t.Bloodied); err != nil {
		return err
	}
	if err := w.WriteBool(t.HasBorderColor); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(t.BorderColor)); err != nil {
		return err
	}
	if err := w.WriteString(t.Label); err != nil {
		return err
	}
	return w.EndObject()
}

// Deserialize appends serialized tokens without recording history.
func (tc *TokenCollection) Deserialize(r *codec.Reader) error {
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
		t, err := readToken(r)
		if err != nil {
			return err
		}
		tc.insert(t)
	}
	return r.ExpectArrayEnd()
}

func readToken(r *codec.Reader) (*Token, error) {
	if err := r.ExpectObjectStart(); err != nil {
		return nil, err
	}
	var (
		t   Token
		err error
	)
	if t.ID, err = r.ReadString(); err != nil {
		return nil, err
	}
	if t.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if t.ImageFile, err = r.ReadString(); err != nil {
		return nil, err
	}
	if t.Location, err = readPoint(r); err != nil {
		return nil, err
	}
	if t.Diameter, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if t.Bloodied, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if t.HasBorderColor, err = r.ReadBool(); err != nil {
		return nil, err
	}
	c, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	t.BorderColor = shape.Color(c)
	if t.Label, err = r.ReadString(); err != nil {
		return nil, err
	}
	if err := r.ExpectObjectEnd(); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return &t, nil
}

func writePoint(w *codec.Writer, p geom.Point) error {
	if err := w.WriteFloat(p.X); err != nil {
		return err
	}
	return w.WriteFloat(p.Y)
}

func readPoint(r *codec.Reader) (geom.Point, error) {
	x, err := r.ReadFloat()
	if err != nil {
		return geom.Point{}, err
	}
	y, err := r.ReadFloat()
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(x, y), nil
}
