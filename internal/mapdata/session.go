package mapdata

import (
	"fmt"
	"io"
	"log/slog"
)

// Session owns the map being edited. Loading never leaves it half replaced:
// the file is decoded into a fresh MapData that only takes over on success.
type Session struct {
	data   *MapData
	opts   []Option
	logger *slog.Logger
}

func NewSession(opts ...Option) *Session {
	o := buildOptions(opts)
	return &Session{data: New(opts...), opts: opts, logger: o.logger}
}

// Data returns the live map.
func (s *Session) Data() *MapData { return s.data }

// Load replaces the live map with the one read from r. On error the live
// map is untouched.
func (s *Session) Load(r io.Reader) error {
	m, err := Deserialize(r, s.opts...)
	if err != nil {
		s.logger.Warn("map load failed", slog.Any("error", err))
		return fmt.Errorf("load map: %w", err)
	}
	s.data = m
	return nil
}

func (s *Session) Save(w io.Writer) error {
	if err := s.data.Serialize(w); err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	return nil
}

// Reset starts over with an empty map.
func (s *Session) Reset() {
	s.data = New(s.opts...)
}
