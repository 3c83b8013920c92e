package main

import (
	"strings"

	"github.com/atotto/clipboard"

	"inkmap/internal/codec"
)

// copyLayer puts the serialized active layer on the system clipboard.
func (m *model) copyLayer() {
	text, err := m.serializeLayer()
	if err != nil {
		m.fail("Error copying layer: %s", err)
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.fail("Error copying layer: %s", err)
		return
	}
	m.successMessage = "Copied " + m.targetName()
}

func (m *model) serializeLayer() (string, error) {
	var sb strings.Builder
	w := codec.NewWriter(&sb)
	if lc := m.layer(); lc != nil {
		if err := lc.Serialize(w); err != nil {
			return "", err
		}
	} else if err := m.data().Tokens.Serialize(w); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
