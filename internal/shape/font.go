package shape

import (
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// Text is measured with a face of this size and scaled, so metrics don't
// suffer from hinting at the tiny world space sizes labels usually have.
const measureSize = 64.0

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// NewFontFace returns a face of the label font at the given pixel size.
// Faces are not safe for concurrent use; callers own the returned face.
func NewFontFace(size float64) (font.Face, error) {
	f, err := parseFont()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// TextMetrics describes the extent of a block of text at a given font size.
type TextMetrics struct {
	Width      float64
	LineHeight float64
	Ascent     float64
	Lines      int
}

func (m TextMetrics) Height() float64 { return m.LineHeight * float64(m.Lines) }

// MeasureText returns the metrics of text set in the label font at size.
// Lines are separated by '\n'.
func MeasureText(text string, size float64) TextMetrics {
	lines := strings.Split(text, "\n")
	face, err := NewFontFace(measureSize)
	if err != nil {
		// The font is embedded; this only guards against a corrupt build.
		widest := 0
		for _, l := range lines {
			widest = max(widest, len([]rune(l)))
		}
		return TextMetrics{Width: 0.6 * size * float64(widest), LineHeight: 1.2 * size, Ascent: size, Lines: len(lines)}
	}
	defer face.Close()

	scale := size / measureSize
	m := face.Metrics()
	var widest fixed.Int26_6
	for _, l := range lines {
		widest = max(widest, font.MeasureString(face, l))
	}
	return TextMetrics{
		Width:      fixedToFloat(widest) * scale,
		LineHeight: fixedToFloat(m.Height) * scale,
		Ascent:     fixedToFloat(m.Ascent) * scale,
		Lines:      len(lines),
	}
}
