package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/fogleman/gg"

	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
	"inkmap/internal/render"
)

// asciiRamp maps increasing ink coverage to characters.
const asciiRamp = " .:-=+*#%@"

// ASCIILines renders m as rows lines of cols characters. Each character
// cell covers one pixel horizontally and two vertically of the screen space
// described by t, which roughly matches a terminal cell's aspect.
func ASCIILines(m *mapdata.MapData, t geom.CoordinateTransformer, cols, rows int, opts render.MapOptions) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	dc := gg.NewContext(cols, rows*2)
	r := render.NewRenderer(dc, t)
	defer r.Close()
	opts.Background = color.White
	r.RenderMap(m, opts)

	img := dc.Image()
	lines := make([]string, rows)
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		sb.Reset()
		for col := 0; col < cols; col++ {
			ink := coverage(img.At(col, row*2)) + coverage(img.At(col, row*2+1))
			i := int(ink / 2 * float64(len(asciiRamp)-1))
			sb.WriteByte(asciiRamp[i])
		}
		lines[row] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

// coverage is 0 for white and 1 for black.
func coverage(c color.Color) float64 {
	g := color.GrayModel.Convert(c).(color.Gray)
	return 1 - float64(g.Y)/255
}

// FitASCIITransform frames the map contents in a cols x rows character
// grid.
func FitASCIITransform(m *mapdata.MapData, cols, rows int) geom.CoordinateTransformer {
	return render.FitTransform(m.BoundingRectangle(), cols, rows*2, 1)
}

// TXT writes an ASCII rendering of m, framed around its contents.
func TXT(w io.Writer, m *mapdata.MapData, cols, rows int, opts render.MapOptions) error {
	bw := bufio.NewWriter(w)
	for _, line := range ASCIILines(m, FitASCIITransform(m, cols, rows), cols, rows, opts) {
		fmt.Fprintln(bw, line)
	}
	return bw.Flush()
}

// TXTFile writes the ASCII rendering of m to path.
func TXTFile(path string, m *mapdata.MapData, cols, rows int, opts render.MapOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := TXT(f, m, cols, rows, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
