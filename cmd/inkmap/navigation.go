package main

import (
	"inkmap/internal/geom"
)

// handleNavigation moves the cursor, or the view in pan mode, and reports
// whether key was a movement key.
func (m *model) handleNavigation(key string) bool {
	dx, dy := direction(key)
	if dx == 0 && dy == 0 {
		return false
	}
	speed := m.getMoveSpeed(key)
	if m.panMode {
		m.handlePan(dx*speed, dy*speed)
	} else {
		m.handleCursorMove(dx*speed, dy*speed)
	}
	return true
}

func direction(key string) (int, int) {
	switch key {
	case "h", "left", "H", "shift+left":
		return -1, 0
	case "l", "right", "L", "shift+right":
		return 1, 0
	case "k", "up", "K", "shift+up":
		return 0, -1
	case "j", "down", "J", "shift+down":
		return 0, 1
	}
	return 0, 0
}

// handlePan scrolls the map under a fixed cursor, in text cells.
func (m *model) handlePan(dx, dy int) {
	m.view = m.view.Panned(geom.Pt(float64(-dx), float64(-dy*2)))
}

func (m *model) handleCursorMove(dx, dy int) {
	m.cursorX += dx
	m.cursorY += dy
	m.ensureCursorInBounds()
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 4
	default:
		return 1
	}
}

// zoom rescales the view about the cursor.
func (m *model) zoom(factor float64) {
	z := m.view.Zoom * factor
	if z < 0.05 || z > 64 {
		return
	}
	m.view = m.view.Zoomed(factor, m.cursorPixel())
}

func (m *model) ensureCursorInBounds() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	if maxY := m.canvasHeight() - 1; m.height > 0 && m.cursorY > maxY {
		m.cursorY = max(maxY, 0)
	}
}

// canvasHeight leaves room for the layer bar and the status line.
func (m *model) canvasHeight() int {
	return max(m.height-2, 1)
}

func (m *model) canvasWidth() int {
	return max(m.width, 1)
}

// cursorPixel is the centre of the cursor cell in preview pixels. A text
// cell is one pixel wide and two high.
func (m *model) cursorPixel() geom.Point {
	return geom.Pt(float64(m.cursorX)+0.5, float64(m.cursorY*2)+1)
}

func (m *model) cursorWorld() geom.Point {
	return m.view.ScreenSpaceToWorldSpace(m.cursorPixel())
}

// centerOn frames the map contents in the preview.
func (m *model) centerOn() {
	bounds := m.data().BoundingRectangle()
	if bounds.IsEmpty() {
		m.view = geom.NewCoordinateTransformer(0, 0, defaultZoom)
		return
	}
	c := bounds.Center()
	cx := float64(m.canvasWidth()) / 2
	cy := float64(m.canvasHeight())
	m.view = geom.NewCoordinateTransformer(cx-c.X*m.view.Zoom, cy-c.Y*m.view.Zoom, m.view.Zoom)
}
