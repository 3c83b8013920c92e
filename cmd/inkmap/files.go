package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"inkmap/internal/export"
	"inkmap/internal/render"
)

const mapExt = ".inkmap"

// Exported PNGs are clamped to this many pixels a side.
const (
	minExportSize = 64
	maxExportSize = 8192
)

func (m *model) startFileInput(op fileOp) {
	m.mode = modeFileInput
	m.fileOp = op
	m.input = ""
	if m.filename != "" && op == fileOpSave {
		m.input = strings.TrimSuffix(filepath.Base(m.filename), mapExt)
	}
	m.fileList = nil
	m.selectedFile = -1
	if op == fileOpOpen {
		m.scanMapFiles()
	}
}

// scanMapFiles lists the maps in the save directory, or the working
// directory when none is configured.
func (m *model) scanMapFiles() {
	dir := m.cfg.SaveDirectory
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Debug("scan map files", slog.String("dir", dir), slog.Any("error", err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), mapExt) {
			m.fileList = append(m.fileList, strings.TrimSuffix(entry.Name(), mapExt))
		}
	}
	sort.Strings(m.fileList)
	if len(m.fileList) > 0 {
		m.selectedFile = 0
		m.input = m.fileList[0]
	}
}

func (m *model) updateFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.errorMessage = ""
	case tea.KeyUp, tea.KeyDown:
		if len(m.fileList) == 0 {
			break
		}
		step := 1
		if msg.Type == tea.KeyUp {
			step = len(m.fileList) - 1
		}
		m.selectedFile = (max(m.selectedFile, 0) + step) % len(m.fileList)
		m.input = m.fileList[m.selectedFile]
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
			m.selectedFile = -1
		}
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		m.selectedFile = -1
	case tea.KeyEnter:
		m.submitFileInput()
	}
	return m, nil
}

func (m *model) submitFileInput() {
	name := strings.TrimSpace(m.input)
	if name == "" {
		m.errorMessage = "Please enter a filename"
		return
	}

	switch m.fileOp {
	case fileOpOpen:
		if filepath.Ext(name) == "" {
			name += mapExt
		}
		if m.openFile(m.cfg.GetSavePath(name)) {
			m.mode = modeNormal
		}
		return
	case fileOpSave:
		if filepath.Ext(name) == "" {
			name += mapExt
		}
	case fileOpExport:
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".pdf", ".txt":
		default:
			name += ".png"
		}
	}

	path := m.cfg.GetSavePath(name)
	if _, err := os.Stat(path); err == nil && m.cfg.Confirmations {
		m.pendingPath = path
		m.askConfirm(confirmOverwrite)
		return
	}
	m.writeFile(path)
}

// openFile loads path into the session. A file that fails to load leaves
// the current map as it was.
func (m *model) openFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		m.fail("Error opening file: %s", err)
		return false
	}
	defer f.Close()
	if err := m.session.Load(f); err != nil {
		m.fail("Error opening file: %s", err)
		return false
	}
	m.filename = path
	m.clearMessages()
	m.successMessage = "Opened " + path
	m.logger.Info("opened map", slog.String("path", path))
	m.centerOn()
	return true
}

// writeFile saves or exports to path according to the pending file
// operation.
func (m *model) writeFile(path string) {
	var err error
	switch m.fileOp {
	case fileOpSave:
		err = m.saveMap(path)
	case fileOpExport:
		err = m.exportMap(path)
	}
	m.mode = modeNormal
	if err != nil {
		m.fail("Error writing file: %s", err)
		return
	}
	if m.fileOp == fileOpSave {
		m.filename = path
	}
	abs, _ := filepath.Abs(path)
	m.errorMessage = ""
	m.successMessage = "Wrote " + abs
	m.logger.Info("wrote file", slog.String("path", abs))
}

func (m *model) saveMap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.session.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *model) mapOptions() render.MapOptions {
	return render.MapOptions{View: m.mapView, FogOfWar: m.fogOfWar}
}

func (m *model) exportMap(path string) error {
	d := m.data()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return export.PDFFile(path, d, export.PDFOptions{View: m.mapView, Grid: d.Grid.Visible})
	case ".txt":
		return export.TXTFile(path, d, m.canvasWidth(), m.canvasHeight(), m.mapOptions())
	default:
		w, h := m.exportSize()
		return render.SavePNG(path, d, w, h, m.mapOptions(), render.WithLogger(m.logger), render.WithImageLoader(m.imageLoader()))
	}
}

// exportSize scales the map bounds so that a grid cell spans ExportScale
// pixels.
func (m *model) exportSize() (int, int) {
	d := m.data()
	bounds := d.BoundingRectangle()
	if bounds.IsEmpty() {
		return minExportSize, minExportSize
	}
	scale := m.cfg.ExportScale / d.Grid.CellSize()
	size := func(v float64) int {
		n := int(math.Ceil(v*scale*1.1)) + 1
		return min(max(n, minExportSize), maxExportSize)
	}
	return size(bounds.Width()), size(bounds.Height())
}

func (m *model) fileOpName() string {
	switch m.fileOp {
	case fileOpSave:
		return "Save"
	case fileOpOpen:
		return "Open"
	case fileOpExport:
		return "Export (.png/.pdf/.txt)"
	default:
		return fmt.Sprint(int(m.fileOp))
	}
}
