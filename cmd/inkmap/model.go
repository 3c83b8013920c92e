package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"inkmap/internal/config"
	"inkmap/internal/geom"
	"inkmap/internal/mapdata"
	"inkmap/internal/render"
	"inkmap/internal/shape"
)

type mode int

const (
	modeNormal mode = iota
	modeDraw
	modeErase
	modeMove
	modeMoveToken
	modeTextInput
	modeFileInput
	modeConfirm
)

func (md mode) String() string {
	switch md {
	case modeNormal:
		return "NORMAL"
	case modeDraw:
		return "DRAW"
	case modeErase:
		return "ERASE"
	case modeMove:
		return "MOVE"
	case modeMoveToken:
		return "MOVE TOKEN"
	case modeTextInput:
		return "TEXT"
	case modeFileInput:
		return "FILE"
	case modeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

type fileOp int

const (
	fileOpSave fileOp = iota
	fileOpOpen
	fileOpExport
)

type confirmAction int

const (
	confirmQuit confirmAction = iota
	confirmNewMap
	confirmOverwrite
	confirmDeleteShape
	confirmDeleteToken
)

type tool int

const (
	toolFreehand tool = iota
	toolLine
	toolRectangle
	toolCircle
)

func (t tool) String() string {
	switch t {
	case toolFreehand:
		return "freehand"
	case toolLine:
		return "line"
	case toolRectangle:
		return "rectangle"
	case toolCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// textPurpose says what a finished text input becomes.
type textPurpose int

const (
	textLabel textPurpose = iota
	textToken
	textEdit
)

// targetTokens is the undo target after the shape layers.
const targetTokens = len(mapdata.Layers)

// defaultZoom maps one world unit to two columns and one text row.
const defaultZoom = 2

type model struct {
	cfg     *config.Config
	session *mapdata.Session
	logger  *slog.Logger

	width   int
	height  int
	cursorX int
	cursorY int
	panMode bool
	view    geom.CoordinateTransformer

	// target is the active layer index, or targetTokens.
	target   int
	mapView  render.View
	fogOfWar bool
	filled   bool
	tool     tool

	mode mode
	help bool

	// Gesture state.
	drawing    shape.Shape
	drawStart  geom.Point
	moving     shape.Shape
	moveStart  geom.Point
	token      *mapdata.Token
	tokenStart geom.Point

	textInput   string
	textPurpose textPurpose
	textAt      geom.Point
	editing     *shape.Text

	filename     string
	input        string
	fileList     []string
	selectedFile int
	fileOp       fileOp

	confirmAction confirmAction
	confirmShape  shape.Shape
	confirmToken  *mapdata.Token
	pendingPath   string

	errorMessage   string
	successMessage string
}

func newModel(cfg *config.Config, session *mapdata.Session, logger *slog.Logger) *model {
	return &model{
		cfg:          cfg,
		session:      session,
		logger:       logger,
		view:         geom.NewCoordinateTransformer(0, 0, defaultZoom),
		selectedFile: -1,
	}
}

func (m *model) data() *mapdata.MapData { return m.session.Data() }

// layer returns the active shape layer, or nil when tokens are targeted.
func (m *model) layer() *mapdata.LineCollection {
	if m.target == targetTokens {
		return nil
	}
	return m.data().Layer(mapdata.Layers[m.target])
}

func (m *model) targetName() string {
	if m.target == targetTokens {
		return "tokens"
	}
	return mapdata.Layers[m.target].String()
}

func (m *model) history() *mapdata.CommandHistory {
	if lc := m.layer(); lc != nil {
		return lc.History()
	}
	return m.data().Tokens.History()
}

// strokeWidth is the width new shapes get in world units.
func (m *model) strokeWidth() float64 {
	if m.filled {
		return shape.Filled
	}
	return m.cfg.FreehandWidth
}

func (m *model) clearMessages() {
	m.errorMessage = ""
	m.successMessage = ""
}

func (m *model) fail(format string, err error) {
	m.errorMessage = fmt.Sprintf(format, err)
	m.logger.Warn(m.errorMessage)
}

func (m *model) imageLoader() render.ImageLoader {
	dir := "."
	if m.filename != "" {
		dir = filepath.Dir(m.filename)
	}
	return render.DirImageLoader{Dir: dir}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := m.width == 0
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorInBounds()
		if first {
			m.centerOn()
		}
		return m, nil

	case tea.KeyMsg:
		if m.help {
			m.help = false
			return m, nil
		}
		switch m.mode {
		case modeNormal:
			return m.updateNormal(msg)
		case modeDraw, modeErase, modeMove, modeMoveToken:
			return m.updateGesture(msg)
		case modeTextInput:
			return m.updateTextInput(msg)
		case modeFileInput:
			return m.updateFileInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}
