package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"inkmap/internal/mapdata"
	"inkmap/internal/render"
	"inkmap/internal/shape"
)

func (m *model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.handleNavigation(key) {
		return m, nil
	}
	m.clearMessages()

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.cfg.Confirmations && m.data().HasData() {
			m.askConfirm(confirmQuit)
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.help = true
	case "z":
		m.panMode = !m.panMode
	case "+", "=":
		m.zoom(1.25)
	case "-", "_":
		m.zoom(0.8)
	case "0":
		m.centerOn()
	case "tab":
		m.target = (m.target + 1) % (targetTokens + 1)
	case "shift+tab":
		m.target = (m.target + targetTokens) % (targetTokens + 1)
	case "v":
		if m.mapView == render.ViewGM {
			m.mapView = render.ViewPlayer
		} else {
			m.mapView = render.ViewGM
		}
	case "f":
		m.fogOfWar = !m.fogOfWar
	case "F":
		m.filled = !m.filled
	case "1", "2", "3", "4":
		m.tool = tool(key[0] - '1')
		m.successMessage = "Tool: " + m.tool.String()
	case "u":
		if !m.history().Undo() {
			m.successMessage = "Nothing to undo"
		}
	case "U", "ctrl+r":
		if !m.history().Redo() {
			m.successMessage = "Nothing to redo"
		}

	case "d":
		if m.requireLayer() {
			m.mode = modeDraw
			m.drawStart = m.cursorWorld()
		}
	case "e":
		if m.requireLayer() {
			m.mode = modeErase
			m.layer().Erase(m.cursorWorld(), m.cfg.EraserRadius)
		}
	case "m":
		if !m.requireLayer() {
			break
		}
		s := m.layer().FindShape(m.cursorWorld())
		if s == nil {
			m.errorMessage = "No shape under cursor"
			break
		}
		m.mode = modeMove
		m.moving = s
		m.moveStart = m.cursorWorld()
	case "x":
		if !m.requireLayer() {
			break
		}
		s := m.layer().FindShape(m.cursorWorld())
		if s == nil {
			m.errorMessage = "No shape under cursor"
			break
		}
		if m.cfg.Confirmations {
			m.confirmShape = s
			m.askConfirm(confirmDeleteShape)
			break
		}
		m.layer().DeleteShape(s)
	case "t":
		if m.requireLayer() {
			m.startTextInput(textLabel, "")
		}
	case "E":
		if !m.requireLayer() {
			break
		}
		t, ok := m.layer().FindShape(m.cursorWorld(), shape.KindText).(*shape.Text)
		if !ok {
			m.errorMessage = "No text under cursor"
			break
		}
		m.editing = t
		m.startTextInput(textEdit, t.Text())

	case "o":
		m.startTextInput(textToken, "")
	case "M":
		t := m.tokenUnderCursor()
		if t == nil {
			break
		}
		m.data().Tokens.Checkpoint(t)
		m.mode = modeMoveToken
		m.token = t
		m.tokenStart = t.Location
		m.moveStart = m.cursorWorld()
	case "b":
		t := m.tokenUnderCursor()
		if t == nil {
			break
		}
		tc := m.data().Tokens
		tc.Checkpoint(t)
		t.Bloodied = !t.Bloodied
		tc.Commit()
	case "X":
		t := m.tokenUnderCursor()
		if t == nil {
			break
		}
		if m.cfg.Confirmations {
			m.confirmToken = t
			m.askConfirm(confirmDeleteToken)
			break
		}
		m.data().Tokens.RemoveTokens(t)

	case "n":
		if m.cfg.Confirmations && m.data().HasData() {
			m.askConfirm(confirmNewMap)
			return m, nil
		}
		m.newMap()
	case "w":
		m.startFileInput(fileOpSave)
	case "O":
		m.startFileInput(fileOpOpen)
	case "p":
		m.startFileInput(fileOpExport)
	case "y":
		m.copyLayer()
	}
	return m, nil
}

// requireLayer reports whether a shape layer is active, complaining if not.
func (m *model) requireLayer() bool {
	if m.layer() == nil {
		m.errorMessage = "Select a shape layer with tab"
		return false
	}
	return true
}

func (m *model) tokenUnderCursor() *mapdata.Token {
	t := m.data().Tokens.FindToken(m.cursorWorld(), m.data().Grid.CellSize())
	if t == nil {
		m.errorMessage = "No token under cursor"
	}
	return t
}

func (m *model) newMap() {
	m.session.Reset()
	m.filename = ""
	m.centerOn()
}

// updateGesture drives the modes in which cursor movement edits the map.
func (m *model) updateGesture(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "enter", "esc":
		m.endGesture(key == "esc")
		return m, nil
	case "d", "e":
		if (key == "d" && m.mode == modeDraw) || (key == "e" && m.mode == modeErase) {
			m.endGesture(false)
		}
		return m, nil
	}
	if !m.handleNavigation(key) {
		return m, nil
	}

	p := m.cursorWorld()
	switch m.mode {
	case modeDraw:
		if m.drawing == nil {
			m.drawing = m.createShape()
			m.drawing.AddPoint(m.drawStart)
		}
		m.drawing.AddPoint(p)
	case modeErase:
		m.layer().Erase(p, m.cfg.EraserRadius)
	case modeMove:
		m.moving.SetDrawOffset(p.Sub(m.moveStart))
	case modeMoveToken:
		loc := m.tokenStart.Add(p.Sub(m.moveStart))
		m.token.Location = m.data().Grid.NearestSnapPoint(loc, m.token.Diameter)
	}
	return m, nil
}

func (m *model) createShape() shape.Shape {
	lc := m.layer()
	c, w := m.cfg.Color, m.strokeWidth()
	switch m.tool {
	case toolLine:
		return lc.CreateStraightLine(c, w)
	case toolRectangle:
		return lc.CreateRectangle(c, w)
	case toolCircle:
		return lc.CreateCircle(c, w)
	default:
		return lc.CreateFreehandLine(c, w)
	}
}

func (m *model) endGesture(cancel bool) {
	switch m.mode {
	case modeDraw:
		if cancel && m.drawing != nil {
			m.layer().Undo()
		}
		m.drawing = nil
	case modeErase:
		m.layer().Optimize()
	case modeMove:
		if cancel {
			m.moving.ClearDrawOffset()
		} else {
			m.layer().CommitDrawOffset(m.moving)
		}
		m.moving = nil
	case modeMoveToken:
		if cancel {
			m.token.Location = m.tokenStart
		}
		m.data().Tokens.Commit()
		m.token = nil
	}
	m.mode = modeNormal
}

func (m *model) startTextInput(purpose textPurpose, initial string) {
	m.mode = modeTextInput
	m.textPurpose = purpose
	m.textInput = initial
	m.textAt = m.cursorWorld()
}

func (m *model) updateTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.editing = nil
	case tea.KeyEnter:
		m.finishTextInput()
		m.mode = modeNormal
	case tea.KeyBackspace:
		if r := []rune(m.textInput); len(r) > 0 {
			m.textInput = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.textInput += " "
	case tea.KeyRunes:
		m.textInput += string(msg.Runes)
	case tea.KeyCtrlJ:
		if m.textPurpose != textToken {
			m.textInput += "\n"
		}
	}
	return m, nil
}

func (m *model) finishTextInput() {
	text := m.textInput
	switch m.textPurpose {
	case textLabel:
		if strings.TrimSpace(text) == "" {
			return
		}
		m.layer().CreateText(text, m.data().Grid.CellSize(), m.textAt, m.cfg.Color, m.cfg.FreehandWidth)
	case textEdit:
		m.layer().EditText(m.editing, text, m.editing.FontSize())
		m.editing = nil
	case textToken:
		name := strings.TrimSpace(text)
		if name == "" {
			return
		}
		loc := m.data().Grid.NearestSnapPoint(m.textAt, 1)
		m.data().Tokens.AddToken(mapdata.NewToken(name, name+".png", loc))
		m.successMessage = fmt.Sprintf("Added token %s", name)
	}
}

func (m *model) askConfirm(a confirmAction) {
	m.mode = modeConfirm
	m.confirmAction = a
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeNormal
		switch m.confirmAction {
		case confirmQuit:
			return m, tea.Quit
		case confirmNewMap:
			m.newMap()
		case confirmOverwrite:
			m.writeFile(m.pendingPath)
		case confirmDeleteShape:
			m.layer().DeleteShape(m.confirmShape)
		case confirmDeleteToken:
			m.data().Tokens.RemoveTokens(m.confirmToken)
		}
	case "n", "N", "esc":
		m.mode = modeNormal
	default:
		return m, nil
	}
	m.confirmShape = nil
	m.confirmToken = nil
	m.pendingPath = ""
	return m, nil
}
