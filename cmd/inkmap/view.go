package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"inkmap/internal/export"
	"inkmap/internal/mapdata"
	"inkmap/internal/render"
)

var (
	accentFg = lipgloss.Color("#7C3AED")
	dimFg    = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	errorFg  = lipgloss.Color("#DC2626")

	barStyle    = lipgloss.NewStyle().Foreground(dimFg)
	activeStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	statusStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle  = lipgloss.NewStyle().Foreground(errorFg).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
)

func (m *model) View() string {
	if m.help {
		return m.helpView()
	}
	width := m.canvasWidth()

	var body string
	if m.mode == modeFileInput && m.fileOp == fileOpOpen {
		body = m.fileListView(width, m.canvasHeight())
	} else {
		body = strings.Join(m.canvasLines(), "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.layerBar(width),
		body,
		statusStyle.Width(width).MaxWidth(width).Render(m.statusLine()),
	)
}

// canvasLines renders the map preview with the cursor drawn over it.
func (m *model) canvasLines() []string {
	w, h := m.canvasWidth(), m.canvasHeight()
	lines := export.ASCIILines(m.data(), m.view, w, h, m.mapOptions())
	for i, line := range lines {
		if pad := w - len(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		if i == m.cursorY && m.cursorX < w {
			r := []rune(line)
			r[m.cursorX] = '█'
			line = string(r)
		}
		lines[i] = line
	}
	return lines
}

// layerBar lists the edit targets with the active one highlighted.
func (m *model) layerBar(width int) string {
	names := make([]string, 0, targetTokens+1)
	for i := 0; i <= targetTokens; i++ {
		name := "tokens"
		if i < targetTokens {
			name = mapdata.Layers[i].String()
		}
		if i == m.target {
			names = append(names, activeStyle.Render("["+name+"]"))
		} else {
			names = append(names, barStyle.Render(name))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(names, barStyle.Render(" | ")))
}

func (m *model) fileListView(width, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Select a saved map:"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\n")
	if len(m.fileList) == 0 {
		sb.WriteString(barStyle.Render("(No " + mapExt + " files found)"))
		sb.WriteString("\n")
	}
	maxFiles := max(height-4, 1)
	start := 0
	if m.selectedFile >= maxFiles {
		start = m.selectedFile - maxFiles + 1
	}
	for i := start; i < len(m.fileList) && i < start+maxFiles; i++ {
		if i == m.selectedFile {
			sb.WriteString(activeStyle.Render("> " + m.fileList[i] + " <"))
		} else {
			sb.WriteString("  " + m.fileList[i])
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("─", width))
	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(sb.String())
}

func (m *model) statusLine() string {
	switch m.mode {
	case modeTextInput:
		what := "Text"
		if m.textPurpose == textToken {
			what = "Token name"
		}
		return fmt.Sprintf("Mode: TEXT | %s: %s█ | Enter=done, Ctrl+J=newline, Esc=cancel",
			what, strings.ReplaceAll(m.textInput, "\n", "⏎"))
	case modeFileInput:
		s := fmt.Sprintf("Mode: FILE | %s filename: %s█ | Enter=confirm, Esc=cancel", m.fileOpName(), m.input)
		if m.errorMessage != "" {
			s = errorStyle.Render("ERROR: "+m.errorMessage) + " | " + s
		}
		return s
	case modeConfirm:
		return "Mode: CONFIRM | " + m.confirmMessage()
	case modeDraw:
		return fmt.Sprintf("Mode: DRAW %s | hjkl=draw, Enter/d=finish, Esc=cancel", m.tool)
	case modeErase:
		return "Mode: ERASE | hjkl=erase, Enter/e=finish"
	case modeMove, modeMoveToken:
		return "Mode: " + m.mode.String() + " | hjkl=move, Enter=finish, Esc=cancel"
	}

	modeStr := m.mode.String()
	if m.panMode {
		modeStr = "PAN"
	}
	p := m.cursorWorld()
	view := "GM"
	if m.mapView == render.ViewPlayer {
		view = "player"
	}
	status := fmt.Sprintf("Mode: %s | %s | (%.1f,%.1f) | %s view", modeStr, m.targetName(), p.X, p.Y, view)
	if m.fogOfWar {
		status += " | fog"
	}
	if m.filled {
		status += " | filled"
	}
	switch {
	case m.errorMessage != "":
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		status += " | " + m.successMessage
	default:
		status += " | ? for help | q to quit"
	}
	return status
}

func (m *model) confirmMessage() string {
	switch m.confirmAction {
	case confirmQuit:
		return "Quit inkmap? Unsaved changes will be lost. (y/n)"
	case confirmNewMap:
		return "Start a new map? Unsaved changes will be lost. (y/n)"
	case confirmOverwrite:
		return fmt.Sprintf("File %s already exists. Overwrite? (y/n)", m.pendingPath)
	case confirmDeleteShape:
		return "Delete this shape? (y/n)"
	case confirmDeleteToken:
		return "Delete this token? (y/n)"
	default:
		return "(y/n)"
	}
}

var helpLines = []string{
	"inkmap help",
	"===========",
	"",
	"Navigation:",
	"  h/j/k/l, arrows   Move cursor (Shift for 4x)",
	"  z                 Toggle pan mode",
	"  + / -             Zoom in / out",
	"  0                 Center the map",
	"",
	"Layers and views:",
	"  tab / shift+tab   Cycle the active layer",
	"  v                 Toggle GM / player view",
	"  f                 Toggle fog of war",
	"",
	"Drawing (active layer):",
	"  1-4               Tool: freehand, line, rectangle, circle",
	"  F                 Toggle filled shapes",
	"  d                 Draw; move the cursor, Enter to finish",
	"  e                 Erase; move the cursor, Enter to finish",
	"  m                 Move the shape under the cursor",
	"  x                 Delete the shape under the cursor",
	"  t                 Add text at the cursor",
	"  E                 Edit the text under the cursor",
	"",
	"Tokens:",
	"  o                 Add a token at the cursor",
	"  M                 Move the token under the cursor",
	"  b                 Toggle bloodied",
	"  X                 Delete the token under the cursor",
	"",
	"History and files:",
	"  u / U             Undo / redo on the active layer",
	"  w                 Save        O  Open        n  New map",
	"  p                 Export PNG, PDF or TXT by extension",
	"  y                 Copy the active layer to the clipboard",
	"  q                 Quit",
	"",
	"Press any key to return.",
}

func (m *model) helpView() string {
	lines := helpLines
	if m.height > 0 && len(lines) > m.height {
		lines = lines[:m.height]
	}
	return titleStyle.Render(lines[0]) + "\n" + strings.Join(lines[1:], "\n")
}
