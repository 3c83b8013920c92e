package mapdata

// CommandHistory is a layer's undo and redo stacks.
//
// Replaying the undo stack from an empty layer reproduces the current state.
// Any freshly executed command clears the redo stack.
type CommandHistory struct {
	undoStack []*Command
	redoStack []*Command
}

func NewCommandHistory() *CommandHistory {
	return &CommandHistory{}
}

// Execute applies c and records it. No-op commands are dropped.
func (h *CommandHistory) Execute(c *Command) {
	if c == nil || c.IsNoop() {
		return
	}
	c.execute()
	h.push(c)
}

// AddToCommandHistory records a command whose effect has already been
// applied, such as a token drag that mutated the token directly.
func (h *CommandHistory) AddToCommandHistory(c *Command) {
	if c == nil || c.IsNoop() {
		return
	}
	h.push(c)
}

func (h *CommandHistory) push(c *Command) {
	h.undoStack = append(h.undoStack, c)
	h.redoStack = h.redoStack[:0]
}

// Undo reverts the latest command. It reports false when there was nothing
// to undo.
func (h *CommandHistory) Undo() bool {
	if len(h.undoStack) == 0 {
		return false
	}
	last := len(h.undoStack) - 1
	c := h.undoStack[last]
	h.undoStack = h.undoStack[:last]

	c.undo()
	h.redoStack = append(h.redoStack, c)
	return true
}

// Redo re-applies the most recently undone command.
func (h *CommandHistory) Redo() bool {
	if len(h.redoStack) == 0 {
		return false
	}
	last := len(h.redoStack) - 1
	c := h.redoStack[last]
	h.redoStack = h.redoStack[:last]

	c.execute()
	h.undoStack = append(h.undoStack, c)
	return true
}

func (h *CommandHistory) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *CommandHistory) CanRedo() bool { return len(h.redoStack) > 0 }

// Clear forgets all history without touching the layer contents.
func (h *CommandHistory) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
