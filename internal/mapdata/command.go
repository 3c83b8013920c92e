package mapdata

import "inkmap/internal/shape"

// CommandType selects which of the Command payloads is in use.
type CommandType int

const (
	// CommandReplaceShapes removes Deleted from and adds Created to a layer.
	CommandReplaceShapes CommandType = iota
	// CommandReplaceTokens removes and adds whole tokens.
	CommandReplaceTokens
	// CommandTokenAttributes swaps tokens between before and after snapshots.
	CommandTokenAttributes
)

// tokenEdit is the before/after snapshot of one token.
type tokenEdit struct {
	token  *Token
	before Token
	after  Token
}

// Command is one undoable edit, stored as data: the shapes or tokens it adds
// and removes, or the attribute snapshots it swaps.
type Command struct {
	Type CommandType

	lines   *LineCollection
	created []shape.Shape
	deleted []shape.Shape

	// positions holds where each removed shape or token sat when it was
	// removed, so undo can put it back in the same place.
	positions []int

	tokens        *TokenCollection
	addedTokens   []*Token
	removedTokens []*Token
	edits         []tokenEdit
}

func replaceShapesCommand(lines *LineCollection, deleted, created []shape.Shape) *Command {
	return &Command{Type: CommandReplaceShapes, lines: lines, deleted: deleted, created: created}
}

func replaceTokensCommand(tokens *TokenCollection, removed, added []*Token) *Command {
	return &Command{Type: CommandReplaceTokens, tokens: tokens, removedTokens: removed, addedTokens: added}
}

// IsNoop reports whether executing the command would change nothing.
func (c *Command) IsNoop() bool {
	switch c.Type {
	case CommandReplaceShapes:
		return len(c.created) == 0 && len(c.deleted) == 0
	case CommandReplaceTokens:
		return len(c.addedTokens) == 0 && len(c.removedTokens) == 0
	case CommandTokenAttributes:
		for _, e := range c.edits {
			if e.before != e.after {
				return false
			}
		}
		return true
	}
	return true
}

func (c *Command) execute() {
	switch c.Type {
	case CommandReplaceShapes:
		c.positions = c.positions[:0]
		for _, s := range c.deleted {
			c.positions = append(c.positions, c.lines.remove(s))
		}
		for _, s := range c.created {
			c.lines.insert(s)
		}
	case CommandReplaceTokens:
		c.positions = c.positions[:0]
		for _, t := range c.removedTokens {
			c.positions = append(c.positions, c.tokens.remove(t))
		}
		for _, t := range c.addedTokens {
			c.tokens.insert(t)
		}
	case CommandTokenAttributes:
		for _, e := range c.edits {
			*e.token = e.after
		}
	}
}

func (c *Command) undo() {
	switch c.Type {
	case CommandReplaceShapes:
		for _, s := range c.created {
			c.lines.remove(s)
		}
		for i := len(c.deleted) - 1; i >= 0; i-- {
			c.lines.insertAt(c.deleted[i], c.positions[i])
		}
	case CommandReplaceTokens:
		for _, t := range c.addedTokens {
			c.tokens.remove(t)
		}
		for i := len(c.removedTokens) - 1; i >= 0; i-- {
			c.tokens.insertAt(c.removedTokens[i], c.positions[i])
		}
	case CommandTokenAttributes:
		for _, e := range c.edits {
			*e.token = e.before
		}
	}
}
