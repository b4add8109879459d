package scene

import (
	"errors"

	"github.com/san-kum/artgrow/internal/growth"
)

var (
	ErrNothingToUndo = errors.New("scene: nothing to undo")
	ErrNothingToRedo = errors.New("scene: nothing to redo")
)

// UndoStack is a linear undo/redo history. Idx is the number of commands
// currently applied; pushing after an undo discards the redo tail.
type UndoStack struct {
	cmds  []growth.Command
	idx   int
	limit int
}

// NewUndoStack keeps at most limit commands; limit <= 0 means unbounded.
func NewUndoStack(limit int) *UndoStack {
	return &UndoStack{limit: limit}
}

func (u *UndoStack) Push(c growth.Command) {
	u.cmds = append(u.cmds[:u.idx], c)
	if u.limit > 0 && len(u.cmds) > u.limit {
		drop := len(u.cmds) - u.limit
		u.cmds = append(u.cmds[:0], u.cmds[drop:]...)
	}
	u.idx = len(u.cmds)
}

func (u *UndoStack) Undo() (growth.Command, error) {
	if u.idx == 0 {
		return nil, ErrNothingToUndo
	}
	c := u.cmds[u.idx-1]
	if err := c.Undo(); err != nil {
		return nil, err
	}
	u.idx--
	return c, nil
}

func (u *UndoStack) Redo() (growth.Command, error) {
	if u.idx == len(u.cmds) {
		return nil, ErrNothingToRedo
	}
	c := u.cmds[u.idx]
	if err := c.Redo(); err != nil {
		return nil, err
	}
	u.idx++
	return c, nil
}

func (u *UndoStack) CanUndo() bool { return u.idx > 0 }
func (u *UndoStack) CanRedo() bool { return u.idx < len(u.cmds) }
func (u *UndoStack) Len() int      { return len(u.cmds) }
