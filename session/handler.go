package session

import "linegrid/events"

// handle is the session's bus subscriber. It only consumes events while
// Editing; during a save they fall through to other subscribers.
func (s *Session) handle(ev events.Event) bool {
	if s.state != Editing {
		return false
	}
	var err error
	switch ev.Action {
	case events.ActionCopy:
		_, err = s.Copy()
	case events.ActionCut:
		_, err = s.Cut()
	case events.ActionPaste:
		if ev.Text != "" {
			_, err = s.Paste(ev.Text)
		} else {
			_, err = s.PasteFromBoard()
		}
	case events.ActionUndo:
		_, err = s.Undo()
	case events.ActionRedo:
		_, err = s.Redo()
	case events.ActionSelectAll:
		err = s.SelectAll()
	case events.ActionDelete:
		_, err = s.DeleteSelection()
	case events.ActionCommit:
		if s.edit != nil {
			err = s.CommitEdit()
		} else if a, ok := s.sel.Anchor(); ok && !s.sel.AllSelected() {
			s.sel.Click(s.grid, a)
			s.openEdit(a, s.grid.Display(a))
		}
	case events.ActionEscape:
		if s.edit != nil {
			err = s.CancelEdit()
		} else {
			s.sel.Clear()
		}
	case events.ActionMouseUp:
		// Another grid may own the drag.
		if !s.sel.Dragging() {
			return false
		}
		err = s.MouseUp()
	case events.ActionMove:
		err = s.Move(ev.DRow, ev.DField)
	case events.ActionExtend:
		err = s.Extend(ev.DRow, ev.DField)
	case events.ActionType:
		err = s.TypeText(ev.Text)
	case events.ActionBackspace:
		err = s.Backspace()
	default:
		return false
	}
	if err != nil {
		s.log.Warn("event failed", "action", ev.Action, "err", err)
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	}
	return true
}
