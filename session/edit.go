package session

import (
	"errors"
	"unicode/utf8"

	"linegrid/grid"
)

// Click selects a single cell and opens it for editing.
func (s *Session) Click(a grid.Address) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit != nil && s.edit.addr == a {
		return nil
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if !s.sel.Click(s.grid, a) {
		return ErrNotSelectable
	}
	s.openEdit(a, s.grid.Display(a))
	return nil
}

// ShiftClick extends the selection rectangle to a without opening an edit.
// A cell in another section leaves the selection unchanged.
func (s *Session) ShiftClick(a grid.Address) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if !s.sel.ShiftClick(s.grid, a) {
		return ErrNotSelectable
	}
	return nil
}

func (s *Session) MouseDown(a grid.Address) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit != nil && s.edit.addr == a {
		return nil
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if !s.sel.MouseDown(s.grid, a) {
		return ErrNotSelectable
	}
	return nil
}

// MouseEnter extends an active drag. It is a no-op without one.
func (s *Session) MouseEnter(a grid.Address) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	s.sel.MouseEnter(s.grid, a)
	return nil
}

// MouseUp ends a drag wherever the pointer is. A drag that never left its
// first cell opens that cell like a click.
func (s *Session) MouseUp() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if !s.sel.MouseUp() {
		return nil
	}
	a, _ := s.sel.Anchor()
	s.openEdit(a, s.grid.Display(a))
	return nil
}

func (s *Session) SelectAll() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	s.sel.SelectAll(s.grid)
	return nil
}

// ClearSelection drops the selection and any open edit, committing it first.
func (s *Session) ClearSelection() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	s.sel.Clear()
	return nil
}

// Move collapses the selection onto the neighbouring cell.
func (s *Session) Move(dRow, dField int) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if s.sel.Empty() {
		// Navigation never creates rows; an empty first section has
		// nothing to land on.
		a, err := s.grid.FirstExisting()
		if errors.Is(err, grid.ErrNoSuchRow) {
			return nil
		}
		if err != nil {
			return err
		}
		s.sel.Click(s.grid, a)
		return nil
	}
	s.sel.Move(s.grid, dRow, dField)
	return nil
}

// Extend moves the focus while keeping the anchor.
func (s *Session) Extend(dRow, dField int) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	s.sel.Extend(s.grid, dRow, dField)
	return nil
}

func (s *Session) openEdit(a grid.Address, draft string) {
	s.edit = &cellEdit{addr: a, draft: draft}
}

func (s *Session) closeEdit() { s.edit = nil }

// SetDraft replaces the text of the open edit.
func (s *Session) SetDraft(text string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit == nil {
		return ErrNoEdit
	}
	s.edit.draft = text
	return nil
}

// TypeText appends to the open edit, or opens the anchor cell with text
// replacing its value.
func (s *Session) TypeText(text string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit != nil {
		s.edit.draft += text
		return nil
	}
	a, ok := s.sel.Anchor()
	if !ok {
		return ErrNoEdit
	}
	if s.sel.AllSelected() || s.sel.Len() > 1 {
		s.sel.Click(s.grid, a)
	}
	s.openEdit(a, text)
	return nil
}

// Backspace drops the last rune of the draft, opening the anchor cell first
// when nothing is being edited.
func (s *Session) Backspace() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit == nil {
		a, ok := s.sel.Anchor()
		if !ok {
			return ErrNoEdit
		}
		s.sel.Click(s.grid, a)
		s.openEdit(a, s.grid.Display(a))
	}
	_, size := utf8.DecodeLastRuneInString(s.edit.draft)
	s.edit.draft = s.edit.draft[:len(s.edit.draft)-size]
	return nil
}

// CommitEdit writes the draft through the cell's coercion and records one
// history entry if anything changed.
func (s *Session) CommitEdit() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	return s.commitOpenEdit()
}

func (s *Session) commitOpenEdit() error {
	if s.edit == nil {
		return nil
	}
	e := s.edit
	s.edit = nil
	if err := s.grid.SetCellValue(e.addr, e.draft); err != nil {
		return err
	}
	s.record(false)
	s.notify()
	return nil
}

// CancelEdit discards the draft.
func (s *Session) CancelEdit() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.edit == nil {
		return ErrNoEdit
	}
	s.closeEdit()
	return nil
}

// SetCell writes raw into a directly, as a committed single-cell edit.
func (s *Session) SetCell(a grid.Address, raw string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if err := s.grid.SetCellValue(a, raw); err != nil {
		return err
	}
	s.record(false)
	s.notify()
	return nil
}

// DeleteSelection resets every selected cell to its field default.
func (s *Session) DeleteSelection() (int, error) {
	if err := s.requireEditing(); err != nil {
		return 0, err
	}
	if err := s.commitOpenEdit(); err != nil {
		return 0, err
	}
	if s.sel.Empty() {
		return 0, nil
	}
	n := s.grid.ClearCells(s.sel.Cells())
	s.record(false)
	s.notify()
	return n, nil
}

// InsertRow adds a default row below afterRowID, or at the end of the
// section when afterRowID is empty.
func (s *Session) InsertRow(sectionID, afterRowID string) (grid.Row, error) {
	if err := s.requireEditing(); err != nil {
		return grid.Row{}, err
	}
	if err := s.commitOpenEdit(); err != nil {
		return grid.Row{}, err
	}
	row, err := s.grid.InsertRowAfter(sectionID, afterRowID)
	if err != nil {
		return grid.Row{}, err
	}
	s.refreshSelection()
	s.record(false)
	s.notify()
	return row, nil
}

func (s *Session) DeleteRow(sectionID, rowID string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if err := s.grid.DeleteRow(sectionID, rowID); err != nil {
		return err
	}
	s.refreshSelection()
	s.record(false)
	s.notify()
	return nil
}

// MoveRow swaps a row with its neighbour and reports whether it moved.
func (s *Session) MoveRow(sectionID, rowID string, dir grid.Direction) (bool, error) {
	if err := s.requireEditing(); err != nil {
		return false, err
	}
	if err := s.commitOpenEdit(); err != nil {
		return false, err
	}
	moved, err := s.grid.MoveRow(sectionID, rowID, dir)
	if err != nil || !moved {
		return moved, err
	}
	s.refreshSelection()
	s.record(false)
	s.notify()
	return true, nil
}

func (s *Session) AddSection(name string) (grid.Section, error) {
	if err := s.requireEditing(); err != nil {
		return grid.Section{}, err
	}
	if err := s.commitOpenEdit(); err != nil {
		return grid.Section{}, err
	}
	sec := s.grid.AddSection(name)
	s.record(false)
	s.notify()
	return sec, nil
}

func (s *Session) RenameSection(id, name string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if err := s.grid.RenameSection(id, name); err != nil {
		return err
	}
	s.record(false)
	s.notify()
	return nil
}

func (s *Session) RemoveSection(id string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.commitOpenEdit(); err != nil {
		return err
	}
	if err := s.grid.RemoveSection(id); err != nil {
		return err
	}
	s.refreshSelection()
	s.record(false)
	s.notify()
	return nil
}

// refreshSelection re-derives the selection after rows moved or vanished.
func (s *Session) refreshSelection() {
	if s.sel.AllSelected() {
		s.sel.SelectAll(s.grid)
		return
	}
	anchor, ok := s.sel.Anchor()
	if !ok {
		return
	}
	focus, hasFocus := s.sel.Focus()
	if !s.sel.Click(s.grid, anchor) {
		s.sel.Clear()
		return
	}
	if hasFocus && focus != anchor && !s.sel.ShiftClick(s.grid, focus) {
		s.sel.Click(s.grid, anchor)
	}
}

// Undo restores the previous history entry. Any open edit is discarded and
// the selection cleared. It reports false at the oldest entry.
func (s *Session) Undo() (bool, error) {
	if err := s.requireEditing(); err != nil {
		return false, err
	}
	s.closeEdit()
	snap, ok := s.history.Undo()
	if !ok {
		return false, nil
	}
	s.grid.Restore(snap)
	s.sel.Clear()
	s.notify()
	return true, nil
}

func (s *Session) Redo() (bool, error) {
	if err := s.requireEditing(); err != nil {
		return false, err
	}
	s.closeEdit()
	snap, ok := s.history.Redo()
	if !ok {
		return false, nil
	}
	s.grid.Restore(snap)
	s.sel.Clear()
	s.notify()
	return true, nil
}

// Restore replaces the live grid with sections as one undoable step. Hosts
// use it to bring back unsaved work after a crash.
func (s *Session) Restore(sections []grid.Section) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	s.closeEdit()
	s.grid.Restore(grid.Snapshot(sections))
	s.sel.Clear()
	s.record(false)
	s.notify()
	return nil
}
