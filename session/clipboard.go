package session

import (
	"fmt"

	"linegrid/clipboardx"
	"linegrid/grid"
)

// Copy writes the selection to the board as tab-separated text and returns
// it. An empty selection copies nothing.
func (s *Session) Copy() (string, error) {
	if err := s.requireEditing(); err != nil {
		return "", err
	}
	if err := s.commitOpenEdit(); err != nil {
		return "", err
	}
	if s.sel.Empty() {
		return "", nil
	}
	text := clipboardx.Encode(s.grid, s.sel.Cells())
	if err := s.opts.Board.Write(text); err != nil {
		s.log.Warn("clipboard write failed", "err", err)
		return text, fmt.Errorf("copy: %w", err)
	}
	return text, nil
}

// Cut copies the selection, then clears it to defaults.
func (s *Session) Cut() (string, error) {
	text, err := s.Copy()
	if err != nil || text == "" {
		return text, err
	}
	if _, err := s.DeleteSelection(); err != nil {
		return text, err
	}
	return text, nil
}

// pasteOrigin is the top-left cell of the selected rectangle, else the open
// edit cell, else the first editable cell of the grid.
func (s *Session) pasteOrigin() (grid.Address, error) {
	if r, ok := s.sel.Rect(s.grid); ok {
		rows := s.grid.RowIDs(r.Section)
		return grid.Address{Section: r.Section, Row: rows[r.Row0], Field: s.sel.Fields()[r.Field0]}, nil
	}
	if a, ok := s.sel.Anchor(); ok {
		return a, nil
	}
	if s.edit != nil {
		return s.edit.addr, nil
	}
	return s.grid.FirstCell()
}

// Paste writes clipboard text into the grid at the paste origin, growing the
// target section as needed. With every cell selected the text is written back
// section by section instead. Every paste that writes cells records exactly
// one history entry and clears the selection.
func (s *Session) Paste(text string) (clipboardx.PasteResult, error) {
	var res clipboardx.PasteResult
	if err := s.requireEditing(); err != nil {
		return res, err
	}
	matrix := clipboardx.Decode(s.schema, text)
	if len(matrix) == 0 {
		return res, nil
	}
	all := s.sel.AllSelected()
	var origin grid.Address
	var err error
	if !all {
		if origin, err = s.pasteOrigin(); err != nil {
			return res, fmt.Errorf("paste: %w", err)
		}
	}
	if err = s.commitOpenEdit(); err != nil {
		return res, err
	}
	if all {
		res, err = clipboardx.ApplyAll(s.grid, matrix)
	} else {
		res, err = clipboardx.Apply(s.grid, origin, matrix)
	}
	if err != nil {
		// Apply stops part way; keep what it wrote in history.
		s.record(false)
		s.notify()
		return res, fmt.Errorf("paste: %w", err)
	}
	s.record(true)
	s.sel.Clear()
	s.notify()
	s.log.Debug("pasted", "rows", res.Rows, "cells", res.Cells, "added", res.RowsAdded)
	return res, nil
}

// PasteFromBoard reads the board and pastes its text.
func (s *Session) PasteFromBoard() (clipboardx.PasteResult, error) {
	if err := s.requireEditing(); err != nil {
		return clipboardx.PasteResult{}, err
	}
	text, err := s.opts.Board.Read()
	if err != nil {
		return clipboardx.PasteResult{}, fmt.Errorf("paste: %w", err)
	}
	return s.Paste(text)
}
