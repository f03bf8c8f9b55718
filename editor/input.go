package editor

import (
	"errors"
	"fmt"
	"os"

	"linegrid/events"
	"linegrid/export"
	"linegrid/grid"
	"linegrid/session"
	"linegrid/ui"

	"github.com/gdamore/tcell/v2"
)

func (e *Editor) handleKey(ev *tcell.EventKey) {
	if e.pasting {
		if ev.Key() == tcell.KeyRune {
			e.pasteBuf = append(e.pasteBuf, ev.Rune())
		} else if ev.Key() == tcell.KeyEnter {
			e.pasteBuf = append(e.pasteBuf, '\n')
		} else if ev.Key() == tcell.KeyTab {
			e.pasteBuf = append(e.pasteBuf, '\t')
		}
		return
	}
	if e.palette != nil {
		e.palette.HandleKey(ev)
		return
	}
	if e.dialog != nil {
		e.dialog.HandleKey(ev)
		return
	}
	e.dispatchKey(ev.Key(), ev.Rune(), ev.Modifiers())
}

// dispatchKey maps one key press onto the active grid.
func (e *Editor) dispatchKey(key tcell.Key, ch rune, mod tcell.ModMask) {
	if key != tcell.KeyCtrlQ {
		e.quitPending = false
	}
	tab := e.activeTab()
	if tab == nil {
		return
	}

	switch key {
	case tcell.KeyCtrlQ:
		e.handleQuit()
		return
	case tcell.KeyF1:
		e.openHelpDialog()
		return
	case tcell.KeyCtrlP:
		e.openPalette()
		return
	case tcell.KeyTab:
		e.tabBar.Next(1)
		return
	case tcell.KeyBacktab:
		e.tabBar.Next(-1)
		return
	case tcell.KeyCtrlE:
		e.beginEdit(tab)
		return
	case tcell.KeyCtrlS:
		e.save(tab, nil)
		return
	case tcell.KeyCtrlW:
		e.cancelEdit(tab)
		return
	case tcell.KeyCtrlR:
		e.reload(tab)
		return
	case tcell.KeyCtrlN:
		e.insertRow(tab)
		return
	case tcell.KeyCtrlK:
		e.deleteRow(tab)
		return
	case tcell.KeyCtrlT:
		e.openAddSectionDialog(tab)
		return
	case tcell.KeyF2:
		e.openRenameSectionDialog(tab)
		return
	case tcell.KeyCtrlD:
		e.confirmRemoveSection(tab)
		return
	case tcell.KeyCtrlO:
		e.openExportDialog(tab)
		return
	}

	if mod&tcell.ModAlt != 0 && (key == tcell.KeyUp || key == tcell.KeyDown) {
		dir := grid.Up
		if key == tcell.KeyDown {
			dir = grid.Down
		}
		e.moveRow(tab, dir)
		return
	}

	ev, ok := busEvent(key, ch, mod)
	if !ok {
		return
	}
	if !e.bus.Publish(ev) {
		e.unhandled(tab, ev)
		return
	}
	e.follow(tab)
}

// busEvent translates a key into a document-level event.
func busEvent(key tcell.Key, ch rune, mod tcell.ModMask) (events.Event, bool) {
	shift := mod&tcell.ModShift != 0
	switch key {
	case tcell.KeyCtrlC:
		return events.Event{Action: events.ActionCopy}, true
	case tcell.KeyCtrlX:
		return events.Event{Action: events.ActionCut}, true
	case tcell.KeyCtrlV:
		return events.Event{Action: events.ActionPaste}, true
	case tcell.KeyCtrlZ:
		return events.Event{Action: events.ActionUndo}, true
	case tcell.KeyCtrlY:
		return events.Event{Action: events.ActionRedo}, true
	case tcell.KeyCtrlA:
		return events.Event{Action: events.ActionSelectAll}, true
	case tcell.KeyDelete:
		return events.Event{Action: events.ActionDelete}, true
	case tcell.KeyEnter:
		return events.Event{Action: events.ActionCommit}, true
	case tcell.KeyEscape:
		return events.Event{Action: events.ActionEscape}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return events.Event{Action: events.ActionBackspace}, true
	case tcell.KeyRune:
		return events.Event{Action: events.ActionType, Text: string(ch)}, true
	}

	var dRow, dField int
	switch key {
	case tcell.KeyUp:
		dRow = -1
	case tcell.KeyDown:
		dRow = 1
	case tcell.KeyLeft:
		dField = -1
	case tcell.KeyRight:
		dField = 1
	default:
		return events.Event{}, false
	}
	action := events.ActionMove
	if shift {
		action = events.ActionExtend
	}
	return events.Event{Action: action, DRow: dRow, DField: dField}, true
}

// unhandled covers keys no editing grid consumed: the active grid is only
// being viewed.
func (e *Editor) unhandled(tab *gridTab, ev events.Event) {
	switch ev.Action {
	case events.ActionMove, events.ActionExtend:
		tab.view.ScrollBy(ev.DRow)
	case events.ActionNone:
	default:
		if tab.sess.State() == session.Viewing {
			e.report(session.ErrNotEditing)
		}
	}
}

// follow keeps the focused cell on screen.
func (e *Editor) follow(tab *gridTab) {
	if a, ok := e.focusCell(tab); ok {
		tab.view.EnsureVisible(a)
	}
}

func (e *Editor) handlePaste(ev *tcell.EventPaste) {
	if ev.Start() {
		e.pasting = true
		e.pasteBuf = e.pasteBuf[:0]
		return
	}
	if !ev.End() || !e.pasting {
		return
	}
	e.pasting = false
	text := string(e.pasteBuf)
	if text == "" || e.dialog != nil || e.palette != nil {
		return
	}
	tab := e.activeTab()
	if !e.bus.Publish(events.Event{Action: events.ActionPaste, Text: text}) {
		e.report(session.ErrNotEditing)
		return
	}
	e.follow(tab)
}

func (e *Editor) handleMouse(ev *tcell.EventMouse) {
	if e.palette != nil || (e.dialog != nil && e.dialog.Type != ui.DialogInput) {
		return
	}
	mx, my := ev.Position()
	btn := ev.Buttons()

	if my == 0 && !e.mouseDown {
		e.tabBar.HandleMouse(ev)
		return
	}
	tab := e.activeTab()
	if tab == nil {
		return
	}
	if btn&(tcell.WheelUp|tcell.WheelDown|tcell.WheelLeft|tcell.WheelRight) != 0 {
		tab.view.HandleMouse(ev)
		return
	}

	sess := tab.sess
	switch {
	case btn&tcell.Button1 != 0:
		addr, ok := tab.view.CellAt(mx, my)
		if !e.mouseDown {
			e.mouseDown = true
			if !ok {
				return
			}
			var err error
			if ev.Modifiers()&tcell.ModShift != 0 {
				err = sess.ShiftClick(addr)
			} else {
				err = sess.MouseDown(addr)
			}
			if err != nil && !errors.Is(err, session.ErrNotSelectable) {
				e.report(err)
			}
			return
		}
		if ok {
			if err := sess.MouseEnter(addr); err != nil && !errors.Is(err, session.ErrNotEditing) {
				e.report(err)
			}
		}
	case btn == tcell.ButtonNone && e.mouseDown:
		// Release ends the drag wherever the pointer is.
		e.mouseDown = false
		mev := events.Event{Action: events.ActionMouseUp}
		if addr, ok := tab.view.CellAt(mx, my); ok {
			mev.Target = &addr
		}
		e.bus.Publish(mev)
	}
}

// anchorRow is the row of the selection anchor or open edit.
func (e *Editor) anchorRow(tab *gridTab) (grid.Address, bool) {
	if a, ok := e.focusCell(tab); ok {
		return a, true
	}
	return tab.sess.Selection().Anchor()
}

func (e *Editor) insertRow(tab *gridTab) {
	g := tab.sess.Grid()
	a, ok := e.anchorRow(tab)
	if !ok {
		if len(g.Sections) == 0 {
			e.setTemporaryError("Add a section first (Ctrl+T)")
			return
		}
		last := g.Sections[len(g.Sections)-1]
		a = grid.Address{Section: last.ID}
		if n := len(last.Rows); n > 0 {
			a.Row = last.Rows[n-1].ID
		}
	}
	row, err := tab.sess.InsertRow(a.Section, a.Row)
	if err != nil {
		e.report(err)
		return
	}
	fields := tab.sess.Schema().EditableFields()
	if len(fields) > 0 {
		cell := grid.Address{Section: a.Section, Row: row.ID, Field: fields[0]}
		if err := tab.sess.Click(cell); err == nil {
			tab.view.EnsureVisible(cell)
		}
	}
}

func (e *Editor) deleteRow(tab *gridTab) {
	a, ok := e.anchorRow(tab)
	if !ok {
		e.setTemporaryError("Select a row first")
		return
	}
	if err := tab.sess.DeleteRow(a.Section, a.Row); err != nil {
		e.report(err)
	}
}

func (e *Editor) moveRow(tab *gridTab, dir grid.Direction) {
	a, ok := e.anchorRow(tab)
	if !ok {
		return
	}
	if _, err := tab.sess.MoveRow(a.Section, a.Row, dir); err != nil {
		e.report(err)
		return
	}
	e.follow(tab)
}

func (e *Editor) openAddSectionDialog(tab *gridTab) {
	if tab.sess.State() != session.Editing {
		e.report(session.ErrNotEditing)
		return
	}
	d := ui.NewInputDialog("New section: ", "")
	d.OnSubmit = func(name string) {
		e.dialog = nil
		sec, err := tab.sess.AddSection(name)
		if err != nil {
			e.report(err)
			return
		}
		if _, err := tab.sess.InsertRow(sec.ID, ""); err != nil {
			e.report(err)
		}
	}
	d.OnCancel = func() { e.dialog = nil }
	e.dialog = d
}

func (e *Editor) currentSection(tab *gridTab) (*grid.Section, bool) {
	a, ok := e.anchorRow(tab)
	if !ok {
		return nil, false
	}
	sec, err := tab.sess.Grid().Section(a.Section)
	return sec, err == nil
}

func (e *Editor) openRenameSectionDialog(tab *gridTab) {
	sec, ok := e.currentSection(tab)
	if !ok {
		e.setTemporaryError("Select a cell in the section to rename")
		return
	}
	id := sec.ID
	d := ui.NewInputDialog("Rename section: ", sec.Name)
	d.OnSubmit = func(name string) {
		e.dialog = nil
		if err := tab.sess.RenameSection(id, name); err != nil {
			e.report(err)
		}
	}
	d.OnCancel = func() { e.dialog = nil }
	e.dialog = d
}

func (e *Editor) confirmRemoveSection(tab *gridTab) {
	sec, ok := e.currentSection(tab)
	if !ok {
		e.setTemporaryError("Select a cell in the section to remove")
		return
	}
	id := sec.ID
	d := ui.NewDeleteConfirmDialog(fmt.Sprintf("section %q and its %d rows", sec.Name, len(sec.Rows)))
	d.OnConfirm = func(answer rune) {
		e.dialog = nil
		if answer != 'y' {
			return
		}
		if err := tab.sess.RemoveSection(id); err != nil {
			e.report(err)
		}
	}
	e.dialog = d
}

// openExportDialog writes the live grid, saved or not, to a workbook.
func (e *Editor) openExportDialog(tab *gridTab) {
	s := tab.sess.Schema()
	d := ui.NewInputDialog("Export to: ", fmt.Sprintf("%s-%s.xlsx", e.project, s.Type))
	d.OnSubmit = func(path string) {
		e.dialog = nil
		if path == "" {
			return
		}
		if err := e.exportTo(tab, path); err != nil {
			e.setTemporaryError("Export failed: " + err.Error())
			return
		}
		e.setTemporaryMessage("Exported to " + path)
	}
	d.OnCancel = func() { e.dialog = nil }
	e.dialog = d
}

func (e *Editor) exportTo(tab *gridTab, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, tab.sess.Schema(), tab.sess.Grid().Sections); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (e *Editor) openHelpDialog() {
	d := ui.NewHelpDialog()
	d.OnCancel = func() { e.dialog = nil }
	e.dialog = d
}

func (e *Editor) openPalette() {
	tab := e.activeTab()
	cmds := []ui.Command{
		{Name: "Edit grid", Shortcut: "Ctrl+E", Action: func() { e.beginEdit(tab) }},
		{Name: "Save", Shortcut: "Ctrl+S", Action: func() { e.save(tab, nil) }},
		{Name: "Cancel editing", Shortcut: "Ctrl+W", Action: func() { e.cancelEdit(tab) }},
		{Name: "Reload from store", Shortcut: "Ctrl+R", Action: func() { e.reload(tab) }},
		{Name: "Undo", Shortcut: "Ctrl+Z", Action: func() { e.bus.Publish(events.Event{Action: events.ActionUndo}) }},
		{Name: "Redo", Shortcut: "Ctrl+Y", Action: func() { e.bus.Publish(events.Event{Action: events.ActionRedo}) }},
		{Name: "Select all", Shortcut: "Ctrl+A", Action: func() { e.bus.Publish(events.Event{Action: events.ActionSelectAll}) }},
		{Name: "Insert row", Shortcut: "Ctrl+N", Action: func() { e.insertRow(tab) }},
		{Name: "Delete row", Shortcut: "Ctrl+K", Action: func() { e.deleteRow(tab) }},
		{Name: "Add section", Shortcut: "Ctrl+T", Action: func() { e.openAddSectionDialog(tab) }},
		{Name: "Rename section", Shortcut: "F2", Action: func() { e.openRenameSectionDialog(tab) }},
		{Name: "Remove section", Shortcut: "Ctrl+D", Action: func() { e.confirmRemoveSection(tab) }},
		{Name: "Export to xlsx", Shortcut: "Ctrl+O", Action: func() { e.openExportDialog(tab) }},
		{Name: "Help", Shortcut: "F1", Action: e.openHelpDialog},
		{Name: "Quit", Shortcut: "Ctrl+Q", Action: e.handleQuit},
	}
	for _, sec := range tab.sess.Grid().Sections {
		if len(sec.Rows) == 0 {
			continue
		}
		fields := tab.sess.Schema().EditableFields()
		if len(fields) == 0 {
			break
		}
		a := grid.Address{Section: sec.ID, Row: sec.Rows[0].ID, Field: fields[0]}
		cmds = append(cmds, ui.Command{
			Name:   "Go to section: " + sec.Name,
			Action: func() { tab.view.EnsureVisible(a) },
		})
	}
	p := ui.NewPalette("Commands", cmds, e.cfg.GetTheme())
	p.OnClose = func() { e.palette = nil }
	e.palette = p
}
