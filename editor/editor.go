package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"linegrid/clipboardx"
	"linegrid/config"
	"linegrid/events"
	"linegrid/grid"
	"linegrid/schema"
	"linegrid/session"
	"linegrid/store"
	"linegrid/store/filestore"
	"linegrid/ui"

	"github.com/gdamore/tcell/v2"
)

type Component interface {
	Render(screen tcell.Screen, x, y, width, height int)
	HandleKey(ev *tcell.EventKey) bool
	HandleMouse(ev *tcell.EventMouse) bool
	IsFocused() bool
	SetFocused(bool)
}

// Watcher reports outside changes to stored grids.
type Watcher interface {
	Watch(ctx context.Context, projectID, schemaType string) (<-chan filestore.Change, error)
}

type Options struct {
	Store store.Store
	Board clipboardx.Board
	// Watcher is optional; without it outside changes go unnoticed.
	Watcher Watcher
	Logger  *slog.Logger
}

// gridTab is one schema's grid of the open project.
type gridTab struct {
	sess *session.Session
	view *ui.GridView

	loaded bool
	// resumeEdit re-enters Editing once a reload finishes.
	resumeEdit bool
}

type Editor struct {
	screen tcell.Screen
	cfg    *config.Config
	opts   Options
	log    *slog.Logger

	project string
	tabs    []*gridTab
	active  int
	bus     *events.Bus

	tabBar    *ui.TabBar
	statusBar *ui.StatusBar
	dialog    *ui.Dialog
	palette   *ui.Palette

	quit        bool
	quitPending bool // true after first Ctrl+Q with unsaved changes

	// Mouse drag tracking
	mouseDown bool

	// Bracketed paste collects runes until the end marker.
	pasting  bool
	pasteBuf []rune

	ctx    context.Context
	cancel context.CancelFunc

	// spawn runs blocking work off the loop and post delivers its result
	// back onto it. Tests replace both to run synchronously.
	spawn func(func())
	post  func(tcell.Event)

	// Temporary status messages
	statusMessageTime time.Time
}

// loadDoneEvent carries a finished fetch back to the event loop.
type loadDoneEvent struct {
	tcell.EventTime
	tab      *gridTab
	sections []grid.Section
	err      error
}

type saveDoneEvent struct {
	tcell.EventTime
	tab  *gridTab
	doc  store.Document
	err  error
	then func()
}

// StoreChangeEvent carries an outside change to a stored grid to the loop.
type StoreChangeEvent struct {
	tcell.EventTime
	Change filestore.Change
}

type backupTickEvent struct {
	tcell.EventTime
}

func New(cfg *config.Config, opts Options) *Editor {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Board == nil {
		opts.Board = &clipboardx.Memory{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{
		cfg:   cfg,
		opts:  opts,
		log:   opts.Logger,
		spawn: func(f func()) { go f() },
	}
}

// Run opens project with one tab per schema and blocks until the user quits.
func (e *Editor) Run(projectID string, schemas []*schema.Schema) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.EnableMouse()
	screen.EnablePaste()
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	if err := e.start(screen, projectID, schemas); err != nil {
		screen.Fini()
		return err
	}

	for !e.quit {
		e.clearExpiredMessages()
		e.render()
		ev := screen.PollEvent()
		if ev == nil {
			break
		}
		e.handleEvent(ev)
	}

	e.shutdown()
	screen.Clear()
	screen.Fini()
	return nil
}

func (e *Editor) start(screen tcell.Screen, projectID string, schemas []*schema.Schema) error {
	if len(schemas) == 0 {
		return errors.New("no schemas to edit")
	}
	e.screen = screen
	if e.post == nil {
		e.post = func(ev tcell.Event) { _ = screen.PostEvent(ev) }
	}
	e.project = projectID
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.bus = events.NewBus()

	e.tabBar = ui.NewTabBar()
	e.tabBar.OnSwitch = e.switchTab
	e.statusBar = ui.NewStatusBar()

	for _, s := range schemas {
		e.addTab(s)
	}
	e.switchTab(0)
	e.restoreViewState()

	for _, tab := range e.tabs {
		e.load(tab)
	}
	e.startWatch()
	e.startBackupTimer()
	e.log.Info("editor started", "project", projectID, "grids", len(e.tabs))
	return nil
}

func (e *Editor) addTab(s *schema.Schema) {
	tab := &gridTab{}
	tab.sess = session.New(e.project, s, session.Options{
		Store:        e.opts.Store,
		Bus:          e.bus,
		Board:        e.opts.Board,
		Logger:       e.log,
		HistoryLimit: e.cfg.HistoryLimit,
		OnDirtyChange: func(dirty bool) {
			e.tabBar.SetModified(e.indexOf(tab), dirty)
		},
		OnTransition: func(from, to session.State) {
			e.tabBar.SetEditing(e.indexOf(tab), to == session.Editing || to == session.Saving)
		},
		OnError: e.report,
	})
	tab.view = ui.NewGridView(tab.sess)
	e.tabs = append(e.tabs, tab)
	e.tabBar.AddTab(s.Type, s.Title)
}

// shutdown persists view state and drafts and releases every session.
func (e *Editor) shutdown() {
	e.SaveViewState()
	e.saveBackups()
	if e.cancel != nil {
		e.cancel()
	}
	for _, tab := range e.tabs {
		tab.sess.Close()
	}
	e.log.Info("editor stopped", "project", e.project)
}

func (e *Editor) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.screen.Sync()
	case *tcell.EventKey:
		e.handleKey(ev)
	case *tcell.EventMouse:
		e.handleMouse(ev)
	case *tcell.EventPaste:
		e.handlePaste(ev)
	case *loadDoneEvent:
		e.finishLoad(ev)
	case *saveDoneEvent:
		e.finishSave(ev)
	case *StoreChangeEvent:
		e.handleStoreChange(ev)
	case *backupTickEvent:
		e.saveBackups()
	}
}

func (e *Editor) indexOf(tab *gridTab) int {
	for i, t := range e.tabs {
		if t == tab {
			return i
		}
	}
	return -1
}

func (e *Editor) activeTab() *gridTab {
	if e.active < 0 || e.active >= len(e.tabs) {
		return nil
	}
	return e.tabs[e.active]
}

func (e *Editor) tabFor(schemaType string) *gridTab {
	for _, tab := range e.tabs {
		if tab.sess.Schema().Type == schemaType {
			return tab
		}
	}
	return nil
}

func (e *Editor) switchTab(idx int) {
	if idx < 0 || idx >= len(e.tabs) {
		return
	}
	e.active = idx
	e.tabBar.Active = idx
	e.mouseDown = false
}

// editingTab returns the tab that holds the bus, if any.
func (e *Editor) editingTab() *gridTab {
	for _, tab := range e.tabs {
		if st := tab.sess.State(); st == session.Editing || st == session.Saving {
			return tab
		}
	}
	return nil
}

func (e *Editor) load(tab *gridTab) {
	sess := tab.sess
	e.spawn(func() {
		sections, err := sess.Fetch(e.ctx)
		ev := &loadDoneEvent{tab: tab, sections: sections, err: err}
		ev.SetEventNow()
		e.post(ev)
	})
}

func (e *Editor) finishLoad(ev *loadDoneEvent) {
	tab := ev.tab
	if err := tab.sess.Install(ev.sections, ev.err); err != nil {
		if !errors.Is(err, session.ErrClosed) {
			e.setTemporaryError("Load failed: " + err.Error())
		}
		return
	}
	first := !tab.loaded
	tab.loaded = true
	e.tabBar.SetStale(e.indexOf(tab), false)
	if tab.resumeEdit {
		tab.resumeEdit = false
		e.beginEdit(tab)
	}
	if first {
		e.recoverBackup(tab)
	}
}

// beginEdit enters Editing on tab. Only one grid edits at a time so the
// bus never routes a key to a grid the user is not looking at.
func (e *Editor) beginEdit(tab *gridTab) {
	if other := e.editingTab(); other != nil && other != tab {
		e.setTemporaryError("Finish editing " + other.sess.Schema().Title + " first")
		return
	}
	if err := tab.sess.BeginEdit(); err != nil {
		e.report(err)
		return
	}
	e.quitPending = false
}

// save starts an asynchronous save of tab; then runs after a successful
// save.
func (e *Editor) save(tab *gridTab, then func()) {
	doc, err := tab.sess.BeginSave()
	if err != nil {
		e.report(err)
		return
	}
	e.setStatusMessage("Saving…")
	sess := tab.sess
	e.spawn(func() {
		err := sess.Persist(e.ctx, doc)
		ev := &saveDoneEvent{tab: tab, doc: doc, err: err, then: then}
		ev.SetEventNow()
		e.post(ev)
	})
}

func (e *Editor) finishSave(ev *saveDoneEvent) {
	if err := ev.tab.sess.FinishSave(ev.doc, ev.err); err != nil {
		e.statusBar.Message = ""
		d := ui.NewMessageDialog("Save failed: "+err.Error(), true)
		d.OnCancel = func() { e.dialog = nil }
		e.dialog = d
		return
	}
	e.removeBackup(ev.tab)
	e.setTemporaryMessage(fmt.Sprintf("Saved %s (total %s)", ev.tab.sess.Schema().Title, schema.FormatNumber(ev.tab.sess.Total())))
	if ev.then != nil {
		ev.then()
	}
}

// cancelEdit leaves Editing, asking first when there is unsaved work.
func (e *Editor) cancelEdit(tab *gridTab) {
	err := tab.sess.Cancel(false)
	if !errors.Is(err, session.ErrUnsavedChanges) {
		if err != nil {
			e.report(err)
		}
		return
	}
	d := ui.NewDiscardConfirmDialog(tab.sess.Schema().Title)
	d.OnConfirm = func(answer rune) {
		e.dialog = nil
		switch answer {
		case 's':
			e.save(tab, nil)
		case 'd':
			if err := tab.sess.Cancel(true); err != nil {
				e.report(err)
				return
			}
			e.removeBackup(tab)
			e.setTemporaryMessage("Discarded changes to " + tab.sess.Schema().Title)
		}
	}
	e.dialog = d
}

// reload refetches tab, leaving Editing first when the grid is clean.
func (e *Editor) reload(tab *gridTab) {
	switch tab.sess.State() {
	case session.Saving:
		return
	case session.Editing:
		if tab.sess.Dirty() {
			e.confirmReload(tab)
			return
		}
		if err := tab.sess.Cancel(true); err != nil {
			e.report(err)
			return
		}
		tab.resumeEdit = true
	}
	e.load(tab)
}

func (e *Editor) confirmReload(tab *gridTab) {
	d := ui.NewReloadConfirmDialog(tab.sess.Schema().Title)
	d.OnConfirm = func(answer rune) {
		e.dialog = nil
		if answer != 'y' {
			return
		}
		if err := tab.sess.Cancel(true); err != nil {
			e.report(err)
			return
		}
		tab.resumeEdit = true
		e.load(tab)
	}
	e.dialog = d
}

func (e *Editor) handleStoreChange(ev *StoreChangeEvent) {
	c := ev.Change
	if c.ProjectID != e.project {
		return
	}
	tab := e.tabFor(c.Type)
	if tab == nil {
		return
	}
	e.log.Info("stored grid changed", "type", c.Type, "removed", c.Removed)
	if tab.sess.State() == session.Editing && tab.sess.Dirty() {
		e.tabBar.SetStale(e.indexOf(tab), true)
		if e.dialog == nil && tab == e.activeTab() {
			e.confirmReload(tab)
		}
		return
	}
	e.reload(tab)
	e.setTemporaryMessage(tab.sess.Schema().Title + " changed in the store, reloaded")
}

// report surfaces an operation error on the status bar.
func (e *Editor) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, session.ErrNotEditing):
		e.setTemporaryError("Viewing only: press Ctrl+E to edit")
	case errors.Is(err, session.ErrSaveInProgress):
		e.setTemporaryError("Save in progress")
	default:
		e.log.Warn("operation failed", "err", err)
		e.setTemporaryError("Error: " + err.Error())
	}
}

func (e *Editor) handleQuit() {
	for _, tab := range e.tabs {
		if tab.sess.Dirty() {
			if e.quitPending {
				e.quit = true // Second Ctrl+Q forces quit
				return
			}
			e.setStatusMessage("Unsaved changes! Press Ctrl+Q again to force quit.")
			e.quitPending = true
			return
		}
	}
	e.quit = true
}

func (e *Editor) updateStatus() {
	tab := e.activeTab()
	if tab == nil {
		return
	}
	sess := tab.sess
	sb := e.statusBar
	switch sess.State() {
	case session.Editing:
		sb.Mode = "EDIT"
	case session.Saving:
		sb.Mode = "SAVE"
	default:
		sb.Mode = "VIEW"
	}
	sb.Project = e.project
	sb.Schema = sess.Schema().Title
	sb.Dirty = sess.Dirty()
	sb.Total = sess.Total()
	sb.Selected = sess.Selection().Len()
	sb.Cell = ""
	if a, ok := e.focusCell(tab); ok {
		sb.Cell = cellLabel(sess.Grid(), a)
	}
	sb.IsError = sb.IsError && sb.Message != ""
}

// focusCell is the open edit cell, else the selection focus.
func (e *Editor) focusCell(tab *gridTab) (grid.Address, bool) {
	if a, _, ok := tab.sess.EditCell(); ok {
		return a, true
	}
	return tab.sess.Selection().Focus()
}

// cellLabel names a cell the way users read it, e.g. "Lighting 3:Qty".
func cellLabel(g *grid.Grid, a grid.Address) string {
	sec, err := g.Section(a.Section)
	if err != nil {
		return ""
	}
	f, ok := g.Schema.Field(a.Field)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %d:%s", sec.Name, g.RowIndex(a.Section, a.Row)+1, f.Title())
}

// setStatusMessage sets a permanent status message (won't auto-clear)
func (e *Editor) setStatusMessage(msg string) {
	e.statusBar.Message = msg
	e.statusBar.IsError = false
	e.statusMessageTime = time.Time{}
}

// setTemporaryMessage sets a message that will auto-clear after 5 seconds
func (e *Editor) setTemporaryMessage(msg string) {
	e.statusBar.Message = msg
	e.statusBar.IsError = false
	e.statusMessageTime = time.Now()
}

func (e *Editor) setTemporaryError(msg string) {
	e.statusBar.Message = msg
	e.statusBar.IsError = true
	e.statusMessageTime = time.Now()
}

func (e *Editor) clearExpiredMessages() {
	if !e.statusMessageTime.IsZero() && time.Since(e.statusMessageTime) > 5*time.Second {
		e.statusBar.Message = ""
		e.statusBar.IsError = false
		e.statusMessageTime = time.Time{}
	}
}
