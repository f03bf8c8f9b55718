// Package session gates every change to a grid behind one explicit state
// value. A session loads its grid once, lets the user edit it with
// selection, clipboard and undo history, and persists it through a store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"linegrid/clipboardx"
	"linegrid/events"
	"linegrid/grid"
	"linegrid/history"
	"linegrid/schema"
	"linegrid/selection"
	"linegrid/store"
)

type State int

const (
	Viewing State = iota
	Editing
	Saving
	Saved
	Cancelled
	Closed
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Cancelled:
		return "cancelled"
	case Closed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrNotEditing     = errors.New("grid is not being edited")
	ErrNotViewing     = errors.New("grid must be in viewing state")
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrUnsavedChanges = errors.New("unsaved changes; confirm to discard")
	ErrClosed         = errors.New("session is closed")
	ErrNotSelectable  = errors.New("cell cannot be selected")
	ErrNoEdit         = errors.New("no cell is being edited")
)

type Options struct {
	// Store defaults to a fresh in-memory store.
	Store store.Store
	// Bus, when set, receives the session's handler while Editing.
	Bus *events.Bus
	// Board defaults to an in-process clipboard.
	Board clipboardx.Board
	// Logger defaults to discarding everything.
	Logger       *slog.Logger
	HistoryLimit int

	OnDirtyChange func(dirty bool)
	OnTotalChange func(total float64)
	OnTransition  func(from, to State)
	// OnError receives failures of operations started from bus events,
	// which have no caller to return them to.
	OnError func(err error)
}

type cellEdit struct {
	addr  grid.Address
	draft string
}

type Session struct {
	projectID string
	schema    *schema.Schema
	opts      Options
	log       *slog.Logger

	state    State
	grid     *grid.Grid
	baseline grid.Snapshot
	history  *history.Stack[grid.Snapshot]
	sel      *selection.Manager
	edit     *cellEdit
	sub      *events.Subscription

	ctx    context.Context
	cancel context.CancelFunc

	dirty bool
	total float64
}

func New(projectID string, s *schema.Schema, opts Options) *Session {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Board == nil {
		opts.Board = &clipboardx.Memory{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		projectID: projectID,
		schema:    s,
		opts:      opts,
		log:       opts.Logger.With("project", projectID, "type", s.Type),
		state:     Viewing,
		grid:      grid.New(s, nil),
		history: history.New(opts.HistoryLimit, func(snap grid.Snapshot) grid.Snapshot {
			return snap.Clone()
		}),
		sel:    selection.New(s.EditableFields()),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Session) ProjectID() string      { return s.projectID }
func (s *Session) Schema() *schema.Schema { return s.schema }
func (s *Session) State() State           { return s.state }
func (s *Session) Dirty() bool            { return s.dirty }
func (s *Session) Total() float64         { return s.grid.GrandTotal }

// Grid exposes the live grid for rendering. Callers must not modify it.
func (s *Session) Grid() *grid.Grid { return s.grid }

func (s *Session) Selection() *selection.Manager { return s.sel }

// EditCell returns the cell being edited and its draft text.
func (s *Session) EditCell() (grid.Address, string, bool) {
	if s.edit == nil {
		return grid.Address{}, "", false
	}
	return s.edit.addr, s.edit.draft, true
}

func (s *Session) CanUndo() bool { return s.state == Editing && s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.state == Editing && s.history.CanRedo() }
func (s *Session) HistoryLen() int {
	return s.history.Len()
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	s.log.Debug("state change", "from", from, "to", to)
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(from, to)
	}
}

// join derives a context that is also cancelled when the session closes.
func (s *Session) join(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Fetch reads the session's sections from the store. It touches no session
// state, so a host may run it off its event loop and hand the result to
// Install.
func (s *Session) Fetch(ctx context.Context) ([]grid.Section, error) {
	ctx, cancel := s.join(ctx)
	defer cancel()
	return s.opts.Store.Load(ctx, s.projectID, s.schema.Type)
}

// Install replaces the grid with fetched sections. A fetch error leaves the
// grid empty; the error is logged and returned.
func (s *Session) Install(sections []grid.Section, fetchErr error) error {
	switch s.state {
	case Closed:
		return ErrClosed
	case Viewing:
	default:
		return ErrNotViewing
	}
	if fetchErr != nil {
		s.grid = grid.New(s.schema, nil)
		s.baseline = s.grid.Snapshot()
		s.notify()
		s.log.Error("load failed", "err", fetchErr)
		return fmt.Errorf("load %s/%s: %w", s.projectID, s.schema.Type, fetchErr)
	}
	s.grid = grid.New(s.schema, sections)
	s.baseline = s.grid.Snapshot()
	s.log.Info("loaded", "sections", len(s.grid.Sections))
	s.notify()
	return nil
}

// Load is Fetch followed by Install.
func (s *Session) Load(ctx context.Context) error {
	if s.state == Closed {
		return ErrClosed
	}
	if s.state != Viewing {
		return ErrNotViewing
	}
	sections, err := s.Fetch(ctx)
	return s.Install(sections, err)
}

// BeginEdit enters Editing, seeds the history with the baseline and starts
// listening on the bus.
func (s *Session) BeginEdit() error {
	switch s.state {
	case Closed:
		return ErrClosed
	case Viewing:
	default:
		return ErrNotViewing
	}
	s.history.Reset(s.baseline)
	s.sel.Clear()
	s.edit = nil
	if s.opts.Bus != nil {
		s.sub = s.opts.Bus.Subscribe(s.handle)
	}
	s.transition(Editing)
	return nil
}

// BeginSave commits any open edit, enters Saving and returns the document to
// persist. While Saving every other operation is refused.
func (s *Session) BeginSave() (store.Document, error) {
	switch s.state {
	case Saving:
		return store.Document{}, ErrSaveInProgress
	case Closed:
		return store.Document{}, ErrClosed
	case Editing:
	default:
		return store.Document{}, ErrNotEditing
	}
	if err := s.commitOpenEdit(); err != nil {
		return store.Document{}, err
	}
	s.transition(Saving)
	return store.Document{
		ProjectID: s.projectID,
		Type:      s.schema.Type,
		Sections:  s.grid.Snapshot(),
	}, nil
}

// FinishSave completes a save started with BeginSave. On failure the session
// returns to Editing with the live state intact.
func (s *Session) FinishSave(doc store.Document, saveErr error) error {
	if s.state == Closed {
		if saveErr != nil {
			return saveErr
		}
		return ErrClosed
	}
	if s.state != Saving {
		return ErrNotEditing
	}
	if saveErr != nil {
		s.log.Error("save failed", "err", saveErr)
		s.transition(Editing)
		return fmt.Errorf("save %s/%s: %w", s.projectID, s.schema.Type, saveErr)
	}
	s.baseline = grid.Snapshot(doc.Sections).Clone()
	s.transition(Saved)
	s.teardown()
	s.transition(Viewing)
	s.log.Info("saved", "sections", len(doc.Sections), "total", s.grid.GrandTotal)
	s.notify()
	return nil
}

// Save persists the live grid and returns to Viewing.
func (s *Session) Save(ctx context.Context) error {
	doc, err := s.BeginSave()
	if err != nil {
		return err
	}
	return s.FinishSave(doc, s.Persist(ctx, doc))
}

// Persist writes doc to the store. Like Fetch it touches no session state,
// so it may run off the host's event loop; its error goes to FinishSave.
func (s *Session) Persist(ctx context.Context, doc store.Document) error {
	ctx, cancel := s.join(ctx)
	defer cancel()
	return s.opts.Store.Save(ctx, doc)
}

// Cancel reverts to the baseline and returns to Viewing. Unsaved changes,
// including an open edit whose draft differs from its cell, are only
// discarded when confirmed is true; a refused cancel leaves the edit open.
func (s *Session) Cancel(confirmed bool) error {
	switch s.state {
	case Saving:
		return ErrSaveInProgress
	case Closed:
		return ErrClosed
	case Editing:
	default:
		return ErrNotEditing
	}
	if !confirmed && (s.dirtyNow() || s.draftPending()) {
		return ErrUnsavedChanges
	}
	s.closeEdit()
	s.grid.Restore(s.baseline)
	s.transition(Cancelled)
	s.teardown()
	s.transition(Viewing)
	s.notify()
	return nil
}

// Close aborts in-flight loads and saves and releases the bus subscription.
// The session cannot be used afterwards.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.cancel()
	s.teardown()
	s.transition(Closed)
}

func (s *Session) teardown() {
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.sel.Clear()
	s.edit = nil
	s.history.Clear()
}

// Listening reports whether the session currently holds a bus subscription.
func (s *Session) Listening() bool { return s.sub.Active() }

func (s *Session) dirtyNow() bool {
	return !grid.Equal(grid.Snapshot(s.grid.Sections), s.baseline)
}

// draftPending reports whether the open edit holds text that differs from
// the cell it would be committed to.
func (s *Session) draftPending() bool {
	return s.edit != nil && s.edit.draft != s.grid.Display(s.edit.addr)
}

// notify fires the host callbacks for values that changed.
func (s *Session) notify() {
	if d := s.dirtyNow(); d != s.dirty {
		s.dirty = d
		if s.opts.OnDirtyChange != nil {
			s.opts.OnDirtyChange(d)
		}
	}
	if t := s.grid.GrandTotal; t != s.total {
		s.total = t
		if s.opts.OnTotalChange != nil {
			s.opts.OnTotalChange(t)
		}
	}
}

// record pushes the live grid onto the history. Unless force is set, a
// state equal to the current entry is not pushed again.
func (s *Session) record(force bool) {
	live := grid.Snapshot(s.grid.Sections)
	if !force {
		if top, ok := s.history.Peek(); ok && grid.Equal(top, live) {
			return
		}
	}
	s.history.Push(live)
}

func (s *Session) requireEditing() error {
	switch s.state {
	case Editing:
		return nil
	case Closed:
		return ErrClosed
	}
	return ErrNotEditing
}
