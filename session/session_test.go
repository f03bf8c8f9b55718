package session

import (
	"context"
	"errors"
	"testing"

	"linegrid/events"
	"linegrid/grid"
	"linegrid/schema"
	"linegrid/store"
)

type fixture struct {
	s       *Session
	store   *store.Memory
	bus     *events.Bus
	section string
	rows    []string
}

func seed(t *testing.T, st *store.Memory, project string, rows int) {
	t.Helper()
	g := grid.New(schema.Electrical(), []grid.Section{{Name: "Lighting"}})
	g.EnsureRows(g.Sections[0].ID, rows)
	doc := store.Document{ProjectID: project, Type: "electrical", Sections: g.Snapshot()}
	if err := st.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := store.NewMemory()
	seed(t, st, "P-1", 3)
	if opts.Store == nil {
		opts.Store = st
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	s := New("P-1", schema.Electrical(), opts)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit failed: %v", err)
	}
	sec := s.Grid().Sections[0].ID
	return &fixture{s: s, store: st, bus: opts.Bus, section: sec, rows: s.Grid().RowIDs(sec)}
}

func (f *fixture) at(row int, field string) grid.Address {
	return grid.Address{Section: f.section, Row: f.rows[row], Field: field}
}

func TestOperationsRequireEditing(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, "P-1", 1)
	s := New("P-1", schema.Electrical(), Options{Store: st})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	a := grid.Address{Section: s.Grid().Sections[0].ID, Row: s.Grid().Sections[0].Rows[0].ID, Field: "qty"}

	if err := s.Click(a); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing from Click, got %v", err)
	}
	if err := s.SetCell(a, "3"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing from SetCell, got %v", err)
	}
	if _, err := s.Undo(); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing from Undo, got %v", err)
	}
	if _, err := s.Paste("1"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing from Paste, got %v", err)
	}
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("begin edit failed: %v", err)
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrNotViewing) {
		t.Fatalf("expected ErrNotViewing when loading while editing, got %v", err)
	}
	if s.HistoryLen() != 1 {
		t.Fatalf("expected history seeded with baseline, got %d entries", s.HistoryLen())
	}
}

func TestUndoRedoAndRedoClearing(t *testing.T) {
	f := newFixture(t, Options{})
	qty := f.at(0, "qty")
	for _, v := range []string{"1", "2", "3"} {
		if err := f.s.SetCell(qty, v); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	if f.s.HistoryLen() != 4 {
		t.Fatalf("expected 4 history entries, got %d", f.s.HistoryLen())
	}

	f.s.Undo()
	if got := f.s.Grid().Number(qty); got != 2 {
		t.Fatalf("expected qty 2 after undo, got %v", got)
	}
	f.s.Undo()
	f.s.Redo()
	if got := f.s.Grid().Number(qty); got != 2 {
		t.Fatalf("expected qty 2 after redo, got %v", got)
	}
	if !f.s.CanRedo() {
		t.Fatalf("expected redo available")
	}

	f.s.SetCell(qty, "9")
	if f.s.CanRedo() {
		t.Fatalf("expected mutation after undo to clear redo")
	}
	if ok, _ := f.s.Redo(); ok {
		t.Fatalf("expected redo to be a no-op")
	}
}

func TestUndoClearsSelectionAndEdit(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.SetCell(f.at(0, "qty"), "5")
	f.s.Click(f.at(1, "name"))
	f.s.SetDraft("pending")

	f.s.Undo()
	if _, _, ok := f.s.EditCell(); ok {
		t.Fatalf("expected undo to discard the open edit")
	}
	if !f.s.Selection().Empty() {
		t.Fatalf("expected undo to clear the selection")
	}
	if got := f.s.Grid().Display(f.at(1, "name")); got != "" {
		t.Fatalf("expected draft not committed, got %q", got)
	}
}

func TestClickEditCommit(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.at(0, "name")
	if err := f.s.Click(name); err != nil {
		t.Fatalf("click failed: %v", err)
	}
	addr, draft, ok := f.s.EditCell()
	if !ok || addr != name || draft != "" {
		t.Fatalf("expected open edit on %v with empty draft, got %v %q %v", name, addr, draft, ok)
	}

	// Committing an unchanged cell records nothing.
	f.s.CommitEdit()
	if f.s.HistoryLen() != 1 {
		t.Fatalf("expected no history push for unchanged commit, got %d", f.s.HistoryLen())
	}

	f.s.Click(name)
	f.s.SetDraft("Downlight")
	if err := f.s.Click(f.at(1, "name")); err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if got := f.s.Grid().Display(name); got != "Downlight" {
		t.Fatalf("expected clicking away to commit, got %q", got)
	}
	if f.s.HistoryLen() != 2 {
		t.Fatalf("expected one history push, got %d", f.s.HistoryLen())
	}

	f.s.SetDraft("discard me")
	f.s.CancelEdit()
	if got := f.s.Grid().Display(f.at(1, "name")); got != "" {
		t.Fatalf("expected cancelled draft to leave cell empty, got %q", got)
	}
	if err := f.s.CancelEdit(); !errors.Is(err, ErrNoEdit) {
		t.Fatalf("expected ErrNoEdit, got %v", err)
	}
}

func TestShiftClickSelectsRectangle(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.Click(f.at(0, "name"))
	if err := f.s.ShiftClick(f.at(2, "qty")); err != nil {
		t.Fatalf("shift click failed: %v", err)
	}
	// name, brand, model, unit, qty over three rows.
	if n := f.s.Selection().Len(); n != 15 {
		t.Fatalf("expected 15 selected cells, got %d", n)
	}
	if _, _, ok := f.s.EditCell(); ok {
		t.Fatalf("expected shift click to close the edit")
	}
}

func TestCopyPasteIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.SetCell(f.at(0, "name"), "Downlight")
	f.s.SetCell(f.at(0, "unit"), "m")
	f.s.SetCell(f.at(0, "qty"), "4")
	f.s.SetCell(f.at(0, "unitPrice"), "12.5")
	f.s.SetCell(f.at(1, "name"), "Cable tray")
	f.s.SetCell(f.at(1, "leadTime"), "21")

	f.s.Click(f.at(0, "name"))
	f.s.ShiftClick(f.at(1, "leadTime"))
	before := f.s.Grid().Snapshot()
	pushes := f.s.HistoryLen()

	text, err := f.s.Copy()
	if err != nil || text == "" {
		t.Fatalf("copy failed: %q %v", text, err)
	}
	res, err := f.s.Paste(text)
	if err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	if res.Rows != 2 || res.RowsAdded != 0 {
		t.Fatalf("unexpected paste result %+v", res)
	}
	after := f.s.Grid().Snapshot()
	if !grid.Equal(before, after) {
		t.Fatalf("expected copy/paste to be idempotent:\n%s", grid.Diff(before, after))
	}
	if f.s.HistoryLen() != pushes+1 {
		t.Fatalf("expected exactly one push for the paste, got %d -> %d", pushes, f.s.HistoryLen())
	}
	if !f.s.Selection().Empty() {
		t.Fatalf("expected paste to clear the selection")
	}
}

func TestPasteGrowsSectionFromFirstCell(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, "P-2", 1)
	s := New("P-2", schema.Electrical(), Options{Store: st})
	s.Load(context.Background())
	s.BeginEdit()

	// No selection: the origin is the first editable cell.
	res, err := s.Paste("Breaker\tABB\tS201\nRCD\tABB\tF202\n")
	if err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	sec := s.Grid().Sections[0]
	if len(sec.Rows) != 2 || res.RowsAdded != 1 {
		t.Fatalf("expected section grown to 2 rows, got %d (added %d)", len(sec.Rows), res.RowsAdded)
	}
	if sec.Rows[1].Ordinal != 2 || sec.Rows[1].Text["model"] != "F202" || sec.Rows[1].Text["unit"] != "pcs" {
		t.Fatalf("unexpected second row %+v", sec.Rows[1])
	}
}

func TestDeleteSelectionResetsDefaults(t *testing.T) {
	var totals []float64
	f := newFixture(t, Options{OnTotalChange: func(v float64) { totals = append(totals, v) }})
	f.s.SetCell(f.at(0, "unit"), "set")
	f.s.SetCell(f.at(0, "qty"), "2")
	f.s.SetCell(f.at(0, "unitPrice"), "10")
	f.s.SetCell(f.at(0, "remark"), "spare")

	f.s.Click(f.at(0, "name"))
	f.s.ShiftClick(f.at(0, "remark"))
	n, err := f.s.DeleteSelection()
	if err != nil || n != 8 {
		t.Fatalf("expected 8 cleared cells, got %d err=%v", n, err)
	}
	g := f.s.Grid()
	if g.Display(f.at(0, "unit")) != "pcs" || g.Number(f.at(0, "qty")) != 0 ||
		g.Display(f.at(0, "remark")) != "" || g.Number(f.at(0, "total")) != 0 {
		t.Fatalf("unexpected row after delete %+v", g.Sections[0].Rows[0])
	}
	if len(totals) != 2 || totals[0] != 20 || totals[1] != 0 {
		t.Fatalf("expected total callbacks [20 0], got %v", totals)
	}
}

func TestCutCopiesThenClears(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.SetCell(f.at(2, "brand"), "Legrand")
	f.s.Click(f.at(2, "brand"))
	text, err := f.s.Cut()
	if err != nil || text != "Legrand" {
		t.Fatalf("expected cut text Legrand, got %q err=%v", text, err)
	}
	if got := f.s.Grid().Display(f.at(2, "brand")); got != "" {
		t.Fatalf("expected cut cell cleared, got %q", got)
	}
	res, err := f.s.PasteFromBoard()
	if err != nil || res.Cells != 1 {
		t.Fatalf("expected paste from board, got %+v err=%v", res, err)
	}
}

func TestRowOperationsRecordHistory(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.SetCell(f.at(0, "name"), "first")

	row, err := f.s.InsertRow(f.section, f.rows[0])
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if row.Ordinal != 2 || len(f.s.Grid().Sections[0].Rows) != 4 {
		t.Fatalf("expected inserted row at ordinal 2, got %d", row.Ordinal)
	}
	moved, err := f.s.MoveRow(f.section, f.rows[0], grid.Down)
	if err != nil || !moved {
		t.Fatalf("expected row moved, got %v %v", moved, err)
	}
	if err := f.s.DeleteRow(f.section, row.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	sec := f.s.Grid().Sections[0]
	for i, r := range sec.Rows {
		if r.Ordinal != i+1 {
			t.Fatalf("expected contiguous ordinals, got %d at %d", r.Ordinal, i)
		}
	}
	if sec.Rows[0].Text["name"] != "first" {
		t.Fatalf("expected moved row back on top after deleting the inserted row")
	}

	f.s.Undo()
	if len(f.s.Grid().Sections[0].Rows) != 4 {
		t.Fatalf("expected undo to restore the deleted row")
	}
	f.s.Undo()
	f.s.Undo()
	if len(f.s.Grid().Sections[0].Rows) != 3 {
		t.Fatalf("expected undo to remove the inserted row")
	}
}

func TestSectionOperations(t *testing.T) {
	f := newFixture(t, Options{})
	sec, err := f.s.AddSection("Power")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.s.RenameSection(sec.ID, "Small power"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if f.s.Grid().Sections[1].Name != "Small power" {
		t.Fatalf("expected renamed section, got %q", f.s.Grid().Sections[1].Name)
	}
	f.s.Click(f.at(0, "qty"))
	if err := f.s.RemoveSection(f.section); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !f.s.Selection().Empty() {
		t.Fatalf("expected selection in removed section to clear")
	}
	if err := f.s.RemoveSection("missing"); !errors.Is(err, grid.ErrNoSuchSection) {
		t.Fatalf("expected ErrNoSuchSection, got %v", err)
	}
}

type failingStore struct {
	*store.Memory
	err error
}

func (f *failingStore) Save(ctx context.Context, doc store.Document) error {
	if f.err != nil {
		return f.err
	}
	return f.Memory.Save(ctx, doc)
}

func TestSaveFailureKeepsEditing(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, "P-1", 2)
	fs := &failingStore{Memory: mem, err: errors.New("disk full")}
	bus := events.NewBus()
	s := New("P-1", schema.Electrical(), Options{Store: fs, Bus: bus})
	s.Load(context.Background())
	s.BeginEdit()
	a := grid.Address{Section: s.Grid().Sections[0].ID, Row: s.Grid().Sections[0].Rows[0].ID, Field: "qty"}
	s.SetCell(a, "7")

	err := s.Save(context.Background())
	if err == nil || !errors.Is(err, fs.err) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if s.State() != Editing || !s.Dirty() || s.Grid().Number(a) != 7 {
		t.Fatalf("expected live state kept in Editing, got %v dirty=%v", s.State(), s.Dirty())
	}
	if bus.Len() != 1 {
		t.Fatalf("expected listener kept after failed save")
	}

	fs.err = nil
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if s.State() != Viewing || s.Dirty() {
		t.Fatalf("expected clean Viewing after save, got %v dirty=%v", s.State(), s.Dirty())
	}
	if bus.Len() != 0 || s.Listening() {
		t.Fatalf("expected listener torn down after save")
	}
	saved, _ := mem.Load(context.Background(), "P-1", "electrical")
	if saved[0].Rows[0].Numbers["qty"] != 7 {
		t.Fatalf("expected saved qty 7, got %v", saved[0].Rows[0].Numbers["qty"])
	}
}

func TestDoubleSaveGuard(t *testing.T) {
	f := newFixture(t, Options{})
	doc, err := f.s.BeginSave()
	if err != nil {
		t.Fatalf("begin save failed: %v", err)
	}
	if _, err := f.s.BeginSave(); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected ErrSaveInProgress, got %v", err)
	}
	if err := f.s.Save(context.Background()); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected ErrSaveInProgress from Save, got %v", err)
	}
	if err := f.s.SetCell(f.at(0, "qty"), "1"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected edits refused while saving, got %v", err)
	}
	if err := f.s.Cancel(true); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected cancel refused while saving, got %v", err)
	}
	if err := f.s.FinishSave(doc, nil); err != nil {
		t.Fatalf("finish save failed: %v", err)
	}
	if f.s.State() != Viewing {
		t.Fatalf("expected Viewing, got %v", f.s.State())
	}
}

func TestCancelRequiresConfirmation(t *testing.T) {
	var trail []State
	var dirty []bool
	f := newFixture(t, Options{
		OnTransition:  func(_, to State) { trail = append(trail, to) },
		OnDirtyChange: func(d bool) { dirty = append(dirty, d) },
	})
	f.s.SetCell(f.at(0, "name"), "changed")
	f.s.SetCell(f.at(0, "brand"), "changed too")

	if err := f.s.Cancel(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}
	if f.s.State() != Editing {
		t.Fatalf("expected to stay Editing, got %v", f.s.State())
	}
	if err := f.s.Cancel(true); err != nil {
		t.Fatalf("confirmed cancel failed: %v", err)
	}
	if got := f.s.Grid().Display(f.at(0, "name")); got != "" {
		t.Fatalf("expected revert to baseline, got %q", got)
	}
	want := []State{Cancelled, Viewing}
	if len(trail) < 2 || trail[len(trail)-2] != want[0] || trail[len(trail)-1] != want[1] {
		t.Fatalf("expected transitions to end with %v, got %v", want, trail)
	}
	if len(dirty) != 2 || !dirty[0] || dirty[1] {
		t.Fatalf("expected dirty callbacks [true false], got %v", dirty)
	}

	// A clean session cancels without confirmation.
	f.s.BeginEdit()
	if err := f.s.Cancel(false); err != nil {
		t.Fatalf("expected clean cancel, got %v", err)
	}
}

func TestBusRoutesOnlyToEditingSession(t *testing.T) {
	bus := events.NewBus()
	st := store.NewMemory()
	seed(t, st, "A", 1)
	seed(t, st, "B", 1)
	a := New("A", schema.Electrical(), Options{Store: st, Bus: bus})
	b := New("B", schema.Electrical(), Options{Store: st, Bus: bus})
	a.Load(context.Background())
	b.Load(context.Background())

	a.BeginEdit()
	if !bus.Publish(events.Event{Action: events.ActionSelectAll}) {
		t.Fatalf("expected the editing session to consume select-all")
	}
	if !a.Selection().AllSelected() || b.Selection().AllSelected() {
		t.Fatalf("expected only session A to select all")
	}

	if err := a.Cancel(false); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if bus.Len() != 0 {
		t.Fatalf("expected listener torn down on leaving Editing")
	}
	if bus.Publish(events.Event{Action: events.ActionSelectAll}) {
		t.Fatalf("expected no subscriber after cancel")
	}

	b.BeginEdit()
	b.Close()
	if bus.Len() != 0 || b.State() != Closed {
		t.Fatalf("expected close to release the listener")
	}
	if err := b.BeginEdit(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBusDragSelectsAndMouseUpOpensClick(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.MouseDown(f.at(0, "name"))
	f.s.MouseEnter(f.at(1, "brand"))
	if !f.bus.Publish(events.Event{Action: events.ActionMouseUp}) {
		t.Fatalf("expected mouse-up consumed during a drag")
	}
	if n := f.s.Selection().Len(); n != 4 {
		t.Fatalf("expected 2x2 drag selection, got %d", n)
	}
	if _, _, ok := f.s.EditCell(); ok {
		t.Fatalf("expected a drag not to open an edit")
	}
	if f.bus.Publish(events.Event{Action: events.ActionMouseUp}) {
		t.Fatalf("expected stray mouse-up to fall through")
	}

	f.s.MouseDown(f.at(2, "qty"))
	f.bus.Publish(events.Event{Action: events.ActionMouseUp})
	if addr, _, ok := f.s.EditCell(); !ok || addr != f.at(2, "qty") {
		t.Fatalf("expected click gesture to open the cell")
	}
	f.bus.Publish(events.Event{Action: events.ActionType, Text: "12"})
	f.bus.Publish(events.Event{Action: events.ActionCommit})
	if got := f.s.Grid().Number(f.at(2, "qty")); got != 12 {
		t.Fatalf("expected typed qty 12, got %v", got)
	}
}

func TestLoadFailureLeavesGridEmpty(t *testing.T) {
	boom := errors.New("offline")
	s := New("P-9", schema.Mechanical(), Options{Store: &errStore{err: boom}})
	err := s.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(s.Grid().Sections) != 0 || s.State() != Viewing {
		t.Fatalf("expected empty grid in Viewing")
	}
}

type errStore struct{ err error }

func (e *errStore) Load(context.Context, string, string) ([]grid.Section, error) {
	return nil, e.err
}
func (e *errStore) Save(context.Context, store.Document) error { return e.err }

type blockingStore struct{ started chan struct{} }

func (b *blockingStore) Load(ctx context.Context, _, _ string) ([]grid.Section, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}
func (b *blockingStore) Save(ctx context.Context, _ store.Document) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCloseAbortsFetch(t *testing.T) {
	bs := &blockingStore{started: make(chan struct{})}
	s := New("P", schema.Electrical(), Options{Store: bs})
	done := make(chan error, 1)
	go func() {
		_, err := s.Fetch(context.Background())
		done <- err
	}()
	<-bs.started
	s.Close()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected fetch cancelled by close, got %v", err)
	}
}

func TestPasteBackOverReversedRectangleIsNoOp(t *testing.T) {
	f := newFixture(t, Options{})
	for i, name := range []string{"Conduit", "Gland", "Lug"} {
		f.s.SetCell(f.at(i, "name"), name)
		f.s.SetCell(f.at(i, "qty"), "2")
	}
	// Anchor bottom-right, focus top-left.
	f.s.Click(f.at(2, "qty"))
	f.s.ShiftClick(f.at(0, "name"))
	if _, err := f.s.Copy(); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	before := f.s.Grid().Snapshot()
	if _, err := f.s.PasteFromBoard(); err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	if n := len(f.s.Grid().RowIDs(f.section)); n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if !grid.Equal(before, f.s.Grid().Snapshot()) {
		t.Fatalf("pasting a copy over itself changed the grid: %s", grid.Diff(before, f.s.Grid().Snapshot()))
	}
}

func TestSelectAllCopyPasteKeepsSections(t *testing.T) {
	f := newFixture(t, Options{})
	power, err := f.s.AddSection("Power")
	if err != nil {
		t.Fatalf("add section failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.s.InsertRow(power.ID, ""); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	f.s.SetCell(f.at(0, "name"), "Cable tray")
	f.s.SetCell(f.at(1, "unitPrice"), "3.5")
	powerRows := f.s.Grid().RowIDs(power.ID)
	f.s.SetCell(grid.Address{Section: power.ID, Row: powerRows[1], Field: "name"}, "Isolator")
	f.s.SetCell(grid.Address{Section: power.ID, Row: powerRows[1], Field: "qty"}, "4")

	before := f.s.Grid().Snapshot()
	for i := 0; i < 2; i++ {
		f.s.SelectAll()
		if _, err := f.s.Copy(); err != nil {
			t.Fatalf("copy failed: %v", err)
		}
		if _, err := f.s.PasteFromBoard(); err != nil {
			t.Fatalf("paste failed: %v", err)
		}
		if n := len(f.s.Grid().RowIDs(f.section)); n != 3 {
			t.Fatalf("expected first section to keep 3 rows, got %d", n)
		}
		if n := len(f.s.Grid().RowIDs(power.ID)); n != 2 {
			t.Fatalf("expected second section to keep 2 rows, got %d", n)
		}
		if !grid.Equal(before, f.s.Grid().Snapshot()) {
			t.Fatalf("select-all round trip %d changed the grid: %s", i+1, grid.Diff(before, f.s.Grid().Snapshot()))
		}
	}
}

func TestMoveOnEmptyGridCreatesNothing(t *testing.T) {
	st := store.NewMemory()
	doc := store.Document{ProjectID: "P-3", Type: "electrical", Sections: []grid.Section{{ID: "s1", Name: "Empty"}}}
	if err := st.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	var dirty []bool
	s := New("P-3", schema.Electrical(), Options{Store: st, OnDirtyChange: func(d bool) { dirty = append(dirty, d) }})
	s.Load(context.Background())
	s.BeginEdit()

	if err := s.Move(1, 0); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if n := len(s.Grid().RowIDs("s1")); n != 0 {
		t.Fatalf("expected no rows created, got %d", n)
	}
	if s.Dirty() || len(dirty) != 0 || s.HistoryLen() != 1 {
		t.Fatalf("expected clean session, got dirty=%v callbacks=%v history=%d", s.Dirty(), dirty, s.HistoryLen())
	}
	if err := s.Cancel(false); err != nil {
		t.Fatalf("expected clean cancel, got %v", err)
	}
}

func TestRefusedCancelKeepsDraft(t *testing.T) {
	f := newFixture(t, Options{})
	f.s.Click(f.at(1, "brand"))
	if err := f.s.SetDraft("Schneider"); err != nil {
		t.Fatalf("set draft failed: %v", err)
	}
	if err := f.s.Cancel(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("expected ErrUnsavedChanges for an open draft, got %v", err)
	}
	a, draft, ok := f.s.EditCell()
	if !ok || a != f.at(1, "brand") || draft != "Schneider" {
		t.Fatalf("expected draft kept open, got %v %q open=%v", a, draft, ok)
	}

	f.s.SetCell(f.at(0, "name"), "changed")
	f.s.Click(f.at(2, "remark"))
	f.s.SetDraft("spare")
	if err := f.s.Cancel(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}
	if _, draft, ok := f.s.EditCell(); !ok || draft != "spare" {
		t.Fatalf("expected draft kept after refused cancel, got %q open=%v", draft, ok)
	}
	if err := f.s.Cancel(true); err != nil {
		t.Fatalf("confirmed cancel failed: %v", err)
	}
	if _, _, ok := f.s.EditCell(); ok {
		t.Fatalf("expected confirmed cancel to close the edit")
	}
}
