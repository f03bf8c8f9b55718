package ui

import (
	"testing"

	"linegrid/grid"
	"linegrid/schema"
	"linegrid/selection"

	"github.com/gdamore/tcell/v2"
)

type staticSource struct {
	g    *grid.Grid
	sel  *selection.Manager
	edit *grid.Address
}

func (s *staticSource) Grid() *grid.Grid               { return s.g }
func (s *staticSource) Selection() *selection.Manager { return s.sel }
func (s *staticSource) EditCell() (grid.Address, string, bool) {
	if s.edit == nil {
		return grid.Address{}, "", false
	}
	return *s.edit, "draft", true
}

func newSource(rows int) *staticSource {
	sch := schema.Electrical()
	g := grid.New(sch, []grid.Section{{Name: "Lighting"}})
	g.EnsureRows(g.Sections[0].ID, rows)
	return &staticSource{g: g, sel: selection.New(sch.EditableFields())}
}

func newScreen(t *testing.T) tcell.Screen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	t.Cleanup(screen.Fini)
	return screen
}

func TestGridViewCellAt(t *testing.T) {
	src := newSource(3)
	v := NewGridView(src)
	v.Render(newScreen(t), 0, 0, 80, 8)

	sec := src.g.Sections[0]
	a, ok := v.CellAt(6, 2)
	if !ok || a.Row != sec.Rows[0].ID || a.Field != "name" {
		t.Fatalf("expected first row name cell, got %v ok=%v", a, ok)
	}
	if _, ok := v.CellAt(6, 0); ok {
		t.Fatalf("header should not hit a cell")
	}
	if _, ok := v.CellAt(6, 1); ok {
		t.Fatalf("section title should not hit a cell")
	}
	if _, ok := v.CellAt(2, 2); ok {
		t.Fatalf("ordinal column should not hit a cell")
	}
}

func TestGridViewEnsureVisibleScrolls(t *testing.T) {
	src := newSource(3)
	v := NewGridView(src)
	v.Render(newScreen(t), 0, 0, 80, 4)

	sec := src.g.Sections[0]
	last := grid.Address{Section: sec.ID, Row: sec.Rows[2].ID, Field: "total"}
	v.EnsureVisible(last)
	if v.scrollY == 0 || v.scrollX == 0 {
		t.Fatalf("expected both scroll offsets to move, got y=%d x=%d", v.scrollY, v.scrollX)
	}

	// The total column starts 113 cells in.
	a, ok := v.CellAt(113-v.scrollX, 1+(3-v.scrollY))
	if !ok || a != last {
		t.Fatalf("expected %v under the scrolled position, got %v ok=%v", last, a, ok)
	}
}

func TestGridViewRendersEditAndSelection(t *testing.T) {
	src := newSource(2)
	sec := src.g.Sections[0]
	edit := grid.Address{Section: sec.ID, Row: sec.Rows[1].ID, Field: "qty"}
	src.edit = &edit
	src.sel.SelectAll(src.g)

	v := NewGridView(src)
	v.Theme = nil
	v.Render(newScreen(t), 0, 0, 40, 6)
	v.HandleMouse(tcell.NewEventMouse(3, 3, tcell.WheelRight, tcell.ModNone))
	if v.scrollX != 4 {
		t.Fatalf("expected horizontal wheel to scroll 4 cells, got %d", v.scrollX)
	}
}

func TestStatusBarSummary(t *testing.T) {
	sb := NewStatusBar()
	sb.Selected = 6
	sb.Cell = "Lighting 2:qty"
	sb.Total = 1250.5
	if got := sb.Right(); got != "Sel: 6 cells │ Lighting 2:qty │ Total 1250.5 " {
		t.Fatalf("unexpected summary %q", got)
	}
	sb.Render(newScreen(t), 0, 0, 80, 1)
}
