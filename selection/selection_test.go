package selection

import (
	"testing"

	"linegrid/grid"
	"linegrid/schema"
)

func setup(t *testing.T) (*grid.Grid, *Manager) {
	t.Helper()
	g := grid.New(schema.Electrical(), []grid.Section{{ID: "a"}, {ID: "b"}})
	g.EnsureRows("a", 4)
	g.EnsureRows("b", 2)
	return g, New(g.Schema.EditableFields())
}

func at(g *grid.Grid, sec string, row int, field string) grid.Address {
	return grid.Address{Section: sec, Row: g.RowIDs(sec)[row], Field: field}
}

func TestClickSelectsOneCell(t *testing.T) {
	g, m := setup(t)
	a := at(g, "a", 1, "brand")
	if !m.Click(g, a) {
		t.Fatalf("expected click to succeed")
	}
	if m.Len() != 1 || !m.Contains(a) {
		t.Fatalf("expected only the clicked cell, got %v", m.Cells())
	}
	anchor, _ := m.Anchor()
	focus, _ := m.Focus()
	if anchor != a || focus != a {
		t.Fatalf("expected anchor and focus at %v", a)
	}
}

func TestClickOnDerivedFieldIsIgnored(t *testing.T) {
	g, m := setup(t)
	if m.Click(g, at(g, "a", 0, "total")) {
		t.Fatalf("derived field must not be selectable")
	}
	if !m.Empty() {
		t.Fatalf("expected empty selection")
	}
}

func TestShiftClickSelectsFullRectangle(t *testing.T) {
	g, m := setup(t)
	m.Click(g, at(g, "a", 0, "name"))
	m.ShiftClick(g, at(g, "a", 2, "qty"))

	fields := []string{"name", "brand", "model", "unit", "qty"}
	if m.Len() != 3*len(fields) {
		t.Fatalf("expected %d cells, got %d: %v", 3*len(fields), m.Len(), m.Cells())
	}
	for row := 0; row < 3; row++ {
		for _, f := range fields {
			if !m.Contains(at(g, "a", row, f)) {
				t.Fatalf("expected row %d field %s selected", row, f)
			}
		}
	}
	if m.Contains(at(g, "a", 0, "unitPrice")) || m.Contains(at(g, "a", 3, "name")) {
		t.Fatalf("selection leaked outside the rectangle")
	}
	cells := m.Cells()
	if cells[0] != at(g, "a", 0, "name") || cells[len(cells)-1] != at(g, "a", 2, "qty") {
		t.Fatalf("expected cells in row/field order, got %v", cells)
	}
}

func TestShiftClickBackwardsNormalizes(t *testing.T) {
	g, m := setup(t)
	m.Click(g, at(g, "a", 3, "qty"))
	m.ShiftClick(g, at(g, "a", 1, "model"))
	r, ok := m.Rect(g)
	if !ok || r.Row0 != 1 || r.Row1 != 3 || r.Field0 != 2 || r.Field1 != 4 {
		t.Fatalf("unexpected rect %+v", r)
	}
	anchor, _ := m.Anchor()
	if anchor != at(g, "a", 3, "qty") {
		t.Fatalf("anchor must not move on shift-click")
	}
}

func TestShiftClickAcrossSectionsIsRejected(t *testing.T) {
	g, m := setup(t)
	m.Click(g, at(g, "a", 0, "name"))
	m.ShiftClick(g, at(g, "a", 1, "brand"))
	before := m.Cells()
	if m.ShiftClick(g, at(g, "b", 1, "qty")) {
		t.Fatalf("expected cross-section extension to be rejected")
	}
	if len(m.Cells()) != len(before) {
		t.Fatalf("selection changed after rejected extension")
	}
}

func TestShiftClickWithoutAnchorActsAsClick(t *testing.T) {
	g, m := setup(t)
	a := at(g, "b", 0, "qty")
	m.ShiftClick(g, a)
	if m.Len() != 1 || !m.Contains(a) {
		t.Fatalf("expected single cell, got %v", m.Cells())
	}
}

func TestDragSelection(t *testing.T) {
	g, m := setup(t)
	m.MouseDown(g, at(g, "a", 0, "brand"))
	m.MouseEnter(g, at(g, "a", 1, "brand"))
	m.MouseEnter(g, at(g, "a", 2, "model"))
	if !m.Dragging() {
		t.Fatalf("expected drag in progress")
	}
	if click := m.MouseUp(); click {
		t.Fatalf("a multi-cell drag is not a click")
	}
	if m.Len() != 6 {
		t.Fatalf("expected 3x2 cells, got %d", m.Len())
	}
	m.MouseEnter(g, at(g, "a", 3, "qty"))
	if m.Len() != 6 {
		t.Fatalf("mouse enter after mouse up must not extend")
	}

	m.MouseDown(g, at(g, "a", 3, "name"))
	if click := m.MouseUp(); !click {
		t.Fatalf("press and release on one cell is a click")
	}
}

func TestSelectAllSpansSections(t *testing.T) {
	g, m := setup(t)
	m.SelectAll(g)
	want := (4 + 2) * len(g.Schema.EditableFields())
	if m.Len() != want {
		t.Fatalf("expected %d cells, got %d", want, m.Len())
	}
	if !m.Contains(at(g, "b", 1, "remark")) || m.Contains(at(g, "b", 1, "total")) {
		t.Fatalf("unexpected select-all membership")
	}
	anchor, ok := m.Anchor()
	if !ok || anchor != at(g, "a", 0, "name") {
		t.Fatalf("expected anchor at the first cell, got %v", anchor)
	}
}

func TestMoveAndExtendClampToSection(t *testing.T) {
	g, m := setup(t)
	m.Click(g, at(g, "a", 0, "name"))
	m.Move(g, -1, -1)
	if !m.Contains(at(g, "a", 0, "name")) || m.Len() != 1 {
		t.Fatalf("expected move to clamp at the corner, got %v", m.Cells())
	}
	m.Move(g, 10, 1)
	if !m.Contains(at(g, "a", 3, "brand")) {
		t.Fatalf("expected clamp to last row, got %v", m.Cells())
	}
	m.Extend(g, -1, 1)
	if m.Len() != 4 {
		t.Fatalf("expected 2x2 after extend, got %v", m.Cells())
	}
}
