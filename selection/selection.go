package selection

import "linegrid/grid"

// Layout exposes the row order the manager needs; *grid.Grid implements it.
type Layout interface {
	SectionIDs() []string
	RowIDs(sectionID string) []string
}

// Rect is a selection in index space: rows [Row0, Row1] and editable fields
// [Field0, Field1] of one section, both inclusive.
type Rect struct {
	Section        string
	Row0, Row1     int
	Field0, Field1 int
}

// Manager tracks the anchor/focus pair and the cells between them. Only
// editable fields are ever selected.
type Manager struct {
	fields   []string
	fieldPos map[string]int

	anchor   *grid.Address
	focus    *grid.Address
	dragging bool
	all      bool

	cells []grid.Address
	set   map[grid.Address]struct{}
}

// New returns a manager over the given editable fields in canonical order.
func New(editable []string) *Manager {
	m := &Manager{
		fields:   append([]string(nil), editable...),
		fieldPos: make(map[string]int, len(editable)),
	}
	for i, f := range editable {
		m.fieldPos[f] = i
	}
	return m
}

func (m *Manager) Fields() []string { return append([]string(nil), m.fields...) }

func (m *Manager) Anchor() (grid.Address, bool) {
	if m.anchor == nil {
		return grid.Address{}, false
	}
	return *m.anchor, true
}

func (m *Manager) Focus() (grid.Address, bool) {
	if m.focus == nil {
		return grid.Address{}, false
	}
	return *m.focus, true
}

func (m *Manager) Empty() bool { return len(m.cells) == 0 }
func (m *Manager) Len() int { return len(m.cells) }
func (m *Manager) Dragging() bool { return m.dragging }
func (m *Manager) AllSelected() bool { return m.all }

// Cells returns the selection ordered by section, row, then field.
func (m *Manager) Cells() []grid.Address {
	return append([]grid.Address(nil), m.cells...)
}

func (m *Manager) Contains(a grid.Address) bool {
	_, ok := m.set[a]
	return ok
}

func (m *Manager) Clear() {
	m.anchor, m.focus = nil, nil
	m.dragging = false
	m.all = false
	m.cells = nil
	m.set = nil
}

func (m *Manager) editable(a grid.Address) bool {
	_, ok := m.fieldPos[a.Field]
	return ok
}

// Click makes a the anchor, focus and only selected cell.
func (m *Manager) Click(l Layout, a grid.Address) bool {
	if !m.editable(a) || indexOf(l.RowIDs(a.Section), a.Row) < 0 {
		return false
	}
	anchor, focus := a, a
	m.anchor, m.focus = &anchor, &focus
	m.all = false
	m.materialize(l)
	return true
}

// ShiftClick extends the selection from the anchor to a. A click in another
// section is rejected and leaves the selection unchanged. Without an anchor it
// behaves like Click.
func (m *Manager) ShiftClick(l Layout, a grid.Address) bool {
	if m.anchor == nil || m.all {
		return m.Click(l, a)
	}
	if a.Section != m.anchor.Section || !m.editable(a) || indexOf(l.RowIDs(a.Section), a.Row) < 0 {
		return false
	}
	focus := a
	m.focus = &focus
	m.materialize(l)
	return true
}

// MouseDown starts a drag at a.
func (m *Manager) MouseDown(l Layout, a grid.Address) bool {
	if !m.Click(l, a) {
		return false
	}
	m.dragging = true
	return true
}

// MouseEnter extends an active drag to a.
func (m *Manager) MouseEnter(l Layout, a grid.Address) bool {
	if !m.dragging {
		return false
	}
	if m.focus != nil && *m.focus == a {
		return false
	}
	return m.ShiftClick(l, a)
}

// MouseUp ends a drag. It reports whether the gesture stayed on one cell,
// which the caller treats as a plain click.
func (m *Manager) MouseUp() (click bool) {
	if !m.dragging {
		return false
	}
	m.dragging = false
	return m.anchor != nil && m.focus != nil && *m.anchor == *m.focus
}

// SelectAll selects every editable cell of every section.
func (m *Manager) SelectAll(l Layout) {
	m.dragging = false
	m.all = true
	m.anchor, m.focus = nil, nil
	m.cells = nil
	m.set = make(map[grid.Address]struct{})
	for _, sec := range l.SectionIDs() {
		for _, row := range l.RowIDs(sec) {
			for _, f := range m.fields {
				a := grid.Address{Section: sec, Row: row, Field: f}
				if m.anchor == nil {
					first := a
					m.anchor = &first
				}
				m.cells = append(m.cells, a)
				m.set[a] = struct{}{}
			}
		}
	}
}

// Rect returns the rectangle spanned by anchor and focus.
func (m *Manager) Rect(l Layout) (Rect, bool) {
	if m.anchor == nil || m.focus == nil {
		return Rect{}, false
	}
	rows := l.RowIDs(m.anchor.Section)
	r0, r1 := indexOf(rows, m.anchor.Row), indexOf(rows, m.focus.Row)
	if r0 < 0 || r1 < 0 {
		return Rect{}, false
	}
	f0, f1 := m.fieldPos[m.anchor.Field], m.fieldPos[m.focus.Field]
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	if f0 > f1 {
		f0, f1 = f1, f0
	}
	return Rect{Section: m.anchor.Section, Row0: r0, Row1: r1, Field0: f0, Field1: f1}, true
}

func (m *Manager) materialize(l Layout) {
	m.cells = nil
	m.set = make(map[grid.Address]struct{})
	r, ok := m.Rect(l)
	if !ok {
		return
	}
	rows := l.RowIDs(r.Section)
	for ri := r.Row0; ri <= r.Row1; ri++ {
		for fi := r.Field0; fi <= r.Field1; fi++ {
			a := grid.Address{Section: r.Section, Row: rows[ri], Field: m.fields[fi]}
			m.cells = append(m.cells, a)
			m.set[a] = struct{}{}
		}
	}
}

// Move collapses the selection to the focus cell shifted by the given
// amounts, clamped to the anchor's section.
func (m *Manager) Move(l Layout, dRow, dField int) bool {
	from := m.focus
	if from == nil {
		from = m.anchor
	}
	if from == nil {
		return false
	}
	next, ok := m.offset(l, *from, dRow, dField)
	if !ok {
		return false
	}
	return m.Click(l, next)
}

// Extend moves the focus by the given amounts, keeping the anchor.
func (m *Manager) Extend(l Layout, dRow, dField int) bool {
	if m.anchor == nil || m.all {
		return false
	}
	from := m.focus
	if from == nil {
		from = m.anchor
	}
	next, ok := m.offset(l, *from, dRow, dField)
	if !ok {
		return false
	}
	return m.ShiftClick(l, next)
}

func (m *Manager) offset(l Layout, a grid.Address, dRow, dField int) (grid.Address, bool) {
	rows := l.RowIDs(a.Section)
	ri := indexOf(rows, a.Row)
	if ri < 0 {
		return grid.Address{}, false
	}
	ri = clamp(ri+dRow, 0, len(rows)-1)
	fi := clamp(m.fieldPos[a.Field]+dField, 0, len(m.fields)-1)
	return grid.Address{Section: a.Section, Row: rows[ri], Field: m.fields[fi]}, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
