package grid

import "fmt"

type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// InsertRow inserts a default row at index at (clamped to the section) and
// returns it.
func (g *Grid) InsertRow(sectionID string, at int) (Row, error) {
	sec, err := g.section(sectionID)
	if err != nil {
		return Row{}, err
	}
	if at < 0 {
		at = 0
	}
	if at > len(sec.Rows) {
		at = len(sec.Rows)
	}
	row := g.NewRow()
	sec.Rows = append(sec.Rows, Row{})
	copy(sec.Rows[at+1:], sec.Rows[at:])
	sec.Rows[at] = row
	renumber(sec)
	g.recomputeSection(sec)
	g.recomputeGrand()
	return sec.Rows[at], nil
}

// InsertRowAfter inserts below rowID, or at the end when rowID is empty.
func (g *Grid) InsertRowAfter(sectionID, rowID string) (Row, error) {
	sec, err := g.section(sectionID)
	if err != nil {
		return Row{}, err
	}
	at := len(sec.Rows)
	if rowID != "" {
		i := rowIndex(sec, rowID)
		if i < 0 {
			return Row{}, fmt.Errorf("%w: %s", ErrNoSuchRow, rowID)
		}
		at = i + 1
	}
	return g.InsertRow(sectionID, at)
}

func (g *Grid) DeleteRow(sectionID, rowID string) error {
	sec, err := g.section(sectionID)
	if err != nil {
		return err
	}
	i := rowIndex(sec, rowID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchRow, rowID)
	}
	sec.Rows = append(sec.Rows[:i], sec.Rows[i+1:]...)
	renumber(sec)
	g.recomputeSection(sec)
	g.recomputeGrand()
	return nil
}

// MoveRow swaps a row with its neighbour. It reports false when the row is
// already at that edge.
func (g *Grid) MoveRow(sectionID, rowID string, dir Direction) (bool, error) {
	sec, err := g.section(sectionID)
	if err != nil {
		return false, err
	}
	i := rowIndex(sec, rowID)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNoSuchRow, rowID)
	}
	j := i + int(dir)
	if j < 0 || j >= len(sec.Rows) {
		return false, nil
	}
	sec.Rows[i], sec.Rows[j] = sec.Rows[j], sec.Rows[i]
	renumber(sec)
	g.recomputeSection(sec)
	g.recomputeGrand()
	return true, nil
}

// EnsureRows appends default rows until the section has at least n rows and
// returns how many were added.
func (g *Grid) EnsureRows(sectionID string, n int) (int, error) {
	sec, err := g.section(sectionID)
	if err != nil {
		return 0, err
	}
	added := 0
	for len(sec.Rows) < n {
		sec.Rows = append(sec.Rows, g.NewRow())
		added++
	}
	renumber(sec)
	if added > 0 {
		g.recomputeSection(sec)
		g.recomputeGrand()
	}
	return added, nil
}

// RowIndex returns the zero-based position of rowID in its section.
func (g *Grid) RowIndex(sectionID, rowID string) int {
	sec, err := g.section(sectionID)
	if err != nil {
		return -1
	}
	return rowIndex(sec, rowID)
}

func (g *Grid) SectionIDs() []string {
	ids := make([]string, len(g.Sections))
	for i, sec := range g.Sections {
		ids[i] = sec.ID
	}
	return ids
}

func (g *Grid) RowIDs(sectionID string) []string {
	sec, err := g.section(sectionID)
	if err != nil {
		return nil
	}
	ids := make([]string, len(sec.Rows))
	for i, r := range sec.Rows {
		ids[i] = r.ID
	}
	return ids
}

func (g *Grid) AddSection(name string) Section {
	sec := Section{ID: newID(), Name: name}
	g.Sections = append(g.Sections, sec)
	return sec
}

func (g *Grid) RenameSection(id, name string) error {
	sec, err := g.section(id)
	if err != nil {
		return err
	}
	sec.Name = name
	return nil
}

func (g *Grid) RemoveSection(id string) error {
	for i := range g.Sections {
		if g.Sections[i].ID == id {
			g.Sections = append(g.Sections[:i], g.Sections[i+1:]...)
			g.recomputeGrand()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoSuchSection, id)
}

// FirstCell returns the first editable cell of the first row, creating that
// row if the first section is empty. It fails only when there are no sections.
func (g *Grid) FirstCell() (Address, error) {
	if len(g.Sections) == 0 {
		return Address{}, ErrNoSuchSection
	}
	sec := &g.Sections[0]
	if len(sec.Rows) == 0 {
		if _, err := g.EnsureRows(sec.ID, 1); err != nil {
			return Address{}, err
		}
	}
	return Address{Section: sec.ID, Row: sec.Rows[0].ID, Field: g.Schema.EditableFields()[0]}, nil
}

// FirstExisting is FirstCell without the side effect: it fails with
// ErrNoSuchRow when the first section has no rows.
func (g *Grid) FirstExisting() (Address, error) {
	if len(g.Sections) == 0 {
		return Address{}, ErrNoSuchSection
	}
	sec := &g.Sections[0]
	if len(sec.Rows) == 0 {
		return Address{}, fmt.Errorf("%w: section %s is empty", ErrNoSuchRow, sec.ID)
	}
	return Address{Section: sec.ID, Row: sec.Rows[0].ID, Field: g.Schema.EditableFields()[0]}, nil
}
