package grid

import (
	"errors"
	"fmt"

	"linegrid/schema"

	"github.com/google/uuid"
)

var (
	ErrNoSuchSection = errors.New("no such section")
	ErrNoSuchRow     = errors.New("no such row")
	ErrNoSuchField   = errors.New("no such field")
	ErrReadOnlyField = errors.New("field is derived and read-only")
)

// Address identifies one cell.
type Address struct {
	Section string `json:"section"`
	Row     string `json:"row"`
	Field   string `json:"field"`
}

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string {
	return fmt.Sprintf("%s/%s/%s", a.Section, a.Row, a.Field)
}

type Row struct {
	ID      string             `json:"id"`
	Ordinal int                `json:"ordinal"`
	Text    map[string]string  `json:"text,omitempty"`
	Numbers map[string]float64 `json:"numbers,omitempty"`
}

type Section struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Rows     []Row   `json:"rows"`
	Subtotal float64 `json:"subtotal"`
}

// Grid is the live line-item table for one schema. Every mutation leaves
// ordinals contiguous and derived totals current.
type Grid struct {
	Schema     *schema.Schema
	Sections   []Section
	GrandTotal float64
}

func New(s *schema.Schema, sections []Section) *Grid {
	g := &Grid{Schema: s, Sections: sections}
	g.Normalize()
	return g
}

func newID() string { return uuid.NewString() }

// NewRow returns a row holding every field's default value.
func (g *Grid) NewRow() Row {
	r := Row{
		ID:      newID(),
		Text:    make(map[string]string),
		Numbers: make(map[string]float64),
	}
	for _, f := range g.Schema.Fields {
		if f.Kind.Numeric() {
			r.Numbers[f.Name] = f.DefaultNumber()
		} else {
			r.Text[f.Name] = f.DefaultText()
		}
	}
	g.recomputeRow(&r)
	return r
}

// Normalize repairs data that came from a store: missing ids and fields are
// filled in, values are re-coerced, ordinals renumbered and totals computed.
func (g *Grid) Normalize() {
	for si := range g.Sections {
		sec := &g.Sections[si]
		if sec.ID == "" {
			sec.ID = newID()
		}
		seen := make(map[string]bool, len(sec.Rows))
		for ri := range sec.Rows {
			row := &sec.Rows[ri]
			if row.ID == "" || seen[row.ID] {
				row.ID = newID()
			}
			seen[row.ID] = true
			if row.Text == nil {
				row.Text = make(map[string]string)
			}
			if row.Numbers == nil {
				row.Numbers = make(map[string]float64)
			}
			for _, f := range g.Schema.Fields {
				if f.Kind.Numeric() {
					if _, ok := row.Numbers[f.Name]; !ok {
						row.Numbers[f.Name] = schema.ParseNumber(row.Text[f.Name])
					}
					delete(row.Text, f.Name)
					continue
				}
				if v, ok := row.Text[f.Name]; ok {
					row.Text[f.Name] = f.CoerceText(v)
				} else {
					row.Text[f.Name] = f.DefaultText()
				}
			}
		}
		renumber(sec)
	}
	g.Recompute()
}

func (g *Grid) section(id string) (*Section, error) {
	for i := range g.Sections {
		if g.Sections[i].ID == id {
			return &g.Sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSuchSection, id)
}

// Section returns a pointer into the grid; it is invalidated by section
// insertion or removal.
func (g *Grid) Section(id string) (*Section, error) { return g.section(id) }

func rowIndex(sec *Section, rowID string) int {
	for i := range sec.Rows {
		if sec.Rows[i].ID == rowID {
			return i
		}
	}
	return -1
}

func (g *Grid) locate(addr Address) (*Section, *Row, schema.Field, error) {
	sec, err := g.section(addr.Section)
	if err != nil {
		return nil, nil, schema.Field{}, err
	}
	i := rowIndex(sec, addr.Row)
	if i < 0 {
		return nil, nil, schema.Field{}, fmt.Errorf("%w: %s", ErrNoSuchRow, addr.Row)
	}
	f, ok := g.Schema.Field(addr.Field)
	if !ok {
		return nil, nil, schema.Field{}, fmt.Errorf("%w: %s", ErrNoSuchField, addr.Field)
	}
	return sec, &sec.Rows[i], f, nil
}

// Display returns the text shown for a cell.
func (g *Grid) Display(addr Address) string {
	_, row, f, err := g.locate(addr)
	if err != nil {
		return ""
	}
	return displayValue(row, f)
}

func displayValue(row *Row, f schema.Field) string {
	if f.Kind.Numeric() {
		return schema.FormatNumber(row.Numbers[f.Name])
	}
	return row.Text[f.Name]
}

// Number returns the numeric value of a cell, or 0 for non-numeric fields.
func (g *Grid) Number(addr Address) float64 {
	_, row, f, err := g.locate(addr)
	if err != nil || !f.Kind.Numeric() {
		return 0
	}
	return row.Numbers[f.Name]
}

// SetCellValue coerces raw per the field's kind and writes it. Bad input never
// fails; only bad addresses and derived fields do.
func (g *Grid) SetCellValue(addr Address, raw string) error {
	return g.write(addr, raw, false)
}

// PasteCellValue is SetCellValue with clipboard conversions applied.
func (g *Grid) PasteCellValue(addr Address, raw string) error {
	return g.write(addr, raw, true)
}

func (g *Grid) write(addr Address, raw string, paste bool) error {
	sec, row, f, err := g.locate(addr)
	if err != nil {
		return err
	}
	if !f.Editable {
		return fmt.Errorf("%w: %s", ErrReadOnlyField, f.Name)
	}
	switch {
	case f.Kind.Numeric():
		row.Numbers[f.Name] = schema.ParseNumber(raw)
	case paste:
		row.Text[f.Name] = f.PasteText(raw)
	default:
		row.Text[f.Name] = f.CoerceText(raw)
	}
	g.recomputeRow(row)
	g.recomputeSection(sec)
	g.recomputeGrand()
	return nil
}

// ClearCells resets each addressed editable cell to its field default.
// Derived and unknown cells are skipped.
func (g *Grid) ClearCells(addrs []Address) int {
	cleared := 0
	for _, addr := range addrs {
		_, row, f, err := g.locate(addr)
		if err != nil || !f.Editable {
			continue
		}
		if f.Kind.Numeric() {
			row.Numbers[f.Name] = f.DefaultNumber()
		} else {
			row.Text[f.Name] = f.DefaultText()
		}
		cleared++
	}
	g.Recompute()
	return cleared
}

func renumber(sec *Section) {
	for i := range sec.Rows {
		sec.Rows[i].Ordinal = i + 1
	}
}
