// Package export renders sections of line items outside the editor: as an
// xlsx workbook or as tab-separated text.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"linegrid/grid"
	"linegrid/schema"

	"github.com/xuri/excelize/v2"
)

const (
	subtotalLabel = "Subtotal"
	totalLabel    = "Grand total"
)

// Workbook builds one sheet named after the schema: a header row of field
// labels, then per section a title row, its line rows and a subtotal row,
// and finally the grand total.
func Workbook(s *schema.Schema, sections []grid.Section) (*excelize.File, error) {
	g := grid.New(s, grid.Snapshot(sections).Clone())

	f := excelize.NewFile()
	sheet := sheetName(s)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(s.Fields) + 1)

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	boldRow := func(row int) error {
		return f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), bold)
	}

	row := 1
	if err := set(1, row, "#"); err != nil {
		f.Close()
		return nil, err
	}
	for i, fd := range s.Fields {
		if err := set(i+2, row, fd.Title()); err != nil {
			f.Close()
			return nil, err
		}
		col, _ := excelize.ColumnNumberToName(i + 2)
		if fd.Width > 0 {
			f.SetColWidth(sheet, col, col, float64(fd.Width)+2)
		}
	}
	boldRow(row)

	target, derived := s.Derived()
	targetCol := s.Position(target) + 2
	for _, sec := range g.Sections {
		row++
		set(1, row, sec.Name)
		boldRow(row)
		for _, r := range sec.Rows {
			row++
			set(1, row, r.Ordinal)
			for i, fd := range s.Fields {
				var v any = r.Text[fd.Name]
				if fd.Kind.Numeric() {
					v = r.Numbers[fd.Name]
				}
				if err := set(i+2, row, v); err != nil {
					f.Close()
					return nil, err
				}
			}
		}
		if derived {
			row++
			set(targetCol-1, row, subtotalLabel)
			set(targetCol, row, sec.Subtotal)
			boldRow(row)
		}
	}
	if derived {
		row++
		set(targetCol-1, row, totalLabel)
		set(targetCol, row, g.GrandTotal)
		boldRow(row)
	}
	return f, nil
}

// WriteXLSX writes the workbook for sections to w.
func WriteXLSX(w io.Writer, s *schema.Schema, sections []grid.Section) error {
	f, err := Workbook(s, sections)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Sheet names are capped at 31 characters.
func sheetName(s *schema.Schema) string {
	name := s.Title
	if name == "" {
		name = s.Type
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

var tsvReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// WriteTSV writes sections as tab-separated text with the same layout as the
// workbook.
func WriteTSV(w io.Writer, s *schema.Schema, sections []grid.Section) error {
	g := grid.New(s, grid.Snapshot(sections).Clone())
	target, derived := s.Derived()

	header := []string{"#"}
	for _, fd := range s.Fields {
		header = append(header, fd.Title())
	}
	lines := []string{strings.Join(header, "\t")}

	labelled := func(label string, v float64) string {
		cells := make([]string, len(s.Fields)+1)
		pos := s.Position(target) + 1
		cells[pos-1] = label
		cells[pos] = schema.FormatNumber(v)
		return strings.Join(cells, "\t")
	}

	for _, sec := range g.Sections {
		lines = append(lines, "["+tsvReplacer.Replace(sec.Name)+"]")
		for _, r := range sec.Rows {
			cells := []string{strconv.Itoa(r.Ordinal)}
			for _, fd := range s.Fields {
				if fd.Kind.Numeric() {
					cells = append(cells, schema.FormatNumber(r.Numbers[fd.Name]))
				} else {
					cells = append(cells, tsvReplacer.Replace(r.Text[fd.Name]))
				}
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
		if derived {
			lines = append(lines, labelled(subtotalLabel, sec.Subtotal))
		}
	}
	if derived {
		lines = append(lines, labelled(totalLabel, g.GrandTotal))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
