package export

import (
	"bytes"
	"strings"
	"testing"

	"linegrid/grid"
	"linegrid/schema"

	"github.com/xuri/excelize/v2"
)

func sample() (*schema.Schema, []grid.Section) {
	s := schema.Electrical()
	g := grid.New(s, []grid.Section{{Name: "Lighting"}})
	sec := g.Sections[0].ID
	g.EnsureRows(sec, 1)
	row := g.RowIDs(sec)[0]
	g.SetCellValue(grid.Address{Section: sec, Row: row, Field: "name"}, "Downlight")
	g.SetCellValue(grid.Address{Section: sec, Row: row, Field: "qty"}, "4")
	g.SetCellValue(grid.Address{Section: sec, Row: row, Field: "unitPrice"}, "12.5")
	return s, g.Snapshot()
}

func TestWriteXLSX(t *testing.T) {
	s, sections := sample()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, s, sections); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	want := map[string]string{
		"A1": "#",
		"B1": "Item",
		"J1": "Total",
		"A2": "Lighting",
		"A3": "1",
		"B3": "Downlight",
		"F3": "4",
		"G3": "12.5",
		"J3": "50",
		"I4": "Subtotal",
		"J4": "50",
		"I5": "Grand total",
		"J5": "50",
	}
	for cell, v := range want {
		got, err := f.GetCellValue("Electrical", cell)
		if err != nil {
			t.Fatalf("read %s failed: %v", cell, err)
		}
		if got != v {
			t.Fatalf("expected %s = %q, got %q", cell, v, got)
		}
	}
}

func TestWriteTSV(t *testing.T) {
	s, sections := sample()
	var buf bytes.Buffer
	if err := WriteTSV(&buf, s, sections); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if lines[1] != "[Lighting]" {
		t.Fatalf("expected section title, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "1\tDownlight\t") || !strings.HasSuffix(lines[2], "\t50") {
		t.Fatalf("unexpected line row %q", lines[2])
	}
	if !strings.HasSuffix(lines[4], "Grand total\t50") {
		t.Fatalf("unexpected grand total line %q", lines[4])
	}
}
