package clipboardx

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"linegrid/grid"
	"linegrid/schema"
)

var ErrBadOrigin = errors.New("paste origin is not an editable cell")

// Encode renders cells as tab-separated text, one line per row. Rows are
// sparse: only the cells present in the list are written, in canonical field
// order.
func Encode(g *grid.Grid, cells []grid.Address) string {
	if len(cells) == 0 {
		return ""
	}
	secPos := make(map[string]int)
	for i, id := range g.SectionIDs() {
		secPos[id] = i
	}
	sorted := append([]grid.Address(nil), cells...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Section != b.Section {
			return secPos[a.Section] < secPos[b.Section]
		}
		if a.Row != b.Row {
			return g.RowIndex(a.Section, a.Row) < g.RowIndex(b.Section, b.Row)
		}
		return g.Schema.Position(a.Field) < g.Schema.Position(b.Field)
	})

	var lines []string
	var line []string
	prev := sorted[0]
	for i, a := range sorted {
		if i > 0 && (a.Section != prev.Section || a.Row != prev.Row) {
			lines = append(lines, strings.Join(line, "\t"))
			line = line[:0]
		}
		line = append(line, cellText(g.Display(a)))
		prev = a
	}
	lines = append(lines, strings.Join(line, "\t"))
	return strings.Join(lines, "\n")
}

var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func cellText(s string) string { return cellReplacer.Replace(s) }

// Parse splits clipboard text into rows of tab-separated cells. A single
// trailing newline, as spreadsheets append, is dropped. Text without tabs or
// newlines becomes a 1x1 matrix.
func Parse(text string) [][]string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	matrix := make([][]string, len(lines))
	for i, l := range lines {
		matrix[i] = strings.Split(l, "\t")
	}
	return matrix
}

// IsHeaderRow reports whether every non-empty cell names a field of s.
func IsHeaderRow(s *schema.Schema, row []string) bool {
	vocab := s.HeaderVocabulary()
	seen := 0
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !vocab[c] {
			return false
		}
		seen++
	}
	return seen > 0
}

// Decode parses text and drops a leading header row when the schema asks
// for header detection.
func Decode(s *schema.Schema, text string) [][]string {
	m := Parse(text)
	if len(m) > 0 && s.HeaderRow == schema.HeaderDetect && IsHeaderRow(s, m[0]) {
		m = m[1:]
	}
	return m
}

type PasteResult struct {
	Rows      int
	Cells     int
	RowsAdded int
}

// Apply writes matrix into g starting at origin. The target section grows
// with default rows as needed; columns map onto the editable fields from the
// origin's field onward and anything past the last editable field is dropped.
func Apply(g *grid.Grid, origin grid.Address, matrix [][]string) (PasteResult, error) {
	var res PasteResult
	start := g.RowIndex(origin.Section, origin.Row)
	col := g.Schema.EditablePosition(origin.Field)
	if start < 0 || col < 0 {
		return res, fmt.Errorf("%w: %s", ErrBadOrigin, origin)
	}
	if len(matrix) == 0 {
		return res, nil
	}
	added, err := g.EnsureRows(origin.Section, start+len(matrix))
	if err != nil {
		return res, err
	}
	res.RowsAdded = added

	rows := g.RowIDs(origin.Section)
	fields := g.Schema.EditableFields()
	for i, cells := range matrix {
		rowID := rows[start+i]
		for j, v := range cells {
			if col+j >= len(fields) {
				break
			}
			a := grid.Address{Section: origin.Section, Row: rowID, Field: fields[col+j]}
			if err := g.PasteCellValue(a, v); err != nil {
				return res, err
			}
			res.Cells++
		}
		res.Rows++
	}
	g.Recompute()
	return res, nil
}

// ApplyAll writes a whole-grid copy back section by section: each section
// takes as many lines as it has rows, starting at its first editable cell.
// Empty sections take none, and lines left over grow the last section.
func ApplyAll(g *grid.Grid, matrix [][]string) (PasteResult, error) {
	var res PasteResult
	ids := g.SectionIDs()
	if len(ids) == 0 {
		return res, grid.ErrNoSuchSection
	}
	field := g.Schema.EditableFields()[0]
	for i, id := range ids {
		if len(matrix) == 0 {
			break
		}
		n := len(g.RowIDs(id))
		if i == len(ids)-1 {
			n = len(matrix)
			added, err := g.EnsureRows(id, 1)
			if err != nil {
				return res, err
			}
			res.RowsAdded += added
		}
		if n == 0 {
			continue
		}
		if n > len(matrix) {
			n = len(matrix)
		}
		part, err := Apply(g, grid.Address{Section: id, Row: g.RowIDs(id)[0], Field: field}, matrix[:n])
		res.Rows += part.Rows
		res.Cells += part.Cells
		res.RowsAdded += part.RowsAdded
		if err != nil {
			return res, err
		}
		matrix = matrix[n:]
	}
	return res, nil
}
