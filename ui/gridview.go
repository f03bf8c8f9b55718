package ui

import (
	"strconv"

	"linegrid/config"
	"linegrid/grid"
	"linegrid/schema"
	"linegrid/selection"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// GridSource is what the view draws; *session.Session implements it.
type GridSource interface {
	Grid() *grid.Grid
	Selection() *selection.Manager
	EditCell() (grid.Address, string, bool)
}

type lineKind int

const (
	lineSection lineKind = iota
	lineRow
	lineSubtotal
)

type gridLine struct {
	kind    lineKind
	section int
	row     int
}

const ordinalWidth = 5

// GridView draws one grid: a fixed header of field labels, the scrolling
// body of sections, rows and subtotals, and a fixed grand-total footer.
type GridView struct {
	Source GridSource
	Theme  *config.ColorScheme

	scrollY, scrollX int
	x, y, w, h       int
	focused          bool

	lines  []gridLine
	colX   []int // content offset of each field column
	colW   []int
	totalW int
}

func NewGridView(src GridSource) *GridView {
	return &GridView{Source: src, focused: true}
}

func (v *GridView) schema() *schema.Schema { return v.Source.Grid().Schema }

func (v *GridView) layout() {
	g := v.Source.Grid()
	v.lines = v.lines[:0]
	for si, sec := range g.Sections {
		v.lines = append(v.lines, gridLine{kind: lineSection, section: si})
		for ri := range sec.Rows {
			v.lines = append(v.lines, gridLine{kind: lineRow, section: si, row: ri})
		}
		if _, ok := g.Schema.Derived(); ok {
			v.lines = append(v.lines, gridLine{kind: lineSubtotal, section: si})
		}
	}

	fields := g.Schema.Fields
	v.colX = v.colX[:0]
	v.colW = v.colW[:0]
	off := ordinalWidth
	for _, f := range fields {
		w := f.Width
		if lw := runewidth.StringWidth(f.Title()); lw > w {
			w = lw
		}
		if w < 3 {
			w = 3
		}
		v.colX = append(v.colX, off)
		v.colW = append(v.colW, w)
		off += w + 1
	}
	v.totalW = off
}

func (v *GridView) bodyHeight() int {
	if v.h < 3 {
		return 0
	}
	return v.h - 2
}

func (v *GridView) clampScroll() {
	if maxY := len(v.lines) - v.bodyHeight(); v.scrollY > maxY {
		v.scrollY = maxY
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
	if maxX := v.totalW - v.w; v.scrollX > maxX {
		v.scrollX = maxX
	}
	if v.scrollX < 0 {
		v.scrollX = 0
	}
}

func (v *GridView) Render(screen tcell.Screen, x, y, width, height int) {
	v.x, v.y, v.w, v.h = x, y, width, height
	v.layout()
	v.clampScroll()

	theme := v.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}
	base := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground)
	for row := y; row < y+height; row++ {
		for cx := x; cx < x+width; cx++ {
			screen.SetContent(cx, row, ' ', nil, base)
		}
	}
	if height < 1 {
		return
	}

	header := tcell.StyleDefault.Background(theme.HeaderBg).Foreground(theme.HeaderFg).Bold(true)
	v.fillRow(screen, y, header)
	v.drawCell(screen, y, 0, ordinalWidth-1, "#", header, true)
	for i, f := range v.schema().Fields {
		v.drawCell(screen, y, v.colX[i], v.colW[i], f.Title(), header, f.Kind.Numeric())
	}

	g := v.Source.Grid()
	sel := v.Source.Selection()
	editAddr, draft, editing := v.Source.EditCell()
	target, _ := v.schema().Derived()
	targetPos := v.schema().Position(target)

	for i := 0; i < v.bodyHeight(); i++ {
		li := v.scrollY + i
		if li >= len(v.lines) {
			break
		}
		ln := v.lines[li]
		sy := y + 1 + i
		sec := g.Sections[ln.section]
		switch ln.kind {
		case lineSection:
			st := base.Foreground(theme.SectionFg).Bold(true)
			name := sec.Name
			if name == "" {
				name = "(untitled section)"
			}
			v.drawCell(screen, sy, 0, v.totalW, "▸ "+name, st, false)
		case lineSubtotal:
			st := base.Foreground(theme.DerivedFg)
			if targetPos > 0 {
				v.drawCell(screen, sy, v.colX[targetPos-1], v.colW[targetPos-1], "Subtotal", st, true)
			}
			if targetPos >= 0 {
				v.drawCell(screen, sy, v.colX[targetPos], v.colW[targetPos], schema.FormatNumber(sec.Subtotal), st.Bold(true), true)
			}
		case lineRow:
			row := sec.Rows[ln.row]
			v.drawCell(screen, sy, 0, ordinalWidth-1, strconv.Itoa(row.Ordinal), base.Foreground(theme.OrdinalFg), true)
			for fi, f := range v.schema().Fields {
				a := grid.Address{Section: sec.ID, Row: row.ID, Field: f.Name}
				st := base
				if !f.Editable {
					st = st.Foreground(theme.DerivedFg)
				}
				if sel.Contains(a) {
					st = st.Background(theme.Selection)
				}
				text := g.Display(a)
				if editing && a == editAddr {
					st = base.Background(theme.EditBg)
					v.drawCell(screen, sy, v.colX[fi], v.colW[fi], draft, st, false)
					v.drawCursor(screen, sy, v.colX[fi], v.colW[fi], draft, st)
					continue
				}
				v.drawCell(screen, sy, v.colX[fi], v.colW[fi], text, st, f.Kind.Numeric())
			}
		}
	}

	if height >= 2 && targetPos >= 0 {
		footer := tcell.StyleDefault.Background(theme.HeaderBg).Foreground(theme.HeaderFg).Bold(true)
		fy := y + height - 1
		v.fillRow(screen, fy, footer)
		label := "Grand total"
		if targetPos > 0 {
			v.drawCell(screen, fy, v.colX[targetPos-1], v.colW[targetPos-1], label, footer, true)
		}
		v.drawCell(screen, fy, v.colX[targetPos], v.colW[targetPos], schema.FormatNumber(g.GrandTotal), footer, true)
	}
}

func (v *GridView) fillRow(screen tcell.Screen, sy int, style tcell.Style) {
	for cx := v.x; cx < v.x+v.w; cx++ {
		screen.SetContent(cx, sy, ' ', nil, style)
	}
}

// drawCell draws text into the content span [off, off+width), clipped to
// the view and shifted by the horizontal scroll.
func (v *GridView) drawCell(screen tcell.Screen, sy, off, width int, text string, style tcell.Style, right bool) {
	text = runewidth.Truncate(text, width, "…")
	pad := 0
	if right {
		pad = width - runewidth.StringWidth(text)
	}
	for i := 0; i < width; i++ {
		v.put(screen, off+i, sy, ' ', style)
	}
	col := off + pad
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		v.put(screen, col, sy, ch, style)
		col += w
	}
}

func (v *GridView) drawCursor(screen tcell.Screen, sy, off, width int, draft string, style tcell.Style) {
	pos := runewidth.StringWidth(draft)
	if pos >= width {
		pos = width - 1
	}
	v.put(screen, off+pos, sy, ' ', style.Reverse(true))
}

func (v *GridView) put(screen tcell.Screen, contentX, sy int, ch rune, style tcell.Style) {
	sx := v.x + contentX - v.scrollX
	if sx < v.x || sx >= v.x+v.w {
		return
	}
	screen.SetContent(sx, sy, ch, nil, style)
}

// CellAt maps a screen position to the cell drawn there. Only line rows of
// a rendered view hit.
func (v *GridView) CellAt(sx, sy int) (grid.Address, bool) {
	if sx < v.x || sx >= v.x+v.w || sy <= v.y || sy >= v.y+1+v.bodyHeight() {
		return grid.Address{}, false
	}
	li := v.scrollY + sy - v.y - 1
	if li >= len(v.lines) || v.lines[li].kind != lineRow {
		return grid.Address{}, false
	}
	contentX := sx - v.x + v.scrollX
	g := v.Source.Grid()
	for i, off := range v.colX {
		if contentX >= off && contentX < off+v.colW[i] {
			ln := v.lines[li]
			sec := g.Sections[ln.section]
			return grid.Address{Section: sec.ID, Row: sec.Rows[ln.row].ID, Field: g.Schema.Fields[i].Name}, true
		}
	}
	return grid.Address{}, false
}

// EnsureVisible scrolls so that a is on screen.
func (v *GridView) EnsureVisible(a grid.Address) {
	v.layout()
	g := v.Source.Grid()
	for li, ln := range v.lines {
		if ln.kind != lineRow {
			continue
		}
		sec := g.Sections[ln.section]
		if sec.ID != a.Section || sec.Rows[ln.row].ID != a.Row {
			continue
		}
		if li < v.scrollY {
			v.scrollY = li
			// Keep the section title in view when reaching its first row.
			if ln.row == 0 && li > 0 {
				v.scrollY = li - 1
			}
		}
		if bh := v.bodyHeight(); bh > 0 && li >= v.scrollY+bh {
			v.scrollY = li - bh + 1
		}
		break
	}
	if fi := g.Schema.Position(a.Field); fi >= 0 && fi < len(v.colX) {
		if v.colX[fi] < v.scrollX+ordinalWidth {
			v.scrollX = v.colX[fi] - ordinalWidth
		}
		if end := v.colX[fi] + v.colW[fi]; end > v.scrollX+v.w {
			v.scrollX = end - v.w
		}
	}
	v.clampScroll()
}

// Scroll returns the scroll offsets for persisting view state.
func (v *GridView) Scroll() (y, x int) { return v.scrollY, v.scrollX }

// SetScroll restores offsets; they are clamped on the next render.
func (v *GridView) SetScroll(y, x int) {
	v.scrollY, v.scrollX = y, x
}

func (v *GridView) ScrollBy(lines int) {
	v.scrollY += lines
	v.clampScroll()
}

func (v *GridView) Contains(sx, sy int) bool {
	return sx >= v.x && sx < v.x+v.w && sy >= v.y && sy < v.y+v.h
}

func (v *GridView) HandleKey(ev *tcell.EventKey) bool { return false }

// HandleMouse scrolls on the wheel; clicks are routed by the host, which
// owns the session.
func (v *GridView) HandleMouse(ev *tcell.EventMouse) bool {
	mx, my := ev.Position()
	if !v.Contains(mx, my) {
		return false
	}
	switch ev.Buttons() {
	case tcell.WheelUp:
		v.ScrollBy(-3)
		return true
	case tcell.WheelDown:
		v.ScrollBy(3)
		return true
	case tcell.WheelLeft:
		v.scrollX -= 4
		v.clampScroll()
		return true
	case tcell.WheelRight:
		v.scrollX += 4
		v.clampScroll()
		return true
	}
	return false
}

func (v *GridView) IsFocused() bool   { return v.focused }
func (v *GridView) SetFocused(f bool) { v.focused = f }
