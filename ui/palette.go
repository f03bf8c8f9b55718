package ui

import (
	"sort"
	"strings"
	"unicode"

	"linegrid/config"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Command is one palette entry: an editor action or a jump target.
type Command struct {
	Name     string
	Shortcut string
	Action   func()
}

type scoredCommand struct {
	Command
	Score     int
	MatchIdxs []int
}

// Palette filters commands by fuzzy match as the user types.
type Palette struct {
	Title     string
	Input     string
	CursorPos int
	Commands  []Command
	Filtered  []scoredCommand
	Selected  int
	OnClose   func()
	Theme     *config.ColorScheme

	focused   bool
	scrollOff int
}

func NewPalette(title string, commands []Command, theme *config.ColorScheme) *Palette {
	p := &Palette{Title: title, Commands: commands, Theme: theme, focused: true}
	p.updateFilter()
	return p
}

func (p *Palette) updateFilter() {
	p.Selected = 0
	p.scrollOff = 0
	p.Filtered = p.Filtered[:0]
	if p.Input == "" {
		for _, c := range p.Commands {
			p.Filtered = append(p.Filtered, scoredCommand{Command: c})
		}
		return
	}
	query := strings.ToLower(p.Input)
	for _, c := range p.Commands {
		if score, idxs := fuzzyScore(c.Name, query); score > 0 {
			p.Filtered = append(p.Filtered, scoredCommand{Command: c, Score: score, MatchIdxs: idxs})
		}
	}
	sort.SliceStable(p.Filtered, func(i, j int) bool {
		return p.Filtered[i].Score > p.Filtered[j].Score
	})
}

// fuzzyScore matches query's runes in order inside name. Zero means no
// match; consecutive runes, word starts and prefixes score higher.
func fuzzyScore(name, query string) (int, []int) {
	lower := []rune(strings.ToLower(name))
	orig := []rune(name)
	q := []rune(query)
	if len(q) == 0 || len(q) > len(lower) {
		return 0, nil
	}

	idxs := make([]int, 0, len(q))
	pi := 0
	for _, qr := range q {
		for pi < len(lower) && lower[pi] != qr {
			pi++
		}
		if pi == len(lower) {
			return 0, nil
		}
		idxs = append(idxs, pi)
		pi++
	}

	score := 10
	for i := 1; i < len(idxs); i++ {
		if idxs[i] == idxs[i-1]+1 {
			score += 5
		}
	}
	for _, idx := range idxs {
		switch {
		case idx == 0:
			score += 10
		case orig[idx-1] == ' ' || orig[idx-1] == '-' || orig[idx-1] == '_':
			score += 8
		case unicode.IsLower(orig[idx-1]) && unicode.IsUpper(orig[idx]):
			score += 6
		}
	}
	if strings.HasPrefix(string(lower), query) {
		score += 20
	}
	return score, idxs
}

func (p *Palette) Render(screen tcell.Screen, x, y, width, height int) {
	theme := p.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}
	style := tcell.StyleDefault.Background(theme.DialogBg).Foreground(theme.DialogFg)
	inputStyle := tcell.StyleDefault.Background(theme.DialogInputBg).Foreground(theme.DialogFg)
	selStyle := style.Background(theme.Selection).Bold(true)
	matchStyle := style.Foreground(theme.SectionFg).Bold(true)

	boxW := width * 2 / 3
	if boxW < 30 {
		boxW = width
	}
	maxVisible := 12
	if maxVisible > height-4 {
		maxVisible = height - 4
	}
	if maxVisible < 1 {
		return
	}
	bx := x + (width-boxW)/2
	by := y + 1

	for row := 0; row < maxVisible+3; row++ {
		for cx := bx; cx < bx+boxW; cx++ {
			screen.SetContent(cx, by+row, ' ', nil, style)
		}
	}
	drawString(screen, bx+1, by, boxW-2, p.Title, style.Bold(true))

	for cx := bx + 1; cx < bx+boxW-1; cx++ {
		screen.SetContent(cx, by+1, ' ', nil, inputStyle)
	}
	col := bx + 2 + drawString(screen, bx+2, by+1, boxW-4, "> "+p.Input, inputStyle)
	if col < bx+boxW-1 {
		screen.SetContent(col, by+1, ' ', nil, inputStyle.Reverse(true))
	}

	if p.Selected < p.scrollOff {
		p.scrollOff = p.Selected
	}
	if p.Selected >= p.scrollOff+maxVisible {
		p.scrollOff = p.Selected - maxVisible + 1
	}
	for i := 0; i < maxVisible && p.scrollOff+i < len(p.Filtered); i++ {
		item := p.Filtered[p.scrollOff+i]
		ry := by + 2 + i
		st := style
		if p.scrollOff+i == p.Selected {
			st = selStyle
			for cx := bx; cx < bx+boxW; cx++ {
				screen.SetContent(cx, ry, ' ', nil, st)
			}
		}
		matched := make(map[int]bool, len(item.MatchIdxs))
		for _, idx := range item.MatchIdxs {
			matched[idx] = true
		}
		cx := bx + 2
		for ri, ch := range []rune(item.Name) {
			w := runewidth.RuneWidth(ch)
			if cx+w > bx+boxW-2 {
				break
			}
			cst := st
			if matched[ri] {
				cst = matchStyle.Background(bgOf(st))
			}
			screen.SetContent(cx, ry, ch, nil, cst)
			cx += w
		}
		if item.Shortcut != "" {
			sw := runewidth.StringWidth(item.Shortcut)
			if sx := bx + boxW - 2 - sw; sx > cx+1 {
				drawString(screen, sx, ry, sw, item.Shortcut, st.Foreground(theme.OrdinalFg))
			}
		}
	}
}

func bgOf(st tcell.Style) tcell.Color {
	_, bg, _ := st.Decompose()
	return bg
}

func (p *Palette) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		if p.OnClose != nil {
			p.OnClose()
		}
	case tcell.KeyEnter:
		p.Run()
	case tcell.KeyUp:
		if p.Selected > 0 {
			p.Selected--
		}
	case tcell.KeyDown:
		if p.Selected < len(p.Filtered)-1 {
			p.Selected++
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if p.CursorPos > 0 {
			runes := []rune(p.Input)
			p.Input = string(runes[:p.CursorPos-1]) + string(runes[p.CursorPos:])
			p.CursorPos--
			p.updateFilter()
		}
	case tcell.KeyRune:
		p.Type(string(ev.Rune()))
	}
	return true // the palette is modal
}

// Type inserts text at the cursor and refilters.
func (p *Palette) Type(text string) {
	runes := []rune(p.Input)
	p.Input = string(runes[:p.CursorPos]) + text + string(runes[p.CursorPos:])
	p.CursorPos += len([]rune(text))
	p.updateFilter()
}

// Run closes the palette and runs the selected command.
func (p *Palette) Run() {
	if p.Selected < 0 || p.Selected >= len(p.Filtered) {
		return
	}
	action := p.Filtered[p.Selected].Action
	if p.OnClose != nil {
		p.OnClose()
	}
	if action != nil {
		action()
	}
}

func (p *Palette) HandleMouse(ev *tcell.EventMouse) bool { return true }
func (p *Palette) IsFocused() bool                       { return p.focused }
func (p *Palette) SetFocused(f bool)                     { p.focused = f }
