package ui

import (
	"linegrid/config"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Tab is one grid of the open project.
type Tab struct {
	Title string
	Key   string
	// Modified marks unsaved edits; Stale marks a grid whose stored copy
	// changed while it had unsaved edits.
	Modified bool
	Stale    bool
	Editing  bool
}

type TabBar struct {
	Tabs           []Tab
	Active         int
	scrollOff      int
	focused        bool
	x, y, w        int
	mouseX, mouseY int

	mousePressX, mousePressY int
	mousePressed             bool

	Theme *config.ColorScheme

	OnSwitch func(index int)
}

func NewTabBar() *TabBar {
	return &TabBar{mouseX: -1, mouseY: -1}
}

func (tb *TabBar) tabTitle(tab Tab) string {
	title := tab.Title
	if tab.Editing {
		title += " ✎"
	}
	if tab.Stale {
		title = "!" + title
	} else if tab.Modified {
		title = "*" + title
	}
	return title
}

func (tb *TabBar) tabWidthAt(index int) int {
	if index < 0 || index >= len(tb.Tabs) {
		return 0
	}
	// space + title + space
	w := 1 + runewidth.StringWidth(tb.tabTitle(tb.Tabs[index])) + 1
	if index < len(tb.Tabs)-1 {
		w++ // separator
	}
	return w
}

func (tb *TabBar) clampScroll() {
	if len(tb.Tabs) == 0 {
		tb.scrollOff = 0
		return
	}
	if tb.scrollOff < 0 {
		tb.scrollOff = 0
	}
	if maxOff := len(tb.Tabs) - 1; tb.scrollOff > maxOff {
		tb.scrollOff = maxOff
	}
}

func (tb *TabBar) visibleLast(width int) int {
	if width <= 0 || len(tb.Tabs) == 0 {
		return tb.scrollOff - 1
	}
	remaining := width
	last := tb.scrollOff - 1
	for i := tb.scrollOff; i < len(tb.Tabs); i++ {
		w := tb.tabWidthAt(i)
		if w > remaining {
			break
		}
		remaining -= w
		last = i
	}
	return last
}

func (tb *TabBar) ensureActiveVisible(width int) {
	tb.clampScroll()
	if len(tb.Tabs) == 0 || width <= 0 {
		return
	}
	if tb.Active < 0 {
		tb.Active = 0
	}
	if tb.Active >= len(tb.Tabs) {
		tb.Active = len(tb.Tabs) - 1
	}
	if tb.Active < tb.scrollOff {
		tb.scrollOff = tb.Active
	}
	for tb.Active > tb.visibleLast(width) && tb.scrollOff < tb.Active {
		tb.scrollOff++
	}
	tb.clampScroll()
}

func (tb *TabBar) scrollBy(delta int) {
	tb.scrollOff += delta
	tb.clampScroll()
}

// AddTab appends a tab for key, or activates the existing one.
func (tb *TabBar) AddTab(key, title string) {
	for i, tab := range tb.Tabs {
		if tab.Key == key {
			tb.Active = i
			return
		}
	}
	if title == "" {
		title = key
	}
	tb.Tabs = append(tb.Tabs, Tab{Title: title, Key: key})
	tb.Active = len(tb.Tabs) - 1
	tb.ensureActiveVisible(tb.w)
}

func (tb *TabBar) SetModified(index int, modified bool) {
	if index >= 0 && index < len(tb.Tabs) {
		tb.Tabs[index].Modified = modified
	}
}

func (tb *TabBar) SetStale(index int, stale bool) {
	if index >= 0 && index < len(tb.Tabs) {
		tb.Tabs[index].Stale = stale
	}
}

func (tb *TabBar) SetEditing(index int, editing bool) {
	if index >= 0 && index < len(tb.Tabs) {
		tb.Tabs[index].Editing = editing
	}
}

func (tb *TabBar) Render(screen tcell.Screen, x, y, width, height int) {
	tb.x, tb.y, tb.w = x, y, width
	tb.ensureActiveVisible(width)

	theme := tb.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}
	barStyle := tcell.StyleDefault.Background(theme.TabBarBg).Foreground(theme.TabBarFg)
	activeStyle := tcell.StyleDefault.Background(theme.TabBarActiveBg).Foreground(theme.TabBarActiveFg).Bold(true)

	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, barStyle)
	}

	col := x
	for i := tb.scrollOff; i < len(tb.Tabs) && col < x+width; i++ {
		style := barStyle
		if i == tb.Active {
			style = activeStyle
		} else if tb.mouseY == y && tb.mouseX >= col && tb.mouseX < col+tb.tabWidthAt(i) {
			style = style.Foreground(theme.TabBarActiveFg)
		}
		col += drawString(screen, col, y, x+width-col, " "+tb.tabTitle(tb.Tabs[i])+" ", style)
		if col < x+width && i < len(tb.Tabs)-1 {
			screen.SetContent(col, y, '│', nil, barStyle)
			col++
		}
	}
}

// Next activates the tab after the active one, wrapping around.
func (tb *TabBar) Next(delta int) {
	if len(tb.Tabs) == 0 {
		return
	}
	i := (tb.Active + delta + len(tb.Tabs)) % len(tb.Tabs)
	if tb.OnSwitch != nil {
		tb.OnSwitch(i)
	} else {
		tb.Active = i
	}
}

func (tb *TabBar) HandleKey(ev *tcell.EventKey) bool {
	return false
}

func (tb *TabBar) HandleMouse(ev *tcell.EventMouse) bool {
	mx, my := ev.Position()
	btn := ev.Buttons()

	if my != tb.y || mx < tb.x || mx >= tb.x+tb.w {
		tb.mouseX, tb.mouseY = -1, -1
		tb.mousePressed = false
		return false
	}
	tb.mouseX, tb.mouseY = mx, my

	switch btn {
	case tcell.WheelUp, tcell.WheelLeft:
		tb.scrollBy(-1)
		return true
	case tcell.WheelDown, tcell.WheelRight:
		tb.scrollBy(1)
		return true
	}

	if btn == tcell.Button1 {
		if !tb.mousePressed {
			tb.mousePressX, tb.mousePressY = mx, my
			tb.mousePressed = true
		}
		return true
	}

	// Release at the press position counts as a click.
	if btn == tcell.ButtonNone && tb.mousePressed {
		tb.mousePressed = false
		if mx != tb.mousePressX || my != tb.mousePressY {
			return true
		}
		col := tb.x
		for i := tb.scrollOff; i < len(tb.Tabs) && col < tb.x+tb.w; i++ {
			w := tb.tabWidthAt(i)
			if mx >= col && mx < col+w {
				if tb.OnSwitch != nil {
					tb.OnSwitch(i)
				}
				return true
			}
			col += w
		}
		return true
	}
	return true
}

func (tb *TabBar) IsFocused() bool   { return tb.focused }
func (tb *TabBar) SetFocused(f bool) { tb.focused = f }
