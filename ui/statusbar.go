package ui

import (
	"fmt"

	"linegrid/config"
	"linegrid/schema"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type StatusBar struct {
	Mode     string // "VIEW", "EDIT" or "SAVE"
	Project  string
	Schema   string
	Cell     string // focused cell, e.g. "Lighting 3:qty"
	Selected int    // number of selected cells
	Total    float64
	Dirty    bool
	Message  string // temporary status message
	IsError  bool
	Theme    *config.ColorScheme
}

func NewStatusBar() *StatusBar {
	return &StatusBar{Mode: "VIEW"}
}

// Right returns the right-aligned summary.
func (s *StatusBar) Right() string {
	right := ""
	if s.Selected > 1 {
		right += fmt.Sprintf("Sel: %d cells │ ", s.Selected)
	}
	if s.Cell != "" {
		right += s.Cell + " │ "
	}
	return right + "Total " + schema.FormatNumber(s.Total) + " "
}

func (s *StatusBar) Render(screen tcell.Screen, x, y, width, height int) {
	theme := s.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}

	style := tcell.StyleDefault.Background(theme.StatusBarBg).Foreground(theme.StatusBarFg)
	modeStyle := tcell.StyleDefault.Background(theme.StatusBarMode).Foreground(tcell.ColorWhite).Bold(true)

	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, style)
	}

	col := x
	col += drawString(screen, col, y, x+width-col, " "+s.Mode+" ", modeStyle)
	col++

	if s.Message != "" {
		msgStyle := style
		if s.IsError {
			msgStyle = style.Foreground(theme.ErrorFg).Bold(true)
		}
		drawString(screen, col, y, x+width-col, s.Message, msgStyle)
		return
	}

	name := s.Project + " · " + s.Schema
	if s.Dirty {
		name = "*" + name
	}
	col += drawString(screen, col, y, x+width-col, name, style)

	right := s.Right()
	rightStart := x + width - runewidth.StringWidth(right)
	if rightStart > col+2 {
		drawString(screen, rightStart, y, x+width-rightStart, right, style)
	}
}

func (s *StatusBar) HandleKey(ev *tcell.EventKey) bool     { return false }
func (s *StatusBar) HandleMouse(ev *tcell.EventMouse) bool { return false }
func (s *StatusBar) IsFocused() bool                        { return false }
func (s *StatusBar) SetFocused(f bool)                      {}
