package ui

import (
	"strings"

	"linegrid/config"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type DialogType int

const (
	DialogNone DialogType = iota
	DialogInput
	DialogDiscardConfirm
	DialogReloadConfirm
	DialogDeleteConfirm
	DialogMessage
	DialogHelp
)

type Dialog struct {
	Type    DialogType
	Input   string
	Cursor  int
	focused bool

	// Subject names what a confirm dialog is about.
	Subject string
	// Prompt is the input label or the message text.
	Prompt  string
	IsError bool

	Theme *config.ColorScheme

	OnSubmit  func(value string)
	OnCancel  func()
	OnConfirm func(answer rune)
}

func NewInputDialog(prompt, initial string) *Dialog {
	return &Dialog{
		Type:    DialogInput,
		Prompt:  prompt,
		Input:   initial,
		Cursor:  len([]rune(initial)),
		focused: true,
	}
}

// NewDiscardConfirmDialog asks what to do with unsaved changes: 's' saves,
// 'd' discards, 'c' keeps editing.
func NewDiscardConfirmDialog(subject string) *Dialog {
	return &Dialog{Type: DialogDiscardConfirm, Subject: subject, focused: true}
}

func NewReloadConfirmDialog(subject string) *Dialog {
	return &Dialog{Type: DialogReloadConfirm, Subject: subject, focused: true}
}

func NewDeleteConfirmDialog(subject string) *Dialog {
	return &Dialog{Type: DialogDeleteConfirm, Subject: subject, focused: true}
}

// NewMessageDialog blocks until any key dismisses it.
func NewMessageDialog(msg string, isError bool) *Dialog {
	return &Dialog{Type: DialogMessage, Prompt: msg, IsError: isError, focused: true}
}

func NewHelpDialog() *Dialog {
	return &Dialog{Type: DialogHelp, focused: true}
}

func (d *Dialog) theme() *config.ColorScheme {
	if d.Theme == nil {
		return config.Themes["monokai"]
	}
	return d.Theme
}

func (d *Dialog) Render(screen tcell.Screen, x, y, width, height int) {
	switch d.Type {
	case DialogInput:
		d.renderInputBar(screen, x, y, width)
	case DialogDiscardConfirm:
		d.renderBar(screen, x, y, width, tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite),
			" Unsaved changes in "+d.Subject+". [S]ave [D]iscard [C]ancel ")
	case DialogReloadConfirm:
		d.renderBar(screen, x, y, width, tcell.StyleDefault.Background(tcell.ColorOrange).Foreground(tcell.ColorBlack),
			" "+d.Subject+" changed in the store. Reload? [Y]es [C]ancel ")
	case DialogDeleteConfirm:
		d.renderBar(screen, x, y, width, tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite),
			" Delete "+d.Subject+"? [Y]es [N]o ")
	case DialogMessage:
		style := tcell.StyleDefault.Background(d.theme().DialogBg).Foreground(d.theme().DialogFg)
		if d.IsError {
			style = tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite)
		}
		d.renderBar(screen, x, y, width, style, " "+d.Prompt+"  (press any key) ")
	case DialogHelp:
		d.renderHelp(screen, x, y, width, height)
	}
}

func (d *Dialog) renderBar(screen tcell.Screen, x, y, width int, style tcell.Style, msg string) {
	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, style)
	}
	drawString(screen, x, y, width, runewidth.Truncate(msg, width, "…"), style)
}

func (d *Dialog) renderInputBar(screen tcell.Screen, x, y, width int) {
	theme := d.theme()
	style := tcell.StyleDefault.Background(theme.DialogInputBg).Foreground(theme.DialogFg)
	promptStyle := style.Foreground(tcell.ColorYellow).Bold(true)

	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, style)
	}
	col := x + drawString(screen, x, y, width, d.Prompt, promptStyle)

	for i, ch := range []rune(d.Input) {
		w := runewidth.RuneWidth(ch)
		if col+w > x+width {
			break
		}
		st := style
		if i == d.Cursor {
			st = style.Reverse(true)
		}
		screen.SetContent(col, y, ch, nil, st)
		col += w
	}
	if d.Cursor >= len([]rune(d.Input)) && col < x+width {
		screen.SetContent(col, y, ' ', nil, style.Reverse(true))
	}
}

var helpLines = []string{
	"Keys",
	"",
	"Ctrl+E        start editing",
	"Ctrl+S        save",
	"Esc           close edit / clear selection",
	"Ctrl+W        cancel editing (asks when dirty)",
	"Enter         edit cell / commit",
	"Arrows        move   Shift+Arrows  extend",
	"Ctrl+C/X/V    copy / cut / paste",
	"Ctrl+Z/Y      undo / redo",
	"Ctrl+A        select all",
	"Delete        clear selected cells",
	"Ctrl+N        insert row below",
	"Ctrl+K        delete row",
	"Alt+Up/Down   move row",
	"Ctrl+T        add section   F2 rename section",
	"Tab/Shift+Tab switch grid",
	"Ctrl+Q        quit",
}

func (d *Dialog) renderHelp(screen tcell.Screen, x, y, width, height int) {
	theme := d.theme()
	style := tcell.StyleDefault.Background(theme.DialogBg).Foreground(theme.DialogFg)
	boxW := 50
	if boxW > width {
		boxW = width
	}
	boxH := len(helpLines) + 2
	if boxH > height {
		boxH = height
	}
	bx := x + (width-boxW)/2
	by := y + (height-boxH)/2
	for row := 0; row < boxH; row++ {
		for cx := bx; cx < bx+boxW; cx++ {
			screen.SetContent(cx, by+row, ' ', nil, style)
		}
	}
	for i, line := range helpLines {
		if i+1 >= boxH {
			break
		}
		st := style
		if i == 0 {
			st = style.Bold(true)
		}
		drawString(screen, bx+2, by+1+i, boxW-4, line, st)
	}
}

func (d *Dialog) HandleKey(ev *tcell.EventKey) bool {
	switch d.Type {
	case DialogDiscardConfirm:
		return d.confirmKey(ev, "sdc")
	case DialogReloadConfirm:
		return d.confirmKey(ev, "yc")
	case DialogDeleteConfirm:
		return d.confirmKey(ev, "yn")
	case DialogMessage, DialogHelp:
		if d.OnCancel != nil {
			d.OnCancel()
		}
		return true
	}
	return d.handleInputKey(ev)
}

// confirmKey maps a key press onto one of answers. Escape picks the last
// answer.
func (d *Dialog) confirmKey(ev *tcell.EventKey, answers string) bool {
	var answer rune
	if ev.Key() == tcell.KeyEscape {
		answer = rune(answers[len(answers)-1])
	} else if ev.Key() == tcell.KeyRune {
		ch := []rune(strings.ToLower(string(ev.Rune())))[0]
		if strings.ContainsRune(answers, ch) {
			answer = ch
		}
	}
	if answer != 0 && d.OnConfirm != nil {
		d.OnConfirm(answer)
	}
	return true
}

func (d *Dialog) handleInputKey(ev *tcell.EventKey) bool {
	runes := []rune(d.Input)
	switch ev.Key() {
	case tcell.KeyEscape:
		if d.OnCancel != nil {
			d.OnCancel()
		}
	case tcell.KeyEnter:
		if d.OnSubmit != nil {
			d.OnSubmit(d.Input)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if d.Cursor > 0 {
			d.Input = string(runes[:d.Cursor-1]) + string(runes[d.Cursor:])
			d.Cursor--
		}
	case tcell.KeyDelete:
		if d.Cursor < len(runes) {
			d.Input = string(runes[:d.Cursor]) + string(runes[d.Cursor+1:])
		}
	case tcell.KeyLeft:
		if d.Cursor > 0 {
			d.Cursor--
		}
	case tcell.KeyRight:
		if d.Cursor < len(runes) {
			d.Cursor++
		}
	case tcell.KeyHome:
		d.Cursor = 0
	case tcell.KeyEnd:
		d.Cursor = len(runes)
	case tcell.KeyRune:
		d.Input = string(runes[:d.Cursor]) + string(ev.Rune()) + string(runes[d.Cursor:])
		d.Cursor++
	default:
		return false
	}
	return true
}

func (d *Dialog) HandleMouse(ev *tcell.EventMouse) bool { return false }
func (d *Dialog) IsFocused() bool                       { return d.focused }
func (d *Dialog) SetFocused(f bool)                     { d.focused = f }

// drawString writes s from x, clipped to width cells, and returns the cells
// used.
func drawString(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	col := 0
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if col+w > width {
			break
		}
		screen.SetContent(x+col, y, ch, nil, style)
		col += w
	}
	return col
}
