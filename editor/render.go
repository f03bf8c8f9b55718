package editor

import (
	"linegrid/ui"

	"github.com/gdamore/tcell/v2"
)

func (e *Editor) render() {
	theme := e.cfg.GetTheme()

	// Clear with the theme background so empty areas are coloured.
	defaultStyle := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground)
	e.screen.SetStyle(defaultStyle)
	e.screen.Clear()

	screenW, screenH := e.screen.Size()

	e.statusBar.Theme = theme
	e.tabBar.Theme = theme

	e.tabBar.Render(e.screen, 0, 0, screenW, 1)

	if tab := e.activeTab(); tab != nil {
		tab.view.Theme = theme
		tab.view.Render(e.screen, 0, 1, screenW, screenH-2)
	}

	e.updateStatus()
	e.statusBar.Render(e.screen, 0, screenH-1, screenW, 1)

	if e.dialog != nil {
		e.dialog.Theme = theme
		if e.dialog.Type == ui.DialogHelp {
			e.dialog.Render(e.screen, 0, 0, screenW, screenH)
		} else {
			e.dialog.Render(e.screen, 0, screenH-2, screenW, 1)
		}
	}
	if e.palette != nil {
		e.palette.Theme = theme
		e.palette.Render(e.screen, 0, 0, screenW, screenH)
	}

	e.screen.Show()
}
