package editor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"linegrid/config"
)

// ViewState is what the editor remembers about a project between runs.
type ViewState struct {
	Project    string      `json:"project"`
	ActiveType string      `json:"active_type"`
	Grids      []GridState `json:"grids"`
}

type GridState struct {
	Type    string `json:"type"`
	ScrollY int    `json:"scroll_y"`
	ScrollX int    `json:"scroll_x"`
}

func viewStateDir() string {
	return filepath.Join(config.DataDir(), "views")
}

func viewStatePath(projectID string) string {
	hash := sha256.Sum256([]byte(projectID))
	return filepath.Join(viewStateDir(), fmt.Sprintf("%x.json", hash[:8]))
}

func (e *Editor) SaveViewState() {
	if len(e.tabs) == 0 {
		return
	}
	state := ViewState{Project: e.project}
	if tab := e.activeTab(); tab != nil {
		state.ActiveType = tab.sess.Schema().Type
	}
	for _, tab := range e.tabs {
		y, x := tab.view.Scroll()
		state.Grids = append(state.Grids, GridState{Type: tab.sess.Schema().Type, ScrollY: y, ScrollX: x})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(viewStateDir(), 0755); err != nil {
		e.log.Warn("view state not saved", "err", err)
		return
	}
	if err := os.WriteFile(viewStatePath(e.project), data, 0644); err != nil {
		e.log.Warn("view state not saved", "err", err)
	}
}

// restoreViewState reports whether a saved state for the project applied.
func (e *Editor) restoreViewState() bool {
	data, err := os.ReadFile(viewStatePath(e.project))
	if err != nil {
		return false
	}
	var state ViewState
	if err := json.Unmarshal(data, &state); err != nil || state.Project != e.project {
		return false
	}
	for _, gs := range state.Grids {
		if tab := e.tabFor(gs.Type); tab != nil {
			tab.view.SetScroll(gs.ScrollY, gs.ScrollX)
		}
	}
	if tab := e.tabFor(state.ActiveType); tab != nil {
		e.switchTab(e.indexOf(tab))
	}
	return true
}
