package editor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"linegrid/config"
	"linegrid/store"
)

const backupInterval = 30 * time.Second

// backupFile is a dirty grid written aside so a crash or forced quit does
// not lose it.
type backupFile struct {
	store.Document
	Timestamp string `json:"timestamp"`
}

func backupDir() string {
	return filepath.Join(config.DataDir(), "backups")
}

func backupPath(projectID, schemaType string) string {
	h := sha256.Sum256([]byte(projectID + "\x00" + schemaType))
	return filepath.Join(backupDir(), fmt.Sprintf("%x.json", h[:8]))
}

// startBackupTimer posts a tick to the loop until the editor stops.
func (e *Editor) startBackupTimer() {
	ctx := e.ctx
	go func() {
		ticker := time.NewTicker(backupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ev := &backupTickEvent{}
				ev.SetEventNow()
				e.post(ev)
			}
		}
	}()
}

// saveBackups writes every dirty grid aside and drops backups of clean ones.
func (e *Editor) saveBackups() {
	for _, tab := range e.tabs {
		if !tab.sess.Dirty() {
			e.removeBackup(tab)
			continue
		}
		s := tab.sess.Schema()
		b := backupFile{
			Document: store.Document{
				ProjectID: e.project,
				Type:      s.Type,
				Sections:  tab.sess.Grid().Snapshot(),
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		data, err := json.Marshal(b)
		if err != nil {
			continue
		}
		if err := os.MkdirAll(backupDir(), 0755); err != nil {
			e.log.Warn("backup failed", "err", err)
			return
		}
		if err := os.WriteFile(backupPath(e.project, s.Type), data, 0644); err != nil {
			e.log.Warn("backup failed", "type", s.Type, "err", err)
		}
	}
}

func (e *Editor) removeBackup(tab *gridTab) {
	os.Remove(backupPath(e.project, tab.sess.Schema().Type))
}

// recoverBackup reopens a tab's unsaved work from a previous run as an
// undoable edit on top of the stored grid.
func (e *Editor) recoverBackup(tab *gridTab) {
	data, err := os.ReadFile(backupPath(e.project, tab.sess.Schema().Type))
	if err != nil {
		return
	}
	var b backupFile
	if err := json.Unmarshal(data, &b); err != nil || b.ProjectID != e.project {
		e.removeBackup(tab)
		return
	}
	if e.editingTab() != nil {
		return
	}
	if err := tab.sess.BeginEdit(); err != nil {
		return
	}
	if err := tab.sess.Restore(b.Sections); err != nil {
		e.report(err)
		return
	}
	e.log.Info("recovered backup", "type", b.Type, "from", b.Timestamp)
	e.setStatusMessage(fmt.Sprintf("Recovered unsaved %s from %s", tab.sess.Schema().Title, b.Timestamp))
}
