package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"linegrid/grid"
	"linegrid/schema"
	"linegrid/store"
)

func TestLoadMissingProjectIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	secs, err := s.Load(context.Background(), "nope", "electrical")
	if err != nil || len(secs) != 0 {
		t.Fatalf("expected empty load, got %d sections err=%v", len(secs), err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	g := grid.New(schema.Mechanical(), []grid.Section{{Name: "Frame"}})
	g.EnsureRows(g.Sections[0].ID, 2)
	ctx := context.Background()

	if err := s.Save(ctx, store.Document{ProjectID: "Q/17", Type: "mechanical", Sections: g.Snapshot()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(s.Path("Q/17", "mechanical")); err != nil {
		t.Fatalf("expected escaped project path to exist: %v", err)
	}
	got, err := s.Load(ctx, "Q/17", "mechanical")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !grid.Equal(g.Snapshot(), got) {
		t.Fatalf("round trip mismatch: %s", grid.Diff(g.Snapshot(), got))
	}
}

func TestWatchReportsOutsideWrites(t *testing.T) {
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.Watch(ctx, "P", "electrical")
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	data, _ := json.Marshal(store.Document{ProjectID: "P", Type: "electrical"})
	if err := os.WriteFile(s.Path("P", "electrical"), data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case ch := <-changes:
		if ch.ProjectID != "P" || ch.Type != "electrical" || ch.Removed {
			t.Fatalf("unexpected change %+v", ch)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected a change notification")
	}

	cancel()
	for range changes {
	}
}

func TestProjectsFiltersByType(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	for _, doc := range []store.Document{
		{ProjectID: "Q/17", Type: "mechanical"},
		{ProjectID: "B-2", Type: "electrical"},
		{ProjectID: "A-1", Type: "mechanical"},
	} {
		if err := s.Save(ctx, doc); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	ids, err := s.Projects(ctx, "mechanical")
	if err != nil {
		t.Fatalf("projects failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "A-1" || ids[1] != "Q/17" {
		t.Fatalf("expected [A-1 Q/17], got %v", ids)
	}
}

func TestDotProjectIDsStayInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "data")
	s := New(root)
	ctx := context.Background()
	for _, id := range []string{".", "..", ""} {
		if err := s.Save(ctx, store.Document{ProjectID: id, Type: "electrical"}); !errors.Is(err, ErrInvalidProject) {
			t.Fatalf("save %q: expected ErrInvalidProject, got %v", id, err)
		}
		if _, err := s.Load(ctx, id, "electrical"); !errors.Is(err, ErrInvalidProject) {
			t.Fatalf("load %q: expected ErrInvalidProject, got %v", id, err)
		}
		if _, err := s.Watch(ctx, id, "electrical"); !errors.Is(err, ErrInvalidProject) {
			t.Fatalf("watch %q: expected ErrInvalidProject, got %v", id, err)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "electrical.json")); !os.IsNotExist(err) {
		t.Fatalf("expected nothing written outside the root, got %v", err)
	}

	// Dots inside an id are still a directory of their own.
	if err := s.Save(ctx, store.Document{ProjectID: "...", Type: "electrical"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if dir := filepath.Dir(s.Path("...", "electrical")); filepath.Dir(dir) != root {
		t.Fatalf("expected project dir under %s, got %s", root, dir)
	}
}
