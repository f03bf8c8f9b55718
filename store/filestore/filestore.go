// Package filestore keeps one JSON document per project and schema type
// under a directory and can watch those files for outside changes.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"linegrid/grid"
	"linegrid/store"

	"github.com/fsnotify/fsnotify"
)

const (
	debounce   = 100 * time.Millisecond
	selfWindow = time.Second
)

// ErrInvalidProject is returned for project ids that would not name a
// directory of their own under the root.
var ErrInvalidProject = errors.New("invalid project id")

type Store struct {
	root string

	mu        sync.Mutex
	lastWrite map[string]time.Time
}

var _ store.Store = (*Store)(nil)

func New(root string) *Store {
	return &Store{root: root, lastWrite: make(map[string]time.Time)}
}

func (s *Store) Root() string { return s.root }

// checkProject rejects ids whose escaped form resolves to the root or its
// parent; PathEscape leaves dots alone.
func checkProject(projectID string) error {
	switch projectID {
	case "", ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidProject, projectID)
	}
	return nil
}

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.root, url.PathEscape(projectID))
}

// Path returns the file holding projectID's sections of schemaType.
func (s *Store) Path(projectID, schemaType string) string {
	return filepath.Join(s.projectDir(projectID), url.PathEscape(schemaType)+".json")
}

func (s *Store) Load(ctx context.Context, projectID, schemaType string) ([]grid.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkProject(projectID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(projectID, schemaType))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", projectID, schemaType, err)
	}
	return doc.Sections, nil
}

// Projects lists the project ids that have a document for schemaType.
func (s *Store) Projects(ctx context.Context, schemaType string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		if _, err := os.Stat(s.Path(id, schemaType)); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Save writes through a temporary file so readers never see half a document.
func (s *Store) Save(ctx context.Context, doc store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkProject(doc.ProjectID); err != nil {
		return err
	}
	path := s.Path(doc.ProjectID, doc.Type)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.mu.Lock()
	s.lastWrite[path] = time.Now()
	s.mu.Unlock()
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Change reports that a document was modified or removed by someone else.
type Change struct {
	ProjectID string
	Type      string
	Removed   bool
}

// Watch emits a Change whenever schemaType's document of projectID changes on
// disk, except for writes this store made itself. The channel closes when ctx
// is done.
func (s *Store) Watch(ctx context.Context, projectID, schemaType string) (<-chan Change, error) {
	if err := checkProject(projectID); err != nil {
		return nil, err
	}
	dir := s.projectDir(projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := s.Path(projectID, schemaType)
	out := make(chan Change, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		pending := false
		removed := false

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || s.ownWrite(target) {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
					!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				pending = true
				removed = ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
				timer.Reset(debounce)
			case <-timer.C:
				if !pending {
					continue
				}
				pending = false
				if _, err := os.Stat(target); err == nil {
					removed = false
				}
				select {
				case out <- Change{ProjectID: projectID, Type: schemaType, Removed: removed}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) ownWrite(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastWrite[path]
	return ok && time.Since(t) < selfWindow
}
