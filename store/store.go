// Package store defines the load/save contract between a grid and whatever
// keeps its records, plus an in-memory implementation.
package store

import (
	"context"
	"errors"
	"sync"

	"linegrid/grid"
)

var ErrClosed = errors.New("store is closed")

// Document is the unit of persistence: every section of one project for one
// schema type.
type Document struct {
	ProjectID string         `json:"project_id"`
	Type      string         `json:"type"`
	Sections  []grid.Section `json:"sections"`
}

type Store interface {
	// Load returns the sections of projectID filtered to schemaType. An
	// unknown project yields no sections and no error.
	Load(ctx context.Context, projectID, schemaType string) ([]grid.Section, error)
	Save(ctx context.Context, doc Document) error
}

type key struct{ project, typ string }

// Memory keeps documents in a map. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	docs map[key][]grid.Section
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[key][]grid.Section)}
}

func (m *Memory) Load(ctx context.Context, projectID, schemaType string) ([]grid.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return grid.Snapshot(m.docs[key{projectID, schemaType}]).Clone(), nil
}

func (m *Memory) Save(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key{doc.ProjectID, doc.Type}] = grid.Snapshot(doc.Sections).Clone()
	return nil
}
