// Package sqlitestore keeps line-item documents in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"linegrid/grid"
	"linegrid/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS sections (
			project_id TEXT NOT NULL,
			type TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (project_id, type, id)
		);`,
		`CREATE TABLE IF NOT EXISTS line_rows (
			project_id TEXT NOT NULL,
			type TEXT NOT NULL,
			section_id TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			text_json TEXT NOT NULL DEFAULT '{}',
			numbers_json TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (project_id, type, section_id, id)
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("line item store migration failed: %w", err)
		}
	}
	return nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, projectID, schemaType string) ([]grid.Section, error) {
	if s == nil || s.db == nil {
		return nil, store.ErrClosed
	}
	secRows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM sections WHERE project_id = ? AND type = ? ORDER BY position ASC`,
		projectID, schemaType)
	if err != nil {
		return nil, err
	}
	var sections []grid.Section
	index := make(map[string]int)
	for secRows.Next() {
		var sec grid.Section
		if err := secRows.Scan(&sec.ID, &sec.Name); err != nil {
			secRows.Close()
			return nil, err
		}
		index[sec.ID] = len(sections)
		sections = append(sections, sec)
	}
	secRows.Close()
	if err := secRows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := s.db.QueryContext(ctx,
		`SELECT section_id, id, text_json, numbers_json FROM line_rows
		 WHERE project_id = ? AND type = ? ORDER BY section_id, position ASC`,
		projectID, schemaType)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var (
			sectionID, textJSON, numJSON string
			row                          grid.Row
		)
		if err := lineRows.Scan(&sectionID, &row.ID, &textJSON, &numJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(textJSON), &row.Text); err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(numJSON), &row.Numbers); err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ID, err)
		}
		i, ok := index[sectionID]
		if !ok {
			continue
		}
		row.Ordinal = len(sections[i].Rows) + 1
		sections[i].Rows = append(sections[i].Rows, row)
	}
	return sections, lineRows.Err()
}

// Save replaces every section of doc's project and type in one transaction.
func (s *Store) Save(ctx context.Context, doc store.Document) error {
	if s == nil || s.db == nil {
		return store.ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_rows WHERE project_id = ? AND type = ?`, doc.ProjectID, doc.Type); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE project_id = ? AND type = ?`, doc.ProjectID, doc.Type); err != nil {
		return err
	}

	secStmt, err := tx.PrepareContext(ctx, `INSERT INTO sections (project_id, type, id, position, name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer secStmt.Close()
	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO line_rows (project_id, type, section_id, id, position, text_json, numbers_json) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	for si, sec := range doc.Sections {
		if _, err := secStmt.ExecContext(ctx, doc.ProjectID, doc.Type, sec.ID, si, sec.Name); err != nil {
			return fmt.Errorf("save section %s: %w", sec.Name, err)
		}
		for ri, row := range sec.Rows {
			text, err := json.Marshal(nonNilText(row.Text))
			if err != nil {
				return err
			}
			nums, err := json.Marshal(nonNilNumbers(row.Numbers))
			if err != nil {
				return err
			}
			if _, err := rowStmt.ExecContext(ctx, doc.ProjectID, doc.Type, sec.ID, row.ID, ri, string(text), string(nums)); err != nil {
				return fmt.Errorf("save row %d of %s: %w", row.Ordinal, sec.Name, err)
			}
		}
	}
	return tx.Commit()
}

// Projects lists the project ids that have data for schemaType.
func (s *Store) Projects(ctx context.Context, schemaType string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM sections WHERE type = ? ORDER BY project_id`, schemaType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nonNilText(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilNumbers(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
