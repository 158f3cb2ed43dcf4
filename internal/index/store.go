// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps a SQLite search index over the caption dataset.
// The JSON metadata file stays the source of truth; the index is rebuilt
// from it on every ingest.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/figure-miner/pkg/types"
)

const dbFile = "captions.db"

// Store manages the caption index database.
type Store struct {
	db         *sql.DB
	maxResults int

	// fts is false when the sqlite3 build lacks FTS5; searches then fall
	// back to LIKE matching.
	fts bool
}

// NewStore opens or creates IndexDir/captions.db and its schema.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS captions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			figure_path TEXT NOT NULL,
			caption TEXT NOT NULL,
			source TEXT NOT NULL,
			arxiv_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_captions_arxiv_id ON captions(arxiv_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='captions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(
		`CREATE VIRTUAL TABLE captions_fts USING fts5(caption, content=captions, content_rowid=rowid)`,
	); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER captions_ai AFTER INSERT ON captions BEGIN
			INSERT INTO captions_fts(rowid, caption) VALUES (new.rowid, new.caption);
		END`,
		`CREATE TRIGGER captions_ad AFTER DELETE ON captions BEGIN
			INSERT INTO captions_fts(captions_fts, rowid, caption) VALUES('delete', old.rowid, old.caption);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS trigger: %w", err)
		}
	}
	s.fts = true
	return nil
}

// IngestSummary holds counts from an index rebuild.
type IngestSummary struct {
	Indexed int
	Papers  int
}

// Ingest replaces the index contents with records in one transaction.
func (s *Store) Ingest(ctx context.Context, records []types.CaptionRecord) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM captions`); err != nil {
		return IngestSummary{}, fmt.Errorf("clearing captions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO captions (figure_path, caption, source, arxiv_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	papers := make(map[string]bool)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.FigurePath, r.Caption, r.Source, r.ArxivID); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting %s: %w", r.FigurePath, err)
		}
		papers[r.ArxivID] = true
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	return IngestSummary{Indexed: len(records), Papers: len(papers)}, nil
}
