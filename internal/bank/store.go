// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bank persists extracted questions and builds a retrieval index.
// Parsed quiz JSON files are ingested into a SQLite database with a
// full-text index over question text, so downstream tooling can search
// and export the accumulated question bank.
package bank

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/quizsmith/pkg/types"
)

const (
	parsedDir = "parsed"
	indexDir  = "index"
	dbFile    = "bank.db"
)

// Store manages the question bank SQLite database.
type Store struct {
	db         *sql.DB
	bankDir    string
	maxResults int
}

// NewStore opens or creates the question bank database at
// bankDir/index/bank.db, creating the schema if it does not exist.
func NewStore(cfg types.BankConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.BankDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		bankDir:    cfg.BankDir,
		maxResults: maxResults,
	}

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
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			file TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source_id TEXT NOT NULL REFERENCES sources(id),
			kind TEXT NOT NULL,
			question TEXT NOT NULL,
			answers TEXT NOT NULL,
			correct_answer INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_source_id ON questions(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_kind ON questions(kind)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='questions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE questions_fts USING fts5(question, content=questions, content_rowid=rowid)`,
			`CREATE TRIGGER questions_ai AFTER INSERT ON questions BEGIN
				INSERT INTO questions_fts(rowid, question) VALUES (new.rowid, new.question);
			END`,
			`CREATE TRIGGER questions_ad AFTER DELETE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question) VALUES('delete', old.rowid, old.question);
			END`,
			`CREATE TRIGGER questions_au AFTER UPDATE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question) VALUES('delete', old.rowid, old.question);
				INSERT INTO questions_fts(rowid, question) VALUES (new.rowid, new.question);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a question bank indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of source files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads parsed quiz JSON files from bankDir/parsed/ and populates
// the database. It detects new, changed, and unchanged files for
// incremental updates, and writes export.yaml on success.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	srcDir := filepath.Join(s.bankDir, parsedDir)

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading parsed directory %s: %w", srcDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		sourceID := strings.TrimSuffix(entry.Name(), ".json")
		filePath := filepath.Join(srcDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Check whether the file has changed since last indexing.
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source_id = ?`, sourceID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		var questions []types.Question
		if err := json.Unmarshal(data, &questions); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSource(ctx, sourceID, entry.Name(), questions, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d questions)\n", sourceID, len(questions))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d questions)\n", sourceID, len(questions))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	// Write export.yaml after successful ingestion.
	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestSource(ctx context.Context, sourceID, fileName string, questions []types.Question, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old questions if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE source_id = ?`, sourceID); err != nil {
			return fmt.Errorf("deleting old questions: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (id, file) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET file=excluded.file`,
		sourceID, fileName,
	)
	if err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO questions (id, source_id, kind, question, answers, correct_answer)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range questions {
		answersJSON, _ := json.Marshal(q.Answers)
		_, err := stmt.ExecContext(ctx,
			questionID(sourceID, q), sourceID, string(q.Kind),
			q.Text, string(answersJSON), q.CorrectAnswer,
		)
		if err != nil {
			return fmt.Errorf("inserting question %q: %w", q.Text, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		sourceID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

// questionID derives a stable identifier from the source, kind, and text,
// so re-ingesting the same file produces the same IDs.
func questionID(sourceID string, q types.Question) string {
	sum := sha256.Sum256([]byte(sourceID + "\x00" + string(q.Kind) + "\x00" + q.Text))
	return hex.EncodeToString(sum[:])[:12]
}
