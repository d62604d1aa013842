// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// QueryOptions holds parameters for question bank queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over question text.
	Query string

	// Kind filters by question kind.
	Kind types.Kind

	// SourceID filters by the source document the questions came from.
	SourceID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Kind == "" && q.SourceID == ""
}

// QueryResult is a stored question with its bank identifiers.
type QueryResult struct {
	types.Question
	ID       string `json:"id" yaml:"id"`
	SourceID string `json:"source_id" yaml:"source_id"`
}

// Retrieve queries the question bank with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted by source_id and question text otherwise.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT q.id, q.source_id, q.kind, q.question, q.answers, q.correct_answer,
				questions_fts.rank
			FROM questions_fts
			JOIN questions q ON q.rowid = questions_fts.rowid
			WHERE questions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT q.id, q.source_id, q.kind, q.question, q.answers, q.correct_answer,
				0 AS rank
			FROM questions q
			WHERE 1=1`)
	}

	if opts.Kind != "" {
		qb.WriteString(` AND q.kind = ?`)
		args = append(args, string(opts.Kind))
	}

	if opts.SourceID != "" {
		qb.WriteString(` AND q.source_id = ?`)
		args = append(args, opts.SourceID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY questions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.source_id, q.question`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying question bank: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			kind        string
			answersJSON sql.NullString
			rank        float64
		)

		if err := rows.Scan(
			&qr.ID, &qr.SourceID, &kind, &qr.Text, &answersJSON, &qr.CorrectAnswer, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Kind = types.Kind(kind)

		if answersJSON.Valid {
			if err := json.Unmarshal([]byte(answersJSON.String), &qr.Answers); err != nil {
				return nil, fmt.Errorf("decoding answers for question %s: %w", qr.ID, err)
			}
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}
