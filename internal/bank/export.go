// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds a stored question with its bank identifiers, flattened
// for export.
type ExportEntry struct {
	ID            string   `json:"id" yaml:"id"`
	SourceID      string   `json:"source_id" yaml:"source_id"`
	Kind          string   `json:"type" yaml:"type"`
	Question      string   `json:"question" yaml:"question"`
	Answers       []string `json:"answers" yaml:"answers"`
	CorrectAnswer int      `json:"correct_answer" yaml:"correct_answer"`
}

const exportLimit = 100000

// ExportYAML writes the question bank to bank/index/export.yaml.
// It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.bankDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the question bank to bank/index/export.json.
// It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.bankDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:            r.ID,
			SourceID:      r.SourceID,
			Kind:          string(r.Kind),
			Question:      r.Text,
			Answers:       r.Answers,
			CorrectAnswer: r.CorrectAnswer,
		}
	}

	return entries, nil
}
