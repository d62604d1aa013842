package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	bankDir := filepath.Join(tmpDir, "bank")
	if err := os.MkdirAll(filepath.Join(bankDir, parsedDir), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.BankConfig{
		BankDir:    bankDir,
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, bankDir
}

func writeParsed(t *testing.T, bankDir, sourceID string, questions []types.Question) {
	t.Helper()
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(bankDir, parsedDir, sourceID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleQuestions() []types.Question {
	return []types.Question{
		{
			Text:          "Which layer of the OSI model handles routing?",
			Answers:       []string{"Transport", "Network", "Session", "Data link"},
			Kind:          types.KindMultipleChoice,
			CorrectAnswer: 1,
		},
		{
			Text:          "Which protocol resolves hostnames to addresses?",
			Answers:       []string{"DHCP", "ARP", "DNS", "ICMP"},
			Kind:          types.KindMultipleChoice,
			CorrectAnswer: 2,
		},
		{
			Text:          "Assume the routing table is empty.",
			Answers:       []string{"True", "False"},
			Kind:          types.KindTrueFalse,
			CorrectAnswer: 0,
		},
	}
}

// ingestHelper writes a parsed file and ingests it.
func ingestHelper(t *testing.T, store *Store, bankDir, sourceID string) {
	t.Helper()
	writeParsed(t, bankDir, sourceID, sampleQuestions())
	var buf strings.Builder
	if _, err := store.Ingest(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"questions", "sources", "questions_fts", "ingest_status"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	bankDir := filepath.Join(tmpDir, "bank")

	store, err := NewStore(types.BankConfig{BankDir: bankDir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dbPath := filepath.Join(bankDir, indexDir, dbFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", dbPath)
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	tests := []struct {
		name        string
		sources     int
		wantIndexed int
	}{
		{"single source", 1, 1},
		{"multiple sources", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, bankDir := testSetup(t)

			for i := 0; i < tt.sources; i++ {
				writeParsed(t, bankDir, fmt.Sprintf("exam-%d", i), sampleQuestions())
			}

			var buf strings.Builder
			summary, err := store.Ingest(context.Background(), &buf)
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if summary.Indexed != tt.wantIndexed {
				t.Errorf("Indexed = %d, want %d", summary.Indexed, tt.wantIndexed)
			}
			if summary.Failed != 0 {
				t.Errorf("Failed = %d, want 0; output: %s", summary.Failed, buf.String())
			}
		})
	}
}

func TestIngestStoresAllFields(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "fields-exam")

	results, err := store.Retrieve(context.Background(), QueryOptions{
		SourceID: "fields-exam",
		Kind:     types.KindMultipleChoice,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, r := range results {
		if r.ID == "" {
			t.Error("result missing id")
		}
		if r.SourceID != "fields-exam" {
			t.Errorf("source_id = %q, want %q", r.SourceID, "fields-exam")
		}
		if len(r.Answers) != 4 {
			t.Errorf("answers = %v, want 4 entries", r.Answers)
		}
		if r.CorrectAnswer < 0 || r.CorrectAnswer >= len(r.Answers) {
			t.Errorf("correct_answer %d out of range", r.CorrectAnswer)
		}
	}
}

func TestIngestStableIDs(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "stable-exam")

	first, err := store.Retrieve(context.Background(), QueryOptions{SourceID: "stable-exam"})
	if err != nil {
		t.Fatal(err)
	}

	// Re-ingest the same content with a newer mod time.
	writeParsed(t, bankDir, "stable-exam", sampleQuestions())
	path := filepath.Join(bankDir, parsedDir, "stable-exam.json")
	future := time.Now().Add(time.Second)
	os.Chtimes(path, future, future)

	var buf strings.Builder
	if _, err := store.Ingest(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}

	second, err := store.Retrieve(context.Background(), QueryOptions{SourceID: "stable-exam"})
	if err != nil {
		t.Fatal(err)
	}

	ids := func(rs []QueryResult) map[string]bool {
		m := make(map[string]bool)
		for _, r := range rs {
			m[r.ID] = true
		}
		return m
	}
	firstIDs, secondIDs := ids(first), ids(second)
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("id count changed: %d vs %d", len(firstIDs), len(secondIDs))
	}
	for id := range firstIDs {
		if !secondIDs[id] {
			t.Errorf("id %s not stable across re-ingestion", id)
		}
	}
}

func TestIngestWritesExportYAML(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "export-exam")

	path := filepath.Join(bankDir, indexDir, "export.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("export.yaml not written after ingestion")
	}
}

func TestIngestMalformedFile(t *testing.T) {
	store, bankDir := testSetup(t)

	path := filepath.Join(bankDir, parsedDir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("output should mention the failure: %s", buf.String())
	}
}

// --- incremental update tests ---

func TestIngestSkipsUnchanged(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "skip-exam")

	// Second ingestion without modifying the file.
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0", summary.Indexed)
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("output should contain 'skipped': %s", buf.String())
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "update-exam")

	// Rewrite the parsed file with new content and a newer mod time.
	newQuestions := []types.Question{{
		Text:          "Which field of an IP header decrements per hop?",
		Answers:       []string{"Checksum", "TTL", "Flags", "Offset"},
		Kind:          types.KindMultipleChoice,
		CorrectAnswer: 1,
	}}
	writeParsed(t, bankDir, "update-exam", newQuestions)

	path := filepath.Join(bankDir, parsedDir, "update-exam.json")
	future := time.Now().Add(time.Second)
	os.Chtimes(path, future, future)

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}

	// Verify old questions removed and new one present.
	results, err := store.Retrieve(context.Background(), QueryOptions{SourceID: "update-exam"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (old questions should be removed)", len(results))
	}
	if !strings.Contains(results[0].Text, "TTL") && !strings.Contains(results[0].Text, "decrements") {
		t.Errorf("text = %q, want the replacement question", results[0].Text)
	}
}

func TestIngestSummaryOutput(t *testing.T) {
	store, bankDir := testSetup(t)
	writeParsed(t, bankDir, "summary-exam", sampleQuestions())

	var buf strings.Builder
	_, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	output := buf.String()

	if !strings.Contains(output, "indexed: 1") {
		t.Errorf("output should contain 'indexed: 1': %s", output)
	}
	if !strings.Contains(output, "skipped: 0") {
		t.Errorf("output should contain 'skipped: 0': %s", output)
	}
}

// --- full-text search tests ---

func TestRetrieveFullTextSearch(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "fts-exam")

	tests := []struct {
		name          string
		query         string
		wantMin       int
		wantInContent string
	}{
		{"matching term", "routing", 1, "routing"},
		{"exact phrase", "OSI model", 1, "OSI"},
		{"no match", "quantum entanglement xyzzy", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), QueryOptions{Query: tt.query})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) < tt.wantMin {
				t.Errorf("got %d results, want >= %d", len(results), tt.wantMin)
			}
			if tt.wantInContent != "" {
				for _, r := range results {
					if !strings.Contains(strings.ToLower(r.Text), strings.ToLower(tt.wantInContent)) {
						t.Errorf("result text %q does not contain %q", r.Text, tt.wantInContent)
					}
				}
			}
		})
	}
}

func TestRetrieveRespectsMaxResults(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "limit-exam")

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query:      "which",
		MaxResults: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 1 {
		t.Errorf("got %d results, want <= 1", len(results))
	}
}

// --- structured query tests ---

func TestRetrieveByKind(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "kind-exam")

	tests := []struct {
		kind      types.Kind
		wantCount int
	}{
		{types.KindMultipleChoice, 2},
		{types.KindTrueFalse, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), QueryOptions{Kind: tt.kind})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
			for _, r := range results {
				if r.Kind != tt.kind {
					t.Errorf("result kind = %q, want %q", r.Kind, tt.kind)
				}
			}
		})
	}
}

func TestRetrieveBySourceID(t *testing.T) {
	store, bankDir := testSetup(t)

	for _, sid := range []string{"exam-a", "exam-b"} {
		writeParsed(t, bankDir, sid, sampleQuestions())
	}
	var buf strings.Builder
	store.Ingest(context.Background(), &buf)

	results, err := store.Retrieve(context.Background(), QueryOptions{SourceID: "exam-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		if r.SourceID != "exam-a" {
			t.Errorf("result source_id = %q, want %q", r.SourceID, "exam-a")
		}
	}
}

func TestRetrieveCombinedQuery(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "combo-exam")

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "routing",
		Kind:  types.KindMultipleChoice,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Kind != types.KindMultipleChoice {
		t.Errorf("kind = %q, want multiple_choice", results[0].Kind)
	}
}

func TestRetrieveEmptyQueryError(t *testing.T) {
	opts := QueryOptions{}
	if !opts.IsEmpty() {
		t.Error("empty QueryOptions should report IsEmpty() = true")
	}
}

func TestRetrieveNoResults(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "none-exam")

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "nonexistent topic xyz123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestRetrieveCorruptAnswersColumn(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "corrupt-exam")

	if _, err := store.db.Exec(
		`UPDATE questions SET answers = '{not json' WHERE source_id = ?`, "corrupt-exam",
	); err != nil {
		t.Fatal(err)
	}

	_, err := store.Retrieve(context.Background(), QueryOptions{SourceID: "corrupt-exam"})
	if err == nil {
		t.Fatal("expected error for corrupt answers column, got nil")
	}
	if !strings.Contains(err.Error(), "decoding answers") {
		t.Errorf("error = %q, want mention of decoding answers", err)
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "yaml-exam")

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(bankDir, indexDir, "export.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.ID == "" || e.SourceID == "" {
			t.Errorf("entry %+v missing identifiers", e)
		}
	}
}

func TestExportJSON(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "json-exam")

	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(bankDir, indexDir, "export.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestExportFilteredByKind(t *testing.T) {
	store, bankDir := testSetup(t)
	ingestHelper(t, store, bankDir, "filter-exam")

	if err := store.ExportYAML(context.Background(), QueryOptions{Kind: types.KindTrueFalse}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(bankDir, indexDir, "export.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	yaml.Unmarshal(data, &entries)
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
	for _, e := range entries {
		if e.Kind != string(types.KindTrueFalse) {
			t.Errorf("entry kind = %q, want %q", e.Kind, types.KindTrueFalse)
		}
	}
}

// --- IngestSummary ---

func TestIngestSummaryTotal(t *testing.T) {
	s := IngestSummary{Indexed: 2, Updated: 1, Skipped: 3, Failed: 1}
	if s.Total() != 7 {
		t.Errorf("Total() = %d, want 7", s.Total())
	}
}

// --- questionID ---

func TestQuestionIDStable(t *testing.T) {
	q := types.Question{Text: "Which protocol?", Kind: types.KindMultipleChoice}

	a := questionID("exam", q)
	b := questionID("exam", q)
	if a != b {
		t.Errorf("same input produced different ids: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("id length = %d, want 12", len(a))
	}

	if questionID("other", q) == a {
		t.Error("different sources should produce different ids")
	}
}
