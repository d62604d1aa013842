// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/quizsmith/pkg/types"
)

func TestRunParseNoQuestionsWritesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.txt")
	content := "Lecture notes on routing.\nNothing here looks like a quiz.\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.json")

	if err := runParse(parseCmd, []string{input, output}); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("output = %q, want empty JSON array", got)
	}

	var questions []types.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions, want 0", len(questions))
	}
}

func TestRunParseExtractsQuestions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "quiz.txt")
	content := strings.Join([]string{
		"Question 1",
		"Which layer does TCP operate at?",
		"A. Network",
		"B. Transport",
		"C. Session",
		"D. Physical",
		"Correct Answer: B",
	}, "\n")
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.json")

	if err := runParse(parseCmd, []string{input, output}); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var questions []types.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		t.Fatalf("unmarshaling output: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].Kind != types.KindMultipleChoice {
		t.Errorf("kind = %q, want %q", questions[0].Kind, types.KindMultipleChoice)
	}
	if questions[0].CorrectAnswer != 1 {
		t.Errorf("correct answer = %d, want 1", questions[0].CorrectAnswer)
	}
}
