// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse segments normalized document text into typed quiz questions.
// Each question kind has its own Parser; a Registry selects parsers by type
// key and runs them over the shared line sequence.
package parse

import (
	"math/rand"
	"strings"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// Parser extracts questions of one kind from normalized text lines.
// Implementations scan forward over the whole sequence and return the
// questions found, in source order.
type Parser interface {
	// Kind returns the type key stored in emitted question records.
	Kind() types.Kind

	// Parse scans lines and returns the questions found. A structural
	// error (malformed block) aborts the scan.
	Parse(lines []string) ([]types.Question, error)
}

// recordBuffer collects emitted questions. It supports attaching a
// late-arriving correct answer to the most recent record, which keeps the
// scan strictly forward-only; that attachment is the single place an
// already-emitted record is mutated.
type recordBuffer struct {
	records []types.Question
}

func (b *recordBuffer) append(q types.Question) {
	b.records = append(b.records, q)
}

// attachToLast overwrites the correct answer of the most recently emitted
// record. A fragment arriving before any record exists is dropped.
func (b *recordBuffer) attachToLast(correct int) {
	if len(b.records) == 0 {
		return
	}
	b.records[len(b.records)-1].CorrectAnswer = correct
}

// newQuestion builds a question record. Answers are copied so records never
// alias shared storage.
func newQuestion(text string, answers []string, kind types.Kind, correct int) types.Question {
	return types.Question{
		Text:          text,
		Answers:       append([]string(nil), answers...),
		Kind:          kind,
		CorrectAnswer: correct,
	}
}

// letterIndex converts an answer label (A-D, any case) to a zero-based index.
func letterIndex(letter string) int {
	return int(strings.ToUpper(letter)[0] - 'A')
}

// truthIndex converts a true/false token (True/T/False/F, any case) to an
// answer index: 0 for true, 1 for false.
func truthIndex(token string) int {
	switch strings.ToUpper(token) {
	case "TRUE", "T":
		return 0
	default:
		return 1
	}
}

// randomIndex picks a uniformly random answer index in [0, n). Used when a
// question carries no explicit correct-answer annotation; records are never
// emitted with the field unresolved.
func randomIndex(rng *rand.Rand, n int) int {
	return rng.Intn(n)
}
