// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks produced quiz JSON files for structural problems
// before they are handed to a rendering frontend or the question bank.
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/quizsmith/pkg/types"
)

const utf8BOM = "\ufeff"

// Result holds the outcome of validating one quiz file.
type Result struct {
	// HadBOM reports whether a byte order mark was stripped.
	HadBOM bool

	// Reencoded reports whether the file was not valid UTF-8 and had to
	// be decoded as Windows-1252.
	Reencoded bool

	// NonPrintable counts control characters outside newline, carriage
	// return, and tab.
	NonPrintable int

	// Questions holds the decoded records when the JSON parsed.
	Questions []types.Question

	// Issues lists structural problems; empty means the file is valid.
	Issues []string
}

// OK reports whether the file passed every check.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// File reads and validates the quiz JSON at path. Progress notes and
// warnings go to w; the returned error covers I/O and undecodable input,
// while structural problems are collected in Result.Issues.
func File(path string, w io.Writer) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	content, reencoded, err := decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	if reencoded {
		fmt.Fprintf(w, "warning: %s is not valid UTF-8, decoded as Windows-1252\n", path)
	}

	result := Content(content, w)
	result.Reencoded = reencoded
	return result, nil
}

// Content validates decoded quiz JSON text.
func Content(content string, w io.Writer) Result {
	var result Result

	if strings.HasPrefix(content, utf8BOM) {
		result.HadBOM = true
		content = strings.TrimPrefix(content, utf8BOM)
		fmt.Fprintln(w, "warning: file contains a byte order mark")
	}

	result.NonPrintable = countNonPrintable(content)
	if result.NonPrintable > 0 {
		fmt.Fprintf(w, "warning: found %d non-printable character(s)\n", result.NonPrintable)
	}

	if err := json.Unmarshal([]byte(content), &result.Questions); err != nil {
		result.Issues = append(result.Issues, describeJSONError(content, err))
		return result
	}

	if len(result.Questions) == 0 {
		result.Issues = append(result.Issues, "quiz must contain at least one question")
		return result
	}

	for i, q := range result.Questions {
		result.Issues = append(result.Issues, checkQuestion(i+1, q)...)
	}

	return result
}

// checkQuestion validates a single record. The question number is
// one-based for reporting.
func checkQuestion(num int, q types.Question) []string {
	var issues []string

	if strings.TrimSpace(q.Text) == "" {
		issues = append(issues, fmt.Sprintf("question %d: 'question' must be a non-empty string", num))
	}

	want := answerCount(q.Kind)
	switch {
	case want > 0 && len(q.Answers) != want:
		issues = append(issues, fmt.Sprintf(
			"question %d: %s questions must have exactly %d answers (found %d)",
			num, q.Kind, want, len(q.Answers)))
	case want == 0 && len(q.Answers) < 2:
		issues = append(issues, fmt.Sprintf(
			"question %d: must have at least 2 answers (found %d)", num, len(q.Answers)))
	}

	for j, a := range q.Answers {
		if strings.TrimSpace(a) == "" {
			issues = append(issues, fmt.Sprintf(
				"question %d, answer %d: must be a non-empty string", num, j+1))
		}
	}

	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Answers) {
		issues = append(issues, fmt.Sprintf(
			"question %d: correct_answer %d out of range [0,%d)", num, q.CorrectAnswer, len(q.Answers)))
	}

	return issues
}

// answerCount returns the required answer count for a kind, or zero when
// the kind only has a lower bound (custom registered kinds).
func answerCount(kind types.Kind) int {
	switch kind {
	case types.KindMultipleChoice:
		return 4
	case types.KindTrueFalse:
		return 2
	default:
		return 0
	}
}

// WriteClean writes the validated questions back out as indented JSON.
func WriteClean(path string, questions []types.Question) error {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling questions: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// decode returns content as UTF-8 text, falling back to Windows-1252 when
// the raw bytes are not valid UTF-8.
func decode(data []byte) (content string, reencoded bool, err error) {
	if utf8.Valid(data) {
		return string(data), false, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", false, fmt.Errorf("Windows-1252 fallback failed: %w", err)
	}
	return string(decoded), true, nil
}

// countNonPrintable counts control characters that have no business in a
// quiz file.
func countNonPrintable(content string) int {
	count := 0
	for _, r := range content {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			count++
		}
	}
	return count
}

// describeJSONError renders a parse failure with line/column position and
// surrounding context so the offending spot can be found in the file.
func describeJSONError(content string, err error) string {
	var offset int64 = -1
	if syn, ok := err.(*json.SyntaxError); ok {
		offset = syn.Offset
	} else if typ, ok := err.(*json.UnmarshalTypeError); ok {
		offset = typ.Offset
	}
	if offset < 0 {
		return fmt.Sprintf("JSON parse error: %v", err)
	}

	line, col := 1, 1
	for i, r := range content {
		if int64(i) >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "JSON parse error at line %d, column %d: %v", line, col, err)

	lines := strings.Split(content, "\n")
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		marker := "    "
		if i == line-1 {
			marker = " >>>"
		}
		fmt.Fprintf(&b, "\n%s %4d: %s", marker, i+1, lines[i])
	}

	return b.String()
}
