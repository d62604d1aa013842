// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docread extracts plain text lines from document containers.
// The question parsers never touch binary formats; this package is the
// boundary that turns a docx/pdf/odt file into the normalized line
// sequence they consume.
package docread

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/pdiddy/quizsmith/internal/parse"
)

// Reader extracts the plain text of a document. Different backends
// (docconv for binary containers, passthrough for text files) implement
// this interface.
type Reader interface {
	// ReadText returns the text content of the document at path.
	ReadText(path string) (string, error)
}

// DocconvReader handles binary document containers (docx, pdf, odt, rtf)
// through the docconv library.
type DocconvReader struct{}

// ReadText converts the document at path and returns its body text.
func (DocconvReader) ReadText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	if res.Body == "" {
		return "", fmt.Errorf("document %s produced no text", path)
	}
	return res.Body, nil
}

// PlainReader reads already-extracted text files verbatim.
type PlainReader struct{}

// ReadText returns the file contents as-is.
func (PlainReader) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ForPath selects a reader by file extension: plain text and Markdown
// files skip the conversion step, everything else goes through docconv.
func ForPath(path string) Reader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return PlainReader{}
	default:
		return DocconvReader{}
	}
}

// ReadLines extracts the document at path and returns its normalized,
// blank-free text lines, ready for the question parsers.
func ReadLines(r Reader, path string) ([]string, error) {
	text, err := r.ReadText(path)
	if err != nil {
		return nil, err
	}

	lines := parse.NormalizeLines(text)
	if len(lines) == 0 {
		return nil, fmt.Errorf("document %s contains no text lines", path)
	}
	return lines, nil
}
