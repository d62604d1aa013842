// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"
	"unicode"
)

// NormalizeLines splits raw document text on line boundaries, trims leading
// and trailing whitespace from each line, and drops lines that become empty.
func NormalizeLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Sentences joins normalized lines with single spaces and resegments the
// result into sentence units. A sentence ends at '.', '!', or '?' followed
// by whitespace or end of input. The rule is deliberately crude (no
// abbreviation or quote handling); joining before resplitting reflows
// prompts that were wrapped across lines.
func Sentences(lines []string) []string {
	full := strings.Join(lines, " ")

	var sentences []string
	runes := []rune(full)
	start := 0

	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i + 1
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			continue
		}
		emit(i + 1)
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	emit(len(runes))

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
