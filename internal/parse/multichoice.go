// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// answerLabels is the required choice order within a multiple-choice block.
// Label matching is strictly positional: a "C." line where "B." is expected
// is a formatting error, not a reorder.
var answerLabels = []string{"A", "B", "C", "D"}

// numChoices is the number of answer lines every block must carry.
const numChoices = 4

// markerWord opens a multiple-choice block. Any line starting with it,
// case-insensitively, counts; no suffix is required.
const markerWord = "question"

var (
	// choicePatterns holds one pattern per label position, e.g. "A. text"
	// or "a) text".
	choicePatterns = compileChoicePatterns()

	// letterAnswerPattern matches a "Correct Answer: B" line after the
	// choices. The colon is optional.
	letterAnswerPattern = regexp.MustCompile(`(?i)^correct\s*answer:?\s*([A-D])`)
)

func compileChoicePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(answerLabels))
	for i, label := range answerLabels {
		patterns[i] = regexp.MustCompile(`(?i)^` + label + `[.)]\s*(.+)$`)
	}
	return patterns
}

// MultipleChoice extracts four-choice question blocks introduced by the
// "Question" marker word. Lines between blocks are skipped one at a time;
// they may be narrative text surrounding the questions.
type MultipleChoice struct {
	rng *rand.Rand
}

// NewMultipleChoice creates a multiple-choice parser. Fallback correct
// answers are drawn from rng when a block has no annotation.
func NewMultipleChoice(rng *rand.Rand) *MultipleChoice {
	return &MultipleChoice{rng: rng}
}

// Kind returns the multiple_choice type key.
func (p *MultipleChoice) Kind() types.Kind {
	return types.KindMultipleChoice
}

// Parse scans lines for question blocks and returns the extracted records.
func (p *MultipleChoice) Parse(lines []string) ([]types.Question, error) {
	var buf recordBuffer

	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(strings.ToLower(lines[i]), markerWord) {
			i++
			continue
		}
		q, next, err := p.parseBlock(lines, i)
		if err != nil {
			return nil, err
		}
		buf.append(q)
		i = next
	}

	return buf.records, nil
}

// parseBlock reads one block starting at the marker line and returns the
// question plus the index of the first line after the consumed block.
func (p *MultipleChoice) parseBlock(lines []string, start int) (types.Question, int, error) {
	if start+1 >= len(lines) {
		return types.Question{}, 0, fmt.Errorf(
			"found %q marker at line %d but no question text follows", "Question", start+1)
	}

	text := lines[start+1]
	i := start + 2

	answers, err := parseChoices(lines, i, text)
	if err != nil {
		return types.Question{}, 0, err
	}
	i += numChoices

	correct, ok := matchLetterAnswer(lines, i)
	if ok {
		i++
	} else {
		correct = randomIndex(p.rng, numChoices)
	}

	return newQuestion(text, answers, types.KindMultipleChoice, correct), i, nil
}

// parseChoices consumes exactly numChoices lines, each matching the label
// expected at its position. The prompt is included in errors so malformed
// blocks can be located in the source.
func parseChoices(lines []string, start int, prompt string) ([]string, error) {
	answers := make([]string, 0, numChoices)

	for n, label := range answerLabels {
		i := start + n
		if i >= len(lines) {
			return nil, fmt.Errorf(
				"question %q does not have %d answer choices: missing answer %s",
				excerpt(prompt), numChoices, label)
		}

		m := choicePatterns[n].FindStringSubmatch(lines[i])
		if m == nil {
			return nil, fmt.Errorf(
				"question %q has an improperly formatted answer: expected answer labeled %q, found %q",
				excerpt(prompt), label, lines[i])
		}

		answers = append(answers, strings.TrimSpace(m[1]))
	}

	return answers, nil
}

// matchLetterAnswer reports whether the line at index is a correct-answer
// annotation, converting the captured letter to a zero-based index.
func matchLetterAnswer(lines []string, index int) (int, bool) {
	if index >= len(lines) {
		return 0, false
	}
	m := letterAnswerPattern.FindStringSubmatch(strings.TrimSpace(lines[index]))
	if m == nil {
		return 0, false
	}
	return letterIndex(m[1]), true
}

// excerpt shortens a prompt for error messages.
func excerpt(text string) string {
	if len(text) > 50 {
		return text[:50] + "..."
	}
	return text
}
