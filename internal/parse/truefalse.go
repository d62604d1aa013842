// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// trueFalseAnswers is the fixed answer order for assumption questions,
// independent of which one is correct.
var trueFalseAnswers = []string{"True", "False"}

var (
	// assumeWord matches the keyword as a whole word only; "assumed" and
	// "assumes" do not qualify.
	assumeWord = regexp.MustCompile(`(?i)\bassume\b`)

	// leadingAnswer matches a "Correct Answer: X" fragment that opens a
	// sentence but belongs to the previous question.
	leadingAnswer = regexp.MustCompile(`(?i)^correct\s*answer:?\s*(true|false|t|f)\s+(.+)`)

	// trailingAnswer matches a sentence that ends with its own annotation.
	trailingAnswer = regexp.MustCompile(`(?i)^(.+?)\.\s*correct\s*answer:?\s*(true|false|t|f)\s*$`)

	// nextAnswer matches an annotation sentence following the question
	// sentence it belongs to.
	nextAnswer = regexp.MustCompile(`(?i)^correct\s*answer:?\s*(true|false|t|f)`)
)

// TrueFalse extracts statements containing the whole-word keyword "assume"
// as true/false questions. It operates on sentence units rather than lines
// so prompts wrapped across lines reflow before matching.
//
// A "Correct Answer" annotation may sit before, inside, or after the
// sentence it belongs to; attribution follows a fixed precedence (leading
// fragment, trailing fragment, separate next sentence, random fallback).
type TrueFalse struct {
	rng *rand.Rand
}

// NewTrueFalse creates an assumption-question parser drawing fallback
// correct answers from rng.
func NewTrueFalse(rng *rand.Rand) *TrueFalse {
	return &TrueFalse{rng: rng}
}

// Kind returns the true_false type key.
func (p *TrueFalse) Kind() types.Kind {
	return types.KindTrueFalse
}

// Parse resegments lines into sentences and emits one record per
// assumption sentence, in discovery order. Sentences without the keyword
// are skipped unless consumed as a trailing annotation.
func (p *TrueFalse) Parse(lines []string) ([]types.Question, error) {
	sentences := Sentences(lines)

	var buf recordBuffer
	i := 0
	for i < len(sentences) {
		if !assumeWord.MatchString(sentences[i]) {
			i++
			continue
		}
		i = p.extractSentence(sentences, i, &buf)
	}

	return buf.records, nil
}

// extractSentence resolves the record for the assumption sentence at index
// and returns the index to resume scanning from.
func (p *TrueFalse) extractSentence(sentences []string, index int, buf *recordBuffer) int {
	sentence := sentences[index]

	// A leading fragment is the annotation for the most recently emitted
	// question; strip it and keep the remainder as the current sentence.
	if m := leadingAnswer.FindStringSubmatch(sentence); m != nil {
		buf.attachToLast(truthIndex(m[1]))
		sentence = strings.TrimSpace(m[2])
	}

	// Self-contained: the sentence carries its own trailing annotation.
	if m := trailingAnswer.FindStringSubmatch(sentence); m != nil {
		text := strings.TrimSpace(m[1]) + "."
		buf.append(newQuestion(text, trueFalseAnswers, types.KindTrueFalse, truthIndex(m[2])))
		return index + 1
	}

	next := index + 1
	correct, found := matchNextAnswer(sentences, next)
	if found {
		// Consume the annotation sentence with this question, unless it
		// is itself an assumption sentence; then leave it in place so its
		// leading fragment is reprocessed on the next iteration.
		if next < len(sentences) && !assumeWord.MatchString(sentences[next]) {
			next++
		}
	} else {
		correct = randomIndex(p.rng, len(trueFalseAnswers))
	}

	buf.append(newQuestion(sentence, trueFalseAnswers, types.KindTrueFalse, correct))
	return next
}

// matchNextAnswer reports whether the sentence at index starts with a
// correct-answer annotation.
func matchNextAnswer(sentences []string, index int) (int, bool) {
	if index >= len(sentences) {
		return 0, false
	}
	m := nextAnswer.FindStringSubmatch(sentences[index])
	if m == nil {
		return 0, false
	}
	return truthIndex(m[1]), true
}
