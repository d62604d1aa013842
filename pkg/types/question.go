// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Kind categorizes a quiz question. The string value is the type key used
// both in serialized output and for parser selection.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindTrueFalse      Kind = "true_false"
)

// Question is a single extracted quiz question.
type Question struct {
	// Text is the question prompt as it appeared in the source document.
	Text string `json:"question" yaml:"question"`

	// Answers lists the choices in source order: A through D for
	// multiple-choice, always True then False for true/false.
	Answers []string `json:"answers" yaml:"answers"`

	// Kind is the question type key (e.g. "multiple_choice").
	Kind Kind `json:"type" yaml:"type"`

	// CorrectAnswer is the zero-based index into Answers. It is always
	// populated: explicitly from a "Correct Answer" annotation, or by
	// random fallback when the source carries none.
	CorrectAnswer int `json:"correct_answer" yaml:"correct_answer"`
}
