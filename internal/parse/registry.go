// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pdiddy/quizsmith/pkg/types"
)

// AllKinds is the sentinel type key selecting every registered parser.
const AllKinds = "all"

// builtinKinds fixes the dispatch order for the built-in parsers.
var builtinKinds = []types.Kind{types.KindMultipleChoice, types.KindTrueFalse}

// Factory builds a fresh parser drawing fallback answers from rng.
type Factory func(rng *rand.Rand) Parser

// Registry maps type keys to parsers. Built-in kinds dispatch through a
// closed switch; custom kinds live in an open extension table populated via
// Register. A Registry is constructed once, populated during initialization,
// and passed explicitly into extraction calls; it is not safe for concurrent
// Register calls but is read-only afterward.
type Registry struct {
	rng    *rand.Rand
	extras map[string]Factory
	order  []string
}

// NewRegistry creates a registry with the built-in parsers available.
// All parsers draw fallback correct answers from rng, so a single fixed
// seed makes a whole extraction run reproducible.
func NewRegistry(rng *rand.Rand) *Registry {
	r := &Registry{
		rng:    rng,
		extras: make(map[string]Factory),
	}
	for _, k := range builtinKinds {
		r.order = append(r.order, string(k))
	}
	return r
}

// Register adds a custom parser factory under key. Re-registering a key
// overwrites the previous entry (last write wins); registering a built-in
// key shadows the built-in parser. Entries are never removed.
func (r *Registry) Register(key string, factory Factory) {
	if _, exists := r.extras[key]; !exists && !isBuiltin(key) {
		r.order = append(r.order, key)
	}
	r.extras[key] = factory
}

func isBuiltin(key string) bool {
	for _, k := range builtinKinds {
		if string(k) == key {
			return true
		}
	}
	return false
}

// Get returns a fresh parser instance for key. The extension table is
// consulted first so a shadowed built-in resolves to its replacement.
func (r *Registry) Get(key string) (Parser, error) {
	if factory, ok := r.extras[key]; ok {
		return factory(r.rng), nil
	}

	switch types.Kind(key) {
	case types.KindMultipleChoice:
		return NewMultipleChoice(r.rng), nil
	case types.KindTrueFalse:
		return NewTrueFalse(r.rng), nil
	}

	return nil, fmt.Errorf("no parser registered for type %q (known types: %s)",
		key, strings.Join(r.Keys(), ", "))
}

// GetAll returns one fresh parser per registered key, built-ins first,
// then extensions in registration order.
func (r *Registry) GetAll() []Parser {
	parsers := make([]Parser, 0, len(r.order))
	for _, key := range r.order {
		p, err := r.Get(key)
		if err != nil {
			continue // order only holds registered keys
		}
		parsers = append(parsers, p)
	}
	return parsers
}

// Keys lists the registered type keys in GetAll order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Extract runs the parser selected by key over lines, or every registered
// parser when key is AllKinds. With AllKinds, results are concatenated in
// parser order (all questions of one kind before the next), not interleaved
// by document position.
func (r *Registry) Extract(key string, lines []string) ([]types.Question, error) {
	if key == AllKinds {
		var questions []types.Question
		for _, p := range r.GetAll() {
			qs, err := p.Parse(lines)
			if err != nil {
				return nil, fmt.Errorf("extracting %s questions: %w", p.Kind(), err)
			}
			questions = append(questions, qs...)
		}
		return questions, nil
	}

	p, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return p.Parse(lines)
}
