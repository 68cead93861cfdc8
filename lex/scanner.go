// Package lex generates scanners. A prioritized list of named regular
// expression patterns is compiled down a pipeline of regex front-end,
// Thompson ε-NFA, subset construction, and Hopcroft minimization, all over a
// character-equivalence-class alphabet kept in a range map. The generated
// scanner tokenizes by maximal munch.
package lex

import (
	"fmt"

	"github.com/dekarrin/minnow/automaton"
	"github.com/dekarrin/minnow/rangemap"
)

// Pattern is one named pattern of a scanner specification. Order of
// declaration defines priority; earlier patterns win ties.
type Pattern struct {
	// Name is the label of the produced tokens and must be unique within a
	// specification.
	Name string

	// Regex is the pattern in the surface dialect.
	Regex string

	// Discard marks tokens of this pattern to be matched but not emitted,
	// e.g. whitespace and comments.
	Discard bool
}

// Options control scanner generation.
type Options struct {
	// MultiLabel makes subset construction carry the full label set of every
	// accepting state so that priority resolution happens after
	// minimization rather than before. The resulting scanner behaves
	// identically; the mode exists because merging first can produce a
	// smaller intermediate automaton.
	MultiLabel bool

	// SkipMinimize leaves the subset-construction DFA as is. Mostly useful
	// for debugging a pattern set.
	SkipMinimize bool
}

// Scanner is a generated scanner: a minimal DFA over a class alphabet plus
// the pattern table it was generated from.
type Scanner struct {
	dfa      *automaton.DFA
	patterns []Pattern
	discard  map[string]bool
	classes  map[string]TokenClass
}

// NewScanner generates a Scanner from the given patterns with default
// options.
func NewScanner(patterns []Pattern) (*Scanner, error) {
	return NewScannerOpts(patterns, Options{})
}

// NewScannerOpts generates a Scanner from the given patterns. Duplicate
// pattern names and malformed patterns are reported as errors.
func NewScannerOpts(patterns []Pattern, opts Options) (*Scanner, error) {
	nfa, rm, err := CompileGroup(patterns)
	if err != nil {
		return nil, err
	}

	dfa := automaton.Determinize(nfa, rm, opts.MultiLabel)

	if !opts.SkipMinimize {
		dfa, err = automaton.Minimize(dfa)
		if err != nil {
			return nil, fmt.Errorf("minimizing scanner DFA: %w", err)
		}
	}

	sc := &Scanner{
		dfa:      dfa,
		patterns: patterns,
		discard:  map[string]bool{},
		classes:  map[string]TokenClass{},
	}
	for _, p := range patterns {
		if p.Discard {
			sc.discard[p.Name] = true
		}
		sc.classes[p.Name] = NewTokenClass(p.Name, p.Name)
	}

	return sc, nil
}

// DFA returns the scanner's automaton.
func (sc *Scanner) DFA() *automaton.DFA {
	return sc.dfa
}

// RangeMap returns the range map defining the scanner's alphabet.
func (sc *Scanner) RangeMap() *rangemap.RangeMap {
	return sc.dfa.RangeMap()
}

// Patterns returns the pattern table the scanner was generated from.
func (sc *Scanner) Patterns() []Pattern {
	return sc.patterns
}

// Class returns the TokenClass for a pattern label.
func (sc *Scanner) Class(label string) TokenClass {
	tc, ok := sc.classes[label]
	if !ok {
		return TokenUndefined
	}
	return tc
}

// Check runs sanity checks over the generated scanner and returns one error
// per problem found: currently, pattern labels that no DFA state accepts for,
// meaning the pattern is completely shadowed by higher-priority ones.
func (sc *Scanner) Check() []error {
	reachable := map[string]bool{}
	for id := 0; id < sc.dfa.Len(); id++ {
		st, _ := sc.dfa.State(id)
		if st.Accepting {
			reachable[st.Label()] = true
		}
	}

	var problems []error
	for _, p := range sc.patterns {
		if !reachable[p.Name] {
			problems = append(problems, fmt.Errorf("pattern %q can never produce a token; it is shadowed by earlier patterns", p.Name))
		}
	}

	return problems
}

// Tokenize scans the full input by maximal munch: it keeps stepping the DFA
// while a transition exists, remembering the last accepting position, and on
// rejection emits a token for that position and restarts there. Input that
// allows no accept at all produces an UnrecognizedInputError.
//
// Tokens of Discard patterns are matched but omitted from the result.
func (sc *Scanner) Tokenize(input string) ([]Token, error) {
	runes := []rune(input)

	var tokens []Token

	line := 1
	linePos := 1
	tokenStart := 0

	for tokenStart < len(runes) {
		state := sc.dfa.StartState()

		lastAcceptEnd := -1
		lastAcceptLabel := ""

		if accepting, label := sc.dfa.IsAccepting(state); accepting {
			lastAcceptEnd = tokenStart
			lastAcceptLabel = label
		}

		pos := tokenStart
		for pos < len(runes) {
			next, ok := sc.dfa.Step(state, runes[pos])
			if !ok {
				break
			}
			state = next
			pos++
			if accepting, label := sc.dfa.IsAccepting(state); accepting {
				lastAcceptEnd = pos
				lastAcceptLabel = label
			}
		}

		if lastAcceptEnd <= tokenStart {
			// nothing matched here, not even the empty string usefully
			return nil, &UnrecognizedInputError{
				Pos:     tokenStart,
				Line:    line,
				LinePos: linePos,
				Near:    nearText(runes, tokenStart),
			}
		}

		lexeme := string(runes[tokenStart:lastAcceptEnd])
		if !sc.discard[lastAcceptLabel] {
			tokens = append(tokens, Token{
				Class:   sc.Class(lastAcceptLabel),
				Lexeme:  lexeme,
				Pos:     tokenStart,
				Line:    line,
				LinePos: linePos,
			})
		}

		// advance the human-readable position over the consumed text
		for _, c := range runes[tokenStart:lastAcceptEnd] {
			if c == '\n' {
				line++
				linePos = 1
			} else {
				linePos++
			}
		}
		tokenStart = lastAcceptEnd
	}

	return tokens, nil
}

// Stream scans the full input and returns the result as a TokenStream
// terminated by the end-of-text sentinel.
func (sc *Scanner) Stream(input string) (TokenStream, error) {
	tokens, err := sc.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return NewTokenStream(tokens), nil
}

func nearText(runes []rune, pos int) string {
	end := pos + 10
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[pos:end])
}
