// Package minnow is a lexer- and parser-generator toolkit. From declarative
// grammars it produces executable recognizers: named regular-expression
// patterns compile into a minimized DFA over a character-equivalence-class
// alphabet, and context-free grammars compile into LR(1) or LALR(1)
// action/goto tables, with a recursive-descent interpreter available as a
// grammar-debugging oracle. A local optimizer over three-address quadruples
// rounds out the toolkit.
//
// It's named for the smallest fish in the pond: it will probably never be as
// good as the big generator toolchains, so consider using those. This is for
// research into compiling techniques and does not seek to replace existing
// tools in any practical fashion.
//
// The subpackages do the work: rangemap holds the equivalence-class
// partition, lex the scanner pipeline, automaton the NFA/DFA machinery,
// grammar the grammar analysis, parse the LR table generation and drivers,
// and optimize the quadruple DAG optimizer. This package just assembles them
// into language frontends.
package minnow

import (
	"fmt"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/lex"
	"github.com/dekarrin/minnow/parse"
)

// Algorithm selects the parser construction algorithm of a Frontend.
type Algorithm int

const (
	// LALR1 builds the LALR(1) table by merging same-core LR(1) states. The
	// default; far fewer states on real grammars.
	LALR1 Algorithm = iota

	// CLR1 builds the canonical LR(1) table.
	CLR1
)

func (a Algorithm) String() string {
	switch a {
	case LALR1:
		return "LALR(1)"
	case CLR1:
		return "canonical LR(1)"
	default:
		return "unknown"
	}
}

// Frontend is an assembled language frontend: a generated scanner and a
// generated parser over one shared terminal vocabulary.
type Frontend struct {
	// Scanner tokenizes input text.
	Scanner *lex.Scanner

	// Parser drives the generated action/goto table.
	Parser *parse.LRParser

	// Grammar is the validated grammar the parser was generated from.
	Grammar grammar.Grammar

	// Conflicts holds every table conflict found during generation, already
	// resolved by the default rules. An empty slice means the grammar is
	// unambiguous under the chosen algorithm.
	Conflicts []*parse.GrammarConflictError
}

// NewFrontend generates a complete frontend. The terminal vocabulary of the
// grammar is derived from the non-discarded pattern names; the grammar's
// productions refer to them by their lower-cased names.
//
// Table conflicts do not fail generation; they are collected on the returned
// Frontend. Invalid patterns or grammar input do fail, and so does an LALR1
// table whose core merging introduces a reduce/reduce conflict
// (parse.LalrInadequateError).
func NewFrontend(patterns []lex.Pattern, rules []grammar.RuleSpec, start string, algo Algorithm) (*Frontend, error) {
	sc, err := lex.NewScanner(patterns)
	if err != nil {
		return nil, fmt.Errorf("generating scanner: %w", err)
	}

	var terms []lex.TokenClass
	for _, p := range patterns {
		if !p.Discard {
			terms = append(terms, sc.Class(p.Name))
		}
	}

	g, err := grammar.BuildGrammar(rules, terms, start)
	if err != nil {
		return nil, fmt.Errorf("building grammar: %w", err)
	}

	var table *parse.LRTable
	var conflicts []*parse.GrammarConflictError
	switch algo {
	case CLR1:
		table, conflicts, err = parse.ConstructLR1Table(g)
	default:
		table, conflicts, err = parse.ConstructLALR1Table(g)
	}
	if err != nil {
		return nil, fmt.Errorf("constructing %s table: %w", algo.String(), err)
	}

	return &Frontend{
		Scanner:   sc,
		Parser:    parse.NewLRParser(table),
		Grammar:   g,
		Conflicts: conflicts,
	}, nil
}

// Analyze scans and parses input in one step.
func (fe *Frontend) Analyze(input string) (parse.ParseTree, error) {
	stream, err := fe.Scanner.Stream(input)
	if err != nil {
		return parse.ParseTree{}, err
	}
	return fe.Parser.Parse(stream)
}

// DebugParse runs the recursive-descent oracle on the input instead of the
// generated table, as a cross-check while developing a grammar. Returns nil
// if the oracle finds no derivation.
func (fe *Frontend) DebugParse(input string) (*parse.ParseTree, error) {
	tokens, err := fe.Scanner.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return parse.RecursiveDescent(tokens, fe.Grammar), nil
}
