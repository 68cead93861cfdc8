// Package spec loads language specification files for the minnow command.
// A spec file is TOML declaring the scanner's prioritized pattern list, the
// grammar's rules, and the start symbol:
//
//	start = "E"
//	algorithm = "lalr"
//
//	[[patterns]]
//	name = "SPACE"
//	regex = "[ \t\n]+"
//	discard = true
//
//	[[patterns]]
//	name = "NUM"
//	regex = "[0-9]+"
//
//	[[rules]]
//	name = "E"
//	alternatives = ["E plus T", "T"]
//
// Alternatives are space-separated symbol sequences; "ε" (or an empty
// string) is the epsilon alternative.
package spec

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/minnow"
	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/lex"
)

// File is a decoded specification file.
type File struct {
	// Start is the grammar's start symbol. It may be empty for scanner-only
	// specs.
	Start string `toml:"start"`

	// Algorithm is "lalr" (the default) or "clr".
	Algorithm string `toml:"algorithm"`

	Patterns []PatternEntry `toml:"patterns"`
	Rules    []RuleEntry    `toml:"rules"`
}

// PatternEntry is one scanner pattern declaration. Declaration order in the
// file defines priority.
type PatternEntry struct {
	Name    string `toml:"name"`
	Regex   string `toml:"regex"`
	Discard bool   `toml:"discard"`
}

// RuleEntry is one grammar rule declaration.
type RuleEntry struct {
	Name         string   `toml:"name"`
	Alternatives []string `toml:"alternatives"`
	Attributes   []string `toml:"attributes"`
}

// Load reads and decodes a spec file.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if len(f.Patterns) == 0 {
		return nil, fmt.Errorf("%s: no patterns declared", path)
	}

	return &f, nil
}

// LexPatterns converts the file's pattern entries to generator input.
func (f *File) LexPatterns() []lex.Pattern {
	patterns := make([]lex.Pattern, len(f.Patterns))
	for i, p := range f.Patterns {
		patterns[i] = lex.Pattern{Name: p.Name, Regex: p.Regex, Discard: p.Discard}
	}
	return patterns
}

// RuleSpecs converts the file's rule entries to generator input, splitting
// each alternative into its symbol sequence.
func (f *File) RuleSpecs() []grammar.RuleSpec {
	specs := make([]grammar.RuleSpec, len(f.Rules))
	for i, r := range f.Rules {
		rs := grammar.RuleSpec{Name: r.Name}
		for _, alt := range r.Alternatives {
			alt = strings.TrimSpace(alt)
			if alt == "" || alt == "ε" {
				rs.Alternatives = append(rs.Alternatives, grammar.Epsilon)
				continue
			}
			rs.Alternatives = append(rs.Alternatives, grammar.Production(strings.Fields(alt)))
		}
		if len(r.Attributes) > 0 {
			rs.Attributes = make([]interface{}, len(r.Attributes))
			for j := range r.Attributes {
				rs.Attributes[j] = r.Attributes[j]
			}
		}
		specs[i] = rs
	}
	return specs
}

// ParserAlgorithm maps the file's algorithm field to the generator's choice.
func (f *File) ParserAlgorithm() (minnow.Algorithm, error) {
	switch strings.ToLower(f.Algorithm) {
	case "", "lalr", "lalr1":
		return minnow.LALR1, nil
	case "clr", "clr1", "lr1":
		return minnow.CLR1, nil
	default:
		return minnow.LALR1, fmt.Errorf("unknown algorithm %q; use \"lalr\" or \"clr\"", f.Algorithm)
	}
}

// HasGrammar returns whether the file declares a grammar on top of its
// scanner patterns.
func (f *File) HasGrammar() bool {
	return len(f.Rules) > 0 && f.Start != ""
}
