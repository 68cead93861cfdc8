// Package grammar provides context-free grammar representation and analysis:
// rules and productions, terminal declarations, and the FIRST, FOLLOW, and
// NULLABLE set computations that parser generation is built on.
//
// Terminal symbols are lower-case names matching scanner token class IDs;
// non-terminals are upper-case. The case split is what keeps the two name
// spaces disjoint.
package grammar

import (
	"fmt"
	"strings"

	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/minnow/lex"
)

var (
	// Epsilon is the empty production.
	Epsilon = Production{""}
)

// EndOfInput is the end-of-input sentinel terminal, usable in FOLLOW sets and
// lookaheads but never declared in a grammar.
const EndOfInput = "$"

// Production is one alternative of a grammar rule: an ordered sequence of
// symbol names. The empty-string symbol alone denotes ε.
type Production []string

// Copy returns a deep copy of the production.
func (p Production) Copy() Production {
	p2 := make(Production, len(p))
	copy(p2, p)
	return p2
}

// Equal returns whether the production has the same symbols as another.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		otherSlice, ok := o.([]string)
		if !ok {
			return false
		}
		other = Production(otherSlice)
	}

	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// IsEpsilon returns whether the production is the ε-production.
func (p Production) IsEpsilon() bool {
	return len(p) == 1 && p[0] == ""
}

func (p Production) String() string {
	if p.IsEpsilon() {
		return "ε"
	}
	return strings.Join(p, " ")
}

// Rule is a grammar rule: one non-terminal and all of its alternative
// productions, in declaration order. Each alternative may carry one opaque
// attribute value, stored verbatim for the caller.
type Rule struct {
	NonTerminal string
	Productions []Production
	Attributes  []interface{}
}

// Copy returns a deep copy of the rule. Attribute values themselves are
// shared, not copied; they are opaque to the package.
func (r Rule) Copy() Rule {
	r2 := Rule{
		NonTerminal: r.NonTerminal,
		Productions: make([]Production, len(r.Productions)),
	}
	for i := range r.Productions {
		r2.Productions[i] = r.Productions[i].Copy()
	}
	if r.Attributes != nil {
		r2.Attributes = make([]interface{}, len(r.Attributes))
		copy(r2.Attributes, r.Attributes)
	}
	return r2
}

func (r Rule) String() string {
	prods := make([]string, len(r.Productions))
	for i := range r.Productions {
		prods[i] = r.Productions[i].String()
	}
	return fmt.Sprintf("%s -> %s", r.NonTerminal, strings.Join(prods, " | "))
}

// CanProduceSymbol returns whether any alternative of the rule includes the
// given symbol.
func (r Rule) CanProduceSymbol(sym string) bool {
	for _, prod := range r.Productions {
		for _, s := range prod {
			if s == sym {
				return true
			}
		}
	}
	return false
}

// Grammar is a context-free grammar: rules for each non-terminal in
// declaration order, a declared terminal set, and a designated start symbol.
type Grammar struct {
	rulesByName map[string]int

	// main rules store, not just doing a simple map bc rules have an order
	// that matters
	rules     []Rule
	terminals map[string]lex.TokenClass

	// name of the start symbol. If not set, assumed to be S.
	Start string
}

// IsTerminal returns whether sym names a terminal. The empty string (ε) and
// the end-of-input sentinel are not terminals in this sense.
func IsTerminal(sym string) bool {
	if sym == "" || sym == EndOfInput {
		return false
	}
	return strings.ToLower(sym) == sym
}

// IsNonTerminal returns whether sym names a non-terminal.
func IsNonTerminal(sym string) bool {
	return sym != "" && sym != EndOfInput && !IsTerminal(sym)
}

// StartSymbol returns the grammar's start symbol.
func (g Grammar) StartSymbol() string {
	if g.Start == "" {
		return "S"
	}
	return g.Start
}

// Copy makes a duplicate deep copy of the grammar.
func (g Grammar) Copy() Grammar {
	g2 := Grammar{
		rulesByName: make(map[string]int, len(g.rulesByName)),
		rules:       make([]Rule, len(g.rules)),
		terminals:   make(map[string]lex.TokenClass, len(g.terminals)),
		Start:       g.Start,
	}

	for k := range g.rulesByName {
		g2.rulesByName[k] = g.rulesByName[k]
	}
	for i := range g.rules {
		g2.rules[i] = g.rules[i].Copy()
	}
	for k := range g.terminals {
		g2.terminals[k] = g.terminals[k]
	}

	return g2
}

// Rule returns the grammar rule for the given nonterminal symbol. If there is
// no rule defined for that nonterminal, a Rule with an empty NonTerminal
// field is returned.
func (g Grammar) Rule(nonterminal string) Rule {
	if g.rulesByName == nil {
		return Rule{}
	}

	if curIdx, ok := g.rulesByName[nonterminal]; !ok {
		return Rule{}
	} else {
		return g.rules[curIdx]
	}
}

// Term returns the token class that the given terminal symbol maps to. If the
// given symbol is not a declared terminal, lex.TokenUndefined is returned.
func (g Grammar) Term(terminal string) lex.TokenClass {
	if g.terminals == nil {
		return lex.TokenUndefined
	}

	if class, ok := g.terminals[terminal]; !ok {
		return lex.TokenUndefined
	} else {
		return class
	}
}

// AddTerm adds the given terminal along with the token class that corresponds
// to it; tokens must be of that class in order to match the terminal.
//
// Panics on API misuse: empty names, upper-case names, or the reserved
// end-of-input sentinel.
func (g *Grammar) AddTerm(terminal string, class lex.TokenClass) {
	if terminal == "" {
		panic("empty terminal not allowed")
	}
	if terminal == EndOfInput {
		panic("can't add reserved end-of-input sentinel as defined terminal")
	}
	if !IsTerminal(terminal) {
		panic(fmt.Sprintf("invalid terminal name %q; must be lower-case", terminal))
	}

	if g.terminals == nil {
		g.terminals = map[string]lex.TokenClass{}
	}

	g.terminals[terminal] = class
}

// AddRule adds the given production for a nonterminal. If the nonterminal has
// already been given, the production is added as an alternative with lower
// priority than all others already added.
//
// All rules require at least one symbol in the production. For the epsilon
// production, give only the empty string.
func (g *Grammar) AddRule(nonterminal string, production []string) {
	if nonterminal == "" {
		panic("empty nonterminal name not allowed for production rule")
	}
	if !IsNonTerminal(nonterminal) {
		panic(fmt.Sprintf("invalid nonterminal name %q; must not be lower-case", nonterminal))
	}
	if len(production) < 1 {
		panic("for epsilon production give empty string; all rules must have productions")
	}

	// check that epsilon, if given, is by itself
	if len(production) != 1 {
		for _, sym := range production {
			if sym == "" {
				panic("epsilon production only allowed as sole production of an alternative")
			}
		}
	}

	if g.rulesByName == nil {
		g.rulesByName = map[string]int{}
	}

	curIdx, ok := g.rulesByName[nonterminal]
	if !ok {
		g.rules = append(g.rules, Rule{NonTerminal: nonterminal})
		curIdx = len(g.rules) - 1
		g.rulesByName[nonterminal] = curIdx
	}

	curRule := g.rules[curIdx]
	curRule.Productions = append(curRule.Productions, production)
	g.rules[curIdx] = curRule
}

// SetAttribute attaches an opaque attribute value to the given alternative of
// a non-terminal's rule. The value is stored verbatim; the package never
// inspects it. Panics if the rule or alternative does not exist.
func (g *Grammar) SetAttribute(nonterminal string, alt int, attr interface{}) {
	idx, ok := g.rulesByName[nonterminal]
	if !ok {
		panic(fmt.Sprintf("set attribute on undefined nonterminal %q", nonterminal))
	}

	r := g.rules[idx]
	if alt < 0 || alt >= len(r.Productions) {
		panic(fmt.Sprintf("set attribute on out-of-range alternative %d of %q", alt, nonterminal))
	}

	if r.Attributes == nil {
		r.Attributes = make([]interface{}, len(r.Productions))
	} else if len(r.Attributes) < len(r.Productions) {
		grown := make([]interface{}, len(r.Productions))
		copy(grown, r.Attributes)
		r.Attributes = grown
	}

	r.Attributes[alt] = attr
	g.rules[idx] = r
}

// Attribute returns the opaque attribute attached to the given alternative of
// a non-terminal's rule, or nil if none is set.
func (g Grammar) Attribute(nonterminal string, alt int) interface{} {
	idx, ok := g.rulesByName[nonterminal]
	if !ok {
		return nil
	}
	r := g.rules[idx]
	if r.Attributes == nil || alt < 0 || alt >= len(r.Attributes) {
		return nil
	}
	return r.Attributes[alt]
}

// NonTerminals returns all non-terminal symbols in declaration order.
func (g Grammar) NonTerminals() []string {
	names := make([]string, len(g.rules))
	for i := range g.rules {
		names[i] = g.rules[i].NonTerminal
	}
	return names
}

// Terminals returns all declared terminal symbols in alphabetical order.
func (g Grammar) Terminals() []string {
	return util.OrderedKeys(g.terminals)
}

// Rules returns all rules in declaration order.
func (g Grammar) Rules() []Rule {
	rules := make([]Rule, len(g.rules))
	copy(rules, g.rules)
	return rules
}

func (g Grammar) String() string {
	ruleStrs := make([]string, len(g.rules))
	for i := range g.rules {
		ruleStrs[i] = g.rules[i].String()
	}
	return fmt.Sprintf("(%q, R=%q)", util.OrderedKeys(g.terminals), ruleStrs)
}

// Augmented returns a copy of the grammar augmented with a new start rule
// START' -> START, as needed for LR table construction.
func (g Grammar) Augmented() Grammar {
	aug := g.Copy()

	oldStart := g.StartSymbol()
	newStart := oldStart + "'"
	for {
		if _, exists := aug.rulesByName[newStart]; !exists {
			break
		}
		newStart += "'"
	}

	aug.AddRule(newStart, []string{oldStart})
	aug.Start = newStart

	return aug
}

// Validate checks the grammar for structural problems and returns the first
// found: an undefined start symbol (or no rules at all), productions referring to
// non-terminals with no rule, or terminals used but not declared.
func (g Grammar) Validate() error {
	if len(g.rules) == 0 {
		return &UndefinedStartSymbolError{Name: g.StartSymbol()}
	}

	if _, ok := g.rulesByName[g.StartSymbol()]; !ok {
		return &UndefinedStartSymbolError{Name: g.StartSymbol()}
	}

	for _, r := range g.rules {
		for _, prod := range r.Productions {
			if prod.IsEpsilon() {
				continue
			}
			for _, sym := range prod {
				if IsTerminal(sym) {
					if _, ok := g.terminals[sym]; !ok {
						return &UndefinedTerminalError{Name: sym}
					}
				} else {
					if _, ok := g.rulesByName[sym]; !ok {
						return &UndefinedNonTerminalError{Name: sym}
					}
				}
			}
		}
	}

	return nil
}

// RuleSpec is the external form of one grammar rule: a left-hand side, its
// alternation, and an optional attribute tuple of the same arity as the
// alternation. Attribute contents are opaque to the generator.
type RuleSpec struct {
	Name         string
	Alternatives []Production
	Attributes   []interface{}
}

// BuildGrammar assembles and validates a Grammar from rule specifications,
// declared terminals, and a start symbol. Duplicate left-hand-side names are
// rejected with DuplicateNonTerminalError; symbol references and the start
// symbol are validated as in Validate.
func BuildGrammar(specs []RuleSpec, terminals []lex.TokenClass, start string) (Grammar, error) {
	g := Grammar{Start: start}

	for _, tc := range terminals {
		g.AddTerm(tc.ID(), tc)
	}

	seen := map[string]bool{}
	for _, spec := range specs {
		if seen[spec.Name] {
			return Grammar{}, &DuplicateNonTerminalError{Name: spec.Name}
		}
		seen[spec.Name] = true

		if spec.Attributes != nil && len(spec.Attributes) != len(spec.Alternatives) {
			return Grammar{}, fmt.Errorf("rule %q: attribute tuple has arity %d but alternation has arity %d", spec.Name, len(spec.Attributes), len(spec.Alternatives))
		}

		for i, alt := range spec.Alternatives {
			g.AddRule(spec.Name, alt)
			if spec.Attributes != nil {
				g.SetAttribute(spec.Name, i, spec.Attributes[i])
			}
		}
	}

	if err := g.Validate(); err != nil {
		return Grammar{}, err
	}

	return g, nil
}
