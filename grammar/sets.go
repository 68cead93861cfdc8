package grammar

import (
	"github.com/dekarrin/minnow/internal/util"
)

// This file has the FIRST, FOLLOW, and NULLABLE computations. All of them run
// fixed-point iteration over the full rule list until no set grows, so the
// results do not depend on the order rules were declared in. ε is represented
// in the sets as the empty string; the end-of-input sentinel as "$".

// FIRST returns the set of terminals that can begin a sentential form derived
// from the given symbol. For a terminal symbol this is the symbol itself. If
// the symbol can derive ε, the set contains the empty string.
//
// This is the union-by-name variant: the FIRST sets of all of a
// non-terminal's alternatives merged together. It is the variant FOLLOW and
// LR closure computation build on. For the per-alternative variant needed by
// LL(1) table construction, use FirstByAlternative.
func (g Grammar) FIRST(symbol string) util.StringSet {
	if IsTerminal(symbol) {
		return util.StringSetOf([]string{symbol})
	}
	firsts := g.firstSets()
	fs, ok := firsts[symbol]
	if !ok {
		return util.NewStringSet()
	}
	return fs
}

// FirstOfString returns FIRST of a sequence of symbols: FIRST of the first
// symbol, plus FIRST of each following symbol while every symbol before it is
// nullable. If the whole sequence is nullable, the result contains ε (the
// empty string). An empty sequence yields exactly {ε}.
func (g Grammar) FirstOfString(alpha ...string) util.StringSet {
	return firstOfString(g.firstSets(), alpha)
}

// FirstByAlternative returns one FIRST set per alternative of the given
// non-terminal's rule, in declaration order. The union of the returned sets
// is FIRST of the non-terminal.
func (g Grammar) FirstByAlternative(nonterminal string) []util.StringSet {
	firsts := g.firstSets()
	r := g.Rule(nonterminal)

	out := make([]util.StringSet, len(r.Productions))
	for i, prod := range r.Productions {
		if prod.IsEpsilon() {
			out[i] = util.StringSetOf([]string{""})
		} else {
			out[i] = firstOfString(firsts, prod)
		}
	}
	return out
}

// NULLABLE returns whether the given symbol can derive ε. Terminals are never
// nullable.
func (g Grammar) NULLABLE(symbol string) bool {
	if IsTerminal(symbol) || symbol == EndOfInput {
		return false
	}
	firsts := g.firstSets()
	fs, ok := firsts[symbol]
	if !ok {
		return false
	}
	return fs.Has("")
}

// FOLLOW returns the set of terminals that can appear immediately after the
// given non-terminal in some sentential form. FOLLOW of the start symbol
// contains the end-of-input sentinel "$". The result never contains ε.
func (g Grammar) FOLLOW(nonterminal string) util.StringSet {
	follows := g.followSets()
	fs, ok := follows[nonterminal]
	if !ok {
		return util.NewStringSet()
	}
	return fs
}

// FirstSets returns the union-by-name FIRST set of every non-terminal in one
// map, for callers that need all of them and do not want to re-run the fixed
// point per symbol.
func (g Grammar) FirstSets() map[string]util.StringSet {
	return g.firstSets()
}

// firstSets computes the FIRST set of every non-terminal by fixed-point
// iteration.
func (g Grammar) firstSets() map[string]util.StringSet {
	firsts := map[string]util.StringSet{}
	for _, r := range g.rules {
		firsts[r.NonTerminal] = util.NewStringSet()
	}

	changed := true
	for changed {
		changed = false

		for _, r := range g.rules {
			target := firsts[r.NonTerminal]
			before := target.Len()

			for _, prod := range r.Productions {
				if prod.IsEpsilon() {
					target.Add("")
					continue
				}

				allNullable := true
				for _, sym := range prod {
					if IsTerminal(sym) {
						target.Add(sym)
						allNullable = false
						break
					}

					sub, ok := firsts[sym]
					if !ok {
						// undefined non-terminal; Validate reports these, so
						// here it simply contributes nothing
						allNullable = false
						break
					}
					for k := range sub {
						if k != "" {
							target.Add(k)
						}
					}
					if !sub.Has("") {
						allNullable = false
						break
					}
				}

				if allNullable {
					target.Add("")
				}
			}

			if target.Len() != before {
				changed = true
			}
		}
	}

	return firsts
}

// firstOfString unions FIRST over a symbol sequence per the chain rule.
func firstOfString(firsts map[string]util.StringSet, alpha []string) util.StringSet {
	result := util.NewStringSet()

	allNullable := true
	for _, sym := range alpha {
		if sym == "" {
			continue
		}
		if IsTerminal(sym) || sym == EndOfInput {
			result.Add(sym)
			allNullable = false
			break
		}

		sub, ok := firsts[sym]
		if !ok {
			allNullable = false
			break
		}
		for k := range sub {
			if k != "" {
				result.Add(k)
			}
		}
		if !sub.Has("") {
			allNullable = false
			break
		}
	}

	if allNullable {
		result.Add("")
	}

	return result
}

// followSets computes the FOLLOW set of every non-terminal by fixed-point
// iteration over all productions.
func (g Grammar) followSets() map[string]util.StringSet {
	firsts := g.firstSets()

	follows := map[string]util.StringSet{}
	for _, r := range g.rules {
		follows[r.NonTerminal] = util.NewStringSet()
	}
	if fs, ok := follows[g.StartSymbol()]; ok {
		fs.Add(EndOfInput)
	}

	changed := true
	for changed {
		changed = false

		for _, r := range g.rules {
			for _, prod := range r.Productions {
				if prod.IsEpsilon() {
					continue
				}

				for i, sym := range prod {
					if !IsNonTerminal(sym) {
						continue
					}
					target, ok := follows[sym]
					if !ok {
						continue
					}
					before := target.Len()

					beta := prod[i+1:]
					if len(beta) > 0 {
						betaFirst := firstOfString(firsts, beta)
						for k := range betaFirst {
							if k != "" {
								target.Add(k)
							}
						}
						if betaFirst.Has("") {
							for k := range follows[r.NonTerminal] {
								target.Add(k)
							}
						}
					} else {
						for k := range follows[r.NonTerminal] {
							target.Add(k)
						}
					}

					if target.Len() != before {
						changed = true
					}
				}
			}
		}
	}

	return follows
}
