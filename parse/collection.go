// Package parse generates LR parsers. A context-free grammar is compiled into
// the canonical collection of LR(1) item sets, from which an action/goto
// table is derived, either directly (canonical LR(1)) or after merging
// same-core item sets (LALR(1)). The package also has the table-driven parser
// runtime and a recursive-descent oracle for debugging grammars.
package parse

import (
	"sort"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/internal/util"
)

// collection is the canonical collection of LR(1) item sets of an augmented
// grammar, together with its GOTO transitions. State ids are assigned in
// discovery order with symbols explored in sorted order, so they are a
// deterministic function of the grammar.
type collection struct {
	gPrime grammar.Grammar
	gStart string

	states []grammar.ItemSet
	trans  []map[string]int

	// cached union-FIRST sets of every non-terminal, so closure does not
	// re-run the fixed point per item
	firsts map[string]util.StringSet
}

// newCollection builds the canonical LR(1) collection for g. The grammar is
// augmented internally.
func newCollection(g grammar.Grammar) *collection {
	c := &collection{
		gPrime: g.Augmented(),
		gStart: g.StartSymbol(),
		firsts: g.FirstSets(),
	}

	initial := grammar.NewLR1Item(c.gPrime.StartSymbol(), grammar.Production{c.gStart}, grammar.EndOfInput)
	startSet := c.closure([]grammar.LR1Item{initial})

	ids := map[string]int{}
	c.states = append(c.states, startSet)
	c.trans = append(c.trans, map[string]int{})
	ids[startSet.StringOrdered()] = 0

	// worklist of states whose GOTOs still need computing; FIFO keeps ids in
	// discovery order
	worklist := []int{0}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		I := c.states[id]

		for _, X := range nextSymbols(I) {
			kernel := gotoKernel(I, X)
			next := c.closure(kernel)

			key := next.StringOrdered()
			nextID, ok := ids[key]
			if !ok {
				nextID = len(c.states)
				c.states = append(c.states, next)
				c.trans = append(c.trans, map[string]int{})
				ids[key] = nextID
				worklist = append(worklist, nextID)
			}

			c.trans[id][X] = nextID
		}
	}

	return c
}

// closure computes CLOSURE of the given kernel items: repeatedly, for every
// item [A -> α.Bβ, L] and every production B -> γ, the item [B -> .γ, L']
// with L' = FIRST(βL) \ {ε} is added, merging lookaheads by union for
// identical cores. Items whose lookaheads grow are reprocessed until nothing
// changes.
func (c *collection) closure(kernel []grammar.LR1Item) grammar.ItemSet {
	items := map[string]grammar.LR1Item{}

	var worklist []string
	queued := map[string]bool{}

	enqueue := func(core string) {
		if !queued[core] {
			queued[core] = true
			worklist = append(worklist, core)
		}
	}

	// merge adds the item, merging lookaheads with an existing same-core
	// item, and returns whether anything new was learned.
	merge := func(item grammar.LR1Item) bool {
		core := item.CoreString()
		existing, ok := items[core]
		if !ok {
			items[core] = item.Copy()
			return true
		}

		grew := false
		for la := range item.Lookaheads {
			if !existing.Lookaheads.Has(la) {
				existing.Lookaheads.Add(la)
				grew = true
			}
		}
		return grew
	}

	for _, item := range kernel {
		if merge(item) {
			enqueue(item.CoreString())
		}
	}

	for len(worklist) > 0 {
		core := worklist[0]
		worklist = worklist[1:]
		queued[core] = false

		item := items[core]

		B := item.NextSymbol()
		if !grammar.IsNonTerminal(B) {
			continue
		}

		// L' = FIRST(βL) \ {ε}, where β is everything after B
		beta := item.Right[1:]
		propagated := c.firstOfSeq(beta, item.Lookaheads)

		for _, gamma := range c.gPrime.Rule(B).Productions {
			newItem := grammar.NewLR1Item(B, gamma)
			newItem.Lookaheads = propagated.Copy()
			if merge(newItem) {
				enqueue(newItem.CoreString())
			}
		}
	}

	result := grammar.ItemSet(util.NewSVSet[grammar.LR1Item]())
	for _, item := range items {
		result.Set(item.String(), item)
	}
	return result
}

// firstOfSeq is FIRST of a symbol sequence followed by any symbol of the
// lookahead set L, never containing ε.
func (c *collection) firstOfSeq(beta []string, L util.StringSet) util.StringSet {
	result := util.NewStringSet()

	allNullable := true
	for _, sym := range beta {
		if grammar.IsTerminal(sym) || sym == grammar.EndOfInput {
			result.Add(sym)
			allNullable = false
			break
		}

		sub, ok := c.firsts[sym]
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
		for la := range L {
			result.Add(la)
		}
	}

	return result
}

// nextSymbols returns the sorted distinct symbols appearing right after the
// dot of some item in I.
func nextSymbols(I grammar.ItemSet) []string {
	seen := util.NewStringSet()
	for _, item := range grammar.OrderedItems(I) {
		if X := item.NextSymbol(); X != "" {
			seen.Add(X)
		}
	}
	return seen.OrderedElements()
}

// gotoKernel advances the dot past X on every applicable item of I. The
// result is the kernel of GOTO(I, X); callers close it.
func gotoKernel(I grammar.ItemSet, X string) []grammar.LR1Item {
	var kernel []grammar.LR1Item
	for _, item := range grammar.OrderedItems(I) {
		if item.NextSymbol() == X {
			kernel = append(kernel, item.AdvanceLR1())
		}
	}
	return kernel
}

// mergeLALR partitions the collection's states by LR(0) core and merges each
// partition into a single state whose items' lookaheads are the union over
// the merged members. Transitions are remapped accordingly. Closures are
// recomputed on the merged sets rather than reusing anything cached on the
// pre-merge lookaheads.
func (c *collection) mergeLALR() *collection {
	// group state ids by core key; partitions ordered by first appearance so
	// merged ids stay deterministic
	coreOf := make([]string, len(c.states))
	partitions := map[string][]int{}
	var order []string

	for id, I := range c.states {
		key := grammar.CoreSetKey(I)
		coreOf[id] = key
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], id)
	}

	newIDs := map[string]int{}
	for i, key := range order {
		newIDs[key] = i
	}

	merged := &collection{
		gPrime: c.gPrime,
		gStart: c.gStart,
		firsts: c.firsts,
	}
	merged.states = make([]grammar.ItemSet, len(order))
	merged.trans = make([]map[string]int, len(order))

	for i, key := range order {
		members := partitions[key]

		// union the members' items, merging lookaheads per core, and re-close
		var kernel []grammar.LR1Item
		kernelByCore := map[string]grammar.LR1Item{}
		for _, id := range members {
			for _, item := range grammar.OrderedItems(c.states[id]) {
				core := item.CoreString()
				if existing, ok := kernelByCore[core]; ok {
					existing.Lookaheads.AddAll(item.Lookaheads)
				} else {
					kernelByCore[core] = item.Copy()
				}
			}
		}
		coreKeys := util.OrderedKeys(kernelByCore)
		for _, ck := range coreKeys {
			kernel = append(kernel, kernelByCore[ck])
		}

		merged.states[i] = c.closure(kernel)

		// remap transitions through any member; same-core states always
		// transition to same-core states
		merged.trans[i] = map[string]int{}
		rep := members[0]
		for sym, target := range c.trans[rep] {
			merged.trans[i][sym] = newIDs[coreOf[target]]
		}
	}

	return merged
}

// orderedTransSymbols returns the sorted symbols with transitions out of the
// given state.
func (c *collection) orderedTransSymbols(state int) []string {
	syms := make([]string, 0, len(c.trans[state]))
	for sym := range c.trans[state] {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
