// Package automaton implements the finite automata at the heart of scanner
// generation: ε-NFAs built over a class-id alphabet, subset construction to
// DFAs, and Hopcroft partition-refinement minimization.
//
// States are plain integer ids handed out by the builder that owns the
// automaton; edges live in a table keyed by (state, symbol). Symbols are the
// dense class ids of a rangemap.RangeMap, so an automaton never holds raw
// characters. The distinguished symbol Epsilon tags ε-transitions and can
// never collide with a class id.
package automaton

import (
	"fmt"
	"sort"
)

// Epsilon is the edge symbol for ε-transitions. Class ids are always >= 0, so
// ε needs no in-band sentinel value in the alphabet itself.
const Epsilon = -1

// TransKey is the key of an automaton's edge table.
type TransKey struct {
	State  int
	Symbol int
}

func (k TransKey) String() string {
	if k.Symbol == Epsilon {
		return fmt.Sprintf("(%d, ε)", k.State)
	}
	return fmt.Sprintf("(%d, %d)", k.State, k.Symbol)
}

// Accept is one accepting label together with the priority of the pattern
// that produced it. Lower priority values outrank higher ones; the generator
// assigns them in declaration order.
type Accept struct {
	Label    string
	Priority int
}

func (a Accept) String() string {
	return fmt.Sprintf("%s/%d", a.Label, a.Priority)
}

// sortAccepts orders accepts by priority, ties broken by label so output is
// stable even if a caller hands in two labels with the same priority.
func sortAccepts(accepts []Accept) {
	sort.Slice(accepts, func(i, j int) bool {
		if accepts[i].Priority != accepts[j].Priority {
			return accepts[i].Priority < accepts[j].Priority
		}
		return accepts[i].Label < accepts[j].Label
	})
}

// dedupeAccepts merges duplicate (label, priority) pairs in a sorted slice.
func dedupeAccepts(accepts []Accept) []Accept {
	if len(accepts) < 2 {
		return accepts
	}
	out := accepts[:1]
	for _, a := range accepts[1:] {
		if a != out[len(out)-1] {
			out = append(out, a)
		}
	}
	return out
}

// acceptsKey gives a canonical string for a sorted accept set, used to group
// states that must never be merged across label boundaries.
func acceptsKey(accepts []Accept) string {
	s := ""
	for i := range accepts {
		if i > 0 {
			s += "|"
		}
		s += accepts[i].String()
	}
	return s
}
