package lex

import (
	"github.com/dekarrin/minnow/automaton"
	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/minnow/rangemap"
)

// addPatternIntervals feeds every interval mentioned by a pattern's tokens
// into the range map. Negated classes contribute their member intervals too;
// the boundaries are what carve out the complement's equivalence classes.
func addPatternIntervals(rm *rangemap.RangeMap, tokens []regexToken) {
	for _, tok := range tokens {
		switch tok.ttype {
		case rtChar:
			rm.Insert(tok.ch, tok.ch+1)
		case rtClass:
			for _, item := range tok.items {
				rm.Insert(item.lo, item.hi)
			}
		case rtDot:
			// '.' is everything but newline, so newline needs its own class
			rm.Insert('\n', '\n'+1)
		}
	}
}

// atomClasses rewrites an atom token into the sorted set of class ids it
// denotes under the finished range map.
func atomClasses(rm *rangemap.RangeMap, tok regexToken) []int {
	switch tok.ttype {
	case rtChar:
		return rm.ClassesOf(tok.ch, tok.ch+1)

	case rtClass:
		member := map[int]bool{}
		for _, item := range tok.items {
			for _, id := range rm.ClassesOf(item.lo, item.hi) {
				member[id] = true
			}
		}

		if !tok.negated {
			return util.OrderedIntKeys(member)
		}

		complement := map[int]bool{}
		for _, id := range rm.ClassesOf(0, rangemap.MaxCodePoint) {
			if !member[id] {
				complement[id] = true
			}
		}
		return util.OrderedIntKeys(complement)

	case rtDot:
		nlClass, _ := rm.Search('\n')
		var ids []int
		for _, id := range rm.ClassesOf(0, rangemap.MaxCodePoint) {
			if id != nlClass {
				ids = append(ids, id)
			}
		}
		return ids

	default:
		panic("atomClasses on non-atom token")
	}
}

// frag is an under-construction NFA fragment, identified by its entry and
// exit states inside the shared automaton.
type frag struct {
	start int
	end   int
}

// thompson builds the ε-NFA for one tokenized pattern directly into nfa,
// drawing fresh state ids from counter. Returns the fragment covering the
// whole pattern.
//
// This is Thompson's construction driven by a shunting-yard loop: postfix
// operators apply immediately to the newest fragment, '|' and concatenation
// go through the operator stack.
func thompson(pattern string, tokens []regexToken, rm *rangemap.RangeMap, nfa *automaton.NFA, counter *int) (frag, error) {
	newState := func() int {
		id := *counter
		*counter++
		nfa.AddState(id)
		return id
	}

	atom := func(classes []int) frag {
		f := frag{start: newState(), end: newState()}
		for _, c := range classes {
			nfa.AddEdge(f.start, c, f.end)
		}
		return f
	}

	frags := util.Stack[frag]{}
	ops := util.Stack[regexTokenType]{}

	// applyOp reduces the top operator into the fragment stack.
	applyOp := func(op regexTokenType, pos int) error {
		switch op {
		case rtConcat:
			if frags.Len() < 2 {
				return malformedf(pattern, pos, "missing operand")
			}
			f2 := frags.Pop()
			f1 := frags.Pop()
			nfa.AddEdge(f1.end, automaton.Epsilon, f2.start)
			frags.Push(frag{start: f1.start, end: f2.end})
		case rtOr:
			if frags.Len() < 2 {
				return malformedf(pattern, pos, "missing operand for '|'")
			}
			f2 := frags.Pop()
			f1 := frags.Pop()
			f := frag{start: newState(), end: newState()}
			nfa.AddEdge(f.start, automaton.Epsilon, f1.start, f2.start)
			nfa.AddEdge(f1.end, automaton.Epsilon, f.end)
			nfa.AddEdge(f2.end, automaton.Epsilon, f.end)
			frags.Push(f)
		default:
			panic("applyOp on non-operator")
		}
		return nil
	}

	// precedence for stack reduction; postfix never enters the stack
	prec := func(op regexTokenType) int {
		if op == rtConcat {
			return 2
		}
		return 1 // rtOr
	}

	for _, tok := range tokens {
		switch tok.ttype {
		case rtChar, rtClass, rtDot:
			frags.Push(atom(atomClasses(rm, tok)))

		case rtStar, rtPlus, rtQuestion:
			if frags.Empty() {
				return frag{}, malformedf(pattern, tok.pos, "dangling postfix operator")
			}
			inner := frags.Pop()
			f := frag{start: newState(), end: newState()}
			nfa.AddEdge(f.start, automaton.Epsilon, inner.start)
			nfa.AddEdge(inner.end, automaton.Epsilon, f.end)
			if tok.ttype != rtQuestion {
				// the loop edge, for one-or-more
				nfa.AddEdge(inner.end, automaton.Epsilon, inner.start)
			}
			if tok.ttype != rtPlus {
				// the bypass edge, for zero-or-x
				nfa.AddEdge(f.start, automaton.Epsilon, f.end)
			}
			frags.Push(f)

		case rtOr, rtConcat:
			for !ops.Empty() && ops.Peek() != rtLParen && prec(ops.Peek()) >= prec(tok.ttype) {
				if err := applyOp(ops.Pop(), tok.pos); err != nil {
					return frag{}, err
				}
			}
			ops.Push(tok.ttype)

		case rtLParen:
			ops.Push(rtLParen)

		case rtRParen:
			matched := false
			for !ops.Empty() {
				op := ops.Pop()
				if op == rtLParen {
					matched = true
					break
				}
				if err := applyOp(op, tok.pos); err != nil {
					return frag{}, err
				}
			}
			if !matched {
				return frag{}, malformedf(pattern, tok.pos, "unmatched ')'")
			}
		}
	}

	for !ops.Empty() {
		op := ops.Pop()
		if op == rtLParen {
			return frag{}, malformedf(pattern, len([]rune(pattern)), "unmatched '('")
		}
		if err := applyOp(op, len([]rune(pattern))); err != nil {
			return frag{}, err
		}
	}

	if frags.Len() > 1 {
		return frag{}, malformedf(pattern, 0, "pattern does not reduce to a single expression")
	}
	if frags.Empty() {
		// the empty pattern matches only the empty string
		f := frag{start: newState(), end: newState()}
		nfa.AddEdge(f.start, automaton.Epsilon, f.end)
		return f, nil
	}

	return frags.Pop(), nil
}

// CompileGroup compiles an ordered list of named patterns into a shared-
// alphabet ε-NFA and the range map defining that alphabet. Declaration order
// defines priority: earlier patterns outrank later ones wherever both accept.
func CompileGroup(patterns []Pattern) (*automaton.NFA, *rangemap.RangeMap, error) {
	// reject duplicate names before doing any work
	seen := map[string]bool{}
	for _, p := range patterns {
		if seen[p.Name] {
			return nil, nil, &DuplicatePatternError{Name: p.Name}
		}
		seen[p.Name] = true
	}

	// pass 1: tokenize everything and collect every interval into one map,
	// seeded with the full code point space so negation and '.' always have
	// classes to land on and the partition covers everything.
	rm := &rangemap.RangeMap{}
	rm.Insert(0, rangemap.MaxCodePoint)

	tokenized := make([][]regexToken, len(patterns))
	for i, p := range patterns {
		tokens, err := lexRegex(p.Regex)
		if err != nil {
			return nil, nil, err
		}
		tokenized[i] = tokens
		addPatternIntervals(rm, tokens)
	}

	rm.AssignClasses()

	// pass 2: Thompson-construct each pattern over the finished alphabet and
	// join them under a fresh start state.
	nfa := automaton.NewNFA()
	counter := 0

	start := counter
	counter++
	nfa.AddState(start)
	nfa.SetStart(start)

	for i, p := range patterns {
		f, err := thompson(p.Regex, tokenized[i], rm, nfa, &counter)
		if err != nil {
			return nil, nil, err
		}
		nfa.SetAccept(f.end, p.Name, i)
		nfa.AddEdge(start, automaton.Epsilon, f.start)
	}

	return nfa, rm, nil
}
