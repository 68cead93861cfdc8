package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/minnow/internal/util"
)

// NFAState is the information attached to one NFA state.
type NFAState struct {
	// Accepting is whether reaching this state accepts the input.
	Accepting bool

	// Label is the name of the pattern this state accepts for. It is only
	// meaningful when Accepting is true.
	Label string

	// Priority is the declaration-order priority of the accepted pattern;
	// lower wins. Only meaningful when Accepting is true.
	Priority int
}

// NFA is a non-deterministic finite automaton over class-id symbols with
// ε-transitions. State ids come from whatever builder constructs the NFA; the
// ids need not be contiguous, which lets independently-built fragments be
// joined without renumbering.
type NFA struct {
	states map[int]NFAState
	edges  map[TransKey]util.IntSet
	start  int
}

// NewNFA creates an empty NFA. The start state must be set with SetStart
// after its state is added.
func NewNFA() *NFA {
	return &NFA{
		states: map[int]NFAState{},
		edges:  map[TransKey]util.IntSet{},
	}
}

// AddState adds a non-accepting state with the given id. If the state already
// exists, no effect occurs.
func (nfa *NFA) AddState(id int) {
	if _, ok := nfa.states[id]; ok {
		return
	}
	nfa.states[id] = NFAState{}
}

// SetAccept marks a state as accepting with the given label and priority.
// Panics if the state does not exist.
func (nfa *NFA) SetAccept(id int, label string, priority int) {
	st, ok := nfa.states[id]
	if !ok {
		panic(fmt.Sprintf("set accept on non-existing state: %d", id))
	}
	st.Accepting = true
	st.Label = label
	st.Priority = priority
	nfa.states[id] = st
}

// State returns the info for the given state id. The second return is false
// if no such state exists.
func (nfa *NFA) State(id int) (NFAState, bool) {
	st, ok := nfa.states[id]
	return st, ok
}

// SetStart designates the automaton's start state. Panics if the state does
// not exist.
func (nfa *NFA) SetStart(id int) {
	if _, ok := nfa.states[id]; !ok {
		panic(fmt.Sprintf("set start to non-existing state: %d", id))
	}
	nfa.start = id
}

// Start returns the start state id.
func (nfa *NFA) Start() int {
	return nfa.start
}

// Len returns the number of states.
func (nfa *NFA) Len() int {
	return len(nfa.states)
}

// States returns all state ids in ascending order.
func (nfa *NFA) States() []int {
	return util.OrderedIntKeys(nfa.states)
}

// AddEdge adds a transition from one state to each of the given destinations
// on the given symbol, which is either a class id or Epsilon. Panics if any
// involved state does not exist.
func (nfa *NFA) AddEdge(from int, symbol int, to ...int) {
	if _, ok := nfa.states[from]; !ok {
		panic(fmt.Sprintf("add edge from non-existent state %d", from))
	}

	k := TransKey{State: from, Symbol: symbol}
	dests, ok := nfa.edges[k]
	if !ok {
		dests = util.NewIntSet()
		nfa.edges[k] = dests
	}

	for _, dest := range to {
		if _, ok := nfa.states[dest]; !ok {
			panic(fmt.Sprintf("add edge to non-existent state %d", dest))
		}
		dests.Add(dest)
	}
}

// Move returns the set of states reachable from some state in X with exactly
// one transition on symbol. The purple dragon book calls this MOVE(T, a).
func (nfa *NFA) Move(X util.IntSet, symbol int) util.IntSet {
	moves := util.NewIntSet()

	for _, s := range X.OrderedElements() {
		dests, ok := nfa.edges[TransKey{State: s, Symbol: symbol}]
		if !ok {
			continue
		}
		moves.AddAll(dests)
	}

	return moves
}

// EpsilonClosure gives the set of states reachable from any state in X using
// zero or more ε-moves.
func (nfa *NFA) EpsilonClosure(X util.IntSet) util.IntSet {
	closure := util.NewIntSet()

	checking := util.Stack[int]{}
	for _, s := range X.OrderedElements() {
		checking.Push(s)
	}

	for !checking.Empty() {
		s := checking.Pop()

		if closure.Has(s) {
			// already checked. skip.
			continue
		}
		closure.Add(s)

		epsMoves, ok := nfa.edges[TransKey{State: s, Symbol: Epsilon}]
		if !ok {
			continue
		}
		for _, dest := range epsMoves.OrderedElements() {
			checking.Push(dest)
		}
	}

	return closure
}

// InputClasses returns the sorted set of all non-ε symbols appearing on some
// edge of the NFA.
func (nfa *NFA) InputClasses() []int {
	seen := map[int]bool{}
	for k := range nfa.edges {
		if k.Symbol != Epsilon {
			seen[k.Symbol] = true
		}
	}
	return util.OrderedIntKeys(seen)
}

// classesOut returns the sorted non-ε symbols with an outgoing edge from some
// state in X.
func (nfa *NFA) classesOut(X util.IntSet) []int {
	seen := map[int]bool{}
	for k := range nfa.edges {
		if k.Symbol != Epsilon && X.Has(k.State) {
			seen[k.Symbol] = true
		}
	}
	return util.OrderedIntKeys(seen)
}

// Merge copies all states and edges of other into the NFA. State id spaces
// must already be disjoint; the caller guarantees this by drawing all ids
// from one counter. The start state is unaffected.
func (nfa *NFA) Merge(other *NFA) {
	for id, st := range other.states {
		if _, ok := nfa.states[id]; ok {
			panic(fmt.Sprintf("merge would overwrite state %d", id))
		}
		nfa.states[id] = st
	}
	for k, dests := range other.edges {
		existing, ok := nfa.edges[k]
		if !ok {
			existing = util.NewIntSet()
			nfa.edges[k] = existing
		}
		existing.AddAll(dests)
	}
}

// Accepting returns the ids of all accepting states in ascending order.
func (nfa *NFA) Accepting() []int {
	var ids []int
	for id, st := range nfa.states {
		if st.Accepting {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (nfa *NFA) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<START: %d, STATES:", nfa.start))

	ordered := nfa.States()
	for i, id := range ordered {
		st := nfa.states[id]
		sb.WriteString("\n\t")
		if st.Accepting {
			sb.WriteString(fmt.Sprintf("((%d %s/%d))", id, st.Label, st.Priority))
		} else {
			sb.WriteString(fmt.Sprintf("(%d)", id))
		}

		var moves []string
		for k, dests := range nfa.edges {
			if k.State != id {
				continue
			}
			for _, d := range dests.OrderedElements() {
				sym := "ε"
				if k.Symbol != Epsilon {
					sym = fmt.Sprintf("%d", k.Symbol)
				}
				moves = append(moves, fmt.Sprintf("=(%s)=> %d", sym, d))
			}
		}
		sort.Strings(moves)
		if len(moves) > 0 {
			sb.WriteString(" [")
			sb.WriteString(strings.Join(moves, ", "))
			sb.WriteRune(']')
		}

		if i+1 < len(ordered) {
			sb.WriteRune(',')
		} else {
			sb.WriteRune('\n')
		}
	}

	sb.WriteRune('>')
	return sb.String()
}

// DOT returns a graphviz description of the NFA, handy for debugging grammars
// and patterns without any rendering dependency.
func (nfa *NFA) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph nfa {\n\trankdir=LR;\n")

	for _, id := range nfa.States() {
		st := nfa.states[id]
		shape := "circle"
		if st.Accepting {
			shape = "doublecircle"
		}
		sb.WriteString(fmt.Sprintf("\t%d [shape=%s];\n", id, shape))
	}

	type edgeOut struct {
		from, to int
		sym      string
	}
	var outs []edgeOut
	for k, dests := range nfa.edges {
		sym := "ε"
		if k.Symbol != Epsilon {
			sym = fmt.Sprintf("c%d", k.Symbol)
		}
		for _, d := range dests.OrderedElements() {
			outs = append(outs, edgeOut{from: k.State, to: d, sym: sym})
		}
	}
	sort.Slice(outs, func(i, j int) bool {
		if outs[i].from != outs[j].from {
			return outs[i].from < outs[j].from
		}
		if outs[i].to != outs[j].to {
			return outs[i].to < outs[j].to
		}
		return outs[i].sym < outs[j].sym
	})
	for _, e := range outs {
		sb.WriteString(fmt.Sprintf("\t%d -> %d [label=%q];\n", e.from, e.to, e.sym))
	}

	sb.WriteString("}\n")
	return sb.String()
}
