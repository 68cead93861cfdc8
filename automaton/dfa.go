package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/minnow/rangemap"
	"github.com/dekarrin/rezi"
)

// DFAState is the information attached to one DFA state.
type DFAState struct {
	// Accepting is whether reaching this state accepts the input.
	Accepting bool

	// Accepts is the set of labels the state accepts for, ordered by
	// priority (lowest value first). In single-label mode it has at most one
	// entry; multi-label construction keeps the full set so minimization can
	// resolve priority after merging.
	Accepts []Accept
}

// Label returns the winning label of the state, which is the one with the
// lowest priority value. Returns "" for non-accepting states.
func (ds DFAState) Label() string {
	if !ds.Accepting || len(ds.Accepts) == 0 {
		return ""
	}
	return ds.Accepts[0].Label
}

// DFA is a deterministic finite automaton over class-id symbols. State ids
// are dense, starting from zero in construction discovery order. A DFA owns
// the range map that defines its alphabet; Step consults it to classify raw
// code points.
type DFA struct {
	states  []DFAState
	edges   map[TransKey]int
	start   int
	classes *rangemap.RangeMap
}

// NewDFA creates an empty DFA over the alphabet defined by classes. The range
// map may be nil for tables that will only ever be stepped by class id.
func NewDFA(classes *rangemap.RangeMap) *DFA {
	return &DFA{
		edges:   map[TransKey]int{},
		classes: classes,
	}
}

// AddState appends a new state and returns its id.
func (dfa *DFA) AddState(st DFAState) int {
	dfa.states = append(dfa.states, st)
	return len(dfa.states) - 1
}

// AddTransition adds a transition between two existing states on the given
// class id. Panics if either state does not exist or the transition would be
// non-deterministic.
func (dfa *DFA) AddTransition(from, symbol, to int) {
	if from < 0 || from >= len(dfa.states) {
		panic(fmt.Sprintf("add transition from non-existent state %d", from))
	}
	if to < 0 || to >= len(dfa.states) {
		panic(fmt.Sprintf("add transition to non-existent state %d", to))
	}

	k := TransKey{State: from, Symbol: symbol}
	if existing, ok := dfa.edges[k]; ok && existing != to {
		panic(fmt.Sprintf("conflicting transition %s -> %d (have %d)", k, to, existing))
	}
	dfa.edges[k] = to
}

// SetStart designates the start state. Panics if the state does not exist.
func (dfa *DFA) SetStart(id int) {
	if id < 0 || id >= len(dfa.states) {
		panic(fmt.Sprintf("set start to non-existing state: %d", id))
	}
	dfa.start = id
}

// StartState returns the id of the start state.
func (dfa *DFA) StartState() int {
	return dfa.start
}

// Len returns the number of states.
func (dfa *DFA) Len() int {
	return len(dfa.states)
}

// State returns the info for the given state id. The second return is false
// if no such state exists.
func (dfa *DFA) State(id int) (DFAState, bool) {
	if id < 0 || id >= len(dfa.states) {
		return DFAState{}, false
	}
	return dfa.states[id], true
}

// RangeMap returns the range map defining the DFA's alphabet.
func (dfa *DFA) RangeMap() *rangemap.RangeMap {
	return dfa.classes
}

// Step advances the automaton from state on the raw code point cp. The second
// return is false if cp is outside the alphabet or the state has no
// transition for its class — a rejection.
func (dfa *DFA) Step(state int, cp rune) (int, bool) {
	if dfa.classes == nil {
		return 0, false
	}
	class, ok := dfa.classes.Search(cp)
	if !ok {
		return 0, false
	}
	return dfa.StepClass(state, class)
}

// StepClass advances the automaton from state on an already-classified input.
func (dfa *DFA) StepClass(state int, class int) (int, bool) {
	next, ok := dfa.edges[TransKey{State: state, Symbol: class}]
	if !ok {
		return 0, false
	}
	return next, true
}

// IsAccepting reports whether the given state accepts, and for which label.
// The label is the state's highest-priority one.
func (dfa *DFA) IsAccepting(state int) (bool, string) {
	if state < 0 || state >= len(dfa.states) {
		return false, ""
	}
	st := dfa.states[state]
	return st.Accepting, st.Label()
}

// InputClasses returns the sorted set of class ids used by some transition.
func (dfa *DFA) InputClasses() []int {
	seen := map[int]bool{}
	for k := range dfa.edges {
		seen[k.Symbol] = true
	}
	return util.OrderedIntKeys(seen)
}

// transitionsFrom returns the sorted (symbol, dest) pairs out of a state.
func (dfa *DFA) transitionsFrom(state int) [][2]int {
	var out [][2]int
	for k, dest := range dfa.edges {
		if k.State == state {
			out = append(out, [2]int{k.Symbol, dest})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func (dfa *DFA) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<START: %d, STATES:", dfa.start))

	for id := range dfa.states {
		st := dfa.states[id]
		sb.WriteString("\n\t")
		if st.Accepting {
			sb.WriteString(fmt.Sprintf("((%d %s))", id, acceptsKey(st.Accepts)))
		} else {
			sb.WriteString(fmt.Sprintf("(%d)", id))
		}

		trans := dfa.transitionsFrom(id)
		if len(trans) > 0 {
			sb.WriteString(" [")
			for i, t := range trans {
				sb.WriteString(fmt.Sprintf("=(%d)=> %d", t[0], t[1]))
				if i+1 < len(trans) {
					sb.WriteString(", ")
				}
			}
			sb.WriteRune(']')
		}

		if id+1 < len(dfa.states) {
			sb.WriteRune(',')
		} else {
			sb.WriteRune('\n')
		}
	}

	sb.WriteRune('>')
	return sb.String()
}

// DOT returns a graphviz description of the DFA.
func (dfa *DFA) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph dfa {\n\trankdir=LR;\n")

	for id := range dfa.states {
		st := dfa.states[id]
		shape := "circle"
		if st.Accepting {
			shape = "doublecircle"
		}
		label := fmt.Sprintf("%d", id)
		if st.Accepting {
			label += "\\n" + st.Label()
		}
		sb.WriteString(fmt.Sprintf("\t%d [shape=%s,label=%q];\n", id, shape, label))
	}

	for id := range dfa.states {
		for _, t := range dfa.transitionsFrom(id) {
			sb.WriteString(fmt.Sprintf("\t%d -> %d [label=\"c%d\"];\n", id, t[1], t[0]))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Determinize runs subset construction on nfa, producing a DFA accepting the
// same language over the same class alphabet. This is an implementation of
// algorithm 3.20 from the purple dragon book, with the subsets explored in
// sorted-symbol order so the output state numbering is a deterministic
// function of the input.
//
// In multi-label mode every accepting DFA state carries the accept set of all
// NFA accept states in its subset; otherwise only the lowest-priority-value
// accept is kept.
func Determinize(nfa *NFA, classes *rangemap.RangeMap, multiLabel bool) *DFA {
	dfa := NewDFA(classes)

	start := nfa.EpsilonClosure(util.IntSetOf([]int{nfa.Start()}))

	subsetIDs := map[string]int{}
	subsets := []util.IntSet{start}
	subsetIDs[start.StringOrdered()] = dfa.AddState(subsetState(nfa, start, multiLabel))

	// worklist of subset ids still needing their moves computed; exploring
	// in FIFO order keeps numbering equal to discovery order.
	worklist := []int{0}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		T := subsets[id]

		for _, a := range nfa.classesOut(T) {
			U := nfa.EpsilonClosure(nfa.Move(T, a))
			if U.Empty() {
				continue
			}

			key := U.StringOrdered()
			uID, ok := subsetIDs[key]
			if !ok {
				uID = dfa.AddState(subsetState(nfa, U, multiLabel))
				subsetIDs[key] = uID
				subsets = append(subsets, U)
				worklist = append(worklist, uID)
			}

			dfa.AddTransition(id, a, uID)
		}
	}

	dfa.SetStart(0)
	return dfa
}

// subsetState derives the DFA state info of a subset of NFA states.
func subsetState(nfa *NFA, subset util.IntSet, multiLabel bool) DFAState {
	var accepts []Accept
	for _, id := range subset.OrderedElements() {
		st, _ := nfa.State(id)
		if st.Accepting {
			accepts = append(accepts, Accept{Label: st.Label, Priority: st.Priority})
		}
	}

	if len(accepts) == 0 {
		return DFAState{}
	}

	sortAccepts(accepts)
	accepts = dedupeAccepts(accepts)
	if !multiLabel {
		accepts = accepts[:1]
	}

	return DFAState{Accepting: true, Accepts: accepts}
}

// MarshalBinary converts dfa into a slice of bytes that can be decoded with
// UnmarshalBinary. The range map is included so the result is self-contained.
// Always returns a nil error.
func (dfa *DFA) MarshalBinary() ([]byte, error) {
	data := rezi.EncInt(dfa.start)
	data = append(data, rezi.EncInt(len(dfa.states))...)

	for _, st := range dfa.states {
		data = append(data, rezi.EncBool(st.Accepting)...)
		data = append(data, rezi.EncInt(len(st.Accepts))...)
		for _, acc := range st.Accepts {
			data = append(data, rezi.EncString(acc.Label)...)
			data = append(data, rezi.EncInt(acc.Priority)...)
		}
	}

	// transitions, sorted by (state, symbol) for a canonical encoding
	keys := make([]TransKey, 0, len(dfa.edges))
	for k := range dfa.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].State != keys[j].State {
			return keys[i].State < keys[j].State
		}
		return keys[i].Symbol < keys[j].Symbol
	})
	data = append(data, rezi.EncInt(len(keys))...)
	for _, k := range keys {
		data = append(data, rezi.EncInt(k.State)...)
		data = append(data, rezi.EncInt(k.Symbol)...)
		data = append(data, rezi.EncInt(dfa.edges[k])...)
	}

	hasClasses := dfa.classes != nil
	data = append(data, rezi.EncBool(hasClasses)...)
	if hasClasses {
		data = append(data, rezi.EncBinary(dfa.classes)...)
	}

	return data, nil
}

// UnmarshalBinary replaces the contents of dfa with the automaton encoded in
// data.
func (dfa *DFA) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	dfa.states = nil
	dfa.edges = map[TransKey]int{}
	dfa.classes = nil

	dfa.start, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("start state: %w", err)
	}
	data = data[n:]

	var stateCount int
	stateCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("state count: %w", err)
	}
	data = data[n:]

	for i := 0; i < stateCount; i++ {
		var st DFAState

		st.Accepting, n, err = rezi.DecBool(data)
		if err != nil {
			return fmt.Errorf("state %d accepting: %w", i, err)
		}
		data = data[n:]

		var acceptCount int
		acceptCount, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("state %d accept count: %w", i, err)
		}
		data = data[n:]

		for j := 0; j < acceptCount; j++ {
			var acc Accept
			acc.Label, n, err = rezi.DecString(data)
			if err != nil {
				return fmt.Errorf("state %d accept %d label: %w", i, j, err)
			}
			data = data[n:]

			acc.Priority, n, err = rezi.DecInt(data)
			if err != nil {
				return fmt.Errorf("state %d accept %d priority: %w", i, j, err)
			}
			data = data[n:]

			st.Accepts = append(st.Accepts, acc)
		}

		dfa.states = append(dfa.states, st)
	}

	var transCount int
	transCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("transition count: %w", err)
	}
	data = data[n:]

	for i := 0; i < transCount; i++ {
		var from, symbol, to int

		from, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("transition %d from: %w", i, err)
		}
		data = data[n:]

		symbol, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("transition %d symbol: %w", i, err)
		}
		data = data[n:]

		to, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("transition %d to: %w", i, err)
		}
		data = data[n:]

		dfa.edges[TransKey{State: from, Symbol: symbol}] = to
	}

	var hasClasses bool
	hasClasses, n, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("range map flag: %w", err)
	}
	data = data[n:]

	if hasClasses {
		dfa.classes = &rangemap.RangeMap{}
		_, err = rezi.DecBinary(data, dfa.classes)
		if err != nil {
			return fmt.Errorf("range map: %w", err)
		}
	}

	return nil
}
