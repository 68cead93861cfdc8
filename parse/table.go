package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rosed"
)

// tableProd is one numbered production of the (augmented) grammar, as needed
// to replay reduce actions.
type tableProd struct {
	lhs string
	rhs grammar.Production
}

func (tp tableProd) String() string {
	return fmt.Sprintf("%s -> %s", tp.lhs, tp.rhs.String())
}

// LRTable is an action/goto table. Shift and reduce actions are keyed by
// (state, terminal) with the end-of-input sentinel allowed as a terminal;
// gotos are keyed by (state, non-terminal).
type LRTable struct {
	initial  int
	states   int
	actions  []map[string]LRAction
	gotos    []map[string]int
	prods    []tableProd
	terms    []string
	nonterms []string
}

// Initial returns the initial state of the table.
func (t *LRTable) Initial() int {
	return t.initial
}

// NumStates returns how many states the table has.
func (t *LRTable) NumStates() int {
	return t.states
}

// Action gets the action for state i on terminal a. If no action is defined,
// an action of type LRError is returned.
func (t *LRTable) Action(i int, a string) LRAction {
	if i < 0 || i >= len(t.actions) {
		return LRAction{Type: LRError}
	}
	act, ok := t.actions[i][a]
	if !ok {
		return LRAction{Type: LRError}
	}
	return act
}

// Goto maps a state and a non-terminal to the next state. Returns an error
// for an empty cell.
func (t *LRTable) Goto(i int, A string) (int, error) {
	if i >= 0 && i < len(t.gotos) {
		if next, ok := t.gotos[i][A]; ok {
			return next, nil
		}
	}
	return 0, fmt.Errorf("GOTO[%d, %q] is an error entry", i, A)
}

// Production returns the numbered production's left-hand side and right-hand
// side. Panics on an out-of-range id.
func (t *LRTable) Production(id int) (lhs string, rhs grammar.Production) {
	if id < 0 || id >= len(t.prods) {
		panic(fmt.Sprintf("production id out of range: %d", id))
	}
	p := t.prods[id]
	return p.lhs, p.rhs
}

// Expected returns the sorted terminals with a non-error action in state i.
func (t *LRTable) Expected(i int) []string {
	if i < 0 || i >= len(t.actions) {
		return nil
	}
	return util.OrderedKeys(t.actions[i])
}

// String renders the table with one row per state and one column per symbol.
// Two LRTables that produce the same String() output drive identical parses.
func (t *LRTable) String() string {
	allTerms := make([]string, len(t.terms))
	copy(allTerms, t.terms)
	allTerms = append(allTerms, grammar.EndOfInput)

	data := [][]string{}

	headers := []string{"S", "|"}
	for _, term := range allTerms {
		headers = append(headers, "A:"+term)
	}
	headers = append(headers, "|")
	for _, nt := range t.nonterms {
		headers = append(headers, "G:"+nt)
	}
	data = append(data, headers)

	for i := 0; i < t.states; i++ {
		row := []string{fmt.Sprintf("%d", i), "|"}

		for _, term := range allTerms {
			act := t.Action(i, term)

			cell := ""
			switch act.Type {
			case LRAccept:
				cell = "acc"
			case LRReduce:
				cell = fmt.Sprintf("r%d (%s)", act.Production, t.prods[act.Production].String())
			case LRShift:
				cell = fmt.Sprintf("s%d", act.State)
			case LRError:
				// empty cell
			}
			row = append(row, cell)
		}

		row = append(row, "|")

		for _, nt := range t.nonterms {
			cell := ""
			if gotoState, err := t.Goto(i, nt); err == nil {
				cell = fmt.Sprintf("%d", gotoState)
			}
			row = append(row, cell)
		}

		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 120, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// ConstructLR1Table builds the canonical LR(1) action/goto table for g.
//
// Conflicts do not abort construction: each cell keeps a default choice
// (shift over reduce, lowest production id between reduces) and every
// conflict is returned as a GrammarConflictError for the caller to judge. The
// returned error is non-nil only for invalid grammar input.
func ConstructLR1Table(g grammar.Grammar) (*LRTable, []*GrammarConflictError, error) {
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	c := newCollection(g)
	table, conflicts := tableFromCollection(c)
	return table, conflicts, nil
}

// ConstructLALR1Table builds the LALR(1) action/goto table for g by merging
// the LR(1) collection's same-core item sets.
//
// Conflicts are reported the same way as in ConstructLR1Table. If the merge
// introduced a reduce/reduce conflict that the canonical LR(1) table did not
// have, the returned error is a LalrInadequateError; the table is still
// returned with the default resolutions applied.
func ConstructLALR1Table(g grammar.Grammar) (*LRTable, []*GrammarConflictError, error) {
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	c := newCollection(g)
	_, lr1Conflicts := tableFromCollection(c)

	merged := c.mergeLALR()
	table, conflicts := tableFromCollection(merged)

	// a reduce/reduce conflict that LR(1) did not have means the grammar is
	// LR(1) but not LALR(1)
	if err := findNewReduceConflicts(merged, lr1Conflicts, conflicts); err != nil {
		return table, conflicts, err
	}

	return table, conflicts, nil
}

// findNewReduceConflicts checks the merged collection's reduce/reduce
// conflicts against the canonical ones and reports the first that merging
// introduced.
func findNewReduceConflicts(merged *collection, lr1Conflicts, lalrConflicts []*GrammarConflictError) error {
	// index LR(1) reduce/reduce conflicts by lookahead + production pair
	had := map[string]bool{}
	for _, conf := range lr1Conflicts {
		if !isReduceReduceConflict(conf.Choices) {
			continue
		}
		had[reduceConflictKey(conf)] = true
	}

	for _, conf := range lalrConflicts {
		if !isReduceReduceConflict(conf.Choices) {
			continue
		}
		if !had[reduceConflictKey(conf)] {
			var itemStrs []string
			for _, item := range grammar.OrderedItems(merged.states[conf.State]) {
				itemStrs = append(itemStrs, item.String())
			}
			return &LalrInadequateError{
				State:     conf.State,
				Lookahead: conf.Lookahead,
				Items:     itemStrs,
			}
		}
	}

	return nil
}

func reduceConflictKey(conf *GrammarConflictError) string {
	prods := []string{}
	for _, choice := range conf.Choices {
		if choice.Type == LRReduce {
			prods = append(prods, fmt.Sprintf("%d", choice.Production))
		}
	}
	sort.Strings(prods)
	return conf.Lookahead + "|" + strings.Join(prods, ",")
}

// tableFromCollection derives the action/goto table from a canonical (or
// merged) collection.
func tableFromCollection(c *collection) (*LRTable, []*GrammarConflictError) {
	table := &LRTable{
		initial:  0,
		states:   len(c.states),
		actions:  make([]map[string]LRAction, len(c.states)),
		gotos:    make([]map[string]int, len(c.states)),
		terms:    c.gPrime.Terminals(),
		nonterms: []string{},
	}

	// non-terminals of the original grammar, in declaration order, without
	// the augmented start
	for _, nt := range c.gPrime.NonTerminals() {
		if nt != c.gPrime.StartSymbol() {
			table.nonterms = append(table.nonterms, nt)
		}
	}

	// number every production of the augmented grammar in declaration order
	prodIDs := map[string]int{}
	for _, r := range c.gPrime.Rules() {
		for _, prod := range r.Productions {
			id := len(table.prods)
			table.prods = append(table.prods, tableProd{lhs: r.NonTerminal, rhs: prod.Copy()})
			prodIDs[r.NonTerminal+" -> "+prod.String()] = id
		}
	}

	var conflicts []*GrammarConflictError

	// setAction fills one cell, applying the default conflict resolution and
	// recording the conflict if the cell was already taken differently.
	setAction := func(state int, symbol string, act LRAction) {
		if table.actions[state] == nil {
			table.actions[state] = map[string]LRAction{}
		}

		existing, taken := table.actions[state][symbol]
		if !taken {
			table.actions[state][symbol] = act
			return
		}
		if existing.Equal(act) {
			return
		}

		chosen := resolveConflict(existing, act)
		table.actions[state][symbol] = chosen

		other := existing
		if chosen.Equal(existing) {
			other = act
		}
		conflicts = append(conflicts, &GrammarConflictError{
			State:     state,
			Lookahead: symbol,
			Choices:   []LRAction{chosen, other},
		})
	}

	for i, I := range c.states {
		for _, item := range grammar.OrderedItems(I) {
			if !item.Complete() {
				// [A -> α.aβ, L] with terminal a: shift GOTO(I, a)
				a := item.NextSymbol()
				if grammar.IsTerminal(a) {
					next, ok := c.trans[i][a]
					if !ok {
						continue
					}
					setAction(i, a, LRAction{Type: LRShift, State: next})
				}
				continue
			}

			if item.NonTerminal == c.gPrime.StartSymbol() {
				// [S' -> S., {$}]: accept
				prodID := prodIDs[item.NonTerminal+" -> "+item.Production().String()]
				setAction(i, grammar.EndOfInput, LRAction{Type: LRAccept, Production: prodID})
				continue
			}

			// [A -> α., L]: reduce on every lookahead
			prodID, ok := prodIDs[item.NonTerminal+" -> "+item.Production().String()]
			if !ok {
				panic(fmt.Sprintf("item %q reduces by unnumbered production", item.String()))
			}
			for _, b := range item.Lookaheads.OrderedElements() {
				setAction(i, b, LRAction{Type: LRReduce, Production: prodID})
			}
		}

		// gotos on non-terminals come straight from the transition function
		for _, sym := range c.orderedTransSymbols(i) {
			if grammar.IsNonTerminal(sym) {
				if table.gotos[i] == nil {
					table.gotos[i] = map[string]int{}
				}
				table.gotos[i][sym] = c.trans[i][sym]
			}
		}
	}

	return table, conflicts
}

// resolveConflict applies the default resolution between two conflicting
// actions: shift beats reduce, accept beats everything, and between two
// reduces the lower production id wins.
func resolveConflict(act1, act2 LRAction) LRAction {
	if act1.Type == LRAccept {
		return act1
	}
	if act2.Type == LRAccept {
		return act2
	}
	if act1.Type == LRShift && act2.Type == LRReduce {
		return act1
	}
	if act2.Type == LRShift && act1.Type == LRReduce {
		return act2
	}
	if act1.Type == LRReduce && act2.Type == LRReduce {
		if act1.Production <= act2.Production {
			return act1
		}
		return act2
	}
	return act1
}

// MarshalBinary converts the table into a slice of bytes decodable with
// UnmarshalBinary. Always returns a nil error.
func (t *LRTable) MarshalBinary() ([]byte, error) {
	data := rezi.EncInt(t.initial)
	data = append(data, rezi.EncInt(t.states)...)

	data = append(data, encStringSlice(t.terms)...)
	data = append(data, encStringSlice(t.nonterms)...)

	data = append(data, rezi.EncInt(len(t.prods))...)
	for _, p := range t.prods {
		data = append(data, rezi.EncString(p.lhs)...)
		data = append(data, encStringSlice(p.rhs)...)
	}

	// action cells as (state, symbol, type, state/prod), sorted
	type actionCell struct {
		state  int
		symbol string
		act    LRAction
	}
	var cells []actionCell
	for i := range t.actions {
		for sym, act := range t.actions[i] {
			cells = append(cells, actionCell{state: i, symbol: sym, act: act})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].state != cells[j].state {
			return cells[i].state < cells[j].state
		}
		return cells[i].symbol < cells[j].symbol
	})
	data = append(data, rezi.EncInt(len(cells))...)
	for _, cell := range cells {
		data = append(data, rezi.EncInt(cell.state)...)
		data = append(data, rezi.EncString(cell.symbol)...)
		data = append(data, rezi.EncInt(int(cell.act.Type))...)
		data = append(data, rezi.EncInt(cell.act.State)...)
		data = append(data, rezi.EncInt(cell.act.Production)...)
	}

	// goto cells as (state, symbol, target), sorted
	type gotoCell struct {
		state  int
		symbol string
		target int
	}
	var gcells []gotoCell
	for i := range t.gotos {
		for sym, target := range t.gotos[i] {
			gcells = append(gcells, gotoCell{state: i, symbol: sym, target: target})
		}
	}
	sort.Slice(gcells, func(i, j int) bool {
		if gcells[i].state != gcells[j].state {
			return gcells[i].state < gcells[j].state
		}
		return gcells[i].symbol < gcells[j].symbol
	})
	data = append(data, rezi.EncInt(len(gcells))...)
	for _, cell := range gcells {
		data = append(data, rezi.EncInt(cell.state)...)
		data = append(data, rezi.EncString(cell.symbol)...)
		data = append(data, rezi.EncInt(cell.target)...)
	}

	return data, nil
}

// UnmarshalBinary replaces the contents of t with the table encoded in data.
func (t *LRTable) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	t.initial, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("initial state: %w", err)
	}
	data = data[n:]

	t.states, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("state count: %w", err)
	}
	data = data[n:]

	t.terms, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("terminals: %w", err)
	}
	data = data[n:]

	t.nonterms, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("non-terminals: %w", err)
	}
	data = data[n:]

	var prodCount int
	prodCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("production count: %w", err)
	}
	data = data[n:]

	t.prods = nil
	for i := 0; i < prodCount; i++ {
		var p tableProd
		p.lhs, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("production %d lhs: %w", i, err)
		}
		data = data[n:]

		var rhs []string
		rhs, n, err = decStringSlice(data)
		if err != nil {
			return fmt.Errorf("production %d rhs: %w", i, err)
		}
		data = data[n:]
		p.rhs = grammar.Production(rhs)

		t.prods = append(t.prods, p)
	}

	var cellCount int
	cellCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("action cell count: %w", err)
	}
	data = data[n:]

	t.actions = make([]map[string]LRAction, t.states)
	for i := 0; i < cellCount; i++ {
		var state int
		var symbol string
		var act LRAction

		state, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("action cell %d state: %w", i, err)
		}
		data = data[n:]

		symbol, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("action cell %d symbol: %w", i, err)
		}
		data = data[n:]

		var actType int
		actType, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("action cell %d type: %w", i, err)
		}
		data = data[n:]
		act.Type = LRActionType(actType)

		act.State, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("action cell %d target: %w", i, err)
		}
		data = data[n:]

		act.Production, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("action cell %d production: %w", i, err)
		}
		data = data[n:]

		if state < 0 || state >= t.states {
			return fmt.Errorf("action cell %d has out-of-range state %d", i, state)
		}
		if t.actions[state] == nil {
			t.actions[state] = map[string]LRAction{}
		}
		t.actions[state][symbol] = act
	}

	var gotoCount int
	gotoCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("goto cell count: %w", err)
	}
	data = data[n:]

	t.gotos = make([]map[string]int, t.states)
	for i := 0; i < gotoCount; i++ {
		var state, target int
		var symbol string

		state, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("goto cell %d state: %w", i, err)
		}
		data = data[n:]

		symbol, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("goto cell %d symbol: %w", i, err)
		}
		data = data[n:]

		target, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("goto cell %d target: %w", i, err)
		}
		data = data[n:]

		if state < 0 || state >= t.states {
			return fmt.Errorf("goto cell %d has out-of-range state %d", i, state)
		}
		if t.gotos[state] == nil {
			t.gotos[state] = map[string]int{}
		}
		t.gotos[state][symbol] = target
	}

	return nil
}

func encStringSlice(sl []string) []byte {
	data := rezi.EncInt(len(sl))
	for _, s := range sl {
		data = append(data, rezi.EncString(s)...)
	}
	return data
}

func decStringSlice(data []byte) ([]string, int, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	read := n
	data = data[n:]

	sl := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var s string
		s, n, err = rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		read += n
		data = data[n:]
		sl = append(sl, s)
	}

	return sl, read, nil
}
