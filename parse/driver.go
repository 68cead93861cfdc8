package parse

import (
	"fmt"
	"strings"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/minnow/lex"
)

// LRParser drives an action/goto table over a token stream.
//
// This is an implementation of the standard LR-parsing loop (algorithm 4.44
// in the purple dragon book): shift pushes a state and advances the input,
// reduce pops one state per right-hand-side symbol and pushes the goto of the
// exposed state, accept returns the finished parse tree.
type LRParser struct {
	table *LRTable
	trace func(s string)
}

// NewLRParser creates a parser around a constructed table.
func NewLRParser(table *LRTable) *LRParser {
	return &LRParser{table: table}
}

// RegisterTraceListener sets a callback receiving a line-by-line commentary
// of parser decisions, for debugging grammars. Pass nil to disable.
func (lr *LRParser) RegisterTraceListener(listener func(s string)) {
	lr.trace = listener
}

// Table returns the parser's table.
func (lr *LRParser) Table() *LRTable {
	return lr.table
}

func (lr *LRParser) notifyTrace(fmtStr string, args ...interface{}) {
	if lr.trace != nil {
		lr.trace(fmt.Sprintf(fmtStr, args...))
	}
}

// symbolOf maps a token to the terminal name the table is keyed by.
func symbolOf(tok lex.Token) string {
	if tok.Class == lex.TokenEndOfText {
		return grammar.EndOfInput
	}
	return tok.Class.ID()
}

// Parse parses the token stream and returns the parse tree rooted at the
// start symbol. On an empty action cell it fails with UnexpectedTokenError
// carrying the set of terminals that would have been accepted.
func (lr *LRParser) Parse(stream lex.TokenStream) (ParseTree, error) {
	stateStack := util.Stack[int]{Of: []int{lr.table.Initial()}}

	// these two build the parse tree as reductions happen
	tokenBuffer := util.Stack[lex.Token]{}
	subTreeRoots := util.Stack[*ParseTree]{}

	// let a be the first symbol of w$
	a := stream.Next()
	lr.notifyTrace("read token: %s", a.String())

	for {
		s := stateStack.Peek()

		action := lr.table.Action(s, symbolOf(a))
		lr.notifyTrace("state %d on %q: %s", s, symbolOf(a), action.String())

		switch action.Type {
		case LRShift:
			tokenBuffer.Push(a)
			stateStack.Push(action.State)

			a = stream.Next()
			lr.notifyTrace("read token: %s", a.String())

		case LRReduce:
			A, beta := lr.table.Production(action.Production)

			// build the node for A from the reduced children, right to left
			// so they pop in the correct order
			node := &ParseTree{Value: A, Children: make([]*ParseTree, 0, len(beta))}
			if !beta.IsEpsilon() {
				for i := len(beta) - 1; i >= 0; i-- {
					sym := beta[i]
					if grammar.IsTerminal(sym) {
						tok := tokenBuffer.Pop()
						subNode := &ParseTree{Terminal: true, Value: sym, Source: tok}
						node.Children = append([]*ParseTree{subNode}, node.Children...)
					} else {
						subNode := subTreeRoots.Pop()
						node.Children = append([]*ParseTree{subNode}, node.Children...)
					}
				}

				// pop |β| states off the stack
				for i := 0; i < len(beta); i++ {
					stateStack.Pop()
				}
			}
			subTreeRoots.Push(node)

			// push GOTO[t, A] where t is now exposed at the top
			t := stateStack.Peek()
			toPush, err := lr.table.Goto(t, A)
			if err != nil {
				// a filled reduce cell always has a goto for its LHS; this
				// is a broken table, not bad input
				return ParseTree{}, fmt.Errorf("no GOTO from state %d on %q after reduce: table is inconsistent", t, A)
			}
			stateStack.Push(toPush)
			lr.notifyTrace("reduced %s -> %s, goto %d", A, beta.String(), toPush)

		case LRAccept:
			lr.notifyTrace("accept")
			pt := subTreeRoots.Pop()
			return *pt, nil

		case LRError:
			expected := lr.table.Expected(s)
			return ParseTree{}, &UnexpectedTokenError{Token: a, Expected: expected}
		}
	}
}

// TableString returns the parser's table rendered as text.
func (lr *LRParser) TableString() string {
	return lr.table.String()
}

// DescribeConflicts formats a conflict list as a single human-readable
// report, one conflict per line.
func DescribeConflicts(conflicts []*GrammarConflictError) string {
	if len(conflicts) == 0 {
		return "no conflicts"
	}
	lines := make([]string, len(conflicts))
	for i := range conflicts {
		lines[i] = conflicts[i].Error()
	}
	return strings.Join(lines, "\n")
}
