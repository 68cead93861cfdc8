package parse

import (
	"fmt"
	"strings"

	"github.com/dekarrin/minnow/internal/util"
	"github.com/dekarrin/minnow/lex"
)

// GrammarConflictError records one shift/reduce or reduce/reduce conflict
// found while filling the action table. The table construction does not stop
// on conflicts; it applies a default resolution (shift over reduce, lower
// production id between reduces), records the conflict, and leaves it to the
// caller to decide whether that is fatal.
type GrammarConflictError struct {
	// State is the table state the conflict occurred in.
	State int

	// Lookahead is the terminal the conflicting actions are keyed on.
	Lookahead string

	// Choices are the conflicting actions. The first one is the one the
	// table kept.
	Choices []LRAction
}

func (e *GrammarConflictError) Error() string {
	choiceStrs := make([]string, len(e.Choices))
	for i := range e.Choices {
		choiceStrs[i] = e.Choices[i].String()
	}

	kind := "conflict"
	if isShiftReduceConflict(e.Choices) {
		kind = "shift/reduce conflict"
	} else if isReduceReduceConflict(e.Choices) {
		kind = "reduce/reduce conflict"
	}

	return fmt.Sprintf("%s in state %d on %q: %s", kind, e.State, e.Lookahead, strings.Join(choiceStrs, " vs "))
}

func isShiftReduceConflict(choices []LRAction) bool {
	var haveShift, haveReduce bool
	for _, c := range choices {
		switch c.Type {
		case LRShift:
			haveShift = true
		case LRReduce:
			haveReduce = true
		}
	}
	return haveShift && haveReduce
}

func isReduceReduceConflict(choices []LRAction) bool {
	reduces := 0
	for _, c := range choices {
		if c.Type == LRReduce {
			reduces++
		}
	}
	return reduces >= 2
}

// LalrInadequateError is returned when LALR core-merging introduces a
// reduce/reduce conflict that was absent in the canonical LR(1) collection.
// The grammar is LR(1) but not LALR(1).
type LalrInadequateError struct {
	// State is the merged state the new conflict appeared in.
	State int

	// Lookahead is the terminal the conflicting reduces are keyed on.
	Lookahead string

	// Items are the item strings of the merged state.
	Items []string
}

func (e *LalrInadequateError) Error() string {
	return fmt.Sprintf("grammar is not LALR(1): merging cores introduced a reduce/reduce conflict in state %d on %q", e.State, e.Lookahead)
}

// UnexpectedTokenError is produced by a parser driver when the action table
// has no entry for the current state and lookahead.
type UnexpectedTokenError struct {
	// Token is the offending token.
	Token lex.Token

	// Expected is the sorted list of terminals that would have been
	// accepted in the state.
	Expected []string
}

func (e *UnexpectedTokenError) Error() string {
	human := e.Token.Class.Human()
	if e.Token.Class != lex.TokenEndOfText {
		human = fmt.Sprintf("%s %q", human, e.Token.Lexeme)
	}

	if len(e.Expected) == 0 {
		return fmt.Sprintf("line %d, char %d: unexpected %s", e.Token.Line, e.Token.LinePos, human)
	}

	expected := make([]string, len(e.Expected))
	copy(expected, e.Expected)
	return fmt.Sprintf("line %d, char %d: unexpected %s; expected %s",
		e.Token.Line, e.Token.LinePos, human, util.MakeTextList(expected, "or"))
}
