package parse

import (
	"testing"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/lex"
	"github.com/stretchr/testify/assert"
)

func termClasses(ids ...string) []lex.TokenClass {
	classes := make([]lex.TokenClass, len(ids))
	for i, id := range ids {
		classes[i] = lex.NewTokenClass(id, id)
	}
	return classes
}

// tokensOf turns a space-separated list of terminal names into a token slice
// where each token's class ID is the terminal and the lexeme is the same.
func tokensOf(symbols ...string) []lex.Token {
	tokens := make([]lex.Token, len(symbols))
	for i, sym := range symbols {
		tokens[i] = lex.Token{
			Class:   lex.NewTokenClass(sym, sym),
			Lexeme:  sym,
			Pos:     i,
			Line:    1,
			LinePos: i + 1,
		}
	}
	return tokens
}

// the S -> AA, A -> aA | b grammar: the textbook example whose canonical
// LR(1) collection has 10 states and whose LALR merge has 7.
func aaGrammar(t *testing.T) grammar.Grammar {
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "S", Alternatives: []grammar.Production{{"A", "A"}}},
		{Name: "A", Alternatives: []grammar.Production{{"a", "A"}, {"b"}}},
	}, termClasses("a", "b"), "S")
	if err != nil {
		t.Fatalf("building S->AA grammar: %v", err)
	}
	return g
}

// E -> E+T | T, T -> T*F | F, F -> (E) | i
func exprGrammar(t *testing.T) grammar.Grammar {
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "E", Alternatives: []grammar.Production{{"E", "plus", "T"}, {"T"}}},
		{Name: "T", Alternatives: []grammar.Production{{"T", "star", "F"}, {"F"}}},
		{Name: "F", Alternatives: []grammar.Production{{"lp", "E", "rp"}, {"i"}}},
	}, termClasses("plus", "star", "lp", "rp", "i"), "E")
	if err != nil {
		t.Fatalf("building expression grammar: %v", err)
	}
	return g
}

func Test_ConstructLR1Table_StateCount(t *testing.T) {
	assert := assert.New(t)

	g := aaGrammar(t)

	table, conflicts, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}

	assert.Empty(conflicts)
	assert.Equal(10, table.NumStates())
}

func Test_ConstructLALR1Table_StateCount(t *testing.T) {
	assert := assert.New(t)

	g := aaGrammar(t)

	table, conflicts, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}

	assert.Empty(conflicts)
	assert.Equal(7, table.NumStates())
}

func Test_LRParser_ParseAndReject(t *testing.T) {
	testCases := []struct {
		name   string
		input  []string
		accept bool
	}{
		{name: "two simple As", input: []string{"b", "b"}, accept: true},
		{name: "nested first A", input: []string{"a", "a", "b", "b"}, accept: true},
		{name: "both As nested", input: []string{"a", "b", "a", "b"}, accept: true},
		{name: "only one A", input: []string{"b"}, accept: false},
		{name: "b then dangling a", input: []string{"b", "a"}, accept: false},
		{name: "empty input", input: []string{}, accept: false},
	}

	g := aaGrammar(t)

	lr1Table, _, err := ConstructLR1Table(g)
	if err != nil {
		t.Fatalf("constructing LR(1) table: %v", err)
	}
	lalrTable, _, err := ConstructLALR1Table(g)
	if err != nil {
		t.Fatalf("constructing LALR(1) table: %v", err)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			for _, table := range []*LRTable{lr1Table, lalrTable} {
				parser := NewLRParser(table)
				stream := lex.NewTokenStream(tokensOf(tc.input...))

				tree, err := parser.Parse(stream)

				if tc.accept {
					if assert.NoError(err) {
						assert.Equal("S", tree.Value)
						leaves := tree.Flatten()
						assert.Len(leaves, len(tc.input))
					}
				} else {
					if assert.Error(err) {
						assert.IsType(&UnexpectedTokenError{}, err)
					}
				}
			}
		})
	}
}

func Test_LRParser_ExpectedSet(t *testing.T) {
	assert := assert.New(t)

	g := aaGrammar(t)
	table, _, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}

	parser := NewLRParser(table)
	_, err = parser.Parse(lex.NewTokenStream(tokensOf("b")))

	if !assert.Error(err) {
		return
	}
	unexpErr, ok := err.(*UnexpectedTokenError)
	if assert.True(ok) {
		// after one A the parser needs the second A to start
		assert.Equal([]string{"a", "b"}, unexpErr.Expected)
	}
}

func Test_DanglingElse_ShiftReduceConflict(t *testing.T) {
	assert := assert.New(t)

	// S -> iSeS | iS | a
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "S", Alternatives: []grammar.Production{
			{"i", "S", "e", "S"},
			{"i", "S"},
			{"a"},
		}},
	}, termClasses("i", "e", "a"), "S")
	if !assert.NoError(err) {
		return
	}

	table, conflicts, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}

	// exactly the classic shift/reduce on 'e'
	if !assert.NotEmpty(conflicts) {
		return
	}
	for _, conf := range conflicts {
		assert.Equal("e", conf.Lookahead)
		assert.True(isShiftReduceConflict(conf.Choices))
		assert.Equal(LRShift, conf.Choices[0].Type, "shift is the kept default")
	}

	// the default resolution binds else to the nearest if: i a e a parses
	parser := NewLRParser(table)
	tree, err := parser.Parse(lex.NewTokenStream(tokensOf("i", "a", "e", "a")))
	if assert.NoError(err) {
		assert.Equal("S", tree.Value)
		assert.Len(tree.Children, 4)
	}
}

func Test_ExpressionGrammar_LALRNoNewConflicts(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	lr1Table, lr1Conflicts, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}
	assert.Empty(lr1Conflicts)

	lalrTable, lalrConflicts, err := ConstructLALR1Table(g)
	if !assert.NoError(err, "LALR merging must not introduce conflicts here") {
		return
	}
	assert.Empty(lalrConflicts)

	// i+i*i parses with both tables, with * binding tighter than +
	for _, table := range []*LRTable{lr1Table, lalrTable} {
		parser := NewLRParser(table)
		tree, err := parser.Parse(lex.NewTokenStream(tokensOf("i", "plus", "i", "star", "i")))
		if !assert.NoError(err) {
			continue
		}

		// root is E -> E plus T; the T subtree holds i*i
		assert.Equal("E", tree.Value)
		if assert.Len(tree.Children, 3) {
			assert.Equal("plus", tree.Children[1].Value)
			tSub := tree.Children[2]
			assert.Equal("T", tSub.Value)
			assert.Len(tSub.Children, 3, "T -> T star F")
		}
	}
}

func Test_EpsilonProduction_Reduce(t *testing.T) {
	assert := assert.New(t)

	// S -> A b, A -> a | ε
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "S", Alternatives: []grammar.Production{{"A", "b"}}},
		{Name: "A", Alternatives: []grammar.Production{{"a"}, grammar.Epsilon}},
	}, termClasses("a", "b"), "S")
	if !assert.NoError(err) {
		return
	}

	table, conflicts, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}
	assert.Empty(conflicts)

	parser := NewLRParser(table)

	// ε-reduce path: input "b" makes A from nothing
	tree, err := parser.Parse(lex.NewTokenStream(tokensOf("b")))
	if assert.NoError(err) {
		if assert.Len(tree.Children, 2) {
			assert.Equal("A", tree.Children[0].Value)
			assert.Empty(tree.Children[0].Children)
		}
	}

	// non-ε path still works
	tree, err = parser.Parse(lex.NewTokenStream(tokensOf("a", "b")))
	if assert.NoError(err) {
		if assert.Len(tree.Children, 2) {
			assert.Len(tree.Children[0].Children, 1)
		}
	}
}

func Test_LRTable_Determinism(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	table1, _, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}
	table2, _, err := ConstructLR1Table(g)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(table1.String(), table2.String(), "state numbering is a deterministic function of the grammar")

	lalr1, _, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}
	lalr2, _, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(lalr1.String(), lalr2.String())
}

func Test_LRTable_MarshalUnmarshalBinary(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)
	table, _, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}

	data, err := table.MarshalBinary()
	if !assert.NoError(err) {
		return
	}

	table2 := &LRTable{}
	err = table2.UnmarshalBinary(data)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(table.String(), table2.String(), "deserialized table is an identical recognizer")

	// and it actually drives a parse
	parser := NewLRParser(table2)
	tree, err := parser.Parse(lex.NewTokenStream(tokensOf("i", "plus", "i")))
	if assert.NoError(err) {
		assert.Equal("E", tree.Value)
	}
}

func Test_RecursiveDescent(t *testing.T) {
	assert := assert.New(t)

	// right-recursive list grammar; the RD oracle cannot do left recursion
	// L -> i comma L | i
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "L", Alternatives: []grammar.Production{{"i", "comma", "L"}, {"i"}}},
	}, termClasses("i", "comma"), "L")
	if !assert.NoError(err) {
		return
	}

	tree := RecursiveDescent(tokensOf("i", "comma", "i", "comma", "i"), g)
	if assert.NotNil(tree) {
		assert.Equal("L", tree.Value)
		assert.Len(tree.Children, 3)
	}

	assert.Nil(RecursiveDescent(tokensOf("i", "comma"), g), "partial input does not parse")
	assert.Nil(RecursiveDescent(tokensOf("comma"), g))
	assert.Nil(RecursiveDescent(nil, g), "empty input does not match a non-nullable start")
}

func Test_RecursiveDescent_AgreesWithLR(t *testing.T) {
	assert := assert.New(t)

	// right-recursive expression grammar both parsers handle
	// E -> T plus E | T, T -> i
	g, err := grammar.BuildGrammar([]grammar.RuleSpec{
		{Name: "E", Alternatives: []grammar.Production{{"T", "plus", "E"}, {"T"}}},
		{Name: "T", Alternatives: []grammar.Production{{"i"}}},
	}, termClasses("plus", "i"), "E")
	if !assert.NoError(err) {
		return
	}

	table, conflicts, err := ConstructLALR1Table(g)
	if !assert.NoError(err) {
		return
	}
	assert.Empty(conflicts)
	parser := NewLRParser(table)

	inputs := [][]string{
		{"i"},
		{"i", "plus", "i"},
		{"i", "plus", "i", "plus", "i"},
		{"i", "plus"},
		{"plus", "i"},
		{},
	}

	for _, input := range inputs {
		_, lrErr := parser.Parse(lex.NewTokenStream(tokensOf(input...)))
		rdTree := RecursiveDescent(tokensOf(input...), g)

		assert.Equal(lrErr == nil, rdTree != nil, "LR and RD agree on %v", input)
	}
}
