package grammar

import (
	"testing"

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

// the classic expression grammar: E -> E+T | T, T -> T*F | F, F -> (E) | i
func exprGrammar(t *testing.T) Grammar {
	g, err := BuildGrammar([]RuleSpec{
		{Name: "E", Alternatives: []Production{{"E", "plus", "T"}, {"T"}}},
		{Name: "T", Alternatives: []Production{{"T", "star", "F"}, {"F"}}},
		{Name: "F", Alternatives: []Production{{"lp", "E", "rp"}, {"id"}}},
	}, termClasses("plus", "star", "lp", "rp", "id"), "E")
	if err != nil {
		t.Fatalf("building expression grammar: %v", err)
	}
	return g
}

func Test_BuildGrammar_Validation(t *testing.T) {
	testCases := []struct {
		name      string
		specs     []RuleSpec
		terminals []string
		start     string
		expectErr error
	}{
		{
			name: "valid single rule",
			specs: []RuleSpec{
				{Name: "S", Alternatives: []Production{{"a"}}},
			},
			terminals: []string{"a"},
			start:     "S",
		},
		{
			name: "duplicate non-terminal",
			specs: []RuleSpec{
				{Name: "S", Alternatives: []Production{{"a"}}},
				{Name: "S", Alternatives: []Production{{"a", "a"}}},
			},
			terminals: []string{"a"},
			start:     "S",
			expectErr: &DuplicateNonTerminalError{},
		},
		{
			name: "undefined non-terminal",
			specs: []RuleSpec{
				{Name: "S", Alternatives: []Production{{"A", "a"}}},
			},
			terminals: []string{"a"},
			start:     "S",
			expectErr: &UndefinedNonTerminalError{},
		},
		{
			name: "undefined terminal",
			specs: []RuleSpec{
				{Name: "S", Alternatives: []Production{{"b"}}},
			},
			terminals: []string{"a"},
			start:     "S",
			expectErr: &UndefinedTerminalError{},
		},
		{
			name: "undefined start symbol",
			specs: []RuleSpec{
				{Name: "S", Alternatives: []Production{{"a"}}},
			},
			terminals: []string{"a"},
			start:     "T",
			expectErr: &UndefinedStartSymbolError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := BuildGrammar(tc.specs, termClasses(tc.terminals...), tc.start)

			if tc.expectErr == nil {
				assert.NoError(err)
			} else {
				assert.IsType(tc.expectErr, err)
			}
		})
	}
}

func Test_Grammar_FIRST(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	assert.ElementsMatch([]string{"lp", "id"}, g.FIRST("E").OrderedElements())
	assert.ElementsMatch([]string{"lp", "id"}, g.FIRST("T").OrderedElements())
	assert.ElementsMatch([]string{"lp", "id"}, g.FIRST("F").OrderedElements())

	// FIRST of a terminal is itself
	assert.ElementsMatch([]string{"plus"}, g.FIRST("plus").OrderedElements())
}

func Test_Grammar_FIRST_Nullable(t *testing.T) {
	assert := assert.New(t)

	// S -> A B c, A -> a | ε, B -> b | ε
	g, err := BuildGrammar([]RuleSpec{
		{Name: "S", Alternatives: []Production{{"A", "B", "c"}}},
		{Name: "A", Alternatives: []Production{{"a"}, Epsilon}},
		{Name: "B", Alternatives: []Production{{"b"}, Epsilon}},
	}, termClasses("a", "b", "c"), "S")
	if !assert.NoError(err) {
		return
	}

	assert.ElementsMatch([]string{"a", ""}, g.FIRST("A").OrderedElements())
	assert.ElementsMatch([]string{"b", ""}, g.FIRST("B").OrderedElements())

	// ε in FIRST(A) pulls FIRST(B) in, then c; S itself is not nullable
	assert.ElementsMatch([]string{"a", "b", "c"}, g.FIRST("S").OrderedElements())

	assert.True(g.NULLABLE("A"))
	assert.True(g.NULLABLE("B"))
	assert.False(g.NULLABLE("S"))
	assert.False(g.NULLABLE("a"))

	// FirstOfString follows the same chain rule
	assert.ElementsMatch([]string{"a", "b", ""}, g.FirstOfString("A", "B").OrderedElements())
	assert.ElementsMatch([]string{"a", "b", "c"}, g.FirstOfString("A", "B", "c").OrderedElements())
}

func Test_Grammar_FirstByAlternative(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	// F -> (E) | i gives {lp} and {id}, in declaration order
	alts := g.FirstByAlternative("F")
	if assert.Len(alts, 2) {
		assert.ElementsMatch([]string{"lp"}, alts[0].OrderedElements())
		assert.ElementsMatch([]string{"id"}, alts[1].OrderedElements())
	}

	// the union of the per-alternative sets is the union-by-name FIRST
	union := alts[0].Union(alts[1])
	assert.True(union.Equal(g.FIRST("F")))
}

func Test_Grammar_FOLLOW(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	assert.ElementsMatch([]string{"plus", "rp", "$"}, g.FOLLOW("E").OrderedElements())
	assert.ElementsMatch([]string{"plus", "star", "rp", "$"}, g.FOLLOW("T").OrderedElements())
	assert.ElementsMatch([]string{"plus", "star", "rp", "$"}, g.FOLLOW("F").OrderedElements())
}

func Test_Grammar_FIRST_Idempotent(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)

	first1 := g.FIRST("E")
	first2 := g.FIRST("E")
	assert.True(first1.Equal(first2))

	follow1 := g.FOLLOW("T")
	follow2 := g.FOLLOW("T")
	assert.True(follow1.Equal(follow2))
}

func Test_Grammar_Augmented(t *testing.T) {
	assert := assert.New(t)

	g := exprGrammar(t)
	aug := g.Augmented()

	assert.Equal("E'", aug.StartSymbol())
	r := aug.Rule("E'")
	if assert.Len(r.Productions, 1) {
		assert.Equal(Production{"E"}, r.Productions[0])
	}

	// the original grammar is untouched
	assert.Equal("E", g.StartSymbol())
	assert.Empty(g.Rule("E'").NonTerminal)
}

func Test_Grammar_Attributes(t *testing.T) {
	assert := assert.New(t)

	g, err := BuildGrammar([]RuleSpec{
		{
			Name:         "S",
			Alternatives: []Production{{"a"}, {"b"}},
			Attributes:   []interface{}{"first-attr", 42},
		},
	}, termClasses("a", "b"), "S")
	if !assert.NoError(err) {
		return
	}

	assert.Equal("first-attr", g.Attribute("S", 0))
	assert.Equal(42, g.Attribute("S", 1))
	assert.Nil(g.Attribute("S", 2))
	assert.Nil(g.Attribute("T", 0))

	// arity mismatch is rejected
	_, err = BuildGrammar([]RuleSpec{
		{
			Name:         "S",
			Alternatives: []Production{{"a"}, {"b"}},
			Attributes:   []interface{}{"only-one"},
		},
	}, termClasses("a", "b"), "S")
	assert.Error(err)
}

func Test_LR0Item(t *testing.T) {
	assert := assert.New(t)

	item := LR0Item{NonTerminal: "E", Right: []string{"E", "plus", "T"}}

	assert.Equal(0, item.Dot())
	assert.False(item.Complete())
	assert.Equal("E", item.NextSymbol())
	assert.Equal("E -> . E plus T", item.String())

	adv := item.Advance().Advance()
	assert.Equal(2, adv.Dot())
	assert.Equal("T", adv.NextSymbol())
	assert.Equal(Production{"E", "plus", "T"}, adv.Production())

	done := adv.Advance()
	assert.True(done.Complete())
	assert.Equal("", done.NextSymbol())

	// advancing the original left it untouched
	assert.Equal(0, item.Dot())
}

func Test_LR1Item_CoreAndString(t *testing.T) {
	assert := assert.New(t)

	i1 := NewLR1Item("A", Production{"a", "A"}, "a", "b")
	i2 := NewLR1Item("A", Production{"a", "A"}, "$")

	assert.Equal(i1.CoreString(), i2.CoreString(), "lookaheads do not affect the core")
	assert.NotEqual(i1.String(), i2.String())

	assert.Equal("A -> . a A, a/b", i1.String())
}
