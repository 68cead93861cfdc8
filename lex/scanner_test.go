package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Scanner_KeywordVsIdentifier(t *testing.T) {
	assert := assert.New(t)

	// KEYWORD is declared first so it outranks ID on ties; maximal munch
	// still hands longer identifiers to ID.
	sc, err := NewScanner([]Pattern{
		{Name: "KEYWORD", Regex: "if|else"},
		{Name: "ID", Regex: "[a-z]+"},
	})
	if !assert.NoError(err) {
		return
	}

	tokens, err := sc.Tokenize("if")
	if assert.NoError(err) && assert.Len(tokens, 1) {
		assert.Equal("keyword", tokens[0].Class.ID())
		assert.Equal("if", tokens[0].Lexeme)
	}

	tokens, err = sc.Tokenize("iffy")
	if assert.NoError(err) && assert.Len(tokens, 1) {
		assert.Equal("id", tokens[0].Class.ID(), "maximal munch prefers the longer ID match")
		assert.Equal("iffy", tokens[0].Lexeme)
	}

	tokens, err = sc.Tokenize("elsewhere")
	if assert.NoError(err) && assert.Len(tokens, 1) {
		assert.Equal("id", tokens[0].Class.ID())
	}
}

func Test_Scanner_MultiLabelMatchesSingleLabel(t *testing.T) {
	assert := assert.New(t)

	patterns := []Pattern{
		{Name: "KEYWORD", Regex: "if|else"},
		{Name: "ID", Regex: "[a-z]+"},
	}

	single, err := NewScanner(patterns)
	if !assert.NoError(err) {
		return
	}
	multi, err := NewScannerOpts(patterns, Options{MultiLabel: true})
	if !assert.NoError(err) {
		return
	}

	for _, input := range []string{"if", "else", "iffy", "x", "ifelse"} {
		sTokens, sErr := single.Tokenize(input)
		mTokens, mErr := multi.Tokenize(input)

		assert.Equal(sErr == nil, mErr == nil, "input %q", input)
		assert.Equal(sTokens, mTokens, "input %q", input)
	}
}

func Test_Scanner_AltMinimalStates(t *testing.T) {
	assert := assert.New(t)

	// a|b|c minimizes to exactly two states with three transitions
	sc, err := NewScanner([]Pattern{{Name: "ABC", Regex: "a|b|c"}})
	if !assert.NoError(err) {
		return
	}

	assert.Equal(2, sc.DFA().Len())

	accept := -1
	for _, c := range "abc" {
		next, ok := sc.DFA().Step(sc.DFA().StartState(), c)
		if !assert.True(ok, "transition on %q", c) {
			continue
		}
		if accept == -1 {
			accept = next
		}
		assert.Equal(accept, next)
	}
}

func Test_Scanner_MaximalMunch(t *testing.T) {
	assert := assert.New(t)

	sc, err := NewScanner([]Pattern{
		{Name: "ARROW", Regex: "->"},
		{Name: "MINUS", Regex: "-"},
		{Name: "GT", Regex: ">"},
		{Name: "NUM", Regex: "[0-9]+"},
	})
	if !assert.NoError(err) {
		return
	}

	tokens, err := sc.Tokenize("1->2-3")
	if !assert.NoError(err) {
		return
	}

	var classes []string
	var lexemes []string
	for _, tok := range tokens {
		classes = append(classes, tok.Class.ID())
		lexemes = append(lexemes, tok.Lexeme)
	}

	assert.Equal([]string{"num", "arrow", "num", "minus", "num"}, classes)
	assert.Equal([]string{"1", "->", "2", "-", "3"}, lexemes)
}

func Test_Scanner_BacktrackToLastAccept(t *testing.T) {
	assert := assert.New(t)

	// "ab" and "abcd" are tokens but "abc" is not; input "abce" must lex as
	// AB then fail or match the rest, exercising the remembered accept
	// position.
	sc, err := NewScanner([]Pattern{
		{Name: "AB", Regex: "ab"},
		{Name: "ABCD", Regex: "abcd"},
		{Name: "REST", Regex: "ce"},
	})
	if !assert.NoError(err) {
		return
	}

	tokens, err := sc.Tokenize("abce")
	if !assert.NoError(err) {
		return
	}
	if assert.Len(tokens, 2) {
		assert.Equal("ab", tokens[0].Lexeme)
		assert.Equal("ab", tokens[0].Class.ID())
		assert.Equal("ce", tokens[1].Lexeme)
	}

	tokens, err = sc.Tokenize("abcd")
	if assert.NoError(err) && assert.Len(tokens, 1) {
		assert.Equal("abcd", tokens[0].Class.ID())
	}
}

func Test_Scanner_UnrecognizedInput(t *testing.T) {
	assert := assert.New(t)

	sc, err := NewScanner([]Pattern{
		{Name: "WORD", Regex: "[a-z]+"},
		{Name: "SPACE", Regex: " +", Discard: true},
	})
	if !assert.NoError(err) {
		return
	}

	_, err = sc.Tokenize("abc 123")
	if !assert.Error(err) {
		return
	}

	unrecErr, ok := err.(*UnrecognizedInputError)
	if assert.True(ok, "error is UnrecognizedInputError") {
		assert.Equal(4, unrecErr.Pos)
		assert.Equal(1, unrecErr.Line)
		assert.Equal(5, unrecErr.LinePos)
	}
}

func Test_Scanner_DiscardAndPositions(t *testing.T) {
	assert := assert.New(t)

	sc, err := NewScanner([]Pattern{
		{Name: "WORD", Regex: "[a-z]+"},
		{Name: "SPACE", Regex: "[ \n]+", Discard: true},
	})
	if !assert.NoError(err) {
		return
	}

	tokens, err := sc.Tokenize("ab cd\nef")
	if !assert.NoError(err) {
		return
	}

	if !assert.Len(tokens, 3) {
		return
	}

	assert.Equal(1, tokens[0].Line)
	assert.Equal(1, tokens[0].LinePos)
	assert.Equal(1, tokens[1].Line)
	assert.Equal(4, tokens[1].LinePos)
	assert.Equal(2, tokens[2].Line)
	assert.Equal(1, tokens[2].LinePos)
	assert.Equal("ef", tokens[2].Lexeme)
}

func Test_Scanner_DuplicateName(t *testing.T) {
	assert := assert.New(t)

	_, err := NewScanner([]Pattern{
		{Name: "A", Regex: "a"},
		{Name: "A", Regex: "b"},
	})

	if !assert.Error(err) {
		return
	}
	dupErr, ok := err.(*DuplicatePatternError)
	if assert.True(ok) {
		assert.Equal("A", dupErr.Name)
	}
}

func Test_Scanner_Check(t *testing.T) {
	assert := assert.New(t)

	// the second pattern is fully shadowed by the first
	sc, err := NewScanner([]Pattern{
		{Name: "ANYWORD", Regex: "[a-z]+"},
		{Name: "HELLO", Regex: "hello"},
	})
	if !assert.NoError(err) {
		return
	}

	problems := sc.Check()
	if assert.Len(problems, 1) {
		assert.Contains(problems[0].Error(), "HELLO")
	}

	// a healthy spec reports nothing
	sc, err = NewScanner([]Pattern{
		{Name: "HELLO", Regex: "hello"},
		{Name: "ANYWORD", Regex: "[a-z]+"},
	})
	if !assert.NoError(err) {
		return
	}
	assert.Empty(sc.Check())
}

func Test_Scanner_CPatterns(t *testing.T) {
	assert := assert.New(t)

	sc, err := NewScanner(CPatterns())
	if !assert.NoError(err) {
		return
	}

	tokens, err := sc.Tokenize("int x = 0x1F + 409; // semicolons!\nreturn x->y;")
	if !assert.NoError(err) {
		return
	}

	var classes []string
	for _, tok := range tokens {
		classes = append(classes, tok.Class.ID())
	}

	assert.Equal([]string{
		"keyword", "identifier", "op", "hex_integer", "op", "integer", "separator",
		"keyword", "identifier", "op", "identifier", "separator",
	}, classes)
}

func Test_Scanner_MinimalDFAMatchesPatternLanguage(t *testing.T) {
	assert := assert.New(t)

	// language sanity: the minimized DFA accepts exactly the strings the
	// pattern describes
	sc, err := NewScanner([]Pattern{{Name: "P", Regex: "(ab|cd)*abc?"}})
	if !assert.NoError(err) {
		return
	}

	accepts := func(s string) bool {
		state := sc.DFA().StartState()
		for _, c := range s {
			next, ok := sc.DFA().Step(state, c)
			if !ok {
				return false
			}
			state = next
		}
		accepting, _ := sc.DFA().IsAccepting(state)
		return accepting
	}

	for _, s := range []string{"ab", "abc", "ababab", "cdab", "abcdabc"} {
		assert.True(accepts(s), "%q should be accepted", s)
	}
	for _, s := range []string{"", "a", "ac", "abcd", "abca", "cdc"} {
		assert.False(accepts(s), "%q should be rejected", s)
	}
}
