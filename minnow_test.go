package minnow

import (
	"testing"

	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/lex"
	"github.com/stretchr/testify/assert"
)

func calcFrontend(t *testing.T, algo Algorithm) *Frontend {
	fe, err := NewFrontend(
		[]lex.Pattern{
			{Name: "SPACE", Regex: " +", Discard: true},
			{Name: "NUM", Regex: "[0-9]+"},
			{Name: "PLUS", Regex: "\\+"},
			{Name: "TIMES", Regex: "\\*"},
			{Name: "LP", Regex: "\\("},
			{Name: "RP", Regex: "\\)"},
		},
		[]grammar.RuleSpec{
			{Name: "E", Alternatives: []grammar.Production{{"E", "plus", "T"}, {"T"}}},
			{Name: "T", Alternatives: []grammar.Production{{"T", "times", "F"}, {"F"}}},
			{Name: "F", Alternatives: []grammar.Production{{"lp", "E", "rp"}, {"num"}}},
		},
		"E",
		algo,
	)
	if err != nil {
		t.Fatalf("generating frontend: %v", err)
	}
	return fe
}

func Test_Frontend_Analyze(t *testing.T) {
	for _, algo := range []Algorithm{LALR1, CLR1} {
		t.Run(algo.String(), func(t *testing.T) {
			assert := assert.New(t)

			fe := calcFrontend(t, algo)
			assert.Empty(fe.Conflicts)

			tree, err := fe.Analyze("1 + 2 * (3 + 4)")
			if !assert.NoError(err) {
				return
			}
			assert.Equal("E", tree.Value)

			leaves := tree.Flatten()
			assert.Len(leaves, 9)

			_, err = fe.Analyze("1 + + 2")
			assert.Error(err)

			_, err = fe.Analyze("1 @ 2")
			assert.Error(err, "unknown characters fail at scan time")
		})
	}
}

func Test_Frontend_DebugParseAgrees(t *testing.T) {
	assert := assert.New(t)

	// a right-recursive grammar the oracle can handle
	fe, err := NewFrontend(
		[]lex.Pattern{
			{Name: "ID", Regex: "[a-z]+"},
			{Name: "COMMA", Regex: ","},
		},
		[]grammar.RuleSpec{
			{Name: "L", Alternatives: []grammar.Production{{"id", "comma", "L"}, {"id"}}},
		},
		"L",
		LALR1,
	)
	if !assert.NoError(err) {
		return
	}

	for _, input := range []string{"a", "a,b", "a,b,c", "a,", ",a"} {
		_, lrErr := fe.Analyze(input)
		rdTree, rdErr := fe.DebugParse(input)
		if !assert.NoError(rdErr) {
			continue
		}

		assert.Equal(lrErr == nil, rdTree != nil, "LR and the oracle agree on %q", input)
	}
}
