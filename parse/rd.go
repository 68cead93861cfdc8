package parse

import (
	"github.com/dekarrin/minnow/grammar"
	"github.com/dekarrin/minnow/lex"
)

// rdMaxDepth bounds recursion so that left-recursive grammars fail a debug
// parse instead of blowing the stack. The oracle is for sanity-checking
// grammars on short inputs, where any legitimate derivation is far shallower
// than this.
const rdMaxDepth = 4096

// RecursiveDescent parses tokens against the grammar by naive backtracking
// recursive descent from the start symbol, returning the parse tree or nil if
// the parse it finds does not consume exactly the whole input.
//
// It is a grammar-debugging oracle, not a production parser: alternatives are
// tried in declaration order and each non-terminal keeps the first alternative
// that matches. When the input after that match then fails, the non-terminal's
// remaining alternatives are not retried, so a grammar that lists a shorter
// alternative before a longer one can yield nil for input it derives. It is
// exponential in the worst case and cannot handle left recursion (bounded by
// an internal depth limit). Its value is being an independent implementation
// to check LR table results against.
func RecursiveDescent(tokens []lex.Token, g grammar.Grammar) *ParseTree {
	rd := &rdParser{
		g:      g,
		tokens: tokens,
	}

	tree, end, ok := rd.parseNonTerminal(g.StartSymbol(), 0, 0)
	if !ok || end != len(tokens) {
		return nil
	}
	return tree
}

type rdParser struct {
	g      grammar.Grammar
	tokens []lex.Token
}

// parseNonTerminal tries every alternative of the non-terminal's rule at the
// given token position, returning the first full match.
func (rd *rdParser) parseNonTerminal(nt string, pos int, depth int) (*ParseTree, int, bool) {
	if depth > rdMaxDepth {
		return nil, 0, false
	}

	r := rd.g.Rule(nt)
	if r.NonTerminal == "" {
		return nil, 0, false
	}

	for _, alt := range r.Productions {
		node, end, ok := rd.parseSequence(nt, alt, pos, depth)
		if ok {
			return node, end, true
		}
	}

	return nil, 0, false
}

// parseSequence matches one alternative's symbols in order.
func (rd *rdParser) parseSequence(nt string, alt grammar.Production, pos int, depth int) (*ParseTree, int, bool) {
	node := &ParseTree{Value: nt, Children: make([]*ParseTree, 0, len(alt))}

	if alt.IsEpsilon() {
		return node, pos, true
	}

	cur := pos
	for _, sym := range alt {
		if grammar.IsTerminal(sym) {
			if cur >= len(rd.tokens) || rd.tokens[cur].Class.ID() != sym {
				return nil, 0, false
			}
			node.Children = append(node.Children, &ParseTree{
				Terminal: true,
				Value:    sym,
				Source:   rd.tokens[cur],
			})
			cur++
			continue
		}

		child, end, ok := rd.parseNonTerminal(sym, cur, depth+1)
		if !ok {
			return nil, 0, false
		}
		node.Children = append(node.Children, child)
		cur = end
	}

	return node, cur, true
}
