package lex

// The regex surface dialect: literal characters, '.', implicit concatenation,
// '|', '*', '+', '?', grouping with parentheses, character classes with
// ranges and negation, and backslash escapes for the metacharacters. No
// backreferences, lookaround, or capture groups.

import "github.com/dekarrin/minnow/internal/util"

type regexTokenType int

const (
	rtChar regexTokenType = iota
	rtClass
	rtDot
	rtStar
	rtPlus
	rtQuestion
	rtOr
	rtConcat
	rtLParen
	rtRParen
)

func (tt regexTokenType) String() string {
	switch tt {
	case rtChar:
		return "CHAR"
	case rtClass:
		return "CLASS"
	case rtDot:
		return "DOT"
	case rtStar:
		return "STAR"
	case rtPlus:
		return "PLUS"
	case rtQuestion:
		return "QUESTION"
	case rtOr:
		return "OR"
	case rtConcat:
		return "CONCAT"
	case rtLParen:
		return "LPAREN"
	case rtRParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// classItem is one element of a character class, a half-open interval of code
// points. A single literal c is the interval [c, c+1).
type classItem struct {
	lo rune
	hi rune
}

// regexToken is one token of a lexed pattern. Character classes carry their
// flattened interval list and a dedicated negation flag; negation is never
// represented by an in-band marker character.
type regexToken struct {
	ttype   regexTokenType
	ch      rune
	pos     int
	negated bool
	items   []classItem
}

// lexer states for the pattern scanner's state stack.
type regexLexState int

const (
	rlsRegular regexLexState = iota
	rlsClass
	rlsEscape
)

// escapeItems resolves a backslash escape to the class items it denotes.
// Metacharacter escapes give back the literal character; '\d' expands to the
// digit class. Unknown escapes are an error, not a silent literal.
func escapeItems(c rune) ([]classItem, bool) {
	switch c {
	case '\\', '.', '*', '+', '?', '|', '(', ')', '[', ']', '-', '^':
		return []classItem{{lo: c, hi: c + 1}}, true
	case 'n':
		return []classItem{{lo: '\n', hi: '\n' + 1}}, true
	case 't':
		return []classItem{{lo: '\t', hi: '\t' + 1}}, true
	case 'r':
		return []classItem{{lo: '\r', hi: '\r' + 1}}, true
	case 'f':
		return []classItem{{lo: '\f', hi: '\f' + 1}}, true
	case 'v':
		return []classItem{{lo: '\v', hi: '\v' + 1}}, true
	case 'd':
		return []classItem{{lo: '0', hi: '9' + 1}}, true
	default:
		return nil, false
	}
}

// lexRegex scans a pattern into regex tokens, then inserts explicit
// concatenation operators between adjacent atoms. The scanner keeps a small
// stack of states: regular, inside-class, and post-backslash.
func lexRegex(pattern string) ([]regexToken, error) {
	runes := []rune(pattern)

	var tokens []regexToken

	states := util.Stack[regexLexState]{Of: []regexLexState{rlsRegular}}

	// in-progress class, while the top state is rlsClass
	var curClass regexToken
	var classRangeLo rune
	var classHasPending bool  // a literal awaiting a possible '-' range
	var classInRange bool     // saw "lo-" and now need the range's end
	classStart := -1

	flushPending := func() {
		if classHasPending {
			curClass.items = append(curClass.items, classItem{lo: classRangeLo, hi: classRangeLo + 1})
			classHasPending = false
		}
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch states.Peek() {
		case rlsEscape:
			states.Pop()

			items, ok := escapeItems(c)
			if !ok {
				return nil, malformedf(pattern, i, "unknown escape \\%c", c)
			}

			if states.Peek() == rlsClass {
				// in-class escapes contribute a literal (possibly a range
				// endpoint); '\d' contributes its whole interval list.
				if len(items) == 1 && items[0].hi == items[0].lo+1 {
					if classInRange {
						if items[0].lo < classRangeLo {
							return nil, malformedf(pattern, i, "reversed range %c-%c", classRangeLo, items[0].lo)
						}
						curClass.items = append(curClass.items, classItem{lo: classRangeLo, hi: items[0].lo + 1})
						classInRange = false
					} else {
						flushPending()
						classRangeLo = items[0].lo
						classHasPending = true
					}
				} else {
					if classInRange {
						return nil, malformedf(pattern, i, "multi-character escape cannot end a range")
					}
					flushPending()
					curClass.items = append(curClass.items, items...)
				}
			} else {
				if len(items) == 1 && items[0].hi == items[0].lo+1 {
					tokens = append(tokens, regexToken{ttype: rtChar, ch: items[0].lo, pos: i - 1})
				} else {
					tokens = append(tokens, regexToken{ttype: rtClass, items: items, pos: i - 1})
				}
			}

		case rlsClass:
			switch c {
			case '\\':
				states.Push(rlsEscape)
			case ']':
				if classInRange {
					// trailing '-' as in [a-]: both the low end and the dash
					// are literals
					curClass.items = append(curClass.items, classItem{lo: classRangeLo, hi: classRangeLo + 1})
					curClass.items = append(curClass.items, classItem{lo: '-', hi: '-' + 1})
					classInRange = false
				}
				flushPending()
				if len(curClass.items) == 0 {
					return nil, malformedf(pattern, classStart, "empty character class")
				}
				states.Pop()
				tokens = append(tokens, curClass)
				curClass = regexToken{}
			case '-':
				if classHasPending {
					classHasPending = false
					classInRange = true
				} else {
					// leading '-' is a literal
					classRangeLo = '-'
					classHasPending = true
				}
			case '^':
				if i == classStart+1 {
					curClass.negated = true
				} else {
					if classInRange {
						if '^' < classRangeLo {
							return nil, malformedf(pattern, i, "reversed range %c-%c", classRangeLo, '^')
						}
						curClass.items = append(curClass.items, classItem{lo: classRangeLo, hi: '^' + 1})
						classInRange = false
					} else {
						flushPending()
						classRangeLo = '^'
						classHasPending = true
					}
				}
			default:
				if classInRange {
					if c < classRangeLo {
						return nil, malformedf(pattern, i, "reversed range %c-%c", classRangeLo, c)
					}
					curClass.items = append(curClass.items, classItem{lo: classRangeLo, hi: c + 1})
					classInRange = false
				} else {
					flushPending()
					classRangeLo = c
					classHasPending = true
				}
			}

		default: // rlsRegular
			switch c {
			case '\\':
				states.Push(rlsEscape)
			case '[':
				states.Push(rlsClass)
				curClass = regexToken{ttype: rtClass, pos: i}
				classHasPending = false
				classInRange = false
				classStart = i
			case ']':
				return nil, malformedf(pattern, i, "unmatched ']'")
			case '.':
				tokens = append(tokens, regexToken{ttype: rtDot, pos: i})
			case '*':
				tokens = append(tokens, regexToken{ttype: rtStar, pos: i})
			case '+':
				tokens = append(tokens, regexToken{ttype: rtPlus, pos: i})
			case '?':
				tokens = append(tokens, regexToken{ttype: rtQuestion, pos: i})
			case '|':
				tokens = append(tokens, regexToken{ttype: rtOr, pos: i})
			case '(':
				tokens = append(tokens, regexToken{ttype: rtLParen, pos: i})
			case ')':
				tokens = append(tokens, regexToken{ttype: rtRParen, pos: i})
			default:
				tokens = append(tokens, regexToken{ttype: rtChar, ch: c, pos: i})
			}
		}
	}

	switch states.Peek() {
	case rlsEscape:
		return nil, malformedf(pattern, len(runes), "trailing backslash")
	case rlsClass:
		return nil, malformedf(pattern, classStart, "unmatched '['")
	}

	return insertConcat(tokens), nil
}

// insertConcat adds explicit concatenation operators between adjacent atoms
// so the parser only deals with binary and postfix operators.
func insertConcat(tokens []regexToken) []regexToken {
	var result []regexToken

	prevIsAtomEnd := false
	for _, tok := range tokens {
		startsAtom := tok.ttype == rtChar || tok.ttype == rtClass || tok.ttype == rtDot || tok.ttype == rtLParen

		if prevIsAtomEnd && startsAtom {
			result = append(result, regexToken{ttype: rtConcat, pos: tok.pos})
		}

		switch tok.ttype {
		case rtChar, rtClass, rtDot, rtRParen, rtStar, rtPlus, rtQuestion:
			prevIsAtomEnd = true
		default:
			prevIsAtomEnd = false
		}

		result = append(result, tok)
	}

	return result
}
