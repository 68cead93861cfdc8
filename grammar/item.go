package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/minnow/internal/util"
)

// LR0Item is a production with a dot position, represented as the symbols
// left of the dot and the symbols right of it.
type LR0Item struct {
	NonTerminal string
	Left        []string
	Right       []string
}

// Dot returns the dot position: the number of symbols already passed.
func (lr0 LR0Item) Dot() int {
	return len(lr0.Left)
}

// Complete returns whether the dot is at the end of the production.
func (lr0 LR0Item) Complete() bool {
	return len(lr0.Right) == 0
}

// NextSymbol returns the symbol immediately after the dot, or "" if the item
// is complete.
func (lr0 LR0Item) NextSymbol() string {
	if len(lr0.Right) == 0 {
		return ""
	}
	return lr0.Right[0]
}

// Production returns the full production of the item, ignoring the dot.
func (lr0 LR0Item) Production() Production {
	prod := make(Production, 0, len(lr0.Left)+len(lr0.Right))
	prod = append(prod, lr0.Left...)
	prod = append(prod, lr0.Right...)
	if len(prod) == 0 {
		return Epsilon.Copy()
	}
	return prod
}

// Advance returns a copy of the item with the dot moved one symbol to the
// right. Panics if the item is complete.
func (lr0 LR0Item) Advance() LR0Item {
	if len(lr0.Right) == 0 {
		panic("advance dot past end of item")
	}

	adv := LR0Item{
		NonTerminal: lr0.NonTerminal,
		Left:        make([]string, len(lr0.Left), len(lr0.Left)+1),
		Right:       make([]string, len(lr0.Right)-1),
	}
	copy(adv.Left, lr0.Left)
	adv.Left = append(adv.Left, lr0.Right[0])
	copy(adv.Right, lr0.Right[1:])

	return adv
}

func (lr0 LR0Item) Equal(o any) bool {
	other, ok := o.(LR0Item)
	if !ok {
		otherPtr, ok := o.(*LR0Item)
		if !ok {
			return false
		}
		if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if lr0.NonTerminal != other.NonTerminal {
		return false
	} else if len(lr0.Left) != len(other.Left) {
		return false
	} else if len(lr0.Right) != len(other.Right) {
		return false
	}

	for i := range lr0.Left {
		if lr0.Left[i] != other.Left[i] {
			return false
		}
	}
	for i := range lr0.Right {
		if lr0.Right[i] != other.Right[i] {
			return false
		}
	}

	return true
}

func (lr0 LR0Item) String() string {
	left := strings.Join(lr0.Left, " ")
	right := strings.Join(lr0.Right, " ")

	if len(left) > 0 {
		left = left + " "
	}
	if len(right) > 0 {
		right = " " + right
	}

	return fmt.Sprintf("%s -> %s.%s", lr0.NonTerminal, left, right)
}

// LR1Item is an LR0Item plus a lookahead set of terminals (or the
// end-of-input sentinel). Items with the same core but different lookaheads
// merge their lookaheads by union during closure.
type LR1Item struct {
	LR0Item
	Lookaheads util.StringSet
}

// NewLR1Item creates an item with the dot at the far left of the production
// and the given lookaheads.
func NewLR1Item(nonTerminal string, production Production, lookaheads ...string) LR1Item {
	item := LR1Item{
		LR0Item:    LR0Item{NonTerminal: nonTerminal},
		Lookaheads: util.StringSetOf(lookaheads),
	}
	if !production.IsEpsilon() {
		item.Right = make([]string, len(production))
		copy(item.Right, production)
	}
	return item
}

// Copy returns a deep copy of the item.
func (lr1 LR1Item) Copy() LR1Item {
	lrCopy := LR1Item{}
	lrCopy.NonTerminal = lr1.NonTerminal
	lrCopy.Left = make([]string, len(lr1.Left))
	copy(lrCopy.Left, lr1.Left)
	lrCopy.Right = make([]string, len(lr1.Right))
	copy(lrCopy.Right, lr1.Right)
	lrCopy.Lookaheads = lr1.Lookaheads.Copy()

	return lrCopy
}

// AdvanceLR1 returns a copy of the item with the dot moved one symbol right,
// keeping the lookaheads.
func (lr1 LR1Item) AdvanceLR1() LR1Item {
	adv := LR1Item{
		LR0Item:    lr1.LR0Item.Advance(),
		Lookaheads: lr1.Lookaheads.Copy(),
	}
	return adv
}

// CoreString is the canonical string of the item's LR0 core, without
// lookaheads. It keys core-equality during LALR merging.
func (lr1 LR1Item) CoreString() string {
	return lr1.LR0Item.String()
}

func (lr1 LR1Item) Equal(o any) bool {
	other, ok := o.(LR1Item)
	if !ok {
		otherPtr, ok := o.(*LR1Item)
		if !ok {
			return false
		}
		if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if !lr1.LR0Item.Equal(other.LR0Item) {
		return false
	}
	return lr1.Lookaheads.Equal(other.Lookaheads)
}

func (lr1 LR1Item) String() string {
	return fmt.Sprintf("%s, %s", lr1.LR0Item.String(), strings.Join(lr1.Lookaheads.OrderedElements(), "/"))
}

// ItemSet is a set of LR1 items keyed by their full string representation.
// Because lookaheads for one core are always kept merged, the ordered string
// of an ItemSet is a canonical content key for the canonical collection.
type ItemSet = util.SVSet[LR1Item]

// CoreSet projects an item set down to the set of core strings, discarding
// lookaheads. Two item sets are LALR merge candidates iff their CoreSets are
// equal.
func CoreSet(s ItemSet) util.StringSet {
	cores := util.NewStringSet()
	for _, k := range s.Elements() {
		cores.Add(s.Get(k).CoreString())
	}
	return cores
}

// CoreSetKey gives a canonical string key for the LR0 core of an item set.
func CoreSetKey(s ItemSet) string {
	return CoreSet(s).StringOrdered()
}

// OrderedItems returns the items of an item set sorted by their string key.
func OrderedItems(s ItemSet) []LR1Item {
	keys := s.Elements()
	sort.Strings(keys)
	items := make([]LR1Item, len(keys))
	for i, k := range keys {
		items[i] = s.Get(k)
	}
	return items
}
