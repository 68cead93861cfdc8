// Package rangemap provides an ordered partition of the Unicode code point
// space into disjoint half-open intervals. Each interval is assigned a small
// dense integer class id; looking up any code point gives back the id of the
// interval holding it. The ids function as a reduced alphabet for the
// automata built on top of it, so transitions never need to be keyed by raw
// characters.
package rangemap

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// MaxCodePoint is the exclusive upper bound of the code point space a
// RangeMap partitions.
const MaxCodePoint = 0x110000

// Interval is one half-open interval [Lo, Hi) of the partition together with
// the class id assigned to it.
type Interval struct {
	Lo    rune
	Hi    rune
	Class int
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%#x, %#x)=%d", iv.Lo, iv.Hi, iv.Class)
}

// RangeMap is a self-balancing ordered tree of disjoint half-open intervals.
// Insert splits both the new interval and any existing ones along every
// boundary so the stored intervals always remain pairwise disjoint. Once all
// intervals are in, AssignClasses gives every interval a dense id in interval
// order; after that point the map should be treated as immutable.
//
// The zero value is an empty map ready for inserts.
type RangeMap struct {
	root     *rangeNode
	count    int
	assigned bool
}

type rangeNode struct {
	lo, hi rune
	class  int
	height int
	left   *rangeNode
	right  *rangeNode

	// subtree caches for containment pruning: minLo is the smallest lo in
	// this node's subtree, maxHi the largest hi.
	minLo rune
	maxHi rune
}

func (n *rangeNode) mid() rune {
	return (n.lo + n.hi - 1) / 2
}

// Insert adds the interval [lo, hi) to the map, splitting it and any existing
// intervals along every shared boundary. Inserting an interval already fully
// represented has no effect. Panics if lo >= hi or the bounds fall outside
// [0, MaxCodePoint), or if called after AssignClasses.
func (rm *RangeMap) Insert(lo, hi rune) {
	if lo >= hi {
		panic(fmt.Sprintf("insert of empty interval [%#x, %#x)", lo, hi))
	}
	if lo < 0 || hi > MaxCodePoint {
		panic(fmt.Sprintf("interval [%#x, %#x) outside code point space", lo, hi))
	}
	if rm.assigned {
		panic("insert after AssignClasses")
	}

	rm.root = rm.insert(rm.root, lo, hi)
}

func (rm *RangeMap) insert(root *rangeNode, lo, hi rune) *rangeNode {
	if root == nil {
		return &rangeNode{lo: lo, hi: hi, height: 1, minLo: lo, maxHi: hi}
	}
	if lo >= hi {
		return root
	}

	// everything strictly left of this node's interval goes down the left
	// side; a new boundary inside the interval splits off its head.
	if lo < root.lo {
		root.left = rm.insert(root.left, lo, minRune(root.lo, hi))
	} else if root.lo < lo && lo < root.hi {
		root.left = rm.insert(root.left, root.lo, lo)
	}

	// mirrored for the right side.
	if root.lo < hi && hi < root.hi {
		root.right = rm.insert(root.right, hi, root.hi)
	} else if hi > root.hi {
		root.right = rm.insert(root.right, maxRune(lo, root.hi), hi)
	}

	return maintain(root)
}

// maintain re-derives the node's own bounds from its children's coverage,
// updates the cached subtree extents, and rebalances if the AVL property was
// violated by an insert below.
func maintain(root *rangeNode) *rangeNode {
	// the node's own interval shrinks to whatever its subtrees do not
	// already cover; this is what realizes the boundary splits.
	if root.left != nil && root.left.maxHi > root.lo {
		root.lo = root.left.maxHi
	}
	if root.right != nil && root.right.minLo < root.hi {
		root.hi = root.right.minLo
	}

	setHeight(root)

	if abs(height(root.left)-height(root.right)) > 1 {
		root = balance(root)
	}

	return root
}

func height(n *rangeNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func setHeight(n *rangeNode) {
	if n == nil {
		return
	}
	lh, rh := height(n.left), height(n.right)
	if lh > rh {
		n.height = lh + 1
	} else {
		n.height = rh + 1
	}

	n.minLo = n.lo
	n.maxHi = n.hi
	if n.left != nil && n.left.minLo < n.minLo {
		n.minLo = n.left.minLo
	}
	if n.right != nil && n.right.maxHi > n.maxHi {
		n.maxHi = n.right.maxHi
	}
}

func rotateLeft(x *rangeNode) *rangeNode {
	y := x.right
	x.right = y.left
	y.left = x

	setHeight(x)
	setHeight(y)
	return y
}

func rotateRight(x *rangeNode) *rangeNode {
	y := x.left
	x.left = y.right
	y.right = x

	setHeight(x)
	setHeight(y)
	return y
}

func balance(root *rangeNode) *rangeNode {
	if height(root.left) > height(root.right) {
		if height(root.left.left) >= height(root.left.right) {
			root = rotateRight(root)
		} else {
			root.left = rotateLeft(root.left)
			root = rotateRight(root)
		}
	} else {
		if height(root.right.right) >= height(root.right.left) {
			root = rotateLeft(root)
		} else {
			root.right = rotateRight(root.right)
			root = rotateLeft(root)
		}
	}
	setHeight(root)
	return root
}

// AssignClasses walks the intervals in order and gives each a dense class id
// starting from zero. After this call the map is frozen; Search becomes
// usable. Calling it more than once has no effect.
func (rm *RangeMap) AssignClasses() {
	if rm.assigned {
		return
	}

	next := 0
	var walk func(n *rangeNode)
	walk = func(n *rangeNode) {
		if n == nil {
			return
		}
		walk(n.left)
		n.class = next
		next++
		walk(n.right)
	}
	walk(rm.root)

	rm.count = next
	rm.assigned = true
}

// Assigned returns whether AssignClasses has been called.
func (rm *RangeMap) Assigned() bool {
	return rm.assigned
}

// Len returns the number of intervals currently in the map.
func (rm *RangeMap) Len() int {
	n := 0
	var walk func(node *rangeNode)
	walk = func(node *rangeNode) {
		if node == nil {
			return
		}
		walk(node.left)
		n++
		walk(node.right)
	}
	walk(rm.root)
	return n
}

// Search returns the class id of the interval containing cp. The second
// return is false if cp is in no interval. Panics if called before
// AssignClasses.
func (rm *RangeMap) Search(cp rune) (int, bool) {
	if !rm.assigned {
		panic("search before AssignClasses")
	}

	root := rm.root
	for root != nil && !(root.lo <= cp && cp < root.hi) {
		if cp > root.mid() {
			root = root.right
		} else {
			root = root.left
		}
	}

	if root == nil {
		return 0, false
	}
	return root.class, true
}

// SearchInterval returns the full interval containing cp. The second return
// is false if cp is in no interval.
func (rm *RangeMap) SearchInterval(cp rune) (Interval, bool) {
	if !rm.assigned {
		panic("search before AssignClasses")
	}

	root := rm.root
	for root != nil && !(root.lo <= cp && cp < root.hi) {
		if cp > root.mid() {
			root = root.right
		} else {
			root = root.left
		}
	}

	if root == nil {
		return Interval{}, false
	}
	return Interval{Lo: root.lo, Hi: root.hi, Class: root.class}, true
}

// Visit walks the tree with up to three callback slots: pre is called before
// a node's children, in between them, and post after both. Nil slots are
// skipped. The in-order slot sees intervals in ascending order.
func (rm *RangeMap) Visit(pre, in, post func(lo, hi rune, class int)) {
	var walk func(n *rangeNode)
	walk = func(n *rangeNode) {
		if n == nil {
			return
		}
		if pre != nil {
			pre(n.lo, n.hi, n.class)
		}
		walk(n.left)
		if in != nil {
			in(n.lo, n.hi, n.class)
		}
		walk(n.right)
		if post != nil {
			post(n.lo, n.hi, n.class)
		}
	}
	walk(rm.root)
}

// Intervals returns all intervals in ascending order.
func (rm *RangeMap) Intervals() []Interval {
	ivs := make([]Interval, 0, rm.count)
	rm.Visit(nil, func(lo, hi rune, class int) {
		ivs = append(ivs, Interval{Lo: lo, Hi: hi, Class: class})
	}, nil)
	return ivs
}

// Classes returns the number of class ids assigned. It is zero before
// AssignClasses is called.
func (rm *RangeMap) Classes() int {
	return rm.count
}

// ClassesOf returns the set of class ids whose intervals intersect [lo, hi),
// in ascending order. This is how pattern atoms are rewritten into the class
// alphabet once the partition is final.
func (rm *RangeMap) ClassesOf(lo, hi rune) []int {
	if !rm.assigned {
		panic("ClassesOf before AssignClasses")
	}

	var ids []int
	var walk func(n *rangeNode)
	walk = func(n *rangeNode) {
		if n == nil {
			return
		}
		// containment pruning on the cached subtree extents
		if n.maxHi <= lo || n.minLo >= hi {
			return
		}
		walk(n.left)
		if n.lo < hi && lo < n.hi {
			ids = append(ids, n.class)
		}
		walk(n.right)
	}
	walk(rm.root)
	return ids
}

func (rm *RangeMap) String() string {
	ivs := rm.Intervals()
	s := "RangeMap<"
	for i := range ivs {
		s += ivs[i].String()
		if i+1 < len(ivs) {
			s += ", "
		}
	}
	return s + ">"
}

// MarshalBinary converts rm into a slice of bytes that can be decoded with
// UnmarshalBinary. Always returns a nil error.
func (rm *RangeMap) MarshalBinary() ([]byte, error) {
	ivs := rm.Intervals()

	data := rezi.EncBool(rm.assigned)
	data = append(data, rezi.EncInt(len(ivs))...)
	for _, iv := range ivs {
		data = append(data, rezi.EncInt(int(iv.Lo))...)
		data = append(data, rezi.EncInt(int(iv.Hi))...)
		data = append(data, rezi.EncInt(iv.Class)...)
	}

	return data, nil
}

// UnmarshalBinary replaces the contents of rm with the map encoded in data.
func (rm *RangeMap) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	rm.root = nil
	rm.count = 0
	rm.assigned = false

	var assigned bool
	assigned, n, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("assigned flag: %w", err)
	}
	data = data[n:]

	var ivCount int
	ivCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("interval count: %w", err)
	}
	data = data[n:]

	for i := 0; i < ivCount; i++ {
		var lo, hi int

		lo, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("interval %d lo: %w", i, err)
		}
		data = data[n:]

		hi, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("interval %d hi: %w", i, err)
		}
		data = data[n:]

		// the class id is re-derived by AssignClasses below; it is encoded
		// for readability of the format, not consumed.
		_, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("interval %d class: %w", i, err)
		}
		data = data[n:]

		rm.Insert(rune(lo), rune(hi))
	}

	if assigned {
		rm.AssignClasses()
	}

	return nil
}

func minRune(a, b rune) rune {
	if a < b {
		return a
	}
	return b
}

func maxRune(a, b rune) rune {
	if a > b {
		return a
	}
	return b
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
