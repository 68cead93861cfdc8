package optimize

import (
	"fmt"
	"sort"

	"github.com/dekarrin/minnow/internal/util"
)

// dagNode is one node of the value-numbering DAG, held in an arena and
// referred to by index. Leaves carry a value: a constant, or the variable
// whose block-entry value they stand for. Inner nodes carry an operation and
// child indexes.
type dagNode struct {
	id int

	// leaf payload
	value   Operand
	isLeaf  bool
	isConst bool

	// op payload
	op    Op
	left  int // node id, -1 for none
	right int // node id, -1 for none

	// varRefs is the set of variables currently bound to this node's value.
	// A variable is in at most one node's varRefs at a time.
	varRefs map[Operand]bool
}

// orderedRefs returns the node's bound variable names sorted, live ones
// first so the computed value lands in a name that must survive when
// possible.
func (n *dagNode) orderedRefs(live map[string]bool) []string {
	var names []string
	for ref := range n.varRefs {
		names = append(names, ref.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := isLive(live, names[i]), isLive(live, names[j])
		if li != lj {
			return li
		}
		return names[i] < names[j]
	})
	return names
}

func isLive(live map[string]bool, name string) bool {
	return live == nil || live[name]
}

// opKey identifies an operation node by its children for common
// subexpression lookup. Unary nodes use -1 for the left id.
type opKey struct {
	left  int
	op    Op
	right int
}

// dagBuilder accumulates the DAG for one basic block.
type dagBuilder struct {
	nodes    []*dagNode
	refTable map[Operand]int
	opTable  map[opKey]int
}

func newDagBuilder() *dagBuilder {
	return &dagBuilder{
		refTable: map[Operand]int{},
		opTable:  map[opKey]int{},
	}
}

func (b *dagBuilder) newNode() *dagNode {
	n := &dagNode{
		id:      len(b.nodes),
		left:    -1,
		right:   -1,
		varRefs: map[Operand]bool{},
	}
	b.nodes = append(b.nodes, n)
	return n
}

// getOrInsertRef returns the node currently producing the operand's value,
// creating a leaf for it if there is none. Constants are interned by value;
// an unbound variable gets a leaf standing for its value at block entry.
func (b *dagBuilder) getOrInsertRef(operand Operand) int {
	if id, ok := b.refTable[operand]; ok {
		return id
	}

	n := b.newNode()
	n.isLeaf = true
	n.value = operand
	n.isConst = operand.IsConst()
	if !operand.IsConst() {
		n.varRefs[operand] = true
	}
	b.refTable[operand] = n.id
	return n.id
}

// getOrInsertOp returns the node for (left, op, right), creating it if no
// structurally identical one exists. Commutative operations canonicalize the
// child order for the lookup so a+b and b+a share a node.
func (b *dagBuilder) getOrInsertOp(left int, op Op, right int) int {
	key := opKey{left: left, op: op, right: right}
	if opCommutative[op] && left > right {
		key = opKey{left: right, op: op, right: left}
	}

	if id, ok := b.opTable[key]; ok {
		return id
	}

	n := b.newNode()
	n.op = op
	n.left = left
	n.right = right
	b.opTable[key] = n.id
	return n.id
}

// bind makes the destination variable refer to the given node, removing its
// previous binding. This is what makes a later re-assignment of a variable
// leave earlier uses of its old value intact.
func (b *dagBuilder) bind(dest Operand, nodeID int) {
	if oldID, ok := b.refTable[dest]; ok {
		delete(b.nodes[oldID].varRefs, dest)
	}
	b.nodes[nodeID].varRefs[dest] = true
	b.refTable[dest] = nodeID
}

// build folds one basic block into the DAG.
func (b *dagBuilder) build(block []Quadruple) {
	for _, q := range block {
		var nodeID int

		switch opArity[q.Op] {
		case 0:
			nodeID = b.getOrInsertRef(q.V1)

		case 1:
			operandID := b.getOrInsertRef(q.V1)
			if b.nodes[operandID].isConst {
				if res, ok := fold1(q.Op, b.nodes[operandID].value); ok {
					nodeID = b.getOrInsertRef(res)
					break
				}
			}
			nodeID = b.getOrInsertOp(-1, q.Op, operandID)

		default:
			leftID := b.getOrInsertRef(q.V1)
			rightID := b.getOrInsertRef(q.V2)
			if b.nodes[leftID].isConst && b.nodes[rightID].isConst {
				if res, ok := fold2(q.Op, b.nodes[leftID].value, b.nodes[rightID].value); ok {
					nodeID = b.getOrInsertRef(res)
					break
				}
			}
			nodeID = b.getOrInsertOp(leftID, q.Op, rightID)
		}

		b.bind(q.V3, nodeID)
	}
}

// Optimize rewrites one basic block of quadruples: common subexpressions are
// shared via value numbering, constant subexpressions are folded, and
// redundant intermediate assignments disappear. If live is non-nil, final
// assignments to variables outside it are suppressed; every variable in live
// ends the emitted block with the same value it has after the original block.
//
// Division (or remainder) by a constant zero is not folded; the operation is
// kept as is.
func Optimize(block []Quadruple, live map[string]bool) []Quadruple {
	b := newDagBuilder()
	b.build(block)
	return b.emit(live)
}

// BuildDOT folds the block into a DAG and renders it in graphviz format, for
// eyeballing what the optimizer did with a block.
func BuildDOT(block []Quadruple) string {
	b := newDagBuilder()
	b.build(block)

	out := "digraph dag {\n"
	for _, n := range b.nodes {
		label := ""
		if n.isLeaf {
			label = n.value.String()
		} else {
			label = n.op.String()
		}
		if len(n.varRefs) > 0 {
			label += "\\n" + fmt.Sprintf("%v", n.orderedRefs(nil))
		}
		out += fmt.Sprintf("\tn%d [label=%q];\n", n.id, label)
	}
	for _, n := range b.nodes {
		if n.left >= 0 {
			out += fmt.Sprintf("\tn%d -> n%d;\n", n.id, n.left)
		}
		if n.right >= 0 {
			out += fmt.Sprintf("\tn%d -> n%d;\n", n.id, n.right)
		}
	}
	out += "}\n"
	return out
}

// emit walks the bound nodes in creation order and re-emits quadruples.
// Creation order guarantees that a node reading some variable's block-entry
// value was created before the node that variable was later re-bound to, so
// emitting in id order never reads a clobbered variable.
func (b *dagBuilder) emit(live map[string]bool) []Quadruple {
	var result []Quadruple

	// every node a variable is still bound to, in id order
	bound := map[int]bool{}
	for ref, id := range b.refTable {
		if ref.Type == Variable {
			bound[id] = true
		}
	}

	memo := map[int]Operand{}

	// walk emits the quadruples computing a node's value once, and returns
	// the operand later uses refer to it by.
	var walk func(id int) Operand
	walk = func(id int) Operand {
		if res, ok := memo[id]; ok {
			return res
		}

		n := b.nodes[id]
		refs := n.orderedRefs(live)

		var res Operand
		if n.isLeaf {
			res = n.value

			if n.isConst {
				// materialize the constant into its live names
				for _, name := range refs {
					if !isLive(live, name) {
						continue
					}
					result = append(result, Quadruple{Op: OpAssign, V1: n.value, V3: VarOperand(name)})
				}
			} else {
				// a block-entry variable value; copy it to any other live
				// name bound to it before anything can clobber the source
				for _, name := range refs {
					if name == n.value.Name || !isLive(live, name) {
						continue
					}
					result = append(result, Quadruple{Op: OpAssign, V1: n.value, V3: VarOperand(name)})
				}
			}

			memo[id] = res
			return res
		}

		var v1, v2 Operand
		if n.left >= 0 {
			v1 = walk(n.left)
		}
		v2 = walk(n.right)
		if n.left < 0 {
			v1 = v2
			v2 = Operand{}
		}

		// the computed value needs a home; prefer a live bound name, fall
		// back to a synthesized temporary
		var calc string
		if len(refs) > 0 && isLive(live, refs[0]) {
			calc = refs[0]
		} else {
			calc = fmt.Sprintf("@%d", n.id)
		}
		res = VarOperand(calc)
		memo[id] = res

		if opArity[n.op] == 1 {
			result = append(result, Quadruple{Op: n.op, V1: v1, V3: res})
		} else {
			result = append(result, Quadruple{Op: n.op, V1: v1, V2: v2, V3: res})
		}

		// copy into the remaining live names
		for _, name := range refs {
			if name == calc || !isLive(live, name) {
				continue
			}
			result = append(result, Quadruple{Op: OpAssign, V1: res, V3: VarOperand(name)})
		}

		return res
	}

	for _, id := range util.OrderedIntKeys(bound) {
		walk(id)
	}

	return result
}
