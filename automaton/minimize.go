package automaton

import (
	"fmt"
	"sort"

	"github.com/dekarrin/minnow/internal/util"
)

// InconsistentPartitionError is returned by Minimize when the final partition
// has a block whose states disagree on their target block for some symbol.
// This cannot happen for a correct refinement; it indicates a bug in the
// minimizer itself, not in the caller's input.
type InconsistentPartitionError struct {
	// Block is the offending block's member state ids.
	Block []int

	// Symbol is the class id the members disagree on.
	Symbol int
}

func (e *InconsistentPartitionError) Error() string {
	return fmt.Sprintf("inconsistent partition: block %v disagrees on symbol %d", e.Block, e.Symbol)
}

// Internal marks the error as an internal invariant violation rather than a
// user-input problem.
func (e *InconsistentPartitionError) Internal() bool {
	return true
}

// Minimize produces the minimal DFA equivalent to dfa using Hopcroft's
// partition refinement. States that differ in accepting status or accept
// label set are never merged, so distinct tokens stay distinguishable.
// Unreachable states are not pruned; they simply merge with whatever they are
// indistinguishable from. After minimization each accepting state's label set
// is collapsed to its single highest-priority label.
//
// The returned DFA shares the input's range map. State ids are renumbered
// densely, ordered by the smallest original state id in each block, so the
// output is a deterministic function of the input.
func Minimize(dfa *DFA) (*DFA, error) {
	n := dfa.Len()
	if n == 0 {
		return NewDFA(dfa.RangeMap()), nil
	}

	alphabet := dfa.InputClasses()

	// the implicit dead state: every missing transition is treated as going
	// here, which makes the transition function total and the classic
	// smaller-half argument apply to partial automata too.
	dead := n
	total := n + 1

	// reverse transition index: rev[symbol][target] -> source states
	rev := map[int]map[int][]int{}
	for _, a := range alphabet {
		rev[a] = map[int][]int{}
	}
	for st := 0; st < n; st++ {
		for _, a := range alphabet {
			target, ok := dfa.StepClass(st, a)
			if !ok {
				target = dead
			}
			rev[a][target] = append(rev[a][target], st)
		}
	}
	for _, a := range alphabet {
		rev[a][dead] = append(rev[a][dead], dead)
	}

	// initial partition: group by (accepting, label set); the dead state
	// gets a block of its own to start with.
	groupIDs := map[string]int{}
	var blocks []util.IntSet
	stateBlock := make([]int, total)

	for st := 0; st < n; st++ {
		info := dfa.states[st]
		key := "N"
		if info.Accepting {
			key = "A|" + acceptsKey(info.Accepts)
		}

		b, ok := groupIDs[key]
		if !ok {
			b = len(blocks)
			groupIDs[key] = b
			blocks = append(blocks, util.NewIntSet())
		}
		blocks[b].Add(st)
		stateBlock[st] = b
	}

	deadBlock := len(blocks)
	blocks = append(blocks, util.IntSetOf([]int{dead}))
	stateBlock[dead] = deadBlock

	// candidate splitters, smallest block first; the whole partition seeds
	// the worklist.
	worklist := util.NewWorkQueue[int](func(b int) int { return blocks[b].Len() })
	for b := range blocks {
		worklist.Push(b)
	}

	for {
		sid, ok := worklist.Pop()
		if !ok {
			break
		}

		// snapshot: the splitter is this block's content as of now, even if
		// the loop below splits the block itself.
		S := blocks[sid].Copy()

		for _, a := range alphabet {
			// X = { q | δ(q, a) ∈ S }
			hit := map[int][]int{}
			for _, target := range S.OrderedElements() {
				for _, q := range rev[a][target] {
					b := stateBlock[q]
					hit[b] = append(hit[b], q)
				}
			}

			for _, b := range util.OrderedIntKeys(hit) {
				inX := hit[b]
				if len(inX) == blocks[b].Len() {
					// no split; B ⊆ X
					continue
				}

				inter := util.IntSetOf(inX)
				diff := blocks[b].Difference(inter)

				// B is replaced by B ∩ X under its old id; B \ X becomes a
				// fresh block.
				blocks[b] = inter
				newID := len(blocks)
				blocks = append(blocks, diff)
				for _, q := range diff.OrderedElements() {
					stateBlock[q] = newID
				}

				if worklist.Has(b) {
					// B was queued; queue both halves (the old id already
					// covers B ∩ X).
					worklist.Push(newID)
				} else if inter.Len() <= diff.Len() {
					worklist.Push(b)
				} else {
					worklist.Push(newID)
				}
			}
		}
	}

	// assign fresh ids: blocks ordered by their smallest real member. The
	// block holding only the implicit dead state is not emitted.
	type blockOut struct {
		id  int
		min int
	}
	var outs []blockOut
	for b := range blocks {
		minReal := -1
		for _, q := range blocks[b].OrderedElements() {
			if q != dead {
				minReal = q
				break
			}
		}
		if minReal < 0 {
			continue // pure dead block
		}
		outs = append(outs, blockOut{id: b, min: minReal})
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].min < outs[j].min })

	newIDs := map[int]int{}
	min := NewDFA(dfa.RangeMap())
	for _, out := range outs {
		rep := dfa.states[out.min]

		st := DFAState{Accepting: rep.Accepting}
		if len(rep.Accepts) > 0 {
			// collapse the label set to the single winning label
			st.Accepts = []Accept{rep.Accepts[0]}
		}

		newIDs[out.id] = min.AddState(st)
	}

	// transitions, with the verification pass: every member of a block must
	// agree on its (completed) target block for every symbol.
	for _, out := range outs {
		members := blocks[out.id].OrderedElements()
		for _, a := range alphabet {
			agreed := -1
			first := true
			for _, q := range members {
				if q == dead {
					continue
				}
				target, ok := dfa.StepClass(q, a)
				if !ok {
					target = dead
				}
				tb := stateBlock[target]
				if first {
					agreed = tb
					first = false
				} else if tb != agreed {
					return nil, &InconsistentPartitionError{Block: members, Symbol: a}
				}
			}

			if agreed < 0 {
				continue
			}
			newTarget, emitted := newIDs[agreed]
			if !emitted {
				// agreed target is the pure dead block; no edge.
				continue
			}
			min.AddTransition(newIDs[out.id], a, newTarget)
		}
	}

	min.SetStart(newIDs[stateBlock[dfa.StartState()]])

	return min, nil
}
