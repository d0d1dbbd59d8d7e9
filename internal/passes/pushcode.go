package passes

import (
	"kaizen/internal/ir"
)

// PushCode moves assignments forward inside a block, potentially behind a
// condition, where they might not always execute. An assignment qualifies
// when its slot's whole live range is provably confined to the block and
// its value can be computed with no side effects, so skipping it on a
// branch that exits the block is unobservable.
type PushCode struct{}

func (*PushCode) Name() string {
	return "push-code"
}

func (*PushCode) Description() string {
	return "Moves pure assignments of block-confined locals past conditional control flow"
}

// PushCode keeps all state per invocation.
func (*PushCode) FunctionParallel() bool {
	return true
}

// Run never moves an assignment past a read of the same slot, so the
// definition-before-use property of the input is preserved and no fixup
// pass is needed afterwards.
func (*PushCode) Run(m *ir.Module, fn *ir.Function) bool {
	usage := analyzeLocals(fn)
	getsSoFar := make([]int, fn.NumLocals())
	changed := false
	ir.Walk(fn.Body, func(expr ir.Expression) {
		switch n := expr.(type) {
		case *ir.LocalGet:
			getsSoFar[n.Index]++
		case *ir.Block:
			// Pushing needs at least one element to push, one to push it
			// past, and one to use the pushed value.
			if len(n.List) < 3 {
				return
			}
			// Post-order: every get in this block's subtree is already
			// counted. A CSA slot whose gets-so-far equals its total gets
			// has no uses before or after this block, so its entire live
			// range sits inside the block and it may be reordered here.
			p := newPusher(n, usage, getsSoFar)
			if p.optimize() {
				changed = true
			}
		}
	})
	return changed
}

// localUsage caches per-slot facts for one function: assignment and read
// counts, and whether the slot is in confined-single-assignment form (one
// set, not a parameter, no get before the set in post-order).
type localUsage struct {
	csa     []bool
	numSets []int
	numGets []int
}

func analyzeLocals(fn *ir.Function) *localUsage {
	n := fn.NumLocals()
	u := &localUsage{
		csa:     make([]bool, n),
		numSets: make([]int, n),
		numGets: make([]int, n),
	}
	// Parameters already hold a value on entry, which counts as an
	// assignment we never saw; locals start optimistic.
	for i := fn.Params; i < n; i++ {
		u.csa[i] = true
	}
	ir.Walk(fn.Body, func(expr ir.Expression) {
		switch e := expr.(type) {
		case *ir.LocalGet:
			if u.numSets[e.Index] == 0 {
				u.csa[e.Index] = false
			}
			u.numGets[e.Index]++
		case *ir.LocalSet:
			u.numSets[e.Index]++
			if u.numSets[e.Index] > 1 {
				u.csa[e.Index] = false
			}
		}
	})
	for i := 0; i < n; i++ {
		if u.numSets[i] == 0 {
			u.csa[i] = false
		}
	}
	return u
}

// pusher implements the core motion logic for one block's instruction
// list. Used and then discarded entirely per block.
type pusher struct {
	list      []ir.Expression
	usage     *localUsage
	getsSoFar []int

	// effects caches each candidate's effect set, index-aligned with list
	// and permuted together with it, so a pushed element keeps its summary
	// when the scan reaches it again in a later segment.
	effects []*ir.EffectSet

	changed bool
}

func newPusher(block *ir.Block, usage *localUsage, getsSoFar []int) *pusher {
	return &pusher{
		list:      block.List,
		usage:     usage,
		getsSoFar: getsSoFar,
		effects:   make([]*ir.EffectSet, len(block.List)),
	}
}

// optimize scans for segments from the first pushable assignment to the
// first push point after it, optimizes each, and resumes where the segment
// optimizer says, so relocated assignments can be pushed again past a
// later push point.
func (p *pusher) optimize() bool {
	// Nothing ever needs to move past the final element; no use of a
	// pushed value could follow it.
	relevant := len(p.list) - 1
	const nothing = -1
	firstPushable := nothing
	i := 0
	for i < relevant {
		if firstPushable == nothing && p.isPushable(p.list[i]) != nil {
			firstPushable = i
			i++
			continue
		}
		if firstPushable != nothing && isPushPoint(p.list[i]) {
			i = p.optimizeSegment(firstPushable, i)
			firstPushable = nothing
			continue
		}
		i++
	}
	return p.changed
}

// isPushable returns the assignment if the instruction may be moved: a set
// of a confined-single-assignment slot with all of its gets already seen,
// whose value computes without side effects. The value may end up not
// executing at all, so it must be unconditionally safe to skip.
func (p *pusher) isPushable(expr ir.Expression) *ir.LocalSet {
	set, ok := expr.(*ir.LocalSet)
	if !ok {
		return nil
	}
	if !p.usage.csa[set.Index] || p.getsSoFar[set.Index] != p.usage.numGets[set.Index] {
		return nil
	}
	if ir.EffectsOf(set.Value).HasSideEffects() {
		return nil
	}
	return set
}

// isPushPoint reports whether code may be pushed past this instruction:
// conditional control flow, behind which the pushed code might not run.
// Pushing into the arms themselves is out of scope; only motion past the
// conditional as a whole happens here.
func isPushPoint(expr ir.Expression) bool {
	if drop, ok := expr.(*ir.Drop); ok {
		expr = drop.Value
	}
	switch e := expr.(type) {
	case *ir.If:
		return true
	case *ir.Break:
		// An unconditional exit is not a push point; nothing placed after
		// it would ever run.
		return e.Cond != nil
	}
	return false
}

// effectsAt lazily computes and caches the effect set of list[i].
func (p *pusher) effectsAt(i int) *ir.EffectSet {
	if p.effects[i] == nil {
		p.effects[i] = ir.EffectsOf(p.list[i])
	}
	return p.effects[i]
}

// optimizeSegment tries to push assignments from [firstPushable, pushPoint)
// past the push point. It scans backward so later pushables move out of the
// way of earlier ones, then performs the whole rewrite in one pass keeping
// the relative order of both the moved and the retained instructions.
// It returns the index at which the outer scan should resume.
func (p *pusher) optimizeSegment(firstPushable, pushPoint int) int {
	if firstPushable < 0 || firstPushable >= pushPoint {
		panic("pushcode: invalid segment bounds")
	}

	// The barrier accumulates everything that matters for moving past the
	// push point, starting with the push point's own effects. Branching
	// out of the block is excluded: confinement already proved the pushed
	// slots are never observed outside this block, so an exit taken before
	// the relocated assignment runs is harmless.
	barrier := ir.EffectsOf(p.list[pushPoint])
	barrier.IgnoreControlFlowTransfers()

	// Indices of selected assignments, collected in descending order.
	var toPush []int
	for i := pushPoint - 1; ; i-- {
		if i < firstPushable {
			panic("pushcode: backward scan ran past the segment start")
		}
		if set := p.isPushable(p.list[i]); set != nil {
			effects := p.effectsAt(i)
			if barrier.Conflicts(effects) {
				// Can't move it, so it now also blocks anything earlier.
				barrier.Merge(effects)
			} else {
				toPush = append(toPush, i)
			}
			if i == firstPushable {
				break
			}
		} else {
			// Not movable; it may block further pushing.
			barrier.Scan(p.list[i])
		}
	}

	if len(toPush) == 0 {
		return pushPoint + 1
	}

	// Compute the rewritten segment in a scratch list first: the retained
	// instructions compacted leftward, then the selected ones in original
	// order, ending exactly at the push point's former slot.
	total := len(toPush)
	selected := make(map[int]bool, total)
	for _, idx := range toPush {
		selected[idx] = true
	}
	segment := pushPoint - firstPushable + 1
	scratch := make([]ir.Expression, 0, segment)
	scratchEffects := make([]*ir.EffectSet, 0, segment)
	for i := firstPushable; i <= pushPoint; i++ {
		if !selected[i] {
			scratch = append(scratch, p.list[i])
			scratchEffects = append(scratchEffects, p.effects[i])
		}
	}
	if segment-len(scratch) != total {
		panic("pushcode: segment compaction mismatch")
	}
	for j := total - 1; j >= 0; j-- {
		idx := toPush[j]
		scratch = append(scratch, p.list[idx])
		scratchEffects = append(scratchEffects, p.effects[idx])
	}
	copy(p.list[firstPushable:pushPoint+1], scratch)
	copy(p.effects[firstPushable:pushPoint+1], scratchEffects)
	p.changed = true

	// Resume just past the relocated push point; the pushed assignments
	// may be pushed again past a later push point.
	return pushPoint - total + 1
}
